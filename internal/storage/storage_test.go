package storage

import (
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MimoJanra/PortPulse/internal/models"
)

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := InitDB(filepath.Join(t.TempDir(), "portpulse.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestWatchRepo_CRUD(t *testing.T) {
	repo := NewWatchRepo(newTestDB(t))

	w, err := repo.Add(models.Watch{Target: " db.internal ", Port: 5432, Enabled: true})
	require.NoError(t, err)
	assert.Positive(t, w.ID)
	assert.Equal(t, "db.internal", w.Target)
	assert.Equal(t, models.DefaultTimeoutMS, w.TimeoutMS)
	assert.Equal(t, 60, w.IntervalSeconds)

	got, err := repo.GetByID(w.ID)
	require.NoError(t, err)
	assert.Equal(t, w, got)

	require.NoError(t, repo.SetEnabled(w.ID, false))
	got, err = repo.GetByID(w.ID)
	require.NoError(t, err)
	assert.False(t, got.Enabled)

	all, err := repo.GetAll()
	require.NoError(t, err)
	assert.Len(t, all, 1)

	require.NoError(t, repo.Delete(w.ID))
	_, err = repo.GetByID(w.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, repo.Delete(w.ID), ErrNotFound)
	assert.ErrorIs(t, repo.SetEnabled(w.ID, true), ErrNotFound)
}

func TestWatchRepo_AddRejectsInvalidPort(t *testing.T) {
	repo := NewWatchRepo(newTestDB(t))

	_, err := repo.Add(models.Watch{Target: "db.internal", Port: 0})
	var verr *models.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "port", verr.Field)
}

func TestResultRepo_AddListFilter(t *testing.T) {
	db := newTestDB(t)
	watches := NewWatchRepo(db)
	results := NewResultRepo(db)

	w, err := watches.Add(models.Watch{Target: "127.0.0.1", Port: 22, Enabled: true})
	require.NoError(t, err)

	checkedAt := time.Date(2024, 5, 1, 10, 0, 0, 123, time.UTC)
	first, err := results.Add(models.Record{
		WatchID: &w.ID,
		ProbeResult: models.ProbeResult{
			Target:           "127.0.0.1",
			Port:             22,
			HostReachable:    models.Reachable,
			ConnectionStatus: models.StatusSuccess,
			DurationMS:       4,
			CheckedAt:        checkedAt,
		},
	})
	require.NoError(t, err)

	_, err = results.Add(models.Record{
		BatchID: "b-1",
		ProbeResult: models.ProbeResult{
			Target:           "127.0.0.1",
			Port:             80,
			HostReachable:    models.Unknown,
			ConnectionStatus: models.StatusFailed,
			DurationMS:       500,
			Error:            "TCP connection timed out after 500ms",
		},
	})
	require.NoError(t, err)

	got, err := results.GetByID(first.ID)
	require.NoError(t, err)
	require.NotNil(t, got.WatchID)
	assert.Equal(t, w.ID, *got.WatchID)
	assert.Equal(t, models.StatusSuccess, got.ConnectionStatus)
	assert.True(t, checkedAt.Equal(got.CheckedAt))

	all, err := results.List(models.ResultFilter{})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, 80, all[0].Port, "newest first")
	assert.Equal(t, "b-1", all[0].BatchID)
	assert.Nil(t, all[0].WatchID)

	byPort, err := results.List(models.ResultFilter{Target: "127.0.0.1", Port: 22})
	require.NoError(t, err)
	assert.Len(t, byPort, 1)

	byWatch, err := results.List(models.ResultFilter{WatchID: &w.ID})
	require.NoError(t, err)
	assert.Len(t, byWatch, 1)

	limited, err := results.List(models.ResultFilter{Limit: 1})
	require.NoError(t, err)
	assert.Len(t, limited, 1)

	_, err = results.GetByID(9999)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestResultRepo_Stats(t *testing.T) {
	results := NewResultRepo(newTestDB(t))

	empty, err := results.Stats("10.0.0.1", 443)
	require.NoError(t, err)
	assert.Equal(t, 0, empty.Total)
	assert.Zero(t, empty.SuccessRatio)

	for _, d := range []struct {
		status models.ConnectionStatus
		ms     int64
	}{
		{models.StatusSuccess, 10},
		{models.StatusSuccess, 30},
		{models.StatusFailed, 2000},
		{models.StatusSuccess, 20},
	} {
		_, err := results.Add(models.Record{ProbeResult: models.ProbeResult{
			Target:           "10.0.0.1",
			Port:             443,
			HostReachable:    models.Unknown,
			ConnectionStatus: d.status,
			DurationMS:       d.ms,
		}})
		require.NoError(t, err)
	}

	stats, err := results.Stats("10.0.0.1", 443)
	require.NoError(t, err)
	assert.Equal(t, 4, stats.Total)
	assert.Equal(t, 3, stats.SuccessCount)
	assert.Equal(t, 1, stats.FailureCount)
	assert.InDelta(t, 0.75, stats.SuccessRatio, 0.0001)
	assert.EqualValues(t, 10, stats.Latency.Min)
	assert.EqualValues(t, 2000, stats.Latency.Max)
	assert.InDelta(t, 515.0, stats.Latency.Avg, 0.0001)
}

func TestDeleteWatchCascadesResults(t *testing.T) {
	db := newTestDB(t)
	watches := NewWatchRepo(db)
	results := NewResultRepo(db)

	w, err := watches.Add(models.Watch{Target: "127.0.0.1", Port: 22, Enabled: true})
	require.NoError(t, err)
	_, err = results.Add(models.Record{WatchID: &w.ID, ProbeResult: models.ProbeResult{
		Target: "127.0.0.1", Port: 22, HostReachable: models.Unknown, ConnectionStatus: models.StatusFailed,
	}})
	require.NoError(t, err)

	require.NoError(t, watches.Delete(w.ID))

	remaining, err := results.List(models.ResultFilter{})
	require.NoError(t, err)
	assert.Empty(t, remaining)
}
