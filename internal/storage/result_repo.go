package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/MimoJanra/PortPulse/internal/models"
)

const defaultResultLimit = 100

type ResultRepo struct {
	db *sql.DB
}

func NewResultRepo(db *sql.DB) *ResultRepo { return &ResultRepo{db: db} }

const resultColumns = "id, watch_id, batch_id, target, port, host_reachable, connection_status, duration_ms, error_message, checked_at"

func (r *ResultRepo) Add(rec models.Record) (models.Record, error) {
	if rec.CheckedAt.IsZero() {
		rec.CheckedAt = time.Now().UTC()
	}

	var watchID sql.NullInt64
	if rec.WatchID != nil {
		watchID = sql.NullInt64{Int64: int64(*rec.WatchID), Valid: true}
	}

	res, err := r.db.Exec(`
		INSERT INTO results(watch_id, batch_id, target, port, host_reachable, connection_status, duration_ms, error_message, checked_at)
		VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, watchID, rec.BatchID, rec.Target, rec.Port, string(rec.HostReachable), string(rec.ConnectionStatus),
		rec.DurationMS, rec.Error, rec.CheckedAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return models.Record{}, fmt.Errorf("insert result: %w", err)
	}
	id, _ := res.LastInsertId()
	rec.ID = int(id)
	return rec, nil
}

func (r *ResultRepo) GetByID(id int) (models.Record, error) {
	row := r.db.QueryRow("SELECT "+resultColumns+" FROM results WHERE id = ?", id)
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Record{}, ErrNotFound
	}
	return rec, err
}

// List returns the newest records first.
func (r *ResultRepo) List(filter models.ResultFilter) ([]models.Record, error) {
	var (
		where []string
		args  []any
	)
	if filter.Target != "" {
		where = append(where, "target = ?")
		args = append(args, filter.Target)
	}
	if filter.Port > 0 {
		where = append(where, "port = ?")
		args = append(args, filter.Port)
	}
	if filter.WatchID != nil {
		where = append(where, "watch_id = ?")
		args = append(args, *filter.WatchID)
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = defaultResultLimit
	}

	query := "SELECT " + resultColumns + " FROM results"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY id DESC LIMIT ?"
	args = append(args, limit)

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := make([]models.Record, 0)
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

func (r *ResultRepo) Stats(target string, port int) (models.StatsResponse, error) {
	row := r.db.QueryRow(`
		SELECT COUNT(*),
			COALESCE(SUM(CASE WHEN connection_status = ? THEN 1 ELSE 0 END), 0),
			MIN(duration_ms), MAX(duration_ms), AVG(duration_ms)
		FROM results
		WHERE target = ? AND port = ?
	`, string(models.StatusSuccess), target, port)

	stats := models.StatsResponse{Target: target, Port: port}
	var (
		minMS, maxMS sql.NullInt64
		avgMS        sql.NullFloat64
	)
	if err := row.Scan(&stats.Total, &stats.SuccessCount, &minMS, &maxMS, &avgMS); err != nil {
		return models.StatsResponse{}, err
	}

	stats.FailureCount = stats.Total - stats.SuccessCount
	if stats.Total > 0 {
		stats.SuccessRatio = float64(stats.SuccessCount) / float64(stats.Total)
	}
	stats.Latency = models.LatencyStats{Min: minMS.Int64, Max: maxMS.Int64, Avg: avgMS.Float64}
	return stats, nil
}

func scanRecord(s scanner) (models.Record, error) {
	var (
		rec       models.Record
		watchID   sql.NullInt64
		reachable string
		status    string
		checkedAt string
	)
	err := s.Scan(&rec.ID, &watchID, &rec.BatchID, &rec.Target, &rec.Port, &reachable, &status,
		&rec.DurationMS, &rec.Error, &checkedAt)
	if err != nil {
		return models.Record{}, err
	}
	if watchID.Valid {
		id := int(watchID.Int64)
		rec.WatchID = &id
	}
	rec.HostReachable = models.Liveness(reachable)
	rec.ConnectionStatus = models.ConnectionStatus(status)
	if ts, err := time.Parse(time.RFC3339Nano, checkedAt); err == nil {
		rec.CheckedAt = ts
	}
	return rec, nil
}
