package storage

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/MimoJanra/PortPulse/internal/models"
)

var ErrNotFound = errors.New("not found")

type WatchRepo struct {
	db *sql.DB
}

func NewWatchRepo(db *sql.DB) *WatchRepo { return &WatchRepo{db: db} }

const watchColumns = "id, target, port, timeout_ms, interval_seconds, skip_liveness, enabled"

func (r *WatchRepo) Add(w models.Watch) (models.Watch, error) {
	req := w.Request()
	if err := req.Validate(); err != nil {
		return models.Watch{}, err
	}
	w.Target = req.Target
	w.TimeoutMS = int(req.Timeout.Milliseconds())
	if w.IntervalSeconds <= 0 {
		w.IntervalSeconds = 60
	}

	res, err := r.db.Exec(
		"INSERT INTO watches(target, port, timeout_ms, interval_seconds, skip_liveness, enabled) VALUES(?, ?, ?, ?, ?, ?)",
		w.Target, w.Port, w.TimeoutMS, w.IntervalSeconds, boolToInt(w.SkipLiveness), boolToInt(w.Enabled),
	)
	if err != nil {
		return models.Watch{}, fmt.Errorf("insert watch: %w", err)
	}
	id, _ := res.LastInsertId()
	w.ID = int(id)
	return w, nil
}

func (r *WatchRepo) GetAll() ([]models.Watch, error) {
	rows, err := r.db.Query("SELECT " + watchColumns + " FROM watches ORDER BY id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var watches []models.Watch
	for rows.Next() {
		w, err := scanWatch(rows)
		if err != nil {
			return nil, err
		}
		watches = append(watches, w)
	}
	return watches, rows.Err()
}

func (r *WatchRepo) GetByID(id int) (models.Watch, error) {
	row := r.db.QueryRow("SELECT "+watchColumns+" FROM watches WHERE id = ?", id)
	w, err := scanWatch(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Watch{}, ErrNotFound
	}
	return w, err
}

func (r *WatchRepo) SetEnabled(id int, enabled bool) error {
	res, err := r.db.Exec("UPDATE watches SET enabled = ? WHERE id = ?", boolToInt(enabled), id)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

func (r *WatchRepo) Delete(id int) error {
	res, err := r.db.Exec("DELETE FROM watches WHERE id = ?", id)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

type scanner interface {
	Scan(dest ...any) error
}

func scanWatch(s scanner) (models.Watch, error) {
	var (
		w            models.Watch
		skipLiveness int
		enabled      int
	)
	if err := s.Scan(&w.ID, &w.Target, &w.Port, &w.TimeoutMS, &w.IntervalSeconds, &skipLiveness, &enabled); err != nil {
		return models.Watch{}, err
	}
	w.SkipLiveness = skipLiveness == 1
	w.Enabled = enabled == 1
	return w, nil
}

func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
