package storage

import (
	"context"
	"database/sql"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/denamwangi/katy-trail-live/internal/model"
)

type sqliteStore struct {
	baseStore
}

func NewSQLite(dsn string) (Store, error) {
	if strings.TrimSpace(dsn) == "" {
		dsn = "file:detections.db?_pragma=busy_timeout(5000)"
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	return &sqliteStore{baseStore{db: db}}, nil
}

func (s *sqliteStore) Init(ctx context.Context) error {
	if s.db == nil {
		return nil
	}
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS sightings (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			ts TEXT NOT NULL,
			token TEXT NOT NULL,
			rssi INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_sightings_ts ON sightings(ts)`,
		`CREATE TABLE IF NOT EXISTS dispatches (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			ts TEXT NOT NULL,
			unique_devices INTEGER NOT NULL,
			tag_count INTEGER NOT NULL,
			success INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_dispatches_ts ON dispatches(ts)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

func (s *sqliteStore) SaveSighting(ctx context.Context, rec model.SightingRecord) error {
	if s.db == nil {
		return nil
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO sightings (ts, token, rssi) VALUES (?, ?, ?)`,
		rec.Timestamp.UTC(),
		rec.Token,
		rec.RSSI,
	)
	return err
}

func (s *sqliteStore) SaveDispatch(ctx context.Context, rec model.DispatchRecord) error {
	if s.db == nil {
		return nil
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO dispatches (ts, unique_devices, tag_count, success) VALUES (?, ?, ?, ?)`,
		rec.Timestamp.UTC(),
		rec.UniqueDevices,
		rec.TagCount,
		rec.Success,
	)
	return err
}
