package storage

import (
	"context"
	"database/sql"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/denamwangi/katy-trail-live/internal/model"
)

type postgresStore struct {
	baseStore
}

func NewPostgres(dsn string) (Store, error) {
	if strings.TrimSpace(dsn) == "" {
		dsn = "postgres://localhost:5432/katytrail?sslmode=disable"
	}
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	return &postgresStore{baseStore{db: db}}, nil
}

func (s *postgresStore) Init(ctx context.Context) error {
	if s.db == nil {
		return nil
	}
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS sightings (
			id BIGSERIAL PRIMARY KEY,
			ts TIMESTAMPTZ NOT NULL,
			token TEXT NOT NULL,
			rssi INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_sightings_ts ON sightings(ts)`,
		`CREATE TABLE IF NOT EXISTS dispatches (
			id BIGSERIAL PRIMARY KEY,
			ts TIMESTAMPTZ NOT NULL,
			unique_devices INTEGER NOT NULL,
			tag_count INTEGER NOT NULL,
			success BOOLEAN NOT NULL
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

func (s *postgresStore) SaveSighting(ctx context.Context, rec model.SightingRecord) error {
	if s.db == nil {
		return nil
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO sightings (ts, token, rssi) VALUES ($1, $2, $3)`,
		rec.Timestamp.UTC(),
		rec.Token,
		rec.RSSI,
	)
	return err
}

func (s *postgresStore) SaveDispatch(ctx context.Context, rec model.DispatchRecord) error {
	if s.db == nil {
		return nil
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO dispatches (ts, unique_devices, tag_count, success) VALUES ($1, $2, $3, $4)`,
		rec.Timestamp.UTC(),
		rec.UniqueDevices,
		rec.TagCount,
		rec.Success,
	)
	return err
}
