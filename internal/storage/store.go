package storage

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/denamwangi/katy-trail-live/internal/config"
	"github.com/denamwangi/katy-trail-live/internal/model"
)

// Store is the append-only local sink for pseudonymized raw sightings and
// per-cycle dispatch audit rows. Write failures surface to the caller but
// never interrupt the pipeline.
type Store interface {
	Init(ctx context.Context) error
	Close() error
	SaveSighting(ctx context.Context, rec model.SightingRecord) error
	SaveDispatch(ctx context.Context, rec model.DispatchRecord) error
}

func NewStore(cfg config.StorageConfig) (Store, error) {
	if !cfg.Enabled {
		return nil, nil
	}
	switch strings.ToLower(cfg.Driver) {
	case "sqlite":
		return NewSQLite(cfg.DSN)
	case "postgres", "postgresql":
		return NewPostgres(cfg.DSN)
	case "csv":
		return NewCSV(cfg.DSN)
	default:
		return nil, errors.New("unsupported storage driver")
	}
}

type baseStore struct {
	db *sql.DB
}

func (b *baseStore) Close() error {
	if b.db != nil {
		return b.db.Close()
	}
	return nil
}
