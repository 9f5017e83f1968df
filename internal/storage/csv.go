package storage

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/denamwangi/katy-trail-live/internal/model"
)

// csvStore appends to flat files, the format the first field deployment
// used. Sightings go to the configured path, dispatch audit rows to a
// dispatches.csv sibling.
type csvStore struct {
	mu         sync.Mutex
	path       string
	sightings  *os.File
	dispatches *os.File
}

func NewCSV(path string) (Store, error) {
	if strings.TrimSpace(path) == "" {
		path = "detections.csv"
	}
	return &csvStore{path: path}, nil
}

func (s *csvStore) Init(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	var err error
	s.sightings, err = openAppend(s.path, []string{"timestamp", "token", "rssi"})
	if err != nil {
		return err
	}
	dispatchPath := filepath.Join(filepath.Dir(s.path), "dispatches.csv")
	s.dispatches, err = openAppend(dispatchPath, []string{"timestamp", "unique_devices", "tag_count", "success"})
	if err != nil {
		_ = s.sightings.Close()
		s.sightings = nil
		return err
	}
	return nil
}

func openAppend(path string, header []string) (*os.File, error) {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, err
	}
	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	if info.Size() == 0 {
		w := csv.NewWriter(f)
		if err := w.Write(header); err != nil {
			_ = f.Close()
			return nil, err
		}
		w.Flush()
		if err := w.Error(); err != nil {
			_ = f.Close()
			return nil, err
		}
	}
	return f, nil
}

func (s *csvStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	var first error
	for _, f := range []*os.File{s.sightings, s.dispatches} {
		if f == nil {
			continue
		}
		if err := f.Close(); err != nil && first == nil {
			first = err
		}
	}
	s.sightings = nil
	s.dispatches = nil
	return first
}

func (s *csvStore) SaveSighting(ctx context.Context, rec model.SightingRecord) error {
	return s.writeRow(s.sightings, []string{
		rec.Timestamp.UTC().Format(time.RFC3339),
		rec.Token,
		strconv.Itoa(rec.RSSI),
	})
}

func (s *csvStore) SaveDispatch(ctx context.Context, rec model.DispatchRecord) error {
	return s.writeRow(s.dispatches, []string{
		rec.Timestamp.UTC().Format(time.RFC3339),
		strconv.Itoa(rec.UniqueDevices),
		strconv.Itoa(rec.TagCount),
		strconv.FormatBool(rec.Success),
	})
}

func (s *csvStore) writeRow(f *os.File, row []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if f == nil {
		return fmt.Errorf("csv store not initialized")
	}
	w := csv.NewWriter(f)
	if err := w.Write(row); err != nil {
		return err
	}
	w.Flush()
	return w.Error()
}
