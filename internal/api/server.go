package api

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/denamwangi/katy-trail-live/internal/config"
	"github.com/denamwangi/katy-trail-live/internal/engine"
	"github.com/denamwangi/katy-trail-live/internal/model"
)

type Server struct {
	cfg     *config.Config
	engine  *engine.Engine
	logger  *slog.Logger
	version string
}

type statusResponse struct {
	Status        string  `json:"status"`
	Time          string  `json:"time"`
	Version       string  `json:"version"`
	GatewayID     string  `json:"gateway_id"`
	Started       string  `json:"started"`
	Processed     int64   `json:"sightings_processed"`
	Dropped       int64   `json:"sightings_dropped"`
	Matched       int64   `json:"tag_matches"`
	TrackedTags   int     `json:"tracked_tags"`
	LastBatch     string  `json:"last_batch,omitempty"`
	LastFixTime   string  `json:"last_fix_time,omitempty"`
	LastFixLat    float64 `json:"last_fix_lat,omitempty"`
	LastFixLng    float64 `json:"last_fix_lng,omitempty"`
	DispatchEvery string  `json:"dispatch_interval"`
}

// Start serves the observability endpoints: /health, /status, /traffic,
// /tags and /position. Position accepts POST, the hook for a live GPS
// feed.
func Start(ctx context.Context, cfg *config.Config, eng *engine.Engine, logger *slog.Logger, version string) *http.Server {
	current := cfg.API
	if !current.Enabled {
		if logger != nil {
			logger.Info("api disabled")
		}
		return nil
	}
	if logger != nil {
		logger.Info("api enabled", "addr", current.Addr)
	}
	server := &Server{cfg: cfg, engine: eng, logger: logger, version: version}
	mux := http.NewServeMux()
	mux.HandleFunc("/health", server.handleHealth)
	mux.HandleFunc("/status", server.handleStatus)
	mux.HandleFunc("/traffic", server.handleTraffic)
	mux.HandleFunc("/tags", server.handleTags)
	mux.HandleFunc("/position", server.handlePosition)

	httpServer := &http.Server{Addr: current.Addr, Handler: mux}
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = httpServer.Shutdown(ctxShutdown)
	}()
	go func() {
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			if logger != nil {
				logger.Error("api server error", "err", err)
			}
		}
	}()
	return httpServer
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	st := s.engine.Status()
	resp := statusResponse{
		Status:        "ok",
		Time:          time.Now().UTC().Format(time.RFC3339Nano),
		Version:       s.version,
		GatewayID:     s.cfg.Gateway.ID,
		Started:       st.Started.Format(time.RFC3339),
		Processed:     st.Processed,
		Dropped:       st.Dropped,
		Matched:       st.Matched,
		TrackedTags:   st.Tags,
		DispatchEvery: s.cfg.Dispatch.Interval.String(),
	}
	if !st.LastBatch.IsZero() {
		resp.LastBatch = st.LastBatch.Format(time.RFC3339)
	}
	if st.LastSent != nil {
		resp.LastFixTime = st.LastSent.Timestamp.Format(time.RFC3339)
		resp.LastFixLat = st.LastSent.Position.Latitude
		resp.LastFixLng = st.LastSent.Position.Longitude
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleTraffic(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"unique_devices": s.engine.TrafficCount(),
	})
}

func (s *Server) handleTags(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	readings := s.engine.TagEstimates(time.Now().UTC())
	writeJSON(w, http.StatusOK, map[string]any{
		"tags":  readings,
		"count": len(readings),
	})
}

func (s *Server) handlePosition(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, s.engine.Position())
	case http.MethodPost:
		body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, 1<<20))
		if err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		var pos model.Position
		if err := json.Unmarshal(body, &pos); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		if pos.Latitude < -90 || pos.Latitude > 90 || pos.Longitude < -180 || pos.Longitude > 180 {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		s.engine.SetPosition(pos)
		if s.logger != nil {
			s.logger.Info("position updated", "lat", pos.Latitude, "lng", pos.Longitude)
		}
		writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
