package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	LogLevel  string          `json:"log_level" yaml:"log_level"`
	Gateway   GatewayConfig   `json:"gateway" yaml:"gateway"`
	Tracking  TrackingConfig  `json:"tracking" yaml:"tracking"`
	Pseudonym PseudonymConfig `json:"pseudonym" yaml:"pseudonym"`
	Ingest    IngestConfig    `json:"ingest" yaml:"ingest"`
	Dispatch  DispatchConfig  `json:"dispatch" yaml:"dispatch"`
	Storage   StorageConfig   `json:"storage" yaml:"storage"`
	API       APIConfig       `json:"api" yaml:"api"`
}

type GatewayConfig struct {
	ID        string  `json:"id" yaml:"id"`
	Latitude  float64 `json:"latitude" yaml:"latitude"`
	Longitude float64 `json:"longitude" yaml:"longitude"`
}

type TrackingConfig struct {
	Tags          []string      `json:"tags" yaml:"tags"`
	RSSIWindow    time.Duration `json:"rssi_window" yaml:"rssi_window"`
	Heartbeat     time.Duration `json:"heartbeat" yaml:"heartbeat"`
	MinMoveMeters float64       `json:"min_move_meters" yaml:"min_move_meters"`
}

type PseudonymConfig struct {
	// Salt must stay stable across runs so tokens remain comparable.
	Salt string `json:"salt" yaml:"salt"`
}

type IngestConfig struct {
	ChannelBuffer int             `json:"channel_buffer" yaml:"channel_buffer"`
	ScanInterval  time.Duration   `json:"scan_interval" yaml:"scan_interval"`
	REST          RESTConfig      `json:"rest" yaml:"rest"`
	TCPStream     TCPStreamConfig `json:"tcp_stream" yaml:"tcp_stream"`
	FileTail      FileTailConfig  `json:"file_tail" yaml:"file_tail"`
	Kafka         KafkaConfig     `json:"kafka" yaml:"kafka"`
}

type RESTConfig struct {
	Enabled bool   `json:"enabled" yaml:"enabled"`
	Addr    string `json:"addr" yaml:"addr"`
}

type TCPStreamConfig struct {
	Enabled bool   `json:"enabled" yaml:"enabled"`
	Addr    string `json:"addr" yaml:"addr"`
}

type FileTailConfig struct {
	Enabled    bool     `json:"enabled" yaml:"enabled"`
	StartAtEnd bool     `json:"start_at_end" yaml:"start_at_end"`
	Files      []string `json:"files" yaml:"files"`
}

type KafkaConfig struct {
	Enabled bool     `json:"enabled" yaml:"enabled"`
	Brokers []string `json:"brokers" yaml:"brokers"`
	Topic   string   `json:"topic" yaml:"topic"`
	GroupID string   `json:"group_id" yaml:"group_id"`
}

type DispatchConfig struct {
	Enabled  bool          `json:"enabled" yaml:"enabled"`
	Interval time.Duration `json:"interval" yaml:"interval"`
	URL      string        `json:"url" yaml:"url"`
	APIKey   string        `json:"api_key" yaml:"api_key"`
	Timeout  time.Duration `json:"timeout" yaml:"timeout"`
}

type StorageConfig struct {
	Enabled bool   `json:"enabled" yaml:"enabled"`
	Driver  string `json:"driver" yaml:"driver"`
	DSN     string `json:"dsn" yaml:"dsn"`
}

type APIConfig struct {
	Enabled bool   `json:"enabled" yaml:"enabled"`
	Addr    string `json:"addr" yaml:"addr"`
}

func DefaultConfig() *Config {
	return &Config{
		LogLevel: "info",
		Gateway:  GatewayConfig{ID: ""},
		Tracking: TrackingConfig{
			RSSIWindow:    30 * time.Second,
			Heartbeat:     120 * time.Second,
			MinMoveMeters: 10,
		},
		Ingest: IngestConfig{
			ChannelBuffer: 10000,
			ScanInterval:  5 * time.Second,
			REST:          RESTConfig{Enabled: true, Addr: ":8080"},
			TCPStream:     TCPStreamConfig{Enabled: false, Addr: ":9000"},
			FileTail:      FileTailConfig{Enabled: false, StartAtEnd: true},
			Kafka:         KafkaConfig{Enabled: false},
		},
		Dispatch: DispatchConfig{
			Enabled:  true,
			Interval: 180 * time.Second,
			Timeout:  10 * time.Second,
		},
		Storage: StorageConfig{Enabled: true, Driver: "sqlite", DSN: "file:detections.db?_pragma=busy_timeout(5000)"},
		API:     APIConfig{Enabled: true, Addr: ":8081"},
	}
}

func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	content, err := io.ReadAll(f)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()

	trimmed := strings.TrimSpace(string(content))
	if len(trimmed) == 0 {
		return nil, errors.New("config file is empty")
	}
	var decodeErr error
	if looksLikeJSON(trimmed) {
		decodeErr = json.Unmarshal([]byte(trimmed), cfg)
	} else {
		decodeErr = yaml.Unmarshal([]byte(trimmed), cfg)
	}
	if decodeErr != nil {
		return nil, decodeErr
	}
	applyDefaults(cfg)
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func looksLikeJSON(s string) bool {
	for _, ch := range s {
		if ch == '{' || ch == '[' {
			return true
		}
		if ch > ' ' {
			return false
		}
	}
	return false
}

func applyDefaults(cfg *Config) {
	if cfg.Tracking.RSSIWindow <= 0 {
		cfg.Tracking.RSSIWindow = 30 * time.Second
	}
	if cfg.Tracking.Heartbeat <= 0 {
		cfg.Tracking.Heartbeat = 120 * time.Second
	}
	if cfg.Tracking.MinMoveMeters <= 0 {
		cfg.Tracking.MinMoveMeters = 10
	}
	if cfg.Ingest.ChannelBuffer <= 0 {
		cfg.Ingest.ChannelBuffer = 10000
	}
	if cfg.Ingest.ScanInterval <= 0 {
		cfg.Ingest.ScanInterval = 5 * time.Second
	}
	if cfg.Dispatch.Interval <= 0 {
		cfg.Dispatch.Interval = 180 * time.Second
	}
	if cfg.Dispatch.Timeout <= 0 {
		cfg.Dispatch.Timeout = 10 * time.Second
	}
	if cfg.Storage.Driver == "" {
		cfg.Storage.Driver = "sqlite"
	}
}

func Validate(cfg *Config) error {
	if strings.TrimSpace(cfg.Gateway.ID) == "" {
		return errors.New("gateway.id is required")
	}
	if cfg.Gateway.Latitude < -90 || cfg.Gateway.Latitude > 90 {
		return fmt.Errorf("gateway.latitude out of range: %v", cfg.Gateway.Latitude)
	}
	if cfg.Gateway.Longitude < -180 || cfg.Gateway.Longitude > 180 {
		return fmt.Errorf("gateway.longitude out of range: %v", cfg.Gateway.Longitude)
	}
	if cfg.Dispatch.Enabled {
		if cfg.Dispatch.URL == "" {
			return errors.New("dispatch.url required when dispatch.enabled is true")
		}
		if cfg.Dispatch.APIKey == "" {
			return errors.New("dispatch.api_key required when dispatch.enabled is true")
		}
	}
	if cfg.API.Enabled && cfg.API.Addr == "" {
		return errors.New("api.addr required when api.enabled is true")
	}
	if cfg.Ingest.REST.Enabled && cfg.Ingest.REST.Addr == "" {
		return errors.New("ingest.rest.addr required when ingest.rest.enabled is true")
	}
	if cfg.Ingest.TCPStream.Enabled && cfg.Ingest.TCPStream.Addr == "" {
		return errors.New("ingest.tcp_stream.addr required when ingest.tcp_stream.enabled is true")
	}
	if cfg.Ingest.FileTail.Enabled && len(cfg.Ingest.FileTail.Files) == 0 {
		return errors.New("ingest.file_tail.files required when ingest.file_tail.enabled is true")
	}
	if cfg.Ingest.Kafka.Enabled {
		if len(cfg.Ingest.Kafka.Brokers) == 0 || cfg.Ingest.Kafka.Topic == "" || cfg.Ingest.Kafka.GroupID == "" {
			return errors.New("ingest.kafka requires brokers, topic, group_id")
		}
	}
	return nil
}
