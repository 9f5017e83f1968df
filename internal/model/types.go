package model

import "time"

// Sighting is one observed wireless advertisement from a scanner source.
// RSSI is a pointer because some scanners report advertisements without a
// signal strength reading; those sightings are discarded by the engine.
type Sighting struct {
	Address    string    `json:"address"`
	Name       string    `json:"name,omitempty"`
	ServiceIDs []string  `json:"service_ids,omitempty"`
	RSSI       *int      `json:"rssi,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
	Source     string    `json:"source,omitempty"`
}

type Position struct {
	Latitude  float64 `json:"lat"`
	Longitude float64 `json:"lng"`
}

// SentFix records where and when the last asset-tracking section went out.
type SentFix struct {
	Position  Position
	Timestamp time.Time
}

// SightingRecord is the shape appended to the local raw log. The hardware
// address never appears here, only its pseudonym token.
type SightingRecord struct {
	Timestamp time.Time
	Token     string
	RSSI      int
}

// DispatchRecord is one audit row per attempted dispatch.
type DispatchRecord struct {
	Timestamp     time.Time
	UniqueDevices int
	TagCount      int
	Success       bool
}

type TagReading struct {
	ID   string `json:"id"`
	RSSI int    `json:"rssi"`
}

type TrafficSummary struct {
	GatewayID     string `json:"gateway_id"`
	Timestamp     string `json:"timestamp"`
	UniqueDevices int    `json:"unique_devices"`
}

type AssetSummary struct {
	GatewayID string       `json:"gateway_id"`
	Timestamp string       `json:"ts"`
	Latitude  float64      `json:"lat"`
	Longitude float64      `json:"lng"`
	Tags      []TagReading `json:"tags"`
}

// Payload is the merged outbound message. Both sections are optional and
// independently omitted; a payload with neither section is never sent.
type Payload struct {
	GatewayID     string          `json:"gateway_id"`
	Telemetry     *TrafficSummary `json:"telemetry,omitempty"`
	AssetTracking *AssetSummary   `json:"asset_tracking,omitempty"`
}
