// Package types contains the JSON shapes shared by the HTTP and WebSocket layers.
package types

import "time"

// TimestampFormat is the ISO-8601 layout used on the wire.
const TimestampFormat = time.RFC3339Nano

// Results is the latest detection result as served by GET /get_results.
type Results struct {
	CheatingScore float64  `json:"cheating_score"`
	Indicators    []string `json:"indicators"`
	// Timestamp is nil until the first frame has been scored.
	Timestamp    *string `json:"timestamp"`
	WarningLevel string  `json:"warning_level"`
	FrameID      string  `json:"frame_id,omitempty"`
}

// Overlay is the dashboard styling for a warning level.
type Overlay struct {
	// Status is the overlay label, e.g. "Status: WARNING".
	Status string `json:"status"`
	// Color is the level colour as #rrggbb.
	Color string `json:"color"`
}

// Health is the body of GET /health.
type Health struct {
	Status      string `json:"status"`
	ModelLoaded bool   `json:"model_loaded"`
	Timestamp   string `json:"timestamp"`
}

// FrameAck acknowledges POST /frames.
type FrameAck struct {
	Status    string `json:"status"`
	FrameID   string `json:"frame_id"`
	Duplicate bool   `json:"duplicate"`
}

// SaveAck acknowledges POST /api/results.
type SaveAck struct {
	Status string `json:"status"`
}

// FormatTimestamp renders t for the wire.
func FormatTimestamp(t time.Time) string {
	return t.Format(TimestampFormat)
}
