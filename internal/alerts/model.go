package alerts

import (
	"bytes"
	"encoding/json"
	"time"
)

// MaxRecent caps how many alerts a single read may return.
const MaxRecent = 500

// Alert is one recorded panic event. Alerts are never updated or deleted.
type Alert struct {
	ID        int64
	Latitude  float64
	Longitude float64
	Address   string
	Timestamp int64 // epoch milliseconds, assigned by the server
}

// Time returns the alert timestamp as a UTC time.
func (a Alert) Time() time.Time {
	return time.UnixMilli(a.Timestamp).UTC()
}

// RecordInput carries coordinates exactly as the client sent them; parsing
// and range checks belong to the service.
type RecordInput struct {
	Latitude  string
	Longitude string
	Address   string
}

// Coordinate accepts either a JSON number or a JSON string and keeps its text.
type Coordinate string

// UnmarshalJSON implements json.Unmarshaler.
func (c *Coordinate) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*c = ""
	case len(data) > 0 && data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*c = Coordinate(s)
	default:
		*c = Coordinate(data)
	}
	return nil
}

// UnmarshalText implements encoding.TextUnmarshaler for form fields.
func (c *Coordinate) UnmarshalText(text []byte) error {
	*c = Coordinate(text)
	return nil
}
