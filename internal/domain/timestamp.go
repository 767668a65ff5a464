package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// Timestamp is a store timestamp that is either confirmed (read back from the
// store) or pending (a local clock stand-in returned by a create call before
// the server value is known).
type Timestamp struct {
	Time    time.Time
	Pending bool
}

func Confirmed(t time.Time) Timestamp { return Timestamp{Time: t.UTC()} }

func PendingNow() Timestamp { return Timestamp{Time: time.Now().UTC(), Pending: true} }

func (t Timestamp) IsZero() bool { return t.Time.IsZero() }

func (t Timestamp) Before(o Timestamp) bool { return t.Time.Before(o.Time) }

func (t Timestamp) After(o Timestamp) bool { return t.Time.After(o.Time) }

type timestampWire struct {
	Time    time.Time `json:"time"`
	Pending bool      `json:"pending,omitempty"`
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.Time.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(timestampWire{Time: t.Time.UTC(), Pending: t.Pending})
}

// UnmarshalJSON accepts null, a bare time string (store representation) or
// the {time, pending} object produced by MarshalJSON.
func (t *Timestamp) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*t = Timestamp{}
		return nil
	}
	switch b[0] {
	case '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		if s == "" {
			*t = Timestamp{}
			return nil
		}
		parsed, err := time.Parse(time.RFC3339Nano, s)
		if err != nil {
			return fmt.Errorf("parse timestamp %q: %w", s, err)
		}
		*t = Confirmed(parsed)
		return nil
	case '{':
		var w timestampWire
		if err := json.Unmarshal(b, &w); err != nil {
			return err
		}
		*t = Timestamp{Time: w.Time.UTC(), Pending: w.Pending}
		return nil
	}
	return fmt.Errorf("invalid timestamp %s", string(b))
}
