package models

import (
	"strconv"
	"time"

	"github.com/goccy/go-json"
)

// timestampLayouts are tried in order when decoding. RFC 3339 is what the
// backend documents; the others are forms seen from SQL-backed services.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// Timestamp is a time that never fails a decode. A value in an unknown format
// keeps its raw text, leaves Time zero, and is written back unchanged.
type Timestamp struct {
	time.Time
	raw string
}

func At(t time.Time) Timestamp {
	return Timestamp{Time: t}
}

// Raw returns the undecodable text, or "" when Time holds the value.
func (t Timestamp) Raw() string {
	return t.raw
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.Time.IsZero() && t.raw != "" {
		return json.Marshal(t.raw)
	}
	return t.Time.MarshalJSON()
}

func (t *Timestamp) UnmarshalJSON(b []byte) error {
	*t = Timestamp{}
	if string(b) == "null" {
		return nil
	}

	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		// Numbers are taken as unix seconds; anything else is kept raw.
		if secs, perr := strconv.ParseInt(string(b), 10, 64); perr == nil {
			t.Time = time.Unix(secs, 0).UTC()
			return nil
		}
		t.raw = string(b)
		return nil
	}
	if s == "" {
		return nil
	}

	for _, layout := range timestampLayouts {
		if parsed, err := time.Parse(layout, s); err == nil {
			t.Time = parsed
			return nil
		}
	}
	t.raw = s
	return nil
}
