package domain

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"
)

// referenceDate is the zero point for small elapsed-seconds check-in values.
var referenceDate = time.Date(2001, time.January, 1, 0, 0, 0, 0, time.UTC)

// epochThreshold separates Unix-epoch seconds from reference-date seconds.
// Any value at or above it is read as Unix time (2001-09-09 onwards).
const epochThreshold = 1e9

var checkInLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// CheckInDate is a timestamp that decodes from either an ISO-8601 string or
// a raw elapsed-seconds number. Unparseable strings decode to the zero time
// rather than failing the surrounding document.
type CheckInDate struct {
	time.Time
}

func (d CheckInDate) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(d.UTC().Format(time.RFC3339Nano))
}

func (d *CheckInDate) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		d.Time = time.Time{}
		return nil
	}

	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		d.Time = parseCheckInString(s)
		return nil
	}

	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}
	d.Time = fromSeconds(f)
	return nil
}

func parseCheckInString(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}
	for _, layout := range checkInLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC()
		}
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return fromSeconds(f)
	}
	return time.Time{}
}

func fromSeconds(f float64) time.Time {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return time.Time{}
	}
	sec, frac := math.Modf(f)
	if f >= epochThreshold {
		return time.Unix(int64(sec), int64(frac*1e9)).UTC()
	}
	return referenceDate.Add(time.Duration(f * float64(time.Second)))
}

// Seconds is a non-negative duration in whole seconds that tolerates float
// and numeric-string encodings.
type Seconds int

func (s *Seconds) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*s = 0
		return nil
	}
	raw := string(data)
	if data[0] == '"' {
		if err := json.Unmarshal(data, &raw); err != nil {
			return err
		}
		raw = strings.TrimSpace(raw)
		if raw == "" {
			*s = 0
			return nil
		}
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		*s = 0
		return nil
	}
	if f < 0 {
		f = 0
	}
	*s = Seconds(int(f))
	return nil
}
