package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// Timestamp is an epoch-millisecond instant. Older documents stored note
// timestamps as RFC 3339 strings, so both encodings are accepted on read.
type Timestamp int64

// TimestampOf converts t to a Timestamp.
func TimestampOf(t time.Time) Timestamp {
	return Timestamp(t.UnixMilli())
}

// Time returns the instant in local time.
func (stamp Timestamp) Time() time.Time {
	return time.UnixMilli(int64(stamp))
}

// MarshalJSON writes the timestamp as epoch milliseconds.
func (stamp Timestamp) MarshalJSON() ([]byte, error) {
	return []byte(strconv.FormatInt(int64(stamp), 10)), nil
}

// UnmarshalJSON accepts epoch milliseconds, numeric strings and RFC 3339 strings.
func (stamp *Timestamp) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*stamp = 0
		return nil
	}
	if data[0] != '"' {
		var millis float64
		if err := json.Unmarshal(data, &millis); err != nil {
			return fmt.Errorf("parse timestamp: %w", err)
		}
		*stamp = Timestamp(int64(millis))
		return nil
	}

	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("parse timestamp: %w", err)
	}
	if raw == "" {
		*stamp = 0
		return nil
	}
	if millis, err := strconv.ParseInt(raw, 10, 64); err == nil {
		*stamp = Timestamp(millis)
		return nil
	}
	parsed, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return fmt.Errorf("parse timestamp %q: %w", raw, err)
	}
	*stamp = TimestampOf(parsed)
	return nil
}
