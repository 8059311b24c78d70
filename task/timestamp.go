package task

import (
	"database/sql/driver"
	"fmt"
	"strings"
	"time"
)

// Timestamp is a nullable creation time scanned from the store. PostgreSQL
// returns native times; SQLite stores ISO-8601 text.
type Timestamp struct {
	Time  time.Time
	Valid bool
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999Z0700",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999Z0700",
	"2006-01-02 15:04:05.999999999Z07",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04Z07:00",
	"2006-01-02T15:04",
	"2006-01-02",
}

// ParseTimestamp parses an ISO-8601 instant. A trailing "Z" means UTC and
// timestamps without an offset are taken as UTC.
func ParseTimestamp(value string) (time.Time, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return time.Time{}, fmt.Errorf("empty timestamp")
	}
	for _, layout := range timestampLayouts {
		parsed, err := time.Parse(layout, trimmed)
		if err == nil {
			return parsed.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("parse timestamp %q: not ISO-8601", value)
}

// Scan implements sql.Scanner.
func (t *Timestamp) Scan(src any) error {
	switch value := src.(type) {
	case nil:
		*t = Timestamp{}
		return nil
	case time.Time:
		*t = Timestamp{Time: value.UTC(), Valid: true}
		return nil
	case string:
		return t.scanText(value)
	case []byte:
		return t.scanText(string(value))
	default:
		return fmt.Errorf("scan timestamp: unsupported type %T", src)
	}
}

func (t *Timestamp) scanText(value string) error {
	if strings.TrimSpace(value) == "" {
		*t = Timestamp{}
		return nil
	}
	parsed, err := ParseTimestamp(value)
	if err != nil {
		return err
	}
	*t = Timestamp{Time: parsed, Valid: true}
	return nil
}

// Value implements driver.Valuer.
func (t Timestamp) Value() (driver.Value, error) {
	if !t.Valid {
		return nil, nil
	}
	return t.Time, nil
}

// Ptr returns the time or nil when absent.
func (t Timestamp) Ptr() *time.Time {
	if !t.Valid {
		return nil
	}
	value := t.Time
	return &value
}

// DaysSince returns the whole days elapsed between the timestamp and now,
// truncated toward zero and never negative. The second result is false
// when no timestamp is recorded.
func DaysSince(createdAt Timestamp, now time.Time) (int, bool) {
	if !createdAt.Valid {
		return 0, false
	}
	elapsed := now.UTC().Sub(createdAt.Time)
	return max(0, int(elapsed/(24*time.Hour))), true
}

// DaysSincePtr is DaysSince returning nil for an absent timestamp.
func DaysSincePtr(createdAt Timestamp, now time.Time) *int {
	days, ok := DaysSince(createdAt, now)
	if !ok {
		return nil
	}
	return &days
}
