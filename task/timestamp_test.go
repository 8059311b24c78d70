package task

import (
	"testing"
	"time"
)

func TestParseTimestamp(t *testing.T) {
	want := time.Date(2025, 3, 4, 5, 6, 7, 0, time.UTC)

	cases := []struct {
		name  string
		input string
		want  time.Time
	}{
		{name: "zulu", input: "2025-03-04T05:06:07Z", want: want},
		{name: "offset", input: "2025-03-04T07:06:07+02:00", want: want},
		{name: "space separator", input: "2025-03-04 05:06:07+00:00", want: want},
		{name: "short offset", input: "2025-03-04 05:06:07+00", want: want},
		{name: "basic offset", input: "2025-03-04T07:06:07+0200", want: want},
		{name: "basic offset with space", input: "2025-03-04 05:06:07+0000", want: want},
		{name: "naive", input: "2025-03-04T05:06:07", want: want},
		{name: "fractional", input: "2025-03-04T05:06:07.250Z", want: want.Add(250 * time.Millisecond)},
		{name: "date only", input: "2025-03-04", want: time.Date(2025, 3, 4, 0, 0, 0, 0, time.UTC)},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ParseTimestamp(tc.input)
			if err != nil {
				t.Fatalf("parse: %v", err)
			}
			if !got.Equal(tc.want) {
				t.Fatalf("expected %s, got %s", tc.want, got)
			}
			if got.Location() != time.UTC {
				t.Fatalf("expected UTC location, got %s", got.Location())
			}
		})
	}
}

func TestParseTimestampRejectsGarbage(t *testing.T) {
	if _, err := ParseTimestamp("yesterday"); err == nil {
		t.Fatal("expected error")
	}
}

func TestTimestampScan(t *testing.T) {
	native := time.Date(2025, 1, 1, 9, 0, 0, 0, time.FixedZone("EST", -5*3600))

	cases := []struct {
		name  string
		src   any
		valid bool
		want  time.Time
	}{
		{name: "nil", src: nil, valid: false},
		{name: "native", src: native, valid: true, want: native},
		{name: "text", src: "2025-01-01T14:00:00Z", valid: true, want: native},
		{name: "bytes", src: []byte("2025-01-01T14:00:00Z"), valid: true, want: native},
		{name: "blank text", src: "", valid: false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var ts Timestamp
			if err := ts.Scan(tc.src); err != nil {
				t.Fatalf("scan: %v", err)
			}
			if ts.Valid != tc.valid {
				t.Fatalf("expected valid=%v, got %v", tc.valid, ts.Valid)
			}
			if tc.valid && !ts.Time.Equal(tc.want) {
				t.Fatalf("expected %s, got %s", tc.want, ts.Time)
			}
		})
	}
}

func TestTimestampScanRejectsUnsupportedType(t *testing.T) {
	var ts Timestamp
	if err := ts.Scan(42); err == nil {
		t.Fatal("expected error")
	}
}

func TestDaysSince(t *testing.T) {
	now := time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)

	cases := []struct {
		name      string
		createdAt time.Time
		want      int
	}{
		{name: "same instant", createdAt: now, want: 0},
		{name: "under a day", createdAt: now.Add(-23 * time.Hour), want: 0},
		{name: "exactly one day", createdAt: now.Add(-24 * time.Hour), want: 1},
		{name: "truncates", createdAt: now.Add(-(9*24*time.Hour + 23*time.Hour)), want: 9},
		{name: "future under a day", createdAt: now.Add(5 * time.Hour), want: 0},
		{name: "future clamps to zero", createdAt: now.Add(72 * time.Hour), want: 0},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			days, ok := DaysSince(Timestamp{Time: tc.createdAt, Valid: true}, now)
			if !ok {
				t.Fatal("expected elapsed days")
			}
			if days != tc.want {
				t.Fatalf("expected %d days, got %d", tc.want, days)
			}
		})
	}
}

func TestDaysSinceAbsentTimestamp(t *testing.T) {
	if _, ok := DaysSince(Timestamp{}, time.Now()); ok {
		t.Fatal("expected no elapsed days")
	}
	if DaysSincePtr(Timestamp{}, time.Now()) != nil {
		t.Fatal("expected nil elapsed days")
	}
}

func TestDaysSinceNonNegativeForPast(t *testing.T) {
	now := time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)
	for hours := 0; hours < 24*40; hours += 7 {
		created := Timestamp{Time: now.Add(-time.Duration(hours) * time.Hour), Valid: true}
		days, _ := DaysSince(created, now)
		if days < 0 {
			t.Fatalf("expected non-negative days for %dh ago, got %d", hours, days)
		}
	}
}
