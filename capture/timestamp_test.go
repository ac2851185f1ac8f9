package capture

import (
	"testing"
	"time"
)

func TestTimestampString(t *testing.T) {
	tests := []struct {
		name string
		ts   Timestamp
		want string
	}{
		{
			name: "full nanosecond field",
			ts:   Timestamp{Sec: 1664662000, Nsec: 123456789},
			want: "1664662000.123456789",
		},
		{
			name: "nanoseconds are zero padded",
			ts:   Timestamp{Sec: 1664662000, Nsec: 5043},
			want: "1664662000.000005043",
		},
		{
			name: "zero instant",
			ts:   Timestamp{},
			want: "0.000000000",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.ts.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestParseTimestamp_RoundTrip(t *testing.T) {
	tests := []Timestamp{
		{Sec: 1664662000, Nsec: 123456789},
		{Sec: 1664662000, Nsec: 5043},
		{Sec: 0, Nsec: 0},
		{Sec: 1, Nsec: 999999999},
	}

	for _, ts := range tests {
		got, err := ParseTimestamp(ts.String())
		if err != nil {
			t.Fatalf("ParseTimestamp(%q): %v", ts.String(), err)
		}
		if got != ts {
			t.Errorf("round trip: got %+v, want %+v", got, ts)
		}
	}
}

func TestParseTimestamp_Malformed(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"no separator", "1664662000"},
		{"short fraction", "1664662000.5043"},
		{"long fraction", "1664662000.1234567890"},
		{"non-numeric seconds", "abc.123456789"},
		{"non-numeric fraction", "1664662000.12345678x"},
		{"empty", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseTimestamp(tt.input); err == nil {
				t.Errorf("ParseTimestamp(%q): expected error, got nil", tt.input)
			}
		})
	}
}

func TestTimestampSub_Exact(t *testing.T) {
	t1 := Timestamp{Sec: 100, Nsec: 999999999}
	t2 := Timestamp{Sec: 101, Nsec: 1}

	// Crosses a second boundary: 2ns apart
	if got := t2.Sub(t1); got != 2*time.Nanosecond {
		t.Errorf("Sub() = %v, want 2ns", got)
	}

	// Signed: reversed order is negative
	if got := t1.Sub(t2); got != -2*time.Nanosecond {
		t.Errorf("Sub() reversed = %v, want -2ns", got)
	}

	// Identical instants
	if got := t1.Sub(t1); got != 0 {
		t.Errorf("Sub() of equal timestamps = %v, want 0", got)
	}
}

func TestTimestampBefore(t *testing.T) {
	a := Timestamp{Sec: 100, Nsec: 500}
	b := Timestamp{Sec: 100, Nsec: 501}
	c := Timestamp{Sec: 101, Nsec: 0}

	if !a.Before(b) || !b.Before(c) || b.Before(a) || a.Before(a) {
		t.Error("Before() ordering is wrong")
	}
}

func TestNow_Monotonicish(t *testing.T) {
	// Wall clock, so not strictly monotonic in theory, but two
	// consecutive reads in a test must not go backwards in practice.
	a := Now()
	b := Now()
	if b.Before(a) {
		t.Errorf("Now() went backwards: %v then %v", a, b)
	}
	if a.Nsec < 0 || a.Nsec > 999999999 {
		t.Errorf("Now() nanoseconds out of range: %d", a.Nsec)
	}
}
