package capture

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Timestamp is a wall-clock instant split into epoch seconds and
// nanoseconds, the way the realtime clock reports it.
//
// The split representation is carried end-to-end (filenames, stats
// report) instead of a float so no precision is lost: latency math is
// exact integer-nanosecond arithmetic.
type Timestamp struct {
	Sec  int64
	Nsec int64
}

// Now reads the realtime (wall-clock, not monotonic) clock.
func Now() Timestamp {
	t := time.Now()
	return Timestamp{Sec: t.Unix(), Nsec: int64(t.Nanosecond())}
}

// String renders the timestamp as a fixed-point decimal,
// "<seconds>.<nanoseconds>" with the nanosecond field zero-padded to
// nine digits. The rendering sorts lexicographically in time order for
// any fixed seconds width, and parses back with ParseTimestamp.
func (t Timestamp) String() string {
	return fmt.Sprintf("%d.%09d", t.Sec, t.Nsec)
}

// Sub returns the exact duration t - u.
func (t Timestamp) Sub(u Timestamp) time.Duration {
	return time.Duration(t.Sec-u.Sec)*time.Second + time.Duration(t.Nsec-u.Nsec)*time.Nanosecond
}

// Before reports whether t is earlier than u.
func (t Timestamp) Before(u Timestamp) bool {
	if t.Sec != u.Sec {
		return t.Sec < u.Sec
	}
	return t.Nsec < u.Nsec
}

// IsZero reports whether t is the zero instant.
func (t Timestamp) IsZero() bool {
	return t.Sec == 0 && t.Nsec == 0
}

// ParseTimestamp parses the String rendering back into a Timestamp.
func ParseTimestamp(s string) (Timestamp, error) {
	sec, frac, ok := strings.Cut(s, ".")
	if !ok {
		return Timestamp{}, fmt.Errorf("capture: malformed timestamp %q (no '.' separator)", s)
	}

	secs, err := strconv.ParseInt(sec, 10, 64)
	if err != nil {
		return Timestamp{}, fmt.Errorf("capture: malformed timestamp seconds %q: %w", sec, err)
	}

	if len(frac) != 9 {
		return Timestamp{}, fmt.Errorf("capture: malformed timestamp %q (nanoseconds must be 9 digits, got %d)", s, len(frac))
	}
	nsecs, err := strconv.ParseInt(frac, 10, 64)
	if err != nil {
		return Timestamp{}, fmt.Errorf("capture: malformed timestamp nanoseconds %q: %w", frac, err)
	}

	return Timestamp{Sec: secs, Nsec: nsecs}, nil
}
