package report

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/Feras-dev/mscs-thesis/capture"
)

// FileName is the report file written into the session directory.
const FileName = "stats.txt"

// Stats holds the three raw session timestamps and the two derived
// durations. Computed once per session, never mutated afterwards.
type Stats struct {
	// T1 is the trigger pulse emission instant
	T1 capture.Timestamp
	// T2 is the first-frame retrieval instant
	T2 capture.Timestamp
	// T3 is the capture-loop completion instant
	T3 capture.Timestamp
	// Latency = T2 - T1: trigger to first usable frame
	Latency time.Duration
	// Total = T3 - T1: trigger to loop completion
	Total time.Duration
}

// Compute derives the latency statistics from a capture result.
//
// Both durations are signed and exact to the nanosecond; no float
// arithmetic is involved.
func Compute(res *capture.Result) Stats {
	return Stats{
		T1:      res.Trigger,
		T2:      res.FirstFrame,
		T3:      res.LastFrame,
		Latency: res.FirstFrame.Sub(res.Trigger),
		Total:   res.LastFrame.Sub(res.Trigger),
	}
}

// Seconds renders a duration as a signed fixed-point decimal in
// seconds with nine fractional digits, from integer nanoseconds.
func Seconds(d time.Duration) string {
	ns := int64(d)
	sign := ""
	if ns < 0 {
		sign = "-"
		ns = -ns
	}
	return fmt.Sprintf("%s%d.%09d", sign, ns/int64(time.Second), ns%int64(time.Second))
}

// Write renders the report body:
//
//	t1 = <sec>.<nsec>
//	t2 = <sec>.<nsec>
//	t_diff = <latency> s
//	t_total = <total> s
func (s Stats) Write(w io.Writer) error {
	_, err := fmt.Fprintf(w,
		"t1 = %s\nt2 = %s\nt_diff = %s s\nt_total = %s s\n",
		s.T1.String(),
		s.T2.String(),
		Seconds(s.Latency),
		Seconds(s.Total),
	)
	return err
}

// WriteFile writes the report to <dir>/stats.txt, flushed to disk, and
// returns the path.
func WriteFile(dir string, s Stats) (string, error) {
	path := filepath.Join(dir, FileName)

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("report: failed to create %s: %w", path, err)
	}

	if err := s.Write(f); err != nil {
		f.Close()
		return "", fmt.Errorf("report: failed to write %s: %w", path, err)
	}

	if err := f.Close(); err != nil {
		return "", fmt.Errorf("report: failed to flush %s: %w", path, err)
	}

	return path, nil
}

// Parse reads a report body back into Stats.
//
// Round-trips with Write: the four numeric fields reproduce the
// timestamps and durations to the precision originally written.
func Parse(r io.Reader) (Stats, error) {
	var s Stats
	seen := make(map[string]bool, 4)

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		key, value, ok := strings.Cut(line, " = ")
		if !ok {
			return Stats{}, fmt.Errorf("report: malformed line %q", line)
		}

		var err error
		switch key {
		case "t1":
			s.T1, err = capture.ParseTimestamp(value)
		case "t2":
			s.T2, err = capture.ParseTimestamp(value)
		case "t_diff":
			s.Latency, err = parseSeconds(value)
		case "t_total":
			s.Total, err = parseSeconds(value)
		default:
			return Stats{}, fmt.Errorf("report: unknown field %q", key)
		}
		if err != nil {
			return Stats{}, err
		}
		seen[key] = true
	}
	if err := scanner.Err(); err != nil {
		return Stats{}, fmt.Errorf("report: read failed: %w", err)
	}

	for _, key := range []string{"t1", "t2", "t_diff", "t_total"} {
		if !seen[key] {
			return Stats{}, fmt.Errorf("report: missing field %q", key)
		}
	}

	// T3 is not part of the file layout; reconstruct it from the
	// total duration so the parsed Stats is internally consistent.
	ns := s.T1.Sec*int64(time.Second) + s.T1.Nsec + int64(s.Total)
	s.T3 = capture.Timestamp{Sec: ns / int64(time.Second), Nsec: ns % int64(time.Second)}

	return s, nil
}

// ParseFile reads <dir>/stats.txt.
func ParseFile(dir string) (Stats, error) {
	f, err := os.Open(filepath.Join(dir, FileName))
	if err != nil {
		return Stats{}, fmt.Errorf("report: failed to open report: %w", err)
	}
	defer f.Close()

	return Parse(f)
}

// parseSeconds parses "<sec>.<9 digits> s" (optionally signed) into an
// exact duration.
func parseSeconds(value string) (time.Duration, error) {
	value = strings.TrimSuffix(value, " s")

	neg := false
	if strings.HasPrefix(value, "-") {
		neg = true
		value = value[1:]
	}

	sec, frac, ok := strings.Cut(value, ".")
	if !ok {
		return 0, fmt.Errorf("report: malformed duration %q (no '.' separator)", value)
	}

	secs, err := strconv.ParseInt(sec, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("report: malformed duration seconds %q: %w", sec, err)
	}
	if len(frac) != 9 {
		return 0, fmt.Errorf("report: malformed duration %q (fraction must be 9 digits, got %d)", value, len(frac))
	}
	nsecs, err := strconv.ParseInt(frac, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("report: malformed duration fraction %q: %w", frac, err)
	}

	d := time.Duration(secs)*time.Second + time.Duration(nsecs)*time.Nanosecond
	if neg {
		d = -d
	}
	return d, nil
}
