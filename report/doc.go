// Package report derives latency statistics from the three session
// timestamps and persists them as the stats.txt report.
package report
