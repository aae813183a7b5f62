// Package report builds the human-readable debug logs returned by each tool.
package report

import (
	"fmt"
	"strings"
)

const width = 55

// Log accumulates a debug report.
type Log struct {
	b strings.Builder
}

// New starts a report with a title banner.
func New(title string, operation string, method string) *Log {
	l := &Log{}
	l.Rule()
	l.Linef("%s", title)
	l.b.WriteString(strings.Repeat("-", width) + "\n")
	l.Linef("Operation: %s", operation)
	l.Linef("Method: %s", method)
	return l
}

// Rule writes a full-width separator.
func (l *Log) Rule() {
	l.b.WriteString(strings.Repeat("=", width) + "\n")
}

// Section starts a titled block.
func (l *Log) Section(name string) {
	l.Linef("\n%s:", name)
}

// Field writes an indented key/value pair.
func (l *Log) Field(k string, v any) {
	l.Linef("  %s: %v", k, v)
}

// Linef writes one formatted line.
func (l *Log) Linef(format string, args ...any) {
	fmt.Fprintf(&l.b, format, args...)
	l.b.WriteByte('\n')
}

// OK marks a successful step.
func (l *Log) OK(msg string) {
	l.Linef("\n[OK] %s", msg)
}

// Warn marks a non-fatal problem.
func (l *Log) Warn(msg string) {
	l.Linef("\n[WARNING] %s", msg)
}

// Error records err and closes the report.
func (l *Log) Error(err error) {
	l.Linef("\n[ERROR] %v", err)
	l.Rule()
}

func (l *Log) String() string {
	return l.b.String()
}

// Truncate shortens s to n runes, marking the cut with "...".
func Truncate(s string, n int) string {
	rs := []rune(s)
	if len(rs) <= n {
		return s
	}
	return string(rs[:n]) + "..."
}

// KB formats a byte count in kilobytes.
func KB(n int64) string {
	return fmt.Sprintf("%.2f KB", float64(n)/1024)
}
