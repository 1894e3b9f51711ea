// Package diag implements the diagnostic reporter:
// location-annotated error/warning records, counted by severity, formatted
// as "file:line:col: LEVEL: message" on the way to stderr. Each printed line
// also starts with the "[LEVEL] " tag the level filter keys on, and the level
// is spelled in upper case (e.g. "[ERROR] a.c:3:5: ERROR: bad token").
package diag

import (
	"fmt"
	"io"
	"log"

	"github.com/hashicorp/logutils"
)

// Level is a diagnostic severity, ordered Debug < Warn < Error < Fatal:
// lexical/conversion problems are typically Warn-or-Error and
// recoverable, Fatal aborts the session after flushing queued diagnostics.
type Level string

const (
	Debug Level = "DEBUG"
	Warn  Level = "WARN"
	Error Level = "ERROR"
	Fatal Level = "FATAL"
)

// Loc is the minimal location a diagnostic is anchored to.
type Loc struct {
	File   string
	Line   int
	Column int
}

func (l Loc) String() string {
	return fmt.Sprintf("%s:%d:%d", l.File, l.Line, l.Column)
}

// Record is one reported diagnostic.
type Record struct {
	Level Level
	Loc   Loc
	Msg   string
}

// Reporter accepts diagnostics, counts them by level, and writes them
// through a logutils.LevelFilter so verbosity is controlled the same way the
// CLI controls any other leveled log output.
type Reporter struct {
	logger   *log.Logger
	minLevel logutils.LogLevel
	counts   map[Level]int
	records  []Record
}

// New creates a Reporter writing filtered output to w. minLevel is one of
// Debug, Warn, Error, Fatal; records below it are counted but not printed.
func New(w io.Writer, minLevel Level) *Reporter {
	filter := &logutils.LevelFilter{
		Levels:   []logutils.LogLevel{logutils.LogLevel(Debug), logutils.LogLevel(Warn), logutils.LogLevel(Error), logutils.LogLevel(Fatal)},
		MinLevel: logutils.LogLevel(minLevel),
		Writer:   w,
	}
	return &Reporter{
		logger:   log.New(filter, "", 0),
		minLevel: logutils.LogLevel(minLevel),
		counts:   make(map[Level]int),
	}
}

// Report records a diagnostic and writes it if its level passes the filter.
func (r *Reporter) Report(level Level, loc Loc, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	r.counts[level]++
	r.records = append(r.records, Record{Level: level, Loc: loc, Msg: msg})
	r.logger.Printf("[%s] %s: %s: %s", level, loc, level, msg) // [LEVEL] file:line:col: level: message
}

// Warnf is shorthand for Report(Warn, ...).
func (r *Reporter) Warnf(loc Loc, format string, args ...any) {
	r.Report(Warn, loc, format, args...)
}

// Errorf is shorthand for Report(Error, ...).
func (r *Reporter) Errorf(loc Loc, format string, args ...any) {
	r.Report(Error, loc, format, args...)
}

// Fatalf is shorthand for Report(Fatal, ...).
func (r *Reporter) Fatalf(loc Loc, format string, args ...any) {
	r.Report(Fatal, loc, format, args...)
}

// Count returns how many diagnostics of level have been reported.
func (r *Reporter) Count(level Level) int {
	return r.counts[level]
}

// HasErrors reports whether any Error or Fatal diagnostic was recorded —
// the condition under which the session must exit nonzero and withhold its
// output file per spec §7.
func (r *Reporter) HasErrors() bool {
	return r.counts[Error] > 0 || r.counts[Fatal] > 0
}

// Records returns all diagnostics reported so far, in order.
func (r *Reporter) Records() []Record {
	return r.records
}
