// Package engine orchestrates the reconciliation operations across the
// Master, Clean, Roster and ledger tables. Every operation reads whole
// tables into memory, computes, and writes back changed bodies only;
// header rows are never touched.
package engine

import (
	"time"

	"github.com/irscelearn/ce-reporter/internal/sheet"
)

// Tables names the workbook tables an Engine operates on. SysIssues may
// be nil when the workbook has no issue feed tab.
type Tables struct {
	Master    sheet.Table
	Clean     sheet.Table
	Roster    sheet.Table
	Ledger    sheet.Table
	SysIssues sheet.Table
}

// Engine runs the reconciliation operations. It assumes exclusive
// ownership of its tables for the duration of each call.
type Engine struct {
	t   Tables
	now func() time.Time
}

var zeroTime time.Time

// Option configures an Engine.
type Option func(*Engine)

// WithClock overrides the engine's time source; tests use this.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// New builds an Engine over the given tables.
func New(t Tables, opts ...Option) *Engine {
	e := &Engine{t: t, now: time.Now}
	for _, o := range opts {
		o(e)
	}
	return e
}
