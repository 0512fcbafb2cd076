// Package diag is the diagnostic sink shared by every phase (spec §4.N).
//
// A Diagnostic is attached to the source line it refers to, not just
// thrown away after printing, so a listing can interleave source and
// diagnostics in line order. The Sink keeps one program-wide count of
// Error and SyntaxError diagnostics; the driver stops after a phase
// (returning a non-nil error) once that count exceeds MaxErrors. Counts
// are not kept per phase, and a phase is not interrupted part-way. This
// mirrors the original's long-jump-out-of-phase
// behavior (spec §5, §7) without actually using panic/recover for
// ordinary control flow.
package diag

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// Severity classifies a Diagnostic. PortCheck is a distinct category
// (not folded into Warning) because spec.md §6 carries an independent
// portcheck config flag that must be toggled without silencing plain
// warnings.
type Severity int

const (
	Warning Severity = iota
	PortCheck
	SyntaxError
	Error
)

func (s Severity) String() string {
	switch s {
	case Warning:
		return "warning"
	case PortCheck:
		return "portcheck"
	case SyntaxError:
		return "syntax error"
	case Error:
		return "error"
	default:
		return "diagnostic"
	}
}

// Diagnostic is one message anchored at a node/line.
type Diagnostic struct {
	Severity Severity
	File     string
	Line     int
	Column   int
	NodeID   int
	Message  string
	Args     []interface{}
}

func (d Diagnostic) String() string {
	msg := d.Message
	if len(d.Args) > 0 {
		msg = fmt.Sprintf(d.Message, d.Args...)
	}
	if d.File == "" {
		return fmt.Sprintf("%s: %s", d.Severity, msg)
	}
	return fmt.Sprintf("%s:%d:%d: %s: %s", d.File, d.Line, d.Column, d.Severity, msg)
}

// MaxErrors caps the number of Error/SyntaxError diagnostics the whole
// program may accumulate before the driver gives up (spec §7).
const MaxErrors = 25

// Sink collects diagnostics for the whole program, keyed by the source
// line they were raised against (so a listing can walk lines in
// order), and tracks the per-severity counts that drive the error
// budget.
type Sink struct {
	byLine map[int][]Diagnostic
	all    []Diagnostic
	counts map[Severity]int
	marked map[int]bool // nodes already reported as scope errors (spec §7)
}

func NewSink() *Sink {
	return &Sink{
		byLine: make(map[int][]Diagnostic),
		counts: make(map[Severity]int),
		marked: make(map[int]bool),
	}
}

// Add records a diagnostic. It returns true if the program-wide
// Error+SyntaxError count now exceeds MaxErrors.
func (s *Sink) Add(d Diagnostic) (budgetExceeded bool) {
	s.byLine[d.Line] = append(s.byLine[d.Line], d)
	s.all = append(s.all, d)
	s.counts[d.Severity]++
	if d.Severity == Error || d.Severity == SyntaxError {
		return s.counts[Error]+s.counts[SyntaxError] > MaxErrors
	}
	return false
}

// MarkScopeError records that nodeID already produced a scope
// diagnostic, so later passes don't duplicate it (spec §4.M, §7).
func (s *Sink) MarkScopeError(nodeID int) { s.marked[nodeID] = true }

func (s *Sink) IsScopeErrorMarked(nodeID int) bool { return s.marked[nodeID] }

// ErrorCount is the number of Error+SyntaxError diagnostics raised so
// far. Execution by downstream stages must not proceed when this is
// nonzero (spec §7).
func (s *Sink) ErrorCount() int { return s.counts[Error] + s.counts[SyntaxError] }

func (s *Sink) WarningCount() int { return s.counts[Warning] + s.counts[PortCheck] }

func (s *Sink) All() []Diagnostic { return s.all }

func (s *Sink) ForLine(line int) []Diagnostic { return s.byLine[line] }

func (s *Sink) String() string {
	var b strings.Builder
	for _, d := range s.all {
		b.WriteString(d.String())
		b.WriteByte('\n')
	}
	return b.String()
}

// PhaseAborted is returned by a phase driver when its error budget was
// exceeded; it carries the phase name so the top-level driver can
// report which phase bailed. It is a plain error value with no stack
// trace; WrapInternal is the pkg/errors path for internal failures.
type PhaseAborted struct {
	Phase string
}

func (e *PhaseAborted) Error() string {
	return fmt.Sprintf("phase %s aborted: error budget exceeded", e.Phase)
}

// WrapInternal wraps a non-diagnostic internal error (I/O, corrupt
// run-script header, ...) with a stack trace. Diagnostics never go
// through this path; they are user-visible Sink entries, not Go
// errors.
func WrapInternal(err error, context string) error {
	if err == nil {
		return nil
	}
	return errors.Wrap(err, context)
}
