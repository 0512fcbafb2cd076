// Package brackets is phase D (spec §4.D): a pure validation pass over
// the flat token list produced by phase B/C, checking that every
// opening bracket/keyword has a matching closer before any tree
// construction is attempted. Grounded on the teacher's
// Parser.match/consume pattern (internal/parser/parser.go), but run as
// a standalone counting pass rather than interleaved with tree
// construction, since phase D's whole job is to fail fast before E/F/G
// ever see a malformed nesting.
package brackets

import (
	"a68front/internal/arena"
	"a68front/internal/diag"
	"a68front/internal/tree"
)

// pairs maps every opening keyword spelling to its accepted closing
// spellings. Each opener here accepts exactly one closer; "END" closes
// both BEGIN and PAR.
var pairs = map[string][]string{
	"BEGIN": {"END"},
	"(":     {")"},
	"[":     {"]"},
	"{":     {"}"},
	"IF":    {"FI"},
	"CASE":  {"ESAC"},
	"DO":    {"OD"},
	"PAR":   {"END"},
	"CODE":  {"EDOC"},
}

var openers = map[string]bool{}
var closers = map[string]bool{}

func init() {
	for o, cs := range pairs {
		openers[o] = true
		for _, c := range cs {
			closers[c] = true
		}
	}
}

type frame struct {
	spelling string
	node     arena.Index
}

// Check walks the linear token chain starting at head (phase B/C's
// Next-linked list) and reports every unmatched opener/closer as a
// SyntaxError diagnostic. It returns true if the nesting is clean
// enough for phase E to proceed.
func Check(t *tree.Tree, sink *diag.Sink, head arena.Index) bool {
	var stack []frame
	ok := true
	for i := head; i != arena.None; i = t.Get(i).Next {
		n := t.Get(i)
		word := closingSpelling(n)
		switch {
		case openers[word]:
			stack = append(stack, frame{word, i})
		case closers[word]:
			if len(stack) == 0 || !closesOpener(stack[len(stack)-1].spelling, word) {
				sink.Add(diag.Diagnostic{
					Severity: diag.SyntaxError, File: n.File, Line: n.Line, Column: n.Column,
					Message: "unmatched closing symbol %q", Args: []interface{}{word},
				})
				ok = false
				continue
			}
			stack = stack[:len(stack)-1]
		}
	}
	for _, f := range stack {
		n := t.Get(f.node)
		sink.Add(diag.Diagnostic{
			Severity: diag.SyntaxError, File: n.File, Line: n.Line, Column: n.Column,
			Message: "unclosed %q", Args: []interface{}{f.spelling},
		})
		ok = false
	}
	return ok
}

func closesOpener(opener, closer string) bool {
	for _, c := range pairs[opener] {
		if c == closer {
			return true
		}
	}
	return false
}

func closingSpelling(n *tree.Node) string {
	if n.Attribute == tree.Keyword || n.Attribute == tree.BoldTag {
		return n.Spelling
	}
	return ""
}
