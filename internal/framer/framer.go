// Package framer is phase E (spec §4.E): a top-down pass over the
// bracket-matched token list that identifies every range (program,
// closed/collateral clause, conditional/case/loop body) and opens a
// symtab table for it, before phase F pre-declares tags into those
// tables and phase G reduces their contents. Grounded on
// internal/parser/stmt.go's clause assembly (parseIfStmt,
// parseWhileStmt, block-opening), generalized from sentra's single
// block scope to one table per Algol 68 range.
package framer

import (
	"a68front/internal/arena"
	"a68front/internal/symtab"
	"a68front/internal/tree"
)

var closerOf = map[string]string{
	"BEGIN": "END", "(": ")", "[": "]", "{": "}",
	"IF": "FI", "CASE": "ESAC", "DO": "OD", "CODE": "EDOC", "PAR": "END",
}

var isOpenerWord = func() map[string]bool {
	m := map[string]bool{}
	for k := range closerOf {
		m[k] = true
	}
	return m
}()

var isCloserWord = func() map[string]bool {
	m := map[string]bool{}
	for _, v := range closerOf {
		m[v] = true
	}
	return m
}()

// Frame is one range: a contiguous run of tokens owning a symtab
// table, plus the nested ranges opened directly inside it (a closed
// clause nested inside another closed clause is this frame's child;
// its own grandchildren are the child's Children, not this frame's).
type Frame struct {
	Kind  string // "PROGRAM", or the opening keyword/bracket spelling
	Table arena.Index

	Open, Close arena.Index // arena.None for the PROGRAM frame (no physical brackets)
	First, Last arena.Index // first/last token of this frame's own content span (inclusive)

	Children []*Frame
}

func spelling(n *tree.Node) string {
	if n.Attribute == tree.Keyword || n.Attribute == tree.BoldTag {
		return n.Spelling
	}
	return ""
}

// BuildProgramFrame builds the whole frame tree for one program's
// token list (spec §4.E's "outermost range"), rooted in a standard
// environ table supplied by the caller so every program shares one
// prelude.
func BuildProgramFrame(t *tree.Tree, tags *symtab.Registry, standardEnviron arena.Index, head, tail arena.Index) *Frame {
	root := &Frame{
		Kind:  "PROGRAM",
		Table: tags.NewTable(standardEnviron, standardEnviron),
		Open:  arena.None, Close: arena.None,
		First: head, Last: tail,
	}
	buildChildren(t, tags, root)
	return root
}

func buildChildren(t *tree.Tree, tags *symtab.Registry, f *Frame) {
	if f.First == arena.None {
		return
	}
	i := f.First
	for {
		n := t.Get(i)
		w := spelling(n)
		if isOpenerWord[w] {
			child, next := captureFrame(t, tags, f.Table, i)
			f.Children = append(f.Children, child)
			buildChildren(t, tags, child)
			if i == f.Last || next == arena.None {
				return
			}
			i = next
			continue
		}
		if i == f.Last {
			return
		}
		i = n.Next
	}
}

// captureFrame scans forward from an opening token to its matching
// closer (tracking nested same-or-different bracket depth, since
// brackets.Check already guarantees the overall nesting is well
// formed) and returns the new child Frame plus the token following the
// close.
func captureFrame(t *tree.Tree, tags *symtab.Registry, outerTable arena.Index, openIdx arena.Index) (*Frame, arena.Index) {
	openWord := spelling(t.Get(openIdx))
	depth := 0
	i := t.Get(openIdx).Next
	var closeIdx arena.Index = arena.None
	for i != arena.None {
		w := spelling(t.Get(i))
		if isOpenerWord[w] {
			depth++
		} else if isCloserWord[w] {
			if depth == 0 {
				closeIdx = i
				break
			}
			depth--
		}
		i = t.Get(i).Next
	}

	var first, last arena.Index = arena.None, arena.None
	afterOpen := t.Get(openIdx).Next
	if closeIdx != arena.None && afterOpen != closeIdx {
		first = afterOpen
		last = t.Get(closeIdx).Previous
	} else if closeIdx == arena.None && afterOpen != arena.None {
		first = afterOpen
		last = lastOf(t, afterOpen)
	}

	table := tags.NewTable(outerTable, outerTable)
	frame := &Frame{Kind: openWord, Table: table, Open: openIdx, Close: closeIdx, First: first, Last: last}

	next := arena.None
	if closeIdx != arena.None {
		next = t.Get(closeIdx).Next
	}
	return frame, next
}

// ChildAt returns the direct child frame opened at token index open, if
// any — used by prescan and reduce to jump over a nested range's
// interior while scanning this frame's own content linearly.
func (f *Frame) ChildAt(open arena.Index) (*Frame, bool) {
	for _, c := range f.Children {
		if c.Open == open {
			return c, true
		}
	}
	return nil, false
}

func lastOf(t *tree.Tree, i arena.Index) arena.Index {
	for {
		n := t.Get(i)
		if n.Next == arena.None {
			return i
		}
		i = n.Next
	}
}
