// Package prescan is phase F (spec §4.F): a declaration pre-scan that
// declares every defining tag of a range before phase G reduces its
// units, so an applied occurrence anywhere in the range (including
// textually before its declaration, which Algol 68 permits within one
// serial clause) can already be found. Grounded on
// internal/compiler/hoisting_compiler.go, which hoists sentra's own
// function/var declarations before the main compile walk; generalized
// to indicants/priorities/operators/labels.
package prescan

import (
	"strconv"

	"a68front/internal/arena"
	"a68front/internal/diag"
	"a68front/internal/framer"
	"a68front/internal/symtab"
	"a68front/internal/tree"
)

type scanner struct {
	t    *tree.Tree
	tags *symtab.Registry
	sink *diag.Sink
	f    *framer.Frame
}

// Declare walks f's direct token span, jumping over nested child
// frames, declaring every MODE/PRIO/OP/identifier/label defining
// occurrence it finds into f.Table.
func Declare(t *tree.Tree, tags *symtab.Registry, sink *diag.Sink, f *framer.Frame) {
	s := &scanner{t: t, tags: tags, sink: sink, f: f}
	s.run()
}

func (s *scanner) word(i arena.Index) string {
	if i == arena.None {
		return ""
	}
	n := s.t.Get(i)
	if n.Attribute == tree.Keyword || n.Attribute == tree.BoldTag {
		return n.Spelling
	}
	return ""
}

func (s *scanner) next(i arena.Index) arena.Index {
	if child, ok := s.f.ChildAt(i); ok {
		if child.Close != arena.None {
			return s.t.Get(child.Close).Next
		}
		return arena.None
	}
	return s.t.Get(i).Next
}

func (s *scanner) run() {
	if s.f.First == arena.None {
		return
	}
	i := s.f.First
	for i != arena.None {
		switch s.word(i) {
		case "MODE":
			i = s.declareCommaList(s.t.Get(i).Next, symtab.IndicantTag)
		case "PRIO":
			i = s.declarePriorities(s.t.Get(i).Next)
		case "OP":
			i = s.declareOperator(s.t.Get(i).Next)
		default:
			switch {
			case s.looksLikeDeclarerHead(i):
				i = s.declareIdentifiers(i)
			case s.isLabelHere(i):
				n := s.t.Get(i)
				s.tags.Declare(s.f.Table, symtab.Tag{Kind: symtab.LabelTag, Name: n.Spelling, Node: i, Table: s.f.Table})
				i = s.next(s.next(i)) // past identifier and ':'
			default:
				i = s.next(i)
			}
		}
		if i != arena.None && s.f.Last != arena.None && isPast(s.t, i, s.f.Last) {
			return
		}
	}
}

// isPast reports whether i has advanced beyond last in the underlying
// linear token chain, by scanning forward from i (not last) for last:
// finding it means i hasn't gone past yet, running off the end without
// finding it means i already has.
func isPast(t *tree.Tree, i, last arena.Index) bool {
	for c := i; c != arena.None; c = t.Get(c).Next {
		if c == last {
			return false
		}
	}
	return true
}

func (s *scanner) isLabelHere(i arena.Index) bool {
	n := s.t.Get(i)
	if n.Attribute != tree.Identifier {
		return false
	}
	nx := s.t.Get(i).Next
	if nx == arena.None {
		return false
	}
	m := s.t.Get(nx)
	return m.Attribute == tree.Operator && m.Spelling == ":"
}

// looksLikeDeclarerHead reports whether i starts a declarer: a
// LONG/SHORT run, REF/FLEX/ROW/STRUCT/UNION/PROC/VOID, or a bare
// BoldTag standing for a standard or user-defined mode name.
func (s *scanner) looksLikeDeclarerHead(i arena.Index) bool {
	w := s.word(i)
	switch w {
	case "REF", "FLEX", "ROW", "STRUCT", "UNION", "PROC", "VOID", "LONG", "SHORT",
		"INT", "REAL", "COMPLEX", "BOOL", "CHAR", "BITS", "BYTES", "STRING", "FORMAT":
		return true
	}
	n := s.t.Get(i)
	return n.Attribute == tree.BoldTag
}

// skipDeclarer advances past one declarer's tokens (not building any
// tree node — that happens for real in internal/reduce), jumping over
// nested frames (ROW bounds, STRUCT/UNION/PROC packs) via the frame
// map.
func (s *scanner) skipDeclarer(i arena.Index) arena.Index {
	for s.word(i) == "LONG" || s.word(i) == "SHORT" {
		i = s.next(i)
	}
	switch s.word(i) {
	case "REF":
		return s.skipDeclarer(s.next(i))
	case "FLEX":
		return s.skipDeclarer(s.next(i))
	case "ROW":
		i = s.next(i)
		for s.word(i) == "OF" {
			i = s.next(i)
		}
		// leading "[" bounds, if present
		if _, ok := s.f.ChildAt(i); ok && s.t.Get(i).Attribute == tree.Keyword && s.t.Get(i).Spelling == "[" {
			i = s.next(i)
		}
		for s.word(i) == "OF" {
			i = s.next(i)
		}
		return s.skipDeclarer(i)
	case "STRUCT", "UNION":
		i = s.next(i) // keyword
		return s.next(i) // the "(" pack frame
	case "PROC":
		i = s.next(i)
		if s.t.Get(i) != nil && s.t.Get(i).Spelling == "(" {
			i = s.next(i)
		}
		if i == arena.None {
			return i
		}
		if s.looksLikeDeclarerHead(i) {
			return s.skipDeclarer(i)
		}
		return i
	case "VOID":
		return s.next(i)
	default:
		if i == arena.None {
			return i
		}
		return s.next(i) // a single indicant/standard-mode token
	}
}

// declareIdentifiers handles "<declarer> a [, b ...]" with each
// identifier optionally followed by "= unit" or ":= unit" (skipped by
// scanning to the next top-level ',' or ';').
func (s *scanner) declareIdentifiers(i arena.Index) arena.Index {
	isProc := s.word(i) == "PROC"
	i = s.skipDeclarer(i)
	for {
		if i == arena.None {
			return i
		}
		n := s.t.Get(i)
		if n.Attribute != tree.Identifier {
			return i
		}
		s.tags.Declare(s.f.Table, symtab.Tag{Kind: symtab.IdentifierTag, Name: n.Spelling, Node: i, Table: s.f.Table, InProc: isProc})
		i = s.next(i)
		i = s.skipToTopLevel(i, ",", ";")
		if s.word(i) == "," {
			i = s.next(i)
			continue
		}
		return i
	}
}

// skipToTopLevel advances i until it lands on a token whose spelling
// is one of stop, jumping over nested child frames as it goes.
func (s *scanner) skipToTopLevel(i arena.Index, stop ...string) arena.Index {
	for i != arena.None {
		if s.f.Last != arena.None && isPast(s.t, i, s.f.Last) {
			return i
		}
		w := s.word(i)
		for _, want := range stop {
			if w == want {
				return i
			}
		}
		i = s.next(i)
	}
	return i
}

func (s *scanner) declareCommaList(i arena.Index, kind symtab.TagKind) arena.Index {
	for {
		if i == arena.None {
			return i
		}
		n := s.t.Get(i)
		name := n.Spelling
		declNode := i
		i = s.next(i)
		if s.word(i) == "=" {
			i = s.next(i)
			i = s.skipDeclarer(i)
		}
		s.tags.Declare(s.f.Table, symtab.Tag{Kind: kind, Name: name, Node: declNode, Table: s.f.Table})
		i = s.skipToTopLevel(i, ",", ";")
		if s.word(i) == "," {
			i = s.next(i)
			continue
		}
		if s.word(i) == ";" {
			return s.next(i)
		}
		return i
	}
}

func (s *scanner) declarePriorities(i arena.Index) arena.Index {
	for {
		if i == arena.None {
			return i
		}
		n := s.t.Get(i)
		name := n.Spelling
		node := i
		i = s.next(i)
		priority := 0
		if s.word(i) == "=" {
			i = s.next(i)
			if d := s.t.Get(i); d != nil && d.Attribute == tree.Denotation {
				if v, err := strconv.Atoi(d.Spelling); err == nil {
					priority = v
				}
				i = s.next(i)
			}
		}
		s.tags.Declare(s.f.Table, symtab.Tag{Kind: symtab.PriorityTag, Name: name, Node: node, Table: s.f.Table, Priority: priority})
		i = s.skipToTopLevel(i, ",", ";")
		if s.word(i) == "," {
			i = s.next(i)
			continue
		}
		if s.word(i) == ";" {
			return s.next(i)
		}
		return i
	}
}

func (s *scanner) declareOperator(i arena.Index) arena.Index {
	if i == arena.None {
		return i
	}
	n := s.t.Get(i)
	name := n.Spelling
	node := i
	priority := 0
	if p, ok := s.tags.FindLocal(s.f.Table, symtab.PriorityTag, name); ok {
		priority = s.tags.Tag(p).Priority
	}
	s.tags.Declare(s.f.Table, symtab.Tag{Kind: symtab.OperatorTag, Name: name, Node: node, Table: s.f.Table, Priority: priority, InProc: true})
	i = s.next(i)
	if s.word(i) == "=" {
		i = s.next(i)
		i = s.skipDeclarer(i)
	}
	i = s.skipToTopLevel(i, ";")
	if s.word(i) == ";" {
		return s.next(i)
	}
	return i
}
