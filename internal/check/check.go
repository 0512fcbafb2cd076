// Package check is phase L (spec §4.L): the mode checker and coercer.
// It verifies every UNIT's mode against the SOID its context demands
// and, where the two differ by a legal coercion, rewrites the tree to
// make that coercion explicit (DEREFERENCING, DEPROCEDURING, WIDENING,
// UNITING, VOIDING) rather than silently accepting an implicit
// conversion; ROWING is not inserted. Split into the two passes spec
// §4.L names: Infer (non-destructive, bottom-up mode computation) and
// Coerce (destructive insertion of coercion nodes above the single unit
// it is given; it does not descend into that unit's children).
// Grounded on internal/compiler/stmt_compiler.go
// and internal/parser/ast.go's visitor dispatch.
package check

import (
	"a68front/internal/arena"
	"a68front/internal/diag"
	"a68front/internal/mode"
	"a68front/internal/tree"
)

// Context is spec §3's coercion context (SOFT < WEAK < MEEK < FIRM <
// STRONG, each permitting every coercion the ones before it permit).
type Context int

const (
	Soft Context = iota
	Weak
	Meek
	Firm
	Strong
)

// Soid describes what a position in the tree requires: the mode and a
// cast flag. Sort and attribute are not carried; the sort is passed to
// Coerce separately as a Context.
type Soid struct {
	Mode arena.Index
	Cast bool
}

type Checker struct {
	Tree  *tree.Tree
	Modes *mode.Table
	Sink  *diag.Sink
}

func New(t *tree.Tree, modes *mode.Table, sink *diag.Sink) *Checker {
	return &Checker{Tree: t, Modes: modes, Sink: sink}
}

// Infer computes (or trusts, if already set by phase H) the mode of
// every UNIT bottom-up without mutating the tree shape.
func (ch *Checker) Infer(i arena.Index) arena.Index {
	if i == arena.None {
		return ch.Modes.Void()
	}
	n := ch.Tree.Get(i)
	switch n.Attribute {
	case tree.SerialClause, tree.ClosedClause:
		var last arena.Index = ch.Modes.Void()
		for c := n.Sub; c != arena.None; c = ch.Tree.Get(c).Next {
			last = ch.Infer(c)
		}
		n.Mode = last
		return last
	case tree.CollateralClause:
		var pack []mode.PackItem
		for c := n.Sub; c != arena.None; c = ch.Tree.Get(c).Next {
			pack = append(pack, mode.PackItem{Mode: ch.Infer(c), Node: c})
		}
		n.Mode = ch.Modes.MakeStowed(pack)
		return n.Mode
	case tree.Assignation:
		kids := ch.Tree.Children(i)
		if len(kids) == 2 {
			lm := ch.Infer(kids[0])
			ch.Infer(kids[1])
			n.Mode = lm // the assignation's own mode is the LHS's REF mode
		}
		return n.Mode
	case tree.Formula, tree.MonadicFormula:
		for c := n.Sub; c != arena.None; c = ch.Tree.Get(c).Next {
			if ch.Tree.Get(c).Attribute != tree.Operator {
				ch.Infer(c)
			}
		}
		if n.Mode == arena.None {
			n.Mode = ch.Modes.Undefined() // phase L narrows via operator tag once bound
		}
		return n.Mode
	case tree.Identifier, tree.Denotation, tree.RowCharDenotation, tree.Declarer, tree.RoutineText:
		return n.Mode // already set by phase H
	case tree.Call:
		kids := ch.Tree.Children(i)
		if len(kids) == 2 {
			procMode := ch.Modes.Resolve(ch.Infer(kids[0]))
			ch.Infer(kids[1])
			if pm := ch.Modes.Get(procMode); pm != nil && pm.Attribute == mode.Proc {
				n.Mode = pm.Sub
			} else {
				n.Mode = ch.Modes.ErrorMode()
			}
		}
		return n.Mode
	case tree.Slice:
		kids := ch.Tree.Children(i)
		if len(kids) == 2 {
			baseMode := ch.Modes.Resolve(ch.Infer(kids[0]))
			ch.Infer(kids[1])
			bm := ch.Modes.Get(baseMode)
			if bm != nil && (bm.Attribute == mode.Row || bm.Attribute == mode.Flex) {
				n.Mode = bm.Sub
			} else {
				n.Mode = ch.Modes.ErrorMode()
			}
		}
		return n.Mode
	case tree.Cast:
		kids := ch.Tree.Children(i)
		if len(kids) == 2 {
			n.Mode = ch.Tree.Get(kids[0]).Mode
			ch.Infer(kids[1])
		}
		return n.Mode
	case tree.Generator:
		kids := ch.Tree.Children(i)
		if len(kids) == 2 {
			n.Mode = ch.Modes.MakeRef(ch.Tree.Get(kids[1]).Mode)
		}
		return n.Mode
	case tree.Skip:
		n.Mode = ch.Modes.Undefined()
		return n.Mode
	case tree.Nihil:
		n.Mode = ch.Modes.MakeRef(ch.Modes.Undefined())
		return n.Mode
	case tree.Jump:
		n.Mode = ch.Modes.Hip()
		return n.Mode
	default:
		var last arena.Index = ch.Modes.Void()
		for c := n.Sub; c != arena.None; c = ch.Tree.Get(c).Next {
			last = ch.Infer(c)
		}
		return last
	}
}

// Coerce inserts, above unit i (whose mode Infer has already set), the
// coercion chain needed to turn it into required (spec §4.L: "rewrite to
// insert explicit coercion nodes"). It rewrites i alone and does not
// recurse into i's children.
func (ch *Checker) Coerce(i arena.Index, required Soid, ctx Context) {
	if i == arena.None || required.Mode == arena.None {
		return
	}
	n := ch.Tree.Get(i)
	have := ch.Modes.Resolve(n.Mode)
	want := ch.Modes.Resolve(required.Mode)
	if have == want || want == ch.Modes.Undefined() {
		return
	}

	parent := n.Parent
	cur := i
	curMode := have

	for {
		curM := ch.Modes.Get(curMode)
		if curM == nil {
			break
		}
		if curM.Attribute == mode.Ref && ctx >= Weak {
			wrapper := ch.Tree.InsertCoercion(parent, cur, tree.Dereferencing, tree.NoAnnotation)
			curMode = curM.Sub
			ch.Tree.Get(wrapper).Mode = curMode
			cur = wrapper
			if ch.Modes.Equivalent(curMode, want) {
				return
			}
			continue
		}
		if curM.Attribute == mode.Proc && len(curM.Pack) == 0 && ctx >= Meek {
			wrapper := ch.Tree.InsertCoercion(parent, cur, tree.Deproceduring, tree.NoAnnotation)
			curMode = curM.Sub
			ch.Tree.Get(wrapper).Mode = curMode
			cur = wrapper
			if ch.Modes.Equivalent(curMode, want) {
				return
			}
			continue
		}
		break
	}

	if ctx >= Firm && isWideningPair(ch.Modes, curMode, want) {
		wrapper := ch.Tree.InsertCoercion(parent, cur, tree.Widening, tree.NoAnnotation)
		ch.Tree.Get(wrapper).Mode = want
		return
	}

	wantM := ch.Modes.Get(want)
	if wantM != nil && wantM.Attribute == mode.Void && ctx >= Strong {
		wrapper := ch.Tree.InsertCoercion(parent, cur, tree.Voiding, tree.NoAnnotation)
		ch.Tree.Get(wrapper).Mode = want
		return
	}

	if wantM != nil && wantM.Attribute == mode.Union && ctx >= Strong {
		for _, member := range wantM.Pack {
			if ch.Modes.Equivalent(curMode, member.Mode) {
				wrapper := ch.Tree.InsertCoercion(parent, cur, tree.Uniting, tree.NoAnnotation)
				ch.Tree.Get(wrapper).Mode = want
				return
			}
		}
	}

	if !ch.Modes.Equivalent(curMode, want) {
		ch.Sink.Add(diag.Diagnostic{Severity: diag.Error, File: n.File, Line: n.Line, Column: n.Column,
			Message: "mode mismatch: cannot coerce to required mode"})
	}
}

// isWideningPair covers INT->REAL, INT->COMPLEX, REAL->COMPLEX and
// CHAR->STRING between standard modes (spec §3: "widening is sound and
// loses no representable value"). BITS->ROW BOOL is not covered.
func isWideningPair(t *mode.Table, from, to arena.Index) bool {
	fm, tm := t.Get(from), t.Get(to)
	if fm == nil || tm == nil || fm.Attribute != mode.Standard || tm.Attribute != mode.Standard {
		return false
	}
	widensTo := map[mode.StandardKind][]mode.StandardKind{
		mode.Int:  {mode.Real, mode.Complex},
		mode.Real: {mode.Complex},
		mode.Char: {mode.StringKind},
	}
	for _, dst := range widensTo[fm.Standard] {
		if dst == tm.Standard {
			return true
		}
	}
	return false
}
