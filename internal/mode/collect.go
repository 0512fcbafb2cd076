package mode

import (
	"strconv"

	"a68front/internal/arena"
	"a68front/internal/diag"
	"a68front/internal/numeric"
	"a68front/internal/symtab"
	"a68front/internal/tree"
)

// Collector walks DECLARER / ROUTINE_TEXT / OPERATOR_PLAN / denotation
// nodes and constructs the corresponding Mode, attaching it to the
// node's Mode field (spec §4.H). It is mutually recursive across
// declarer shapes exactly as spec §4.H describes: "a declarer's mode
// is built from its own attribute and the modes of its children,
// computed depth-first."
type Collector struct {
	Tree  *tree.Tree
	Modes *Table
	Tags  *symtab.Registry
	Sink  *diag.Sink
}

func NewCollector(t *tree.Tree, m *Table, tags *symtab.Registry, sink *diag.Sink) *Collector {
	return &Collector{Tree: t, Modes: m, Tags: tags, Sink: sink}
}

// CollectProgram walks the whole tree from root, collecting a mode for
// every DECLARER, ROUTINE_TEXT, OPERATOR_PLAN and denotation node it
// finds, and for MODE_DECLARATION defining occurrences it also updates
// the indicant tag's own Mode field so ResolveIndicants (phase I step
// 3) has something to follow.
func (c *Collector) CollectProgram(root arena.Index) {
	c.walk(root)
}

func (c *Collector) walk(i arena.Index) {
	if i == arena.None {
		return
	}
	n := c.Tree.Get(i)
	switch n.Attribute {
	case tree.Declarer:
		n.Mode = c.collectDeclarer(i)
		return // declarer subtree fully consumed
	case tree.RoutineText:
		n.Mode = c.collectRoutineText(i)
		return
	case tree.OperatorPlan:
		n.Mode = c.collectRoutineText(i) // an OPERATOR_PLAN is shaped exactly like a routine text's PROC mode
		return
	case tree.Denotation, tree.RowCharDenotation:
		n.Mode = c.collectDenotation(n)
		return
	case tree.ModeDeclaration:
		c.collectModeDeclaration(i)
		return
	}
	for ch := n.Sub; ch != arena.None; ch = c.Tree.Get(ch).Next {
		c.walk(ch)
	}
}

// collectDeclarer implements spec §4.H's declarer production dispatch:
// REF/FLEX/ROW/PROC/STRUCT/UNION/VOID symbols and bare indicants.
func (c *Collector) collectDeclarer(i arena.Index) arena.Index {
	n := c.Tree.Get(i)
	kids := c.Tree.Children(i)
	if len(kids) == 0 {
		return c.Modes.Undefined()
	}
	head := c.Tree.Get(kids[0])
	switch head.Attribute {
	case tree.RefSymbol:
		sub := c.collectOperandDeclarer(kids[1:])
		return c.Modes.MakeRef(sub)
	case tree.FlexSymbol:
		sub := c.collectOperandDeclarer(kids[1:])
		return c.Modes.MakeFlex(sub)
	case tree.RowSymbol:
		dim := c.boundsDimension(kids)
		sub := c.collectOperandDeclarer(c.afterBounds(kids))
		return c.Modes.MakeRow(dim, sub)
	case tree.ProcSymbol:
		return c.collectProcDeclarer(n.Line, kids[1:])
	case tree.StructSymbol:
		pack := c.collectFieldList(kids[1:])
		return c.Modes.MakeStruct(i, pack)
	case tree.UnionSymbol:
		pack := c.collectUnionList(kids[1:])
		members := make([]arena.Index, len(pack))
		for k, p := range pack {
			members[k] = p.Mode
		}
		return c.Modes.MakeUnion(i, members)
	case tree.VoidSymbol:
		return c.Modes.Void()
	case tree.IndicantDecl, tree.BoldTag:
		return c.Modes.MakeIndicant(i, head.Tag)
	default:
		// a nested DECLARER as sole child (parenthesized declarer)
		if head.Attribute == tree.Declarer {
			return c.collectDeclarer(kids[0])
		}
		c.Sink.Add(diag.Diagnostic{Severity: diag.Error, File: n.File, Line: n.Line, Column: n.Column,
			Message: "unrecognized declarer form"})
		return c.Modes.ErrorMode()
	}
}

// collectOperandDeclarer handles the operand of REF/FLEX/ROW, which is
// itself either a nested DECLARER node or (after bracket flattening)
// the raw symbol run that collectDeclarer already knows how to read.
func (c *Collector) collectOperandDeclarer(rest []arena.Index) arena.Index {
	if len(rest) == 0 {
		return c.Modes.Undefined()
	}
	first := c.Tree.Get(rest[0])
	if first.Attribute == tree.Declarer {
		return c.collectDeclarer(rest[0])
	}
	return c.collectDeclarerFromRun(rest)
}

// collectDeclarerFromRun re-dispatches on a flat run of declarer
// tokens/subnodes the same way collectDeclarer dispatches on a
// DECLARER node's own children — used when phase G leaves an operand
// unwrapped because it was a single symbol.
func (c *Collector) collectDeclarerFromRun(run []arena.Index) arena.Index {
	if len(run) == 0 {
		return c.Modes.Undefined()
	}
	head := c.Tree.Get(run[0])
	switch head.Attribute {
	case tree.RefSymbol:
		return c.Modes.MakeRef(c.collectOperandDeclarer(run[1:]))
	case tree.FlexSymbol:
		return c.Modes.MakeFlex(c.collectOperandDeclarer(run[1:]))
	case tree.RowSymbol:
		dim := c.boundsDimension(run)
		return c.Modes.MakeRow(dim, c.collectOperandDeclarer(c.afterBounds(run)))
	case tree.ProcSymbol:
		return c.collectProcDeclarer(head.Line, run[1:])
	case tree.StructSymbol:
		return c.Modes.MakeStruct(run[0], c.collectFieldList(run[1:]))
	case tree.UnionSymbol:
		pack := c.collectUnionList(run[1:])
		members := make([]arena.Index, len(pack))
		for k, p := range pack {
			members[k] = p.Mode
		}
		return c.Modes.MakeUnion(run[0], members)
	case tree.VoidSymbol:
		return c.Modes.Void()
	case tree.Declarer:
		return c.collectDeclarer(run[0])
	default:
		return c.Modes.MakeIndicant(run[0], head.Tag)
	}
}

// boundsDimension counts leading comma-separated BOUNDS/FORMAL_BOUNDS
// entries after ROW_SYMBOL (spec §3: "ROW n x has dim = n").
func (c *Collector) boundsDimension(kids []arena.Index) int {
	dim := 0
	for _, k := range kids[1:] {
		a := c.Tree.Get(k).Attribute
		if a == tree.Bounds || a == tree.FormalBounds {
			dim++
			continue
		}
		break
	}
	if dim == 0 {
		dim = 1 // bare ROW OF x / [] x with bounds elided
	}
	return dim
}

func (c *Collector) afterBounds(kids []arena.Index) []arena.Index {
	i := 1
	for i < len(kids) {
		a := c.Tree.Get(kids[i]).Attribute
		if a == tree.Bounds || a == tree.FormalBounds {
			i++
			continue
		}
		break
	}
	return kids[i:]
}

func (c *Collector) collectProcDeclarer(line int, rest []arena.Index) arena.Index {
	var pack []PackItem
	resultStart := 0
	if len(rest) > 0 && c.Tree.Get(rest[0]).Attribute == tree.ParameterPack {
		pack = c.collectParameterPack(rest[0])
		resultStart = 1
	}
	var result arena.Index
	if resultStart < len(rest) {
		result = c.collectOperandDeclarer(rest[resultStart:])
	} else {
		result = c.Modes.Void()
	}
	return c.Modes.MakeProc(arena.None, pack, result)
}

func (c *Collector) collectParameterPack(i arena.Index) []PackItem {
	var out []PackItem
	for _, ch := range c.Tree.Children(i) {
		d := c.Tree.Get(ch)
		if d.Attribute != tree.Declarer {
			continue
		}
		out = append(out, PackItem{Mode: c.collectDeclarer(ch), Node: ch})
	}
	return out
}

// collectFieldList reads a STRUCT's FIELD_LIST: a declarer followed by
// one or more identifiers sharing it (spec: "INT a, b" -> two fields
// of the same mode).
func (c *Collector) collectFieldList(kids []arena.Index) []PackItem {
	var out []PackItem
	for _, fl := range kids {
		if c.Tree.Get(fl).Attribute != tree.FieldList {
			continue
		}
		fkids := c.Tree.Children(fl)
		if len(fkids) == 0 {
			continue
		}
		var declMode arena.Index
		declIdx := 0
		if c.Tree.Get(fkids[0]).Attribute == tree.Declarer {
			declMode = c.collectDeclarer(fkids[0])
			declIdx = 1
		} else {
			declMode = c.collectDeclarerFromRun(fkids)
			declIdx = len(fkids)
		}
		for _, id := range fkids[declIdx:] {
			idNode := c.Tree.Get(id)
			if idNode.Attribute != tree.Identifier {
				continue
			}
			out = append(out, PackItem{Mode: declMode, Field: idNode.Spelling, Node: id})
		}
	}
	return out
}

func (c *Collector) collectUnionList(kids []arena.Index) []PackItem {
	var out []PackItem
	for _, k := range kids {
		d := c.Tree.Get(k)
		if d.Attribute != tree.Declarer {
			continue
		}
		out = append(out, PackItem{Mode: c.collectDeclarer(k), Node: k})
	}
	return out
}

// collectRoutineText builds a PROC mode from a ROUTINE_TEXT or
// OPERATOR_PLAN node's PARAMETER_PACK (if any) and result declarer.
func (c *Collector) collectRoutineText(i arena.Index) arena.Index {
	kids := c.Tree.Children(i)
	var pack []PackItem
	idx := 0
	if len(kids) > 0 && c.Tree.Get(kids[0]).Attribute == tree.ParameterPack {
		pack = c.collectParameterPack(kids[0])
		idx = 1
	}
	var result arena.Index = c.Modes.Void()
	if idx < len(kids) && c.Tree.Get(kids[idx]).Attribute == tree.Declarer {
		result = c.collectDeclarer(kids[idx])
		idx++
	}
	for ; idx < len(kids); idx++ {
		c.walk(kids[idx]) // the body: collect modes inside it too
	}
	return c.Modes.MakeProc(i, pack, result)
}

// collectDenotation assigns the standard mode a literal's spelling
// implies (spec §4.H: "a denotation's mode follows from its lexical
// class and radix/length markers").
func (c *Collector) collectDenotation(n *tree.Node) arena.Index {
	if n.Attribute == tree.RowCharDenotation {
		return c.Modes.MakeRow(1, c.Modes.Standard(Char, NoLongety))
	}
	s := n.Spelling
	longety := NoLongety
	for len(s) > 5 && (hasPrefixFold(s, "long ") || hasPrefixFold(s, "short ")) {
		if hasPrefixFold(s, "long ") {
			longety++
			s = s[5:]
		} else {
			longety--
			s = s[6:]
		}
	}
	switch {
	case s == "true" || s == "false":
		return c.Modes.Standard(Bool, NoLongety)
	case len(s) == 1 && (s[0] < '0' || s[0] > '9'):
		return c.Modes.Standard(Char, NoLongety)
	case containsAny(s, ".eE") && !isRadixLiteral(s):
		if isComplexDenotation(s) {
			return c.Modes.Standard(Complex, longety)
		}
		return c.Modes.Standard(Real, longety)
	case isRadixLiteral(s):
		return c.Modes.Standard(Bits, longety)
	default:
		if longety == NoLongety {
			if v, err := numeric.ParseInt(s); err == nil && !v.FitsMachineWord {
				c.Sink.Add(diag.Diagnostic{Severity: diag.PortCheck, File: n.File, Line: n.Line, Column: n.Column,
					Message: "INT denotation %q does not fit a machine word", Args: []interface{}{s}})
			}
		}
		if _, err := strconv.Atoi(s); err == nil || s == "" {
			return c.Modes.Standard(Int, longety)
		}
		return c.Modes.Standard(Int, longety)
	}
}

// collectModeDeclaration implements spec §4.H's hook into phase I step
// 1: "for each MODE_DECLARATION, build the right-hand declarer's mode
// and set the indicant tag's Mode to it" (the tag itself was already
// declared in phase F; here we only fill in what it denotes).
func (c *Collector) collectModeDeclaration(i arena.Index) {
	kids := c.Tree.Children(i)
	for idx := 0; idx+1 < len(kids); idx += 2 {
		tagNode := c.Tree.Get(kids[idx])
		declNode := kids[idx+1]
		if c.Tree.Get(declNode).Attribute != tree.Declarer {
			continue
		}
		m := c.collectDeclarer(declNode)
		if tagNode.Tag != arena.None {
			c.Tags.Tag(tagNode.Tag).Mode = m
		}
	}
}

func hasPrefixFold(s, prefix string) bool {
	if len(s) < len(prefix) {
		return false
	}
	for i := range prefix {
		a, b := s[i], prefix[i]
		if 'A' <= a && a <= 'Z' {
			a += 'a' - 'A'
		}
		if a != b {
			return false
		}
	}
	return true
}

func containsAny(s, chars string) bool {
	for _, r := range s {
		for _, c := range chars {
			if r == c {
				return true
			}
		}
	}
	return false
}

func isRadixLiteral(s string) bool {
	for _, r := range s {
		if r == 'r' || r == 'R' {
			return true
		}
	}
	return false
}

func isComplexDenotation(s string) bool {
	for _, r := range s {
		if r == 'i' || r == 'I' {
			return true
		}
	}
	return false
}
