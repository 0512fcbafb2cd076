// Package reduce is phase G (spec §4.G): the bottom-up pass that turns
// a frame's flat token span (with nested ranges already identified by
// phase E and defining tags already declared by phase F) into the
// final DECLARATION/UNIT/FORMULA syntax tree. Grounded on
// internal/compiler/stmt_compiler.go's large per-statement-kind
// dispatch switch, restructured as the explicit grammar-directed
// recursive descent spec §4.G describes ("repeatedly apply the
// production that matches the longest recognized prefix").
//
// The grammar recognized here is a representative subset of full
// Algol 68 (see DESIGN.md's grammar-coverage note): closed/collateral/
// conditional/case/loop clauses, the five declaration forms, formulae
// with priority climbing, calls/slices/casts/selections and routine
// texts. An unrecognized token run produces an ERROR_NODE and a
// diagnostic rather than derailing the rest of the range — spec
// §4.G's "recover_from_error".
package reduce

import (
	"a68front/internal/arena"
	"a68front/internal/diag"
	"a68front/internal/framer"
	"a68front/internal/symtab"
	"a68front/internal/tree"
)

type Parser struct {
	Tree *tree.Tree
	Tags *symtab.Registry
	Sink *diag.Sink
}

func New(t *tree.Tree, tags *symtab.Registry, sink *diag.Sink) *Parser {
	return &Parser{Tree: t, Tags: tags, Sink: sink}
}

// ReduceProgram wraps the program frame's serial clause in a PROGRAM
// node (spec §3's outermost range).
func (p *Parser) ReduceProgram(root *framer.Frame) arena.Index {
	body := p.reduceFrame(root)
	prog := p.newNode(tree.Program, "", 0, 0, "")
	p.Tree.Get(prog).Sub = body
	p.Tree.Get(body).Parent = prog
	p.Tree.Get(prog).Table = root.Table
	return prog
}

func (p *Parser) newNode(attr tree.Attribute, spelling string, line, col int, file string) arena.Index {
	return p.Tree.New(attr, spelling, line, col, file)
}

// wrap allocates a new parent node of attr owning kids as children in
// order (skipping arena.None entries), positioned at the first kid's
// source location.
func (p *Parser) wrap(attr tree.Attribute, kids []arena.Index) arena.Index {
	var line, col int
	var file string
	var clean []arena.Index
	for _, k := range kids {
		if k == arena.None {
			continue
		}
		clean = append(clean, k)
	}
	if len(clean) > 0 {
		n := p.Tree.Get(clean[0])
		line, col, file = n.Line, n.Column, n.File
	}
	parent := p.newNode(attr, "", line, col, file)
	pn := p.Tree.Get(parent)
	var prev arena.Index = arena.None
	for _, k := range clean {
		kn := p.Tree.Get(k)
		kn.Parent = parent
		kn.Previous = prev
		kn.Next = arena.None
		if prev == arena.None {
			pn.Sub = k
		} else {
			p.Tree.Get(prev).Next = k
		}
		prev = k
	}
	return parent
}

func (p *Parser) word(i arena.Index) string {
	if i == arena.None {
		return ""
	}
	n := p.Tree.Get(i)
	if n.Attribute == tree.Keyword || n.Attribute == tree.BoldTag {
		return n.Spelling
	}
	return ""
}

func (p *Parser) errNode(at arena.Index, msg string) arena.Index {
	n := p.Tree.Get(at)
	p.Sink.Add(diag.Diagnostic{Severity: diag.SyntaxError, File: n.File, Line: n.Line, Column: n.Column, Message: msg})
	return p.newNode(tree.Error, "", n.Line, n.Column, n.File)
}

// frameCtx bundles a frame with the next-token function jumping over
// its nested children, mirroring prescan's scanner.
type frameCtx struct {
	p *Parser
	f *framer.Frame
}

func (c *frameCtx) next(i arena.Index) arena.Index {
	if child, ok := c.f.ChildAt(i); ok {
		if child.Close != arena.None {
			return c.p.Tree.Get(child.Close).Next
		}
		return arena.None
	}
	return c.p.Tree.Get(i).Next
}

// past reports whether i has advanced beyond the frame's Last token,
// by scanning forward from i (not Last) for Last: see prescan.isPast,
// same fix.
func (c *frameCtx) past(i arena.Index) bool {
	if c.f.Last == arena.None || i == arena.None {
		return i == arena.None
	}
	for n := i; n != arena.None; n = c.p.Tree.Get(n).Next {
		if n == c.f.Last {
			return false
		}
	}
	return true
}

// reduceFrame parses f's whole content as a serial clause: a
// semicolon-separated sequence of declarations and units (spec §3
// "SERIAL_CLAUSE").
func (p *Parser) reduceFrame(f *framer.Frame) arena.Index {
	c := &frameCtx{p: p, f: f}
	var kids []arena.Index
	i := f.First
	for i != arena.None && !c.past(i) {
		node, next := p.reduceDeclarationOrUnit(c, i)
		kids = append(kids, node)
		i = next
		if p.word(i) == ";" {
			i = c.next(i)
		}
	}
	sc := p.wrap(tree.SerialClause, kids)
	p.Tree.Get(sc).Table = f.Table
	return sc
}

func (p *Parser) reduceDeclarationOrUnit(c *frameCtx, i arena.Index) (arena.Index, arena.Index) {
	switch p.word(i) {
	case "MODE":
		return p.reduceModeDeclaration(c, i)
	case "PRIO":
		return p.reducePriorityDeclaration(c, i)
	case "OP":
		return p.reduceOperatorDeclaration(c, i)
	}
	if p.looksLikeDeclarerHead(c, i) {
		return p.reduceIdentityOrVariableDeclaration(c, i)
	}
	return p.parseUnit(c, i)
}

func (p *Parser) looksLikeDeclarerHead(c *frameCtx, i arena.Index) bool {
	switch p.word(i) {
	case "REF", "FLEX", "ROW", "STRUCT", "UNION", "PROC", "VOID", "LONG", "SHORT",
		"INT", "REAL", "COMPLEX", "BOOL", "CHAR", "BITS", "BYTES", "STRING", "FORMAT":
		return true
	}
	n := p.Tree.Get(i)
	if n.Attribute != tree.BoldTag {
		return false
	}
	// a bare indicant name only starts a declarer if followed directly
	// by an identifier (otherwise it is an applied occurrence used as a
	// value, e.g. a user enum constant) — approximate but keeps common
	// `MYMODE x = ...;` declarations recognized without misreading
	// `x := MYMODE_CONST` style uses.
	nx := c.next(i)
	return p.Tree.Get(nx) != nil && p.Tree.Get(nx).Attribute == tree.Identifier
}

// --- declarers ----------------------------------------------------------

func (p *Parser) reduceDeclarer(c *frameCtx, i arena.Index) (arena.Index, arena.Index) {
	start := i
	var head []arena.Index
	for p.word(i) == "LONG" || p.word(i) == "SHORT" {
		head = append(head, i)
		i = c.next(i)
	}
	switch p.word(i) {
	case "REF":
		refTok := i
		sub, next := p.reduceDeclarer(c, c.next(i))
		decl := p.wrap(tree.Declarer, append(append(head, refTok), sub))
		return decl, next
	case "FLEX":
		flexTok := i
		sub, next := p.reduceDeclarer(c, c.next(i))
		decl := p.wrap(tree.Declarer, append(append(head, flexTok), sub))
		return decl, next
	case "ROW":
		rowTok := i
		i = c.next(i)
		var bounds []arena.Index
		for {
			if child, ok := c.f.ChildAt(i); ok && child.Kind == "[" {
				b := p.newNode(tree.Bounds, "", p.Tree.Get(i).Line, p.Tree.Get(i).Column, p.Tree.Get(i).File)
				bounds = append(bounds, b)
				i = c.next(i)
				continue
			}
			break
		}
		for p.word(i) == "OF" {
			i = c.next(i)
		}
		sub, next := p.reduceDeclarer(c, i)
		kids := append(append(append(head, rowTok), bounds...), sub)
		return p.wrap(tree.Declarer, kids), next
	case "STRUCT":
		structTok := i
		openIdx := c.next(i)
		pack, childFrame := p.reduceFieldListPack(c, openIdx)
		kids := append(append(head, structTok), pack)
		next := arena.None
		if childFrame.Close != arena.None {
			next = p.Tree.Get(childFrame.Close).Next
		}
		return p.wrap(tree.Declarer, kids), next
	case "UNION":
		unionTok := i
		openIdx := c.next(i)
		pack, childFrame := p.reduceUnionPack(c, openIdx)
		kids := append(append(head, unionTok), pack)
		next := arena.None
		if childFrame.Close != arena.None {
			next = p.Tree.Get(childFrame.Close).Next
		}
		return p.wrap(tree.Declarer, kids), next
	case "PROC":
		procTok := i
		i = c.next(i)
		var pack arena.Index = arena.None
		if child, ok := c.f.ChildAt(i); ok && child.Kind == "(" {
			var cf *framer.Frame
			pack, cf = p.reduceParameterPack(c, i)
			if cf.Close != arena.None {
				i = p.Tree.Get(cf.Close).Next
			} else {
				i = arena.None
			}
		}
		kids := append(append(head, procTok), pack)
		if i != arena.None && p.looksLikeDeclarerHead(c, i) {
			result, next := p.reduceDeclarer(c, i)
			kids = append(kids, result)
			return p.wrap(tree.Declarer, kids), next
		}
		return p.wrap(tree.Declarer, kids), i
	case "VOID":
		voidTok := i
		voidNext := c.next(i)
		return p.wrap(tree.Declarer, append(head, voidTok)), voidNext
	default:
		if i == arena.None {
			return p.errNode(start, "expected declarer"), i
		}
		tokNext := c.next(i)
		return p.wrap(tree.Declarer, append(head, i)), tokNext
	}
}

func (p *Parser) reduceParameterPack(c *frameCtx, openIdx arena.Index) (arena.Index, *framer.Frame) {
	child, _ := c.f.ChildAt(openIdx)
	inner := &frameCtx{p: p, f: child}
	var kids []arena.Index
	i := child.First
	for i != arena.None && !inner.past(i) {
		d, next := p.reduceDeclarer(inner, i)
		kids = append(kids, d)
		// a parameter's identifier(s) trail the declarer, separated by ','
		for p.Tree.Get(next) != nil && p.Tree.Get(next).Attribute == tree.Identifier {
			next = inner.next(next)
		}
		i = next
		if p.word(i) == "," {
			i = inner.next(i)
		}
	}
	return p.wrap(tree.ParameterPack, kids), child
}

func (p *Parser) reduceFieldListPack(c *frameCtx, openIdx arena.Index) (arena.Index, *framer.Frame) {
	child, _ := c.f.ChildAt(openIdx)
	inner := &frameCtx{p: p, f: child}
	var fieldLists []arena.Index
	i := child.First
	for i != arena.None && !inner.past(i) {
		d, next := p.reduceDeclarer(inner, i)
		var ids []arena.Index
		for p.Tree.Get(next) != nil && p.Tree.Get(next).Attribute == tree.Identifier {
			ids = append(ids, next)
			next = inner.next(next)
			if p.word(next) == "," {
				// could be another field name for the same declarer, or the
				// next field-list's own declarer; identifiers win the tie.
				peek := inner.next(next)
				if p.Tree.Get(peek) != nil && p.Tree.Get(peek).Attribute == tree.Identifier {
					next = inner.next(next)
					continue
				}
			}
			break
		}
		fieldLists = append(fieldLists, p.wrap(tree.FieldList, append([]arena.Index{d}, ids...)))
		i = next
		if p.word(i) == "," {
			i = inner.next(i)
		}
	}
	return p.wrap(tree.FieldList, fieldLists), child
}

func (p *Parser) reduceUnionPack(c *frameCtx, openIdx arena.Index) (arena.Index, *framer.Frame) {
	child, _ := c.f.ChildAt(openIdx)
	inner := &frameCtx{p: p, f: child}
	var kids []arena.Index
	i := child.First
	for i != arena.None && !inner.past(i) {
		d, next := p.reduceDeclarer(inner, i)
		kids = append(kids, d)
		i = next
		if p.word(i) == "," {
			i = inner.next(i)
		}
	}
	return p.wrap(tree.Declarer, kids), child
}

// --- declarations ---------------------------------------------------------

func (p *Parser) reduceModeDeclaration(c *frameCtx, i arena.Index) (arena.Index, arena.Index) {
	i = c.next(i)
	var kids []arena.Index
	for {
		nameNode := i
		tagIdx, _ := p.Tags.FindLocal(c.f.Table, symtab.IndicantTag, p.Tree.Get(i).Spelling)
		p.Tree.Get(nameNode).Tag = tagIdx
		i = c.next(i)
		if p.word(i) == "=" {
			i = c.next(i)
		}
		decl, next := p.reduceDeclarer(c, i)
		kids = append(kids, nameNode, decl)
		i = next
		if p.word(i) == "," {
			i = c.next(i)
			continue
		}
		break
	}
	return p.wrap(tree.ModeDeclaration, kids), i
}

func (p *Parser) reducePriorityDeclaration(c *frameCtx, i arena.Index) (arena.Index, arena.Index) {
	i = c.next(i)
	var kids []arena.Index
	for {
		nameNode := i
		i = c.next(i)
		if p.word(i) == "=" {
			i = c.next(i)
		}
		if p.Tree.Get(i) != nil && p.Tree.Get(i).Attribute == tree.Denotation {
			kids = append(kids, nameNode, i)
			i = c.next(i)
		} else {
			kids = append(kids, nameNode)
		}
		if p.word(i) == "," {
			i = c.next(i)
			continue
		}
		break
	}
	return p.wrap(tree.PriorityDeclaration, kids), i
}

func (p *Parser) reduceOperatorDeclaration(c *frameCtx, i arena.Index) (arena.Index, arena.Index) {
	nameNode := i
	tagIdx, _ := p.Tags.FindLocal(c.f.Table, symtab.OperatorTag, p.Tree.Get(i).Spelling)
	p.Tree.Get(nameNode).Tag = tagIdx
	i = c.next(i)
	if p.word(i) == "=" {
		i = c.next(i)
	}
	body, next := p.reduceRoutineText(c, i)
	return p.wrap(tree.OperatorDeclaration, []arena.Index{nameNode, body}), next
}

func (p *Parser) reduceIdentityOrVariableDeclaration(c *frameCtx, i arena.Index) (arena.Index, arena.Index) {
	isProc := p.word(i) == "PROC"
	declarer, next := p.reduceDeclarer(c, i)
	var kids []arena.Index
	nameNode := next
	if p.Tree.Get(nameNode) == nil || p.Tree.Get(nameNode).Attribute != tree.Identifier {
		return p.errNode(i, "expected identifier after declarer"), next
	}
	tagIdx, _ := p.Tags.FindLocal(c.f.Table, symtab.IdentifierTag, p.Tree.Get(nameNode).Spelling)
	p.Tree.Get(nameNode).Tag = tagIdx
	j := c.next(nameNode)
	var initNode arena.Index = arena.None
	attr := tree.VariableDeclaration
	if p.word(j) == "=" {
		attr = tree.IdentityDeclaration
		if isProc {
			attr = tree.ProcedureDeclaration
		}
		j = c.next(j)
		initNode, j = p.parseUnitStop(c, j, ",", ";")
	} else if p.word(j) == ":=" {
		j = c.next(j)
		initNode, j = p.parseUnitStop(c, j, ",", ";")
	}
	kids = []arena.Index{declarer, nameNode}
	if initNode != arena.None {
		kids = append(kids, initNode)
	}
	return p.wrap(attr, kids), j
}

// --- routine texts ----------------------------------------------------

func (p *Parser) reduceRoutineText(c *frameCtx, i arena.Index) (arena.Index, arena.Index) {
	var pack arena.Index = arena.None
	if child, ok := c.f.ChildAt(i); ok && child.Kind == "(" {
		var cf *framer.Frame
		pack, cf = p.reduceParameterPack(c, i)
		if cf.Close != arena.None {
			i = p.Tree.Get(cf.Close).Next
		} else {
			i = arena.None
		}
	}
	var result arena.Index = arena.None
	if i != arena.None && p.looksLikeDeclarerHead(c, i) && p.word(i) != "" {
		result, i = p.reduceDeclarer(c, i)
	}
	if p.word(i) == ":" {
		i = c.next(i)
	}
	body, next := p.parseUnitStop(c, i, ";")
	kids := []arena.Index{pack, result, body}
	return p.wrap(tree.RoutineText, kids), next
}

// --- units / formulae -------------------------------------------------

func (p *Parser) parseUnit(c *frameCtx, i arena.Index) (arena.Index, arena.Index) {
	return p.parseUnitStop(c, i, ";")
}

// parseUnitStop parses one unit (an assignation/formula/enclosed
// clause/jump) and returns the position of the first stop-word
// encountered at this frame's depth.
func (p *Parser) parseUnitStop(c *frameCtx, i arena.Index, stop ...string) (arena.Index, arena.Index) {
	return p.parseFormula(c, i, 0, stop)
}

// priority returns a dyadic operator's binding priority: the standard
// table for built-in spellings, falling back to a declared PRIO tag
// (spec §4.G/§4.J "operators bind by declared priority").
func (p *Parser) priority(c *frameCtx, name string) int {
	switch name {
	case "OR", "ORF":
		return 1
	case "AND", "ANDF":
		return 2
	case "=", "/=", "<=", ">=", "<", ">", "EQ", "NE", "LE", "GE", "LT", "GT":
		return 5
	case "+", "-":
		return 6
	case "*", "/", "%", "%*", "MOD", "ELEM", "OVER":
		return 7
	case "**", "SHL", "SHR", "UP", "DOWN":
		return 8
	}
	if idx, ok := p.Tags.Find(c.f.Table, symtab.OperatorTag, name); ok {
		if pr := p.Tags.Tag(idx).Priority; pr > 0 {
			return pr
		}
	}
	return 9
}

func isStop(w string, stop []string) bool {
	for _, s := range stop {
		if w == s {
			return true
		}
	}
	return false
}

// parseFormula implements precedence climbing over dyadic operator
// tokens (spec §4.G groups 6-7: FORMULA/TERTIARY), bottoming out at
// parsePrimary for monadic/primary forms.
func (p *Parser) parseFormula(c *frameCtx, i arena.Index, minPrio int, stop []string) (arena.Index, arena.Index) {
	left, next := p.parseAssignationOrPrimary(c, i, stop)
	i = next
	for {
		n := p.Tree.Get(i)
		if i == arena.None || n.Attribute != tree.Operator {
			return left, i
		}
		w := n.Spelling
		if isStop(w, stop) {
			return left, i
		}
		pr := p.priority(c, w)
		if pr < minPrio {
			return left, i
		}
		opTok := i
		i = c.next(i)
		right, rnext := p.parseFormula(c, i, pr+1, stop)
		left = p.wrap(tree.Formula, []arena.Index{left, opTok, right})
		i = rnext
	}
}

// parseAssignationOrPrimary handles ":=" (right-associative, lowest
// binding after formula dispatch defers to it) and otherwise a
// monadic-operator-prefixed primary.
func (p *Parser) parseAssignationOrPrimary(c *frameCtx, i arena.Index, stop []string) (arena.Index, arena.Index) {
	if n := p.Tree.Get(i); n != nil && n.Attribute == tree.Operator {
		opTok := i
		operand, next := p.parseAssignationOrPrimary(c, c.next(i), stop)
		mon := p.wrap(tree.MonadicFormula, []arena.Index{opTok, operand})
		return p.maybeAssign(c, mon, next, stop)
	}
	primary, next := p.parsePrimary(c, i, stop)
	return p.maybeAssign(c, primary, next, stop)
}

func (p *Parser) maybeAssign(c *frameCtx, lhs arena.Index, i arena.Index, stop []string) (arena.Index, arena.Index) {
	if p.word(i) != "" {
		return lhs, i
	}
	n := p.Tree.Get(i)
	if n != nil && n.Attribute == tree.Operator && n.Spelling == ":=" {
		i = c.next(i)
		rhs, next := p.parseFormula(c, i, 0, stop)
		return p.wrap(tree.Assignation, []arena.Index{lhs, rhs}), next
	}
	return lhs, i
}

// parsePrimary dispatches on the leading token: identifier/denotation,
// a generator, an enclosed clause, or a bare identifier immediately
// followed by a call/slice/selection suffix (spec §4.G groups 4-5).
func (p *Parser) parsePrimary(c *frameCtx, i arena.Index, stop []string) (arena.Index, arena.Index) {
	if i == arena.None {
		return p.errNode(c.f.Last, "unexpected end of range"), i
	}
	n := p.Tree.Get(i)

	if p.word(i) == "HEAP" || p.word(i) == "LOC" {
		kwTok := i
		declarer, next := p.reduceDeclarer(c, c.next(i))
		return p.finishSuffix(c, p.wrap(tree.Generator, []arena.Index{kwTok, declarer}), next, stop)
	}
	if p.word(i) == "GOTO" || p.word(i) == "GO" {
		gotoTok := i
		j := c.next(i)
		if p.word(j) == "TO" {
			j = c.next(j)
		}
		labelTok := j
		jumpNext := c.next(j)
		return p.finishSuffix(c, p.wrap(tree.Jump, []arena.Index{gotoTok, labelTok}), jumpNext, stop)
	}
	if p.word(i) == "SKIP" {
		skipNext := c.next(i)
		return p.finishSuffix(c, p.wrap(tree.Skip, []arena.Index{i}), skipNext, stop)
	}
	if p.word(i) == "NIL" {
		nilNext := c.next(i)
		return p.finishSuffix(c, p.wrap(tree.Nihil, []arena.Index{i}), nilNext, stop)
	}

	if child, ok := c.f.ChildAt(i); ok {
		return p.finishSuffix(c, p.parseEnclosedClause(child), func() arena.Index {
			if child.Close != arena.None {
				return p.Tree.Get(child.Close).Next
			}
			return arena.None
		}(), stop)
	}

	if p.looksLikeDeclarerHead(c, i) {
		// CAST: "<declarer> : unit"
		declarer, next := p.reduceDeclarer(c, i)
		if p.word(next) == ":" {
			next = c.next(next)
			unit, after := p.parseFormula(c, next, 0, stop)
			return p.finishSuffix(c, p.wrap(tree.Cast, []arena.Index{declarer, unit}), after, stop)
		}
		return declarer, next
	}

	if n.Attribute == tree.Identifier || n.Attribute == tree.Denotation || n.Attribute == tree.RowCharDenotation {
		return p.finishSuffix(c, i, c.next(i), stop)
	}

	return p.errNode(i, "unrecognized token in unit position"), c.next(i)
}

// finishSuffix attaches any immediately-following call/slice/selection
// onto a just-parsed primary (spec §4.G group 4, left-recursive
// PRIMARY -> PRIMARY "(" ... ")" | PRIMARY "[" ... "]").
func (p *Parser) finishSuffix(c *frameCtx, base arena.Index, i arena.Index, stop []string) (arena.Index, arena.Index) {
	for {
		if p.word(i) == "OF" {
			selectorTok := base
			i = c.next(i)
			operand, next := p.parsePrimary(c, i, stop)
			base = p.wrap(tree.Selection, []arena.Index{selectorTok, operand})
			i = next
			continue
		}
		child, ok := c.f.ChildAt(i)
		if !ok {
			return base, i
		}
		switch child.Kind {
		case "(":
			args := p.reduceArgumentList(child)
			base = p.wrap(tree.Call, []arena.Index{base, args})
		case "[":
			args := p.reduceArgumentList(child)
			n := p.Tree.Get(args)
			n.Attribute = tree.GenericArgument
			base = p.wrap(tree.Slice, []arena.Index{base, args})
		default:
			return base, i
		}
		if child.Close != arena.None {
			i = p.Tree.Get(child.Close).Next
		} else {
			i = arena.None
		}
	}
}

func (p *Parser) reduceArgumentList(child *framer.Frame) arena.Index {
	inner := &frameCtx{p: p, f: child}
	var kids []arena.Index
	i := child.First
	for i != arena.None && !inner.past(i) {
		u, next := p.parseFormula(inner, i, 0, []string{",", ";"})
		kids = append(kids, u)
		i = next
		if p.word(i) == "," {
			i = inner.next(i)
		}
	}
	return p.wrap(tree.ArgumentList, kids)
}

// parseEnclosedClause dispatches on a bracketed child frame's opening
// keyword into the clause kind spec §3 names (spec §4.G group 4).
func (p *Parser) parseEnclosedClause(f *framer.Frame) arena.Index {
	switch f.Kind {
	case "BEGIN", "(":
		return p.parseClosedOrCollateral(f)
	case "[":
		return p.reduceFrame(f) // a bound/slice argument span handled by its own caller
	case "IF":
		return p.parseConditional(f)
	case "CASE":
		return p.parseCase(f)
	case "DO":
		return p.parseLoop(f)
	case "CODE":
		code := p.newNode(tree.CodeClause, "", 0, 0, "")
		p.Tree.Get(code).Table = f.Table
		return code
	default:
		return p.reduceFrame(f)
	}
}

// parseClosedOrCollateral splits a BEGIN/(...)  frame's top-level
// commas: a single group (no ',' at depth 0) means a plain closed
// clause (one serial clause); one or more ',' at depth 0 means a
// collateral clause (spec §3).
func (p *Parser) parseClosedOrCollateral(f *framer.Frame) arena.Index {
	c := &frameCtx{p: p, f: f}
	var groups [][2]arena.Index // [first,last] token spans, reusing f.Table for all (approximation)
	if f.First == arena.None {
		sc := p.reduceFrame(f)
		return p.wrap(tree.ClosedClause, []arena.Index{sc})
	}
	start := f.First
	i := f.First
	depth := 0
	for i != arena.None {
		w := p.word(i)
		if _, ok := f.ChildAt(i); ok {
			i = c.next(i)
			if i == f.Last || i == arena.None {
				break
			}
			continue
		}
		if w == "," && depth == 0 {
			groups = append(groups, [2]arena.Index{start, p.Tree.Get(i).Previous})
			start = c.next(i)
		}
		if i == f.Last {
			break
		}
		i = p.Tree.Get(i).Next
	}
	groups = append(groups, [2]arena.Index{start, f.Last})

	if len(groups) == 1 {
		sc := p.reduceFrame(f)
		return p.wrap(tree.ClosedClause, []arena.Index{sc})
	}
	var units []arena.Index
	for _, g := range groups {
		sub := &framer.Frame{Kind: "serial", Table: f.Table, First: g[0], Last: g[1], Children: f.Children}
		units = append(units, p.reduceFrame(sub))
	}
	return p.wrap(tree.CollateralClause, units)
}

func (p *Parser) parseConditional(f *framer.Frame) arena.Index {
	c := &frameCtx{p: p, f: f}
	parts := splitByKeywords(p, c, f, "THEN", "ELIF", "ELSE", "OUSE")
	var kids []arena.Index
	for _, part := range parts {
		sub := &framer.Frame{Table: f.Table, First: part[0], Last: part[1], Children: f.Children}
		kids = append(kids, p.reduceFrame(sub))
	}
	return p.wrap(tree.ConditionalClause, kids)
}

func (p *Parser) parseCase(f *framer.Frame) arena.Index {
	c := &frameCtx{p: p, f: f}
	parts := splitByKeywords(p, c, f, "IN", "OUSE", "OUT")
	var kids []arena.Index
	for _, part := range parts {
		sub := &framer.Frame{Table: f.Table, First: part[0], Last: part[1], Children: f.Children}
		kids = append(kids, p.reduceFrame(sub))
	}
	return p.wrap(tree.ConformityClause, kids)
}

func (p *Parser) parseLoop(f *framer.Frame) arena.Index {
	c := &frameCtx{p: p, f: f}
	parts := splitByKeywords(p, c, f, "WHILE", "DO")
	var kids []arena.Index
	for _, part := range parts {
		sub := &framer.Frame{Table: f.Table, First: part[0], Last: part[1], Children: f.Children}
		kids = append(kids, p.reduceFrame(sub))
	}
	return p.wrap(tree.LoopClause, kids)
}

// splitByKeywords splits f's top-level token span at occurrences of
// any of words (at frame depth 0, jumping over nested children),
// returning the spans strictly between consecutive split points
// (including the leading span before the first keyword).
func splitByKeywords(p *Parser, c *frameCtx, f *framer.Frame, words ...string) [][2]arena.Index {
	var spans [][2]arena.Index
	if f.First == arena.None {
		return spans
	}
	start := f.First
	i := f.First
	for i != arena.None {
		if _, ok := f.ChildAt(i); ok {
			if i == f.Last {
				break
			}
			i = c.next(i)
			continue
		}
		w := p.word(i)
		matched := false
		for _, want := range words {
			if w == want {
				matched = true
				break
			}
		}
		if matched {
			prev := p.Tree.Get(i).Previous
			if prev != arena.None {
				spans = append(spans, [2]arena.Index{start, prev})
			}
			start = c.next(i)
		}
		if i == f.Last {
			break
		}
		i = p.Tree.Get(i).Next
	}
	spans = append(spans, [2]arena.Index{start, f.Last})
	return spans
}
