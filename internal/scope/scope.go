// Package scope is phase M (spec §4.M): computes the youngest environ
// of every UNIT and rejects an assignation or identity declaration that
// would let a REF value outlive the range it points into. Grounded on
// the tag/table walk idiom of internal/bind.
package scope

import (
	"a68front/internal/arena"
	"a68front/internal/diag"
	"a68front/internal/mode"
	"a68front/internal/symtab"
	"a68front/internal/tree"
)

type Checker struct {
	Tree  *tree.Tree
	Tags  *symtab.Registry
	Modes *mode.Table
	Sink  *diag.Sink
}

func New(t *tree.Tree, tags *symtab.Registry, modes *mode.Table, sink *diag.Sink) *Checker {
	return &Checker{Tree: t, Tags: tags, Modes: modes, Sink: sink}
}

// AssignScopes gives every declared tag its scope tuple: level is the
// declaring range's level, and transient is false for every tag.
// Must run once, top-down, before Check.
func (c *Checker) AssignScopes(table arena.Index) {
	tb := c.Tags.Table(table)
	assign := func(idxs []arena.Index, transient bool) {
		for _, idx := range idxs {
			t := c.Tags.Tag(idx)
			if !t.ScopeAssigned {
				t.Scope = symtab.ScopeTuple{Level: tb.Level, Transient: transient}
				t.ScopeAssigned = true
			}
		}
	}
	assign(tb.Identifiers, false)
	assign(tb.Indicants, false)
	assign(tb.Labels, false)
	assign(tb.Operators, false)
	assign(tb.Anonymous, false)
}

// AssignAllScopes runs AssignScopes over every table in the registry;
// table level alone determines scope so traversal order doesn't matter.
func (c *Checker) AssignAllScopes() {
	all := c.Tags.Tables.All()
	for i := range all {
		c.AssignScopes(arena.Index(i))
	}
}

// youngest combines two scope tuples into the one that dies first
// (spec §3: "the youngest of a compound value's constituent scopes").
func youngest(a, b symtab.ScopeTuple) symtab.ScopeTuple {
	if b.Level > a.Level {
		return b
	}
	if b.Level == a.Level && b.Transient {
		return b
	}
	return a
}

var primal = symtab.ScopeTuple{Level: symtab.PrimalScope, Transient: false}

// Of computes the youngest environ of i (spec §4.M step 1), without
// emitting diagnostics; Check calls this bottom-up and separately
// verifies escape invariants at assignation/identity-declaration sites.
func (c *Checker) Of(i arena.Index) symtab.ScopeTuple {
	if i == arena.None {
		return primal
	}
	n := c.Tree.Get(i)
	switch n.Attribute {
	case tree.Identifier:
		if n.Tag != arena.None {
			return c.Tags.Tag(n.Tag).Scope
		}
		return primal
	case tree.Generator:
		kids := c.Tree.Children(i)
		if len(kids) == 2 && c.isHeap(kids[0]) {
			return primal
		}
		if n.Table != arena.None {
			return symtab.ScopeTuple{Level: c.Tags.Table(n.Table).Level, Transient: false}
		}
		return c.scopeOfOwningRange(i)
	case tree.Denotation, tree.RowCharDenotation, tree.Skip, tree.Nihil, tree.RoutineText:
		return primal
	default:
		s := primal
		for ch := n.Sub; ch != arena.None; ch = c.Tree.Get(ch).Next {
			s = youngest(s, c.Of(ch))
		}
		return s
	}
}

func (c *Checker) isHeap(declarerOrKeyword arena.Index) bool {
	n := c.Tree.Get(declarerOrKeyword)
	return n != nil && n.Spelling == "HEAP"
}

// scopeOfOwningRange walks up Parent links to the nearest ancestor that
// owns a table, for nodes (like a bare LOC generator with no Table of
// its own) that rely on their enclosing range's level.
func (c *Checker) scopeOfOwningRange(i arena.Index) symtab.ScopeTuple {
	for p := c.Tree.Get(i).Parent; p != arena.None; p = c.Tree.Get(p).Parent {
		if t := c.Tree.Get(p).Table; t != arena.None {
			return symtab.ScopeTuple{Level: c.Tags.Table(t).Level, Transient: false}
		}
	}
	return primal
}

// Check walks the tree verifying every assignation and identity
// declaration against spec §4.M's escape invariant: the destination's
// scope must be at least as old (same or lower level) as the source's.
func (c *Checker) Check(i arena.Index) {
	if i == arena.None {
		return
	}
	n := c.Tree.Get(i)
	switch n.Attribute {
	case tree.Assignation:
		kids := c.Tree.Children(i)
		if len(kids) == 2 {
			lhs, rhs := c.Of(kids[0]), c.Of(kids[1])
			if rhs.Level > lhs.Level {
				s := c.Tree.Get(kids[1])
				c.Sink.Add(diag.Diagnostic{Severity: diag.Error, File: s.File, Line: s.Line, Column: s.Column,
					Message: "scope violation: assigned value does not live as long as its destination"})
			}
		}
	case tree.IdentityDeclaration:
		kids := c.Tree.Children(i)
		if len(kids) == 3 {
			nameNode := c.Tree.Get(kids[1])
			if nameNode.Tag != arena.None {
				declScope := c.Tags.Tag(nameNode.Tag).Scope
				rhsScope := c.Of(kids[2])
				if rhsScope.Level > declScope.Level {
					c.Sink.Add(diag.Diagnostic{Severity: diag.Error, File: nameNode.File, Line: nameNode.Line, Column: nameNode.Column,
						Message: "scope violation: %q outlives the value bound to it", Args: []interface{}{nameNode.Spelling}})
				}
			}
		}
	}
	for ch := n.Sub; ch != arena.None; ch = c.Tree.Get(ch).Next {
		c.Check(ch)
	}
}
