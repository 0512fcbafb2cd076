// Package victal is phase K (spec §4.K): the VICTAL (void/identifier/
// context/tag/allowed-location) checker, a lightweight pass that
// rejects modes used in positions the grammar allows syntactically but
// the language forbids semantically — VOID-moded declarations and a
// routine's parameter declared VOID. Where a label is used is not
// checked here. Grounded on the general recursive-tree-walk idiom
// used throughout internal/compiler; the checks themselves have no
// teacher analogue since sentra has no VOID-like bottom mode.
package victal

import (
	"a68front/internal/arena"
	"a68front/internal/diag"
	"a68front/internal/mode"
	"a68front/internal/tree"
)

type Checker struct {
	Tree  *tree.Tree
	Modes *mode.Table
	Sink  *diag.Sink
}

func New(t *tree.Tree, modes *mode.Table, sink *diag.Sink) *Checker {
	return &Checker{Tree: t, Modes: modes, Sink: sink}
}

func (c *Checker) Check(root arena.Index) {
	c.walk(root)
}

func (c *Checker) walk(i arena.Index) {
	if i == arena.None {
		return
	}
	n := c.Tree.Get(i)
	switch n.Attribute {
	case tree.IdentityDeclaration, tree.VariableDeclaration:
		kids := c.Tree.Children(i)
		if len(kids) > 0 {
			declMode := c.Modes.Resolve(c.Tree.Get(kids[0]).Mode)
			if declMode != arena.None && c.Modes.Get(declMode).Attribute == mode.Void {
				s := c.Tree.Get(kids[0])
				c.Sink.Add(diag.Diagnostic{Severity: diag.Error, File: s.File, Line: s.Line, Column: s.Column,
					Message: "a declared identifier may not have mode VOID"})
			}
		}
	case tree.ParameterPack:
		for _, d := range c.Tree.Children(i) {
			dm := c.Modes.Resolve(c.Tree.Get(d).Mode)
			if dm != arena.None && c.Modes.Get(dm).Attribute == mode.Void {
				s := c.Tree.Get(d)
				c.Sink.Add(diag.Diagnostic{Severity: diag.Error, File: s.File, Line: s.Line, Column: s.Column,
					Message: "a formal parameter may not have mode VOID"})
			}
		}
	}
	for ch := n.Sub; ch != arena.None; ch = c.Tree.Get(ch).Next {
		c.walk(ch)
	}
}
