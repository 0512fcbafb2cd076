// Package bind is phase J (spec §4.J): binds every applied occurrence
// of an identifier/operator/label to its declaring tag by walking the
// tree and consulting the owning range's table, then assigns byte
// offsets within each table. Grounded on
// internal/compiler/compiler.go's AddConstant-style global slot
// assignment, generalized to per-range offsets.
package bind

import (
	"a68front/internal/arena"
	"a68front/internal/diag"
	"a68front/internal/mode"
	"a68front/internal/symtab"
	"a68front/internal/tree"
)

type Binder struct {
	Tree  *tree.Tree
	Tags  *symtab.Registry
	Modes *mode.Table
	Sink  *diag.Sink
}

func New(t *tree.Tree, tags *symtab.Registry, modes *mode.Table, sink *diag.Sink) *Binder {
	return &Binder{Tree: t, Tags: tags, Modes: modes, Sink: sink}
}

// BindProgram walks from root, tracking the innermost enclosing table
// (carried down from each node's own Table field, set by reduce/framer
// on SERIAL_CLAUSE/range-owning nodes) and binding every applied
// IDENTIFIER, OPERATOR token, and JUMP label to its declaring tag.
func (b *Binder) BindProgram(root arena.Index) {
	b.walk(root, arena.None)
}

func (b *Binder) walk(i arena.Index, table arena.Index) {
	if i == arena.None {
		return
	}
	n := b.Tree.Get(i)
	if n.Table != arena.None {
		table = n.Table
	}
	switch n.Attribute {
	case tree.Identifier:
		if n.Tag == arena.None && table != arena.None {
			if tag, ok := b.Tags.Find(table, symtab.IdentifierTag, n.Spelling); ok {
				n.Tag = tag
				b.Tags.Tag(tag).Used = true
			} else {
				b.Sink.Add(diag.Diagnostic{Severity: diag.Error, File: n.File, Line: n.Line, Column: n.Column,
					Message: "undeclared identifier %q", Args: []interface{}{n.Spelling}})
			}
		}
	case tree.Operator:
		if n.Tag == arena.None && table != arena.None && n.Parent != arena.None {
			parent := b.Tree.Get(n.Parent)
			if parent.Attribute == tree.Formula || parent.Attribute == tree.MonadicFormula {
				cands := b.Tags.FindAllOperators(table, n.Spelling)
				if len(cands) > 0 {
					n.Tag = cands[0] // phase L narrows by operand mode; this is a provisional bind
					b.Tags.Tag(cands[0]).Used = true
				}
			}
		}
	case tree.Jump:
		kids := b.Tree.Children(i)
		if len(kids) == 2 {
			label := b.Tree.Get(kids[1])
			if tag, ok := b.Tags.Find(table, symtab.LabelTag, label.Spelling); ok {
				label.Tag = tag
				b.Tags.Tag(tag).Used = true
			} else {
				b.Sink.Add(diag.Diagnostic{Severity: diag.Error, File: label.File, Line: label.Line, Column: label.Column,
					Message: "undeclared label %q", Args: []interface{}{label.Spelling}})
			}
			return // the label is not an applied identifier; do not bind it again below
		}
	}
	for c := n.Sub; c != arena.None; c = b.Tree.Get(c).Next {
		b.walk(c, table)
	}
}

// LinkDeclarationModes implements the remainder of spec §4.J: for each
// IDENTITY/VARIABLE/PROCEDURE/OPERATOR_DECLARATION, copy the already-
// collected declarer/routine-text mode onto the defining tag (phase H
// collected the declarer's own Mode; this only propagates it onto the
// tag that Declare created back in phase F with Mode still unset).
func (b *Binder) LinkDeclarationModes(i arena.Index) {
	if i == arena.None {
		return
	}
	n := b.Tree.Get(i)
	switch n.Attribute {
	case tree.IdentityDeclaration, tree.VariableDeclaration, tree.ProcedureDeclaration:
		kids := b.Tree.Children(i)
		if len(kids) >= 2 {
			declarer, nameNode := kids[0], kids[1]
			if nameNode2 := b.Tree.Get(nameNode); nameNode2.Tag != arena.None {
				b.Tags.Tag(nameNode2.Tag).Mode = b.Tree.Get(declarer).Mode
			}
		}
	case tree.OperatorDeclaration:
		kids := b.Tree.Children(i)
		if len(kids) >= 2 {
			nameNode, body := kids[0], kids[1]
			if nameNode2 := b.Tree.Get(nameNode); nameNode2.Tag != arena.None {
				b.Tags.Tag(nameNode2.Tag).Mode = b.Tree.Get(body).Mode
			}
		}
	}
	for c := n.Sub; c != arena.None; c = b.Tree.Get(c).Next {
		b.LinkDeclarationModes(c)
	}
}

// AssignAllOffsets walks every table in the registry and assigns
// offsets using modeSize (spec §4.J's final step, per table rather
// than globally).
func (b *Binder) AssignAllOffsets(modeSize func(arena.Index) int, align int) {
	all := b.Tags.Tables.All()
	for i := range all {
		b.Tags.AssignOffsets(arena.Index(i), modeSize, align)
	}
}
