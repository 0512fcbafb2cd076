package victal

import (
	"testing"

	"a68front/internal/arena"
	"a68front/internal/diag"
	"a68front/internal/mode"
	"a68front/internal/tree"
)

func newFixture() (*tree.Tree, *mode.Table, *diag.Sink) {
	return tree.NewTree(), mode.NewTable(), diag.NewSink()
}

func TestCheckFlagsVoidIdentityDeclaration(t *testing.T) {
	tr, modes, sink := newFixture()
	declarer := tr.New(tree.Declarer, "VOID", 1, 1, "t.a68")
	tr.Get(declarer).Mode = modes.Void()
	name := tr.New(tree.Identifier, "x", 1, 6, "t.a68")
	init := tr.New(tree.Denotation, "1", 1, 10, "t.a68")
	tr.AppendSibling(declarer, name)
	tr.AppendSibling(name, init)
	decl := tr.MakeSub(tree.IdentityDeclaration, 1, 1, "t.a68", declarer, init)

	c := New(tr, modes, sink)
	c.Check(decl)

	if sink.ErrorCount() != 1 {
		t.Fatalf("expected one VOID-identifier error, got %d (%v)", sink.ErrorCount(), sink.All())
	}
}

func TestCheckAcceptsNonVoidIdentityDeclaration(t *testing.T) {
	tr, modes, sink := newFixture()
	declarer := tr.New(tree.Declarer, "INT", 1, 1, "t.a68")
	tr.Get(declarer).Mode = modes.Standard(mode.Int, mode.NoLongety)
	name := tr.New(tree.Identifier, "x", 1, 5, "t.a68")
	init := tr.New(tree.Denotation, "1", 1, 9, "t.a68")
	tr.AppendSibling(declarer, name)
	tr.AppendSibling(name, init)
	decl := tr.MakeSub(tree.IdentityDeclaration, 1, 1, "t.a68", declarer, init)

	c := New(tr, modes, sink)
	c.Check(decl)

	if sink.ErrorCount() != 0 {
		t.Errorf("unexpected diagnostics for an INT declaration: %v", sink.All())
	}
}

func TestCheckFlagsVoidFormalParameter(t *testing.T) {
	tr, modes, sink := newFixture()
	param := tr.New(tree.Declarer, "VOID", 1, 1, "t.a68")
	tr.Get(param).Mode = modes.Void()
	pack := tr.MakeSub(tree.ParameterPack, 1, 1, "t.a68", param, param)

	c := New(tr, modes, sink)
	c.Check(pack)

	if sink.ErrorCount() != 1 {
		t.Fatalf("expected one VOID-parameter error, got %d (%v)", sink.ErrorCount(), sink.All())
	}
}

func TestCheckAcceptsNonVoidFormalParameter(t *testing.T) {
	tr, modes, sink := newFixture()
	param := tr.New(tree.Declarer, "REAL", 1, 1, "t.a68")
	tr.Get(param).Mode = modes.Standard(mode.Real, mode.NoLongety)
	pack := tr.MakeSub(tree.ParameterPack, 1, 1, "t.a68", param, param)

	c := New(tr, modes, sink)
	c.Check(pack)

	if sink.ErrorCount() != 0 {
		t.Errorf("unexpected diagnostics for a REAL parameter: %v", sink.All())
	}
}

func TestCheckWalksIntoNestedNodes(t *testing.T) {
	tr, modes, sink := newFixture()
	declarer := tr.New(tree.Declarer, "VOID", 1, 1, "t.a68")
	tr.Get(declarer).Mode = modes.Void()
	name := tr.New(tree.Identifier, "x", 1, 6, "t.a68")
	init := tr.New(tree.Denotation, "1", 1, 10, "t.a68")
	tr.AppendSibling(declarer, name)
	tr.AppendSibling(name, init)
	decl := tr.MakeSub(tree.IdentityDeclaration, 1, 1, "t.a68", declarer, init)
	serial := tr.MakeSub(tree.SerialClause, 1, 1, "t.a68", decl, decl)

	c := New(tr, modes, sink)
	c.Check(serial)

	if sink.ErrorCount() != 1 {
		t.Fatalf("expected the nested VOID declaration to still be found, got %d errors (%v)", sink.ErrorCount(), sink.All())
	}
}

func TestCheckIgnoresArenaNoneRoot(t *testing.T) {
	tr, modes, sink := newFixture()
	c := New(tr, modes, sink)
	c.Check(arena.None)
	if sink.ErrorCount() != 0 {
		t.Errorf("Check(arena.None) should be a no-op")
	}
}
