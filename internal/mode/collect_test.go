package mode

import (
	"testing"

	"a68front/internal/arena"
	"a68front/internal/diag"
	"a68front/internal/symtab"
	"a68front/internal/tree"
)

func newCollectorFixture() (*tree.Tree, *Table, *symtab.Registry, *diag.Sink) {
	return tree.NewTree(), NewTable(), symtab.NewRegistry(), diag.NewSink()
}

// leaf allocates a single childless node, the shape collectDeclarer
// expects for a declarer's component symbols (REF_SYMBOL, BOLD_TAG
// indicants and so on).
func leaf(tr *tree.Tree, attr tree.Attribute, spelling string) arena.Index {
	return tr.New(attr, spelling, 1, 1, "t.a68")
}

func chain(tr *tree.Tree, idxs ...arena.Index) {
	for i := 0; i+1 < len(idxs); i++ {
		tr.AppendSibling(idxs[i], idxs[i+1])
	}
}

func TestCollectDeclarerRefIndicant(t *testing.T) {
	tr, modes, tags, sink := newCollectorFixture()
	refTok := leaf(tr, tree.RefSymbol, "REF")
	indicant := leaf(tr, tree.BoldTag, "INT")
	chain(tr, refTok, indicant)
	declarer := tr.MakeSub(tree.Declarer, 1, 1, "t.a68", refTok, indicant)

	c := NewCollector(tr, modes, tags, sink)
	m := c.collectDeclarer(declarer)

	got := modes.Get(m)
	if got.Attribute != Ref {
		t.Fatalf("attribute = %v, want REF", got.Attribute)
	}
	sub := modes.Get(got.Sub)
	if sub.Attribute != IndicantMode {
		t.Errorf("REF's sub attribute = %v, want INDICANT", sub.Attribute)
	}
}

func TestCollectDeclarerRowDefaultsToOneDimension(t *testing.T) {
	tr, modes, tags, sink := newCollectorFixture()
	rowTok := leaf(tr, tree.RowSymbol, "ROW")
	indicant := leaf(tr, tree.BoldTag, "REAL")
	chain(tr, rowTok, indicant)
	declarer := tr.MakeSub(tree.Declarer, 1, 1, "t.a68", rowTok, indicant)

	c := NewCollector(tr, modes, tags, sink)
	m := c.collectDeclarer(declarer)

	got := modes.Get(m)
	if got.Attribute != Row || got.Dim != 1 {
		t.Fatalf("mode = %+v, want ROW with Dim 1 (bounds elided)", got)
	}
}

func TestCollectDeclarerStructBuildsFieldPack(t *testing.T) {
	tr, modes, tags, sink := newCollectorFixture()
	structTok := leaf(tr, tree.StructSymbol, "STRUCT")
	indicantTok := leaf(tr, tree.BoldTag, "INT")
	fieldDecl := tr.MakeSub(tree.Declarer, 1, 1, "t.a68", indicantTok, indicantTok)
	idA := leaf(tr, tree.Identifier, "a")
	idB := leaf(tr, tree.Identifier, "b")
	chain(tr, fieldDecl, idA, idB)
	fieldList := tr.MakeSub(tree.FieldList, 1, 1, "t.a68", fieldDecl, idB)
	chain(tr, structTok, fieldList)
	declarer := tr.MakeSub(tree.Declarer, 1, 1, "t.a68", structTok, fieldList)

	c := NewCollector(tr, modes, tags, sink)
	m := c.collectDeclarer(declarer)

	got := modes.Get(m)
	if got.Attribute != Struct {
		t.Fatalf("attribute = %v, want STRUCT", got.Attribute)
	}
	if len(got.Pack) != 2 || got.Pack[0].Field != "a" || got.Pack[1].Field != "b" {
		t.Errorf("field pack = %+v, want fields a, b", got.Pack)
	}
}

func TestCollectDenotationFlagsOversizedPlainInt(t *testing.T) {
	tr, modes, tags, sink := newCollectorFixture()
	den := leaf(tr, tree.Denotation, "99999999999999999999")
	root := tr.MakeSub(tree.SerialClause, 1, 1, "t.a68", den, den)

	c := NewCollector(tr, modes, tags, sink)
	c.CollectProgram(root)

	m := tr.Get(den).Mode
	got := modes.Get(m)
	if got.Attribute != Standard || got.Standard != Int {
		t.Fatalf("denotation mode = %+v, want plain INT", got)
	}
	if len(sink.All()) != 1 || sink.All()[0].Severity != diag.PortCheck {
		t.Errorf("expected one PortCheck diagnostic, got %+v", sink.All())
	}
}

func TestCollectDenotationLongPrefixSkipsPortCheck(t *testing.T) {
	tr, modes, tags, sink := newCollectorFixture()
	den := leaf(tr, tree.Denotation, "long 99999999999999999999")
	root := tr.MakeSub(tree.SerialClause, 1, 1, "t.a68", den, den)

	c := NewCollector(tr, modes, tags, sink)
	c.CollectProgram(root)

	m := tr.Get(den).Mode
	got := modes.Get(m)
	if got.Attribute != Standard || got.Standard != Int || got.Dim != LongLongety {
		t.Fatalf("denotation mode = %+v, want LONG INT", got)
	}
	if len(sink.All()) != 0 {
		t.Errorf("a LONG-prefixed denotation should not raise a port-check, got %+v", sink.All())
	}
}

func TestCollectDenotationRecognizesBoolAndChar(t *testing.T) {
	tr, modes, tags, sink := newCollectorFixture()
	c := NewCollector(tr, modes, tags, sink)

	boolNode := tr.Get(leaf(tr, tree.Denotation, "true"))
	if m := modes.Get(c.collectDenotation(boolNode)); m.Attribute != Standard || m.Standard != Bool {
		t.Errorf("true -> %+v, want BOOL", m)
	}
	charNode := tr.Get(leaf(tr, tree.Denotation, "x"))
	if m := modes.Get(c.collectDenotation(charNode)); m.Attribute != Standard || m.Standard != Char {
		t.Errorf("'x' -> %+v, want CHAR", m)
	}
}

func TestCollectModeDeclarationSetsIndicantTagMode(t *testing.T) {
	tr, modes, tags, sink := newCollectorFixture()
	table := tags.NewTable(arena.None, arena.None)
	tagIdx := tags.Declare(table, symtab.Tag{Kind: symtab.IndicantTag, Name: "VEC", Table: table})

	tagNode := leaf(tr, tree.BoldTag, "VEC")
	tr.Get(tagNode).Tag = tagIdx
	declTok := leaf(tr, tree.BoldTag, "REAL")
	declarer := tr.MakeSub(tree.Declarer, 1, 1, "t.a68", declTok, declTok)
	tr.AppendSibling(tagNode, declarer)
	modeDecl := tr.MakeSub(tree.ModeDeclaration, 1, 1, "t.a68", tagNode, declarer)

	c := NewCollector(tr, modes, tags, sink)
	c.collectModeDeclaration(modeDecl)

	tg := tags.Tag(tagIdx)
	if tg.Mode == arena.None {
		t.Fatalf("expected VEC's tag to have its Mode filled in")
	}
	if modes.Get(tg.Mode).Attribute != IndicantMode {
		t.Errorf("VEC's mode = %+v, want an INDICANT wrapping REAL", modes.Get(tg.Mode))
	}
}
