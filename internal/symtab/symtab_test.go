package symtab

import (
	"testing"

	"a68front/internal/arena"
)

func TestDeclareAndFindLocal(t *testing.T) {
	r := NewRegistry()
	root := r.NewTable(arena.None, arena.None)
	idx := r.Declare(root, Tag{Kind: IdentifierTag, Name: "x", Table: root})

	got, ok := r.FindLocal(root, IdentifierTag, "x")
	if !ok || got != idx {
		t.Fatalf("FindLocal(x) = (%d, %v), want (%d, true)", got, ok, idx)
	}
	if _, ok := r.FindLocal(root, IdentifierTag, "y"); ok {
		t.Errorf("FindLocal(y) unexpectedly found")
	}
}

func TestFindWalksEnclosingChain(t *testing.T) {
	r := NewRegistry()
	outer := r.NewTable(arena.None, arena.None)
	r.Declare(outer, Tag{Kind: IdentifierTag, Name: "outerVar", Table: outer})
	inner := r.NewTable(outer, outer)
	r.Declare(inner, Tag{Kind: IdentifierTag, Name: "innerVar", Table: inner})

	got, ok := r.Find(inner, IdentifierTag, "outerVar")
	if !ok {
		t.Fatalf("Find did not locate outerVar via enclosing chain")
	}
	if r.Tag(got).Name != "outerVar" {
		t.Errorf("Tag().Name = %q, want outerVar", r.Tag(got).Name)
	}

	if _, ok := r.Find(outer, IdentifierTag, "innerVar"); ok {
		t.Errorf("Find should not see into a nested table from the outer one")
	}
}

func TestNewTableIncrementsLevel(t *testing.T) {
	r := NewRegistry()
	root := r.NewTable(arena.None, arena.None)
	child := r.NewTable(root, root)
	grandchild := r.NewTable(child, root)

	if r.Table(root).Level != 0 {
		t.Errorf("root level = %d, want 0", r.Table(root).Level)
	}
	if r.Table(child).Level != 1 {
		t.Errorf("child level = %d, want 1", r.Table(child).Level)
	}
	if r.Table(grandchild).Level != 2 {
		t.Errorf("grandchild level = %d, want 2", r.Table(grandchild).Level)
	}
}

func TestAssignOffsetsOrdersIdentifiersThenOperatorsThenAnonymous(t *testing.T) {
	r := NewRegistry()
	root := r.NewTable(arena.None, arena.None)
	r.Declare(root, Tag{Kind: IdentifierTag, Name: "a", Table: root})
	r.Declare(root, Tag{Kind: OperatorTag, Name: "+", Table: root})
	r.Declare(root, Tag{Kind: AnonymousTag, Name: "", Table: root})

	sizeOf := func(arena.Index) int { return 4 }
	r.AssignOffsets(root, sizeOf, 1)

	tb := r.Table(root)
	if off := r.Tag(tb.Identifiers[0]).Offset; off != 0 {
		t.Errorf("identifier offset = %d, want 0", off)
	}
	if off := r.Tag(tb.Operators[0]).Offset; off != 4 {
		t.Errorf("operator offset = %d, want 4", off)
	}
	if off := r.Tag(tb.Anonymous[0]).Offset; off != 8 {
		t.Errorf("anonymous offset = %d, want 8", off)
	}
	if tb.ApIncrement != 12 {
		t.Errorf("ApIncrement = %d, want 12", tb.ApIncrement)
	}
}

func TestFindAllOperatorsCollectsOverloads(t *testing.T) {
	r := NewRegistry()
	root := r.NewTable(arena.None, arena.None)
	r.Declare(root, Tag{Kind: OperatorTag, Name: "+", Table: root})
	r.Declare(root, Tag{Kind: OperatorTag, Name: "+", Table: root})
	r.Declare(root, Tag{Kind: OperatorTag, Name: "-", Table: root})

	plus := r.FindAllOperators(root, "+")
	if len(plus) != 2 {
		t.Errorf("FindAllOperators(+) len = %d, want 2", len(plus))
	}
}
