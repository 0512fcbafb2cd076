package mode

import (
	"testing"

	"a68front/internal/arena"
)

func TestStandardModeIsCached(t *testing.T) {
	tb := NewTable()
	a := tb.Standard(Int, NoLongety)
	b := tb.Standard(Int, NoLongety)
	if a != b {
		t.Errorf("Standard(INT) returned distinct indices %d, %d for the same key", a, b)
	}
	c := tb.Standard(Int, LongLongety)
	if a == c {
		t.Errorf("Standard(INT) and Standard(LONG INT) should not collide")
	}
}

func TestMakeRefIsCachedBySub(t *testing.T) {
	tb := NewTable()
	i := tb.Standard(Int, NoLongety)
	r1 := tb.MakeRef(i)
	r2 := tb.MakeRef(i)
	if r1 != r2 {
		t.Errorf("MakeRef(INT) returned distinct indices %d, %d", r1, r2)
	}
}

func TestMakeUnionCollapsesSingleMember(t *testing.T) {
	tb := NewTable()
	i := tb.Standard(Int, NoLongety)
	u := tb.MakeUnion(arena.None, []arena.Index{i})
	if u != i {
		t.Errorf("MakeUnion([INT]) = %d, want %d (collapsed to the member itself)", u, i)
	}
}

func TestMakeUnionAbsorbsNestedUnions(t *testing.T) {
	tb := NewTable()
	i := tb.Standard(Int, NoLongety)
	r := tb.Standard(Real, NoLongety)
	b := tb.Standard(Bool, NoLongety)
	inner := tb.MakeUnion(arena.None, []arena.Index{i, r})
	outer := tb.MakeUnion(arena.None, []arena.Index{inner, b})

	m := tb.Get(outer)
	if m.Attribute != Union {
		t.Fatalf("expected outer union to stay a UNION, got %s", m.Attribute)
	}
	if len(m.Pack) != 3 {
		t.Errorf("absorbed union has %d members, want 3 (no nested UNION)", len(m.Pack))
	}
}

func TestMakeUnionContractsDuplicates(t *testing.T) {
	tb := NewTable()
	i := tb.Standard(Int, NoLongety)
	r := tb.Standard(Real, NoLongety)
	u := tb.MakeUnion(arena.None, []arena.Index{i, r, i})
	m := tb.Get(u)
	if len(m.Pack) != 2 {
		t.Errorf("contracted union has %d members, want 2", len(m.Pack))
	}
}

func TestEquivalentStructuralRecursion(t *testing.T) {
	tb := NewTable()
	// MODE L = STRUCT (INT v, REF L n); built by hand as two
	// independently-constructed but structurally identical modes.
	lNode := tb.MakeIndicant(arena.None, arena.None)
	build := func() arena.Index {
		placeholder := tb.alloc(Mode{Attribute: IndicantMode})
		ref := tb.MakeRef(placeholder)
		s := tb.MakeStruct(arena.None, []PackItem{
			{Mode: tb.Standard(Int, NoLongety), Field: "v"},
			{Mode: ref, Field: "n"},
		})
		tb.Get(placeholder).Equivalent = s
		return s
	}
	a := build()
	b := build()
	_ = lNode

	if !tb.Equivalent(a, b) {
		t.Errorf("two independently-built recursive STRUCT modes should be Equivalent")
	}
}

func TestEquivalentRejectsDifferentFieldNames(t *testing.T) {
	tb := NewTable()
	i := tb.Standard(Int, NoLongety)
	a := tb.MakeStruct(arena.None, []PackItem{{Mode: i, Field: "x"}})
	b := tb.MakeStruct(arena.None, []PackItem{{Mode: i, Field: "y"}})
	if tb.Equivalent(a, b) {
		t.Errorf("STRUCT modes with different field names should not be Equivalent")
	}
}

func TestResolveFollowsEquivalentChain(t *testing.T) {
	tb := NewTable()
	a := tb.Standard(Int, NoLongety)
	indicant := tb.MakeIndicant(arena.None, arena.None)
	tb.Get(indicant).Equivalent = a
	if got := tb.Resolve(indicant); got != a {
		t.Errorf("Resolve(indicant) = %d, want %d", got, a)
	}
}
