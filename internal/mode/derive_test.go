package mode

import (
	"testing"

	"a68front/internal/arena"
)

func TestDeriveDerivedFlexOfRowProducesDeflexed(t *testing.T) {
	tb := NewTable()
	row := tb.MakeRow(1, tb.Standard(Int, NoLongety))
	flex := tb.MakeFlex(row)

	tb.DeriveDerived()

	df := tb.Get(flex).Deflexed
	if df == arena.None {
		t.Fatalf("expected Deflexed to be set on the FLEX mode")
	}
	dm := tb.Get(df)
	if dm.Attribute != Row || dm.Dim != 1 {
		t.Errorf("deflexed mode = %+v, want ROW of dim 1", dm)
	}
}

func TestDeriveDerivedRowSetsRowedAndHasRows(t *testing.T) {
	tb := NewTable()
	row := tb.MakeRow(1, tb.Standard(Int, NoLongety))

	tb.DeriveDerived()

	m := tb.Get(row)
	if m.Deflexed != row {
		t.Errorf("ROW's own Deflexed = %d, want itself (%d)", m.Deflexed, row)
	}
	if !m.HasRows {
		t.Errorf("expected HasRows on a ROW mode")
	}
	rowed := tb.Get(m.Rowed)
	if rowed.Attribute != Row || rowed.Dim != 2 {
		t.Errorf("Rowed = %+v, want ROW of dim 2", rowed)
	}
}

func TestDeriveDerivedRefToStructCarriesName(t *testing.T) {
	tb := NewTable()
	s := tb.MakeStruct(arena.None, []PackItem{{Mode: tb.Standard(Int, NoLongety), Field: "v"}})
	ref := tb.MakeRef(s)

	tb.DeriveDerived()

	if tb.Get(ref).Name != ref {
		t.Errorf("REF STRUCT's Name = %d, want itself (%d)", tb.Get(ref).Name, ref)
	}
}

func TestDeriveDerivedProcHasNoRows(t *testing.T) {
	tb := NewTable()
	row := tb.MakeRow(1, tb.Standard(Int, NoLongety))
	proc := tb.MakeProc(arena.None, nil, row)

	tb.DeriveDerived()

	if tb.Get(proc).HasRows {
		t.Errorf("a PROC yielding a ROW should itself report HasRows = false (spec: rows don't propagate through PROC)")
	}
}

func TestResolveIndicantsFollowsDefiningTagToConcreteMode(t *testing.T) {
	tb := NewTable()
	target := tb.Standard(Real, NoLongety)
	indicant := tb.MakeIndicant(arena.None, arena.Index(42))
	lookup := func(tag arena.Index) arena.Index {
		if tag == arena.Index(42) {
			return target
		}
		return arena.None
	}

	tb.ResolveIndicants(lookup)

	if got := tb.Resolve(indicant); got != target {
		t.Errorf("Resolve(indicant) = %d, want %d", got, target)
	}
}

func TestResolveIndicantsFollowsChainOfIndicants(t *testing.T) {
	tb := NewTable()
	concrete := tb.Standard(Bool, NoLongety)
	indicantB := tb.MakeIndicant(arena.None, arena.Index(2))
	indicantA := tb.MakeIndicant(arena.None, arena.Index(1))
	lookup := func(tag arena.Index) arena.Index {
		switch tag {
		case arena.Index(1):
			return indicantB
		case arena.Index(2):
			return concrete
		}
		return arena.None
	}

	tb.ResolveIndicants(lookup)

	if got := tb.Resolve(indicantA); got != concrete {
		t.Errorf("Resolve(indicantA) = %d, want %d (through indicantB)", got, concrete)
	}
}

func TestResolveIndicantsBreaksUnresolvableCycle(t *testing.T) {
	tb := NewTable()
	// MODE A = B; MODE B = A -- two indicants each naming the other,
	// with no concrete base ever reached.
	a := tb.MakeIndicant(arena.None, arena.Index(1))
	b := tb.MakeIndicant(arena.None, arena.Index(2))
	lookup := func(tag arena.Index) arena.Index {
		switch tag {
		case arena.Index(1):
			return b
		case arena.Index(2):
			return a
		}
		return arena.None
	}

	tb.ResolveIndicants(lookup)

	if got := tb.Resolve(a); tb.Get(got).Attribute != ErrorMode {
		t.Errorf("Resolve(a) = %+v, want the ERROR mode for an unresolvable indicant cycle", tb.Get(got))
	}
}
