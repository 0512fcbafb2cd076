package mode

import (
	"testing"

	"a68front/internal/arena"
)

func hasViolation(vs []Violation, mode arena.Index, kind string) bool {
	for _, v := range vs {
		if v.Mode == mode && v.Kind == kind {
			return true
		}
	}
	return false
}

func TestValidateFlagsFlexOverNonRow(t *testing.T) {
	tb := NewTable()
	flex := tb.MakeFlex(tb.Standard(Int, NoLongety))

	vs := tb.Validate()
	if !hasViolation(vs, flex, "flex-over-non-row") {
		t.Errorf("expected flex-over-non-row for %d, got %+v", flex, vs)
	}
}

func TestValidateAcceptsFlexOverRow(t *testing.T) {
	tb := NewTable()
	row := tb.MakeRow(1, tb.Standard(Int, NoLongety))
	flex := tb.MakeFlex(row)

	vs := tb.Validate()
	if hasViolation(vs, flex, "flex-over-non-row") {
		t.Errorf("FLEX ROW should not be flagged flex-over-non-row, got %+v", vs)
	}
}

func TestValidateFlagsDuplicateStructField(t *testing.T) {
	tb := NewTable()
	i := tb.Standard(Int, NoLongety)
	s := tb.MakeStruct(arena.None, []PackItem{{Mode: i, Field: "x"}, {Mode: i, Field: "x"}})

	vs := tb.Validate()
	if !hasViolation(vs, s, "duplicate-struct-field") {
		t.Errorf("expected duplicate-struct-field for %d, got %+v", s, vs)
	}
}

func TestValidateAcceptsDistinctStructFields(t *testing.T) {
	tb := NewTable()
	i := tb.Standard(Int, NoLongety)
	r := tb.Standard(Real, NoLongety)
	s := tb.MakeStruct(arena.None, []PackItem{{Mode: i, Field: "x"}, {Mode: r, Field: "y"}})

	vs := tb.Validate()
	if hasViolation(vs, s, "duplicate-struct-field") {
		t.Errorf("distinct field names should not be flagged, got %+v", vs)
	}
}

func TestValidateFlagsSingleMemberUnion(t *testing.T) {
	tb := NewTable()
	// MakeUnion itself collapses a one-member pack, so build the
	// illegal shape directly through the table's allocator path a
	// malformed declarer could still reach: Validate only inspects
	// whatever made it into the arena as a UNION attribute.
	tb.alloc(Mode{Attribute: Union, Pack: []PackItem{{Mode: tb.Standard(Int, NoLongety)}}})

	vs := tb.Validate()
	found := false
	for _, v := range vs {
		if v.Kind == "union-single-member" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected a union-single-member violation, got %+v", vs)
	}
}

func TestValidateFlagsFirmlyRelatedUnionMembers(t *testing.T) {
	tb := NewTable()
	i := tb.Standard(Int, NoLongety)
	refInt := tb.MakeRef(i)
	u := tb.MakeUnion(arena.None, []arena.Index{i, refInt})

	vs := tb.Validate()
	if !hasViolation(vs, u, "union-firmly-related-members") {
		t.Errorf("UNION(INT, REF INT) should be flagged union-firmly-related-members, got %+v", vs)
	}
}

// Two distinct PROC fields of a STRUCT that happen to share a result
// mode are ordinary, unrelated modes, not a cycle: each field's walk
// has its own ancestor path, and leaving one field's path before
// entering the other's means the shared result mode is never mistaken
// for a re-entered ancestor.
func TestValidateAcceptsStructWithSharedProcResult(t *testing.T) {
	tb := NewTable()
	x := tb.Standard(Int, NoLongety)
	arg := tb.Standard(Real, NoLongety)
	proc1 := tb.MakeProc(arena.None, []PackItem{{Mode: arg}}, x)
	proc2 := tb.MakeProc(arena.None, []PackItem{{Mode: arg}}, x)
	s := tb.MakeStruct(arena.None, []PackItem{{Mode: proc1, Field: "a"}, {Mode: proc2, Field: "b"}})

	vs := tb.Validate()
	if hasViolation(vs, s, "ill-formed-cycle") {
		t.Errorf("STRUCT(a: PROC(REAL)INT, b: PROC(REAL)INT) is ordinary, unrelated fields, not a cycle: %+v", vs)
	}
}

// MODE L = REF L never reaches concrete storage: every hop is a REF
// back to the same mode, so yin must stay set across the whole walk
// rather than toggle back to the neutral start state.
func TestValidateFlagsPureRefSelfCycle(t *testing.T) {
	tb := NewTable()
	l := tb.MakeRef(arena.None)
	tb.Modes.Get(l).Sub = l

	vs := tb.Validate()
	if !hasViolation(vs, l, "ill-formed-cycle") {
		t.Errorf("expected ill-formed-cycle for %d, got %+v", l, vs)
	}
}

// MODE LIST = STRUCT(INT val, REF LIST next) is the textbook legal
// recursive mode: the STRUCT resets yin/yang before the REF field
// loops back, so the revisit lands in the neutral state rather than a
// sticky one.
func TestValidateAcceptsRecursiveStructThroughRef(t *testing.T) {
	tb := NewTable()
	i := tb.Standard(Int, NoLongety)
	ref := tb.MakeRef(arena.None)
	list := tb.MakeStruct(arena.None, []PackItem{{Mode: i, Field: "val"}, {Mode: ref, Field: "next"}})
	tb.Modes.Get(ref).Sub = list

	vs := tb.Validate()
	if hasViolation(vs, list, "ill-formed-cycle") {
		t.Errorf("STRUCT(INT val, REF LIST next) is a legal recursive mode, not a cycle: %+v", vs)
	}
}

func TestValidateAcceptsOrdinarySharedReference(t *testing.T) {
	tb := NewTable()
	i := tb.Standard(Int, NoLongety)
	refI := tb.MakeRef(i)
	s := tb.MakeStruct(arena.None, []PackItem{{Mode: refI, Field: "a"}, {Mode: refI, Field: "b"}})

	vs := tb.Validate()
	if hasViolation(vs, s, "ill-formed-cycle") {
		t.Errorf("two fields sharing one REF INT mode is an ordinary shared reference, not a cycle: %+v", vs)
	}
}
