package mode

import "a68front/internal/arena"

// Violation is one well-formedness failure for the driver to turn into
// a diagnostic (spec §4.I step 5, §7 "mode not well-formed").
type Violation struct {
	Mode arena.Index
	Kind string
}

// Validate runs every structural check spec §4.I step 5 and spec §3's
// invariants name: ill-formed YIN/YANG cycles, FLEX over non-ROW,
// duplicate STRUCT fields, and the three UNION rules (single member
// already collapsed at construction; here we additionally reject a
// UNION with one surviving distinct member after equivalencing,
// firmly-related members, and a REF to a union that isSubsetUnion
// flags).
func (t *Table) Validate() []Violation {
	var out []Violation
	all := t.Modes.All()
	for i := range all {
		idx := arena.Index(i)
		if t.Get(idx).Equivalent != arena.None {
			continue
		}
		m := t.Get(idx)
		switch m.Attribute {
		case Flex:
			if t.Get(t.Resolve(m.Sub)).Attribute != Row {
				out = append(out, Violation{idx, "flex-over-non-row"})
			}
		case Struct:
			if dupField(m.Pack) {
				out = append(out, Violation{idx, "duplicate-struct-field"})
			}
		case Union:
			if len(m.Pack) < 2 {
				out = append(out, Violation{idx, "union-single-member"})
			}
			if t.hasFirmlyRelatedMembers(m.Pack) {
				out = append(out, Violation{idx, "union-firmly-related-members"})
			}
		case Ref:
			if t.Get(t.Resolve(m.Sub)).Attribute == Union && t.isSubsetUnion(t.Resolve(m.Sub)) {
				out = append(out, Violation{idx, "ref-to-subset-union"})
			}
		}
		if !t.wellFormedCycle(idx) {
			out = append(out, Violation{idx, "ill-formed-cycle"})
		}
	}
	return out
}

func dupField(pack []PackItem) bool {
	seen := map[string]bool{}
	for _, p := range pack {
		if p.Field == "" {
			continue
		}
		if seen[p.Field] {
			return true
		}
		seen[p.Field] = true
	}
	return false
}

// hasFirmlyRelatedMembers rejects a UNION where one member firmly
// dereferences to another (spec §3: "a UNION rejects firmly-related
// members"), e.g. UNION(INT, REF INT): the REF INT member meekly
// derefs to INT, making a CASE-in ambiguous.
func (t *Table) hasFirmlyRelatedMembers(pack []PackItem) bool {
	for i := range pack {
		for j := range pack {
			if i == j {
				continue
			}
			if t.meeklyDerefsTo(pack[i].Mode, pack[j].Mode) {
				return true
			}
		}
	}
	return false
}

func (t *Table) meeklyDerefsTo(from, to arena.Index) bool {
	cur := t.Resolve(from)
	for steps := 0; steps < 16; steps++ {
		if t.Equivalent(cur, to) {
			return steps > 0
		}
		m := t.Get(cur)
		if m.Attribute != Ref {
			return false
		}
		cur = t.Resolve(m.Sub)
	}
	return false
}

// isSubsetUnion reports whether u has at most one member. It does not
// compare u against the other unions in the table, so a union whose
// members all belong to some wider union is not flagged.
func (t *Table) isSubsetUnion(u arena.Index) bool {
	um := t.Get(u)
	return len(um.Pack) <= 1
}

// wellFormedCycle implements the YIN/YANG traversal from spec §3/§9:
// crossing a REF sets a "yin" flag, crossing a PROC with a non-empty
// pack sets "yang"; both are sticky (crossing another REF once yin is
// already set leaves it set) until a ROW/FLEX/STRUCT/UNION resets both
// to false, since the mode now has concrete storage and breaks any
// pending cycle. Ancestors are tracked on a path-local stack, pushed on
// entering a child walk and popped on return, the same discipline
// equivalence.go's postulateStack uses for mode equivalence: a mode
// reached twice on two different branches is an ordinary shared
// reference, not a cycle, and must not be confused with one just
// because it happens to reuse the same (mode, yin, yang) state. Only
// re-entering an ancestor still on the current path means we went all
// the way around a pure-REF or pure-PROC chain without ever reaching
// concrete storage — that's the ill-formed cycle spec §3/§9 describes.
func (t *Table) wellFormedCycle(root arena.Index) bool {
	type state struct {
		idx       arena.Index
		yin, yang bool
	}
	var ancestors []state
	onPath := func(s state) bool {
		for _, a := range ancestors {
			if a == s {
				return true
			}
		}
		return false
	}
	var walk func(idx arena.Index, yin, yang bool) bool
	walk = func(idx arena.Index, yin, yang bool) bool {
		idx = t.Resolve(idx)
		s := state{idx, yin, yang}
		if onPath(s) {
			return !(yin || yang)
		}
		ancestors = append(ancestors, s)
		defer func() { ancestors = ancestors[:len(ancestors)-1] }()
		m := t.Get(idx)
		switch m.Attribute {
		case Ref:
			return walk(m.Sub, true, yang)
		case Proc:
			if len(m.Pack) > 0 {
				return walk(m.Sub, yin, true)
			}
			return walk(m.Sub, false, false)
		case Row, Flex:
			return walk(m.Sub, false, false)
		case Struct, Union:
			for _, p := range m.Pack {
				if !walk(p.Mode, false, false) {
					return false
				}
			}
			return true
		case IndicantMode:
			return true // unresolved indicant: reported separately
		default:
			return true
		}
	}
	return walk(root, false, false)
}
