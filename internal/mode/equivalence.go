package mode

import "a68front/internal/arena"

// postulate is one assumption pushed while proving two modes
// equivalent: "assume p and q are equivalent; does the rest of their
// structure agree?" (spec §4.I, §9: Koster's co-induction).
type postulate struct {
	p, q arena.Index
}

// postulateStack is push/pop disciplined: Equivalent records the stack
// top, pushes its assumption, recurses, and pops back to the recorded
// top regardless of outcome (spec §5).
type postulateStack struct {
	stack []postulate
}

func (s *postulateStack) mark() int { return len(s.stack) }

func (s *postulateStack) push(p, q arena.Index) { s.stack = append(s.stack, postulate{p, q}) }

func (s *postulateStack) popTo(mark int) { s.stack = s.stack[:mark] }

// assumed reports whether {p,q} (in either order) is already on the
// stack, i.e. we are in the middle of proving it and should treat it
// as true to let a cyclic graph terminate (spec §9).
func (s *postulateStack) assumed(p, q arena.Index) bool {
	for _, post := range s.stack {
		if (post.p == p && post.q == q) || (post.p == q && post.q == p) {
			return true
		}
	}
	return false
}

// Equivalent is the program-visible entry point (spec §8: "for all
// modes m, n registered in the mode table, equivalent(m) = n implies
// is_modes_equivalent(m, n) under the co-inductive test with an empty
// postulate set").
func (t *Table) Equivalent(p, q arena.Index) bool {
	ps := &postulateStack{}
	return t.equivalent(p, q, ps)
}

func (t *Table) equivalent(p, q arena.Index, ps *postulateStack) bool {
	p, q = t.Resolve(p), t.Resolve(q)
	if p == q {
		return true
	}
	if ps.assumed(p, q) {
		return true
	}

	pm, qm := t.Get(p), t.Get(q)
	if pm == nil || qm == nil {
		return false
	}
	if pm.Attribute != qm.Attribute {
		return false
	}

	mark := ps.mark()
	ps.push(p, q)
	defer ps.popTo(mark)

	switch pm.Attribute {
	case Standard:
		return pm.Standard == qm.Standard && pm.Dim == qm.Dim
	case IndicantMode:
		// two indicants are equivalent only once both resolve past
		// themselves; callers resolve indicants before calling in, so
		// reaching here with unresolved indicants means distinct modes.
		return false
	case Ref, Flex:
		return t.equivalent(pm.Sub, qm.Sub, ps)
	case Row:
		return pm.Dim == qm.Dim && t.equivalent(pm.Sub, qm.Sub, ps)
	case Proc:
		if !t.equivalent(pm.Sub, qm.Sub, ps) {
			return false
		}
		return t.packEquivalentOrdered(pm.Pack, qm.Pack, ps)
	case Struct:
		return t.structPackEquivalent(pm.Pack, qm.Pack, ps)
	case Union:
		return t.unionCoversEachOther(pm.Pack, qm.Pack, ps)
	case Void, Hip, Undefined, ErrorMode, SeriesMode, StowedMode:
		return true
	default:
		return false
	}
}

// packEquivalentOrdered requires the same length and pairwise
// equivalent modes in order (PROC parameter packs, spec §4.I).
func (t *Table) packEquivalentOrdered(a, b []PackItem, ps *postulateStack) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !t.equivalent(a[i].Mode, b[i].Mode, ps) {
			return false
		}
	}
	return true
}

// structPackEquivalent requires the same length, same field names in
// order, and pairwise equivalent modes (spec §4.I: "two STRUCTs with
// equivalent ordered packs are equivalent").
func (t *Table) structPackEquivalent(a, b []PackItem, ps *postulateStack) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].Field != b[i].Field {
			return false
		}
		if !t.equivalent(a[i].Mode, b[i].Mode, ps) {
			return false
		}
	}
	return true
}

// unionCoversEachOther implements spec §4.I: "two UNIONs are
// equivalent if their member sets mutually cover each other under
// equivalence."
func (t *Table) unionCoversEachOther(a, b []PackItem, ps *postulateStack) bool {
	covers := func(xs, ys []PackItem) bool {
		for _, x := range xs {
			found := false
			for _, y := range ys {
				if t.equivalent(x.Mode, y.Mode, ps) {
					found = true
					break
				}
			}
			if !found {
				return false
			}
		}
		return true
	}
	return covers(a, b) && covers(b, a)
}

// Collapse implements the "matching pair collapses by setting the
// older representative's equivalent to the newer" rule (spec §4.I
// step 4). Caller passes the older (lower Number) mode as `old`.
func (t *Table) Collapse(old, new_ arena.Index) {
	if old == new_ {
		return
	}
	t.Get(old).Equivalent = new_
}

// RunEquivalencer iterates registered modes to a fixed point, the
// iteration spec §4.I, §8 requires: idempotent, and the mode count
// must stabilize across an iteration. It is intentionally O(n^2) per
// pass — acceptable because it is only re-entered until n stops
// changing, and real Algol 68 programs register a small mode table.
func (t *Table) RunEquivalencer() {
	const maxIterations = 64
	for iter := 0; iter < maxIterations; iter++ {
		changed := false
		all := t.Modes.All()
		n := len(all)
		for i := 0; i < n; i++ {
			pi := arena.Index(i)
			if t.Get(pi).Equivalent != arena.None {
				continue
			}
			for j := i + 1; j < n; j++ {
				qi := arena.Index(j)
				if t.Get(qi).Equivalent != arena.None {
					continue
				}
				if t.Get(pi).Attribute != t.Get(qi).Attribute {
					continue
				}
				if t.equivalent(pi, qi, &postulateStack{}) {
					t.Collapse(pi, qi) // older (lower index/Number) -> newer
					changed = true
					break
				}
			}
		}
		if !changed {
			return
		}
	}
}
