package mode

import "a68front/internal/arena"

// TagModeLookup lets the mode package ask "what mode does this
// indicant tag define" without importing internal/symtab (which has
// no reason to know about modes), breaking what would otherwise be an
// import cycle between the two packages' natural dependency direction.
type TagModeLookup func(tag arena.Index) arena.Index

// ResolveIndicants implements spec §4.I step 3: "Resolve every
// INDICANT to its declarer's mode by repeatedly following equivalent."
func (t *Table) ResolveIndicants(lookup TagModeLookup) {
	all := t.Modes.All()
	for i := range all {
		idx := arena.Index(i)
		m := t.Get(idx)
		if m.Attribute != IndicantMode || m.Equivalent != arena.None {
			continue
		}
		target := lookup(m.DefiningTag)
		if target == arena.None {
			continue
		}
		visited := map[arena.Index]bool{idx: true}
		for {
			target = t.Resolve(target)
			if visited[target] {
				// a MODE cycle with no concrete base (MODE A = B; MODE B = A)
				m.Equivalent = t.ErrorMode()
				break
			}
			visited[target] = true
			tm := t.Get(target)
			if tm.Attribute == IndicantMode && tm.DefiningTag != arena.None {
				next := lookup(tm.DefiningTag)
				if next == arena.None || next == target {
					m.Equivalent = target
					break
				}
				target = next
				continue
			}
			m.Equivalent = target
			break
		}
	}
}

// DeriveDerived computes deflexed/name/multiple/rowed per spec §4.I
// step 2, run after indicant resolution so the structural shape under a
// FLEX/REF/ROW is already visible. Trim is not computed; every mode's
// Trim field is left as it was.
func (t *Table) DeriveDerived() {
	all := t.Modes.All()
	n := len(all)
	for i := 0; i < n; i++ {
		idx := arena.Index(i)
		m := t.Get(idx)
		if m.Equivalent != arena.None {
			continue
		}
		switch m.Attribute {
		case Flex:
			// FLEX ROW x: deflexed(FLEX ROW x) = ROW x
			sub := t.Get(t.Resolve(m.Sub))
			if sub.Attribute == Row {
				deflexed := t.MakeRow(sub.Dim, sub.Sub)
				m = t.Get(idx) // MakeRow may have grown the arena
				m.Deflexed = deflexed
			}
		case Row:
			m.Deflexed = idx
			rowed := t.MakeRow(m.Dim+1, m.Sub)
			m = t.Get(idx)
			m.Rowed = rowed
			if t.Get(t.Resolve(m.Sub)).Attribute == Struct {
				m.Multiple = idx // ROW-of-STRUCT: multiple is its own inverse marker
			}
		case Ref:
			sub := t.Resolve(m.Sub)
			subM := t.Get(sub)
			switch subM.Attribute {
			case Struct:
				m.Name = idx // REF STRUCT(...): name(m) = this REF itself carries field name() semantics
			case Row, Flex:
				deflexed := t.MakeRef(subM.Deflexed)
				m = t.Get(idx)
				m.Deflexed = deflexed
			}
		case Standard, Union, Proc, Struct, Void, Hip, Undefined, ErrorMode, SeriesMode, StowedMode, IndicantMode:
			// no FLEX/REF/ROW derivation applies directly to these.
		}
		m.HasRows = computeHasRows(t, idx, map[arena.Index]bool{})
	}
}

func computeHasRows(t *Table, idx arena.Index, visiting map[arena.Index]bool) bool {
	idx = t.Resolve(idx)
	if visiting[idx] {
		return false
	}
	visiting[idx] = true
	m := t.Get(idx)
	switch m.Attribute {
	case Row, Flex:
		return true
	case Ref:
		return computeHasRows(t, m.Sub, visiting)
	case Struct, Union:
		for _, p := range m.Pack {
			if computeHasRows(t, p.Mode, visiting) {
				return true
			}
		}
		return false
	case Proc:
		return false
	default:
		return false
	}
}
