// Package mode is phases H and I (spec §4.H, §4.I, §3 "Mode"): mode
// collection from declarers/routine texts/operator plans/denotations,
// and the co-inductive structural equivalencer that makes recursively
// defined modes (spec §9: "MODE L = STRUCT (INT v, REF L n)") tractable.
//
// The mode record shape is grounded on the teacher's tagged-value idiom
// (internal/vm's runtime value kinds), but the equivalence algorithm
// itself has no teacher analogue — it is built directly from spec.md
// §4.I/§9's description of Koster's postulate-stack technique, which
// no example repo implements.
package mode

import (
	"a68front/internal/arena"
)

type Attribute int

const (
	Standard Attribute = iota
	IndicantMode
	Ref
	Flex
	Row
	Struct
	Union
	Proc
	SeriesMode
	StowedMode
	Void
	Hip
	Undefined
	ErrorMode
)

func (a Attribute) String() string {
	switch a {
	case Standard:
		return "STANDARD"
	case IndicantMode:
		return "INDICANT"
	case Ref:
		return "REF"
	case Flex:
		return "FLEX"
	case Row:
		return "ROW"
	case Struct:
		return "STRUCT"
	case Union:
		return "UNION"
	case Proc:
		return "PROC"
	case SeriesMode:
		return "SERIES_MODE"
	case StowedMode:
		return "STOWED_MODE"
	case Void:
		return "VOID"
	case Hip:
		return "HIP"
	case Undefined:
		return "UNDEFINED"
	case ErrorMode:
		return "ERROR"
	default:
		return "?"
	}
}

// Standard-mode longety, spec §3: "Attribute is one of: STANDARD (with
// dim = longety ∈ [−1, +2])".
const (
	ShortLongety       = -1
	NoLongety          = 0
	LongLongety        = 1
	LongLongLongety    = 2
)

// Names of the base standard modes, indexed by a StandardKind.
type StandardKind int

const (
	Int StandardKind = iota
	Real
	Complex
	Bool
	Char
	Bits
	Bytes
	StringKind
	Format
)

// PackItem is spec §3's "(mode, optional field name, defining node)".
type PackItem struct {
	Mode  arena.Index
	Field string // "" if positional (PROC/OP parameters, UNION members)
	Node  arena.Index
}

// Mode is spec §3's "Mode" record.
type Mode struct {
	Attribute Attribute
	Dim       int // longety for Standard; number of dimensions for Row
	Standard  StandardKind
	Node      arena.Index // defining/using node, for diagnostics
	Sub       arena.Index // REF/FLEX/ROW/PROC result's operand mode
	Pack      []PackItem

	Equivalent arena.Index // surviving representative, arena.None if this mode is canonical

	Slice     arena.Index
	Deflexed  arena.Index
	Name      arena.Index
	Multiple  arena.Index
	Rowed     arena.Index
	Trim      arena.Index

	Use      bool
	Size     int
	HasRows  bool
	Derivate bool
	Number   int

	// DefiningTag is set only on IndicantMode entries: the symtab tag
	// index of the indicant this use refers to, resolved to the tag's
	// own Mode field by ResolveIndicants (spec §4.I step 3).
	DefiningTag arena.Index
}

// Table owns the mode arena for one Program and the shallow
// registration cache (spec §9: "never attempt to memoize equivalence
// by hashing structurally" — this cache only dedups by comparing
// already-registered sub-mode *indices*, never by recursing into their
// structure, so it is safe even when sub eventually cycles back here).
type Table struct {
	Modes *arena.Arena[Mode]

	refCache    map[arena.Index]arena.Index
	flexCache   map[arena.Index]arena.Index
	rowCache    map[rowKey]arena.Index
	stdCache    map[stdKey]arena.Index
	voidIdx     arena.Index
	hipIdx      arena.Index
	errorIdx    arena.Index
	undefinedIdx arena.Index

	nextNumber int
}

type rowKey struct {
	dim int
	sub arena.Index
}

type stdKey struct {
	kind StandardKind
	dim  int
}

func NewTable() *Table {
	t := &Table{
		Modes:     arena.New[Mode](),
		refCache:  map[arena.Index]arena.Index{},
		flexCache: map[arena.Index]arena.Index{},
		rowCache:  map[rowKey]arena.Index{},
		stdCache:  map[stdKey]arena.Index{},
	}
	t.voidIdx = t.alloc(Mode{Attribute: Void})
	t.hipIdx = t.alloc(Mode{Attribute: Hip})
	t.errorIdx = t.alloc(Mode{Attribute: ErrorMode})
	t.undefinedIdx = t.alloc(Mode{Attribute: Undefined})
	return t
}

// alloc is the sole entry point into t.Modes: every Mode starts out
// canonical (Equivalent unset) regardless of what the caller's literal
// happened to leave in that field, since arena.Index's zero value (0)
// is itself a valid index and not the arena.None sentinel Resolve
// checks for.
func (t *Table) alloc(m Mode) arena.Index {
	m.Number = t.nextNumber
	t.nextNumber++
	m.Equivalent = arena.None
	return t.Modes.Alloc(m)
}

func (t *Table) Get(i arena.Index) *Mode { return t.Modes.Get(i) }

func (t *Table) Void() arena.Index       { return t.voidIdx }
func (t *Table) Hip() arena.Index        { return t.hipIdx }
func (t *Table) ErrorMode() arena.Index  { return t.errorIdx }
func (t *Table) Undefined() arena.Index  { return t.undefinedIdx }

// Resolve follows Equivalent links to the current representative
// (spec §3: "equivalent points to the surviving representative").
func (t *Table) Resolve(i arena.Index) arena.Index {
	for {
		m := t.Get(i)
		if m == nil || m.Equivalent == arena.None {
			return i
		}
		i = m.Equivalent
	}
}

func (t *Table) Standard(kind StandardKind, dim int) arena.Index {
	k := stdKey{kind, dim}
	if i, ok := t.stdCache[k]; ok {
		return i
	}
	i := t.alloc(Mode{Attribute: Standard, Standard: kind, Dim: dim})
	t.stdCache[k] = i
	return i
}

func (t *Table) MakeRef(sub arena.Index) arena.Index {
	sub = t.Resolve(sub)
	if i, ok := t.refCache[sub]; ok {
		return i
	}
	i := t.alloc(Mode{Attribute: Ref, Sub: sub})
	t.refCache[sub] = i
	return i
}

func (t *Table) MakeFlex(sub arena.Index) arena.Index {
	sub = t.Resolve(sub)
	if i, ok := t.flexCache[sub]; ok {
		return i
	}
	i := t.alloc(Mode{Attribute: Flex, Sub: sub})
	t.flexCache[sub] = i
	return i
}

func (t *Table) MakeRow(dim int, sub arena.Index) arena.Index {
	sub = t.Resolve(sub)
	k := rowKey{dim, sub}
	if i, ok := t.rowCache[k]; ok {
		return i
	}
	i := t.alloc(Mode{Attribute: Row, Dim: dim, Sub: sub})
	t.rowCache[k] = i
	return i
}

func (t *Table) MakeStruct(node arena.Index, pack []PackItem) arena.Index {
	return t.alloc(Mode{Attribute: Struct, Node: node, Pack: pack})
}

func (t *Table) MakeProc(node arena.Index, pack []PackItem, result arena.Index) arena.Index {
	return t.alloc(Mode{Attribute: Proc, Node: node, Pack: pack, Sub: t.Resolve(result)})
}

func (t *Table) MakeIndicant(node arena.Index, definingTag arena.Index) arena.Index {
	return t.alloc(Mode{Attribute: IndicantMode, Node: node, Sub: arena.None, DefiningTag: definingTag})
}

func (t *Table) MakeSeries(pack []PackItem) arena.Index {
	return t.alloc(Mode{Attribute: SeriesMode, Pack: pack})
}

func (t *Table) MakeStowed(pack []PackItem) arena.Index {
	return t.alloc(Mode{Attribute: StowedMode, Pack: pack})
}

// MakeUnion absorbs and contracts members per spec §3: "UNION packs
// are absorbed (no UNION inside UNION) and contracted (no duplicate
// members); a UNION with one member is replaced by that member."
func (t *Table) MakeUnion(node arena.Index, members []arena.Index) arena.Index {
	flat := t.absorbUnion(members)
	flat = t.contractUnion(flat)
	if len(flat) == 1 {
		return flat[0]
	}
	pack := make([]PackItem, len(flat))
	for i, m := range flat {
		pack[i] = PackItem{Mode: m}
	}
	return t.alloc(Mode{Attribute: Union, Node: node, Pack: pack})
}

func (t *Table) absorbUnion(members []arena.Index) []arena.Index {
	var out []arena.Index
	for _, m := range members {
		rm := t.Resolve(m)
		mm := t.Get(rm)
		if mm != nil && mm.Attribute == Union {
			sub := make([]arena.Index, len(mm.Pack))
			for i, p := range mm.Pack {
				sub[i] = p.Mode
			}
			out = append(out, t.absorbUnion(sub)...)
		} else {
			out = append(out, rm)
		}
	}
	return out
}

func (t *Table) contractUnion(members []arena.Index) []arena.Index {
	var out []arena.Index
	for _, m := range members {
		dup := false
		for _, seen := range out {
			if t.Equivalent(m, seen) {
				dup = true
				break
			}
		}
		if !dup {
			out = append(out, m)
		}
	}
	return out
}
