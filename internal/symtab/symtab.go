// Package symtab holds the Table (range) and Tag types from spec §3,
// plus the standard-environ-or-not chain-walking helpers phases F, J
// and L need. Grounded on internal/compiler/compiler.go's
// AddConstant-style slot bookkeeping, generalized from one global
// constant pool to one Table per lexical level.
package symtab

import (
	"a68front/internal/arena"
	"golang.org/x/exp/maps"
)

type TagKind int

const (
	IdentifierTag TagKind = iota
	IndicantTag
	LabelTag
	OperatorTag
	PriorityTag
	AnonymousTag
)

type Heap int

const (
	LocHeap Heap = iota
	HeapHeap
)

// ScopeTuple is spec §3's "{ level, transient }".
type ScopeTuple struct {
	Level     int
	Transient bool
}

// PrimalScope is the scope of the outermost (standard-environ) range;
// a generator's HEAP/NEW scope is this level regardless of its
// lexical nesting (spec §4.M).
const PrimalScope = 0

// Tag is spec §3's "{ kind, node, table, mode, priority, heap, scope,
// scope_assigned, body, used, offset, size }".
type Tag struct {
	Kind          TagKind
	Name          string
	Node          arena.Index // defining occurrence
	Table         arena.Index // owning table
	Mode          arena.Index
	Priority      int
	Heap          Heap
	Scope         ScopeTuple
	ScopeAssigned bool
	Body          arena.Index // routine-text body node, for procedure identity declarations
	Used          bool
	Offset        int
	Size          int
	InProc        bool // set when introduced by `PROC f = ...` (spec §3)
}

// Table is spec §3's "Symbol table (range)". Identifiers/indicants/
// labels/operators/priorities/anonymous are tag indices into the
// program-wide tag arena owned by the caller (internal/program),
// mirroring the way the tree package keeps nodes in one arena and
// tables only hold indices into it.
type Table struct {
	Level    int
	Nest     int
	Previous arena.Index // enclosing table, or arena.None for the standard environ
	Outer    arena.Index // enclosing routine's table (may skip serial-clause levels)

	Identifiers []arena.Index
	Indicants   []arena.Index
	Labels      []arena.Index
	Operators   []arena.Index
	Priorities  []arena.Index
	Anonymous   []arena.Index

	Modes []arena.Index

	ApIncrement int
}

// Registry owns the tag arena and the table arena for one Program.
type Registry struct {
	Tags   *arena.Arena[Tag]
	Tables *arena.Arena[Table]
}

func NewRegistry() *Registry {
	return &Registry{Tags: arena.New[Tag](), Tables: arena.New[Table]()}
}

// NewTable opens a new range nested under previous, at previous's
// level+1 (spec §3 invariant: level(previous(t)) < level(t)).
func (r *Registry) NewTable(previous arena.Index, outer arena.Index) arena.Index {
	level := 0
	if previous != arena.None {
		level = r.Tables.Get(previous).Level + 1
	}
	return r.Tables.Alloc(Table{Level: level, Previous: previous, Outer: outer})
}

func (r *Registry) Table(i arena.Index) *Table { return r.Tables.Get(i) }
func (r *Registry) Tag(i arena.Index) *Tag     { return r.Tags.Get(i) }

// Declare appends a tag of kind to the right bucket of table and
// returns its index.
func (r *Registry) Declare(table arena.Index, t Tag) arena.Index {
	idx := r.Tags.Alloc(t)
	tb := r.Table(table)
	switch t.Kind {
	case IdentifierTag:
		tb.Identifiers = append(tb.Identifiers, idx)
	case IndicantTag:
		tb.Indicants = append(tb.Indicants, idx)
	case LabelTag:
		tb.Labels = append(tb.Labels, idx)
	case OperatorTag:
		tb.Operators = append(tb.Operators, idx)
	case PriorityTag:
		tb.Priorities = append(tb.Priorities, idx)
	case AnonymousTag:
		tb.Anonymous = append(tb.Anonymous, idx)
	}
	return idx
}

// FindLocal looks up name of kind declared directly in table (no
// walk to Previous), used by phase F's redeclaration check.
func (r *Registry) FindLocal(table arena.Index, kind TagKind, name string) (arena.Index, bool) {
	tb := r.Table(table)
	var bucket []arena.Index
	switch kind {
	case IdentifierTag:
		bucket = tb.Identifiers
	case IndicantTag:
		bucket = tb.Indicants
	case LabelTag:
		bucket = tb.Labels
	case OperatorTag:
		bucket = tb.Operators
	case PriorityTag:
		bucket = tb.Priorities
	case AnonymousTag:
		bucket = tb.Anonymous
	}
	for _, idx := range bucket {
		if r.Tag(idx).Name == name {
			return idx, true
		}
	}
	return arena.None, false
}

// Find walks table and its Previous chain up to (and including) the
// standard environ, used by phase J to bind applied occurrences.
func (r *Registry) Find(table arena.Index, kind TagKind, name string) (arena.Index, bool) {
	for t := table; t != arena.None; t = r.Table(t).Previous {
		if idx, ok := r.FindLocal(t, kind, name); ok {
			return idx, true
		}
	}
	return arena.None, false
}

// FindAllOperators walks the chain collecting every operator tag named
// name (dyadic operators can be overloaded per operand modes; the
// caller matches packs itself, per spec §4.L).
func (r *Registry) FindAllOperators(table arena.Index, name string) []arena.Index {
	seen := map[arena.Index]bool{}
	var out []arena.Index
	for t := table; t != arena.None; t = r.Table(t).Previous {
		for _, idx := range r.Table(t).Operators {
			if r.Tag(idx).Name == name && !seen[idx] {
				seen[idx] = true
				out = append(out, idx)
			}
		}
	}
	return out
}

// AssignOffsets implements spec §4.J's last step: sum mode_size over
// identifiers, then operators, then anonymous tags, aligned.
func (r *Registry) AssignOffsets(table arena.Index, sizeOf func(mode arena.Index) int, align int) {
	tb := r.Table(table)
	offset := 0
	assign := func(idxs []arena.Index) {
		for _, idx := range idxs {
			t := r.Tag(idx)
			t.Offset = offset
			t.Size = sizeOf(t.Mode)
			offset += t.Size
		}
	}
	assign(tb.Identifiers)
	assign(tb.Operators)
	assign(tb.Anonymous)
	if align > 1 && offset%align != 0 {
		offset += align - offset%align
	}
	tb.ApIncrement = offset
}

// AllNames lists the keys of m, in no particular order; grounded on the
// pack's use of golang.org/x/exp/maps for map-key collection instead of
// a manual loop. No other package of the front end calls it.
func AllNames(m map[string]arena.Index) []string {
	return maps.Keys(m)
}
