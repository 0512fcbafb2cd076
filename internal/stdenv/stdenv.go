// Package stdenv builds the standard environ: the one symtab.Table,
// shared by every Program, that carries INT/REAL/BOOL/.../the standard
// operators/ROWS/SIMPLIN/SIMPLOUT as real tag and mode entries rather
// than special-cased names the checker recognizes by string compare.
// Grounded on spec.md's §6 "the standard-environ symbol table" and
// §4.F/§4.J's assumption that applied occurrences of these names
// resolve exactly like any user declaration.
package stdenv

import (
	"a68front/internal/arena"
	"a68front/internal/mode"
	"a68front/internal/symtab"
)

// Environ bundles the table and the mode indices callers (the
// program driver) need by name instead of re-looking them up.
type Environ struct {
	Table arena.Index

	Int, Real, Complex, Bool, Char, Bits, Bytes, String, Void, Format arena.Index
	LongInt, LongLongInt, LongReal, LongLongReal                      arena.Index
}

// Build allocates the standard environ's table and populates it with
// every indicant/operator/priority/identifier the prelude defines.
func Build(tags *symtab.Registry, modes *mode.Table) *Environ {
	table := tags.NewTable(arena.None, arena.None)
	e := &Environ{Table: table}

	e.Int = modes.Standard(mode.Int, mode.NoLongety)
	e.Real = modes.Standard(mode.Real, mode.NoLongety)
	e.Complex = modes.Standard(mode.Complex, mode.NoLongety)
	e.Bool = modes.Standard(mode.Bool, mode.NoLongety)
	e.Char = modes.Standard(mode.Char, mode.NoLongety)
	e.Bits = modes.Standard(mode.Bits, mode.NoLongety)
	e.Bytes = modes.Standard(mode.Bytes, mode.NoLongety)
	e.String = modes.Standard(mode.StringKind, mode.NoLongety)
	e.Format = modes.Standard(mode.Format, mode.NoLongety)
	e.Void = modes.Void()
	e.LongInt = modes.Standard(mode.Int, mode.LongLongety)
	e.LongLongInt = modes.Standard(mode.Int, mode.LongLongLongety)
	e.LongReal = modes.Standard(mode.Real, mode.LongLongety)
	e.LongLongReal = modes.Standard(mode.Real, mode.LongLongLongety)

	indicants := []struct {
		name string
		mode arena.Index
	}{
		{"INT", e.Int}, {"REAL", e.Real}, {"COMPLEX", e.Complex}, {"BOOL", e.Bool},
		{"CHAR", e.Char}, {"BITS", e.Bits}, {"BYTES", e.Bytes}, {"STRING", e.String},
		{"FORMAT", e.Format}, {"VOID", e.Void},
		{"LONG INT", e.LongInt}, {"LONG LONG INT", e.LongLongInt},
		{"LONG REAL", e.LongReal}, {"LONG LONG REAL", e.LongLongReal},
	}
	for _, ind := range indicants {
		tags.Declare(table, symtab.Tag{Kind: symtab.IndicantTag, Name: ind.name, Mode: ind.mode, Table: table,
			Scope: symtab.ScopeTuple{Level: symtab.PrimalScope}, ScopeAssigned: true})
	}

	declareProc := func(name string, params []arena.Index, result arena.Index) {
		pack := make([]mode.PackItem, len(params))
		for i, p := range params {
			pack[i] = mode.PackItem{Mode: p}
		}
		procMode := modes.MakeProc(arena.None, pack, result)
		tags.Declare(table, symtab.Tag{Kind: symtab.IdentifierTag, Name: name, Mode: procMode, Table: table,
			Scope: symtab.ScopeTuple{Level: symtab.PrimalScope}, ScopeAssigned: true})
	}
	declareProc("read", nil, e.Void)
	declareProc("print", nil, e.Void)
	declareProc("write", nil, e.Void)
	declareProc("newline", nil, e.Void)
	declareProc("abs", []arena.Index{e.Int}, e.Int)
	declareProc("sqrt", []arena.Index{e.Real}, e.Real)
	declareProc("sin", []arena.Index{e.Real}, e.Real)
	declareProc("cos", []arena.Index{e.Real}, e.Real)
	declareProc("exp", []arena.Index{e.Real}, e.Real)
	declareProc("ln", []arena.Index{e.Real}, e.Real)
	declareProc("entier", []arena.Index{e.Real}, e.Int)
	declareProc("round", []arena.Index{e.Real}, e.Int)

	// ROWS/SIMPLIN/SIMPLOUT (spec §6), declared as indicants so user code
	// can name them in a cast. SIMPLIN and SIMPLOUT share one UNION of
	// INT, REAL, BOOL, CHAR and STRING; ROWS is a one-dimensional row of
	// INT, not a union.
	simplinMode := modes.MakeUnion(arena.None, []arena.Index{e.Int, e.Real, e.Bool, e.Char, e.String})
	simploutMode := simplinMode
	rowsMode := modes.MakeRow(1, e.Int)
	tags.Declare(table, symtab.Tag{Kind: symtab.IndicantTag, Name: "SIMPLIN", Mode: simplinMode, Table: table,
		Scope: symtab.ScopeTuple{Level: symtab.PrimalScope}, ScopeAssigned: true})
	tags.Declare(table, symtab.Tag{Kind: symtab.IndicantTag, Name: "SIMPLOUT", Mode: simploutMode, Table: table,
		Scope: symtab.ScopeTuple{Level: symtab.PrimalScope}, ScopeAssigned: true})
	tags.Declare(table, symtab.Tag{Kind: symtab.IndicantTag, Name: "ROWS", Mode: rowsMode, Table: table,
		Scope: symtab.ScopeTuple{Level: symtab.PrimalScope}, ScopeAssigned: true})

	declareOperator := func(name string, lhs, rhs, result arena.Index, prio int) {
		pack := []mode.PackItem{{Mode: lhs}}
		if rhs != arena.None {
			pack = append(pack, mode.PackItem{Mode: rhs})
		}
		procMode := modes.MakeProc(arena.None, pack, result)
		tags.Declare(table, symtab.Tag{Kind: symtab.OperatorTag, Name: name, Mode: procMode, Priority: prio, Table: table,
			Scope: symtab.ScopeTuple{Level: symtab.PrimalScope}, ScopeAssigned: true})
	}
	for _, name := range []string{"+", "-"} {
		declareOperator(name, e.Int, e.Int, e.Int, 6)
		declareOperator(name, e.Real, e.Real, e.Real, 6)
		declareOperator(name, e.Int, arena.None, e.Int, 6)
		declareOperator(name, e.Real, arena.None, e.Real, 6)
	}
	declareOperator("*", e.Int, e.Int, e.Int, 7)
	declareOperator("*", e.Real, e.Real, e.Real, 7)
	declareOperator("/", e.Real, e.Real, e.Real, 7)
	declareOperator("%", e.Int, e.Int, e.Int, 7)
	declareOperator("%*", e.Int, e.Int, e.Int, 7)
	declareOperator("**", e.Int, e.Int, e.Int, 8)
	declareOperator("**", e.Real, e.Int, e.Real, 8)
	for _, name := range []string{"=", "/=", "<", "<=", ">", ">="} {
		declareOperator(name, e.Int, e.Int, e.Bool, 5)
		declareOperator(name, e.Real, e.Real, e.Bool, 5)
	}
	declareOperator("AND", e.Bool, e.Bool, e.Bool, 2)
	declareOperator("OR", e.Bool, e.Bool, e.Bool, 1)
	declareOperator("NOT", e.Bool, arena.None, e.Bool, 0)

	priorities := map[string]int{
		"+": 6, "-": 6, "*": 7, "/": 7, "%": 7, "%*": 7, "**": 8,
		"=": 5, "/=": 5, "<": 5, "<=": 5, ">": 5, ">=": 5, "AND": 2, "OR": 1,
	}
	for name, prio := range priorities {
		tags.Declare(table, symtab.Tag{Kind: symtab.PriorityTag, Name: name, Priority: prio, Table: table,
			Scope: symtab.ScopeTuple{Level: symtab.PrimalScope}, ScopeAssigned: true})
	}

	return e
}
