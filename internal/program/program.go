// Package program is the top-level driver (spec §5, §9: "collapse
// globals into one record"). A Program owns every arena and registry
// the phases share and sequences phases A through M, stopping at the
// first phase whose error budget is exceeded and returning that as an
// error rather than pressing on with a tree later phases can't trust.
//
// Grounded on spec.md §5/§9's own description of the original's single
// global ABEND-on-budget-exceeded driver loop, reworked as an ordinary
// Go function returning error instead of a long jump.
package program

import (
	"a68front/internal/arena"
	"a68front/internal/bind"
	"a68front/internal/brackets"
	"a68front/internal/check"
	"a68front/internal/diag"
	"a68front/internal/framer"
	"a68front/internal/intern"
	"a68front/internal/lexer"
	"a68front/internal/mode"
	"a68front/internal/prescan"
	"a68front/internal/reduce"
	"a68front/internal/refine"
	"a68front/internal/scope"
	"a68front/internal/source"
	"a68front/internal/stdenv"
	"a68front/internal/symtab"
	"a68front/internal/tree"
	"a68front/internal/victal"
)

// Config mirrors spec §6's Config record: the handful of flags that
// change front-end behavior without changing the grammar.
type Config struct {
	Stropping   source.Stropping
	PortCheck   bool
	TreeListing bool
}

// Program is the single record every phase operates through (spec §9:
// "one record, not a scatter of package-level globals").
type Program struct {
	Config Config

	Source *source.Buffer
	Tree   *tree.Tree
	Tags   *symtab.Registry
	Modes  *mode.Table
	Sink   *diag.Sink
	Interns *intern.Table
	Std    *stdenv.Environ

	Frame *framer.Frame
	Root  arena.Index
}

// New creates an empty Program with every arena/registry allocated and
// the standard environ built, ready for Compile.
func New(cfg Config) *Program {
	p := &Program{
		Config:  cfg,
		Tree:    tree.NewTree(),
		Tags:    symtab.NewRegistry(),
		Modes:   mode.NewTable(),
		Sink:    diag.NewSink(),
		Interns: intern.NewTable(),
	}
	p.Std = stdenv.Build(p.Tags, p.Modes)
	return p
}

// Compile runs phases A-M over src, named filename, using rd to
// resolve any include/refine-reference targets. It returns a
// *diag.PhaseAborted if bracket checking (phase D) left any error, or
// if the error count exceeded diag.MaxErrors after a later phase, or nil if
// every phase completed (the Sink may still carry warnings/portchecks,
// and even isolated errors below budget — callers check
// p.Sink.ErrorCount() before trusting the tree for anything beyond
// diagnostics).
func (p *Program) Compile(src []byte, filename string, rd source.Reader) error {
	buf, err := source.Load(src, filename, p.Config.Stropping, rd)
	if err != nil {
		return diag.WrapInternal(err, "loading source")
	}
	p.Source = buf

	refine.Apply(buf, p.Sink) // phase C

	lx := lexer.NewLexer(p.Tree, p.Interns, p.Sink, p.Config.Stropping)
	head := lx.Scan(buf) // phase B
	tail := lx.Tail()

	if !brackets.Check(p.Tree, p.Sink, head) { // phase D
		return &diag.PhaseAborted{Phase: "brackets"}
	}
	if p.Sink.ErrorCount() > 0 {
		return &diag.PhaseAborted{Phase: "brackets"}
	}

	p.Frame = framer.BuildProgramFrame(p.Tree, p.Tags, p.Std.Table, head, tail) // phase E

	declareFrame(p.Tree, p.Tags, p.Sink, p.Frame) // phase F, recursive
	if p.Sink.ErrorCount() > diag.MaxErrors {
		return &diag.PhaseAborted{Phase: "prescan"}
	}

	rp := reduce.New(p.Tree, p.Tags, p.Sink)
	p.Root = rp.ReduceProgram(p.Frame) // phase G
	if p.Sink.ErrorCount() > diag.MaxErrors {
		return &diag.PhaseAborted{Phase: "reduce"}
	}

	collector := mode.NewCollector(p.Tree, p.Modes, p.Tags, p.Sink)
	collector.CollectProgram(p.Root) // phase H

	p.Modes.RunEquivalencer() // phase I step 1
	p.Modes.ResolveIndicants(func(tag arena.Index) arena.Index {
		if tag == arena.None {
			return arena.None
		}
		return p.Tags.Tag(tag).Mode
	})
	p.Modes.DeriveDerived()
	for _, v := range p.Modes.Validate() {
		p.Sink.Add(diag.Diagnostic{Severity: diag.Error, Message: "mode not well-formed: %s", Args: []interface{}{v.Kind}})
	}

	binder := bind.New(p.Tree, p.Tags, p.Modes, p.Sink)
	binder.BindProgram(p.Root) // phase J step 1
	binder.LinkDeclarationModes(p.Root)
	binder.AssignAllOffsets(func(m arena.Index) int { return modeSize(p.Modes, m) }, 8)

	vc := victal.New(p.Tree, p.Modes, p.Sink)
	vc.Check(p.Root) // phase K
	if p.Sink.ErrorCount() > diag.MaxErrors {
		return &diag.PhaseAborted{Phase: "victal"}
	}

	ck := check.New(p.Tree, p.Modes, p.Sink)
	ck.Infer(p.Root)
	ck.Coerce(p.Root, check.Soid{Mode: p.Std.Void}, check.Strong) // phase L

	sc := scope.New(p.Tree, p.Tags, p.Modes, p.Sink)
	sc.AssignAllScopes()
	sc.Check(p.Root) // phase M

	if p.Sink.ErrorCount() > diag.MaxErrors {
		return &diag.PhaseAborted{Phase: "check"}
	}
	return nil
}

// declareFrame runs prescan.Declare over f's own span then recurses
// into every nested range, since phase F's scanner deliberately jumps
// over (rather than descends into) child frames' interiors.
func declareFrame(t *tree.Tree, tags *symtab.Registry, sink *diag.Sink, f *framer.Frame) {
	prescan.Declare(t, tags, sink, f)
	for _, child := range f.Children {
		declareFrame(t, tags, sink, child)
	}
}

// modeSize is a placeholder layout rule (spec §4.J leaves the actual
// byte-size table to the target backend, which is out of scope here):
// a STRUCT takes the sum of its fields' sizes; every other mode,
// ROW and FLEX included, takes one slot.
func modeSize(t *mode.Table, i arena.Index) int {
	if i == arena.None {
		return 0
	}
	m := t.Get(t.Resolve(i))
	if m == nil {
		return 0
	}
	switch m.Attribute {
	case mode.Struct:
		n := 0
		for _, f := range m.Pack {
			n += modeSize(t, f.Mode)
		}
		return n
	case mode.Row, mode.Flex:
		return 1
	default:
		return 1
	}
}
