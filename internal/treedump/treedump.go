// Package treedump renders the annotated syntax tree phase L leaves
// behind, for the CLI's `tree` command; program.Config's TreeListing
// field is not read by anything.
// Grounded on github.com/kr/pretty's %# formatter and
// github.com/kr/text's Indent, already pulled in transitively by the
// pack and promoted here to a direct dependency.
package treedump

import (
	"fmt"
	"strings"

	"github.com/kr/pretty"
	"github.com/kr/text"

	"a68front/internal/arena"
	"a68front/internal/mode"
	"a68front/internal/symtab"
	"a68front/internal/tree"
)

// Options controls how much annotation detail Sprint includes per node.
type Options struct {
	ShowModes  bool
	ShowTags   bool
	ShowStatus bool
}

// Sprint renders the subtree rooted at i as an indented listing, one
// line per node, annotated per opts.
func Sprint(t *tree.Tree, modes *mode.Table, tags *symtab.Registry, i arena.Index, opts Options) string {
	var b strings.Builder
	sprintNode(&b, t, modes, tags, i, 0, opts)
	return b.String()
}

func sprintNode(b *strings.Builder, t *tree.Tree, modes *mode.Table, tags *symtab.Registry, i arena.Index, depth int, opts Options) {
	if i == arena.None {
		return
	}
	n := t.Get(i)
	line := fmt.Sprintf("%s", n.Attribute)
	if n.Spelling != "" {
		line += fmt.Sprintf(" %q", n.Spelling)
	}
	if opts.ShowModes && n.Mode != arena.None {
		line += " : " + modeName(modes, n.Mode)
	}
	if opts.ShowTags && n.Tag != arena.None {
		line += fmt.Sprintf(" [tag %s]", tags.Tag(n.Tag).Name)
	}
	if opts.ShowStatus && n.Status != 0 {
		line += fmt.Sprintf(" %# v", pretty.Formatter(n.Status))
	}
	b.WriteString(text.Indent(line, strings.Repeat("  ", depth)))
	b.WriteByte('\n')
	for c := n.Sub; c != arena.None; c = t.Get(c).Next {
		sprintNode(b, t, modes, tags, c, depth+1, opts)
	}
}

// modeName renders a mode compactly enough for a one-line annotation
// (a full mode-equation printer belongs to a listing pass this front
// end does not implement; spec.md keeps cosmetics out of scope).
func modeName(modes *mode.Table, i arena.Index) string {
	m := modes.Get(modes.Resolve(i))
	if m == nil {
		return "?"
	}
	switch m.Attribute {
	case mode.Standard:
		return longety(m.Dim) + standardName(m.Standard)
	case mode.Ref:
		return "REF " + modeName(modes, m.Sub)
	case mode.Flex:
		return "FLEX " + modeName(modes, m.Sub)
	case mode.Row:
		return fmt.Sprintf("[%s]%s", strings.Repeat(",", m.Dim-1), modeName(modes, m.Sub))
	case mode.Proc:
		return "PROC " + modeName(modes, m.Sub)
	case mode.Struct:
		return "STRUCT(...)"
	case mode.Union:
		return "UNION(...)"
	case mode.Void:
		return "VOID"
	case mode.Hip:
		return "HIP"
	case mode.Undefined:
		return "UNDEFINED"
	case mode.ErrorMode:
		return "ERROR"
	case mode.IndicantMode:
		return "INDICANT"
	default:
		return "?"
	}
}

func longety(dim int) string {
	switch dim {
	case mode.ShortLongety:
		return "SHORT "
	case mode.LongLongety:
		return "LONG "
	case mode.LongLongLongety:
		return "LONG LONG "
	default:
		return ""
	}
}

func standardName(k mode.StandardKind) string {
	switch k {
	case mode.Int:
		return "INT"
	case mode.Real:
		return "REAL"
	case mode.Complex:
		return "COMPLEX"
	case mode.Bool:
		return "BOOL"
	case mode.Char:
		return "CHAR"
	case mode.Bits:
		return "BITS"
	case mode.Bytes:
		return "BYTES"
	case mode.StringKind:
		return "STRING"
	case mode.Format:
		return "FORMAT"
	default:
		return "?"
	}
}
