package treedump

import (
	"strings"
	"testing"

	"a68front/internal/arena"
	"a68front/internal/mode"
	"a68front/internal/symtab"
	"a68front/internal/tree"
)

func TestSprintIncludesAttributeAndSpelling(t *testing.T) {
	tr := tree.NewTree()
	modes := mode.NewTable()
	tags := symtab.NewRegistry()

	id := tr.New(tree.Identifier, "x", 1, 1, "t.a68")

	got := Sprint(tr, modes, tags, id, Options{})
	if !strings.Contains(got, "IDENTIFIER") || !strings.Contains(got, `"x"`) {
		t.Fatalf("Sprint() = %q, want it to mention IDENTIFIER and \"x\"", got)
	}
}

func TestSprintIndentsChildrenOneLevelDeeper(t *testing.T) {
	tr := tree.NewTree()
	modes := mode.NewTable()
	tags := symtab.NewRegistry()

	a := tr.New(tree.Identifier, "a", 1, 1, "t.a68")
	b := tr.New(tree.Identifier, "b", 1, 3, "t.a68")
	tr.AppendSibling(a, b)
	serial := tr.MakeSub(tree.SerialClause, 1, 1, "t.a68", a, b)

	got := Sprint(tr, modes, tags, serial, Options{})
	lines := strings.Split(strings.TrimRight(got, "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("got %d lines, want 3 (SerialClause + 2 children)", len(lines))
	}
	if strings.HasPrefix(lines[0], " ") {
		t.Errorf("root line should not be indented: %q", lines[0])
	}
	if !strings.HasPrefix(lines[1], "  ") || !strings.HasPrefix(lines[2], "  ") {
		t.Errorf("child lines should be indented two spaces: %q, %q", lines[1], lines[2])
	}
}

func TestSprintShowsModeWhenRequested(t *testing.T) {
	tr := tree.NewTree()
	modes := mode.NewTable()
	tags := symtab.NewRegistry()

	id := tr.New(tree.Identifier, "x", 1, 1, "t.a68")
	tr.Get(id).Mode = modes.Standard(mode.Int, mode.NoLongety)

	got := Sprint(tr, modes, tags, id, Options{ShowModes: true})
	if !strings.Contains(got, "INT") {
		t.Errorf("Sprint with ShowModes = %q, want it to mention INT", got)
	}
}

func TestSprintOmitsModeWhenNotRequested(t *testing.T) {
	tr := tree.NewTree()
	modes := mode.NewTable()
	tags := symtab.NewRegistry()

	id := tr.New(tree.Identifier, "x", 1, 1, "t.a68")
	tr.Get(id).Mode = modes.Standard(mode.Int, mode.NoLongety)

	got := Sprint(tr, modes, tags, id, Options{})
	if strings.Contains(got, "INT") {
		t.Errorf("Sprint without ShowModes unexpectedly mentioned INT: %q", got)
	}
}

func TestSprintShowsTagNameWhenRequested(t *testing.T) {
	tr := tree.NewTree()
	modes := mode.NewTable()
	tags := symtab.NewRegistry()
	table := tags.NewTable(arena.None, arena.None)
	tagIdx := tags.Declare(table, symtab.Tag{Kind: symtab.IdentifierTag, Name: "counter", Table: table})

	id := tr.New(tree.Identifier, "counter", 1, 1, "t.a68")
	tr.Get(id).Tag = tagIdx

	got := Sprint(tr, modes, tags, id, Options{ShowTags: true})
	if !strings.Contains(got, "counter") {
		t.Errorf("Sprint with ShowTags = %q, want it to mention the tag name", got)
	}
}

func TestModeNameRendersRefOverStandardMode(t *testing.T) {
	modes := mode.NewTable()
	refMode := modes.MakeRef(modes.Standard(mode.Int, mode.NoLongety))

	got := modeName(modes, refMode)
	if got != "REF INT" {
		t.Errorf("modeName(REF INT) = %q, want %q", got, "REF INT")
	}
}

func TestModeNameRendersRowWithDimensionCommas(t *testing.T) {
	modes := mode.NewTable()
	rowMode := modes.MakeRow(3, modes.Standard(mode.Real, mode.NoLongety))

	got := modeName(modes, rowMode)
	if got != "[,,]REAL" {
		t.Errorf("modeName(ROW of dim 3) = %q, want %q", got, "[,,]REAL")
	}
}

func TestModeNameRendersLongetyPrefix(t *testing.T) {
	modes := mode.NewTable()
	longInt := modes.Standard(mode.Int, mode.LongLongety)

	got := modeName(modes, longInt)
	if got != "LONG INT" {
		t.Errorf("modeName(LONG INT) = %q, want %q", got, "LONG INT")
	}
}

func TestSprintIgnoresArenaNoneRoot(t *testing.T) {
	tr := tree.NewTree()
	modes := mode.NewTable()
	tags := symtab.NewRegistry()

	got := Sprint(tr, modes, tags, arena.None, Options{})
	if got != "" {
		t.Errorf("Sprint(arena.None) = %q, want empty string", got)
	}
}
