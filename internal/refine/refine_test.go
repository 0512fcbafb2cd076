package refine

import (
	"testing"

	"a68front/internal/diag"
	"a68front/internal/source"
)

func buildBuffer(lines ...string) *source.Buffer {
	buf := source.NewBuffer(source.UpperStropping)
	var prev *source.Line
	for i, text := range lines {
		l := &source.Line{Text: text, Filename: "t.a68", LineNumber: i + 1, PrintStatus: source.ToPrint}
		if prev == nil {
			buf.Head = l
		} else {
			prev.Next = l
			l.Previous = prev
		}
		buf.Tail = l
		prev = l
	}
	return buf
}

func texts(buf *source.Buffer) []string {
	var out []string
	for l := buf.Head; l != nil; l = l.Next {
		out = append(out, l.Text)
	}
	return out
}

func TestApplySplicesReferenceWithDefinitionBody(t *testing.T) {
	buf := buildBuffer(
		"PR refine greet PR",
		"print(\"hi\")",
		"PR end greet PR",
		"PR greet PR",
	)
	sink := diag.NewSink()
	Apply(buf, sink)

	got := texts(buf)
	want := []string{`print("hi")`}
	if len(got) != len(want) {
		t.Fatalf("got %d lines %v, want %d lines %v", len(got), got, len(want), want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("line %d = %q, want %q", i, got[i], want[i])
		}
	}
	if sink.ErrorCount() != 0 {
		t.Errorf("unexpected errors: %d", sink.ErrorCount())
	}
}

func TestApplyAllowsMultipleReferencesToSameRefinement(t *testing.T) {
	buf := buildBuffer(
		"PR refine bit PR",
		"x",
		"PR end bit PR",
		"PR bit PR",
		"PR bit PR",
	)
	sink := diag.NewSink()
	Apply(buf, sink)

	got := texts(buf)
	if len(got) != 2 || got[0] != "x" || got[1] != "x" {
		t.Fatalf("got %v, want two independent copies of [x]", got)
	}
}

func TestApplyReportsUndefinedReference(t *testing.T) {
	buf := buildBuffer("PR nosuch PR")
	sink := diag.NewSink()
	Apply(buf, sink)

	if sink.ErrorCount() == 0 {
		t.Errorf("expected an error for a reference to an undefined refinement")
	}
}

func TestApplyWarnsOnUnusedRefinement(t *testing.T) {
	buf := buildBuffer(
		"PR refine unused PR",
		"x",
		"PR end unused PR",
	)
	sink := diag.NewSink()
	Apply(buf, sink)

	if sink.ErrorCount() != 0 {
		t.Errorf("an unused refinement should warn, not error")
	}
	if len(texts(buf)) != 0 {
		t.Errorf("refinement bracket lines should be removed from the chain regardless of use")
	}
}
