package brackets

import (
	"testing"

	"a68front/internal/arena"
	"a68front/internal/diag"
	"a68front/internal/tree"
)

func buildChain(tr *tree.Tree, words ...string) (head, tail arena.Index) {
	prev := arena.None
	for i, w := range words {
		idx := tr.New(tree.Keyword, w, 1, i+1, "t.a68")
		if prev != arena.None {
			tr.AppendSibling(prev, idx)
		} else {
			head = idx
		}
		prev = idx
	}
	return head, prev
}

func TestCheckAcceptsBalancedNesting(t *testing.T) {
	tr := tree.NewTree()
	sink := diag.NewSink()
	head, _ := buildChain(tr, "BEGIN", "IF", "FI", "END")

	if !Check(tr, sink, head) {
		t.Errorf("Check() = false for balanced nesting, want true")
	}
	if sink.ErrorCount() != 0 {
		t.Errorf("expected no diagnostics, got %d", sink.ErrorCount())
	}
}

func TestCheckRejectsUnclosedOpener(t *testing.T) {
	tr := tree.NewTree()
	sink := diag.NewSink()
	head, _ := buildChain(tr, "BEGIN", "IF", "FI")

	if Check(tr, sink, head) {
		t.Errorf("Check() = true for an unclosed BEGIN, want false")
	}
	if sink.ErrorCount() == 0 {
		t.Errorf("expected at least one diagnostic for the unclosed BEGIN")
	}
}

func TestCheckRejectsMismatchedCloser(t *testing.T) {
	tr := tree.NewTree()
	sink := diag.NewSink()
	head, _ := buildChain(tr, "IF", "OD")

	if Check(tr, sink, head) {
		t.Errorf("Check() = true for IF closed by OD, want false")
	}
}

func TestCheckAcceptsParCloseByEnd(t *testing.T) {
	tr := tree.NewTree()
	sink := diag.NewSink()
	head, _ := buildChain(tr, "PAR", "END")

	if !Check(tr, sink, head) {
		t.Errorf("Check() = false for PAR...END, want true")
	}
}
