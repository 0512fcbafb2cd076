// Package refine implements phase C (spec §4.C): textual refinement
// splicing. A refinement names a block of source with a
// `PR refine name PR ... PR end name PR` bracket pair placed anywhere
// in the program; every occurrence of a bare `PR name PR` reference is
// replaced by a copy of the named block's lines, and the refinement's own
// bracket lines are deleted from the final chain. A name defined but
// never referenced, or referenced but never defined, is a diagnostic,
// not a panic — later phases must still see a well-formed (if smaller)
// token stream.
//
// No direct teacher analogue (sentra has no refinement-style textual
// splice); grounded on the *shape* of internal/module.ModuleLoader (a
// name -> definition map with apply-once bookkeeping), repurposed from
// module caching to refinement splicing.
package refine

import (
	"strings"

	"a68front/internal/diag"
	"a68front/internal/source"
)

type block struct {
	name  string
	lines []*source.Line
	used  bool
}

// Loader mirrors internal/module.ModuleLoader's cache-map shape: a name
// keyed store of already-resolved definitions with apply-once
// bookkeeping, here keyed by refinement name instead of import path.
type Loader struct {
	defs map[string]*block
	sink *diag.Sink
}

func NewLoader(sink *diag.Sink) *Loader {
	return &Loader{defs: map[string]*block{}, sink: sink}
}

func findBracket(text, keyword string) (name string, ok bool) {
	t := strings.TrimSpace(text)
	for _, open := range []string{"PR", "PRAGMAT"} {
		if !strings.HasPrefix(t, open) {
			continue
		}
		rest := strings.TrimSpace(strings.TrimPrefix(t, open))
		if !strings.HasPrefix(rest, keyword) {
			continue
		}
		rest = strings.TrimSpace(strings.TrimPrefix(rest, keyword))
		for _, close := range []string{"PRAGMAT", "PR"} {
			if strings.HasSuffix(rest, close) {
				rest = strings.TrimSpace(strings.TrimSuffix(rest, close))
				if rest != "" {
					return rest, true
				}
			}
		}
	}
	return "", false
}

func findReference(text string) (name string, ok bool) {
	t := strings.TrimSpace(text)
	for _, open := range []string{"PR", "PRAGMAT"} {
		if !strings.HasPrefix(t, open) {
			continue
		}
		rest := strings.TrimSpace(strings.TrimPrefix(t, open))
		for _, close := range []string{"PRAGMAT", "PR"} {
			if strings.HasSuffix(rest, close) {
				cand := strings.TrimSpace(strings.TrimSuffix(rest, close))
				if cand != "" && !strings.Contains(cand, " ") {
					return cand, true
				}
			}
		}
	}
	return "", false
}

// Apply scans buf for `PR refine NAME PR ... PR end NAME PR` bracket
// pairs, removes them from the chain, then replaces every bare
// `PR NAME PR` reference with a copy of that refinement's captured
// lines. A refinement referenced more than once is spliced at each
// reference, and the repeat is not reported.
func Apply(buf *source.Buffer, sink *diag.Sink) {
	l := NewLoader(sink)
	l.collect(buf)
	l.splice(buf)
}

func (l *Loader) collect(buf *source.Buffer) {
	var open *block
	var head, tail *source.Line
	for ln := buf.Head; ln != nil; {
		next := ln.Next
		if open == nil {
			if name, ok := findBracket(ln.Text, "refine"); ok {
				open = &block{name: name}
				head, tail = ln, ln
				ln = next
				continue
			}
		} else {
			if endName, ok := findBracket(ln.Text, "end"); ok && endName == open.name {
				tail = ln
				l.defs[open.name] = open
				removeRange(buf, head, tail)
				open = nil
				ln = next
				continue
			}
			open.lines = append(open.lines, ln)
		}
		ln = next
	}
}

func removeRange(buf *source.Buffer, head, tail *source.Line) {
	before, after := head.Previous, tail.Next
	if before != nil {
		before.Next = after
	} else {
		buf.Head = after
	}
	if after != nil {
		after.Previous = before
	} else {
		buf.Tail = before
	}
}

func (l *Loader) splice(buf *source.Buffer) {
	for ln := buf.Head; ln != nil; {
		next := ln.Next
		if name, ok := findReference(ln.Text); ok {
			if def, found := l.defs[name]; found {
				def.used = true
				spliceIn(buf, ln, def.lines)
				removeRange(buf, ln, ln)
			} else if l.sink != nil {
				l.sink.Add(diag.Diagnostic{Severity: diag.Error, File: ln.Filename, Line: ln.LineNumber,
					Message: "reference to undefined refinement %q", Args: []interface{}{name}})
			}
		}
		ln = next
	}
	if l.sink != nil {
		for name, b := range l.defs {
			if !b.used {
				l.sink.Add(diag.Diagnostic{Severity: diag.Warning, File: "", Line: 0,
					Message: "refinement %q is defined but never used", Args: []interface{}{name}})
			}
		}
	}
}

// spliceIn inserts a fresh copy of lines after marker, so the same
// refinement body can be spliced at more than one reference site
// without the two copies sharing Line pointers.
func spliceIn(buf *source.Buffer, marker *source.Line, lines []*source.Line) {
	if len(lines) == 0 {
		return
	}
	cur := marker
	for _, src := range lines {
		cp := &source.Line{Text: src.Text, Filename: src.Filename, LineNumber: src.LineNumber, PrintStatus: src.PrintStatus}
		cp.Previous = cur
		cp.Next = cur.Next
		if cur.Next != nil {
			cur.Next.Previous = cp
		} else {
			buf.Tail = cp
		}
		cur.Next = cp
		cur = cp
	}
}
