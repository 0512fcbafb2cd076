// Package source implements phase A (spec §4.A): it turns raw bytes
// into a doubly-linked chain of Lines, folding backslash-continued
// lines, wrapping the chain in a stropping-appropriate prelude and
// postlude, and splicing include/read pragmats in place.
//
// Grounded on internal/module/module.go's file-reading and cache-map
// idiom (ioutil.ReadFile, a map keyed by resolved identity), adapted
// from "cache a compiled module" to "never re-splice the same
// include".
package source

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/crypto/blake2b"
)

// Stropping selects how bold words are recognized by the lexer
// (spec §6 Config.Stropping).
type Stropping int

const (
	UpperStropping Stropping = iota
	QuoteStropping
)

// PrintStatus and ListFlag mirror spec §3's Source line fields; kept
// as a small enum/bool pair rather than folded into Status bits since
// they are listing-only concerns, distinct from the diagnostic chain.
type PrintStatus int

const (
	NotUsed PrintStatus = iota
	ToPrint
	Skipped
)

// Line is one source line, linked into a doubly-linked chain owned by
// the Buffer (spec §3 "Source line").
type Line struct {
	Text        string
	Filename    string
	LineNumber  int
	PrintStatus PrintStatus
	ListFlag    bool

	Previous *Line
	Next     *Line
}

// Buffer owns the whole line chain for one compilation.
type Buffer struct {
	Stropping Stropping
	Head      *Line
	Tail      *Line

	includedHashes map[[32]byte]bool
}

func NewBuffer(stropping Stropping) *Buffer {
	return &Buffer{Stropping: stropping, includedHashes: make(map[[32]byte]bool)}
}

func (b *Buffer) append(l *Line) {
	if b.Head == nil {
		b.Head, b.Tail = l, l
		return
	}
	l.Previous = b.Tail
	b.Tail.Next = l
	b.Tail = l
}

// insertAfter splices newLines in after `after`, preserving the
// remainder of the chain. Included lines therefore follow the
// including pragmat's line, not precede it.
func insertAfter(after *Line, newLines []*Line) {
	if len(newLines) == 0 {
		return
	}
	rest := after.Next
	cur := after
	for _, nl := range newLines {
		nl.Previous = cur
		cur.Next = nl
		cur = nl
	}
	cur.Next = rest
	if rest != nil {
		rest.Previous = cur
	}
}

// Reader abstracts how the raw bytes of an include target are
// fetched; production use is a plain os.Open, tests substitute an
// in-memory map.
type Reader interface {
	Read(name string) ([]byte, error)
}

type OSReader struct{ Base string }

func (r OSReader) Read(name string) ([]byte, error) {
	path := name
	if r.Base != "" && !filepath.IsAbs(name) {
		path = filepath.Join(r.Base, name)
	}
	return os.ReadFile(path)
}

// Load reads src as the named file, folds continuation lines, resolves
// include/read pragmats via rd, and wraps the result in the
// stropping-appropriate prelude/postlude so the parser always sees a
// single enclosing BEGIN...END (spec §4.A).
func Load(src []byte, filename string, stropping Stropping, rd Reader) (*Buffer, error) {
	b := NewBuffer(stropping)
	lines, err := splitAndFold(src, filename)
	if err != nil {
		return nil, err
	}
	if err := b.markIncluded(src); err != nil {
		return nil, err
	}
	for _, l := range lines {
		b.append(l)
	}
	if err := b.resolveIncludes(rd); err != nil {
		return nil, err
	}
	b.wrapPreludePostlude()
	return b, nil
}

func (b *Buffer) markIncluded(src []byte) error {
	sum := blake2b.Sum256(src)
	b.includedHashes[sum] = true
	return nil
}

// splitAndFold splits src on '\n' and folds any line ending in '\'
// into the following line, working bottom-up so multi-line folds
// accrete correctly (spec §4.A).
func splitAndFold(src []byte, filename string) ([]*Line, error) {
	raw := strings.Split(strings.ReplaceAll(string(src), "\r\n", "\n"), "\n")
	folded := make([]string, len(raw))
	copy(folded, raw)

	for i := len(folded) - 2; i >= 0; i-- {
		if strings.HasSuffix(folded[i], "\\") {
			folded[i] = strings.TrimSuffix(folded[i], "\\") + folded[i+1]
			folded[i+1] = ""
		}
	}

	lines := make([]*Line, 0, len(folded))
	n := 1
	for _, text := range folded {
		lines = append(lines, &Line{Text: text, Filename: filename, LineNumber: n, PrintStatus: ToPrint})
		n++
	}
	return lines, nil
}

// findIncludePragmat matches `PR/PRAGMAT include/read "name" PR/PRAGMAT`
// forms loosely enough for a splice pass that runs before the real
// tokenizer exists (spec §4.A, §6).
func findIncludePragmat(text string) (kind, name string, ok bool) {
	t := strings.TrimSpace(text)
	for _, kw := range []string{"PRAGMAT", "PR"} {
		if !strings.HasPrefix(t, kw) {
			continue
		}
		rest := strings.TrimSpace(strings.TrimPrefix(t, kw))
		for _, k := range []string{"include", "read"} {
			if strings.HasPrefix(rest, k) {
				tail := strings.TrimSpace(strings.TrimPrefix(rest, k))
				tail = strings.TrimSuffix(strings.TrimSuffix(strings.TrimSpace(tail), "PRAGMAT"), "PR")
				tail = strings.TrimSpace(tail)
				if len(tail) >= 2 && tail[0] == '"' {
					if end := strings.IndexByte(tail[1:], '"'); end >= 0 {
						return k, tail[1 : 1+end], true
					}
				}
			}
		}
	}
	return "", "", false
}

func (b *Buffer) resolveIncludes(rd Reader) error {
	for l := b.Head; l != nil; l = l.Next {
		kind, name, ok := findIncludePragmat(l.Text)
		if !ok {
			continue
		}
		_ = kind
		data, err := rd.Read(name)
		if err != nil {
			return fmt.Errorf("include %q: %w", name, err)
		}
		sum := blake2b.Sum256(data)
		if b.includedHashes[sum] {
			continue // already present in the chain: break recursion (spec §4.A)
		}
		b.includedHashes[sum] = true
		included, err := splitAndFold(data, name)
		if err != nil {
			return err
		}
		// preserve the including pragmat's own line number for diagnostics
		for _, il := range included {
			il.LineNumber = l.LineNumber
		}
		insertAfter(l, included)
	}
	return nil
}

// bold stropping prelude/postlude wrap the program body in BEGIN/END
// so every later phase can assume a single enclosing closed clause.
func (b *Buffer) wrapPreludePostlude() {
	prelude := &Line{Text: "BEGIN", Filename: "<prelude>", LineNumber: 0, PrintStatus: NotUsed}
	postlude := &Line{Text: "END", Filename: "<postlude>", LineNumber: 0, PrintStatus: NotUsed}
	if b.Stropping == QuoteStropping {
		prelude.Text = "'BEGIN'"
		postlude.Text = "'END'"
	}
	prelude.Next = b.Head
	if b.Head != nil {
		b.Head.Previous = prelude
	}
	b.Head = prelude
	if b.Tail == nil {
		b.Tail = prelude
	}
	postlude.Previous = b.Tail
	b.Tail.Next = postlude
	b.Tail = postlude
}

// Lines returns every line of the chain, in chain order, for a listing
// collaborator (spec §4.N, §7).
func (b *Buffer) Lines() []*Line {
	var out []*Line
	for l := b.Head; l != nil; l = l.Next {
		out = append(out, l)
	}
	return out
}

// ReadRunScript reads the run-script header format spec.md §6 names:
// repeating `filename\nline_number\n<original line text>\n` records,
// reconstructing a previously saved source with its original line
// numbers rather than renumbering from 1.
func ReadRunScript(r io.Reader) ([]*Line, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1<<24)
	var lines []*Line
	for sc.Scan() {
		filename := sc.Text()
		if !sc.Scan() {
			return nil, fmt.Errorf("run-script: missing line_number after filename %q", filename)
		}
		var lineNumber int
		if _, err := fmt.Sscanf(sc.Text(), "%d", &lineNumber); err != nil {
			return nil, fmt.Errorf("run-script: bad line_number for %q: %w", filename, err)
		}
		if !sc.Scan() {
			return nil, fmt.Errorf("run-script: missing text for %q:%d", filename, lineNumber)
		}
		lines = append(lines, &Line{
			Text:        sc.Text(),
			Filename:    filename,
			LineNumber:  lineNumber,
			PrintStatus: ToPrint,
		})
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return lines, nil
}
