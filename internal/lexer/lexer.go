// Package lexer implements phase B (spec §4.B): a single-pass,
// stateful tokenizer producing a doubly-linked token list (the same
// tree.Node type every later phase uses) from a source.Buffer.
//
// Grounded on the teacher's scanner (same source/start/current/line
// fields and advance/peek/match primitives), generalized from
// sentra's fixed single-character-symbol table to Algol 68's
// context-sensitive sub-languages (stropping regimes, denotations
// with radix/exponent markers, a MONAD/NOMAD operator character set,
// three comment/pragmat spellings, and a recursive format-text
// scanner).
package lexer

import (
	"strings"
	"unicode"

	"a68front/internal/arena"
	"a68front/internal/diag"
	"a68front/internal/intern"
	"a68front/internal/source"
	"a68front/internal/tree"
)

// operatorChars is the fixed MONAD/NOMAD character set Algol 68
// assembles operator tokens from (spec §4.B).
const operatorChars = "+-*/%^&<>=~!?:.@"

// keywords is the keyword table (spec §4.B: "recognition is by a
// keyword table; the merge of a BOLD_TAG with a known keyword replaces
// its attribute by the keyword's"). We keep Attribute == tree.Keyword
// for every recognized keyword and let later phases switch on
// Spelling, which is the data-driven equivalent of a per-keyword
// attribute without needing one Attribute constant per keyword.
var keywords = map[string]bool{
	"BEGIN": true, "END": true, "IF": true, "THEN": true, "ELIF": true, "ELSE": true, "FI": true,
	"CASE": true, "IN": true, "OUSE": true, "OUT": true, "ESAC": true,
	"FOR": true, "FROM": true, "BY": true, "TO": true, "DOWNTO": true, "WHILE": true, "DO": true, "OD": true, "UNTIL": true,
	"PROC": true, "OP": true, "PRIO": true, "MODE": true, "REF": true, "FLEX": true, "STRUCT": true, "UNION": true,
	"LOC": true, "HEAP": true, "NEW": true, "LONG": true, "SHORT": true, "INT": true, "REAL": true, "COMPLEX": true,
	"BOOL": true, "CHAR": true, "BITS": true, "BYTES": true, "STRING": true, "VOID": true, "FORMAT": true,
	"TRUE": true, "FALSE": true, "SKIP": true, "NIL": true, "IS": true, "ISNT": true,
	"ANDF": true, "ORF": true, "GOTO": true, "GO": true, "EXIT": true, "CODE": true, "EDOC": true, "AT": true,
}

type lexLine struct {
	text       []rune
	filename   string
	lineNumber int
}

// Lexer is recursive over format-text nesting, per spec §4.B.
type Lexer struct {
	t       *tree.Tree
	interns *intern.Table
	sink    *diag.Sink

	stropping source.Stropping

	lines []lexLine
	li    int
	ci    int

	pendingPragment string
	formatDepth     int // nesting depth of format texts being scanned

	head, tail arena.Index
}

func NewLexer(t *tree.Tree, interns *intern.Table, sink *diag.Sink, stropping source.Stropping) *Lexer {
	return &Lexer{t: t, interns: interns, sink: sink, stropping: stropping, head: arena.None, tail: arena.None}
}

// Scan tokenizes every line in buf (already folded/spliced by phase A)
// and returns the head index of the resulting doubly-linked token
// list.
func (lx *Lexer) Scan(buf *source.Buffer) arena.Index {
	for _, l := range buf.Lines() {
		lx.lines = append(lx.lines, lexLine{text: []rune(l.Text), filename: l.Filename, lineNumber: l.LineNumber})
	}
	lx.skipShebang()
	for !lx.atEnd() {
		lx.skipLayout()
		if lx.atEnd() {
			break
		}
		lx.scanOne()
	}
	lx.emit(tree.Attribute("EOF"), "")
	return lx.head
}

// Tail returns the last token Scan produced (the EOF sentinel),
// for callers that need the whole [head, tail] span, e.g. framer.
func (lx *Lexer) Tail() arena.Index { return lx.tail }

// --- low-level cursor -------------------------------------------------

func (lx *Lexer) atEnd() bool { return lx.li >= len(lx.lines) }

func (lx *Lexer) curFile() string {
	if lx.atEnd() {
		if len(lx.lines) > 0 {
			return lx.lines[len(lx.lines)-1].filename
		}
		return ""
	}
	return lx.lines[lx.li].filename
}

func (lx *Lexer) curLineNumber() int {
	if lx.atEnd() {
		if len(lx.lines) > 0 {
			return lx.lines[len(lx.lines)-1].lineNumber
		}
		return 0
	}
	return lx.lines[lx.li].lineNumber
}

func (lx *Lexer) curCol() int { return lx.ci + 1 }

// advance consumes and returns the next rune, synthesizing a '\n' at
// the end of each logical line so multi-line constructs (comments,
// pragmats, format texts) scan uniformly.
func (lx *Lexer) advance() rune {
	if lx.atEnd() {
		return 0
	}
	l := lx.lines[lx.li]
	if lx.ci < len(l.text) {
		r := l.text[lx.ci]
		lx.ci++
		return r
	}
	lx.li++
	lx.ci = 0
	return '\n'
}

func (lx *Lexer) peek() rune {
	if lx.atEnd() {
		return 0
	}
	l := lx.lines[lx.li]
	if lx.ci < len(l.text) {
		return l.text[lx.ci]
	}
	return '\n'
}

func (lx *Lexer) peekNext() rune {
	if lx.atEnd() {
		return 0
	}
	l := lx.lines[lx.li]
	if lx.ci+1 < len(l.text) {
		return l.text[lx.ci+1]
	}
	if lx.ci+1 == len(l.text) {
		return '\n'
	}
	if lx.li+1 < len(lx.lines) {
		if len(lx.lines[lx.li+1].text) > 0 {
			return lx.lines[lx.li+1].text[0]
		}
		return '\n'
	}
	return 0
}

func (lx *Lexer) match(expected rune) bool {
	if lx.peek() != expected {
		return false
	}
	lx.advance()
	return true
}

func (lx *Lexer) skipLayout() {
	for !lx.atEnd() && unicode.IsSpace(lx.peek()) {
		lx.advance()
	}
}

func (lx *Lexer) skipShebang() {
	if len(lx.lines) > 0 && strings.HasPrefix(string(lx.lines[0].text), "#!") {
		lx.li = 1
		lx.ci = 0
	}
}

// --- token emission -----------------------------------------------------

func (lx *Lexer) emit(attr tree.Attribute, spelling string) arena.Index {
	return lx.emitAt(attr, spelling, lx.curLineNumber(), lx.curCol(), lx.curFile())
}

func (lx *Lexer) emitAt(attr tree.Attribute, spelling string, line, col int, file string) arena.Index {
	idx := lx.t.New(attr, lx.interns.Intern(spelling), line, col, file)
	n := lx.t.Get(idx)
	n.Status |= tree.SourceVisible
	if lx.pendingPragment != "" {
		n.Pragment = lx.pendingPragment
		n.Status |= tree.Pragment
		lx.pendingPragment = ""
	}
	if lx.head == arena.None {
		lx.head = idx
	} else {
		lx.t.Get(lx.tail).Next = idx
		n.Previous = lx.tail
	}
	lx.tail = idx
	return idx
}

func (lx *Lexer) err(severity diag.Severity, msg string, args ...interface{}) {
	lx.sink.Add(diag.Diagnostic{Severity: severity, File: lx.curFile(), Line: lx.curLineNumber(), Column: lx.curCol(), Message: msg, Args: args})
}

// --- main dispatch --------------------------------------------------

func (lx *Lexer) scanOne() {
	startLine, startCol, startFile := lx.curLineNumber(), lx.curCol(), lx.curFile()
	c := lx.advance()

	switch {
	case c == '$':
		lx.scanFormatText(startLine, startCol, startFile)
	case c == '#':
		lx.scanHashComment()
	case c == '"':
		lx.scanString(startLine, startCol, startFile)
	case c == '\'' && lx.stropping == source.QuoteStropping:
		lx.scanQuoteStroppedTag(startLine, startCol, startFile)
	case c == '!' && lx.stropping == source.QuoteStropping:
		lx.emitAt(tree.Bar, "|", startLine, startCol, startFile)
	case c == '|':
		if lx.match(':') {
			lx.emitAt(tree.Bar, "|:", startLine, startCol, startFile)
		} else {
			lx.emitAt(tree.Bar, "|", startLine, startCol, startFile)
		}
	case c == '(' || c == ')' || c == '[' || c == ']' || c == '{' || c == '}' || c == ',' || c == ';':
		lx.emitAt(tree.Keyword, string(c), startLine, startCol, startFile)
	case isDigit(c):
		lx.scanNumberOrBits(c, startLine, startCol, startFile)
	case isUpper(c) && lx.stropping == source.UpperStropping:
		lx.scanBoldRun(c, startLine, startCol, startFile)
	case isLower(c) || c == '_':
		lx.scanIdentifierOrCommentWord(c, startLine, startCol, startFile)
	case strings.ContainsRune(operatorChars, c):
		lx.scanOperator(c, startLine, startCol, startFile)
	default:
		lx.err(diag.SyntaxError, "unworthy character %q", c)
	}
}

func isDigit(c rune) bool { return c >= '0' && c <= '9' }
func isUpper(c rune) bool { return unicode.IsUpper(c) }
func isLower(c rune) bool { return unicode.IsLower(c) }
func isAlnum(c rune) bool { return unicode.IsLetter(c) || unicode.IsDigit(c) || c == '_' }

// --- identifiers, bold tags, comment-words --------------------------

// scanBoldRun consumes an upper-case run (bold stropping) which is
// either a comment/pragmat opener (CO/COMMENT/PR/PRAGMAT), GOTO's two
// spellings, or an ordinary bold tag later resolved to keyword,
// indicant or operator spelling.
func (lx *Lexer) scanBoldRun(first rune, line, col int, file string) {
	var b strings.Builder
	b.WriteRune(first)
	for isUpper(lx.peek()) {
		b.WriteRune(lx.advance())
	}
	word := b.String()

	switch word {
	case "CO":
		lx.scanDelimitedComment("CO", line, col, file)
		return
	case "COMMENT":
		lx.scanDelimitedComment("COMMENT", line, col, file)
		return
	case "PR":
		lx.scanDelimitedPragmat("PR", line, col, file)
		return
	case "GO":
		save := lx.li
		saveCi := lx.ci
		lx.skipLayout()
		if lx.scanAheadWord() == "TO" {
			lx.emitAt(tree.Keyword, "GOTO", line, col, file)
			return
		}
		lx.li, lx.ci = save, saveCi
	case "PRAGMAT":
		lx.scanDelimitedPragmat("PRAGMAT", line, col, file)
		return
	}

	attr := tree.BoldTag
	if keywords[word] {
		attr = tree.Keyword
	}
	lx.emitAt(attr, word, line, col, file)
}

// scanAheadWord peeks the next upper-case run without consuming unless
// it matches what the caller wants (used for GO TO merging).
func (lx *Lexer) scanAheadWord() string {
	save := lx.li
	saveCi := lx.ci
	var b strings.Builder
	for isUpper(lx.peek()) {
		b.WriteRune(lx.advance())
	}
	word := b.String()
	if word != "TO" {
		lx.li, lx.ci = save, saveCi
		return ""
	}
	return word
}

func (lx *Lexer) scanQuoteStroppedTag(line, col int, file string) {
	var b strings.Builder
	for lx.peek() != '\'' && !lx.atEnd() {
		b.WriteRune(lx.advance())
	}
	if lx.atEnd() {
		lx.err(diag.SyntaxError, "unterminated quote-stropped tag")
		return
	}
	lx.advance() // closing quote
	word := strings.ToUpper(b.String())
	attr := tree.BoldTag
	if keywords[word] {
		attr = tree.Keyword
	}
	lx.emitAt(attr, word, line, col, file)
}

// scanIdentifierOrCommentWord consumes a lower-case identifier; a
// trailing underscore is warned per spec §4.B.
func (lx *Lexer) scanIdentifierOrCommentWord(first rune, line, col int, file string) {
	var b strings.Builder
	b.WriteRune(first)
	for isAlnum(lx.peek()) {
		b.WriteRune(lx.advance())
	}
	name := b.String()
	if strings.HasSuffix(name, "_") {
		lx.err(diag.Warning, "identifier %q has a trailing underscore", name)
	}
	lx.emitAt(tree.Identifier, name, line, col, file)
}

// --- denotations ------------------------------------------------------

// scanNumberOrBits handles INT/REAL/BITS denotations with optional
// radix prefix (2r/4r/8r/16r), exponent marker e/E/\, and the
// POINT-vs-decimal-point-vs-DOTDOT disambiguation (spec §4.B).
func (lx *Lexer) scanNumberOrBits(first rune, line, col int, file string) {
	var b strings.Builder
	b.WriteRune(first)
	for isDigit(lx.peek()) {
		b.WriteRune(lx.advance())
	}

	// radix denotation: <digits>r<digits in that base>
	if lx.peek() == 'r' || lx.peek() == 'R' {
		radixDigits := b.String()
		b.WriteRune(lx.advance())
		for isRadixDigit(lx.peek()) {
			b.WriteRune(lx.advance())
		}
		_ = radixDigits
		lx.emitAt(tree.Denotation, b.String(), line, col, file)
		return
	}

	isReal := false
	// '.' is POINT (field selector/decimal) vs DOTDOT (range) vs decimal point.
	if lx.peek() == '.' {
		if lx.peekNext() == '.' {
			// leave DOTDOT for the main dispatcher; this denotation is plain INT
		} else if isDigit(lx.peekNext()) {
			isReal = true
			b.WriteRune(lx.advance()) // '.'
			for isDigit(lx.peek()) {
				b.WriteRune(lx.advance())
			}
		}
	}
	if lx.peek() == 'e' || lx.peek() == 'E' || lx.peek() == '\\' {
		isReal = true
		b.WriteRune(lx.advance())
		if lx.peek() == '+' || lx.peek() == '-' {
			b.WriteRune(lx.advance())
		}
		for isDigit(lx.peek()) {
			b.WriteRune(lx.advance())
		}
	}
	_ = isReal
	lx.emitAt(tree.Denotation, b.String(), line, col, file)
}

func isRadixDigit(c rune) bool {
	return isDigit(c) || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}

// scanString consumes a STRING denotation; "" is an escaped quote
// inside the string (spec §4.B).
func (lx *Lexer) scanString(line, col int, file string) {
	var b strings.Builder
	for {
		if lx.atEnd() {
			lx.err(diag.SyntaxError, "unterminated string denotation")
			lx.emitAt(tree.Denotation, b.String(), line, col, file)
			return
		}
		if lx.peek() == '"' {
			if lx.peekNext() == '"' {
				lx.advance()
				lx.advance()
				b.WriteRune('"')
				continue
			}
			lx.advance()
			break
		}
		if lx.peek() == '\n' {
			lx.err(diag.SyntaxError, "unterminated string denotation (newline before closing quote)")
			break
		}
		b.WriteRune(lx.advance())
	}
	lx.emitAt(tree.Denotation, b.String(), line, col, file)
}

// --- comments & pragmats ---------------------------------------------

func (lx *Lexer) scanHashComment() {
	for lx.peek() != '#' && !lx.atEnd() {
		lx.advance()
	}
	if lx.atEnd() {
		lx.err(diag.SyntaxError, "unterminated # comment")
		return
	}
	lx.advance()
}

// scanDelimitedComment handles CO...CO and COMMENT...COMMENT, honoring
// nested quoted strings the way a pragmat body does (spec §4.B groups
// these together).
func (lx *Lexer) scanDelimitedComment(opener string, line, col int, file string) {
	lx.scanDelimitedBody(opener, false)
}

// scanDelimitedPragmat handles PR...PR and PRAGMAT...PRAGMAT; the body
// is passed opaquely to the options parser unless it is a recognized
// include/read/preprocessor directive, which phases A/C already acted
// on textually, so phase B simply records it as a pragment.
func (lx *Lexer) scanDelimitedPragmat(opener string, line, col int, file string) {
	lx.scanDelimitedBody(opener, true)
}

func (lx *Lexer) scanDelimitedBody(opener string, isPragmat bool) {
	var b strings.Builder
	for {
		if lx.atEnd() {
			kind := "comment"
			if isPragmat {
				kind = "pragmat"
			}
			lx.err(diag.SyntaxError, "unterminated %s", kind)
			return
		}
		if lx.peek() == '"' {
			b.WriteRune(lx.advance())
			for lx.peek() != '"' && !lx.atEnd() {
				b.WriteRune(lx.advance())
			}
			if !lx.atEnd() {
				b.WriteRune(lx.advance())
			}
			continue
		}
		if lx.matchesWordAhead(opener) {
			lx.consumeWord(opener)
			break
		}
		b.WriteRune(lx.advance())
	}
	// mark the following real token as carrying this pragment once emitted
	lx.pendingPragment = b.String()
}

func (lx *Lexer) matchesWordAhead(word string) bool {
	save, saveCi := lx.li, lx.ci
	defer func() { lx.li, lx.ci = save, saveCi }()
	for _, want := range word {
		if unicode.ToUpper(lx.peek()) != want {
			return false
		}
		lx.advance()
	}
	return true
}

func (lx *Lexer) consumeWord(word string) {
	for range word {
		lx.advance()
	}
}

// --- operators ---------------------------------------------------------

var becomesForms = map[string]bool{":=": true, "::=": true, "=:": true, "==:": true}

// scanOperator assembles an operator token from the MONAD/NOMAD
// character set by maximal munch, then emits the becomes forms in
// becomesForms (:=, ::=, =:, ==:) as keywords; any other run, including
// an operator-becomes such as +:=, is one operator token. A trailing '='
// is never split off the run.
func (lx *Lexer) scanOperator(first rune, line, col int, file string) {
	var b strings.Builder
	b.WriteRune(first)
	for strings.ContainsRune(operatorChars, lx.peek()) {
		b.WriteRune(lx.advance())
	}
	text := b.String()

	if text == "." {
		lx.emitAt(tree.Point, text, line, col, file)
		return
	}
	if text == ".." {
		lx.emitAt(tree.Dotdot, text, line, col, file)
		return
	}

	switch {
	case text == ":":
		lx.emitAt(tree.Keyword, ":", line, col, file)
	case becomesForms[text]:
		lx.emitAt(tree.Keyword, text, line, col, file)
	case strings.HasSuffix(text, ":=") && len(text) > 2:
		lx.emitAt(tree.Operator, text, line, col, file) // e.g. +:=, plus-and-becomes
	default:
		lx.emitAt(tree.Operator, text, line, col, file)
	}
}

