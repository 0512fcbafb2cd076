package lexer

import (
	"strings"
	"unicode"

	"a68front/internal/diag"
	"a68front/internal/tree"
)

// formatItemLetters are the single-letter format items spec §4.B
// names: a/b/.../z/+/-/./% become FORMAT_ITEM_X attributes (kept here
// as the Annotation-free Attribute tree.FormatItem with the letter as
// Spelling, rather than one Go constant per letter).
var formatItemLetters = map[rune]bool{}

func init() {
	for _, r := range "abcdgijklnoprsxz" {
		formatItemLetters[r] = true
	}
	for _, r := range "+-.%" {
		formatItemLetters[r] = true
	}
}

// clauseOpeners lists the words that open an enclosed clause inside a
// format text. The format scanner emits them as keywords and keeps
// scanning in format mode; it does not re-enter the ordinary scanner.
var clauseOpeners = map[string]string{"BEGIN": "END", "IF": "FI", "CASE": "ESAC"}

// scanFormatText recursively descends into format-text sub-mode on the
// first '$' and returns once the matching '$' closes it (spec §4.B).
func (lx *Lexer) scanFormatText(line, col int, file string) {
	lx.emitAt(tree.Keyword, "$", line, col, file)
	lx.formatDepthPush()
	defer lx.formatDepthPop()

	for {
		if lx.atEnd() {
			lx.err(diag.SyntaxError, "unterminated format text")
			return
		}
		c := lx.peek()
		switch {
		case c == '$':
			lx.advance()
			lx.emit(tree.Keyword, "$")
			return
		case unicode.IsSpace(c):
			lx.advance()
		case isDigit(c):
			lx.scanStaticReplicator()
		case c == '(' || c == ')':
			lx.advance()
			lx.emit(tree.Keyword, string(c))
		case c == ',':
			lx.advance()
			lx.emit(tree.Keyword, ",")
		case unicode.IsUpper(c):
			word := lx.scanUpperWord()
			if _, ok := clauseOpeners[word]; ok || word == "ELSE" || word == "OUT" || word == "FI" || word == "ESAC" || word == "END" {
				lx.emit(tree.Keyword, word)
			} else {
				lx.emit(tree.BoldTag, word)
			}
		case unicode.IsLower(c) && formatItemLetters[c]:
			lx.advance()
			lx.emit(tree.FormatItem, string(c))
		case strings.ContainsRune("+-.%", c):
			lx.advance()
			lx.emit(tree.FormatItem, string(c))
		case c == '"':
			start := lx.curLineNumber()
			sc := lx.curCol()
			lx.advance()
			lx.scanString(start, sc, lx.curFile())
		default:
			lx.scanInsertion()
		}
	}
}

func (lx *Lexer) scanStaticReplicator() {
	line, col, file := lx.curLineNumber(), lx.curCol(), lx.curFile()
	var b strings.Builder
	for isDigit(lx.peek()) {
		b.WriteRune(lx.advance())
	}
	lx.emitAt(tree.StaticReplicator, b.String(), line, col, file)
}

func (lx *Lexer) scanUpperWord() string {
	var b strings.Builder
	for unicode.IsUpper(lx.peek()) {
		b.WriteRune(lx.advance())
	}
	return b.String()
}

// scanInsertion consumes a run of literal insertion text (anything
// that isn't a recognized format item, replicator, or clause keyword)
// up to the next special character.
func (lx *Lexer) scanInsertion() {
	line, col, file := lx.curLineNumber(), lx.curCol(), lx.curFile()
	var b strings.Builder
	for {
		c := lx.peek()
		if c == 0 || c == '$' || c == '(' || c == ')' || c == ',' || c == '"' || unicode.IsSpace(c) || unicode.IsUpper(c) || isDigit(c) || formatItemLetters[c] {
			break
		}
		b.WriteRune(lx.advance())
	}
	if b.Len() == 0 {
		// a character the format scanner doesn't otherwise classify; consume
		// it as a single-character insertion to guarantee forward progress.
		b.WriteRune(lx.advance())
	}
	lx.emitAt(tree.Insertion, b.String(), line, col, file)
}

func (lx *Lexer) formatDepthPush() { lx.formatDepth++ }
func (lx *Lexer) formatDepthPop()  { lx.formatDepth-- }
