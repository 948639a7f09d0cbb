package sqlparse

import (
	"strings"
	"unicode"
)

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokIdent
	tokNumber
	tokString
	tokBind
	tokSymbol
)

// token is one lexical unit. Identifier text preserves the source spelling;
// keyword comparison is done case-insensitively by the parser.
type token struct {
	kind tokenKind
	text string
	pos  int
}

// isKeyword reports whether the token is the given SQL keyword, ignoring case.
func (t token) isKeyword(kw string) bool {
	return t.kind == tokIdent && strings.EqualFold(t.text, kw)
}

func (t token) isSymbol(sym string) bool {
	return t.kind == tokSymbol && t.text == sym
}

// lexer produces tokens from raw SQL text. It understands line comments
// ("--"), block comments, single-quoted strings with doubled-quote escapes,
// double-quoted identifiers, numbers, and bind markers (":name", ":1", "?").
type lexer struct {
	input string
	pos   int
}

func newLexer(input string) *lexer {
	return &lexer{input: input}
}

func (l *lexer) next() token {
	l.skipSpaceAndComments()
	if l.pos >= len(l.input) {
		return token{kind: tokEOF, pos: l.pos}
	}

	start := l.pos
	ch := l.input[l.pos]

	switch {
	case ch == '\'':
		return l.lexString(start)
	case ch == '"':
		return l.lexQuotedIdent(start)
	case ch == ':' || ch == '?':
		return l.lexBind(start)
	case isDigit(ch):
		return l.lexNumber(start)
	case isIdentStart(ch):
		return l.lexIdent(start)
	default:
		return l.lexSymbol(start)
	}
}

func (l *lexer) skipSpaceAndComments() {
	for l.pos < len(l.input) {
		ch := l.input[l.pos]
		switch {
		case unicode.IsSpace(rune(ch)):
			l.pos++
		case ch == '-' && l.pos+1 < len(l.input) && l.input[l.pos+1] == '-':
			for l.pos < len(l.input) && l.input[l.pos] != '\n' {
				l.pos++
			}
		case ch == '/' && l.pos+1 < len(l.input) && l.input[l.pos+1] == '*':
			end := strings.Index(l.input[l.pos+2:], "*/")
			if end == -1 {
				l.pos = len(l.input)
				return
			}
			l.pos += end + 4
		default:
			return
		}
	}
}

// lexString consumes a single-quoted literal. The returned text is the
// unescaped content without the surrounding quotes.
func (l *lexer) lexString(start int) token {
	l.pos++ // opening quote
	var b strings.Builder
	for l.pos < len(l.input) {
		ch := l.input[l.pos]
		if ch == '\'' {
			// Doubled quote is an escaped quote.
			if l.pos+1 < len(l.input) && l.input[l.pos+1] == '\'' {
				b.WriteByte('\'')
				l.pos += 2
				continue
			}
			l.pos++
			return token{kind: tokString, text: b.String(), pos: start}
		}
		b.WriteByte(ch)
		l.pos++
	}
	// Unterminated string: surface what we have, the parser reports position.
	return token{kind: tokString, text: b.String(), pos: start}
}

func (l *lexer) lexQuotedIdent(start int) token {
	l.pos++ // opening quote
	var b strings.Builder
	for l.pos < len(l.input) {
		ch := l.input[l.pos]
		if ch == '"' {
			if l.pos+1 < len(l.input) && l.input[l.pos+1] == '"' {
				b.WriteByte('"')
				l.pos += 2
				continue
			}
			l.pos++
			break
		}
		b.WriteByte(ch)
		l.pos++
	}
	return token{kind: tokIdent, text: b.String(), pos: start}
}

func (l *lexer) lexBind(start int) token {
	if l.input[l.pos] == '?' {
		l.pos++
		return token{kind: tokBind, text: "?", pos: start}
	}
	l.pos++ // ':'
	identStart := l.pos
	for l.pos < len(l.input) && (isIdentPart(l.input[l.pos]) || isDigit(l.input[l.pos])) {
		l.pos++
	}
	return token{kind: tokBind, text: ":" + l.input[identStart:l.pos], pos: start}
}

func (l *lexer) lexNumber(start int) token {
	for l.pos < len(l.input) && (isDigit(l.input[l.pos]) || l.input[l.pos] == '.') {
		l.pos++
	}
	return token{kind: tokNumber, text: l.input[start:l.pos], pos: start}
}

func (l *lexer) lexIdent(start int) token {
	for l.pos < len(l.input) && isIdentPart(l.input[l.pos]) {
		l.pos++
	}
	return token{kind: tokIdent, text: l.input[start:l.pos], pos: start}
}

func (l *lexer) lexSymbol(start int) token {
	// Two-character operators first.
	if l.pos+1 < len(l.input) {
		two := l.input[l.pos : l.pos+2]
		switch two {
		case "<=", ">=", "<>", "!=":
			l.pos += 2
			return token{kind: tokSymbol, text: two, pos: start}
		}
	}
	l.pos++
	return token{kind: tokSymbol, text: l.input[start : start+1], pos: start}
}

func isDigit(ch byte) bool {
	return ch >= '0' && ch <= '9'
}

func isIdentStart(ch byte) bool {
	return ch == '_' || ch == '$' || ch == '#' ||
		(ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z')
}

func isIdentPart(ch byte) bool {
	return isIdentStart(ch) || isDigit(ch)
}
