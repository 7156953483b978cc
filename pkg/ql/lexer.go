package ql

import (
	"strings"
	"unicode"
)

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokIdent
	tokString
	tokNumber
	tokPunct
)

type token struct {
	kind tokenKind
	text string
	pos  int
}

// lexer turns a QL statement into a token stream over its rune
// positions, so the parser can report a rune offset + context snippet
// on failure.
type lexer struct {
	src  []rune
	pos  int
	toks []token
}

func newLexer(src string) *lexer {
	return &lexer{src: []rune(src)}
}

func (l *lexer) tokenize() ([]token, error) {
	for {
		l.skipSpace()
		if l.pos >= len(l.src) {
			l.toks = append(l.toks, token{kind: tokEOF, pos: l.pos})
			return l.toks, nil
		}

		start := l.pos
		c := l.src[l.pos]

		switch {
		case c == '"':
			s, err := l.readQuoted()
			if err != nil {
				return nil, err
			}
			l.toks = append(l.toks, token{kind: tokString, text: s, pos: start})
		case unicode.IsDigit(c) || (c == '-' && l.pos+1 < len(l.src) && unicode.IsDigit(l.src[l.pos+1])):
			// A digit-led token might be a plain number, but could also be
			// a bare RFC-3339 datetime or a digit-led uuid (e.g.
			// "2026-01-15T10:00:00Z" or "11111111-..."): read the whole
			// word and let the parser sniff which one it is.
			l.toks = append(l.toks, token{kind: tokNumber, text: l.readWhile(isWordRune), pos: start})
		case isIdentStart(c):
			l.toks = append(l.toks, token{kind: tokIdent, text: l.readWhile(isIdentRune), pos: start})
		case strings.ContainsRune("(){}[]#,:|", c):
			l.pos++
			l.toks = append(l.toks, token{kind: tokPunct, text: string(c), pos: start})
		case c == '>' || c == '<' || c == '=' || c == '!':
			l.toks = append(l.toks, token{kind: tokPunct, text: l.readWhile(isOperatorRune), pos: start})
		default:
			l.pos++
			l.toks = append(l.toks, token{kind: tokPunct, text: string(c), pos: start})
		}
	}
}

func (l *lexer) skipSpace() {
	for l.pos < len(l.src) && unicode.IsSpace(l.src[l.pos]) {
		l.pos++
	}
}

func (l *lexer) readWhile(pred func(rune) bool) string {
	start := l.pos
	for l.pos < len(l.src) && pred(l.src[l.pos]) {
		l.pos++
	}
	return string(l.src[start:l.pos])
}

func (l *lexer) readQuoted() (string, error) {
	l.pos++ // opening quote
	var b strings.Builder
	for l.pos < len(l.src) {
		c := l.src[l.pos]
		if c == '\\' && l.pos+1 < len(l.src) {
			b.WriteRune(l.src[l.pos+1])
			l.pos += 2
			continue
		}
		if c == '"' {
			l.pos++
			return b.String(), nil
		}
		b.WriteRune(c)
		l.pos++
	}
	return "", newParseError(l.pos, string(l.src), "unterminated string literal")
}

func isIdentStart(c rune) bool {
	return unicode.IsLetter(c) || c == '_'
}

func isIdentRune(c rune) bool {
	return unicode.IsLetter(c) || unicode.IsDigit(c) || c == '_' || c == '-' || c == ':' || c == '.' || c == '+' || c == 'Z'
}

// isWordRune accepts anything a digit-led number, RFC-3339 datetime, or
// hyphenated uuid literal can contain, so the lexer doesn't need to
// know in advance which of the three it's reading.
func isWordRune(c rune) bool {
	return unicode.IsDigit(c) || unicode.IsLetter(c) || c == '.' || c == '-' || c == ':' || c == '+'
}

func isOperatorRune(c rune) bool {
	return c == '>' || c == '<' || c == '=' || c == '!'
}
