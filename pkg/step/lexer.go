package step

import (
	"fmt"
)

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokKeyword
	tokRef
	tokString
	tokEnum
	tokInteger
	tokReal
	tokBinary
	tokDollar
	tokStar
	tokLParen
	tokRParen
	tokComma
	tokEquals
	tokSemicolon
)

var tokenNames = map[tokenKind]string{
	tokEOF:       "end of file",
	tokKeyword:   "keyword",
	tokRef:       "instance name",
	tokString:    "string",
	tokEnum:      "enumeration",
	tokInteger:   "integer",
	tokReal:      "real",
	tokBinary:    "binary",
	tokDollar:    "$",
	tokStar:      "*",
	tokLParen:    "(",
	tokRParen:    ")",
	tokComma:     ",",
	tokEquals:    "=",
	tokSemicolon: ";",
}

func (k tokenKind) String() string {
	return tokenNames[k]
}

var punctuation = map[byte]tokenKind{
	'$': tokDollar, '*': tokStar, '(': tokLParen, ')': tokRParen,
	',': tokComma, '=': tokEquals, ';': tokSemicolon,
}

type token struct {
	kind tokenKind
	text string
	line int
}

func (t token) String() string {
	switch t.kind {
	case tokKeyword, tokInteger, tokReal:
		return fmt.Sprintf("%s %s", t.kind, t.text)
	case tokRef:
		return "#" + t.text
	}
	return t.kind.String()
}

type lexer struct {
	src  []byte
	pos  int
	line int
}

func (l *lexer) errorf(format string, args ...any) error {
	return &SyntaxError{Line: l.line, Msg: fmt.Sprintf(format, args...)}
}

func (l *lexer) peek(offset int) byte {
	if l.pos+offset < len(l.src) {
		return l.src[l.pos+offset]
	}
	return 0
}

func (l *lexer) skipSpace() error {
	for l.pos < len(l.src) {
		c := l.src[l.pos]
		switch {
		case c == '\n':
			l.line++
			l.pos++
		case c == ' ' || c == '\t' || c == '\r':
			l.pos++
		case c == '/' && l.peek(1) == '*':
			start := l.line
			l.pos += 2
			for {
				if l.pos >= len(l.src) {
					return &SyntaxError{Line: start, Msg: "unterminated comment"}
				}
				if l.src[l.pos] == '*' && l.peek(1) == '/' {
					l.pos += 2
					break
				}
				if l.src[l.pos] == '\n' {
					l.line++
				}
				l.pos++
			}
		default:
			return nil
		}
	}
	return nil
}

func (l *lexer) next() (token, error) {
	if err := l.skipSpace(); err != nil {
		return token{}, err
	}
	if l.pos >= len(l.src) {
		return token{kind: tokEOF, line: l.line}, nil
	}

	line := l.line
	c := l.src[l.pos]
	if kind, ok := punctuation[c]; ok {
		l.pos++
		return token{kind: kind, line: line}, nil
	}

	switch {
	case c == '#':
		l.pos++
		start := l.pos
		for l.pos < len(l.src) && isDigit(l.src[l.pos]) {
			l.pos++
		}
		if start == l.pos {
			return token{}, l.errorf("expected digits after #")
		}
		return token{kind: tokRef, text: string(l.src[start:l.pos]), line: line}, nil

	case c == '\'':
		return l.lexString()

	case c == '"':
		l.pos++
		start := l.pos
		for l.pos < len(l.src) && l.src[l.pos] != '"' {
			l.pos++
		}
		if l.pos >= len(l.src) {
			return token{}, l.errorf("unterminated binary value")
		}
		text := string(l.src[start:l.pos])
		l.pos++
		return token{kind: tokBinary, text: text, line: line}, nil

	case c == '.':
		l.pos++
		start := l.pos
		for l.pos < len(l.src) && isIdent(l.src[l.pos]) {
			l.pos++
		}
		if l.pos >= len(l.src) || l.src[l.pos] != '.' || start == l.pos {
			return token{}, l.errorf("malformed enumeration")
		}
		text := string(l.src[start:l.pos])
		l.pos++
		return token{kind: tokEnum, text: text, line: line}, nil

	case isDigit(c) || c == '-' || c == '+':
		return l.lexNumber()

	case isLetter(c) || c == '!':
		start := l.pos
		l.pos++
		for l.pos < len(l.src) && (isIdent(l.src[l.pos]) || l.src[l.pos] == '-') {
			l.pos++
		}
		return token{kind: tokKeyword, text: string(l.src[start:l.pos]), line: line}, nil
	}

	return token{}, l.errorf("unexpected character %q", c)
}

// lexString scans a quoted string, keeping doubled quotes in the text
func (l *lexer) lexString() (token, error) {
	line := l.line
	l.pos++
	start := l.pos
	for {
		if l.pos >= len(l.src) {
			return token{}, &SyntaxError{Line: line, Msg: "unterminated string"}
		}
		c := l.src[l.pos]
		if c == '\'' {
			if l.peek(1) == '\'' {
				l.pos += 2
				continue
			}
			text := string(l.src[start:l.pos])
			l.pos++
			return token{kind: tokString, text: text, line: line}, nil
		}
		if c == '\n' {
			l.line++
		}
		l.pos++
	}
}

func (l *lexer) lexNumber() (token, error) {
	line := l.line
	start := l.pos
	if c := l.src[l.pos]; c == '-' || c == '+' {
		l.pos++
	}
	digits := l.pos
	for l.pos < len(l.src) && isDigit(l.src[l.pos]) {
		l.pos++
	}
	if digits == l.pos {
		return token{}, l.errorf("malformed number")
	}

	kind := tokInteger
	if l.pos < len(l.src) && l.src[l.pos] == '.' {
		kind = tokReal
		l.pos++
		for l.pos < len(l.src) && isDigit(l.src[l.pos]) {
			l.pos++
		}
	}
	if l.pos < len(l.src) && (l.src[l.pos] == 'E' || l.src[l.pos] == 'e') {
		kind = tokReal
		l.pos++
		if c := l.peek(0); c == '-' || c == '+' {
			l.pos++
		}
		exp := l.pos
		for l.pos < len(l.src) && isDigit(l.src[l.pos]) {
			l.pos++
		}
		if exp == l.pos {
			return token{}, l.errorf("malformed exponent")
		}
	}
	return token{kind: kind, text: string(l.src[start:l.pos]), line: line}, nil
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func isLetter(c byte) bool {
	return (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z') || c == '_'
}

func isIdent(c byte) bool {
	return isLetter(c) || isDigit(c)
}
