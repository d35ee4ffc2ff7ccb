package step

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// ErrSyntax is matched by every SyntaxError
var ErrSyntax = errors.New("step: syntax error")

// SyntaxError reports malformed exchange file content
type SyntaxError struct {
	Line int
	Msg  string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("step: line %d: %s", e.Line, e.Msg)
}

// Is makes errors.Is(err, ErrSyntax) hold
func (e *SyntaxError) Is(target error) bool {
	return target == ErrSyntax
}

// Parse reads an exchange file from disk
func Parse(filename string) (*Model, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	model, err := Decode(file)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", filename, err)
	}
	return model, nil
}

// Decode reads an exchange file from r
func Decode(r io.Reader) (*Model, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read input: %w", err)
	}

	p := &parser{lex: &lexer{src: data, line: 1}}
	if err := p.advance(); err != nil {
		return nil, err
	}
	return p.parseFile()
}

type parser struct {
	lex *lexer
	tok token
}

func (p *parser) advance() error {
	tok, err := p.lex.next()
	if err != nil {
		return err
	}
	p.tok = tok
	return nil
}

func (p *parser) errorf(format string, args ...any) error {
	return &SyntaxError{Line: p.tok.line, Msg: fmt.Sprintf(format, args...)}
}

func (p *parser) expect(kind tokenKind) (token, error) {
	tok := p.tok
	if tok.kind != kind {
		return tok, p.errorf("expected %s, found %s", kind, tok)
	}
	return tok, p.advance()
}

func (p *parser) expectKeyword(word string) error {
	if p.tok.kind != tokKeyword || p.tok.text != word {
		return p.errorf("expected %s, found %s", word, p.tok)
	}
	return p.advance()
}

func (p *parser) atKeyword(word string) bool {
	return p.tok.kind == tokKeyword && p.tok.text == word
}

func (p *parser) parseFile() (*Model, error) {
	model := NewModel()

	if err := p.expectKeyword("ISO-10303-21"); err != nil {
		return nil, err
	}
	if _, err := p.expect(tokSemicolon); err != nil {
		return nil, err
	}

	if err := p.expectKeyword("HEADER"); err != nil {
		return nil, err
	}
	if _, err := p.expect(tokSemicolon); err != nil {
		return nil, err
	}
	for !p.atKeyword("ENDSEC") {
		rec, err := p.parseRecord()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(tokSemicolon); err != nil {
			return nil, err
		}
		model.Header = append(model.Header, rec)
	}
	if err := p.endSection(); err != nil {
		return nil, err
	}

	for p.atKeyword("DATA") {
		if err := p.advance(); err != nil {
			return nil, err
		}
		// Edition 3 allows DATA('name', ('schema'));
		if p.tok.kind == tokLParen {
			if _, err := p.parseParams(); err != nil {
				return nil, err
			}
		}
		if _, err := p.expect(tokSemicolon); err != nil {
			return nil, err
		}
		for !p.atKeyword("ENDSEC") {
			line := p.tok.line
			entity, err := p.parseInstance()
			if err != nil {
				return nil, err
			}
			if err := model.Insert(entity); err != nil {
				return nil, &SyntaxError{Line: line, Msg: err.Error()}
			}
		}
		if err := p.endSection(); err != nil {
			return nil, err
		}
	}

	if err := p.expectKeyword("END-ISO-10303-21"); err != nil {
		return nil, err
	}
	if _, err := p.expect(tokSemicolon); err != nil {
		return nil, err
	}
	return model, nil
}

func (p *parser) endSection() error {
	if err := p.expectKeyword("ENDSEC"); err != nil {
		return err
	}
	_, err := p.expect(tokSemicolon)
	return err
}

func (p *parser) parseInstance() (*Entity, error) {
	ref, err := p.expect(tokRef)
	if err != nil {
		return nil, err
	}
	id, err := strconv.Atoi(ref.text)
	if err != nil {
		return nil, p.errorf("invalid instance name #%s", ref.text)
	}
	if _, err := p.expect(tokEquals); err != nil {
		return nil, err
	}

	entity := &Entity{ID: id}
	if p.tok.kind == tokLParen {
		entity.Complex = true
		if err := p.advance(); err != nil {
			return nil, err
		}
		for p.tok.kind != tokRParen {
			rec, err := p.parseRecord()
			if err != nil {
				return nil, err
			}
			entity.Records = append(entity.Records, rec)
		}
		if err := p.advance(); err != nil {
			return nil, err
		}
		if len(entity.Records) == 0 {
			return nil, p.errorf("complex instance #%d has no records", id)
		}
	} else {
		rec, err := p.parseRecord()
		if err != nil {
			return nil, err
		}
		entity.Records = []Record{rec}
	}

	if _, err := p.expect(tokSemicolon); err != nil {
		return nil, err
	}
	return entity, nil
}

func (p *parser) parseRecord() (Record, error) {
	name, err := p.expect(tokKeyword)
	if err != nil {
		return Record{}, err
	}
	params, err := p.parseParams()
	if err != nil {
		return Record{}, err
	}
	return Record{Type: name.text, Params: params}, nil
}

// parseParams parses a parenthesised, comma separated parameter list
func (p *parser) parseParams() ([]Param, error) {
	if _, err := p.expect(tokLParen); err != nil {
		return nil, err
	}
	params := []Param{}
	if p.tok.kind == tokRParen {
		return params, p.advance()
	}
	for {
		param, err := p.parseParam()
		if err != nil {
			return nil, err
		}
		params = append(params, param)

		switch p.tok.kind {
		case tokComma:
			if err := p.advance(); err != nil {
				return nil, err
			}
		case tokRParen:
			return params, p.advance()
		default:
			return nil, p.errorf("expected , or ), found %s", p.tok)
		}
	}
}

func (p *parser) parseParam() (Param, error) {
	tok := p.tok
	switch tok.kind {
	case tokRef:
		id, err := strconv.Atoi(tok.text)
		if err != nil {
			return Param{}, p.errorf("invalid reference #%s", tok.text)
		}
		return Ref(id), p.advance()
	case tokString:
		return Param{Kind: KindString, Str: tok.text}, p.advance()
	case tokEnum:
		return Enum(tok.text), p.advance()
	case tokBinary:
		return Param{Kind: KindBinary, Str: tok.text}, p.advance()
	case tokInteger:
		v, err := strconv.ParseInt(tok.text, 10, 64)
		if err != nil {
			return Param{}, p.errorf("invalid integer %s", tok.text)
		}
		return Param{Kind: KindInteger, Int: v, Text: tok.text}, p.advance()
	case tokReal:
		v, err := strconv.ParseFloat(normalizeReal(tok.text), 64)
		if err != nil {
			return Param{}, p.errorf("invalid real %s", tok.text)
		}
		return Param{Kind: KindReal, Real: v, Text: tok.text}, p.advance()
	case tokDollar:
		return Unset(), p.advance()
	case tokStar:
		return Derived(), p.advance()
	case tokLParen:
		items, err := p.parseParams()
		if err != nil {
			return Param{}, err
		}
		return Param{Kind: KindList, List: items}, nil
	case tokKeyword:
		if err := p.advance(); err != nil {
			return Param{}, err
		}
		args, err := p.parseParams()
		if err != nil {
			return Param{}, err
		}
		return Param{Kind: KindTyped, Type: tok.text, List: args}, nil
	}
	return Param{}, p.errorf("unexpected %s", tok)
}

// normalizeReal makes Part 21 spellings such as "1." and "1.E-5" acceptable
// to strconv
func normalizeReal(s string) string {
	if i := strings.IndexAny(s, "eE"); i > 0 && s[i-1] == '.' {
		return s[:i] + "0" + s[i:]
	}
	if strings.HasSuffix(s, ".") {
		return s + "0"
	}
	return s
}
