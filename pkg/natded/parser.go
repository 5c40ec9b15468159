package natded

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Parser turns rule notation into expressions. The grammar is
//
//	sequence   := expression*
//	expression := '(' sequence ')' | marker name | token
//	name       := token
//	token      := one or more runes other than whitespace and parentheses
//	marker     := '$' | '_'
//
// A sequence of one expression yields that expression unwrapped. Parsing is
// greedy, left to right, without backtracking, and must consume the whole
// trimmed input.
//
// A Parser is safe for concurrent use; every variable it produces carries the
// scope of its builder.
type Parser struct {
	builder *Builder
}

// NewParser returns a parser building with b.
func NewParser(b *Builder) *Parser {
	return &Parser{builder: b}
}

// Parse parses s with every variable bound to scope.
func Parse(s string, scope Scope) (Expression, error) {
	return NewParser(NewBuilder(scope)).Parse(s)
}

// ParseFresh parses s with every variable bound to a newly allocated scope.
func ParseFresh(s string) (Expression, error) {
	return NewParser(FreshBuilder()).Parse(s)
}

// ParseTemplate parses s into a template whose variables are instantiated
// later, once per use.
func ParseTemplate(s string) (Template, error) {
	e, err := NewParser(NewBuilder(NoScope)).Parse(s)
	if err != nil {
		return Template{}, err
	}
	return NewTemplate(e), nil
}

// MustParse is like ParseFresh but panics on error. It is intended for
// tests and for rule text that is known to be well formed.
func MustParse(s string) Expression {
	e, err := ParseFresh(s)
	if err != nil {
		panic(err)
	}
	return e
}

// Parse parses s.
func (p *Parser) Parse(s string) (Expression, error) {
	sc := &scanner{input: strings.TrimSpace(s), builder: p.builder}
	return sc.parseEverything()
}

// scanner holds the cursor of a single Parse call.
type scanner struct {
	input   string
	pos     int
	builder *Builder
}

func (sc *scanner) parseEverything() (Expression, error) {
	e, err := sc.parseSequence()
	if err != nil {
		return nil, err
	}
	sc.skipSpace()
	if !sc.atEnd() {
		return nil, sc.complain("end of input")
	}
	return e, nil
}

func (sc *scanner) parseSequence() (Expression, error) {
	var parts []Expression
	for {
		sc.skipSpace()
		if sc.atEnd() || sc.peek() == ')' {
			break
		}
		e, err := sc.parseExpression()
		if err != nil {
			return nil, err
		}
		parts = append(parts, e)
	}
	if len(parts) == 0 {
		return nil, sc.complain("expression")
	}
	return sc.builder.Sequence(parts...), nil
}

func (sc *scanner) parseExpression() (Expression, error) {
	switch r := sc.peek(); {
	case r == '(':
		return sc.parseBrackets()
	case isMarker(r):
		return sc.parseVariable()
	case isTokenRune(r):
		return sc.builder.Keyword(sc.readToken()), nil
	default:
		return nil, sc.complain("")
	}
}

func (sc *scanner) parseBrackets() (Expression, error) {
	sc.advance()
	e, err := sc.parseSequence()
	if err != nil {
		return nil, err
	}
	if sc.atEnd() || sc.peek() != ')' {
		return nil, sc.complain(`")"`)
	}
	sc.advance()
	return e, nil
}

func (sc *scanner) parseVariable() (Expression, error) {
	sc.advance()
	if sc.atEnd() || !isTokenRune(sc.peek()) {
		return nil, sc.complain("variable name")
	}
	return sc.builder.Variable(sc.readToken()), nil
}

func (sc *scanner) readToken() string {
	start := sc.pos
	for !sc.atEnd() && isTokenRune(sc.peek()) {
		sc.advance()
	}
	return sc.input[start:sc.pos]
}

func (sc *scanner) atEnd() bool {
	return sc.pos >= len(sc.input)
}

func (sc *scanner) peek() rune {
	r, _ := utf8.DecodeRuneInString(sc.input[sc.pos:])
	return r
}

func (sc *scanner) advance() {
	_, size := utf8.DecodeRuneInString(sc.input[sc.pos:])
	sc.pos += size
}

func (sc *scanner) skipSpace() {
	for !sc.atEnd() && unicode.IsSpace(sc.peek()) {
		sc.advance()
	}
}

func (sc *scanner) complain(expected string) *ParseError {
	err := &ParseError{Input: sc.input, Offset: sc.pos, Expected: expected}
	if !sc.atEnd() {
		err.Found = string(sc.peek())
	}
	return err
}

func isMarker(r rune) bool {
	return r == '$' || r == '_'
}

func isTokenRune(r rune) bool {
	return r != '(' && r != ')' && r != utf8.RuneError && !unicode.IsSpace(r)
}
