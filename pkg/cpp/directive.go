// directive.go parses preprocessing directives out of a line's token stream.
package cpp

import (
	"fmt"
	"strconv"
	"strings"
)

// DirectiveType identifies which directive a line holds.
type DirectiveType int

const (
	DirInclude DirectiveType = iota
	DirDefine
	DirUndef
	DirIf
	DirIfdef
	DirIfndef
	DirElif
	DirElse
	DirEndif
	DirLine
	DirError
	DirWarning
	DirPragma
	DirLinemarker // GCC line marker: # number "filename" [flags]
	DirEmpty      // bare # with nothing after it
)

func (d DirectiveType) String() string {
	switch d {
	case DirInclude:
		return "include"
	case DirDefine:
		return "define"
	case DirUndef:
		return "undef"
	case DirIf:
		return "if"
	case DirIfdef:
		return "ifdef"
	case DirIfndef:
		return "ifndef"
	case DirElif:
		return "elif"
	case DirElse:
		return "else"
	case DirEndif:
		return "endif"
	case DirLine:
		return "line"
	case DirError:
		return "error"
	case DirWarning:
		return "warning"
	case DirPragma:
		return "pragma"
	case DirLinemarker:
		return "linemarker"
	case DirEmpty:
		return "empty"
	default:
		return "unknown"
	}
}

// Directive is the parsed form of a single "#..." line. Only the fields
// relevant to Type are populated.
type Directive struct {
	Type DirectiveType
	Loc  SourceLoc

	// DirInclude
	HeaderName   string
	IsSystemIncl bool

	// DirDefine
	MacroName   string
	MacroParams []string
	IsVariadic  bool
	MacroBody   []Token

	// DirUndef, DirIfdef, DirIfndef
	Identifier string

	// DirIf, DirElif
	Expression []Token

	// DirLine, DirLinemarker
	LineNum  int
	FileName string

	// DirLinemarker flags: 1=new file, 2=returning to file, 3=system header, 4=extern "C"
	LinemarkerFlags []int

	// DirError, DirWarning
	Message string

	// DirPragma
	PragmaTokens []Token
}

// directiveParser walks the tokens of one logical preprocessing line,
// skipping the leading '#' which the caller has already consumed.
type directiveParser struct {
	toks []Token
	pos  int
}

func newDirectiveParser(toks []Token) *directiveParser {
	return &directiveParser{toks: toks}
}

// ParseDirectiveFromTokens parses the tokens following a '#' at the start
// of a line into a Directive.
func ParseDirectiveFromTokens(toks []Token, loc SourceLoc) (*Directive, error) {
	return newDirectiveParser(toks).parse(loc)
}

func (p *directiveParser) parse(loc SourceLoc) (*Directive, error) {
	p.skipSpace()

	if p.done() || p.cur().Type == PP_NEWLINE {
		return &Directive{Type: DirEmpty, Loc: loc}, nil
	}

	// GCC line marker: a bare number after '#' rather than a directive name.
	if p.cur().Type == PP_NUMBER {
		return p.parseLinemarker(loc)
	}

	if p.cur().Type != PP_IDENTIFIER {
		return nil, fmt.Errorf("%s: expected directive name, found %q", loc, p.cur().Text)
	}

	name := p.cur().Text
	p.advance()

	switch name {
	case "include", "include_next":
		return p.parseInclude(loc)
	case "define":
		return p.parseDefine(loc)
	case "undef":
		return p.parseUndef(loc)
	case "if":
		return p.parseIf(loc)
	case "ifdef":
		return p.parseDefChecked(loc, DirIfdef)
	case "ifndef":
		return p.parseDefChecked(loc, DirIfndef)
	case "elif":
		return p.parseElif(loc)
	case "else":
		return &Directive{Type: DirElse, Loc: loc}, nil
	case "endif":
		return &Directive{Type: DirEndif, Loc: loc}, nil
	case "line":
		return p.parseLine(loc)
	case "error":
		return &Directive{Type: DirError, Loc: loc, Message: p.restAsText()}, nil
	case "warning":
		return &Directive{Type: DirWarning, Loc: loc, Message: p.restAsText()}, nil
	case "pragma":
		p.skipSpace()
		return &Directive{Type: DirPragma, Loc: loc, PragmaTokens: p.restTokens()}, nil
	default:
		return nil, fmt.Errorf("%s: unrecognized preprocessing directive %q", loc, name)
	}
}

func (p *directiveParser) parseInclude(loc SourceLoc) (*Directive, error) {
	p.skipSpace()
	if p.done() || p.cur().Type == PP_NEWLINE {
		return nil, fmt.Errorf("%s: #include expects a filename", loc)
	}

	dir := &Directive{Type: DirInclude, Loc: loc}
	tok := p.cur()

	switch {
	case tok.Type == PP_HEADER_NAME:
		dir.HeaderName = tok.Text
		dir.IsSystemIncl = strings.HasPrefix(tok.Text, "<")
		p.advance()
	case tok.Type == PP_STRING:
		dir.HeaderName = tok.Text
		p.advance()
	case tok.Type == PP_PUNCTUATOR && tok.Text == "<":
		var b strings.Builder
		b.WriteByte('<')
		p.advance()
		for !p.done() && p.cur().Type != PP_NEWLINE {
			if p.cur().Type == PP_PUNCTUATOR && p.cur().Text == ">" {
				b.WriteByte('>')
				p.advance()
				break
			}
			b.WriteString(p.cur().Text)
			p.advance()
		}
		dir.HeaderName = b.String()
		dir.IsSystemIncl = true
	default:
		// Macro-expanded include target; expansion happens before reparse.
		dir.Expression = p.restTokens()
	}

	return dir, nil
}

func (p *directiveParser) parseDefine(loc SourceLoc) (*Directive, error) {
	p.skipSpace()
	if p.done() || p.cur().Type != PP_IDENTIFIER {
		return nil, fmt.Errorf("%s: #define expects a macro name", loc)
	}

	dir := &Directive{Type: DirDefine, Loc: loc, MacroName: p.cur().Text}
	p.advance()

	// Function-like iff '(' immediately follows the name with no space.
	if !p.done() && p.cur().Type == PP_PUNCTUATOR && p.cur().Text == "(" {
		p.advance()
		dir.MacroParams = []string{}
		if err := p.parseParamList(dir, loc); err != nil {
			return nil, err
		}
	}

	p.skipSpace()
	dir.MacroBody = p.restTokens()
	return dir, nil
}

func (p *directiveParser) parseParamList(dir *Directive, loc SourceLoc) error {
	for !p.done() {
		p.skipSpace()
		if p.cur().Type == PP_PUNCTUATOR && p.cur().Text == ")" {
			p.advance()
			return nil
		}

		if p.cur().Type == PP_PUNCTUATOR && p.cur().Text == "..." {
			dir.IsVariadic = true
			p.advance()
			p.skipSpace()
			if p.cur().Type != PP_PUNCTUATOR || p.cur().Text != ")" {
				return fmt.Errorf("%s: '...' must be the last macro parameter", loc)
			}
			p.advance()
			return nil
		}

		if p.cur().Type != PP_IDENTIFIER {
			return fmt.Errorf("%s: expected parameter name, found %q", loc, p.cur().Text)
		}
		name := p.cur().Text
		p.advance()

		p.skipSpace()
		if p.cur().Type == PP_PUNCTUATOR && p.cur().Text == "..." {
			dir.MacroParams = append(dir.MacroParams, name)
			dir.IsVariadic = true
			p.advance()
			p.skipSpace()
			if p.cur().Type != PP_PUNCTUATOR || p.cur().Text != ")" {
				return fmt.Errorf("%s: '...' must be the last macro parameter", loc)
			}
			p.advance()
			return nil
		}

		dir.MacroParams = append(dir.MacroParams, name)
		p.skipSpace()
		if p.cur().Type == PP_PUNCTUATOR && p.cur().Text == "," {
			p.advance()
		}
	}
	return fmt.Errorf("%s: unterminated macro parameter list", loc)
}

func (p *directiveParser) parseUndef(loc SourceLoc) (*Directive, error) {
	p.skipSpace()
	if p.done() || p.cur().Type != PP_IDENTIFIER {
		return nil, fmt.Errorf("%s: #undef expects an identifier", loc)
	}
	dir := &Directive{Type: DirUndef, Loc: loc, Identifier: p.cur().Text}
	p.advance()
	return dir, nil
}

func (p *directiveParser) parseIf(loc SourceLoc) (*Directive, error) {
	p.skipSpace()
	expr := p.restTokens()
	if len(expr) == 0 {
		return nil, fmt.Errorf("%s: #if expects an expression", loc)
	}
	return &Directive{Type: DirIf, Loc: loc, Expression: expr}, nil
}

func (p *directiveParser) parseElif(loc SourceLoc) (*Directive, error) {
	p.skipSpace()
	expr := p.restTokens()
	if len(expr) == 0 {
		return nil, fmt.Errorf("%s: #elif expects an expression", loc)
	}
	return &Directive{Type: DirElif, Loc: loc, Expression: expr}, nil
}

func (p *directiveParser) parseDefChecked(loc SourceLoc, typ DirectiveType) (*Directive, error) {
	p.skipSpace()
	if p.done() || p.cur().Type != PP_IDENTIFIER {
		return nil, fmt.Errorf("%s: #%s expects an identifier", loc, typ)
	}
	dir := &Directive{Type: typ, Loc: loc, Identifier: p.cur().Text}
	p.advance()
	return dir, nil
}

func (p *directiveParser) parseLine(loc SourceLoc) (*Directive, error) {
	p.skipSpace()
	if p.done() || p.cur().Type != PP_NUMBER {
		return nil, fmt.Errorf("%s: #line expects a line number", loc)
	}
	dir := &Directive{Type: DirLine, Loc: loc, LineNum: atoiPrefix(p.cur().Text)}
	p.advance()
	p.skipSpace()
	if !p.done() && p.cur().Type == PP_STRING {
		dir.FileName = unquote(p.cur().Text)
		p.advance()
	}
	return dir, nil
}

func (p *directiveParser) parseLinemarker(loc SourceLoc) (*Directive, error) {
	dir := &Directive{Type: DirLinemarker, Loc: loc, LineNum: atoiPrefix(p.cur().Text)}
	p.advance()
	p.skipSpace()

	if !p.done() && p.cur().Type == PP_STRING {
		dir.FileName = unquote(p.cur().Text)
		p.advance()
		p.skipSpace()
		for !p.done() && p.cur().Type == PP_NUMBER {
			dir.LinemarkerFlags = append(dir.LinemarkerFlags, atoiPrefix(p.cur().Text))
			p.advance()
			p.skipSpace()
		}
	}
	return dir, nil
}

func (p *directiveParser) restAsText() string {
	p.skipSpace()
	var b strings.Builder
	for !p.done() && p.cur().Type != PP_NEWLINE {
		b.WriteString(p.cur().Text)
		p.advance()
	}
	return strings.TrimSpace(b.String())
}

// Helpers shared with the rest of the package.

func (p *directiveParser) done() bool { return p.pos >= len(p.toks) }

func (p *directiveParser) cur() Token {
	if p.done() {
		return Token{Type: PP_EOF}
	}
	return p.toks[p.pos]
}

func (p *directiveParser) advance() {
	if !p.done() {
		p.pos++
	}
}

func (p *directiveParser) skipSpace() {
	for !p.done() && p.cur().Type == PP_WHITESPACE {
		p.advance()
	}
}

func (p *directiveParser) restTokens() []Token {
	var out []Token
	for !p.done() && p.cur().Type != PP_NEWLINE {
		out = append(out, p.cur())
		p.advance()
	}
	for len(out) > 0 && out[len(out)-1].Type == PP_WHITESPACE {
		out = out[:len(out)-1]
	}
	return out
}

func atoiPrefix(s string) int {
	n, _ := strconv.Atoi(strings.TrimRight(s, "uUlL"))
	return n
}

func unquote(s string) string {
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		return s[1 : len(s)-1]
	}
	return s
}
