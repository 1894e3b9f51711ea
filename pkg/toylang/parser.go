package toylang

import "fmt"

// Parser is a recursive-descent parser implementing Pratt-style precedence
// climbing across the 12 binary/unary tiers. Tier 1 (calls only) and
// tier 2 (unary) are folded into parsePostfix/parseUnary; tiers 3-12 are
// driven by the binTiers table from lowest precedence (12, `||`) down to
// highest (3, `* / %`).
type Parser struct {
	l         *Lexer
	cur       Token
	peek      Token
	errors    []error
}

// NewParser creates a Parser reading from l.
func NewParser(l *Lexer) *Parser {
	p := &Parser{l: l}
	p.advance()
	p.advance()
	return p
}

func (p *Parser) advance() {
	p.cur = p.peek
	p.peek = p.l.NextToken()
}

func (p *Parser) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Errorf("line %d: %s", p.cur.Line, fmt.Sprintf(format, args...)))
}

// Errors returns every parse error accumulated so far.
func (p *Parser) Errors() []error {
	return p.errors
}

func (p *Parser) expect(t TokenType) Token {
	tok := p.cur
	if p.cur.Type != t {
		p.errorf("expected %v, got %v (%q)", t, p.cur.Type, p.cur.Literal)
	}
	p.advance()
	return tok
}

// ParseProgram parses a full source file into top-level declarations.
func (p *Parser) ParseProgram() *Program {
	prog := &Program{}
	for p.cur.Type != TokenEOF {
		decl := p.parseTopDecl()
		if decl != nil {
			prog.Decls = append(prog.Decls, decl)
		}
	}
	return prog
}

func (p *Parser) parseTopDecl() Stmt {
	if p.cur.Type != TokenIdent {
		p.errorf("expected declaration, got %v", p.cur.Type)
		p.advance()
		return nil
	}
	name := p.cur.Literal
	line := p.cur.Line

	switch p.peek.Type {
	case TokenColonEquals:
		p.advance() // name
		p.advance() // :=
		val := p.parseExpr()
		p.expect(TokenSemicolon)
		return &VarDecl{Name: name, Value: val, Line: line}

	case TokenColonColon:
		p.advance() // name
		p.advance() // ::
		if p.cur.Type == TokenLParen {
			return p.parseFuncDeclAfterHeader(name, line)
		}
		typ := p.parseTypeName()
		var val Expr
		if p.cur.Type == TokenAssign {
			p.advance()
			val = p.parseExpr()
		}
		p.expect(TokenSemicolon)
		return &VarDecl{Name: name, Type: typ, Value: val, Line: line}

	case TokenColon:
		p.advance() // name
		p.advance() // :
		typ := p.parseTypeName()
		var val Expr
		if p.cur.Type == TokenAssign {
			p.advance()
			val = p.parseExpr()
		}
		p.expect(TokenSemicolon)
		return &VarDecl{Name: name, Type: typ, Value: val, Line: line}

	default:
		p.errorf("unexpected token %v after identifier %q in top-level declaration", p.peek.Type, name)
		p.advance()
		return nil
	}
}

func (p *Parser) parseTypeName() string {
	tok := p.cur
	if tok.Type != TokenIntType && tok.Type != TokenFloatType && tok.Type != TokenIdent {
		p.errorf("expected a type name, got %v", tok.Type)
	}
	p.advance()
	return tok.Literal
}

func (p *Parser) parseFuncDeclAfterHeader(name string, line int) *FuncDecl {
	p.expect(TokenLParen)
	var params []Param
	for p.cur.Type != TokenRParen && p.cur.Type != TokenEOF {
		pname := p.expect(TokenIdent).Literal
		ptype := p.parseTypeName()
		params = append(params, Param{Name: pname, Type: ptype})
		if p.cur.Type == TokenComma {
			p.advance()
		}
	}
	p.expect(TokenRParen)
	p.expect(TokenArrow)
	ret := p.parseTypeName()
	body := p.parseBlock()
	return &FuncDecl{Name: name, Params: params, ReturnType: ret, Body: body, Line: line}
}

func (p *Parser) parseBlock() []Stmt {
	p.expect(TokenLBrace)
	var stmts []Stmt
	for p.cur.Type != TokenRBrace && p.cur.Type != TokenEOF {
		if s := p.parseStmt(); s != nil {
			stmts = append(stmts, s)
		}
	}
	p.expect(TokenRBrace)
	return stmts
}

func (p *Parser) parseStmt() Stmt {
	switch p.cur.Type {
	case TokenIf:
		return p.parseIf()
	case TokenWhile:
		return p.parseWhile()
	case TokenReturn:
		return p.parseReturn()
	case TokenPrint:
		return p.parsePrint()
	case TokenIdent:
		if p.peek.Type == TokenColonEquals || p.peek.Type == TokenColonColon || p.peek.Type == TokenColon {
			return p.parseLocalDecl()
		}
		return p.parseAssignOrExprStmt()
	default:
		p.errorf("unexpected token %v at start of statement", p.cur.Type)
		p.advance()
		return nil
	}
}

func (p *Parser) parseLocalDecl() Stmt {
	name := p.cur.Literal
	line := p.cur.Line
	p.advance() // name
	switch p.cur.Type {
	case TokenColonEquals:
		p.advance()
		val := p.parseExpr()
		p.expect(TokenSemicolon)
		return &VarDecl{Name: name, Value: val, Line: line}
	case TokenColonColon, TokenColon:
		p.advance()
		typ := p.parseTypeName()
		var val Expr
		if p.cur.Type == TokenAssign {
			p.advance()
			val = p.parseExpr()
		}
		p.expect(TokenSemicolon)
		return &VarDecl{Name: name, Type: typ, Value: val, Line: line}
	default:
		p.errorf("malformed declaration for %q", name)
		return nil
	}
}

var assignOps = map[TokenType]bool{
	TokenAssign: true, TokenPlusAssign: true, TokenMinusAssign: true,
	TokenStarAssign: true, TokenSlashAssign: true, TokenPercentAssign: true,
	TokenAmpAssign: true, TokenPipeAssign: true, TokenCaretAssign: true,
	TokenShlAssign: true, TokenShrAssign: true,
}

func (p *Parser) parseAssignOrExprStmt() Stmt {
	line := p.cur.Line
	x := p.parseExpr()
	if assignOps[p.cur.Type] {
		op := p.cur.Type
		p.advance()
		val := p.parseExpr()
		p.expect(TokenSemicolon)
		return &AssignStmt{Target: x, Op: op, Value: val, Line: line}
	}
	p.expect(TokenSemicolon)
	return &ExprStmt{X: x, Line: line}
}

func (p *Parser) parseIf() Stmt {
	line := p.cur.Line
	p.expect(TokenIf)
	p.expect(TokenLParen)
	cond := p.parseExpr()
	p.expect(TokenRParen)
	then := p.parseBlock()
	var els []Stmt
	if p.cur.Type == TokenElse {
		p.advance()
		els = p.parseBlock()
	}
	return &IfStmt{Cond: cond, Then: then, Else: els, Line: line}
}

func (p *Parser) parseWhile() Stmt {
	line := p.cur.Line
	p.expect(TokenWhile)
	p.expect(TokenLParen)
	cond := p.parseExpr()
	p.expect(TokenRParen)
	body := p.parseBlock()
	return &WhileStmt{Cond: cond, Body: body, Line: line}
}

func (p *Parser) parseReturn() Stmt {
	line := p.cur.Line
	p.expect(TokenReturn)
	var val Expr
	if p.cur.Type != TokenSemicolon {
		val = p.parseExpr()
	}
	p.expect(TokenSemicolon)
	return &ReturnStmt{Value: val, Line: line}
}

func (p *Parser) parsePrint() Stmt {
	line := p.cur.Line
	p.expect(TokenPrint)
	p.expect(TokenLParen)
	val := p.parseExpr()
	p.expect(TokenRParen)
	p.expect(TokenSemicolon)
	return &PrintStmt{Value: val, Line: line}
}

// binTiers maps each binary operator token to its precedence tier (3-12,
// per spec's "3: * / %" through "12: ||").
var binTiers = map[TokenType]int{
	TokenStar: 3, TokenSlash: 3, TokenPercent: 3,
	TokenPlus: 4, TokenMinus: 4,
	TokenShl: 5, TokenShr: 5,
	TokenLt: 6, TokenLe: 6, TokenGt: 6, TokenGe: 6,
	TokenEq: 7, TokenNe: 7,
	TokenAmp: 8,
	TokenCaret: 9,
	TokenPipe: 10,
	TokenAnd: 11,
	TokenOr: 12,
}

const maxPrecedenceTier = 12

// parseExpr parses a full expression, starting at the lowest-precedence
// tier (12, `||`) and recursing down to primaries.
func (p *Parser) parseExpr() Expr {
	return p.parseBinary(maxPrecedenceTier)
}

func (p *Parser) parseBinary(tier int) Expr {
	if tier < 3 {
		return p.parseUnary()
	}
	left := p.parseBinary(tier - 1)
	for binTiers[p.cur.Type] == tier {
		op := p.cur.Type
		line := p.cur.Line
		p.advance()
		right := p.parseBinary(tier - 1)
		left = &BinaryExpr{Op: op, Left: left, Right: right, Line: line}
	}
	return left
}

// parseUnary is tier 2: prefix +, -, !, ~.
func (p *Parser) parseUnary() Expr {
	switch p.cur.Type {
	case TokenPlus, TokenMinus, TokenNot, TokenTilde:
		op := p.cur.Type
		line := p.cur.Line
		p.advance()
		operand := p.parseUnary()
		return &UnaryExpr{Op: op, Operand: operand, Line: line}
	default:
		return p.parsePostfix()
	}
}

// parsePostfix is tier 1: function calls chained onto a primary.
func (p *Parser) parsePostfix() Expr {
	expr := p.parsePrimary()
	for p.cur.Type == TokenLParen {
		line := p.cur.Line
		p.advance()
		var args []Expr
		for p.cur.Type != TokenRParen && p.cur.Type != TokenEOF {
			args = append(args, p.parseExpr())
			if p.cur.Type == TokenComma {
				p.advance()
			}
		}
		p.expect(TokenRParen)
		expr = &CallExpr{Callee: expr, Args: args, Line: line}
	}
	return expr
}

func (p *Parser) parsePrimary() Expr {
	tok := p.cur
	switch tok.Type {
	case TokenIdent:
		p.advance()
		return &Ident{Name: tok.Literal, Line: tok.Line}
	case TokenInt:
		p.advance()
		return &IntLit{Text: tok.Literal, Line: tok.Line}
	case TokenFloat:
		p.advance()
		return &FloatLit{Text: tok.Literal, Line: tok.Line}
	case TokenString:
		p.advance()
		return &StringLit{Value: tok.Literal, Line: tok.Line}
	case TokenLParen:
		p.advance()
		expr := p.parseExpr()
		p.expect(TokenRParen)
		return expr
	default:
		p.errorf("unexpected token %v in expression", tok.Type)
		p.advance()
		return &Ident{Name: "", Line: tok.Line}
	}
}
