package toylang

import "testing"

func TestNextToken(t *testing.T) {
	input := `main :: (n int) -> int { return n; }`

	tests := []struct {
		expectedType    TokenType
		expectedLiteral string
	}{
		{TokenIdent, "main"},
		{TokenColonColon, "::"},
		{TokenLParen, "("},
		{TokenIdent, "n"},
		{TokenIntType, "int"},
		{TokenRParen, ")"},
		{TokenArrow, "->"},
		{TokenIntType, "int"},
		{TokenLBrace, "{"},
		{TokenReturn, "return"},
		{TokenIdent, "n"},
		{TokenSemicolon, ";"},
		{TokenRBrace, "}"},
		{TokenEOF, ""},
	}

	l := New(input)
	for i, tt := range tests {
		tok := l.NextToken()
		if tok.Type != tt.expectedType {
			t.Fatalf("tests[%d] - tokentype wrong. expected=%v, got=%v", i, tt.expectedType, tok.Type)
		}
		if tok.Literal != tt.expectedLiteral {
			t.Fatalf("tests[%d] - literal wrong. expected=%q, got=%q", i, tt.expectedLiteral, tok.Literal)
		}
	}
}

func TestAssignmentDeclaration(t *testing.T) {
	input := `x := 10; y :: float = 2.5;`

	tests := []struct {
		expectedType    TokenType
		expectedLiteral string
	}{
		{TokenIdent, "x"},
		{TokenColonEquals, ":="},
		{TokenInt, "10"},
		{TokenSemicolon, ";"},
		{TokenIdent, "y"},
		{TokenColonColon, "::"},
		{TokenFloatType, "float"},
		{TokenAssign, "="},
		{TokenFloat, "2.5"},
		{TokenSemicolon, ";"},
		{TokenEOF, ""},
	}

	l := New(input)
	for i, tt := range tests {
		tok := l.NextToken()
		if tok.Type != tt.expectedType || tok.Literal != tt.expectedLiteral {
			t.Fatalf("tests[%d]: expected {%v %q}, got {%v %q}", i, tt.expectedType, tt.expectedLiteral, tok.Type, tok.Literal)
		}
	}
}

func TestCompoundOperators(t *testing.T) {
	input := `<<= >>= += -= *= /= %= &= |= ^= << >>`

	tests := []TokenType{
		TokenShlAssign, TokenShrAssign, TokenPlusAssign, TokenMinusAssign,
		TokenStarAssign, TokenSlashAssign, TokenPercentAssign, TokenAmpAssign,
		TokenPipeAssign, TokenCaretAssign, TokenShl, TokenShr,
	}

	l := New(input)
	for i, want := range tests {
		tok := l.NextToken()
		if tok.Type != want {
			t.Fatalf("tests[%d]: expected %v, got %v (%q)", i, want, tok.Type, tok.Literal)
		}
	}
}

func TestFloatingLiterals(t *testing.T) {
	cases := []struct {
		src  string
		kind TokenType
	}{
		{"3.14", TokenFloat},
		{"1e10", TokenFloat},
		{"1.5e-3", TokenFloat},
		{"42", TokenInt},
	}
	for _, c := range cases {
		l := New(c.src)
		tok := l.NextToken()
		if tok.Type != c.kind || tok.Literal != c.src {
			t.Errorf("%q: expected {%v %q}, got {%v %q}", c.src, c.kind, c.src, tok.Type, tok.Literal)
		}
	}
}

func TestLineCommentSkipped(t *testing.T) {
	input := "x := 1; // trailing note\ny := 2;"
	l := New(input)

	var lits []string
	for {
		tok := l.NextToken()
		if tok.Type == TokenEOF {
			break
		}
		lits = append(lits, tok.Literal)
	}
	want := []string{"x", ":=", "1", ";", "y", ":=", "2", ";"}
	if len(lits) != len(want) {
		t.Fatalf("expected %d tokens, got %d: %v", len(want), len(lits), lits)
	}
	for i := range want {
		if lits[i] != want[i] {
			t.Errorf("token %d: expected %q, got %q", i, want[i], lits[i])
		}
	}
}

func TestStringLiteral(t *testing.T) {
	l := New(`print("hello\n");`)
	expectTypes := []TokenType{TokenPrint, TokenLParen, TokenString, TokenRParen, TokenSemicolon, TokenEOF}
	for i, want := range expectTypes {
		tok := l.NextToken()
		if tok.Type != want {
			t.Fatalf("tests[%d]: expected %v, got %v", i, want, tok.Type)
		}
	}
}
