package cpp

import "testing"

func lexDirectiveBody(t *testing.T, src string) []Token {
	t.Helper()
	lex := NewLexer(src, "t.c")
	var toks []Token
	for {
		tok := lex.NextToken()
		if tok.Type == PP_EOF {
			break
		}
		toks = append(toks, tok)
	}
	return toks
}

func TestParseDirectiveDefineObject(t *testing.T) {
	toks := lexDirectiveBody(t, "define FOO 1\n")
	dir, err := ParseDirectiveFromTokens(toks, SourceLoc{File: "t.c", Line: 1})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if dir.Type != DirDefine || dir.MacroName != "FOO" {
		t.Fatalf("unexpected directive: %+v", dir)
	}
	if dir.MacroParams != nil {
		t.Errorf("object-like macro should have nil params, got %v", dir.MacroParams)
	}
}

func TestParseDirectiveDefineFunctionVariadic(t *testing.T) {
	toks := lexDirectiveBody(t, "define LOG(fmt, ...) printf(fmt, __VA_ARGS__)\n")
	dir, err := ParseDirectiveFromTokens(toks, SourceLoc{File: "t.c", Line: 1})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !dir.IsVariadic {
		t.Error("expected variadic macro")
	}
	if len(dir.MacroParams) != 1 || dir.MacroParams[0] != "fmt" {
		t.Errorf("unexpected params: %v", dir.MacroParams)
	}
}

func TestParseDirectiveIfdefIfndef(t *testing.T) {
	toks := lexDirectiveBody(t, "ifdef DEBUG\n")
	dir, err := ParseDirectiveFromTokens(toks, SourceLoc{File: "t.c", Line: 1})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if dir.Type != DirIfdef || dir.Identifier != "DEBUG" {
		t.Fatalf("unexpected directive: %+v", dir)
	}

	toks = lexDirectiveBody(t, "ifndef DEBUG\n")
	dir, err = ParseDirectiveFromTokens(toks, SourceLoc{File: "t.c", Line: 1})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if dir.Type != DirIfndef || dir.Identifier != "DEBUG" {
		t.Fatalf("unexpected directive: %+v", dir)
	}
}

func TestParseDirectiveIncludeAngled(t *testing.T) {
	toks := lexDirectiveBody(t, "include <stdio.h>\n")
	dir, err := ParseDirectiveFromTokens(toks, SourceLoc{File: "t.c", Line: 1})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if dir.Type != DirInclude || !dir.IsSystemIncl {
		t.Fatalf("unexpected directive: %+v", dir)
	}
	if dir.HeaderName != "<stdio.h>" {
		t.Errorf("unexpected header name: %q", dir.HeaderName)
	}
}

func TestParseDirectiveLine(t *testing.T) {
	toks := lexDirectiveBody(t, "line 42 \"foo.c\"\n")
	dir, err := ParseDirectiveFromTokens(toks, SourceLoc{File: "t.c", Line: 1})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if dir.Type != DirLine || dir.LineNum != 42 || dir.FileName != "foo.c" {
		t.Fatalf("unexpected directive: %+v", dir)
	}
}

func TestParseDirectiveEmptyIsEmptyType(t *testing.T) {
	toks := lexDirectiveBody(t, "\n")
	dir, err := ParseDirectiveFromTokens(toks, SourceLoc{File: "t.c", Line: 1})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if dir.Type != DirEmpty {
		t.Errorf("expected DirEmpty, got %v", dir.Type)
	}
}

func TestParseDirectiveUnknownErrors(t *testing.T) {
	toks := lexDirectiveBody(t, "bogus\n")
	if _, err := ParseDirectiveFromTokens(toks, SourceLoc{File: "t.c", Line: 1}); err == nil {
		t.Error("expected error for unknown directive")
	}
}
