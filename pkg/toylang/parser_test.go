package toylang

import "testing"

func parseOrFail(t *testing.T, src string) *Program {
	t.Helper()
	p := NewParser(New(src))
	prog := p.ParseProgram()
	if len(p.Errors()) > 0 {
		t.Fatalf("unexpected parse errors for %q: %v", src, p.Errors())
	}
	return prog
}

func TestParseInferredVarDecl(t *testing.T) {
	prog := parseOrFail(t, "x := 42;")
	if len(prog.Decls) != 1 {
		t.Fatalf("expected 1 decl, got %d", len(prog.Decls))
	}
	v, ok := prog.Decls[0].(*VarDecl)
	if !ok {
		t.Fatalf("expected *VarDecl, got %T", prog.Decls[0])
	}
	if v.Name != "x" || v.Type != "" {
		t.Errorf("unexpected decl: %+v", v)
	}
	if _, ok := v.Value.(*IntLit); !ok {
		t.Errorf("expected IntLit value, got %T", v.Value)
	}
}

func TestParseTypedVarDecl(t *testing.T) {
	prog := parseOrFail(t, "pi : float = 3.14;")
	v := prog.Decls[0].(*VarDecl)
	if v.Name != "pi" || v.Type != "float" {
		t.Errorf("unexpected decl: %+v", v)
	}
}

func TestParseFuncDecl(t *testing.T) {
	src := `
add :: (a int, b int) -> int {
	return a + b;
}
`
	prog := parseOrFail(t, src)
	fn, ok := prog.Decls[0].(*FuncDecl)
	if !ok {
		t.Fatalf("expected *FuncDecl, got %T", prog.Decls[0])
	}
	if fn.Name != "add" || fn.ReturnType != "int" || len(fn.Params) != 2 {
		t.Fatalf("unexpected func decl: %+v", fn)
	}
	if fn.Params[0].Name != "a" || fn.Params[0].Type != "int" {
		t.Errorf("unexpected param 0: %+v", fn.Params[0])
	}
	if len(fn.Body) != 1 {
		t.Fatalf("expected 1 statement in body, got %d", len(fn.Body))
	}
	ret, ok := fn.Body[0].(*ReturnStmt)
	if !ok {
		t.Fatalf("expected *ReturnStmt, got %T", fn.Body[0])
	}
	bin, ok := ret.Value.(*BinaryExpr)
	if !ok || bin.Op != TokenPlus {
		t.Fatalf("expected a + b return, got %+v", ret.Value)
	}
}

func TestParsePrecedenceOfMulOverAdd(t *testing.T) {
	prog := parseOrFail(t, "x := 1 + 2 * 3;")
	v := prog.Decls[0].(*VarDecl)
	top, ok := v.Value.(*BinaryExpr)
	if !ok || top.Op != TokenPlus {
		t.Fatalf("expected top-level +, got %+v", v.Value)
	}
	right, ok := top.Right.(*BinaryExpr)
	if !ok || right.Op != TokenStar {
		t.Fatalf("expected right-hand side to be 2 * 3, got %+v", top.Right)
	}
}

func TestParseLogicalOperatorsBindLooserThanComparison(t *testing.T) {
	prog := parseOrFail(t, "x := 1 < 2 && 3 > 4;")
	v := prog.Decls[0].(*VarDecl)
	top, ok := v.Value.(*BinaryExpr)
	if !ok || top.Op != TokenAnd {
		t.Fatalf("expected top-level &&, got %+v", v.Value)
	}
	if _, ok := top.Left.(*BinaryExpr); !ok {
		t.Errorf("expected left side to be a comparison, got %T", top.Left)
	}
	if _, ok := top.Right.(*BinaryExpr); !ok {
		t.Errorf("expected right side to be a comparison, got %T", top.Right)
	}
}

func TestParseUnaryBindsTighterThanBinary(t *testing.T) {
	prog := parseOrFail(t, "x := -1 + 2;")
	v := prog.Decls[0].(*VarDecl)
	top := v.Value.(*BinaryExpr)
	if top.Op != TokenPlus {
		t.Fatalf("expected top-level +, got %v", top.Op)
	}
	if _, ok := top.Left.(*UnaryExpr); !ok {
		t.Errorf("expected left side to be a unary minus, got %T", top.Left)
	}
}

func TestParseCallExpression(t *testing.T) {
	prog := parseOrFail(t, "x := add(1, 2);")
	v := prog.Decls[0].(*VarDecl)
	call, ok := v.Value.(*CallExpr)
	if !ok {
		t.Fatalf("expected *CallExpr, got %T", v.Value)
	}
	if len(call.Args) != 2 {
		t.Fatalf("expected 2 args, got %d", len(call.Args))
	}
}

func TestParseIfElseWhileAndPrint(t *testing.T) {
	src := `
run :: () -> int {
	i := 0;
	while (i < 10) {
		if (i == 5) {
			print("halfway");
		} else {
			i = i + 1;
		}
	}
	return i;
}
`
	prog := parseOrFail(t, src)
	fn := prog.Decls[0].(*FuncDecl)
	if len(fn.Body) != 3 {
		t.Fatalf("expected 3 statements (decl, while, return), got %d", len(fn.Body))
	}
	ws, ok := fn.Body[1].(*WhileStmt)
	if !ok {
		t.Fatalf("expected *WhileStmt, got %T", fn.Body[1])
	}
	ifs, ok := ws.Body[0].(*IfStmt)
	if !ok {
		t.Fatalf("expected *IfStmt inside while body, got %T", ws.Body[0])
	}
	if len(ifs.Then) != 1 || len(ifs.Else) != 1 {
		t.Fatalf("expected 1 stmt each in then/else, got %d/%d", len(ifs.Then), len(ifs.Else))
	}
}

func TestParseCompoundAssignment(t *testing.T) {
	src := `
run :: () -> int {
	i := 0;
	i += 1;
	return i;
}
`
	prog := parseOrFail(t, src)
	fn := prog.Decls[0].(*FuncDecl)
	asn, ok := fn.Body[1].(*AssignStmt)
	if !ok {
		t.Fatalf("expected *AssignStmt, got %T", fn.Body[1])
	}
	if asn.Op != TokenPlusAssign {
		t.Errorf("expected += op, got %v", asn.Op)
	}
}

func TestParseErrorOnMalformedDecl(t *testing.T) {
	p := NewParser(New("x ;"))
	p.ParseProgram()
	if len(p.Errors()) == 0 {
		t.Fatal("expected a parse error for malformed top-level declaration")
	}
}
