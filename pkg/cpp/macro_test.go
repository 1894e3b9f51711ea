package cpp

import "testing"

func TestMacroTableDefineAndLookup(t *testing.T) {
	mt := NewMacroTable()
	loc := SourceLoc{File: "t.c", Line: 1}

	if err := mt.DefineSimple("GREETING", "hello", loc); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	m := mt.Lookup("GREETING")
	if m == nil {
		t.Fatal("expected GREETING to be defined")
	}
	if m.Kind != MacroObject {
		t.Errorf("expected MacroObject, got %v", m.Kind)
	}
	if len(m.Replacement) != 1 || m.Replacement[0].Text != "hello" {
		t.Errorf("unexpected replacement: %+v", m.Replacement)
	}
}

func TestMacroTableRedefinitionIdentical(t *testing.T) {
	mt := NewMacroTable()
	loc := SourceLoc{File: "t.c", Line: 1}

	if err := mt.DefineSimple("X", "1", loc); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := mt.DefineSimple("X", "1", loc); err != nil {
		t.Errorf("identical redefinition should be allowed, got: %v", err)
	}
}

func TestMacroTableRedefinitionIncompatible(t *testing.T) {
	mt := NewMacroTable()
	loc := SourceLoc{File: "t.c", Line: 1}

	if err := mt.DefineSimple("X", "1", loc); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := mt.DefineSimple("X", "2", loc); err == nil {
		t.Error("expected error for incompatible redefinition")
	}
}

func TestMacroTableRedefiningBuiltinFails(t *testing.T) {
	mt := NewMacroTable()
	if err := mt.DefineSimple("__FILE__", "\"x\"", SourceLoc{File: "t.c"}); err == nil {
		t.Error("expected error redefining a builtin macro")
	}
}

func TestMacroTableUndefineIgnoresBuiltin(t *testing.T) {
	mt := NewMacroTable()
	mt.Undefine("__LINE__")
	if !mt.IsDefined("__LINE__") {
		t.Error("builtin macros must survive #undef")
	}
}

func TestMacroTableUndefineRemovesUserMacro(t *testing.T) {
	mt := NewMacroTable()
	mt.DefineSimple("FOO", "1", SourceLoc{File: "t.c"})
	mt.Undefine("FOO")
	if mt.IsDefined("FOO") {
		t.Error("expected FOO to be undefined")
	}
}

func TestMacroTableFunctionMacroDuplicateParam(t *testing.T) {
	mt := NewMacroTable()
	err := mt.DefineFunction("F", []string{"a", "a"}, false, nil, SourceLoc{File: "t.c"})
	if err == nil {
		t.Error("expected error for duplicate parameter names")
	}
}

func TestMacroTableApplyCmdlineDefines(t *testing.T) {
	mt := NewMacroTable()
	if err := mt.ApplyCmdlineDefines([]string{"FOO=42", "BAR"}, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m := mt.Lookup("FOO"); m == nil || m.Replacement[0].Text != "42" {
		t.Errorf("expected FOO=42, got %+v", m)
	}
	if m := mt.Lookup("BAR"); m == nil || m.Replacement[0].Text != "1" {
		t.Errorf("expected BAR=1 (bare -D default), got %+v", m)
	}
}

func TestMacroTableCounterIncrements(t *testing.T) {
	mt := NewMacroTable()
	loc := SourceLoc{File: "t.c", Line: 1}
	first := mt.GetCounterToken(loc)[0].Text
	second := mt.GetCounterToken(loc)[0].Text
	if first == second {
		t.Errorf("expected __COUNTER__ to advance, got %s twice", first)
	}
}

func TestMacroTableBucketDistribution(t *testing.T) {
	mt := NewMacroTable()
	b1 := mt.bucketFor("ALPHA")
	b2 := mt.bucketFor("ALPHA")
	if b1 != b2 {
		t.Error("hashing the same name must yield the same bucket")
	}
	if b1 < 0 || b1 >= macroHashSize {
		t.Errorf("bucket %d out of range [0,%d)", b1, macroHashSize)
	}
}

func TestDefineFromDirectiveDefineAndUndef(t *testing.T) {
	mt := NewMacroTable()
	loc := SourceLoc{File: "t.c", Line: 1}

	defDir := &Directive{Type: DirDefine, MacroName: "N", MacroBody: []Token{{Type: PP_NUMBER, Text: "7"}}, Loc: loc}
	if err := mt.DefineFromDirective(defDir); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m := mt.Lookup("N"); m == nil || m.Replacement[0].Text != "7" {
		t.Errorf("expected N=7, got %+v", m)
	}

	undefDir := &Directive{Type: DirUndef, Identifier: "N", Loc: loc}
	if err := mt.DefineFromDirective(undefDir); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if mt.IsDefined("N") {
		t.Error("expected N to be undefined")
	}
}
