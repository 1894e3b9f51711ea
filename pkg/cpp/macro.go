// macro.go implements the macro registry: a
// hash-chained table with a fixed bucket count, exactly as
// PREPROCESSOR_MACRO_HASH_SIZE (2048) fixes the chain-head array size in the
// original preprocessor struct. Builtin-dynamic macros are first-class kinds
// here rather than one catch-all case, mirroring pp_macro_kind's distinct
// PP_MACRO_FILE / PP_MACRO_LINE / PP_MACRO_COUNTER / PP_MACRO_INCLUDE_LEVEL
// values.
package cpp

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// macroHashSize matches PREPROCESSOR_MACRO_HASH_SIZE from the original
// preprocessor.h: a fixed bucket count, never resized.
const macroHashSize = 2048

// MacroKind classifies a macro record.
type MacroKind int

const (
	MacroObject MacroKind = iota
	MacroFunction
	MacroBuiltinFile
	MacroBuiltinLine
	MacroBuiltinCounter
	MacroBuiltinIncludeLevel
	// MacroBuiltinDynamic covers builtins computed through an arbitrary
	// closure (__DATE__, __TIME__, __TIMESTAMP__, __BASE_FILE__). Fixed-value
	// builtins like __STDC__ are registered as MacroObject instead.
	MacroBuiltinDynamic
)

// IsBuiltin reports whether k is one of the builtin-dynamic kinds.
func (k MacroKind) IsBuiltin() bool {
	return k >= MacroBuiltinFile
}

func (k MacroKind) String() string {
	switch k {
	case MacroObject:
		return "object"
	case MacroFunction:
		return "function"
	case MacroBuiltinFile:
		return "__FILE__"
	case MacroBuiltinLine:
		return "__LINE__"
	case MacroBuiltinCounter:
		return "__COUNTER__"
	case MacroBuiltinIncludeLevel:
		return "__INCLUDE_LEVEL__"
	case MacroBuiltinDynamic:
		return "builtin"
	default:
		return "unknown"
	}
}

// Macro is a tagged variant: object-like,
// function-like, or builtin-dynamic.
type Macro struct {
	Kind        MacroKind
	Name        string
	Replacement []Token  // definition tokens (object-like and function-like)
	Params      []string // formal parameter names, in order (function-like only)
	IsVariadic  bool
	BuiltinFunc func(SourceLoc) []Token // set for MacroBuiltinDynamic
	DefLoc      SourceLoc
}

// sameDefinition reports whether two macro definitions are token-for-token
// identical, per invariant (1): a #define of an already-defined name is an
// error unless the redefinition is identical.
func sameDefinition(a, b *Macro) bool {
	if a.Kind != b.Kind || a.IsVariadic != b.IsVariadic {
		return false
	}
	if len(a.Params) != len(b.Params) {
		return false
	}
	for i := range a.Params {
		if a.Params[i] != b.Params[i] {
			return false
		}
	}
	if len(a.Replacement) != len(b.Replacement) {
		return false
	}
	for i := range a.Replacement {
		if a.Replacement[i].Type != b.Replacement[i].Type || a.Replacement[i].Text != b.Replacement[i].Text {
			return false
		}
	}
	return true
}

// MacroTable is the hash-chained macro registry.
type MacroTable struct {
	buckets    [macroHashSize][]*Macro
	counter    int64
	baseFile   string
	compileSec int64
}

// NewMacroTable creates a registry pre-populated with the builtin-dynamic
// macros __FILE__, __LINE__, __COUNTER__, __INCLUDE_LEVEL__, __DATE__,
// __TIME__, __TIMESTAMP__, __BASE_FILE__, plus __STDC__ and __STDC_VERSION__
// as ordinary object-like macros.
func NewMacroTable() *MacroTable {
	mt := &MacroTable{compileSec: time.Now().Unix()}
	mt.insert(&Macro{Kind: MacroBuiltinFile, Name: "__FILE__"})
	mt.insert(&Macro{Kind: MacroBuiltinLine, Name: "__LINE__"})
	mt.insert(&Macro{Kind: MacroBuiltinCounter, Name: "__COUNTER__"})
	mt.insert(&Macro{Kind: MacroBuiltinIncludeLevel, Name: "__INCLUDE_LEVEL__"})
	mt.insert(&Macro{Kind: MacroBuiltinDynamic, Name: "__DATE__", BuiltinFunc: mt.dateToken})
	mt.insert(&Macro{Kind: MacroBuiltinDynamic, Name: "__TIME__", BuiltinFunc: mt.timeToken})
	mt.insert(&Macro{Kind: MacroBuiltinDynamic, Name: "__TIMESTAMP__", BuiltinFunc: mt.timestampToken})
	mt.insert(&Macro{Kind: MacroBuiltinDynamic, Name: "__BASE_FILE__", BuiltinFunc: mt.baseFileToken})
	mt.insert(&Macro{Kind: MacroObject, Name: "__STDC__", Replacement: []Token{{Type: PP_NUMBER, Text: "1"}}})
	mt.insert(&Macro{Kind: MacroObject, Name: "__STDC_VERSION__", Replacement: []Token{{Type: PP_NUMBER, Text: "201112L"}}})
	return mt
}

// SetBaseFile records the top-level translation unit's name, used by
// __BASE_FILE__ regardless of how deep the current #include nesting is.
func (mt *MacroTable) SetBaseFile(name string) {
	mt.baseFile = name
}

func hashMacroName(name string) uint32 {
	var h uint32 = 2166136261
	for i := 0; i < len(name); i++ {
		h ^= uint32(name[i])
		h *= 16777619
	}
	return h
}

func (mt *MacroTable) bucketFor(name string) int {
	return int(hashMacroName(name) % macroHashSize)
}

func (mt *MacroTable) insert(m *Macro) {
	b := mt.bucketFor(m.Name)
	mt.buckets[b] = append(mt.buckets[b], m)
}

// Lookup returns the macro registered under name, or nil.
func (mt *MacroTable) Lookup(name string) *Macro {
	b := mt.bucketFor(name)
	for _, m := range mt.buckets[b] {
		if m.Name == name {
			return m
		}
	}
	return nil
}

// IsDefined reports whether name has a registry entry.
func (mt *MacroTable) IsDefined(name string) bool {
	return mt.Lookup(name) != nil
}

// Undefine removes name's registry entry. Builtin-dynamic macros cannot be
// removed by #undef: the request is ignored and no diagnostic is issued.
func (mt *MacroTable) Undefine(name string) {
	if m := mt.Lookup(name); m != nil && m.Kind.IsBuiltin() {
		return
	}
	b := mt.bucketFor(name)
	chain := mt.buckets[b]
	for i, m := range chain {
		if m.Name == name {
			mt.buckets[b] = append(chain[:i], chain[i+1:]...)
			return
		}
	}
}

func filterWhitespace(tokens []Token) []Token {
	out := make([]Token, 0, len(tokens))
	for _, t := range tokens {
		if t.Type != PP_WHITESPACE && t.Type != PP_NEWLINE {
			out = append(out, t)
		}
	}
	return out
}

func (mt *MacroTable) define(m *Macro) error {
	if existing := mt.Lookup(m.Name); existing != nil {
		if existing.Kind.IsBuiltin() {
			return fmt.Errorf("redefining builtin macro %s", m.Name)
		}
		if sameDefinition(existing, m) {
			return nil
		}
		return fmt.Errorf("%s: macro %q redefined incompatibly (previously defined at %s)",
			m.DefLoc, m.Name, existing.DefLoc)
	}
	mt.insert(m)
	return nil
}

// DefineObject registers an object-like macro.
func (mt *MacroTable) DefineObject(name string, tokens []Token, loc SourceLoc) error {
	return mt.define(&Macro{Kind: MacroObject, Name: name, Replacement: filterWhitespace(tokens), DefLoc: loc})
}

// DefineFunction registers a function-like macro.
func (mt *MacroTable) DefineFunction(name string, params []string, variadic bool, bodyTokens []Token, loc SourceLoc) error {
	if err := checkDistinctParams(params); err != nil {
		return fmt.Errorf("%s: %w", loc, err)
	}
	return mt.define(&Macro{
		Kind:        MacroFunction,
		Name:        name,
		Params:      params,
		IsVariadic:  variadic,
		Replacement: filterWhitespace(bodyTokens),
		DefLoc:      loc,
	})
}

func checkDistinctParams(params []string) error {
	seen := make(map[string]bool, len(params))
	for _, p := range params {
		if seen[p] {
			return fmt.Errorf("duplicate macro parameter %q", p)
		}
		seen[p] = true
	}
	return nil
}

// DefineSimple defines an object-like macro from a raw replacement-text
// string, the form used by command-line -D flags. DefineFromDirective does
// not use it; it calls DefineObject/DefineFunction directly.
func (mt *MacroTable) DefineSimple(name, value string, loc SourceLoc) error {
	lex := NewLexer(value, loc.File)
	tokens := filterWhitespace(lex.AllTokens())
	if len(tokens) > 0 && tokens[len(tokens)-1].Type == PP_EOF {
		tokens = tokens[:len(tokens)-1]
	}
	return mt.DefineObject(name, tokens, loc)
}

// ApplyCmdlineDefines processes -D and -U flags. A -D value of "NAME" alone
// defines NAME as 1, matching cc's behavior; "NAME=VALUE" defines NAME as
// VALUE's tokens.
func (mt *MacroTable) ApplyCmdlineDefines(defines, undefines []string) error {
	for _, d := range defines {
		name, value := d, "1"
		if idx := strings.IndexByte(d, '='); idx >= 0 {
			name, value = d[:idx], d[idx+1:]
		}
		if err := mt.DefineSimple(name, value, SourceLoc{File: "<command-line>"}); err != nil {
			return err
		}
	}
	for _, u := range undefines {
		mt.Undefine(u)
	}
	return nil
}

// DefineFromDirective registers (or removes) a macro described by a parsed
// #define/#undef directive.
func (mt *MacroTable) DefineFromDirective(dir *Directive) error {
	switch dir.Type {
	case DirDefine:
		if dir.MacroParams != nil {
			return mt.DefineFunction(dir.MacroName, dir.MacroParams, dir.IsVariadic, dir.MacroBody, dir.Loc)
		}
		return mt.DefineObject(dir.MacroName, dir.MacroBody, dir.Loc)
	case DirUndef:
		mt.Undefine(dir.Identifier)
		return nil
	default:
		return fmt.Errorf("DefineFromDirective: not a #define/#undef directive")
	}
}

// GetFileToken produces the __FILE__ expansion: a string literal with loc's
// file name.
func (mt *MacroTable) GetFileToken(loc SourceLoc) []Token {
	return []Token{{Type: PP_STRING, Text: strconv.Quote(loc.File), Loc: loc}}
}

// GetLineToken produces the __LINE__ expansion: a decimal integer token.
func (mt *MacroTable) GetLineToken(loc SourceLoc) []Token {
	return []Token{{Type: PP_NUMBER, Text: strconv.Itoa(loc.Line), Loc: loc}}
}

// GetCounterToken produces the __COUNTER__ expansion and increments the
// session-wide counter, so successive uses see 0, 1, 2, ...
func (mt *MacroTable) GetCounterToken(loc SourceLoc) []Token {
	v := mt.counter
	mt.counter++
	return []Token{{Type: PP_NUMBER, Text: strconv.FormatInt(v, 10), Loc: loc}}
}

// GetIncludeLevelToken produces the __INCLUDE_LEVEL__ expansion.
func (mt *MacroTable) GetIncludeLevelToken(loc SourceLoc, level int) []Token {
	return []Token{{Type: PP_NUMBER, Text: strconv.Itoa(level), Loc: loc}}
}

func (mt *MacroTable) dateToken(loc SourceLoc) []Token {
	t := time.Unix(mt.compileSec, 0).UTC()
	return []Token{{Type: PP_STRING, Text: strconv.Quote(t.Format("Jan  2 2006")), Loc: loc}}
}

func (mt *MacroTable) timeToken(loc SourceLoc) []Token {
	t := time.Unix(mt.compileSec, 0).UTC()
	return []Token{{Type: PP_STRING, Text: strconv.Quote(t.Format("15:04:05")), Loc: loc}}
}

func (mt *MacroTable) timestampToken(loc SourceLoc) []Token {
	t := time.Unix(mt.compileSec, 0).UTC()
	return []Token{{Type: PP_STRING, Text: strconv.Quote(t.Format("Mon Jan  2 15:04:05 2006")), Loc: loc}}
}

func (mt *MacroTable) baseFileToken(loc SourceLoc) []Token {
	name := mt.baseFile
	if name == "" {
		name = loc.File
	}
	return []Token{{Type: PP_STRING, Text: strconv.Quote(name), Loc: loc}}
}
