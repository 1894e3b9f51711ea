package toylang

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/ralphcc-project/ralphcc/internal/arena"
	"github.com/ralphcc-project/ralphcc/internal/config"
	"github.com/ralphcc-project/ralphcc/internal/intern"
)

// bytecodeMagic is the 4-byte file signature written at offset 0.
var bytecodeMagic = [4]byte{'R', 'C', 'B', 'C'}

const (
	versionMajor       = 1
	versionMinor       = 0
	compilerVersionMajor = 0
	compilerVersionMinor = 1

	headerSize = 32
)

// StaticVar is one top-level variable the builder recorded while walking
// the program.
type StaticVar struct {
	NameID intern.ID
	Type   string
	Init   Expr
}

// FuncEntry is one function recorded in the builder's function table, keyed
// by a hash of its name the same way pkg/cpp's macro registry buckets
// macros by name hash.
type FuncEntry struct {
	NameID intern.ID
	Decl   *FuncDecl
}

const funcHashSize = 256

// Builder walks a parsed Program, accumulating static-variable storage and a
// function table, and can emit the bytecode file header. It owns its own
// arena and string interner the way a preprocessing session owns one arena
// and one intern.Table for its lifetime.
type Builder struct {
	arena  *arena.Arena
	interner *intern.Table

	statics []*StaticVar
	funcs   [funcHashSize][]*FuncEntry

	varSlots *arena.FreeList[StaticVar]
}

// NewBuilder creates a Builder with a fresh arena and interner.
func NewBuilder() *Builder {
	a := arena.New()
	return &Builder{
		arena:    a,
		interner: intern.New(),
		varSlots: arena.NewFreeList[StaticVar](a),
	}
}

// Build walks every top-level declaration, recording static variables and
// functions.
func (b *Builder) Build(prog *Program) error {
	for _, decl := range prog.Decls {
		switch d := decl.(type) {
		case *VarDecl:
			b.addStatic(d)
		case *FuncDecl:
			b.addFunc(d)
		default:
			return fmt.Errorf("unsupported top-level declaration %T", decl)
		}
	}
	return nil
}

func (b *Builder) addStatic(d *VarDecl) {
	v := b.varSlots.Get()
	v.NameID = b.interner.Intern(d.Name)
	v.Type = d.Type
	v.Init = d.Value
	b.statics = append(b.statics, v)
}

func (b *Builder) addFunc(d *FuncDecl) {
	nameID := b.interner.Intern(d.Name)
	bucket := hashFuncName(d.Name) % funcHashSize
	b.funcs[bucket] = append(b.funcs[bucket], &FuncEntry{NameID: nameID, Decl: d})
}

// LookupFunc finds a previously-built function declaration by name.
func (b *Builder) LookupFunc(name string) (*FuncDecl, bool) {
	bucket := hashFuncName(name) % funcHashSize
	for _, e := range b.funcs[bucket] {
		if b.interner.Lookup(e.NameID) == name {
			return e.Decl, true
		}
	}
	return nil, false
}

// Statics returns every recorded top-level static variable.
func (b *Builder) Statics() []*StaticVar {
	return b.statics
}

// hashFuncName is the same FNV-1a variant pkg/cpp's macro registry uses for
// its bucket hash, applied here to function names instead of macro names.
func hashFuncName(name string) uint32 {
	var h uint32 = 2166136261
	for i := 0; i < len(name); i++ {
		h ^= uint32(name[i])
		h *= 16777619
	}
	return h
}

// WriteBytecodeHeader writes the 32-byte little-endian header record:
// magic, version-major/minor, compiler-version-major/minor, compile-epoch,
// and 12 reserved zero bytes. The original C builder assembled this struct
// on the stack and never wrote it to the output file; this is where that
// gap gets closed.
func (b *Builder) WriteBytecodeHeader(w io.Writer) error {
	var buf [headerSize]byte
	copy(buf[0:4], bytecodeMagic[:])
	binary.LittleEndian.PutUint16(buf[4:6], versionMajor)
	binary.LittleEndian.PutUint16(buf[6:8], versionMinor)
	binary.LittleEndian.PutUint16(buf[8:10], compilerVersionMajor)
	binary.LittleEndian.PutUint16(buf[10:12], compilerVersionMinor)
	binary.LittleEndian.PutUint64(buf[12:20], config.CompileEpoch())
	// buf[20:32] stays zeroed: reserved.

	_, err := w.Write(buf[:])
	return err
}
