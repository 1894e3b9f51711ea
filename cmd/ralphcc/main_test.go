package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func resetFlags() {
	includePaths = nil
	systemPaths = nil
	defineFlags = nil
	undefineFlags = nil
	preprocessOnly = false
	useExternalPP = false
	outputPath = ""
	configPath = "ralphcc.yaml"
	exitCode = exitOK
}

func TestVersionIsSet(t *testing.T) {
	if version == "" {
		t.Error("version should not be empty")
	}
}

func TestFlagsExist(t *testing.T) {
	var out, errOut bytes.Buffer
	cmd := newRootCmd(&out, &errOut)

	for _, name := range []string{"include", "isystem", "define", "undefine", "preprocess", "external-cpp", "output", "config"} {
		if cmd.Flags().Lookup(name) == nil {
			t.Errorf("expected flag --%s to exist", name)
		}
	}
}

func TestMissingArgsIsUsageError(t *testing.T) {
	resetFlags()
	var out, errOut bytes.Buffer
	cmd := newRootCmd(&out, &errOut)
	cmd.SetArgs([]string{})

	err := cmd.Execute()
	if err == nil {
		t.Fatal("expected an error with no input files")
	}
	if _, ok := err.(usageError); !ok {
		t.Errorf("expected a usageError, got %T: %v", err, err)
	}
}

func TestPreprocessesCFileToStdout(t *testing.T) {
	resetFlags()
	dir := t.TempDir()
	src := filepath.Join(dir, "hello.c")
	if err := os.WriteFile(src, []byte("#define GREETING 1\nint x = GREETING;\n"), 0644); err != nil {
		t.Fatal(err)
	}
	cfg := filepath.Join(dir, "ralphcc.yaml")
	os.WriteFile(cfg, []byte(""), 0644)
	configPath = cfg

	var out, errOut bytes.Buffer
	cmd := newRootCmd(&out, &errOut)
	cmd.SetArgs([]string{src})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("unexpected error: %v, stderr=%s", err, errOut.String())
	}
	if got := out.String(); !strings.Contains(got, "int x = 1;") {
		t.Errorf("expected macro-expanded output, got %q", got)
	}
}

func TestCompilesToylangSourceToBytecodeFile(t *testing.T) {
	resetFlags()
	dir := t.TempDir()
	src := filepath.Join(dir, "prog.src")
	if err := os.WriteFile(src, []byte("x := 1;\n"), 0644); err != nil {
		t.Fatal(err)
	}
	cfg := filepath.Join(dir, "ralphcc.yaml")
	os.WriteFile(cfg, []byte(""), 0644)
	configPath = cfg
	out := filepath.Join(dir, "prog.bc")
	outputPath = out

	var stdout, errOut bytes.Buffer
	cmd := newRootCmd(&stdout, &errOut)
	cmd.SetArgs([]string{src})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("unexpected error: %v, stderr=%s", err, errOut.String())
	}

	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("expected bytecode file to exist: %v", err)
	}
	if len(data) != 32 {
		t.Errorf("expected a 32-byte header, got %d bytes", len(data))
	}
}

func TestToylangParseErrorReportsDiagnosticExitCode(t *testing.T) {
	resetFlags()
	dir := t.TempDir()
	src := filepath.Join(dir, "bad.src")
	if err := os.WriteFile(src, []byte("x ;\n"), 0644); err != nil {
		t.Fatal(err)
	}
	cfg := filepath.Join(dir, "ralphcc.yaml")
	os.WriteFile(cfg, []byte(""), 0644)
	configPath = cfg

	var stdout, errOut bytes.Buffer
	cmd := newRootCmd(&stdout, &errOut)
	cmd.SetArgs([]string{src})

	err := cmd.Execute()
	if err == nil {
		t.Fatal("expected an error for malformed toylang source")
	}
	if exitCode != exitDiagErr {
		t.Errorf("expected exitDiagErr, got %d", exitCode)
	}
}
