package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileReturnsZeroValue(t *testing.T) {
	p, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	require.Equal(t, &Project{}, p)
}

func TestLoadParsesFields(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "ralphcc.yaml")
	contents := `
include_paths:
  - vendor/include
defines:
  - DEBUG=1
log_level: WARN
`
	require.NoError(t, os.WriteFile(path, []byte(contents), 0644))

	p, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, []string{"vendor/include"}, p.IncludePaths)
	require.Equal(t, []string{"DEBUG=1"}, p.Defines)
	require.Equal(t, "WARN", p.LogLevel)
}

func TestLoadInvalidYAMLErrors(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "ralphcc.yaml")
	require.NoError(t, os.WriteFile(path, []byte("include_paths: [unterminated"), 0644))

	_, err := Load(path)
	require.Error(t, err)
}

func TestCompileEpochHonorsSourceDateEpoch(t *testing.T) {
	t.Setenv("SOURCE_DATE_EPOCH", "1700000000")
	require.Equal(t, uint64(1700000000), CompileEpoch())
}

func TestCompileEpochFallsBackWhenUnset(t *testing.T) {
	os.Unsetenv("SOURCE_DATE_EPOCH")
	if CompileEpoch() == 0 {
		t.Error("expected a nonzero fallback epoch")
	}
}
