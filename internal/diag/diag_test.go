package diag

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestReporterCountsBySeverity(t *testing.T) {
	var buf bytes.Buffer
	r := New(&buf, Debug)

	r.Warnf(Loc{File: "a.c", Line: 1, Column: 1}, "unused macro %s", "FOO")
	r.Errorf(Loc{File: "a.c", Line: 2, Column: 1}, "undefined behavior")

	require.Equal(t, 1, r.Count(Warn))
	require.Equal(t, 1, r.Count(Error))
	require.True(t, r.HasErrors())
}

func TestReporterMinLevelFiltersOutput(t *testing.T) {
	var buf bytes.Buffer
	r := New(&buf, Error)

	r.Warnf(Loc{File: "a.c", Line: 1}, "should not print")
	if strings.Contains(buf.String(), "should not print") {
		t.Error("warning below MinLevel should not reach the writer")
	}
	require.Equal(t, 1, r.Count(Warn), "counting still happens even when filtered from output")
}

func TestReporterFormatsLocation(t *testing.T) {
	var buf bytes.Buffer
	r := New(&buf, Debug)
	r.Errorf(Loc{File: "a.c", Line: 3, Column: 5}, "bad token")

	out := buf.String()
	require.Contains(t, out, "a.c:3:5")
	require.Contains(t, out, "bad token")
}

func TestReporterNoErrorsByDefault(t *testing.T) {
	var buf bytes.Buffer
	r := New(&buf, Debug)
	require.False(t, r.HasErrors())
	require.Empty(t, r.Records())
}
