package intern

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestInternDeduplicates(t *testing.T) {
	tbl := New()
	a := tbl.Intern("hello")
	b := tbl.Intern("hello")
	c := tbl.Intern("world")

	require.Equal(t, a, b)
	require.NotEqual(t, a, c)
	require.Equal(t, "hello", tbl.Lookup(a))
	require.Equal(t, "world", tbl.Lookup(c))
	require.Equal(t, 2, tbl.Len())
}

func TestInternEmptyString(t *testing.T) {
	tbl := New()
	id := tbl.Intern("")
	require.Equal(t, ID(0), id)
}
