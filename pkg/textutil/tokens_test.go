package textutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

const tolerance = 1e-9

func TestWordSet(t *testing.T) {
	t.Parallel()

	set := WordSet("SQL-Injection risk in query(); SQL again")
	assert.Contains(t, set, "sql")
	assert.Contains(t, set, "injection")
	assert.Contains(t, set, "query")
	assert.Len(t, set, 6)
}

func TestJaccardWords(t *testing.T) {
	t.Parallel()

	assert.InDelta(t, 1.0, JaccardWords("unsafe eval", "Unsafe EVAL"), tolerance)
	assert.InDelta(t, 0, JaccardWords("", "unsafe eval"), tolerance)
	assert.InDelta(t, 1.0, JaccardWords("", ""), tolerance)

	// {dynamic, code} over {dynamic, code, eval, unsafe}.
	assert.InDelta(t, 0.5, JaccardWords("dynamic code", "dynamic code eval unsafe"), tolerance)
}

func TestJaccardMultisets(t *testing.T) {
	t.Parallel()

	// Repeated segments count per occurrence.
	a := []string{"src", "api", "api", "client.js"}
	b := []string{"src", "api", "client.js"}
	assert.InDelta(t, 0.75, JaccardMultisets(a, b), tolerance)

	assert.InDelta(t, 1.0, JaccardMultisets(nil, nil), tolerance)
	assert.InDelta(t, 0, JaccardMultisets(a, nil), tolerance)
}

func TestIsBinary(t *testing.T) {
	t.Parallel()

	assert.False(t, IsBinary([]byte("plain text\n")))
	assert.False(t, IsBinary(nil))
	assert.True(t, IsBinary([]byte{'e', 'l', 'f', 0x00, 0x01}))
}

func TestCountLines(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 0, CountLines(nil))
	assert.Equal(t, 1, CountLines([]byte("no trailing newline")))
	assert.Equal(t, 2, CountLines([]byte("a\nb\n")))
	assert.Equal(t, 3, CountLines([]byte("a\nb\nc")))
}
