package cache

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crosslint-tech/crosslint/pkg/funcspan"
)

func TestRunCachesRoundTrip(t *testing.T) {
	t.Parallel()

	caches, err := NewRunCaches(0, 0)
	require.NoError(t, err)

	_, ok := caches.Source("src/app.js")
	assert.False(t, ok)

	caches.PutSource("src/app.js", []byte("let x = 1;\n"))

	content, ok := caches.Source("src/app.js")
	require.True(t, ok)
	assert.Equal(t, []byte("let x = 1;\n"), content)

	spans := []funcspan.Span{{Name: "handler", FilePath: "src/app.js", StartLine: 3, EndLine: 9}}
	caches.PutSpans("src/app.js", spans)

	got, ok := caches.Spans("src/app.js")
	require.True(t, ok)
	assert.Equal(t, spans, got)

	sources, spanCount := caches.Len()
	assert.Equal(t, 1, sources)
	assert.Equal(t, 1, spanCount)
}

func TestRunCachesEvictOldest(t *testing.T) {
	t.Parallel()

	caches, err := NewRunCaches(2, 2)
	require.NoError(t, err)

	for i := range 3 {
		caches.PutSource(fmt.Sprintf("file-%d.js", i), []byte{byte(i)})
	}

	_, ok := caches.Source("file-0.js")
	assert.False(t, ok)

	_, ok = caches.Source("file-2.js")
	assert.True(t, ok)

	sources, _ := caches.Len()
	assert.Equal(t, 2, sources)
}
