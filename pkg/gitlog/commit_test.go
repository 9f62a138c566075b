package gitlog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShortHash(t *testing.T) {
	t.Parallel()

	c := &Commit{Hash: "0123456789abcdef0123456789abcdef01234567"}
	assert.Equal(t, "01234567", c.ShortHash())

	stub := &Commit{Hash: "abc"}
	assert.Equal(t, "abc", stub.ShortHash())
}

func TestTouchesAndChange(t *testing.T) {
	t.Parallel()

	c := &Commit{Files: []FileChange{
		{Path: "src/app.js", LinesAdded: 12, LinesDeleted: 3},
		{Path: "src/util.js", LinesAdded: 1},
	}}

	assert.True(t, c.Touches("src/app.js"))
	assert.False(t, c.Touches("src/missing.js"))

	change := c.Change("src/app.js")
	require.NotNil(t, change)
	assert.Equal(t, 12, change.LinesAdded)
	assert.Equal(t, 3, change.LinesDeleted)

	assert.Nil(t, c.Change("src/missing.js"))
}

func TestMessageMatches(t *testing.T) {
	t.Parallel()

	c := &Commit{Message: "Fix NPE in checkout flow\n\nCloses #42"}

	assert.True(t, c.MessageMatches(DefaultFixKeywords))
	assert.True(t, c.MessageMatches([]string{"CHECKOUT"}))
	assert.False(t, c.MessageMatches([]string{"refactor"}))
	assert.False(t, c.MessageMatches(nil))
}
