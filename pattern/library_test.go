package pattern

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryLibraryLookup(t *testing.T) {
	lib := NewInMemoryLibrary()
	lib.AddPattern("summarize", "Summarize: {{input}}")
	lib.AddStrategy("cot", "step-by-step reasoning", "Think step by step.")
	lib.AddContext("project", "We ship a CLI tool.")

	p, err := lib.Pattern("summarize")
	require.NoError(t, err)
	assert.Equal(t, "Summarize: {{input}}", p.Body)

	s, err := lib.Strategy("cot")
	require.NoError(t, err)
	assert.Equal(t, "Think step by step.", s.Prompt)
	assert.Equal(t, "step-by-step reasoning", s.Description)

	c, err := lib.Context("project")
	require.NoError(t, err)
	assert.Equal(t, "We ship a CLI tool.", c.Body)
}

func TestInMemoryLibraryNotFound(t *testing.T) {
	lib := NewInMemoryLibrary()

	_, err := lib.Pattern("nope")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.Contains(t, err.Error(), "nope")

	_, err = lib.Strategy("nope")
	assert.True(t, errors.Is(err, ErrNotFound))

	_, err = lib.Context("nope")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestInMemoryLibraryLastWriteWins(t *testing.T) {
	lib := NewInMemoryLibrary()
	lib.AddPattern("p", "first")
	lib.AddPattern("p", "second")

	p, err := lib.Pattern("p")
	require.NoError(t, err)
	assert.Equal(t, "second", p.Body)
}
