package hierarchy

import (
	stderrors "errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inferloop/tabanon/pkg/errors"
)

func TestApply(t *testing.T) {
	h, err := New([][]string{
		{"19", "24", "27"},
		{"[10, 20[", "[20, 30[", "[20, 30["},
		{"*", "*", "*"},
	})
	require.NoError(t, err)

	assert.Equal(t, 2, h.MaxLevel())

	out, err := h.Apply([]string{"24", "19", "24"}, 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"[20, 30[", "[10, 20[", "[20, 30["}, out)

	out, err = h.Apply([]string{"24", "19"}, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"24", "19"}, out)
}

func TestApplyComposesAcrossLevels(t *testing.T) {
	h, err := New([][]string{
		{"19", "24"},
		{"[10, 20[", "[20, 30["},
		{"*", "*"},
	})
	require.NoError(t, err)

	// Already-generalized values map onwards, so one-level steps compose.
	step1, err := h.Apply([]string{"19", "24"}, 1)
	require.NoError(t, err)

	step2, err := h.Apply(step1, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"*", "*"}, step2)
}

func TestApplyLevelExceeded(t *testing.T) {
	h, err := New([][]string{{"a", "b"}})
	require.NoError(t, err)

	_, err = h.Apply([]string{"a"}, 1)
	require.Error(t, err)
	assert.True(t, stderrors.Is(err, errors.ErrLevelExceeded))
}

func TestApplyUnmappedValue(t *testing.T) {
	h, err := New([][]string{{"a", "b"}, {"*", "*"}})
	require.NoError(t, err)

	_, err = h.Apply([]string{"c"}, 1)
	require.Error(t, err)
	assert.True(t, stderrors.Is(err, errors.ErrValueNotInHierarchy))
}

func TestNewValidation(t *testing.T) {
	_, err := New(nil)
	require.Error(t, err)

	_, err = New([][]string{{}})
	require.Error(t, err)

	_, err = New([][]string{{"a", "b"}, {"*"}})
	require.Error(t, err)
	assert.True(t, stderrors.Is(err, errors.ErrRaggedHierarchy))
}

func TestIdentity(t *testing.T) {
	h := Identity([]string{"x", "y", "z"})
	require.NotNil(t, h)
	assert.Equal(t, 0, h.MaxLevel())

	out, err := h.Apply([]string{"y", "x"}, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"y", "x"}, out)

	_, err = h.Apply([]string{"y"}, 1)
	require.Error(t, err)
	assert.True(t, stderrors.Is(err, errors.ErrLevelExceeded))
}

func TestReadCSV(t *testing.T) {
	input := "19,[10 - 20[,*\n24,[20 - 30[,*\n27,[20 - 30[,*\n"

	h, err := ReadCSV(strings.NewReader(input))
	require.NoError(t, err)

	assert.Equal(t, 2, h.MaxLevel())
	out, err := h.Apply([]string{"27", "19"}, 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"[20 - 30[", "[10 - 20["}, out)
}
