package metrics

import (
	"math"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inferloop/tabanon/pkg/dataset"
)

func TestKAnonymity(t *testing.T) {
	calc := NewCalculator(testLogger())

	data, err := dataset.New([]string{"age", "city", "disease"}, [][]string{
		{"20", "A", "Cancer"},
		{"20", "A", "Flu"},
		{"20", "A", "Flu"},
		{"30", "B", "Cancer"},
		{"30", "B", "Flu"},
	})
	require.NoError(t, err)

	k, err := calc.KAnonymity(data, []string{"age", "city"})
	require.NoError(t, err)
	assert.Equal(t, 2, k)

	// A single equivalence class spans the whole table.
	k, err = calc.KAnonymity(data, []string{"disease"})
	require.NoError(t, err)
	assert.Equal(t, 2, k)
}

func TestKAnonymitySingleClass(t *testing.T) {
	calc := NewCalculator(testLogger())

	data, err := dataset.New([]string{"age", "disease"}, [][]string{
		{"20", "Cancer"},
		{"20", "Flu"},
		{"20", "TB"},
	})
	require.NoError(t, err)

	k, err := calc.KAnonymity(data, []string{"age"})
	require.NoError(t, err)
	assert.Equal(t, 3, k)
}

func TestTCloseness(t *testing.T) {
	calc := NewCalculator(testLogger())

	// Two classes, each fully skewed against a 50/50 global distribution.
	data, err := dataset.New([]string{"city", "disease"}, [][]string{
		{"A", "Cancer"},
		{"A", "Cancer"},
		{"B", "Flu"},
		{"B", "Flu"},
	})
	require.NoError(t, err)

	value, err := calc.TCloseness(data, []string{"city"}, "disease")
	require.NoError(t, err)
	assert.InDelta(t, 0.25, value, 1e-9)
}

func TestTClosenessUniform(t *testing.T) {
	calc := NewCalculator(testLogger())

	// Every class mirrors the global distribution exactly.
	data, err := dataset.New([]string{"city", "disease"}, [][]string{
		{"A", "Cancer"},
		{"A", "Flu"},
		{"B", "Cancer"},
		{"B", "Flu"},
	})
	require.NoError(t, err)

	value, err := calc.TCloseness(data, []string{"city"}, "disease")
	require.NoError(t, err)
	assert.InDelta(t, 0, value, 1e-9)
}

func TestBasicBetaLikeness(t *testing.T) {
	calc := NewCalculator(testLogger())

	data, err := dataset.New([]string{"city", "disease"}, [][]string{
		{"A", "Cancer"},
		{"A", "Cancer"},
		{"B", "Flu"},
		{"B", "Flu"},
	})
	require.NoError(t, err)

	// q=1 against p=0.5 gives a relative gain of exactly 1.
	value, err := calc.BasicBetaLikeness(data, []string{"city"}, "disease")
	require.NoError(t, err)
	assert.InDelta(t, 1.0, value, 1e-9)
}

func TestEnhancedBetaLikenessCapsGain(t *testing.T) {
	calc := NewCalculator(testLogger())

	data, err := dataset.New([]string{"city", "disease"}, [][]string{
		{"A", "Cancer"},
		{"A", "Cancer"},
		{"B", "Flu"},
		{"B", "Flu"},
	})
	require.NoError(t, err)

	// The raw gain of 1 is capped at ln(1/0.5).
	value, err := calc.EnhancedBetaLikeness(data, []string{"city"}, "disease")
	require.NoError(t, err)
	assert.InDelta(t, math.Log(2), value, 1e-9)
}

func TestBetaLikenessUniform(t *testing.T) {
	calc := NewCalculator(testLogger())

	data, err := dataset.New([]string{"city", "disease"}, [][]string{
		{"A", "Cancer"},
		{"A", "Flu"},
		{"B", "Cancer"},
		{"B", "Flu"},
	})
	require.NoError(t, err)

	value, err := calc.BasicBetaLikeness(data, []string{"city"}, "disease")
	require.NoError(t, err)
	assert.InDelta(t, 0, value, 1e-9)
}

func TestValidationErrors(t *testing.T) {
	calc := NewCalculator(testLogger())

	data, err := dataset.New([]string{"city", "disease"}, [][]string{
		{"A", "Cancer"},
	})
	require.NoError(t, err)

	_, err = calc.KAnonymity(dataset.Empty(), []string{"city"})
	require.Error(t, err)

	_, err = calc.KAnonymity(data, nil)
	require.Error(t, err)

	_, err = calc.KAnonymity(data, []string{"zip"})
	require.Error(t, err)

	_, err = calc.TCloseness(data, []string{"city"}, "salary")
	require.Error(t, err)
}

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)
	return logger
}
