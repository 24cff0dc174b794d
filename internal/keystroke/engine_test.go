package keystroke

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pavithraa18/typeidmain1/internal/domain"
)

func testModel() *Model {
	return &Model{
		FeatureMeans: []float64{100, 50},
		FeatureStds:  []float64{10, 5},
		Weights:      []float64{2, 2},
		Bias:         0,
	}
}

func TestEvaluateRoutesAllowlistedUserToModel(t *testing.T) {
	engine := NewEngine(NewAllowlist("Alice"), testModel(), ZScoreScorer{Threshold: 1.5}, 3)

	decision, err := engine.Evaluate("alice", []float64{110, 55}, nil)
	require.NoError(t, err)
	assert.True(t, decision.Granted)
	assert.Equal(t, domain.MethodModel, decision.Method)
	assert.Greater(t, decision.Score, 0.95)

	decision, err = engine.Evaluate("ALICE", []float64{90, 45}, nil)
	require.NoError(t, err)
	assert.False(t, decision.Granted)
	assert.Equal(t, domain.MethodModel, decision.Method)
}

func TestEvaluateStatisticalBranch(t *testing.T) {
	engine := NewEngine(NewAllowlist("alice"), testModel(), ZScoreScorer{Threshold: 1.0}, 3)
	samples := [][]float64{
		{100, 50},
		{110, 50},
		{90, 50},
	}

	decision, err := engine.Evaluate("bob", []float64{105, 50}, samples)
	require.NoError(t, err)
	assert.True(t, decision.Granted)
	assert.Equal(t, domain.MethodZScore, decision.Method)

	decision, err = engine.Evaluate("bob", []float64{250, 50}, samples)
	require.NoError(t, err)
	assert.False(t, decision.Granted)
	assert.Equal(t, domain.MethodZScore, decision.Method)
}

func TestEvaluateEnrollsBelowMinimumSamples(t *testing.T) {
	engine := NewEngine(NewAllowlist(), nil, ZScoreScorer{Threshold: 1.0}, 3)
	samples := [][]float64{{100, 50}, {110, 50}}

	decision, err := engine.Evaluate("bob", []float64{999, 999}, samples)
	require.NoError(t, err)
	assert.True(t, decision.Granted, "password check alone decides during enrollment")
	assert.Equal(t, domain.MethodEnroll, decision.Method)
}

func TestEvaluateEnrollmentRejectsMismatchedVector(t *testing.T) {
	engine := NewEngine(NewAllowlist(), nil, ZScoreScorer{Threshold: 1.0}, 3)
	samples := [][]float64{{100, 50}, {110, 50}}

	decision, err := engine.Evaluate("bob", []float64{100, 50, 25}, samples)
	assert.ErrorIs(t, err, ErrDimensionMismatch)
	assert.False(t, decision.Granted)
	assert.Equal(t, domain.MethodEnroll, decision.Method)

	// The first vector of a fresh profile sets the dimension.
	decision, err = engine.Evaluate("bob", []float64{100, 50, 25}, nil)
	require.NoError(t, err)
	assert.True(t, decision.Granted)
}

func TestEvaluateNilModelFallsThrough(t *testing.T) {
	engine := NewEngine(NewAllowlist("alice"), nil, ZScoreScorer{Threshold: 1.0}, 1)
	samples := [][]float64{{100, 50}, {100, 50}, {100, 50}}

	decision, err := engine.Evaluate("alice", []float64{100, 50}, samples)
	require.NoError(t, err)
	assert.Equal(t, domain.MethodZScore, decision.Method)
}

func TestEvaluateDimensionMismatch(t *testing.T) {
	engine := NewEngine(NewAllowlist(), nil, ZScoreScorer{Threshold: 1.0}, 1)
	samples := [][]float64{{100, 50}, {100, 50}, {100, 50}}

	_, err := engine.Evaluate("bob", []float64{100}, samples)
	assert.ErrorIs(t, err, ErrDimensionMismatch)
}

func TestLoadAllowlistFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model_users.txt")
	contents := "# users scored by the trained model\nalice\n  Bob  \n\ncarol\n"
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o600))

	list, err := LoadAllowlist(path)
	require.NoError(t, err)
	assert.Equal(t, 3, list.Len())
	assert.True(t, list.Contains("alice"))
	assert.True(t, list.Contains("BOB"))
	assert.True(t, list.Contains("carol"))
	assert.False(t, list.Contains("# users scored by the trained model"))
	assert.False(t, list.Contains("dave"))
}
