// Package keystroke implements the hybrid authentication decision: an
// allow-listed subset of users is scored by a pre-trained model, everyone
// else by z-score similarity against their stored feature vectors.
package keystroke

import (
	"fmt"

	"github.com/pavithraa18/typeidmain1/internal/domain"
)

// genuineProbability is the model cutoff for granting access.
const genuineProbability = 0.5

// Decision is the outcome of evaluating one login attempt.
type Decision struct {
	Granted bool
	Method  string
	Score   float64
}

// Engine routes login attempts to the model or the statistical scorer.
type Engine struct {
	allowlist  *Allowlist
	model      *Model
	scorer     ZScoreScorer
	minSamples int
}

// NewEngine constructs an Engine. The model may be nil when no allow-listed
// users exist; allow-listed lookups then fall through to the statistical
// branch.
func NewEngine(allowlist *Allowlist, model *Model, scorer ZScoreScorer, minSamples int) *Engine {
	if minSamples < 1 {
		minSamples = 1
	}
	return &Engine{
		allowlist:  allowlist,
		model:      model,
		scorer:     scorer,
		minSamples: minSamples,
	}
}

// Evaluate decides whether the probe vector matches the user. The password
// check happens upstream; this only judges the keystroke sample.
func (e *Engine) Evaluate(username string, probe []float64, samples [][]float64) (Decision, error) {
	if e.UsesModel(username) {
		probability, err := e.model.Predict(probe)
		if err != nil {
			return Decision{Method: domain.MethodModel}, err
		}
		return Decision{
			Granted: probability >= genuineProbability,
			Method:  domain.MethodModel,
			Score:   probability,
		}, nil
	}

	if len(samples) < e.minSamples {
		// Not enough history for a meaningful comparison; the password
		// check alone decides and the vector is enrolled. A vector that
		// does not line up with the stored samples would make every
		// later statistical comparison fail, so it is rejected instead
		// of enrolled.
		if len(samples) > 0 && len(probe) != len(samples[0]) {
			return Decision{Method: domain.MethodEnroll}, fmt.Errorf("%w: stored samples have %d features, probe has %d", ErrDimensionMismatch, len(samples[0]), len(probe))
		}
		return Decision{Granted: true, Method: domain.MethodEnroll, Score: 0}, nil
	}

	accepted, similarity, err := e.scorer.Accept(samples, probe)
	if err != nil {
		return Decision{Method: domain.MethodZScore}, err
	}
	return Decision{Granted: accepted, Method: domain.MethodZScore, Score: similarity}, nil
}

// UsesModel reports whether login attempts for the user are scored by the
// pre-trained model.
func (e *Engine) UsesModel(username string) bool {
	return e.model != nil && e.allowlist.Contains(username)
}

// MinSamples exposes the enrollment cutoff.
func (e *Engine) MinSamples() int {
	return e.minSamples
}

// ModelUserCount reports how many usernames route to the model.
func (e *Engine) ModelUserCount() int {
	return e.allowlist.Len()
}
