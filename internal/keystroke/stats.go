package keystroke

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/stat"
)

// minStdDev floors per-feature deviation so a constant feature across the
// stored samples cannot blow up the z-score.
const minStdDev = 1e-6

var (
	// ErrDimensionMismatch signals feature vectors of unequal length.
	ErrDimensionMismatch = errors.New("keystroke: feature dimension mismatch")
	// ErrNoSamples signals that no stored samples are available to score against.
	ErrNoSamples = errors.New("keystroke: no stored samples")
)

// ZScoreScorer compares a probe vector to stored samples via per-feature
// z-score normalization.
type ZScoreScorer struct {
	// Threshold is the maximum mean absolute z-score still accepted.
	Threshold float64
}

// Score computes the mean absolute z-score of probe against samples and a
// similarity in (0, 1] derived from it.
func (z ZScoreScorer) Score(samples [][]float64, probe []float64) (similarity, meanAbsZ float64, err error) {
	if len(samples) == 0 {
		return 0, 0, ErrNoSamples
	}
	dims := len(probe)
	if dims == 0 {
		return 0, 0, fmt.Errorf("%w: empty probe", ErrDimensionMismatch)
	}
	for _, sample := range samples {
		if len(sample) != dims {
			return 0, 0, fmt.Errorf("%w: stored sample has %d features, probe has %d", ErrDimensionMismatch, len(sample), dims)
		}
	}

	column := make([]float64, len(samples))
	var total float64
	for d := 0; d < dims; d++ {
		for i, sample := range samples {
			column[i] = sample[d]
		}
		mean, std := stat.MeanStdDev(column, nil)
		if len(samples) < 2 || std < minStdDev {
			std = minStdDev
		}
		delta := probe[d] - mean
		if delta < 0 {
			delta = -delta
		}
		total += delta / std
	}
	meanAbsZ = total / float64(dims)
	return 1 / (1 + meanAbsZ), meanAbsZ, nil
}

// Accept reports whether the probe is close enough to the stored samples,
// together with the similarity score.
func (z ZScoreScorer) Accept(samples [][]float64, probe []float64) (bool, float64, error) {
	similarity, meanAbsZ, err := z.Score(samples, probe)
	if err != nil {
		return false, 0, err
	}
	return meanAbsZ <= z.Threshold, similarity, nil
}
