package keystroke

import (
	"encoding/json"
	"fmt"
	"math"
	"os"

	"gonum.org/v1/gonum/mat"
)

// Model is a pre-trained logistic regression over standardized keystroke
// features. The weights are produced offline; this package only runs
// inference.
type Model struct {
	FeatureMeans []float64 `json:"feature_means"`
	FeatureStds  []float64 `json:"feature_stds"`
	Weights      []float64 `json:"weights"`
	Bias         float64   `json:"bias"`
}

// LoadModel reads model parameters from a JSON file.
func LoadModel(path string) (*Model, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read model: %w", err)
	}
	var m Model
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse model: %w", err)
	}
	if err := m.validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

func (m *Model) validate() error {
	dims := len(m.Weights)
	if dims == 0 {
		return fmt.Errorf("model has no weights")
	}
	if len(m.FeatureMeans) != dims || len(m.FeatureStds) != dims {
		return fmt.Errorf("%w: model scaling parameters do not match %d weights", ErrDimensionMismatch, dims)
	}
	for i, std := range m.FeatureStds {
		if std <= 0 {
			return fmt.Errorf("model feature %d has non-positive stddev", i)
		}
	}
	return nil
}

// Dims returns the feature dimension the model expects.
func (m *Model) Dims() int {
	return len(m.Weights)
}

// Predict returns the genuine-user probability for a probe vector.
func (m *Model) Predict(probe []float64) (float64, error) {
	dims := m.Dims()
	if len(probe) != dims {
		return 0, fmt.Errorf("%w: model expects %d features, probe has %d", ErrDimensionMismatch, dims, len(probe))
	}
	standardized := make([]float64, dims)
	for i, v := range probe {
		standardized[i] = (v - m.FeatureMeans[i]) / m.FeatureStds[i]
	}
	logit := mat.Dot(mat.NewVecDense(dims, standardized), mat.NewVecDense(dims, m.Weights)) + m.Bias
	return sigmoid(logit), nil
}

func sigmoid(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}
