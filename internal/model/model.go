// Package model wraps the pre-trained diabetes classifier.
//
// The classifier is loaded once at process start from a versioned artifact
// and is immutable afterwards, so it is safe for unsynchronized concurrent
// reads. A missing or corrupt artifact is fatal: the process must not
// serve scoring requests without a model.
package model

import (
	"encoding/json"
	"fmt"
	"math"
	"os"

	"github.com/pkale/glucorisk/internal/features"
)

// Artifact is the on-disk representation of a trained classifier:
// a standard scaler plus logistic-regression weights, exported with the
// feature order it was fitted on.
type Artifact struct {
	Version      string    `json:"version"`
	FeatureNames []string  `json:"featureNames"`
	Means        []float64 `json:"means"`
	Scales       []float64 `json:"scales"`
	Coefficients []float64 `json:"coefficients"`
	Intercept    float64   `json:"intercept"`
}

// ModelError wraps a runtime inference failure so it reaches callers as a
// structured server fault rather than an unstructured panic.
type ModelError struct {
	Cause error
}

func (e *ModelError) Error() string {
	return fmt.Sprintf("model inference failed: %v", e.Cause)
}

func (e *ModelError) Unwrap() error { return e.Cause }

// Classifier is the loaded, immutable model.
type Classifier struct {
	artifact Artifact
}

// Load reads and verifies a classifier artifact.
func Load(path string) (*Classifier, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read model artifact: %w", err)
	}

	var a Artifact
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, fmt.Errorf("parse model artifact: %w", err)
	}

	if a.Version == "" {
		return nil, fmt.Errorf("model artifact %s has no version", path)
	}
	if len(a.FeatureNames) != features.Dim {
		return nil, fmt.Errorf("model artifact expects %d features, need %d", len(a.FeatureNames), features.Dim)
	}
	for i, name := range a.FeatureNames {
		if name != features.Keys[i] {
			return nil, fmt.Errorf("model artifact feature %d is %q, expected %q", i, name, features.Keys[i])
		}
	}
	if len(a.Means) != features.Dim || len(a.Scales) != features.Dim || len(a.Coefficients) != features.Dim {
		return nil, fmt.Errorf("model artifact %s has inconsistent parameter lengths", path)
	}
	for i, s := range a.Scales {
		if s == 0 {
			return nil, fmt.Errorf("model artifact scale %d is zero", i)
		}
	}

	return &Classifier{artifact: a}, nil
}

// Version returns the artifact version string.
func (c *Classifier) Version() string { return c.artifact.Version }

// PredictProba returns the probability of the positive class in [0,1].
func (c *Classifier) PredictProba(vec []float64) (float64, error) {
	if len(vec) != features.Dim {
		return 0, &ModelError{Cause: fmt.Errorf("vector has %d values, expected %d", len(vec), features.Dim)}
	}

	z := c.artifact.Intercept
	for i, v := range vec {
		scaled := (v - c.artifact.Means[i]) / c.artifact.Scales[i]
		z += c.artifact.Coefficients[i] * scaled
	}

	p := 1.0 / (1.0 + math.Exp(-z))
	if math.IsNaN(p) || math.IsInf(p, 0) {
		return 0, &ModelError{Cause: fmt.Errorf("inference produced non-finite probability for input %v", vec)}
	}
	return p, nil
}

// Predict returns the predicted class: 1 for diabetic, 0 otherwise.
func (c *Classifier) Predict(vec []float64) (int, error) {
	p, err := c.PredictProba(vec)
	if err != nil {
		return 0, err
	}
	if p >= 0.5 {
		return 1, nil
	}
	return 0, nil
}

// Score converts a feature vector into a risk probability percent in [0,100].
func (c *Classifier) Score(v features.Vector) (float64, error) {
	p, err := c.PredictProba(v.Values())
	if err != nil {
		return 0, err
	}
	return p * 100, nil
}
