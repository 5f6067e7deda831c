// Package features validates raw scoring input into the fixed-order
// numeric vector the classifier was trained on.
package features

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

// Dim is the number of measurements in a feature vector.
const Dim = 8

// Keys lists the required input fields in classifier training order.
// The order is load-bearing: the model artifact is verified against it.
var Keys = [Dim]string{
	"pregnancies",
	"glucose",
	"bloodpressure",
	"skinthickness",
	"insulin",
	"bmi",
	"dpf",
	"age",
}

// Vector is one patient's measurements in training order.
type Vector struct {
	Pregnancies   float64 `json:"pregnancies"`
	Glucose       float64 `json:"glucose"`
	BloodPressure float64 `json:"bloodpressure"`
	SkinThickness float64 `json:"skinthickness"`
	Insulin       float64 `json:"insulin"`
	BMI           float64 `json:"bmi"`
	DPF           float64 `json:"dpf"`
	Age           float64 `json:"age"`
}

// Values returns the vector as a slice in training order.
func (v Vector) Values() []float64 {
	return []float64{
		v.Pregnancies, v.Glucose, v.BloodPressure, v.SkinThickness,
		v.Insulin, v.BMI, v.DPF, v.Age,
	}
}

// ErrorKind discriminates validation failures.
type ErrorKind string

const (
	KindMissingField  ErrorKind = "missing_field"
	KindInvalidNumber ErrorKind = "invalid_number"
)

// ValidationError reports a single bad or missing input field.
type ValidationError struct {
	Kind  ErrorKind
	Field string
	Value any
}

func (e *ValidationError) Error() string {
	if e.Kind == KindMissingField {
		return fmt.Sprintf("missing required field %q", e.Field)
	}
	return fmt.Sprintf("field %q is not a finite number: %v", e.Field, e.Value)
}

// Extract validates raw input and builds the feature vector.
// All 8 keys must be present and parse as finite floats. Values are not
// range-checked: plausibility is the caller's concern, this is a purely
// syntactic validator.
func Extract(raw map[string]any) (Vector, error) {
	var vals [Dim]float64
	for i, key := range Keys {
		rv, ok := raw[key]
		if !ok || rv == nil {
			return Vector{}, &ValidationError{Kind: KindMissingField, Field: key}
		}
		f, err := toFloat(rv)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return Vector{}, &ValidationError{Kind: KindInvalidNumber, Field: key, Value: rv}
		}
		vals[i] = f
	}

	return Vector{
		Pregnancies:   vals[0],
		Glucose:       vals[1],
		BloodPressure: vals[2],
		SkinThickness: vals[3],
		Insulin:       vals[4],
		BMI:           vals[5],
		DPF:           vals[6],
		Age:           vals[7],
	}, nil
}

// toFloat coerces the value types a JSON body can carry.
func toFloat(v any) (float64, error) {
	switch x := v.(type) {
	case float64:
		return x, nil
	case float32:
		return float64(x), nil
	case int:
		return float64(x), nil
	case int64:
		return float64(x), nil
	case json.Number:
		return x.Float64()
	case string:
		return strconv.ParseFloat(x, 64)
	default:
		return 0, fmt.Errorf("unsupported type %T", v)
	}
}
