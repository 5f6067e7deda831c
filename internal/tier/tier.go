// Package tier maps a risk probability onto a discrete risk tier.
//
// The three tiers partition [0,100] with half-open boundaries:
// [0,30) low, [30,70) moderate, [70,100] high. Classification happens on
// the unrounded probability; rounding to two decimals is display-only.
package tier

import "math"

// Tier is a discrete risk bucket.
type Tier string

const (
	Low      Tier = "Low Risk"
	Moderate Tier = "Moderate Risk"
	High     Tier = "High Risk"
)

// Threshold boundaries in probability percent.
const (
	ModerateThreshold = 30.0
	HighThreshold     = 70.0
)

// Presentation colors per tier.
const (
	colorLow      = "#22c55e"
	colorModerate = "#facc15"
	colorHigh     = "#ef4444"
)

// Result carries the tier plus its presentation payload.
type Result struct {
	Tier       Tier   `json:"tier"`
	Color      string `json:"color"`
	Suggestion string `json:"suggestion"`
}

// Classify maps a probability percent to its tier. Pure and total.
func Classify(probabilityPercent float64) Result {
	switch {
	case probabilityPercent < ModerateThreshold:
		return Result{
			Tier:       Low,
			Color:      colorLow,
			Suggestion: "Maintain healthy diet and regular exercise.",
		}
	case probabilityPercent < HighThreshold:
		return Result{
			Tier:       Moderate,
			Color:      colorModerate,
			Suggestion: "Monitor blood sugar levels and consult a doctor if needed.",
		}
	default:
		return Result{
			Tier:       High,
			Color:      colorHigh,
			Suggestion: "High probability detected. Please consult a healthcare professional immediately.",
		}
	}
}

// Round2 rounds a probability to two decimal places for display.
func Round2(p float64) float64 {
	return math.Round(p*100) / 100
}
