package report

import (
	"strings"
	"testing"
	"time"

	"github.com/pkale/glucorisk/internal/features"
	"github.com/pkale/glucorisk/internal/history"
	"github.com/pkale/glucorisk/internal/tier"
)

func TestRender_ContainsRequiredFields(t *testing.T) {
	rec := &history.Record{
		Seq:       4,
		Timestamp: time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC),
		Name:      "Jordan Vale",
		PatientID: "P-1042",
		Features: features.Vector{
			Glucose: 150, BMI: 33.5, Age: 45,
		},
		Probability: 56.1,
		RiskLevel:   tier.Moderate,
	}

	doc := Render(rec)
	for _, want := range []string{
		"Diabetes Risk Assessment Report",
		"Jordan Vale",
		"P-1042",
		"150",
		"33.5",
		"45",
		"56.10%",
		string(tier.Moderate),
	} {
		if !strings.Contains(doc, want) {
			t.Errorf("report missing %q:\n%s", want, doc)
		}
	}
}

func TestRender_MissingIdentity(t *testing.T) {
	rec := &history.Record{
		Timestamp:   time.Now(),
		Probability: 12,
		RiskLevel:   tier.Low,
	}

	doc := Render(rec)
	if !strings.Contains(doc, "(not provided)") {
		t.Errorf("expected placeholder for missing identity:\n%s", doc)
	}
}
