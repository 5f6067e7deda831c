// Package report renders one history record into a fixed-layout text
// document. It is a pure formatter: it never touches storage and has no
// opinion on where the record came from.
package report

import (
	"fmt"
	"strings"

	"github.com/pkale/glucorisk/internal/history"
)

const title = "Diabetes Risk Assessment Report"

// Render produces the report document for a single record.
// Layout: title, identity, key measurements, probability, risk tier.
func Render(rec *history.Record) string {
	var b strings.Builder

	rule := strings.Repeat("=", len(title))
	fmt.Fprintf(&b, "%s\n%s\n\n", title, rule)

	name := rec.Name
	if name == "" {
		name = "(not provided)"
	}
	patientID := rec.PatientID
	if patientID == "" {
		patientID = "(not provided)"
	}

	fmt.Fprintf(&b, "Patient name : %s\n", name)
	fmt.Fprintf(&b, "Patient ID   : %s\n", patientID)
	fmt.Fprintf(&b, "Recorded at  : %s\n\n", rec.Timestamp.Format("2006-01-02 15:04:05"))

	fmt.Fprintf(&b, "Glucose      : %g\n", rec.Features.Glucose)
	fmt.Fprintf(&b, "BMI          : %g\n", rec.Features.BMI)
	fmt.Fprintf(&b, "Age          : %g\n\n", rec.Features.Age)

	fmt.Fprintf(&b, "Risk probability : %.2f%%\n", rec.Probability)
	fmt.Fprintf(&b, "Risk tier        : %s\n", rec.RiskLevel)

	return b.String()
}
