package models

import (
	"strings"
	"time"
)

// ChatReply is the assistant answer handed back to the dashboard.
type ChatReply struct {
	Response         string
	SuggestedQueries []string
	ResolvedPath     string
	Attempts         int
	Elapsed          time.Duration
}

// PredictionSeverity is the severity label reported by the prediction
// backend. Upstream casing is not guaranteed, so values are normalised on
// ingest.
type PredictionSeverity string

const (
	PredictionSeverityLow      PredictionSeverity = "low"
	PredictionSeverityMedium   PredictionSeverity = "medium"
	PredictionSeverityHigh     PredictionSeverity = "high"
	PredictionSeverityCritical PredictionSeverity = "critical"
)

// NormalisePredictionSeverity folds case and reports whether the value is one
// the prediction backend is allowed to return.
func NormalisePredictionSeverity(raw string) (PredictionSeverity, bool) {
	switch PredictionSeverity(strings.ToLower(strings.TrimSpace(raw))) {
	case PredictionSeverityLow:
		return PredictionSeverityLow, true
	case PredictionSeverityMedium:
		return PredictionSeverityMedium, true
	case PredictionSeverityHigh:
		return PredictionSeverityHigh, true
	case PredictionSeverityCritical:
		return PredictionSeverityCritical, true
	default:
		return "", false
	}
}

// LossPrediction is the validated answer from the prediction backend.
// PredictedLossM is expressed in millions of USD.
type LossPrediction struct {
	PredictedLossM float64
	Severity       PredictionSeverity
}

// RiskLabel buckets a predicted loss for display.
type RiskLabel string

const (
	RiskLow    RiskLabel = "Low Risk"
	RiskMedium RiskLabel = "Medium Risk"
	RiskHigh   RiskLabel = "High Risk"
)

// RiskLabelForLoss maps predicted loss (millions USD) to the dashboard risk
// label: <10 low, <50 medium, otherwise high.
func RiskLabelForLoss(lossM float64) RiskLabel {
	switch {
	case lossM < 10:
		return RiskLow
	case lossM < 50:
		return RiskMedium
	default:
		return RiskHigh
	}
}

// ConfidenceBand is the simplified ±20% interval shown with a prediction.
type ConfidenceBand struct {
	LowerM float64
	UpperM float64
}

// BandForLoss derives the display confidence band from a point prediction.
func BandForLoss(lossM float64) ConfidenceBand {
	return ConfidenceBand{LowerM: lossM * 0.8, UpperM: lossM * 1.2}
}

// PredictionReport is the full assessment the dashboard renders for one
// submitted incident.
type PredictionReport struct {
	PredictionID    string
	Observation     IncidentObservation
	Derived         DerivedIncidentFeatures
	PredictedLossM  float64
	Severity        PredictionSeverity
	Risk            RiskLabel
	Confidence      ConfidenceBand
	Recommendations []string
	CreatedAt       time.Time
}
