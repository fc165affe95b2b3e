package features

import (
	"math"
	"sort"
	"strings"

	"github.com/imj25/digital-shield/internal/models"
)

// EncodedFeatureRow is a flat, stably-ordered feature row reproducing the
// training-time preprocessing. The primary prediction path sends four raw
// fields and lets the server encode them; this local encoder is kept for
// compatibility testing against the trained model's contract.
type EncodedFeatureRow struct {
	columns []Column
}

// Column is one named cell of an encoded row. Missing marks values that came
// out of the log/ratio arithmetic as ±Inf; those must never be serialized as
// a plain number.
type Column struct {
	Name    string
	Value   float64
	Missing bool
}

// Categorical columns that remain single string-valued cells.
const severityColumn = "severity_kmeans"

// SeverityValue returns the single categorical severity cell. The trained
// model expects severity as one column, not one-hot indicators; whether that
// matches the live model artifact is an open integration question, so the
// convention is preserved rather than "fixed" here.
func (r EncodedFeatureRow) SeverityValue(derived models.DerivedIncidentFeatures) string {
	return string(derived.SeverityTier)
}

// Columns returns the numeric columns in lexicographically sorted order. The
// full one-hot vocabulary is always present, so the row shape is identical
// regardless of which categories were active.
func (r EncodedFeatureRow) Columns() []Column {
	return r.columns
}

// Lookup finds a column by name.
func (r EncodedFeatureRow) Lookup(name string) (Column, bool) {
	for _, c := range r.columns {
		if c.Name == name {
			return c, true
		}
	}
	return Column{}, false
}

// Encode assembles the complete feature row for one incident: engineered
// numeric features plus one-hot indicators over the fixed closed vocabularies.
func Encode(obs models.IncidentObservation, derived models.DerivedIncidentFeatures) EncodedFeatureRow {
	users := float64(obs.AffectedUsers)
	breach := obs.DataBreachGB
	resolution := derived.ResolutionTimeHours

	logUsers := math.Log1p(users)
	logBreach := math.Log1p(breach)
	logResolution := math.Log1p(resolution)

	impactIndex := users * logBreach
	usersPerHour := users / (1.0 + resolution)
	severityRatio := impactIndex / (1.0 + usersPerHour)
	complexity := logUsers * logBreach

	cells := map[string]float64{
		"year":                              float64(derived.Year),
		"number_of_affected_users":          users,
		"data_breach_in_gb":                 breach,
		"incident_resolution_time_in_hours": resolution,
		"log_users":                         logUsers,
		"log_breach":                        logBreach,
		"log_resolution_time":               logResolution,
		"impact_index":                      impactIndex,
		"users_per_hour":                    usersPerHour,
		"years_since_2010":                  float64(derived.Year - 2010),
		"severity_ratio":                    severityRatio,
		"complexity":                        complexity,
	}

	for _, country := range models.Countries {
		cells["country_"+columnToken(country)] = indicator(derived.Country == country)
	}
	for _, attack := range models.AttackTypes {
		cells["attack_type_"+columnToken(string(attack))] = indicator(obs.AttackType == attack)
	}
	for _, industry := range models.TargetIndustries {
		cells["target_industry_"+columnToken(string(industry))] = indicator(obs.TargetIndustry == industry)
	}
	for _, vuln := range models.VulnerabilityTypes {
		cells["security_vulnerability_type_"+columnToken(string(vuln))] = indicator(derived.VulnerabilityType == vuln)
	}
	for _, def := range models.DefenseMechanisms {
		cells["defense_mechanism_used_"+columnToken(string(def))] = indicator(derived.DefenseMechanism == def)
	}

	names := make([]string, 0, len(cells))
	for name := range cells {
		names = append(names, name)
	}
	sort.Strings(names)

	columns := make([]Column, 0, len(names))
	for _, name := range names {
		value := cells[name]
		if math.IsInf(value, 0) || math.IsNaN(value) {
			// Division and log edge cases become missing, not zero.
			columns = append(columns, Column{Name: name, Missing: true})
			continue
		}
		columns = append(columns, Column{Name: name, Value: value})
	}

	return EncodedFeatureRow{columns: columns}
}

// columnToken normalises a category into its column identifier: lower-cased,
// spaces and hyphens replaced with underscores.
func columnToken(category string) string {
	token := strings.ToLower(category)
	token = strings.ReplaceAll(token, " ", "_")
	token = strings.ReplaceAll(token, "-", "_")
	return token
}

func indicator(active bool) float64 {
	if active {
		return 1
	}
	return 0
}
