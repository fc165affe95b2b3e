package features

import (
	"math"
	"sort"
	"testing"

	"github.com/imj25/digital-shield/internal/models"
)

func TestEncodeEmitsFullVocabulary(t *testing.T) {
	obs := models.IncidentObservation{
		AttackType:     models.AttackDDoS,
		TargetIndustry: models.IndustryRetail,
		AffectedUsers:  5000,
		DataBreachGB:   2,
	}
	row := Encode(obs, ResolveDefaults(obs))

	// Inactive categories must still be present as zero columns.
	col, ok := row.Lookup("attack_type_ransomware")
	if !ok {
		t.Fatalf("attack_type_ransomware column missing")
	}
	if col.Value != 0 || col.Missing {
		t.Fatalf("inactive indicator should be zero: %+v", col)
	}

	active, ok := row.Lookup("attack_type_ddos")
	if !ok || active.Value != 1 {
		t.Fatalf("active indicator not set: %+v", active)
	}

	wantIndicators := len(models.Countries) + len(models.AttackTypes) +
		len(models.TargetIndustries) + len(models.VulnerabilityTypes) + len(models.DefenseMechanisms)
	// 12 engineered/raw numeric columns on top of the indicators.
	if got := len(row.Columns()); got != wantIndicators+12 {
		t.Fatalf("expected %d columns, got %d", wantIndicators+12, got)
	}
}

func TestEncodeStableShapeAcrossCategories(t *testing.T) {
	names := func(row EncodedFeatureRow) []string {
		out := make([]string, 0, len(row.Columns()))
		for _, c := range row.Columns() {
			out = append(out, c.Name)
		}
		return out
	}

	obsA := models.IncidentObservation{AttackType: models.AttackDDoS, TargetIndustry: models.IndustryIT, AffectedUsers: 10, DataBreachGB: 0}
	obsB := models.IncidentObservation{AttackType: models.AttackRansomware, TargetIndustry: models.IndustryBanking, AffectedUsers: 20_000_000, DataBreachGB: 50_000}

	a := names(Encode(obsA, ResolveDefaults(obsA)))
	b := names(Encode(obsB, ResolveDefaults(obsB)))

	if len(a) != len(b) {
		t.Fatalf("row shapes differ: %d vs %d columns", len(a), len(b))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("column %d differs: %s vs %s", i, a[i], b[i])
		}
	}
	if !sort.StringsAreSorted(a) {
		t.Fatalf("columns not sorted: %v", a)
	}
}

func TestEncodeColumnTokens(t *testing.T) {
	obs := models.IncidentObservation{
		AttackType:     models.AttackManInTheMiddle,
		TargetIndustry: models.IndustryTelecommunications,
		AffectedUsers:  100,
		DataBreachGB:   1,
	}
	row := Encode(obs, ResolveDefaults(obs))

	// Hyphens and spaces both become underscores in column identifiers.
	if col, ok := row.Lookup("attack_type_man_in_the_middle"); !ok || col.Value != 1 {
		t.Fatalf("hyphenated category not normalised: %+v ok=%v", col, ok)
	}
	if _, ok := row.Lookup("defense_mechanism_used_ai_based_detection"); !ok {
		t.Fatalf("ai-based detection column missing")
	}
}

func TestEncodeReplacesInfinityWithMissing(t *testing.T) {
	obs := models.IncidentObservation{
		AttackType:     models.AttackMalware,
		TargetIndustry: models.IndustryIT,
		AffectedUsers:  1000,
		// A non-finite measurement poisons every derived cell it touches.
		DataBreachGB: math.Inf(1),
	}
	derived := ResolveDefaults(obs)
	row := Encode(obs, derived)

	for _, name := range []string{"data_breach_in_gb", "log_breach", "impact_index", "severity_ratio", "complexity"} {
		col, ok := row.Lookup(name)
		if !ok {
			t.Fatalf("column %s absent", name)
		}
		if !col.Missing {
			t.Fatalf("column %s should be marked missing, got value %v", name, col.Value)
		}
		if col.Value != 0 {
			t.Fatalf("missing column %s should zero its value field", name)
		}
	}
	for _, col := range row.Columns() {
		if math.IsInf(col.Value, 0) || math.IsNaN(col.Value) {
			t.Fatalf("column %s carries non-finite value %v", col.Name, col.Value)
		}
	}
	if col, ok := row.Lookup("log_users"); !ok || col.Missing || col.Value == 0 {
		t.Fatalf("finite column log_users should survive untouched: %+v ok=%v", col, ok)
	}
}

func TestSeverityKeptAsSingleColumn(t *testing.T) {
	obs := models.IncidentObservation{
		AttackType:     models.AttackRansomware,
		TargetIndustry: models.IndustryBanking,
		AffectedUsers:  2_000_000,
		DataBreachGB:   500,
	}
	derived := ResolveDefaults(obs)
	row := Encode(obs, derived)

	for _, col := range row.Columns() {
		if col.Name == severityColumn+"_critical" || col.Name == severityColumn+"_low" {
			t.Fatalf("severity must not be one-hot encoded, found %s", col.Name)
		}
	}
	if got := row.SeverityValue(derived); got != "Critical" {
		t.Fatalf("expected severity cell Critical, got %q", got)
	}
}
