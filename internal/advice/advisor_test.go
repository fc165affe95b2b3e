package advice

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/imj25/digital-shield/internal/models"
)

func TestEmbeddedPackLoads(t *testing.T) {
	advisor, err := NewAdvisor("", nil)
	if err != nil {
		t.Fatalf("embedded pack failed to load: %v", err)
	}
	if len(advisor.rules) == 0 {
		t.Fatalf("embedded pack is empty")
	}
}

func TestRecommendMatchesAttackAndTier(t *testing.T) {
	advisor, err := NewAdvisor("", nil)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	obs := models.IncidentObservation{AttackType: models.AttackRansomware, TargetIndustry: models.IndustryBanking}
	derived := models.DerivedIncidentFeatures{SeverityTier: models.TierCritical}

	recs := advisor.Recommend(obs, derived, 120)
	if len(recs) == 0 {
		t.Fatalf("expected recommendations for critical ransomware")
	}

	seen := map[string]bool{}
	for _, r := range recs {
		if seen[r] {
			t.Fatalf("duplicate recommendation %q", r)
		}
		seen[r] = true
	}
}

func TestRecommendRespectsLossThreshold(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rules.yaml")
	pack := `rules:
  - id: expensive-only
    match:
      min_loss_millions: 50
    recommendations: ["escalate"]
`
	if err := os.WriteFile(path, []byte(pack), 0o644); err != nil {
		t.Fatalf("write pack: %v", err)
	}

	advisor, err := NewAdvisor(path, nil)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	obs := models.IncidentObservation{AttackType: models.AttackDDoS}
	derived := models.DerivedIncidentFeatures{SeverityTier: models.TierLow}

	if recs := advisor.Recommend(obs, derived, 10); len(recs) != 0 {
		t.Fatalf("rule should not match below the loss threshold: %v", recs)
	}
	if recs := advisor.Recommend(obs, derived, 90); len(recs) != 1 || recs[0] != "escalate" {
		t.Fatalf("rule should match above the loss threshold: %v", recs)
	}
}

func TestMissingPackFileFallsBackToEmbedded(t *testing.T) {
	advisor, err := NewAdvisor(filepath.Join(t.TempDir(), "absent.yaml"), nil)
	if err != nil {
		t.Fatalf("missing file should not fail: %v", err)
	}
	if len(advisor.rules) == 0 {
		t.Fatalf("expected embedded fallback rules")
	}
}
