package advice

import (
	_ "embed"
	"errors"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/imj25/digital-shield/internal/models"
)

//go:embed default_rules.yaml
var defaultRulesYAML []byte

// Advisor attaches response recommendations to a loss prediction based on a
// YAML rule pack.
type Advisor struct {
	rules  []Rule
	logger *slog.Logger
}

// Rule represents a single recommendation rule.
type Rule struct {
	ID              string    `yaml:"id"`
	Match           RuleMatch `yaml:"match"`
	Recommendations []string  `yaml:"recommendations"`
}

// RuleMatch defines optional attributes for rule matching. Empty fields
// match everything.
type RuleMatch struct {
	AttackType   string  `yaml:"attack_type"`
	SeverityTier string  `yaml:"severity_tier"`
	MinLossM     float64 `yaml:"min_loss_millions"`
}

// RulePackFile is the YAML root structure.
type RulePackFile struct {
	Rules []Rule `yaml:"rules"`
}

// NewAdvisor loads the rule pack from path, falling back to the embedded
// default pack when path is empty or the file does not exist.
func NewAdvisor(path string, logger *slog.Logger) (*Advisor, error) {
	if logger == nil {
		logger = slog.Default()
	}

	data := defaultRulesYAML
	if path != "" {
		fileData, err := os.ReadFile(path)
		switch {
		case err == nil:
			data = fileData
		case errors.Is(err, os.ErrNotExist):
			logger.Warn("advice rule pack not found, using embedded defaults", slog.String("path", path))
		default:
			return nil, err
		}
	}

	var pack RulePackFile
	if err := yaml.Unmarshal(data, &pack); err != nil {
		return nil, err
	}
	return &Advisor{rules: pack.Rules, logger: logger}, nil
}

// Recommend returns the recommendations of every rule matching the incident
// and its prediction, deduplicated in rule order.
func (a *Advisor) Recommend(obs models.IncidentObservation, derived models.DerivedIncidentFeatures, lossM float64) []string {
	if a == nil {
		return nil
	}

	matched := make([]string, 0)
	for _, rule := range a.rules {
		if rule.Match.AttackType != "" && !strings.EqualFold(rule.Match.AttackType, string(obs.AttackType)) {
			continue
		}
		if rule.Match.SeverityTier != "" && !strings.EqualFold(rule.Match.SeverityTier, string(derived.SeverityTier)) {
			continue
		}
		if lossM < rule.Match.MinLossM {
			continue
		}
		matched = appendUnique(matched, rule.Recommendations...)
	}
	return matched
}

func appendUnique(dst []string, values ...string) []string {
	for _, v := range values {
		dup := false
		for _, existing := range dst {
			if existing == v {
				dup = true
				break
			}
		}
		if !dup {
			dst = append(dst, v)
		}
	}
	return dst
}
