package features

import (
	"fmt"

	"github.com/imj25/digital-shield/internal/models"
)

// Placeholder defaults the training data pinned for every row. The model was
// fitted on 2024 UK incidents only, so the resolver emits the same constants.
const (
	defaultYear    = 2024
	defaultCountry = "UK"

	// maxResolutionHours caps fabricated resolution time at one week.
	maxResolutionHours = 168
)

// baseResolutionHours holds typical time-to-resolution per attack type.
var baseResolutionHours = map[models.AttackType]float64{
	models.AttackDDoS:           8,
	models.AttackMalware:        24,
	models.AttackManInTheMiddle: 12,
	models.AttackPhishing:       6,
	models.AttackRansomware:     48,
	models.AttackSQLInjection:   18,
}

// fallbackResolutionHours is used when an attack type outside the closed
// vocabulary reaches the resolver.
const fallbackResolutionHours = 24

// attackSeverityMultiplier scales the additive severity score per attack type.
var attackSeverityMultiplier = map[models.AttackType]float64{
	models.AttackRansomware:     1.5,
	models.AttackSQLInjection:   1.3,
	models.AttackMalware:        1.2,
	models.AttackManInTheMiddle: 1.1,
	models.AttackPhishing:       1.0,
	models.AttackDDoS:           0.8,
}

// industryRiskMultiplier scales the additive severity score per industry.
var industryRiskMultiplier = map[models.TargetIndustry]float64{
	models.IndustryBanking:            1.4,
	models.IndustryHealthcare:         1.3,
	models.IndustryGovernment:         1.3,
	models.IndustryIT:                 1.2,
	models.IndustryTelecommunications: 1.1,
	models.IndustryRetail:             1.0,
	models.IndustryEducation:          0.9,
}

// attackVulnerabilityPreferences orders plausible vulnerability causes per
// attack type, most likely first.
var attackVulnerabilityPreferences = map[models.AttackType][]models.VulnerabilityType{
	models.AttackDDoS:           {models.VulnUnpatchedSoftware, models.VulnWeakPasswords, models.VulnZeroDay},
	models.AttackMalware:        {models.VulnSocialEngineering, models.VulnUnpatchedSoftware, models.VulnWeakPasswords},
	models.AttackManInTheMiddle: {models.VulnWeakPasswords, models.VulnUnpatchedSoftware, models.VulnSocialEngineering},
	models.AttackPhishing:       {models.VulnSocialEngineering, models.VulnWeakPasswords, models.VulnUnpatchedSoftware},
	models.AttackRansomware:     {models.VulnSocialEngineering, models.VulnUnpatchedSoftware, models.VulnWeakPasswords},
	models.AttackSQLInjection:   {models.VulnUnpatchedSoftware, models.VulnWeakPasswords, models.VulnZeroDay},
}

// attackDefensePreferences orders plausible defense mechanisms per attack
// type.
var attackDefensePreferences = map[models.AttackType][]models.DefenseMechanism{
	models.AttackDDoS:           {models.DefenseFirewall, models.DefenseVPN, models.DefenseAIBasedDetection},
	models.AttackMalware:        {models.DefenseAntivirus, models.DefenseAIBasedDetection, models.DefenseEncryption},
	models.AttackManInTheMiddle: {models.DefenseEncryption, models.DefenseVPN, models.DefenseFirewall},
	models.AttackPhishing:       {models.DefenseAIBasedDetection, models.DefenseAntivirus, models.DefenseEncryption},
	models.AttackRansomware:     {models.DefenseEncryption, models.DefenseAIBasedDetection, models.DefenseAntivirus},
	models.AttackSQLInjection:   {models.DefenseFirewall, models.DefenseEncryption, models.DefenseAIBasedDetection},
}

// industryVulnerabilityPreferences overrides the attack-type preference list
// when a known industry is supplied.
var industryVulnerabilityPreferences = map[models.TargetIndustry][]models.VulnerabilityType{
	models.IndustryBanking:            {models.VulnWeakPasswords, models.VulnSocialEngineering, models.VulnUnpatchedSoftware},
	models.IndustryHealthcare:         {models.VulnUnpatchedSoftware, models.VulnSocialEngineering, models.VulnWeakPasswords},
	models.IndustryGovernment:         {models.VulnUnpatchedSoftware, models.VulnZeroDay, models.VulnSocialEngineering},
	models.IndustryIT:                 {models.VulnZeroDay, models.VulnUnpatchedSoftware, models.VulnSocialEngineering},
	models.IndustryTelecommunications: {models.VulnUnpatchedSoftware, models.VulnWeakPasswords, models.VulnSocialEngineering},
	models.IndustryRetail:             {models.VulnSocialEngineering, models.VulnWeakPasswords, models.VulnUnpatchedSoftware},
	models.IndustryEducation:          {models.VulnSocialEngineering, models.VulnWeakPasswords, models.VulnUnpatchedSoftware},
}

// industryDefensePreferences overrides the attack-type defense list when a
// known industry is supplied.
var industryDefensePreferences = map[models.TargetIndustry][]models.DefenseMechanism{
	models.IndustryBanking:            {models.DefenseEncryption, models.DefenseAIBasedDetection, models.DefenseFirewall},
	models.IndustryHealthcare:         {models.DefenseEncryption, models.DefenseAntivirus, models.DefenseAIBasedDetection},
	models.IndustryGovernment:         {models.DefenseFirewall, models.DefenseEncryption, models.DefenseVPN},
	models.IndustryIT:                 {models.DefenseAIBasedDetection, models.DefenseEncryption, models.DefenseFirewall},
	models.IndustryTelecommunications: {models.DefenseFirewall, models.DefenseVPN, models.DefenseEncryption},
	models.IndustryRetail:             {models.DefenseAntivirus, models.DefenseAIBasedDetection, models.DefenseEncryption},
	models.IndustryEducation:          {models.DefenseAntivirus, models.DefenseFirewall, models.DefenseEncryption},
}

// Generic fallbacks for values outside the closed vocabularies.
var (
	genericVulnerabilityPreferences = []models.VulnerabilityType{
		models.VulnWeakPasswords, models.VulnSocialEngineering, models.VulnUnpatchedSoftware,
	}
	genericDefensePreferences = []models.DefenseMechanism{
		models.DefenseAntivirus, models.DefenseFirewall, models.DefenseEncryption,
	}
)

func init() {
	// Every enum variant must have a table entry; a silent fallback on a
	// mistyped key would skew predictions without any visible failure.
	for _, a := range models.AttackTypes {
		if _, ok := baseResolutionHours[a]; !ok {
			panic(fmt.Sprintf("features: no base resolution hours for attack type %q", a))
		}
		if _, ok := attackSeverityMultiplier[a]; !ok {
			panic(fmt.Sprintf("features: no severity multiplier for attack type %q", a))
		}
		if len(attackVulnerabilityPreferences[a]) != 3 {
			panic(fmt.Sprintf("features: vulnerability preferences for attack type %q must have 3 entries", a))
		}
		if len(attackDefensePreferences[a]) != 3 {
			panic(fmt.Sprintf("features: defense preferences for attack type %q must have 3 entries", a))
		}
	}
	for _, i := range models.TargetIndustries {
		if _, ok := industryRiskMultiplier[i]; !ok {
			panic(fmt.Sprintf("features: no risk multiplier for industry %q", i))
		}
		if len(industryVulnerabilityPreferences[i]) != 3 {
			panic(fmt.Sprintf("features: vulnerability preferences for industry %q must have 3 entries", i))
		}
		if len(industryDefensePreferences[i]) != 3 {
			panic(fmt.Sprintf("features: defense preferences for industry %q must have 3 entries", i))
		}
	}
}

// ResolveDefaults fabricates the model features a user does not supply from
// the fields they do. It is a pure function: identical observations always
// produce identical derived features, and unknown attack types or industries
// fall back to generic tables instead of failing.
func ResolveDefaults(obs models.IncidentObservation) models.DerivedIncidentFeatures {
	resolution := resolutionTime(obs)
	tier := severityTier(obs)

	return models.DerivedIncidentFeatures{
		Year:                defaultYear,
		ResolutionTimeHours: resolution,
		Country:             defaultCountry,
		VulnerabilityType:   pickVulnerability(obs, tier),
		DefenseMechanism:    pickDefense(obs, tier),
		SeverityTier:        tier,
	}
}

func resolutionTime(obs models.IncidentObservation) float64 {
	base, ok := baseResolutionHours[obs.AttackType]
	if !ok {
		base = fallbackResolutionHours
	}

	// Larger incidents take disproportionately longer to resolve.
	var factor float64
	switch {
	case obs.AffectedUsers >= 1_000_000 || obs.DataBreachGB >= 1000:
		factor = 2.5
	case obs.AffectedUsers >= 100_000 || obs.DataBreachGB >= 100:
		factor = 1.8
	case obs.AffectedUsers >= 10_000 || obs.DataBreachGB >= 10:
		factor = 1.3
	default:
		factor = 1.0
	}

	hours := base * factor
	if hours > maxResolutionHours {
		hours = maxResolutionHours
	}
	return hours
}

// SeverityScore computes the raw severity score before bucketing: additive
// user-impact and breach-size tiers scaled by attack and industry multipliers.
// Exported so callers can surface the continuous score alongside the tier.
func SeverityScore(obs models.IncidentObservation) float64 {
	score := float64(userImpactPoints(obs.AffectedUsers) + breachImpactPoints(obs.DataBreachGB))

	if m, ok := attackSeverityMultiplier[obs.AttackType]; ok {
		score *= m
	}
	if m, ok := industryRiskMultiplier[obs.TargetIndustry]; ok {
		score *= m
	}
	return score
}

func severityTier(obs models.IncidentObservation) models.SeverityTier {
	score := SeverityScore(obs)
	switch {
	case score >= 6:
		return models.TierCritical
	case score >= 3:
		return models.TierMedium
	default:
		return models.TierLow
	}
}

func userImpactPoints(users int64) int {
	switch {
	case users >= 10_000_000:
		return 4
	case users >= 1_000_000:
		return 3
	case users >= 100_000:
		return 2
	case users >= 10_000:
		return 1
	default:
		return 0
	}
}

func breachImpactPoints(gb float64) int {
	switch {
	case gb >= 10_000:
		return 4
	case gb >= 1000:
		return 3
	case gb >= 100:
		return 2
	case gb >= 10:
		return 1
	default:
		return 0
	}
}

func pickVulnerability(obs models.IncidentObservation, tier models.SeverityTier) models.VulnerabilityType {
	prefs, ok := industryVulnerabilityPreferences[obs.TargetIndustry]
	if !ok {
		if prefs, ok = attackVulnerabilityPreferences[obs.AttackType]; !ok {
			prefs = genericVulnerabilityPreferences
		}
	}
	return prefs[preferenceIndex(tier, len(prefs))]
}

func pickDefense(obs models.IncidentObservation, tier models.SeverityTier) models.DefenseMechanism {
	prefs, ok := industryDefensePreferences[obs.TargetIndustry]
	if !ok {
		if prefs, ok = attackDefensePreferences[obs.AttackType]; !ok {
			prefs = genericDefensePreferences
		}
	}
	return prefs[preferenceIndex(tier, len(prefs))]
}

// preferenceIndex selects which entry of an ordered preference list a
// severity tier maps to: Critical takes the primary option, Medium the
// secondary, Low the tertiary, falling back to the primary when the list is
// short.
func preferenceIndex(tier models.SeverityTier, n int) int {
	idx := 0
	switch tier {
	case models.TierMedium:
		idx = 1
	case models.TierLow:
		idx = 2
	}
	if idx >= n {
		idx = 0
	}
	return idx
}
