package models

// AttackType enumerates the attack categories the loss model was trained on.
type AttackType string

const (
	AttackDDoS           AttackType = "DDoS"
	AttackMalware        AttackType = "Malware"
	AttackManInTheMiddle AttackType = "Man-in-the-middle"
	AttackPhishing       AttackType = "Phishing"
	AttackRansomware     AttackType = "Ransomware"
	AttackSQLInjection   AttackType = "SQL Injection"
)

// AttackTypes lists every known attack type in vocabulary order.
var AttackTypes = []AttackType{
	AttackDDoS,
	AttackMalware,
	AttackManInTheMiddle,
	AttackPhishing,
	AttackRansomware,
	AttackSQLInjection,
}

// TargetIndustry enumerates the industries the loss model was trained on.
type TargetIndustry string

const (
	IndustryBanking            TargetIndustry = "Banking"
	IndustryEducation          TargetIndustry = "Education"
	IndustryGovernment         TargetIndustry = "Government"
	IndustryHealthcare         TargetIndustry = "Healthcare"
	IndustryIT                 TargetIndustry = "IT"
	IndustryRetail             TargetIndustry = "Retail"
	IndustryTelecommunications TargetIndustry = "Telecommunications"
)

// TargetIndustries lists every known industry in vocabulary order.
var TargetIndustries = []TargetIndustry{
	IndustryBanking,
	IndustryEducation,
	IndustryGovernment,
	IndustryHealthcare,
	IndustryIT,
	IndustryRetail,
	IndustryTelecommunications,
}

// VulnerabilityType enumerates security vulnerability categories.
type VulnerabilityType string

const (
	VulnSocialEngineering VulnerabilityType = "Social Engineering"
	VulnUnpatchedSoftware VulnerabilityType = "Unpatched Software"
	VulnWeakPasswords     VulnerabilityType = "Weak Passwords"
	VulnZeroDay           VulnerabilityType = "Zero Day"
)

// VulnerabilityTypes lists every known vulnerability type in vocabulary order.
var VulnerabilityTypes = []VulnerabilityType{
	VulnSocialEngineering,
	VulnUnpatchedSoftware,
	VulnWeakPasswords,
	VulnZeroDay,
}

// DefenseMechanism enumerates defense mechanism categories.
type DefenseMechanism string

const (
	DefenseAIBasedDetection DefenseMechanism = "AI-based Detection"
	DefenseAntivirus        DefenseMechanism = "Antivirus"
	DefenseEncryption       DefenseMechanism = "Encryption"
	DefenseFirewall         DefenseMechanism = "Firewall"
	DefenseVPN              DefenseMechanism = "VPN"
)

// DefenseMechanisms lists every known defense mechanism in vocabulary order.
var DefenseMechanisms = []DefenseMechanism{
	DefenseAIBasedDetection,
	DefenseAntivirus,
	DefenseEncryption,
	DefenseFirewall,
	DefenseVPN,
}

// Countries is the closed country vocabulary used by the training pipeline.
var Countries = []string{
	"Australia", "Brazil", "China", "France", "Germany",
	"India", "Japan", "Russia", "UK", "USA",
}

// SeverityTier is the coarse risk bucket derived heuristically from incident
// magnitude, used both as a model input and a UI risk label.
type SeverityTier string

const (
	TierLow      SeverityTier = "Low"
	TierMedium   SeverityTier = "Medium"
	TierCritical SeverityTier = "Critical"
)

// IncidentObservation holds the fields a user plausibly knows up front.
// It is immutable once submitted; one observation is created per prediction
// request.
type IncidentObservation struct {
	AttackType     AttackType
	TargetIndustry TargetIndustry
	AffectedUsers  int64
	DataBreachGB   float64
}

// DerivedIncidentFeatures carries the model inputs the resolver fabricates
// from an observation. Computed deterministically, never mutated afterwards.
type DerivedIncidentFeatures struct {
	Year                int
	ResolutionTimeHours float64
	Country             string
	VulnerabilityType   VulnerabilityType
	DefenseMechanism    DefenseMechanism
	SeverityTier        SeverityTier
}

// KnownAttackType reports whether v is in the closed attack vocabulary.
func KnownAttackType(v AttackType) bool {
	for _, a := range AttackTypes {
		if a == v {
			return true
		}
	}
	return false
}

// KnownTargetIndustry reports whether v is in the closed industry vocabulary.
func KnownTargetIndustry(v TargetIndustry) bool {
	for _, i := range TargetIndustries {
		if i == v {
			return true
		}
	}
	return false
}
