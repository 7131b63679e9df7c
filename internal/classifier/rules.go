package classifier

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Category labels shared by the built-in rule sets.
const (
	LabelBanking       = "💰 Banking / Payments"
	LabelOffers        = "🧾 Offers / Details"
	LabelApplications  = "💼 Job Applications"
	LabelAssessments   = "🧪 Assessments / Tests"
	LabelInterviews    = "🗓️ Interviews / Events"
	LabelSecurity      = "🔒 Security / Account"
	LabelSubscriptions = "📬 Subscriptions / News"
	LabelRejections    = "🧮 Rejections"

	// LabelDefault is returned when no rule matches.
	LabelDefault = "🪪 Misc / General"
)

// Names of the built-in rule sets accepted by Resolve.
const (
	RuleSetDefault = "default"
	RuleSetLegacy  = "legacy"
)

// Rule maps a set of keywords to a category label.
type Rule struct {
	Label    string   `yaml:"label" json:"label"`
	Keywords []string `yaml:"keywords" json:"keywords"`
}

// matches reports whether any keyword is contained in text.
// text must already be lower-cased.
func (r Rule) matches(text string) bool {
	for _, kw := range r.Keywords {
		if kw != "" && strings.Contains(text, kw) {
			return true
		}
	}
	return false
}

// DefaultRules returns the standard rule set.
func DefaultRules() []Rule {
	return []Rule{
		{Label: LabelBanking, Keywords: []string{"invoice", "payment", "balance", "credit", "icici", "mab"}},
		{Label: LabelOffers, Keywords: []string{"offer", "details"}},
		{Label: LabelApplications, Keywords: []string{"application", "applied", "submission", "recruit", "careers", "applying"}},
		{Label: LabelAssessments, Keywords: []string{"assessment", "coding", "test", "codesignal", "hackerrank"}},
		{Label: LabelInterviews, Keywords: []string{"interview", "invite", "session", "meeting", "event", "call"}},
		{Label: LabelSecurity, Keywords: []string{"security", "password", "verify", "account", "login", "unauthorized"}},
		{Label: LabelSubscriptions, Keywords: []string{"digest", "newsletter", "updates", "substack", "thread"}},
		{Label: LabelRejections, Keywords: []string{"unfortunately", "decline", "rejected", "not moving forward", "another candidate"}},
	}
}

// LegacyRules returns the narrower rule set used by the WhatsApp alerts.
// It matches multi-word phrases for offers so that a bare "details" subject
// is not treated as an offer.
func LegacyRules() []Rule {
	return []Rule{
		{Label: LabelBanking, Keywords: []string{"invoice", "payment", "balance", "credit", "icici", "mab"}},
		{Label: LabelOffers, Keywords: []string{"job offer", "offer details", "details for"}},
		{Label: LabelApplications, Keywords: []string{"application", "applied", "submission", "recruit", "thank you for applying"}},
		{Label: LabelAssessments, Keywords: []string{"assessment", "coding", "test", "code signal"}},
		{Label: LabelInterviews, Keywords: []string{"interview", "session", "invite", "meeting", "event"}},
		{Label: LabelSecurity, Keywords: []string{"security", "password", "verify", "account", "login"}},
		{Label: LabelSubscriptions, Keywords: []string{"digest", "newsletter", "updates", "substack", "new thread"}},
		{Label: LabelRejections, Keywords: []string{"unfortunately", "not moving forward", "decline", "rejected"}},
	}
}

// rulesFile is the on-disk YAML layout of a custom rule set.
type rulesFile struct {
	Default string `yaml:"default"`
	Rules   []Rule `yaml:"rules"`
}

// LoadRules reads an ordered rule list from a YAML file:
//
//	default: "Other"          # optional
//	rules:
//	  - label: "Billing"
//	    keywords: [invoice, receipt]
//
// The returned default label is empty when the file does not set one.
func LoadRules(path string) ([]Rule, string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read rules file: %w", err)
	}
	return ParseRules(data)
}

// ParseRules parses the YAML rule layout accepted by LoadRules.
func ParseRules(data []byte) ([]Rule, string, error) {
	var f rulesFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, "", fmt.Errorf("failed to parse rules: %w", err)
	}
	if len(f.Rules) == 0 {
		return nil, "", fmt.Errorf("rules file contains no rules")
	}
	for i, r := range f.Rules {
		if strings.TrimSpace(r.Label) == "" {
			return nil, "", fmt.Errorf("rule %d has an empty label", i+1)
		}
		if len(r.Keywords) == 0 {
			return nil, "", fmt.Errorf("rule %d (%s) has no keywords", i+1, r.Label)
		}
	}
	return f.Rules, f.Default, nil
}

// Resolve returns the rules for a built-in rule set name or, for any other
// value, the rules loaded from that file path.
func Resolve(nameOrPath string) ([]Rule, string, error) {
	switch nameOrPath {
	case "", RuleSetDefault:
		return DefaultRules(), "", nil
	case RuleSetLegacy:
		return LegacyRules(), "", nil
	default:
		return LoadRules(nameOrPath)
	}
}
