package generate

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"roundwise/internal/evaluation/models"
)

// Rule is the severity and remediation window for one risk level.
type Rule struct {
	Severity int `yaml:"severity"`
	DueDays  int `yaml:"due_days"`
}

func (r Rule) validate(name string) error {
	if r.Severity < 1 || r.Severity > 5 {
		return fmt.Errorf("policy %s: severity must be within 1..5, got %d", name, r.Severity)
	}
	if r.DueDays <= 0 {
		return fmt.Errorf("policy %s: due_days must be positive, got %d", name, r.DueDays)
	}
	return nil
}

// Policy maps catalog risk levels to CAPA severity and due dates. Threshold,
// when set, overrides the configured non-compliance threshold.
type Policy struct {
	Threshold  *int                      `yaml:"noncompliance_threshold"`
	RiskLevels map[models.RiskLevel]Rule `yaml:"risk_levels"`
	Default    Rule                      `yaml:"default"`
}

// DefaultPolicy is CRITICAL 5/7d, MAJOR 4/14d, anything else 3/30d.
func DefaultPolicy() Policy {
	return Policy{
		RiskLevels: map[models.RiskLevel]Rule{
			models.RiskCritical: {Severity: 5, DueDays: 7},
			models.RiskMajor:    {Severity: 4, DueDays: 14},
		},
		Default: Rule{Severity: 3, DueDays: 30},
	}
}

// RuleFor returns the rule of a risk level, or the default rule.
func (p Policy) RuleFor(level models.RiskLevel) Rule {
	if r, ok := p.RiskLevels[models.NormalizeRiskLevel(string(level))]; ok {
		return r
	}
	return p.Default
}

func (p Policy) Validate() error {
	if p.Threshold != nil {
		if _, err := models.ParseThreshold(*p.Threshold); err != nil {
			return fmt.Errorf("policy noncompliance_threshold: %w", err)
		}
	}
	if err := p.Default.validate("default"); err != nil {
		return err
	}
	for level, r := range p.RiskLevels {
		if err := r.validate(strings.ToLower(string(level))); err != nil {
			return err
		}
	}
	return nil
}

// LoadPolicy reads a YAML policy file and layers it over DefaultPolicy. An
// empty path returns the defaults.
func LoadPolicy(path string) (Policy, error) {
	policy := DefaultPolicy()
	if path == "" {
		return policy, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Policy{}, fmt.Errorf("read policy file: %w", err)
	}
	return ParsePolicy(data)
}

// ParsePolicy layers YAML over DefaultPolicy. Risk level keys are
// case-insensitive.
func ParsePolicy(data []byte) (Policy, error) {
	policy := DefaultPolicy()

	var file Policy
	if err := yaml.Unmarshal(data, &file); err != nil {
		return Policy{}, fmt.Errorf("parse policy file: %w", err)
	}
	if file.Threshold != nil {
		policy.Threshold = file.Threshold
	}
	for level, r := range file.RiskLevels {
		policy.RiskLevels[models.NormalizeRiskLevel(string(level))] = r
	}
	if file.Default != (Rule{}) {
		policy.Default = file.Default
	}
	if err := policy.Validate(); err != nil {
		return Policy{}, err
	}
	return policy, nil
}
