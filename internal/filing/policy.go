package filing

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/supertypeai/sgx-buyback-pipeline/internal/checkbox"
	"github.com/supertypeai/sgx-buyback-pipeline/internal/classify"
	"github.com/supertypeai/sgx-buyback-pipeline/internal/detail"
	"github.com/supertypeai/sgx-buyback-pipeline/internal/sections"
)

// OptionSpec is a form option as written in a policy file
type OptionSpec struct {
	Name    string `yaml:"name"`
	Pattern string `yaml:"pattern"`
}

// CheckboxPolicy tunes checkbox detection. Empty option lists keep the
// built-in e-form labels.
type CheckboxPolicy struct {
	YTolerance          float64      `yaml:"y_tolerance"`
	DescribedYTolerance float64      `yaml:"described_y_tolerance"`
	Acquisition         []OptionSpec `yaml:"acquisition,omitempty"`
	Disposal            []OptionSpec `yaml:"disposal,omitempty"`
	Other               []OptionSpec `yaml:"other,omitempty"`
	TypeOfSecurities    []OptionSpec `yaml:"type_of_securities,omitempty"`
}

// Policy gathers every tunable table of the extraction
type Policy struct {
	Detail   detail.Policy  `yaml:"detail"`
	Rules    classify.Rules `yaml:"rules"`
	Checkbox CheckboxPolicy `yaml:"checkbox"`
	Anchors  []string       `yaml:"anchors"`
}

// DefaultPolicy returns the settings for SGX Form 1 and Form 3 filings
func DefaultPolicy() Policy {
	return Policy{
		Detail: detail.DefaultPolicy(),
		Rules:  classify.DefaultRules(),
		Checkbox: CheckboxPolicy{
			YTolerance:          checkbox.DefaultYTolerance,
			DescribedYTolerance: checkbox.DefaultDescribedYTolerance,
		},
		Anchors: append([]string(nil), sections.DefaultAnchors...),
	}
}

// LoadPolicy reads a YAML policy over the defaults. A missing file yields
// the defaults.
func LoadPolicy(path string) (Policy, error) {
	p := DefaultPolicy()
	if path == "" {
		return p, nil
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return p, nil
	}
	if err != nil {
		return p, fmt.Errorf("failed to read policy %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &p); err != nil {
		return p, fmt.Errorf("failed to parse policy %s: %w", path, err)
	}
	if err := p.Validate(); err != nil {
		return p, fmt.Errorf("invalid policy %s: %w", path, err)
	}
	return p, nil
}

var transactionTypes = map[string]bool{
	classify.Buy:      true,
	classify.Sell:     true,
	classify.Award:    true,
	classify.Transfer: true,
	classify.Others:   true,
}

// Validate checks the policy for values the extraction cannot work with
func (p Policy) Validate() error {
	for name, places := range map[string]int32{
		"value_precision":   p.Detail.ValuePrecision,
		"price_precision":   p.Detail.PricePrecision,
		"tranche_precision": p.Detail.TranchePrecision,
	} {
		if places < 0 || places > 10 {
			return fmt.Errorf("%s must be between 0 and 10, got %d", name, places)
		}
	}

	if p.Checkbox.YTolerance <= 0 || p.Checkbox.DescribedYTolerance <= 0 {
		return fmt.Errorf("checkbox tolerances must be positive")
	}
	if len(p.Anchors) == 0 {
		return fmt.Errorf("at least one section anchor is required")
	}

	for _, rule := range append(append([]classify.Rule(nil), p.Rules.Keywords...), p.Rules.Options...) {
		if !transactionTypes[rule.Type] {
			return fmt.Errorf("rule %q has unknown transaction type %q", rule.Name, rule.Type)
		}
	}
	for _, rule := range p.Rules.Keywords {
		if len(rule.Keywords) == 0 {
			return fmt.Errorf("keyword rule %q has no keywords", rule.Name)
		}
	}

	_, err := p.forms()
	return err
}

// forms compiles the option overrides over the built-in tables
func (p Policy) forms() (checkbox.Forms, error) {
	forms := checkbox.DefaultForms()
	targets := []struct {
		name  string
		specs []OptionSpec
		dst   *[]checkbox.OptionPattern
	}{
		{"acquisition", p.Checkbox.Acquisition, &forms.Acquisition},
		{"disposal", p.Checkbox.Disposal, &forms.Disposal},
		{"other", p.Checkbox.Other, &forms.Other},
		{"type_of_securities", p.Checkbox.TypeOfSecurities, &forms.TypeOfSecurities},
	}

	for _, target := range targets {
		if len(target.specs) == 0 {
			continue
		}
		patterns := make([]checkbox.OptionPattern, 0, len(target.specs))
		for _, spec := range target.specs {
			pattern, err := checkbox.CompilePattern(spec.Name, spec.Pattern)
			if err != nil {
				return forms, fmt.Errorf("%s option %q: %w", target.name, spec.Name, err)
			}
			patterns = append(patterns, pattern)
		}
		*target.dst = patterns
	}
	return forms, nil
}
