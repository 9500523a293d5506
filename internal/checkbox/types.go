// Package checkbox resolves the ticked state of form options from text
// blocks and the vector boxes drawn next to them.
package checkbox

import (
	"encoding/json"
	"regexp"
)

// State is the resolved state of one form option
type State int

const (
	// NotFound means the option label was not located in the search band
	NotFound State = iota
	// Unchecked means the label was located but no filled box sits next to it
	Unchecked
	// Checked means a non-white filled box sits immediately left of the label
	Checked
)

// String returns the state name
func (s State) String() string {
	switch s {
	case Unchecked:
		return "unchecked"
	case Checked:
		return "checked"
	default:
		return "not_found"
	}
}

// Bool renders the state as true, false or nil
func (s State) Bool() *bool {
	switch s {
	case Checked:
		v := true
		return &v
	case Unchecked:
		v := false
		return &v
	default:
		return nil
	}
}

// MarshalJSON encodes the state as true, false or null
func (s State) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Bool())
}

// OptionPattern names a form option and the label pattern that finds it
type OptionPattern struct {
	Name    string
	Pattern *regexp.Regexp
}

// Pattern compiles a case-insensitive option pattern. It panics on a bad
// expression and is meant for package-level tables.
func Pattern(name, expr string) OptionPattern {
	return OptionPattern{Name: name, Pattern: regexp.MustCompile(`(?i)` + expr)}
}

// CompilePattern is the error-returning form of Pattern, used for
// user-supplied option tables
func CompilePattern(name, expr string) (OptionPattern, error) {
	re, err := regexp.Compile(`(?i)` + expr)
	if err != nil {
		return OptionPattern{}, err
	}
	return OptionPattern{Name: name, Pattern: re}, nil
}

// Option is one resolved form option
type Option struct {
	Name  string `json:"name"`
	State State  `json:"checked"`
}

// Options keeps resolved options in form order
type Options []Option

// Get returns the state of the named option
func (o Options) Get(name string) State {
	for _, opt := range o {
		if opt.Name == name {
			return opt.State
		}
	}
	return NotFound
}

// FirstChecked returns the first checked option in form order
func (o Options) FirstChecked() (string, bool) {
	for _, opt := range o {
		if opt.State == Checked {
			return opt.Name, true
		}
	}
	return "", false
}

// Located reports whether at least one option label was found
func (o Options) Located() bool {
	for _, opt := range o {
		if opt.State != NotFound {
			return true
		}
	}
	return false
}

// Described is a free-text option such as "Others (please specify)"
type Described struct {
	State       State  `json:"checked"`
	Description string `json:"description,omitempty"`
}

// Circumstance is the "Circumstance giving rise to the interest" block
type Circumstance struct {
	Acquisition        Options   `json:"acquisition"`
	Disposal           Options   `json:"disposal"`
	OtherCircumstances Options   `json:"other_circumstances"`
	CorporateAction    Described `json:"corporate_action"`
	OthersSpecify      Described `json:"others_specify"`
	Page               int       `json:"page"` // zero-based page of the header
}

// Labels of the "Type of securities" options
const (
	VotingShares     = "Voting shares/units"
	RightsOverShares = "Rights/Options/Warrants over voting shares/units"
	Debentures       = "Convertible debentures over voting shares/units"
	OtherSecurities  = "Others"
)

// SecurityTypes is the resolved "Type of securities" block
type SecurityTypes struct {
	Options Options `json:"options"`
	Page    int     `json:"page"`
}

// Voting reports whether the filing concerns voting shares or units
func (s *SecurityTypes) Voting() bool {
	return s != nil && s.Options.Get(VotingShares) == Checked
}
