// Package classify maps the circumstance checkboxes of a disclosure to a
// transaction type.
package classify

import (
	"io"
	"log"
	"strings"

	"github.com/supertypeai/sgx-buyback-pipeline/internal/checkbox"
)

// Classifier resolves transaction types from circumstance blocks
type Classifier struct {
	rules  Rules
	logger *log.Logger
}

// New creates a classifier. A nil logger discards diagnostics.
func New(rules Rules, logger *log.Logger) *Classifier {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Classifier{rules: rules, logger: logger}
}

var defaultClassifier = New(DefaultRules(), nil)

// TransactionType classifies c with the default rules
func TransactionType(c *checkbox.Circumstance, value *float64) *string {
	return defaultClassifier.TransactionType(c, value)
}

// TransactionType returns the type of the transaction described by c, or nil
// when nothing checked maps to a type.
//
// A checked "Others (please specify)" whose description hits a keyword wins.
// Otherwise the first checked option decides: acquisition, disposal, then
// other circumstances. value is the known consideration; a priced transaction
// is never a transfer.
func (cl *Classifier) TransactionType(c *checkbox.Circumstance, value *float64) *string {
	if c == nil {
		return nil
	}

	if c.OthersSpecify.State == checkbox.Checked {
		if t, hit := cl.fromDescription(c.OthersSpecify.Description, value); hit {
			return t
		}
	}

	if name, ok := c.Acquisition.FirstChecked(); ok {
		if strings.EqualFold(name, cl.rules.ManagementOption) {
			return ptr(Others)
		}
		return ptr(Buy)
	}
	if _, ok := c.Disposal.FirstChecked(); ok {
		return ptr(Sell)
	}
	if name, ok := c.OtherCircumstances.FirstChecked(); ok {
		if t := cl.option(name); t != nil {
			return t
		}
	}
	if c.CorporateAction.State == checkbox.Checked {
		t, _ := cl.fromDescription(c.CorporateAction.Description, value)
		return t
	}
	return nil
}

// FromDescription classifies a free-text description by keyword
func (cl *Classifier) FromDescription(description string, value *float64) *string {
	t, _ := cl.fromDescription(description, value)
	return t
}

// fromDescription reports hit when a keyword matched, even when the match
// was a transfer discarded because of a known value
func (cl *Classifier) fromDescription(description string, value *float64) (*string, bool) {
	desc := strings.ToLower(description)
	if strings.TrimSpace(desc) == "" {
		return nil, false
	}
	for _, rule := range cl.rules.Keywords {
		for _, kw := range rule.Keywords {
			if !strings.Contains(desc, strings.ToLower(kw)) {
				continue
			}
			if rule.Type == Transfer && value != nil {
				cl.logger.Printf("transfer keyword %q ignored, consideration %.2f is known", kw, *value)
				return nil, true
			}
			return ptr(rule.Type), true
		}
	}
	cl.logger.Printf("no keyword matched description %q", description)
	return nil, false
}

func (cl *Classifier) option(name string) *string {
	key := strings.ToLower(strings.TrimSpace(name))
	for _, rule := range cl.rules.Options {
		if rule.Option == key {
			return ptr(rule.Type)
		}
	}
	return nil
}

func ptr(s string) *string {
	return &s
}
