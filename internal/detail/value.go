package detail

import (
	"context"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/supertypeai/sgx-buyback-pipeline/internal/fx"
)

const (
	rateNumber = `\d[\d,]*(?:\.\d+)?`
	unitNames  = `(?:shares?|units?|securit(?:y|ies)|stapled\s+securit(?:y|ies))`
	tag        = `(?:sg\$|s\$|usd|sgd|hkd|us\$|\$)`
)

// Cues that mark the stated number as a rate rather than a total. They run
// against the lower-cased phrase.
var rateCues = []*regexp.Regexp{
	regexp.MustCompile(`\((?:[^)]*(?:s\$|usd|sgd|\$|being|at))?[^)]*` + rateNumber + `\s*(?:per\s+(?:share|unit|security|stapled\s+security)|/share|/unit|/security)[^)]*\)`),
	regexp.MustCompile(`\s+or\s+(?:s\$|usd|sgd|\$)?\s*` + rateNumber + `\s*(?:per\s+(?:share|unit|security|stapled\s+security)|/share|/unit|/security)`),
	regexp.MustCompile(`@\s*(?:s\$|usd|sgd|\$)?\s*` + rateNumber + `\s*(?:per\s+(?:share|unit|security|stapled\s+security)|/share|/unit|/security)`),
	regexp.MustCompile(`at\s+a?\s*price\s+per\s+(?:share|unit|security|stapled\s+security)\s+of\s+(?:s\$|usd|sgd|\$)?\s*` + rateNumber),
}

// Explicit per-unit prices, tried in order. Group 1 is the price.
var pricePatterns = []*regexp.Regexp{
	regexp.MustCompile(`at\s+a?\s*price\s+per\s+` + unitNames + `\s+of\s+` + tag + `?\s*(` + rateNumber + `)`),
	regexp.MustCompile(`@\s*` + tag + `?\s*(` + rateNumber + `)\s*(?:/shares?|/units?|per\s+` + unitNames + `)`),
	regexp.MustCompile(`\((?:being|at|@)?\s*(?:sg\$|s\$|usd|sgd|hkd|\$)?\s*(` + rateNumber + `)\s*per\s+` + unitNames + `\)`),
	regexp.MustCompile(`or\s+` + tag + `?\s*(` + rateNumber + `)\s*(?:/shares?|/units?|per\s+` + unitNames + `)`),
	regexp.MustCompile(tag + `?\s*(` + rateNumber + `)\s*per\s+(?:shares?|units?|rights\s+units?|securit(?:y|ies)|stapled\s+securit(?:y|ies))`),
}

var (
	usdTag = regexp.MustCompile(`\busd\b|\bus\$`)
	hkdTag = regexp.MustCompile(`\bhkd\b|\bhk\$`)
)

// currencyOf tells which currency a lower-cased phrase states its amount in
func currencyOf(phrase string) string {
	switch {
	case usdTag.MatchString(phrase):
		return fx.USD
	case hkdTag.MatchString(phrase):
		return fx.HKD
	default:
		return fx.SGD
	}
}

func normalizePhrase(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}

// hasRateCue reports whether the phrase already clarifies a per-unit rate
func hasRateCue(phrase string) bool {
	for _, re := range rateCues {
		if re.MatchString(phrase) {
			return true
		}
	}
	return false
}

// mentionsUnits reports whether the phrase talks about a per-unit amount
func (d *Deriver) mentionsUnits(phrase string) bool {
	flat := strings.Join(strings.Fields(phrase), " ")
	for _, cue := range d.Policy.MultiplyCues {
		if strings.Contains(flat, cue) {
			return true
		}
	}
	return false
}

func (d *Deriver) shouldMultiply(phrase string) bool {
	return d.mentionsUnits(phrase) && !hasRateCue(phrase)
}

// toSGD converts amount stated in the currency of phrase. ok is false when
// no rate is available.
func (d *Deriver) toSGD(ctx context.Context, phrase string, amount float64) (float64, bool) {
	currency := currencyOf(phrase)
	if currency == fx.SGD {
		return amount, true
	}
	if d.FX == nil {
		d.logger.Printf("no fx provider for %s amount in %q", currency, phrase)
		return 0, false
	}
	rate, err := d.FX.ToSGD(ctx, currency)
	if err != nil {
		d.logger.Printf("fx lookup failed: %v", err)
		return 0, false
	}
	return amount * rate, true
}

// Value derives the total SGD consideration from the raw consideration
// phrase. A per-unit rate is multiplied by qty unless the phrase clarifies
// that the stated number is already the rate alongside a total.
func (d *Deriver) Value(ctx context.Context, raw string, qty *float64) *float64 {
	phrase := normalizePhrase(raw)
	if phrase == "" {
		return nil
	}
	amount := ParseNumber(raw)
	if amount == nil {
		return nil
	}

	value, ok := d.toSGD(ctx, phrase, *amount)
	if !ok {
		return nil
	}
	if d.shouldMultiply(phrase) {
		if qty == nil {
			return nil
		}
		value = mul(*qty, value)
	}
	return round(value, d.Policy.ValuePrecision)
}

// PricePerShare recovers the per-unit SGD price. An explicitly stated rate
// wins; otherwise it is value / qty.
func (d *Deriver) PricePerShare(ctx context.Context, raw string, qty *float64) *float64 {
	phrase := normalizePhrase(raw)
	if phrase == "" || qty == nil {
		return nil
	}

	for _, re := range pricePatterns {
		m := re.FindStringSubmatch(phrase)
		if m == nil {
			continue
		}
		return d.convertedRate(ctx, phrase, ParseNumber(m[1]))
	}

	if d.shouldMultiply(phrase) {
		return d.convertedRate(ctx, phrase, ParseNumber(raw))
	}

	value := d.Value(ctx, raw, qty)
	if value == nil || *qty == 0 {
		return nil
	}
	return round(decimal.NewFromFloat(*value).Div(decimal.NewFromFloat(*qty)).InexactFloat64(), d.Policy.PricePrecision)
}

func (d *Deriver) convertedRate(ctx context.Context, phrase string, rate *float64) *float64 {
	if rate == nil {
		return nil
	}
	sgd, ok := d.toSGD(ctx, phrase, *rate)
	if !ok {
		return nil
	}
	return round(sgd, d.Policy.PricePrecision)
}

func mul(a, b float64) float64 {
	return decimal.NewFromFloat(a).Mul(decimal.NewFromFloat(b)).InexactFloat64()
}

func round(v float64, places int32) *float64 {
	r := decimal.NewFromFloat(v).Round(places).InexactFloat64()
	return &r
}
