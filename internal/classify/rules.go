package classify

// Transaction types
const (
	Buy      = "buy"
	Sell     = "sell"
	Award    = "award"
	Transfer = "transfer"
	Others   = "others"
)

// Rule maps keywords of a free-text description, or the name of a form
// option, to a transaction type
type Rule struct {
	Name        string   `yaml:"name"`
	Type        string   `yaml:"type"`
	Keywords    []string `yaml:"keywords,omitempty"`
	Option      string   `yaml:"option,omitempty"`
	Description string   `yaml:"description,omitempty"`
}

// Rules are the keyword and option tables of the classifier
type Rules struct {
	// Keywords are matched against lower-cased descriptions in order
	Keywords []Rule `yaml:"keywords"`
	// Options map "Other circumstances" option names to types
	Options []Rule `yaml:"options"`
	// ManagementOption is the acquisition option that is not a purchase
	ManagementOption string `yaml:"management_option"`
}

// DefaultRules returns the rule tables for SGX disclosure forms
func DefaultRules() Rules {
	return Rules{
		Keywords: []Rule{
			{
				Name:        "compensation",
				Type:        Award,
				Keywords:    []string{"award", "grant"},
				Description: "Shares received as remuneration",
			},
			{
				Name:        "special_rights",
				Type:        Buy,
				Keywords:    []string{"acquisition", "exercise of options", "rights allotment", "share buy-back"},
				Description: "Acquisitions through options, rights or buy-backs",
			},
			{
				Name:        "off_market_transfer",
				Type:        Transfer,
				Keywords:    []string{"transfer", "trust deed", "spousal agreement"},
				Description: "Transfers without consideration",
			},
			{
				Name:        "non_market_sale",
				Type:        Sell,
				Keywords:    []string{"disposal", "disposed of", "disposed"},
				Description: "Sales outside the market",
			},
		},
		Options: []Rule{
			{Name: "employee_awards", Type: Award, Option: "acceptance of employee share options/share awards"},
			{Name: "vesting", Type: Award, Option: "vesting of share awards"},
			{Name: "option_exercise", Type: Buy, Option: "exercise of employee share options"},
			{Name: "take_over", Type: Sell, Option: "acceptance of take-over offer for listed issuer"},
			{Name: "take_over_short", Type: Sell, Option: "acceptance of take-over offer"},
		},
		ManagementOption: "Securities as part of management",
	}
}
