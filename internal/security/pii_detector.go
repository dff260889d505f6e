package security

import "strings"

// DefaultPIIKeywords cover the fields a CRM question should never ask the
// pipeline to surface directly.
var DefaultPIIKeywords = []string{
	"password",
	"ssn",
	"social security",
	"credit card",
	"card number",
	"cvv",
	"bank account",
	"routing number",
	"api key",
	"api_key",
	"access token",
	"secret",
}

// PIIDetector flags questions that ask for sensitive fields.
type PIIDetector struct {
	keywords []string
}

// NewPIIDetector builds a detector. With no arguments it uses
// DefaultPIIKeywords; otherwise the given keywords replace the defaults.
func NewPIIDetector(keywords ...string) *PIIDetector {
	if len(keywords) == 0 {
		keywords = DefaultPIIKeywords
	}
	lowered := make([]string, len(keywords))
	for i, k := range keywords {
		lowered[i] = strings.ToLower(k)
	}
	return &PIIDetector{keywords: lowered}
}

// Detect returns true and the first matched keyword if the text mentions a
// sensitive field.
func (d *PIIDetector) Detect(text string) (bool, string) {
	lower := strings.ToLower(text)
	for _, keyword := range d.keywords {
		if strings.Contains(lower, keyword) {
			return true, keyword
		}
	}
	return false, ""
}
