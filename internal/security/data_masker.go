package security

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	emailColRe    = regexp.MustCompile(`(?i)email`)
	phoneColRe    = regexp.MustCompile(`(?i)phone|mobile`)
	ssnColRe      = regexp.MustCompile(`(?i)ssn|social_security`)
	cardColRe     = regexp.MustCompile(`(?i)credit_card|card_number`)
	fullMaskColRe = regexp.MustCompile(`(?i)password|secret|token|api_key|access_key|private_key`)
)

// DataMasker masks sensitive column values in result rows before they
// leave the service. Columns are matched by name, so it covers whatever
// the configured schema exposes without knowing it in advance.
type DataMasker struct {
	sensitiveColumns []string
}

// NewDataMasker builds a masker. The built-in column patterns always
// apply; extra column names extend them.
func NewDataMasker(sensitiveColumns ...string) *DataMasker {
	lowered := make([]string, len(sensitiveColumns))
	for i, c := range sensitiveColumns {
		lowered[i] = strings.ToLower(c)
	}
	return &DataMasker{sensitiveColumns: lowered}
}

// MaskRows returns a copy of rows with sensitive values replaced.
func (m *DataMasker) MaskRows(rows []map[string]any) []map[string]any {
	masked := make([]map[string]any, len(rows))
	for i, row := range rows {
		masked[i] = m.maskRow(row)
	}
	return masked
}

func (m *DataMasker) maskRow(row map[string]any) map[string]any {
	out := make(map[string]any, len(row))
	for col, val := range row {
		if val != nil && m.isSensitive(col) {
			out[col] = m.maskValue(col, fmt.Sprintf("%v", val))
		} else {
			out[col] = val
		}
	}
	return out
}

func (m *DataMasker) isSensitive(col string) bool {
	lower := strings.ToLower(col)
	for _, s := range m.sensitiveColumns {
		if strings.Contains(lower, s) {
			return true
		}
	}
	return emailColRe.MatchString(col) || phoneColRe.MatchString(col) ||
		ssnColRe.MatchString(col) || cardColRe.MatchString(col) ||
		fullMaskColRe.MatchString(col)
}

func (m *DataMasker) maskValue(col, val string) string {
	switch {
	case emailColRe.MatchString(col):
		return maskEmail(val)
	case phoneColRe.MatchString(col):
		return maskDigits(val, "***-***-")
	case ssnColRe.MatchString(col):
		return "***-**-****"
	case cardColRe.MatchString(col):
		return maskDigits(val, "****-****-****-")
	default:
		return "***"
	}
}

// maskEmail keeps the first two characters and the domain extension:
// "john.doe@example.com" becomes "jo***@***.com".
func maskEmail(email string) string {
	at := strings.LastIndex(email, "@")
	if at <= 0 || at == len(email)-1 {
		return "***"
	}
	local, domain := email[:at], email[at+1:]

	visible := 2
	if len(local) < visible {
		visible = len(local)
	}
	dot := strings.LastIndex(domain, ".")
	if dot < 0 || dot == len(domain)-1 {
		return local[:visible] + "***@***"
	}
	return fmt.Sprintf("%s***@***%s", local[:visible], domain[dot:])
}

// maskDigits keeps the last four digits behind the given prefix.
func maskDigits(val, prefix string) string {
	var digits strings.Builder
	for _, c := range val {
		if c >= '0' && c <= '9' {
			digits.WriteRune(c)
		}
	}
	d := digits.String()
	if len(d) < 4 {
		return prefix + "****"
	}
	return prefix + d[len(d)-4:]
}
