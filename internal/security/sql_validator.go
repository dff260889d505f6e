package security

import (
	"regexp"
	"strings"
)

// sqlDangerousPatterns catches injection shapes that must never appear in
// generated SQL. The generator builds from whitelists, so a hit here means
// a bug upstream, not just a hostile caller.
var sqlDangerousPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i);\s*DROP\s+`),
	regexp.MustCompile(`(?i);\s*DELETE\s+`),
	regexp.MustCompile(`(?i);\s*INSERT\s+`),
	regexp.MustCompile(`(?i);\s*UPDATE\s+`),
	regexp.MustCompile(`(?i);\s*ALTER\s+`),
	regexp.MustCompile(`(?i);\s*CREATE\s+`),
	regexp.MustCompile(`(?i);\s*TRUNCATE\s+`),
	regexp.MustCompile(`(?i)\bUNION\s+(ALL\s+)?SELECT\b`),
	regexp.MustCompile(`(?i)\bINTO\s+OUTFILE\b`),
	regexp.MustCompile(`(?i)\bPG_SLEEP\s*\(`),
	regexp.MustCompile(`(?i)\bPG_READ_FILE\s*\(`),
	regexp.MustCompile(`(?i)\bCOPY\s+.*\bFROM\b`),
	regexp.MustCompile(`'.*--`),
	regexp.MustCompile(`;\s*--`),
	regexp.MustCompile(`/\*.*?\*/`),
	regexp.MustCompile(`(?i)\bor\s+1\s*=\s*1\b`),
	regexp.MustCompile(`(?i)\band\s+1\s*=\s*1\b`),
	regexp.MustCompile(`(?i)\bor\s+'1'\s*=\s*'1'`),
	regexp.MustCompile(`(?i)\band\s+'1'\s*=\s*'1'`),
}

// disallowedKeywords are statement words a read-only query can never
// contain, wherever they appear.
var disallowedKeywords = map[string]bool{
	"DROP": true, "DELETE": true, "INSERT": true, "UPDATE": true,
	"ALTER": true, "CREATE": true, "TRUNCATE": true, "MERGE": true,
	"GRANT": true, "REVOKE": true, "EXEC": true, "EXECUTE": true,
	"CALL": true, "VACUUM": true, "REINDEX": true,
}

var sqlWordRe = regexp.MustCompile(`[A-Za-z_]+`)

// SQLValidator is the last gate before a generated query leaves the
// pipeline. The generator emits single SELECT statements only; everything
// else fails here.
type SQLValidator struct{}

func NewSQLValidator() *SQLValidator {
	return &SQLValidator{}
}

// Validate returns an error string if the SQL is unacceptable, or empty
// string if OK.
func (v *SQLValidator) Validate(sql string) string {
	trimmed := strings.TrimSpace(sql)
	if trimmed == "" {
		return "SQL cannot be empty"
	}

	if !strings.HasPrefix(strings.ToUpper(trimmed), "SELECT") {
		return "only SELECT queries are allowed"
	}

	// Single statement: the generator never emits semicolons.
	if strings.Contains(trimmed, ";") {
		return "multiple statements are not allowed"
	}

	for _, word := range sqlWordRe.FindAllString(trimmed, -1) {
		if disallowedKeywords[strings.ToUpper(word)] {
			return "disallowed keyword: " + strings.ToUpper(word)
		}
	}

	for _, pattern := range sqlDangerousPatterns {
		if pattern.MatchString(sql) {
			return "SQL injection pattern detected"
		}
	}

	return ""
}
