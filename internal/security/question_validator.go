package security

import (
	"regexp"
	"strings"
)

const MaxQuestionLength = 500

// questionDangerousPatterns flag input that is trying to steer the LLM
// fallback or smuggle code rather than ask about data.
var questionDangerousPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)ignore\s+(all\s+)?(previous|prior|above)\s+(instructions?|prompts?)`),
	regexp.MustCompile(`(?i)disregard\s+(all\s+)?(previous|prior|above)`),
	regexp.MustCompile(`(?i)forget\s+(everything|all|previous)`),
	regexp.MustCompile(`(?i)you\s+are\s+now\s+`),
	regexp.MustCompile(`(?i)new\s+(instructions?|task|role)\s*:`),
	regexp.MustCompile(`(?i)system\s*prompt`),
	regexp.MustCompile(`(?i)<\s*script`),
	regexp.MustCompile(`(?i)javascript\s*:`),
	regexp.MustCompile(`(?i)\beval\s*\(`),
	regexp.MustCompile(`(?i)\bexec\s*\(`),
	regexp.MustCompile(`\$\{.*\}`),
	regexp.MustCompile(`\{\{.*\}\}`),
	regexp.MustCompile(`\.\./`),
}

// questionSuspiciousIndicators are soft signals. One alone passes; several
// together reject.
var questionSuspiciousIndicators = []string{
	"pretend",
	"roleplay",
	"jailbreak",
	"bypass",
	"override",
	"admin mode",
	"developer mode",
	"sudo",
}

// dataKeywords anchor a question to the CRM domain. At least one must be
// present so the pipeline only works on questions it can answer.
var dataKeywords = []string{
	"contact", "lead", "customer", "client", "person", "people",
	"project", "job", "deal", "pipeline",
	"invoice", "bill", "payment",
	"activity", "task", "appointment", "call",
	"revenue", "sales", "value", "profit",
	"how many", "count", "total", "average", "show", "list",
	"status", "source", "city", "month", "quarter", "year",
}

type ValidationResult struct {
	Valid   bool
	Message string
}

// QuestionValidator screens free-text questions before interpretation.
type QuestionValidator struct{}

func NewQuestionValidator() *QuestionValidator {
	return &QuestionValidator{}
}

func (v *QuestionValidator) Validate(question string) ValidationResult {
	trimmed := strings.TrimSpace(question)
	if trimmed == "" {
		return ValidationResult{Valid: false, Message: "question cannot be empty"}
	}
	if len(trimmed) > MaxQuestionLength {
		return ValidationResult{Valid: false, Message: "question is too long"}
	}

	for _, pattern := range questionDangerousPatterns {
		if pattern.MatchString(trimmed) {
			return ValidationResult{Valid: false, Message: "question contains a disallowed pattern"}
		}
	}

	lower := strings.ToLower(trimmed)
	suspicious := 0
	for _, indicator := range questionSuspiciousIndicators {
		if strings.Contains(lower, indicator) {
			suspicious++
		}
	}
	if suspicious >= 2 {
		return ValidationResult{Valid: false, Message: "question contains a disallowed pattern"}
	}

	for _, keyword := range dataKeywords {
		if strings.Contains(lower, keyword) {
			return ValidationResult{Valid: true}
		}
	}
	return ValidationResult{Valid: false, Message: "question does not reference any known data"}
}
