package interpreter

import "regexp"

// intentRule is one classification probe. Rules are evaluated in
// declaration order and the order is part of the contract: at equal score
// the earlier rule wins. Bonus lifts intents that should win ambiguous
// text.
type intentRule struct {
	intent IntentType
	re     *regexp.Regexp
	bonus  float64
}

var intentRules = []intentRule{
	{IntentCount, regexp.MustCompile(`\b(how many|count|number of)\b`), 0.5},
	{IntentSum, regexp.MustCompile(`\b(total|sum of|sum)\b`), 0},
	{IntentAverage, regexp.MustCompile(`\b(average|avg|mean)\b`), 0},
	{IntentCompare, regexp.MustCompile(`\b(compare|versus|vs|difference between)\b`), 0},
	{IntentTrend, regexp.MustCompile(`\b(trend|over time|growth|month over month)\b`), 0},
	{IntentList, regexp.MustCompile(`\b(show|list|display|give me|get|find)\b`), 0},
	{IntentAggregate, regexp.MustCompile(`\b(breakdown|grouped|by|per)\b`), 0},
}

// defaultIntentConfidence applies when no rule matches at all.
const defaultIntentConfidence = 0.3

// columnPattern maps a column keyword probe to the logical column entity it
// produces. All probes run; several column entities may co-occur.
type columnPattern struct {
	column string
	re     *regexp.Regexp
}

var columnPatterns = []columnPattern{
	{"status", regexp.MustCompile(`\bstatus(?:es)?\b`)},
	{"source", regexp.MustCompile(`\bsources?\b`)},
	{"type", regexp.MustCompile(`\btypes?\b`)},
	{"value", regexp.MustCompile(`\b(?:value|worth|price|amount)s?\b`)},
	{"date", regexp.MustCompile(`\b(?:date|created|updated)\b`)},
}

const (
	tableEntityConfidence  = 0.8
	columnEntityConfidence = 0.7
)

// timeframePhrases is the exact-phrase window table, probed before the
// numeric "past N units" form.
var timeframePhrases = []struct {
	phrase string
	typ    TimeFrameType
}{
	{"today", TimeDay},
	{"yesterday", TimeDay},
	{"this week", TimeWeek},
	{"last week", TimeWeek},
	{"this month", TimeMonth},
	{"last month", TimeMonth},
	{"this quarter", TimeQuarter},
	{"last quarter", TimeQuarter},
	{"this year", TimeYear},
	{"last year", TimeYear},
}

// relativeTimeRe recognizes the "past N units" window form.
var relativeTimeRe = regexp.MustCompile(`\b(?:past|last)\s+(\d+)\s+(day|week|month|quarter|year)s?\b`)

// statusVocabulary enumerates the status words the equality probe accepts.
// Probed in order, first hit wins.
var statusVocabulary = []string{
	"in progress",
	"active", "inactive", "pending", "completed", "cancelled",
	"new", "open", "closed", "won", "lost",
	"scheduled", "overdue", "paid", "unpaid",
}

// locationRe captures up to two words after "in" for the location probe.
var locationRe = regexp.MustCompile(`\bin\s+([a-z]+(?:\s+[a-z]+)?)\b`)

// locationStopwords are words that follow "in" without naming a place.
// Month and period words keep the probe from eating timeframes.
var locationStopwords = map[string]bool{
	"the": true, "a": true, "an": true, "my": true, "our": true,
	"this": true, "that": true, "last": true, "past": true, "progress": true,
	"total": true, "order": true, "general": true,
	"over": true, "under": true, "above": true, "below": true,
	"january": true, "february": true, "march": true, "april": true,
	"may": true, "june": true, "july": true, "august": true,
	"september": true, "october": true, "november": true, "december": true,
	"q1": true, "q2": true, "q3": true, "q4": true,
	"week": true, "month": true, "quarter": true, "year": true, "years": true,
}

// comparisonRe recognizes numeric threshold filters. The currency mark and
// thousands separators are tolerated so the probe also works on raw text.
var comparisonRe = regexp.MustCompile(`\b(above|below|over|under|greater than|less than)\s+\$?(\d[\d,]*(?:\.\d+)?)\b`)

// comparisonOperators normalizes the matched comparison word.
var comparisonOperators = map[string]Operator{
	"above":        OpGreaterThan,
	"over":         OpGreaterThan,
	"greater than": OpGreaterThan,
	"below":        OpLessThan,
	"under":        OpLessThan,
	"less than":    OpLessThan,
}

const (
	statusFilterConfidence     = 0.8
	locationFilterConfidence   = 0.7
	comparisonFilterConfidence = 0.85
)

// metricKeywords maps metric tags to their trigger phrases. All matching
// tags are collected, in table order.
var metricKeywords = []struct {
	tag     string
	phrases []string
}{
	{"count", []string{"how many", "count", "number of"}},
	{"revenue", []string{"revenue", "sales", "income"}},
	{"value", []string{"value", "worth"}},
	{"profit", []string{"profit", "margin"}},
}

// groupByKeywords maps grouping dimensions to their trigger phrases. All
// matching dimensions are collected, in table order.
var groupByKeywords = []struct {
	dimension string
	phrases   []string
}{
	{"status", []string{"by status", "per status"}},
	{"source", []string{"by source", "per source"}},
	{"type", []string{"by type", "per type"}},
	{"city", []string{"by city", "by location", "per city"}},
	{"month", []string{"by month", "monthly", "per month"}},
	{"quarter", []string{"by quarter", "quarterly"}},
	{"year", []string{"by year", "yearly", "annually", "per year"}},
}

// timeDimensions are the grouping dimensions treated as time axes when
// choosing a visualization.
var timeDimensions = map[string]bool{
	"day": true, "week": true, "month": true, "quarter": true, "year": true,
}
