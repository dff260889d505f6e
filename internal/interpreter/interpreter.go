package interpreter

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/crmlens/crmlens/internal/schema"
)

// Interpreter turns free-text questions into structured interpretations.
// It is pure and deterministic: the same text always yields the same
// result. The only configuration is the immutable pattern tables and the
// table registry, so concurrent use needs no locking.
type Interpreter struct {
	registry *schema.Registry
}

func New(registry *schema.Registry) *Interpreter {
	return &Interpreter{registry: registry}
}

// Interpret runs the full pattern pipeline over one question.
func (in *Interpreter) Interpret(text string) *Interpretation {
	normalized := Normalize(text)

	intent := detectIntent(normalized)
	intent.Subject = in.extractSubject(normalized)

	entities := in.extractEntities(normalized)
	metrics := extractMetrics(normalized)
	filters := extractFilters(normalized)
	groupBy := extractGroupBy(normalized)
	timeframe := extractTimeFrame(normalized)

	return &Interpretation{
		Intent:        intent,
		Entities:      entities,
		Metrics:       metrics,
		Filters:       filters,
		GroupBy:       groupBy,
		TimeFrame:     timeframe,
		Visualization: suggestVisualization(intent.Type, metrics, groupBy),
		Confidence:    overallConfidence(intent, entities, metrics, filters, timeframe),
	}
}

var (
	nonWordRe    = regexp.MustCompile(`[^\w\s]+`)
	whitespaceRe = regexp.MustCompile(`\s+`)
)

// Normalize lowercases text, strips everything except word characters and
// whitespace, and collapses whitespace runs. Total: any input yields a
// well-formed, possibly empty, result.
func Normalize(text string) string {
	t := strings.ToLower(text)
	t = nonWordRe.ReplaceAllString(t, "")
	t = whitespaceRe.ReplaceAllString(t, " ")
	return strings.TrimSpace(t)
}

// hasWord reports whether phrase occurs in text on word boundaries. Text
// must already be normalized, so a single space is the only separator.
func hasWord(text, phrase string) bool {
	return strings.Contains(" "+text+" ", " "+phrase+" ")
}

func detectIntent(text string) Intent {
	best := Intent{Type: IntentList, Confidence: defaultIntentConfidence}
	if text == "" {
		return best
	}

	matched := false
	for _, rule := range intentRules {
		span := rule.re.FindString(text)
		if span == "" {
			continue
		}
		score := float64(len(span))/float64(len(text)) + rule.bonus
		if score > 1 {
			score = 1
		}
		// Strict comparison keeps the first rule at equal score.
		if !matched || score > best.Confidence {
			best = Intent{Type: rule.intent, Confidence: score}
			matched = true
		}
	}
	return best
}

func (in *Interpreter) extractSubject(text string) string {
	for _, word := range schema.SubjectVocabulary() {
		if hasWord(text, word) {
			return word
		}
	}
	return "unknown"
}

func (in *Interpreter) extractEntities(text string) []Entity {
	var entities []Entity

	for _, table := range in.registry.Tables() {
		for _, word := range table.MatchWords() {
			if hasWord(text, word) {
				entities = append(entities, Entity{
					Name:       table.Name,
					Kind:       KindTable,
					Confidence: tableEntityConfidence,
				})
				break
			}
		}
	}

	for _, p := range columnPatterns {
		if p.re.MatchString(text) {
			entities = append(entities, Entity{
				Name:       p.column,
				Kind:       KindColumn,
				Confidence: columnEntityConfidence,
			})
		}
	}

	return entities
}

func extractTimeFrame(text string) *TimeFrame {
	for _, p := range timeframePhrases {
		if hasWord(text, p.phrase) {
			return &TimeFrame{Type: p.typ, Relative: p.phrase}
		}
	}
	if m := relativeTimeRe.FindString(text); m != "" {
		return &TimeFrame{Type: TimeCustom, Relative: m}
	}
	return nil
}

// ParseRelative splits a "past N units" phrase into its count and unit.
func ParseRelative(phrase string) (int, TimeFrameType, bool) {
	m := relativeTimeRe.FindStringSubmatch(strings.ToLower(phrase))
	if m == nil {
		return 0, "", false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil || n <= 0 {
		return 0, "", false
	}
	return n, TimeFrameType(m[2]), true
}

func extractFilters(text string) []Filter {
	var filters []Filter

	for _, status := range statusVocabulary {
		if hasWord(text, status) {
			filters = append(filters, Filter{
				Column:     "status",
				Operator:   OpEquals,
				Value:      StringValue(status),
				Confidence: statusFilterConfidence,
			})
			break
		}
	}

	if m := locationRe.FindStringSubmatch(text); m != nil {
		if place := trimLocation(m[1]); place != "" {
			filters = append(filters, Filter{
				Column:     "city",
				Operator:   OpLike,
				Value:      StringValue(place),
				Confidence: locationFilterConfidence,
			})
		}
	}

	if m := comparisonRe.FindStringSubmatch(text); m != nil {
		raw := strings.ReplaceAll(m[2], ",", "")
		if n, err := strconv.ParseFloat(raw, 64); err == nil {
			filters = append(filters, Filter{
				Column:     "value",
				Operator:   comparisonOperators[m[1]],
				Value:      NumberValue(n),
				Confidence: comparisonFilterConfidence,
			})
		}
	}

	return filters
}

// trimLocation drops trailing stopwords from a captured place phrase and
// rejects captures that start with one.
func trimLocation(raw string) string {
	words := strings.Fields(raw)
	for len(words) > 0 && locationStopwords[words[len(words)-1]] {
		words = words[:len(words)-1]
	}
	if len(words) == 0 || locationStopwords[words[0]] {
		return ""
	}
	return strings.Join(words, " ")
}

func extractMetrics(text string) []string {
	var metrics []string
	for _, m := range metricKeywords {
		for _, phrase := range m.phrases {
			if hasWord(text, phrase) {
				metrics = append(metrics, m.tag)
				break
			}
		}
	}
	return metrics
}

func extractGroupBy(text string) []string {
	var dims []string
	for _, g := range groupByKeywords {
		for _, phrase := range g.phrases {
			if hasWord(text, phrase) {
				dims = append(dims, g.dimension)
				break
			}
		}
	}
	return dims
}

func suggestVisualization(intent IntentType, metrics, groupBy []string) Visualization {
	if len(metrics) == 1 && len(groupBy) == 0 {
		return VizNumber
	}
	if intent == IntentCompare || intent == IntentTrend {
		for _, dim := range groupBy {
			if dim == "month" || dim == "year" {
				return VizLine
			}
		}
		return VizBar
	}
	if len(groupBy) > 0 {
		if len(groupBy) > 1 {
			return VizBar
		}
		if timeDimensions[groupBy[0]] {
			for _, m := range metrics {
				if m == "count" {
					return VizLine
				}
			}
			return VizArea
		}
		return VizPie
	}
	if intent == IntentList {
		return VizTable
	}
	if intent == IntentCount {
		return VizNumber
	}
	return VizTable
}

func overallConfidence(intent Intent, entities []Entity, metrics []string, filters []Filter, tf *TimeFrame) float64 {
	score := 0.5 + 0.3*intent.Confidence
	if len(entities) > 0 {
		score += 0.2
	}
	if tf != nil {
		score += 0.2
	}
	if len(filters) > 0 {
		score += 0.1
	}
	if len(metrics) > 0 {
		score += 0.2
	}
	return clamp(score)
}

func clamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
