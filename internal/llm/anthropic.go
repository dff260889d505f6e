package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/rs/zerolog/log"

	"github.com/crmlens/crmlens/internal/interpreter"
	"github.com/crmlens/crmlens/internal/schema"
)

const (
	defaultModel   = "claude-sonnet-4-6"
	defaultTimeout = 8 * time.Second
	maxTokens      = 1024
)

// Client interprets questions through the Anthropic messages API. The
// prompt template is fixed at construction from the allow-list registry;
// the raw question is the only per-call input.
type Client struct {
	client  *anthropic.Client
	model   string
	timeout time.Duration
	system  string
}

// NewClient builds a live fallback client. model and baseURL may be empty;
// timeout zero means the default. The registry supplies the enumerated
// schema embedded in the prompt.
func NewClient(apiKey, model, baseURL string, timeout time.Duration, registry *schema.Registry) *Client {
	if model == "" {
		model = defaultModel
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	return &Client{
		client:  anthropic.NewClient(opts...),
		model:   model,
		timeout: timeout,
		system:  systemPrompt(registry),
	}
}

// InterpretQuery asks the model for a structured interpretation. The call
// is bounded by the client timeout; any transport or parse failure comes
// back as an error for the pipeline to swallow.
func (c *Client) InterpretQuery(ctx context.Context, query string) (*interpreter.Interpretation, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	params := anthropic.MessageNewParams{
		Model:     anthropic.F(anthropic.Model(c.model)),
		MaxTokens: anthropic.F(int64(maxTokens)),
		System: anthropic.F([]anthropic.TextBlockParam{
			anthropic.NewTextBlock(c.system),
		}),
		Messages: anthropic.F([]anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(query)),
		}),
	}

	resp, err := c.client.Messages.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("llm call failed: %w", err)
	}

	var text string
	for _, block := range resp.Content {
		if b, ok := block.AsUnion().(anthropic.TextBlock); ok {
			text += b.Text
		}
	}

	interp, err := parseInterpretation(text)
	if err != nil {
		log.Debug().Err(err).Str("model", c.model).Msg("fallback response unparseable")
		return nil, err
	}

	log.Debug().
		Str("model", c.model).
		Float64("confidence", interp.Confidence).
		Msg("fallback interpretation")
	return interp, nil
}

// systemPrompt renders the fixed instruction block with the enumerated
// allow-list. Nothing caller-controlled is interpolated here.
func systemPrompt(registry *schema.Registry) string {
	var b strings.Builder
	b.WriteString("You interpret CRM business questions into structured JSON. ")
	b.WriteString("Respond with ONLY a JSON object, no prose, shaped as:\n")
	b.WriteString(`{"intent":{"type":"count|sum|average|compare|trend|list|aggregate","subject":"...","confidence":0.0},` +
		`"entities":[{"name":"...","kind":"table|column|value","confidence":0.0}],` +
		`"metrics":["..."],` +
		`"filters":[{"column":"...","operator":"equals|not_equals|greater_than|less_than|like|in|between","value":"scalar or array","confidence":0.0}],` +
		`"groupBy":["..."],` +
		`"timeframe":{"type":"day|week|month|quarter|year|custom","relative":"..."},` +
		`"visualization":"number|table|bar|line|pie|area",` +
		`"confidence":0.0}` + "\n")
	b.WriteString("Omit timeframe when the question has none. Only these tables and columns exist:\n")
	for _, t := range registry.Tables() {
		b.WriteString("- ")
		b.WriteString(t.Name)
		if len(t.Synonyms) > 0 {
			b.WriteString(" (also called ")
			b.WriteString(strings.Join(t.Synonyms, ", "))
			b.WriteString(")")
		}
		b.WriteString(": ")
		names := make([]string, len(t.Columns))
		for i, col := range t.Columns {
			names[i] = col.Name
		}
		b.WriteString(strings.Join(names, ", "))
		b.WriteString("\n")
	}
	return b.String()
}

// Wire shapes for decoding the model response. Filter values arrive as
// arbitrary JSON and are converted into the tagged FilterValue types;
// anything unconvertible drops the filter.
type wireInterpretation struct {
	Intent struct {
		Type       string  `json:"type"`
		Subject    string  `json:"subject"`
		Confidence float64 `json:"confidence"`
	} `json:"intent"`
	Entities []struct {
		Name       string  `json:"name"`
		Kind       string  `json:"kind"`
		Confidence float64 `json:"confidence"`
	} `json:"entities"`
	Metrics []string     `json:"metrics"`
	Filters []wireFilter `json:"filters"`
	GroupBy []string     `json:"groupBy"`
	Timeframe *struct {
		Type     string     `json:"type"`
		Relative string     `json:"relative"`
		Start    *time.Time `json:"start"`
		End      *time.Time `json:"end"`
	} `json:"timeframe"`
	Visualization string  `json:"visualization"`
	Confidence    float64 `json:"confidence"`
}

type wireFilter struct {
	Column     string  `json:"column"`
	Operator   string  `json:"operator"`
	Value      any     `json:"value"`
	Confidence float64 `json:"confidence"`
}

// parseInterpretation extracts the JSON object from the response text and
// sanitizes it into an Interpretation. Confidences are clamped; unknown
// enum values pass through for the generator's whitelists to reject.
func parseInterpretation(text string) (*interpreter.Interpretation, error) {
	raw := extractJSON(text)
	if raw == "" {
		return nil, fmt.Errorf("no JSON object in response")
	}

	var w wireInterpretation
	if err := json.Unmarshal([]byte(raw), &w); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if w.Intent.Type == "" {
		return nil, fmt.Errorf("response missing intent")
	}

	interp := &interpreter.Interpretation{
		Intent: interpreter.Intent{
			Type:       interpreter.IntentType(w.Intent.Type),
			Subject:    w.Intent.Subject,
			Confidence: clamp(w.Intent.Confidence),
		},
		Metrics:       w.Metrics,
		GroupBy:       w.GroupBy,
		Visualization: interpreter.Visualization(w.Visualization),
		Confidence:    clamp(w.Confidence),
	}

	for _, e := range w.Entities {
		interp.Entities = append(interp.Entities, interpreter.Entity{
			Name:       e.Name,
			Kind:       interpreter.EntityKind(e.Kind),
			Confidence: clamp(e.Confidence),
		})
	}

	for _, f := range w.Filters {
		value, ok := interpreter.FilterValueOf(f.Value)
		if !ok {
			continue
		}
		interp.Filters = append(interp.Filters, interpreter.Filter{
			Column:     f.Column,
			Operator:   interpreter.Operator(f.Operator),
			Value:      value,
			Confidence: clamp(f.Confidence),
		})
	}

	if w.Timeframe != nil {
		tf := &interpreter.TimeFrame{
			Type:     interpreter.TimeFrameType(w.Timeframe.Type),
			Relative: w.Timeframe.Relative,
			Start:    w.Timeframe.Start,
			End:      w.Timeframe.End,
		}
		if tf.Relative == "" && tf.Start == nil {
			tf.Relative = currentPeriodPhrase(tf.Type)
		}
		interp.TimeFrame = tf
	}

	return interp, nil
}

// currentPeriodPhrase maps a bare timeframe type onto the matching
// enumerated phrase so the generator can resolve it.
func currentPeriodPhrase(typ interpreter.TimeFrameType) string {
	switch typ {
	case interpreter.TimeDay:
		return "today"
	case interpreter.TimeWeek:
		return "this week"
	case interpreter.TimeMonth:
		return "this month"
	case interpreter.TimeQuarter:
		return "this quarter"
	case interpreter.TimeYear:
		return "this year"
	}
	return ""
}

// extractJSON trims code fences and returns the outermost object literal.
func extractJSON(text string) string {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return ""
	}
	return text[start : end+1]
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
