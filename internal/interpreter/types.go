package interpreter

import (
	"encoding/json"
	"fmt"
	"time"
)

// IntentType classifies what a question asks the data to do.
type IntentType string

const (
	IntentCount     IntentType = "count"
	IntentSum       IntentType = "sum"
	IntentAverage   IntentType = "average"
	IntentCompare   IntentType = "compare"
	IntentTrend     IntentType = "trend"
	IntentList      IntentType = "list"
	IntentAggregate IntentType = "aggregate"
)

// EntityKind says what part of the schema an extracted entity refers to.
type EntityKind string

const (
	KindTable  EntityKind = "table"
	KindColumn EntityKind = "column"
	KindValue  EntityKind = "value"
)

// Operator is the comparison a filter applies. ListValue is the only legal
// value for in and between; the scalar operators carry StringValue or
// NumberValue.
type Operator string

const (
	OpEquals      Operator = "equals"
	OpNotEquals   Operator = "not_equals"
	OpGreaterThan Operator = "greater_than"
	OpLessThan    Operator = "less_than"
	OpLike        Operator = "like"
	OpIn          Operator = "in"
	OpBetween     Operator = "between"
)

// Visualization is the chart hint for rendering a result set.
type Visualization string

const (
	VizNumber Visualization = "number"
	VizTable  Visualization = "table"
	VizBar    Visualization = "bar"
	VizLine   Visualization = "line"
	VizPie    Visualization = "pie"
	VizArea   Visualization = "area"
)

// TimeFrameType buckets a timeframe by its calendar unit. Custom covers the
// "past N units" form.
type TimeFrameType string

const (
	TimeDay     TimeFrameType = "day"
	TimeWeek    TimeFrameType = "week"
	TimeMonth   TimeFrameType = "month"
	TimeQuarter TimeFrameType = "quarter"
	TimeYear    TimeFrameType = "year"
	TimeCustom  TimeFrameType = "custom"
)

// QueryContext carries the caller identity and authorization for one
// request. Immutable once built.
type QueryContext struct {
	TenantID        string   `json:"tenantId"`
	UserID          string   `json:"userId"`
	Role            string   `json:"role"`
	AvailableTables []string `json:"availableTables"`
	Permissions     []string `json:"permissions"`
}

// Intent is the classified action of a question.
type Intent struct {
	Type       IntentType `json:"type"`
	Subject    string     `json:"subject"`
	Confidence float64    `json:"confidence"`
}

// Entity is a schema reference recognized in the question text.
type Entity struct {
	Name       string     `json:"name"`
	Kind       EntityKind `json:"kind"`
	Confidence float64    `json:"confidence"`
}

// FilterValue is the value side of a filter. The concrete type encodes what
// the operator may carry, so list and scalar shapes cannot be mixed up at
// runtime.
type FilterValue interface {
	filterValue()
}

// StringValue is a scalar text value.
type StringValue string

// NumberValue is a scalar numeric value.
type NumberValue float64

// ListValue carries the elements of an in or between filter.
type ListValue []FilterValue

func (StringValue) filterValue() {}
func (NumberValue) filterValue() {}
func (ListValue) filterValue()   {}

// FilterValueOf converts a decoded JSON value into the matching
// FilterValue. Strings and numbers map to their scalar types, booleans are
// carried as text, and flat arrays become a ListValue. Nested or empty
// arrays and any other shape report false.
func FilterValueOf(v any) (FilterValue, bool) {
	switch x := v.(type) {
	case string:
		return StringValue(x), true
	case float64:
		return NumberValue(x), true
	case bool:
		return StringValue(fmt.Sprintf("%t", x)), true
	case []any:
		list := make(ListValue, 0, len(x))
		for _, el := range x {
			sv, ok := FilterValueOf(el)
			if !ok {
				return nil, false
			}
			if _, nested := sv.(ListValue); nested {
				return nil, false
			}
			list = append(list, sv)
		}
		if len(list) == 0 {
			return nil, false
		}
		return list, true
	}
	return nil, false
}

// Filter is one WHERE-clause candidate extracted from the question.
type Filter struct {
	Column     string      `json:"column"`
	Operator   Operator    `json:"operator"`
	Value      FilterValue `json:"value"`
	Confidence float64     `json:"confidence"`
}

// UnmarshalJSON restores the concrete FilterValue from its wire shape, so
// filters survive a round trip through JSON clients.
func (f *Filter) UnmarshalJSON(data []byte) error {
	var raw struct {
		Column     string   `json:"column"`
		Operator   Operator `json:"operator"`
		Value      any      `json:"value"`
		Confidence float64  `json:"confidence"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	f.Column = raw.Column
	f.Operator = raw.Operator
	f.Confidence = raw.Confidence
	f.Value = nil
	if raw.Value == nil {
		return nil
	}
	value, ok := FilterValueOf(raw.Value)
	if !ok {
		return fmt.Errorf("filter %s: unsupported value %v", raw.Column, raw.Value)
	}
	f.Value = value
	return nil
}

// TimeFrame is the single time window recognized in a question. Start and
// End are set when the window is already resolved to instants; otherwise
// the generator resolves Relative against its own clock.
type TimeFrame struct {
	Type     TimeFrameType `json:"type"`
	Relative string        `json:"relative,omitempty"`
	Start    *time.Time    `json:"start,omitempty"`
	End      *time.Time    `json:"end,omitempty"`
}

// Interpretation is the structured reading of one question, the contract
// between the interpreter and the SQL generator.
type Interpretation struct {
	Intent        Intent        `json:"intent"`
	Entities      []Entity      `json:"entities"`
	Metrics       []string      `json:"metrics"`
	Filters       []Filter      `json:"filters"`
	GroupBy       []string      `json:"groupBy"`
	TimeFrame     *TimeFrame    `json:"timeframe,omitempty"`
	Visualization Visualization `json:"visualization"`
	Confidence    float64       `json:"confidence"`
}
