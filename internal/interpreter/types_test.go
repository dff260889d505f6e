package interpreter_test

import (
	"encoding/json"
	"reflect"
	"testing"

	"github.com/crmlens/crmlens/internal/interpreter"
)

func TestFilterJSONRoundTrip(t *testing.T) {
	cases := []struct {
		name   string
		filter interpreter.Filter
	}{
		{
			name: "string equality",
			filter: interpreter.Filter{
				Column:     "status",
				Operator:   interpreter.OpEquals,
				Value:      interpreter.StringValue("new"),
				Confidence: 0.8,
			},
		},
		{
			name: "numeric comparison",
			filter: interpreter.Filter{
				Column:     "value",
				Operator:   interpreter.OpGreaterThan,
				Value:      interpreter.NumberValue(50000),
				Confidence: 0.85,
			},
		},
		{
			name: "list membership",
			filter: interpreter.Filter{
				Column:   "status",
				Operator: interpreter.OpIn,
				Value: interpreter.ListValue{
					interpreter.StringValue("won"),
					interpreter.StringValue("lost"),
				},
				Confidence: 0.7,
			},
		},
		{
			name: "no value",
			filter: interpreter.Filter{
				Column:     "city",
				Operator:   interpreter.OpLike,
				Confidence: 0.7,
			},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			data, err := json.Marshal(tc.filter)
			if err != nil {
				t.Fatalf("marshal: %v", err)
			}
			var got interpreter.Filter
			if err := json.Unmarshal(data, &got); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
			if !reflect.DeepEqual(got, tc.filter) {
				t.Errorf("round trip = %+v, want %+v", got, tc.filter)
			}
		})
	}
}

func TestFilterUnmarshalRejectsNestedList(t *testing.T) {
	raw := `{"column":"status","operator":"in","value":[["won"]],"confidence":0.7}`
	var f interpreter.Filter
	if err := json.Unmarshal([]byte(raw), &f); err == nil {
		t.Fatal("expected error for nested list value")
	}
}

func TestFilterValueOf(t *testing.T) {
	if v, ok := interpreter.FilterValueOf("new"); !ok || v != interpreter.StringValue("new") {
		t.Errorf("string = %v, %t", v, ok)
	}
	if v, ok := interpreter.FilterValueOf(float64(42)); !ok || v != interpreter.NumberValue(42) {
		t.Errorf("number = %v, %t", v, ok)
	}
	if v, ok := interpreter.FilterValueOf(true); !ok || v != interpreter.StringValue("true") {
		t.Errorf("bool = %v, %t", v, ok)
	}
	if _, ok := interpreter.FilterValueOf([]any{}); ok {
		t.Error("empty list should not convert")
	}
	if _, ok := interpreter.FilterValueOf(map[string]any{"a": 1}); ok {
		t.Error("object should not convert")
	}
}
