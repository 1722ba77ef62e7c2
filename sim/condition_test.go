package sim

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCondition_Holds(t *testing.T) {
	metrics := MetricValues{MetricMissedProcesses: 3}
	tests := []struct {
		op   Operator
		th   int
		want bool
	}{
		{OpEqual, 3, true},
		{OpEqual, 2, false},
		{OpNotEqual, 2, true},
		{OpLessThan, 3, false},
		{OpLessThan, 4, true},
		{OpLessThanEqual, 3, true},
		{OpGreaterThan, 3, false},
		{OpGreaterThan, 2, true},
		{OpGreaterThanEqual, 3, true},
		{Operator("~"), 3, false},
	}
	for _, tt := range tests {
		c := Condition{Attribute: MetricMissedProcesses, Operator: tt.op, Threshold: tt.th}
		assert.Equal(t, tt.want, c.Holds(metrics), c.String())
	}
}

func TestCondition_MissingMetricReadsZero(t *testing.T) {
	c := Condition{Attribute: "unknownMetric", Operator: OpEqual, Threshold: 0}
	assert.True(t, c.Holds(MetricValues{}))
}

func TestEvaluate_EmptyLists(t *testing.T) {
	// An empty stop list never fires; an empty win list always wins.
	assert.False(t, EvaluateAny(nil, MetricValues{}))
	assert.True(t, EvaluateAll(nil, MetricValues{}))
}

func TestEvaluate_AnyAndAll(t *testing.T) {
	metrics := MetricValues{MetricRemainingTime: 0, MetricMissedProcesses: 1}
	conds := []Condition{
		{Attribute: MetricRemainingTime, Operator: OpLessThanEqual, Threshold: 0},
		{Attribute: MetricMissedProcesses, Operator: OpGreaterThanEqual, Threshold: 5},
	}
	assert.True(t, EvaluateAny(conds, metrics))
	assert.False(t, EvaluateAll(conds, metrics))
}

func TestParseOperator_Aliases(t *testing.T) {
	for in, want := range map[string]Operator{
		"<=": OpLessThanEqual, "≤": OpLessThanEqual, "le": OpLessThanEqual,
		"==": OpEqual, "ne": OpNotEqual, "greater_than": OpGreaterThan, "≥": OpGreaterThanEqual,
	} {
		got, err := ParseOperator(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
		assert.True(t, got.IsValid())
	}

	_, err := ParseOperator("approx")
	assert.Error(t, err)
}
