package sim

import "fmt"

// Operator is a comparison used by a Condition.
type Operator string

const (
	OpEqual            Operator = "="
	OpNotEqual         Operator = "!="
	OpLessThan         Operator = "<"
	OpLessThanEqual    Operator = "<="
	OpGreaterThan      Operator = ">"
	OpGreaterThanEqual Operator = ">="
)

// operatorAliases maps accepted spellings to canonical operators.
var operatorAliases = map[string]Operator{
	"=": OpEqual, "==": OpEqual, "eq": OpEqual, "equal": OpEqual,
	"!=": OpNotEqual, "≠": OpNotEqual, "ne": OpNotEqual, "not_equal": OpNotEqual,
	"<": OpLessThan, "lt": OpLessThan, "less_than": OpLessThan,
	"<=": OpLessThanEqual, "≤": OpLessThanEqual, "le": OpLessThanEqual, "less_than_equal": OpLessThanEqual,
	">": OpGreaterThan, "gt": OpGreaterThan, "greater_than": OpGreaterThan,
	">=": OpGreaterThanEqual, "≥": OpGreaterThanEqual, "ge": OpGreaterThanEqual, "greater_than_equal": OpGreaterThanEqual,
}

// ParseOperator resolves an operator spelling ("<=", "≤", "le", "less_than_equal").
func ParseOperator(s string) (Operator, error) {
	op, ok := operatorAliases[s]
	if !ok {
		return "", fmt.Errorf("unknown comparison operator %q", s)
	}
	return op, nil
}

// IsValid reports whether op is one of the canonical operators.
func (op Operator) IsValid() bool {
	switch op {
	case OpEqual, OpNotEqual, OpLessThan, OpLessThanEqual, OpGreaterThan, OpGreaterThanEqual:
		return true
	}
	return false
}

// Metric names exposed by LevelController to conditions.
const (
	MetricRemainingTime       = "remainingTime"
	MetricMissedProcesses     = "numMissedProcesses"
	MetricFinishedProcesses   = "numFinishedProcesses"
	MetricProcessesInSystem   = "numProcessesInSystem"
	MetricTimeElapsed         = "timeElapsed"
	MetricNumCPUs             = "numCPUs"
	MetricTotalWaitingTime    = "totalWaitingTime"
	MetricTotalTurnaroundTime = "totalTurnaroundTime"
)

// MetricValues is a read-only view of named integer run metrics.
// Missing names read as 0.
type MetricValues map[string]int

// Condition compares a named metric against a threshold.
type Condition struct {
	Attribute string
	Operator  Operator
	Threshold int
}

// Holds evaluates the condition against metrics. Unknown operators never hold.
func (c Condition) Holds(metrics MetricValues) bool {
	lhs := metrics[c.Attribute]
	switch c.Operator {
	case OpEqual:
		return lhs == c.Threshold
	case OpNotEqual:
		return lhs != c.Threshold
	case OpLessThan:
		return lhs < c.Threshold
	case OpLessThanEqual:
		return lhs <= c.Threshold
	case OpGreaterThan:
		return lhs > c.Threshold
	case OpGreaterThanEqual:
		return lhs >= c.Threshold
	}
	return false
}

func (c Condition) String() string {
	return fmt.Sprintf("%s %s %d", c.Attribute, c.Operator, c.Threshold)
}

// EvaluateAny returns true if at least one condition holds. An empty list never holds.
// Used for stop conditions.
func EvaluateAny(conditions []Condition, metrics MetricValues) bool {
	for _, c := range conditions {
		if c.Holds(metrics) {
			return true
		}
	}
	return false
}

// EvaluateAll returns true if every condition holds. An empty list always holds.
// Used for win conditions.
func EvaluateAll(conditions []Condition, metrics MetricValues) bool {
	for _, c := range conditions {
		if !c.Holds(metrics) {
			return false
		}
	}
	return true
}
