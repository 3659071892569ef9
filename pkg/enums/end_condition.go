package enums

import "fmt"

// EndCondition decides which trigger closes a collection.
type EndCondition string

const (
	EndConditionByGoal EndCondition = "by_goal"
	EndConditionByDate EndCondition = "by_date"
)

var validEndConditions = []EndCondition{
	EndConditionByGoal,
	EndConditionByDate,
}

// String implements fmt.Stringer.
func (e EndCondition) String() string {
	return string(e)
}

// IsValid reports whether the value is a known end condition.
func (e EndCondition) IsValid() bool {
	for _, candidate := range validEndConditions {
		if candidate == e {
			return true
		}
	}
	return false
}

// ParseEndCondition converts raw input into EndCondition. The short forms
// "goal" and "date" are accepted for older clients.
func ParseEndCondition(value string) (EndCondition, error) {
	switch value {
	case "goal":
		return EndConditionByGoal, nil
	case "date":
		return EndConditionByDate, nil
	}
	for _, candidate := range validEndConditions {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid end condition %q", value)
}
