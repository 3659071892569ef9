package enums

import "fmt"

// CollectionStatus tracks whether a collection still accepts contributions.
type CollectionStatus string

const (
	CollectionStatusActive CollectionStatus = "active"
	CollectionStatusClosed CollectionStatus = "closed"
)

var validCollectionStatuses = []CollectionStatus{
	CollectionStatusActive,
	CollectionStatusClosed,
}

// String implements fmt.Stringer.
func (s CollectionStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known collection status.
func (s CollectionStatus) IsValid() bool {
	for _, candidate := range validCollectionStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseCollectionStatus converts raw input into CollectionStatus.
func ParseCollectionStatus(value string) (CollectionStatus, error) {
	for _, candidate := range validCollectionStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid collection status %q", value)
}

// ClosedReason records which path moved a collection to closed.
type ClosedReason string

const (
	ClosedReasonGoalReached    ClosedReason = "goal_reached"
	ClosedReasonDeadlinePassed ClosedReason = "deadline_passed"
	ClosedReasonAdmin          ClosedReason = "admin"
)
