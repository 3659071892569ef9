package collections

import (
	"time"

	"github.com/google/uuid"

	"github.com/creditpool/creditpool-backend/pkg/enums"
)

// Sort orders collection listings.
type Sort string

const (
	SortNewest     Sort = "newest"
	SortMostLiked  Sort = "most_liked"
	SortMostRaised Sort = "most_raised"
)

// ParseSort maps a query value to a Sort, falling back to newest.
func ParseSort(value string) Sort {
	switch Sort(value) {
	case SortMostLiked, SortMostRaised:
		return Sort(value)
	default:
		return SortNewest
	}
}

// ListFilter narrows List queries.
type ListFilter struct {
	Status  *enums.CollectionStatus
	OwnerID *uuid.UUID
	Sort    Sort
	Limit   int
}

// CreateInput carries the fields a user supplies when opening a collection.
type CreateInput struct {
	OwnerID      uuid.UUID
	Title        string
	Description  string
	Category     string
	ImageURL     *string
	GoalAmount   int64
	EndCondition enums.EndCondition
	StartDate    *time.Time
	Deadline     *time.Time
}

// EditInput carries an owner's edit. Nil fields are unchanged.
type EditInput struct {
	OwnerID      uuid.UUID
	CollectionID uuid.UUID
	Title        *string
	Description  *string
	GoalAmount   *int64
}

// ListInput is the service-level listing request.
type ListInput struct {
	Status  *enums.CollectionStatus
	OwnerID *uuid.UUID
	Sort    Sort
	Limit   int
}
