package lead

import (
	"time"

	"github.com/google/uuid"
)

// Lead statuses. A new lead is routed immediately: it either comes out
// assigned to a practice or parked in the review queue for a coordinator.
const (
	StatusNew      = "new"
	StatusAssigned = "assigned"
	StatusReview   = "review"
	StatusBooked   = "booked"
	StatusClosed   = "closed"
)

// Lead maps to the lead table.
type Lead struct {
	ID                uuid.UUID  `db:"id" json:"id"`
	FirstName         string     `db:"first_name" json:"first_name"`
	LastName          string     `db:"last_name" json:"last_name"`
	Phone             string     `db:"phone" json:"phone"`
	Email             *string    `db:"email" json:"email,omitempty"`
	Zip               string     `db:"zip" json:"zip"`
	Source            *string    `db:"source" json:"source,omitempty"`
	Status            string     `db:"status" json:"status"`
	PracticeID        *uuid.UUID `db:"practice_id" json:"practice_id,omitempty"`
	RoutingDecisionID *uuid.UUID `db:"routing_decision_id" json:"routing_decision_id,omitempty"`
	ReviewReason      *string    `db:"review_reason" json:"review_reason,omitempty"`
	Notes             *string    `db:"notes" json:"notes,omitempty"`
	CreatedAt         time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time  `db:"updated_at" json:"updated_at"`
}
