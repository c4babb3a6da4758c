package scheduling

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Appointment statuses.
const (
	StatusScheduled = "scheduled"
	StatusShow      = "show"
	StatusNoShow    = "no_show"
	StatusCanceled  = "canceled"
)

// Sales outcomes, tracked orthogonally to the scheduling status.
const (
	SalesPending = "pending"
	SalesWon     = "won"
	SalesLost    = "lost"
)

// AvailabilityBlock maps to the availability_block table. A recurring weekly
// open window for a practice. Times are minutes since local midnight so the
// block is timezone-free; the practice's zone gives it meaning.
type AvailabilityBlock struct {
	ID          uuid.UUID `db:"id" json:"id"`
	PracticeID  uuid.UUID `db:"practice_id" json:"practice_id"`
	DayOfWeek   int       `db:"day_of_week" json:"day_of_week"` // 0 = Sunday
	StartMinute int       `db:"start_minute" json:"start_minute"`
	EndMinute   int       `db:"end_minute" json:"end_minute"`
	BlockType   *string   `db:"block_type" json:"block_type,omitempty"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// Overlaps reports whether two blocks on the same day share any minutes.
// Touching endpoints do not overlap.
func (b *AvailabilityBlock) Overlaps(other *AvailabilityBlock) bool {
	return b.DayOfWeek == other.DayOfWeek &&
		b.StartMinute < other.EndMinute && b.EndMinute > other.StartMinute
}

// AvailabilityException maps to the availability_exception table. A
// date-specific override of the weekly schedule. With no start/end minutes
// the exception covers the whole day. IsOpen false blocks the window,
// IsOpen true opens one outside the recurring blocks.
type AvailabilityException struct {
	ID          uuid.UUID `db:"id" json:"id"`
	PracticeID  uuid.UUID `db:"practice_id" json:"practice_id"`
	Date        time.Time `db:"date" json:"date"`
	StartMinute *int      `db:"start_minute" json:"start_minute,omitempty"`
	EndMinute   *int      `db:"end_minute" json:"end_minute,omitempty"`
	IsOpen      bool      `db:"is_open" json:"is_open"`
	Note        *string   `db:"note" json:"note,omitempty"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// Window returns the exception's covered minutes, defaulting to the whole
// day when no times are set.
func (e *AvailabilityException) Window() (start, end int) {
	start, end = 0, minutesPerDay
	if e.StartMinute != nil {
		start = *e.StartMinute
	}
	if e.EndMinute != nil {
		end = *e.EndMinute
	}
	return start, end
}

// Appointment maps to the appointment table. Start and end are absolute
// instants; the half-open interval [start, end) is what conflicts.
type Appointment struct {
	ID           uuid.UUID `db:"id" json:"id"`
	LeadID       uuid.UUID `db:"lead_id" json:"lead_id"`
	PracticeID   uuid.UUID `db:"practice_id" json:"practice_id"`
	StartTime    time.Time `db:"start_time" json:"start_time"`
	EndTime      time.Time `db:"end_time" json:"end_time"`
	Status       string    `db:"status" json:"status"`
	SalesOutcome string    `db:"sales_outcome" json:"sales_outcome"`
	Notes        *string   `db:"notes" json:"notes,omitempty"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// Hold maps to the hold table. A short-lived reservation of an interval
// prior to confirmation. Expired holds stop conflicting the moment they
// expire; a sweeper deletes them lazily.
type Hold struct {
	ID         uuid.UUID  `db:"id" json:"id"`
	PracticeID uuid.UUID  `db:"practice_id" json:"practice_id"`
	LeadID     *uuid.UUID `db:"lead_id" json:"lead_id,omitempty"`
	StartTime  time.Time  `db:"start_time" json:"start_time"`
	EndTime    time.Time  `db:"end_time" json:"end_time"`
	ExpiresAt  time.Time  `db:"expires_at" json:"expires_at"`
	CreatedAt  time.Time  `db:"created_at" json:"created_at"`
}

// Expired reports whether the hold has lapsed as of now.
func (h *Hold) Expired(now time.Time) bool {
	return !h.ExpiresAt.After(now)
}

// Slot is one bookable interval in a computed day grid.
type Slot struct {
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
}

// DayAvailability is the raw constraint set for one practice-local day.
type DayAvailability struct {
	Date       string                   `json:"date"`
	DayOfWeek  int                      `json:"day_of_week"`
	Blocks     []*AvailabilityBlock     `json:"blocks"`
	Exceptions []*AvailabilityException `json:"exceptions"`
}

const minutesPerDay = 24 * 60

func validMinutes(start, end int) error {
	if start < 0 || end > minutesPerDay || start >= end {
		return fmt.Errorf("invalid time window: [%d, %d)", start, end)
	}
	return nil
}
