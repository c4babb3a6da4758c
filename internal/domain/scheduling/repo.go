package scheduling

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// BlockRepository defines data access for recurring availability blocks.
type BlockRepository interface {
	Create(ctx context.Context, b *AvailabilityBlock) error
	ListByPractice(ctx context.Context, practiceID uuid.UUID) ([]*AvailabilityBlock, error)
	ListByPracticeDay(ctx context.Context, practiceID uuid.UUID, dayOfWeek int) ([]*AvailabilityBlock, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// ExceptionRepository defines data access for date-specific exceptions.
type ExceptionRepository interface {
	Create(ctx context.Context, e *AvailabilityException) error
	ListByPracticeDate(ctx context.Context, practiceID uuid.UUID, date time.Time) ([]*AvailabilityException, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// AppointmentRepository defines data access for appointments.
type AppointmentRepository interface {
	Create(ctx context.Context, a *Appointment) error
	GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error)
	Update(ctx context.Context, a *Appointment) error
	ListOverlapping(ctx context.Context, practiceID uuid.UUID, start, end time.Time) ([]*Appointment, error)
	ListByPracticeDay(ctx context.Context, practiceID uuid.UUID, dayStart, dayEnd time.Time) ([]*Appointment, error)
	List(ctx context.Context, params map[string]string, limit, offset int) ([]*Appointment, int, error)
}

// HoldRepository defines data access for short-lived reservation holds.
type HoldRepository interface {
	Create(ctx context.Context, h *Hold) error
	GetByID(ctx context.Context, id uuid.UUID) (*Hold, error)
	Delete(ctx context.Context, id uuid.UUID) error
	ListActiveOverlapping(ctx context.Context, practiceID uuid.UUID, start, end time.Time, now time.Time) ([]*Hold, error)
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}
