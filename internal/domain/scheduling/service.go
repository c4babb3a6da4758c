package scheduling

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/medroute/medroute/internal/domain/practice"
)

var (
	ErrBlockOverlap  = errors.New("availability block overlaps an existing block")
	ErrHoldExpired   = errors.New("hold has expired")
	ErrBadTransition = errors.New("invalid state transition")
)

// DefaultHoldTTL is how long a hold protects its window before the
// sweeper reclaims it.
const DefaultHoldTTL = 15 * time.Minute

// DefaultSlotMinutes is the slot grid size used when the caller does
// not ask for a specific duration.
const DefaultSlotMinutes = 60

// TxRunner executes fn inside a transaction whose isolation level is
// strong enough to make concurrent booking attempts serialize. Tests
// substitute a passthrough.
type TxRunner func(ctx context.Context, fn func(context.Context) error) error

// Passthrough runs fn directly with no transaction. Only suitable for
// tests and single-writer setups.
func Passthrough(ctx context.Context, fn func(context.Context) error) error {
	return fn(ctx)
}

// PracticeGetter fetches the practice whose calendar is being read, for
// its timezone and existence checks.
type PracticeGetter interface {
	GetByID(ctx context.Context, id uuid.UUID) (*practice.Practice, error)
}

type Service struct {
	blocks       BlockRepository
	exceptions   ExceptionRepository
	appointments AppointmentRepository
	holds        HoldRepository
	practices    PracticeGetter
	inTx         TxRunner
	holdTTL      time.Duration
	now          func() time.Time
	log          zerolog.Logger
}

func NewService(blocks BlockRepository, exceptions ExceptionRepository, appointments AppointmentRepository, holds HoldRepository, practices PracticeGetter, inTx TxRunner, log zerolog.Logger) *Service {
	return &Service{
		blocks:       blocks,
		exceptions:   exceptions,
		appointments: appointments,
		holds:        holds,
		practices:    practices,
		inTx:         inTx,
		holdTTL:      DefaultHoldTTL,
		now:          time.Now,
		log:          log,
	}
}

// =========== Availability blocks ===========

func (s *Service) CreateBlock(ctx context.Context, b *AvailabilityBlock) error {
	if b.PracticeID == uuid.Nil {
		return fmt.Errorf("practice_id is required")
	}
	if b.DayOfWeek < 0 || b.DayOfWeek > 6 {
		return fmt.Errorf("day_of_week must be 0 (Sunday) through 6 (Saturday)")
	}
	if err := validMinutes(b.StartMinute, b.EndMinute); err != nil {
		return err
	}
	existing, err := s.blocks.ListByPracticeDay(ctx, b.PracticeID, b.DayOfWeek)
	if err != nil {
		return fmt.Errorf("failed to list blocks: %w", err)
	}
	for _, other := range existing {
		if b.Overlaps(other) {
			return ErrBlockOverlap
		}
	}
	return s.blocks.Create(ctx, b)
}

func (s *Service) ListBlocks(ctx context.Context, practiceID uuid.UUID) ([]*AvailabilityBlock, error) {
	return s.blocks.ListByPractice(ctx, practiceID)
}

func (s *Service) DeleteBlock(ctx context.Context, id uuid.UUID) error {
	return s.blocks.Delete(ctx, id)
}

// =========== Availability exceptions ===========

func (s *Service) CreateException(ctx context.Context, e *AvailabilityException) error {
	if e.PracticeID == uuid.Nil {
		return fmt.Errorf("practice_id is required")
	}
	if e.Date.IsZero() {
		return fmt.Errorf("date is required")
	}
	if (e.StartMinute == nil) != (e.EndMinute == nil) {
		return fmt.Errorf("start_minute and end_minute must be provided together")
	}
	if e.StartMinute != nil {
		if err := validMinutes(*e.StartMinute, *e.EndMinute); err != nil {
			return err
		}
	}
	return s.exceptions.Create(ctx, e)
}

func (s *Service) DeleteException(ctx context.Context, id uuid.UUID) error {
	return s.exceptions.Delete(ctx, id)
}

// =========== Availability resolution ===========

// practiceDay loads a practice, parses the requested date in its zone,
// and returns the zone plus local midnight for the date.
func (s *Service) practiceDay(ctx context.Context, practiceID uuid.UUID, date string) (*practice.Practice, *time.Location, time.Time, error) {
	p, err := s.practices.GetByID(ctx, practiceID)
	if err != nil {
		return nil, nil, time.Time{}, err
	}
	loc, err := time.LoadLocation(p.Timezone)
	if err != nil {
		return nil, nil, time.Time{}, fmt.Errorf("practice has invalid timezone %q: %w", p.Timezone, err)
	}
	year, month, day, err := ParseDate(date)
	if err != nil {
		return nil, nil, time.Time{}, err
	}
	midnight := time.Date(year, month, day, 0, 0, 0, 0, loc)
	return p, loc, midnight, nil
}

// DayAvailability returns the blocks and exceptions in effect for one
// calendar date, with the weekday resolved in the practice's zone.
func (s *Service) DayAvailability(ctx context.Context, practiceID uuid.UUID, date string) (*DayAvailability, error) {
	_, loc, midnight, err := s.practiceDay(ctx, practiceID, date)
	if err != nil {
		return nil, err
	}
	blocks, err := s.blocks.ListByPractice(ctx, practiceID)
	if err != nil {
		return nil, fmt.Errorf("failed to list blocks: %w", err)
	}
	exceptions, err := s.exceptions.ListByPracticeDate(ctx, practiceID, calendarDate(midnight))
	if err != nil {
		return nil, fmt.Errorf("failed to list exceptions: %w", err)
	}
	return ResolveDayAvailability(date, loc, blocks, exceptions)
}

// DaySlots returns the bookable slots of slotMinutes length for one
// calendar date, with booked and held windows removed.
func (s *Service) DaySlots(ctx context.Context, practiceID uuid.UUID, date string, slotMinutes int) ([]Slot, error) {
	if slotMinutes <= 0 {
		slotMinutes = DefaultSlotMinutes
	}
	_, loc, midnight, err := s.practiceDay(ctx, practiceID, date)
	if err != nil {
		return nil, err
	}
	dayEnd := midnight.AddDate(0, 0, 1)

	blocks, err := s.blocks.ListByPractice(ctx, practiceID)
	if err != nil {
		return nil, fmt.Errorf("failed to list blocks: %w", err)
	}
	exceptions, err := s.exceptions.ListByPracticeDate(ctx, practiceID, calendarDate(midnight))
	if err != nil {
		return nil, fmt.Errorf("failed to list exceptions: %w", err)
	}
	appointments, err := s.appointments.ListByPracticeDay(ctx, practiceID, midnight, dayEnd)
	if err != nil {
		return nil, fmt.Errorf("failed to list appointments: %w", err)
	}
	now := s.now()
	holds, err := s.holds.ListActiveOverlapping(ctx, practiceID, midnight, dayEnd, now)
	if err != nil {
		return nil, fmt.Errorf("failed to list holds: %w", err)
	}
	return DaySlots(date, loc, slotMinutes, blocks, exceptions, appointments, holds, now)
}

// calendarDate strips the zone from a local midnight, yielding the bare
// calendar date the exceptions table is keyed by.
func calendarDate(localMidnight time.Time) time.Time {
	return time.Date(localMidnight.Year(), localMidnight.Month(), localMidnight.Day(), 0, 0, 0, 0, time.UTC)
}

// =========== Booking ===========

// Book reserves the interval for a lead at a practice. The conflict
// check and insert run inside one serializable transaction so that two
// concurrent attempts on the same window cannot both land.
func (s *Service) Book(ctx context.Context, a *Appointment) error {
	if a.LeadID == uuid.Nil {
		return fmt.Errorf("lead_id is required")
	}
	if a.PracticeID == uuid.Nil {
		return fmt.Errorf("practice_id is required")
	}
	if !a.StartTime.Before(a.EndTime) {
		return ErrInvalidInterval
	}
	if _, err := s.practices.GetByID(ctx, a.PracticeID); err != nil {
		return fmt.Errorf("practice lookup failed: %w", err)
	}
	a.Status = StatusScheduled
	a.SalesOutcome = SalesPending
	return s.inTx(ctx, func(ctx context.Context) error {
		if err := s.checkWindow(ctx, a.PracticeID, a.StartTime, a.EndTime, uuid.Nil); err != nil {
			return err
		}
		return s.appointments.Create(ctx, a)
	})
}

// checkWindow runs the half-open overlap check against non-canceled
// appointments and unexpired holds. ignoreHold exempts one hold, for
// confirming a hold into its own window.
func (s *Service) checkWindow(ctx context.Context, practiceID uuid.UUID, start, end time.Time, ignoreHold uuid.UUID) error {
	existing, err := s.appointments.ListOverlapping(ctx, practiceID, start, end)
	if err != nil {
		return fmt.Errorf("failed to list appointments: %w", err)
	}
	now := s.now()
	holds, err := s.holds.ListActiveOverlapping(ctx, practiceID, start, end, now)
	if err != nil {
		return fmt.Errorf("failed to list holds: %w", err)
	}
	if ignoreHold != uuid.Nil {
		kept := holds[:0]
		for _, h := range holds {
			if h.ID != ignoreHold {
				kept = append(kept, h)
			}
		}
		holds = kept
	}
	return CheckReservation(start, end, existing, holds, now)
}

func (s *Service) GetAppointment(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	return s.appointments.GetByID(ctx, id)
}

func (s *Service) ListAppointments(ctx context.Context, params map[string]string, limit, offset int) ([]*Appointment, int, error) {
	return s.appointments.List(ctx, params, limit, offset)
}

// statusTransitions is the appointment lifecycle. Show, no-show and
// canceled are terminal.
var statusTransitions = map[string]map[string]bool{
	StatusScheduled: {StatusShow: true, StatusNoShow: true, StatusCanceled: true},
}

// UpdateAppointmentStatus moves an appointment through its lifecycle.
// Only scheduled appointments can change state.
func (s *Service) UpdateAppointmentStatus(ctx context.Context, id uuid.UUID, status string) (*Appointment, error) {
	a, err := s.appointments.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !statusTransitions[a.Status][status] {
		return nil, fmt.Errorf("%w: cannot move appointment from %s to %s", ErrBadTransition, a.Status, status)
	}
	a.Status = status
	if err := s.appointments.Update(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

// SetSalesOutcome records whether the visit converted. The outcome is
// independent of attendance status and can only leave pending once.
func (s *Service) SetSalesOutcome(ctx context.Context, id uuid.UUID, outcome string) (*Appointment, error) {
	if outcome != SalesWon && outcome != SalesLost {
		return nil, fmt.Errorf("sales_outcome must be %s or %s", SalesWon, SalesLost)
	}
	a, err := s.appointments.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if a.SalesOutcome != SalesPending {
		return nil, fmt.Errorf("%w: sales outcome already %s", ErrBadTransition, a.SalesOutcome)
	}
	a.SalesOutcome = outcome
	if err := s.appointments.Update(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

// =========== Holds ===========

// CreateHold reserves a window without committing to an appointment.
// The hold expires on its own; callers confirm or release it.
func (s *Service) CreateHold(ctx context.Context, h *Hold) error {
	if h.PracticeID == uuid.Nil {
		return fmt.Errorf("practice_id is required")
	}
	if !h.StartTime.Before(h.EndTime) {
		return ErrInvalidInterval
	}
	if h.ExpiresAt.IsZero() {
		h.ExpiresAt = s.now().Add(s.holdTTL)
	}
	return s.inTx(ctx, func(ctx context.Context) error {
		if err := s.checkWindow(ctx, h.PracticeID, h.StartTime, h.EndTime, uuid.Nil); err != nil {
			return err
		}
		return s.holds.Create(ctx, h)
	})
}

// ConfirmHold converts a live hold into a scheduled appointment for the
// lead and removes the hold, all in one transaction.
func (s *Service) ConfirmHold(ctx context.Context, holdID, leadID uuid.UUID) (*Appointment, error) {
	if leadID == uuid.Nil {
		return nil, fmt.Errorf("lead_id is required")
	}
	var a *Appointment
	err := s.inTx(ctx, func(ctx context.Context) error {
		h, err := s.holds.GetByID(ctx, holdID)
		if err != nil {
			return err
		}
		if h.Expired(s.now()) {
			return ErrHoldExpired
		}
		if err := s.checkWindow(ctx, h.PracticeID, h.StartTime, h.EndTime, h.ID); err != nil {
			return err
		}
		a = &Appointment{
			LeadID:       leadID,
			PracticeID:   h.PracticeID,
			StartTime:    h.StartTime,
			EndTime:      h.EndTime,
			Status:       StatusScheduled,
			SalesOutcome: SalesPending,
		}
		if err := s.appointments.Create(ctx, a); err != nil {
			return err
		}
		return s.holds.Delete(ctx, h.ID)
	})
	if err != nil {
		return nil, err
	}
	return a, nil
}

func (s *Service) ReleaseHold(ctx context.Context, id uuid.UUID) error {
	return s.holds.Delete(ctx, id)
}

// SweepExpiredHolds removes holds whose expires_at has passed and
// returns how many were removed.
func (s *Service) SweepExpiredHolds(ctx context.Context) (int64, error) {
	return s.holds.DeleteExpired(ctx, s.now())
}

// StartHoldSweeper runs the expired-hold sweep on a fixed interval
// until ctx is canceled.
func (s *Service) StartHoldSweeper(ctx context.Context, every time.Duration) {
	ticker := time.NewTicker(every)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				n, err := s.SweepExpiredHolds(ctx)
				if err != nil {
					s.log.Error().Err(err).Msg("hold sweep failed")
					continue
				}
				if n > 0 {
					s.log.Info().Int64("removed", n).Msg("swept expired holds")
				}
			}
		}
	}()
}
