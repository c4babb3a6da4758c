package scheduling

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"

	"github.com/medroute/medroute/internal/domain/practice"
)

type mockBlockRepo struct {
	blocks map[uuid.UUID]*AvailabilityBlock
}

func newMockBlockRepo() *mockBlockRepo {
	return &mockBlockRepo{blocks: map[uuid.UUID]*AvailabilityBlock{}}
}

func (m *mockBlockRepo) Create(ctx context.Context, b *AvailabilityBlock) error {
	b.ID = uuid.New()
	m.blocks[b.ID] = b
	return nil
}

func (m *mockBlockRepo) ListByPractice(ctx context.Context, practiceID uuid.UUID) ([]*AvailabilityBlock, error) {
	var out []*AvailabilityBlock
	for _, b := range m.blocks {
		if b.PracticeID == practiceID {
			out = append(out, b)
		}
	}
	return out, nil
}

func (m *mockBlockRepo) ListByPracticeDay(ctx context.Context, practiceID uuid.UUID, dayOfWeek int) ([]*AvailabilityBlock, error) {
	var out []*AvailabilityBlock
	for _, b := range m.blocks {
		if b.PracticeID == practiceID && b.DayOfWeek == dayOfWeek {
			out = append(out, b)
		}
	}
	return out, nil
}

func (m *mockBlockRepo) Delete(ctx context.Context, id uuid.UUID) error {
	delete(m.blocks, id)
	return nil
}

type mockExceptionRepo struct {
	exceptions map[uuid.UUID]*AvailabilityException
}

func newMockExceptionRepo() *mockExceptionRepo {
	return &mockExceptionRepo{exceptions: map[uuid.UUID]*AvailabilityException{}}
}

func (m *mockExceptionRepo) Create(ctx context.Context, e *AvailabilityException) error {
	e.ID = uuid.New()
	m.exceptions[e.ID] = e
	return nil
}

func (m *mockExceptionRepo) ListByPracticeDate(ctx context.Context, practiceID uuid.UUID, date time.Time) ([]*AvailabilityException, error) {
	var out []*AvailabilityException
	for _, e := range m.exceptions {
		if e.PracticeID == practiceID && e.Date.Equal(date) {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *mockExceptionRepo) Delete(ctx context.Context, id uuid.UUID) error {
	delete(m.exceptions, id)
	return nil
}

type mockAppointmentRepo struct {
	appointments map[uuid.UUID]*Appointment
}

func newMockAppointmentRepo() *mockAppointmentRepo {
	return &mockAppointmentRepo{appointments: map[uuid.UUID]*Appointment{}}
}

func (m *mockAppointmentRepo) Create(ctx context.Context, a *Appointment) error {
	a.ID = uuid.New()
	cp := *a
	m.appointments[a.ID] = &cp
	return nil
}

func (m *mockAppointmentRepo) GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	a, ok := m.appointments[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	cp := *a
	return &cp, nil
}

func (m *mockAppointmentRepo) Update(ctx context.Context, a *Appointment) error {
	if _, ok := m.appointments[a.ID]; !ok {
		return pgx.ErrNoRows
	}
	cp := *a
	m.appointments[a.ID] = &cp
	return nil
}

func (m *mockAppointmentRepo) ListOverlapping(ctx context.Context, practiceID uuid.UUID, start, end time.Time) ([]*Appointment, error) {
	var out []*Appointment
	for _, a := range m.appointments {
		if a.PracticeID == practiceID && a.Status != StatusCanceled &&
			a.StartTime.Before(end) && a.EndTime.After(start) {
			out = append(out, a)
		}
	}
	return out, nil
}

func (m *mockAppointmentRepo) ListByPracticeDay(ctx context.Context, practiceID uuid.UUID, dayStart, dayEnd time.Time) ([]*Appointment, error) {
	var out []*Appointment
	for _, a := range m.appointments {
		if a.PracticeID == practiceID && a.StartTime.Before(dayEnd) && a.EndTime.After(dayStart) {
			out = append(out, a)
		}
	}
	return out, nil
}

func (m *mockAppointmentRepo) List(ctx context.Context, params map[string]string, limit, offset int) ([]*Appointment, int, error) {
	var out []*Appointment
	for _, a := range m.appointments {
		out = append(out, a)
	}
	return out, len(out), nil
}

type mockHoldRepo struct {
	holds map[uuid.UUID]*Hold
}

func newMockHoldRepo() *mockHoldRepo {
	return &mockHoldRepo{holds: map[uuid.UUID]*Hold{}}
}

func (m *mockHoldRepo) Create(ctx context.Context, h *Hold) error {
	h.ID = uuid.New()
	cp := *h
	m.holds[h.ID] = &cp
	return nil
}

func (m *mockHoldRepo) GetByID(ctx context.Context, id uuid.UUID) (*Hold, error) {
	h, ok := m.holds[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	cp := *h
	return &cp, nil
}

func (m *mockHoldRepo) Delete(ctx context.Context, id uuid.UUID) error {
	delete(m.holds, id)
	return nil
}

func (m *mockHoldRepo) ListActiveOverlapping(ctx context.Context, practiceID uuid.UUID, start, end time.Time, now time.Time) ([]*Hold, error) {
	var out []*Hold
	for _, h := range m.holds {
		if h.PracticeID == practiceID && !h.Expired(now) &&
			h.StartTime.Before(end) && h.EndTime.After(start) {
			out = append(out, h)
		}
	}
	return out, nil
}

func (m *mockHoldRepo) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	var n int64
	for id, h := range m.holds {
		if h.Expired(now) {
			delete(m.holds, id)
			n++
		}
	}
	return n, nil
}

type mockPracticeGetter struct {
	practices map[uuid.UUID]*practice.Practice
}

func (m *mockPracticeGetter) GetByID(ctx context.Context, id uuid.UUID) (*practice.Practice, error) {
	p, ok := m.practices[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return p, nil
}

type fixture struct {
	svc          *Service
	blocks       *mockBlockRepo
	exceptions   *mockExceptionRepo
	appointments *mockAppointmentRepo
	holds        *mockHoldRepo
	practiceID   uuid.UUID
	now          time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	practiceID := uuid.New()
	getter := &mockPracticeGetter{practices: map[uuid.UUID]*practice.Practice{
		practiceID: {ID: practiceID, Name: "Atlanta Dental", Timezone: "America/New_York", Status: practice.StatusActive},
	}}
	f := &fixture{
		blocks:       newMockBlockRepo(),
		exceptions:   newMockExceptionRepo(),
		appointments: newMockAppointmentRepo(),
		holds:        newMockHoldRepo(),
		practiceID:   practiceID,
		now:          time.Date(2025, time.June, 1, 15, 0, 0, 0, time.UTC),
	}
	f.svc = NewService(f.blocks, f.exceptions, f.appointments, f.holds, getter, Passthrough, zerolog.Nop())
	f.svc.now = func() time.Time { return f.now }
	return f
}

func (f *fixture) interval(h, dur int) (time.Time, time.Time) {
	start := time.Date(2025, time.June, 10, h, 0, 0, 0, time.UTC)
	return start, start.Add(time.Duration(dur) * time.Hour)
}

func TestCreateBlockValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tests := []struct {
		name    string
		block   *AvailabilityBlock
		wantErr bool
	}{
		{"valid", &AvailabilityBlock{PracticeID: f.practiceID, DayOfWeek: 1, StartMinute: 540, EndMinute: 720}, false},
		{"missing practice", &AvailabilityBlock{DayOfWeek: 1, StartMinute: 540, EndMinute: 720}, true},
		{"day out of range", &AvailabilityBlock{PracticeID: f.practiceID, DayOfWeek: 7, StartMinute: 540, EndMinute: 720}, true},
		{"inverted window", &AvailabilityBlock{PracticeID: f.practiceID, DayOfWeek: 1, StartMinute: 720, EndMinute: 540}, true},
		{"past midnight", &AvailabilityBlock{PracticeID: f.practiceID, DayOfWeek: 1, StartMinute: 540, EndMinute: 1500}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := f.svc.CreateBlock(ctx, tt.block)
			if (err != nil) != tt.wantErr {
				t.Errorf("err = %v, wantErr = %v", err, tt.wantErr)
			}
		})
	}
}

func TestCreateBlockOverlap(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first := &AvailabilityBlock{PracticeID: f.practiceID, DayOfWeek: 2, StartMinute: 540, EndMinute: 720}
	if err := f.svc.CreateBlock(ctx, first); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	overlapping := &AvailabilityBlock{PracticeID: f.practiceID, DayOfWeek: 2, StartMinute: 600, EndMinute: 780}
	if err := f.svc.CreateBlock(ctx, overlapping); !errors.Is(err, ErrBlockOverlap) {
		t.Errorf("got %v, want ErrBlockOverlap", err)
	}

	touching := &AvailabilityBlock{PracticeID: f.practiceID, DayOfWeek: 2, StartMinute: 720, EndMinute: 900}
	if err := f.svc.CreateBlock(ctx, touching); err != nil {
		t.Errorf("touching block should create: %v", err)
	}

	otherDay := &AvailabilityBlock{PracticeID: f.practiceID, DayOfWeek: 3, StartMinute: 600, EndMinute: 780}
	if err := f.svc.CreateBlock(ctx, otherDay); err != nil {
		t.Errorf("other-day block should create: %v", err)
	}
}

func TestCreateExceptionValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	date := time.Date(2025, time.June, 10, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		exc     *AvailabilityException
		wantErr bool
	}{
		{"whole-day closure", &AvailabilityException{PracticeID: f.practiceID, Date: date}, false},
		{"partial window", &AvailabilityException{PracticeID: f.practiceID, Date: date, StartMinute: intPtr(600), EndMinute: intPtr(660)}, false},
		{"missing date", &AvailabilityException{PracticeID: f.practiceID}, true},
		{"start without end", &AvailabilityException{PracticeID: f.practiceID, Date: date, StartMinute: intPtr(600)}, true},
		{"inverted window", &AvailabilityException{PracticeID: f.practiceID, Date: date, StartMinute: intPtr(660), EndMinute: intPtr(600)}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := f.svc.CreateException(ctx, tt.exc)
			if (err != nil) != tt.wantErr {
				t.Errorf("err = %v, wantErr = %v", err, tt.wantErr)
			}
		})
	}
}

func TestBook(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	start, end := f.interval(14, 1)

	a := &Appointment{LeadID: uuid.New(), PracticeID: f.practiceID, StartTime: start, EndTime: end}
	if err := f.svc.Book(ctx, a); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a.Status != StatusScheduled {
		t.Errorf("status = %s, want scheduled", a.Status)
	}
	if a.SalesOutcome != SalesPending {
		t.Errorf("sales outcome = %s, want pending", a.SalesOutcome)
	}

	t.Run("conflicting booking rejected", func(t *testing.T) {
		dup := &Appointment{LeadID: uuid.New(), PracticeID: f.practiceID, StartTime: start, EndTime: end}
		if err := f.svc.Book(ctx, dup); !errors.Is(err, ErrSlotConflict) {
			t.Errorf("got %v, want ErrSlotConflict", err)
		}
	})

	t.Run("adjacent booking allowed", func(t *testing.T) {
		next := &Appointment{LeadID: uuid.New(), PracticeID: f.practiceID, StartTime: end, EndTime: end.Add(time.Hour)}
		if err := f.svc.Book(ctx, next); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	})

	t.Run("canceled appointment frees the window", func(t *testing.T) {
		if _, err := f.svc.UpdateAppointmentStatus(ctx, a.ID, StatusCanceled); err != nil {
			t.Fatalf("cancel failed: %v", err)
		}
		again := &Appointment{LeadID: uuid.New(), PracticeID: f.practiceID, StartTime: start, EndTime: end}
		if err := f.svc.Book(ctx, again); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	})
}

func TestBookValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	start, end := f.interval(14, 1)

	t.Run("inverted interval", func(t *testing.T) {
		a := &Appointment{LeadID: uuid.New(), PracticeID: f.practiceID, StartTime: end, EndTime: start}
		if err := f.svc.Book(ctx, a); !errors.Is(err, ErrInvalidInterval) {
			t.Errorf("got %v, want ErrInvalidInterval", err)
		}
	})

	t.Run("unknown practice", func(t *testing.T) {
		a := &Appointment{LeadID: uuid.New(), PracticeID: uuid.New(), StartTime: start, EndTime: end}
		if err := f.svc.Book(ctx, a); err == nil {
			t.Error("expected error for unknown practice")
		}
	})

	t.Run("missing lead", func(t *testing.T) {
		a := &Appointment{PracticeID: f.practiceID, StartTime: start, EndTime: end}
		if err := f.svc.Book(ctx, a); err == nil {
			t.Error("expected error for missing lead")
		}
	})
}

func TestHoldLifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	start, end := f.interval(14, 1)

	h := &Hold{PracticeID: f.practiceID, StartTime: start, EndTime: end}
	if err := f.svc.CreateHold(ctx, h); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !h.ExpiresAt.Equal(f.now.Add(DefaultHoldTTL)) {
		t.Errorf("expires_at = %v, want now+%v", h.ExpiresAt, DefaultHoldTTL)
	}

	t.Run("hold blocks booking", func(t *testing.T) {
		a := &Appointment{LeadID: uuid.New(), PracticeID: f.practiceID, StartTime: start, EndTime: end}
		if err := f.svc.Book(ctx, a); !errors.Is(err, ErrSlotConflict) {
			t.Errorf("got %v, want ErrSlotConflict", err)
		}
	})

	t.Run("confirm converts hold to appointment", func(t *testing.T) {
		leadID := uuid.New()
		a, err := f.svc.ConfirmHold(ctx, h.ID, leadID)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if a.LeadID != leadID || !a.StartTime.Equal(start) || !a.EndTime.Equal(end) {
			t.Errorf("appointment does not match hold window: %+v", a)
		}
		if a.Status != StatusScheduled || a.SalesOutcome != SalesPending {
			t.Errorf("status = %s, outcome = %s", a.Status, a.SalesOutcome)
		}
		if _, err := f.holds.GetByID(ctx, h.ID); !errors.Is(err, pgx.ErrNoRows) {
			t.Error("hold should be deleted after confirm")
		}
	})
}

func TestConfirmExpiredHold(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	start, end := f.interval(14, 1)

	h := &Hold{PracticeID: f.practiceID, StartTime: start, EndTime: end}
	if err := f.svc.CreateHold(ctx, h); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	f.now = f.now.Add(DefaultHoldTTL + time.Minute)
	if _, err := f.svc.ConfirmHold(ctx, h.ID, uuid.New()); !errors.Is(err, ErrHoldExpired) {
		t.Errorf("got %v, want ErrHoldExpired", err)
	}
}

func TestExpiredHoldDoesNotBlock(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	start, end := f.interval(14, 1)

	h := &Hold{PracticeID: f.practiceID, StartTime: start, EndTime: end}
	if err := f.svc.CreateHold(ctx, h); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	f.now = f.now.Add(DefaultHoldTTL + time.Minute)
	a := &Appointment{LeadID: uuid.New(), PracticeID: f.practiceID, StartTime: start, EndTime: end}
	if err := f.svc.Book(ctx, a); err != nil {
		t.Errorf("expired hold should not block booking: %v", err)
	}
}

func TestSweepExpiredHolds(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	start, end := f.interval(14, 1)

	live := &Hold{PracticeID: f.practiceID, StartTime: start, EndTime: end, ExpiresAt: f.now.Add(time.Hour)}
	stale := &Hold{PracticeID: f.practiceID, StartTime: end, EndTime: end.Add(time.Hour), ExpiresAt: f.now.Add(-time.Minute)}
	if err := f.holds.Create(ctx, live); err != nil {
		t.Fatal(err)
	}
	if err := f.holds.Create(ctx, stale); err != nil {
		t.Fatal(err)
	}

	n, err := f.svc.SweepExpiredHolds(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 1 {
		t.Errorf("swept %d holds, want 1", n)
	}
	if _, err := f.holds.GetByID(ctx, live.ID); err != nil {
		t.Error("live hold should survive the sweep")
	}
}

func TestAppointmentStatusTransitions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	book := func(t *testing.T, hour int) *Appointment {
		t.Helper()
		start, end := f.interval(hour, 1)
		a := &Appointment{LeadID: uuid.New(), PracticeID: f.practiceID, StartTime: start, EndTime: end}
		if err := f.svc.Book(ctx, a); err != nil {
			t.Fatalf("book failed: %v", err)
		}
		return a
	}

	tests := []struct {
		name    string
		to      string
		wantErr bool
	}{
		{"scheduled to show", StatusShow, false},
		{"scheduled to no_show", StatusNoShow, false},
		{"scheduled to canceled", StatusCanceled, false},
		{"scheduled to bogus", "rescheduled", true},
	}
	for i, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := book(t, 8+i)
			_, err := f.svc.UpdateAppointmentStatus(ctx, a.ID, tt.to)
			if (err != nil) != tt.wantErr {
				t.Errorf("err = %v, wantErr = %v", err, tt.wantErr)
			}
		})
	}

	t.Run("terminal states are final", func(t *testing.T) {
		a := book(t, 18)
		if _, err := f.svc.UpdateAppointmentStatus(ctx, a.ID, StatusShow); err != nil {
			t.Fatalf("first transition failed: %v", err)
		}
		if _, err := f.svc.UpdateAppointmentStatus(ctx, a.ID, StatusCanceled); !errors.Is(err, ErrBadTransition) {
			t.Errorf("got %v, want ErrBadTransition", err)
		}
	})
}

func TestSalesOutcome(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	start, end := f.interval(14, 1)

	a := &Appointment{LeadID: uuid.New(), PracticeID: f.practiceID, StartTime: start, EndTime: end}
	if err := f.svc.Book(ctx, a); err != nil {
		t.Fatalf("book failed: %v", err)
	}

	t.Run("invalid value", func(t *testing.T) {
		if _, err := f.svc.SetSalesOutcome(ctx, a.ID, "maybe"); err == nil {
			t.Error("expected error for invalid outcome")
		}
	})

	t.Run("pending to won", func(t *testing.T) {
		got, err := f.svc.SetSalesOutcome(ctx, a.ID, SalesWon)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got.SalesOutcome != SalesWon {
			t.Errorf("outcome = %s, want won", got.SalesOutcome)
		}
	})

	t.Run("outcome is one-way", func(t *testing.T) {
		if _, err := f.svc.SetSalesOutcome(ctx, a.ID, SalesLost); !errors.Is(err, ErrBadTransition) {
			t.Errorf("got %v, want ErrBadTransition", err)
		}
	})

	t.Run("outcome independent of attendance", func(t *testing.T) {
		start2, end2 := f.interval(16, 1)
		b := &Appointment{LeadID: uuid.New(), PracticeID: f.practiceID, StartTime: start2, EndTime: end2}
		if err := f.svc.Book(ctx, b); err != nil {
			t.Fatalf("book failed: %v", err)
		}
		if _, err := f.svc.UpdateAppointmentStatus(ctx, b.ID, StatusNoShow); err != nil {
			t.Fatalf("status update failed: %v", err)
		}
		if _, err := f.svc.SetSalesOutcome(ctx, b.ID, SalesLost); err != nil {
			t.Errorf("no-show should still take a sales outcome: %v", err)
		}
	})
}

func TestServiceDaySlots(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// Tuesday 9-12 local, practice in America/New_York.
	if err := f.svc.CreateBlock(ctx, &AvailabilityBlock{PracticeID: f.practiceID, DayOfWeek: 2, StartMinute: 540, EndMinute: 720}); err != nil {
		t.Fatalf("create block failed: %v", err)
	}

	slots, err := f.svc.DaySlots(ctx, f.practiceID, "2025-06-10", 60)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(slots) != 3 {
		t.Fatalf("got %d slots, want 3", len(slots))
	}

	// Book the middle slot through the service and recompute.
	a := &Appointment{LeadID: uuid.New(), PracticeID: f.practiceID, StartTime: slots[1].StartTime, EndTime: slots[1].EndTime}
	if err := f.svc.Book(ctx, a); err != nil {
		t.Fatalf("book failed: %v", err)
	}
	slots, err = f.svc.DaySlots(ctx, f.practiceID, "2025-06-10", 60)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(slots) != 2 {
		t.Fatalf("got %d slots after booking, want 2", len(slots))
	}
}

func TestServiceDayAvailabilityUnknownPractice(t *testing.T) {
	f := newFixture(t)
	if _, err := f.svc.DayAvailability(context.Background(), uuid.New(), "2025-06-10"); err == nil {
		t.Error("expected error for unknown practice")
	}
}
