package scheduling

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
)

func mustLoc(t *testing.T, name string) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation(name)
	if err != nil {
		t.Fatalf("load location %s: %v", name, err)
	}
	return loc
}

func intPtr(v int) *int { return &v }

func TestLocalDayOfWeek(t *testing.T) {
	// 2025-06-10 is a Tuesday everywhere; the weekday of a civil date must
	// not depend on the zone's UTC offset.
	zones := []string{"UTC", "America/New_York", "America/Los_Angeles", "Asia/Tokyo", "Pacific/Kiritimati"}
	for _, z := range zones {
		loc := mustLoc(t, z)
		if got := LocalDayOfWeek(2025, time.June, 10, loc); got != time.Tuesday {
			t.Errorf("zone %s: got %v, want Tuesday", z, got)
		}
	}
}

func TestLocalDayOfWeekDSTTransition(t *testing.T) {
	// 2025-03-09 is the US spring-forward date; midnight math can misfire
	// there, noon anchoring must not.
	loc := mustLoc(t, "America/New_York")
	if got := LocalDayOfWeek(2025, time.March, 9, loc); got != time.Sunday {
		t.Errorf("got %v, want Sunday", got)
	}
}

func TestParseDate(t *testing.T) {
	tests := []struct {
		input   string
		wantErr bool
	}{
		{"2025-06-10", false},
		{"2025-6-10", true},
		{"06/10/2025", true},
		{"", true},
		{"2025-13-01", true},
	}
	for _, tt := range tests {
		_, _, _, err := ParseDate(tt.input)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseDate(%q): err = %v, wantErr = %v", tt.input, err, tt.wantErr)
		}
	}
}

func block(day, start, end int) *AvailabilityBlock {
	return &AvailabilityBlock{ID: uuid.New(), DayOfWeek: day, StartMinute: start, EndMinute: end}
}

func TestResolveDayAvailability(t *testing.T) {
	loc := mustLoc(t, "America/New_York")
	blocks := []*AvailabilityBlock{
		block(2, 13*60, 17*60), // Tuesday afternoon
		block(2, 9*60, 12*60),  // Tuesday morning
		block(3, 9*60, 17*60),  // Wednesday
	}
	wholeDay := &AvailabilityException{ID: uuid.New(), IsOpen: false}
	partial := &AvailabilityException{ID: uuid.New(), StartMinute: intPtr(10 * 60), EndMinute: intPtr(11 * 60), IsOpen: false}

	day, err := ResolveDayAvailability("2025-06-10", loc, blocks, []*AvailabilityException{partial, wholeDay})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if day.DayOfWeek != 2 {
		t.Errorf("day of week = %d, want 2", day.DayOfWeek)
	}
	if len(day.Blocks) != 2 {
		t.Fatalf("got %d blocks, want 2", len(day.Blocks))
	}
	if day.Blocks[0].StartMinute != 9*60 || day.Blocks[1].StartMinute != 13*60 {
		t.Errorf("blocks not sorted by start minute: %d, %d", day.Blocks[0].StartMinute, day.Blocks[1].StartMinute)
	}
	if len(day.Exceptions) != 2 || day.Exceptions[0].StartMinute != nil {
		t.Errorf("whole-day exception should sort first")
	}
}

func TestResolveDayAvailabilityBadDate(t *testing.T) {
	if _, err := ResolveDayAvailability("next tuesday", time.UTC, nil, nil); err == nil {
		t.Fatal("expected error for malformed date")
	}
}

func appt(start, end time.Time, status string) *Appointment {
	return &Appointment{ID: uuid.New(), StartTime: start, EndTime: end, Status: status}
}

func TestCheckReservation(t *testing.T) {
	base := time.Date(2025, time.June, 10, 9, 0, 0, 0, time.UTC)
	now := base
	at := func(h int) time.Time { return base.Add(time.Duration(h) * time.Hour) }

	booked := appt(at(1), at(2), StatusScheduled)
	canceled := appt(at(1), at(2), StatusCanceled)

	tests := []struct {
		name    string
		start   time.Time
		end     time.Time
		appts   []*Appointment
		holds   []*Hold
		wantErr error
	}{
		{"no conflicts", at(3), at(4), []*Appointment{booked}, nil, nil},
		{"exact overlap", at(1), at(2), []*Appointment{booked}, nil, ErrSlotConflict},
		{"partial overlap", at(1).Add(30 * time.Minute), at(3), []*Appointment{booked}, nil, ErrSlotConflict},
		{"containing interval", at(0), at(3), []*Appointment{booked}, nil, ErrSlotConflict},
		{"touching end to start", at(2), at(3), []*Appointment{booked}, nil, nil},
		{"touching start to end", at(0), at(1), []*Appointment{booked}, nil, nil},
		{"canceled never conflicts", at(1), at(2), []*Appointment{canceled}, nil, nil},
		{"zero-length interval", at(1), at(1), nil, nil, ErrInvalidInterval},
		{"inverted interval", at(2), at(1), nil, nil, ErrInvalidInterval},
		{
			"active hold conflicts", at(1), at(2), nil,
			[]*Hold{{StartTime: at(1), EndTime: at(2), ExpiresAt: now.Add(time.Hour)}},
			ErrSlotConflict,
		},
		{
			"expired hold ignored", at(1), at(2), nil,
			[]*Hold{{StartTime: at(1), EndTime: at(2), ExpiresAt: now.Add(-time.Minute)}},
			nil,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckReservation(tt.start, tt.end, tt.appts, tt.holds, now)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("got %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestDaySlots(t *testing.T) {
	loc := mustLoc(t, "America/New_York")
	blocks := []*AvailabilityBlock{block(2, 9*60, 12*60)} // Tuesday 9-12
	now := time.Date(2025, time.June, 1, 0, 0, 0, 0, time.UTC)

	t.Run("full grid", func(t *testing.T) {
		slots, err := DaySlots("2025-06-10", loc, 60, blocks, nil, nil, nil, now)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(slots) != 3 {
			t.Fatalf("got %d slots, want 3", len(slots))
		}
		want := time.Date(2025, time.June, 10, 9, 0, 0, 0, loc)
		if !slots[0].StartTime.Equal(want) {
			t.Errorf("first slot starts %v, want %v", slots[0].StartTime, want)
		}
	})

	t.Run("booked slot removed", func(t *testing.T) {
		taken := appt(
			time.Date(2025, time.June, 10, 9, 0, 0, 0, loc),
			time.Date(2025, time.June, 10, 10, 0, 0, 0, loc),
			StatusScheduled,
		)
		slots, err := DaySlots("2025-06-10", loc, 60, blocks, nil, []*Appointment{taken}, nil, now)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(slots) != 2 {
			t.Fatalf("got %d slots, want 2", len(slots))
		}
		if slots[0].StartTime.Hour() != 10 {
			t.Errorf("first open slot at hour %d, want 10", slots[0].StartTime.Hour())
		}
	})

	t.Run("closed exception splits the window", func(t *testing.T) {
		closed := &AvailabilityException{StartMinute: intPtr(10 * 60), EndMinute: intPtr(11 * 60), IsOpen: false}
		slots, err := DaySlots("2025-06-10", loc, 60, blocks, []*AvailabilityException{closed}, nil, nil, now)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(slots) != 2 {
			t.Fatalf("got %d slots, want 2", len(slots))
		}
		if slots[0].StartTime.Hour() != 9 || slots[1].StartTime.Hour() != 11 {
			t.Errorf("slot hours = %d, %d; want 9, 11", slots[0].StartTime.Hour(), slots[1].StartTime.Hour())
		}
	})

	t.Run("whole-day closure empties the grid", func(t *testing.T) {
		closed := &AvailabilityException{IsOpen: false}
		slots, err := DaySlots("2025-06-10", loc, 60, blocks, []*AvailabilityException{closed}, nil, nil, now)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(slots) != 0 {
			t.Fatalf("got %d slots, want 0", len(slots))
		}
	})

	t.Run("open exception adds a window on an off day", func(t *testing.T) {
		// 2025-06-11 is a Wednesday; no recurring block applies.
		open := &AvailabilityException{StartMinute: intPtr(14 * 60), EndMinute: intPtr(16 * 60), IsOpen: true}
		slots, err := DaySlots("2025-06-11", loc, 60, blocks, []*AvailabilityException{open}, nil, nil, now)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(slots) != 2 {
			t.Fatalf("got %d slots, want 2", len(slots))
		}
		if slots[0].StartTime.Hour() != 14 {
			t.Errorf("first slot at hour %d, want 14", slots[0].StartTime.Hour())
		}
	})

	t.Run("held slot removed", func(t *testing.T) {
		hold := &Hold{
			StartTime: time.Date(2025, time.June, 10, 11, 0, 0, 0, loc),
			EndTime:   time.Date(2025, time.June, 10, 12, 0, 0, 0, loc),
			ExpiresAt: now.Add(time.Hour),
		}
		slots, err := DaySlots("2025-06-10", loc, 60, blocks, nil, nil, []*Hold{hold}, now)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(slots) != 2 {
			t.Fatalf("got %d slots, want 2", len(slots))
		}
	})

	t.Run("slot size larger than window yields none", func(t *testing.T) {
		slots, err := DaySlots("2025-06-10", loc, 240, blocks, nil, nil, nil, now)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(slots) != 0 {
			t.Fatalf("got %d slots, want 0", len(slots))
		}
	})
}

func TestBlockOverlaps(t *testing.T) {
	a := block(2, 9*60, 12*60)
	tests := []struct {
		name  string
		other *AvailabilityBlock
		want  bool
	}{
		{"same window", block(2, 9*60, 12*60), true},
		{"partial", block(2, 11*60, 14*60), true},
		{"touching", block(2, 12*60, 14*60), false},
		{"different day", block(3, 9*60, 12*60), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := a.Overlaps(tt.other); got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}
