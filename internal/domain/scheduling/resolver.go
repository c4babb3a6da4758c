package scheduling

import (
	"errors"
	"fmt"
	"sort"
	"time"
)

// Rejection reasons for a proposed booking. These are business outcomes, not
// server faults.
var (
	ErrInvalidInterval = errors.New("invalid_interval: start must be before end")
	ErrSlotConflict    = errors.New("slot_conflict: interval overlaps an existing booking")
)

// LocalDayOfWeek resolves the weekday of a civil date in the given zone.
// Anchoring at local noon keeps the answer stable even when the zone's UTC
// date differs at midnight boundaries.
func LocalDayOfWeek(year int, month time.Month, day int, loc *time.Location) time.Weekday {
	return time.Date(year, month, day, 12, 0, 0, 0, loc).Weekday()
}

// ParseDate parses a YYYY-MM-DD civil date.
func ParseDate(s string) (year int, month time.Month, day int, err error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return 0, 0, 0, fmt.Errorf("invalid date %q: want YYYY-MM-DD", s)
	}
	return t.Year(), t.Month(), t.Day(), nil
}

// ResolveDayAvailability returns the raw constraint set for one calendar date
// in the practice's zone: the recurring blocks for that local weekday ordered
// by start time, and the date's exceptions with whole-day exceptions first.
// It does not compose a slot grid; DaySlots does that.
func ResolveDayAvailability(date string, loc *time.Location, blocks []*AvailabilityBlock, exceptions []*AvailabilityException) (*DayAvailability, error) {
	year, month, day, err := ParseDate(date)
	if err != nil {
		return nil, err
	}
	weekday := int(LocalDayOfWeek(year, month, day, loc))

	var dayBlocks []*AvailabilityBlock
	for _, b := range blocks {
		if b.DayOfWeek == weekday {
			dayBlocks = append(dayBlocks, b)
		}
	}
	sort.Slice(dayBlocks, func(i, j int) bool {
		return dayBlocks[i].StartMinute < dayBlocks[j].StartMinute
	})

	sorted := make([]*AvailabilityException, len(exceptions))
	copy(sorted, exceptions)
	sort.Slice(sorted, func(i, j int) bool {
		// Whole-day exceptions (no start time) sort first.
		si, sj := sorted[i].StartMinute, sorted[j].StartMinute
		if (si == nil) != (sj == nil) {
			return si == nil
		}
		if si == nil {
			return false
		}
		return *si < *sj
	})

	return &DayAvailability{
		Date:       date,
		DayOfWeek:  weekday,
		Blocks:     dayBlocks,
		Exceptions: sorted,
	}, nil
}

// CheckReservation answers whether the proposed half-open interval
// [start, end) would conflict with any existing non-canceled appointment or
// unexpired hold for the practice. Touching endpoints do not conflict. The
// decision is only as good as the snapshot it was given; the persistence
// layer must make the final insert atomic.
func CheckReservation(start, end time.Time, existing []*Appointment, holds []*Hold, now time.Time) error {
	if !start.Before(end) {
		return ErrInvalidInterval
	}
	for _, a := range existing {
		if a.Status == StatusCanceled {
			continue
		}
		if a.StartTime.Before(end) && a.EndTime.After(start) {
			return ErrSlotConflict
		}
	}
	for _, h := range holds {
		if h.Expired(now) {
			continue
		}
		if h.StartTime.Before(end) && h.EndTime.After(start) {
			return ErrSlotConflict
		}
	}
	return nil
}

// minuteInterval is a half-open [start, end) window in local minutes.
type minuteInterval struct{ start, end int }

// DaySlots composes the bookable slot grid for one practice-local day: the
// recurring blocks, minus closed exceptions, plus opened exceptions, carved
// into slotMinutes-sized slots, dropping any slot that overlaps a
// non-canceled appointment or unexpired hold.
func DaySlots(date string, loc *time.Location, slotMinutes int, blocks []*AvailabilityBlock, exceptions []*AvailabilityException, appointments []*Appointment, holds []*Hold, now time.Time) ([]Slot, error) {
	if slotMinutes <= 0 {
		return nil, fmt.Errorf("slot_minutes must be positive")
	}
	avail, err := ResolveDayAvailability(date, loc, blocks, exceptions)
	if err != nil {
		return nil, err
	}
	year, month, day, _ := ParseDate(date)
	midnight := time.Date(year, month, day, 0, 0, 0, 0, loc)

	var open []minuteInterval
	for _, b := range avail.Blocks {
		open = append(open, minuteInterval{b.StartMinute, b.EndMinute})
	}
	for _, e := range avail.Exceptions {
		s, en := e.Window()
		if e.IsOpen {
			open = append(open, minuteInterval{s, en})
		} else {
			open = subtract(open, minuteInterval{s, en})
		}
	}

	slots := []Slot{}
	for _, iv := range open {
		for m := iv.start; m+slotMinutes <= iv.end; m += slotMinutes {
			slotStart := midnight.Add(time.Duration(m) * time.Minute)
			slotEnd := slotStart.Add(time.Duration(slotMinutes) * time.Minute)
			if CheckReservation(slotStart, slotEnd, appointments, holds, now) != nil {
				continue
			}
			slots = append(slots, Slot{StartTime: slotStart, EndTime: slotEnd})
		}
	}
	sort.Slice(slots, func(i, j int) bool { return slots[i].StartTime.Before(slots[j].StartTime) })
	return slots, nil
}

// subtract removes the closed window from every open interval, splitting
// intervals that straddle it.
func subtract(open []minuteInterval, closed minuteInterval) []minuteInterval {
	var out []minuteInterval
	for _, iv := range open {
		if closed.end <= iv.start || closed.start >= iv.end {
			out = append(out, iv)
			continue
		}
		if closed.start > iv.start {
			out = append(out, minuteInterval{iv.start, closed.start})
		}
		if closed.end < iv.end {
			out = append(out, minuteInterval{closed.end, iv.end})
		}
	}
	return out
}
