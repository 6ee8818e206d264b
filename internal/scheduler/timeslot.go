package scheduler

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DateLayout is the wire format for slot dates.
const DateLayout = "2006-01-02"

// MinutesPerDay bounds a TimeOfDay value; 24:00 is a valid slot end.
const MinutesPerDay = 24 * 60

// ErrInvalidSlot is returned for malformed or elapsed time ranges.
var ErrInvalidSlot = errors.New("scheduler: invalid slot")

// TimeOfDay counts minutes since midnight.
type TimeOfDay int

// ParseTimeOfDay parses an "HH:MM" value. "24:00" is accepted so a slot may end at midnight.
func ParseTimeOfDay(value string) (TimeOfDay, error) {
	value = strings.TrimSpace(value)
	hh, mm, ok := strings.Cut(value, ":")
	if !ok || len(hh) != 2 || len(mm) != 2 {
		return 0, fmt.Errorf("%w: time %q must use HH:MM", ErrInvalidSlot, value)
	}
	hours, err := strconv.Atoi(hh)
	if err != nil {
		return 0, fmt.Errorf("%w: time %q must use HH:MM", ErrInvalidSlot, value)
	}
	minutes, err := strconv.Atoi(mm)
	if err != nil {
		return 0, fmt.Errorf("%w: time %q must use HH:MM", ErrInvalidSlot, value)
	}
	if hours < 0 || minutes < 0 || minutes > 59 || hours > 24 || (hours == 24 && minutes != 0) {
		return 0, fmt.Errorf("%w: time %q is out of range", ErrInvalidSlot, value)
	}
	return TimeOfDay(hours*60 + minutes), nil
}

// String renders the value as HH:MM.
func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", int(t)/60, int(t)%60)
}

// ParseDate parses a YYYY-MM-DD value into a UTC midnight.
func ParseDate(value string) (time.Time, error) {
	date, err := time.Parse(DateLayout, strings.TrimSpace(value))
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: date %q must use YYYY-MM-DD", ErrInvalidSlot, value)
	}
	return date, nil
}

// DateOf truncates t to its calendar date as seen in t's own location.
func DateOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// TimeSlot is a date plus a half-open [Start, End) range of the day.
type TimeSlot struct {
	Date  time.Time
	Start TimeOfDay
	End   TimeOfDay
}

// NewTimeSlot parses and validates a slot from its textual parts.
func NewTimeSlot(date, start, end string) (TimeSlot, error) {
	d, err := ParseDate(date)
	if err != nil {
		return TimeSlot{}, err
	}
	s, err := ParseTimeOfDay(start)
	if err != nil {
		return TimeSlot{}, err
	}
	e, err := ParseTimeOfDay(end)
	if err != nil {
		return TimeSlot{}, err
	}
	slot := TimeSlot{Date: d, Start: s, End: e}
	if err := slot.Validate(); err != nil {
		return TimeSlot{}, err
	}
	return slot, nil
}

// Validate checks the start < end invariant and the day bounds.
func (s TimeSlot) Validate() error {
	if s.Date.IsZero() {
		return fmt.Errorf("%w: date is required", ErrInvalidSlot)
	}
	if s.Start < 0 || s.End > MinutesPerDay {
		return fmt.Errorf("%w: times must fall within the day", ErrInvalidSlot)
	}
	if s.Start >= s.End {
		return fmt.Errorf("%w: start must be before end", ErrInvalidSlot)
	}
	return nil
}

// DateKey returns the slot date in DateLayout.
func (s TimeSlot) DateKey() string {
	return s.Date.Format(DateLayout)
}

// SameDay reports whether both slots fall on the same calendar date.
func (s TimeSlot) SameDay(other TimeSlot) bool {
	return s.DateKey() == other.DateKey()
}

// Overlaps applies the half-open rule: slots on different dates never overlap.
func (s TimeSlot) Overlaps(other TimeSlot) bool {
	if !s.SameDay(other) {
		return false
	}
	return s.Start < other.End && other.Start < s.End
}

// Minutes is the slot length.
func (s TimeSlot) Minutes() int {
	return int(s.End - s.Start)
}

// Bounds resolves the slot to absolute instants in loc.
func (s TimeSlot) Bounds(loc *time.Location) (time.Time, time.Time) {
	if loc == nil {
		loc = time.UTC
	}
	midnight := time.Date(s.Date.Year(), s.Date.Month(), s.Date.Day(), 0, 0, 0, 0, loc)
	return midnight.Add(time.Duration(s.Start) * time.Minute), midnight.Add(time.Duration(s.End) * time.Minute)
}

// Elapsed reports whether the whole slot lies at or before now.
func (s TimeSlot) Elapsed(now time.Time) bool {
	_, end := s.Bounds(now.Location())
	return !end.After(now)
}

// Before orders slots by date, start, then end.
func (s TimeSlot) Before(other TimeSlot) bool {
	if dk, ok := s.DateKey(), other.DateKey(); dk != ok {
		return dk < ok
	}
	if s.Start != other.Start {
		return s.Start < other.Start
	}
	return s.End < other.End
}

func (s TimeSlot) String() string {
	return fmt.Sprintf("%s %s-%s", s.DateKey(), s.Start, s.End)
}
