package entity

import (
	"errors"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	errorvalues "github.com/maqsadm/maqsadm/internal/error_values"
)

type ScheduleKind string

const (
	ScheduleOneTime   ScheduleKind = "one_time"
	ScheduleRecurring ScheduleKind = "recurring"
)

// Weekdays is a set of week days packed into a bitmask,
// bit i corresponds to time.Weekday(i) (Sunday = 0).
type Weekdays uint8

func WeekdaysOf(days ...time.Weekday) Weekdays {
	var w Weekdays
	for _, d := range days {
		w |= 1 << uint(d)
	}
	return w
}

func (w Weekdays) Has(d time.Weekday) bool {
	return w&(1<<uint(d)) != 0
}

func (w Weekdays) Empty() bool {
	return w == 0
}

func (w Weekdays) List() []time.Weekday {
	days := make([]time.Weekday, 0, 7)
	for d := time.Sunday; d <= time.Saturday; d++ {
		if w.Has(d) {
			days = append(days, d)
		}
	}
	return days
}

func ParseWeekday(name string) (time.Weekday, error) {
	for d := time.Sunday; d <= time.Saturday; d++ {
		if strings.EqualFold(name, d.String()) {
			return d, nil
		}
	}
	return 0, errors.New("unknown weekday: " + name)
}

// Schedule is a tagged union: one_time carries Date, recurring carries Days.
// Evaluation is pure, day-granular and performed in the submitted date's own
// calendar terms. No timezone normalization across users is done.
type Schedule struct {
	Kind ScheduleKind
	Date time.Time
	Days Weekdays
}

// DueOn reports whether the schedule fires on the given calendar date.
// A recurring schedule with no selected days is never due.
func (s Schedule) DueOn(date time.Time) bool {
	switch s.Kind {
	case ScheduleOneTime:
		return sameDay(s.Date, date)
	case ScheduleRecurring:
		return s.Days.Has(date.Weekday())
	}
	return false
}

// Validate rejects schedules that must never be persisted.
func (s Schedule) Validate() error {
	switch s.Kind {
	case ScheduleOneTime:
		if s.Date.IsZero() {
			return errorvalues.ErrInvalidSchedule
		}
	case ScheduleRecurring:
		if s.Days.Empty() {
			return errorvalues.ErrInvalidSchedule
		}
	default:
		return errorvalues.ErrInvalidSchedule
	}
	return nil
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

const dateLayout = "2006-01-02"

type scheduleJSON struct {
	Kind ScheduleKind `json:"kind"`
	Date string       `json:"date,omitempty"`
	Days []string     `json:"days,omitempty"`
}

func (s Schedule) MarshalJSON() ([]byte, error) {
	out := scheduleJSON{Kind: s.Kind}
	switch s.Kind {
	case ScheduleOneTime:
		out.Date = s.Date.Format(dateLayout)
	case ScheduleRecurring:
		for _, d := range s.Days.List() {
			out.Days = append(out.Days, strings.ToLower(d.String()))
		}
	}
	return sonic.Marshal(out)
}

func (s *Schedule) UnmarshalJSON(data []byte) error {
	var in scheduleJSON
	if err := sonic.Unmarshal(data, &in); err != nil {
		return err
	}
	s.Kind = in.Kind
	s.Date = time.Time{}
	s.Days = 0
	switch in.Kind {
	case ScheduleOneTime:
		if in.Date == "" {
			return errorvalues.ErrInvalidSchedule
		}
		date, err := time.Parse(dateLayout, in.Date)
		if err != nil {
			return errors.New("parsing schedule date error: " + err.Error())
		}
		s.Date = date
	case ScheduleRecurring:
		for _, name := range in.Days {
			d, err := ParseWeekday(name)
			if err != nil {
				return err
			}
			s.Days |= WeekdaysOf(d)
		}
	default:
		return errorvalues.ErrInvalidSchedule
	}
	return nil
}
