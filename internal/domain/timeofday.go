package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrInvalidTimeOfDay is returned when a time-of-day string cannot be parsed.
var ErrInvalidTimeOfDay = errors.New("invalid time of day")

var timeOfDayLayouts = []string{"15:04", "3:04PM", "3:04 PM", "15:04:05"}

// TimeOfDay is a wall-clock time with minute precision. Its String form is
// zero-padded 24-hour "HH:MM", so string order matches chronological order.
type TimeOfDay struct {
	Hour   int
	Minute int
}

// ParseTimeOfDay accepts "9:05", "09:05", "21:05", "9:05 PM" and "9:05pm".
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	for _, layout := range timeOfDayLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return TimeOfDay{Hour: t.Hour(), Minute: t.Minute()}, nil
		}
	}
	return TimeOfDay{}, fmt.Errorf("%w: %q", ErrInvalidTimeOfDay, s)
}

// MustParseTimeOfDay is like ParseTimeOfDay but panics on error.
func MustParseTimeOfDay(s string) TimeOfDay {
	t, err := ParseTimeOfDay(s)
	if err != nil {
		panic(err)
	}
	return t
}

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

// Before reports whether t is earlier in the day than u.
func (t TimeOfDay) Before(u TimeOfDay) bool {
	return t.Hour*60+t.Minute < u.Hour*60+u.Minute
}
