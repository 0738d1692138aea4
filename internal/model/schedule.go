package model

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// Weekday codes in scheme order. Schedules store the three-letter upper-case
// form; evaluation compares against the same form.
var Weekdays = []string{"MON", "TUE", "WED", "THU", "FRI", "SAT", "SUN"}

var timeOfDayPattern = regexp.MustCompile(`^([01][0-9]|2[0-3]):[0-5][0-9]:[0-5][0-9]$`)

// ScheduleWindow restricts a routing rule to a set of weekdays and a
// wall-clock time band. Bounds are inclusive. Times are compared lexically as
// zero-padded HH:MM:SS strings; no timezone conversion is applied, the
// timestamp is taken to be in the ingest node's operative local time.
//
// A window whose HourFrom sorts after HourTo never matches. Overnight bands
// (e.g. 22:00-02:00) are intentionally not supported.
type ScheduleWindow struct {
	DaysOfWeek []string `yaml:"day_of_week" json:"day_of_week"`
	HourFrom   string   `yaml:"hour_of_day_from" json:"hour_of_day_from"`
	HourTo     string   `yaml:"hour_of_day_to" json:"hour_of_day_to"`
}

// DefaultWindow returns the window a freshly added rule gets: every weekday,
// 00:00:00 through 23:55:00, effectively always active.
func DefaultWindow() ScheduleWindow {
	return ScheduleWindow{
		DaysOfWeek: append([]string(nil), Weekdays...),
		HourFrom:   "00:00:00",
		HourTo:     "23:55:00",
	}
}

// Contains reports whether t falls inside the window.
func (w ScheduleWindow) Contains(t time.Time) bool {
	day := strings.ToUpper(t.Format("Mon"))
	found := false
	for _, d := range w.DaysOfWeek {
		if d == day {
			found = true
			break
		}
	}
	if !found {
		return false
	}

	tod := t.Format("15:04:05")
	return w.HourFrom <= tod && tod <= w.HourTo
}

// Validate checks day codes and time-of-day formats.
func (w ScheduleWindow) Validate() error {
	if len(w.DaysOfWeek) == 0 {
		return fmt.Errorf("schedule: day_of_week must be non-empty")
	}
	for _, d := range w.DaysOfWeek {
		valid := false
		for _, known := range Weekdays {
			if d == known {
				valid = true
				break
			}
		}
		if !valid {
			return fmt.Errorf("schedule: unknown day code %q", d)
		}
	}
	if !timeOfDayPattern.MatchString(w.HourFrom) {
		return fmt.Errorf("schedule: hour_of_day_from %q is not HH:MM:SS", w.HourFrom)
	}
	if !timeOfDayPattern.MatchString(w.HourTo) {
		return fmt.Errorf("schedule: hour_of_day_to %q is not HH:MM:SS", w.HourTo)
	}
	return nil
}
