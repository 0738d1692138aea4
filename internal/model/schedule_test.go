package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// 2024-01-03 is a Wednesday.
func wednesdayAt(hhmmss string) time.Time {
	t, err := time.Parse("2006-01-02 15:04:05", "2024-01-03 "+hhmmss)
	if err != nil {
		panic(err)
	}
	return t
}

func TestDefaultWindowSpansFullWeek(t *testing.T) {
	w := DefaultWindow()
	assert.Equal(t, Weekdays, w.DaysOfWeek)
	assert.Equal(t, "00:00:00", w.HourFrom)
	assert.Equal(t, "23:55:00", w.HourTo)
	assert.NoError(t, w.Validate())

	for day := 0; day < 7; day++ {
		ts := wednesdayAt("10:00:00").AddDate(0, 0, day)
		assert.True(t, w.Contains(ts), "default window should contain %s", ts)
	}
}

func TestWindowBoundsInclusive(t *testing.T) {
	w := ScheduleWindow{
		DaysOfWeek: []string{"WED"},
		HourFrom:   "09:00:00",
		HourTo:     "17:00:00",
	}

	tests := []struct {
		name string
		at   string
		want bool
	}{
		{"exactly hour_from", "09:00:00", true},
		{"exactly hour_to", "17:00:00", true},
		{"one second before from", "08:59:59", false},
		{"one second after to", "17:00:01", false},
		{"mid window", "12:30:00", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, w.Contains(wednesdayAt(tt.at)))
		})
	}
}

func TestWindowDayMembership(t *testing.T) {
	w := ScheduleWindow{
		DaysOfWeek: []string{"MON", "TUE"},
		HourFrom:   "00:00:00",
		HourTo:     "23:55:00",
	}
	assert.False(t, w.Contains(wednesdayAt("10:00:00")))
	assert.True(t, w.Contains(wednesdayAt("10:00:00").AddDate(0, 0, 5))) // following Monday
}

// An inverted band (from > to) matches nothing. Overnight windows are a known
// boundary of the comparison, not a supported feature.
func TestWindowNoMidnightWrap(t *testing.T) {
	w := ScheduleWindow{
		DaysOfWeek: append([]string(nil), Weekdays...),
		HourFrom:   "22:00:00",
		HourTo:     "02:00:00",
	}
	assert.False(t, w.Contains(wednesdayAt("23:00:00")))
	assert.False(t, w.Contains(wednesdayAt("01:00:00")))
	assert.False(t, w.Contains(wednesdayAt("12:00:00")))
}

func TestWindowValidate(t *testing.T) {
	tests := []struct {
		name    string
		window  ScheduleWindow
		wantErr bool
	}{
		{"default ok", DefaultWindow(), false},
		{"no days", ScheduleWindow{HourFrom: "00:00:00", HourTo: "23:55:00"}, true},
		{"bad day code", ScheduleWindow{DaysOfWeek: []string{"WEDNESDAY"}, HourFrom: "00:00:00", HourTo: "23:55:00"}, true},
		{"bad from format", ScheduleWindow{DaysOfWeek: []string{"MON"}, HourFrom: "9:00", HourTo: "23:55:00"}, true},
		{"bad to format", ScheduleWindow{DaysOfWeek: []string{"MON"}, HourFrom: "09:00:00", HourTo: "24:00:00"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.window.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
