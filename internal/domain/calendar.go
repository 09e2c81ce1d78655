package domain

import (
	"iter"
	"time"
)

const (
	SlotDuration = 30 * time.Minute

	OpeningHour    = 8
	ClosingHour    = 18
	LunchStartHour = 12
	LunchEndHour   = 13

	// DayKeyLayout formats the calendar day slots are grouped under.
	DayKeyLayout = "2006-01-02"

	checkpointHour   = 17
	checkpointMinute = 30
	workingDays      = 4
)

// WeekWindow is the Monday–Friday range of an ISO week. Start is Monday 00:00
// and End is Start plus four calendar days.
type WeekWindow struct {
	Start time.Time
	End   time.Time
}

// SlotCalendar maps a DayKey to the slots of that day, in ascending order.
type SlotCalendar map[string][]time.Time

func IsValidWeekNumber(week int) bool {
	return week >= 1 && week < 53
}

// ComputeWeekWindow resolves ISO week `week` of now's year, in now's location.
// Once Friday 17:30 of that week has passed, the same week number of the next
// year is used instead. The week number must already be valid.
func ComputeWeekWindow(now time.Time, week int) WeekWindow {
	loc := now.Location()

	start := isoWeekStart(now.Year(), week, loc)
	if weekCheckpoint(start).Before(now) {
		start = isoWeekStart(now.Year()+1, week, loc)
	}

	return WeekWindow{
		Start: start,
		End:   start.AddDate(0, 0, workingDays),
	}
}

func isoWeekStart(year, week int, loc *time.Location) time.Time {
	// January 4th always falls in ISO week 1.
	jan4 := time.Date(year, time.January, 4, 0, 0, 0, 0, loc)
	sinceMonday := (int(jan4.Weekday()) + 6) % 7
	return time.Date(year, time.January, 4-sinceMonday+(week-1)*7, 0, 0, 0, 0, loc)
}

func weekCheckpoint(start time.Time) time.Time {
	y, m, d := start.Date()
	return time.Date(y, m, d+workingDays, checkpointHour, checkpointMinute, 0, 0, start.Location())
}

// IsEligibleSlot reports whether t sits on the half-hour grid, inside business
// hours outside lunch, on a weekday. t is evaluated in its own location.
func IsEligibleSlot(t time.Time) bool {
	if m := t.Minute(); m != 0 && m != 30 {
		return false
	}
	if t.Second() != 0 || t.Nanosecond() != 0 {
		return false
	}

	h := t.Hour()
	if h < OpeningHour || h >= ClosingHour {
		return false
	}
	if h >= LunchStartHour && h < LunchEndHour {
		return false
	}

	switch t.Weekday() {
	case time.Saturday, time.Sunday:
		return false
	}
	return true
}

// EnumerateSlots yields every day from w.Start through w.End inclusive together
// with its eligible slots. Candidates run from opening through closing time
// inclusive; the closing candidate never passes IsEligibleSlot.
func EnumerateSlots(w WeekWindow) iter.Seq2[time.Time, []time.Time] {
	return func(yield func(time.Time, []time.Time) bool) {
		for day := w.Start; !day.After(w.End); day = day.AddDate(0, 0, 1) {
			if !yield(day, daySlots(day)) {
				return
			}
		}
	}
}

func daySlots(day time.Time) []time.Time {
	y, m, d := day.Date()
	loc := day.Location()
	opening := time.Date(y, m, d, OpeningHour, 0, 0, 0, loc)
	closing := time.Date(y, m, d, ClosingHour, 0, 0, 0, loc)

	var slots []time.Time
	for t := opening; !t.After(closing); t = t.Add(SlotDuration) {
		if IsEligibleSlot(t) {
			slots = append(slots, t)
		}
	}
	return slots
}

func DayKey(t time.Time) string {
	return t.Format(DayKeyLayout)
}
