package scheduling

import (
	"fmt"
	"time"
)

// SlotDuration is the length of a bookable slot.
const SlotDuration = 30 * time.Minute

const fullDayEnd = 24 * time.Hour

// DayAvailability lists the open slot start times of a single calendar day.
type DayAvailability struct {
	Date  string   `json:"date"`  // "2006-01-02"
	Slots []string `json:"slots"` // "15:04"
}

// parseClock converts "HH:MM" into an offset from midnight.
func parseClock(s string) (time.Duration, error) {
	var h, m int
	if _, err := fmt.Sscanf(s, "%d:%d", &h, &m); err != nil {
		return 0, fmt.Errorf("invalid time %q: %w", s, err)
	}
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return 0, fmt.Errorf("invalid time %q", s)
	}
	return time.Duration(h)*time.Hour + time.Duration(m)*time.Minute, nil
}

// dayWindow resolves the working window for a weekday from the doctor's
// schedule entries. The first entry for the day wins. Without an entry the
// whole day is open; entries with unparseable times are skipped.
func dayWindow(entries []*ScheduleEntry, day time.Weekday) (start, end time.Duration, blocked bool) {
	for _, e := range entries {
		if e.Day != day {
			continue
		}
		if e.IsBlocked {
			return 0, 0, true
		}
		s, err := parseClock(e.Start)
		if err != nil {
			continue
		}
		en, err := parseClock(e.End)
		if err != nil {
			continue
		}
		return s, en, false
	}
	return 0, fullDayEnd, false
}

// conflictingAppointment returns the first non-cancelled appointment whose
// window overlaps [start, end). Windows are half-open, so an appointment
// ending exactly at start does not conflict.
func conflictingAppointment(appts []*Appointment, start, end time.Time) *Appointment {
	for _, a := range appts {
		if a.Status == StatusCancelled {
			continue
		}
		if a.StartTime.Before(end) && start.Before(a.EndTime) {
			return a
		}
	}
	return nil
}

// roundUpToSlot moves t forward to the next half-hour boundary, dropping
// seconds. Times already on a boundary are returned unchanged.
func roundUpToSlot(t time.Time) time.Time {
	if mod := t.Minute() % 30; mod != 0 {
		t = t.Add(time.Duration(30-mod) * time.Minute)
		t = t.Truncate(time.Minute)
	}
	return t
}

// NextAvailableSlot scans the seven days starting at now for the earliest
// free slot within the doctor's working windows. Slots earlier than now on
// the first day are skipped. When every slot in the window is taken it
// returns now plus seven days as an out-of-range sentinel.
func NextAvailableSlot(now time.Time, entries []*ScheduleEntry, appts []*Appointment) time.Time {
	for i := 0; i < 7; i++ {
		date := now.AddDate(0, 0, i)
		start, end, blocked := dayWindow(entries, date.Weekday())
		if blocked {
			continue
		}
		midnight := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())
		cursor := midnight.Add(start)
		dayEnd := midnight.Add(end)
		if i == 0 && cursor.Before(now) {
			cursor = now
		}
		cursor = roundUpToSlot(cursor)
		for cursor.Before(dayEnd) {
			slotEnd := cursor.Add(SlotDuration)
			if conflictingAppointment(appts, cursor, slotEnd) == nil {
				return cursor
			}
			cursor = slotEnd
		}
	}
	return now.Add(7 * 24 * time.Hour)
}

// Calendar builds the per-day availability between from and to, inclusive of
// both dates. Blocked days and days with no free slots are omitted; only
// slots that fit entirely inside the working window are offered.
func Calendar(from, to time.Time, entries []*ScheduleEntry, appts []*Appointment) []DayAvailability {
	days := []DayAvailability{}
	first := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, from.Location())
	last := time.Date(to.Year(), to.Month(), to.Day(), 0, 0, 0, 0, to.Location())
	for d := first; !d.After(last); d = d.AddDate(0, 0, 1) {
		start, end, blocked := dayWindow(entries, d.Weekday())
		if blocked {
			continue
		}
		var slots []string
		cursor := d.Add(start)
		dayEnd := d.Add(end)
		for cursor.Before(dayEnd) {
			slotEnd := cursor.Add(SlotDuration)
			if slotEnd.After(dayEnd) {
				break
			}
			if conflictingAppointment(appts, cursor, slotEnd) == nil {
				slots = append(slots, cursor.Format("15:04"))
			}
			cursor = slotEnd
		}
		if len(slots) > 0 {
			days = append(days, DayAvailability{Date: d.Format("2006-01-02"), Slots: slots})
		}
	}
	return days
}
