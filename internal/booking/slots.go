package booking

import (
	"fmt"
	"sort"
	"time"
)

const (
	defaultWindowDays = 7
	defaultMaxSlots   = 6
	defaultOpenHour   = 9
	defaultCloseHour  = 17
)

var defaultSlotHours = []int{10, 14, 16}

// SlotPolicy describes when calls may be booked and how many options are
// shown. Generated and provider-supplied slots are held to the same rules.
type SlotPolicy struct {
	Location   *time.Location
	Hours      []int // start hours used when generating slots
	OpenHour   int   // first bookable hour (inclusive)
	CloseHour  int   // last bookable hour (exclusive)
	WindowDays int   // calendar days searched, starting tomorrow
	MaxSlots   int
}

// DefaultSlotPolicy returns weekday 10am/2pm/4pm slots over the next week.
func DefaultSlotPolicy(loc *time.Location) SlotPolicy {
	return SlotPolicy{Location: loc}.normalized()
}

func (p SlotPolicy) normalized() SlotPolicy {
	if p.Location == nil {
		p.Location = time.UTC
	}
	if len(p.Hours) == 0 {
		p.Hours = append([]int(nil), defaultSlotHours...)
	}
	if p.OpenHour <= 0 && p.CloseHour <= 0 {
		p.OpenHour, p.CloseHour = defaultOpenHour, defaultCloseHour
	}
	if p.CloseHour <= p.OpenHour {
		p.CloseHour = p.OpenHour + 1
	}
	if p.WindowDays <= 0 {
		p.WindowDays = defaultWindowDays
	}
	if p.MaxSlots <= 0 {
		p.MaxSlots = defaultMaxSlots
	}
	return p
}

// Window returns the search range: the start of tomorrow (business time zone)
// through WindowDays calendar days later.
func (p SlotPolicy) Window(now time.Time) (time.Time, time.Time) {
	p = p.normalized()
	local := now.In(p.Location)
	start := time.Date(local.Year(), local.Month(), local.Day()+1, 0, 0, 0, 0, p.Location)
	end := time.Date(start.Year(), start.Month(), start.Day()+p.WindowDays, 0, 0, 0, 0, p.Location)
	return start, end
}

// Generate produces the deterministic candidate slots: each weekday in the
// window at each configured hour, keeping only those strictly after now and
// truncating to MaxSlots.
func (p SlotPolicy) Generate(now time.Time) []TimeSlot {
	p = p.normalized()
	start, _ := p.Window(now)

	slots := make([]TimeSlot, 0, p.MaxSlots)
	for day := 0; day < p.WindowDays; day++ {
		date := time.Date(start.Year(), start.Month(), start.Day()+day, 0, 0, 0, 0, p.Location)
		if !isWeekday(date.Weekday()) {
			continue
		}
		for _, hour := range p.Hours {
			at := time.Date(date.Year(), date.Month(), date.Day(), hour, 0, 0, 0, p.Location)
			if !p.Allows(at, now) {
				continue
			}
			slots = append(slots, NewTimeSlot(at, p.Location))
			if len(slots) == p.MaxSlots {
				return slots
			}
		}
	}
	return slots
}

// Allows reports whether t is a valid slot start: strictly after now, on a
// weekday, inside business hours.
func (p SlotPolicy) Allows(t, now time.Time) bool {
	p = p.normalized()
	if !t.After(now) {
		return false
	}
	local := t.In(p.Location)
	if !isWeekday(local.Weekday()) {
		return false
	}
	return local.Hour() >= p.OpenHour && local.Hour() < p.CloseHour
}

// Filter applies the slot invariant to provider-supplied slots, fills in
// missing IDs and labels, orders them by start time, drops duplicates and
// truncates to MaxSlots.
func (p SlotPolicy) Filter(slots []TimeSlot, now time.Time) []TimeSlot {
	p = p.normalized()
	out := make([]TimeSlot, 0, len(slots))
	seen := make(map[string]struct{}, len(slots))
	for _, slot := range slots {
		if !p.Allows(slot.StartTime, now) {
			continue
		}
		if slot.ID == "" {
			slot.ID = SlotID(slot.StartTime)
		}
		if slot.DisplayLabel == "" {
			slot.DisplayLabel = FormatSlotLabel(slot.StartTime, p.Location)
		}
		if _, dup := seen[slot.ID]; dup {
			continue
		}
		seen[slot.ID] = struct{}{}
		out = append(out, slot)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].StartTime.Before(out[j].StartTime)
	})
	if len(out) > p.MaxSlots {
		out = out[:p.MaxSlots]
	}
	return out
}

// NewTimeSlot builds a slot with the canonical ID and label.
func NewTimeSlot(start time.Time, loc *time.Location) TimeSlot {
	return TimeSlot{
		ID:           SlotID(start),
		StartTime:    start.UTC(),
		DisplayLabel: FormatSlotLabel(start, loc),
	}
}

// SlotID derives a stable identifier from the start instant.
func SlotID(start time.Time) string {
	return fmt.Sprintf("slot_%d", start.UnixMilli())
}

// FormatSlotLabel renders e.g. "Monday, Oct 20, 10:00 AM".
func FormatSlotLabel(start time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	return start.In(loc).Format("Monday, Jan 2, 3:04 PM")
}

func isWeekday(d time.Weekday) bool {
	return d >= time.Monday && d <= time.Friday
}
