// Package schedule projects a child's static meal settings over a range of
// calendar days. A projection says what should happen on each day; it knows
// nothing about the meals that were actually planned.
package schedule

import (
	"strings"
	"time"

	"family-meal-planner/internal/meal"
	"family-meal-planner/internal/policy"
)

// DateLayout is the calendar day format used for every date key.
const DateLayout = "2006-01-02"

// DaysPerWeek is the length of a planning week.
const DaysPerWeek = 7

// HabitualLunch is where a child usually eats lunch on school days.
type HabitualLunch string

const (
	HabitualHome    HabitualLunch = "home"
	HabitualCanteen HabitualLunch = "canteen"
)

// ParseHabitualLunch accepts the French and English spellings. Anything it
// does not recognise is home.
func ParseHabitualLunch(raw string) HabitualLunch {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "cantine", "canteen":
		return HabitualCanteen
	default:
		return HabitualHome
	}
}

// ChildSettings is the part of a child profile the projection depends on.
type ChildSettings struct {
	SchoolTripDates []string
	SpecialDiet     bool
	HabitualLunch   HabitualLunch
}

// HasSchoolTrip reports whether day (yyyy-MM-dd) is a school trip day.
func (s ChildSettings) HasSchoolTrip(day string) bool {
	_, ok := s.tripSet()[day]
	return ok
}

// ConfigFor builds the meal config of a single day.
func (s ChildSettings) ConfigFor(day string) policy.ChildMealConfig {
	return s.configFor(day, s.tripSet())
}

func (s ChildSettings) configFor(day string, trips map[string]struct{}) policy.ChildMealConfig {
	_, trip := trips[day]
	return policy.ChildMealConfig{
		HasSchoolTripToday: trip,
		HasSpecialDiet:     s.SpecialDiet,
		EatsAtCanteen:      s.HabitualLunch == HabitualCanteen,
	}
}

func (s ChildSettings) tripSet() map[string]struct{} {
	set := make(map[string]struct{}, len(s.SchoolTripDates))
	for _, d := range s.SchoolTripDates {
		if key := NormalizeDateKey(d); key != "" {
			set[key] = struct{}{}
		}
	}
	return set
}

// NormalizeDateKey trims a stored date and keeps only the calendar day of an
// ISO timestamp ("2025-06-10T08:00:00Z" -> "2025-06-10"). No time zone
// conversion happens.
func NormalizeDateKey(raw string) string {
	raw = strings.TrimSpace(raw)
	if len(raw) > len(DateLayout) && (raw[len(DateLayout)] == 'T' || raw[len(DateLayout)] == ' ') {
		return raw[:len(DateLayout)]
	}
	return raw
}

// DayLunchPolicy is the lunch decision for one child on one day.
type DayLunchPolicy struct {
	Date             string         `json:"date"`
	Weekday          time.Weekday   `json:"weekday"`
	LunchType        meal.LunchType `json:"lunch_type"`
	CanGenerateLunch bool           `json:"can_generate_lunch"`
	IsLunchboxDay    bool           `json:"is_lunchbox_day"`
	IsLocked         bool           `json:"is_locked"`
}

// Table is an ordered run of consecutive DayLunchPolicy entries.
type Table struct {
	Start string           `json:"start"`
	Days  []DayLunchPolicy `json:"days"`
}

// Day returns the policy for date.
func (t Table) Day(date string) (DayLunchPolicy, bool) {
	for _, d := range t.Days {
		if d.Date == date {
			return d, true
		}
	}
	return DayLunchPolicy{}, false
}

// Dates returns the dates covered by the table, in order.
func (t Table) Dates() []string {
	dates := make([]string, len(t.Days))
	for i, d := range t.Days {
		dates[i] = d.Date
	}
	return dates
}

// End returns the last date of the table, or "" for an empty table.
func (t Table) End() string {
	if len(t.Days) == 0 {
		return ""
	}
	return t.Days[len(t.Days)-1].Date
}

// ProjectWeek projects the Monday-start week that contains weekStart.
func ProjectWeek(weekStart time.Time, s ChildSettings) Table {
	return ProjectRange(StartOfWeek(weekStart), DaysPerWeek, s)
}

// ProjectRange projects days consecutive calendar days starting at from.
func ProjectRange(from time.Time, days int, s ChildSettings) Table {
	start := CalendarDay(from)
	table := Table{Start: start.Format(DateLayout)}
	if days <= 0 {
		return table
	}

	trips := s.tripSet()
	table.Days = make([]DayLunchPolicy, 0, days)
	for i := 0; i < days; i++ {
		day := start.AddDate(0, 0, i)
		table.Days = append(table.Days, project(day, s.configFor(day.Format(DateLayout), trips)))
	}
	return table
}

// ProjectDay projects a single day, as the dashboard does for today.
func ProjectDay(day time.Time, s ChildSettings) DayLunchPolicy {
	d := CalendarDay(day)
	return project(d, s.ConfigFor(d.Format(DateLayout)))
}

func project(day time.Time, cfg policy.ChildMealConfig) DayLunchPolicy {
	lt := policy.ResolveLunchType(cfg)
	return DayLunchPolicy{
		Date:             day.Format(DateLayout),
		Weekday:          day.Weekday(),
		LunchType:        lt,
		CanGenerateLunch: policy.CanGenerateForSlot(meal.SlotLunch, lt),
		IsLunchboxDay:    policy.IsLunchboxRequired(lt),
		IsLocked:         policy.IsSlotLocked(meal.SlotLunch, lt),
	}
}

// CalendarDay returns midnight UTC of the calendar day t falls on in its own
// location, so date arithmetic never crosses a DST boundary.
func CalendarDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// FormatDate formats the calendar day of t as yyyy-MM-dd.
func FormatDate(t time.Time) string {
	return CalendarDay(t).Format(DateLayout)
}

// ParseDate parses a yyyy-MM-dd date.
func ParseDate(raw string) (time.Time, error) {
	return time.Parse(DateLayout, strings.TrimSpace(raw))
}

// StartOfWeek returns the Monday of the week containing t.
func StartOfWeek(t time.Time) time.Time {
	d := CalendarDay(t)
	offset := (int(d.Weekday()) + 6) % 7
	return d.AddDate(0, 0, -offset)
}

// NextMonday returns the Monday after the week containing t.
func NextMonday(t time.Time) time.Time {
	return StartOfWeek(t).AddDate(0, 0, DaysPerWeek)
}
