package schedule

import (
	"testing"
	"time"

	"family-meal-planner/internal/meal"
)

func mustDate(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := ParseDate(s)
	if err != nil {
		t.Fatalf("Failed to parse date %q: %v", s, err)
	}
	return d
}

func TestProjectWeek_Scenario(t *testing.T) {
	settings := ChildSettings{
		SchoolTripDates: []string{"2025-06-12"},
		SpecialDiet:     true,
		HabitualLunch:   ParseHabitualLunch("cantine"),
	}

	table := ProjectWeek(mustDate(t, "2025-06-09"), settings)

	if len(table.Days) != DaysPerWeek {
		t.Fatalf("Expected %d days, got %d", DaysPerWeek, len(table.Days))
	}
	if table.Start != "2025-06-09" || table.End() != "2025-06-15" {
		t.Errorf("Expected 2025-06-09..2025-06-15, got %s..%s", table.Start, table.End())
	}

	for _, day := range table.Days {
		want := meal.LunchSpecialDiet
		if day.Date == "2025-06-12" {
			want = meal.LunchSchoolTrip
		}
		if day.LunchType != want {
			t.Errorf("%s: expected %s, got %s", day.Date, want, day.LunchType)
		}
		if !day.CanGenerateLunch {
			t.Errorf("%s: expected lunch generation to be allowed", day.Date)
		}
		if !day.IsLunchboxDay {
			t.Errorf("%s: expected a lunchbox day", day.Date)
		}
	}

	thursday, ok := table.Day("2025-06-12")
	if !ok {
		t.Fatal("Expected Thursday in the table")
	}
	if thursday.Weekday != time.Thursday {
		t.Errorf("Expected Thursday, got %s", thursday.Weekday)
	}
	if !thursday.IsLocked {
		t.Error("Expected the school trip lunch to be locked")
	}
}

func TestProjectWeek_NormalizesToMonday(t *testing.T) {
	table := ProjectWeek(mustDate(t, "2025-06-14"), ChildSettings{})
	if table.Start != "2025-06-09" {
		t.Errorf("Expected week to start on 2025-06-09, got %s", table.Start)
	}
	if table.Days[0].Weekday != time.Monday {
		t.Errorf("Expected first day to be Monday, got %s", table.Days[0].Weekday)
	}
}

func TestProjectWeek_Canteen(t *testing.T) {
	table := ProjectWeek(mustDate(t, "2025-06-09"), ChildSettings{HabitualLunch: HabitualCanteen})
	for _, day := range table.Days {
		if day.LunchType != meal.LunchCanteen {
			t.Errorf("%s: expected canteen, got %s", day.Date, day.LunchType)
		}
		if day.CanGenerateLunch || day.IsLunchboxDay || day.IsLocked {
			t.Errorf("%s: unexpected canteen flags %+v", day.Date, day)
		}
	}
}

func TestSchoolTripMatchingIsExact(t *testing.T) {
	settings := ChildSettings{SchoolTripDates: []string{"2025-06-10"}}

	zones := []*time.Location{
		time.UTC,
		time.FixedZone("UTC-11", -11*3600),
		time.FixedZone("UTC+14", 14*3600),
	}
	for _, loc := range zones {
		t.Run(loc.String(), func(t *testing.T) {
			late := time.Date(2025, 6, 10, 23, 59, 0, 0, loc)
			if got := ProjectDay(late, settings); got.LunchType != meal.LunchSchoolTrip {
				t.Errorf("Expected school trip on 2025-06-10, got %s", got.LunchType)
			}
			before := time.Date(2025, 6, 9, 0, 1, 0, 0, loc)
			if got := ProjectDay(before, settings); got.LunchType == meal.LunchSchoolTrip {
				t.Error("Expected no school trip on 2025-06-09")
			}
			after := time.Date(2025, 6, 11, 0, 0, 0, 0, loc)
			if got := ProjectDay(after, settings); got.LunchType == meal.LunchSchoolTrip {
				t.Error("Expected no school trip on 2025-06-11")
			}
		})
	}
}

func TestProjectionReflectsSettingChanges(t *testing.T) {
	monday := mustDate(t, "2025-06-09")
	settings := ChildSettings{HabitualLunch: HabitualCanteen}

	before, _ := ProjectWeek(monday, settings).Day("2025-06-11")
	if before.LunchType != meal.LunchCanteen {
		t.Fatalf("Expected canteen before the trip is added, got %s", before.LunchType)
	}

	settings.SchoolTripDates = append(settings.SchoolTripDates, "2025-06-11")
	after, _ := ProjectWeek(monday, settings).Day("2025-06-11")
	if after.LunchType != meal.LunchSchoolTrip {
		t.Errorf("Expected school trip after the date is added, got %s", after.LunchType)
	}
}

func TestNormalizeDateKey(t *testing.T) {
	tests := map[string]string{
		"2025-06-10":                "2025-06-10",
		" 2025-06-10 ":              "2025-06-10",
		"2025-06-10T00:00:00Z":      "2025-06-10",
		"2025-06-10T23:00:00-02:00": "2025-06-10",
		"2025-06-10 08:00:00":       "2025-06-10",
		"":                          "",
	}
	for in, want := range tests {
		if got := NormalizeDateKey(in); got != want {
			t.Errorf("NormalizeDateKey(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestProjectRange(t *testing.T) {
	table := ProjectRange(mustDate(t, "2025-03-29"), 3, ChildSettings{})
	want := []string{"2025-03-29", "2025-03-30", "2025-03-31"}
	got := table.Dates()
	if len(got) != len(want) {
		t.Fatalf("Expected %d dates, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Day %d: expected %s, got %s", i, want[i], got[i])
		}
	}

	if empty := ProjectRange(mustDate(t, "2025-03-29"), 0, ChildSettings{}); len(empty.Days) != 0 {
		t.Errorf("Expected empty table, got %d days", len(empty.Days))
	}
}

func TestWeekHelpers(t *testing.T) {
	sunday := time.Date(2025, 6, 15, 22, 0, 0, 0, time.UTC)
	if got := FormatDate(StartOfWeek(sunday)); got != "2025-06-09" {
		t.Errorf("Expected StartOfWeek 2025-06-09, got %s", got)
	}
	if got := FormatDate(NextMonday(sunday)); got != "2025-06-16" {
		t.Errorf("Expected NextMonday 2025-06-16, got %s", got)
	}
	monday := time.Date(2025, 6, 9, 8, 0, 0, 0, time.UTC)
	if got := FormatDate(NextMonday(monday)); got != "2025-06-16" {
		t.Errorf("Expected NextMonday from a Monday to be 2025-06-16, got %s", got)
	}
}

func TestParseHabitualLunch(t *testing.T) {
	tests := map[string]HabitualLunch{
		"cantine": HabitualCanteen,
		"Canteen": HabitualCanteen,
		"maison":  HabitualHome,
		"home":    HabitualHome,
		"":        HabitualHome,
	}
	for in, want := range tests {
		if got := ParseHabitualLunch(in); got != want {
			t.Errorf("ParseHabitualLunch(%q) = %s, want %s", in, got, want)
		}
	}
}
