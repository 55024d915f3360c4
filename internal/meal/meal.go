// Package meal holds the fixed vocabulary of the planner: the four daily meal
// slots and the ways a lunch can be served.
package meal

import "strings"

// Slot is one of the four daily meal slots.
type Slot string

const (
	SlotBreakfast Slot = "breakfast"
	SlotLunch     Slot = "lunch"
	SlotSnack     Slot = "snack"
	SlotDinner    Slot = "dinner"
)

// legacyLunchbox is the slot name older plan rows were stored under.
// It is read as SlotLunch and never written.
const legacyLunchbox = "lunchbox"

// SlotsPerDay is the number of meal slots in a day.
const SlotsPerDay = 4

// Slots returns the slots of a day in display order.
func Slots() []Slot {
	return []Slot{SlotBreakfast, SlotLunch, SlotSnack, SlotDinner}
}

// ParseSlot maps a stored or user supplied slot name to a Slot.
// The legacy "lunchbox" alias resolves to SlotLunch.
func ParseSlot(raw string) (Slot, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "breakfast":
		return SlotBreakfast, true
	case "lunch", legacyLunchbox:
		return SlotLunch, true
	case "snack":
		return SlotSnack, true
	case "dinner":
		return SlotDinner, true
	}
	return "", false
}

// IsLegacyAlias reports whether raw is a legacy name for a slot rather than
// the canonical one.
func IsLegacyAlias(raw string) bool {
	return strings.ToLower(strings.TrimSpace(raw)) == legacyLunchbox
}

// StoredNames returns every name a meal of slot may be stored under, the
// canonical one first.
func StoredNames(s Slot) []string {
	if s == SlotLunch {
		return []string{string(SlotLunch), legacyLunchbox}
	}
	return []string{string(s)}
}

// Valid reports whether s is one of the four slots.
func (s Slot) Valid() bool {
	return s.Index() >= 0
}

// Index returns the position of s in the day, or -1.
func (s Slot) Index() int {
	switch s {
	case SlotBreakfast:
		return 0
	case SlotLunch:
		return 1
	case SlotSnack:
		return 2
	case SlotDinner:
		return 3
	}
	return -1
}

// Next returns the slot after s in the same day.
func (s Slot) Next() (Slot, bool) {
	i := s.Index()
	if i < 0 || i == SlotsPerDay-1 {
		return "", false
	}
	return Slots()[i+1], true
}

// Previous returns the slot before s in the same day.
func (s Slot) Previous() (Slot, bool) {
	i := s.Index()
	if i <= 0 {
		return "", false
	}
	return Slots()[i-1], true
}

// Label is the display name of the slot.
func (s Slot) Label() string {
	switch s {
	case SlotBreakfast:
		return "Petit-déjeuner"
	case SlotLunch:
		return "Déjeuner"
	case SlotSnack:
		return "Goûter"
	case SlotDinner:
		return "Dîner"
	}
	return string(s)
}

// LunchType describes how a child's lunch is served on a given day.
type LunchType string

const (
	LunchSchoolTrip  LunchType = "school_trip"
	LunchSpecialDiet LunchType = "special_diet"
	LunchHome        LunchType = "home"
	LunchCanteen     LunchType = "canteen"
)

// LunchTypeInfo is the static metadata attached to a LunchType.
type LunchTypeInfo struct {
	Label       string
	CanGenerate bool // a recipe may be produced or edited for the lunch
	IsLunchbox  bool // the meal must be cold and transportable
}

// LunchTypes returns every lunch type in precedence order.
func LunchTypes() []LunchType {
	return []LunchType{LunchSchoolTrip, LunchSpecialDiet, LunchHome, LunchCanteen}
}

// ParseLunchType maps a stored lunch type name to a LunchType.
func ParseLunchType(raw string) (LunchType, bool) {
	lt := LunchType(strings.ToLower(strings.TrimSpace(raw)))
	if !lt.Valid() {
		return "", false
	}
	return lt, true
}

// Valid reports whether t is a known lunch type.
func (t LunchType) Valid() bool {
	_, ok := t.lookup()
	return ok
}

// Info returns the metadata for t. Unknown types get the zero value, which
// neither allows generation nor asks for a lunchbox.
func (t LunchType) Info() LunchTypeInfo {
	info, _ := t.lookup()
	return info
}

func (t LunchType) lookup() (LunchTypeInfo, bool) {
	switch t {
	case LunchSchoolTrip:
		return LunchTypeInfo{Label: "Sortie scolaire", CanGenerate: true, IsLunchbox: true}, true
	case LunchSpecialDiet:
		return LunchTypeInfo{Label: "Régime spécial", CanGenerate: true, IsLunchbox: true}, true
	case LunchHome:
		return LunchTypeInfo{Label: "Repas maison", CanGenerate: true, IsLunchbox: false}, true
	case LunchCanteen:
		return LunchTypeInfo{Label: "Cantine", CanGenerate: false, IsLunchbox: false}, true
	}
	return LunchTypeInfo{}, false
}

// Label is the display name of the lunch type.
func (t LunchType) Label() string {
	if info, ok := t.lookup(); ok {
		return info.Label
	}
	return string(t)
}
