// Package policy decides what kind of lunch a child gets on a day and which
// actions are allowed on each meal slot.
//
// Every function here is pure. Callers build a ChildMealConfig and delegate;
// the precedence in ResolveLunchType is not repeated anywhere else.
package policy

import "family-meal-planner/internal/meal"

// ChildMealConfig is a child's situation for a single day.
type ChildMealConfig struct {
	HasSchoolTripToday bool
	HasSpecialDiet     bool
	EatsAtCanteen      bool
}

// ResolveLunchType returns the lunch type for cfg. First match wins:
// school trip, special diet, canteen, home.
func ResolveLunchType(cfg ChildMealConfig) meal.LunchType {
	switch {
	case cfg.HasSchoolTripToday:
		return meal.LunchSchoolTrip
	case cfg.HasSpecialDiet:
		return meal.LunchSpecialDiet
	case cfg.EatsAtCanteen:
		return meal.LunchCanteen
	default:
		return meal.LunchHome
	}
}

// CanGenerateForSlot reports whether a recipe may be generated for slot.
// Only lunch depends on the lunch type; an unresolved lunch type blocks it.
func CanGenerateForSlot(slot meal.Slot, lt meal.LunchType) bool {
	switch slot {
	case meal.SlotBreakfast, meal.SlotSnack, meal.SlotDinner:
		return true
	case meal.SlotLunch:
		return lt.Info().CanGenerate
	}
	return false
}

// IsLunchboxRequired reports whether the lunch must be packed.
func IsLunchboxRequired(lt meal.LunchType) bool {
	return lt.Info().IsLunchbox
}

// IsSlotLocked reports whether the slot is under a hard constraint.
// A school trip lunch is locked; canteen is not, the parent may still cook.
// Unresolved lunch types and unknown slots stay locked until resolved.
func IsSlotLocked(slot meal.Slot, lt meal.LunchType) bool {
	switch slot {
	case meal.SlotBreakfast, meal.SlotSnack, meal.SlotDinner:
		return false
	case meal.SlotLunch:
		return lt == meal.LunchSchoolTrip || !lt.Valid()
	}
	return true
}

// CanModifyRecipe reports whether the recipe assigned to slot may be changed
// or removed. Canteen lunches are modifiable so the parent can override them.
func CanModifyRecipe(slot meal.Slot, lt meal.LunchType) bool {
	return !IsSlotLocked(slot, lt)
}

// SlotPolicy bundles every decision for one slot.
type SlotPolicy struct {
	Slot        meal.Slot      `json:"slot"`
	LunchType   meal.LunchType `json:"lunch_type,omitempty"`
	CanGenerate bool           `json:"can_generate"`
	CanModify   bool           `json:"can_modify"`
	Locked      bool           `json:"locked"`
	Lunchbox    bool           `json:"lunchbox"`
}

// Evaluate computes the SlotPolicy for slot. lt is ignored for slots other
// than lunch.
func Evaluate(slot meal.Slot, lt meal.LunchType) SlotPolicy {
	p := SlotPolicy{
		Slot:        slot,
		CanGenerate: CanGenerateForSlot(slot, lt),
		CanModify:   CanModifyRecipe(slot, lt),
		Locked:      IsSlotLocked(slot, lt),
	}
	if slot == meal.SlotLunch {
		p.LunchType = lt
		p.Lunchbox = IsLunchboxRequired(lt)
	}
	return p
}

// GenerationConstraints are the flags a recipe generation prompt must honor.
type GenerationConstraints struct {
	Slot         meal.Slot      `json:"slot"`
	IsLunchbox   bool           `json:"is_lunchbox"`
	LunchboxType meal.LunchType `json:"lunchbox_type,omitempty"`
}

// ConstraintsFor returns the constraints for generating a recipe for slot.
// ok is false when generation is not allowed.
func ConstraintsFor(slot meal.Slot, lt meal.LunchType) (GenerationConstraints, bool) {
	if !CanGenerateForSlot(slot, lt) {
		return GenerationConstraints{}, false
	}
	c := GenerationConstraints{Slot: slot}
	if slot == meal.SlotLunch && IsLunchboxRequired(lt) {
		c.IsLunchbox = true
		c.LunchboxType = lt
	}
	return c, true
}
