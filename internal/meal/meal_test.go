package meal

import "testing"

func TestParseSlot(t *testing.T) {
	tests := []struct {
		raw  string
		want Slot
		ok   bool
	}{
		{"breakfast", SlotBreakfast, true},
		{"lunch", SlotLunch, true},
		{"lunchbox", SlotLunch, true},
		{" Lunchbox ", SlotLunch, true},
		{"snack", SlotSnack, true},
		{"DINNER", SlotDinner, true},
		{"brunch", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, ok := ParseSlot(tt.raw)
			if got != tt.want || ok != tt.ok {
				t.Errorf("ParseSlot(%q) = (%q, %v), want (%q, %v)", tt.raw, got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestIsLegacyAlias(t *testing.T) {
	if !IsLegacyAlias("lunchbox") {
		t.Error("Expected 'lunchbox' to be a legacy alias")
	}
	if IsLegacyAlias("lunch") {
		t.Error("Expected 'lunch' not to be a legacy alias")
	}
}

func TestSlotOrder(t *testing.T) {
	slots := Slots()
	if len(slots) != SlotsPerDay {
		t.Fatalf("Expected %d slots, got %d", SlotsPerDay, len(slots))
	}
	for i, s := range slots {
		if s.Index() != i {
			t.Errorf("Expected %s at index %d, got %d", s, i, s.Index())
		}
	}

	next, ok := SlotBreakfast.Next()
	if !ok || next != SlotLunch {
		t.Errorf("Expected breakfast -> lunch, got %q (%v)", next, ok)
	}
	if _, ok := SlotDinner.Next(); ok {
		t.Error("Expected no slot after dinner")
	}
	prev, ok := SlotDinner.Previous()
	if !ok || prev != SlotSnack {
		t.Errorf("Expected dinner <- snack, got %q (%v)", prev, ok)
	}
	if _, ok := SlotBreakfast.Previous(); ok {
		t.Error("Expected no slot before breakfast")
	}
	if Slot("brunch").Valid() {
		t.Error("Expected unknown slot to be invalid")
	}
}

func TestLunchTypeInfo(t *testing.T) {
	tests := []struct {
		lt          LunchType
		canGenerate bool
		isLunchbox  bool
	}{
		{LunchSchoolTrip, true, true},
		{LunchSpecialDiet, true, true},
		{LunchHome, true, false},
		{LunchCanteen, false, false},
	}

	for _, tt := range tests {
		info := tt.lt.Info()
		if info.CanGenerate != tt.canGenerate {
			t.Errorf("%s: CanGenerate = %v, want %v", tt.lt, info.CanGenerate, tt.canGenerate)
		}
		if info.IsLunchbox != tt.isLunchbox {
			t.Errorf("%s: IsLunchbox = %v, want %v", tt.lt, info.IsLunchbox, tt.isLunchbox)
		}
		if info.Label == "" {
			t.Errorf("%s: missing label", tt.lt)
		}
	}

	if got := LunchType("picnic").Info(); got != (LunchTypeInfo{}) {
		t.Errorf("Expected zero info for unknown lunch type, got %+v", got)
	}
}

func TestParseLunchType(t *testing.T) {
	for _, lt := range LunchTypes() {
		got, ok := ParseLunchType(string(lt))
		if !ok || got != lt {
			t.Errorf("ParseLunchType(%q) = (%q, %v)", lt, got, ok)
		}
	}
	if _, ok := ParseLunchType("cantine"); ok {
		t.Error("Expected 'cantine' not to parse as a lunch type")
	}
}

func TestStoredNames(t *testing.T) {
	lunch := StoredNames(SlotLunch)
	if len(lunch) != 2 || lunch[0] != "lunch" {
		t.Fatalf("Unexpected lunch names %v", lunch)
	}
	if slot, ok := ParseSlot(lunch[1]); !ok || slot != SlotLunch || !IsLegacyAlias(lunch[1]) {
		t.Errorf("Expected %q to be the legacy lunch alias", lunch[1])
	}
	if names := StoredNames(SlotDinner); len(names) != 1 || names[0] != "dinner" {
		t.Errorf("Unexpected dinner names %v", names)
	}
}
