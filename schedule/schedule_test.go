package schedule

import (
	"intake/slots"
	"reflect"
	"testing"

	"go.mongodb.org/mongo-driver/bson"
)

func TestDefaultSlotTimesCatalog(t *testing.T) {
	catalog := DefaultSlotTimes()

	if len(catalog) != 24 {
		t.Fatalf("catalog has %d slots, want 24", len(catalog))
	}
	if catalog[0] != "9:00 AM" {
		t.Errorf("first slot = %q, want 9:00 AM", catalog[0])
	}
	if catalog[len(catalog)-1] != "8:30 PM" {
		t.Errorf("last slot = %q, want 8:30 PM", catalog[len(catalog)-1])
	}

	// strictly 30-minute steps
	prev := -1
	for _, label := range catalog {
		m, err := slots.ParseSlotTime(label)
		if err != nil {
			t.Fatalf("catalog label %q does not parse: %v", label, err)
		}
		if prev >= 0 && m-prev != 30 {
			t.Errorf("gap between slots is %d minutes at %q, want 30", m-prev, label)
		}
		prev = m
	}
}

func TestDefaultSlotTimesReturnsFreshCopy(t *testing.T) {
	// each schedule owns its catalog copy and diverges independently
	a := DefaultSlotTimes()
	a[0] = "mutated"
	if b := DefaultSlotTimes(); b[0] != "9:00 AM" {
		t.Fatalf("catalog is shared mutable state: %q", b[0])
	}
}

func TestOfferedTimesFallsBackToDefaults(t *testing.T) {
	sched := &HubSchedule{
		HubName:      "Manhattan Hub",
		DefaultSlots: []string{"9:00 AM", "9:30 AM"},
		CustomSlots:  map[string][]string{"2025-03-11": {"1:00 PM"}},
	}

	if got := sched.OfferedTimes("2025-03-10"); !reflect.DeepEqual(got, []string{"9:00 AM", "9:30 AM"}) {
		t.Errorf("no override: got %v", got)
	}
	if got := sched.OfferedTimes("2025-03-11"); !reflect.DeepEqual(got, []string{"1:00 PM"}) {
		t.Errorf("override: got %v", got)
	}
}

func TestOfferedTimesRoundTrip(t *testing.T) {
	// setCustomSlots followed by getOfferedTimes returns exactly the list
	override := []string{"10:00 AM", "2:00 PM", "4:30 PM"}
	sched := &HubSchedule{
		DefaultSlots: DefaultSlotTimes(),
		CustomSlots:  map[string][]string{"2025-05-01": override},
	}

	if got := sched.OfferedTimes("2025-05-01"); !reflect.DeepEqual(got, override) {
		t.Fatalf("got %v, want %v", got, override)
	}
}

func TestOfferedTimesNilCustomSlots(t *testing.T) {
	// schedules provisioned before any override have no customSlots map
	sched := &HubSchedule{DefaultSlots: []string{"9:00 AM"}}
	if got := sched.OfferedTimes("2025-03-10"); !reflect.DeepEqual(got, []string{"9:00 AM"}) {
		t.Fatalf("got %v", got)
	}
}

// Closing a day rides on $addToSet, so repeating the request cannot
// duplicate the entry; the write is idempotent at the server.
func TestMarkDayOffUpdateUsesAddToSet(t *testing.T) {
	u := markDayOffUpdate("2025-03-10", 1700000000)

	add, ok := u["$addToSet"].(bson.M)
	if !ok || add["daysOff"] != "2025-03-10" {
		t.Fatalf("update must $addToSet the date into daysOff, got %v", u)
	}
	if _, ok := u["$push"]; ok {
		t.Error("$push would duplicate the date on repeat requests")
	}
}

// First touch of a hub via markDayOff provisions the default catalog in
// the same upsert, so the day off lands on a usable schedule.
func TestMarkDayOffUpdateProvisionsOnInsert(t *testing.T) {
	u := markDayOffUpdate("2025-03-10", 1700000000)

	ins, ok := u["$setOnInsert"].(bson.M)
	if !ok {
		t.Fatalf("update missing $setOnInsert provisioning: %v", u)
	}
	if !reflect.DeepEqual(ins["defaultSlots"], DefaultSlotTimes()) {
		t.Errorf("insert defaultSlots = %v, want the default catalog", ins["defaultSlots"])
	}
	if ins["createdAt"] != int64(1700000000) {
		t.Errorf("insert createdAt = %v, want 1700000000", ins["createdAt"])
	}
	if _, ok := ins["daysOff"]; ok {
		t.Error("daysOff in $setOnInsert would conflict with the $addToSet path")
	}
}

func TestMarkDayOpenUpdatePullsDate(t *testing.T) {
	u := markDayOpenUpdate("2025-03-10", 1700000000)

	pull, ok := u["$pull"].(bson.M)
	if !ok || pull["daysOff"] != "2025-03-10" {
		t.Fatalf("update must $pull the date from daysOff, got %v", u)
	}
	if _, ok := u["$setOnInsert"]; ok {
		t.Error("reopen runs after Ensure and must not upsert")
	}
}

func TestSetCustomSlotsUpdateTargetsOneDate(t *testing.T) {
	times := []string{"10:00 AM", "2:00 PM"}
	u := setCustomSlotsUpdate("2025-05-01", times, 1700000000)

	set, ok := u["$set"].(bson.M)
	if !ok {
		t.Fatalf("update missing $set: %v", u)
	}
	got, ok := set["customSlots.2025-05-01"].([]string)
	if !ok || !reflect.DeepEqual(got, times) {
		t.Fatalf("override must be written under the dotted date path, got %v", set)
	}

	ins := u["$setOnInsert"].(bson.M)
	if _, ok := ins["customSlots"]; ok {
		t.Error("customSlots in $setOnInsert conflicts with the dotted $set path")
	}
	if !reflect.DeepEqual(ins["defaultSlots"], DefaultSlotTimes()) {
		t.Errorf("insert defaultSlots = %v, want the default catalog", ins["defaultSlots"])
	}
	if !reflect.DeepEqual(ins["daysOff"], []string{}) {
		t.Errorf("insert daysOff = %v, want empty list", ins["daysOff"])
	}
}

// Provisioning via Ensure writes only on insert: an existing schedule is
// read back untouched.
func TestEnsureUpdateOnlySetsOnInsert(t *testing.T) {
	u := ensureUpdate(1700000000)

	if len(u) != 1 {
		t.Fatalf("ensure must carry $setOnInsert alone, got %v", u)
	}
	ins, ok := u["$setOnInsert"].(bson.M)
	if !ok {
		t.Fatalf("update missing $setOnInsert: %v", u)
	}
	for _, field := range []string{"defaultSlots", "daysOff", "customSlots", "createdAt", "updatedAt"} {
		if _, ok := ins[field]; !ok {
			t.Errorf("provisioned schedule missing %s", field)
		}
	}
}

func TestIsDayOff(t *testing.T) {
	sched := &HubSchedule{
		DaysOff:     []string{"2025-03-10", "2025-12-25"},
		CustomSlots: map[string][]string{"2025-03-10": {"9:00 AM"}},
	}

	if !sched.IsDayOff("2025-03-10") {
		t.Error("2025-03-10 should be a day off even with a custom override")
	}
	if sched.IsDayOff("2025-03-11") {
		t.Error("2025-03-11 should not be a day off")
	}
}
