package slots

import (
	"reflect"
	"testing"
)

func row(timeLabel string, capacity, booked int, active bool) SlotCapacity {
	return SlotCapacity{
		HubName:     "Brooklyn Adult Learning Center",
		Date:        "2025-04-01",
		Time:        timeLabel,
		Capacity:    capacity,
		BookedCount: booked,
		IsActive:    active,
	}
}

func TestComputeAvailabilityFilters(t *testing.T) {
	offered := []string{"9:00 AM", "9:30 AM", "10:00 AM", "10:30 AM"}
	rows := []SlotCapacity{
		row("9:00 AM", 5, 5, true),   // full
		row("9:30 AM", 5, 2, false),  // inactive
		row("10:00 AM", 5, 2, true),  // 3 spots
		// 10:30 AM has no ledger row: capacity zero
	}

	list, totalOffered, totalAvailable := ComputeAvailability(offered, rows)

	if totalOffered != 4 {
		t.Errorf("totalOffered = %d, want 4", totalOffered)
	}
	if totalAvailable != 1 {
		t.Errorf("totalAvailable = %d, want 1", totalAvailable)
	}
	if len(list) != 1 {
		t.Fatalf("got %d entries, want 1: %v", len(list), list)
	}
	if list[0].Time != "10:00 AM" || list[0].AvailableSpots != 3 || list[0].Capacity != 5 {
		t.Errorf("unexpected entry %+v", list[0])
	}
}

func TestComputeAvailabilitySortsChronologically(t *testing.T) {
	offered := []string{"10:00 AM", "9:30 AM", "1:00 PM"}
	rows := []SlotCapacity{
		row("1:00 PM", 10, 0, true),
		row("10:00 AM", 10, 0, true),
		row("9:30 AM", 10, 0, true),
	}

	list, _, _ := ComputeAvailability(offered, rows)

	var got []string
	for _, a := range list {
		got = append(got, a.Time)
	}
	want := []string{"9:30 AM", "10:00 AM", "1:00 PM"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("order = %v, want %v", got, want)
	}
}

func TestComputeAvailabilityIgnoresUnofferedRows(t *testing.T) {
	// a row that exists in the ledger but dropped out of the offered list
	offered := []string{"9:00 AM"}
	rows := []SlotCapacity{
		row("9:00 AM", 5, 0, true),
		row("2:00 PM", 5, 0, true),
	}

	list, totalOffered, totalAvailable := ComputeAvailability(offered, rows)

	if totalOffered != 1 || totalAvailable != 1 || len(list) != 1 {
		t.Fatalf("got list=%v offered=%d available=%d", list, totalOffered, totalAvailable)
	}
	if list[0].Time != "9:00 AM" {
		t.Errorf("unexpected entry %+v", list[0])
	}
}

func TestComputeAvailabilityEmptyOffered(t *testing.T) {
	list, totalOffered, totalAvailable := ComputeAvailability(nil, nil)
	if len(list) != 0 || totalOffered != 0 || totalAvailable != 0 {
		t.Fatalf("expected empty result, got %v %d %d", list, totalOffered, totalAvailable)
	}
	if list == nil {
		t.Fatal("list must be non-nil so the response encodes as [] not null")
	}
}

func TestComputeAvailabilityOverbookedClamped(t *testing.T) {
	// bookedCount above capacity must read as full, not negative
	offered := []string{"9:00 AM"}
	rows := []SlotCapacity{row("9:00 AM", 3, 4, true)}

	list, _, totalAvailable := ComputeAvailability(offered, rows)
	if len(list) != 0 || totalAvailable != 0 {
		t.Fatalf("expected no availability, got %v", list)
	}
}
