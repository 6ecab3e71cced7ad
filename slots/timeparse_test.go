package slots

import (
	"reflect"
	"testing"
)

func TestParseSlotTime(t *testing.T) {
	cases := []struct {
		label   string
		minutes int
		wantErr bool
	}{
		{"9:00 AM", 540, false},
		{"12:00 PM", 720, false},
		{"12:30 AM", 30, false},
		{"8:30 PM", 1230, false},
		{" 1:00 PM ", 780, false},
		{"25:00 PM", 0, true},
		{"9am", 0, true},
		{"", 0, true},
	}

	for _, c := range cases {
		got, err := ParseSlotTime(c.label)
		if c.wantErr {
			if err == nil {
				t.Errorf("ParseSlotTime(%q): expected error, got %d", c.label, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseSlotTime(%q): unexpected error %v", c.label, err)
			continue
		}
		if got != c.minutes {
			t.Errorf("ParseSlotTime(%q) = %d, want %d", c.label, got, c.minutes)
		}
	}
}

func TestFormatSlotTimeRoundTrip(t *testing.T) {
	for m := 0; m < 24*60; m += 30 {
		label := FormatSlotTime(m)
		got, err := ParseSlotTime(label)
		if err != nil {
			t.Fatalf("ParseSlotTime(FormatSlotTime(%d)) failed: %v", m, err)
		}
		if got != m {
			t.Fatalf("round trip %d -> %q -> %d", m, label, got)
		}
	}
}

func TestSortSlotTimesChronological(t *testing.T) {
	// "10:00 AM" sorts before "9:30 AM" as a string; it must not here
	times := []string{"10:00 AM", "9:30 AM", "1:00 PM"}
	SortSlotTimes(times)

	want := []string{"9:30 AM", "10:00 AM", "1:00 PM"}
	if !reflect.DeepEqual(times, want) {
		t.Fatalf("SortSlotTimes = %v, want %v", times, want)
	}
}

func TestSortSlotTimesUnparseableSinks(t *testing.T) {
	times := []string{"bogus", "9:00 AM", "8:00 AM"}
	SortSlotTimes(times)

	want := []string{"8:00 AM", "9:00 AM", "bogus"}
	if !reflect.DeepEqual(times, want) {
		t.Fatalf("SortSlotTimes = %v, want %v", times, want)
	}
}

func TestNormalizeDate(t *testing.T) {
	cases := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"2025-03-10", "2025-03-10", false},
		{" 2025-03-10 ", "2025-03-10", false},
		{"2025-03-10T14:30:00Z", "2025-03-10", false},
		{"2025-03-10T14:30:00-05:00", "2025-03-10", false},
		{"03/10/2025", "", true},
		{"2025-3-10", "", true},
		{"", "", true},
	}

	for _, c := range cases {
		got, err := NormalizeDate(c.in)
		if c.wantErr {
			if err == nil {
				t.Errorf("NormalizeDate(%q): expected error, got %q", c.in, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("NormalizeDate(%q): unexpected error %v", c.in, err)
			continue
		}
		if got != c.want {
			t.Errorf("NormalizeDate(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}
