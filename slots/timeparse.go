package slots

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// Slot times are stored as 12-hour labels ("9:00 AM") because that is what
// the admin dashboard displays and what the schedule catalog holds. All
// ordering goes through the parsed minute-of-day value; the labels must
// never be compared as strings ("10:00 AM" < "9:30 AM" lexicographically).

// ParseSlotTime converts a 12-hour label to minutes past midnight.
func ParseSlotTime(label string) (int, error) {
	t, err := time.Parse("3:04 PM", strings.TrimSpace(label))
	if err != nil {
		return 0, fmt.Errorf("invalid slot time %q: %w", label, err)
	}
	return t.Hour()*60 + t.Minute(), nil
}

// FormatSlotTime renders minutes past midnight as a 12-hour label.
func FormatSlotTime(minutes int) string {
	t := time.Date(0, 1, 1, minutes/60, minutes%60, 0, 0, time.UTC)
	return t.Format("3:04 PM")
}

// SortSlotTimes orders labels chronologically. Labels that fail to parse
// sink to the end in their original relative order.
func SortSlotTimes(times []string) {
	sort.SliceStable(times, func(i, j int) bool {
		mi, erri := ParseSlotTime(times[i])
		mj, errj := ParseSlotTime(times[j])
		if erri != nil {
			return false
		}
		if errj != nil {
			return true
		}
		return mi < mj
	})
}

// NormalizeDate reduces the two date encodings seen at the API boundary
// (plain "YYYY-MM-DD" and full RFC 3339 timestamps) to the canonical
// "YYYY-MM-DD" string. Dates are stored and compared only in this form.
func NormalizeDate(s string) (string, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t.Format("2006-01-02"), nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.Format("2006-01-02"), nil
	}
	return "", fmt.Errorf("invalid date %q, want YYYY-MM-DD", s)
}
