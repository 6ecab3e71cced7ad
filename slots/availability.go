package slots

import "sort"

// Available is one bookable entry in an availability response.
type Available struct {
	Time           string `json:"time"`
	Capacity       int    `json:"capacity"`
	AvailableSpots int    `json:"availableSpots"`
}

// ComputeAvailability folds the ledger rows for a day into the offered
// time list. An offered time with no row counts as capacity zero; inactive
// and fully booked rows are filtered out. The result is ordered by parsed
// minute-of-day. totalOffered counts the offered times, totalAvailable the
// entries that survived filtering.
func ComputeAvailability(offered []string, rows []SlotCapacity) (list []Available, totalOffered, totalAvailable int) {
	byTime := make(map[string]SlotCapacity, len(rows))
	for _, row := range rows {
		byTime[row.Time] = row
	}

	list = []Available{}
	for _, t := range offered {
		row, ok := byTime[t]
		if !ok || !row.IsActive {
			continue
		}
		spots := row.Capacity - row.BookedCount
		if spots <= 0 {
			continue
		}
		list = append(list, Available{Time: row.Time, Capacity: row.Capacity, AvailableSpots: spots})
	}

	sort.SliceStable(list, func(i, j int) bool {
		mi, erri := ParseSlotTime(list[i].Time)
		mj, errj := ParseSlotTime(list[j].Time)
		if erri != nil {
			return false
		}
		if errj != nil {
			return true
		}
		return mi < mj
	})

	return list, len(offered), len(list)
}
