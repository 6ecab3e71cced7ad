package availability

import (
	"context"
	"intake/schedule"
	"intake/slots"
)

// Result is the single consistent answer for "what can be booked at this
// hub on this date".
type Result struct {
	HubName        string            `json:"hubName"`
	Date           string            `json:"date"`
	IsDayOff       bool              `json:"isDayOff"`
	Slots          []slots.Available `json:"slots"`
	TotalOffered   int               `json:"totalOffered"`
	TotalAvailable int               `json:"totalAvailable"`
}

// Query runs the read pipeline for a resolved hub name: load (or
// provision) the schedule, short-circuit on a day off without touching
// the ledger, then fold the active ledger rows into the offered time
// list. Callers resolve hubId/hubName up front so caching can key on the
// stored name.
func Query(ctx context.Context, name, date string) (*Result, error) {
	sched, err := schedule.Ensure(ctx, name)
	if err != nil {
		return nil, err
	}

	if sched.IsDayOff(date) {
		return resultFor(name, date, sched, nil), nil
	}

	rows, err := slots.FetchActive(ctx, name, date, sched.OfferedTimes(date))
	if err != nil {
		return nil, err
	}
	return resultFor(name, date, sched, rows), nil
}

// resultFor folds a loaded schedule and the day's ledger rows into the
// response. A day off yields an empty result with zero totals no matter
// what the catalog or ledger say for that date.
func resultFor(name, date string, sched *schedule.HubSchedule, rows []slots.SlotCapacity) *Result {
	if sched.IsDayOff(date) {
		return &Result{HubName: name, Date: date, IsDayOff: true, Slots: []slots.Available{}}
	}

	list, totalOffered, totalAvailable := slots.ComputeAvailability(sched.OfferedTimes(date), rows)
	return &Result{
		HubName:        name,
		Date:           date,
		Slots:          list,
		TotalOffered:   totalOffered,
		TotalAvailable: totalAvailable,
	}
}
