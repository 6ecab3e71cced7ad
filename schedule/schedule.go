package schedule

import (
	"context"
	"fmt"
	"intake/db"
	"intake/slots"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// HubSchedule is the per-hub configuration document: which dates are
// closed and which times are offered. The ledger rows in the slots
// package carry the actual capacities; this document only decides what is
// offered on a given date.
type HubSchedule struct {
	HubName      string              `json:"hubName" bson:"hubName"`
	DaysOff      []string            `json:"daysOff" bson:"daysOff"`         // YYYY-MM-DD, unique, unordered
	DefaultSlots []string            `json:"defaultSlots" bson:"defaultSlots"`
	CustomSlots  map[string][]string `json:"customSlots" bson:"customSlots"` // date -> override times
	CreatedAt    int64               `json:"createdAt" bson:"createdAt"`
	UpdatedAt    int64               `json:"updatedAt" bson:"updatedAt"`
}

// DefaultSlotTimes returns the canonical recurring catalog: 24 half-hour
// slots from 9:00 AM through 8:30 PM. Each schedule gets its own copy at
// provision time and diverges independently afterwards.
func DefaultSlotTimes() []string {
	times := make([]string, 0, 24)
	for m := 9 * 60; m <= 20*60+30; m += 30 {
		times = append(times, slots.FormatSlotTime(m))
	}
	return times
}

// IsDayOff reports whether the hub is closed on date. Day-off status
// dominates the slot catalog and the ledger for that date.
func (s *HubSchedule) IsDayOff(date string) bool {
	for _, d := range s.DaysOff {
		if d == date {
			return true
		}
	}
	return false
}

// OfferedTimes returns the override list for date when present, else the
// default catalog. It does not consult DaysOff; callers short-circuit on
// IsDayOff first.
func (s *HubSchedule) OfferedTimes(date string) []string {
	if custom, ok := s.CustomSlots[date]; ok {
		return custom
	}
	return s.DefaultSlots
}

// provisionOnInsert holds the $setOnInsert fields shared by every
// auto-provisioning write. customSlots is intentionally absent: a write
// that $sets a dotted customSlots path in the same update would conflict
// with it.
func provisionOnInsert(now int64) bson.M {
	return bson.M{
		"defaultSlots": DefaultSlotTimes(),
		"createdAt":    now,
	}
}

func ensureUpdate(now int64) bson.M {
	setOnInsert := provisionOnInsert(now)
	setOnInsert["daysOff"] = []string{}
	setOnInsert["customSlots"] = bson.M{}
	setOnInsert["updatedAt"] = now
	return bson.M{"$setOnInsert": setOnInsert}
}

func markDayOffUpdate(date string, now int64) bson.M {
	setOnInsert := provisionOnInsert(now)
	setOnInsert["customSlots"] = bson.M{}
	return bson.M{
		"$addToSet":    bson.M{"daysOff": date},
		"$set":         bson.M{"updatedAt": now},
		"$setOnInsert": setOnInsert,
	}
}

func markDayOpenUpdate(date string, now int64) bson.M {
	return bson.M{
		"$pull": bson.M{"daysOff": date},
		"$set":  bson.M{"updatedAt": now},
	}
}

func setCustomSlotsUpdate(date string, times []string, now int64) bson.M {
	setOnInsert := provisionOnInsert(now)
	setOnInsert["daysOff"] = []string{}
	return bson.M{
		"$set":         bson.M{"customSlots." + date: times, "updatedAt": now},
		"$setOnInsert": setOnInsert,
	}
}

// Ensure loads the schedule for a hub, provisioning a fresh one with the
// default catalog on first touch. New hubs are usable without a separate
// setup step.
func Ensure(ctx context.Context, hubName string) (*HubSchedule, error) {
	update := ensureUpdate(time.Now().Unix())
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var sched HubSchedule
	err := db.SchedulesCollection.FindOneAndUpdate(ctx, bson.M{"hubName": hubName}, update, opts).Decode(&sched)
	if err != nil {
		return nil, fmt.Errorf("ensure schedule: %w", err)
	}
	return &sched, nil
}

// MarkDayOff closes the hub on date. Adding an already closed date is a
// no-op; $addToSet keeps the entries unique.
func MarkDayOff(ctx context.Context, hubName, date string) error {
	update := markDayOffUpdate(date, time.Now().Unix())
	_, err := db.SchedulesCollection.UpdateOne(ctx, bson.M{"hubName": hubName}, update, options.Update().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("mark day off: %w", err)
	}
	return nil
}

// MarkDayOpen reopens the hub on date. Removing a date that is not in the
// set is a no-op.
func MarkDayOpen(ctx context.Context, hubName, date string) error {
	if _, err := Ensure(ctx, hubName); err != nil {
		return err
	}
	update := markDayOpenUpdate(date, time.Now().Unix())
	_, err := db.SchedulesCollection.UpdateOne(ctx, bson.M{"hubName": hubName}, update)
	if err != nil {
		return fmt.Errorf("mark day open: %w", err)
	}
	return nil
}

// SetCustomSlots replaces the override time list for date and lazily
// creates a ledger row for every listed time. Ledger rows for times that
// drop out of the override are kept; they stop being offered but remain
// queryable.
func SetCustomSlots(ctx context.Context, hubName, date string, times []string) error {
	update := setCustomSlotsUpdate(date, times, time.Now().Unix())
	_, err := db.SchedulesCollection.UpdateOne(ctx, bson.M{"hubName": hubName}, update, options.Update().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("set custom slots: %w", err)
	}

	for _, t := range times {
		if err := slots.Ensure(ctx, hubName, date, t); err != nil {
			return err
		}
	}
	return nil
}
