package slots

import (
	"context"
	"errors"
	"fmt"
	"intake/db"
	"intake/utils"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// DefaultCapacity is the bookable capacity assigned when a slot row is
// created without an explicit capacity (lazy creation from a schedule
// edit, or an admin upsert that omits the field).
const DefaultCapacity = 20

// ErrSlotUnavailable is returned when a booking hits a full, inactive, or
// unknown slot. Callers re-query availability and pick another time.
var ErrSlotUnavailable = errors.New("slot unavailable")

// SlotCapacity is the per-(hub, date, time) ledger row. The triple is
// unique at the storage layer (see db.CreateIndexes).
type SlotCapacity struct {
	SlotID      string `json:"slotId" bson:"slotId"`
	HubName     string `json:"hubName" bson:"hubName"`
	Date        string `json:"date" bson:"date"` // YYYY-MM-DD
	Time        string `json:"time" bson:"time"` // 12-hour label
	Capacity    int    `json:"capacity" bson:"capacity"`
	BookedCount int    `json:"bookedCount" bson:"bookedCount"`
	IsActive    bool   `json:"isActive" bson:"isActive"`
	CreatedAt   int64  `json:"createdAt" bson:"createdAt"`
	UpdatedAt   int64  `json:"updatedAt" bson:"updatedAt"`
}

func genID() string {
	return utils.GenerateRandomDigitString(22)
}

func tripleFilter(hubName, date, timeLabel string) bson.M {
	return bson.M{"hubName": hubName, "date": date, "time": timeLabel}
}

// buildUpsert assembles the create-if-absent, else partial-merge update.
// Fields left nil keep their stored value on an existing row and take the
// documented default on a fresh one.
func buildUpsert(hubName, date, timeLabel string, capacity *int, isActive *bool, now int64) bson.M {
	set := bson.M{"updatedAt": now}
	setOnInsert := bson.M{
		"slotId":      genID(),
		"hubName":     hubName,
		"date":        date,
		"time":        timeLabel,
		"bookedCount": 0,
		"createdAt":   now,
	}

	if capacity != nil {
		set["capacity"] = *capacity
	} else {
		setOnInsert["capacity"] = DefaultCapacity
	}
	if isActive != nil {
		set["isActive"] = *isActive
	} else {
		setOnInsert["isActive"] = true
	}

	return bson.M{"$set": set, "$setOnInsert": setOnInsert}
}

// Upsert applies a partial capacity/active update to the slot row,
// creating it with defaults when absent. Last writer wins on concurrent
// admin edits; bookedCount is never touched here.
func Upsert(ctx context.Context, hubName, date, timeLabel string, capacity *int, isActive *bool) (*SlotCapacity, error) {
	update := buildUpsert(hubName, date, timeLabel, capacity, isActive, time.Now().Unix())
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var slot SlotCapacity
	err := db.SlotsCollection.FindOneAndUpdate(ctx, tripleFilter(hubName, date, timeLabel), update, opts).Decode(&slot)
	if err != nil {
		return nil, fmt.Errorf("upsert slot: %w", err)
	}
	return &slot, nil
}

// Ensure creates the slot row with defaults if it does not exist yet and
// leaves an existing row completely untouched.
func Ensure(ctx context.Context, hubName, date, timeLabel string) error {
	now := time.Now().Unix()
	update := bson.M{"$setOnInsert": bson.M{
		"slotId":      genID(),
		"hubName":     hubName,
		"date":        date,
		"time":        timeLabel,
		"capacity":    DefaultCapacity,
		"bookedCount": 0,
		"isActive":    true,
		"createdAt":   now,
		"updatedAt":   now,
	}}

	_, err := db.SlotsCollection.UpdateOne(ctx, tripleFilter(hubName, date, timeLabel), update, options.Update().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("ensure slot: %w", err)
	}
	return nil
}

// bookFilter matches the slot only while it can still take a booking.
// The capacity check rides inside the filter so that check-and-increment
// is one storage operation; two racing bookers on the last spot cannot
// both match.
func bookFilter(hubName, date, timeLabel string) bson.M {
	f := tripleFilter(hubName, date, timeLabel)
	f["isActive"] = true
	f["$expr"] = bson.M{"$lt": bson.A{"$bookedCount", "$capacity"}}
	return f
}

func bookUpdate(now int64) bson.M {
	return bson.M{
		"$inc": bson.M{"bookedCount": 1},
		"$set": bson.M{"updatedAt": now},
	}
}

// Book atomically claims one spot. It fails with ErrSlotUnavailable when
// the slot is missing, inactive, or full.
func Book(ctx context.Context, hubName, date, timeLabel string) (*SlotCapacity, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var slot SlotCapacity
	err := db.SlotsCollection.FindOneAndUpdate(ctx, bookFilter(hubName, date, timeLabel), bookUpdate(time.Now().Unix()), opts).Decode(&slot)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrSlotUnavailable
		}
		return nil, fmt.Errorf("book slot: %w", err)
	}
	return &slot, nil
}

// cancelFilter only matches while bookedCount is positive, flooring the
// counter at zero. A cancel that matches nothing is a no-op, not an error.
func cancelFilter(hubName, date, timeLabel string) bson.M {
	f := tripleFilter(hubName, date, timeLabel)
	f["bookedCount"] = bson.M{"$gt": 0}
	return f
}

// CancelBooking releases one spot.
func CancelBooking(ctx context.Context, hubName, date, timeLabel string) error {
	update := bson.M{
		"$inc": bson.M{"bookedCount": -1},
		"$set": bson.M{"updatedAt": time.Now().Unix()},
	}
	if _, err := db.SlotsCollection.UpdateOne(ctx, cancelFilter(hubName, date, timeLabel), update); err != nil {
		return fmt.Errorf("cancel booking: %w", err)
	}
	return nil
}

// FetchDay returns every ledger row for a hub and date.
func FetchDay(ctx context.Context, hubName, date string) ([]SlotCapacity, error) {
	cur, err := db.SlotsCollection.Find(ctx, bson.M{"hubName": hubName, "date": date})
	if err != nil {
		return nil, fmt.Errorf("fetch slots: %w", err)
	}
	defer cur.Close(ctx)

	var rows []SlotCapacity
	if err := cur.All(ctx, &rows); err != nil {
		return nil, fmt.Errorf("decode slots: %w", err)
	}
	return rows, nil
}

// FetchActive returns the active ledger rows for the offered times of a
// hub and date. Offered times with no row are simply absent from the
// result; the caller treats them as capacity zero.
func FetchActive(ctx context.Context, hubName, date string, offered []string) ([]SlotCapacity, error) {
	if len(offered) == 0 {
		return nil, nil
	}
	filter := bson.M{
		"hubName":  hubName,
		"date":     date,
		"time":     bson.M{"$in": offered},
		"isActive": true,
	}
	cur, err := db.SlotsCollection.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("fetch active slots: %w", err)
	}
	defer cur.Close(ctx)

	var rows []SlotCapacity
	if err := cur.All(ctx, &rows); err != nil {
		return nil, fmt.Errorf("decode active slots: %w", err)
	}
	return rows, nil
}
