package slots

import (
	"context"
	"encoding/json"
	"intake/db"
	"intake/rdx"
	"intake/utils"
	"log"
	"net/http"
	"time"

	"github.com/julienschmidt/httprouter"
	"go.mongodb.org/mongo-driver/bson"
)

// CapacityUpdate carries the optional fields of an admin capacity edit.
type CapacityUpdate struct {
	Capacity *int  `json:"capacity,omitempty"`
	IsActive *bool `json:"isActive,omitempty"`
}

// GetSlotCapacities returns every ledger row for a hub and date keyed by
// time label, including full and inactive slots. This is the admin view;
// the public availability endpoint filters.
func GetSlotCapacities(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	hubName := r.URL.Query().Get("hubName")
	date, err := NormalizeDate(r.URL.Query().Get("date"))
	if hubName == "" || err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "hubName and date are required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	rows, err := FetchDay(ctx, hubName, date)
	if err != nil {
		log.Println("slot capacities fetch:", err)
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to fetch slot capacities")
		return
	}

	capacities := make(map[string]SlotCapacity, len(rows))
	for _, row := range rows {
		capacities[row.Time] = row
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"hubName": hubName, "date": date, "capacities": capacities})
}

// SetSlotCapacities bulk-applies capacity edits for one hub and date.
func SetSlotCapacities(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var body struct {
		HubName    string                    `json:"hubName"`
		Date       string                    `json:"date"`
		Capacities map[string]CapacityUpdate `json:"capacities"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	date, err := NormalizeDate(body.Date)
	if body.HubName == "" || err != nil || len(body.Capacities) == 0 {
		utils.RespondWithError(w, http.StatusBadRequest, "hubName, date and capacities are required")
		return
	}
	for t := range body.Capacities {
		if _, err := ParseSlotTime(t); err != nil {
			utils.RespondWithError(w, http.StatusBadRequest, err.Error())
			return
		}
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	updated := make(map[string]SlotCapacity, len(body.Capacities))
	for t, edit := range body.Capacities {
		if edit.Capacity != nil && *edit.Capacity <= 0 {
			utils.RespondWithError(w, http.StatusBadRequest, "capacity must be positive")
			return
		}
		slot, err := Upsert(ctx, body.HubName, date, t, edit.Capacity, edit.IsActive)
		if err != nil {
			log.Println("slot capacity upsert:", err)
			utils.RespondWithError(w, http.StatusInternalServerError, "Failed to update slot capacities")
			return
		}
		updated[t] = *slot
	}

	rdx.InvalidateAvailability(ctx, body.HubName, date)
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"ok": true, "capacities": updated})
}

// GetSlots queries ledger rows for a hub, either an exact date or an
// inclusive from/to range. Canonical YYYY-MM-DD strings compare in
// calendar order, so the range query is a plain string comparison.
func GetSlots(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	q := r.URL.Query()
	hubName := q.Get("hubName")
	if hubName == "" {
		utils.RespondWithError(w, http.StatusBadRequest, "hubName is required")
		return
	}

	filter := bson.M{"hubName": hubName}
	switch {
	case q.Get("date") != "":
		date, err := NormalizeDate(q.Get("date"))
		if err != nil {
			utils.RespondWithError(w, http.StatusBadRequest, err.Error())
			return
		}
		filter["date"] = date
	case q.Get("from") != "" && q.Get("to") != "":
		from, err1 := NormalizeDate(q.Get("from"))
		to, err2 := NormalizeDate(q.Get("to"))
		if err1 != nil || err2 != nil {
			utils.RespondWithError(w, http.StatusBadRequest, "invalid from/to date")
			return
		}
		filter["date"] = bson.M{"$gte": from, "$lte": to}
	default:
		utils.RespondWithError(w, http.StatusBadRequest, "date or from/to range is required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	cur, err := db.SlotsCollection.Find(ctx, filter)
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to fetch slots")
		return
	}
	defer cur.Close(ctx)

	var rows []SlotCapacity
	if err := cur.All(ctx, &rows); err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to decode slots")
		return
	}
	if rows == nil {
		rows = []SlotCapacity{}
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"slots": rows})
}

// UpsertSlotRow creates or partially updates a single ledger row.
func UpsertSlotRow(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var body struct {
		HubName  string `json:"hubName"`
		Date     string `json:"date"`
		Time     string `json:"time"`
		Capacity *int   `json:"capacity,omitempty"`
		IsActive *bool  `json:"isActive,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	date, err := NormalizeDate(body.Date)
	if body.HubName == "" || body.Time == "" || err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "hubName, date and time are required")
		return
	}
	if _, err := ParseSlotTime(body.Time); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	if body.Capacity != nil && *body.Capacity <= 0 {
		utils.RespondWithError(w, http.StatusBadRequest, "capacity must be positive")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	slot, err := Upsert(ctx, body.HubName, date, body.Time, body.Capacity, body.IsActive)
	if err != nil {
		log.Println("slot upsert:", err)
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to upsert slot")
		return
	}

	rdx.InvalidateAvailability(ctx, body.HubName, date)
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"slot": slot})
}

// BulkUpdateSlots applies the same capacity/active edit to several times
// of one hub and date at once.
func BulkUpdateSlots(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var body struct {
		HubName string         `json:"hubName"`
		Date    string         `json:"date"`
		Times   []string       `json:"times"`
		Set     CapacityUpdate `json:"set"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	date, err := NormalizeDate(body.Date)
	if body.HubName == "" || err != nil || len(body.Times) == 0 {
		utils.RespondWithError(w, http.StatusBadRequest, "hubName, date and times are required")
		return
	}
	if body.Set.Capacity == nil && body.Set.IsActive == nil {
		utils.RespondWithError(w, http.StatusBadRequest, "nothing to update")
		return
	}
	if body.Set.Capacity != nil && *body.Set.Capacity <= 0 {
		utils.RespondWithError(w, http.StatusBadRequest, "capacity must be positive")
		return
	}

	set := bson.M{"updatedAt": time.Now().Unix()}
	if body.Set.Capacity != nil {
		set["capacity"] = *body.Set.Capacity
	}
	if body.Set.IsActive != nil {
		set["isActive"] = *body.Set.IsActive
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	res, err := db.SlotsCollection.UpdateMany(ctx,
		bson.M{"hubName": body.HubName, "date": date, "time": bson.M{"$in": body.Times}},
		bson.M{"$set": set},
	)
	if err != nil {
		log.Println("slot bulk update:", err)
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to update slots")
		return
	}

	rdx.InvalidateAvailability(ctx, body.HubName, date)
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"ok": true, "matched": res.MatchedCount, "modified": res.ModifiedCount})
}
