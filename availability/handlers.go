package availability

import (
	"context"
	"encoding/json"
	"errors"
	"intake/hubs"
	"intake/rdx"
	"intake/schedule"
	"intake/slots"
	"intake/utils"
	"log"
	"net/http"
	"time"

	"github.com/julienschmidt/httprouter"
)

// GetAvailability answers the public hub+date availability query. Results
// are cached briefly per (hub, date); every schedule or ledger write
// invalidates the pair it touched.
func GetAvailability(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	q := r.URL.Query()
	hubID := q.Get("hubId")
	hubName := q.Get("hubName")
	if hubID == "" && hubName == "" {
		utils.RespondWithError(w, http.StatusBadRequest, "hubId or hubName is required")
		return
	}
	date, err := slots.NormalizeDate(q.Get("date"))
	if err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	// resolve first so hubId and hubName requests share one cache entry
	name, err := hubs.ResolveName(ctx, hubID, hubName)
	if err != nil {
		if errors.Is(err, hubs.ErrHubNotFound) {
			utils.RespondWithError(w, http.StatusNotFound, "Hub not found")
			return
		}
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to resolve hub")
		return
	}

	if cached, ok := rdx.GetCachedAvailability(ctx, name, date); ok {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(cached))
		return
	}

	result, err := Query(ctx, name, date)
	if err != nil {
		log.Println("availability query:", err)
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to fetch availability")
		return
	}

	if data, err := json.Marshal(result); err == nil {
		rdx.SetCachedAvailability(ctx, result.HubName, date, data)
	}
	utils.RespondWithJSON(w, http.StatusOK, result)
}

// ToggleDayOff flips a hub's day-off status for one date.
func ToggleDayOff(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var body struct {
		Action  string `json:"action"`
		HubID   string `json:"hubId"`
		HubName string `json:"hubName"`
		Date    string `json:"date"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	date, err := slots.NormalizeDate(body.Date)
	if err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	name, err := hubs.ResolveName(ctx, body.HubID, body.HubName)
	if err != nil {
		if errors.Is(err, hubs.ErrHubNotFound) {
			utils.RespondWithError(w, http.StatusNotFound, "Hub not found")
			return
		}
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to resolve hub")
		return
	}

	switch body.Action {
	case "markDayOff":
		err = schedule.MarkDayOff(ctx, name, date)
	case "markDayOpen":
		err = schedule.MarkDayOpen(ctx, name, date)
	default:
		utils.RespondWithError(w, http.StatusBadRequest, "unknown action")
		return
	}
	if err != nil {
		log.Println("day off toggle:", err)
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to update day off status")
		return
	}

	rdx.InvalidateAvailability(ctx, name, date)
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"ok": true, "hubName": name, "date": date, "action": body.Action})
}
