package schedule

import (
	"context"
	"encoding/json"
	"intake/rdx"
	"intake/slots"
	"intake/utils"
	"log"
	"net/http"
	"time"

	"github.com/julienschmidt/httprouter"
)

// GetHubConfig returns the full schedule document for a hub,
// provisioning it on first read so the admin dashboard always has
// something to edit.
func GetHubConfig(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	hubName := r.URL.Query().Get("hubName")
	if hubName == "" {
		utils.RespondWithError(w, http.StatusBadRequest, "hubName is required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	sched, err := Ensure(ctx, hubName)
	if err != nil {
		log.Println("hub config fetch:", err)
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to fetch hub config")
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"config": sched})
}

// UpdateHubConfig mutates one aspect of the schedule document:
// setCustomSlots, markDayOff, or markDayOpen.
func UpdateHubConfig(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var body struct {
		HubName string   `json:"hubName"`
		Action  string   `json:"action"`
		Date    string   `json:"date"`
		Slots   []string `json:"slots"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if body.HubName == "" {
		utils.RespondWithError(w, http.StatusBadRequest, "hubName is required")
		return
	}
	date, err := slots.NormalizeDate(body.Date)
	if err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	switch body.Action {
	case "setCustomSlots":
		for _, t := range body.Slots {
			if _, err := slots.ParseSlotTime(t); err != nil {
				utils.RespondWithError(w, http.StatusBadRequest, err.Error())
				return
			}
		}
		err = SetCustomSlots(ctx, body.HubName, date, body.Slots)
	case "markDayOff":
		err = MarkDayOff(ctx, body.HubName, date)
	case "markDayOpen":
		err = MarkDayOpen(ctx, body.HubName, date)
	default:
		utils.RespondWithError(w, http.StatusBadRequest, "unknown action")
		return
	}
	if err != nil {
		log.Println("hub config update:", err)
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to update hub config")
		return
	}

	rdx.InvalidateAvailability(ctx, body.HubName, date)

	sched, err := Ensure(ctx, body.HubName)
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to reload hub config")
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"ok": true, "config": sched})
}
