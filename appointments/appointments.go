package appointments

import (
	"context"
	"encoding/json"
	"errors"
	"intake/db"
	"intake/hubs"
	"intake/rdx"
	"intake/schedule"
	"intake/slots"
	"intake/utils"
	"log"
	"net/http"
	"time"

	"github.com/julienschmidt/httprouter"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Appointment is one intake booking against a ledger slot.
type Appointment struct {
	AppointmentID    string `json:"appointmentId" bson:"appointmentId"`
	UserID           string `json:"userId" bson:"userId"`
	HubName          string `json:"hubName" bson:"hubName"`
	Date             string `json:"date" bson:"date"` // YYYY-MM-DD
	Time             string `json:"time" bson:"time"`
	Status           string `json:"status" bson:"status"` // confirmed, cancelled
	ConfirmationCode string `json:"confirmationCode" bson:"confirmationCode"`
	CreatedAt        int64  `json:"createdAt" bson:"createdAt"`
}

func genID() string {
	return utils.GenerateRandomDigitString(22)
}

// CreateAppointment books a slot for the authenticated user. The
// capacity claim is a single conditional update on the ledger row, so two
// racing requests for the last spot cannot both get it.
func CreateAppointment(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	userID := utils.GetUserIDFromRequest(r)
	if userID == "" {
		utils.RespondWithError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var body struct {
		HubID   string `json:"hubId"`
		HubName string `json:"hubName"`
		Date    string `json:"date"`
		Time    string `json:"time"`
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
	if _, err := slots.ParseSlotTime(body.Time); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	hubName, err := hubs.ResolveName(ctx, body.HubID, body.HubName)
	if err != nil {
		if errors.Is(err, hubs.ErrHubNotFound) {
			utils.RespondWithError(w, http.StatusNotFound, "Hub not found")
			return
		}
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to resolve hub")
		return
	}

	sched, err := schedule.Ensure(ctx, hubName)
	if err != nil {
		log.Println("appointment schedule load:", err)
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to load hub schedule")
		return
	}
	if sched.IsDayOff(date) {
		utils.RespondWithJSON(w, http.StatusConflict, utils.M{"ok": false, "reason": "day-off"})
		return
	}

	// one non-cancelled appointment per user per hub per date
	count, err := db.AppointmentsCollection.CountDocuments(ctx, bson.M{
		"userId": userID, "hubName": hubName, "date": date,
		"status": bson.M{"$ne": "cancelled"},
	})
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to check existing appointments")
		return
	}
	if count > 0 {
		utils.RespondWithJSON(w, http.StatusConflict, utils.M{"ok": false, "reason": "one-per-day"})
		return
	}

	if _, err := slots.Book(ctx, hubName, date, body.Time); err != nil {
		if errors.Is(err, slots.ErrSlotUnavailable) {
			utils.RespondWithJSON(w, http.StatusConflict, utils.M{"ok": false, "reason": "slot-unavailable"})
			return
		}
		log.Println("appointment book:", err)
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to book slot")
		return
	}

	appt := Appointment{
		AppointmentID:    genID(),
		UserID:           userID,
		HubName:          hubName,
		Date:             date,
		Time:             body.Time,
		Status:           "confirmed",
		ConfirmationCode: utils.GetUUID(),
		CreatedAt:        time.Now().Unix(),
	}
	if _, err := db.AppointmentsCollection.InsertOne(ctx, appt); err != nil {
		// release the spot we just claimed
		if cerr := slots.CancelBooking(ctx, hubName, date, body.Time); cerr != nil {
			log.Println("appointment compensate:", cerr)
		}
		log.Println("appointment insert:", err)
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to create appointment")
		return
	}

	rdx.InvalidateAvailability(ctx, hubName, date)
	utils.RespondWithJSON(w, http.StatusCreated, utils.M{"ok": true, "appointment": appt})
}

// CancelAppointment cancels the caller's appointment and releases its
// spot. Cancelling an already cancelled appointment is a no-op success.
func CancelAppointment(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	userID := utils.GetUserIDFromRequest(r)
	if userID == "" {
		utils.RespondWithError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	apptID := ps.ByName("id")

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	// flip the status first; only the request that actually flips it
	// releases the ledger spot, so a double cancel cannot decrement twice
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var appt Appointment
	err := db.AppointmentsCollection.FindOneAndUpdate(ctx,
		bson.M{"appointmentId": apptID, "userId": userID, "status": bson.M{"$ne": "cancelled"}},
		bson.M{"$set": bson.M{"status": "cancelled"}},
		opts,
	).Decode(&appt)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			// either unknown, someone else's, or already cancelled
			ferr := db.AppointmentsCollection.FindOne(ctx, bson.M{"appointmentId": apptID, "userId": userID}).Decode(&appt)
			if ferr != nil {
				utils.RespondWithError(w, http.StatusNotFound, "Appointment not found")
				return
			}
			utils.RespondWithJSON(w, http.StatusOK, utils.M{"ok": true, "appointment": appt})
			return
		}
		log.Println("appointment cancel:", err)
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to cancel appointment")
		return
	}

	if err := slots.CancelBooking(ctx, appt.HubName, appt.Date, appt.Time); err != nil {
		log.Println("appointment release:", err)
	}

	rdx.InvalidateAvailability(ctx, appt.HubName, appt.Date)
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"ok": true, "appointment": appt})
}

// GetMyAppointments lists the caller's appointments, newest first.
func GetMyAppointments(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	userID := utils.GetUserIDFromRequest(r)
	if userID == "" {
		utils.RespondWithError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	findOpts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cur, err := db.AppointmentsCollection.Find(ctx, bson.M{"userId": userID}, findOpts)
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to fetch appointments")
		return
	}
	defer cur.Close(ctx)

	var appts []Appointment
	if err := cur.All(ctx, &appts); err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to decode appointments")
		return
	}
	if appts == nil {
		appts = []Appointment{}
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"appointments": appts})
}

// GetHubAppointments lists a hub's appointments for one date, sorted by
// slot time. Admin view for the front desk.
func GetHubAppointments(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	hubName := r.URL.Query().Get("hubName")
	date, err := slots.NormalizeDate(r.URL.Query().Get("date"))
	if hubName == "" || err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "hubName and date are required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	filter := bson.M{"hubName": hubName, "date": date}
	if status := r.URL.Query().Get("status"); status != "" {
		filter["status"] = status
	}

	cur, err := db.AppointmentsCollection.Find(ctx, filter)
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to fetch appointments")
		return
	}
	defer cur.Close(ctx)

	var appts []Appointment
	if err := cur.All(ctx, &appts); err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to decode appointments")
		return
	}
	if appts == nil {
		appts = []Appointment{}
	}

	times := make([]string, len(appts))
	byTime := make(map[string][]Appointment, len(appts))
	for i, a := range appts {
		times[i] = a.Time
		byTime[a.Time] = append(byTime[a.Time], a)
	}
	slots.SortSlotTimes(times)

	sorted := make([]Appointment, 0, len(appts))
	seen := make(map[string]bool, len(times))
	for _, t := range times {
		if seen[t] {
			continue
		}
		seen[t] = true
		sorted = append(sorted, byTime[t]...)
	}

	utils.RespondWithJSON(w, http.StatusOK, utils.M{"appointments": sorted})
}
