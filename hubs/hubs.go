package hubs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"intake/db"
	"intake/rdx"
	"intake/utils"
	"log"
	"net/http"
	"time"

	"github.com/julienschmidt/httprouter"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ErrHubNotFound is returned when neither a hub id nor a hub name
// resolves to a known hub.
var ErrHubNotFound = errors.New("hub not found")

type Coordinates struct {
	Lat float64 `json:"lat" bson:"lat"`
	Lng float64 `json:"lng" bson:"lng"`
}

// Hub is admin-managed reference data. Name is the human-meaningful
// unique key the scheduling documents are keyed by.
type Hub struct {
	HubID       string      `json:"hubid" bson:"hubid"`
	Name        string      `json:"name" bson:"name"`
	Address     string      `json:"address" bson:"address"`
	Coordinates Coordinates `json:"coordinates" bson:"coordinates"`
	Photo       string      `json:"photo,omitempty" bson:"photo,omitempty"`
	CreatedAt   int64       `json:"createdAt" bson:"createdAt"`
}

func genID() string {
	return utils.GenerateRandomDigitString(16)
}

// ResolveName maps a request's hubId or hubName to the stored hub name.
// hubId wins when both are present.
func ResolveName(ctx context.Context, hubID, hubName string) (string, error) {
	var filter bson.M
	switch {
	case hubID != "":
		filter = bson.M{"hubid": hubID}
	case hubName != "":
		filter = bson.M{"name": hubName}
	default:
		return "", ErrHubNotFound
	}

	var hub Hub
	err := db.HubsCollection.FindOne(ctx, filter).Decode(&hub)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return "", ErrHubNotFound
		}
		return "", fmt.Errorf("resolve hub: %w", err)
	}
	return hub.Name, nil
}

const hubsCacheKey = "hubs"

// GetHubs lists all hubs. Hub reference data rarely changes, so the list
// is cached in Redis and dropped on any hub write.
func GetHubs(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if cached, err := rdx.Conn.Get(ctx, hubsCacheKey).Result(); err == nil && cached != "" {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(cached))
		return
	}

	cur, err := db.HubsCollection.Find(ctx, bson.M{})
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to fetch hubs")
		return
	}
	defer cur.Close(ctx)

	var hubs []Hub
	if err := cur.All(ctx, &hubs); err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to decode hubs")
		return
	}
	if hubs == nil {
		hubs = []Hub{}
	}

	if data, err := json.Marshal(utils.M{"hubs": hubs}); err == nil {
		_ = rdx.Conn.Set(ctx, hubsCacheKey, data, 2*time.Hour).Err()
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"hubs": hubs})
}

func GetHub(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	var hub Hub
	err := db.HubsCollection.FindOne(ctx, bson.M{"hubid": ps.ByName("hubid")}).Decode(&hub)
	if err != nil {
		utils.RespondWithError(w, http.StatusNotFound, "Hub not found")
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"hub": hub})
}

func CreateHub(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var hub Hub
	if err := json.NewDecoder(r.Body).Decode(&hub); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if hub.Name == "" || hub.Address == "" {
		utils.RespondWithError(w, http.StatusBadRequest, "name and address are required")
		return
	}

	hub.HubID = genID()
	hub.CreatedAt = time.Now().Unix()

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if _, err := db.HubsCollection.InsertOne(ctx, hub); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			utils.RespondWithError(w, http.StatusConflict, "Hub name already exists")
			return
		}
		log.Println("hub insert:", err)
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to create hub")
		return
	}

	_ = rdx.Conn.Del(ctx, hubsCacheKey).Err()
	utils.RespondWithJSON(w, http.StatusCreated, utils.M{"hub": hub})
}

// EditHub updates address and coordinates. The name is the key the
// schedule and ledger documents hang off, so it stays immutable here.
func EditHub(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var body struct {
		Address     *string      `json:"address"`
		Coordinates *Coordinates `json:"coordinates"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	set := bson.M{}
	if body.Address != nil {
		set["address"] = *body.Address
	}
	if body.Coordinates != nil {
		set["coordinates"] = *body.Coordinates
	}
	if len(set) == 0 {
		utils.RespondWithError(w, http.StatusBadRequest, "nothing to update")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var hub Hub
	err := db.HubsCollection.FindOneAndUpdate(ctx, bson.M{"hubid": ps.ByName("hubid")}, bson.M{"$set": set}, opts).Decode(&hub)
	if err != nil {
		utils.RespondWithError(w, http.StatusNotFound, "Hub not found")
		return
	}

	_ = rdx.Conn.Del(ctx, hubsCacheKey).Err()
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"hub": hub})
}

func DeleteHub(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	res, err := db.HubsCollection.DeleteOne(ctx, bson.M{"hubid": ps.ByName("hubid")})
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to delete hub")
		return
	}
	if res.DeletedCount == 0 {
		utils.RespondWithError(w, http.StatusNotFound, "Hub not found")
		return
	}

	_ = rdx.Conn.Del(ctx, hubsCacheKey).Err()
	w.WriteHeader(http.StatusNoContent)
}
