package db

import (
	"context"
	"log"
	"os"

	"github.com/joho/godotenv"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	HubsCollection         *mongo.Collection
	SchedulesCollection    *mongo.Collection
	SlotsCollection        *mongo.Collection
	AppointmentsCollection *mongo.Collection
	Client                 *mongo.Client
)

// Initialize MongoDB connection
func init() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found; using system environment")
	}

	uri := os.Getenv("MONGODB_URI")
	if uri == "" {
		uri = "mongodb://localhost:27017"
	}
	dbName := os.Getenv("MONGO_DB")
	if dbName == "" {
		dbName = "intakedb"
	}

	ClientOptions := options.Client().ApplyURI(uri)
	var err error
	Client, err = mongo.Connect(context.TODO(), ClientOptions)
	if err != nil {
		log.Fatalf("Failed to connect to MongoDB: %v", err)
	}

	HubsCollection = Client.Database(dbName).Collection("hubs")
	SchedulesCollection = Client.Database(dbName).Collection("hubschedules")
	SlotsCollection = Client.Database(dbName).Collection("appointmentslots")
	AppointmentsCollection = Client.Database(dbName).Collection("appointments")

	CreateIndexes(Client.Database(dbName))
}

// CreateIndexes enforces the storage-layer uniqueness the booking path
// depends on: one ledger row per (hubName, date, time) and one schedule
// per hub. Index creation is idempotent.
func CreateIndexes(database *mongo.Database) {
	slotIndex := mongo.IndexModel{
		Keys: bson.D{
			{Key: "hubName", Value: 1},
			{Key: "date", Value: 1},
			{Key: "time", Value: 1},
		},
		Options: options.Index().SetUnique(true),
	}
	if _, err := database.Collection("appointmentslots").Indexes().CreateOne(context.TODO(), slotIndex); err != nil {
		log.Printf("Failed to create slot index: %v", err)
	}

	scheduleIndex := mongo.IndexModel{
		Keys:    bson.D{{Key: "hubName", Value: 1}},
		Options: options.Index().SetUnique(true),
	}
	if _, err := database.Collection("hubschedules").Indexes().CreateOne(context.TODO(), scheduleIndex); err != nil {
		log.Printf("Failed to create schedule index: %v", err)
	}

	hubIndex := mongo.IndexModel{
		Keys:    bson.D{{Key: "name", Value: 1}},
		Options: options.Index().SetUnique(true),
	}
	if _, err := database.Collection("hubs").Indexes().CreateOne(context.TODO(), hubIndex); err != nil {
		log.Printf("Failed to create hub index: %v", err)
	}
}
