package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/canvasslabs/canvass/internal/model"
)

func main() {
	mongoURI := os.Getenv("MONGO_URI")
	if mongoURI == "" {
		mongoURI = "mongodb://localhost:27017"
	}
	mongoDB := os.Getenv("MONGO_DB")
	if mongoDB == "" {
		mongoDB = "canvass"
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(mongoURI))
	if err != nil {
		log.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	defer client.Disconnect(ctx)

	db := client.Database(mongoDB)
	surveyColl := db.Collection("surveys")

	// Builder ID observed in logs
	ownerID := "b_4f9d20aa"

	survey := model.Survey{
		ID:          primitive.NewObjectID().Hex(),
		OwnerID:     ownerID,
		Title:       "Household Transport and Pets",
		Description: "Demo survey exercising conditional branches and iterative questions.",
		Language:    "en",
		Questions: []model.Question{
			{
				ID:   "q_car",
				Text: "Do you own a car?",
				Type: model.QuestionTypeYesNo,
			},
			{
				ID:           "q_model",
				Text:         "What make and model is it?",
				Type:         model.QuestionTypeText,
				ParentID:     "q_car",
				TriggerValue: "Yes",
				ExpectedAnswers: []string{
					"Toyota Corolla",
					"Volkswagen Golf",
				},
			},
			{
				ID:           "q_fuel",
				Text:         "What fuel does it use?",
				Type:         model.QuestionTypeChoice,
				ParentID:     "q_car",
				TriggerValue: "Yes",
				Options: []model.Option{
					{ID: "opt_petrol", Text: "Petrol"},
					{ID: "opt_diesel", Text: "Diesel"},
					{ID: "opt_electric", Text: "Electric"},
					{ID: "opt_hybrid", Text: "Hybrid"},
				},
			},
			{
				ID:       "q_pets",
				Text:     "How many pets live in your household?",
				Type:     model.QuestionTypeNumber,
				MinRange: floatPtr(0),
				MaxRange: floatPtr(20),
			},
			{
				ID:        "q_petname",
				Text:      "What is this pet's name?",
				Type:      model.QuestionTypeText,
				Iterative: true,
				SourceID:  "q_pets",
			},
			{
				ID:   "q_feedback",
				Text: "Anything else you want to tell us?",
				Type: model.QuestionTypeText,
			},
		},
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}

	_, err = surveyColl.InsertOne(ctx, survey)
	if err != nil {
		log.Fatalf("Failed to insert survey: %v", err)
	}

	fmt.Printf("Successfully created demo survey '%s' for builder '%s'\n", survey.Title, ownerID)
}

func floatPtr(v float64) *float64 {
	return &v
}
