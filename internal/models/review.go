package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Review struct {
	ID        primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	AgentSlug string             `json:"agent_slug" bson:"agent_slug"`
	Author    string             `json:"author" bson:"author"`
	Rating    int                `json:"rating" bson:"rating"`
	Comment   string             `json:"comment,omitempty" bson:"comment,omitempty"`
	CreatedAt time.Time          `json:"created_at" bson:"created_at"`
}

type AddReviewRequestBody struct {
	Author  string `json:"author"`
	Rating  int    `json:"rating"`
	Comment string `json:"comment"`
}

// RatingSummary is the aggregate a review write folds back onto the agent.
type RatingSummary struct {
	Average float64 `bson:"average"`
	Count   int     `bson:"count"`
}
