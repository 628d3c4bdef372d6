package models

import (
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Category struct {
	ID          primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	Code        string             `json:"code" bson:"code"`
	Name        string             `json:"name" bson:"name"`
	Emoji       string             `json:"emoji,omitempty" bson:"emoji,omitempty"`
	Description string             `json:"description,omitempty" bson:"description,omitempty"`
}
