package models

import (
	"encoding/json"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	AgentStatusActive   = "active"
	AgentStatusPending  = "pending"
	AgentStatusArchived = "archived"
)

// StringList is a list field that tolerates being stored either as a native
// array or as a JSON-encoded string. Older write paths persisted some array
// fields as strings; until the data is backfilled both shapes must decode.
// Malformed payloads decode to an empty list instead of failing the record.
type StringList []string

func (l *StringList) UnmarshalJSON(data []byte) error {
	var items []string
	if err := json.Unmarshal(data, &items); err == nil {
		*l = items
		return nil
	}

	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		*l = StringList{}
		return nil
	}
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		*l = StringList{}
		return nil
	}
	*l = items
	return nil
}

func (l *StringList) UnmarshalBSONValue(t bsontype.Type, data []byte) error {
	rv := bson.RawValue{Type: t, Value: data}

	switch t {
	case bson.TypeArray:
		var items []string
		if err := rv.Unmarshal(&items); err != nil {
			*l = StringList{}
			return nil
		}
		*l = items
	case bson.TypeString:
		var items []string
		if err := json.Unmarshal([]byte(rv.StringValue()), &items); err != nil {
			*l = StringList{}
			return nil
		}
		*l = items
	default:
		*l = StringList{}
	}
	return nil
}

type Agent struct {
	ID             primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	Name           string             `json:"name" bson:"name"`
	Slug           string             `json:"slug" bson:"slug"`
	Tagline        string             `json:"tagline,omitempty" bson:"tagline,omitempty"`
	Description    string             `json:"description,omitempty" bson:"description,omitempty"`
	Category       string             `json:"category" bson:"category"`
	Pricing        string             `json:"pricing,omitempty" bson:"pricing,omitempty"`
	Status         string             `json:"status" bson:"status"`
	AverageRating  *float64           `json:"average_rating,omitempty" bson:"average_rating,omitempty"`
	TotalReviews   int                `json:"total_reviews" bson:"total_reviews"`
	TotalUpvotes   int                `json:"total_upvotes" bson:"total_upvotes"`
	Features       StringList         `json:"features" bson:"features,omitempty"`
	TechnicalSpecs StringList         `json:"technical_specs" bson:"technical_specs,omitempty"`
	Tags           StringList         `json:"tags" bson:"tags,omitempty"`
	Integrations   StringList         `json:"integrations" bson:"integrations,omitempty"`
	UseCases       StringList         `json:"use_cases" bson:"useCases,omitempty"`
	WebsiteURL     string             `json:"website_url,omitempty" bson:"website_url,omitempty"`
	RepoURL        string             `json:"repo_url,omitempty" bson:"repo_url,omitempty"`
	TwitterURL     string             `json:"twitter_url,omitempty" bson:"twitter_url,omitempty"`
	CreatedAt      primitive.DateTime `json:"created_at" bson:"created_at"`
}

type SubmitAgentRequestBody struct {
	Name           string   `json:"name"`
	Slug           string   `json:"slug"`
	Tagline        string   `json:"tagline"`
	Description    string   `json:"description"`
	Category       string   `json:"category"`
	Pricing        string   `json:"pricing"`
	Features       []string `json:"features"`
	TechnicalSpecs []string `json:"technical_specs"`
	Tags           []string `json:"tags"`
	Integrations   []string `json:"integrations"`
	UseCases       []string `json:"use_cases"`
	WebsiteURL     string   `json:"website_url"`
	RepoURL        string   `json:"repo_url"`
	TwitterURL     string   `json:"twitter_url"`
}
