package repositories

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"agentdex/internal/database"
	"agentdex/internal/models"
	"agentdex/internal/utils"
)

type ReviewRepository interface {
	Create(ctx context.Context, review *models.Review) (*models.Review, error)
	FindByAgent(ctx context.Context, slug string, limit, page int64) ([]models.Review, error)
	SummaryForAgent(ctx context.Context, slug string) (*models.RatingSummary, error)
}

type reviewRepository struct {
	db database.Service
}

func NewReviewRepository(db database.Service) ReviewRepository {
	return &reviewRepository{db: db}
}

func (r *reviewRepository) collection() *mongo.Collection {
	return r.db.Client().Database(database.Name).Collection("reviews")
}

func (r *reviewRepository) Create(ctx context.Context, review *models.Review) (*models.Review, error) {
	queryType := "create"
	repository := "review"
	status := "success"
	timer := prometheus.NewTimer(prometheus.ObserverFunc(func(v float64) {
		utils.DBQueryDurationSeconds.WithLabelValues(queryType, repository, status).Observe(v)
	}))
	defer timer.ObserveDuration()

	result, err := r.collection().InsertOne(ctx, review)
	if err != nil {
		status = "error"
		utils.DBQueryErrorsTotal.WithLabelValues(queryType, repository).Inc()
		return nil, fmt.Errorf("failed to add review: %w", err)
	}
	review.ID = result.InsertedID.(primitive.ObjectID)
	return review, nil
}

func (r *reviewRepository) FindByAgent(ctx context.Context, slug string, limit, page int64) ([]models.Review, error) {
	queryType := "findByAgent"
	repository := "review"
	status := "success"
	timer := prometheus.NewTimer(prometheus.ObserverFunc(func(v float64) {
		utils.DBQueryDurationSeconds.WithLabelValues(queryType, repository, status).Observe(v)
	}))
	defer timer.ObserveDuration()

	opts := options.Find().
		SetLimit(limit).
		SetSkip((page - 1) * limit).
		SetSort(bson.D{{Key: "created_at", Value: -1}})

	cursor, err := r.collection().Find(ctx, bson.M{"agent_slug": slug}, opts)
	if err != nil {
		status = "error"
		utils.DBQueryErrorsTotal.WithLabelValues(queryType, repository).Inc()
		return nil, fmt.Errorf("failed to retrieve reviews: %w", err)
	}
	defer cursor.Close(ctx)

	var reviews []models.Review
	if err := cursor.All(ctx, &reviews); err != nil {
		status = "error"
		utils.DBQueryErrorsTotal.WithLabelValues(queryType, repository).Inc()
		return nil, fmt.Errorf("error decoding reviews: %w", err)
	}
	return reviews, nil
}

// SummaryForAgent recomputes the rating aggregate from the reviews collection.
// Reviews are never embedded in the agent record.
func (r *reviewRepository) SummaryForAgent(ctx context.Context, slug string) (*models.RatingSummary, error) {
	queryType := "summaryForAgent"
	repository := "review"
	status := "success"
	timer := prometheus.NewTimer(prometheus.ObserverFunc(func(v float64) {
		utils.DBQueryDurationSeconds.WithLabelValues(queryType, repository, status).Observe(v)
	}))
	defer timer.ObserveDuration()

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"agent_slug": slug}}},
		{{Key: "$group", Value: bson.M{
			"_id":     nil,
			"average": bson.M{"$avg": "$rating"},
			"count":   bson.M{"$sum": 1},
		}}},
	}

	cursor, err := r.collection().Aggregate(ctx, pipeline)
	if err != nil {
		status = "error"
		utils.DBQueryErrorsTotal.WithLabelValues(queryType, repository).Inc()
		return nil, fmt.Errorf("failed to aggregate reviews: %w", err)
	}
	defer cursor.Close(ctx)

	var summaries []models.RatingSummary
	if err := cursor.All(ctx, &summaries); err != nil {
		status = "error"
		utils.DBQueryErrorsTotal.WithLabelValues(queryType, repository).Inc()
		return nil, fmt.Errorf("error decoding rating summary: %w", err)
	}
	if len(summaries) == 0 {
		return &models.RatingSummary{}, nil
	}
	return &summaries[0], nil
}
