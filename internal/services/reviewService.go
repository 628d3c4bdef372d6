package services

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"agentdex/internal/metrics"
	"agentdex/internal/models"
	"agentdex/internal/repositories"
)

type ReviewService interface {
	GetReviews(ctx context.Context, slug string, r *http.Request) ([]models.Review, error)
	AddReview(ctx context.Context, slug string, reqBody models.AddReviewRequestBody) (*models.Review, error)
}

type reviewServiceImpl struct {
	reviewRepo repositories.ReviewRepository
	agentRepo  repositories.AgentRepository
}

func NewReviewService(reviewRepo repositories.ReviewRepository, agentRepo repositories.AgentRepository) ReviewService {
	return &reviewServiceImpl{reviewRepo: reviewRepo, agentRepo: agentRepo}
}

func (s *reviewServiceImpl) GetReviews(ctx context.Context, slug string, r *http.Request) ([]models.Review, error) {
	var page int64 = 1
	if pageParam := r.URL.Query().Get("page"); pageParam != "" {
		parsed, err := strconv.ParseInt(pageParam, 10, 64)
		if err != nil || parsed < 1 {
			log.Warn().Str("pageParam", pageParam).Msg("Invalid page parameter for reviews")
			return nil, fmt.Errorf("page must be a positive integer")
		}
		page = parsed
	}

	var limit int64 = 10
	reviews, err := s.reviewRepo.FindByAgent(ctx, slug, limit, page)
	if err != nil {
		log.Error().Err(err).Str("slug", slug).Msg("Error finding reviews")
		return nil, err
	}

	log.Debug().Str("slug", slug).Int("count", len(reviews)).Msg("Retrieved reviews")
	return reviews, nil
}

// AddReview inserts the review and folds the recomputed aggregate back onto
// the agent record so listing pages never join the reviews collection.
func (s *reviewServiceImpl) AddReview(ctx context.Context, slug string, reqBody models.AddReviewRequestBody) (*models.Review, error) {
	if strings.TrimSpace(reqBody.Author) == "" {
		log.Warn().Str("slug", slug).Msg("Author is required for adding a review")
		return nil, fmt.Errorf("author is required")
	}
	if reqBody.Rating < 1 || reqBody.Rating > 5 {
		log.Warn().Str("slug", slug).Int("rating", reqBody.Rating).Msg("Rating out of range")
		return nil, fmt.Errorf("rating must be between 1 and 5")
	}

	if _, err := s.agentRepo.FindOneBySlug(ctx, slug); err != nil {
		log.Warn().Err(err).Str("slug", slug).Msg("Review for unknown agent")
		return nil, fmt.Errorf("agent not found")
	}

	review := models.Review{
		ID:        primitive.NewObjectID(),
		AgentSlug: slug,
		Author:    strings.TrimSpace(reqBody.Author),
		Rating:    reqBody.Rating,
		Comment:   reqBody.Comment,
		CreatedAt: time.Now(),
	}

	created, err := s.reviewRepo.Create(ctx, &review)
	if err != nil {
		log.Error().Err(err).Str("slug", slug).Msg("Error inserting review")
		return nil, err
	}

	summary, err := s.reviewRepo.SummaryForAgent(ctx, slug)
	if err != nil {
		log.Error().Err(err).Str("slug", slug).Msg("Error recomputing rating summary")
		return created, nil
	}

	_, err = s.agentRepo.UpdateOne(ctx,
		bson.M{"slug": slug},
		bson.M{"$set": bson.M{
			"average_rating": summary.Average,
			"total_reviews":  summary.Count,
		}},
	)
	if err != nil {
		log.Error().Err(err).Str("slug", slug).Msg("Error updating agent rating aggregate")
	}

	metrics.ReviewsCreatedTotal.Inc()
	log.Info().Str("slug", slug).Str("reviewID", created.ID.Hex()).Msg("Review added successfully")
	return created, nil
}
