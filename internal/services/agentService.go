package services

import (
	"context"
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"agentdex/internal/metrics"
	"agentdex/internal/models"
	"agentdex/internal/repositories"
)

type AgentService interface {
	GetAgents(ctx context.Context, r *http.Request) ([]models.Agent, error)
	GetAgentBySlug(ctx context.Context, slug string) (*models.Agent, error)
	SubmitAgent(ctx context.Context, reqBody models.SubmitAgentRequestBody) (*models.Agent, error)
	UpvoteAgent(ctx context.Context, slug string) (*models.Agent, error)
	GetTags(ctx context.Context) ([]string, error)
}

type agentServiceImpl struct {
	agentRepo repositories.AgentRepository
}

func NewAgentService(agentRepo repositories.AgentRepository) AgentService {
	return &agentServiceImpl{agentRepo: agentRepo}
}

func buildAgentFilter(r *http.Request) bson.M {
	filter := bson.M{"status": models.AgentStatusActive}

	if status := r.URL.Query().Get("status"); status != "" {
		filter["status"] = status
	}
	if category := r.URL.Query().Get("category"); category != "" {
		filter["category"] = category
	}
	if pricing := r.URL.Query().Get("pricing"); pricing != "" {
		filter["pricing"] = pricing
	}
	if tag := r.URL.Query().Get("tag"); tag != "" {
		filter["tags"] = tag
	}
	return filter
}

func buildAgentSort(r *http.Request) bson.D {
	switch r.URL.Query().Get("sort") {
	case "rating":
		return bson.D{{Key: "average_rating", Value: -1}}
	case "newest":
		return bson.D{{Key: "created_at", Value: -1}}
	default:
		return bson.D{{Key: "total_upvotes", Value: -1}}
	}
}

func (s *agentServiceImpl) GetAgents(ctx context.Context, r *http.Request) ([]models.Agent, error) {
	filter := buildAgentFilter(r)

	var page int64 = 1
	if pageParam := r.URL.Query().Get("page"); pageParam != "" {
		parsed, err := strconv.ParseInt(pageParam, 10, 64)
		if err != nil || parsed < 1 {
			log.Warn().Str("pageParam", pageParam).Msg("Invalid page parameter")
			return nil, fmt.Errorf("page must be a positive integer")
		}
		page = parsed
	}

	var limit int64 = 20
	agents, err := s.agentRepo.Find(ctx, filter, limit, page, buildAgentSort(r))
	if err != nil {
		log.Error().Err(err).Interface("filter", filter).Msg("Error finding agents")
		return nil, err
	}

	log.Debug().Interface("filter", filter).Int("count", len(agents)).Msg("Retrieved agents")
	return agents, nil
}

func (s *agentServiceImpl) GetAgentBySlug(ctx context.Context, slug string) (*models.Agent, error) {
	agent, err := s.agentRepo.FindOneBySlug(ctx, slug)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			log.Warn().Str("slug", slug).Msg("Agent not found")
			return nil, fmt.Errorf("agent not found")
		}
		log.Error().Err(err).Str("slug", slug).Msg("Error finding agent by slug")
		return nil, fmt.Errorf("failed to retrieve agent")
	}
	return agent, nil
}

var slugPattern = regexp.MustCompile(`[^a-z0-9]+`)

func slugify(name string) string {
	slug := slugPattern.ReplaceAllString(strings.ToLower(name), "-")
	return strings.Trim(slug, "-")
}

// SubmitAgent creates a pending listing. Moderation happens elsewhere; the
// listing stays out of the public catalog until activated.
func (s *agentServiceImpl) SubmitAgent(ctx context.Context, reqBody models.SubmitAgentRequestBody) (*models.Agent, error) {
	if reqBody.Name == "" || reqBody.Category == "" {
		log.Warn().Msg("Name and Category are required for submitting an agent")
		return nil, fmt.Errorf("name and category are required")
	}

	slug := reqBody.Slug
	if slug == "" {
		slug = slugify(reqBody.Name)
	}
	if slug == "" || slug != slugify(slug) {
		log.Warn().Str("slug", reqBody.Slug).Msg("Invalid slug on agent submission")
		return nil, fmt.Errorf("slug must contain only lowercase letters, digits and hyphens")
	}

	if _, err := s.agentRepo.FindOneBySlug(ctx, slug); err == nil {
		log.Warn().Str("slug", slug).Msg("Duplicate slug on agent submission")
		return nil, fmt.Errorf("an agent with this slug already exists")
	} else if err != mongo.ErrNoDocuments {
		log.Error().Err(err).Str("slug", slug).Msg("Error checking slug uniqueness")
		return nil, fmt.Errorf("failed to verify slug: %w", err)
	}

	agent := models.Agent{
		ID:             primitive.NewObjectID(),
		Name:           reqBody.Name,
		Slug:           slug,
		Tagline:        reqBody.Tagline,
		Description:    reqBody.Description,
		Category:       reqBody.Category,
		Pricing:        reqBody.Pricing,
		Status:         models.AgentStatusPending,
		Features:       reqBody.Features,
		TechnicalSpecs: reqBody.TechnicalSpecs,
		Tags:           reqBody.Tags,
		Integrations:   reqBody.Integrations,
		UseCases:       reqBody.UseCases,
		WebsiteURL:     reqBody.WebsiteURL,
		RepoURL:        reqBody.RepoURL,
		TwitterURL:     reqBody.TwitterURL,
		CreatedAt:      primitive.NewDateTimeFromTime(time.Now()),
	}

	created, err := s.agentRepo.Create(ctx, &agent)
	if err != nil {
		log.Error().Err(err).Str("slug", slug).Msg("Error inserting agent")
		return nil, err
	}

	metrics.AgentsSubmittedTotal.Inc()
	log.Info().Str("slug", slug).Str("agentID", created.ID.Hex()).Msg("Agent submitted successfully")
	return created, nil
}

func (s *agentServiceImpl) UpvoteAgent(ctx context.Context, slug string) (*models.Agent, error) {
	result, err := s.agentRepo.UpdateOne(ctx,
		bson.M{"slug": slug},
		bson.M{"$inc": bson.M{"total_upvotes": 1}},
	)
	if err != nil {
		log.Error().Err(err).Str("slug", slug).Msg("Error upvoting agent")
		return nil, err
	}
	if result.MatchedCount == 0 {
		log.Warn().Str("slug", slug).Msg("Upvote for unknown agent")
		return nil, fmt.Errorf("agent not found")
	}

	metrics.UpvotesTotal.Inc()
	agent, err := s.agentRepo.FindOneBySlug(ctx, slug)
	if err != nil {
		log.Error().Err(err).Str("slug", slug).Msg("Error fetching upvoted agent")
		return nil, fmt.Errorf("failed to retrieve updated agent")
	}
	log.Debug().Str("slug", slug).Int("total_upvotes", agent.TotalUpvotes).Msg("Agent upvoted")
	return agent, nil
}

func (s *agentServiceImpl) GetTags(ctx context.Context) ([]string, error) {
	tags, err := s.agentRepo.DistinctTags(ctx)
	if err != nil {
		log.Error().Err(err).Msg("Error listing distinct tags")
		return nil, err
	}
	return tags, nil
}
