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

type AgentRepository interface {
	Create(ctx context.Context, agent *models.Agent) (*models.Agent, error)
	Find(ctx context.Context, filter bson.M, limit, page int64, sort bson.D) ([]models.Agent, error)
	FindAll(ctx context.Context, filter bson.M, sort bson.D) ([]models.Agent, error)
	FindBySlugs(ctx context.Context, slugs []string) ([]models.Agent, error)
	FindOneBySlug(ctx context.Context, slug string) (*models.Agent, error)
	UpdateOne(ctx context.Context, filter bson.M, update bson.M) (*mongo.UpdateResult, error)
	DistinctTags(ctx context.Context) ([]string, error)
}

type agentRepository struct {
	db database.Service
}

func NewAgentRepository(db database.Service) AgentRepository {
	return &agentRepository{db: db}
}

func (r *agentRepository) collection() *mongo.Collection {
	return r.db.Client().Database(database.Name).Collection("agents")
}

func (r *agentRepository) Create(ctx context.Context, agent *models.Agent) (*models.Agent, error) {
	queryType := "create"
	repository := "agent"
	status := "success"
	timer := prometheus.NewTimer(prometheus.ObserverFunc(func(v float64) {
		utils.DBQueryDurationSeconds.WithLabelValues(queryType, repository, status).Observe(v)
	}))
	defer timer.ObserveDuration()

	result, err := r.collection().InsertOne(ctx, agent)
	if err != nil {
		status = "error"
		utils.DBQueryErrorsTotal.WithLabelValues(queryType, repository).Inc()
		return nil, fmt.Errorf("failed to add agent: %w", err)
	}
	agent.ID = result.InsertedID.(primitive.ObjectID)
	return agent, nil
}

func (r *agentRepository) Find(ctx context.Context, filter bson.M, limit, page int64, sort bson.D) ([]models.Agent, error) {
	queryType := "find"
	repository := "agent"
	status := "success"
	timer := prometheus.NewTimer(prometheus.ObserverFunc(func(v float64) {
		utils.DBQueryDurationSeconds.WithLabelValues(queryType, repository, status).Observe(v)
	}))
	defer timer.ObserveDuration()

	opts := options.Find().SetLimit(limit).SetSkip((page - 1) * limit)
	if len(sort) > 0 {
		opts.SetSort(sort)
	}

	cursor, err := r.collection().Find(ctx, filter, opts)
	if err != nil {
		status = "error"
		utils.DBQueryErrorsTotal.WithLabelValues(queryType, repository).Inc()
		return nil, fmt.Errorf("failed to retrieve agents: %w", err)
	}
	defer cursor.Close(ctx)

	var agents []models.Agent
	if err := cursor.All(ctx, &agents); err != nil {
		status = "error"
		utils.DBQueryErrorsTotal.WithLabelValues(queryType, repository).Inc()
		return nil, fmt.Errorf("error decoding agents: %w", err)
	}
	return agents, nil
}

// FindAll returns the whole matching set without pagination. Used for the
// search candidate pool, which is ranked in memory.
func (r *agentRepository) FindAll(ctx context.Context, filter bson.M, sort bson.D) ([]models.Agent, error) {
	queryType := "findAll"
	repository := "agent"
	status := "success"
	timer := prometheus.NewTimer(prometheus.ObserverFunc(func(v float64) {
		utils.DBQueryDurationSeconds.WithLabelValues(queryType, repository, status).Observe(v)
	}))
	defer timer.ObserveDuration()

	opts := options.Find()
	if len(sort) > 0 {
		opts.SetSort(sort)
	}

	cursor, err := r.collection().Find(ctx, filter, opts)
	if err != nil {
		status = "error"
		utils.DBQueryErrorsTotal.WithLabelValues(queryType, repository).Inc()
		return nil, fmt.Errorf("failed to retrieve agents: %w", err)
	}
	defer cursor.Close(ctx)

	var agents []models.Agent
	if err := cursor.All(ctx, &agents); err != nil {
		status = "error"
		utils.DBQueryErrorsTotal.WithLabelValues(queryType, repository).Inc()
		return nil, fmt.Errorf("error decoding agents: %w", err)
	}
	return agents, nil
}

// FindBySlugs batches all requested slugs into a single query. Result order
// is whatever the cursor yields; callers that care about order re-sort.
func (r *agentRepository) FindBySlugs(ctx context.Context, slugs []string) ([]models.Agent, error) {
	queryType := "findBySlugs"
	repository := "agent"
	status := "success"
	timer := prometheus.NewTimer(prometheus.ObserverFunc(func(v float64) {
		utils.DBQueryDurationSeconds.WithLabelValues(queryType, repository, status).Observe(v)
	}))
	defer timer.ObserveDuration()

	cursor, err := r.collection().Find(ctx, bson.M{"slug": bson.M{"$in": slugs}})
	if err != nil {
		status = "error"
		utils.DBQueryErrorsTotal.WithLabelValues(queryType, repository).Inc()
		return nil, fmt.Errorf("failed to retrieve agents by slugs: %w", err)
	}
	defer cursor.Close(ctx)

	var agents []models.Agent
	if err := cursor.All(ctx, &agents); err != nil {
		status = "error"
		utils.DBQueryErrorsTotal.WithLabelValues(queryType, repository).Inc()
		return nil, fmt.Errorf("error decoding agents: %w", err)
	}
	return agents, nil
}

func (r *agentRepository) FindOneBySlug(ctx context.Context, slug string) (*models.Agent, error) {
	queryType := "findOneBySlug"
	repository := "agent"
	status := "success"
	timer := prometheus.NewTimer(prometheus.ObserverFunc(func(v float64) {
		utils.DBQueryDurationSeconds.WithLabelValues(queryType, repository, status).Observe(v)
	}))
	defer timer.ObserveDuration()

	var agent models.Agent
	err := r.collection().FindOne(ctx, bson.M{"slug": slug}).Decode(&agent)
	if err != nil {
		status = "error"
		utils.DBQueryErrorsTotal.WithLabelValues(queryType, repository).Inc()
		return nil, err
	}
	return &agent, nil
}

func (r *agentRepository) UpdateOne(ctx context.Context, filter bson.M, update bson.M) (*mongo.UpdateResult, error) {
	queryType := "updateOne"
	repository := "agent"
	status := "success"
	timer := prometheus.NewTimer(prometheus.ObserverFunc(func(v float64) {
		utils.DBQueryDurationSeconds.WithLabelValues(queryType, repository, status).Observe(v)
	}))
	defer timer.ObserveDuration()

	result, err := r.collection().UpdateOne(ctx, filter, update)
	if err != nil {
		status = "error"
		utils.DBQueryErrorsTotal.WithLabelValues(queryType, repository).Inc()
		return nil, fmt.Errorf("failed to update agent: %w", err)
	}
	return result, nil
}

func (r *agentRepository) DistinctTags(ctx context.Context) ([]string, error) {
	queryType := "distinctTags"
	repository := "agent"
	status := "success"
	timer := prometheus.NewTimer(prometheus.ObserverFunc(func(v float64) {
		utils.DBQueryDurationSeconds.WithLabelValues(queryType, repository, status).Observe(v)
	}))
	defer timer.ObserveDuration()

	values, err := r.collection().Distinct(ctx, "tags", bson.M{"status": models.AgentStatusActive})
	if err != nil {
		status = "error"
		utils.DBQueryErrorsTotal.WithLabelValues(queryType, repository).Inc()
		return nil, fmt.Errorf("failed to list distinct tags: %w", err)
	}

	tags := make([]string, 0, len(values))
	for _, v := range values {
		if tag, ok := v.(string); ok && tag != "" {
			tags = append(tags, tag)
		}
	}
	return tags, nil
}
