package services

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"agentdex/internal/models"
)

type fakeAgentRepo struct {
	mu       sync.Mutex
	agents   []models.Agent
	findErr  error
	findAlls int
}

func (f *fakeAgentRepo) Create(ctx context.Context, agent *models.Agent) (*models.Agent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.agents = append(f.agents, *agent)
	return agent, nil
}

func (f *fakeAgentRepo) Find(ctx context.Context, filter bson.M, limit, page int64, sort bson.D) ([]models.Agent, error) {
	return f.FindAll(ctx, filter, sort)
}

func (f *fakeAgentRepo) FindAll(ctx context.Context, filter bson.M, sort bson.D) ([]models.Agent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.findErr != nil {
		return nil, f.findErr
	}
	f.findAlls++
	return append([]models.Agent{}, f.agents...), nil
}

func (f *fakeAgentRepo) FindBySlugs(ctx context.Context, slugs []string) ([]models.Agent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.findErr != nil {
		return nil, f.findErr
	}
	want := make(map[string]struct{}, len(slugs))
	for _, s := range slugs {
		want[s] = struct{}{}
	}
	var out []models.Agent
	for _, a := range f.agents {
		if _, ok := want[a.Slug]; ok {
			out = append(out, a)
		}
	}
	return out, nil
}

func (f *fakeAgentRepo) FindOneBySlug(ctx context.Context, slug string) (*models.Agent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.agents {
		if f.agents[i].Slug == slug {
			return &f.agents[i], nil
		}
	}
	return nil, mongo.ErrNoDocuments
}

func (f *fakeAgentRepo) UpdateOne(ctx context.Context, filter bson.M, update bson.M) (*mongo.UpdateResult, error) {
	return &mongo.UpdateResult{MatchedCount: 1, ModifiedCount: 1}, nil
}

func (f *fakeAgentRepo) DistinctTags(ctx context.Context) ([]string, error) {
	return []string{}, nil
}

func rating(v float64) *float64 { return &v }

func compareFixtures() []models.Agent {
	return []models.Agent{
		{
			Name:          "ChatBuddy",
			Slug:          "chatbuddy",
			Tagline:       "Chat with anyone",
			Category:      "conversational_ai",
			Pricing:       "free",
			AverageRating: rating(4.5),
			TotalUpvotes:  120,
			Features:      models.StringList{"memory", "voice"},
			Tags:          models.StringList{"chat", "assistant"},
		},
		{
			Name:          "CodeAssist Pro",
			Slug:          "codeassist-pro",
			Tagline:       "Your pair programmer",
			Category:      "code_assistant",
			Pricing:       "paid",
			AverageRating: rating(4.5),
			TotalUpvotes:  250,
			Features:      models.StringList{"voice", "memory"},
			Tags:          models.StringList{"coding"},
		},
		{
			Name:         "TalkFlow",
			Slug:         "talkflow",
			Tagline:      "Conversations at scale",
			Category:     "conversational_ai",
			Pricing:      "freemium",
			TotalUpvotes: 80,
			Features:     models.StringList{"routing"},
		},
	}
}

func fixedSelectionService(t *testing.T, slugs ...string) ComparisonService {
	t.Helper()
	kv := newFakeKVStore()
	svc := NewComparisonService(kv)
	assert.NoError(t, svc.StartForwarder(context.Background()))
	for _, slug := range slugs {
		_, err := svc.Toggle(context.Background(), "p1", slug)
		assert.NoError(t, err)
	}
	return svc
}

func rowByKey(t *testing.T, view *models.ComparisonView, key string) models.ComparisonRow {
	t.Helper()
	for _, row := range view.Rows {
		if row.Key == key {
			return row
		}
	}
	t.Fatalf("no row with key %q", key)
	return models.ComparisonRow{}
}

func TestLoadComparison(t *testing.T) {
	ctx := context.Background()

	t.Run("empty selection yields the empty view", func(t *testing.T) {
		svc := NewCompareService(fixedSelectionService(t), &fakeAgentRepo{})

		view, err := svc.LoadComparison(ctx, "p1")
		assert.NoError(t, err)
		assert.Empty(t, view.Agents)
		assert.Empty(t, view.Rows)
		assert.Equal(t, comparisonSections, view.Sections)
	})

	t.Run("columns follow selection order, not fetch order", func(t *testing.T) {
		repo := &fakeAgentRepo{agents: compareFixtures()}
		svc := NewCompareService(fixedSelectionService(t, "talkflow", "chatbuddy"), repo)

		view, err := svc.LoadComparison(ctx, "p1")
		assert.NoError(t, err)
		assert.Len(t, view.Agents, 2)
		assert.Equal(t, "talkflow", view.Agents[0].Slug)
		assert.Equal(t, "chatbuddy", view.Agents[1].Slug)
	})

	t.Run("slugs with no matching agent are skipped", func(t *testing.T) {
		repo := &fakeAgentRepo{agents: compareFixtures()}
		svc := NewCompareService(fixedSelectionService(t, "chatbuddy", "deleted-agent"), repo)

		view, err := svc.LoadComparison(ctx, "p1")
		assert.NoError(t, err)
		assert.Len(t, view.Agents, 1)
		assert.Equal(t, "chatbuddy", view.Agents[0].Slug)
	})

	t.Run("fetch failure degrades to the empty view", func(t *testing.T) {
		repo := &fakeAgentRepo{findErr: errors.New("server selection timeout")}
		svc := NewCompareService(fixedSelectionService(t, "chatbuddy"), repo)

		view, err := svc.LoadComparison(ctx, "p1")
		assert.NoError(t, err)
		assert.Empty(t, view.Agents)
	})
}

func TestComparisonUniqueness(t *testing.T) {
	ctx := context.Background()
	repo := &fakeAgentRepo{agents: compareFixtures()}
	svc := NewCompareService(fixedSelectionService(t, "chatbuddy", "codeassist-pro", "talkflow"), repo)

	view, err := svc.LoadComparison(ctx, "p1")
	assert.NoError(t, err)
	assert.Len(t, view.Agents, 3)

	t.Run("value shared by two of three agents is not unique anywhere", func(t *testing.T) {
		row := rowByKey(t, view, "category")
		assert.False(t, row.Values[0].Unique, "chatbuddy shares conversational_ai with talkflow")
		assert.True(t, row.Values[1].Unique, "codeassist-pro is the only code_assistant")
		assert.False(t, row.Values[2].Unique)
	})

	t.Run("distinct values are all unique", func(t *testing.T) {
		row := rowByKey(t, view, "pricing")
		for i := range row.Values {
			assert.True(t, row.Values[i].Unique)
		}
	})

	t.Run("lists compare order-insensitively", func(t *testing.T) {
		// chatbuddy and codeassist-pro hold the same features in different order
		row := rowByKey(t, view, "features")
		assert.False(t, row.Values[0].Unique)
		assert.False(t, row.Values[1].Unique)
		assert.True(t, row.Values[2].Unique)
	})

	t.Run("missing ratings count as equal blanks", func(t *testing.T) {
		row := rowByKey(t, view, "average_rating")
		assert.False(t, row.Values[0].Unique, "4.5 is shared with codeassist-pro")
		assert.False(t, row.Values[1].Unique)
		assert.True(t, row.Values[2].Unique, "only talkflow is unrated")
	})
}

func TestRemoveFromComparisonReturnsUpdatedView(t *testing.T) {
	ctx := context.Background()
	repo := &fakeAgentRepo{agents: compareFixtures()}
	comparisons := fixedSelectionService(t, "chatbuddy", "talkflow")
	svc := NewCompareService(comparisons, repo)

	view, err := svc.RemoveFromComparison(ctx, "p1", "chatbuddy")
	assert.NoError(t, err)
	assert.Len(t, view.Agents, 1)
	assert.Equal(t, "talkflow", view.Agents[0].Slug)
	assert.Equal(t, []string{"talkflow"}, comparisons.GetSelection(ctx, "p1"))
}
