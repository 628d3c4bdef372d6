package services

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson"

	"agentdex/internal/metrics"
	"agentdex/internal/models"
	"agentdex/internal/repositories"
)

const (
	maxSearchResults = 100
	poolCacheKey     = "search_candidate_pool"
	poolCacheTTL     = time.Minute
)

// categoryKeywords widens substring matching beyond literal name/category
// text. Keyed by category code.
var categoryKeywords = map[string][]string{
	"conversational_ai": {"chatbot", "nlp", "voice", "conversation", "chat", "assistant"},
	"code_assistant":    {"coding", "programming", "developer", "ide", "autocomplete", "pair"},
	"image_generation":  {"image", "art", "design", "diffusion", "visual"},
	"data_analysis":     {"data", "analytics", "insights", "sql", "dashboard"},
	"automation":        {"workflow", "automation", "rpa", "pipeline", "integration"},
	"content_writing":   {"writing", "copywriting", "blog", "seo", "content"},
	"research":          {"research", "papers", "summarize", "knowledge", "literature"},
	"customer_support":  {"support", "helpdesk", "ticket", "faq"},
}

var pricingKeywords = map[string][]string{
	"free":         {"free", "no-cost", "gratis"},
	"freemium":     {"freemium", "free", "trial"},
	"paid":         {"paid", "premium"},
	"subscription": {"subscription", "monthly", "saas"},
	"open_source":  {"open-source", "oss", "self-hosted"},
}

var genericKeywords = []string{"ai", "artificial-intelligence", "agent"}

// SearchService ranks free-text queries against the active candidate pool
// entirely in memory. Rank is pure and deterministic; Search adds the cached
// pool fetch in front of it.
type SearchService interface {
	Search(ctx context.Context, query string) ([]models.Agent, error)
	Rank(query string, pool []models.Agent) []models.Agent
}

type searchServiceImpl struct {
	agentRepo repositories.AgentRepository
	pool      *gocache.Cache
	refreshMu sync.Mutex
}

func NewSearchService(agentRepo repositories.AgentRepository) SearchService {
	return &searchServiceImpl{
		agentRepo: agentRepo,
		pool:      gocache.New(poolCacheTTL, 5*time.Minute),
	}
}

func (s *searchServiceImpl) Search(ctx context.Context, query string) ([]models.Agent, error) {
	if len(tokenize(query)) == 0 {
		return []models.Agent{}, nil
	}

	pool, err := s.candidatePool(ctx)
	if err != nil {
		return nil, err
	}

	metrics.SearchesTotal.Inc()
	results := s.Rank(query, pool)
	log.Debug().Str("query", query).Int("pool", len(pool)).Int("results", len(results)).Msg("Ranked search pass")
	return results, nil
}

// Rank scores the pool for the query: any token substring-matching the
// candidate's name, category, or expanded keyword set qualifies it. Name
// matches rank first in pool order; the rest sort by descending upvotes with
// pool order breaking ties. Output is capped at maxSearchResults.
func (s *searchServiceImpl) Rank(query string, pool []models.Agent) []models.Agent {
	tokens := tokenize(query)
	if len(tokens) == 0 {
		return []models.Agent{}
	}

	type match struct {
		agent     models.Agent
		nameMatch bool
	}

	seen := make(map[string]struct{}, len(pool))
	var matches []match
	for _, a := range pool {
		if _, dup := seen[a.Slug]; dup {
			continue
		}
		seen[a.Slug] = struct{}{}

		name := strings.ToLower(a.Name)
		haystack := name + " " + strings.ToLower(a.Category) + " " + strings.Join(keywordsFor(a), " ")

		matched, nameMatch := false, false
		for _, token := range tokens {
			if strings.Contains(haystack, token) {
				matched = true
			}
			if strings.Contains(name, token) {
				nameMatch = true
			}
		}
		if matched {
			matches = append(matches, match{agent: a, nameMatch: nameMatch})
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].nameMatch != matches[j].nameMatch {
			return matches[i].nameMatch
		}
		if matches[i].nameMatch {
			return false
		}
		return matches[i].agent.TotalUpvotes > matches[j].agent.TotalUpvotes
	})

	if len(matches) > maxSearchResults {
		matches = matches[:maxSearchResults]
	}

	results := make([]models.Agent, len(matches))
	for i, m := range matches {
		results[i] = m.agent
	}
	return results
}

func tokenize(query string) []string {
	return strings.Fields(strings.ToLower(query))
}

func keywordsFor(a models.Agent) []string {
	keywords := append([]string{}, categoryKeywords[a.Category]...)
	keywords = append(keywords, pricingKeywords[a.Pricing]...)
	return append(keywords, genericKeywords...)
}

// candidatePool returns the active agents, fetched once per TTL window.
// Concurrent refreshes are coalesced so a cache expiry does not fan out into
// parallel full-collection scans.
func (s *searchServiceImpl) candidatePool(ctx context.Context) ([]models.Agent, error) {
	if cached, ok := s.pool.Get(poolCacheKey); ok {
		return cached.([]models.Agent), nil
	}

	s.refreshMu.Lock()
	defer s.refreshMu.Unlock()

	if cached, ok := s.pool.Get(poolCacheKey); ok {
		return cached.([]models.Agent), nil
	}

	agents, err := s.agentRepo.FindAll(ctx,
		bson.M{"status": models.AgentStatusActive},
		bson.D{{Key: "created_at", Value: -1}},
	)
	if err != nil {
		return nil, err
	}

	metrics.SearchPoolRefreshesTotal.Inc()
	s.pool.Set(poolCacheKey, agents, gocache.DefaultExpiration)
	log.Debug().Int("count", len(agents)).Msg("Refreshed search candidate pool")
	return agents, nil
}
