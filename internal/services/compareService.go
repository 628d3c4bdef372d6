package services

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/rs/zerolog/log"

	"agentdex/internal/metrics"
	"agentdex/internal/models"
	"agentdex/internal/repositories"
)

// CompareService resolves a profile's selection to full agent records and
// builds the side-by-side matrix with per-field uniqueness highlighting.
type CompareService interface {
	LoadComparison(ctx context.Context, profileID string) (*models.ComparisonView, error)
	RemoveFromComparison(ctx context.Context, profileID, slug string) (*models.ComparisonView, error)
}

type compareServiceImpl struct {
	comparisons ComparisonService
	agentRepo   repositories.AgentRepository
}

func NewCompareService(comparisons ComparisonService, agentRepo repositories.AgentRepository) CompareService {
	return &compareServiceImpl{comparisons: comparisons, agentRepo: agentRepo}
}

var comparisonSections = []string{
	"overview",
	"ratings",
	"features",
	"technical_specs",
	"integrations",
	"use_cases",
	"links",
}

type comparisonField struct {
	key     string
	label   string
	section string
	value   func(a models.Agent) any
}

var comparisonFields = []comparisonField{
	{"tagline", "Tagline", "overview", func(a models.Agent) any { return a.Tagline }},
	{"category", "Category", "overview", func(a models.Agent) any { return a.Category }},
	{"pricing", "Pricing", "overview", func(a models.Agent) any { return a.Pricing }},
	{"tags", "Tags", "overview", func(a models.Agent) any { return []string(a.Tags) }},
	{"average_rating", "Average Rating", "ratings", func(a models.Agent) any {
		if a.AverageRating == nil {
			return nil
		}
		return *a.AverageRating
	}},
	{"total_reviews", "Total Reviews", "ratings", func(a models.Agent) any { return a.TotalReviews }},
	{"total_upvotes", "Total Upvotes", "ratings", func(a models.Agent) any { return a.TotalUpvotes }},
	{"features", "Features", "features", func(a models.Agent) any { return []string(a.Features) }},
	{"technical_specs", "Technical Specs", "technical_specs", func(a models.Agent) any { return []string(a.TechnicalSpecs) }},
	{"integrations", "Integrations", "integrations", func(a models.Agent) any { return []string(a.Integrations) }},
	{"use_cases", "Use Cases", "use_cases", func(a models.Agent) any { return []string(a.UseCases) }},
	{"website_url", "Website", "links", func(a models.Agent) any { return a.WebsiteURL }},
	{"repo_url", "Repository", "links", func(a models.Agent) any { return a.RepoURL }},
	{"twitter_url", "Twitter", "links", func(a models.Agent) any { return a.TwitterURL }},
}

// LoadComparison issues one batched fetch for all selected slugs and orders
// the columns to match the selection order. A fetch failure degrades to the
// empty view rather than surfacing an error to the page.
func (s *compareServiceImpl) LoadComparison(ctx context.Context, profileID string) (*models.ComparisonView, error) {
	selection := s.comparisons.GetSelection(ctx, profileID)
	metrics.ComparisonViewsTotal.Inc()
	if len(selection) == 0 {
		return emptyComparisonView(), nil
	}

	agents, err := s.agentRepo.FindBySlugs(ctx, selection)
	if err != nil {
		log.Error().Err(err).Str("profileID", profileID).Strs("selection", selection).Msg("Failed to load compared agents")
		return emptyComparisonView(), nil
	}

	bySlug := make(map[string]models.Agent, len(agents))
	for _, a := range agents {
		bySlug[a.Slug] = a
	}
	ordered := make([]models.Agent, 0, len(selection))
	for _, slug := range selection {
		if a, ok := bySlug[slug]; ok {
			ordered = append(ordered, a)
		}
	}

	log.Debug().Str("profileID", profileID).Int("count", len(ordered)).Msg("Loaded comparison view")
	return &models.ComparisonView{
		Agents:   ordered,
		Sections: comparisonSections,
		Rows:     buildComparisonRows(ordered),
	}, nil
}

func (s *compareServiceImpl) RemoveFromComparison(ctx context.Context, profileID, slug string) (*models.ComparisonView, error) {
	if err := s.comparisons.Remove(ctx, profileID, slug); err != nil {
		return nil, err
	}
	return s.LoadComparison(ctx, profileID)
}

func emptyComparisonView() *models.ComparisonView {
	return &models.ComparisonView{
		Agents:   []models.Agent{},
		Sections: comparisonSections,
		Rows:     []models.ComparisonRow{},
	}
}

func buildComparisonRows(agents []models.Agent) []models.ComparisonRow {
	rows := make([]models.ComparisonRow, 0, len(comparisonFields))
	for _, field := range comparisonFields {
		values := make([]any, len(agents))
		for i, a := range agents {
			values[i] = field.value(a)
		}
		flags := uniqueFlags(values)

		cells := make([]models.ComparisonCell, len(agents))
		for i := range agents {
			cells[i] = models.ComparisonCell{Value: values[i], Unique: flags[i]}
		}
		rows = append(rows, models.ComparisonRow{
			Key:     field.key,
			Label:   field.label,
			Section: field.section,
			Values:  cells,
		})
	}
	return rows
}

// uniqueFlags marks values held by exactly one of the compared agents. Lists
// compare by sorted-value equality, not element order.
func uniqueFlags(values []any) []bool {
	counts := make(map[string]int, len(values))
	prints := make([]string, len(values))
	for i, v := range values {
		prints[i] = fieldFingerprint(v)
		counts[prints[i]]++
	}

	flags := make([]bool, len(values))
	for i := range values {
		flags[i] = counts[prints[i]] == 1
	}
	return flags
}

func fieldFingerprint(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case []string:
		sorted := append([]string{}, val...)
		sort.Strings(sorted)
		return "[" + strings.Join(sorted, "\x1f") + "]"
	default:
		return fmt.Sprintf("%v", val)
	}
}
