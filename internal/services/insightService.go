package services

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/googleai"

	"agentdex/internal/metrics"
	"agentdex/internal/models"
)

var apiKey = os.Getenv("API_KEY")

// LLMCompareAgents generates a short Markdown verdict over the compared
// agents. Purely advisory; callers degrade gracefully when no key is set.
func LLMCompareAgents(ctx context.Context, agents []models.Agent) (string, error) {
	if apiKey == "" {
		return "", errors.New("missing api key")
	}
	if len(agents) < 2 {
		return "", errors.New("need at least two agents to compare")
	}

	llm, err := googleai.New(ctx, googleai.WithAPIKey(apiKey), googleai.WithDefaultModel("gemini-2.5-flash"))
	if err != nil {
		return "", fmt.Errorf("failed to create Google AI LLM: %w", err)
	}

	var sb strings.Builder
	for _, a := range agents {
		rating := "unrated"
		if a.AverageRating != nil {
			rating = fmt.Sprintf("%.1f/5 over %d reviews", *a.AverageRating, a.TotalReviews)
		}
		fmt.Fprintf(&sb, "- Name: %s, Category: %s, Pricing: %s, Rating: %s, Features: %v, Integrations: %v\n",
			a.Name,
			a.Category,
			a.Pricing,
			rating,
			[]string(a.Features),
			[]string(a.Integrations))
	}

	prompt := fmt.Sprintf(
		"You are helping a user pick between AI agents from a directory. "+
			"Write a concise comparison verdict in Markdown: one short paragraph per agent on its strengths, "+
			"then a final recommendation of which agent suits which kind of user. Return only Markdown.\n\n"+
			"The agents being compared:\n%s",
		sb.String(),
	)

	verdict, err := llms.GenerateFromSinglePrompt(ctx, llm, prompt)
	if err != nil {
		return "", fmt.Errorf("failed to generate comparison verdict from LLM: %w", err)
	}

	metrics.InsightsGeneratedTotal.Inc()
	return verdict, nil
}
