package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Comparison activity
	ComparisonTogglesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "app_comparison_toggles_total",
		Help: "Total number of comparison toggle operations.",
	}, []string{"action"}) // action: "added" or "removed"
	ComparisonCapacityRejectionsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "app_comparison_capacity_rejections_total",
		Help: "Total number of toggles rejected because the selection was full.",
	})
	ComparisonViewsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "app_comparison_views_total",
		Help: "Total number of comparison matrix loads.",
	})

	// Search activity
	SearchesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "app_searches_total",
		Help: "Total number of ranked search passes.",
	})
	SearchPoolRefreshesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "app_search_pool_refreshes_total",
		Help: "Total number of candidate pool refreshes from the database.",
	})

	// Catalog activity
	AgentsSubmittedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "app_agents_submitted_total",
		Help: "Total number of agent listings submitted.",
	})
	UpvotesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "app_upvotes_total",
		Help: "Total number of agent upvotes recorded.",
	})
	ReviewsCreatedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "app_reviews_created_total",
		Help: "Total number of reviews created.",
	})
	InsightsGeneratedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "app_insights_generated_total",
		Help: "Total number of comparison insights generated.",
	})
)
