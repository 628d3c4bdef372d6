package server

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"agentdex/internal/handlers"
	"agentdex/internal/middlewares"
)

func (s *Server) RegisterRoutes() http.Handler {
	r := mux.NewRouter()

	r.Use(middlewares.CorsMiddleware)
	r.Use(middlewares.RateLimit)
	r.Use(middlewares.NewPrometheusMiddleware().Instrument)

	ch := handlers.NewCommonHandler(s.db, s.kv)
	r.HandleFunc("/", ch.HelloWorldHandler)
	r.HandleFunc("/health", ch.HealthHandler)
	r.Handle("/metrics", promhttp.Handler())

	s.registerAgentRoutes(r)
	s.registerCategoryRoutes(r)
	s.registerReviewRoutes(r)
	s.registerComparisonRoutes(r)
	s.registerSearchRoutes(r)

	return r
}

func (s *Server) registerAgentRoutes(r *mux.Router) {
	ah := handlers.NewAgentHandler(s.agentService)

	r.HandleFunc("/api/agents", ah.GetAgents).Methods("GET", "OPTIONS")
	r.HandleFunc("/api/agents", ah.SubmitAgent).Methods("POST", "OPTIONS")
	r.HandleFunc("/api/agents/{slug}", ah.GetAgentBySlug).Methods("GET", "OPTIONS")
	r.HandleFunc("/api/agents/{slug}/upvote", ah.UpvoteAgent).Methods("POST", "OPTIONS")
	r.HandleFunc("/api/tags", ah.GetTags).Methods("GET", "OPTIONS")
}

func (s *Server) registerCategoryRoutes(r *mux.Router) {
	ch := handlers.NewCategoryHandler(s.categoryService)

	r.HandleFunc("/api/categories", ch.GetCategories).Methods("GET", "OPTIONS")
	r.HandleFunc("/api/categories", ch.AddCategory).Methods("POST", "OPTIONS")
	r.HandleFunc("/api/categories/{code}", ch.GetCategoryByCode).Methods("GET", "OPTIONS")
}

func (s *Server) registerReviewRoutes(r *mux.Router) {
	rh := handlers.NewReviewHandler(s.reviewService)

	r.HandleFunc("/api/agents/{slug}/reviews", rh.GetReviews).Methods("GET", "OPTIONS")
	r.HandleFunc("/api/agents/{slug}/reviews", rh.AddReview).Methods("POST", "OPTIONS")
}

func (s *Server) registerComparisonRoutes(r *mux.Router) {
	cph := handlers.NewComparisonHandler(s.comparisonService, s.compareService)

	r.HandleFunc("/api/comparison", cph.GetComparison).Methods("GET", "OPTIONS")
	r.HandleFunc("/api/comparison/toggle", cph.ToggleComparison).Methods("POST", "OPTIONS")
	r.HandleFunc("/api/comparison/view", cph.GetComparisonView).Methods("GET", "OPTIONS")
	r.HandleFunc("/api/comparison/insight", cph.GetComparisonInsight).Methods("GET", "OPTIONS")
	r.HandleFunc("/api/comparison/events", cph.ComparisonEvents).Methods("GET")
	r.HandleFunc("/api/comparison/{slug}", cph.RemoveFromComparison).Methods("DELETE", "OPTIONS")
}

func (s *Server) registerSearchRoutes(r *mux.Router) {
	sh := handlers.NewSearchHandler(s.searchService, s.liveSearchService)

	r.HandleFunc("/api/search", sh.Search).Methods("GET", "OPTIONS")
	r.HandleFunc("/api/search/live/query", sh.LiveSearchQuery).Methods("POST", "OPTIONS")
	r.HandleFunc("/api/search/live/events", sh.LiveSearchEvents).Methods("GET")
}
