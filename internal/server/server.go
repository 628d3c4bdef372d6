package server

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	_ "github.com/joho/godotenv/autoload"

	"agentdex/internal/database"
	"agentdex/internal/kvstore"
	"agentdex/internal/middlewares"
	"agentdex/internal/repositories"
	"agentdex/internal/services"
)

type Server struct {
	port       int
	httpServer *http.Server
	db         database.Service
	kv         kvstore.Service

	agentService      services.AgentService
	categoryService   services.CategoryService
	reviewService     services.ReviewService
	comparisonService services.ComparisonService
	compareService    services.CompareService
	searchService     services.SearchService
	liveSearchService services.LiveSearchService

	forwarderCancel context.CancelFunc
}

func NewServer() *Server {
	portStr := os.Getenv("PORT")
	port, err := strconv.Atoi(portStr)
	if err != nil {
		log.Fatal().Err(err).Str("port", portStr).Msgf("Invalid PORT environment variable. Using default 8080.")
		port = 8080
	}

	db := database.New()
	kv := kvstore.New()

	agentRepo := repositories.NewAgentRepository(db)
	categoryRepo := repositories.NewCategoryRepository(db)
	reviewRepo := repositories.NewReviewRepository(db)

	comparisonService := services.NewComparisonService(kv)
	searchService := services.NewSearchService(agentRepo)

	s := &Server{
		port:              port,
		db:                db,
		kv:                kv,
		agentService:      services.NewAgentService(agentRepo),
		categoryService:   services.NewCategoryService(categoryRepo),
		reviewService:     services.NewReviewService(reviewRepo, agentRepo),
		comparisonService: comparisonService,
		compareService:    services.NewCompareService(comparisonService, agentRepo),
		searchService:     searchService,
		liveSearchService: services.NewLiveSearchService(searchService, services.DefaultSearchDebounce),
	}

	forwarderCtx, cancel := context.WithCancel(context.Background())
	s.forwarderCancel = cancel
	if err := comparisonService.StartForwarder(forwarderCtx); err != nil {
		log.Fatal().Err(err).Msg("Failed to start comparison change forwarder")
	}

	go middlewares.CleanupVisitors()

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", s.port),
		Handler:      s.RegisterRoutes(),
		IdleTimeout:  time.Minute,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	return s
}

func (s *Server) Start() error {
	log.Info().Int("port", s.port).Msg("Starting server")
	return s.httpServer.ListenAndServe()
}

func (s *Server) GracefulShutdown(done chan bool) {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()

	log.Info().Msg("Shutting down gracefully, press Ctrl+C again to force")
	stop()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.httpServer.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown with error")
	}

	s.forwarderCancel()
	if err := s.kv.Close(); err != nil {
		log.Error().Err(err).Msg("Error closing key-value store")
	}
	if err := s.db.Close(); err != nil {
		log.Error().Err(err).Msg("Error closing database")
	}

	log.Info().Msg("Server exiting")
	done <- true
}
