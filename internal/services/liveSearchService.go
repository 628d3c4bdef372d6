package services

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"agentdex/internal/models"
)

// DefaultSearchDebounce is how long a live query must sit still before a
// ranking pass runs. Each update cancels and restarts the timer.
const DefaultSearchDebounce = 400 * time.Millisecond

// LiveSearchService runs debounced, versioned search sessions. Every query
// update bumps the session version; a ranking pass only delivers its results
// if no newer update superseded it in the meantime, so a slow pass can never
// overwrite a newer one.
type LiveSearchService interface {
	// Open returns the session's update stream. The returned release function
	// must be called when the client disconnects.
	Open(profileID string) (<-chan models.SearchUpdate, func())
	// SetQuery schedules a debounced ranking pass for the session's query.
	SetQuery(profileID, query string)
}

type liveSearchServiceImpl struct {
	search   SearchService
	debounce time.Duration

	mu       sync.Mutex
	sessions map[string]*liveSession
}

type liveSession struct {
	mu      sync.Mutex
	timer   *time.Timer
	version uint64
	updates chan models.SearchUpdate
	refs    int
	closed  bool
}

func NewLiveSearchService(search SearchService, debounce time.Duration) LiveSearchService {
	if debounce <= 0 {
		debounce = DefaultSearchDebounce
	}
	return &liveSearchServiceImpl{
		search:   search,
		debounce: debounce,
		sessions: make(map[string]*liveSession),
	}
}

func (s *liveSearchServiceImpl) Open(profileID string) (<-chan models.SearchUpdate, func()) {
	s.mu.Lock()
	sess := s.sessions[profileID]
	if sess == nil {
		sess = &liveSession{updates: make(chan models.SearchUpdate, 8)}
		s.sessions[profileID] = sess
	}
	sess.refs++
	s.mu.Unlock()

	var once sync.Once
	release := func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			sess.refs--
			if sess.refs > 0 {
				return
			}
			delete(s.sessions, profileID)

			sess.mu.Lock()
			sess.closed = true
			if sess.timer != nil {
				sess.timer.Stop()
			}
			sess.mu.Unlock()
		})
	}
	return sess.updates, release
}

func (s *liveSearchServiceImpl) SetQuery(profileID, query string) {
	s.mu.Lock()
	sess := s.sessions[profileID]
	s.mu.Unlock()
	if sess == nil {
		log.Warn().Str("profileID", profileID).Msg("Live search query for a session with no open stream, dropping")
		return
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()
	if sess.closed {
		return
	}

	sess.version++
	version := sess.version
	if sess.timer != nil {
		sess.timer.Stop()
	}
	sess.timer = time.AfterFunc(s.debounce, func() {
		s.run(sess, version, query)
	})
}

func (s *liveSearchServiceImpl) run(sess *liveSession, version uint64, query string) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	results, err := s.search.Search(ctx, query)
	if err != nil {
		log.Error().Err(err).Str("query", query).Msg("Live search pass failed, delivering empty results")
		results = []models.Agent{}
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()
	// a newer query update superseded this pass while it ran
	if sess.closed || sess.version != version {
		return
	}

	select {
	case sess.updates <- models.SearchUpdate{Query: query, Version: version, Results: results}:
	default:
		log.Warn().Str("query", query).Msg("Live search client too slow, dropping update")
	}
}
