package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"

	"agentdex/internal/kvstore"
	"agentdex/internal/metrics"
	"agentdex/internal/models"
)

// ErrComparisonFull is returned when a profile tries to add a fourth agent to
// its comparison selection. The selection is left unchanged.
var ErrComparisonFull = errors.New("comparison selection is full")

// ComparisonService owns the persisted per-profile comparison selection: a
// duplicate-free, capacity-bounded, ordered set of agent slugs. Every mutation
// rewrites the whole value and publishes one change event, so subscribers in
// any process observe the new state. Concurrent writers are last-writer-wins.
type ComparisonService interface {
	// GetSelection never fails: a missing or corrupt stored value reads as an
	// empty selection.
	GetSelection(ctx context.Context, profileID string) []string
	Contains(ctx context.Context, profileID, slug string) bool
	// Toggle removes slug if present (added=false) or appends it if there is
	// room (added=true). A full selection yields ErrComparisonFull.
	Toggle(ctx context.Context, profileID, slug string) (bool, error)
	// Remove is idempotent; removing an absent slug is a no-op.
	Remove(ctx context.Context, profileID, slug string) error
	// Subscribe registers fn for every selection change of profileID, from
	// this process or any other. The returned function unsubscribes.
	Subscribe(profileID string, fn func(items []string)) func()
	// StartForwarder begins dispatching change events to subscribers. Call
	// once at startup; runs until ctx is cancelled.
	StartForwarder(ctx context.Context) error
}

type comparisonServiceImpl struct {
	kv kvstore.Service

	mu     sync.Mutex
	nextID int
	subs   map[string]map[int]func([]string)
}

func NewComparisonService(kv kvstore.Service) ComparisonService {
	return &comparisonServiceImpl{
		kv:   kv,
		subs: make(map[string]map[int]func([]string)),
	}
}

func selectionKey(profileID string) string {
	return "comparison:" + profileID
}

func (s *comparisonServiceImpl) GetSelection(ctx context.Context, profileID string) []string {
	raw, ok, err := s.kv.Get(ctx, selectionKey(profileID))
	if err != nil {
		log.Warn().Err(err).Str("profileID", profileID).Msg("Failed to read comparison selection, treating as empty")
		return []string{}
	}
	if !ok {
		return []string{}
	}

	var items []string
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		log.Warn().Err(err).Str("profileID", profileID).Msg("Corrupt comparison selection, treating as empty")
		return []string{}
	}
	return items
}

func (s *comparisonServiceImpl) Contains(ctx context.Context, profileID, slug string) bool {
	for _, item := range s.GetSelection(ctx, profileID) {
		if item == slug {
			return true
		}
	}
	return false
}

func (s *comparisonServiceImpl) Toggle(ctx context.Context, profileID, slug string) (bool, error) {
	items := s.GetSelection(ctx, profileID)

	for i, item := range items {
		if item == slug {
			updated := append(append([]string{}, items[:i]...), items[i+1:]...)
			if err := s.write(ctx, profileID, updated); err != nil {
				return false, err
			}
			metrics.ComparisonTogglesTotal.WithLabelValues("removed").Inc()
			log.Debug().Str("profileID", profileID).Str("slug", slug).Msg("Removed agent from comparison")
			return false, nil
		}
	}

	if len(items) >= models.MaxComparisonItems {
		metrics.ComparisonCapacityRejectionsTotal.Inc()
		log.Debug().Str("profileID", profileID).Str("slug", slug).Msg("Comparison selection full, toggle rejected")
		return false, ErrComparisonFull
	}

	if err := s.write(ctx, profileID, append(items, slug)); err != nil {
		return false, err
	}
	metrics.ComparisonTogglesTotal.WithLabelValues("added").Inc()
	log.Debug().Str("profileID", profileID).Str("slug", slug).Msg("Added agent to comparison")
	return true, nil
}

func (s *comparisonServiceImpl) Remove(ctx context.Context, profileID, slug string) error {
	items := s.GetSelection(ctx, profileID)

	updated := items[:0:0]
	for _, item := range items {
		if item != slug {
			updated = append(updated, item)
		}
	}
	if len(updated) == len(items) {
		return nil
	}

	if err := s.write(ctx, profileID, updated); err != nil {
		return err
	}
	metrics.ComparisonTogglesTotal.WithLabelValues("removed").Inc()
	return nil
}

// write persists the full selection as one atomic replace, then publishes a
// single change event. A publish failure is logged but does not undo the
// write; the selection itself is already durable.
func (s *comparisonServiceImpl) write(ctx context.Context, profileID string, items []string) error {
	if items == nil {
		items = []string{}
	}

	raw, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("failed to encode comparison selection: %w", err)
	}
	if err := s.kv.Set(ctx, selectionKey(profileID), string(raw)); err != nil {
		return fmt.Errorf("failed to store comparison selection: %w", err)
	}

	payload, err := json.Marshal(models.ComparisonChange{ProfileID: profileID, Items: items})
	if err != nil {
		return fmt.Errorf("failed to encode comparison change event: %w", err)
	}
	if err := s.kv.Publish(ctx, string(payload)); err != nil {
		log.Error().Err(err).Str("profileID", profileID).Msg("Failed to publish comparison change event")
	}
	return nil
}

func (s *comparisonServiceImpl) Subscribe(profileID string, fn func(items []string)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	id := s.nextID
	if s.subs[profileID] == nil {
		s.subs[profileID] = make(map[int]func([]string))
	}
	s.subs[profileID][id] = fn

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subs[profileID], id)
		if len(s.subs[profileID]) == 0 {
			delete(s.subs, profileID)
		}
	}
}

func (s *comparisonServiceImpl) StartForwarder(ctx context.Context) error {
	return s.kv.StartForwarder(ctx, func(payload string) {
		var change models.ComparisonChange
		if err := json.Unmarshal([]byte(payload), &change); err != nil {
			log.Warn().Err(err).Msg("Bad comparison change payload, dropping")
			return
		}
		s.dispatch(change)
	})
}

func (s *comparisonServiceImpl) dispatch(change models.ComparisonChange) {
	s.mu.Lock()
	fns := make([]func([]string), 0, len(s.subs[change.ProfileID]))
	for _, fn := range s.subs[change.ProfileID] {
		fns = append(fns, fn)
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn(change.Items)
	}
}
