package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"agentdex/internal/models"
)

type fakeSearchService struct {
	mu    sync.Mutex
	delay time.Duration
	calls []string
}

func (f *fakeSearchService) Search(ctx context.Context, query string) ([]models.Agent, error) {
	f.mu.Lock()
	f.calls = append(f.calls, query)
	delay := f.delay
	f.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return []models.Agent{{Slug: "result-for-" + query}}, nil
}

func (f *fakeSearchService) Rank(query string, pool []models.Agent) []models.Agent {
	return pool
}

func (f *fakeSearchService) searchCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func waitForUpdate(t *testing.T, updates <-chan models.SearchUpdate) models.SearchUpdate {
	t.Helper()
	select {
	case u := <-updates:
		return u
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for a search update")
		return models.SearchUpdate{}
	}
}

func assertNoUpdate(t *testing.T, updates <-chan models.SearchUpdate, within time.Duration) {
	t.Helper()
	select {
	case u := <-updates:
		t.Fatalf("unexpected update for query %q", u.Query)
	case <-time.After(within):
	}
}

func TestLiveSearchDeliversAfterDebounce(t *testing.T) {
	search := &fakeSearchService{}
	svc := NewLiveSearchService(search, 20*time.Millisecond)

	updates, release := svc.Open("p1")
	defer release()

	svc.SetQuery("p1", "chatbot")

	u := waitForUpdate(t, updates)
	assert.Equal(t, "chatbot", u.Query)
	assert.Equal(t, []string{"result-for-chatbot"}, resultSlugs(u.Results))
}

func TestLiveSearchDebouncesRapidUpdates(t *testing.T) {
	search := &fakeSearchService{}
	svc := NewLiveSearchService(search, 50*time.Millisecond)

	updates, release := svc.Open("p1")
	defer release()

	// three keystrokes inside one debounce window
	svc.SetQuery("p1", "c")
	svc.SetQuery("p1", "ch")
	svc.SetQuery("p1", "chat")

	u := waitForUpdate(t, updates)
	assert.Equal(t, "chat", u.Query, "only the final query runs")
	assertNoUpdate(t, updates, 150*time.Millisecond)
	assert.Equal(t, 1, search.searchCount(), "superseded queries never reach the ranker")
}

func TestLiveSearchDiscardsStalePasses(t *testing.T) {
	search := &fakeSearchService{delay: 100 * time.Millisecond}
	svc := NewLiveSearchService(search, 10*time.Millisecond)

	updates, release := svc.Open("p1")
	defer release()

	svc.SetQuery("p1", "old")
	// let the slow pass for "old" start, then supersede it
	time.Sleep(40 * time.Millisecond)
	svc.SetQuery("p1", "new")

	u := waitForUpdate(t, updates)
	assert.Equal(t, "new", u.Query, "a pass finishing after a newer update must be dropped")
	assertNoUpdate(t, updates, 150*time.Millisecond)
	assert.Equal(t, 2, search.searchCount())
}

func TestLiveSearchQueryWithoutSession(t *testing.T) {
	search := &fakeSearchService{}
	svc := NewLiveSearchService(search, 10*time.Millisecond)

	svc.SetQuery("p1", "chat")

	time.Sleep(50 * time.Millisecond)
	assert.Zero(t, search.searchCount())
}

func TestLiveSearchRelease(t *testing.T) {
	search := &fakeSearchService{}
	svc := NewLiveSearchService(search, 10*time.Millisecond)

	_, release := svc.Open("p1")
	release()
	release() // safe to call twice

	svc.SetQuery("p1", "chat")
	time.Sleep(50 * time.Millisecond)
	assert.Zero(t, search.searchCount(), "a released session schedules nothing")
}

func TestLiveSearchSharedSessionRefs(t *testing.T) {
	search := &fakeSearchService{}
	svc := NewLiveSearchService(search, 10*time.Millisecond)

	updates, releaseFirst := svc.Open("p1")
	_, releaseSecond := svc.Open("p1")

	releaseSecond()
	svc.SetQuery("p1", "chat")

	u := waitForUpdate(t, updates)
	assert.Equal(t, "chat", u.Query, "session stays open while one stream remains")

	releaseFirst()
}
