package services

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"agentdex/internal/models"
)

// fakeKVStore is an in-memory stand-in for the redis-backed store. Publish
// dispatches synchronously to the registered forwarder callback, mirroring how
// redis echoes a publish back to subscribers in the same process.
type fakeKVStore struct {
	mu         sync.Mutex
	data       map[string]string
	onMsg      func(payload string)
	getErr     error
	publishErr error
}

func newFakeKVStore() *fakeKVStore {
	return &fakeKVStore{data: make(map[string]string)}
}

func (f *fakeKVStore) Get(ctx context.Context, key string) (string, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return "", false, f.getErr
	}
	val, ok := f.data[key]
	return val, ok, nil
}

func (f *fakeKVStore) Set(ctx context.Context, key, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.data[key] = value
	return nil
}

func (f *fakeKVStore) Publish(ctx context.Context, payload string) error {
	f.mu.Lock()
	onMsg := f.onMsg
	err := f.publishErr
	f.mu.Unlock()
	if err != nil {
		return err
	}
	if onMsg != nil {
		onMsg(payload)
	}
	return nil
}

func (f *fakeKVStore) StartForwarder(ctx context.Context, onMsg func(payload string)) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.onMsg = onMsg
	return nil
}

func (f *fakeKVStore) Health() map[string]string { return map[string]string{"message": "It's healthy"} }
func (f *fakeKVStore) Close() error              { return nil }

func newTestComparisonService(t *testing.T) (ComparisonService, *fakeKVStore) {
	t.Helper()
	kv := newFakeKVStore()
	svc := NewComparisonService(kv)
	assert.NoError(t, svc.StartForwarder(context.Background()))
	return svc, kv
}

func TestComparisonToggle(t *testing.T) {
	ctx := context.Background()

	t.Run("adds then removes the same slug", func(t *testing.T) {
		svc, _ := newTestComparisonService(t)

		added, err := svc.Toggle(ctx, "p1", "chatbuddy")
		assert.NoError(t, err)
		assert.True(t, added)
		assert.Equal(t, []string{"chatbuddy"}, svc.GetSelection(ctx, "p1"))

		added, err = svc.Toggle(ctx, "p1", "chatbuddy")
		assert.NoError(t, err)
		assert.False(t, added)
		assert.Empty(t, svc.GetSelection(ctx, "p1"))
	})

	t.Run("preserves insertion order", func(t *testing.T) {
		svc, _ := newTestComparisonService(t)

		for _, slug := range []string{"a", "b", "c"} {
			_, err := svc.Toggle(ctx, "p1", slug)
			assert.NoError(t, err)
		}
		assert.Equal(t, []string{"a", "b", "c"}, svc.GetSelection(ctx, "p1"))

		_, err := svc.Toggle(ctx, "p1", "b")
		assert.NoError(t, err)
		assert.Equal(t, []string{"a", "c"}, svc.GetSelection(ctx, "p1"))
	})

	t.Run("rejects a fourth slug and leaves the selection unchanged", func(t *testing.T) {
		svc, _ := newTestComparisonService(t)

		for _, slug := range []string{"a", "b", "c"} {
			_, err := svc.Toggle(ctx, "p1", slug)
			assert.NoError(t, err)
		}

		added, err := svc.Toggle(ctx, "p1", "d")
		assert.ErrorIs(t, err, ErrComparisonFull)
		assert.False(t, added)
		assert.Equal(t, []string{"a", "b", "c"}, svc.GetSelection(ctx, "p1"))

		// a slug already selected still toggles off at capacity
		added, err = svc.Toggle(ctx, "p1", "b")
		assert.NoError(t, err)
		assert.False(t, added)
		assert.Equal(t, []string{"a", "c"}, svc.GetSelection(ctx, "p1"))
	})

	t.Run("scopes selections per profile", func(t *testing.T) {
		svc, _ := newTestComparisonService(t)

		_, err := svc.Toggle(ctx, "p1", "a")
		assert.NoError(t, err)
		_, err = svc.Toggle(ctx, "p2", "b")
		assert.NoError(t, err)

		assert.Equal(t, []string{"a"}, svc.GetSelection(ctx, "p1"))
		assert.Equal(t, []string{"b"}, svc.GetSelection(ctx, "p2"))
	})
}

func TestComparisonRemove(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestComparisonService(t)

	_, err := svc.Toggle(ctx, "p1", "a")
	assert.NoError(t, err)
	_, err = svc.Toggle(ctx, "p1", "b")
	assert.NoError(t, err)

	assert.NoError(t, svc.Remove(ctx, "p1", "a"))
	assert.Equal(t, []string{"b"}, svc.GetSelection(ctx, "p1"))

	// removing an absent slug is a no-op
	assert.NoError(t, svc.Remove(ctx, "p1", "a"))
	assert.NoError(t, svc.Remove(ctx, "p1", "never-added"))
	assert.Equal(t, []string{"b"}, svc.GetSelection(ctx, "p1"))
}

func TestComparisonContains(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestComparisonService(t)

	assert.False(t, svc.Contains(ctx, "p1", "a"))

	_, err := svc.Toggle(ctx, "p1", "a")
	assert.NoError(t, err)
	assert.True(t, svc.Contains(ctx, "p1", "a"))
	assert.False(t, svc.Contains(ctx, "p1", "b"))
}

func TestComparisonGetSelectionDegradesToEmpty(t *testing.T) {
	ctx := context.Background()

	t.Run("corrupt stored value", func(t *testing.T) {
		svc, kv := newTestComparisonService(t)
		kv.data["comparison:p1"] = "{not json"

		assert.Empty(t, svc.GetSelection(ctx, "p1"))

		// the store stays writable afterwards
		added, err := svc.Toggle(ctx, "p1", "a")
		assert.NoError(t, err)
		assert.True(t, added)
		assert.Equal(t, []string{"a"}, svc.GetSelection(ctx, "p1"))
	})

	t.Run("store read error", func(t *testing.T) {
		svc, kv := newTestComparisonService(t)
		kv.getErr = errors.New("connection reset")

		assert.Empty(t, svc.GetSelection(ctx, "p1"))
	})
}

func TestComparisonSubscribeFanOut(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestComparisonService(t)

	var mu sync.Mutex
	var first, second [][]string
	var other int

	unsubFirst := svc.Subscribe("p1", func(items []string) {
		mu.Lock()
		defer mu.Unlock()
		first = append(first, items)
	})
	defer unsubFirst()
	unsubSecond := svc.Subscribe("p1", func(items []string) {
		mu.Lock()
		defer mu.Unlock()
		second = append(second, items)
	})
	unsubOther := svc.Subscribe("p2", func(items []string) {
		mu.Lock()
		defer mu.Unlock()
		other++
	})
	defer unsubOther()

	_, err := svc.Toggle(ctx, "p1", "a")
	assert.NoError(t, err)

	mu.Lock()
	assert.Equal(t, [][]string{{"a"}}, first, "each subscriber sees the change exactly once")
	assert.Equal(t, [][]string{{"a"}}, second)
	assert.Zero(t, other, "subscribers of other profiles stay silent")
	mu.Unlock()

	unsubSecond()
	_, err = svc.Toggle(ctx, "p1", "b")
	assert.NoError(t, err)

	mu.Lock()
	assert.Equal(t, [][]string{{"a"}, {"a", "b"}}, first)
	assert.Len(t, second, 1, "unsubscribed callback no longer fires")
	mu.Unlock()
}

func TestComparisonPublishFailureKeepsWrite(t *testing.T) {
	ctx := context.Background()
	svc, kv := newTestComparisonService(t)
	kv.publishErr = errors.New("channel down")

	added, err := svc.Toggle(ctx, "p1", "a")
	assert.NoError(t, err, "a publish failure must not fail the write")
	assert.True(t, added)
	assert.Equal(t, []string{"a"}, svc.GetSelection(ctx, "p1"))
}

func TestComparisonForwarderDropsBadPayloads(t *testing.T) {
	svc, kv := newTestComparisonService(t)

	fired := false
	unsub := svc.Subscribe("p1", func([]string) { fired = true })
	defer unsub()

	kv.onMsg("{not json")
	assert.False(t, fired)

	kv.onMsg(`{"profile_id":"p1","items":["a"]}`)
	assert.True(t, fired)
}

func TestComparisonChangePayloadRoundTrip(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestComparisonService(t)

	var got models.ComparisonChange
	unsub := svc.Subscribe("p1", func(items []string) {
		got = models.ComparisonChange{ProfileID: "p1", Items: items}
	})
	defer unsub()

	_, err := svc.Toggle(ctx, "p1", "a")
	assert.NoError(t, err)

	assert.Equal(t, models.ComparisonChange{ProfileID: "p1", Items: []string{"a"}}, got)
}
