package server

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.mongodb.org/mongo-driver/mongo"

	"agentdex/internal/handlers"
)

// MockDBService is a mock implementation of database.Service for testing
type MockDBService struct{}

func (m *MockDBService) Health() map[string]string {
	return map[string]string{"message": "Mock DB is healthy"}
}

func (m *MockDBService) Client() *mongo.Client {
	return nil // Not needed for this specific test
}

func (m *MockDBService) Close() error { return nil }

// MockKVService is a mock implementation of kvstore.Service for testing
type MockKVService struct{}

func (m *MockKVService) Get(ctx context.Context, key string) (string, bool, error) {
	return "", false, nil
}

func (m *MockKVService) Set(ctx context.Context, key, value string) error { return nil }

func (m *MockKVService) Publish(ctx context.Context, payload string) error { return nil }

func (m *MockKVService) StartForwarder(ctx context.Context, onMsg func(payload string)) error {
	return nil
}

func (m *MockKVService) Health() map[string]string {
	return map[string]string{"message": "Mock KV is healthy"}
}

func (m *MockKVService) Close() error { return nil }

func TestHandler(t *testing.T) {
	s := &Server{}
	s.db = &MockDBService{}
	s.kv = &MockKVService{}
	ch := handlers.NewCommonHandler(s.db, s.kv)
	server := httptest.NewServer(http.HandlerFunc(ch.HelloWorldHandler))
	defer server.Close()
	resp, err := http.Get(server.URL)
	if err != nil {
		t.Fatalf("error making request to server. Err: %v", err)
	}
	defer resp.Body.Close()
	// Assertions
	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected status OK; got %v", resp.Status)
	}
	expected := "{\"message\":\"Hello from Agentdex\"}\n"
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("error reading response body. Err: %v", err)
	}
	if expected != string(body) {
		t.Errorf("expected response body to be %v; got %v", expected, string(body))
	}
}
