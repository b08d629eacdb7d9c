package console

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"benlowery/agentctl/internal/domain"
)

func TestCreateCommand(t *testing.T) {
	var gotAuth string
	var gotBody domain.CreateCommand

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/v1/commands" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		gotAuth = r.Header.Get("Authorization")
		json.NewDecoder(r.Body).Decode(&gotBody)

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(wireCommand{
			ID:      "cmd-1",
			AgentID: gotBody.AgentID,
			Type:    gotBody.Type,
			Status:  "Pending",
		})
	}))
	defer server.Close()

	client := New(server.URL, "secret-token")
	command, err := client.CreateCommand(context.Background(), domain.CreateCommand{
		AgentID: "dev-1",
		Type:    "ping",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if gotAuth != "Bearer secret-token" {
		t.Errorf("expected bearer token header, got %q", gotAuth)
	}
	if gotBody.AgentID != "dev-1" || gotBody.Type != "ping" {
		t.Errorf("unexpected request body: %+v", gotBody)
	}
	if command.ID != "cmd-1" {
		t.Errorf("expected command ID cmd-1, got %q", command.ID)
	}
	if command.Status != domain.StatusPending {
		t.Errorf("expected normalized pending status, got %q", command.Status)
	}
}

func TestGetCommand_NormalizesLegacyStatuses(t *testing.T) {
	tests := []struct {
		wire string
		want domain.Status
	}{
		{"Completed", domain.StatusSucceeded},
		{"Success", domain.StatusSucceeded},
		{"Error", domain.StatusFailed},
		{"Failed", domain.StatusFailed},
		{"canceled", domain.StatusCancelled},
		{"in_progress", domain.StatusRunning},
	}

	for _, tt := range tests {
		t.Run(tt.wire, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/api/v1/commands/cmd-1" {
					t.Errorf("unexpected path: %s", r.URL.Path)
				}
				json.NewEncoder(w).Encode(wireCommand{
					ID:         "cmd-1",
					Status:     tt.wire,
					Result:     `{"latencyMs":12}`,
					DurationMs: 340,
				})
			}))
			defer server.Close()

			client := New(server.URL, "token")
			command, err := client.GetCommand(context.Background(), "cmd-1")
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if command.Status != tt.want {
				t.Errorf("expected %q normalized to %q, got %q", tt.wire, tt.want, command.Status)
			}
		})
	}
}

func TestGetCommand_Duration(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(wireCommand{ID: "cmd-1", Status: "succeeded", DurationMs: 1500})
	}))
	defer server.Close()

	client := New(server.URL, "token")
	command, err := client.GetCommand(context.Background(), "cmd-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if command.Duration.Milliseconds() != 1500 {
		t.Errorf("expected 1500ms duration, got %s", command.Duration)
	}
}

func TestGetCommand_EmptyID(t *testing.T) {
	client := New("http://unused", "token")
	if _, err := client.GetCommand(context.Background(), ""); err == nil {
		t.Fatal("expected error for empty command id")
	}
}

func TestErrorMapping(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		sentinel error
	}{
		{"Unauthorized", http.StatusUnauthorized, domain.ErrUnauthorized},
		{"Forbidden", http.StatusForbidden, domain.ErrUnauthorized},
		{"NotFound", http.StatusNotFound, domain.ErrNotFound},
		{"Conflict", http.StatusConflict, domain.ErrConflict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				json.NewEncoder(w).Encode(apiError{Error: "nope"})
			}))
			defer server.Close()

			client := New(server.URL, "token")
			_, err := client.GetCommand(context.Background(), "cmd-1")
			if !errors.Is(err, tt.sentinel) {
				t.Errorf("expected %v sentinel, got: %v", tt.sentinel, err)
			}
		})
	}
}

func TestErrorMapping_GenericServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := New(server.URL, "token")
	_, err := client.GetCommand(context.Background(), "cmd-1")
	if err == nil {
		t.Fatal("expected error for HTTP 500")
	}
	if errors.Is(err, domain.ErrNotFound) || errors.Is(err, domain.ErrUnauthorized) {
		t.Errorf("expected no sentinel for HTTP 500, got: %v", err)
	}
}

func TestListAgents(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/agents" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		json.NewEncoder(w).Encode([]domain.Agent{
			{ID: "dev-1", Name: "build box", Status: domain.AgentStatusOnline},
			{ID: "dev-2", Name: "staging", Status: domain.AgentStatusOffline},
		})
	}))
	defer server.Close()

	client := New(server.URL, "token")
	agents, err := client.ListAgents(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(agents) != 2 {
		t.Fatalf("expected 2 agents, got %d", len(agents))
	}
	if agents[0].ID != "dev-1" {
		t.Errorf("expected first agent dev-1, got %q", agents[0].ID)
	}
}

func TestListAgents_UnauthorizedIsNotRetried(t *testing.T) {
	var calls atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	client := New(server.URL, "expired")
	_, err := client.ListAgents(context.Background())
	if !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got: %v", err)
	}
	if calls.Load() != 1 {
		t.Errorf("expected a credential failure to not be retried, got %d calls", calls.Load())
	}
}

func TestGetAgent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/agents/dev-1" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		json.NewEncoder(w).Encode(domain.Agent{ID: "dev-1", Platform: "linux"})
	}))
	defer server.Close()

	client := New(server.URL, "token")
	agent, err := client.GetAgent(context.Background(), "dev-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if agent.Platform != "linux" {
		t.Errorf("expected platform linux, got %q", agent.Platform)
	}
}

func TestNew_TrimsTrailingSlash(t *testing.T) {
	client := New("https://console.example.com/", "token")
	if client.baseURL != "https://console.example.com" {
		t.Errorf("expected trailing slash trimmed, got %q", client.baseURL)
	}
}
