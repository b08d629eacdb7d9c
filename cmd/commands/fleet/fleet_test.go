package fleet

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"benlowery/agentctl/internal/config"
	"benlowery/agentctl/internal/domain"
	"benlowery/agentctl/internal/services/dispatch"
	"benlowery/agentctl/internal/swrcache"
)

// fakeConsole implements domain.Console. Every dispatched command completes
// with the status configured for its agent (default succeeded).
type fakeConsole struct {
	mu            sync.Mutex
	agents        []domain.Agent
	created       []domain.CreateCommand
	nextID        int
	agentByCmd    map[string]string
	statusByAgent map[string]domain.Status
	resultByAgent map[string]string
}

func (f *fakeConsole) CreateCommand(ctx context.Context, req domain.CreateCommand) (*domain.Command, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.created = append(f.created, req)
	f.nextID++
	id := fmt.Sprintf("cmd-%d", f.nextID)
	if f.agentByCmd == nil {
		f.agentByCmd = make(map[string]string)
	}
	f.agentByCmd[id] = req.AgentID
	return &domain.Command{ID: id, AgentID: req.AgentID, Type: req.Type, Status: domain.StatusPending}, nil
}

func (f *fakeConsole) GetCommand(ctx context.Context, id string) (*domain.Command, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	agent := f.agentByCmd[id]
	status, ok := f.statusByAgent[agent]
	if !ok {
		status = domain.StatusSucceeded
	}
	return &domain.Command{ID: id, AgentID: agent, Status: status, Result: f.resultByAgent[agent]}, nil
}

func (f *fakeConsole) ListAgents(ctx context.Context) ([]domain.Agent, error) {
	return f.agents, nil
}

func (f *fakeConsole) GetAgent(ctx context.Context, id string) (*domain.Agent, error) {
	return nil, fmt.Errorf("not implemented")
}

func withTestEnv(t *testing.T, fake *fakeConsole) {
	t.Helper()
	config.SetPath(filepath.Join(t.TempDir(), "config.json"))
	t.Cleanup(config.ResetPath)

	origConnect := connect
	connect = func() (domain.Console, error) { return fake, nil }
	t.Cleanup(func() { connect = origConnect })

	// Force the plain line-by-line output path.
	origTerm := isTerminal
	isTerminal = func() bool { return false }
	t.Cleanup(func() { isTerminal = origTerm })

	origPoll := dispatch.PollInterval
	dispatch.PollInterval = 2 * time.Millisecond
	t.Cleanup(func() { dispatch.PollInterval = origPoll })

	// Root the directory cache in a temp dir with the sweep TTL policy.
	cacheDir := t.TempDir()
	origCache := directoryCache
	directoryCache = func() *swrcache.Cache {
		return swrcache.WithTTLs(cacheDir, 30*time.Second, 10*time.Minute)
	}
	t.Cleanup(func() { directoryCache = origCache })
}

func execRefresh(t *testing.T, args ...string) (stdout, stderr string) {
	t.Helper()
	var outBuf, errBuf bytes.Buffer
	cmd := NewCommand()
	cmd.SetOut(&outBuf)
	cmd.SetErr(&errBuf)
	cmd.SetArgs(append([]string{"refresh"}, args...))
	cmd.Execute()
	return outBuf.String(), errBuf.String()
}

func TestFleetRefresh_SecuritySweep(t *testing.T) {
	fake := &fakeConsole{
		agents: []domain.Agent{{ID: "web-1"}, {ID: "web-2"}, {ID: "db-1"}},
		resultByAgent: map[string]string{
			"web-1": `{"firewall_enabled":true,"antivirus_enabled":true,"threats_found":0}`,
			"web-2": `{"firewall_enabled":false,"antivirus_enabled":true,"threats_found":2}`,
			"db-1":  `{"firewall_enabled":true,"antivirus_enabled":false,"threats_found":0,"patch_level":"2026-08"}`,
		},
	}
	withTestEnv(t, fake)

	stdout, _ := execRefresh(t, "--no-cache")

	// Every agent gets exactly one snapshot command.
	if len(fake.created) != 3 {
		t.Fatalf("expected 3 dispatches, got %d", len(fake.created))
	}
	for _, req := range fake.created {
		if req.Type != "security_status" {
			t.Errorf("expected security_status, got %q", req.Type)
		}
	}

	if !strings.Contains(stdout, "3/3 succeeded") {
		t.Errorf("expected full-success summary, got:\n%s", stdout)
	}
	if !strings.Contains(stdout, "2 threats") {
		t.Errorf("expected decoded detail in output, got:\n%s", stdout)
	}
	if !strings.Contains(stdout, "patch level 2026-08") {
		t.Errorf("expected patch level in output, got:\n%s", stdout)
	}
}

func TestFleetRefresh_InventorySweep(t *testing.T) {
	fake := &fakeConsole{
		agents: []domain.Agent{{ID: "web-1"}},
		resultByAgent: map[string]string{
			"web-1": `{"os":"ubuntu 24.04","package_count":812,"pending_reboot":true}`,
		},
	}
	withTestEnv(t, fake)

	stdout, _ := execRefresh(t, "--inventory", "--no-cache")

	if len(fake.created) != 1 || fake.created[0].Type != "inventory_snapshot" {
		t.Fatalf("expected one inventory_snapshot dispatch, got %+v", fake.created)
	}
	if !strings.Contains(stdout, "812 packages") {
		t.Errorf("expected package count in output, got:\n%s", stdout)
	}
	if !strings.Contains(stdout, "reboot pending") {
		t.Errorf("expected reboot flag in output, got:\n%s", stdout)
	}
}

func TestFleetRefresh_PartialFailure(t *testing.T) {
	fake := &fakeConsole{
		agents:        []domain.Agent{{ID: "web-1"}, {ID: "web-2"}},
		statusByAgent: map[string]domain.Status{"web-2": domain.StatusFailed},
		resultByAgent: map[string]string{"web-2": "agent offline"},
	}
	withTestEnv(t, fake)

	stdout, _ := execRefresh(t, "--no-cache")

	if !strings.Contains(stdout, "1/2 succeeded") {
		t.Errorf("expected partial-success summary, got:\n%s", stdout)
	}
	if !strings.Contains(stdout, "agent offline") {
		t.Errorf("expected failure detail, got:\n%s", stdout)
	}
}

func TestFleetRefresh_MutuallyExclusiveFlags(t *testing.T) {
	fake := &fakeConsole{agents: []domain.Agent{{ID: "web-1"}}}
	withTestEnv(t, fake)

	_, stderr := execRefresh(t, "--security", "--inventory")

	if !strings.Contains(stderr, "mutually exclusive") {
		t.Errorf("expected flag conflict error, got:\n%s", stderr)
	}
	if len(fake.created) != 0 {
		t.Error("expected no dispatches on flag conflict")
	}
}

func TestFleetRefresh_EmptyDirectory(t *testing.T) {
	fake := &fakeConsole{}
	withTestEnv(t, fake)

	stdout, _ := execRefresh(t, "--no-cache")

	if !strings.Contains(stdout, "No agents registered.") {
		t.Errorf("expected empty-state message, got:\n%s", stdout)
	}
}
