package cmds

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"benlowery/agentctl/internal/cmdstore"
	"benlowery/agentctl/internal/domain"
	"benlowery/agentctl/internal/services/dispatch"
)

// fakeConsole implements domain.Console; GetCommand always reports the
// configured terminal status.
type fakeConsole struct {
	status domain.Status
	result string
	gets   int
}

func (f *fakeConsole) CreateCommand(ctx context.Context, req domain.CreateCommand) (*domain.Command, error) {
	return nil, fmt.Errorf("not implemented")
}

func (f *fakeConsole) GetCommand(ctx context.Context, id string) (*domain.Command, error) {
	f.gets++
	return &domain.Command{ID: id, AgentID: "dev-1", Status: f.status, Result: f.result}, nil
}

func (f *fakeConsole) ListAgents(ctx context.Context) ([]domain.Agent, error) {
	return nil, fmt.Errorf("not implemented")
}

func (f *fakeConsole) GetAgent(ctx context.Context, id string) (*domain.Agent, error) {
	return nil, fmt.Errorf("not implemented")
}

// withTestStore points the local store at a temp database and seeds it.
func withTestStore(t *testing.T, records ...cmdstore.Record) {
	t.Helper()
	cmdstore.SetPath(filepath.Join(t.TempDir(), "agentctl.db"))
	t.Cleanup(cmdstore.ResetPath)

	if len(records) == 0 {
		return
	}
	repo, err := cmdstore.Open()
	if err != nil {
		t.Fatalf("failed to open test store: %v", err)
	}
	defer repo.Close()
	for i := range records {
		if err := repo.Save(&records[i]); err != nil {
			t.Fatalf("failed to seed record: %v", err)
		}
	}
}

func withFakeConsole(t *testing.T, fake *fakeConsole) {
	t.Helper()
	orig := connect
	connect = func() (domain.Console, error) { return fake, nil }
	t.Cleanup(func() { connect = orig })

	origPoll := dispatch.PollInterval
	dispatch.PollInterval = 2 * time.Millisecond
	t.Cleanup(func() { dispatch.PollInterval = origPoll })
}

func execCommands(t *testing.T, args ...string) (stdout, stderr string) {
	t.Helper()
	var outBuf, errBuf bytes.Buffer
	cmd := NewCommand()
	cmd.SetOut(&outBuf)
	cmd.SetErr(&errBuf)
	cmd.SetArgs(args)
	cmd.Execute()
	return outBuf.String(), errBuf.String()
}

func TestCommands_NoPending(t *testing.T) {
	withTestStore(t)

	stdout, _ := execCommands(t)

	if !strings.Contains(stdout, "No pending commands.") {
		t.Errorf("expected empty-state message, got:\n%s", stdout)
	}
}

func TestCommands_ListsPending(t *testing.T) {
	withTestStore(t,
		cmdstore.Record{CommandID: "cmd-1", AgentID: "dev-1", CommandType: "pkg_install", Status: "running"},
		cmdstore.Record{CommandID: "cmd-2", AgentID: "dev-2", CommandType: "ping", Status: "succeeded"},
	)

	stdout, stderr := execCommands(t)

	if !strings.Contains(stdout, "dev-1") || !strings.Contains(stdout, "pkg_install") {
		t.Errorf("expected pending command in output, got:\n%s", stdout)
	}
	if strings.Contains(stdout, "dev-2") {
		t.Errorf("expected terminal command to be hidden without --all, got:\n%s", stdout)
	}
	if !strings.Contains(stderr, "--resume") {
		t.Errorf("expected resume hint on stderr, got:\n%s", stderr)
	}
}

func TestCommands_AllIncludesTerminal(t *testing.T) {
	withTestStore(t,
		cmdstore.Record{CommandID: "cmd-1", AgentID: "dev-1", CommandType: "ping", Status: "running"},
		cmdstore.Record{CommandID: "cmd-2", AgentID: "dev-2", CommandType: "ping", Status: "failed", ErrorMessage: "no route to host"},
	)

	stdout, _ := execCommands(t, "--all")

	if !strings.Contains(stdout, "dev-1") || !strings.Contains(stdout, "dev-2") {
		t.Errorf("expected all commands in output, got:\n%s", stdout)
	}
	if !strings.Contains(stdout, "no route to host") {
		t.Errorf("expected failure text alongside failed status, got:\n%s", stdout)
	}
}

func TestCommands_ResumeNoPending(t *testing.T) {
	withTestStore(t)

	stdout, _ := execCommands(t, "--resume")

	if !strings.Contains(stdout, "No pending commands to resume.") {
		t.Errorf("expected empty-state message, got:\n%s", stdout)
	}
}

func TestCommands_ResumeCompletesPending(t *testing.T) {
	withTestStore(t,
		cmdstore.Record{CommandID: "cmd-7", AgentID: "dev-1", CommandType: "pkg_install", Status: "running"},
	)
	fake := &fakeConsole{status: domain.StatusSucceeded}
	withFakeConsole(t, fake)

	stdout, stderr := execCommands(t, "--resume")

	if fake.gets == 0 {
		t.Error("expected the console to be polled during resume")
	}
	if !strings.Contains(stderr, "Resuming 1 pending command(s)") {
		t.Errorf("expected resume progress on stderr, got:\n%s", stderr)
	}
	if !strings.Contains(stdout, "pkg_install completed successfully") {
		t.Errorf("expected completion message on stdout, got:\n%s", stdout)
	}

	// The local record must be finalized so the next listing is clean.
	repo, err := cmdstore.Open()
	if err != nil {
		t.Fatalf("failed to reopen store: %v", err)
	}
	defer repo.Close()
	pending, _ := repo.ListPending()
	if len(pending) != 0 {
		t.Errorf("expected no pending records after resume, got %d", len(pending))
	}
}

func TestCommands_ResumeReportsFailure(t *testing.T) {
	withTestStore(t,
		cmdstore.Record{CommandID: "cmd-8", AgentID: "dev-1", CommandType: "pkg_update", Status: "sent"},
	)
	fake := &fakeConsole{status: domain.StatusFailed, result: "dependency conflict"}
	withFakeConsole(t, fake)

	stdout, _ := execCommands(t, "--resume")

	if !strings.Contains(stdout, "finished with status failed") {
		t.Errorf("expected failure status on stdout, got:\n%s", stdout)
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{30 * time.Second, "30s"},
		{5 * time.Minute, "5m"},
		{3 * time.Hour, "3h"},
	}
	for _, tt := range tests {
		if got := formatDuration(tt.d); got != tt.want {
			t.Errorf("formatDuration(%s) = %q, want %q", tt.d, got, tt.want)
		}
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("short", 40); got != "short" {
		t.Errorf("expected short string untouched, got %q", got)
	}
	long := strings.Repeat("x", 50)
	got := truncate(long, 40)
	if len(got) != 40 || !strings.HasSuffix(got, "...") {
		t.Errorf("expected 40-char truncation with ellipsis, got %q (len %d)", got, len(got))
	}
}
