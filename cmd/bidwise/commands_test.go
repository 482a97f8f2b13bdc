package main

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/bidwise/bidwise/internal/api"
	"github.com/bidwise/bidwise/internal/models"
	"github.com/bidwise/bidwise/internal/storage"
)

const testToken = "test-token"

// newTestBackend serves the seeded development API and points the CLI's
// configuration at it through the environment.
func newTestBackend(t *testing.T) *storage.Store {
	t.Helper()
	db, err := storage.Open(":memory:")
	if err != nil {
		t.Fatalf("Open(:memory:) failed: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := seedIfEmpty(db, ""); err != nil {
		t.Fatalf("seedIfEmpty: %v", err)
	}

	srv := httptest.NewServer(api.NewBackendHandler(api.BackendDeps{
		Store:  db,
		Token:  testToken,
		Logger: slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil)),
	}))
	t.Cleanup(srv.Close)

	isolateConfig(t)
	t.Setenv("BIDWISE_API_BASE_URL", srv.URL)
	return db
}

func isolateConfig(t *testing.T) {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "config"))
	t.Setenv("XDG_DATA_HOME", filepath.Join(dir, "data"))
	t.Setenv("BIDWISE_STORAGE_DATA_DIR", filepath.Join(dir, "data", "bidwise"))
	t.Setenv("BIDWISE_API_TOKEN", testToken)
	t.Setenv("BIDWISE_LOG_LEVEL", "error")
	t.Setenv("NO_COLOR", "1")
}

// runCLI executes the root command with args and returns what it wrote to
// stdout and stderr.
func runCLI(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	oldOut, oldErr := stdout, stderr
	stdout, stderr = &out, &errOut
	t.Cleanup(func() {
		stdout, stderr = oldOut, oldErr
		jsonOutput, noColor, baseURL = false, false, ""
		bidsCmd.Flags().Set("ranked", "false")
		scoreCmd.Flags().Set("project", "")
		rootCmd.SetArgs(nil)
	})

	rootCmd.SetOut(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), errOut.String(), err
}

func TestVersionCommand(t *testing.T) {
	out, _, err := runCLI(t, "version")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, "bidwise version") {
		t.Errorf("output = %q", out)
	}
}

func TestProjectsList_JSON(t *testing.T) {
	newTestBackend(t)

	out, _, err := runCLI(t, "projects", "list", "--json")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var projects []models.Project
	if err := json.Unmarshal([]byte(out), &projects); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, out)
	}
	if len(projects) != 3 {
		t.Errorf("got %d projects, want 3", len(projects))
	}
}

func TestProjects_DefaultsToList(t *testing.T) {
	newTestBackend(t)

	out, _, err := runCLI(t, "projects")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, name := range []string{"Rural Schools Network - Region A", "Remote Learning Initiative C"} {
		if !strings.Contains(out, name) {
			t.Errorf("output missing %q:\n%s", name, out)
		}
	}
}

func TestProjectsCreate(t *testing.T) {
	db := newTestBackend(t)

	_, errOut, err := runCLI(t, "projects", "create", "Island Schools", "--schools", "4")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(errOut, "Created project Island Schools") {
		t.Errorf("stderr = %q", errOut)
	}

	p, err := db.GetProject("Island Schools")
	if err != nil {
		t.Fatalf("GetProject: %v", err)
	}
	if p.Status != "Open for Bids" || p.Schools != 4 {
		t.Errorf("project = %+v", p)
	}
}

func TestProjectsCreate_Duplicate(t *testing.T) {
	newTestBackend(t)

	_, _, err := runCLI(t, "projects", "create", "Urban Connectivity Project B")
	if err == nil {
		t.Fatal("expected error for duplicate project")
	}
	if !strings.Contains(err.Error(), "already exists") {
		t.Errorf("error = %q, want the server's conflict message", err.Error())
	}
}

func TestProjectsCreate_Validation(t *testing.T) {
	newTestBackend(t)

	_, _, err := runCLI(t, "projects", "create", "   ")
	if err == nil {
		t.Fatal("expected validation error")
	}
	if err.Error() != "Project name is required." {
		t.Errorf("error = %q", err.Error())
	}
}

func TestProjectsStatus(t *testing.T) {
	db := newTestBackend(t)

	if _, _, err := runCLI(t, "projects", "status", "Rural Schools Network - Region A", "Completed"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	p, err := db.GetProject("Rural Schools Network - Region A")
	if err != nil {
		t.Fatalf("GetProject: %v", err)
	}
	if p.Status != "Completed" {
		t.Errorf("status = %q, want Completed", p.Status)
	}

	_, _, err = runCLI(t, "projects", "status", "ghost", "Completed")
	if err == nil || err.Error() != "Project not found." {
		t.Errorf("error = %v, want Project not found.", err)
	}
}

func TestBidsCommand_Ranked(t *testing.T) {
	db := newTestBackend(t)
	if _, err := db.SaveBid(models.Bid{BidID: "BID_9", ProjectID: "Rural Schools Network - Region A", Provider: "WaveNet", AIScore: 9.1}); err != nil {
		t.Fatalf("SaveBid: %v", err)
	}

	out, _, err := runCLI(t, "bids", "Rural Schools Network - Region A", "--ranked", "--json")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var bids []models.Bid
	if err := json.Unmarshal([]byte(out), &bids); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, out)
	}
	if len(bids) != 3 || bids[0].BidID != "BID_9" {
		t.Errorf("ranked bids = %+v, want BID_9 first", bids)
	}
}

func TestProgressCommand(t *testing.T) {
	newTestBackend(t)

	out, _, err := runCLI(t, "progress", "Rural Schools Network - Region A")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, "%") {
		t.Errorf("output has no percentage:\n%s", out)
	}

	_, _, err = runCLI(t, "progress", "Urban Connectivity Project B")
	if err == nil || err.Error() != "Project progress not found." {
		t.Errorf("error = %v, want Project progress not found.", err)
	}
}

func TestTrafficCommand_JSON(t *testing.T) {
	newTestBackend(t)

	out, _, err := runCLI(t, "traffic", "--json")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var series []models.TrafficPoint
	if err := json.Unmarshal([]byte(out), &series); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, out)
	}
	if len(series) == 0 {
		t.Error("empty traffic series")
	}
}

func TestScoreCommand(t *testing.T) {
	isolateConfig(t)

	out, _, err := runCLI(t, "score")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, "8.2/10") {
		t.Errorf("output missing overall score:\n%s", out)
	}
}

func TestScoreCommand_WithProject(t *testing.T) {
	newTestBackend(t)

	out, _, err := runCLI(t, "score", "--project", "Rural Schools Network - Region A")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, "[Ranked Bids]") || !strings.Contains(out, "TechNet Solutions") {
		t.Errorf("output missing ranked bids:\n%s", out)
	}
}

func TestOverviewCommand(t *testing.T) {
	newTestBackend(t)

	out, _, err := runCLI(t, "overview")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, want := range []string{"Projects", "Bids", "Network Traffic", "Progress", "TechNet Solutions"} {
		if !strings.Contains(out, want) {
			t.Errorf("overview missing %q", want)
		}
	}
}

func TestOverviewCommand_NoResponse(t *testing.T) {
	isolateConfig(t)
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, _, err := runCLI(t, "overview", "--base-url", url)
	if err == nil {
		t.Fatal("expected error for stopped server")
	}
	if err.Error() != "No response received from the server." {
		t.Errorf("error = %q", err.Error())
	}
}

func TestBaseURLFlag_Invalid(t *testing.T) {
	isolateConfig(t)

	_, _, err := runCLI(t, "projects", "--base-url", "ftp://example.com")
	if err == nil {
		t.Fatal("expected error for non-http base URL")
	}
}

func TestConfigShow_HidesToken(t *testing.T) {
	isolateConfig(t)

	out, _, err := runCLI(t, "config", "show")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.Contains(out, testToken) {
		t.Errorf("config show leaked the token:\n%s", out)
	}
	if !strings.Contains(out, "api.base_url") || !strings.Contains(out, "api.token = set") {
		t.Errorf("output = %q", out)
	}
}

func TestSeedIfEmpty(t *testing.T) {
	db, err := storage.Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer db.Close()

	var errOut bytes.Buffer
	old := stderr
	stderr = &errOut
	defer func() { stderr = old }()

	seedPath := filepath.Join(t.TempDir(), "seed.yaml")
	if err := os.WriteFile(seedPath, []byte("projects:\n  - name: Island Schools\n    status: Open for Bids\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := seedIfEmpty(db, seedPath); err != nil {
		t.Fatalf("seedIfEmpty: %v", err)
	}
	if err := seedIfEmpty(db, seedPath); err != nil {
		t.Fatalf("second seedIfEmpty: %v", err)
	}

	projects, err := db.ListProjects()
	if err != nil {
		t.Fatalf("ListProjects: %v", err)
	}
	if len(projects) != 1 {
		t.Errorf("got %d projects, want 1 (second seed must be skipped)", len(projects))
	}
	if !strings.Contains(errOut.String(), "ignoring --seed") {
		t.Errorf("stderr = %q, want a skipped-seed warning", errOut.String())
	}
}

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug": slog.LevelDebug,
		"INFO":  slog.LevelInfo,
		"warn":  slog.LevelWarn,
		"error": slog.LevelError,
		"":      slog.LevelInfo,
	}
	for in, want := range tests {
		if got := parseLevel(in); got != want {
			t.Errorf("parseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestNoColorFlag(t *testing.T) {
	old := noColor
	defer func() { noColor = old }()

	noColor = true
	result := colorize(colorGreen, "test message")
	if strings.Contains(result, "\033[") {
		t.Errorf("colorize with noColor=true should not contain ANSI codes, got %q", result)
	}
	if result != "test message" {
		t.Errorf("result = %q, want %q", result, "test message")
	}

	noColor = false
	result = colorize(colorGreen, "test message")
	if !strings.Contains(result, "\033[") {
		t.Errorf("colorize with noColor=false should contain ANSI codes, got %q", result)
	}
}
