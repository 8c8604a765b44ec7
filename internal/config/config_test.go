package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

var allKeys = []string{
	"PORT", "ENV", "GRPC_HEALTH", "QUIZ_SOURCE", "QUIZ_FETCH_TIMEOUT",
	"SESSION_IDLE_TTL", "SESSION_SWEEP_INTERVAL", "LEAD_WEBHOOK_URL",
	"DATABASE_URL", "RESEND_API_KEY", "EMAIL_FROM_ADDR", "EMAIL_FROM_NAME",
	"WORKER_COUNT", "JOB_TIMEOUT", "MAX_ATTEMPTS",
}

// clearEnv blanks every variable Load reads and runs the test from an empty
// directory so a developer's .env cannot leak in.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range allKeys {
		t.Setenv(k, "")
	}
	t.Chdir(t.TempDir())
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	c, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if c.Port != "8080" || c.Env != "development" {
		t.Errorf("server defaults: port=%q env=%q", c.Port, c.Env)
	}
	if !c.GRPCHealth {
		t.Error("GRPC_HEALTH should default to true")
	}
	if c.QuizSource != "data/questions.json" {
		t.Errorf("QuizSource = %q", c.QuizSource)
	}
	if c.QuizFetchTimeout != 10*time.Second || c.SessionIdleTTL != 2*time.Hour {
		t.Errorf("durations: fetch=%s ttl=%s", c.QuizFetchTimeout, c.SessionIdleTTL)
	}
	if c.WorkerCount != 2 || c.MaxAttempts != 1 || c.JobTimeout != 15*time.Second {
		t.Errorf("worker defaults: %d/%d/%s", c.WorkerCount, c.MaxAttempts, c.JobTimeout)
	}
	if c.LeadWebhookURL != "" || c.DatabaseURL != "" || c.ResendAPIKey != "" {
		t.Error("sinks should be disabled by default")
	}
	if c.IsProduction() {
		t.Error("development is not production")
	}
}

func TestLoad_Overrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "9090")
	t.Setenv("ENV", "production")
	t.Setenv("GRPC_HEALTH", "false")
	t.Setenv("QUIZ_SOURCE", "https://cdn.example.com/questions.json")
	t.Setenv("SESSION_IDLE_TTL", "30m")
	t.Setenv("JOB_TIMEOUT", "45")
	t.Setenv("WORKER_COUNT", "4")
	t.Setenv("MAX_ATTEMPTS", "3")
	t.Setenv("LEAD_WEBHOOK_URL", "https://hooks.example.com/lead")

	c, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.Port != "9090" || !c.IsProduction() || c.GRPCHealth {
		t.Errorf("server: %+v", c)
	}
	if c.SessionIdleTTL != 30*time.Minute {
		t.Errorf("SessionIdleTTL = %s", c.SessionIdleTTL)
	}
	if c.JobTimeout != 45*time.Second {
		t.Errorf("bare integer should be seconds, got %s", c.JobTimeout)
	}
	if c.WorkerCount != 4 || c.MaxAttempts != 3 {
		t.Errorf("worker: %d/%d", c.WorkerCount, c.MaxAttempts)
	}
}

func TestValidate_ReportsEveryProblem(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "http")
	t.Setenv("WORKER_COUNT", "0")
	t.Setenv("MAX_ATTEMPTS", "-1")
	t.Setenv("LEAD_WEBHOOK_URL", "ftp://nope")
	t.Setenv("SESSION_IDLE_TTL", "-5m")

	_, err := Load()
	if err == nil {
		t.Fatal("expected a validation error")
	}
	for _, want := range []string{"PORT", "WORKER_COUNT", "MAX_ATTEMPTS", "LEAD_WEBHOOK_URL", "SESSION_IDLE_TTL"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error does not mention %s: %v", want, err)
		}
	}
}

func TestLoadDotEnv_RealEnvWins(t *testing.T) {
	clearEnv(t)
	dir, _ := os.Getwd()
	content := strings.Join([]string{
		"# comment",
		"",
		`export QUIZ_SOURCE="from-dotenv.yaml"`,
		"WORKER_COUNT='7'",
		"EMAIL_FROM_NAME=Dotenv Name",
		"not a pair",
	}, "\n")
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("EMAIL_FROM_NAME", "Real Name")
	// Unset so the .env value can fill them in.
	os.Unsetenv("QUIZ_SOURCE")
	os.Unsetenv("WORKER_COUNT")

	c, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.QuizSource != "from-dotenv.yaml" {
		t.Errorf("QuizSource = %q", c.QuizSource)
	}
	if c.WorkerCount != 7 {
		t.Errorf("WorkerCount = %d", c.WorkerCount)
	}
	if c.EmailFromName != "Real Name" {
		t.Errorf("real env should win, got %q", c.EmailFromName)
	}
}
