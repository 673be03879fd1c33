package serverrun

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	cfgpkg "github.com/navikt/behovsakkumulator/internal/config"
	pebblestore "github.com/navikt/behovsakkumulator/internal/storage/pebble"
)

func TestOptionsDataDirFallback(t *testing.T) {
	opts := Options{DataDir: "", Config: cfgpkg.Default()}
	if opts.DataDir == "" {
		opts.DataDir = cfgpkg.DefaultDataDir()
	}
	if opts.DataDir == "" {
		t.Fatal("expected DataDir to be set after fallback")
	}
	if !filepath.IsAbs(opts.DataDir) && !filepath.HasPrefix(opts.DataDir, "./") {
		t.Fatalf("expected DataDir to be absolute or start with ./, got %s", opts.DataDir)
	}
}

func TestGetenvDefault(t *testing.T) {
	t.Setenv("TEST_SERVERRUN_VAR", "env_value")
	if got := getenvDefault("TEST_SERVERRUN_VAR", "default"); got != "env_value" {
		t.Fatalf("expected env_value, got %s", got)
	}
	if got := getenvDefault("TEST_SERVERRUN_VAR_UNSET", "default"); got != "default" {
		t.Fatalf("expected default, got %s", got)
	}
}

// TestRunIntegration starts a real accumulator and admin HTTP server against
// a temp data dir, then verifies a cancelled context brings it down cleanly.
func TestRunIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	tempDir := t.TempDir()

	opts := Options{
		DataDir:  tempDir,
		HTTPAddr: ":0",
		Fsync:    pebblestore.FsyncModeNever,
		Config:   cfgpkg.Default(),
	}

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	if err := Run(ctx, opts); err != nil && err != context.DeadlineExceeded && err != context.Canceled {
		t.Fatalf("expected clean shutdown, got %v", err)
	}
}
