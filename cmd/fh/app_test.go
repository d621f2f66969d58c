package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"go.uber.org/zap"

	"github.com/farmhand/farmhand/internal/config"
	"github.com/farmhand/farmhand/internal/remote/redisdoc"
	"github.com/farmhand/farmhand/internal/store"
)

// redisFarm writes a config pointing the remote at mr and returns globals
// for it.
func redisFarm(t *testing.T, mr *miniredis.Miniredis) *globals {
	t.Helper()
	t.Setenv("REDIS_PASSWORD", "")
	dir := t.TempDir()
	cfg := "local:\n  path: " + filepath.Join(dir, "farm.db") + "\n" +
		"remote:\n  kind: redis\n  redis:\n    addr: " + mr.Addr() + "\n    prefix: fh\n"
	path := filepath.Join(dir, "farmhand.yaml")
	if err := os.WriteFile(path, []byte(cfg), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return &globals{configPath: path, envPath: filepath.Join(dir, "missing.env"), log: zap.NewNop()}
}

func waitConnections(t *testing.T, mr *miniredis.Miniredis, want int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for mr.CurrentConnectionCount() != want {
		if time.Now().After(deadline) {
			t.Fatalf("redis connections = %d, want %d", mr.CurrentConnectionCount(), want)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestOpenFarm_CloudCloseReleasesRemote(t *testing.T) {
	mr := miniredis.RunT(t)
	seed := redisdoc.New(redisdoc.Options{Addr: mr.Addr(), Prefix: "fh"})
	if err := seed.Provision(context.Background()); err != nil {
		t.Fatalf("Provision: %v", err)
	}
	seed.Close()
	waitConnections(t, mr, 0)

	f, err := openFarm(context.Background(), redisFarm(t, mr))
	if err != nil {
		t.Fatalf("openFarm: %v", err)
	}
	if f.store.Mode() != store.ModeCloud {
		t.Fatalf("Mode = %q, want cloud", f.store.Mode())
	}
	if mr.CurrentConnectionCount() == 0 {
		t.Fatal("expected open redis connections while the farm is open")
	}

	if err := f.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	waitConnections(t, mr, 0)
}

func TestOpenFarm_UnboundRemoteClosedAtOnce(t *testing.T) {
	mr := miniredis.RunT(t)

	// No schema marker: the store falls back to local storage.
	f, err := openFarm(context.Background(), redisFarm(t, mr))
	if err != nil {
		t.Fatalf("openFarm: %v", err)
	}
	defer f.Close()
	if f.store.Mode() != store.ModeLocal {
		t.Fatalf("Mode = %q, want local", f.store.Mode())
	}
	waitConnections(t, mr, 0)
}

func TestOpenRemote_None(t *testing.T) {
	rs, closeRemote, err := openRemote(context.Background(), &config.Config{Remote: config.RemoteConfig{Kind: config.RemoteNone}}, zap.NewNop())
	if err != nil || rs != nil {
		t.Fatalf("openRemote(none) = %v, %v", rs, err)
	}
	closeRemote()
}
