package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestWatchReloadsOnWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pipeflow.yaml")
	if err := Save(path, Default()); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	changes := make(chan Config, 4)
	done := make(chan error, 1)
	go func() {
		done <- Watch(ctx, path, 20*time.Millisecond, nil, func(c Config) { changes <- c })
	}()

	// Give the watcher time to register before writing.
	time.Sleep(100 * time.Millisecond)

	bad := []byte("fps: -1\n")
	if err := os.WriteFile(path, bad, 0644); err != nil {
		t.Fatal(err)
	}
	time.Sleep(100 * time.Millisecond)

	cfg := Default()
	cfg.FPS = 12
	if err := Save(path, cfg); err != nil {
		t.Fatal(err)
	}

	select {
	case got := <-changes:
		if got.FPS != 12 {
			t.Errorf("expected reloaded fps 12, got %d", got.FPS)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("no reload within 5s")
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("watch returned %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("watch did not stop on cancel")
	}
}

func TestWatchMissingDir(t *testing.T) {
	err := Watch(context.Background(), filepath.Join(t.TempDir(), "nope", "cfg.yaml"), 0, nil, func(Config) {})
	if err == nil {
		t.Error("expected error for missing directory")
	}
}
