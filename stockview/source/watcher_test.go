package source_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/invlab/stockview/stockview/source"
)

func TestWatcherNotifiesOnChange(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.json")
	if err := os.WriteFile(path, []byte(`{"resources":{}}`), 0644); err != nil {
		t.Fatal(err)
	}

	w, err := source.NewWatcher(path)
	if err != nil {
		t.Fatalf("failed to create watcher: %v", err)
	}
	w.SetDebounce(20 * time.Millisecond)

	changed := make(chan struct{}, 1)
	w.OnChange = func() error {
		select {
		case changed <- struct{}{}:
		default:
		}
		return nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = w.Run(ctx) }()

	// let the watch loop start before mutating the file
	time.Sleep(50 * time.Millisecond)
	if err := os.WriteFile(path, []byte(`{"resources":{"issues":[]}}`), 0644); err != nil {
		t.Fatal(err)
	}

	select {
	case <-changed:
	case <-time.After(3 * time.Second):
		t.Fatal("watcher never reported the change")
	}
}

func TestWatcherIgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "data.json")
	if err := os.WriteFile(path, []byte(`{}`), 0644); err != nil {
		t.Fatal(err)
	}

	w, err := source.NewWatcher(path)
	if err != nil {
		t.Fatalf("failed to create watcher: %v", err)
	}
	w.SetDebounce(20 * time.Millisecond)

	changed := make(chan struct{}, 1)
	w.OnChange = func() error {
		select {
		case changed <- struct{}{}:
		default:
		}
		return nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = w.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	if err := os.WriteFile(filepath.Join(dir, "other.json"), []byte(`{}`), 0644); err != nil {
		t.Fatal(err)
	}

	select {
	case <-changed:
		t.Fatal("watcher fired for an unrelated file")
	case <-time.After(200 * time.Millisecond):
	}
}

func TestWatcherRequiresExistingFile(t *testing.T) {
	_, err := source.NewWatcher(filepath.Join(t.TempDir(), "absent.json"))
	if err == nil {
		t.Fatal("expected an error for a missing file")
	}
}
