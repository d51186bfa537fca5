package watch

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func runMonitor(t *testing.T, dir string) (<-chan string, context.CancelFunc) {
	t.Helper()
	handled := make(chan string, 4)
	ctx, cancel := context.WithCancel(context.Background())
	m := NewMonitor(dir, func(_ context.Context, path string) {
		handled <- path
	}, WithSettleDelay(50*time.Millisecond))
	go func() {
		if err := m.Run(ctx); err != nil {
			t.Errorf("Run() error = %v", err)
		}
	}()
	// give the watcher a moment to register the directory
	time.Sleep(100 * time.Millisecond)
	return handled, cancel
}

func exportPayload() []byte {
	// padded above the incomplete-file cutoff
	return append([]byte(`{"samples": []}`), bytes.Repeat([]byte(" "), 2048)...)
}

func TestMonitor_HandlesSettledExport(t *testing.T) {
	dir := t.TempDir()
	handled, cancel := runMonitor(t, dir)
	defer cancel()

	path := filepath.Join(dir, "session.json")
	if err := os.WriteFile(path, exportPayload(), 0o600); err != nil {
		t.Fatal(err)
	}
	select {
	case got := <-handled:
		if got != path {
			t.Errorf("handled %q, want %q", got, path)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("handler not called for a settled export")
	}
	// burst of writes on the same file must not trigger again
	select {
	case got := <-handled:
		t.Errorf("handler called twice for %q", got)
	case <-time.After(200 * time.Millisecond):
	}
}

func TestMonitor_IgnoresIncompleteAndForeignFiles(t *testing.T) {
	dir := t.TempDir()
	handled, cancel := runMonitor(t, dir)
	defer cancel()

	if err := os.WriteFile(filepath.Join(dir, "tiny.json"), []byte("{}"), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), exportPayload(), 0o600); err != nil {
		t.Fatal(err)
	}
	select {
	case got := <-handled:
		t.Errorf("handler called for %q, want none", got)
	case <-time.After(300 * time.Millisecond):
	}
}

func TestIsSessionExport(t *testing.T) {
	tests := []struct {
		path string
		want bool
	}{
		{path: "/data/session.json", want: true},
		{path: "/data/SESSION.JSON", want: true},
		{path: "/data/session.ibt", want: false},
		{path: "/data/session.json.tmp", want: false},
	}
	for _, tt := range tests {
		if got := isSessionExport(tt.path); got != tt.want {
			t.Errorf("isSessionExport(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
}
