package watch

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/apexcoach/telemetry-coach/log"
)

// minFileSize guards against picking up files the exporter has only begun
// to write. Anything smaller cannot hold a usable sample stream.
const minFileSize = 1000

type (
	// Handler receives the path of a settled session export.
	Handler func(ctx context.Context, path string)

	// Monitor watches a telemetry folder and hands new session exports to
	// its handler once they settled. Exporters write large files in bursts,
	// so every event restarts the settle timer and the handler only fires
	// after the file stayed quiet for the settle delay.
	Monitor struct {
		dir     string
		settle  time.Duration
		handler Handler
		l       *log.Logger

		mu      sync.Mutex
		pending map[string]*time.Timer
		seen    map[string]struct{}
	}
	Option func(*Monitor)
)

func WithSettleDelay(d time.Duration) Option {
	return func(m *Monitor) {
		m.settle = d
	}
}

func WithLogger(arg *log.Logger) Option {
	return func(m *Monitor) {
		m.l = arg
	}
}

func NewMonitor(dir string, handler Handler, opts ...Option) *Monitor {
	m := &Monitor{
		dir:     dir,
		settle:  2 * time.Second,
		handler: handler,
		l:       log.Default().Named("watch"),
		pending: make(map[string]*time.Timer),
		seen:    make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Run watches the folder until the context is done.
func (m *Monitor) Run(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()
	if err := watcher.Add(m.dir); err != nil {
		return err
	}
	m.l.Info("watching telemetry folder", log.String("dir", m.dir))
	for {
		select {
		case <-ctx.Done():
			m.l.Info("context done, stopping folder watch")
			m.cancelPending()
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				m.l.Info("watcher events channel closed, stopping folder watch")
				return nil
			}
			if event.Op&fsnotify.Write == fsnotify.Write ||
				event.Op&fsnotify.Create == fsnotify.Create {

				m.onChange(ctx, event.Name)
			}
		case werr, ok := <-watcher.Errors:
			if !ok {
				m.l.Info("watcher errors channel closed, stopping folder watch")
				return nil
			}
			m.l.Error("watcher error", log.ErrorField(werr))
		}
	}
}

func (m *Monitor) onChange(ctx context.Context, path string) {
	if !isSessionExport(path) {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if t, ok := m.pending[path]; ok {
		t.Reset(m.settle)
		return
	}
	m.l.Debug("change detected", log.String("file", path))
	m.pending[path] = time.AfterFunc(m.settle, func() {
		m.settled(ctx, path)
	})
}

func (m *Monitor) settled(ctx context.Context, path string) {
	m.mu.Lock()
	delete(m.pending, path)
	_, done := m.seen[path]
	if !done {
		m.seen[path] = struct{}{}
	}
	m.mu.Unlock()
	if done {
		return
	}

	fi, err := os.Stat(path)
	if err != nil {
		m.l.Warn("settled file vanished", log.String("file", path), log.ErrorField(err))
		return
	}
	if fi.Size() < minFileSize {
		m.l.Warn("file too small, likely incomplete",
			log.String("file", path), log.Int64("size", fi.Size()))
		return
	}
	m.l.Info("processing new session export",
		log.String("file", filepath.Base(path)),
		log.Float64("sizeMb", float64(fi.Size())/1024/1024))
	m.handler(ctx, path)
}

func (m *Monitor) cancelPending() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for path, t := range m.pending {
		t.Stop()
		delete(m.pending, path)
	}
}

func isSessionExport(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".json"
}
