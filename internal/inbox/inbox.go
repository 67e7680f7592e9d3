// Package inbox turns transcripts dropped into a directory into
// archives.
package inbox

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/gofrs/flock"

	"github.com/wesm/chatzip/internal/archive"
	"github.com/wesm/chatzip/internal/export"
	"github.com/wesm/chatzip/internal/source"
)

// DefaultDebounce is how long a file must be quiet before it is
// processed.
const DefaultDebounce = 500 * time.Millisecond

// ErrLocked is returned when another watcher holds the data
// directory lock.
var ErrLocked = errors.New("another inbox watcher is running")

var inboxExts = []string{".md", ".txt", ".jsonl"}

// Inbox processes transcripts written into a directory.
type Inbox struct {
	dir      string
	exporter *export.Exporter
	opts     source.Options
	lock     *flock.Flock
	watcher  *Watcher

	mu   sync.Mutex
	seen map[string]fileStamp
}

// fileStamp identifies one version of a file.
type fileStamp struct {
	size    int64
	modTime int64
}

// Open takes the inbox lock in dataDir and prepares a watcher
// on dir. opts selects messages from .jsonl transcripts.
func Open(
	dataDir, dir string,
	exporter *export.Exporter, opts source.Options,
	debounce time.Duration,
) (*Inbox, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating inbox dir: %w", err)
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data dir: %w", err)
	}

	lock := flock.New(filepath.Join(dataDir, "inbox.lock"))
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return nil, ErrLocked
	}

	in := &Inbox{
		dir:      dir,
		exporter: exporter,
		opts:     opts,
		lock:     lock,
		seen:     make(map[string]fileStamp),
	}
	w, err := NewWatcher(debounce, func(paths []string) {
		in.Process(context.Background(), paths)
	})
	if err != nil {
		_ = lock.Unlock()
		return nil, err
	}
	if err := w.Add(dir); err != nil {
		w.Stop()
		_ = lock.Unlock()
		return nil, err
	}
	in.watcher = w
	return in, nil
}

// Start begins watching.
func (in *Inbox) Start() {
	in.watcher.Start()
	log.Printf("inbox: watching %s", in.dir)
}

// Close stops watching and releases the lock.
func (in *Inbox) Close() error {
	in.watcher.Stop()
	if err := in.lock.Unlock(); err != nil {
		return fmt.Errorf("release lock: %w", err)
	}
	return nil
}

// Accepts reports whether path names a file the inbox handles.
func Accepts(path string) bool {
	base := filepath.Base(path)
	if strings.HasPrefix(base, ".") || strings.HasSuffix(base, "~") {
		return false
	}
	return slices.Contains(
		inboxExts, strings.ToLower(filepath.Ext(base)),
	)
}

// Process exports each accepted path not already exported in
// its current state. Failures are logged and do not stop the
// rest. Returns the results that were produced.
func (in *Inbox) Process(
	ctx context.Context, paths []string,
) []*export.Result {
	slices.Sort(paths)
	var results []*export.Result
	for _, path := range paths {
		if !Accepts(path) {
			continue
		}
		res, err := in.processFile(ctx, path)
		if err != nil {
			log.Printf("inbox: %s: %v", filepath.Base(path), err)
			continue
		}
		if res != nil {
			log.Printf("inbox: %s: %s to %s",
				filepath.Base(path), archive.Summary(len(res.Files)), res.Location)
			results = append(results, res)
		}
	}
	return results
}

func (in *Inbox) processFile(
	ctx context.Context, path string,
) (*export.Result, error) {
	info, err := os.Stat(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if !info.Mode().IsRegular() {
		return nil, nil
	}

	stamp := fileStamp{size: info.Size(), modTime: info.ModTime().UnixNano()}
	in.mu.Lock()
	prev, ok := in.seen[path]
	in.mu.Unlock()
	if ok && prev == stamp {
		return nil, nil
	}

	text, err := source.Load(path, in.opts)
	if err != nil {
		if errors.Is(err, source.ErrEmpty) {
			in.markSeen(path, stamp)
		}
		return nil, err
	}

	res, err := in.exporter.Run(
		ctx, "inbox:"+filepath.Base(path), text,
	)
	if res != nil || errors.Is(err, export.ErrNothingFound) {
		in.markSeen(path, stamp)
	}
	return res, err
}

func (in *Inbox) markSeen(path string, stamp fileStamp) {
	in.mu.Lock()
	in.seen[path] = stamp
	in.mu.Unlock()
}
