package session

import (
	"context"
	"sync"
	"time"

	"github.com/asynkron/termbench/internal/provider"
)

// AutoSaveConfig tunes the background saver's debounce window, forced-flush
// batch size, and retry budget.
type AutoSaveConfig struct {
	SaveInterval  time.Duration
	MaxBatchSize  int
	MaxRetries    int
}

// DefaultAutoSaveConfig mirrors the reference debounce tuning: a 500ms
// coalescing window, a forced flush every 10 unsaved messages, and up to 3
// retries on a failed save.
func DefaultAutoSaveConfig() AutoSaveConfig {
	return AutoSaveConfig{SaveInterval: 500 * time.Millisecond, MaxBatchSize: 10, MaxRetries: 3}
}

type saveSignal int

const (
	signalSave saveSignal = iota
	signalShutdown
)

// AutoSaver debounces message appends and metadata updates behind a
// background goroutine, flushing to a Store either after SaveInterval of
// quiescence or immediately once MaxBatchSize unsaved messages accumulate.
// Failed flushes retry up to MaxRetries times with linear backoff, distinct
// from the provider package's exponential backoff for HTTP retries.
type AutoSaver struct {
	store     *Store
	sessionID ID
	config    AutoSaveConfig

	mu             sync.Mutex
	metadata       Metadata
	node           Node
	messages       []provider.Message
	dirty          bool
	lastSavedCount int

	saveCh chan saveSignal
	done   chan struct{}
}

// NewAutoSaver creates a session directory for id, persists its initial
// manifest and tree node, and starts the background save loop.
func NewAutoSaver(store *Store, config AutoSaveConfig, id ID, metadata Metadata, node Node) (*AutoSaver, error) {
	if err := store.SaveManifest(id, metadata); err != nil {
		return nil, err
	}
	if err := store.SaveTree(node); err != nil {
		return nil, err
	}
	a := &AutoSaver{
		store:     store,
		sessionID: id,
		config:    config,
		metadata:  metadata,
		node:      node,
		saveCh:    make(chan saveSignal, 1),
		done:      make(chan struct{}),
	}
	go a.saveLoop()
	return a, nil
}

// AddMessage appends a message and schedules a debounced save.
func (a *AutoSaver) AddMessage(m provider.Message) {
	a.mu.Lock()
	a.messages = append(a.messages, m)
	a.metadata.Modified = time.Now()
	a.metadata.LastActive = a.metadata.Modified
	forceFlush := len(a.messages)-a.lastSavedCount >= a.config.MaxBatchSize
	a.dirty = true
	a.mu.Unlock()

	if forceFlush {
		a.signal(signalSave)
	} else {
		a.scheduleDebouncedSave()
	}
}

// UpdateMetadata replaces the session's metadata and schedules a save.
func (a *AutoSaver) UpdateMetadata(metadata Metadata) {
	a.mu.Lock()
	a.metadata = metadata
	a.metadata.Modified = time.Now()
	a.dirty = true
	a.mu.Unlock()
	a.scheduleDebouncedSave()
}

// Messages returns a snapshot of the in-memory message list.
func (a *AutoSaver) Messages() []provider.Message {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]provider.Message, len(a.messages))
	copy(out, a.messages)
	return out
}

// ForceSave flushes synchronously, bypassing the debounce window.
func (a *AutoSaver) ForceSave() error {
	return a.saveWithRetry()
}

// Shutdown flushes any pending writes and stops the background loop.
func (a *AutoSaver) Shutdown() {
	select {
	case a.saveCh <- signalShutdown:
	case <-a.done:
		return
	}
	<-a.done
}

func (a *AutoSaver) signal(s saveSignal) {
	select {
	case a.saveCh <- s:
	default:
	}
}

func (a *AutoSaver) scheduleDebouncedSave() {
	a.signal(signalSave)
}

func (a *AutoSaver) saveLoop() {
	defer close(a.done)

	timer := time.NewTimer(a.config.SaveInterval)
	if !timer.Stop() {
		<-timer.C
	}
	pending := false

	for {
		select {
		case sig, ok := <-a.saveCh:
			if !ok {
				return
			}
			if sig == signalShutdown {
				if pending || a.isDirty() {
					_ = a.saveWithRetry()
				}
				return
			}
			if a.shouldForceFlush() {
				_ = a.saveWithRetry()
				pending = false
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				continue
			}
			if pending && !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
			pending = true
			timer.Reset(a.config.SaveInterval)
		case <-timer.C:
			if pending {
				_ = a.saveWithRetry()
				pending = false
			}
		}
	}
}

func (a *AutoSaver) isDirty() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.dirty
}

func (a *AutoSaver) shouldForceFlush() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.messages)-a.lastSavedCount >= a.config.MaxBatchSize
}

// saveWithRetry persists the manifest and any messages added since the last
// successful save, retrying on failure with a 100ms*attempt linear backoff.
func (a *AutoSaver) saveWithRetry() error {
	var lastErr error
	for attempt := 0; attempt <= a.config.MaxRetries; attempt++ {
		if attempt > 0 {
			time.Sleep(time.Duration(100*attempt) * time.Millisecond)
		}
		if err := a.saveOnce(); err != nil {
			lastErr = err
			continue
		}
		return nil
	}
	return lastErr
}

func (a *AutoSaver) saveOnce() error {
	a.mu.Lock()
	metadata := a.metadata
	toSave := make([]provider.Message, len(a.messages)-a.lastSavedCount)
	copy(toSave, a.messages[a.lastSavedCount:])
	startIndex := a.lastSavedCount
	a.mu.Unlock()

	if err := a.store.SaveManifest(a.sessionID, metadata); err != nil {
		return err
	}
	for i, m := range toSave {
		if err := a.store.SaveMessage(a.sessionID, startIndex+i, m); err != nil {
			return err
		}
	}

	a.mu.Lock()
	a.lastSavedCount = startIndex + len(toSave)
	a.dirty = false
	a.mu.Unlock()
	return nil
}

// shutdownWithContext runs ForceSave and waits for it only until ctx is
// done, a bounded alternative to Shutdown's unbounded wait. It does not stop
// the background loop, and nothing in the module calls it.
func (a *AutoSaver) shutdownWithContext(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() { errCh <- a.ForceSave() }()
	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}
