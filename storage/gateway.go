package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"slices"
	"sync"

	"github.com/electr1fy0/bluenote/auth"
	"github.com/electr1fy0/bluenote/crypto"
	"github.com/electr1fy0/bluenote/logger"
	"github.com/electr1fy0/bluenote/notes"
)

// Options configures a Gateway.
type Options struct {
	Dir string
	// Passphrase enables sealing of every record when non-empty.
	Passphrase string
	// Iterations overrides the PBKDF2 work factor; zero keeps the default.
	Iterations int
	Logger     *logger.Logger
}

// Snapshot is the whitelisted state read back at startup.
type Snapshot struct {
	Auth  auth.Session
	Notes []notes.Note
}

// Gateway mirrors store snapshots to one file per key in the background.
// Persist never blocks on disk; a newer value for a key replaces one that
// has not been written yet.
type Gateway struct {
	dir    string
	sealer *crypto.Sealer
	log    *logger.Logger

	mu      sync.Mutex
	pending map[string][]byte

	// writeMu makes taking a batch and writing it one step, so an older
	// batch can never land after a newer one.
	writeMu sync.Mutex
	// failed holds keys whose latest write did not land; guarded by writeMu.
	failed map[string]error

	wake      chan struct{}
	done      chan struct{}
	stopped   chan struct{}
	closeOnce sync.Once
}

// Open creates the data directory if needed and starts the writer.
func Open(opts Options) (*Gateway, error) {
	if opts.Dir == "" {
		return nil, fmt.Errorf("storage: empty data dir")
	}
	if err := os.MkdirAll(opts.Dir, dirPerms); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	log := opts.Logger
	if log == nil {
		log = logger.Nop()
	}

	g := &Gateway{
		dir:     opts.Dir,
		log:     log,
		pending: make(map[string][]byte),
		failed:  make(map[string]error),
		wake:    make(chan struct{}, 1),
		done:    make(chan struct{}),
		stopped: make(chan struct{}),
	}
	if opts.Passphrase != "" {
		g.sealer = crypto.NewSealer(opts.Passphrase, opts.Iterations)
	}

	go g.run()
	return g, nil
}

// Dir is the directory records are written to.
func (g *Gateway) Dir() string {
	return g.dir
}

// Persist queues value for key. Failures are logged, never returned.
// After Close the value is written before Persist returns.
func (g *Gateway) Persist(key string, value any) {
	data, err := json.Marshal(value)
	if err != nil {
		g.log.Error("persist: marshal failed", "key", key, "err", err)
		return
	}

	g.mu.Lock()
	g.pending[key] = data
	g.mu.Unlock()

	select {
	case <-g.done:
		g.log.Debug("persist after close", "key", key)
		_ = g.drain()
		return
	default:
	}

	select {
	case g.wake <- struct{}{}:
	default:
	}
}

// Flush writes everything queued so far before returning. The error lists
// every key whose latest value is not on disk.
func (g *Gateway) Flush() error {
	return g.drain()
}

// Close writes what is still queued and stops the writer. Like Flush, it
// reports keys whose latest value never made it to disk.
func (g *Gateway) Close() error {
	g.closeOnce.Do(func() { close(g.done) })
	<-g.stopped

	g.writeMu.Lock()
	defer g.writeMu.Unlock()
	return g.failuresLocked()
}

// Restore reads the persisted session and notes. Missing records yield
// empty defaults; unreadable ones are errors so they are never overwritten
// by accident.
func (g *Gateway) Restore() (Snapshot, error) {
	var snap Snapshot

	if _, err := g.load(auth.PersistKey, &snap.Auth); err != nil {
		return Snapshot{}, err
	}
	if _, err := g.load(notes.PersistKey, &snap.Notes); err != nil {
		return Snapshot{}, err
	}
	if snap.Notes == nil {
		snap.Notes = []notes.Note{}
	}

	g.log.Info("restored state",
		"authenticated", snap.Auth.IsAuthenticated,
		"notes", len(snap.Notes),
		"encrypted", g.sealer != nil,
	)
	return snap, nil
}

func (g *Gateway) load(key string, v any) (bool, error) {
	payload, ok, err := readRecord(g.dir, key, g.sealer)
	if err != nil || !ok {
		return false, err
	}
	if err := json.Unmarshal(payload, v); err != nil {
		return false, fmt.Errorf("%w: %s: %w", ErrCorrupt, key, err)
	}
	return true, nil
}

func (g *Gateway) run() {
	defer close(g.stopped)
	for {
		select {
		case <-g.wake:
			_ = g.drain()
		case <-g.done:
			_ = g.drain()
			return
		}
	}
}

func (g *Gateway) drain() error {
	g.writeMu.Lock()
	defer g.writeMu.Unlock()

	g.mu.Lock()
	batch := g.pending
	g.pending = make(map[string][]byte)
	g.mu.Unlock()

	keys := make([]string, 0, len(batch))
	for k := range batch {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	for _, key := range keys {
		if err := writeRecord(g.dir, key, batch[key], g.sealer); err != nil {
			g.log.Error("persist: write failed", "key", key, "err", err)
			g.failed[key] = err
			continue
		}
		delete(g.failed, key)
		g.log.Debug("persisted", "key", key, "bytes", len(batch[key]))
	}
	return g.failuresLocked()
}

func (g *Gateway) failuresLocked() error {
	keys := make([]string, 0, len(g.failed))
	for k := range g.failed {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	errs := make([]error, 0, len(keys))
	for _, key := range keys {
		errs = append(errs, fmt.Errorf("persist %s: %w", key, g.failed[key]))
	}
	return errors.Join(errs...)
}
