package application

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"sync"

	"github.com/bnema/refine-cli/internal/domain"
	"github.com/bnema/refine-cli/internal/ports"
)

const registryShardCount = 32

var ErrSessionExists = errors.New("session already exists")

type sessionEntry struct {
	mu      sync.RWMutex
	session domain.Session

	// wake is signalled whenever feedback arrives or the session stops.
	wake     chan struct{}
	stopped  chan struct{}
	stopOnce sync.Once
	cancel   context.CancelFunc
}

func (e *sessionEntry) signal() {
	select {
	case e.wake <- struct{}{}:
	default:
	}
}

type registryShard struct {
	mu      sync.RWMutex
	entries map[domain.SessionID]*sessionEntry
}

// SessionRegistry maps session ids to live session state. Each session has
// its own lock; the shard locks only guard key-set changes.
type SessionRegistry struct {
	shards [registryShardCount]registryShard
	clock  ports.Clock
}

func NewSessionRegistry(clock ports.Clock) *SessionRegistry {
	if clock == nil {
		clock = ports.SystemClock{}
	}

	r := &SessionRegistry{clock: clock}
	for i := range r.shards {
		r.shards[i].entries = map[domain.SessionID]*sessionEntry{}
	}
	return r
}

func (r *SessionRegistry) shard(id domain.SessionID) *registryShard {
	h := fnv.New32a()
	_, _ = h.Write([]byte(id))
	return &r.shards[h.Sum32()%registryShardCount]
}

func (r *SessionRegistry) Create(session domain.Session) error {
	if session.ID == "" {
		return errors.New("session id is required")
	}

	shard := r.shard(session.ID)
	shard.mu.Lock()
	defer shard.mu.Unlock()

	if _, ok := shard.entries[session.ID]; ok {
		return fmt.Errorf("create session %s: %w", session.ID, ErrSessionExists)
	}
	shard.entries[session.ID] = &sessionEntry{
		session: session.Clone(),
		wake:    make(chan struct{}, 1),
		stopped: make(chan struct{}),
	}
	return nil
}

func (r *SessionRegistry) entry(id domain.SessionID) (*sessionEntry, error) {
	shard := r.shard(id)
	shard.mu.RLock()
	entry, ok := shard.entries[id]
	shard.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("session %s: %w", id, domain.ErrSessionNotFound)
	}
	return entry, nil
}

// Get returns a deep copy of the session.
func (r *SessionRegistry) Get(id domain.SessionID) (domain.Session, error) {
	entry, err := r.entry(id)
	if err != nil {
		return domain.Session{}, err
	}
	entry.mu.RLock()
	defer entry.mu.RUnlock()
	return entry.session.Clone(), nil
}

// Update applies fn under the session's write lock. Terminal sessions are
// never handed to fn.
func (r *SessionRegistry) Update(id domain.SessionID, fn func(*domain.Session) error) (domain.Session, error) {
	entry, err := r.entry(id)
	if err != nil {
		return domain.Session{}, err
	}
	entry.mu.Lock()
	defer entry.mu.Unlock()

	if entry.session.Status.Terminal() {
		return entry.session.Clone(), fmt.Errorf("update session %s: %w", id, domain.ErrSessionTerminal)
	}
	if err := fn(&entry.session); err != nil {
		return entry.session.Clone(), err
	}
	return entry.session.Clone(), nil
}

// SubmitFeedback records text as the pending feedback and wakes a waiting
// controller. An empty text means "continue without changes". A later
// submission replaces one that has not been consumed yet.
func (r *SessionRegistry) SubmitFeedback(id domain.SessionID, text string) (domain.Session, error) {
	entry, err := r.entry(id)
	if err != nil {
		return domain.Session{}, err
	}

	entry.mu.Lock()
	if entry.session.Status.Terminal() {
		snapshot := entry.session.Clone()
		entry.mu.Unlock()
		return snapshot, fmt.Errorf("submit feedback to session %s: %w", id, domain.ErrSessionTerminal)
	}
	feedback := text
	entry.session.PendingUserFeedback = &feedback
	entry.session.UpdatedAt = r.clock.Now()
	snapshot := entry.session.Clone()
	entry.mu.Unlock()

	entry.signal()
	return snapshot, nil
}

// Stop moves a live session to Stopped, cancels its in-flight collaborator
// calls and wakes any feedback wait. Stopping a terminal session returns its
// current state unchanged.
func (r *SessionRegistry) Stop(id domain.SessionID) (domain.Session, error) {
	entry, err := r.entry(id)
	if err != nil {
		return domain.Session{}, err
	}

	entry.mu.Lock()
	if !entry.session.Status.Terminal() {
		entry.session.Status = domain.SessionStopped
		entry.session.UpdatedAt = r.clock.Now()
	}
	snapshot := entry.session.Clone()
	cancel := entry.cancel
	entry.mu.Unlock()

	if snapshot.Status == domain.SessionStopped {
		entry.stopOnce.Do(func() { close(entry.stopped) })
		if cancel != nil {
			cancel()
		}
	}
	entry.signal()
	return snapshot, nil
}

func (r *SessionRegistry) bindCancel(id domain.SessionID, cancel context.CancelFunc) error {
	entry, err := r.entry(id)
	if err != nil {
		return err
	}
	entry.mu.Lock()
	entry.cancel = cancel
	stopped := entry.session.Status == domain.SessionStopped
	entry.mu.Unlock()
	if stopped {
		cancel()
	}
	return nil
}

func (r *SessionRegistry) signals(id domain.SessionID) (<-chan struct{}, <-chan struct{}, error) {
	entry, err := r.entry(id)
	if err != nil {
		return nil, nil, err
	}
	return entry.wake, entry.stopped, nil
}

// List returns copies of every registered session in no particular order.
func (r *SessionRegistry) List() []domain.Session {
	var out []domain.Session
	for i := range r.shards {
		shard := &r.shards[i]
		shard.mu.RLock()
		entries := make([]*sessionEntry, 0, len(shard.entries))
		for _, entry := range shard.entries {
			entries = append(entries, entry)
		}
		shard.mu.RUnlock()

		for _, entry := range entries {
			entry.mu.RLock()
			out = append(out, entry.session.Clone())
			entry.mu.RUnlock()
		}
	}
	return out
}
