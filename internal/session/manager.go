package session

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"reactive-calculator/internal/calculator"
	"reactive-calculator/internal/observability"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const (
	defaultMaxSessions      = 1000
	defaultIdleTimeout      = 30 * time.Minute
	defaultTapeSize         = 100
	defaultSubscriberBufCap = 16
)

var (
	ErrNotFound    = errors.New("session not found")
	ErrMaxSessions = errors.New("maximum session limit reached")
)

var tracer = otel.Tracer("session")

// Config bounds the manager. Zero values fall back to defaults.
type Config struct {
	MaxSessions int
	IdleTimeout time.Duration
	TapeSize    int
}

// Manager owns the authoritative calculator state of every live session.
// Each session has exactly one writer: Dispatch applies one transition at a
// time under the session lock, and subscribers only ever see settled states.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*managedSession
	cfg      Config
	now      func() time.Time
}

type managedSession struct {
	mu          sync.Mutex
	id          string
	state       calculator.State
	seq         uint64
	createdAt   time.Time
	updatedAt   time.Time
	tape        *RingBuffer
	subscribers map[string]chan Snapshot
	closed      bool
}

// NewManager creates a session manager.
func NewManager(cfg Config) *Manager {
	if cfg.MaxSessions <= 0 {
		cfg.MaxSessions = defaultMaxSessions
	}
	if cfg.IdleTimeout <= 0 {
		cfg.IdleTimeout = defaultIdleTimeout
	}
	if cfg.TapeSize <= 0 {
		cfg.TapeSize = defaultTapeSize
	}

	return &Manager{
		sessions: make(map[string]*managedSession),
		cfg:      cfg,
		now:      time.Now,
	}
}

// Create starts a new session at the initial state.
func (m *Manager) Create(ctx context.Context) (Snapshot, error) {
	now := m.now().UTC()
	ms := &managedSession{
		id:          uuid.New().String(),
		state:       calculator.Initial(),
		createdAt:   now,
		updatedAt:   now,
		tape:        NewRingBuffer(m.cfg.TapeSize),
		subscribers: make(map[string]chan Snapshot),
	}

	m.mu.Lock()
	if len(m.sessions) >= m.cfg.MaxSessions {
		m.mu.Unlock()
		return Snapshot{}, fmt.Errorf("%w (%d)", ErrMaxSessions, m.cfg.MaxSessions)
	}
	m.sessions[ms.id] = ms
	m.mu.Unlock()

	activeSessions.Add(ctx, 1)

	return ms.snapshot(), nil
}

// Dispatch applies e to the session's state and returns the settled result.
func (m *Manager) Dispatch(ctx context.Context, id string, e calculator.Event) (Snapshot, error) {
	ctx, span := tracer.Start(ctx, "session.dispatch",
		trace.WithAttributes(
			attribute.String("session.id", id),
			attribute.String("calculator.event", string(e.Kind)),
		),
	)
	defer span.End()

	ms, err := m.lookup(id)
	if err != nil {
		return Snapshot{}, err
	}

	ms.mu.Lock()
	if ms.closed {
		ms.mu.Unlock()
		return Snapshot{}, fmt.Errorf("session %s: %w", id, ErrNotFound)
	}

	start := time.Now()
	ms.state = calculator.Apply(ms.state, e)
	elapsed := float64(time.Since(start).Nanoseconds()) / 1e6 // ms

	ms.seq++
	ms.updatedAt = m.now().UTC()
	snap := ms.snapshot()

	ms.tape.Write(Transition{
		Seq:     snap.Seq,
		Event:   e,
		Display: snap.Display,
		At:      snap.UpdatedAt,
	})

	for _, ch := range ms.subscribers {
		select {
		case ch <- snap:
		default:
			// Subscriber buffer full, skip.
		}
	}
	ms.mu.Unlock()

	attrs := metric.WithAttributes(attribute.String("event", string(e.Kind)))
	transitionCounter.Add(ctx, 1, attrs)
	transitionHistogram.Record(ctx, elapsed, attrs)
	if e.Kind == calculator.Solve {
		if v := snap.State.Value(); !math.IsNaN(v) {
			resultGauge.Record(ctx, v)
		}
	}

	span.SetAttributes(
		attribute.Int64("session.seq", int64(snap.Seq)),
		attribute.String("calculator.display", snap.Display),
	)

	return snap, nil
}

// Get returns the current snapshot of a session.
func (m *Manager) Get(id string) (Snapshot, error) {
	ms, err := m.lookup(id)
	if err != nil {
		return Snapshot{}, err
	}

	ms.mu.Lock()
	defer ms.mu.Unlock()
	return ms.snapshot(), nil
}

// List returns all live sessions, oldest first.
func (m *Manager) List() []Snapshot {
	m.mu.RLock()
	all := make([]*managedSession, 0, len(m.sessions))
	for _, ms := range m.sessions {
		all = append(all, ms)
	}
	m.mu.RUnlock()

	result := make([]Snapshot, 0, len(all))
	for _, ms := range all {
		ms.mu.Lock()
		result = append(result, ms.snapshot())
		ms.mu.Unlock()
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return result
}

// Tape returns the recorded transitions of a session, oldest first.
func (m *Manager) Tape(id string) ([]Transition, error) {
	ms, err := m.lookup(id)
	if err != nil {
		return nil, err
	}
	return ms.tape.ReadAll(), nil
}

// Delete discards a session and closes its subscriber channels.
func (m *Manager) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	ms, ok := m.sessions[id]
	if ok {
		delete(m.sessions, id)
	}
	m.mu.Unlock()

	if !ok {
		return fmt.Errorf("session %s: %w", id, ErrNotFound)
	}

	ms.close()
	activeSessions.Add(ctx, -1)
	return nil
}

// Subscribe registers for settled snapshots of a session. The channel is
// closed when the session is deleted or the subscription removed.
func (m *Manager) Subscribe(id string) (string, <-chan Snapshot, error) {
	ms, err := m.lookup(id)
	if err != nil {
		return "", nil, err
	}

	ms.mu.Lock()
	defer ms.mu.Unlock()

	if ms.closed {
		return "", nil, fmt.Errorf("session %s: %w", id, ErrNotFound)
	}

	subID := uuid.New().String()
	ch := make(chan Snapshot, defaultSubscriberBufCap)
	ms.subscribers[subID] = ch

	return subID, ch, nil
}

// Unsubscribe removes a subscription. Unknown ids are ignored.
func (m *Manager) Unsubscribe(id, subID string) {
	ms, err := m.lookup(id)
	if err != nil {
		return
	}

	ms.mu.Lock()
	defer ms.mu.Unlock()

	if ch, ok := ms.subscribers[subID]; ok {
		delete(ms.subscribers, subID)
		close(ch)
	}
}

// Sweep deletes every session idle since before now minus the idle timeout
// and returns how many it removed.
func (m *Manager) Sweep(ctx context.Context, now time.Time) int {
	cutoff := now.Add(-m.cfg.IdleTimeout)

	m.mu.Lock()
	var expired []*managedSession
	for id, ms := range m.sessions {
		ms.mu.Lock()
		idle := ms.updatedAt.Before(cutoff)
		ms.mu.Unlock()

		if idle {
			delete(m.sessions, id)
			expired = append(expired, ms)
		}
	}
	m.mu.Unlock()

	for _, ms := range expired {
		ms.close()
	}

	if n := len(expired); n > 0 {
		activeSessions.Add(ctx, int64(-n))
	}
	return len(expired)
}

// Run sweeps idle sessions on a ticker until ctx is cancelled.
func (m *Manager) Run(ctx context.Context) {
	interval := m.cfg.IdleTimeout / 2
	if interval > time.Minute {
		interval = time.Minute
	}
	if interval <= 0 {
		interval = time.Millisecond
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := m.Sweep(ctx, m.now()); n > 0 {
				observability.Logger.Info("evicted idle sessions",
					zap.Int("count", n),
					zap.Duration("idle_timeout", m.cfg.IdleTimeout),
				)
			}
		}
	}
}

func (m *Manager) lookup(id string) (*managedSession, error) {
	m.mu.RLock()
	ms, ok := m.sessions[id]
	m.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("session %s: %w", id, ErrNotFound)
	}
	return ms, nil
}

// snapshot must be called with ms.mu held, or before ms is shared.
func (ms *managedSession) snapshot() Snapshot {
	return Snapshot{
		ID:        ms.id,
		State:     ms.state,
		Display:   calculator.Display(ms.state),
		Seq:       ms.seq,
		CreatedAt: ms.createdAt,
		UpdatedAt: ms.updatedAt,
	}
}

func (ms *managedSession) close() {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	if ms.closed {
		return
	}
	ms.closed = true

	for subID, ch := range ms.subscribers {
		delete(ms.subscribers, subID)
		close(ch)
	}
}
