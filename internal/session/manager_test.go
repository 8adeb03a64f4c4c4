package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"reactive-calculator/internal/calculator"
)

func press(t *testing.T, m *Manager, id string, events ...calculator.Event) Snapshot {
	t.Helper()

	var snap Snapshot
	for _, e := range events {
		var err error
		snap, err = m.Dispatch(context.Background(), id, e)
		if err != nil {
			t.Fatalf("dispatching %+v: %v", e, err)
		}
	}
	return snap
}

func TestManagerCreateStartsAtInitialState(t *testing.T) {
	m := NewManager(Config{})

	snap, err := m.Create(context.Background())
	if err != nil {
		t.Fatalf("creating session: %v", err)
	}

	if snap.ID == "" {
		t.Fatal("expected session id")
	}
	if snap.State != calculator.Initial() {
		t.Fatalf("expected initial state, got %+v", snap.State)
	}
	if snap.Display != "  " {
		t.Fatalf("expected display %q, got %q", "  ", snap.Display)
	}
	if snap.Seq != 0 {
		t.Fatalf("expected seq 0, got %d", snap.Seq)
	}
}

func TestManagerDispatchAppliesTransitions(t *testing.T) {
	m := NewManager(Config{})
	created, _ := m.Create(context.Background())

	snap := press(t, m, created.ID,
		calculator.Digit("3"),
		calculator.Operate(calculator.Add),
		calculator.Digit("4"),
		calculator.Equals(),
	)

	if snap.State != (calculator.State{Input: "7"}) {
		t.Fatalf("expected input 7, got %+v", snap.State)
	}
	if snap.Seq != 4 {
		t.Fatalf("expected seq 4, got %d", snap.Seq)
	}

	got, err := m.Get(created.ID)
	if err != nil {
		t.Fatalf("getting session: %v", err)
	}
	if got.State != snap.State {
		t.Fatalf("expected stored state %+v, got %+v", snap.State, got.State)
	}
}

func TestManagerUnknownSession(t *testing.T) {
	m := NewManager(Config{})

	if _, err := m.Dispatch(context.Background(), "missing", calculator.Digit("1")); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound from Dispatch, got %v", err)
	}
	if _, err := m.Get("missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound from Get, got %v", err)
	}
	if _, err := m.Tape("missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound from Tape, got %v", err)
	}
	if err := m.Delete(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound from Delete, got %v", err)
	}
}

func TestManagerMaxSessions(t *testing.T) {
	m := NewManager(Config{MaxSessions: 2})
	ctx := context.Background()

	first, _ := m.Create(ctx)
	if _, err := m.Create(ctx); err != nil {
		t.Fatalf("creating second session: %v", err)
	}

	if _, err := m.Create(ctx); !errors.Is(err, ErrMaxSessions) {
		t.Fatalf("expected ErrMaxSessions, got %v", err)
	}

	if err := m.Delete(ctx, first.ID); err != nil {
		t.Fatalf("deleting session: %v", err)
	}
	if _, err := m.Create(ctx); err != nil {
		t.Fatalf("expected room after delete, got %v", err)
	}
}

func TestManagerTapeRecordsTransitions(t *testing.T) {
	m := NewManager(Config{TapeSize: 3})
	created, _ := m.Create(context.Background())

	press(t, m, created.ID,
		calculator.Digit("1"),
		calculator.Digit("2"),
		calculator.Operate(calculator.Multiply),
		calculator.Digit("3"),
	)

	tape, err := m.Tape(created.ID)
	if err != nil {
		t.Fatalf("reading tape: %v", err)
	}
	if len(tape) != 3 {
		t.Fatalf("expected 3 transitions, got %d", len(tape))
	}

	last := tape[len(tape)-1]
	if last.Seq != 4 || last.Display != "12 * 3" {
		t.Fatalf("expected seq 4 with display %q, got %+v", "12 * 3", last)
	}
	if tape[0].Event != calculator.Digit("2") {
		t.Fatalf("expected oldest kept event to be digit 2, got %+v", tape[0].Event)
	}
}

func TestManagerSubscribersReceiveSettledSnapshots(t *testing.T) {
	m := NewManager(Config{})
	created, _ := m.Create(context.Background())

	subID, ch, err := m.Subscribe(created.ID)
	if err != nil {
		t.Fatalf("subscribing: %v", err)
	}

	press(t, m, created.ID, calculator.Digit("5"))

	select {
	case snap := <-ch:
		if snap.State.Input != "5" || snap.Seq != 1 {
			t.Fatalf("expected input 5 at seq 1, got %+v", snap)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for snapshot")
	}

	m.Unsubscribe(created.ID, subID)
	if _, ok := <-ch; ok {
		t.Fatal("expected channel to be closed after unsubscribe")
	}
}

func TestManagerDeleteClosesSubscriptions(t *testing.T) {
	m := NewManager(Config{})
	ctx := context.Background()
	created, _ := m.Create(ctx)

	_, ch, err := m.Subscribe(created.ID)
	if err != nil {
		t.Fatalf("subscribing: %v", err)
	}

	if err := m.Delete(ctx, created.ID); err != nil {
		t.Fatalf("deleting: %v", err)
	}

	if _, ok := <-ch; ok {
		t.Fatal("expected channel to be closed after delete")
	}
	if _, err := m.Dispatch(ctx, created.ID, calculator.Digit("1")); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestManagerSweepEvictsIdleSessions(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

	m := NewManager(Config{IdleTimeout: time.Minute})
	m.now = func() time.Time { return now }
	ctx := context.Background()

	stale, _ := m.Create(ctx)

	now = now.Add(50 * time.Second)
	fresh, _ := m.Create(ctx)

	now = now.Add(20 * time.Second)
	if n := m.Sweep(ctx, now); n != 1 {
		t.Fatalf("expected 1 eviction, got %d", n)
	}

	if _, err := m.Get(stale.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected stale session to be evicted, got %v", err)
	}
	if _, err := m.Get(fresh.ID); err != nil {
		t.Fatalf("expected fresh session to survive, got %v", err)
	}
}

func TestManagerListOrdersByCreation(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

	m := NewManager(Config{})
	m.now = func() time.Time {
		now = now.Add(time.Second)
		return now
	}

	var ids []string
	for i := 0; i < 3; i++ {
		snap, _ := m.Create(context.Background())
		ids = append(ids, snap.ID)
	}

	list := m.List()
	if len(list) != 3 {
		t.Fatalf("expected 3 sessions, got %d", len(list))
	}
	for i, snap := range list {
		if snap.ID != ids[i] {
			t.Fatalf("expected %s at %d, got %s", ids[i], i, snap.ID)
		}
	}
}

func TestManagerConcurrentDispatchIsSerialised(t *testing.T) {
	m := NewManager(Config{TapeSize: 1000})
	created, _ := m.Create(context.Background())

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = m.Dispatch(context.Background(), created.ID, calculator.Digit("1"))
		}()
	}
	wg.Wait()

	snap, _ := m.Get(created.ID)
	if len(snap.State.Input) != 50 {
		t.Fatalf("expected 50 digits, got %d", len(snap.State.Input))
	}
	if snap.Seq != 50 {
		t.Fatalf("expected seq 50, got %d", snap.Seq)
	}
}
