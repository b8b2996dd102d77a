package core_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skekre98/hostkit/core"
)

type eventSink struct {
	mu     sync.Mutex
	events []core.Event
}

func (s *eventSink) Observe(e core.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, e)
}

func (s *eventSink) kinds() []core.EventKind {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.EventKind, len(s.events))
	for i, e := range s.events {
		out[i] = e.Kind
	}
	return out
}

func TestApp_EmitReachesRegisteredObservers(t *testing.T) {
	app := core.NewApp("app", quietLogger())
	a, b := &eventSink{}, &eventSink{}
	app.RegisterObserver(a)
	app.RegisterObserver(b)

	app.Emit(core.Started, "db")
	app.UnregisterObserver(a)
	app.Emit(core.Stopped, "db")

	assert.Equal(t, []core.EventKind{core.Started}, a.kinds())
	assert.Equal(t, []core.EventKind{core.Started, core.Stopped}, b.kinds())
}

func TestApp_EmitIsConcurrencySafe(t *testing.T) {
	app := core.NewApp("app", quietLogger())
	sink := &eventSink{}
	app.RegisterObserver(sink)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			app.Emit(core.Started, "worker")
		}()
	}
	wg.Wait()
	assert.Len(t, sink.kinds(), 20)
}

func TestApp_TrackerSeesLifecycle(t *testing.T) {
	app := core.NewApp("orders", quietLogger())
	require.NoError(t, app.Start(context.Background()))

	c, err := app.Container()
	require.NoError(t, err)
	tracker := core.MustLookup[*core.Tracker](c)

	app.Emit(core.Started, "http")
	snap := tracker.Snapshot()
	assert.Equal(t, core.Created, snap["orders"].Kind)
	assert.Equal(t, core.Started, snap["http"].Kind)

	require.NoError(t, app.Stop(context.Background()))
	assert.Equal(t, core.Destroyed, tracker.Snapshot()["orders"].Kind)

	// unregistered on stop
	app.Emit(core.Stopped, "http")
	assert.Equal(t, core.Started, tracker.Snapshot()["http"].Kind)

	_, err = app.Container()
	assert.ErrorIs(t, err, core.ErrNotStarted)
}

type signalContributor struct {
	stub
	up   chan struct{}
	down bool
}

func (s *signalContributor) RegisterStartupHooks(_ core.Host, hooks *core.Hooks) error {
	hooks.Add("signal", func(context.Context, core.Host) error {
		close(s.up)
		return nil
	})
	return nil
}

func (s *signalContributor) RegisterShutdownHooks(_ core.Host, hooks *core.Hooks) error {
	hooks.Add("record", func(context.Context, core.Host) error {
		s.down = true
		return nil
	})
	return nil
}

func TestApp_RunStopsWhenContextDone(t *testing.T) {
	var log []string
	s := &signalContributor{stub: stub{name: "A", log: &log}, up: make(chan struct{})}
	app := core.NewApp("app", quietLogger(), s)
	app.ShutdownTimeout = time.Second

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- app.Run(ctx) }()

	select {
	case <-s.up:
	case <-time.After(2 * time.Second):
		t.Fatal("startup hook did not run")
	}
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return")
	}
	assert.True(t, s.down)
}

func TestApp_RunReturnsStartError(t *testing.T) {
	var log []string
	app := core.NewApp("app", quietLogger(), &stub{name: "Bad", log: &log, failAt: core.StageOptions})

	err := app.Run(context.Background())
	var cerr *core.ConfigurationError
	assert.ErrorAs(t, err, &cerr)
}

func TestEventKind_String(t *testing.T) {
	assert.Equal(t, "created", core.Created.String())
	assert.Equal(t, "destroyed", core.Destroyed.String())
	assert.Equal(t, "unknown", core.EventKind(42).String())
}
