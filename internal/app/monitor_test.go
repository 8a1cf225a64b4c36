package app

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/detekto/cellwatch/internal/config"
	"github.com/detekto/cellwatch/internal/connectors"
	"github.com/detekto/cellwatch/internal/domain"
	"github.com/detekto/cellwatch/internal/signal"
	"github.com/detekto/cellwatch/internal/telephony"
)

// scriptedObserver replays one script per Observe call; the last script is
// reused once the list runs out.
type scriptedObserver struct {
	mu      sync.Mutex
	scripts [][]signal.Update
	calls   int
}

func (o *scriptedObserver) Observe(ctx context.Context) <-chan signal.Update {
	o.mu.Lock()
	idx := o.calls
	if idx >= len(o.scripts) {
		idx = len(o.scripts) - 1
	}
	script := o.scripts[idx]
	o.calls++
	o.mu.Unlock()

	out := make(chan signal.Update)
	go func() {
		defer close(out)
		for _, update := range script {
			select {
			case out <- update:
			case <-ctx.Done():
				return
			}
		}
		<-ctx.Done()
	}()

	return out
}

func (o *scriptedObserver) callCount() int {
	o.mu.Lock()
	defer o.mu.Unlock()

	return o.calls
}

var jioLTE = domain.SignalInfo{
	OperatorName:          "Jio",
	OperatorCode:          "405-860",
	NetworkType:           domain.NetworkLTE,
	SignalStrengthDbm:     -95,
	SignalStrengthPercent: 75,
	IsRegistered:          true,
}

func TestMonitorPublishesSnapshotsAndSightings(t *testing.T) {
	messageBus := newTestMessageBus(t)
	snapshots := messageBus.Subscribe(connectors.TopicSignalSnapshot)
	sightings := messageBus.Subscribe(connectors.TopicOperatorSighted)

	observer := &scriptedObserver{scripts: [][]signal.Update{{{
		Session:   "s1",
		Signals:   []domain.SignalInfo{jioLTE},
		Sightings: []domain.OperatorSighting{{Code: "405-860", Name: "Jio 4G"}},
		At:        time.Unix(100, 0),
	}}}}
	monitor := NewMonitor(observer, telephony.StaticPermissions{FineLocation: true}, messageBus, func() bool { return true }, nil)
	if !monitor.State().Loading {
		t.Fatalf("expected monitor to start in loading state")
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	monitor.Start(ctx)

	select {
	case raw := <-snapshots:
		state, ok := raw.(SignalState)
		if !ok {
			t.Fatalf("unexpected snapshot payload: %#v", raw)
		}
		if state.Loading || !state.HasPermission || state.Session != "s1" || len(state.Signals) != 1 {
			t.Fatalf("unexpected state: %+v", state)
		}
		if len(state.Providers) != 1 || state.Providers[0].OperatorCode != "405-860" {
			t.Fatalf("expected grouped providers, got %+v", state.Providers)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for snapshot")
	}

	select {
	case raw := <-sightings:
		if sighting, ok := raw.(domain.OperatorSighting); !ok || sighting.Name != "Jio 4G" {
			t.Fatalf("unexpected sighting: %#v", raw)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for sighting")
	}

	if got := monitor.State(); !got.UpdatedAt.Equal(time.Unix(100, 0)) {
		t.Fatalf("expected state accessor to return latest snapshot, got %+v", got)
	}
}

func TestMonitorSkipsSightingsWhenLearningDisabled(t *testing.T) {
	messageBus := newTestMessageBus(t)
	snapshots := messageBus.Subscribe(connectors.TopicSignalSnapshot)
	sightings := messageBus.Subscribe(connectors.TopicOperatorSighted)

	observer := &scriptedObserver{scripts: [][]signal.Update{{{
		Signals:   []domain.SignalInfo{jioLTE},
		Sightings: []domain.OperatorSighting{{Code: "405-860", Name: "Jio 4G"}},
	}}}}
	monitor := NewMonitor(observer, telephony.StaticPermissions{FineLocation: true}, messageBus, func() bool { return false }, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	monitor.Start(ctx)

	select {
	case <-snapshots:
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for snapshot")
	}
	select {
	case raw := <-sightings:
		t.Fatalf("unexpected sighting with learning disabled: %#v", raw)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestMonitorRecordsErrorAndResubscribes(t *testing.T) {
	messageBus := newTestMessageBus(t)
	snapshots := messageBus.Subscribe(connectors.TopicSignalSnapshot)

	observer := &scriptedObserver{scripts: [][]signal.Update{
		{
			{Session: "s1", Signals: []domain.SignalInfo{jioLTE}},
			{Session: "s1", Err: errors.New("collect cells: link down")},
		},
		{
			{Session: "s2", Signals: nil},
		},
	}}
	monitor := NewMonitor(observer, telephony.StaticPermissions{FineLocation: true}, messageBus, nil, nil)
	monitor.minBackoff = 10 * time.Millisecond
	monitor.maxBackoff = 20 * time.Millisecond
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	monitor.Start(ctx)

	var states []SignalState
	for len(states) < 3 {
		select {
		case raw := <-snapshots:
			states = append(states, raw.(SignalState))
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out after %d snapshots", len(states))
		}
	}

	failed := states[1]
	if failed.Error != "collect cells: link down" {
		t.Fatalf("expected terminal error to be recorded, got %+v", failed)
	}
	if len(failed.Signals) != 1 {
		t.Fatalf("expected last good signals kept next to the error, got %+v", failed.Signals)
	}
	recovered := states[2]
	if recovered.Error != "" || recovered.Session != "s2" || len(recovered.Signals) != 0 {
		t.Fatalf("expected a clean state after resubscribe, got %+v", recovered)
	}
	if got := observer.callCount(); got != 2 {
		t.Fatalf("expected 2 observations, got %d", got)
	}
}

func TestMonitorReportsMissingPermission(t *testing.T) {
	messageBus := newTestMessageBus(t)
	snapshots := messageBus.Subscribe(connectors.TopicSignalSnapshot)

	observer := &scriptedObserver{scripts: [][]signal.Update{{{Session: "s1"}}}}
	cfg := config.Default()
	cfg.Permissions.FineLocation = false
	permissions := NewConfigPermissions(func() config.AppConfig { return cfg })
	monitor := NewMonitor(observer, permissions, messageBus, nil, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	monitor.Start(ctx)

	select {
	case raw := <-snapshots:
		state := raw.(SignalState)
		if state.HasPermission || len(state.Signals) != 0 || state.Error != "" {
			t.Fatalf("expected empty permissionless state, got %+v", state)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for snapshot")
	}
}

func TestMonitorRunReturnsOnCancel(t *testing.T) {
	observer := &scriptedObserver{scripts: [][]signal.Update{{}}}
	monitor := NewMonitor(observer, telephony.StaticPermissions{}, nil, nil, nil)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		monitor.Run(ctx)
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("monitor did not stop after cancel")
	}
}

func TestNextBackoff(t *testing.T) {
	tests := []struct {
		current time.Duration
		want    time.Duration
	}{
		{current: time.Second, want: 2 * time.Second},
		{current: 8 * time.Second, want: 15 * time.Second},
		{current: 15 * time.Second, want: 15 * time.Second},
	}
	for _, tt := range tests {
		if got := nextBackoff(tt.current, monitorMaxBackoff); got != tt.want {
			t.Fatalf("nextBackoff(%s) = %s, want %s", tt.current, got, tt.want)
		}
	}
}

func TestConfigPermissions(t *testing.T) {
	cfg := config.Default()
	permissions := NewConfigPermissions(func() config.AppConfig { return cfg })
	if !permissions.HasFineLocation() || !permissions.HasReadPhoneState() {
		t.Fatalf("expected default grants")
	}

	cfg.Permissions.ReadPhoneState = false
	if permissions.HasReadPhoneState() {
		t.Fatalf("expected revoked grant to be seen on the next check")
	}
	if (ConfigPermissions{}).HasFineLocation() {
		t.Fatalf("expected zero value to deny")
	}
}
