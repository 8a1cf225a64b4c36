package domain

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/detekto/cellwatch/internal/bus"
	"github.com/detekto/cellwatch/internal/connectors"
)

// OperatorDirectory keeps carrier names learned from broadcasting cells so
// neighbors of the same carrier can be named even when they stay silent.
type OperatorDirectory struct {
	mu      sync.RWMutex
	entries map[string]LearnedOperator
	changes chan struct{}
}

func NewOperatorDirectory() *OperatorDirectory {
	return &OperatorDirectory{
		entries: make(map[string]LearnedOperator),
		changes: make(chan struct{}, 1),
	}
}

func (d *OperatorDirectory) Load(items []LearnedOperator) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, item := range items {
		if !hasOperatorCode(item.Code) || strings.TrimSpace(item.Name) == "" {
			continue
		}
		d.entries[item.Code] = item
	}
	d.notify()
}

// Start consumes sightings from the bus and republishes new or renamed
// entries on TopicOperatorLearned.
func (d *OperatorDirectory) Start(ctx context.Context, b bus.MessageBus) {
	sub := b.Subscribe(connectors.TopicOperatorSighted)
	go func() {
		defer b.Unsubscribe(sub, connectors.TopicOperatorSighted)
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-sub:
				if !ok {
					return
				}
				sighting, ok := msg.(OperatorSighting)
				if !ok {
					continue
				}
				if learned, changed := d.Learn(sighting, time.Now()); changed {
					b.Publish(connectors.TopicOperatorLearned, learned)
				}
			}
		}
	}()
}

// Learn records a sighting and reports whether the directory changed.
func (d *OperatorDirectory) Learn(sighting OperatorSighting, at time.Time) (LearnedOperator, bool) {
	code := strings.TrimSpace(sighting.Code)
	name := strings.TrimSpace(sighting.Name)
	if !hasOperatorCode(code) || !usableAlpha(name) {
		return LearnedOperator{}, false
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if existing, ok := d.entries[code]; ok && existing.Name == name {
		return existing, false
	}
	learned := LearnedOperator{Code: code, Name: name, UpdatedAt: at}
	d.entries[code] = learned
	d.notify()

	return learned, true
}

func (d *OperatorDirectory) Lookup(code string) (string, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	entry, ok := d.entries[code]
	if !ok {
		return "", false
	}

	return entry.Name, true
}

func (d *OperatorDirectory) SnapshotSorted() []LearnedOperator {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]LearnedOperator, 0, len(d.entries))
	for _, entry := range d.entries {
		out = append(out, entry)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Code < out[j].Code
	})

	return out
}

func (d *OperatorDirectory) Changes() <-chan struct{} {
	return d.changes
}

func (d *OperatorDirectory) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.entries = make(map[string]LearnedOperator)
	d.notify()
}

func (d *OperatorDirectory) notify() {
	select {
	case d.changes <- struct{}{}:
	default:
	}
}
