// Package stub provides test doubles for ingestion consumers.
package stub

import (
	"sync"

	"survive-arena/internal/domain"
)

// Listener records every batch handed to OnEvents.
type Listener struct {
	mu      sync.Mutex
	batches [][]*domain.LedgerEvent
}

// OnEvents stores a copy of the batch.
func (l *Listener) OnEvents(events []*domain.LedgerEvent) {
	cp := make([]*domain.LedgerEvent, len(events))
	copy(cp, events)

	l.mu.Lock()
	defer l.mu.Unlock()
	l.batches = append(l.batches, cp)
}

// Batches returns the recorded batches.
func (l *Listener) Batches() [][]*domain.LedgerEvent {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([][]*domain.LedgerEvent, len(l.batches))
	copy(out, l.batches)
	return out
}

// Events returns every recorded event in arrival order.
func (l *Listener) Events() []*domain.LedgerEvent {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []*domain.LedgerEvent
	for _, b := range l.batches {
		out = append(out, b...)
	}
	return out
}
