// Package store holds the local mirror of a repository's items: a keyed
// collection updated in bulk by reconciliation cycles and read as
// materialized snapshots by any number of concurrent view consumers.
package store

import (
	"sync"
	"time"

	"github.com/mlowell/hubmirror/internal/item"
)

// SyncMeta describes the health of the most recent reconciliation cycles.
type SyncMeta struct {
	LastUpdated         time.Time
	LastError           error
	ConsecutiveFailures int

	// Partial is set when the last successful cycle substituted a cached
	// page for one that failed to fetch, so some items may be stale.
	Partial bool
}

// IsOffline returns true when the remote has been unreachable for
// multiple consecutive cycles.
func (m SyncMeta) IsOffline() bool {
	return m.ConsecutiveFailures >= 2
}

// Store coordinates concurrent access to the mirrored items.
//
// Writers are reconciliation cycles; readers are view pipelines. Readers
// only ever see materialized snapshot slices, never the live map, so a
// reader cannot observe a half-applied cycle.
type Store struct {
	mu    sync.RWMutex
	items map[int]item.Item
	meta  SyncMeta
	subs  []chan []item.Item
}

// New returns an empty store.
func New() *Store {
	return &Store{items: make(map[int]item.Item)}
}

// UpsertAll inserts or overwrites each item by ID. It never removes
// entries absent from the batch. A non-empty batch emits one change
// notification.
func (s *Store) UpsertAll(items []item.Item) {
	if len(items) == 0 {
		return
	}
	s.mu.Lock()
	for _, it := range items {
		s.items[it.ID] = it.Clone()
	}
	s.publishLocked(s.snapshotLocked())
	s.mu.Unlock()
}

// RemoveAll deletes the listed keys; absent keys are ignored. A change
// notification is emitted only when at least one entry was deleted.
func (s *Store) RemoveAll(ids []int) {
	s.mu.Lock()
	removed := false
	for _, id := range ids {
		if _, ok := s.items[id]; ok {
			delete(s.items, id)
			removed = true
		}
	}
	if removed {
		s.publishLocked(s.snapshotLocked())
	}
	s.mu.Unlock()
}

// ApplyCycle applies one reconciliation cycle's upserts and removals as a
// single logical update: both mutations happen under one lock acquisition
// and subscribers see exactly one notification for the pair.
func (s *Store) ApplyCycle(items []item.Item, staleIDs []int) {
	if len(items) == 0 && len(staleIDs) == 0 {
		return
	}
	s.mu.Lock()
	for _, it := range items {
		s.items[it.ID] = it.Clone()
	}
	for _, id := range staleIDs {
		delete(s.items, id)
	}
	s.publishLocked(s.snapshotLocked())
	s.mu.Unlock()
}

// Snapshot returns a fresh slice of the current items in unspecified
// order. The slice and its elements are independent of the store.
func (s *Store) Snapshot() []item.Item {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

// Keys returns the IDs currently present, in unspecified order.
func (s *Store) Keys() []int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := make([]int, 0, len(s.items))
	for id := range s.items {
		keys = append(keys, id)
	}
	return keys
}

// Len reports the number of items currently mirrored.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

// Reset drops every item and all sync metadata. Used on logout or when
// the session switches repositories. Subscribers are notified with an
// empty snapshot.
func (s *Store) Reset() {
	s.mu.Lock()
	s.items = make(map[int]item.Item)
	s.meta = SyncMeta{}
	s.publishLocked(nil)
	s.mu.Unlock()
}

// RecordSuccess marks the completion of a successful reconciliation
// cycle. partial indicates that at least one page was served stale.
func (s *Store) RecordSuccess(partial bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.meta.LastError = nil
	s.meta.LastUpdated = time.Now()
	s.meta.ConsecutiveFailures = 0
	s.meta.Partial = partial
}

// RecordFailure notes a failed cycle. The mirrored items are untouched.
func (s *Store) RecordFailure(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.meta.LastError = err
	s.meta.LastUpdated = time.Now()
	s.meta.ConsecutiveFailures++
}

// Meta returns a copy of the current sync metadata.
func (s *Store) Meta() SyncMeta {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.meta
}

// Subscribe registers a change listener. The returned channel carries the
// latest full snapshot after each mutation; if the consumer lags, older
// snapshots are dropped so it always wakes to the current state. The
// cancel func unregisters the listener and closes the channel.
func (s *Store) Subscribe() (<-chan []item.Item, func()) {
	ch := make(chan []item.Item, 1)
	s.mu.Lock()
	s.subs = append(s.subs, ch)
	s.mu.Unlock()

	cancel := func() {
		s.mu.Lock()
		for i, sub := range s.subs {
			if sub == ch {
				s.subs = append(s.subs[:i], s.subs[i+1:]...)
				close(ch)
				break
			}
		}
		s.mu.Unlock()
	}
	return ch, cancel
}

func (s *Store) snapshotLocked() []item.Item {
	snap := make([]item.Item, 0, len(s.items))
	for _, it := range s.items {
		snap = append(snap, it.Clone())
	}
	return snap
}

// publishLocked hands the snapshot to every subscriber, replacing any
// pending unread snapshot. Called with the write lock held, which
// serializes senders and keeps cancel from closing a channel mid-send;
// with a single sender and capacity one, the drain-then-send below
// cannot block.
func (s *Store) publishLocked(snap []item.Item) {
	for _, ch := range s.subs {
		select {
		case ch <- snap:
		default:
			select {
			case <-ch:
			default:
			}
			ch <- snap
		}
	}
}
