package statestore

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/navikt/behovsakkumulator/internal/eventlog"
	pebblestore "github.com/navikt/behovsakkumulator/internal/storage/pebble"
)

const restoreBatchSize = 512

// Store is the State Store over one data topic's changelog.
type Store struct {
	db        *pebblestore.DB
	namespace string
	topic     string

	mu        sync.Mutex
	changelog map[uint32]*eventlog.Log
	states    map[uint32]map[string]NeedState
}

// New builds a Store backing the changelog for namespace/topic.
func New(db *pebblestore.DB, namespace, topic string) *Store {
	return &Store{
		db:        db,
		namespace: namespace,
		topic:     topic,
		changelog: make(map[uint32]*eventlog.Log),
		states:    make(map[uint32]map[string]NeedState),
	}
}

func changelogTopic(topic string) string { return "__changelog__/" + topic }

func (s *Store) changelogLog(partition uint32) (*eventlog.Log, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if l, ok := s.changelog[partition]; ok {
		return l, nil
	}
	l, err := eventlog.OpenLog(s.db, s.namespace, changelogTopic(s.topic), partition)
	if err != nil {
		return nil, err
	}
	s.changelog[partition] = l
	return l, nil
}

// Get returns the current NeedState for id on partition, or false if no
// record has been observed for it. Safe to call concurrently with Put and
// Restore — the admin HTTP state lookup (internal/query.Inspector) runs in
// its own goroutine alongside the partition's single writer worker.
func (s *Store) Get(partition uint32, id string) (NeedState, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.states[partition]
	if !ok {
		return NeedState{}, false
	}
	st, ok := m[id]
	return st, ok
}

// Put upserts state: it is written to the partition's changelog first, and
// only applied to the in-memory map once that write is durable.
func (s *Store) Put(ctx context.Context, partition uint32, state NeedState) error {
	val, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("statestore: marshal state for %q: %w", state.ID, err)
	}
	l, err := s.changelogLog(partition)
	if err != nil {
		return fmt.Errorf("statestore: open changelog for partition %d: %w", partition, err)
	}
	var hdr [8]byte
	binary.BigEndian.PutUint64(hdr[:], uint64(time.Now().UnixMilli()))
	if _, err := l.Append(ctx, []eventlog.AppendRecord{{Header: hdr[:], Payload: val}}); err != nil {
		return fmt.Errorf("statestore: changelog append failed for id %q: %w", state.ID, err)
	}

	s.mu.Lock()
	m, ok := s.states[partition]
	if !ok {
		m = make(map[string]NeedState)
		s.states[partition] = m
	}
	m[state.ID] = state
	s.mu.Unlock()
	return nil
}

// Restore rebuilds partition's in-memory map by replaying its changelog
// from the beginning. It must be called before a worker starts processing
// live input for that partition. The rebuilt map is swapped in under the
// lock only once fully replayed, so it never interleaves with a concurrent
// Get on a partially-replayed map.
func (s *Store) Restore(ctx context.Context, partition uint32) error {
	l, err := s.changelogLog(partition)
	if err != nil {
		return fmt.Errorf("statestore: open changelog for partition %d: %w", partition, err)
	}
	rebuilt := make(map[string]NeedState)
	var start eventlog.Token
	for {
		items, next := l.Read(eventlog.ReadOptions{Start: start, Limit: restoreBatchSize})
		for _, it := range items {
			var st NeedState
			if err := json.Unmarshal(it.Payload, &st); err != nil {
				continue
			}
			rebuilt[st.ID] = st
		}
		if len(items) < restoreBatchSize {
			break
		}
		start = next
	}

	s.mu.Lock()
	s.states[partition] = rebuilt
	s.mu.Unlock()
	return nil
}

// Unload drops partition's in-memory NeedState map, e.g. after a rebalance
// moves ownership of the partition elsewhere. The changelog itself is
// untouched; a later Restore rebuilds the map before this instance resumes
// ownership.
func (s *Store) Unload(partition uint32) {
	s.mu.Lock()
	delete(s.states, partition)
	s.mu.Unlock()
}

// CompactChangelog trims changelog entries older than cutoffMs and
// compacts the underlying storage range. It is an out-of-band operator
// action — the core performs no automatic eviction (spec.md §9).
func (s *Store) CompactChangelog(ctx context.Context, partition uint32, cutoffMs int64) (int, error) {
	l, err := s.changelogLog(partition)
	if err != nil {
		return 0, err
	}
	deleted, _, err := l.TrimOlderThan(ctx, cutoffMs, 1024, 0, func(header []byte) (int64, bool) {
		if len(header) < 8 {
			return 0, false
		}
		return int64(binary.BigEndian.Uint64(header[:8])), true
	})
	if err != nil {
		return deleted, err
	}
	low := eventlog.KeyLogEntry(s.namespace, changelogTopic(s.topic), partition, 0)
	hi := eventlog.KeyLogEntry(s.namespace, changelogTopic(s.topic), partition, ^uint64(0))
	if err := s.db.CompactRange(low, append(hi, 0x00)); err != nil {
		return deleted, fmt.Errorf("statestore: compact changelog range: %w", err)
	}
	return deleted, nil
}
