package query

import (
	"fmt"

	"github.com/navikt/behovsakkumulator/internal/bus"
	"github.com/navikt/behovsakkumulator/internal/statestore"
)

// Inspector answers point lookups against one topic's bus and state store,
// backing the "inspect" CLI subcommand and the admin HTTP server's
// /v1/state/{id} endpoint.
type Inspector struct {
	bus   *bus.Adapter
	store *statestore.Store
}

// NewInspector builds an Inspector over b and store, which must share the
// same namespace/topic.
func NewInspector(b *bus.Adapter, store *statestore.Store) *Inspector {
	return &Inspector{bus: b, store: store}
}

// ErrNotFound is returned by Inspect when id has never been observed.
var ErrNotFound = fmt.Errorf("query: id not found")

// Inspect returns the current NeedState for id, looking it up on the
// partition its key hashes to (spec.md §5: keys are never split across
// partitions, so this is always the right place to look).
func (i *Inspector) Inspect(id string) (statestore.NeedState, error) {
	partition := i.bus.PartitionFor(id)
	state, ok := i.store.Get(partition, id)
	if !ok {
		return statestore.NeedState{}, ErrNotFound
	}
	return state, nil
}
