package query

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/navikt/behovsakkumulator/internal/bus"
	pebblestore "github.com/navikt/behovsakkumulator/internal/storage/pebble"
	"github.com/navikt/behovsakkumulator/internal/statestore"
	logpkg "github.com/navikt/behovsakkumulator/pkg/log"
)

func newTestAdapter(t *testing.T, partitions int) *bus.Adapter {
	t.Helper()
	dir := t.TempDir()
	db, err := pebblestore.Open(pebblestore.Options{DataDir: dir, Fsync: pebblestore.FsyncModeAlways})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	lg := logpkg.NewLogger(logpkg.WithOutput(logpkg.NullOutput{}))
	return bus.NewAdapter(db, "ns", "behov", partitions, lg)
}

func send(t *testing.T, b *bus.Adapter, env map[string]interface{}) {
	t.Helper()
	val, err := json.Marshal(env)
	require.NoError(t, err)
	_, _, err = b.Send(context.Background(), env["@id"].(string), val)
	require.NoError(t, err)
}

func TestSearchFiltersByCELExpression(t *testing.T) {
	b := newTestAdapter(t, 1)
	send(t, b, map[string]interface{}{"@id": "a1", "@behov": []interface{}{"X"}})
	send(t, b, map[string]interface{}{"@id": "a2", "@behov": []interface{}{"Y"}, "final": true})

	f, err := NewFilter(`final == true`)
	require.NoError(t, err)

	matches, err := Search(b, f)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	require.Equal(t, "a2", matches[0].Record["@id"])
}

func TestSearchWithEmptyFilterReturnsEverything(t *testing.T) {
	b := newTestAdapter(t, 1)
	send(t, b, map[string]interface{}{"@id": "a1"})
	send(t, b, map[string]interface{}{"@id": "a2"})

	f, err := NewFilter("")
	require.NoError(t, err)
	matches, err := Search(b, f)
	require.NoError(t, err)
	require.Len(t, matches, 2)
}

func TestSearchCanFilterByID(t *testing.T) {
	b := newTestAdapter(t, 1)
	send(t, b, map[string]interface{}{"@id": "keep"})
	send(t, b, map[string]interface{}{"@id": "drop"})

	f, err := NewFilter(`id == "keep"`)
	require.NoError(t, err)
	matches, err := Search(b, f)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	require.Equal(t, "keep", matches[0].Record["@id"])
}

func TestInspectReturnsNotFoundForUnknownID(t *testing.T) {
	b := newTestAdapter(t, 4)
	insp := NewInspector(b, statestore.New(nil, "ns", "behov"))
	_, err := insp.Inspect("nope")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestInspectFindsStateOnItsOwnPartition(t *testing.T) {
	dir := t.TempDir()
	db, err := pebblestore.Open(pebblestore.Options{DataDir: dir, Fsync: pebblestore.FsyncModeAlways})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	lg := logpkg.NewLogger(logpkg.WithOutput(logpkg.NullOutput{}))
	b := bus.NewAdapter(db, "ns", "behov", 4, lg)
	store := statestore.New(db, "ns", "behov")

	partition := b.PartitionFor("id-123")
	require.NoError(t, store.Put(context.Background(), partition, statestore.NeedState{
		ID:        "id-123",
		Solutions: map[string]interface{}{},
	}))

	insp := NewInspector(b, store)
	state, err := insp.Inspect("id-123")
	require.NoError(t, err)
	require.Equal(t, "id-123", state.ID)
}
