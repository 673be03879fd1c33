package bus

import (
	"context"
	"testing"

	pebblestore "github.com/navikt/behovsakkumulator/internal/storage/pebble"
	logpkg "github.com/navikt/behovsakkumulator/pkg/log"
	"github.com/stretchr/testify/require"
)

func newTestAdapter(t *testing.T, partitions int) *Adapter {
	t.Helper()
	dir := t.TempDir()
	db, err := pebblestore.Open(pebblestore.Options{DataDir: dir, Fsync: pebblestore.FsyncModeAlways})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewAdapter(db, "ns", "behov", partitions, logpkg.NewLogger(logpkg.WithOutput(logpkg.NullOutput{})))
}

func TestSendRoutesByKeyHash(t *testing.T) {
	a := newTestAdapter(t, 4)
	ctx := context.Background()

	p1, _, err := a.Send(ctx, "b1", []byte(`{"@id":"b1"}`))
	require.NoError(t, err)
	p2, _, err := a.Send(ctx, "b1", []byte(`{"@id":"b1"}`))
	require.NoError(t, err)
	require.Equal(t, p1, p2, "same key must route to the same partition")
}

func TestPollDropsMalformedAndCounts(t *testing.T) {
	a := newTestAdapter(t, 1)
	ctx := context.Background()

	_, _, err := a.Send(ctx, "", []byte(`not json`))
	require.NoError(t, err)
	_, _, err = a.Send(ctx, "", []byte(`{"aktørId":"a1"}`))
	require.NoError(t, err)
	_, _, err = a.Send(ctx, "b1", []byte(`{"@id":"b1"}`))
	require.NoError(t, err)

	msgs, _, err := a.Poll(0, "workers", Token{}, 10)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	require.Equal(t, "b1", msgs[0].ID)
	require.Equal(t, uint64(2), a.MalformedCount())
}

func TestPollDecodesReservedFields(t *testing.T) {
	a := newTestAdapter(t, 1)
	ctx := context.Background()

	_, _, err := a.Send(ctx, "b1", []byte(`{"@id":"b1","@behov":["A","B"],"@løsning":{"A":1},"x":"y"}`))
	require.NoError(t, err)

	msgs, _, err := a.Poll(0, "workers", Token{}, 10)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	m := msgs[0]
	require.Equal(t, []string{"A", "B"}, m.Behov)
	require.Equal(t, float64(1), m.Losning["A"])
	require.False(t, m.Final)
	require.Equal(t, "y", m.Envelope["x"])
}

func TestCommitAndStartTokenResume(t *testing.T) {
	a := newTestAdapter(t, 1)
	ctx := context.Background()

	_, tok1, err := a.Send(ctx, "b1", []byte(`{"@id":"b1","@behov":["A"]}`))
	require.NoError(t, err)
	_, _, err = a.Send(ctx, "b1", []byte(`{"@id":"b1","@løsning":{"A":1}}`))
	require.NoError(t, err)

	require.NoError(t, a.Commit(0, "workers", tok1))

	start, err := a.StartToken(0, "workers")
	require.NoError(t, err)

	msgs, _, err := a.Poll(0, "workers", start, 10)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	require.NotNil(t, msgs[0].Losning)
}
