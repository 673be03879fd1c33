package bus

import (
	"context"
	"encoding/binary"
	"hash/crc32"
	"sync"
	"sync/atomic"
	"time"

	"github.com/navikt/behovsakkumulator/internal/eventlog"
	pebblestore "github.com/navikt/behovsakkumulator/internal/storage/pebble"
	idpkg "github.com/navikt/behovsakkumulator/pkg/id"
	logpkg "github.com/navikt/behovsakkumulator/pkg/log"
)

// RebalanceFunc is invoked when a partition is assigned to (or released by)
// this instance. Single-process deployments assign every partition once at
// startup; a distributed bus client would call it again as ownership moves.
type RebalanceFunc func(partition uint32, assigned bool)

// Adapter is the Log Adapter over a single topic within a namespace.
type Adapter struct {
	db         *pebblestore.DB
	namespace  string
	topic      string
	partitions int
	log        logpkg.Logger

	mu   sync.Mutex
	logs map[uint32]*eventlog.Log

	malformed uint64
	diagIDs   *idpkg.Generator
}

// NewAdapter builds a Log Adapter for namespace/topic with the given
// partition count, backed by internal/eventlog.
func NewAdapter(db *pebblestore.DB, namespace, topic string, partitions int, lg logpkg.Logger) *Adapter {
	if partitions <= 0 {
		partitions = 1
	}
	if lg == nil {
		lg = logpkg.NewLogger()
	}
	return &Adapter{
		db:         db,
		namespace:  namespace,
		topic:      topic,
		partitions: partitions,
		log:        lg.WithComponent("bus"),
		logs:       make(map[uint32]*eventlog.Log),
		diagIDs:    idpkg.NewGenerator(),
	}
}

// Partitions returns the configured partition count for this topic.
func (a *Adapter) Partitions() int { return a.partitions }

// PartitionFor returns the partition a key routes to.
func (a *Adapter) PartitionFor(key string) uint32 {
	if a.partitions <= 1 {
		return 0
	}
	return crc32.ChecksumIEEE([]byte(key)) % uint32(a.partitions)
}

// AssignPartitions calls cb(p, true) for every partition this instance owns.
// In this single-process runtime that is always every partition.
func (a *Adapter) AssignPartitions(cb RebalanceFunc) {
	for p := 0; p < a.partitions; p++ {
		cb(uint32(p), true)
	}
}

func (a *Adapter) openLog(partition uint32) (*eventlog.Log, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if l, ok := a.logs[partition]; ok {
		return l, nil
	}
	l, err := eventlog.OpenLog(a.db, a.namespace, a.topic, partition)
	if err != nil {
		return nil, err
	}
	a.logs[partition] = l
	return l, nil
}

// Send routes value by the hash of key to a partition and appends it.
func (a *Adapter) Send(ctx context.Context, key string, value []byte) (uint32, Token, error) {
	p := a.PartitionFor(key)
	l, err := a.openLog(p)
	if err != nil {
		return 0, Token{}, err
	}
	seqs, err := l.Append(ctx, []eventlog.AppendRecord{{Payload: value}})
	if err != nil {
		return 0, Token{}, err
	}
	return p, tokenFromSeq(seqs[0]), nil
}

// StartToken resolves the position a partition's consumer group should poll
// from: just past its committed cursor, or the beginning of the log if the
// group has never committed on this partition.
func (a *Adapter) StartToken(partition uint32, group string) (Token, error) {
	l, err := a.openLog(partition)
	if err != nil {
		return Token{}, err
	}
	if cur, ok := l.GetCursor(group); ok {
		return tokenFromSeq(cur.Seq() + 1), nil
	}
	return Token{}, nil
}

// Poll reads up to limit records from partition starting at start,
// decoding each as a Message. Malformed records are dropped, counted, and
// their offsets are committed immediately since no state transition applies
// to them (spec §4.1/§7). The returned token is where the next Poll should
// start.
func (a *Adapter) Poll(partition uint32, group string, start Token, limit int) ([]Message, Token, error) {
	l, err := a.openLog(partition)
	if err != nil {
		return nil, start, err
	}
	items, next := l.Read(eventlog.ReadOptions{Start: eventlog.Token(start), Limit: limit})
	if next.Seq() == 0 {
		// Read returns a zero token once it reaches the end of the log:
		// resume just past the last record read, or stay at start.
		next = eventlog.Token(start)
		if n := len(items); n > 0 {
			next = eventlog.Token(tokenFromSeq(items[n-1].Seq + 1))
		}
	}
	out := make([]Message, 0, len(items))
	for _, it := range items {
		tok := tokenFromSeq(it.Seq)
		msg, ok := decodeMessage(partition, tok, it.Payload)
		if !ok {
			atomic.AddUint64(&a.malformed, 1)
			diagID := a.diagIDs.Next()
			a.log.Warn("dropping malformed record",
				logpkg.Str("topic", a.topic), logpkg.Uint32("partition", partition), logpkg.Str("diag_id", diagID.String()))
			if group != "" {
				_ = l.CommitCursor(group, eventlog.Token(tok))
			}
			continue
		}
		out = append(out, msg)
	}
	return out, Token(next), nil
}

// Commit advances group's durable cursor on partition to tok, the token of
// the last record the caller has durably processed.
func (a *Adapter) Commit(partition uint32, group string, tok Token) error {
	l, err := a.openLog(partition)
	if err != nil {
		return err
	}
	return l.CommitCursor(group, eventlog.Token(tok))
}

// WaitForAppend blocks until partition receives a new record or timeout
// elapses, returning false on timeout.
func (a *Adapter) WaitForAppend(partition uint32, timeout time.Duration) bool {
	l, err := a.openLog(partition)
	if err != nil {
		return false
	}
	return l.WaitForAppend(timeout)
}

// MalformedCount returns the number of records dropped for failing the
// malformed-record contract, across all partitions of this adapter.
func (a *Adapter) MalformedCount() uint64 {
	return atomic.LoadUint64(&a.malformed)
}

func tokenFromSeq(seq uint64) Token {
	var t Token
	binary.BigEndian.PutUint64(t[:], seq)
	return t
}
