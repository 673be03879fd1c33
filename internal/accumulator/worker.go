package accumulator

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/navikt/behovsakkumulator/internal/bus"
	"github.com/navikt/behovsakkumulator/internal/statestore"
	logpkg "github.com/navikt/behovsakkumulator/pkg/log"
)

const (
	defaultBatchSize  = 128
	defaultPollWindow = 2 * time.Second
)

// Worker processes every record on one partition, strictly sequentially
// (spec.md §5).
type Worker struct {
	partition  uint32
	group      string
	bus        *bus.Adapter
	store      *statestore.Store
	log        logpkg.Logger
	instanceID string

	batchSize  int
	pollWindow time.Duration
}

// NewWorker builds a Worker owning partition within group, reading from and
// writing to b and persisting through store.
func NewWorker(partition uint32, group string, b *bus.Adapter, store *statestore.Store, lg logpkg.Logger) *Worker {
	if lg == nil {
		lg = logpkg.NewLogger()
	}
	return &Worker{
		partition:  partition,
		group:      group,
		bus:        b,
		store:      store,
		instanceID: uuid.NewString(),
		log: lg.WithComponent("accumulator").With(
			logpkg.Uint32("partition", partition),
			logpkg.Str("group", group),
		),
		batchSize:  defaultBatchSize,
		pollWindow: defaultPollWindow,
	}
}

// Run restores this worker's partition state and then processes records
// until ctx is cancelled or a fatal error occurs. A non-nil, non-context
// error is fatal: the caller should treat it as abandoning the partition
// (spec.md §7).
func (w *Worker) Run(ctx context.Context) error {
	if err := w.store.Restore(ctx, w.partition); err != nil {
		return fmt.Errorf("accumulator: restore partition %d: %w", w.partition, err)
	}
	start, err := w.bus.StartToken(w.partition, w.group)
	if err != nil {
		return fmt.Errorf("accumulator: resolve start token for partition %d: %w", w.partition, err)
	}
	w.log.Info("worker starting", logpkg.Str("instance", w.instanceID))

	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		msgs, next, err := w.bus.Poll(w.partition, w.group, start, w.batchSize)
		if err != nil {
			w.log.Warn("poll failed, retrying", logpkg.Err(err))
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(time.Second):
			}
			continue
		}
		// Poll's returned token always reflects how far the read advanced,
		// even when every record in the page was malformed and dropped
		// (Poll commits their offsets itself). Adopting it unconditionally
		// keeps a run of malformed records from being re-decoded and
		// re-counted every pollWindow, and from ever blocking later valid
		// records behind it.
		advanced := next != start
		start = next

		if len(msgs) == 0 {
			if !advanced {
				w.bus.WaitForAppend(w.partition, w.pollWindow)
			}
			continue
		}

		for _, msg := range msgs {
			if err := w.applyRecord(ctx, msg); err != nil {
				return err
			}
			if err := w.bus.Commit(w.partition, w.group, msg.Token); err != nil {
				return fmt.Errorf("accumulator: commit offset for partition %d: %w", w.partition, err)
			}
		}
	}
}

// applyRecord runs the self-echo filter and, for non-final records, the
// state machine transition, persisting the result and emitting a final
// record when the transition completes the need.
func (w *Worker) applyRecord(ctx context.Context, msg bus.Message) error {
	if msg.Final {
		return nil
	}

	prior, existed := w.store.Get(w.partition, msg.ID)
	state, final, complete := applyTransition(prior, existed, msg)

	if complete {
		payload, err := json.Marshal(final)
		if err != nil {
			return fmt.Errorf("accumulator: marshal final record for %q: %w", msg.ID, err)
		}
		if _, _, err := w.bus.Send(ctx, msg.ID, payload); err != nil {
			return fmt.Errorf("accumulator: emit final for %q: %w", msg.ID, err)
		}
		w.log.Debug("emitted final", logpkg.Str("id", msg.ID))
	}

	if err := w.store.Put(ctx, w.partition, state); err != nil {
		return fmt.Errorf("accumulator: persist state for %q: %w", msg.ID, err)
	}
	return nil
}
