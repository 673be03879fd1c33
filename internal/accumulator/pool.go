package accumulator

import (
	"context"
	"sync"
	"time"

	"github.com/navikt/behovsakkumulator/internal/bus"
	"github.com/navikt/behovsakkumulator/internal/statestore"
	logpkg "github.com/navikt/behovsakkumulator/pkg/log"
)

// restartBackoff bounds how quickly a worker that just failed is restarted,
// so a persistently failing partition doesn't spin the supervisor.
const restartBackoff = time.Second

// Pool runs one Worker per partition and restarts any worker whose Run
// returns a fatal error, so a single partition's failure never stops the
// others (spec.md §5, §7: "the process continues serving other
// partitions").
type Pool struct {
	bus   *bus.Adapter
	store *statestore.Store
	group string
	log   logpkg.Logger
}

// NewPool builds a Pool that will run one worker per partition of b.
func NewPool(b *bus.Adapter, store *statestore.Store, group string, lg logpkg.Logger) *Pool {
	if lg == nil {
		lg = logpkg.NewLogger()
	}
	return &Pool{bus: b, store: store, group: group, log: lg.WithComponent("accumulator.pool")}
}

// Run blocks until ctx is cancelled, supervising one worker per partition.
// Worker spin-up (and, on rebalance, state-section unload) is driven through
// bus.AssignPartitions rather than iterating Partitions() directly, so a bus
// client that reassigns partitions across instances only needs to call the
// callback again (spec.md §4.1).
func (p *Pool) Run(ctx context.Context) {
	var wg sync.WaitGroup
	p.bus.AssignPartitions(func(partition uint32, assigned bool) {
		if !assigned {
			p.store.Unload(partition)
			return
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			p.superviseWorker(ctx, partition)
		}()
	})
	wg.Wait()
}

func (p *Pool) superviseWorker(ctx context.Context, partition uint32) {
	for {
		if ctx.Err() != nil {
			return
		}
		w := NewWorker(partition, p.group, p.bus, p.store, p.log)
		if err := w.Run(ctx); err != nil {
			p.log.Error("worker exited, reassigning partition",
				logpkg.Uint32("partition", partition), logpkg.Err(err))
			select {
			case <-ctx.Done():
				return
			case <-time.After(restartBackoff):
			}
			continue
		}
		return
	}
}
