package runtime

import (
	"context"
	"errors"

	"github.com/navikt/behovsakkumulator/internal/bus"
	cfgpkg "github.com/navikt/behovsakkumulator/internal/config"
	"github.com/navikt/behovsakkumulator/internal/eventlog"
	"github.com/navikt/behovsakkumulator/internal/namespace"
	pebblestore "github.com/navikt/behovsakkumulator/internal/storage/pebble"
	"github.com/navikt/behovsakkumulator/internal/statestore"
	logpkg "github.com/navikt/behovsakkumulator/pkg/log"
)

// Options for building the Runtime.
type Options struct {
	DataDir string
	Fsync   pebblestore.FsyncMode
	Config  cfgpkg.Config
}

// Runtime wires storage, config, and facades for a single-node instance.
type Runtime struct {
	db     *pebblestore.DB
	config cfgpkg.Config
}

// Open initializes the underlying storage and returns a Runtime.
func Open(opts Options) (*Runtime, error) {
	db, err := pebblestore.Open(pebblestore.Options{DataDir: opts.DataDir, Fsync: opts.Fsync})
	if err != nil {
		return nil, err
	}
	rt := &Runtime{db: db, config: opts.Config}
	return rt, nil
}

// Close closes underlying resources.
func (r *Runtime) Close() error {
	if r.db == nil {
		return nil
	}
	return r.db.Close()
}

// CheckHealth performs a simple health check.
func (r *Runtime) CheckHealth(ctx context.Context) error {
	if r.db == nil {
		return errors.New("db not open")
	}
	it, err := r.db.NewIter(nil)
	if err != nil {
		return err
	}
	it.Close()
	return nil
}

// EnsureNamespace creates a namespace record if absent.
func (r *Runtime) EnsureNamespace(name string) (namespace.Meta, error) {
	return namespace.EnsureNamespace(r.db, name)
}

// OpenLog opens an event log for given namespace/topic/partition.
func (r *Runtime) OpenLog(ns, topic string, partition uint32) (*eventlog.Log, error) {
	return eventlog.OpenLog(r.db, ns, topic, partition)
}

// OpenBus builds the Log Adapter for the shared behov/løsning topic in
// namespace ns, with one partition per r.config.NamespaceDefaults.Partitions.
func (r *Runtime) OpenBus(ns, topic string, lg logpkg.Logger) *bus.Adapter {
	return bus.NewAdapter(r.db, ns, topic, r.config.NamespaceDefaults.Partitions, lg)
}

// OpenStateStore builds the State Store backing topic's changelog in
// namespace ns.
func (r *Runtime) OpenStateStore(ns, topic string) *statestore.Store {
	return statestore.New(r.db, ns, topic)
}

// DB exposes the underlying DB for advanced operations (internal use only).
func (r *Runtime) DB() *pebblestore.DB { return r.db }

// Config returns the runtime configuration.
func (r *Runtime) Config() cfgpkg.Config { return r.config }
