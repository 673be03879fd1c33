// Package serverrun starts the accumulator process: it opens the runtime,
// restores and runs one worker per partition of the shared behov/løsning
// topic, and serves the admin HTTP surface, blocking until the process
// receives a shutdown signal.
package serverrun

import (
	"context"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/navikt/behovsakkumulator/internal/accumulator"
	cfgpkg "github.com/navikt/behovsakkumulator/internal/config"
	"github.com/navikt/behovsakkumulator/internal/runtime"
	httpserver "github.com/navikt/behovsakkumulator/internal/server/http"
	pebblestore "github.com/navikt/behovsakkumulator/internal/storage/pebble"
	logpkg "github.com/navikt/behovsakkumulator/pkg/log"
)

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// Options configures a single accumulator process.
type Options struct {
	DataDir  string
	HTTPAddr string
	Fsync    pebblestore.FsyncMode
	Config   cfgpkg.Config

	// Namespace/Topic/Group identify the shared behov/løsning topic this
	// process accumulates over.
	Namespace string
	Topic     string
	Group     string
}

// Run opens the runtime, starts the accumulator pool and admin HTTP
// server, and blocks until ctx is cancelled or the process receives
// SIGINT/SIGTERM.
func Run(ctx context.Context, opts Options) error {
	sctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if opts.DataDir == "" {
		opts.DataDir = cfgpkg.DefaultDataDir()
	}
	if opts.Namespace == "" {
		opts.Namespace = opts.Config.DefaultNamespaceName
	}
	if opts.Topic == "" {
		opts.Topic = opts.Config.SpleisBehovtopic
	}
	if opts.Group == "" {
		opts.Group = "behovsakkumulator"
	}

	rt, err := runtime.Open(runtime.Options{DataDir: opts.DataDir, Fsync: opts.Fsync, Config: opts.Config})
	if err != nil {
		return err
	}
	defer rt.Close()

	cfg := &logpkg.Config{
		Level:  getenvDefault("BEHOV_LOG_LEVEL", "info"),
		Format: getenvDefault("BEHOV_LOG_FORMAT", "text"),
	}
	procLogger, err := logpkg.ApplyConfig(cfg)
	if err != nil {
		lvl := logpkg.InfoLevel
		if l, e := logpkg.ParseLevel(cfg.Level); e == nil {
			lvl = l
		}
		procLogger = logpkg.NewLogger(logpkg.WithLevel(lvl), logpkg.WithFormatter(&logpkg.TextFormatter{}))
	}
	logpkg.RedirectStdLog(procLogger)

	if _, err := rt.EnsureNamespace(opts.Namespace); err != nil {
		return err
	}

	procLogger.Info("starting behovsakkumulator",
		logpkg.Str("namespace", opts.Namespace),
		logpkg.Str("topic", opts.Topic),
		logpkg.Str("group", opts.Group),
		logpkg.Any("kafkaBootstrapServers", opts.Config.KafkaBootstrapServers),
		logpkg.Str("serviceUser", opts.Config.ServiceUser.Username),
		logpkg.Str("http", opts.HTTPAddr),
		logpkg.Str("level", cfg.Level),
		logpkg.Str("format", cfg.Format),
	)

	b := rt.OpenBus(opts.Namespace, opts.Topic, procLogger)
	store := rt.OpenStateStore(opts.Namespace, opts.Topic)
	pool := accumulator.NewPool(b, store, opts.Group, procLogger)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		pool.Run(sctx)
	}()

	var hsrv *httpserver.Server
	if opts.HTTPAddr != "" {
		hsrv = httpserver.New(rt, b, store)
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := hsrv.ListenAndServe(sctx, opts.HTTPAddr); err != nil && sctx.Err() == nil {
				log.Printf("admin http error: %v", err)
			}
		}()
	}

	<-sctx.Done()
	if hsrv != nil {
		hsrv.Close()
	}
	wg.Wait()
	return nil
}
