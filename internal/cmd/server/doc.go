// Package serverrun exposes a shared Run entrypoint used by the CLI to
// start the accumulator: one worker per partition of the shared
// behov/løsning topic, plus the admin HTTP surface, with graceful shutdown
// on SIGINT/SIGTERM.
//
// Example:
//
//	opts := serverrun.Options{DataDir: "./data", HTTPAddr: ":8080", Fsync: pebblestore.FsyncModeAlways, Config: config.Default()}
//	ctx, cancel := context.WithCancel(context.Background())
//	defer cancel()
//	_ = serverrun.Run(ctx, opts)
package serverrun
