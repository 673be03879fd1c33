// Package config provides loading and environment overlay for the
// accumulator's runtime configuration. It exposes a Default() baseline,
// Load for a JSON file, FromEnv for BEHOV_* overrides, and DefaultDataDir.
//
// Example:
//
//	cfg := config.Default()
//	// Optionally load from file and overlay env vars
//	if fileCfg, err := config.Load("/etc/behovsakkumulator.json"); err == nil {
//	    cfg = fileCfg
//	}
//	config.FromEnv(&cfg)
//	// Pass cfg into runtime.Options
//	rt, _ := runtime.Open(runtime.Options{DataDir: "/var/lib/behovsakkumulator", Fsync: pebblestore.FsyncModeAlways, Config: cfg})
//	defer rt.Close()
package config
