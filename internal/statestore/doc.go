// Package statestore is the State Store: a partition-local, persistent
// mapping from correlation id to accumulated NeedState.
//
// Each partition's map lives in memory, owned exclusively by the worker
// processing that partition, and is made durable by tee-ing every Put to a
// dedicated changelog topic (one internal/eventlog log per partition,
// namespaced separately from the data topic it backs). Restore replays that
// changelog from the beginning to rebuild the map before a worker starts
// processing live input, so a crash between a Put and the next commit is
// recoverable purely from the changelog — the in-memory map itself never
// needs to survive a restart.
package statestore
