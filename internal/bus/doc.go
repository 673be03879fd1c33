// Package bus is the Log Adapter: an abstract view of a single partitioned,
// append-only, keyed log shared by need, solution, and final records.
//
// It gives the accumulator three operations over a topic backed by
// internal/eventlog: Send routes a (key, value) pair to a partition by key
// hash, Poll yields ordered per-partition batches of decoded records (a
// record that cannot be parsed as a JSON object with a string "@id" is
// dropped and counted as malformed, never handed to the caller), and Commit
// advances a consumer group's durable cursor. Partition ownership in this
// single-process runtime is static — AssignPartitions calls back once with
// every partition assigned, which internal/accumulator.Pool uses to drive
// worker spin-up and state-store loading/unloading. A future multi-instance
// bus client would call the same callback again as ownership moves (bus
// client bootstrap/discovery for that case is out of scope).
package bus
