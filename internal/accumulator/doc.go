// Package accumulator is the stateful processor described in spec.md §4.3
// and §4.4: for each inbound record it loads the prior NeedState for the
// record's correlation id (if any), applies the record as a transition on
// the per-need state machine, writes the new state back to the state
// store, and — when the transition yields completeness — emits a final
// record through the bus before committing the input offset.
//
// One Worker owns one partition. Processing inside a Worker is strictly
// sequential; a Pool runs one Worker per partition and restarts a worker
// whose Run returns a fatal error, so a state-store write failure abandons
// only that partition rather than the whole process (spec.md §7).
package accumulator
