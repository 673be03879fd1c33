// Package query implements operator-facing lookups over the accumulator's
// partitioned log and state store: a CEL-based record filter for the
// "search" CLI subcommand, and a point lookup for the "inspect" subcommand
// and the admin HTTP server's /v1/state/{id} endpoint.
package query
