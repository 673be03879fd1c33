// Package query provides an operator-facing CEL filter over records on the
// shared behov/løsning topic, used by the "search" CLI subcommand to find
// stuck or duplicated completions without having to script against the raw
// log.
package query

import (
	"encoding/json"
	"strings"

	"github.com/google/cel-go/cel"
)

// Filter wraps a compiled CEL program evaluated against one decoded record.
// An empty expression is always-true, so search with no filter behaves as a
// plain replay.
type Filter struct {
	prog    cel.Program
	enabled bool
}

// NewFilter compiles expr. Variables available to the expression:
//
//	partition int, sequence int, id string, behov list<string>,
//	final bool, json dyn (the full decoded record), size int
func NewFilter(expr string) (Filter, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return Filter{enabled: false}, nil
	}
	env, err := cel.NewEnv(
		cel.Variable("partition", cel.IntType),
		cel.Variable("sequence", cel.IntType),
		cel.Variable("id", cel.StringType),
		cel.Variable("behov", cel.ListType(cel.StringType)),
		cel.Variable("final", cel.BoolType),
		cel.Variable("json", cel.DynType),
		cel.Variable("size", cel.IntType),
	)
	if err != nil {
		return Filter{}, err
	}
	ast, iss := env.Parse(expr)
	if iss != nil && iss.Err() != nil {
		return Filter{}, iss.Err()
	}
	checked, iss2 := env.Check(ast)
	if iss2 != nil && iss2.Err() != nil {
		return Filter{}, iss2.Err()
	}
	prog, err := env.Program(checked)
	if err != nil {
		return Filter{}, err
	}
	return Filter{prog: prog, enabled: true}, nil
}

// Eval reports whether the decoded record at (partition, sequence) matches
// the filter. A record that fails to parse as JSON never matches unless the
// filter is empty.
func (f Filter) Eval(partition int, sequence uint64, payload []byte) bool {
	if !f.enabled {
		return true
	}
	var env map[string]interface{}
	if err := json.Unmarshal(payload, &env); err != nil {
		return false
	}

	id, _ := env["@id"].(string)
	final, _ := env["final"].(bool)
	var behov []string
	if arr, ok := env["@behov"].([]interface{}); ok {
		for _, v := range arr {
			if s, ok := v.(string); ok {
				behov = append(behov, s)
			}
		}
	}

	out, _, err := f.prog.Eval(map[string]interface{}{
		"partition": int64(partition),
		"sequence":  int64(sequence),
		"id":        id,
		"behov":     behov,
		"final":     final,
		"json":      env,
		"size":      int64(len(payload)),
	})
	if err != nil {
		return false
	}
	b, ok := out.Value().(bool)
	return ok && b
}
