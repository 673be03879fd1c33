package accumulator

import (
	"encoding/json"
	"reflect"

	"github.com/navikt/behovsakkumulator/internal/bus"
	"github.com/navikt/behovsakkumulator/internal/statestore"
)

// applyTransition runs one inbound record through the per-key state
// machine (spec.md §4.3 steps 2-6) and returns the updated state plus,
// when the transition completes the need, the final record to emit.
func applyTransition(prior statestore.NeedState, existed bool, msg bus.Message) (statestore.NeedState, map[string]interface{}, bool) {
	state := prior
	if !existed {
		state = statestore.NeedState{
			ID:        msg.ID,
			Solutions: map[string]interface{}{},
		}
		if msg.Behov != nil {
			state.Required = append([]string(nil), msg.Behov...)
			state.RequiredKnown = true
		}
	} else if msg.Behov != nil && !reflect.DeepEqual(state.Required, msg.Behov) {
		// Reconcile required: latest observation wins (spec.md §4.3 step 3).
		state.Required = append([]string(nil), msg.Behov...)
		state.RequiredKnown = true
	}

	// Update template unconditionally (step 4).
	state.Template = msg.Envelope

	// Merge solutions, last-write-wins (step 5).
	if len(msg.Losning) > 0 {
		if state.Solutions == nil {
			state.Solutions = make(map[string]interface{}, len(msg.Losning))
		}
		for kind, val := range msg.Losning {
			state.Solutions[kind] = val
		}
	}

	// Evaluate completeness (step 6).
	if !state.IsComplete() {
		return state, nil, false
	}
	final := buildFinal(state)
	seq := binarySeq(msg.Token)
	state.LastCompletedAt = &seq
	return state, final, true
}

func buildFinal(state statestore.NeedState) map[string]interface{} {
	out := deepCopyEnvelope(state.Template)
	losning := make(map[string]interface{}, len(state.Solutions))
	for k, v := range state.Solutions {
		losning[k] = v
	}
	out[bus.FieldID] = state.ID
	out[bus.FieldLosning] = losning
	out[bus.FieldFinal] = true
	if state.RequiredKnown {
		behov := make([]interface{}, len(state.Required))
		for i, b := range state.Required {
			behov[i] = b
		}
		out[bus.FieldBehov] = behov
	}
	return out
}

// deepCopyEnvelope clones a JSON-object tree via a marshal/unmarshal
// round-trip, which is sufficient for the open JSON envelopes this package
// carries (spec.md §9 "Dynamic JSON envelopes").
func deepCopyEnvelope(m map[string]interface{}) map[string]interface{} {
	if m == nil {
		return map[string]interface{}{}
	}
	b, err := json.Marshal(m)
	if err != nil {
		return map[string]interface{}{}
	}
	var out map[string]interface{}
	if err := json.Unmarshal(b, &out); err != nil {
		return map[string]interface{}{}
	}
	return out
}

func binarySeq(tok bus.Token) uint64 {
	var v uint64
	for _, b := range tok {
		v = v<<8 | uint64(b)
	}
	return v
}
