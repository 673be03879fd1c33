package statestore

// NeedState is the per correlation-id accumulated state described in
// spec.md §3.
type NeedState struct {
	ID string `json:"id"`

	// Required is the set of answer kinds derived from the latest "@behov"
	// observed for this id. RequiredKnown distinguishes "no @behov observed
	// yet" (false) from "a @behov was observed, even an empty one" (true) —
	// the latter is vacuously complete under the superset test.
	Required      []string `json:"required"`
	RequiredKnown bool     `json:"requiredKnown"`

	// Template is the full JSON tree of the last record seen for this id;
	// it is the envelope the next final record is built from.
	Template map[string]interface{} `json:"template"`

	// Solutions maps answer-kind to the most recently observed payload for
	// that kind. Last-write-wins on duplicate kinds.
	Solutions map[string]interface{} `json:"solutions"`

	// LastCompletedAt is the offset of the record that last caused a final
	// emission, or nil if this id has never completed.
	LastCompletedAt *uint64 `json:"lastCompletedAt,omitempty"`
}

// IsComplete reports whether the completeness predicate holds: required is
// known and the accumulated solution keys are a superset of it.
func (s NeedState) IsComplete() bool {
	if !s.RequiredKnown {
		return false
	}
	for _, kind := range s.Required {
		if _, ok := s.Solutions[kind]; !ok {
			return false
		}
	}
	return true
}
