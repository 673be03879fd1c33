package bus

import "encoding/json"

// Reserved envelope fields the accumulator inspects. Every other field is
// opaque payload, carried through verbatim on the final record.
const (
	FieldID      = "@id"
	FieldBehov   = "@behov"
	FieldLosning = "@løsning"
	FieldFinal   = "final"
)

// Token is a log adapter position, stable across restarts.
type Token = [8]byte

// Message is a decoded, well-formed record observed on a topic partition.
// Behov is nil when the "@behov" field was absent from the envelope
// (required not yet known), and non-nil (possibly empty) when it was
// present — the distinction matters for the accumulator's reconcile step.
type Message struct {
	Partition uint32
	Token     Token
	ID        string
	Behov     []string
	Losning   map[string]interface{}
	Final     bool
	Envelope  map[string]interface{}
}

// decodeMessage parses raw as a JSON object and extracts the reserved
// fields. It returns ok=false for anything that isn't a JSON object with a
// string, non-empty "@id" — the malformed-record contract of spec §4.1.
func decodeMessage(partition uint32, tok Token, raw []byte) (Message, bool) {
	var env map[string]interface{}
	if err := json.Unmarshal(raw, &env); err != nil {
		return Message{}, false
	}
	idv, ok := env[FieldID]
	if !ok {
		return Message{}, false
	}
	id, ok := idv.(string)
	if !ok || id == "" {
		return Message{}, false
	}

	msg := Message{Partition: partition, Token: tok, ID: id, Envelope: env}
	if fv, ok := env[FieldFinal].(bool); ok {
		msg.Final = fv
	}
	if raw, present := env[FieldBehov]; present {
		behov := []string{}
		if arr, ok := raw.([]interface{}); ok {
			for _, k := range arr {
				if s, ok := k.(string); ok {
					behov = append(behov, s)
				}
			}
		}
		msg.Behov = behov
	}
	if lv, ok := env[FieldLosning].(map[string]interface{}); ok {
		msg.Losning = lv
	}
	return msg, true
}
