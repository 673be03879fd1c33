package query

import (
	"encoding/binary"
	"encoding/json"

	"github.com/navikt/behovsakkumulator/internal/bus"
)

const searchPageSize = 256

// searchGroup is the cursor name search uses while paging a topic. Its
// cursor is harmless scratch state: search always starts from the
// beginning of the log and never relies on a prior position.
const searchGroup = "__search__"

// Match is one record that satisfied a Search's filter.
type Match struct {
	Partition uint32
	Sequence  uint64
	Record    map[string]interface{}
}

// Search scans every partition of b from the beginning, applying filter to
// each record and returning every match in partition, then sequence order.
// It is a full-topic replay and is meant for operator troubleshooting, not
// hot-path use.
func Search(b *bus.Adapter, filter Filter) ([]Match, error) {
	var matches []Match
	for p := 0; p < b.Partitions(); p++ {
		partition := uint32(p)
		start := bus.Token{}
		for {
			msgs, next, err := b.Poll(partition, searchGroup, start, searchPageSize)
			if err != nil {
				return matches, err
			}
			for _, msg := range msgs {
				seq := binary.BigEndian.Uint64(msg.Token[:])
				payload, err := json.Marshal(msg.Envelope)
				if err != nil {
					continue
				}
				if filter.Eval(int(partition), seq, payload) {
					matches = append(matches, Match{Partition: partition, Sequence: seq, Record: msg.Envelope})
				}
			}
			// next == start signals the log made no progress this page: a
			// malformed-only page still advances (Poll commits past those
			// records), so this check alone tells us we are at the end.
			if next == start {
				break
			}
			start = next
		}
	}
	return matches, nil
}
