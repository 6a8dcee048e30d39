package logdrain

import (
	"fmt"

	"github.com/primablock/parables/types"
)

// DecodedEvent is one LogRecord decoded against a Signature's indexed
// argument types.
type DecodedEvent struct {
	Address   types.Address
	CallIndex uint64
	Args      []any
}

// Drainer is a builder scoped to one event signature over a shared log
// queue. The queue pointer is shared with the owning Evm;
// Iter mutates it in place to remove consumed records.
type Drainer struct {
	queue      *[]types.LogRecord
	sig        Signature
	predicates []func(DecodedEvent) bool
}

// NewDrainer returns a Drainer over queue scoped to events matching sig's
// topic-0.
func NewDrainer(queue *[]types.LogRecord, sig Signature) *Drainer {
	return &Drainer{queue: queue, sig: sig}
}

// Filter adds a predicate over decoded event fields. Returns the Drainer
// for chaining.
func (d *Drainer) Filter(pred func(DecodedEvent) bool) *Drainer {
	d.predicates = append(d.predicates, pred)
	return d
}

func (d *Drainer) matches(ev DecodedEvent) bool {
	for _, p := range d.predicates {
		if !p(ev) {
			return false
		}
	}
	return true
}

func (d *Drainer) decode(rec types.LogRecord) (DecodedEvent, error) {
	args, err := d.sig.decodeTopics(rec.Topics[1:])
	if err != nil {
		return DecodedEvent{}, err
	}
	return DecodedEvent{Address: rec.Address, CallIndex: rec.CallIndex, Args: args}, nil
}

func (d *Drainer) topicMatches(rec types.LogRecord) bool {
	return len(rec.Topics) > 0 && rec.Topics[0] == d.sig.Topic0()
}

// Iter decodes and removes every record currently in the queue that
// matches this Drainer's signature and predicates, in call_index /
// emission order. Decoding happens up front for every topic0-matching
// record before anything is removed: if any such record fails to decode,
// Iter returns an error and the queue is left untouched.
func (d *Drainer) Iter() ([]DecodedEvent, error) {
	q := *d.queue
	decoded := make(map[int]DecodedEvent, len(q))
	for i, rec := range q {
		if !d.topicMatches(rec) {
			continue
		}
		ev, err := d.decode(rec)
		if err != nil {
			return nil, fmt.Errorf("logdrain: decode %s: %w", d.sig.Name, err)
		}
		decoded[i] = ev
	}

	var yielded []DecodedEvent
	remaining := make([]types.LogRecord, 0, len(q))
	for i, rec := range q {
		ev, matched := decoded[i]
		if !matched {
			remaining = append(remaining, rec)
			continue
		}
		if d.matches(ev) {
			yielded = append(yielded, ev)
		} else {
			remaining = append(remaining, rec)
		}
	}
	*d.queue = remaining
	return yielded, nil
}

// Count reports the number of queued records matching this Drainer's
// signature, without decoding or draining them.
func (d *Drainer) Count() int {
	n := 0
	for _, rec := range *d.queue {
		if d.topicMatches(rec) {
			n++
		}
	}
	return n
}

// HasAny reports whether any record matching this Drainer's signature
// remains queued.
func (d *Drainer) HasAny() bool {
	return d.Count() > 0
}
