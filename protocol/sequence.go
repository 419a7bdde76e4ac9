package protocol

import (
	"crypto/rand"
	"sync/atomic"
	"time"
)

// Sequencer allocates request sequence ids.
//
// Successive calls to Next return a cyclic permutation of all 256 byte values
// starting at the seed. Sequencer is safe for concurrent use; a single instance
// is meant to be created at startup and shared by every client.
type Sequencer struct {
	next atomic.Uint32
}

// NewSequencer returns a Sequencer whose first id is seed.
func NewSequencer(seed uint8) *Sequencer {
	s := &Sequencer{}
	s.next.Store(uint32(seed))
	return s
}

// NewRandomSequencer returns a Sequencer starting at an unpredictable id.
func NewRandomSequencer() *Sequencer {
	var b [1]byte
	if _, err := rand.Read(b[:]); err != nil {
		b[0] = byte(time.Now().UnixNano())
	}
	return NewSequencer(b[0])
}

// Next returns the next sequence id. Wrapping past 255 is expected.
func (s *Sequencer) Next() uint8 {
	return uint8(s.next.Add(1) - 1)
}
