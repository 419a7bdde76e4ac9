package protocol

import (
	"encoding/binary"
	"fmt"

	"github.com/pkg/errors"
)

// Header is the fixed 8-byte management header that precedes every payload.
//
// Wire layout (multi-byte fields big-endian):
//
//	[OP][FLAGS][LEN_H][LEN_L][GROUP_H][GROUP_L][SEQ][ID]
type Header struct {
	// Op is the operation (read, write or their responses)
	Op Op

	// Flags is reserved and always encoded as zero
	Flags uint8

	// Length is the payload length in bytes
	Length uint16

	// Group is the functional area of the command
	Group Group

	// Seq correlates a response with its request
	Seq uint8

	// ID is the command within the group
	ID uint8
}

// NewRequest returns a request header for the given operation, group and command.
// Length and Seq are filled in when the frame is encoded.
func NewRequest(op Op, group Group, id uint8) Header {
	return Header{Op: op, Group: group, ID: id}
}

// MarshalBinary encodes the header into its 8-byte wire form.
func (h Header) MarshalBinary() ([]byte, error) {
	return h.appendTo(make([]byte, 0, HeaderSize)), nil
}

func (h Header) appendTo(b []byte) []byte {
	b = append(b, byte(h.Op), 0)
	b = binary.BigEndian.AppendUint16(b, h.Length)
	b = binary.BigEndian.AppendUint16(b, uint16(h.Group))
	return append(b, h.Seq, h.ID)
}

// UnmarshalHeader decodes the first HeaderSize bytes of data.
func UnmarshalHeader(data []byte) (Header, error) {
	if len(data) < HeaderSize {
		return Header{}, errors.Errorf("header too short: got %d bytes, need %d", len(data), HeaderSize)
	}

	h := Header{
		Op:     Op(data[0]),
		Flags:  data[1],
		Length: binary.BigEndian.Uint16(data[2:4]),
		Group:  Group(binary.BigEndian.Uint16(data[4:6])),
		Seq:    data[6],
		ID:     data[7],
	}
	if !h.Op.Valid() {
		return Header{}, errors.Errorf("invalid header op 0x%02X", data[0])
	}

	return h, nil
}

func (h Header) String() string {
	return fmt.Sprintf("{op:%s flags:0x%02X len:%d group:%s seq:%d id:%d}",
		h.Op, h.Flags, h.Length, h.Group, h.Seq, h.ID)
}
