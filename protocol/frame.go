package protocol

import (
	"bytes"
	"encoding/base64"
	"encoding/binary"

	"github.com/pkg/errors"
)

// EncodeFrame builds the wire form of one management packet.
//
// The header's Length is set from the payload; its Seq is taken as given.
// The packet is laid out as
//
//	[TOTAL_LEN_H][TOTAL_LEN_L][HEADER(8)][PAYLOAD...][CRC_H][CRC_L]
//
// where TOTAL_LEN covers header, payload and CRC and the CRC16/XMODEM covers
// header and payload. That buffer is base64 encoded and split into lines of at
// most lineLength-LineOverhead characters. The first line starts with FrameStart,
// the others with FrameContinue, and every line ends with LineTerminator.
//
// Returns the wire bytes and the finalized header. MTU limits are not checked here.
func EncodeFrame(hdr Header, payload []byte, lineLength int) ([]byte, Header, error) {
	if len(payload) > MaxPayloadSize {
		return nil, hdr, errors.Errorf("payload length %d exceeds maximum %d bytes", len(payload), MaxPayloadSize)
	}
	perLine := lineLength - LineOverhead
	if perLine <= 0 {
		return nil, hdr, errors.Errorf("line length %d too small, must be greater than %d", lineLength, LineOverhead)
	}

	hdr.Flags = 0
	hdr.Length = uint16(len(payload))

	packetLen := HeaderSize + len(payload) + ChecksumSize
	packet := make([]byte, 0, LengthPrefixSize+packetLen)
	packet = binary.BigEndian.AppendUint16(packet, uint16(packetLen))
	packet = hdr.appendTo(packet)
	packet = append(packet, payload...)
	packet = binary.BigEndian.AppendUint16(packet, CRC16XMODEM(packet[LengthPrefixSize:]))

	encoded := make([]byte, base64.StdEncoding.EncodedLen(len(packet)))
	base64.StdEncoding.Encode(encoded, packet)

	lines := (len(encoded) + perLine - 1) / perLine
	wire := make([]byte, 0, len(encoded)+lines*(MarkerSize+1))
	for written := 0; written < len(encoded); {
		if written == 0 {
			wire = append(wire, FrameStart[:]...)
		} else {
			wire = append(wire, FrameContinue[:]...)
		}
		n := min(perLine, len(encoded)-written)
		wire = append(wire, encoded[written:written+n]...)
		wire = append(wire, LineTerminator)
		written += n
	}

	return wire, hdr, nil
}

// EncodedLen returns the wire size EncodeFrame produces for a payload of the given length.
func EncodedLen(payloadLen, lineLength int) int {
	perLine := lineLength - LineOverhead
	if perLine <= 0 {
		return 0
	}
	chars := base64.StdEncoding.EncodedLen(LengthPrefixSize + HeaderSize + payloadLen + ChecksumSize)
	lines := (chars + perLine - 1) / perLine
	return chars + lines*(MarkerSize+1)
}

// DecodeFrame decodes the base64 body of a frame, with markers and line
// terminators already removed, and returns the header and raw payload.
//
// Validates that the length prefix equals the number of bytes that follow it,
// that the CRC matches header and payload, and that the header length equals
// the payload length.
func DecodeFrame(body []byte) (Header, []byte, error) {
	decoded := make([]byte, base64.StdEncoding.DecodedLen(len(body)))
	n, err := base64.StdEncoding.Decode(decoded, body)
	if err != nil {
		return Header{}, nil, errors.Wrap(err, "invalid base64 frame")
	}
	decoded = decoded[:n]

	if len(decoded) < LengthPrefixSize {
		return Header{}, nil, &LengthMismatchError{Field: "frame", Declared: 0, Actual: len(decoded)}
	}
	declared := int(binary.BigEndian.Uint16(decoded))
	if declared != len(decoded)-LengthPrefixSize {
		return Header{}, nil, &LengthMismatchError{
			Field:    "frame",
			Declared: declared,
			Actual:   len(decoded) - LengthPrefixSize,
		}
	}
	if declared < HeaderSize+ChecksumSize {
		return Header{}, nil, errors.Errorf("frame too short: got %d bytes, minimum is %d", declared, HeaderSize+ChecksumSize)
	}

	data := decoded[LengthPrefixSize : len(decoded)-ChecksumSize]
	carried := binary.BigEndian.Uint16(decoded[len(decoded)-ChecksumSize:])
	if calculated := CRC16XMODEM(data); carried != calculated {
		return Header{}, nil, &ChecksumMismatchError{Expected: carried, Actual: calculated}
	}

	hdr, err := UnmarshalHeader(data)
	if err != nil {
		return Header{}, nil, err
	}

	payload := data[HeaderSize:]
	if int(hdr.Length) != len(payload) {
		return Header{}, nil, &LengthMismatchError{Field: "header", Declared: int(hdr.Length), Actual: len(payload)}
	}

	return hdr, payload, nil
}

// Unchunk joins the lines of a wire frame back into its base64 body.
// The first line must carry FrameStart and every following line FrameContinue.
func Unchunk(wire []byte) ([]byte, error) {
	var body bytes.Buffer

	for i := 0; len(wire) > 0; i++ {
		end := bytes.IndexByte(wire, LineTerminator)
		if end < 0 {
			return nil, errors.Errorf("line %d: missing line terminator", i+1)
		}
		line := wire[:end]
		wire = wire[end+1:]

		want := FrameContinue
		if i == 0 {
			want = FrameStart
		}
		for pos := 0; pos < MarkerSize; pos++ {
			if pos >= len(line) {
				return nil, errors.Wrapf(&MarkerError{Position: pos, Expected: want[pos]}, "line %d", i+1)
			}
			if line[pos] != want[pos] {
				return nil, errors.Wrapf(&MarkerError{Position: pos, Expected: want[pos], Actual: line[pos]}, "line %d", i+1)
			}
		}
		body.Write(line[MarkerSize:])
	}

	if body.Len() == 0 {
		return nil, errors.New("empty frame")
	}
	return body.Bytes(), nil
}
