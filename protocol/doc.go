// Package protocol implements the wire format of the serial image-management protocol.
//
// This package provides the header codec, the line-oriented frame codec, the
// CRC16/XMODEM checksum, sequence id allocation and the CBOR payloads of the
// image group commands.
//
// # Protocol Overview
//
// Every request and response is one packet:
//
//	[TOTAL_LEN(2)][HEADER(8)][PAYLOAD...][CRC16(2)]
//
// Where:
//   - TOTAL_LEN = big-endian byte count of HEADER, PAYLOAD and CRC16
//   - HEADER = [OP][FLAGS][LEN(2)][GROUP(2)][SEQ][ID], big-endian fields
//   - PAYLOAD = CBOR map
//   - CRC16 = CRC-16/XMODEM over HEADER and PAYLOAD, big-endian
//
// The packet is base64 encoded and split into lines so it survives terminal-like
// serial links. The first line starts with 0x06 0x09, continuation lines start
// with 0x04 0x14 and every line ends with '\n'.
//
// # Encoding
//
// Use EncodeFrame with a header built by NewRequest:
//
//	payload, _ := protocol.EncodePayload(protocol.EmptyRequest{})
//	hdr := protocol.NewRequest(protocol.OpRead, protocol.GroupImage, protocol.CmdImageState)
//	hdr.Seq = seq.Next()
//	wire, hdr, err := protocol.EncodeFrame(hdr, payload, 128)
//
// # Decoding
//
// DecodeFrame takes the base64 text of a frame with markers and line
// terminators removed, verifies length and checksum, and returns the header
// and the raw payload. Payloads are decoded into typed records:
//
//	var rsp protocol.ImageUploadResponse
//	if err := protocol.DecodePayload(payload, &rsp); err != nil {
//	    return err
//	}
//	if rsp.RC != nil && *rsp.RC != protocol.RCOk {
//	    return &protocol.DeviceError{Code: *rsp.RC}
//	}
//
// # Error Handling
//
// Framing failures are reported with MarkerError, LengthMismatchError and
// ChecksumMismatchError; undecodable payloads with PayloadError; non-zero device
// return codes with DeviceError:
//
//	err := &protocol.DeviceError{Operation: "image upload", Code: 3}
//	// err.Error() returns: "image upload: device returned error code 3 (EINVAL)"
package protocol
