package protocol

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// DeviceError represents a non-zero return code reported by the device.
type DeviceError struct {
	// Operation is the command that failed
	Operation string

	// Code is the "rc" value from the response payload
	Code int64
}

func (e *DeviceError) Error() string {
	msg := fmt.Sprintf("device returned error code %d (%s)", e.Code, rcName(e.Code))
	if e.Operation != "" {
		return e.Operation + ": " + msg
	}
	return msg
}

// IsDeviceError returns true if the error is a DeviceError.
// Wrapped errors are unwrapped.
func IsDeviceError(err error) bool {
	var devErr *DeviceError
	return errors.As(err, &devErr)
}

// rcName returns a human-readable name for a device return code.
func rcName(code int64) string {
	switch code {
	case RCOk:
		return "EOK"
	case RCUnknown:
		return "EUNKNOWN"
	case RCNoMem:
		return "ENOMEM"
	case RCInvalid:
		return "EINVAL"
	case RCTimeout:
		return "ETIMEOUT"
	case RCNoEntry:
		return "ENOENT"
	case RCBadState:
		return "EBADSTATE"
	case RCMsgSize:
		return "EMSGSIZE"
	case RCNotSup:
		return "ENOTSUP"
	case RCCorrupt:
		return "ECORRUPT"
	case RCBusy:
		return "EBUSY"
	default:
		return "unknown"
	}
}

// MarkerError indicates a line did not start with the expected marker.
type MarkerError struct {
	// Position is the index of the mismatching byte within the marker
	Position int

	// Expected is the marker byte that should have been read
	Expected byte

	// Actual is the byte that was read
	Actual byte
}

func (e *MarkerError) Error() string {
	return fmt.Sprintf("invalid start marker: byte %d is 0x%02X, expected 0x%02X",
		e.Position, e.Actual, e.Expected)
}

// LengthMismatchError indicates that a declared length disagrees with the data received.
type LengthMismatchError struct {
	// Field names the length that was checked ("frame" or "header")
	Field string

	// Declared is the length stated on the wire
	Declared int

	// Actual is the number of bytes actually present
	Actual int
}

func (e *LengthMismatchError) Error() string {
	return fmt.Sprintf("%s length mismatch: declared %d bytes, got %d", e.Field, e.Declared, e.Actual)
}

// ChecksumMismatchError indicates that the frame CRC does not match its contents.
type ChecksumMismatchError struct {
	Expected uint16
	Actual   uint16
}

func (e *ChecksumMismatchError) Error() string {
	return fmt.Sprintf("checksum mismatch: frame carries 0x%04X, calculated 0x%04X", e.Expected, e.Actual)
}

// PayloadError indicates a payload that could not be decoded.
// Field is set when the payload is well formed but a known field has the wrong type.
type PayloadError struct {
	Field string
	Err   error
}

func (e *PayloadError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("malformed payload: field %q: %v", e.Field, e.Err)
	}
	return fmt.Sprintf("malformed payload: %v", e.Err)
}

func (e *PayloadError) Unwrap() error {
	return e.Err
}

// fieldName extracts the wire key from a struct field path like "ImageUploadResponse.off".
func fieldName(path string) string {
	if i := strings.LastIndexByte(path, '.'); i >= 0 {
		return path[i+1:]
	}
	return path
}
