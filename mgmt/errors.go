package mgmt

import (
	"fmt"

	"github.com/moffa90/go-mcumgr/protocol"
)

// SequenceMismatchError indicates that a response does not answer the request just sent.
type SequenceMismatchError struct {
	Expected uint8
	Actual   uint8
}

func (e *SequenceMismatchError) Error() string {
	return fmt.Sprintf("sequence mismatch: sent request %d, received response %d",
		e.Expected, e.Actual)
}

// UnexpectedResponseError indicates that a response carries the wrong operation or group.
type UnexpectedResponseError struct {
	ExpectedOp    protocol.Op
	ExpectedGroup protocol.Group
	Op            protocol.Op
	Group         protocol.Group
}

func (e *UnexpectedResponseError) Error() string {
	return fmt.Sprintf("unexpected response: expected %s/%s, got %s/%s",
		e.ExpectedOp, e.ExpectedGroup, e.Op, e.Group)
}

// MTUTooSmallError indicates that not even one byte of image data fits the link MTU.
type MTUTooSmallError struct {
	MTU       int
	FrameSize int
	Attempted int
}

func (e *MTUTooSmallError) Error() string {
	return fmt.Sprintf("link MTU too small to transfer any data: MTU is %d bytes, frame with %d data bytes is %d bytes",
		e.MTU, e.Attempted, e.FrameSize)
}

// StalledError indicates that the device did not advance the upload offset.
type StalledError struct {
	// Offset is where the chunk started
	Offset int

	// Reported is false when the response had no offset at all
	Reported bool
}

func (e *StalledError) Error() string {
	if !e.Reported {
		return fmt.Sprintf("device did not advance offset: response to chunk at offset %d carries no offset", e.Offset)
	}
	return fmt.Sprintf("device did not advance offset: still at %d", e.Offset)
}

// OffsetOutOfRangeError indicates that the device reported an offset beyond the image.
type OffsetOutOfRangeError struct {
	Offset int
	Size   int
}

func (e *OffsetOutOfRangeError) Error() string {
	return fmt.Sprintf("device reported offset %d beyond image size %d", e.Offset, e.Size)
}
