package protocol

import (
	"github.com/fxamacker/cbor/v2"
	"github.com/pkg/errors"
)

// ImageUploadRequest is the payload of one image upload chunk.
// Len and Sha are only sent with the chunk at offset 0.
type ImageUploadRequest struct {
	// Image is the target image slot
	Image int `cbor:"image"`

	// Len is the total image size (first chunk only)
	Len *uint32 `cbor:"len,omitempty"`

	// Off is the byte offset of Data within the image
	Off uint32 `cbor:"off"`

	// Sha is the SHA-256 digest of the whole image (first chunk only)
	Sha []byte `cbor:"sha,omitempty"`

	// Upgrade asks the device to refuse downgrades; never set by this library
	Upgrade *bool `cbor:"upgrade,omitempty"`

	// Data is the chunk content
	Data []byte `cbor:"data"`
}

// ImageUploadResponse is the device's answer to an upload chunk.
// A nil field means the device omitted it.
type ImageUploadResponse struct {
	// RC is the device return code, 0 on success
	RC *int64 `cbor:"rc"`

	// Off is the offset the device expects the next chunk to start at
	Off *uint32 `cbor:"off"`

	// Match is reported by some devices after the last chunk when the digest matched
	Match *bool `cbor:"match"`
}

// ImageStateResponse is the device's answer to an image state read.
type ImageStateResponse struct {
	RC          *int64           `cbor:"rc" json:"rc,omitempty"`
	Images      []ImageSlotState `cbor:"images" json:"images"`
	SplitStatus *int             `cbor:"splitStatus" json:"splitStatus,omitempty"`
}

// ImageSlotState describes one image slot on the device.
type ImageSlotState struct {
	Image     int    `cbor:"image" json:"image"`
	Slot      int    `cbor:"slot" json:"slot"`
	Version   string `cbor:"version" json:"version"`
	Hash      []byte `cbor:"hash" json:"hash"`
	Bootable  bool   `cbor:"bootable" json:"bootable"`
	Pending   bool   `cbor:"pending" json:"pending"`
	Confirmed bool   `cbor:"confirmed" json:"confirmed"`
	Active    bool   `cbor:"active" json:"active"`
	Permanent bool   `cbor:"permanent" json:"permanent"`
}

// EmptyRequest is the payload of requests that carry no arguments.
type EmptyRequest struct{}

// EncodePayload encodes v as a CBOR payload.
func EncodePayload(v interface{}) ([]byte, error) {
	data, err := cbor.Marshal(v)
	if err != nil {
		return nil, &PayloadError{Err: err}
	}
	return data, nil
}

// DecodePayload decodes a CBOR payload into v.
//
// A payload that is not valid CBOR returns a PayloadError without Field.
// A known field of the wrong type returns a PayloadError naming the field.
// Absent fields are left untouched.
func DecodePayload(data []byte, v interface{}) error {
	err := cbor.Unmarshal(data, v)
	if err == nil {
		return nil
	}

	var typeErr *cbor.UnmarshalTypeError
	if errors.As(err, &typeErr) && typeErr.StructFieldName != "" {
		return &PayloadError{Field: fieldName(typeErr.StructFieldName), Err: err}
	}
	return &PayloadError{Err: err}
}

// Wellformed checks that data holds exactly one well-formed CBOR item.
// An empty payload is accepted.
func Wellformed(data []byte) error {
	if len(data) == 0 {
		return nil
	}
	if err := cbor.Wellformed(data); err != nil {
		return &PayloadError{Err: err}
	}
	return nil
}
