package protocol

import (
	"bytes"
	"testing"

	"github.com/pkg/errors"
)

func TestEncodeImageUploadRequest(t *testing.T) {
	size := uint32(3)
	sha := bytes.Repeat([]byte{0x11}, 32)

	tests := []struct {
		name     string
		req      ImageUploadRequest
		wantKeys []string
		noKeys   []string
	}{
		{
			name: "first chunk",
			req: ImageUploadRequest{
				Image: 0,
				Len:   &size,
				Off:   0,
				Sha:   sha,
				Data:  []byte{0x01, 0x02, 0x03},
			},
			wantKeys: []string{"image", "len", "off", "sha", "data"},
			noKeys:   []string{"upgrade"},
		},
		{
			name: "later chunk",
			req: ImageUploadRequest{
				Image: 1,
				Off:   128,
				Data:  []byte{0x04},
			},
			wantKeys: []string{"image", "off", "data"},
			noKeys:   []string{"len", "sha", "upgrade"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := EncodePayload(tt.req)
			if err != nil {
				t.Fatalf("EncodePayload() error = %v", err)
			}

			var decoded map[string]interface{}
			if err := DecodePayload(data, &decoded); err != nil {
				t.Fatalf("DecodePayload() error = %v", err)
			}
			for _, k := range tt.wantKeys {
				if _, ok := decoded[k]; !ok {
					t.Errorf("key %q missing from %v", k, decoded)
				}
			}
			for _, k := range tt.noKeys {
				if _, ok := decoded[k]; ok {
					t.Errorf("key %q should be omitted", k)
				}
			}
			if got, ok := decoded["data"].([]byte); !ok || !bytes.Equal(got, tt.req.Data) {
				t.Errorf("data = %v, want % X", decoded["data"], tt.req.Data)
			}
		})
	}
}

func TestDecodeImageUploadResponse(t *testing.T) {
	tests := []struct {
		name      string
		data      []byte
		wantRC    *int64
		wantOff   *uint32
		wantErr   bool
		wantField string
	}{
		{
			name:    "rc and off",
			data:    []byte{0xA2, 0x62, 'r', 'c', 0x00, 0x63, 'o', 'f', 'f', 0x03},
			wantRC:  int64Ptr(0),
			wantOff: uint32Ptr(3),
		},
		{
			name:   "rc only",
			data:   []byte{0xA1, 0x62, 'r', 'c', 0x03},
			wantRC: int64Ptr(3),
		},
		{
			name: "empty map",
			data: []byte{0xA0},
		},
		{
			name:    "unknown keys ignored",
			data:    []byte{0xA2, 0x61, 'x', 0x01, 0x63, 'o', 'f', 'f', 0x19, 0x01, 0x00},
			wantOff: uint32Ptr(256),
		},
		{
			name:      "off wrong type",
			data:      []byte{0xA1, 0x63, 'o', 'f', 'f', 0x61, 'x'},
			wantErr:   true,
			wantField: "off",
		},
		{
			name:    "truncated",
			data:    []byte{0xA2, 0x62, 'r'},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var rsp ImageUploadResponse
			err := DecodePayload(tt.data, &rsp)

			if tt.wantErr {
				var payloadErr *PayloadError
				if !errors.As(err, &payloadErr) {
					t.Fatalf("error = %v, want PayloadError", err)
				}
				if payloadErr.Field != tt.wantField {
					t.Errorf("Field = %q, want %q", payloadErr.Field, tt.wantField)
				}
				return
			}
			if err != nil {
				t.Fatalf("DecodePayload() error = %v", err)
			}

			if !equalPtr(rsp.RC, tt.wantRC) {
				t.Errorf("RC = %v, want %v", deref(rsp.RC), deref(tt.wantRC))
			}
			if !equalPtr(rsp.Off, tt.wantOff) {
				t.Errorf("Off = %v, want %v", deref(rsp.Off), deref(tt.wantOff))
			}
		})
	}
}

func TestDecodeImageStateResponse(t *testing.T) {
	state := ImageStateResponse{
		Images: []ImageSlotState{
			{Slot: 0, Version: "1.2.3", Hash: []byte{0xAA}, Bootable: true, Confirmed: true, Active: true},
			{Slot: 1, Version: "1.3.0", Hash: []byte{0xBB}, Pending: true},
		},
	}
	data, err := EncodePayload(state)
	if err != nil {
		t.Fatalf("EncodePayload() error = %v", err)
	}

	var got ImageStateResponse
	if err := DecodePayload(data, &got); err != nil {
		t.Fatalf("DecodePayload() error = %v", err)
	}
	if len(got.Images) != 2 {
		t.Fatalf("got %d images, want 2", len(got.Images))
	}
	if got.Images[1].Version != "1.3.0" || !got.Images[1].Pending {
		t.Errorf("slot 1 = %+v", got.Images[1])
	}
}

func TestWellformed(t *testing.T) {
	if err := Wellformed([]byte{0xA0}); err != nil {
		t.Errorf("Wellformed(empty map) error = %v", err)
	}
	if err := Wellformed(nil); err != nil {
		t.Errorf("Wellformed(nil) error = %v", err)
	}
	if err := Wellformed([]byte{0xA1, 0x61}); err == nil {
		t.Error("Wellformed(truncated) expected error")
	}
}

func TestDeviceErrorMessage(t *testing.T) {
	err := &DeviceError{Operation: "image upload", Code: RCInvalid}
	want := "image upload: device returned error code 3 (EINVAL)"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
	if !IsDeviceError(err) {
		t.Error("IsDeviceError() = false")
	}
	if !IsDeviceError(errors.Wrap(err, "upload chunk at offset 0")) {
		t.Error("IsDeviceError() = false for a wrapped DeviceError")
	}
	if IsDeviceError(&ChecksumMismatchError{}) {
		t.Error("IsDeviceError() = true for a ChecksumMismatchError")
	}
}

func int64Ptr(v int64) *int64    { return &v }
func uint32Ptr(v uint32) *uint32 { return &v }

func equalPtr[T comparable](a, b *T) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func deref[T any](p *T) interface{} {
	if p == nil {
		return nil
	}
	return *p
}
