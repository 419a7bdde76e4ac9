package image

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/docker/go-units"
	"github.com/pkg/errors"
)

// Image is a firmware image ready to be uploaded.
type Image struct {
	// Name identifies the image in logs, usually its file name
	Name string

	// Data is the raw (decompressed) image content
	Data []byte

	// Hash is the SHA-256 digest of Data, computed once when the image is created
	Hash [sha256.Size]byte

	// Header is the parsed MCUboot header, nil when Data does not start with one
	Header *McubootHeader
}

// New creates an Image from raw content. Data must not be modified afterwards.
//
// Example:
//
//	img, err := image.New("app.bin", data)
//	fmt.Printf("%s: %s, sha256 %s\n", img.Name, img.HumanSize(), img.HashString())
func New(name string, data []byte) (*Image, error) {
	if len(data) == 0 {
		return nil, errors.Errorf("image %v is empty", name)
	}
	if uint64(len(data)) > MaxSize {
		return nil, errors.Errorf("image %v is %d bytes, maximum is %d", name, len(data), uint64(MaxSize))
	}

	img := &Image{
		Name: name,
		Data: data,
		Hash: sha256.Sum256(data),
	}

	hdr, err := ParseMcubootHeader(data)
	if err != nil {
		return nil, errors.Wrapf(err, "image %v", name)
	}
	img.Header = hdr

	return img, nil
}

// Size returns the image size in bytes.
func (i *Image) Size() int {
	return len(i.Data)
}

// HumanSize returns the image size in human readable form, e.g. "12.3kB".
func (i *Image) HumanSize() string {
	return units.HumanSize(float64(len(i.Data)))
}

// HashString returns the hex encoded SHA-256 digest.
func (i *Image) HashString() string {
	return hex.EncodeToString(i.Hash[:])
}
