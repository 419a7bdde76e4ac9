package image

import (
	"bufio"
	"bytes"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/pierrec/lz4/v4"
	"github.com/pkg/errors"
)

const (
	// MaxSize is the largest image the upload length field can describe
	MaxSize = math.MaxUint32

	// CompressedSuffix marks lz4 frame compressed image files
	CompressedSuffix = ".lz4"
)

// lz4Magic starts every lz4 frame (0x184D2204, little-endian).
var lz4Magic = []byte{0x04, 0x22, 0x4D, 0x18}

// Load reads an image file. Files ending in .lz4, or starting with the lz4
// frame magic, are decompressed first.
//
// Example:
//
//	img, err := image.Load("build/zephyr/zephyr.signed.bin")
//	if err != nil {
//	    log.Fatal(err)
//	}
func Load(path string) (*Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open image %v", path)
	}
	defer func() { _ = f.Close() }()

	return LoadReader(filepath.Base(path), f)
}

// LoadReader reads an image from any io.Reader. name is used for logging and
// to recognize compressed content by its suffix.
func LoadReader(name string, r io.Reader) (*Image, error) {
	br := bufio.NewReader(r)

	magic, err := br.Peek(len(lz4Magic))
	if err != nil && err != io.EOF {
		return nil, errors.Wrapf(err, "failed to read image %v", name)
	}

	var src io.Reader = br
	if strings.HasSuffix(name, CompressedSuffix) || bytes.Equal(magic, lz4Magic) {
		src = lz4.NewReader(br)
		name = strings.TrimSuffix(name, CompressedSuffix)
	}

	data, err := io.ReadAll(src)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read image %v", name)
	}

	return New(name, data)
}
