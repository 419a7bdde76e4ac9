package image

import (
	"encoding/binary"
	"fmt"

	"github.com/pkg/errors"
)

const (
	// McubootMagic identifies an MCUboot image header
	McubootMagic = 0x96f3b83d

	// McubootHeaderSize is the size of the fixed part of the header
	McubootHeaderSize = 32
)

// McubootHeader is the fixed header MCUboot places in front of a signed image.
//
// Layout (little-endian):
//
//	[MAGIC(4)][LOAD_ADDR(4)][HDR_SIZE(2)][PROTECT_TLV_SIZE(2)][IMG_SIZE(4)][FLAGS(4)]
//	[VER_MAJOR(1)][VER_MINOR(1)][VER_REVISION(2)][VER_BUILD(4)][PAD(4)]
type McubootHeader struct {
	LoadAddr       uint32
	HeaderSize     uint16
	ProtectTLVSize uint16
	ImageSize      uint32
	Flags          uint32
	Version        Version
}

// Version is an MCUboot image version.
type Version struct {
	Major    uint8
	Minor    uint8
	Revision uint16
	Build    uint32
}

func (v Version) String() string {
	return fmt.Sprintf("%d.%d.%d+%d", v.Major, v.Minor, v.Revision, v.Build)
}

// ParseMcubootHeader parses the MCUboot header at the start of data.
// Returns nil without error when data does not start with the MCUboot magic.
func ParseMcubootHeader(data []byte) (*McubootHeader, error) {
	if len(data) < 4 || binary.LittleEndian.Uint32(data) != McubootMagic {
		return nil, nil
	}
	if len(data) < McubootHeaderSize {
		return nil, errors.Errorf("truncated MCUboot header: got %d bytes, need %d", len(data), McubootHeaderSize)
	}

	hdr := &McubootHeader{
		LoadAddr:       binary.LittleEndian.Uint32(data[4:8]),
		HeaderSize:     binary.LittleEndian.Uint16(data[8:10]),
		ProtectTLVSize: binary.LittleEndian.Uint16(data[10:12]),
		ImageSize:      binary.LittleEndian.Uint32(data[12:16]),
		Flags:          binary.LittleEndian.Uint32(data[16:20]),
		Version: Version{
			Major:    data[20],
			Minor:    data[21],
			Revision: binary.LittleEndian.Uint16(data[22:24]),
			Build:    binary.LittleEndian.Uint32(data[24:28]),
		},
	}

	if int(hdr.HeaderSize) < McubootHeaderSize {
		return nil, errors.Errorf("invalid MCUboot header size %d", hdr.HeaderSize)
	}
	if uint64(hdr.HeaderSize)+uint64(hdr.ImageSize) > uint64(len(data)) {
		return nil, errors.Errorf("MCUboot header declares %d+%d bytes, image has %d",
			hdr.HeaderSize, hdr.ImageSize, len(data))
	}

	return hdr, nil
}
