package protocol

import "strconv"

// Frame structure constants for the serial line framing.
const (
	// HeaderSize is the size of the binary management header in bytes
	HeaderSize = 8

	// LengthPrefixSize is the size of the big-endian total length that precedes the header
	LengthPrefixSize = 2

	// ChecksumSize is the size of the big-endian CRC16 that follows the payload
	ChecksumSize = 2

	// MarkerSize is the size of the start and continuation markers at the head of each line
	MarkerSize = 2

	// LineOverhead is subtracted from the line length to get the base64 characters per line.
	// It covers the marker, the terminator and one byte of slack the device reserves.
	LineOverhead = 4

	// LineTerminator ends every line of a framed packet
	LineTerminator = '\n'

	// MaxPayloadSize is the largest payload the 16-bit length fields can describe
	MaxPayloadSize = 0xFFFF - HeaderSize - ChecksumSize
)

// Line markers.
var (
	// FrameStart begins the first line of a frame
	FrameStart = [MarkerSize]byte{0x06, 0x09}

	// FrameContinue begins every following line of a frame
	FrameContinue = [MarkerSize]byte{0x04, 0x14}
)

// Op is the management operation carried in the header.
type Op uint8

// Operations.
const (
	OpRead     Op = 0
	OpReadRsp  Op = 1
	OpWrite    Op = 2
	OpWriteRsp Op = 3
)

// Valid reports whether op is one of the four defined operations.
func (op Op) Valid() bool {
	return op <= OpWriteRsp
}

// Response returns the response operation matching a request operation.
func (op Op) Response() Op {
	switch op {
	case OpRead:
		return OpReadRsp
	case OpWrite:
		return OpWriteRsp
	default:
		return op
	}
}

func (op Op) String() string {
	switch op {
	case OpRead:
		return "read"
	case OpReadRsp:
		return "read-rsp"
	case OpWrite:
		return "write"
	case OpWriteRsp:
		return "write-rsp"
	default:
		return "op(" + strconv.Itoa(int(op)) + ")"
	}
}

// Group is the functional area a command belongs to.
type Group uint16

// Management groups. Only GroupImage is used by this library, the others are
// named so that unexpected responses can be reported legibly.
const (
	GroupOS     Group = 0
	GroupImage  Group = 1
	GroupStat   Group = 2
	GroupConfig Group = 3
	GroupLog    Group = 4
	GroupCrash  Group = 5
	GroupSplit  Group = 6
	GroupRun    Group = 7
	GroupFS     Group = 8
)

func (g Group) String() string {
	switch g {
	case GroupOS:
		return "os"
	case GroupImage:
		return "image"
	case GroupStat:
		return "stat"
	case GroupConfig:
		return "config"
	case GroupLog:
		return "log"
	case GroupCrash:
		return "crash"
	case GroupSplit:
		return "split"
	case GroupRun:
		return "run"
	case GroupFS:
		return "fs"
	default:
		return "group(" + strconv.Itoa(int(g)) + ")"
	}
}

// Command ids within GroupImage.
const (
	// CmdImageState reads (or with a write, changes) the image slot states
	CmdImageState uint8 = 0

	// CmdImageUpload writes one chunk of a firmware image
	CmdImageUpload uint8 = 1
)

// Device return codes carried in the "rc" field of response payloads.
const (
	RCOk       = 0
	RCUnknown  = 1
	RCNoMem    = 2
	RCInvalid  = 3
	RCTimeout  = 4
	RCNoEntry  = 5
	RCBadState = 6
	RCMsgSize  = 7
	RCNotSup   = 8
	RCCorrupt  = 9
	RCBusy     = 10
)
