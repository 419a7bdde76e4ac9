// Package simdevice simulates an image-management capable device behind a
// serial port. It speaks the real wire protocol, so the transport and the
// upload state machine can be exercised end to end without hardware.
package simdevice

import (
	"bytes"
	"crypto/sha256"
	"encoding/base64"
	"encoding/binary"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/moffa90/go-mcumgr/protocol"
	"github.com/moffa90/go-mcumgr/transport"
)

// responseLineLength keeps every response on a single line.
const responseLineLength = 1 << 20

// Request is one decoded request received by the device.
type Request struct {
	Header  protocol.Header
	Payload []byte

	// WireLen is the number of bytes the request occupied on the wire
	WireLen int
}

// UploadHandler produces the response to an upload chunk. Returning nil
// falls through to the built-in flash emulation.
type UploadHandler func(n int, req protocol.ImageUploadRequest) *protocol.ImageUploadResponse

// Device is an in-memory device. The exported fields tune its behavior and
// must be set before the first exchange.
type Device struct {
	// AcceptLimit caps how many bytes of each chunk are stored (0 = no cap),
	// forcing the client to resend from the offset the device reports
	AcceptLimit int

	// Latency is added before every response
	Latency time.Duration

	// Silent suppresses all responses
	Silent bool

	// OnUpload overrides the response to upload chunks
	OnUpload UploadHandler

	// Rewrite mutates response headers before they are sent
	Rewrite func(rsp *protocol.Header)

	mutex    sync.Mutex
	state    protocol.ImageStateResponse
	flash    []byte
	expected uint32
	digest   []byte
	requests []Request
	uploads  int
	stale    []byte
	opens    int
	closes   int
}

// New returns a device with a confirmed image running from slot 0.
func New() *Device {
	running := sha256.Sum256([]byte("running image"))
	return &Device{
		state: protocol.ImageStateResponse{
			Images: []protocol.ImageSlotState{
				{
					Slot:      0,
					Version:   "1.0.0",
					Hash:      running[:],
					Bootable:  true,
					Confirmed: true,
					Active:    true,
				},
			},
		},
	}
}

// Open matches transport.OpenFunc.
func (d *Device) Open(device string, baudRate int) (transport.Port, error) {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	d.opens++
	p := &port{device: d}
	p.output.Write(d.stale)
	d.stale = nil
	return p, nil
}

// Inject queues bytes that will be waiting on the next opened port, as if
// left over from an earlier exchange.
func (d *Device) Inject(data []byte) {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	d.stale = append(d.stale, data...)
}

// Requests returns every request received so far.
func (d *Device) Requests() []Request {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	return append([]Request(nil), d.requests...)
}

// Flash returns the bytes of the image received so far.
func (d *Device) Flash() []byte {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	return append([]byte(nil), d.flash...)
}

// State returns the slot table reported by image state reads.
func (d *Device) State() protocol.ImageStateResponse {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	return d.state
}

// OpenCount returns how many ports were opened and closed.
func (d *Device) OpenCount() (opened, closed int) {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	return d.opens, d.closes
}

// handle processes one complete request and returns the wire response, or
// nil when the device stays silent.
func (d *Device) handle(body []byte, wireLen int) ([]byte, error) {
	hdr, payload, err := protocol.DecodeFrame(body)
	if err != nil {
		return nil, errors.Wrap(err, "device received a corrupt frame")
	}

	d.mutex.Lock()
	defer d.mutex.Unlock()

	d.requests = append(d.requests, Request{Header: hdr, Payload: payload, WireLen: wireLen})
	if d.Silent {
		return nil, nil
	}

	var rsp interface{}
	switch {
	case hdr.Group == protocol.GroupImage && hdr.ID == protocol.CmdImageState && hdr.Op == protocol.OpRead:
		rsp = d.state
	case hdr.Group == protocol.GroupImage && hdr.ID == protocol.CmdImageUpload && hdr.Op == protocol.OpWrite:
		var req protocol.ImageUploadRequest
		if err := protocol.DecodePayload(payload, &req); err != nil {
			rsp = rcOnly(protocol.RCInvalid)
			break
		}
		rsp = d.upload(req)
	default:
		rsp = rcOnly(protocol.RCNotSup)
	}

	data, err := protocol.EncodePayload(rsp)
	if err != nil {
		return nil, err
	}

	rspHdr := protocol.Header{Op: hdr.Op.Response(), Group: hdr.Group, Seq: hdr.Seq, ID: hdr.ID}
	if d.Rewrite != nil {
		d.Rewrite(&rspHdr)
	}

	wire, _, err := protocol.EncodeFrame(rspHdr, data, responseLineLength)
	return wire, err
}

// upload emulates a device writing chunks into its secondary slot.
func (d *Device) upload(req protocol.ImageUploadRequest) *protocol.ImageUploadResponse {
	d.uploads++
	if d.OnUpload != nil {
		if rsp := d.OnUpload(d.uploads, req); rsp != nil {
			return rsp
		}
	}

	if req.Off == 0 {
		if req.Len == nil {
			return rcOnly(protocol.RCInvalid)
		}
		d.flash = d.flash[:0]
		d.expected = *req.Len
		d.digest = append([]byte(nil), req.Sha...)
	} else if int(req.Off) != len(d.flash) {
		return offset(uint32(len(d.flash)))
	}

	data := req.Data
	if d.AcceptLimit > 0 && len(data) > d.AcceptLimit {
		data = data[:d.AcceptLimit]
	}
	if uint32(len(d.flash)+len(data)) > d.expected {
		return rcOnly(protocol.RCInvalid)
	}
	d.flash = append(d.flash, data...)

	rsp := offset(uint32(len(d.flash)))
	if uint32(len(d.flash)) == d.expected && len(d.digest) > 0 {
		sum := sha256.Sum256(d.flash)
		match := bytes.Equal(sum[:], d.digest)
		rsp.Match = &match
		if match {
			d.setPending(sum[:])
		}
	}
	return rsp
}

func (d *Device) setPending(hash []byte) {
	secondary := protocol.ImageSlotState{Slot: 1, Version: "0.0.0", Hash: hash, Bootable: true}
	for i := range d.state.Images {
		if d.state.Images[i].Slot == 1 {
			d.state.Images[i] = secondary
			return
		}
	}
	d.state.Images = append(d.state.Images, secondary)
}

func rcOnly(rc int64) *protocol.ImageUploadResponse {
	return &protocol.ImageUploadResponse{RC: &rc}
}

func offset(off uint32) *protocol.ImageUploadResponse {
	rc := int64(protocol.RCOk)
	return &protocol.ImageUploadResponse{RC: &rc, Off: &off}
}

// port is the device end of one open serial connection.
type port struct {
	device *Device
	mutex  sync.Mutex
	input  []byte
	output bytes.Buffer
	closed bool
}

func (p *port) Read(b []byte) (int, error) {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	if p.closed {
		return 0, errors.New("port closed")
	}
	if p.output.Len() == 0 {
		return 0, nil
	}
	return p.output.Read(b)
}

// Write buffers request lines until a whole frame has arrived, then answers it.
func (p *port) Write(b []byte) (int, error) {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	if p.closed {
		return 0, errors.New("port closed")
	}
	p.input = append(p.input, b...)

	if len(p.input) == 0 || p.input[len(p.input)-1] != protocol.LineTerminator {
		return len(b), nil
	}
	body, err := protocol.Unchunk(p.input)
	if err != nil {
		return 0, err
	}
	if !frameComplete(body) {
		return len(b), nil
	}

	wireLen := len(p.input)
	p.input = nil
	rsp, err := p.device.handle(body, wireLen)
	if err != nil {
		return 0, err
	}
	if rsp != nil {
		if p.device.Latency > 0 {
			time.Sleep(p.device.Latency)
		}
		p.output.Write(rsp)
	}
	return len(b), nil
}

// frameComplete reports whether body holds as many base64 characters as its
// length prefix announces.
func frameComplete(body []byte) bool {
	if len(body) < 4 {
		return false
	}
	prefix, err := base64.StdEncoding.DecodeString(string(body[:4]))
	if err != nil || len(prefix) < protocol.LengthPrefixSize {
		return true
	}
	total := protocol.LengthPrefixSize + int(binary.BigEndian.Uint16(prefix))
	return len(body) >= base64.StdEncoding.EncodedLen(total)
}

func (p *port) Close() error {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	p.closed = true
	p.device.mutex.Lock()
	p.device.closes++
	p.device.mutex.Unlock()
	return nil
}

func (p *port) ResetInputBuffer() error {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	p.output.Reset()
	return nil
}

func (p *port) SetReadTimeout(time.Duration) error {
	return nil
}
