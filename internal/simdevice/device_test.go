package simdevice

import (
	"context"
	"crypto/sha256"
	"testing"

	"github.com/moffa90/go-mcumgr/protocol"
	"github.com/moffa90/go-mcumgr/transport"
)

func exchange(t *testing.T, dev *Device, hdr protocol.Header, req interface{}) (protocol.Header, []byte) {
	t.Helper()

	payload, err := protocol.EncodePayload(req)
	if err != nil {
		t.Fatalf("EncodePayload() error = %v", err)
	}
	wire, _, err := protocol.EncodeFrame(hdr, payload, 64)
	if err != nil {
		t.Fatalf("EncodeFrame() error = %v", err)
	}

	tr := transport.New(transport.DefaultConfig("sim"), transport.WithOpener(dev.Open))
	rspHdr, rsp, err := tr.Transceive(context.Background(), wire)
	if err != nil {
		t.Fatalf("Transceive() error = %v", err)
	}
	return rspHdr, rsp
}

func TestStaleInputDiscarded(t *testing.T) {
	dev := New()
	dev.Inject([]byte("\x06\x09stale response from another exchange\n"))

	hdr := protocol.NewRequest(protocol.OpRead, protocol.GroupImage, protocol.CmdImageState)
	hdr.Seq = 3
	rspHdr, payload := exchange(t, dev, hdr, protocol.EmptyRequest{})

	if rspHdr.Seq != 3 || rspHdr.Op != protocol.OpReadRsp {
		t.Errorf("response header = %v", rspHdr)
	}
	var state protocol.ImageStateResponse
	if err := protocol.DecodePayload(payload, &state); err != nil {
		t.Fatalf("DecodePayload() error = %v", err)
	}
	if len(state.Images) != 1 {
		t.Errorf("got %d slots, want 1", len(state.Images))
	}
	if opened, closed := dev.OpenCount(); opened != 1 || closed != 1 {
		t.Errorf("opened %d closed %d, want 1 and 1", opened, closed)
	}
}

func TestUploadEmulation(t *testing.T) {
	dev := New()
	dev.AcceptLimit = 2
	image := []byte{1, 2, 3, 4}
	sum := sha256.Sum256(image)
	size := uint32(len(image))

	upload := func(req protocol.ImageUploadRequest) protocol.ImageUploadResponse {
		hdr := protocol.NewRequest(protocol.OpWrite, protocol.GroupImage, protocol.CmdImageUpload)
		_, payload := exchange(t, dev, hdr, req)

		var rsp protocol.ImageUploadResponse
		if err := protocol.DecodePayload(payload, &rsp); err != nil {
			t.Fatalf("DecodePayload() error = %v", err)
		}
		if rsp.RC == nil || *rsp.RC != protocol.RCOk || rsp.Off == nil {
			t.Fatalf("unexpected response %+v", rsp)
		}
		return rsp
	}

	rsp := upload(protocol.ImageUploadRequest{Len: &size, Sha: sum[:], Data: image})
	if *rsp.Off != 2 {
		t.Fatalf("off = %d, want 2", *rsp.Off)
	}

	// A chunk at the wrong offset is answered with the expected one.
	rsp = upload(protocol.ImageUploadRequest{Off: 3, Data: image[3:]})
	if *rsp.Off != 2 {
		t.Fatalf("off = %d, want 2", *rsp.Off)
	}

	rsp = upload(protocol.ImageUploadRequest{Off: 2, Data: image[2:]})
	if *rsp.Off != 4 || rsp.Match == nil || !*rsp.Match {
		t.Fatalf("final response = %+v", rsp)
	}

	if string(dev.Flash()) != string(image) {
		t.Errorf("flash = % X, want % X", dev.Flash(), image)
	}
	if n := len(dev.State().Images); n != 2 {
		t.Errorf("got %d slots after upload, want 2", n)
	}
}

func TestUnknownCommand(t *testing.T) {
	dev := New()
	hdr := protocol.NewRequest(protocol.OpRead, protocol.GroupOS, 0)
	_, payload := exchange(t, dev, hdr, protocol.EmptyRequest{})

	var rsp protocol.ImageUploadResponse
	if err := protocol.DecodePayload(payload, &rsp); err != nil {
		t.Fatalf("DecodePayload() error = %v", err)
	}
	if rsp.RC == nil || *rsp.RC != protocol.RCNotSup {
		t.Errorf("rc = %v, want %d", rsp.RC, protocol.RCNotSup)
	}
}
