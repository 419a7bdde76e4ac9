package mgmt

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"

	"github.com/moffa90/go-mcumgr/image"
	"github.com/moffa90/go-mcumgr/protocol"
)

// shrinkMargin is added to every chunk shrink to absorb base64 padding and
// CBOR length-prefix growth.
const shrinkMargin = 3

// Upload transfers img to the configured image slot.
//
// The image is sent in chunks, each a single write request with its own
// sequence id:
//  1. Size the chunk: start at ChunkSize and shrink until the frame fits the MTU
//  2. Send it and check the response answers this request
//  3. Continue from the offset the device reports, which may differ from the
//     bytes sent when the device asks for a retransmission
//
// The first chunk also carries the image length and SHA-256 digest. The upload
// succeeds once the device acknowledges the whole image and fails on the first
// error; nothing is retried. The operation can be cancelled via context between
// chunks.
//
// Example:
//
//	img, _ := image.Load("zephyr.signed.bin")
//	err := client.Upload(context.Background(), img)
func (c *Client) Upload(ctx context.Context, img *image.Image) error {
	if img == nil {
		return errors.New("image cannot be nil")
	}
	if len(img.Data) == 0 {
		return errors.Errorf("image %v is empty", img.Name)
	}

	total := len(img.Data)
	startTime := time.Now()

	c.reportProgress(Progress{
		Phase: PhaseUploading,
		Total: total,
	})
	c.logDebug("starting upload",
		"image", img.Name,
		"bytes", total,
		"slot", c.config.Slot,
		"mtu", c.config.MTU,
	)

	offset := 0
	chunks := 0
	for offset < total {
		if err := ctx.Err(); err != nil {
			return errors.Wrap(err, "cancelled")
		}

		next, err := c.uploadChunk(ctx, img, offset)
		if err != nil {
			return errors.Wrapf(err, "upload chunk at offset %d", offset)
		}

		offset = next
		chunks++

		percentage := float64(offset) / float64(total) * 100
		c.reportProgress(Progress{
			Phase:       PhaseUploading,
			Offset:      offset,
			Total:       total,
			Percentage:  percentage,
			Chunks:      chunks,
			ElapsedTime: time.Since(startTime),
		})
		c.logInfo(fmt.Sprintf("%d%% uploaded", int(percentage)), "offset", offset, "total", total)
	}

	c.reportProgress(Progress{
		Phase:       PhaseComplete,
		Offset:      total,
		Total:       total,
		Percentage:  100,
		Chunks:      chunks,
		ElapsedTime: time.Since(startTime),
	})
	c.logInfo("upload complete",
		"image", img.Name,
		"bytes", total,
		"chunks", chunks,
		"elapsed", time.Since(startTime).String(),
	)

	return nil
}

// uploadChunk sends the chunk starting at offset and returns the offset the
// device wants next.
func (c *Client) uploadChunk(ctx context.Context, img *image.Image, offset int) (int, error) {
	seq := c.seq.Next()

	wire, sent, sentBytes, err := c.negotiateChunk(img, offset, seq)
	if err != nil {
		return 0, err
	}

	payload, err := c.exchange(ctx, sent, wire)
	if err != nil {
		return 0, err
	}

	var rsp protocol.ImageUploadResponse
	if err := protocol.DecodePayload(payload, &rsp); err != nil {
		return 0, err
	}
	if rsp.RC != nil && *rsp.RC != protocol.RCOk {
		return 0, &protocol.DeviceError{Operation: "image upload", Code: *rsp.RC}
	}
	if rsp.Off == nil {
		return 0, &StalledError{Offset: offset}
	}

	next := int(*rsp.Off)
	if next > len(img.Data) {
		return 0, &OffsetOutOfRangeError{Offset: next, Size: len(img.Data)}
	}
	if next == offset {
		return 0, &StalledError{Offset: offset, Reported: true}
	}
	if next != offset+sentBytes {
		c.logDebug("device moved upload offset",
			"sent_from", offset,
			"sentBytes", sentBytes,
			"device_offset", next,
		)
	}
	if rsp.Match != nil && !*rsp.Match {
		c.logInfo("device reported image digest mismatch", "image", img.Name)
	}

	return next, nil
}

// negotiateChunk builds the largest frame for the chunk at offset that fits
// the MTU. The sequence id and offset stay fixed while the chunk shrinks.
// Returns the wire frame, its header and the number of image bytes it carries.
func (c *Client) negotiateChunk(img *image.Image, offset int, seq uint8) ([]byte, protocol.Header, int, error) {
	attempted := min(c.config.ChunkSize, len(img.Data)-offset)

	for {
		req := protocol.ImageUploadRequest{
			Image: c.config.Slot,
			Off:   uint32(offset),
			Data:  img.Data[offset : offset+attempted],
		}
		if offset == 0 {
			size := uint32(len(img.Data))
			req.Len = &size
			req.Sha = img.Hash[:]
		}

		payload, err := protocol.EncodePayload(req)
		if err != nil {
			return nil, protocol.Header{}, 0, err
		}

		hdr := protocol.NewRequest(protocol.OpWrite, protocol.GroupImage, protocol.CmdImageUpload)
		hdr.Seq = seq

		wire, sent, err := protocol.EncodeFrame(hdr, payload, c.config.LineLength)
		if err != nil {
			return nil, protocol.Header{}, 0, err
		}
		if len(wire) <= c.config.MTU {
			return wire, sent, attempted, nil
		}

		overflow := len(wire) - c.config.MTU
		shrink := overflow*3/4 + shrinkMargin
		if shrink >= attempted && attempted > 1 && overflow <= attempted {
			// The margin alone would empty a short chunk; try a single byte.
			shrink = attempted - 1
		}
		if overflow > attempted || shrink >= attempted {
			return nil, protocol.Header{}, 0, &MTUTooSmallError{
				MTU:       c.config.MTU,
				FrameSize: len(wire),
				Attempted: attempted,
			}
		}

		c.logDebug("shrinking chunk",
			"offset", offset,
			"frame_bytes", len(wire),
			"attempted", attempted,
			"shrink", shrink,
		)
		attempted -= shrink
	}
}
