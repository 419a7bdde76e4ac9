package mgmt

import (
	"context"

	"github.com/pkg/errors"

	"github.com/moffa90/go-mcumgr/protocol"
)

// Transceiver performs one request/response exchange with a device.
// *transport.Transport implements it.
type Transceiver interface {
	Transceive(ctx context.Context, frame []byte) (protocol.Header, []byte, error)
}

// Client runs image-management commands against one device.
//
// Commands are issued one at a time; a Client must not be used from several
// goroutines at once. The Sequencer may be shared between clients.
type Client struct {
	transport Transceiver
	seq       *protocol.Sequencer
	config    Config
}

// New creates a new Client that talks through t and draws sequence ids from seq.
// A nil seq gets a randomly seeded Sequencer of its own.
//
// Example:
//
//	seq := protocol.NewRandomSequencer()
//	t := transport.New(transport.DefaultConfig("/dev/ttyACM0"))
//	client := mgmt.New(t, seq,
//	    mgmt.WithMTU(512),
//	    mgmt.WithProgressCallback(progressFunc),
//	)
func New(t Transceiver, seq *protocol.Sequencer, opts ...Option) *Client {
	if t == nil {
		panic("transceiver cannot be nil")
	}
	if seq == nil {
		seq = protocol.NewRandomSequencer()
	}

	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = cfg.MTU
	}

	return &Client{
		transport: t,
		seq:       seq,
		config:    cfg,
	}
}

// Config returns the client configuration.
func (c *Client) Config() Config {
	return c.config
}

// ImageState reads the image slot table from the device.
//
// Example:
//
//	state, err := client.ImageState(ctx)
//	for _, slot := range state.Images {
//	    fmt.Println(slot.Slot, slot.Version, slot.Active)
//	}
func (c *Client) ImageState(ctx context.Context) (*protocol.ImageStateResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.Wrap(err, "cancelled")
	}

	payload, err := protocol.EncodePayload(protocol.EmptyRequest{})
	if err != nil {
		return nil, err
	}

	hdr := protocol.NewRequest(protocol.OpRead, protocol.GroupImage, protocol.CmdImageState)
	hdr.Seq = c.seq.Next()

	wire, sent, err := protocol.EncodeFrame(hdr, payload, c.config.LineLength)
	if err != nil {
		return nil, err
	}
	if len(wire) > c.config.MTU {
		return nil, &MTUTooSmallError{MTU: c.config.MTU, FrameSize: len(wire)}
	}

	data, err := c.exchange(ctx, sent, wire)
	if err != nil {
		return nil, errors.Wrap(err, "image state")
	}

	var state protocol.ImageStateResponse
	if err := protocol.DecodePayload(data, &state); err != nil {
		return nil, errors.Wrap(err, "image state")
	}
	if state.RC != nil && *state.RC != protocol.RCOk {
		return nil, &protocol.DeviceError{Operation: "image state", Code: *state.RC}
	}

	c.logDebug("image state", "slots", len(state.Images))
	return &state, nil
}

// exchange sends wire and checks the response answers sent.
func (c *Client) exchange(ctx context.Context, sent protocol.Header, wire []byte) ([]byte, error) {
	c.logDebug("sending request", "header", sent.String(), "bytes", len(wire))

	hdr, payload, err := c.transport.Transceive(ctx, wire)
	if err != nil {
		return nil, err
	}

	if hdr.Seq != sent.Seq {
		return nil, &SequenceMismatchError{Expected: sent.Seq, Actual: hdr.Seq}
	}
	if hdr.Op != sent.Op.Response() || hdr.Group != sent.Group {
		return nil, &UnexpectedResponseError{
			ExpectedOp:    sent.Op.Response(),
			ExpectedGroup: sent.Group,
			Op:            hdr.Op,
			Group:         hdr.Group,
		}
	}

	return payload, nil
}

// reportProgress calls the progress callback if configured.
func (c *Client) reportProgress(progress Progress) {
	if c.config.ProgressCallback != nil {
		c.config.ProgressCallback(progress)
	}
}

// logDebug logs a debug message if a logger is configured.
func (c *Client) logDebug(msg string, keysAndValues ...interface{}) {
	if c.config.Logger != nil {
		c.config.Logger.Debug(msg, keysAndValues...)
	}
}

// logInfo logs an info message if a logger is configured.
func (c *Client) logInfo(msg string, keysAndValues ...interface{}) {
	if c.config.Logger != nil {
		c.config.Logger.Info(msg, keysAndValues...)
	}
}
