package transport

import (
	"bufio"
	"context"
	"encoding/hex"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	"github.com/pkg/errors"
	"go.uber.org/multierr"

	"github.com/moffa90/go-mcumgr/protocol"
)

const (
	// DefaultBaudRate is the baud rate used when none is configured
	DefaultBaudRate = 115200

	// DefaultTimeout bounds each read from the device
	DefaultTimeout = time.Second

	lockRetryDelay = 50 * time.Millisecond
)

// ErrTimeout is returned when the device sends nothing within the read timeout.
var ErrTimeout = errors.New("timed out waiting for device")

// Config holds the serial link settings.
type Config struct {
	// Device is the serial port path, e.g. /dev/ttyACM0
	Device string

	// BaudRate is the link speed
	BaudRate int

	// Timeout bounds every read from the device
	Timeout time.Duration

	// LockDir holds the advisory lock file for the device (empty disables locking)
	LockDir string
}

// DefaultConfig returns the default configuration for a device.
func DefaultConfig(device string) Config {
	return Config{
		Device:   device,
		BaudRate: DefaultBaudRate,
		Timeout:  DefaultTimeout,
	}
}

// Logger is an optional logging interface, see WithLogger.
type Logger interface {
	// Debug logs a debug message with optional key-value pairs
	Debug(msg string, keysAndValues ...interface{})

	// Info logs an info message with optional key-value pairs
	Info(msg string, keysAndValues ...interface{})

	// Error logs an error message with optional key-value pairs
	Error(msg string, keysAndValues ...interface{})
}

// Option is a functional option for configuring the Transport.
type Option func(*Transport)

// WithOpener replaces the function used to open the device.
// Tests use it to substitute an in-memory port.
func WithOpener(open OpenFunc) Option {
	return func(t *Transport) {
		if open != nil {
			t.open = open
		}
	}
}

// WithLogger sets a logger for the transport.
func WithLogger(logger Logger) Option {
	return func(t *Transport) {
		t.logger = logger
	}
}

// Transport performs request/response exchanges over a serial device.
//
// The device is opened for each exchange and closed before Transceive
// returns, so a failed exchange never leaves the port open. Exchanges must
// not overlap; when LockDir is set an advisory file lock enforces this across
// processes.
type Transport struct {
	config Config
	open   OpenFunc
	logger Logger
}

// New creates a Transport for the given configuration.
func New(cfg Config, opts ...Option) *Transport {
	if cfg.BaudRate <= 0 {
		cfg.BaudRate = DefaultBaudRate
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}

	t := &Transport{
		config: cfg,
		open:   OpenSerial,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Config returns the transport configuration.
func (t *Transport) Config() Config {
	return t.config
}

// Transceive sends one encoded frame and reads back one response frame.
//
// The sequence:
//  1. Open the device and set the read timeout
//  2. Discard stale input left over from earlier exchanges
//  3. Write every byte of frame
//  4. Expect the start marker, read up to the line terminator
//  5. Decode and verify the frame, check the payload is well-formed CBOR
//
// Every failure is returned to the caller; nothing is retried. The response
// is not correlated with the request here, callers compare sequence ids.
func (t *Transport) Transceive(ctx context.Context, frame []byte) (hdr protocol.Header, payload []byte, err error) {
	if err = ctx.Err(); err != nil {
		return protocol.Header{}, nil, errors.Wrap(err, "cancelled")
	}

	unlock, err := t.lock(ctx)
	if err != nil {
		return protocol.Header{}, nil, err
	}
	defer unlock()

	port, err := t.open(t.config.Device, t.config.BaudRate)
	if err != nil {
		return protocol.Header{}, nil, err
	}
	defer func() {
		if cerr := port.Close(); cerr != nil {
			err = multierr.Append(err, errors.Wrapf(cerr, "failed to close %v", t.config.Device))
		}
	}()

	if err = port.SetReadTimeout(t.config.Timeout); err != nil {
		return protocol.Header{}, nil, errors.Wrap(err, "failed to set read timeout")
	}
	if err = port.ResetInputBuffer(); err != nil {
		return protocol.Header{}, nil, errors.Wrap(err, "failed to discard stale input")
	}

	t.logDebug("sending frame", "bytes", len(frame))
	if err = writeAll(port, frame); err != nil {
		return protocol.Header{}, nil, errors.Wrap(err, "failed to write frame")
	}

	line, err := readLine(bufio.NewReader(portReader{port: port}))
	if err != nil {
		return protocol.Header{}, nil, err
	}
	t.logDebug("received line", "text", string(line))

	hdr, payload, err = protocol.DecodeFrame(line)
	if err != nil {
		return protocol.Header{}, nil, errors.Wrap(err, "failed to decode response")
	}
	t.logDebug("received frame", "header", hdr.String(), "payload", hex.EncodeToString(payload))

	if err = protocol.Wellformed(payload); err != nil {
		return protocol.Header{}, nil, errors.Wrap(err, "failed to decode response")
	}

	return hdr, payload, nil
}

// readLine expects the start marker and returns the base64 text up to the
// line terminator. Only single-line responses are supported.
func readLine(r *bufio.Reader) ([]byte, error) {
	for pos, want := range protocol.FrameStart {
		b, err := r.ReadByte()
		if err != nil {
			return nil, errors.Wrap(err, "failed to read start marker")
		}
		if b != want {
			return nil, &protocol.MarkerError{Position: pos, Expected: want, Actual: b}
		}
	}

	line, err := r.ReadBytes(protocol.LineTerminator)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read response line")
	}
	return line[:len(line)-1], nil
}

func (t *Transport) lock(ctx context.Context) (func(), error) {
	if t.config.LockDir == "" {
		return func() {}, nil
	}

	fileLock := flock.New(filepath.Join(t.config.LockDir, "mcumgr-"+filepath.Base(t.config.Device)+".lock"))
	locked, err := fileLock.TryLockContext(ctx, lockRetryDelay)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to fetch the file lock for %v", t.config.Device)
	}
	if !locked {
		return nil, errors.Errorf("device %v is in use", t.config.Device)
	}

	return func() {
		if err := fileLock.Unlock(); err != nil {
			t.logError("failed to release device lock", "path", fileLock.Path(), "error", err)
		}
	}, nil
}

func (t *Transport) logDebug(msg string, keysAndValues ...interface{}) {
	if t.logger != nil {
		t.logger.Debug(msg, keysAndValues...)
	}
}

func (t *Transport) logError(msg string, keysAndValues ...interface{}) {
	if t.logger != nil {
		t.logger.Error(msg, keysAndValues...)
	}
}
