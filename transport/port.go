package transport

import (
	"io"
	"time"

	"github.com/pkg/errors"
	"go.bug.st/serial"
)

// Port is the byte stream used for one exchange.
// go.bug.st/serial ports satisfy it directly.
//
// Read must return (0, nil) when the read timeout elapses without data,
// which is how go.bug.st/serial reports a timeout.
type Port interface {
	io.ReadWriteCloser

	// ResetInputBuffer discards bytes received but not yet read
	ResetInputBuffer() error

	// SetReadTimeout bounds every Read call
	SetReadTimeout(t time.Duration) error
}

// OpenFunc opens the named device at the given baud rate.
type OpenFunc func(device string, baudRate int) (Port, error)

// OpenSerial opens a serial device in 8N1 mode.
func OpenSerial(device string, baudRate int) (Port, error) {
	mode := &serial.Mode{
		BaudRate: baudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}

	port, err := serial.Open(device, mode)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open serial port %v", device)
	}
	return port, nil
}

// portReader turns a silent timeout into ErrTimeout.
type portReader struct {
	port Port
}

func (r portReader) Read(p []byte) (int, error) {
	n, err := r.port.Read(p)
	if n == 0 && err == nil {
		return 0, ErrTimeout
	}
	return n, err
}

// writeAll writes every byte of data, looping over short writes.
func writeAll(w io.Writer, data []byte) error {
	for written := 0; written < len(data); {
		n, err := w.Write(data[written:])
		if err != nil {
			return err
		}
		if n == 0 {
			return io.ErrShortWrite
		}
		written += n
	}
	return nil
}
