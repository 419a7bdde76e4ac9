// Package transport carries management frames over a serial link.
//
// A Transport owns the serial device for the duration of exactly one
// request/response exchange:
//
//	t := transport.New(transport.Config{
//	    Device:   "/dev/ttyACM0",
//	    BaudRate: 115200,
//	    Timeout:  time.Second,
//	})
//	hdr, payload, err := t.Transceive(ctx, wire)
//
// The device is opened, stale input is discarded, the frame is written, one
// response line is read and verified, and the device is closed again. A
// device that stays silent longer than Timeout fails the call with ErrTimeout.
//
// Any io.ReadWriteCloser with ResetInputBuffer and SetReadTimeout methods can
// stand in for the serial port through WithOpener.
package transport
