// Package mgmt implements image-management commands on top of the transport.
//
// # Overview
//
// A Client issues one command at a time:
//   - ImageState reads the slot table of the device
//   - Upload transfers a firmware image in MTU-sized chunks
//
// # Basic Usage
//
//	seq := protocol.NewRandomSequencer()
//	t := transport.New(transport.DefaultConfig("/dev/ttyACM0"))
//	client := mgmt.New(t, seq)
//
//	img, err := image.Load("zephyr.signed.bin")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := client.Upload(context.Background(), img); err != nil {
//	    log.Fatal(err)
//	}
//
// # Upload State Machine
//
// Upload runs two nested loops. The outer loop advances through the image,
// one chunk and one sequence id per iteration, always continuing from the
// offset the device reports. The inner loop sizes a single chunk: when the
// encoded frame exceeds the MTU the chunk shrinks by the overflow converted
// back from base64 size, keeping the same offset and sequence id.
//
// # Configuration Options
//
//	client := mgmt.New(t, seq,
//	    mgmt.WithMTU(256),
//	    mgmt.WithLineLength(128),
//	    mgmt.WithChunkSize(200),
//	    mgmt.WithSlot(0),
//	    mgmt.WithLogger(myLogger),
//	    mgmt.WithProgressCallback(progressFunc),
//	)
//
// # Error Handling
//
// Every error aborts the command. The package provides structured error types:
//   - SequenceMismatchError: Response does not answer the request
//   - UnexpectedResponseError: Response carries the wrong operation or group
//   - MTUTooSmallError: Not a single data byte fits the MTU
//   - StalledError: Device did not advance the upload offset
//   - OffsetOutOfRangeError: Device reported an offset past the image end
//   - protocol.DeviceError: Device returned a non-zero status code
//
// Transport and framing errors from the transport package are returned wrapped.
package mgmt
