package mgmt

import (
	"time"

	"github.com/moffa90/go-mcumgr/transport"
)

// Upload phases reported in Progress.Phase.
const (
	PhaseUploading = "uploading"
	PhaseComplete  = "complete"
)

// Progress contains information about the upload progress.
// Passed to ProgressCallback after every acknowledged chunk.
type Progress struct {
	// Phase describes the current operation phase:
	//   "uploading" - Chunks are being transferred
	//   "complete"  - The device acknowledged the whole image
	Phase string

	// Offset is the device-acknowledged offset, where the next chunk starts
	Offset int

	// Total is the image size in bytes
	Total int

	// Percentage is the completion percentage (0.0 to 100.0)
	Percentage float64

	// Chunks is the number of chunks acknowledged so far
	Chunks int

	// ElapsedTime is the time elapsed since the upload started
	ElapsedTime time.Duration
}

// ProgressCallback is called after every chunk to report progress.
// Implementations should return quickly to avoid stalling the upload.
//
// Example:
//
//	client := mgmt.New(t, seq,
//	    mgmt.WithProgressCallback(func(p mgmt.Progress) {
//	        fmt.Printf("[%s] %.1f%% - %d/%d bytes\n",
//	            p.Phase, p.Percentage, p.Offset, p.Total)
//	    }),
//	)
type ProgressCallback func(Progress)

// Logger is an optional logging interface shared with the transport, so one
// adapter serves both.
type Logger = transport.Logger
