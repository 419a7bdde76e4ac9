package mgmt

import "github.com/moffa90/go-mcumgr/protocol"

const (
	// DefaultMTU is the default maximum encoded frame size in bytes
	DefaultMTU = 512

	// DefaultLineLength is the default maximum line size, markers included
	DefaultLineLength = 128
)

// Config holds the client configuration.
type Config struct {
	// ProgressCallback is called after every uploaded chunk (optional)
	ProgressCallback ProgressCallback

	// Logger is used for logging operations (optional)
	Logger Logger

	// MTU is the largest encoded frame, line markers and terminators included,
	// that may be written to the device in one exchange
	MTU int

	// LineLength is the maximum number of bytes per transport line
	LineLength int

	// ChunkSize is the number of image bytes first attempted per chunk.
	// Zero means MTU; the chunk is shrunk until its frame fits the MTU.
	ChunkSize int

	// Slot is the target image number sent with every upload chunk
	Slot int
}

// defaultConfig returns the default configuration.
func defaultConfig() Config {
	return Config{
		MTU:        DefaultMTU,
		LineLength: DefaultLineLength,
	}
}

// Option is a functional option for configuring the Client.
type Option func(*Config)

// WithProgressCallback sets a callback function to track upload progress.
//
// Example:
//
//	client := mgmt.New(t, seq,
//	    mgmt.WithProgressCallback(func(p mgmt.Progress) {
//	        fmt.Printf("%.1f%% complete\n", p.Percentage)
//	    }),
//	)
func WithProgressCallback(callback ProgressCallback) Option {
	return func(c *Config) {
		c.ProgressCallback = callback
	}
}

// WithLogger sets a logger for the client operations.
//
// Example:
//
//	client := mgmt.New(t, seq, mgmt.WithLogger(myLogger))
func WithLogger(logger Logger) Option {
	return func(c *Config) {
		c.Logger = logger
	}
}

// WithMTU sets the maximum encoded frame size. Non-positive values are ignored.
//
// Example:
//
//	client := mgmt.New(t, seq, mgmt.WithMTU(256))
func WithMTU(mtu int) Option {
	return func(c *Config) {
		if mtu > 0 {
			c.MTU = mtu
		}
	}
}

// WithLineLength sets the maximum transport line size. Values that leave no
// room for data after the line overhead are ignored.
//
// Example:
//
//	client := mgmt.New(t, seq, mgmt.WithLineLength(64))
func WithLineLength(length int) Option {
	return func(c *Config) {
		if length > protocol.LineOverhead {
			c.LineLength = length
		}
	}
}

// WithChunkSize sets the number of image bytes attempted per chunk.
// Default is the MTU.
//
// Example:
//
//	client := mgmt.New(t, seq, mgmt.WithChunkSize(128))
func WithChunkSize(size int) Option {
	return func(c *Config) {
		if size > 0 {
			c.ChunkSize = size
		}
	}
}

// WithSlot sets the target image number.
//
// Example:
//
//	client := mgmt.New(t, seq, mgmt.WithSlot(1))
func WithSlot(slot int) Option {
	return func(c *Config) {
		if slot >= 0 {
			c.Slot = slot
		}
	}
}
