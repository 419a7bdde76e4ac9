package cmd

import (
	"os"
	"time"

	"github.com/pkg/errors"
	"github.com/urfave/cli"

	"github.com/moffa90/go-mcumgr/mgmt"
	"github.com/moffa90/go-mcumgr/protocol"
	"github.com/moffa90/go-mcumgr/transport"
)

const (
	DefaultTimeoutSeconds = 1.0

	// MaxMTU is the largest frame the two byte length prefix can describe once encoded
	MaxMTU = 1 << 16
)

// Config is the link and upload configuration assembled from the global flags.
type Config struct {
	Device     string
	BaudRate   int
	Timeout    time.Duration
	MTU        int
	LineLength int
	Slot       int
	LockDir    string
	Debug      bool
}

// GlobalFlags are the flags shared by every command.
func GlobalFlags() []cli.Flag {
	return []cli.Flag{
		cli.StringFlag{
			Name:   "device, d",
			Usage:  "serial port of the device, e.g. /dev/ttyACM0",
			EnvVar: "MCUMGR_DEVICE",
		},
		cli.IntFlag{
			Name:  "baudrate, b",
			Value: transport.DefaultBaudRate,
			Usage: "serial port baud rate",
		},
		cli.Float64Flag{
			Name:  "timeout, t",
			Value: DefaultTimeoutSeconds,
			Usage: "serial read timeout in seconds",
		},
		cli.IntFlag{
			Name:  "mtu, m",
			Value: mgmt.DefaultMTU,
			Usage: "maximum encoded frame size in bytes",
		},
		cli.IntFlag{
			Name:  "linelength, l",
			Value: mgmt.DefaultLineLength,
			Usage: "maximum bytes per serial line, markers included",
		},
		cli.IntFlag{
			Name:  "slot, s",
			Value: 0,
			Usage: "target image slot",
		},
		cli.StringFlag{
			Name:  "lock-dir",
			Value: os.TempDir(),
			Usage: "directory for the per-device lock file, empty to disable locking",
		},
		cli.BoolFlag{
			Name:  "debug",
			Usage: "enable debug logging, including frame dumps",
		},
	}
}

// ConfigFromContext reads and validates the global flags.
func ConfigFromContext(c *cli.Context) (*Config, error) {
	cfg := &Config{
		Device:     c.GlobalString("device"),
		BaudRate:   c.GlobalInt("baudrate"),
		Timeout:    time.Duration(c.GlobalFloat64("timeout") * float64(time.Second)),
		MTU:        c.GlobalInt("mtu"),
		LineLength: c.GlobalInt("linelength"),
		Slot:       c.GlobalInt("slot"),
		LockDir:    c.GlobalString("lock-dir"),
		Debug:      c.GlobalBool("debug"),
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration for values the link cannot work with.
func (cfg *Config) Validate() error {
	if cfg.Device == "" {
		return errors.New("missing required parameter --device")
	}
	if cfg.BaudRate <= 0 {
		return errors.Errorf("invalid baud rate %d", cfg.BaudRate)
	}
	if cfg.Timeout <= 0 {
		return errors.Errorf("invalid timeout %v, must be positive", cfg.Timeout)
	}
	if cfg.LineLength <= protocol.LineOverhead {
		return errors.Errorf("invalid line length %d, must be greater than %d", cfg.LineLength, protocol.LineOverhead)
	}
	minMTU := protocol.EncodedLen(0, cfg.LineLength)
	if cfg.MTU < minMTU || cfg.MTU > MaxMTU {
		return errors.Errorf("invalid MTU %d, must be between %d and %d", cfg.MTU, minMTU, MaxMTU)
	}
	if cfg.Slot < 0 {
		return errors.Errorf("invalid slot %d", cfg.Slot)
	}
	return nil
}

// TransportConfig returns the serial link settings.
func (cfg *Config) TransportConfig() transport.Config {
	return transport.Config{
		Device:   cfg.Device,
		BaudRate: cfg.BaudRate,
		Timeout:  cfg.Timeout,
		LockDir:  cfg.LockDir,
	}
}

// ClientOptions returns the management client options for the configuration.
func (cfg *Config) ClientOptions() []mgmt.Option {
	return []mgmt.Option{
		mgmt.WithMTU(cfg.MTU),
		mgmt.WithLineLength(cfg.LineLength),
		mgmt.WithSlot(cfg.Slot),
	}
}
