package cmd

import (
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli"

	"github.com/moffa90/go-mcumgr/mgmt"
	"github.com/moffa90/go-mcumgr/protocol"
	"github.com/moffa90/go-mcumgr/transport"
)

// Env holds what every command shares for the lifetime of the process.
type Env struct {
	// Sequencer hands out request sequence ids to all commands
	Sequencer *protocol.Sequencer

	// Open opens the serial device
	Open transport.OpenFunc
}

// NewEnv returns an Env using real serial ports.
func NewEnv() *Env {
	return &Env{
		Sequencer: protocol.NewRandomSequencer(),
		Open:      transport.OpenSerial,
	}
}

// NewApp builds the command line application.
func NewApp(env *Env) *cli.App {
	a := cli.NewApp()
	a.Name = "mcumgr"
	a.Usage = "manage firmware images over a serial link"
	a.Before = func(c *cli.Context) error {
		if c.GlobalBool("debug") {
			logrus.SetLevel(logrus.DebugLevel)
		}
		return nil
	}
	a.Flags = GlobalFlags()
	a.Commands = []cli.Command{
		ListCmd(env),
		UploadCmd(env),
	}
	return a
}

// newClient assembles transport and client from the global flags.
func newClient(c *cli.Context, env *Env, opts ...mgmt.Option) (*mgmt.Client, *Config, error) {
	cfg, err := ConfigFromContext(c)
	if err != nil {
		return nil, nil, err
	}

	logger := NewLogger(logrus.WithField("device", cfg.Device))
	t := transport.New(cfg.TransportConfig(),
		transport.WithOpener(env.Open),
		transport.WithLogger(logger),
	)

	opts = append(cfg.ClientOptions(), append(opts, mgmt.WithLogger(logger))...)
	return mgmt.New(t, env.Sequencer, opts...), cfg, nil
}
