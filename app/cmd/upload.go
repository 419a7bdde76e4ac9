package cmd

import (
	"context"
	"os"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli"
	"golang.org/x/term"
	"gopkg.in/cheggaaa/pb.v2"

	"github.com/moffa90/go-mcumgr/image"
	"github.com/moffa90/go-mcumgr/mgmt"
)

func UploadCmd(env *Env) cli.Command {
	return cli.Command{
		Name:      "upload",
		Usage:     "upload a firmware image: upload <image-file>",
		ArgsUsage: "<image-file>",
		Flags: []cli.Flag{
			cli.IntFlag{
				Name:  "chunk-size",
				Usage: "image bytes first attempted per chunk, 0 for the MTU",
			},
		},
		Action: func(c *cli.Context) {
			if err := upload(c, env); err != nil {
				logrus.WithError(err).Fatalf("Error running upload command")
			}
		},
	}
}

func upload(c *cli.Context, env *Env) error {
	path := c.Args().First()
	if path == "" {
		return errors.New("missing required parameter <image-file>")
	}

	img, err := image.Load(path)
	if err != nil {
		return err
	}

	session := uuid.New().String()
	log := logrus.WithField("session", session)
	fields := logrus.Fields{
		"image":  img.Name,
		"size":   img.HumanSize(),
		"sha256": img.HashString(),
	}
	if img.Header != nil {
		fields["version"] = img.Header.Version.String()
	}
	log.WithFields(fields).Info("Uploading image")

	reporter := newProgressReporter(img.Size())
	defer reporter.finish()

	client, cfg, err := newClient(c, env,
		mgmt.WithChunkSize(c.Int("chunk-size")),
		mgmt.WithProgressCallback(reporter.update),
	)
	if err != nil {
		return err
	}

	if err := client.Upload(context.Background(), img); err != nil {
		return errors.Wrapf(err, "failed to upload %v to %v", img.Name, cfg.Device)
	}

	log.Infof("Uploaded %v to slot %v", img.Name, cfg.Slot)
	return nil
}

// progressReporter draws a progress bar on terminals. Elsewhere progress is
// left to the client's log messages.
type progressReporter struct {
	bar *pb.ProgressBar
}

func newProgressReporter(total int) *progressReporter {
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return &progressReporter{}
	}
	return &progressReporter{bar: pb.StartNew(total)}
}

func (r *progressReporter) update(p mgmt.Progress) {
	if r.bar != nil {
		r.bar.SetCurrent(int64(p.Offset))
	}
}

func (r *progressReporter) finish() {
	if r.bar != nil {
		r.bar.Finish()
	}
}
