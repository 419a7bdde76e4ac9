package cmd

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli"

	"github.com/moffa90/go-mcumgr/protocol"
)

func ListCmd(env *Env) cli.Command {
	return cli.Command{
		Name:      "list",
		ShortName: "ls",
		Usage:     "show the image slots of the device",
		Flags: []cli.Flag{
			cli.BoolFlag{
				Name:  "json",
				Usage: "print the raw slot table as JSON",
			},
		},
		Action: func(c *cli.Context) {
			if err := list(c, env); err != nil {
				logrus.WithError(err).Fatalf("Error running list command")
			}
		},
	}
}

func list(c *cli.Context, env *Env) error {
	client, _, err := newClient(c, env)
	if err != nil {
		return err
	}

	state, err := client.ImageState(context.Background())
	if err != nil {
		return err
	}

	if c.Bool("json") {
		output, err := json.MarshalIndent(state, "", "\t")
		if err != nil {
			return err
		}
		fmt.Fprintln(c.App.Writer, string(output))
		return nil
	}

	format := "%v\t%v\t%s\t%s\t%s\n"
	tw := tabwriter.NewWriter(c.App.Writer, 0, 20, 1, ' ', 0)
	fmt.Fprintf(tw, format, "IMAGE", "SLOT", "VERSION", "FLAGS", "HASH")
	for _, s := range state.Images {
		fmt.Fprintf(tw, format, s.Image, s.Slot, s.Version, slotFlags(s), hex.EncodeToString(s.Hash))
	}
	return tw.Flush()
}

func slotFlags(s protocol.ImageSlotState) string {
	var flags []string
	if s.Active {
		flags = append(flags, "active")
	}
	if s.Confirmed {
		flags = append(flags, "confirmed")
	}
	if s.Pending {
		flags = append(flags, "pending")
	}
	if s.Permanent {
		flags = append(flags, "permanent")
	}
	if s.Bootable {
		flags = append(flags, "bootable")
	}
	if len(flags) == 0 {
		return "-"
	}
	return strings.Join(flags, ",")
}
