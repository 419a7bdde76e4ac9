package main

import (
	"os"

	"github.com/sirupsen/logrus"

	"github.com/moffa90/go-mcumgr/app/cmd"
)

func main() {
	a := cmd.NewApp(cmd.NewEnv())
	if err := a.Run(os.Args); err != nil {
		logrus.Fatal("Error when executing command: ", err)
	}
}
