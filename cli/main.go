package main

import (
	"fmt"
	"os"

	"github.com/trebuchet-org/dvote/internal/cli"
	"github.com/trebuchet-org/dvote/internal/cli/render"
	"github.com/trebuchet-org/dvote/internal/config"
)

var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	config.SetBuildFlags(version, commit, date)

	if err := cli.Execute(cli.NewRootCmd()); err != nil {
		fmt.Fprintln(os.Stderr, render.FormatError(err))
		if hint := render.FormatHint(err); hint != "" {
			fmt.Fprintln(os.Stderr, hint)
		}
		os.Exit(1)
	}
}
