package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"
)

// Run with `go run ./tools/hoard-cli`

func main() {
	app := &cli.App{
		Name:      "Hoard Store Toolbox",
		HelpName:  "hoard",
		Usage:     "A set of utilities to exercise and inspect unique value stores",
		Copyright: "(c) 2024 Fantom Foundation",
		Flags:     []cli.Flag{},
		Commands: []*cli.Command{
			&fillCommand,
			&compactCommand,
			&saveCommand,
			&loadCommand,
		},
	}
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
