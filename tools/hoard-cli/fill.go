package main

import (
	"time"

	"github.com/urfave/cli/v2"
)

var fillCommand = cli.Command{
	Action: fill,
	Name:   "fill",
	Usage:  "bulk-inserts random values and prints store statistics",
	Flags: []cli.Flag{
		&numValuesFlag,
		&numUniquesFlag,
		&valueSizeFlag,
		&seedFlag,
	},
}

func fill(ctx *cli.Context) error {
	logger := newLogger()

	start := time.Now()
	s := fillStore(ctx, logger)
	logger.Info("filled",
		"values", ctx.Int(numValuesFlag.Name),
		"duration", time.Since(start))

	printStats(s)
	return nil
}
