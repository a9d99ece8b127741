package main

import (
	"math/rand"
	"time"

	"github.com/urfave/cli/v2"
)

var compactCommand = cli.Command{
	Action: compact,
	Name:   "compact",
	Usage:  "fills a store, releases a share of it and measures compaction",
	Flags: []cli.Flag{
		&numValuesFlag,
		&numUniquesFlag,
		&valueSizeFlag,
		&seedFlag,
	},
}

func compact(ctx *cli.Context) error {
	logger := newLogger()

	s := fillStore(ctx, logger)
	logger.Info("filled", "uniques", s.GetNumUniques())

	// release roughly half of the distinct values to fragment the arena
	rnd := rand.New(rand.NewSource(ctx.Int64(seedFlag.Name) + 1))
	valueSize := ctx.Int(valueSizeFlag.Name)
	numUniques := ctx.Int(numUniquesFlag.Name)
	value := make([]byte, valueSize)
	released := 0
	for draw := 0; draw < numUniques; draw++ {
		if rnd.Intn(2) == 0 {
			continue
		}
		fillValue(value, draw)
		ref, exists := s.Find(value)
		if !exists {
			continue
		}
		for i := s.RefCount(ref); i > 0; i-- {
			s.Release(ref)
		}
		released++
	}
	s.Commit()
	s.Reclaim()
	logger.Info("released", "values", released)

	start := time.Now()
	s.Compact()
	s.Commit()
	s.Reclaim()
	logger.Info("compacted", "duration", time.Since(start))

	printStats(s)
	return nil
}
