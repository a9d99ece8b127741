package main

import (
	"fmt"
	"log/slog"
	"math/rand"
	"os"

	"github.com/Fantom-foundation/Hoard/store"
	"github.com/urfave/cli/v2"
)

var (
	numValuesFlag = cli.IntFlag{
		Name:  "values",
		Usage: "the number of values to insert",
		Value: 1_000_000,
	}
	valueSizeFlag = cli.IntFlag{
		Name:  "value-size",
		Usage: "the size of each value in bytes",
		Value: 32,
	}
	numUniquesFlag = cli.IntFlag{
		Name:  "uniques",
		Usage: "the number of distinct values to draw from",
		Value: 100_000,
	}
	seedFlag = cli.Int64Flag{
		Name:  "seed",
		Usage: "the seed of the value generator",
		Value: 486,
	}
	dbDirectoryFlag = cli.StringFlag{
		Name:     "dir",
		Usage:    "the targeted snapshot directory",
		Required: true,
	}
)

func newLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
}

// fillStore inserts the configured number of randomly drawn values,
// committing periodically, and returns the resulting store.
func fillStore(ctx *cli.Context, logger *slog.Logger) *store.UniqueStore {
	numValues := ctx.Int(numValuesFlag.Name)
	numUniques := ctx.Int(numUniquesFlag.Name)
	valueSize := ctx.Int(valueSizeFlag.Name)
	rnd := rand.New(rand.NewSource(ctx.Int64(seedFlag.Name)))

	s := store.NewUniqueStore(store.Config{Logger: logger})
	value := make([]byte, valueSize)
	for i := 0; i < numValues; i++ {
		fillValue(value, rnd.Intn(numUniques))
		s.Add(value)
		if (i+1)%100_000 == 0 {
			s.Commit()
			s.Reclaim()
		}
	}
	s.Commit()
	return s
}

// fillValue derives a deterministic value for the given draw, so equal
// draws produce equal values regardless of insertion order.
func fillValue(trg []byte, draw int) {
	rnd := rand.New(rand.NewSource(int64(draw)))
	rnd.Read(trg)
}

func printStats(s *store.UniqueStore) {
	fmt.Printf("Distinct values: %d\n", s.GetNumUniques())
	fmt.Print(s.GetMemoryFootprint().ToString("store"))
}
