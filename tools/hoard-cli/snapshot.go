package main

import (
	"time"

	"github.com/Fantom-foundation/Hoard/backend/snapshot"
	"github.com/Fantom-foundation/Hoard/store"
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/urfave/cli/v2"
)

var saveCommand = cli.Command{
	Action: save,
	Name:   "save",
	Usage:  "fills a store and persists it as a snapshot",
	Flags: []cli.Flag{
		&dbDirectoryFlag,
		&numValuesFlag,
		&numUniquesFlag,
		&valueSizeFlag,
		&seedFlag,
	},
}

var loadCommand = cli.Command{
	Action: load,
	Name:   "load",
	Usage:  "restores a store from a snapshot and prints its statistics",
	Flags: []cli.Flag{
		&dbDirectoryFlag,
	},
}

func save(ctx *cli.Context) (err error) {
	logger := newLogger()

	s := fillStore(ctx, logger)
	logger.Info("filled", "uniques", s.GetNumUniques())

	db, err := leveldb.OpenFile(ctx.String(dbDirectoryFlag.Name), nil)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := db.Close(); err == nil {
			err = closeErr
		}
	}()

	start := time.Now()
	if err := snapshot.Save(db, s); err != nil {
		return err
	}
	logger.Info("saved", "duration", time.Since(start))
	return nil
}

func load(ctx *cli.Context) (err error) {
	logger := newLogger()

	db, err := leveldb.OpenFile(ctx.String(dbDirectoryFlag.Name), nil)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := db.Close(); err == nil {
			err = closeErr
		}
	}()

	s := store.NewUniqueStore(store.Config{Logger: logger})
	start := time.Now()
	if err := snapshot.Load(db, s); err != nil {
		return err
	}
	logger.Info("loaded", "duration", time.Since(start))

	printStats(s)
	return nil
}
