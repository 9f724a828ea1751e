// Command ds3rm removes a directory entry, inside one transaction.
package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/urfave/cli/v2"

	"github.com/gunrockfs/ufs/cmd/internal/diskimage"
	"github.com/gunrockfs/ufs/engine"
)

func main() {
	app := &cli.App{
		Name:      "ds3rm",
		Usage:     "remove a directory entry",
		ArgsUsage: "diskImageFile parentInode entryName",
		Action:    run,
	}
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx *cli.Context) error {
	if ctx.NArg() != 3 {
		return fmt.Errorf("usage: %s diskImageFile parentInode entryName", ctx.App.Name)
	}

	parentInode, err := strconv.Atoi(ctx.Args().Get(1))
	if err != nil {
		return fmt.Errorf("invalid parent inode number: %w", err)
	}
	name := ctx.Args().Get(2)

	dev, file, err := diskimage.Open(ctx.Args().Get(0))
	if err != nil {
		return err
	}
	defer file.Close()

	e := engine.New(dev)

	if err := dev.BeginTransaction(); err != nil {
		return err
	}
	if _, err := e.Unlink(parentInode, name); err != nil {
		dev.Rollback()
		return fmt.Errorf("error removing entry")
	}
	return dev.Commit()
}
