// Command ds3cp reads a host file into memory and writes its entire
// content to an existing inode inside one transaction.
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
		Name:      "ds3cp",
		Usage:     "copy a host file's content into an existing inode",
		ArgsUsage: "diskImageFile srcFile dstInode",
		Action:    run,
	}
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx *cli.Context) error {
	if ctx.NArg() != 3 {
		return fmt.Errorf("usage: %s diskImageFile srcFile dstInode", ctx.App.Name)
	}

	dstInode, err := strconv.Atoi(ctx.Args().Get(2))
	if err != nil {
		return fmt.Errorf("invalid inode number: %w", err)
	}

	content, err := os.ReadFile(ctx.Args().Get(1))
	if err != nil {
		return fmt.Errorf("failed to open file")
	}

	dev, file, err := diskimage.Open(ctx.Args().Get(0))
	if err != nil {
		return err
	}
	defer file.Close()

	e := engine.New(dev)

	if err := dev.BeginTransaction(); err != nil {
		return err
	}
	if _, err := e.Write(dstInode, content, len(content)); err != nil {
		dev.Rollback()
		return fmt.Errorf("could not write to dst_file")
	}
	return dev.Commit()
}
