// Command ds3cat prints an inode's direct block list followed by its
// file contents; it refuses to operate on a directory.
package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/urfave/cli/v2"

	"github.com/gunrockfs/ufs/cmd/internal/diskimage"
	"github.com/gunrockfs/ufs/engine"
	"github.com/gunrockfs/ufs/layout"
)

func main() {
	app := &cli.App{
		Name:      "ds3cat",
		Usage:     "print an inode's block list and file contents",
		ArgsUsage: "diskImageFile inodeNumber",
		Action:    run,
	}
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx *cli.Context) error {
	if ctx.NArg() != 2 {
		return fmt.Errorf("usage: %s diskImageFile inodeNumber", ctx.App.Name)
	}

	inodeNumber, err := strconv.Atoi(ctx.Args().Get(1))
	if err != nil {
		return fmt.Errorf("invalid inode number: %w", err)
	}

	dev, file, err := diskimage.Open(ctx.Args().Get(0))
	if err != nil {
		return err
	}
	defer file.Close()

	e := engine.New(dev)
	inode, err := e.Stat(inodeNumber)
	if err != nil || inode.Type == layout.Directory {
		return fmt.Errorf("error reading file")
	}

	blockSize := dev.BlockSize()
	numBlocks := inode.Size / blockSize
	if inode.Size%blockSize != 0 {
		numBlocks++
	}

	fmt.Println("File blocks")
	for i := uint32(0); i < numBlocks; i++ {
		fmt.Println(inode.Direct[i])
	}
	fmt.Println()

	content := make([]byte, inode.Size)
	n, err := e.Read(inodeNumber, content, int(inode.Size))
	if err != nil || uint32(n) != inode.Size {
		return fmt.Errorf("error reading file")
	}

	fmt.Println("File data")
	os.Stdout.Write(content)

	return nil
}
