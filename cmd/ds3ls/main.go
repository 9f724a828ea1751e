// Command ds3ls resolves an absolute path from the root directory and
// lists it: directory entries sorted by name for a directory, or the
// single matching entry for a regular file.
package main

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/gunrockfs/ufs/cmd/internal/diskimage"
	"github.com/gunrockfs/ufs/engine"
	"github.com/gunrockfs/ufs/layout"
)

func main() {
	app := &cli.App{
		Name:      "ds3ls",
		Usage:     "list a directory or regular file by absolute path",
		ArgsUsage: "diskImageFile directory",
		Action:    run,
	}
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx *cli.Context) error {
	if ctx.NArg() != 2 {
		return fmt.Errorf("usage: %s diskImageFile directory", ctx.App.Name)
	}

	path := ctx.Args().Get(1)
	if path == "" || path[0] != '/' {
		return fmt.Errorf("directory not found")
	}

	dev, file, err := diskimage.Open(ctx.Args().Get(0))
	if err != nil {
		return err
	}
	defer file.Close()

	e := engine.New(dev)
	return listPath(e, path)
}

func listPath(e *engine.Engine, path string) error {
	inodeNumber := engine.RootInodeNumber
	parentInodeNumber := inodeNumber

	if path != "/" {
		for _, segment := range strings.Split(strings.TrimPrefix(path, "/"), "/") {
			next, err := e.Lookup(inodeNumber, segment)
			if err != nil {
				return fmt.Errorf("directory not found")
			}
			parentInodeNumber = inodeNumber
			inodeNumber = next
		}
	}

	inode, err := e.Stat(inodeNumber)
	if err != nil {
		return fmt.Errorf("directory not found")
	}

	if inode.Type == layout.RegularFile {
		parent, err := e.Stat(parentInodeNumber)
		if err != nil {
			return fmt.Errorf("directory not found")
		}
		buffer := make([]byte, parent.Size)
		n, err := e.Read(parentInodeNumber, buffer, int(parent.Size))
		if err != nil || uint32(n) != parent.Size {
			return fmt.Errorf("directory not found")
		}
		for _, entry := range layout.DecodeDirEnts(buffer) {
			if int(entry.Inum) == inodeNumber {
				fmt.Printf("%d\t%s\n", inodeNumber, entry.NameString())
				return nil
			}
		}
		return fmt.Errorf("directory not found")
	}

	buffer := make([]byte, inode.Size)
	n, err := e.Read(inodeNumber, buffer, int(inode.Size))
	if err != nil || uint32(n) != inode.Size {
		return fmt.Errorf("directory not found")
	}

	entries := layout.DecodeDirEnts(buffer)
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].NameString() < entries[j].NameString()
	})
	for _, entry := range entries {
		fmt.Printf("%d\t%s\n", entry.Inum, entry.NameString())
	}
	return nil
}
