// Command ds3bits dumps a disk image's superblock fields and raw
// allocation bitmap bytes.
package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/gunrockfs/ufs/bitmap"
	"github.com/gunrockfs/ufs/cmd/internal/diskimage"
	"github.com/gunrockfs/ufs/layout"
)

func main() {
	app := &cli.App{
		Name:      "ds3bits",
		Usage:     "dump superblock fields and allocation bitmaps",
		ArgsUsage: "diskImageFile",
		Action:    run,
	}
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx *cli.Context) error {
	if ctx.NArg() != 1 {
		return fmt.Errorf("usage: %s diskImageFile", ctx.App.Name)
	}

	dev, file, err := diskimage.Open(ctx.Args().Get(0))
	if err != nil {
		return err
	}
	defer file.Close()

	super, err := layout.ReadSuperblock(dev)
	if err != nil {
		return fmt.Errorf("reading superblock: %w", err)
	}

	inodeBitmap, err := layout.ReadBitmapRegion(dev, super.InodeBitmapAddr, super.InodeBitmapLen)
	if err != nil {
		return fmt.Errorf("reading inode bitmap: %w", err)
	}
	dataBitmap, err := layout.ReadBitmapRegion(dev, super.DataBitmapAddr, super.DataBitmapLen)
	if err != nil {
		return fmt.Errorf("reading data bitmap: %w", err)
	}

	fmt.Println("Super")
	fmt.Println("inode_region_addr", super.InodeRegionAddr)
	fmt.Println("inode_region_len", super.InodeRegionLen)
	fmt.Println("num_inodes", super.NumInodes)
	fmt.Println("data_region_addr", super.DataRegionAddr)
	fmt.Println("data_region_len", super.DataRegionLen)
	fmt.Println("num_data", super.NumData)
	fmt.Println()

	numInodeBytes := (super.NumInodes + 7) / 8
	fmt.Println("Inode bitmap")
	for i := uint32(0); i < numInodeBytes; i++ {
		fmt.Printf("%d ", inodeBitmap[i])
	}
	fmt.Println()
	fmt.Println()

	numDataBytes := (super.NumData + 7) / 8
	fmt.Println("Data bitmap")
	for i := uint32(0); i < numDataBytes; i++ {
		fmt.Printf("%d ", dataBitmap[i])
	}
	fmt.Println()
	fmt.Println()

	inodeAlloc := bitmap.Wrap(inodeBitmap, int(super.NumInodes))
	dataAlloc := bitmap.Wrap(dataBitmap, int(super.NumData))
	fmt.Printf("inodes used %d/%d\n", countSet(inodeAlloc), inodeAlloc.Capacity())
	fmt.Printf("data blocks used %d/%d\n", countSet(dataAlloc), dataAlloc.Capacity())

	return nil
}

func countSet(a *bitmap.Allocator) int {
	used := 0
	for i := 0; i < a.Capacity(); i++ {
		if a.IsSet(i) {
			used++
		}
	}
	return used
}
