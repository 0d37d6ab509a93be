package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/snagata/famicore/pkg/cartridge"
)

func main() {
	flag.Usage = func() {
		fmt.Printf("Usage: %s <rom_file>...\n", os.Args[0])
		fmt.Println("Print header information for each ROM.")
	}
	flag.Parse()

	if flag.NArg() < 1 {
		flag.Usage()
		os.Exit(1)
	}

	exit := 0
	for _, path := range flag.Args() {
		cart, status := cartridge.LoadFile(path)
		if status != cartridge.LoadOK {
			fmt.Printf("%s: %s\n", path, status)
			exit = 1
			continue
		}
		h := &cart.Header
		fmt.Printf("%s:\n", path)
		fmt.Printf("  format:     %s\n", cart.Format)
		fmt.Printf("  mapper:     %d\n", h.MapperNumber(cart.Format))
		fmt.Printf("  PRG ROM:    %d KiB\n", h.PRGSize(cart.Format)/1024)
		if size := h.CHRSize(cart.Format); size > 0 {
			fmt.Printf("  CHR ROM:    %d KiB\n", size/1024)
		} else {
			fmt.Printf("  CHR:        RAM\n")
		}
		mirroring := "horizontal"
		if h.FourScreen() {
			mirroring = "four-screen"
		} else if h.MirrorVertical() {
			mirroring = "vertical"
		}
		fmt.Printf("  mirroring:  %s\n", mirroring)
		fmt.Printf("  battery:    %v\n", h.PersistentRAM())
		fmt.Printf("  trainer:    %v\n", h.HasTrainer())
		fmt.Printf("  TV system:  %s\n", cart.Region())
	}
	os.Exit(exit)
}
