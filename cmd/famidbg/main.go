package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/snagata/famicore/pkg/logger"
	"github.com/snagata/famicore/pkg/nes"
	"github.com/snagata/famicore/pkg/region"
)

func main() {
	flag.Usage = func() {
		fmt.Printf("Usage: %s <rom_file>\n", os.Args[0])
		fmt.Println("Interactive CPU stepper: space/j step, f step 10k, q quit.")
	}
	flag.Parse()

	if flag.NArg() < 1 {
		flag.Usage()
		os.Exit(1)
	}

	// keep the TUI clean
	if err := logger.Initialize(logger.LevelOff, ""); err != nil {
		log.Fatal(err)
	}

	system := nes.New(region.NTSC)
	if status := system.LoadROM(flag.Arg(0)); status != nes.StatusNone {
		log.Fatalf("failed to load ROM: %s", status)
	}

	if err := system.CPU.Debug(); err != nil {
		log.Fatal(err)
	}
}
