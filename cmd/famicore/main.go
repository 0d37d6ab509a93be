package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/snagata/famicore/pkg/gui"
	"github.com/snagata/famicore/pkg/input"
	"github.com/snagata/famicore/pkg/logger"
	"github.com/snagata/famicore/pkg/nes"
	"github.com/snagata/famicore/pkg/region"
)

func main() {
	var (
		logLevel  = flag.String("log-level", "info", "log level (off, error, warn, info, debug, trace)")
		logFile   = flag.String("log-file", "", "log file path (empty for stdout)")
		cpuLog    = flag.Bool("cpu-log", false, "enable CPU logging")
		ppuLog    = flag.Bool("ppu-log", false, "enable PPU logging")
		apuLog    = flag.Bool("apu-log", false, "enable APU logging")
		mapperLog = flag.Bool("mapper-log", false, "enable mapper logging")
		pal       = flag.Bool("pal", false, "force PAL timing")
		tcpAddr   = flag.String("tcp", "", "listen address for the TCP controller (empty to disable)")
	)

	flag.Usage = func() {
		fmt.Printf("Usage: %s [options] <rom_file>\n\n", os.Args[0])
		fmt.Println("Options:")
		flag.PrintDefaults()
		fmt.Println("\nControls:")
		fmt.Println("  Z - A button")
		fmt.Println("  X - B button")
		fmt.Println("  A - Select")
		fmt.Println("  S - Start")
		fmt.Println("  Arrow keys - D-pad")
		fmt.Println("  ESC - Quit")
	}
	flag.Parse()

	if flag.NArg() < 1 {
		flag.Usage()
		os.Exit(1)
	}

	if err := logger.Initialize(logger.LevelFromString(*logLevel), *logFile); err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer logger.Close()
	logger.SetSubsystem(logger.SubCPU, *cpuLog)
	logger.SetSubsystem(logger.SubPPU, *ppuLog)
	logger.SetSubsystem(logger.SubAPU, *apuLog)
	logger.SetSubsystem(logger.SubMapper, *mapperLog)

	r := region.NTSC
	if *pal {
		r = region.PAL
	}

	system := nes.New(r)
	if status := system.LoadROM(flag.Arg(0)); status != nes.StatusNone {
		log.Fatalf("failed to load ROM: %s", status)
	}

	if *tcpAddr != "" {
		driver, err := input.NewTCPDriver(*tcpAddr)
		if err != nil {
			log.Fatalf("TCP controller: %v", err)
		}
		defer driver.Close()
		system.AddInputDriver(driver.Poll)
	}

	host, err := gui.New(system)
	if err != nil {
		log.Fatalf("failed to initialize SDL: %v", err)
	}
	defer host.Destroy()

	system.Start()
	host.Run()
}
