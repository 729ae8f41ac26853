// Command terrain-sim flies a camera over streamed terrain without rendering
// and reports what the patch manager does.
package main

import (
	"flag"
	"fmt"
	"os"

	"terrainstream/internal/config"
	"terrainstream/internal/logger"

	"github.com/xlab/closer"
	"go.uber.org/zap"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML config file")
	debug := flag.Bool("debug", false, "enable debug logging")
	mode := flag.String("mode", "", "override worker.mode (threaded, busy, inline)")
	ticks := flag.Int("ticks", 600, "number of camera updates to simulate")
	preview := flag.String("preview", "", "write the centre patch heightmap to this TIFF file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if *mode != "" {
		cfg.Worker.Mode = *mode
		if err := cfg.Validate(); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(2)
		}
	}
	level := cfg.Logging.Level
	if *debug {
		level = "debug"
	}
	if err := logger.Init(level, cfg.Logging.LogFile); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	sim, err := newSim(cfg, logger.Named("sim"))
	if err != nil {
		logger.Log.Error("failed to start", zap.Error(err))
		logger.Sync()
		os.Exit(1)
	}
	// Runs on Ctrl-C as well as on the final closer.Close.
	closer.Bind(func() {
		sim.Close()
		logger.Sync()
	})

	sim.Run(*ticks)

	if *preview != "" {
		if err := sim.WritePreview(*preview); err != nil {
			logger.Log.Error("preview failed", zap.String("path", *preview), zap.Error(err))
		} else {
			logger.Log.Info("preview written", zap.String("path", *preview))
		}
	}
	if err := sim.world.Dump(os.Stdout); err != nil {
		logger.Log.Warn("dump failed", zap.Error(err))
	}
	closer.Close()
}
