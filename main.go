package main

import (
	"context"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/nissyi-gh/bucket/internal/cli"
	"github.com/nissyi-gh/bucket/internal/config"
	"github.com/nissyi-gh/bucket/internal/logging"
	"github.com/nissyi-gh/bucket/internal/review"
	"github.com/nissyi-gh/bucket/internal/store"
	"github.com/nissyi-gh/bucket/internal/ui"
)

func main() {
	args, flags, err := cli.ParseArgs(os.Args[1:])
	if err != nil {
		if cli.IsHelp(err) {
			return
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}

	cfg, err := config.Load(args.ConfigPath, flags)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	logger, logFile, err := logging.New(cfg.Log.Level, cfg.Log.File)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening log: %v\n", err)
		os.Exit(1)
	}
	defer logFile.Close()

	s, err := store.Open(cfg.Database.Driver, cfg.StoreTarget())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening database: %v\n", err)
		os.Exit(1)
	}
	defer s.Close()
	logger.Info("store opened", "driver", cfg.Database.Driver)

	mgr := review.New(s, review.WithLogger(logger))

	handled, err := cli.Handle(context.Background(), mgr, args, cfg.Export.Format, os.Stdout)
	if err != nil {
		logger.Error("command failed", "err", err)
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		s.Close()
		os.Exit(1)
	}
	if handled {
		return
	}

	p := tea.NewProgram(ui.NewModel(mgr), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error running program: %v\n", err)
		s.Close()
		os.Exit(1)
	}
}
