package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/samvad-hq/agnews-dataset-prep/internal/app"
	"github.com/samvad-hq/agnews-dataset-prep/internal/config"
	"github.com/samvad-hq/agnews-dataset-prep/internal/logger"
)

const (
	exitFailure = 1
	exitUsage   = 2
)

var errUsage = errors.New("usage: prepare [limit]")

func main() {
	limit, err := parseLimit(os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(exitUsage)
	}
	if err := run(limit); err != nil {
		fmt.Fprintf(os.Stderr, "prepare failed: %v\n", err)
		os.Exit(exitFailure)
	}
}

// parseLimit reads the optional row limit. No argument means no limit.
func parseLimit(args []string) (int, error) {
	switch len(args) {
	case 0:
		return 0, nil
	case 1:
		n, err := strconv.Atoi(args[0])
		if err != nil {
			return 0, fmt.Errorf("%w: limit must be an integer, got %q", errUsage, args[0])
		}
		return n, nil
	default:
		return 0, fmt.Errorf("%w: too many arguments", errUsage)
	}
}

func run(limit int) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, err := logger.Init(cfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Close()

	logger.InfoObj("prepare starting", "config", cfg)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	preparer, err := app.NewPreparer(ctx, cfg, log)
	if err != nil {
		logger.ErrorObj("failed to initialize preparer", "error", err.Error())
		return err
	}

	if err := preparer.Run(ctx, limit); err != nil {
		logger.ErrorObj("preparation failed", "error", err.Error())
		return err
	}
	return nil
}
