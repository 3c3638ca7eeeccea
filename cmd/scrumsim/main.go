package main

import (
	"context"
	"errors"
	"io/fs"
	"os"

	"github.com/joho/godotenv"

	"github.com/randalmurphal/scrumsim/config"
	"github.com/randalmurphal/scrumsim/internal/cli"
	"github.com/randalmurphal/scrumsim/internal/output"
)

func main() {
	if err := run(); err != nil {
		formatter := output.NewFormatter(os.Stderr)
		formatter.Error(err.Error())
		os.Exit(1)
	}
}

func run() error {
	// A .env file in the working directory may hold SCRUMSIM_* variables.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}

	deps := &cli.Dependencies{
		Out:         os.Stdout,
		Err:         os.Stderr,
		Resolver:    config.NewAppResolver(os.Stderr),
		SaveConfig:  config.AppSaveConfig(),
		Interactive: isTerminal(os.Stdout) && isTerminal(os.Stdin),
	}

	return cli.NewRootCmd(deps).ExecuteContext(context.Background())
}

func isTerminal(f *os.File) bool {
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeCharDevice != 0
}
