package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	goNotes "github.com/MrEthical07/goNotes"
	"github.com/common-nighthawk/go-figure"
)

// Run is the entrypoint used by cmd/notesd. It returns an error instead of
// exiting so deferred cleanup runs.
func Run() error {
	settings, err := LoadSettings(os.LookupEnv)
	if err != nil {
		return err
	}
	cfg, err := goNotes.ConfigFromEnv()
	if err != nil {
		return err
	}
	log := NewLogger(os.Stderr, settings.LogLevel, settings.LogFormat)
	if settings.LogFormat == "console" {
		Banner(os.Stdout)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	a, err := New(ctx, settings, cfg, log)
	if err != nil {
		return err
	}
	defer a.Close()

	return a.Run(ctx)
}

// Banner prints the startup banner.
func Banner(w io.Writer) {
	fig := figure.NewFigure("goNotes", "cybermedium", true)
	fmt.Fprintln(w, fig.String())
}
