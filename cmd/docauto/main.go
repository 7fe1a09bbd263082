package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/kirillkom/docauto/internal/bootstrap"
	"github.com/kirillkom/docauto/internal/config"
	"github.com/kirillkom/docauto/internal/core/domain"
	"github.com/kirillkom/docauto/internal/observability/logging"
)

const (
	exitOK           = 0
	exitFailure      = 1
	exitUsage        = 2
	exitNoCandidates = 3
)

type command func(ctx context.Context, app *bootstrap.App, args []string, stdout io.Writer) int

var commands = map[string]command{
	"assemble":  runAssemble,
	"merge-pdf": runMergePDF,
	"excel":     runExcel,
	"exif":      runExif,
	"zip":       runZip,
	"unzip":     runUnzip,
	"video":     runVideo,
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		usage(stderr)
		return exitUsage
	}
	cmd, ok := commands[args[0]]
	if !ok {
		fmt.Fprintf(stderr, "unknown command %q\n", args[0])
		usage(stderr)
		return exitUsage
	}

	cfg := config.Load()
	slog.SetDefault(logging.NewJSONLogger(stderr, "docauto", cfg.LogLevel))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(cfg, stderr)
	if err != nil {
		slog.Error("bootstrap_failed", "error", err)
		return exitFailure
	}
	defer app.Close()

	return cmd(ctx, app, args[1:], stdout)
}

func usage(w io.Writer) {
	fmt.Fprintln(w, "usage: docauto <assemble|merge-pdf|excel|exif|zip|unzip|video> [flags]")
}

// exitCode logs err and maps its kind onto the process exit status.
func exitCode(command string, err error) int {
	if err == nil {
		return exitOK
	}
	slog.Error("command_failed", "command", command, "error", err)
	if domain.IsKind(err, domain.ErrInvalidArgument) {
		return exitUsage
	}
	return exitFailure
}
