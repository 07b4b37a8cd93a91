package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"

	"github.com/rescp17/liteshell/internal/environment"
	"github.com/rescp17/liteshell/pkg/devshell"
	"github.com/rescp17/liteshell/pkg/dispatch"
	"github.com/rescp17/liteshell/pkg/shell"
	"github.com/rescp17/liteshell/pkg/surface"
	"github.com/rescp17/liteshell/pkg/surface/scriptsurface"
	"github.com/rescp17/liteshell/pkg/surface/socketsurface"
)

type options struct {
	workDir    string
	debugEntry string
	devtools   bool
	host       string
	port       int
	surface    string
	tui        bool
	logLevel   string
	logFile    string
}

func main() {
	var opts options
	cmd := &cobra.Command{
		Use:   "liteshell",
		Short: "Serve a local web UI and bridge it to host events",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("host") {
				opts.host = ""
			}
			if !cmd.Flags().Changed("port") {
				opts.port = -1
			}
			return run(cmd.Context(), opts)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.workDir, "work-dir", "", "Project directory (default: directory of the executable)")
	flags.StringVar(&opts.debugEntry, "debug-entry", "", "URL loaded by the window instead of the bridge")
	flags.BoolVar(&opts.devtools, "devtools", false, "Enable devtools in the window")
	flags.StringVar(&opts.host, "host", "127.0.0.1", "Address the bridge listens on")
	flags.IntVar(&opts.port, "port", 0, "Port the bridge listens on (0 picks a free port)")
	flags.StringVar(&opts.surface, "surface", "socket", "UI surface: socket (browser page) or script (headless)")
	flags.BoolVar(&opts.tui, "tui", false, "Drive window events from the terminal")
	flags.StringVar(&opts.logLevel, "log-level", "info", "Log level: debug, info, warn or error")
	flags.StringVar(&opts.logFile, "log-file", "", "Write logs to this file")

	if err := fang.Execute(context.Background(), cmd); err != nil {
		os.Exit(1)
	}
}

func run(ctx context.Context, opts options) error {
	env, err := environment.Init(environment.Options{
		WorkDir:    opts.workDir,
		DebugEntry: opts.debugEntry,
		Devtools:   opts.devtools,
	})
	if err != nil {
		return err
	}

	logger, closeLog, err := newLogger(env, opts)
	if err != nil {
		return err
	}
	defer closeLog()
	slog.SetDefault(logger)

	ui, closeUI, err := newSurface(opts.surface, logger)
	if err != nil {
		return err
	}
	defer closeUI()

	app := shell.New(env, ui, shell.WithLogger(logger))
	defer app.Close()

	host, port := env.Project.Server.Host, env.Project.Server.Port
	if opts.host != "" {
		host = opts.host
	}
	if opts.port >= 0 {
		port = opts.port
	}
	l, err := net.Listen("tcp", net.JoinHostPort(host, strconv.Itoa(port)))
	if err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}
	served := app.Start(l)
	go func() {
		if err := <-served; err != nil {
			logger.Error("Bridge server stopped", "error", err)
		}
	}()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go forwardSignals(ctx, cancel, app, logger)

	logger.Info("Bridge ready", "url", app.URL(), "workDir", env.WorkDir, "surface", opts.surface)

	if !opts.tui {
		fmt.Println(app.URL())
		return app.Run(ctx)
	}
	return runTerminal(ctx, env, app, ui)
}

// runTerminal drives the loop while the terminal stands in for the window.
func runTerminal(ctx context.Context, env *environment.Environment, app *shell.App, ui surface.Surface) error {
	model := devshell.New(app.Queue(),
		devshell.WithTitle(env.Project.Window.Title),
		devshell.WithURL(app.URL()),
		devshell.WithMenuIDs(env.Project.TopLevelMenuIDs()),
		devshell.WithTheme(dispatch.ParseTheme(env.Project.Window.Theme)),
	)
	p := devshell.NewProgram(ctx, model)
	if s, ok := ui.(*scriptsurface.Surface); ok {
		s.Observe(devshell.Forward(p))
	}

	tuiDone := make(chan error, 1)
	go func() {
		_, err := p.Run()
		tuiDone <- err
	}()

	err := app.Run(ctx)
	p.Quit()
	if tuiErr := <-tuiDone; tuiErr != nil && !errors.Is(tuiErr, context.Canceled) && !errors.Is(tuiErr, io.EOF) {
		slog.Warn("Terminal UI stopped with error", "error", tuiErr)
	}
	return err
}

// forwardSignals turns the first interrupt into a close request and the
// second into cancellation.
func forwardSignals(ctx context.Context, cancel context.CancelFunc, app *shell.App, logger *slog.Logger) {
	sigs := make(chan os.Signal, 2)
	signal.Notify(sigs, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigs)

	requested := false
	for {
		select {
		case <-ctx.Done():
			return
		case sig := <-sigs:
			if requested {
				logger.Warn("Second signal, cancelling", "signal", sig.String())
				cancel()
				return
			}
			requested = true
			logger.Info("Signal received, requesting close", "signal", sig.String())
			if err := app.Post(dispatch.CloseRequested{}); err != nil {
				cancel()
				return
			}
		}
	}
}

func newSurface(kind string, logger *slog.Logger) (surface.Surface, func(), error) {
	switch kind {
	case "script":
		s, err := scriptsurface.New(scriptsurface.WithLogger(logger.With("component", "surface")))
		if err != nil {
			return nil, nil, err
		}
		return s, func() { s.Close() }, nil
	case "socket":
		s := socketsurface.New(socketsurface.WithLogger(logger.With("component", "surface")))
		return s, func() { s.Close() }, nil
	default:
		return nil, nil, fmt.Errorf("unknown surface %q", kind)
	}
}

// newLogger writes to --log-file, or to a file in the temp dir when the
// terminal UI owns the screen, or to stderr.
func newLogger(env *environment.Environment, opts options) (*slog.Logger, func(), error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToUpper(opts.logLevel))); err != nil {
		return nil, nil, fmt.Errorf("invalid log level %q", opts.logLevel)
	}

	path := opts.logFile
	if path == "" && opts.tui {
		path = filepath.Join(env.TempDir, "liteshell.log")
	}
	if path == "" {
		return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})), func() {}, nil
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open log file: %w", err)
	}
	closeFn := func() {
		if err := f.Close(); err != nil {
			slog.Warn("failed to close log file", "error", err)
		}
	}
	return slog.New(slog.NewTextHandler(f, &slog.HandlerOptions{Level: level})), closeFn, nil
}
