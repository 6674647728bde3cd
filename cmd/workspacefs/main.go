package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/auditforge/workspacefs/internal/logger"
	"github.com/auditforge/workspacefs/pkg/config"
	"github.com/auditforge/workspacefs/pkg/gc"
)

const usage = `workspacefs - persistent virtual filesystem for code workspaces

Usage:
  workspacefs [global flags] <command> [arguments]

Commands:
  init [-force] [-path file]        Write a default configuration file
  tree [path]                       Print the directory tree
  ls [path]                         List a directory
  cat <path>                        Print a file
  write <path> <text|->             Write a file, "-" reads stdin
  mkdir <path>                      Create a directory and its parents
  rm <path>                         Delete a file or directory
  mv <path> <new-name>              Rename in place
  workspace list                    List workspaces
  workspace create <name>           Create a workspace
  workspace select <name>           Select a workspace
  import [-overwrite] [-open] <dest> <local-dir>
                                    Copy a local directory into the tree
  gc [-dry-run]                     Delete content no file refers to
  serve-metrics                     Serve Prometheus metrics until interrupted,
                                    collecting orphans when gc.enabled is set

Relative paths resolve against the current directory of the workspace.

Global flags:
`

// errUsage marks errors caused by bad invocation.
var errUsage = errors.New("usage")

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		if errors.Is(err, errUsage) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}

// run parses global flags and dispatches to the command.
func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	global := flag.NewFlagSet("workspacefs", flag.ContinueOnError)
	global.SetOutput(stderr)
	configPath := global.String("config", "", "Path to config file (default: $XDG_CONFIG_HOME/workspacefs/config.yaml)")
	logLevel := global.String("log-level", "", "Override log level (DEBUG, INFO, WARN, ERROR)")
	colorMode := global.String("color", "auto", "Color output: auto, always or never")
	global.Usage = func() {
		fmt.Fprint(stderr, usage)
		global.PrintDefaults()
	}

	if err := global.Parse(args); err != nil {
		return fmt.Errorf("%w: %v", errUsage, err)
	}

	rest := global.Args()
	if len(rest) == 0 {
		global.Usage()
		return fmt.Errorf("%w: no command given", errUsage)
	}
	name, cmdArgs := rest[0], rest[1:]

	if name == "init" {
		return runInit(cmdArgs, *configPath, stdout, stderr)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	if *logLevel != "" {
		cfg.Logging.Level = strings.ToUpper(*logLevel)
	}
	if err := setupLogger(cfg.Logging); err != nil {
		return err
	}

	met := config.InitializeMetrics(cfg)

	if name == "serve-metrics" {
		return runServeMetrics(ctx, cfg, met)
	}

	cmd, ok := commands[name]
	if !ok {
		global.Usage()
		return fmt.Errorf("%w: unknown command %q", errUsage, name)
	}

	style, err := newStyles(*colorMode, stdout)
	if err != nil {
		return err
	}

	ws, err := openWorkspace(ctx, cfg, met)
	if err != nil {
		return err
	}
	ws.style = style

	cmdErr := cmd(ctx, ws, cmdArgs, stdin, stdout)
	closeErr := ws.Close(context.Background())
	return errors.Join(cmdErr, closeErr)
}

// setupLogger applies the logging section of the configuration.
func setupLogger(cfg config.LoggingConfig) error {
	logger.SetLevel(cfg.Level)
	logger.SetFormat(cfg.Format)
	if err := logger.SetOutput(cfg.Output); err != nil {
		return fmt.Errorf("log output: %w", err)
	}
	return nil
}

func runInit(args []string, configPath string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("init", flag.ContinueOnError)
	fs.SetOutput(stderr)
	force := fs.Bool("force", false, "Overwrite an existing config file")
	path := fs.String("path", configPath, "Where to write the config file")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %v", errUsage, err)
	}

	if *path == "" {
		written, err := config.InitConfig(*force)
		if err != nil {
			return err
		}
		fmt.Fprintf(stdout, "Configuration written to %s\n", written)
		return nil
	}

	if err := config.InitConfigToPath(*path, *force); err != nil {
		return err
	}
	fmt.Fprintf(stdout, "Configuration written to %s\n", *path)
	return nil
}

func runServeMetrics(ctx context.Context, cfg *config.Config, met *config.MetricsResult) error {
	if !met.Enabled() {
		return fmt.Errorf("metrics are disabled (set metrics.enabled: true)")
	}

	// Loading the workspace registers gauges with real values.
	ws, err := openWorkspace(ctx, cfg, met)
	if err != nil {
		return err
	}

	var collector *gc.Collector
	if cfg.GC.Enabled {
		collector = gc.NewCollector(ws.fs, ws.stores.Content, gc.Config{
			Interval: cfg.GC.Interval,
			DryRun:   cfg.GC.DryRun,
		})
		collector.Start()
	}

	serveErr := met.NewServer(ws.ready).Start(ctx)

	var stopErr error
	if collector != nil {
		stopCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		stopErr = collector.Stop(stopCtx)
		cancel()
	}
	closeErr := ws.Close(context.Background())
	return errors.Join(serveErr, stopErr, closeErr)
}
