package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/dshills/shelf-mcp/internal/config"
	"github.com/dshills/shelf-mcp/internal/library"
	"github.com/dshills/shelf-mcp/internal/logging"
	"github.com/dshills/shelf-mcp/internal/mcp"
	"github.com/dshills/shelf-mcp/internal/storage"
)

var (
	version   = "dev"
	buildTime = "unknown"
)

func main() {
	app := &cli.App{
		Name:    "shelf",
		Usage:   "reading library exposed as an MCP server",
		Version: version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "path to a YAML config file",
				EnvVars: []string{config.EnvConfig},
			},
		},
		Action: serve,
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "run the MCP server on stdio",
				Action: serve,
			},
			{
				Name:  "books",
				Usage: "print the catalog as JSON",
				Action: func(c *cli.Context) error {
					return withLibrary(c, func(lib *library.Library, _ *slog.Logger) error {
						books, err := lib.ListBooks(c.Context)
						if err != nil {
							return err
						}
						return printJSON(c.App.Writer, books)
					})
				},
			},
			{
				Name:  "stats",
				Usage: "print row and file counts",
				Action: func(c *cli.Context) error {
					return withLibrary(c, func(lib *library.Library, _ *slog.Logger) error {
						stats, err := lib.Stats(c.Context)
						if err != nil {
							return err
						}
						return printJSON(c.App.Writer, stats)
					})
				},
			},
			{
				Name:  "wipe",
				Usage: "delete every book, highlight and bookmark",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "yes", Usage: "confirm the wipe"},
				},
				Action: func(c *cli.Context) error {
					if !c.Bool("yes") {
						return cli.Exit("refusing to wipe without --yes", 2)
					}
					return withLibrary(c, func(lib *library.Library, _ *slog.Logger) error {
						result, err := lib.WipeAll(c.Context)
						if perr := printJSON(c.App.Writer, result); perr != nil {
							return perr
						}
						return err
					})
				},
			},
			{
				Name:  "version",
				Usage: "print build information",
				Action: func(c *cli.Context) error {
					w := c.App.Writer
					fmt.Fprintf(w, "Shelf MCP Server\n")
					fmt.Fprintf(w, "Version: %s\n", version)
					fmt.Fprintf(w, "Protocol Server: %s %s\n", mcp.ServerName, mcp.ServerVersion)
					fmt.Fprintf(w, "Build Time: %s\n", buildTime)
					fmt.Fprintf(w, "Build Mode: %s\n", storage.BuildMode)
					fmt.Fprintf(w, "SQLite Driver: %s\n", storage.DriverName)
					return nil
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "shelf: %v\n", err)
		os.Exit(1)
	}
}

// serve runs the MCP server until stdin closes or a signal arrives
func serve(c *cli.Context) error {
	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	return withLibrary(c, func(lib *library.Library, logger *slog.Logger) error {
		logger.Info("shelf MCP server starting",
			"version", version, "build_mode", storage.BuildMode, "driver", storage.DriverName)

		server := mcp.NewServer(lib, logger)
		err := server.Serve(ctx, os.Stdin, os.Stdout)
		if err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("server error: %w", err)
		}

		logger.Info("server stopped")
		return nil
	})
}

// withLibrary loads config, sets up logging and opens the library for the
// duration of fn
func withLibrary(c *cli.Context, fn func(*library.Library, *slog.Logger) error) error {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return err
	}

	// stdout is reserved for protocol traffic and command output
	logger, closer := logging.New(logging.Options{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		File:   cfg.Logging.File,
	})
	defer func() { _ = closer.Close() }()

	lib, err := library.Open(cfg.DatabasePath(), cfg.BooksPath(), logger)
	if err != nil {
		logger.Error("failed to open library", "error", err, "database", cfg.DatabasePath())
		return err
	}
	defer func() {
		if err := lib.Close(); err != nil {
			logger.Warn("failed to close library", "error", err)
		}
	}()

	return fn(lib, logger)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
