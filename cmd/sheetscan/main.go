package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/urfave/cli/v3"
)

var (
	// Build information. Populated at build-time via -ldflags flag.
	version = "dev"
	commit  = "HEAD"
)

func main() {
	ctrl := &controller{out: os.Stdout, errOut: os.Stderr}

	app := &cli.Command{
		Name:    "sheetscan",
		Usage:   "Read Google Sheets spreadsheets as typed rows",
		Version: fmt.Sprintf("%s (%s)", version, commit),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "base-url",
				Usage:   "spreadsheet export base URL",
				Sources: cli.EnvVars("SHEETS_BASE_URL"),
				Value:   "https://docs.google.com/spreadsheets/d",
			},
			&cli.DurationFlag{
				Name:    "timeout",
				Usage:   "timeout for one export request",
				Sources: cli.EnvVars("SHEETS_HTTP_TIMEOUT"),
				Value:   30 * time.Second,
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "log level (debug, info, warn, error)",
				Sources: cli.EnvVars("LOG_LEVEL"),
				Value:   "warn",
			},
			&cli.StringFlag{
				Name:    "log-format",
				Usage:   "log format (text, json)",
				Sources: cli.EnvVars("LOG_FORMAT"),
				Value:   "text",
			},
		},
		Before: func(ctx context.Context, c *cli.Command) (context.Context, error) {
			return ctx, ctrl.setup(c.String("base-url"), c.Duration("timeout"), c.String("log-level"), c.String("log-format"))
		},
		Commands: []*cli.Command{
			{
				Name:  "scan",
				Usage: "Print every row of a sheet",
				Flags: append([]cli.Flag{
					&cli.StringSliceFlag{
						Name:  "column",
						Usage: "target column as ordinal:name:type, e.g. 1:id:bigint (repeatable)",
					},
					&cli.StringFlag{
						Name:  "format",
						Usage: "output format (json, csv)",
						Value: "json",
					},
				}, sheetFlags()...),
				Action: func(ctx context.Context, c *cli.Command) error {
					req, err := ctrl.request(c.String("tables-file"), c.String("table"), c.String("spread-sheet-id"), c.String("sheet-id"), c.StringSlice("column"))
					if err != nil {
						return err
					}
					return ctrl.scan(ctx, req, c.String("format"))
				},
			},
			{
				Name:  "describe",
				Usage: "Print the column metadata of a sheet",
				Flags: sheetFlags(),
				Action: func(ctx context.Context, c *cli.Command) error {
					req, err := ctrl.request(c.String("tables-file"), c.String("table"), c.String("spread-sheet-id"), c.String("sheet-id"), nil)
					if err != nil {
						return err
					}
					return ctrl.describe(ctx, req)
				},
			},
			{
				Name:  "tables",
				Usage: "Validate a table catalog and list its tables",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "tables-file",
						Usage:    "YAML table catalog",
						Sources:  cli.EnvVars("TABLES_FILE"),
						Required: true,
					},
				},
				Action: func(ctx context.Context, c *cli.Command) error {
					return ctrl.tables(c.String("tables-file"))
				},
			},
			{
				Name:  "load",
				Usage: "Replace a catalog table's target table with the sheet's rows",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "tables-file",
						Usage:    "YAML table catalog",
						Sources:  cli.EnvVars("TABLES_FILE"),
						Required: true,
					},
					&cli.StringFlag{
						Name:     "table",
						Usage:    "catalog table key",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "database-url",
						Usage:    "PostgreSQL connection string",
						Sources:  cli.EnvVars("DATABASE_URL", "DB_URL"),
						Required: true,
					},
				},
				Action: func(ctx context.Context, c *cli.Command) error {
					return ctrl.load(ctx, c.String("tables-file"), c.String("table"), c.String("database-url"))
				},
			},
		},
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "sheetscan:", err)
		os.Exit(1)
	}
}

// sheetFlags selects a sheet either directly or through a catalog table.
func sheetFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:  "spread-sheet-id",
			Usage: "spreadsheet id from the sheet URL",
		},
		&cli.StringFlag{
			Name:  "sheet-id",
			Usage: "sheet gid; empty reads the first sheet",
		},
		&cli.StringFlag{
			Name:    "tables-file",
			Usage:   "YAML table catalog",
			Sources: cli.EnvVars("TABLES_FILE"),
		},
		&cli.StringFlag{
			Name:  "table",
			Usage: "catalog table key, instead of --spread-sheet-id and --column",
		},
	}
}
