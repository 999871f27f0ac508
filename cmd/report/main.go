package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"

	"github.com/andresuchdata/salesdash/internal/app"
	"github.com/andresuchdata/salesdash/internal/config"
	"github.com/andresuchdata/salesdash/internal/domain"
	"github.com/andresuchdata/salesdash/pkg/logger"
)

type contextKey string

const appKey contextKey = "app"

func initApp(c *cli.Context) error {
	logger.UseJSON()
	cfg := config.Load()
	if c.Bool("verbose") {
		logger.SetLevel("debug")
	} else if cfg.LogLevel != "" {
		logger.SetLevel(cfg.LogLevel)
	}

	application, err := app.New(cfg)
	if err != nil {
		return err
	}
	c.Context = context.WithValue(c.Context, appKey, application)
	return nil
}

func closeApp(c *cli.Context) error {
	if application, ok := c.Context.Value(appKey).(*app.App); ok && application != nil {
		application.Close()
	}
	return nil
}

func fromContext(c *cli.Context) *app.App {
	return c.Context.Value(appKey).(*app.App)
}

func newSnapshotDirFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:    "snapshot-dir",
		Usage:   "Local directory holding snapshots (ignored when SNAPSHOT_BUCKET is set)",
		EnvVars: []string{"SNAPSHOT_DIR"},
	}
}

func snapshotConfig(c *cli.Context) config.StorageConfig {
	cfg := config.Load().Storage
	if dir := c.String("snapshot-dir"); dir != "" {
		cfg.SnapshotDir = dir
	}
	return cfg
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func main() {
	if err := godotenv.Load(".env"); err != nil && !os.IsNotExist(err) {
		log.Warn().Err(err).Msg("could not load .env file")
	}

	cliApp := &cli.App{
		Name:  "report",
		Usage: "Build manager dashboard reports from the command line",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    "verbose",
				Usage:   "Enable debug logging",
				EnvVars: []string{"REPORT_VERBOSE"},
			},
		},
		Before: initApp,
		After:  closeApp,
		Commands: []*cli.Command{
			{
				Name:  "build",
				Usage: "Build a report and print it as JSON",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "scope", Value: "Overview", Usage: "Overview or a division name"},
					&cli.StringFlag{Name: "from", Usage: "Inclusive start date (YYYY-MM-DD)"},
					&cli.StringFlag{Name: "to", Usage: "Inclusive end date (YYYY-MM-DD)"},
					&cli.BoolFlag{Name: "debug", Usage: "Include diagnostics in the output"},
					&cli.StringFlag{Name: "snapshot", Usage: "Build from a stored snapshot instead of the live provider"},
					newSnapshotDirFlag(),
				},
				Action: buildReport,
			},
			{
				Name:  "snapshot",
				Usage: "Capture and inspect raw provider snapshots",
				Subcommands: []*cli.Command{
					{
						Name:  "save",
						Usage: "Capture every collection for a window and store it",
						Flags: []cli.Flag{
							&cli.StringFlag{Name: "name", Usage: "Snapshot name (defaults to a timestamp)"},
							&cli.StringFlag{Name: "from", Usage: "Inclusive start date (YYYY-MM-DD)"},
							&cli.StringFlag{Name: "to", Usage: "Inclusive end date (YYYY-MM-DD)"},
							newSnapshotDirFlag(),
						},
						Action: saveSnapshot,
					},
					{
						Name:   "list",
						Usage:  "List stored snapshots",
						Flags:  []cli.Flag{newSnapshotDirFlag()},
						Action: listSnapshots,
					},
				},
			},
			{
				Name:  "divisions",
				Usage: "List the scopes a report accepts",
				Action: func(c *cli.Context) error {
					return printJSON(map[string][]string{"divisions": fromContext(c).ReportService.Divisions()})
				},
			},
			{
				Name:  "cache",
				Usage: "Manage the reference data cache",
				Subcommands: []*cli.Command{
					{
						Name:  "flush",
						Usage: "Drop every cached reference collection",
						Action: func(c *cli.Context) error {
							if err := fromContext(c).ReferenceCache.InvalidateAll(c.Context); err != nil {
								return fmt.Errorf("flush reference cache: %w", err)
							}
							log.Info().Msg("reference cache flushed")
							return nil
						},
					},
				},
			},
		},
	}

	if err := cliApp.Run(os.Args); err != nil {
		log.Fatal().Err(err).Msg("report command failed")
	}
}

func reportParams(c *cli.Context) domain.ReportParams {
	return domain.ReportParams{
		Scope:       c.String("scope"),
		DateFrom:    c.String("from"),
		DateTo:      c.String("to"),
		Diagnostics: c.Bool("debug"),
	}
}

func buildReport(c *cli.Context) error {
	svc := fromContext(c).ReportService
	params, err := svc.Validate(reportParams(c))
	if err != nil {
		return err
	}

	name := c.String("snapshot")
	if name == "" {
		out, err := svc.BuildReport(c.Context, params)
		if err != nil {
			return err
		}
		return printJSON(out)
	}

	store, err := app.SnapshotStore(snapshotConfig(c))
	if err != nil {
		return err
	}
	snap, err := store.Load(c.Context, name)
	if err != nil {
		return err
	}
	return printJSON(svc.BuildFromSnapshot(snap, params))
}

func saveSnapshot(c *cli.Context) error {
	name := c.String("name")
	if name == "" {
		name = time.Now().UTC().Format("20060102T150405Z")
	}

	store, err := app.SnapshotStore(snapshotConfig(c))
	if err != nil {
		return err
	}
	snap, err := fromContext(c).ReportService.Capture(c.Context, reportParams(c))
	if err != nil {
		return err
	}
	if err := store.Save(c.Context, name, snap); err != nil {
		return err
	}
	return printJSON(map[string]string{"snapshot": name})
}

func listSnapshots(c *cli.Context) error {
	store, err := app.SnapshotStore(snapshotConfig(c))
	if err != nil {
		return err
	}
	names, err := store.List(c.Context)
	if err != nil {
		return err
	}
	return printJSON(map[string][]string{"snapshots": names})
}
