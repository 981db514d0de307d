package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/target/harvester-api/config"
	"github.com/target/harvester-api/internal/bootstrap"
	"github.com/target/harvester-api/internal/devseed"
)

const defaultSeedTimeout = 2 * time.Minute

type seedOptions struct {
	OwnerEmail    string
	SkipMigration bool
	Timeout       time.Duration
}

func parseSeedFlags(args []string, stderr io.Writer) (seedOptions, error) {
	fs := flag.NewFlagSet("db-seed", flag.ContinueOnError)
	fs.SetOutput(stderr)

	opts := seedOptions{}
	fs.StringVar(&opts.OwnerEmail, "owner-email", "", "Existing user that owns the seeded projects (required when OWNERSHIP_POLICY=owner)")
	fs.BoolVar(&opts.SkipMigration, "skip-migrations", false, "Do not run migrations before seeding")
	fs.DurationVar(&opts.Timeout, "timeout", defaultSeedTimeout, "Maximum duration of the seed run")

	if err := fs.Parse(args); err != nil {
		return seedOptions{}, err
	}
	if opts.Timeout <= 0 {
		return seedOptions{}, errors.New("--timeout must be greater than zero")
	}
	return opts, nil
}

func runSeed(cmdCtx *commandContext, args []string) error {
	opts, err := parseSeedFlags(args, cmdCtx.Stderr)
	if err != nil {
		return err
	}
	if cmdCtx.Config.Store.Driver != config.StoreDriverPostgres {
		return fmt.Errorf("db-seed needs STORE_DRIVER=postgres, got %q", cmdCtx.Config.Store.Driver)
	}

	ctx, stop := signal.NotifyContext(cmdCtx.Ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, opts.Timeout)
	defer cancel()

	db, err := bootstrap.ConnectDB(ctx, bootstrap.DatabaseConfig{
		DBConfig: cmdCtx.Config.Postgres,
		Logger:   cmdCtx.Logger,
	})
	if err != nil {
		return fmt.Errorf("connect db: %w", err)
	}
	defer func() {
		if closeErr := db.Close(); closeErr != nil {
			cmdCtx.Logger.Warn("db close failed", "error", closeErr)
		}
	}()

	if !opts.SkipMigration {
		if migrateErr := bootstrap.RunMigrations(ctx, db, cmdCtx.Logger); migrateErr != nil {
			return fmt.Errorf("run migrations: %w", migrateErr)
		}
	}
	return seed(ctx, cmdCtx, db, opts.OwnerEmail)
}

func seed(ctx context.Context, cmdCtx *commandContext, db *sql.DB, ownerEmail string) error {
	svcs, err := bootstrap.NewSeeder(ctx, bootstrap.SeedDeps{
		Config:     &cmdCtx.Config,
		DB:         db,
		OwnerEmail: ownerEmail,
		Logger:     cmdCtx.Logger,
	})
	if err != nil {
		return err
	}
	if err := devseed.Run(ctx, svcs, cmdCtx.Logger); err != nil {
		return fmt.Errorf("seed: %w", err)
	}
	return writef(cmdCtx.Stdout, "demo data seeded\n")
}
