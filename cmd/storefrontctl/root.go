package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/storefrontapp/storefront-server/internal/config"
	"github.com/storefrontapp/storefront-server/internal/contenttype"
	"github.com/storefrontapp/storefront-server/internal/logger"
	"github.com/storefrontapp/storefront-server/internal/service"
	"github.com/storefrontapp/storefront-server/internal/store"
	"github.com/storefrontapp/storefront-server/internal/store/kv"
	"github.com/storefrontapp/storefront-server/internal/store/sqlite"
	"github.com/storefrontapp/storefront-server/internal/tagging"
)

// app is the subset of the server wiring the CLI needs. Search is left out:
// the server holds the index open, and it reindexes on its next start when empty.
type app struct {
	db      *sqlite.Store
	backend store.TagIndex
	tags    *service.TagService
	catalog *service.CatalogService
}

func (a *app) Close() error {
	if a.backend != store.TagIndex(a.db) {
		if err := a.backend.Close(); err != nil {
			return err
		}
	}
	return a.db.Close()
}

// openApp loads config the same way the server does, with the CLI's flags
// taking the place of server flags.
func openApp(ctx context.Context, cmd *cobra.Command) (*app, error) {
	var args []string
	for _, name := range []string{"data-path", "tag-backend", "log-level", "env-file"} {
		if f := cmd.Flags().Lookup(name); f != nil && f.Changed {
			args = append(args, "-"+name, f.Value.String())
		}
	}
	cfg, err := config.LoadConfig(args)
	if err != nil {
		return nil, err
	}

	log := logger.New(logger.Config{
		Writer:      cmd.ErrOrStderr(),
		Level:       logger.ParseLevel(cfg.Logger.Level),
		Environment: cfg.App.Environment,
	})

	db, err := sqlite.Open(cfg.Data.DatabasePath(), log.Logger)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	var backend store.TagIndex = db
	if cfg.Tagging.Backend == config.BackendBadger {
		kvStore, err := kv.Open(cfg.Data.BadgerPath(), log.Logger)
		if err != nil {
			_ = db.Close()
			if errors.Is(err, kv.ErrLocked) {
				return nil, fmt.Errorf("open tag index: %w (stop the server or run with --tag-backend sqlite)", err)
			}
			return nil, fmt.Errorf("open tag index: %w", err)
		}
		backend = kvStore
	}

	registry := contenttype.NewRegistry(backend, log.Logger)
	if err := registry.RegisterDefaults(ctx); err != nil {
		a := &app{db: db, backend: backend}
		_ = a.Close()
		return nil, err
	}

	tags := service.NewTagService(tagging.NewIndex(backend, registry, nil, log.Logger), nil, log.Logger)
	return &app{
		db:      db,
		backend: backend,
		tags:    tags,
		catalog: service.NewCatalogService(db, tags, log.Logger),
	}, nil
}

// withApp opens the stores for the duration of one command.
func withApp(run func(cmd *cobra.Command, a *app, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd.Context(), cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		return run(cmd, a, args)
	}
}

func newRootCmd(ctx context.Context) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "storefrontctl",
		Short:         "Storefront operator CLI",
		Long:          "storefrontctl inspects and edits the storefront tag index and seeds demo catalog data.",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	flags := rootCmd.PersistentFlags()
	flags.String("data-path", "", "Directory holding the database and indexes (default: DATA_PATH)")
	flags.String("tag-backend", "", "Tag index backend: sqlite or badger (default: TAG_BACKEND)")
	flags.String("log-level", "", "Log level (debug, info, warn, error)")
	flags.String("env-file", ".env", "Path to .env file")

	rootCmd.AddCommand(
		newTagsCmd(),
		newContentTypesCmd(),
		newSeedCmd(),
	)

	rootCmd.SetContext(ctx)
	return rootCmd
}

// printJSON writes v indented to the command's output.
func printJSON(cmd *cobra.Command, v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	cmd.Println(string(out))
	return nil
}
