// migrate aplica, revierte y lista las migraciones del esquema.
//
// Uso:
//
//	go run ./cmd/migrate up
//	go run ./cmd/migrate down --steps 2
//	go run ./cmd/migrate status --driver sqlite --sqlite-path jugueria.db
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jhoicas/jugueria-api/internal/infrastructure/migrations"
	"github.com/jhoicas/jugueria-api/internal/infrastructure/storage"
	"github.com/jhoicas/jugueria-api/pkg/config"
	"github.com/jhoicas/jugueria-api/pkg/logger"
)

// rootOptions flags globales; vacíos toman el valor de la configuración.
type rootOptions struct {
	Driver     string
	SQLitePath string
	cfg        *config.Config
	log        *logger.Logger
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "migrate",
		Short:         "Migraciones del esquema de la juguería",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if opts.Driver != "" {
				cfg.DB.Driver = opts.Driver
			}
			if opts.SQLitePath != "" {
				cfg.DB.SQLitePath = opts.SQLitePath
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			opts.cfg = cfg
			opts.log = logger.New(logger.Config{Env: cfg.App.Env, Level: cfg.App.LogLevel, Out: cmd.ErrOrStderr()})
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&opts.Driver, "driver", "", "postgres o sqlite (por defecto DB_DRIVER)")
	cmd.PersistentFlags().StringVar(&opts.SQLitePath, "sqlite-path", "", "archivo SQLite (por defecto SQLITE_PATH)")

	cmd.AddCommand(newUpCommand(opts))
	cmd.AddCommand(newDownCommand(opts))
	cmd.AddCommand(newStatusCommand(opts))
	return cmd
}

func newUpCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "up",
		Short: "Aplica todas las migraciones pendientes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withMigrator(cmd.Context(), opts, func(m *migrations.Migrator) error {
				return m.Up(cmd.Context())
			})
		},
	}
}

func newDownCommand(opts *rootOptions) *cobra.Command {
	var steps int
	var all bool
	cmd := &cobra.Command{
		Use:   "down",
		Short: "Revierte migraciones aplicadas",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withMigrator(cmd.Context(), opts, func(m *migrations.Migrator) error {
				return m.Down(cmd.Context(), steps, all)
			})
		},
	}
	cmd.Flags().IntVar(&steps, "steps", 1, "cantidad de migraciones a revertir")
	cmd.Flags().BoolVar(&all, "all", false, "revertir todas las migraciones")
	return cmd
}

func newStatusCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Lista las migraciones y su estado",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withMigrator(cmd.Context(), opts, func(m *migrations.Migrator) error {
				st, err := m.Status(cmd.Context())
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				for _, s := range st {
					state := "pending"
					if s.Applied {
						state = "applied"
					}
					fmt.Fprintf(out, "%05d  %-8s  %s\n", s.Version, state, s.Path)
				}
				return nil
			})
		},
	}
}

func withMigrator(ctx context.Context, opts *rootOptions, fn func(*migrations.Migrator) error) error {
	if ctx == nil {
		ctx = context.Background()
	}
	h, err := storage.Open(ctx, opts.cfg.DB)
	if err != nil {
		return err
	}
	defer h.Close()

	m, err := h.Migrator(opts.log.Component("migrate"))
	if err != nil {
		return err
	}
	return fn(m)
}
