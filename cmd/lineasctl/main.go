package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"

	"powerline-locator-go/internal/app"
	"powerline-locator-go/internal/config"
	"powerline-locator-go/internal/database"

	"github.com/spf13/cobra"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "lineasctl",
		Short:         "Import power line topology and locate faults by km",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	root.AddCommand(newImportCmd(), newLocateCmd(), newMigrateCmd())
	return root
}

// withApp собирает сервисы, выполняет fn и освобождает ресурсы
func withApp(fn func(a *app.App) error) error {
	cfg := config.LoadConfig()
	logger := app.NewLogger(cfg.Logging.Level)
	logger.SetOutput(os.Stderr)

	a, err := app.New(cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	return fn(a)
}

func newImportCmd() *cobra.Command {
	var migrate bool

	cmd := &cobra.Command{
		Use:   "import <file.kmz|file.kml>",
		Short: "Import lineas, tramos and estructuras from a KMZ/KML file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			body, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read %s: %w", args[0], err)
			}

			return withApp(func(a *app.App) error {
				if migrate {
					if err := database.Migrate(a.Logger); err != nil {
						return err
					}
				}

				result, err := a.Imports.ImportFile(cmd.Context(), filepath.Base(args[0]), body)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), result)
			})
		},
	}

	cmd.Flags().BoolVar(&migrate, "migrate", false, "Apply migrations before importing")
	return cmd
}

func newLocateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "locate <lineaId> <km>",
		Short: "Compute coordinates of the point at km along a linea",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			km, err := strconv.ParseFloat(args[1], 64)
			if err != nil {
				return fmt.Errorf("invalid km %q: %w", args[1], err)
			}

			return withApp(func(a *app.App) error {
				result, err := a.Locations.ComputeLocation(cmd.Context(), args[0], km)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), result)
			})
		},
	}
}

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create PostGIS extension, tables and store functions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(a *app.App) error {
				return database.Migrate(a.Logger)
			})
		},
	}
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
