package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/noah-isme/edusmart-import-api/internal/app"
	"github.com/noah-isme/edusmart-import-api/pkg/config"
	"github.com/noah-isme/edusmart-import-api/pkg/logger"
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "edusmart-cli",
		Short:         "Operator tools for EduSmart master-data imports and batches",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.AddCommand(newMigrateCmd())
	cmd.AddCommand(newImportCmd())
	cmd.AddCommand(newImportDirCmd())
	cmd.AddCommand(newBatchesCmd())
	cmd.AddCommand(newTokenCmd())
	return cmd
}

func execute() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	logr, err := logger.New(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("init logger: %w", err)
	}
	return cfg, logr, nil
}

// openApp wires the services without starting the background workers, so
// imports record their audit rows inline and batch runs execute directly.
func openApp() (*app.App, error) {
	cfg, logr, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return app.New(cfg, logr)
}
