package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/noah-isme/edusmart-import-api/internal/app"
	"github.com/noah-isme/edusmart-import-api/internal/importer"
	"github.com/noah-isme/edusmart-import-api/internal/models"
	"github.com/noah-isme/edusmart-import-api/internal/service"
	appErrors "github.com/noah-isme/edusmart-import-api/pkg/errors"
)

type importOutput struct {
	EntityType string               `json:"entityType"`
	File       string               `json:"file"`
	DurationMS int64                `json:"duration_ms"`
	Message    string               `json:"message,omitempty"`
	Result     *models.ImportResult `json:"result,omitempty"`
	Error      string               `json:"error,omitempty"`
}

func newImportCmd() *cobra.Command {
	var actor string
	cmd := &cobra.Command{
		Use:   "import <type> <file>",
		Short: "Import one CSV file",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.Close()

			out, err := importFile(cmd.Context(), a, args[0], args[1], actor)
			if werr := writeJSON(out); werr != nil {
				return werr
			}
			return err
		},
	}
	cmd.Flags().StringVar(&actor, "actor", "cli", "Actor recorded in the import history")
	return cmd
}

func newImportDirCmd() *cobra.Command {
	var (
		actor       string
		stopOnError bool
	)
	cmd := &cobra.Command{
		Use:   "import-dir <dir>",
		Short: "Import every <type>.csv in a directory in dependency order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.Close()

			outputs := make([]importOutput, 0, len(importer.ImportOrder))
			var failed []string
			for _, entityType := range importer.ImportOrder {
				path := filepath.Join(args[0], entityType+".csv")
				if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
					continue
				}
				out, err := importFile(cmd.Context(), a, entityType, path, actor)
				outputs = append(outputs, out)
				if err != nil {
					failed = append(failed, entityType)
					if stopOnError {
						break
					}
				}
			}
			if err := writeJSON(outputs); err != nil {
				return err
			}
			if len(outputs) == 0 {
				return fmt.Errorf("no <type>.csv files found in %s", args[0])
			}
			if len(failed) > 0 {
				return fmt.Errorf("imports failed: %v", failed)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&actor, "actor", "cli", "Actor recorded in the import history")
	cmd.Flags().BoolVar(&stopOnError, "stop-on-error", false, "Stop at the first file that fails as a whole")
	return cmd
}

// importFile stages a copy of path so the operator's file is left untouched.
func importFile(ctx context.Context, a *app.App, entityType, path, actor string) (out importOutput, err error) {
	out = importOutput{EntityType: entityType, File: path}
	start := time.Now()
	defer func() { out.DurationMS = time.Since(start).Milliseconds() }()

	f, err := os.Open(path)
	if err != nil {
		out.Error = err.Error()
		return out, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	staged, err := a.Staging.Stage(filepath.Base(path), f)
	if err != nil {
		out.Error = err.Error()
		return out, err
	}

	result, err := a.Imports.Import(ctx, service.ImportRequest{
		EntityType: entityType,
		StagedName: staged,
		Filename:   filepath.Base(path),
		ActorID:    actor,
	})
	if err != nil {
		appErr := appErrors.FromError(err)
		out.Error = appErr.Message
		if detail := appErr.Detail(); detail != appErr.Message {
			out.Error += ": " + detail
		}
		return out, err
	}
	out.Message = result.Message()
	out.Result = result
	return out, nil
}
