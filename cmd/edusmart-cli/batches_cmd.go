package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/noah-isme/edusmart-import-api/internal/dto"
)

func newBatchesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "batches",
		Short: "Generate and inspect student batches",
	}
	cmd.AddCommand(newBatchesGenerateCmd())
	cmd.AddCommand(newBatchesAnalyzeCmd())
	cmd.AddCommand(newBatchesRosterCmd())
	return cmd
}

func newBatchesGenerateCmd() *cobra.Command {
	var req dto.GenerateBatchesRequest
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Group the term's enrolled students into batches",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.Close()

			result, err := a.Batches.Generate(cmd.Context(), req)
			if err != nil {
				return err
			}
			if err := writeJSON(map[string]any{
				"success":                result.Success,
				"message":                result.Message,
				"batchesCreated":         result.BatchesCreated,
				"totalStudentsProcessed": result.TotalStudentsProcessed,
				"batches":                result.Batches,
			}); err != nil {
				return err
			}
			if !result.Success {
				return fmt.Errorf("%s", result.Message)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&req.AcademicYear, "year", "", "Academic year, e.g. 2024-25 (required)")
	cmd.Flags().IntVar(&req.Semester, "semester", 0, "Semester number (required)")
	_ = cmd.MarkFlagRequired("year")
	_ = cmd.MarkFlagRequired("semester")
	return cmd
}

func newBatchesAnalyzeCmd() *cobra.Command {
	var (
		year     string
		semester int
	)
	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Show program distribution and batch recommendations for a term",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.Close()

			analysis, err := a.Batches.Analyze(cmd.Context(), year, semester)
			if err != nil {
				return err
			}
			return writeJSON(analysis)
		},
	}
	cmd.Flags().StringVar(&year, "year", "", "Academic year, e.g. 2024-25 (required)")
	cmd.Flags().IntVar(&semester, "semester", 0, "Semester number (required)")
	_ = cmd.MarkFlagRequired("year")
	_ = cmd.MarkFlagRequired("semester")
	return cmd
}

func newBatchesRosterCmd() *cobra.Command {
	var (
		format string
		output string
	)
	cmd := &cobra.Command{
		Use:   "roster <batch-name>",
		Short: "Write the roster of one batch as csv, pdf or xlsx",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.Close()

			file, err := a.Batches.RosterExport(cmd.Context(), args[0], format)
			if err != nil {
				return err
			}
			if output == "" {
				output = file.Filename
			}
			if err := os.WriteFile(output, file.Data, 0o644); err != nil {
				return fmt.Errorf("write roster: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", output)
			return nil
		},
	}
	cmd.Flags().StringVar(&format, "format", "csv", "csv, pdf or xlsx")
	cmd.Flags().StringVarP(&output, "out", "o", "", "Output path (defaults to <batch>-roster.<ext>)")
	return cmd
}
