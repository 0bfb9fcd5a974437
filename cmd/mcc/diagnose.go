package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"mcc/internal/buildpipeline"
	"mcc/internal/diag"
	"mcc/internal/diagfmt"
)

var diagCmd = &cobra.Command{
	Use:   "diag [flags] [file.c...]",
	Short: "Report diagnostics of C files without writing output",
	Long: `Run the whole pipeline on C files and print their diagnostics to stdout.
The exit status is 1 when any file has an error.`,
	RunE: runDiagnose,
}

func init() {
	diagCmd.Flags().String("format", "pretty", "output format (pretty|json|short)")
	diagCmd.Flags().Bool("fullpath", false, "emit absolute file paths in output")
	addCompileFlags(diagCmd)
}

func runDiagnose(cmd *cobra.Command, args []string) error {
	format, err := cmd.Flags().GetString("format")
	if err != nil {
		return fmt.Errorf("failed to get format flag: %w", err)
	}
	switch format {
	case "pretty", "json", "short":
	default:
		return fmt.Errorf("unknown format: %s", format)
	}
	withNotes, err := cmd.Flags().GetBool("with-notes")
	if err != nil {
		return fmt.Errorf("failed to get with-notes flag: %w", err)
	}
	fullPath, err := cmd.Flags().GetBool("fullpath")
	if err != nil {
		return fmt.Errorf("failed to get fullpath flag: %w", err)
	}
	files, err := inputFiles(args)
	if err != nil {
		return err
	}
	db, err := newDatabase(cmd)
	if err != nil {
		return err
	}
	jobCount, err := jobs(cmd)
	if err != nil {
		return err
	}

	result, err := buildpipeline.Compile(cmd.Context(), &buildpipeline.CompileRequest{Files: files, DB: db, Jobs: jobCount})
	if err != nil {
		return fmt.Errorf("diagnosis failed: %w", err)
	}
	diags := result.Diagnostics()

	pathMode := diagfmt.PathModeRelative
	if fullPath {
		pathMode = diagfmt.PathModeAbsolute
	}
	out := cmd.OutOrStdout()
	switch format {
	case "pretty":
		opts, err := prettyOptions(cmd, os.Stdout, withNotes)
		if err != nil {
			return err
		}
		opts.PathMode = pathMode
		diagfmt.Pretty(out, diags, db.Files(), opts)
		diagfmt.Summary(out, diags, opts.Color)
	case "short":
		if text := diag.FormatShortDiagnostics(diags, db.Files(), withNotes); text != "" {
			fmt.Fprintln(out, text)
		}
	case "json":
		jsonOpts := diagfmt.JSONOpts{
			IncludePositions: true,
			PathMode:         pathMode,
			IncludeNotes:     withNotes,
		}
		if err := diagfmt.JSON(out, diags, db.Files(), jsonOpts); err != nil {
			return fmt.Errorf("failed to format diagnostics: %w", err)
		}
	}

	if result.HasErrors() {
		return errDiagnosticsReported
	}
	return nil
}
