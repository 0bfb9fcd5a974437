package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"mcc/internal/buildpipeline"
	"mcc/internal/diag"
	"mcc/internal/diagfmt"
	"mcc/internal/driver"
	"mcc/internal/query"
	"mcc/internal/trace"
)

var compileCmd = &cobra.Command{
	Use:   "compile [flags] [file.c...]",
	Short: "Compile C files to x86-64 assembly",
	Long: `Compile C files to x86-64 assembly. Without arguments the [build].sources
of the nearest mcc.toml are compiled. Each input produces <name>.s next to it
unless -o or --output-dir is given.`,
	RunE: runCompile,
}

func init() {
	compileCmd.Flags().StringP("output", "o", "", "output file for a single input (- for stdout)")
	compileCmd.Flags().String("output-dir", "", "directory receiving <name>.s for every input")
	addCompileFlags(compileCmd)
}

// addCompileFlags registers the flags shared by commands that run the pipeline.
func addCompileFlags(cmd *cobra.Command) {
	cmd.Flags().String("target", "", "target triple (x86_64-linux|x86_64-darwin, default host)")
	cmd.Flags().Int("jobs", 0, "files compiled in parallel (0 = GOMAXPROCS)")
	cmd.Flags().Bool("disk-cache", false, "reuse assembly of unchanged files across invocations")
	cmd.Flags().Bool("warnings-as-errors", false, "treat warnings as errors")
	cmd.Flags().Bool("with-notes", false, "include diagnostic notes in output")
}

func runCompile(cmd *cobra.Command, args []string) error {
	files, err := inputFiles(args)
	if err != nil {
		return err
	}
	output, err := cmd.Flags().GetString("output")
	if err != nil {
		return err
	}
	outputDir, err := cmd.Flags().GetString("output-dir")
	if err != nil {
		return err
	}
	if !changed(cmd, "output-dir") && current.manifest != nil {
		outputDir = current.manifest.OutputDir()
	}
	withNotes, err := cmd.Flags().GetBool("with-notes")
	if err != nil {
		return err
	}
	timings, err := cmd.Root().PersistentFlags().GetBool("timings")
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
	compileReq := buildpipeline.CompileRequest{Files: files, DB: db, Jobs: jobCount}

	var result buildpipeline.CompileResult
	if output == "-" {
		if len(files) != 1 {
			return fmt.Errorf("-o - needs exactly one input file, got %d", len(files))
		}
		result, err = buildpipeline.Compile(cmd.Context(), &compileReq)
		if err == nil {
			writeAssembly(cmd.OutOrStdout(), result)
		}
	} else {
		buildReq := buildpipeline.BuildRequest{CompileRequest: compileReq, Output: output, OutputDir: outputDir}
		useTUI, uiErr := shouldUseTUI(cmd, len(files))
		if uiErr != nil {
			return uiErr
		}
		var built buildpipeline.BuildResult
		if useTUI {
			built, err = runBuildWithUI(cmd.Context(), "mcc compile", files, &buildReq)
		} else {
			built, err = buildpipeline.Build(cmd.Context(), &buildReq)
		}
		result = built.CompileResult
	}

	if reportErr := reportDiagnostics(cmd, db, result.Diagnostics(), withNotes); reportErr != nil {
		return reportErr
	}
	if timings {
		printStageTimings(cmd.ErrOrStderr(), result.Timings)
		printQueryStats(cmd.ErrOrStderr(), db.Stats())
	}
	if err != nil {
		if query.IsContractViolation(err) {
			trace.DumpRing(trace.FromContext(cmd.Context()), cmd.ErrOrStderr())
			return fmt.Errorf("internal compiler error: %w", err)
		}
		return err
	}
	if result.HasErrors() {
		return errDiagnosticsReported
	}
	return nil
}

// newDatabase creates a database configured from the manifest and flags.
func newDatabase(cmd *cobra.Command) (*driver.Database, error) {
	opts, err := databaseOptions(cmd)
	if err != nil {
		return nil, err
	}
	db := driver.NewDatabase(opts)
	db.Files().SetBaseDir(baseDir())
	return db, nil
}

// reportDiagnostics prints diags in the pretty format to stderr, followed
// by the error and warning counts.
func reportDiagnostics(cmd *cobra.Command, db *driver.Database, diags []diag.Diagnostic, withNotes bool) error {
	if len(diags) == 0 {
		return nil
	}
	opts, err := prettyOptions(cmd, os.Stderr, withNotes)
	if err != nil {
		return err
	}
	diagfmt.Pretty(cmd.ErrOrStderr(), diags, db.Files(), opts)
	diagfmt.Summary(cmd.ErrOrStderr(), diags, opts.Color)
	return nil
}

func writeAssembly(w io.Writer, result buildpipeline.CompileResult) {
	for _, f := range result.Files {
		if f.Outcome != nil && !f.Outcome.HasErrors() {
			_, _ = io.WriteString(w, f.Outcome.Assembly)
		}
	}
}
