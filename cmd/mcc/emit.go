package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"mcc/internal/asm"
	"mcc/internal/ast"
	"mcc/internal/diag"
	"mcc/internal/diagfmt"
	"mcc/internal/driver"
	"mcc/internal/lexer"
	"mcc/internal/source"
	"mcc/internal/tacky"
)

var emitCmd = &cobra.Command{
	Use:   "emit --stage tokens|ast|tac|asm [flags] <file.c>",
	Short: "Print an intermediate representation of a C file",
	Long: `Print the tokens, the syntax tree, the three-address code or the
allocated assembly of a C file. The pipeline stops after the requested stage.`,
	Args: cobra.ExactArgs(1),
	RunE: runEmit,
}

func init() {
	emitCmd.Flags().String("stage", "asm", "representation to print (tokens|ast|tac|asm)")
	emitCmd.Flags().String("format", "pretty", "token output format (pretty|json)")
	emitCmd.Flags().String("target", "", "target triple (x86_64-linux|x86_64-darwin, default host)")
	emitCmd.Flags().Bool("with-notes", false, "include diagnostic notes in output")
}

func runEmit(cmd *cobra.Command, args []string) error {
	path := args[0]
	stage, err := cmd.Flags().GetString("stage")
	if err != nil {
		return err
	}
	withNotes, err := cmd.Flags().GetBool("with-notes")
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	if stage == "tokens" {
		format, err := cmd.Flags().GetString("format")
		if err != nil {
			return err
		}
		return emitTokens(cmd, out, path, format, withNotes)
	}

	db, err := newDatabase(cmd)
	if err != nil {
		return err
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %q: %w", path, err)
	}
	db.SetSource(path, string(content))

	var (
		cb      driver.Callbacks
		dumpErr error
	)
	switch stage {
	case "ast":
		cb.AfterParse = func(_ string, tu *ast.TranslationUnit, _ []diag.Diagnostic) driver.Control {
			dumpErr = ast.Dump(out, tu)
			return driver.Stop
		}
	case "tac":
		cb.AfterLower = func(_ string, prog *tacky.Program, diags []diag.Diagnostic) driver.Control {
			if !diag.HasErrors(diags) {
				dumpErr = tacky.Print(out, prog)
			}
			return driver.Stop
		}
	case "asm":
		cb.AfterCodegen = func(_ string, prog *asm.Program, _ []diag.Diagnostic) driver.Control {
			dumpErr = dumpAssembly(out, prog)
			return driver.Stop
		}
	default:
		return fmt.Errorf("unknown stage %q (expected tokens|ast|tac|asm)", stage)
	}

	outcome, err := driver.Run(cmd.Context(), db, path, cb)
	if err != nil {
		return err
	}
	if dumpErr != nil {
		return fmt.Errorf("failed to print %s: %w", stage, dumpErr)
	}
	if err := reportDiagnostics(cmd, db, outcome.Diagnostics, withNotes); err != nil {
		return err
	}
	if outcome.HasErrors() {
		return errDiagnosticsReported
	}
	return nil
}

func emitTokens(cmd *cobra.Command, out io.Writer, path, format string, withNotes bool) error {
	fs := source.NewFileSet()
	fs.SetBaseDir(baseDir())
	id, _, err := fs.Load(path)
	if err != nil {
		return fmt.Errorf("failed to read %q: %w", path, err)
	}
	bag := diag.NewBag(0)
	toks := lexer.New(fs.Get(id), lexer.Options{Reporter: diag.BagReporter{Bag: bag}}).All()

	switch format {
	case "pretty":
		err = diagfmt.FormatTokensPretty(out, toks, fs)
	case "json":
		err = diagfmt.FormatTokensJSON(out, toks)
	default:
		return fmt.Errorf("unknown format %q (expected pretty|json)", format)
	}
	if err != nil {
		return err
	}
	if bag.Len() > 0 {
		bag.Sort()
		opts, err := prettyOptions(cmd, os.Stderr, withNotes)
		if err != nil {
			return err
		}
		diagfmt.Pretty(cmd.ErrOrStderr(), bag.Items(), fs, opts)
		diagfmt.Summary(cmd.ErrOrStderr(), bag.Items(), opts.Color)
	}
	if bag.HasErrors() {
		return errDiagnosticsReported
	}
	return nil
}

// dumpAssembly prints every function after register allocation, with its
// frame layout, ahead of rendering.
func dumpAssembly(w io.Writer, prog *asm.Program) error {
	for i, fn := range prog.Functions {
		if i > 0 {
			fmt.Fprintln(w)
		}
		saved := make([]string, len(fn.CalleeSaved))
		for j, r := range fn.CalleeSaved {
			saved[j] = r.String()
		}
		if _, err := fmt.Fprintf(w, "%s: frame %d bytes, callee-saved [%s]\n", fn.Name, fn.FrameSize, strings.Join(saved, " ")); err != nil {
			return err
		}
		for _, in := range fn.Instrs {
			if _, err := fmt.Fprintf(w, "  %s\n", in.String()); err != nil {
				return err
			}
		}
	}
	for _, v := range prog.StaticVars {
		fmt.Fprintf(w, "static %s align %d\n", v.Name, v.Align)
	}
	for _, c := range prog.Constants {
		fmt.Fprintf(w, "const %s align %d = %#x\n", c.Name, c.Align, c.Bits)
	}
	return nil
}
