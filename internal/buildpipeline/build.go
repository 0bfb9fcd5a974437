package buildpipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// BuildRequest configures output generation for a compilation.
type BuildRequest struct {
	CompileRequest
	// Output names the assembly file when a single file is compiled.
	Output string
	// OutputDir receives <name>.s for every input; empty means next to the input.
	OutputDir string
}

// BuildResult captures written artefacts and timings.
type BuildResult struct {
	CompileResult
	// Outputs maps every successfully compiled input to its assembly file.
	Outputs map[string]string
}

// Build compiles the request and writes the assembly of every file that
// compiled cleanly. Files with errors produce no output.
func Build(ctx context.Context, req *BuildRequest) (BuildResult, error) {
	var result BuildResult
	if req == nil {
		return result, fmt.Errorf("missing build request")
	}
	if req.Output != "" && len(req.Files) > 1 {
		return result, fmt.Errorf("-o needs exactly one input file, got %d", len(req.Files))
	}

	compileRes, err := Compile(ctx, &req.CompileRequest)
	result.CompileResult = compileRes
	if err != nil {
		return result, err
	}

	writeStart := time.Now()
	emit(req.Progress, Event{Stage: StageWrite, Status: StatusWorking})
	result.Outputs = make(map[string]string, len(compileRes.Files))
	for _, f := range compileRes.Files {
		if f.Outcome == nil || f.Outcome.HasErrors() || f.Outcome.Assembly == "" {
			continue
		}
		outPath := OutputPath(f.Path, req.Output, req.OutputDir)
		if err := writeAtomic(outPath, f.Outcome.Assembly); err != nil {
			err = fmt.Errorf("failed to write %q: %w", outPath, err)
			emit(req.Progress, Event{File: f.Path, Stage: StageWrite, Status: StatusError, Err: err})
			return result, err
		}
		result.Outputs[f.Path] = outPath
	}
	result.Timings.Set(StageWrite, time.Since(writeStart))
	emit(req.Progress, Event{Stage: StageWrite, Status: StatusDone, Elapsed: result.Timings.Duration(StageWrite)})
	return result, nil
}

// OutputPath returns where the assembly of input is written.
func OutputPath(input, output, dir string) string {
	if output != "" {
		return output
	}
	name := strings.TrimSuffix(filepath.Base(input), filepath.Ext(input)) + ".s"
	if dir != "" {
		return filepath.Join(dir, name)
	}
	return filepath.Join(filepath.Dir(input), name)
}

func writeAtomic(path, content string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return err
	}
	f, err := os.CreateTemp(dir, ".mcc-*")
	if err != nil {
		return err
	}
	tmp := f.Name()
	defer func() {
		_ = os.Remove(tmp)
	}()
	if _, err := f.WriteString(content); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	// #nosec G302 -- assembly output is meant to be readable
	if err := os.Chmod(tmp, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}
