package project_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"mcc/internal/project"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func TestLoadFindsManifestUpward(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, project.ManifestName), `
[build]
target = "x86_64-darwin"
jobs = 3
max_diagnostics = 20
warnings_as_errors = true
disk_cache = true
sources = ["src/*.c", "src/main.c"]
output_dir = "out"

[trace]
level = "phase"
output = "trace.ndjson"
`)
	writeFile(t, filepath.Join(root, "src", "main.c"), "int main(void){return 0;}")
	writeFile(t, filepath.Join(root, "src", "util.c"), "int one(void){return 1;}")
	nested := filepath.Join(root, "src", "deep")
	if err := os.MkdirAll(nested, 0o750); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	m, ok, err := project.Load(nested)
	if err != nil || !ok {
		t.Fatalf("Load = %v, %v", ok, err)
	}
	if m.Root != root {
		t.Fatalf("Root = %q, want %q", m.Root, root)
	}
	want := project.Config{
		Build: project.BuildConfig{
			Target:           "x86_64-darwin",
			Jobs:             3,
			MaxDiagnostics:   20,
			WarningsAsErrors: true,
			DiskCache:        true,
			Sources:          []string{"src/*.c", "src/main.c"},
			OutputDir:        "out",
		},
		Trace: project.TraceConfig{Level: "phase", Output: "trace.ndjson"},
	}
	if diff := cmp.Diff(want, m.Config); diff != "" {
		t.Fatalf("config mismatch (-want +got):\n%s", diff)
	}

	files, err := m.SourceFiles()
	if err != nil {
		t.Fatalf("SourceFiles: %v", err)
	}
	wantFiles := []string{filepath.Join(root, "src", "main.c"), filepath.Join(root, "src", "util.c")}
	if diff := cmp.Diff(wantFiles, files); diff != "" {
		t.Fatalf("sources mismatch (-want +got):\n%s", diff)
	}
	if got := m.OutputDir(); got != filepath.Join(root, "out") {
		t.Fatalf("OutputDir = %q", got)
	}
}

func TestLoadWithoutManifest(t *testing.T) {
	dir := t.TempDir()
	m, ok, err := project.Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if ok {
		t.Skipf("manifest found above the temp dir at %s", m.Path)
	}
	if _, ok, _ := project.FindProjectRoot(dir); ok {
		t.Fatalf("FindProjectRoot disagrees with Load")
	}
}

func TestLoadConfigRejectsInvalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"syntax", "[build\n", "failed to parse TOML"},
		{"unknown key", "[build]\noptimize = 2\n", "unknown keys: build.optimize"},
		{"target", "[build]\ntarget = \"riscv64-linux\"\n", "[build].target"},
		{"jobs", "[build]\njobs = -1\n", "[build].jobs"},
		{"trace level", "[trace]\nlevel = \"loud\"\n", "[trace].level"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), project.ManifestName)
			writeFile(t, path, tt.content)
			_, err := project.LoadConfig(path)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("LoadConfig error = %v, want it to mention %q", err, tt.want)
			}
		})
	}
}

func TestSourceFilesReportsEmptyPattern(t *testing.T) {
	root := t.TempDir()
	m := &project.Manifest{Path: filepath.Join(root, project.ManifestName), Root: root,
		Config: project.Config{Build: project.BuildConfig{Sources: []string{"lib/*.c"}}}}
	if _, err := m.SourceFiles(); err == nil {
		t.Fatalf("expected an error for a pattern without matches")
	}
}
