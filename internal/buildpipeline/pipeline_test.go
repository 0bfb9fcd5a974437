package buildpipeline_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"

	"mcc/internal/buildpipeline"
	"mcc/internal/diag"
	"mcc/internal/driver"
	"mcc/internal/query"
	"mcc/internal/target"
)

func writeFiles(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o600); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	return dir
}

type recorder struct {
	mu     sync.Mutex
	events []buildpipeline.Event
}

func (r *recorder) OnEvent(ev buildpipeline.Event) {
	r.mu.Lock()
	r.events = append(r.events, ev)
	r.mu.Unlock()
}

// final returns the last status reported for every file.
func (r *recorder) final() map[string]buildpipeline.Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[string]buildpipeline.Status)
	for _, ev := range r.events {
		if ev.File != "" {
			out[filepath.Base(ev.File)] = ev.Status
		}
	}
	return out
}

func TestCompileReportsEveryFile(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"ok.c":   "int main(void){return 2+2;}",
		"bad.c":  "int f(){x=1;}",
		"warn.c": "int g(int x){return x/0;}",
	})
	files := []string{
		filepath.Join(dir, "ok.c"),
		filepath.Join(dir, "bad.c"),
		filepath.Join(dir, "warn.c"),
		filepath.Join(dir, "missing.c"),
	}
	rec := &recorder{}
	db := driver.NewDatabase(driver.Options{Target: target.X86_64Linux()})
	res, err := buildpipeline.Compile(context.Background(), &buildpipeline.CompileRequest{
		Files:    files,
		DB:       db,
		Jobs:     2,
		Progress: rec,
	})
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if len(res.Files) != len(files) {
		t.Fatalf("got %d results for %d files", len(res.Files), len(files))
	}
	for i, f := range res.Files {
		if f.Path != files[i] {
			t.Fatalf("result %d is %s, want %s", i, f.Path, files[i])
		}
	}
	if !res.HasErrors() {
		t.Fatalf("errors of bad.c and missing.c not reported")
	}
	if got := res.Files[0].Outcome; got.Status != driver.StatusOK || !strings.Contains(got.Assembly, "movl $4, %eax") {
		t.Fatalf("ok.c: status %s", got.Status)
	}
	if got := res.Files[2].Outcome; got.Status != driver.StatusOK || got.HasErrors() {
		t.Fatalf("warn.c: status %s", got.Status)
	}
	missing := res.Files[3].Outcome.Diagnostics
	if len(missing) != 1 || missing[0].Code != diag.IOLoadFileError {
		t.Fatalf("missing.c diagnostics: %v", missing)
	}

	want := map[string]buildpipeline.Status{
		"ok.c":      buildpipeline.StatusDone,
		"bad.c":     buildpipeline.StatusError,
		"warn.c":    buildpipeline.StatusDone,
		"missing.c": buildpipeline.StatusError,
	}
	if diff := cmp.Diff(want, rec.final()); diff != "" {
		t.Fatalf("final statuses mismatch (-want +got):\n%s", diff)
	}
	if !res.Timings.Has(buildpipeline.StageParse) || !res.Timings.Has(buildpipeline.StageCodegen) {
		t.Fatalf("stage timings not recorded")
	}
}

func TestRecompileReusesDatabase(t *testing.T) {
	dir := writeFiles(t, map[string]string{"a.c": "int main(void){return 0;}"})
	db := driver.NewDatabase(driver.Options{Target: target.X86_64Linux()})
	req := &buildpipeline.CompileRequest{Files: []string{filepath.Join(dir, "a.c")}, DB: db}
	if _, err := buildpipeline.Compile(context.Background(), req); err != nil {
		t.Fatalf("Compile: %v", err)
	}
	before := db.Stats()
	if _, err := buildpipeline.Compile(context.Background(), req); err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if diff := cmp.Diff(executionsOf(before), executionsOf(db.Stats())); diff != "" {
		t.Fatalf("unchanged file recompiled (-before +after):\n%s", diff)
	}
}

func executionsOf(stats []query.QueryStats) map[string]uint64 {
	out := make(map[string]uint64)
	for _, s := range stats {
		out[s.Name] = s.Executions
	}
	return out
}

func TestBuildWritesAssembly(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"one.c": "int one(void){return 1;}",
		"two.c": "int two(void){return y;}",
	})
	outDir := filepath.Join(dir, "out")
	db := driver.NewDatabase(driver.Options{Target: target.X86_64Linux()})
	res, err := buildpipeline.Build(context.Background(), &buildpipeline.BuildRequest{
		CompileRequest: buildpipeline.CompileRequest{
			Files: []string{filepath.Join(dir, "one.c"), filepath.Join(dir, "two.c")},
			DB:    db,
		},
		OutputDir: outDir,
	})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	want := map[string]string{filepath.Join(dir, "one.c"): filepath.Join(outDir, "one.s")}
	if diff := cmp.Diff(want, res.Outputs); diff != "" {
		t.Fatalf("outputs mismatch (-want +got):\n%s", diff)
	}
	data, err := os.ReadFile(filepath.Join(outDir, "one.s"))
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if !strings.Contains(string(data), "one:\n") {
		t.Fatalf("unexpected output:\n%s", data)
	}
	if _, err := os.Stat(filepath.Join(outDir, "two.s")); !os.IsNotExist(err) {
		t.Fatalf("failed file produced output: %v", err)
	}
}

func TestBuildRejectsOutputForManyFiles(t *testing.T) {
	db := driver.NewDatabase(driver.Options{})
	_, err := buildpipeline.Build(context.Background(), &buildpipeline.BuildRequest{
		CompileRequest: buildpipeline.CompileRequest{Files: []string{"a.c", "b.c"}, DB: db},
		Output:         "out.s",
	})
	if err == nil {
		t.Fatalf("expected an error for -o with two inputs")
	}
}

func TestOutputPath(t *testing.T) {
	tests := []struct {
		input, output, dir, want string
	}{
		{"src/main.c", "", "", filepath.Join("src", "main.s")},
		{"src/main.c", "x.s", "", "x.s"},
		{"src/main.c", "", "build", filepath.Join("build", "main.s")},
	}
	for _, tt := range tests {
		if got := buildpipeline.OutputPath(tt.input, tt.output, tt.dir); got != tt.want {
			t.Errorf("OutputPath(%q, %q, %q) = %q, want %q", tt.input, tt.output, tt.dir, got, tt.want)
		}
	}
}

func TestNormalizeFiles(t *testing.T) {
	base := t.TempDir()
	got := buildpipeline.NormalizeFiles([]string{
		filepath.Join(base, "b.c"),
		filepath.Join(base, "sub", "..", "a.c"),
		filepath.Join(base, "b.c"),
		"",
	}, base)
	if diff := cmp.Diff([]string{"a.c", "b.c"}, got); diff != "" {
		t.Fatalf("NormalizeFiles mismatch (-want +got):\n%s", diff)
	}
}

func TestFileIDsFollowRequestOrder(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"a.c": "int a(void){return y;}",
		"b.c": "int b(void){return z;}",
	})
	files := []string{
		filepath.Join(dir, "gone.c"),
		filepath.Join(dir, "a.c"),
		filepath.Join(dir, "b.c"),
	}
	for range 3 {
		db := driver.NewDatabase(driver.Options{Target: target.X86_64Linux()})
		res, err := buildpipeline.Compile(context.Background(), &buildpipeline.CompileRequest{Files: files, DB: db, Jobs: 3})
		if err != nil {
			t.Fatalf("Compile: %v", err)
		}
		for i, f := range res.Files {
			diags := f.Outcome.Diagnostics
			if len(diags) == 0 {
				t.Fatalf("%s: no diagnostics", f.Path)
			}
			if got := int(diags[0].Primary.File); got != i {
				t.Fatalf("%s: diagnostic in file %d, want %d", filepath.Base(f.Path), got, i)
			}
		}
	}
}
