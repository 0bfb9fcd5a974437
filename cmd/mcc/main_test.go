package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"mcc/internal/diagfmt"
)

// execute runs the CLI in dir. Flag values persist between runs of the
// shared root command, so every test passes the flags it relies on.
func execute(t *testing.T, dir string, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	setupRoot()
	t.Chdir(dir)
	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs(append([]string{"--color", "off", "--ui", "off", "--timings=false"}, args...))
	err = rootCmd.Execute()
	closeSession(rootCmd)
	return out.String(), errOut.String(), err
}

func writeSource(t *testing.T, name, content string) (dir, path string) {
	t.Helper()
	dir = t.TempDir()
	path = filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return dir, path
}

func TestCompileToStdout(t *testing.T) {
	dir, path := writeSource(t, "main.c", "int main(void){return 2+2;}")
	stdout, stderr, err := execute(t, dir, "compile", "--target", "x86_64-linux", "-o", "-", path)
	if err != nil {
		t.Fatalf("compile: %v\n%s", err, stderr)
	}
	if !strings.Contains(stdout, "movl $4, %eax") || !strings.Contains(stdout, "ret") {
		t.Fatalf("unexpected assembly:\n%s", stdout)
	}
}

func TestCompileReportsErrors(t *testing.T) {
	dir, path := writeSource(t, "bad.c", "int f(){x=1;}")
	out := filepath.Join(dir, "bad.s")
	_, stderr, err := execute(t, dir, "compile", "--target", "x86_64-linux", "-o", out, path)
	if !errors.Is(err, errDiagnosticsReported) {
		t.Fatalf("compile error = %v, want reported diagnostics", err)
	}
	if !strings.Contains(stderr, "bad.c:1:9: error[LOW3001]") || !strings.Contains(stderr, "1 error") {
		t.Fatalf("diagnostics not printed:\n%s", stderr)
	}
	if _, statErr := os.Stat(out); !os.IsNotExist(statErr) {
		t.Fatalf("output written for a failed compile: %v", statErr)
	}
}

func TestEmitStages(t *testing.T) {
	dir, path := writeSource(t, "main.c", "int main(void){return 2+2;}")
	tests := []struct {
		stage string
		want  string
	}{
		{"tokens", "integer constant"},
		{"ast", "main"},
		{"tac", "return 4"},
		{"asm", "main: frame"},
	}
	for _, tt := range tests {
		t.Run(tt.stage, func(t *testing.T) {
			stdout, stderr, err := execute(t, dir, "emit", "--target", "x86_64-linux", "--format", "pretty", "--stage", tt.stage, path)
			if err != nil {
				t.Fatalf("emit: %v\n%s", err, stderr)
			}
			if !strings.Contains(stdout, tt.want) {
				t.Fatalf("emit --stage %s output lacks %q:\n%s", tt.stage, tt.want, stdout)
			}
		})
	}
}

func TestDiagFormats(t *testing.T) {
	dir, path := writeSource(t, "warn.c", "int g(int x){return x/0;}")

	stdout, _, err := execute(t, dir, "diag", "--target", "x86_64-linux", "--format", "json", path)
	if err != nil {
		t.Fatalf("warnings must not fail diag: %v", err)
	}
	var doc diagfmt.DiagnosticsOutput
	if err := json.Unmarshal([]byte(stdout), &doc); err != nil {
		t.Fatalf("invalid JSON: %v\n%s", err, stdout)
	}
	if doc.Count != 1 || doc.Diagnostics[0].Code != "LOW3100" {
		t.Fatalf("unexpected diagnostics: %+v", doc)
	}

	stdout, _, err = execute(t, dir, "diag", "--target", "x86_64-linux", "--format", "short", path)
	if err != nil {
		t.Fatalf("diag: %v", err)
	}
	if !strings.HasPrefix(stdout, "warning LOW3100 ") {
		t.Fatalf("unexpected short output %q", stdout)
	}
}

func TestVersionJSON(t *testing.T) {
	stdout, _, err := execute(t, t.TempDir(), "version", "--format", "json")
	if err != nil {
		t.Fatalf("version: %v", err)
	}
	var payload versionPayload
	if err := json.Unmarshal([]byte(stdout), &payload); err != nil {
		t.Fatalf("invalid JSON: %v\n%s", err, stdout)
	}
	if payload.Tool != "mcc" || payload.Version == "" || payload.HostTarget == "" || payload.Build != nil {
		t.Fatalf("unexpected payload %+v", payload)
	}
	if !slices.Contains(payload.Targets, "x86_64-linux") {
		t.Fatalf("targets %v lack x86_64-linux", payload.Targets)
	}

	stdout, _, err = execute(t, t.TempDir(), "version", "--format", "json", "--build")
	if err != nil {
		t.Fatalf("version --build: %v", err)
	}
	payload = versionPayload{}
	if err := json.Unmarshal([]byte(stdout), &payload); err != nil {
		t.Fatalf("invalid JSON: %v\n%s", err, stdout)
	}
	if payload.Build == nil || payload.Build.Commit == "" || payload.Build.Date == "" {
		t.Fatalf("build metadata missing: %s", stdout)
	}
}

func TestReadUIMode(t *testing.T) {
	for in, want := range map[string]uiMode{"": uiModeAuto, "AUTO": uiModeAuto, "on": uiModeOn, " off ": uiModeOff} {
		got, err := readUIMode(in)
		if err != nil || got != want {
			t.Errorf("readUIMode(%q) = %q, %v; want %q", in, got, err, want)
		}
	}
	if _, err := readUIMode("sometimes"); err == nil {
		t.Errorf("expected an error for an unknown mode")
	}
}
