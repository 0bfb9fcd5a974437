package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"mcc/internal/buildpipeline"
	"mcc/internal/diagfmt"
	"mcc/internal/driver"
	"mcc/internal/prof"
	"mcc/internal/project"
	"mcc/internal/target"
)

// session holds what every command derives from the manifest and the
// global flags before running.
type session struct {
	manifest *project.Manifest
	cleanup  func()
	profiles *prof.Session
}

var current = &session{}

func prepareSession(cmd *cobra.Command) error {
	manifest, _, err := project.Load(".")
	if err != nil {
		return err
	}
	current.manifest = manifest
	cleanup, err := setupTracing(cmd, manifest)
	if err != nil {
		return err
	}
	current.cleanup = cleanup
	profiles, err := setupProfiling(cmd)
	if err != nil {
		return err
	}
	current.profiles = profiles
	return nil
}

func closeSession(cmd *cobra.Command) {
	if current.profiles != nil {
		if err := current.profiles.Stop(); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "failed to write profiles: %v\n", err)
		}
		current.profiles = nil
	}
	if current.cleanup != nil {
		current.cleanup()
		current.cleanup = nil
	}
}

// changed reports whether the flag exists on cmd and was set explicitly.
func changed(cmd *cobra.Command, name string) bool {
	f := cmd.Flags().Lookup(name)
	return f != nil && f.Changed
}

// buildConfig returns the manifest's [build] section, or zero values
// outside a project.
func buildConfig() project.BuildConfig {
	if current.manifest == nil {
		return project.BuildConfig{}
	}
	return current.manifest.Config.Build
}

// databaseOptions merges manifest values with explicitly set flags.
func databaseOptions(cmd *cobra.Command) (driver.Options, error) {
	cfg := buildConfig()
	var opts driver.Options

	triple := cfg.Target
	if changed(cmd, "target") {
		v, err := cmd.Flags().GetString("target")
		if err != nil {
			return opts, err
		}
		triple = v
	}
	if strings.TrimSpace(triple) == "" {
		opts.Target = target.Host()
	} else {
		tgt, err := target.Parse(triple)
		if err != nil {
			return opts, err
		}
		opts.Target = tgt
	}

	opts.MaxDiagnostics = cfg.MaxDiagnostics
	if changed(cmd, "max-diagnostics") || cfg.MaxDiagnostics == 0 {
		v, err := cmd.Root().PersistentFlags().GetInt("max-diagnostics")
		if err != nil {
			return opts, fmt.Errorf("failed to get max-diagnostics flag: %w", err)
		}
		opts.MaxDiagnostics = v
	}

	opts.WarningsAsErrors = cfg.WarningsAsErrors
	if changed(cmd, "warnings-as-errors") {
		v, err := cmd.Flags().GetBool("warnings-as-errors")
		if err != nil {
			return opts, err
		}
		opts.WarningsAsErrors = v
	}

	timings, err := cmd.Root().PersistentFlags().GetBool("timings")
	if err != nil {
		return opts, fmt.Errorf("failed to get timings flag: %w", err)
	}
	opts.Timings = timings

	useCache := cfg.DiskCache
	if changed(cmd, "disk-cache") {
		if useCache, err = cmd.Flags().GetBool("disk-cache"); err != nil {
			return opts, err
		}
	}
	if useCache {
		cache, err := driver.OpenDiskCache("mcc")
		if err != nil {
			return opts, fmt.Errorf("failed to open disk cache: %w", err)
		}
		opts.Cache = cache
	}
	return opts, nil
}

// jobs returns the parallelism for commands that take several files.
func jobs(cmd *cobra.Command) (int, error) {
	if changed(cmd, "jobs") {
		return cmd.Flags().GetInt("jobs")
	}
	return buildConfig().Jobs, nil
}

// inputFiles returns args deduplicated and relative to the working
// directory, or the manifest's sources when args is empty.
func inputFiles(args []string) ([]string, error) {
	if len(args) > 0 {
		wd, err := os.Getwd()
		if err != nil {
			return nil, err
		}
		return buildpipeline.NormalizeFiles(args, wd), nil
	}
	if current.manifest == nil {
		return nil, fmt.Errorf("no input files and no %s found", project.ManifestName)
	}
	files, err := current.manifest.SourceFiles()
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("%s: [build].sources is empty", current.manifest.Path)
	}
	return files, nil
}

// baseDir is where displayed paths are made relative to.
func baseDir() string {
	if current.manifest != nil {
		return current.manifest.Root
	}
	wd, err := os.Getwd()
	if err != nil {
		return ""
	}
	return wd
}

// useColor resolves --color for output written to f.
func useColor(cmd *cobra.Command, f *os.File) (bool, error) {
	colorFlag, err := cmd.Root().PersistentFlags().GetString("color")
	if err != nil {
		return false, err
	}
	switch colorFlag {
	case "on":
		return true, nil
	case "off":
		return false, nil
	case "auto":
		return isTerminal(f), nil
	}
	return false, fmt.Errorf("invalid --color value %q (expected auto|on|off)", colorFlag)
}

func prettyOptions(cmd *cobra.Command, f *os.File, withNotes bool) (diagfmt.PrettyOpts, error) {
	colored, err := useColor(cmd, f)
	if err != nil {
		return diagfmt.PrettyOpts{}, err
	}
	return diagfmt.PrettyOpts{
		Color:     colored,
		Context:   2,
		PathMode:  diagfmt.PathModeRelative,
		ShowNotes: withNotes,
	}, nil
}
