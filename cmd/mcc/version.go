package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"mcc/internal/target"
	"mcc/internal/version"
)

// versionPayload is the document printed by "mcc version --format json".
type versionPayload struct {
	Tool       string       `json:"tool"`
	Version    string       `json:"version"`
	HostTarget string       `json:"host_target"`
	Targets    []string     `json:"targets"`
	Build      *buildRecord `json:"build,omitempty"`
}

// buildRecord holds the metadata stamped in with -ldflags.
type buildRecord struct {
	Commit  string `json:"commit"`
	Message string `json:"message,omitempty"`
	Date    string `json:"date"`
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show mcc build information",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		format, err := cmd.Flags().GetString("format")
		if err != nil {
			return err
		}
		withBuild, err := cmd.Flags().GetBool("build")
		if err != nil {
			return err
		}
		payload := currentVersion(withBuild)

		switch strings.ToLower(format) {
		case "pretty":
			colored, err := useColor(cmd, os.Stdout)
			if err != nil {
				return err
			}
			printVersion(cmd.OutOrStdout(), payload, colored)
			return nil
		case "json":
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(payload)
		}
		return fmt.Errorf("unsupported format %q (must be pretty or json)", format)
	},
}

func init() {
	versionCmd.Flags().String("format", "pretty", "output format (pretty|json)")
	versionCmd.Flags().Bool("build", false, "include commit and build date")
}

func currentVersion(withBuild bool) versionPayload {
	p := versionPayload{
		Tool:       "mcc",
		Version:    orDefault(version.Version, "dev"),
		HostTarget: target.Host().Triple(),
		Targets:    []string{target.X86_64Linux().Triple(), target.X86_64Darwin().Triple()},
	}
	if withBuild {
		p.Build = &buildRecord{
			Commit:  orDefault(version.GitCommit, "unknown"),
			Message: strings.TrimSpace(version.GitMessage),
			Date:    orDefault(version.BuildDate, "unknown"),
		}
	}
	return p
}

func printVersion(w io.Writer, p versionPayload, colored bool) {
	fmt.Fprintf(w, "mcc %s\n", version.Colored(colored))
	fmt.Fprintf(w, "  host:    %s\n", p.HostTarget)
	fmt.Fprintf(w, "  targets: %s\n", strings.Join(p.Targets, ", "))
	if b := p.Build; b != nil {
		fmt.Fprintf(w, "  commit:  %s\n", b.Commit)
		if b.Message != "" {
			fmt.Fprintf(w, "           %s\n", b.Message)
		}
		fmt.Fprintf(w, "  built:   %s\n", b.Date)
	}
}

func orDefault(s, def string) string {
	if s = strings.TrimSpace(s); s == "" {
		return def
	}
	return s
}
