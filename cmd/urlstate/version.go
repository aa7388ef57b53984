package main

import (
	"fmt"
	"runtime"
	"runtime/debug"

	"github.com/spf13/cobra"
)

func versionCmd() *cobra.Command {
	var short bool

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Long:  `Print version, commit, and build information for the urlstate CLI.`,
		Run: func(cmd *cobra.Command, args []string) {
			v, c, d := buildInfo()
			if short {
				fmt.Println(v)
				return
			}

			printBanner()
			fmt.Println()
			fmt.Printf("  Version:    %s\n", v)
			fmt.Printf("  Commit:     %s\n", c)
			fmt.Printf("  Built:      %s\n", d)
			fmt.Printf("  Go version: %s\n", runtime.Version())
			fmt.Printf("  OS/Arch:    %s/%s\n", runtime.GOOS, runtime.GOARCH)
			fmt.Println()
		},
	}

	cmd.Flags().BoolVarP(&short, "short", "s", false, "Print only version number")

	return cmd
}

// buildInfo returns version metadata, preferring -ldflags values and
// falling back to module build info for `go install` builds.
func buildInfo() (v, c, d string) {
	v, c, d = version, commit, date

	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return v, c, d
	}
	if v == "dev" && bi.Main.Version != "" && bi.Main.Version != "(devel)" {
		v = bi.Main.Version
	}
	for _, setting := range bi.Settings {
		switch setting.Key {
		case "vcs.revision":
			if c == "none" {
				c = setting.Value
			}
		case "vcs.time":
			if d == "unknown" {
				d = setting.Value
			}
		}
	}
	return v, c, d
}
