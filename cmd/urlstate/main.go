package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

const banner = `
  ┬ ┬┬─┐┬  ┌─┐┌┬┐┌─┐┌┬┐┌─┐
  │ │├┬┘│  └─┐ │ ├─┤ │ ├┤
  └─┘┴└─┴─┘└─┘ ┴ ┴ ┴ ┴ └─┘
`

func main() {
	rootCmd := &cobra.Command{
		Use:   "urlstate",
		Short: "Bidirectional sync between reactive stores and the URL",
		Long: `urlstate keeps server-side reactive state and the browser URL
query string in sync over a WebSocket session.

The serve command runs a server with a few synchronized demo
stores; point a browser shell at it or poke the endpoints with
any WebSocket client.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(
		serveCmd(),
		versionCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "\033[31mError:\033[0m %s\n", err)
		os.Exit(1)
	}
}

// printBanner prints the urlstate ASCII art banner.
func printBanner() {
	fmt.Print(banner)
}

// info prints an info message.
func info(format string, args ...any) {
	fmt.Printf("  %s\n", fmt.Sprintf(format, args...))
}
