package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mscrnt/emgd_confgen/internal/version"
)

var (
	// Build variables set by ldflags
	buildVersion string
	buildCommit  string
	buildTime    string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "emgdconf",
		Short: "EMGD display configuration generator",
		Long: `emgdconf turns a display form (ports, timing descriptors, attributes and
colour corrections) into an X server configuration for the EMGD driver.`,
		Version:      version.GetVersion(buildVersion, buildCommit, buildTime),
		SilenceUsage: true,
	}

	rootCmd.AddCommand(versionCmd())
	rootCmd.AddCommand(generateCmd())
	rootCmd.AddCommand(timingCmd())
	rootCmd.AddCommand(profileCmd())
	rootCmd.AddCommand(catalogCmd())
	rootCmd.AddCommand(historyCmd())
	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(certCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(_ *cobra.Command, _ []string) {
			fmt.Println(version.GetDetailedVersion(buildVersion, buildCommit, buildTime))
		},
	}
}
