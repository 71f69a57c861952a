package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/petal-labs/toolgate/cli"
)

// Set via ldflags at build time.
var version = "dev"

func main() {
	if err := rootCmd.Execute(); err != nil {
		var exitErr *cli.ExitError
		if errors.As(err, &exitErr) {
			os.Exit(exitErr.Code)
		}
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "toolgate",
	Short: "Toolgate MCP server registry CLI",
	Long:  "Toolgate — manage the catalog of MCP servers an agent host connects to.",
	// SilenceUsage prevents printing usage on every error
	SilenceUsage: true,
}

func init() {
	rootCmd.Version = version
	rootCmd.SetVersionTemplate(fmt.Sprintf("toolgate version %s\n", version))

	rootCmd.AddCommand(cli.NewServersCmd())
	rootCmd.AddCommand(cli.NewImportCmd())
}
