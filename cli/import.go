package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/petal-labs/toolgate/catalog"
)

// NewImportCmd creates the "import" command.
func NewImportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import <path>",
		Short: "Import server definitions from a config file",
		Long: "Import server definitions from a standalone JSON catalog, or from the\n" +
			"mcp section of a host project config with --host. Invalid entries are\n" +
			"dropped; valid ones are kept.",
		Args: cobra.ExactArgs(1),
		RunE: runImport,
	}
	cmd.Flags().String("registry", "", "Path to the JSON registry file (default: per-user config dir)")
	cmd.Flags().String("sqlite", "", "Path to a SQLite registry database (overrides --registry)")
	cmd.Flags().Bool("host", false, "Treat the file as a host project config (mcp.servers section)")
	cmd.Flags().Bool("merge", true, "Merge with existing entries (imported names win); with --merge=false the registry is replaced")
	return cmd
}

func runImport(cmd *cobra.Command, args []string) error {
	host, _ := cmd.Flags().GetBool("host")
	merge, _ := cmd.Flags().GetBool("merge")

	var (
		imported []catalog.ServerDefinition
		err      error
	)
	if host {
		imported, err = catalog.LoadHostConfig(args[0])
	} else {
		imported, err = catalog.LoadStandaloneConfig(args[0])
	}
	if err != nil {
		return exitError(exitValidation, "%v", err)
	}
	if len(imported) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No server definitions found")
		return nil
	}

	registry, cleanup, err := resolveRegistry(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	if !merge {
		for _, def := range registry.ListServers() {
			if _, err := registry.RemoveServer(def.Name); err != nil {
				return exitError(exitRuntime, "clearing registry: %v", err)
			}
		}
	}
	for _, def := range imported {
		if err := registry.AddServer(def); err != nil {
			return exitError(exitValidation, "importing %q: %v", def.Name, err)
		}
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Imported %d server(s) into %s\n", len(imported), registry.Path())
	return nil
}
