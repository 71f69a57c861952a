package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/petal-labs/toolgate/catalog"
)

// NewServersCmd creates the "servers" command group.
func NewServersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "servers",
		Short: "Manage the MCP server registry",
	}
	cmd.PersistentFlags().String("registry", "", "Path to the JSON registry file (default: per-user config dir)")
	cmd.PersistentFlags().String("sqlite", "", "Path to a SQLite registry database (overrides --registry)")

	cmd.AddCommand(newServersAddCmd())
	cmd.AddCommand(newServersRemoveCmd())
	cmd.AddCommand(newServersListCmd())
	cmd.AddCommand(newServersShowCmd())
	cmd.AddCommand(newServersEnableCmd())
	cmd.AddCommand(newServersDisableCmd())

	return cmd
}

// resolveRegistry opens the registry selected by flags/environment and
// loads its current state. The returned cleanup closes SQLite handles.
func resolveRegistry(cmd *cobra.Command) (*catalog.Registry, func(), error) {
	noop := func() {}

	if sqlitePath, _ := cmd.Flags().GetString("sqlite"); strings.TrimSpace(sqlitePath) != "" {
		backend, err := catalog.NewSQLiteBackend(strings.TrimSpace(sqlitePath))
		if err != nil {
			return nil, noop, exitError(exitRuntime, "opening registry database: %v", err)
		}
		registry := catalog.NewRegistry(backend)
		if err := registry.Load(); err != nil {
			_ = backend.Close()
			return nil, noop, exitError(exitRuntime, "loading registry: %v", err)
		}
		return registry, func() { _ = backend.Close() }, nil
	}

	path, _ := cmd.Flags().GetString("registry")
	if strings.TrimSpace(path) == "" {
		path = os.Getenv("TOOLGATE_REGISTRY_PATH")
	}

	var registry *catalog.Registry
	if strings.TrimSpace(path) == "" {
		var err error
		registry, err = catalog.NewDefaultRegistry()
		if err != nil {
			return nil, noop, exitError(exitRuntime, "resolving registry path: %v", err)
		}
	} else {
		registry = catalog.NewRegistry(catalog.NewFileBackend(strings.TrimSpace(path)))
	}
	if err := registry.Load(); err != nil {
		return nil, noop, exitError(exitRuntime, "loading registry: %v", err)
	}
	return registry, noop, nil
}

func newServersAddCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Add or replace a server definition",
		Args:  cobra.ExactArgs(1),
		RunE:  runServersAdd,
	}
	cmd.Flags().String("transport", "", "Transport kind: stdio | http")
	cmd.Flags().String("command", "", "Command to launch (stdio transport)")
	cmd.Flags().StringArray("arg", nil, "Command argument (repeatable, stdio transport)")
	cmd.Flags().String("url", "", "Server endpoint (http transport)")
	cmd.Flags().String("auth-type", "", "HTTP auth scheme, e.g. bearer")
	cmd.Flags().String("token-env", "", "Environment variable holding the auth token")
	cmd.Flags().String("description", "", "Human-readable description")
	cmd.Flags().Bool("disabled", false, "Register the server in a disabled state")
	return cmd
}

func runServersAdd(cmd *cobra.Command, args []string) error {
	def, err := definitionFromFlags(cmd, args[0])
	if err != nil {
		return err
	}

	registry, cleanup, err := resolveRegistry(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	if err := registry.AddServer(def); err != nil {
		return exitError(exitValidation, "%v", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Added server: %s (%s)\n", def.Name, def.Transport)
	return nil
}

func definitionFromFlags(cmd *cobra.Command, name string) (catalog.ServerDefinition, error) {
	transport, _ := cmd.Flags().GetString("transport")
	description, _ := cmd.Flags().GetString("description")
	disabled, _ := cmd.Flags().GetBool("disabled")

	def := catalog.ServerDefinition{
		Name:        strings.TrimSpace(name),
		Transport:   strings.TrimSpace(transport),
		Description: strings.TrimSpace(description),
	}
	if disabled {
		enabled := false
		def.Enabled = &enabled
	}

	switch def.Transport {
	case catalog.TransportStdio:
		command, _ := cmd.Flags().GetString("command")
		cmdArgs, _ := cmd.Flags().GetStringArray("arg")
		def.Stdio = &catalog.StdioConfig{
			Command: strings.TrimSpace(command),
			Args:    cmdArgs,
		}
	case catalog.TransportHTTP:
		url, _ := cmd.Flags().GetString("url")
		def.HTTP = &catalog.HTTPConfig{URL: strings.TrimSpace(url)}
		authType, _ := cmd.Flags().GetString("auth-type")
		tokenEnv, _ := cmd.Flags().GetString("token-env")
		if strings.TrimSpace(authType) != "" || strings.TrimSpace(tokenEnv) != "" {
			def.HTTP.Auth = &catalog.HTTPAuth{
				Type:     strings.TrimSpace(authType),
				TokenEnv: strings.TrimSpace(tokenEnv),
			}
		}
	default:
		return catalog.ServerDefinition{}, exitError(exitValidation, "--transport must be %q or %q", catalog.TransportStdio, catalog.TransportHTTP)
	}
	return def, nil
}

func newServersRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <name>",
		Short: "Remove a server definition",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			registry, cleanup, err := resolveRegistry(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			removed, err := registry.RemoveServer(args[0])
			if err != nil {
				return exitError(exitRuntime, "removing server: %v", err)
			}
			if !removed {
				return exitError(exitValidation, "server %q is not registered", args[0])
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed server: %s\n", args[0])
			return nil
		},
	}
}

func newServersListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List registered servers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			registry, cleanup, err := resolveRegistry(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			writer := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 2, 2, ' ', 0)
			fmt.Fprintln(writer, "NAME\tTRANSPORT\tTARGET\tENABLED\tDESCRIPTION")
			for _, def := range registry.ListServers() {
				description := def.Description
				if description == "" {
					description = "-"
				}
				fmt.Fprintf(
					writer,
					"%s\t%s\t%s\t%t\t%s\n",
					def.Name,
					def.Transport,
					definitionTarget(def),
					def.IsEnabled(),
					description,
				)
			}
			return writer.Flush()
		},
	}
}

func definitionTarget(def catalog.ServerDefinition) string {
	switch {
	case def.Stdio != nil:
		if len(def.Stdio.Args) == 0 {
			return def.Stdio.Command
		}
		return def.Stdio.Command + " " + strings.Join(def.Stdio.Args, " ")
	case def.HTTP != nil:
		return def.HTTP.URL
	}
	return "-"
}

func newServersShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <name>",
		Short: "Show one server definition as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			registry, cleanup, err := resolveRegistry(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			def, ok := registry.GetServer(args[0])
			if !ok {
				return exitError(exitValidation, "server %q is not registered", args[0])
			}
			encoded, err := json.MarshalIndent(def, "", "  ")
			if err != nil {
				return exitError(exitRuntime, "encoding server: %v", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(encoded))
			return nil
		},
	}
}

func newServersEnableCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "enable <name>",
		Short: "Enable a server",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return setServerEnabled(cmd, args[0], true)
		},
	}
}

func newServersDisableCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "disable <name>",
		Short: "Disable a server without removing it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return setServerEnabled(cmd, args[0], false)
		},
	}
}

func setServerEnabled(cmd *cobra.Command, name string, enabled bool) error {
	registry, cleanup, err := resolveRegistry(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	def, ok := registry.GetServer(name)
	if !ok {
		return exitError(exitValidation, "server %q is not registered", name)
	}
	def.Enabled = &enabled
	if err := registry.AddServer(def); err != nil {
		return exitError(exitRuntime, "updating server: %v", err)
	}

	state := "enabled"
	if !enabled {
		state = "disabled"
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Server %s is now %s\n", name, state)
	return nil
}
