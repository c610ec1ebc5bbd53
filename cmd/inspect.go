package cmd

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/mcpchat/mcpchat/mcp"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect [server]",
	Short: "Connect to configured servers and list their capabilities",
	Long: `Connect to the named server from the config file and print the
prompts, resources, and tools it offers. With no argument, every
configured server is probed.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runInspect,
}

func init() {
	rootCmd.AddCommand(inspectCmd)
}

func runInspect(cmd *cobra.Command, args []string) error {
	config, err := mcp.LoadConfig(configPath)
	if err != nil {
		return err
	}

	ctx := cmd.Context()

	if len(args) == 1 {
		name := args[0]
		serverConfig, ok := config.Server(name)
		if !ok {
			return fmt.Errorf("server %q is not in %s", name, configPath)
		}
		session, err := mcp.Connect(ctx, name, serverConfig)
		if err != nil {
			return err
		}
		defer session.Close()
		printSession(session)
		return nil
	}

	sessions, err := mcp.ConnectAll(ctx, config)
	if err != nil {
		return err
	}
	names := make([]string, 0, len(sessions))
	for name := range sessions {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		session := sessions[name]
		printSession(session)
		session.Close()
	}
	return nil
}

func printSession(session *mcp.Session) {
	fmt.Printf("%s (%s %s)\n", session.Name, session.Server.Name, session.Server.Version)

	fmt.Println("  Prompts:")
	if len(session.Prompts) == 0 {
		fmt.Println("    (none)")
	}
	for _, prompt := range session.Prompts {
		fmt.Printf("    %s: %s\n", prompt.Name, orNone(prompt.Description))
	}

	fmt.Println("  Resources:")
	if len(session.Resources) == 0 {
		fmt.Println("    (none)")
	}
	for _, resource := range session.Resources {
		fmt.Printf("    %s: %s\n", resource.URI, orNone(resource.Name))
	}

	fmt.Println("  Tools:")
	if len(session.Tools) == 0 {
		fmt.Println("    (none)")
	}
	for _, tool := range session.Tools {
		fmt.Printf("    %s: %s\n", tool.Name, orNone(tool.Description))
	}

	for _, warning := range session.Warnings {
		fmt.Printf("  Warning: %s\n", warning)
	}
	fmt.Println()
}

func orNone(s string) string {
	if s == "" {
		return "(no description)"
	}
	return s
}
