package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mcpchat/mcpchat/mcp"
)

const envTemplate = "GEMINI_API_KEY=\n"

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a starter mcp.json and .env",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := mcp.WriteExampleConfig(configPath); err != nil {
			return err
		}
		fmt.Printf("Wrote %s\n", configPath)

		if err := writeEnvTemplate(".env"); err != nil {
			return err
		}
		fmt.Println("Next: put your API key in .env, then run `mcpchat serve`.")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}

func writeEnvTemplate(path string) error {
	if _, err := os.Stat(path); err == nil {
		// Never clobber an existing key.
		fmt.Printf("Keeping existing %s\n", path)
		return nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return err
	}
	if err := os.WriteFile(path, []byte(envTemplate), 0o600); err != nil {
		return err
	}
	fmt.Printf("Wrote %s\n", path)
	return nil
}
