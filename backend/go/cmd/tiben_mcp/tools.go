package main

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"tiben-mcp/backend/go/internal/tools"
)

var toolsCmd = &cobra.Command{
	Use:   "tools",
	Short: "Print the tool definitions as JSON",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		enc.SetEscapeHTML(false)
		return enc.Encode(tools.Definitions())
	},
}

func init() {
	rootCmd.AddCommand(toolsCmd)
}
