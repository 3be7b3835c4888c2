package cmd

import (
	"github.com/huangsam/acfperiod/internal/mcp"
	"github.com/spf13/cobra"
)

// mcpCmd represents the mcp command.
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the acfperiod MCP server",
	Long: `Launch an MCP server on stdio that lets AI agents run period searches via standard tools.

Tools:
  find_period      - period of a light curve passed inline as arrays
  find_period_file - period of a CSV or Parquet light curve on disk

The finder flags given here become the defaults for every tool call.`,
	Args: cobra.NoArgs,
	PreRunE: func(cmd *cobra.Command, args []string) error {
		return sharedSetup(rootCtx, cmd, args)
	},
	RunE: func(_ *cobra.Command, _ []string) error {
		return mcp.StartMCPServer(rootCtx, cfg, cacheManager)
	},
}
