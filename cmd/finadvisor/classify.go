package main

import (
	"fmt"
	"strings"

	"finadvisor/internal/core"

	"github.com/spf13/cobra"
)

func classifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "classify <message...>",
		Short: "Show how a chat message is classified",
		Example: `  finadvisor classify "How should I invest my savings?"
  finadvisor classify help me budget`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			category := core.Classify(strings.Join(args, " "))
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "category: %s\nexternal label: %s\nlocal label: %s\n",
				category,
				category.QueryType(core.StrategyExternal),
				category.QueryType(core.StrategyLocal))
			return err
		},
	}
}
