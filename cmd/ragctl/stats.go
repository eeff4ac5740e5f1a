package main

import (
	"book-rag-be/internal/entity"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Count sessions, queries and responses in the ledger",
	Args:  cobra.NoArgs,
	RunE:  runStats,
}

func init() {
	rootCmd.AddCommand(statsCmd)
}

func runStats(cmd *cobra.Command, args []string) error {
	c, err := buildContainer(cmd.Context())
	if err != nil {
		return err
	}
	defer c.Close()

	st, err := c.Stats.Stats(cmd.Context())
	if err != nil {
		return err
	}

	bold := color.New(color.Bold)
	bold.Fprintln(cmd.OutOrStdout(), "Ledger")
	cmd.Printf("  sessions:  %d\n", st.Sessions)
	cmd.Printf("  queries:   %d\n", st.Queries)
	cmd.Printf("  responses: %d\n", st.Responses)
	color.New(color.FgGreen).Fprintf(cmd.OutOrStdout(), "    passed:  %d\n", st.ByStatus[entity.ValidationPassed])
	color.New(color.FgRed).Fprintf(cmd.OutOrStdout(), "    failed:  %d\n", st.ByStatus[entity.ValidationFailed])
	if n := st.ByStatus[entity.ValidationPending]; n > 0 {
		color.New(color.FgYellow).Fprintf(cmd.OutOrStdout(), "    pending: %d\n", n)
	}
	return nil
}
