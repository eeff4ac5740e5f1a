package main

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var sessionCmd = &cobra.Command{
	Use:   "session [id]",
	Short: "Show a conversation session",
	Long:  `Shows a session from the ledger. Only meaningful with --db, since the in-memory ledger starts empty.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runSession,
}

func init() {
	rootCmd.AddCommand(sessionCmd)
}

func runSession(cmd *cobra.Command, args []string) error {
	id, err := uuid.Parse(args[0])
	if err != nil {
		return fmt.Errorf("invalid session id: %w", err)
	}

	c, err := buildContainer(cmd.Context())
	if err != nil {
		return err
	}
	defer c.Close()

	res, err := c.QueryService.GetSession(cmd.Context(), id)
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}
	cmd.Println(string(data))
	return nil
}
