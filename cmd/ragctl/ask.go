package main

import (
	"context"
	"encoding/json"
	"fmt"

	"book-rag-be/internal/dto"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var (
	askMode    string
	askPassage string
	askSession string
	askJSON    bool
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Answer a question from the indexed content",
	Args:  cobra.ExactArgs(1),
	RunE:  runAsk,
}

func init() {
	askCmd.Flags().StringVar(&askMode, "mode", "FULL_CORPUS", "context mode: FULL_CORPUS or SELECTED_PASSAGE")
	askCmd.Flags().StringVar(&askPassage, "passage", "", "selected passage for SELECTED_PASSAGE mode")
	askCmd.Flags().StringVar(&askSession, "session", "", "session id to continue")
	askCmd.Flags().BoolVar(&askJSON, "json", false, "output the response as JSON")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	c, err := buildContainer(ctx)
	if err != nil {
		return err
	}
	defer c.Close()

	req := &dto.ContextModeQueryRequest{Query: args[0], ContextMode: askMode}
	if askPassage != "" {
		req.SelectedText = &askPassage
	}
	if askSession != "" {
		id, err := uuid.Parse(askSession)
		if err != nil {
			return fmt.Errorf("invalid session id: %w", err)
		}
		req.SessionId = &id
	}

	res, err := c.QueryService.AskByContextMode(ctx, nil, req)
	if err != nil {
		return err
	}

	if askJSON {
		data, err := json.MarshalIndent(res, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal response: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	cmd.Println(res.Answer)
	cmd.Println()
	cmd.Printf("Status: %s (%s)\n", res.ValidationStatus, res.State)
	cmd.Printf("Session: %s\n", res.SessionId)
	if len(res.SourceReferences) > 0 {
		cmd.Println("Sources:")
		for i, ref := range res.SourceReferences {
			score := 0.0
			if ref.RelevanceScore != nil {
				score = *ref.RelevanceScore
			}
			cmd.Printf("  [%d] %s (%.2f)\n", i+1, ref.Reference, score)
		}
	}
	return nil
}
