package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/auracore/styleforge/internal/database/enum"
	"github.com/auracore/styleforge/internal/database/models"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

func newFeedbackCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "feedback <event.json>",
		Short: "Apply one feedback event to token weights",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFeedback(cmd.Context(), args[0])
		},
	}
}

// feedbackEventPayload mirrors the feedback endpoint's wire shape exactly, so
// an operator can hand this command the same JSON a client would submit.
type feedbackEventPayload struct {
	UserID       string            `json:"user_id"`
	ImageID      uuid.UUID         `json:"image_id"`
	GenerationID uuid.UUID         `json:"generation_id"`
	FeedbackType enum.FeedbackType `json:"type"`
	TokensUsed   models.TokensUsed `json:"tokens_used"`
	TimeViewedMS *int64            `json:"time_viewed_ms"`
}

func runFeedback(ctx context.Context, path string) error {
	app, err := bootstrap(ctx)
	if err != nil {
		return err
	}
	defer app.Close()

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read feedback event %s: %w", path, err)
	}

	var event feedbackEventPayload
	if err := json.Unmarshal(data, &event); err != nil {
		return fmt.Errorf("parse feedback event: %w", err)
	}

	if err := app.orch.SubmitFeedback(ctx, event.UserID, event.ImageID, event.GenerationID, event.FeedbackType, event.TokensUsed, event.TimeViewedMS); err != nil {
		return fmt.Errorf("submit feedback: %w", err)
	}

	fmt.Println("feedback applied")

	return nil
}
