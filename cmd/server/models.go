package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/developia-II/feedback-analyzer-backend/internal/models"
	"github.com/developia-II/feedback-analyzer-backend/internal/services"
)

const defaultModelsTimeout = 30 * time.Second

func runModels(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(false)
	if err != nil {
		return err
	}
	if cfg.AIAPIKey == "" {
		return errors.New("AI_API_KEY (or GOOGLE_API_KEY) is required")
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), modelsTimeoutFlag)
	defer cancel()

	list, err := services.NewOpenAIGenerator(cfg.AIAPIKey, cfg.AIBaseURL).ListModels(ctx)
	if err != nil {
		return fmt.Errorf("list models: %w", err)
	}
	return printModels(cmd.OutOrStdout(), list)
}

func printModels(w io.Writer, list []models.ModelInfo) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tOWNED BY")
	for _, m := range list {
		fmt.Fprintf(tw, "%s\t%s\n", m.Name, m.OwnedBy)
	}
	return tw.Flush()
}
