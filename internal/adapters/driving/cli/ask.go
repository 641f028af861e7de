package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/ragline/internal/core/domain"
	"github.com/custodia-labs/ragline/internal/logger"
)

var (
	askStream      bool
	askModel       string
	askTemperature float64
	askMaxTokens   int
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask a question about ingested documents",
	Long: `Retrieves the most relevant chunks, assembles them as context
and asks the configured language model. With --stream the answer is
printed incrementally as it is generated.`,
	Args: cobra.ExactArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().BoolVar(&askStream, "stream", false, "stream the answer as it is generated")
	askCmd.Flags().StringVar(&askModel, "model", "", "override the configured generation model")
	askCmd.Flags().Float64Var(&askTemperature, "temperature", 0, "override the sampling temperature")
	askCmd.Flags().IntVar(&askMaxTokens, "max-tokens", 0, "override the generation length cap")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	question := args[0]

	if generateService == nil {
		return errors.New("generate service not configured")
	}

	opts := domain.GenerateOptions{
		Model:       askModel,
		Temperature: askTemperature,
		MaxTokens:   askMaxTokens,
	}

	ctx := context.Background()

	if askStream {
		result, err := generateService.GenerateStream(ctx, question, opts, func(delta string) error {
			cmd.Print(delta)
			return nil
		})
		if err != nil {
			cmd.Println()
			return fmt.Errorf("ask failed: %w", err)
		}
		cmd.Println()
		logUsage(result)
		return nil
	}

	result, err := generateService.Generate(ctx, question, opts)
	if err != nil {
		return fmt.Errorf("ask failed: %w", err)
	}

	cmd.Println(result.Text)
	logUsage(result)
	return nil
}

func logUsage(result domain.GenerationResult) {
	if result.Usage.TotalTokens > 0 {
		logger.Info("model=%s tokens: prompt=%d completion=%d total=%d",
			result.Model, result.Usage.PromptTokens,
			result.Usage.CompletionTokens, result.Usage.TotalTokens)
	}
}
