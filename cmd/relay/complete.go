package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/newthinker/relay/internal/app"
	"github.com/newthinker/relay/internal/llm"
	"github.com/newthinker/relay/internal/logger"
)

var (
	completeMaxTokens   int
	completeTemperature float64
	completeTimeout     time.Duration
)

var completeCmd = &cobra.Command{
	Use:   "complete [prompt]",
	Short: "Run a single completion from the command line",
	Long:  "Send one prompt to the configured vendor and print the completion text",
	Args:  cobra.ExactArgs(1),
	RunE:  runComplete,
}

func init() {
	completeCmd.Flags().IntVar(&completeMaxTokens, "max-tokens", 256, "Maximum tokens to generate")
	completeCmd.Flags().Float64Var(&completeTemperature, "temperature", 0, "Sampling temperature (0 uses the configured default)")
	completeCmd.Flags().DurationVar(&completeTimeout, "timeout", 2*time.Minute, "Request timeout")

	rootCmd.AddCommand(completeCmd)
}

func runComplete(cmd *cobra.Command, args []string) error {
	log := logger.Must(debug)
	defer log.Sync()

	cfg, err := loadConfig(log)
	if err != nil {
		return err
	}

	application, err := app.New(cfg, log)
	if err != nil {
		return fmt.Errorf("creating app: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), completeTimeout)
	defer cancel()

	rec, err := application.Complete(ctx, llm.CompletionRequest{
		Prompt:      args[0],
		MaxTokens:   completeMaxTokens,
		Temperature: completeTemperature,
	})
	if err != nil {
		return fmt.Errorf("completion failed: %w", err)
	}

	fmt.Println(rec.Text)
	fmt.Printf("\n[%s %s, %d tokens, %d attempt(s)]\n",
		rec.Vendor, rec.Model, rec.Usage.TotalTokens, rec.Attempts)

	return nil
}
