// Package main provides a local runner for the image labeler: it runs the
// same handler as the Lambda function against real AWS services.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pricofy/image-labeler/cmd/labeler/commands"
	"github.com/pricofy/image-labeler/internal/app"
	"github.com/pricofy/image-labeler/internal/config"
)

func main() {
	ctx := context.Background()

	cfg, dotenv, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	a, err := app.Build(ctx, cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize: %v\n", err)
		os.Exit(1)
	}
	if !dotenv {
		a.Logger.Debug("no .env file found")
	}

	rootCmd := &cobra.Command{
		Use:   "labeler",
		Short: "Run the image labeler locally",
		Long: `Run the image labeler locally.

Uses the default AWS credential chain for Rekognition and Translate.
Settings are read from the environment and an optional .env file.`,
		SilenceUsage: true,
	}
	rootCmd.AddCommand(commands.InvokeCommand(a.Handler))
	rootCmd.AddCommand(commands.ServeCommand(a.Handler, a.Logger))

	err = rootCmd.ExecuteContext(ctx)
	a.Close(ctx)
	if err != nil {
		os.Exit(1)
	}
}
