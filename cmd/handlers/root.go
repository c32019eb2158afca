/*
Copyright © 2025 Your Name

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package handlers

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"trendpress/internal/config"
	"trendpress/internal/logger"

	"github.com/spf13/cobra"
)

var cfgFile string

// NewRootCmd creates the root command with all subcommands attached
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "trendpress",
		Short: "Trendpress writes blog posts about what developers are talking about.",
		Long: `Trendpress samples trending repositories, stories, articles and
discussions, picks a topic from a curated catalog that matches the moment,
and asks Gemini to write a post about it. Posts are stored as Markdown files
with a YAML header, one file per post, and are never overwritten.

Examples:
  # Write one post, letting trendpress pick the topic
  trendpress generate

  # Write about a specific topic
  trendpress generate --topic "Understanding CVE basics for developers"

  # Write three security posts
  trendpress batch 3 security

  # See what is trending and how catalog topics score, without writing
  trendpress trends --scores`,
		SilenceUsage: true,
	}

	// Initialize configuration
	cobra.OnInitialize(initConfig)

	// Add persistent flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.trendpress.yaml)")

	// Add subcommands
	rootCmd.AddCommand(NewGenerateCmd())
	rootCmd.AddCommand(NewBatchCmd())
	rootCmd.AddCommand(NewTrendsCmd())

	return rootCmd
}

// Execute runs the root command
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rootCmd := NewRootCmd()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		logger.Error("Command failed", err, nil)
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	// Load configuration using the centralized config module
	cfg, err := config.Load(cfgFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		os.Exit(1)
	}

	logger.Init(cfg.Logging.Level, cfg.Logging.Format)

	// Show which config file is being used (if any)
	if cfg.App.ConfigFile != "" {
		logger.Debug("Using config file", map[string]any{"path": cfg.App.ConfigFile})
	}
}
