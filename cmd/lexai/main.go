// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/fatih/color"
	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"

	"github.com/AvazbekNurmatov/lex-ai/config"
)

func main() {
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newApp().RunContext(ctx, os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "lexai",
		Usage: "Semantic search over consolidated legal texts",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to YAML config file",
				Value:   "lexai.yaml",
			},
			&cli.StringFlag{
				Name:    "db",
				Aliases: []string{"d"},
				Usage:   "Path to BadgerDB database directory (overrides config)",
			},
			&cli.StringFlag{
				Name:  "embedding-host",
				Usage: "Embedding service host URL (overrides config)",
			},
			&cli.StringFlag{
				Name:  "embedding-model",
				Usage: "Embedding model name (overrides config)",
			},
			&cli.BoolFlag{
				Name:  "no-color",
				Usage: "Disable colored output",
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:      "consolidate",
				Usage:     "Merge legal text fragments into paragraph records",
				ArgsUsage: " ",
				Action:    consolidateCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "input",
						Aliases:  []string{"i"},
						Usage:    "Fragment CSV file (law_act_id, paragraph_id, text, is_clause_default)",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "output",
						Aliases:  []string{"o"},
						Usage:    "Paragraph CSV file to write",
						Required: true,
					},
					&cli.IntFlag{
						Name:  "min-words",
						Usage: "Fragments shorter than this are merged into the previous paragraph (overrides config)",
					},
					&cli.IntFlag{
						Name:  "pool-size",
						Usage: "Number of documents consolidated concurrently (overrides config)",
					},
				},
			},
			{
				Name:   "build",
				Usage:  "Embed paragraph CSV files and persist the index",
				Action: buildCommand,
				Flags: []cli.Flag{
					&cli.StringSliceFlag{
						Name:    "input",
						Aliases: []string{"i"},
						Usage:   "Paragraph CSV files or directories holding numbered CSV files (default: current directory)",
					},
					&cli.IntFlag{
						Name:  "batch-size",
						Usage: "Number of paragraphs embedded per request (overrides config)",
					},
					&cli.BoolFlag{
						Name:  "append",
						Usage: "Add the paragraphs after the rows already indexed",
					},
					&cli.BoolFlag{
						Name:  "reset",
						Usage: "Remove the stored index before building",
					},
				},
			},
			{
				Name:      "query",
				Usage:     "Find the paragraphs most similar to a query",
				ArgsUsage: "<query text>",
				Action:    queryCommand,
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:    "top-k",
						Aliases: []string{"k"},
						Usage:   "Number of results to return (overrides config)",
					},
					&cli.Float64Flag{
						Name:  "min-score",
						Usage: "Drop results scoring below this similarity",
					},
				},
			},
			{
				Name:   "rebuild",
				Usage:  "Re-embed every stored paragraph with the configured model",
				Action: rebuildCommand,
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "batch-size",
						Usage: "Number of paragraphs to process in each batch (overrides config)",
					},
					&cli.IntFlag{
						Name:  "max-retries",
						Usage: "Maximum attempts per embedding request (overrides config)",
					},
					&cli.DurationFlag{
						Name:  "retry-delay",
						Usage: "Base delay for exponential backoff (overrides config)",
					},
				},
			},
			{
				Name:   "stats",
				Usage:  "Show the persisted index summary",
				Action: statsCommand,
			},
		},
	}
}

func setupLogger(c *cli.Context) error {
	// Get log level from flag and normalize to lowercase
	levelStr := strings.ToLower(c.String("log-level"))

	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	if c.Bool("no-color") {
		color.NoColor = true
	}
	return nil
}

// loadConfig reads the config file, then applies environment and
// command-line overrides in that order.
func loadConfig(c *cli.Context) (*config.AppConfig, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return nil, err
	}
	cfg.ApplyEnv()

	if c.IsSet("db") {
		cfg.Index.Path = c.String("db")
	}
	if c.IsSet("embedding-host") {
		cfg.AI.EmbeddingHost = c.String("embedding-host")
	}
	if c.IsSet("embedding-model") {
		cfg.AI.EmbeddingModel = c.String("embedding-model")
	}
	return cfg, nil
}
