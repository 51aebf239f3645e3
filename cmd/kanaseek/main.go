package main

import (
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/hazyhaar/kanaseek/pkg/query"
	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"
)

const version = "0.3.0"

type searchConfig struct {
	Mode     query.Mode `yaml:"mode"`
	Limit    int        `yaml:"limit"`
	MinScore float64    `yaml:"min_score"`
}

type config struct {
	Addr          string        `yaml:"addr"`
	Dataset       string        `yaml:"dataset"`
	HistoryDB     string        `yaml:"history_db"`
	Watch         bool          `yaml:"watch"`
	WatchInterval time.Duration `yaml:"watch_interval"`
	Search        searchConfig  `yaml:"search"`
	BatchWorkers  int           `yaml:"batch_workers"`
}

func main() {
	if err := newApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:    "kanaseek",
		Usage:   "Fuzzy search over mixed Japanese/Latin tabular data",
		Version: version,
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
				Usage:   "Path to config file",
				Value:   "config.yaml",
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Start the HTTP server",
				Action: serveCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "addr",
						Usage: "Listen address (overrides config)",
					},
					&cli.StringFlag{
						Name:    "dataset",
						Aliases: []string{"d"},
						Usage:   "Dataset manifest or tabular file (overrides config)",
					},
					&cli.BoolFlag{
						Name:  "mcp",
						Usage: "Also serve the MCP tools over stdin/stdout",
					},
				},
			},
			{
				Name:      "search",
				Usage:     "Load a dataset and run one query",
				ArgsUsage: "QUERY...",
				Action:    searchCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "dataset",
						Aliases: []string{"d"},
						Usage:   "Dataset manifest or tabular file (overrides config)",
					},
					&cli.StringFlag{
						Name:    "mode",
						Aliases: []string{"m"},
						Usage:   "Search mode (and, or, plain)",
					},
					&cli.IntFlag{
						Name:    "limit",
						Aliases: []string{"n"},
						Usage:   "Maximum number of hits (0 = config default)",
					},
					&cli.StringFlag{
						Name:  "tokenizer",
						Usage: "Tokenizer strategy (linguistic, ngram3), overrides the manifest",
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Print the raw JSON response",
					},
				},
			},
			{
				Name:   "history",
				Usage:  "List recent import runs",
				Action: historyCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "db",
						Usage: "Path to the history database (overrides config)",
					},
					&cli.IntFlag{
						Name:    "limit",
						Aliases: []string{"n"},
						Usage:   "Number of runs to show",
						Value:   20,
					},
				},
			},
			{
				Name:      "init",
				Usage:     "Write a dataset.yaml manifest next to a tabular file",
				ArgsUsage: "SOURCE",
				Action:    initCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "id",
						Usage: "Dataset id (defaults to the file name)",
					},
					&cli.StringFlag{
						Name:  "tokenizer",
						Usage: "Tokenizer strategy (linguistic, ngram3)",
						Value: "linguistic",
					},
					&cli.StringFlag{
						Name:  "encoding",
						Usage: "Source encoding (e.g. shift_jis)",
					},
					&cli.StringFlag{
						Name:  "sheet",
						Usage: "Worksheet to read from an xlsx workbook",
					},
				},
			},
		},
	}
}

func setupLogger(c *cli.Context) error {
	var level slog.Level
	switch strings.ToLower(c.String("log-level")) {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", c.String("log-level"))
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	return nil
}

func defaultConfig() config {
	return config{
		Addr:          ":8430",
		Dataset:       "dataset.yaml",
		HistoryDB:     "kanaseek.db",
		Watch:         true,
		WatchInterval: 5 * time.Minute,
		Search:        searchConfig{Mode: query.And, Limit: 20},
		BatchWorkers:  8,
	}
}

// loadConfig reads path over the defaults. A missing file is not an error.
func loadConfig(path string) (config, error) {
	cfg := defaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			slog.Debug("no config file, using defaults", "path", path)
			return cfg, nil
		}
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	if cfg.BatchWorkers <= 0 {
		cfg.BatchWorkers = 1
	}
	if cfg.WatchInterval <= 0 {
		cfg.WatchInterval = 5 * time.Minute
	}
	return cfg, nil
}
