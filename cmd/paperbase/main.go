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
	"strings"
	"time"

	"github.com/poiesic/paperbase"
	"github.com/poiesic/paperbase/ai"
	"github.com/poiesic/paperbase/arxiv"
	"github.com/poiesic/paperbase/core"
	"github.com/poiesic/paperbase/ingestion"
	"github.com/poiesic/paperbase/pdftext"
	"github.com/poiesic/paperbase/reembed"
	"github.com/urfave/cli/v2"
)

func main() {
	embeddingFlags := []cli.Flag{
		&cli.StringFlag{
			Name:  "embedding-host",
			Usage: "Embedding service host URL",
			Value: "http://localhost:11434/v1",
		},
		&cli.StringFlag{
			Name:  "embedding-model",
			Usage: "Embedding model name",
			Value: "text-embedding-3-small",
		},
		&cli.StringFlag{
			Name:    "api-key",
			Usage:   "Embedding service API key",
			EnvVars: []string{"PAPERBASE_API_KEY"},
			Value:   "none",
		},
		&cli.IntFlag{
			Name:  "dimension",
			Usage: "Embedding vector dimension",
			Value: ai.DefaultDimension,
		},
	}

	dbFlag := &cli.StringFlag{
		Name:     "db",
		Aliases:  []string{"d"},
		Usage:    "Path to BadgerDB database directory",
		Required: true,
	}

	app := &cli.App{
		Name:  "paperbase",
		Usage: "Semantic search engine for scientific papers",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:   "fetch",
				Usage:  "Download papers from arXiv into a local directory",
				Action: fetchCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "query",
						Aliases:  []string{"q"},
						Usage:    "arXiv search query",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "dir",
						Usage: "Directory to store downloaded PDFs",
						Value: "papers",
					},
					&cli.IntFlag{
						Name:  "max-results",
						Usage: "Maximum number of papers to fetch",
						Value: 10,
					},
				},
			},
			{
				Name:   "seed",
				Usage:  "Ingest a directory of PDF papers into the database",
				Action: seedCommand,
				Flags: append([]cli.Flag{
					dbFlag,
					&cli.StringFlag{
						Name:  "dir",
						Usage: "Directory containing PDF files",
						Value: "papers",
					},
					&cli.BoolFlag{
						Name:  "placeholder",
						Usage: "Fall back to placeholder vectors when embedding fails",
					},
					&cli.IntFlag{
						Name:  "pool-size",
						Usage: "Worker pool size for concurrent processing",
					},
					&cli.IntFlag{
						Name:  "max-chars",
						Usage: "Maximum characters per chunk",
						Value: core.DefaultMaxChars,
					},
					&cli.IntFlag{
						Name:  "overlap",
						Usage: "Number of sentences to overlap between chunks",
						Value: core.DefaultOverlapSentences,
					},
				}, embeddingFlags...),
			},
			{
				Name:      "search",
				Usage:     "Search stored papers for chunks similar to a query",
				ArgsUsage: "<query>",
				Action:    searchCommand,
				Flags: append([]cli.Flag{
					dbFlag,
					&cli.IntFlag{
						Name:    "max-hits",
						Aliases: []string{"n"},
						Usage:   "Maximum number of results",
						Value:   5,
					},
				}, embeddingFlags...),
			},
			{
				Name:      "chunk",
				Usage:     "Chunk a single PDF and print the pieces (debugging aid)",
				ArgsUsage: "<file.pdf>",
				Action:    chunkCommand,
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "max-chars",
						Usage: "Maximum characters per chunk",
						Value: core.DefaultMaxChars,
					},
					&cli.IntFlag{
						Name:  "overlap",
						Usage: "Number of sentences to overlap between chunks",
						Value: core.DefaultOverlapSentences,
					},
				},
			},
			{
				Name:   "get-chunk",
				Usage:  "Print a stored chunk by paper ID and chunk index",
				Action: getChunkCommand,
				Flags: []cli.Flag{
					dbFlag,
					&cli.Uint64Flag{
						Name:     "paper",
						Aliases:  []string{"p"},
						Usage:    "Paper ID",
						Required: true,
					},
					&cli.IntFlag{
						Name:    "index",
						Aliases: []string{"i"},
						Usage:   "Chunk index within the paper",
					},
				},
			},
			{
				Name:   "reembed",
				Usage:  "Reembed all stored chunks with new embeddings",
				Action: reembedCommand,
				Flags: append([]cli.Flag{
					dbFlag,
					&cli.IntFlag{
						Name:  "batch-size",
						Usage: "Number of chunks to process in each batch",
						Value: 100,
					},
					&cli.IntFlag{
						Name:  "report-interval",
						Usage: "Report progress every N chunks",
						Value: 100,
					},
					&cli.IntFlag{
						Name:  "max-retries",
						Usage: "Maximum retry attempts for failed operations",
						Value: 3,
					},
					&cli.DurationFlag{
						Name:  "retry-delay",
						Usage: "Base delay for exponential backoff",
						Value: 1 * time.Second,
					},
				}, embeddingFlags...),
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func aiConfigFromFlags(c *cli.Context) (*ai.Config, error) {
	config := ai.NewConfig(
		ai.WithHost(c.String("embedding-host")),
		ai.WithModel(c.String("embedding-model")),
		ai.WithAPIKey(c.String("api-key")),
		ai.WithDimension(c.Int("dimension")),
		ai.WithPlaceholderFallback(c.Bool("placeholder")),
	)
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid AI configuration: %w", err)
	}
	return config, nil
}

func fetchCommand(c *cli.Context) error {
	client := arxiv.NewClient()

	downloaded, err := client.FetchAll(context.Background(),
		c.String("query"), c.Int("max-results"), c.String("dir"))
	if err != nil {
		return fmt.Errorf("fetch failed: %w", err)
	}

	fmt.Fprintf(os.Stderr, "Downloaded %d new papers to %s\n", downloaded, c.String("dir"))
	return nil
}

func seedCommand(c *cli.Context) error {
	ctx := context.Background()

	aiConfig, err := aiConfigFromFlags(c)
	if err != nil {
		return err
	}

	db, err := paperbase.NewDatabase(c.String("db"), paperbase.WithAIConfig(aiConfig))
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	var opts []ingestion.Option
	if size := c.Int("pool-size"); size > 0 {
		opts = append(opts, ingestion.WithPoolSize(size))
	}
	opts = append(opts, ingestion.WithChunkLimits(c.Int("max-chars"), c.Int("overlap")))

	pipeline, err := db.NewIngestionPipeline(opts...)
	if err != nil {
		return fmt.Errorf("failed to create pipeline: %w", err)
	}
	defer pipeline.Release()

	results, err := pipeline.IngestDirectory(ctx, c.String("dir"))
	if err != nil {
		return fmt.Errorf("seeding failed: %w", err)
	}

	ingested, skipped, chunks := 0, 0, 0
	for _, result := range results {
		if result.Skipped {
			skipped++
			continue
		}
		ingested++
		chunks += result.Chunks
	}

	fmt.Fprintf(os.Stderr, "Seeded %d papers (%d chunks, %d already present)\n",
		ingested, chunks, skipped)
	return nil
}

func searchCommand(c *cli.Context) error {
	ctx := context.Background()

	query := strings.TrimSpace(strings.Join(c.Args().Slice(), " "))
	if query == "" {
		return fmt.Errorf("a search query is required")
	}

	aiConfig, err := aiConfigFromFlags(c)
	if err != nil {
		return err
	}

	db, err := paperbase.NewDatabase(c.String("db"), paperbase.WithAIConfig(aiConfig))
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	searcher, err := db.NewSearcher()
	if err != nil {
		return fmt.Errorf("failed to create searcher: %w", err)
	}

	results, err := searcher.Search(ctx, query, c.Int("max-hits"))
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if len(results) == 0 {
		fmt.Println("No results found.")
		return nil
	}

	for i, result := range results {
		fmt.Printf("%d. [%.4f] %s (paper %d, chunk %d",
			i+1, result.Similarity, result.PaperFileName, result.PaperId, result.Metadata.ChunkIndex)
		if result.Metadata.PageNumber > 0 {
			fmt.Printf(", p. %d", result.Metadata.PageNumber)
		}
		fmt.Println(")")
		fmt.Println(indent(result.ChunkText, "   "))
		fmt.Println()
	}
	return nil
}

func chunkCommand(c *cli.Context) error {
	if c.Args().Len() != 1 {
		return fmt.Errorf("exactly one PDF file is required")
	}
	path := c.Args().First()

	text, pages, err := pdftext.NewExtractor().ExtractText(path)
	if err != nil {
		return fmt.Errorf("failed to extract text: %w", err)
	}

	pieces := core.ChunkText(text, c.Int("max-chars"), c.Int("overlap"))
	fmt.Printf("%s: %d pages, %d chunks\n\n", path, pages, len(pieces))
	for i, piece := range pieces {
		fmt.Printf("--- chunk %d (%d chars) ---\n%s\n\n", i, len([]rune(piece)), piece)
	}
	return nil
}

func getChunkCommand(c *cli.Context) error {
	ctx := context.Background()

	db, err := paperbase.NewDatabase(c.String("db"))
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	paperID := core.ID(c.Uint64("paper"))
	chunk, err := db.ChunkRepository().GetChunkByIndex(ctx, paperID, c.Int("index"))
	if err != nil {
		return fmt.Errorf("failed to load chunk: %w", err)
	}

	if paper, err := db.PaperRepository().GetPaper(ctx, paperID); err == nil {
		fmt.Printf("%s, chunk %d", paper.FileName, chunk.Metadata.ChunkIndex)
	} else {
		fmt.Printf("paper %d, chunk %d", paperID, chunk.Metadata.ChunkIndex)
	}
	if chunk.Metadata.PageNumber > 0 {
		fmt.Printf(" (p. %d)", chunk.Metadata.PageNumber)
	}
	fmt.Println()
	fmt.Println(chunk.Text)
	return nil
}

func reembedCommand(c *cli.Context) error {
	ctx := context.Background()

	aiConfig, err := aiConfigFromFlags(c)
	if err != nil {
		return err
	}

	db, err := paperbase.NewDatabase(c.String("db"), paperbase.WithAIConfig(aiConfig))
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	reembedConfig := &reembed.Config{
		BatchSize:      c.Int("batch-size"),
		ReportInterval: c.Int("report-interval"),
		MaxRetries:     c.Int("max-retries"),
		RetryDelay:     c.Duration("retry-delay"),
	}

	// Validate config
	if reembedConfig.BatchSize <= 0 {
		return fmt.Errorf("batch-size must be greater than 0")
	}
	if reembedConfig.ReportInterval <= 0 {
		return fmt.Errorf("report-interval must be greater than 0")
	}
	if reembedConfig.MaxRetries <= 0 {
		return fmt.Errorf("max-retries must be greater than 0")
	}

	reembedder := db.NewReembedder(reembedConfig, os.Stderr)

	fmt.Fprintf(os.Stderr, "Database: %s\n", c.String("db"))
	fmt.Fprintf(os.Stderr, "Embedding host: %s\n", c.String("embedding-host"))
	fmt.Fprintf(os.Stderr, "Embedding model: %s\n", c.String("embedding-model"))
	fmt.Fprintln(os.Stderr)

	if err := reembedder.Run(ctx); err != nil {
		return fmt.Errorf("reembedding failed: %w", err)
	}

	return nil
}

func indent(s, prefix string) string {
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = prefix + line
	}
	return strings.Join(lines, "\n")
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

	return nil
}
