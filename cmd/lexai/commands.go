package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/urfave/cli/v2"

	lexai "github.com/AvazbekNurmatov/lex-ai"
	"github.com/AvazbekNurmatov/lex-ai/config"
	"github.com/AvazbekNurmatov/lex-ai/consolidation"
	"github.com/AvazbekNurmatov/lex-ai/core"
	"github.com/AvazbekNurmatov/lex-ai/index"
	"github.com/AvazbekNurmatov/lex-ai/rebuild"
	"github.com/AvazbekNurmatov/lex-ai/search"
	"github.com/AvazbekNurmatov/lex-ai/source"
)

func consolidateCommand(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	if c.IsSet("min-words") {
		cfg.Consolidation.MinWords = c.Int("min-words")
	}
	if c.IsSet("pool-size") {
		cfg.Consolidation.PoolSize = c.Int("pool-size")
	}
	if cfg.Consolidation.MinWords <= 0 {
		return fmt.Errorf("min-words must be greater than 0")
	}

	in, err := os.Open(c.String("input"))
	if err != nil {
		return fmt.Errorf("failed to open fragments: %w", err)
	}
	defer in.Close()

	src, err := source.NewCSVFragmentSource(in)
	if err != nil {
		return fmt.Errorf("failed to read fragments: %w", err)
	}

	opts := []consolidation.Option{consolidation.WithThreshold(cfg.Consolidation.MinWords)}
	if cfg.Consolidation.PoolSize > 0 {
		opts = append(opts, consolidation.WithPoolSize(cfg.Consolidation.PoolSize))
	}
	pipeline, err := consolidation.NewPipeline(opts...)
	if err != nil {
		return fmt.Errorf("failed to create pipeline: %w", err)
	}
	defer pipeline.Release()

	records, err := pipeline.RunSource(c.Context, src)
	if err != nil {
		return fmt.Errorf("consolidation failed: %w", err)
	}

	if err := source.WriteParagraphFile(c.String("output"), records); err != nil {
		return fmt.Errorf("failed to write paragraphs: %w", err)
	}

	stats := pipeline.Stats()
	out := c.App.ErrWriter
	fmt.Fprintf(out, "Fragments: %d (default clauses: %d, skipped rows: %d)\n",
		stats.Fragments, stats.DefaultClauses, src.Skipped())
	fmt.Fprintf(out, "Paragraphs: %d (merged: %d, orphan clauses: %d)\n",
		stats.Paragraphs, stats.Merged, stats.Orphans)
	printWordSummary(out, consolidation.Summarize(records, cfg.Consolidation.MinWords), cfg.Consolidation.MinWords)
	fmt.Fprintf(out, "Wrote %s\n", c.String("output"))
	return nil
}

func printWordSummary(w io.Writer, summary consolidation.WordSummary, threshold int) {
	if summary.Paragraphs == 0 {
		fmt.Fprintln(w, "No paragraphs produced")
		return
	}
	fmt.Fprintf(w, "Words per paragraph: avg %.1f, min %d, max %d\n",
		summary.Average, summary.Min, summary.Max)
	fmt.Fprintf(w, "Paragraphs under %d words: %d\n", threshold, summary.Short)
}

func buildCommand(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	if c.IsSet("batch-size") {
		cfg.Index.BatchSize = c.Int("batch-size")
	}
	if cfg.Index.BatchSize <= 0 {
		return fmt.Errorf("batch-size must be greater than 0")
	}
	if c.Bool("append") && c.Bool("reset") {
		return fmt.Errorf("--append and --reset cannot be combined")
	}

	files, err := resolveInputs(c.StringSlice("input"))
	if err != nil {
		return err
	}
	records, err := source.LoadParagraphFiles(c.Context, files, nil)
	if err != nil {
		return fmt.Errorf("failed to load paragraphs: %w", err)
	}

	indexOpts := []index.Option{index.WithBatchSize(cfg.Index.BatchSize)}
	if index.DefaultProgressEnabled() {
		indexOpts = append(indexOpts, index.WithProgress(index.NewBarProgress(os.Stderr, "embedding")))
	}

	db, err := openDatabase(cfg, lexai.WithIndexOptions(indexOpts...))
	if err != nil {
		return err
	}
	defer db.Close()

	fmt.Fprintf(c.App.ErrWriter, "Database: %s\n", cfg.Index.Path)
	fmt.Fprintf(c.App.ErrWriter, "Embedding host: %s\n", cfg.AI.EmbeddingHost)
	fmt.Fprintf(c.App.ErrWriter, "Embedding model: %s\n", cfg.AI.EmbeddingModel)
	fmt.Fprintf(c.App.ErrWriter, "Paragraphs: %d from %d files\n", len(records), len(files))

	if c.Bool("reset") {
		if err := db.Reset(c.Context); err != nil {
			return err
		}
	}

	build := db.Build
	if c.Bool("append") {
		build = db.Append
	}
	if err := build(c.Context, records); err != nil {
		return fmt.Errorf("build failed: %w", err)
	}

	printStats(c.App.Writer, db.Index().Stats())
	return nil
}

// resolveInputs expands directories into their numbered CSV files. An empty
// list means the current directory.
func resolveInputs(inputs []string) ([]string, error) {
	if len(inputs) == 0 {
		inputs = []string{"."}
	}

	var files []string
	for _, input := range inputs {
		info, err := os.Stat(input)
		if err != nil {
			return nil, fmt.Errorf("invalid input %s: %w", input, err)
		}
		if !info.IsDir() {
			files = append(files, input)
			continue
		}
		found, err := source.DiscoverCSVFiles(input)
		if err != nil {
			return nil, err
		}
		files = append(files, found...)
	}
	return files, nil
}

func queryCommand(c *cli.Context) error {
	query := strings.TrimSpace(strings.Join(c.Args().Slice(), " "))
	if query == "" {
		return fmt.Errorf("query text is required")
	}

	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	if c.IsSet("top-k") {
		cfg.Index.TopK = c.Int("top-k")
	}

	var searchOpts []search.Option
	if c.IsSet("min-score") {
		searchOpts = append(searchOpts, search.WithMinScore(float32(c.Float64("min-score"))))
	}

	db, err := openDatabase(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	searcher, err := db.NewSearcher(searchOpts...)
	if err != nil {
		return err
	}

	results, err := searcher.FindSimilar(c.Context, query, cfg.Index.TopK)
	if errors.Is(err, core.ErrIndexNotReady) {
		return fmt.Errorf("no index in %s, run build first", cfg.Index.Path)
	}
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	printResults(c.App.Writer, query, results)
	return nil
}

func printResults(w io.Writer, query string, results []core.QueryResult) {
	rank := color.New(color.FgCyan, color.Bold)
	score := color.New(color.FgGreen)
	ref := color.New(color.Faint)
	term := color.New(color.FgYellow, color.Bold)
	mark := func(s string) string { return term.Sprint(s) }

	fmt.Fprintf(w, "Found %d hits\n", len(results))
	for i, result := range results {
		record := result.Record
		fmt.Fprintf(w, "%s %s %s\n",
			rank.Sprintf("%d.", i+1),
			score.Sprintf("[%0.3f]", result.Score),
			ref.Sprintf("%s/%s", record.SourceDocID, record.ParagraphID))
		terms := search.MatchedTerms(record.Text, query)
		fmt.Fprintf(w, "   %s\n", search.Highlight(record.Text, terms, mark))
	}
}

func rebuildCommand(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	rebuildConfig := &rebuild.Config{BatchSize: cfg.Index.BatchSize}
	if c.IsSet("batch-size") {
		rebuildConfig.BatchSize = c.Int("batch-size")
	}
	// Retries are applied by the embedder, so they configure the provider.
	if c.IsSet("max-retries") {
		cfg.AI.MaxRetries = c.Int("max-retries")
	}
	if c.IsSet("retry-delay") {
		cfg.AI.RetryDelay = c.Duration("retry-delay")
	}

	if rebuildConfig.BatchSize <= 0 {
		return fmt.Errorf("batch-size must be greater than 0")
	}
	if cfg.AI.MaxRetries <= 0 {
		return fmt.Errorf("max-retries must be greater than 0")
	}

	db, err := openDatabase(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	fmt.Fprintf(c.App.ErrWriter, "Database: %s\n", cfg.Index.Path)
	fmt.Fprintf(c.App.ErrWriter, "Embedding host: %s\n", cfg.AI.EmbeddingHost)
	fmt.Fprintf(c.App.ErrWriter, "Embedding model: %s\n", cfg.AI.EmbeddingModel)
	fmt.Fprintln(c.App.ErrWriter)

	return db.Rebuild(c.Context, rebuildConfig, c.App.ErrWriter)
}

func statsCommand(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	db, err := openDatabase(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	if !db.Index().Ready() {
		fmt.Fprintf(c.App.Writer, "No index in %s\n", cfg.Index.Path)
		return nil
	}
	printStats(c.App.Writer, db.Index().Stats())
	fmt.Fprintf(c.App.Writer, "Documents: %d\n", countDocuments(db.Index().Records()))
	return nil
}

func countDocuments(records []core.ParagraphRecord) int {
	docs := make(map[string]struct{})
	for _, record := range records {
		docs[record.SourceDocID] = struct{}{}
	}
	return len(docs)
}

func printStats(w io.Writer, stats index.Stats) {
	fmt.Fprintf(w, "Rows: %d\n", stats.Rows)
	fmt.Fprintf(w, "Dimension: %d\n", stats.Dimension)
	fmt.Fprintf(w, "Model: %s\n", stats.Model)
	if !stats.BuiltAt.IsZero() {
		fmt.Fprintf(w, "Built: %s\n", stats.BuiltAt.Format(time.RFC3339))
	}
}

func openDatabase(cfg *config.AppConfig, opts ...lexai.DatabaseOption) (*lexai.Database, error) {
	opts = append([]lexai.DatabaseOption{lexai.WithAIConfig(&cfg.AI)}, opts...)
	db, err := lexai.NewDatabase(cfg.Index.Path, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return db, nil
}
