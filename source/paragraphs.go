package source

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"golang.org/x/sync/errgroup"

	"github.com/AvazbekNurmatov/lex-ai/core"
)

// CorpusPattern matches corpus files: CSV files whose name starts with a digit.
const CorpusPattern = "[0-9]*.csv"

// WriteParagraphs writes records as a paragraph CSV with a header row.
func WriteParagraphs(w io.Writer, records []core.ParagraphRecord) error {
	writer := csv.NewWriter(w)
	if err := writer.Write([]string{ColumnLawActID, ColumnParagraphID, ColumnText}); err != nil {
		return err
	}
	for _, record := range records {
		if err := writer.Write([]string{record.SourceDocID, record.ParagraphID, record.Text}); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

// WriteParagraphFile writes records to path, replacing any existing file.
func WriteParagraphFile(path string, records []core.ParagraphRecord) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := WriteParagraphs(f, records); err != nil {
		f.Close()
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return f.Close()
}

// ReadParagraphs reads a paragraph CSV. Rows with empty text are skipped,
// and a missing paragraph id becomes "no_id".
func ReadParagraphs(r io.Reader) ([]core.ParagraphRecord, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	h, err := readHeader(reader, ColumnText)
	if err != nil {
		return nil, fmt.Errorf("reading paragraph header: %w", err)
	}

	var records []core.ParagraphRecord
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}

		text := strings.TrimSpace(h.get(row, ColumnText))
		if text == "" {
			continue
		}
		paragraphID := strings.TrimSpace(h.get(row, ColumnParagraphID))
		if paragraphID == "" {
			paragraphID = core.NoIDParagraph
		}
		docID := strings.TrimSpace(h.get(row, ColumnLawActID))
		if docID == "" {
			docID = UnknownLawActID
		}

		records = append(records, core.ParagraphRecord{
			SourceDocID: docID,
			ParagraphID: paragraphID,
			Text:        text,
		})
	}
	return records, nil
}

// ReadParagraphFile reads the paragraph CSV at path.
func ReadParagraphFile(path string) ([]core.ParagraphRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadParagraphs(f)
}

// DiscoverCSVFiles lists the corpus files directly under dir in lexical order.
func DiscoverCSVFiles(dir string) ([]string, error) {
	names, err := doublestar.Glob(os.DirFS(dir), CorpusPattern)
	if err != nil {
		return nil, err
	}
	if len(names) == 0 {
		return nil, fmt.Errorf("%w in %s", ErrNoCSVFiles, dir)
	}

	sort.Strings(names)
	files := make([]string, len(names))
	for i, name := range names {
		files[i] = filepath.Join(dir, name)
	}
	return files, nil
}

// LoadParagraphFiles reads files concurrently and concatenates their records
// in the order the files were given. Files that fail to load are logged and
// skipped; if none load, ErrNoRecordsLoaded is returned.
func LoadParagraphFiles(ctx context.Context, files []string, logger *slog.Logger) ([]core.ParagraphRecord, error) {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "paragraph-loader")

	results := make([][]core.ParagraphRecord, len(files))
	loaded := make([]bool, len(files))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for i, file := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			records, err := ReadParagraphFile(file)
			if err != nil {
				logger.Error("error loading file", "file", file, "err", err)
				return nil
			}
			results[i] = records
			loaded[i] = true
			logger.Info("loaded records", "file", filepath.Base(file), "records", len(records))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var all []core.ParagraphRecord
	loadedAny := false
	for i := range files {
		if !loaded[i] {
			continue
		}
		loadedAny = true
		all = append(all, results[i]...)
	}
	if !loadedAny {
		return nil, ErrNoRecordsLoaded
	}

	logger.Info("total combined records", "records", len(all))
	return all, nil
}
