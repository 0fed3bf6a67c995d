package ingest

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/example/labelr/internal/ports/primary"
)

// ItemAdder is the part of the dataset service ingest needs.
type ItemAdder interface {
	AddItem(ctx context.Context, req primary.AddItemRequest) (*primary.DataItem, error)
}

// Report summarizes one ingest run.
type Report struct {
	Added   []int64
	Skipped int
	Failed  []FileFailure
}

// FileFailure is a file that could not be added.
type FileFailure struct {
	Path   string
	Reason string
}

// Ingester uploads matching files into one dataset.
type Ingester struct {
	items     ItemAdder
	filter    *Filter
	datasetID int64
	logger    zerolog.Logger
}

// New creates an Ingester for the dataset.
func New(items ItemAdder, filter *Filter, datasetID int64, logger zerolog.Logger) *Ingester {
	return &Ingester{items: items, filter: filter, datasetID: datasetID, logger: logger}
}

// Dir walks root and adds every matching file. Hidden files and directories
// are skipped. A file that fails is reported and the walk continues.
func (in *Ingester) Dir(ctx context.Context, root string) (*Report, error) {
	report := &Report{}
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if path != root && hidden(d.Name()) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		if !in.filter.Match(rel) {
			report.Skipped++
			return nil
		}

		id, err := in.File(ctx, path)
		if err != nil {
			report.Failed = append(report.Failed, FileFailure{Path: rel, Reason: err.Error()})
			return nil
		}
		report.Added = append(report.Added, id)
		return nil
	})
	return report, err
}

// File adds a single file and returns the new data item id.
func (in *Ingester) File(ctx context.Context, path string) (int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	item, err := in.items.AddItem(ctx, primary.AddItemRequest{
		DatasetID: in.datasetID,
		FileName:  filepath.Base(path),
		Content:   f,
	})
	if err != nil {
		in.logger.Warn().Err(err).Str("path", path).Msg("failed to ingest file")
		return 0, err
	}
	in.logger.Debug().Str("path", path).Int64("data_item_id", item.ID).Msg("ingested file")
	return item.ID, nil
}
