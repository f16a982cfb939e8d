package out

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"doomscroll/internal/modules/ingest/domain"
	ingestout "doomscroll/internal/modules/ingest/port/out"
	apperrors "doomscroll/internal/platform/errors"
)

const utf8BOM = "\ufeff"

// CSVSource reads a raw usage export with a header row. Rows may be ragged;
// short rows read as blank cells.
type CSVSource struct{}

func NewCSVSource() ingestout.RawSource {
	return CSVSource{}
}

func (CSVSource) Read(ctx context.Context, path string) (domain.RawBatch, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return domain.RawBatch{}, fmt.Errorf("%w: raw input %s", apperrors.ErrNotFound, path)
		}
		return domain.RawBatch{}, fmt.Errorf("open raw input: %w", err)
	}
	defer f.Close()
	return readCSV(ctx, f)
}

func readCSV(ctx context.Context, r io.Reader) (domain.RawBatch, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return domain.RawBatch{}, fmt.Errorf("%w: raw input is empty", apperrors.ErrInvalidInput)
	}
	if err != nil {
		return domain.RawBatch{}, fmt.Errorf("read csv header: %w", err)
	}
	columns := make([]string, len(header))
	index := make(map[string]int, len(header))
	for i, name := range header {
		if i == 0 {
			name = strings.TrimPrefix(name, utf8BOM)
		}
		name = strings.TrimSpace(name)
		columns[i] = name
		if _, dup := index[name]; !dup {
			index[name] = i
		}
	}

	batch := domain.RawBatch{Columns: columns}
	for line := 2; ; line++ {
		if line%1024 == 0 {
			if err := ctx.Err(); err != nil {
				return domain.RawBatch{}, err
			}
		}
		cells, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return domain.RawBatch{}, fmt.Errorf("read csv line %d: %w", line, err)
		}
		if len(cells) == 1 && strings.TrimSpace(cells[0]) == "" {
			continue
		}
		batch.Records = append(batch.Records, csvRecord{index: index, cells: cells})
	}
	return batch, nil
}

type csvRecord struct {
	index map[string]int
	cells []string
}

func (r csvRecord) Lookup(field string) (string, bool) {
	i, ok := r.index[field]
	if !ok {
		return "", false
	}
	if i >= len(r.cells) {
		return "", true
	}
	return r.cells[i], true
}
