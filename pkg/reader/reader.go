// pkg/reader/reader.go
package reader

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"go.uber.org/zap"

	"github.com/eltahawyomar001-eng/salla-analytics/pkg/table"
)

// Metadata describes one completed file read.
type Metadata struct {
	Path       string
	SizeBytes  int64
	TotalRows  int
	Columns    int
	ChunksUsed bool
}

// Reader loads a delimited export file into a fully materialized
// table. Large files are read in bounded-size row chunks that are
// concatenated before the pipeline sees them; chunking only bounds
// peak allocation bursts, downstream stages always get the whole
// table.
type Reader struct {
	logger    *zap.Logger
	chunkSize int
}

// New creates a Reader. chunkSize is the row-batch allocation bound;
// values below 1 fall back to 5000.
func New(logger *zap.Logger, chunkSize int) *Reader {
	if chunkSize < 1 {
		chunkSize = 5000
	}
	return &Reader{logger: logger, chunkSize: chunkSize}
}

// ReadFile loads a CSV file. The first record is the header row.
// Arabic-Indic digits are normalized in headers and values, and empty
// cells become nulls.
func (r *Reader) ReadFile(path string) (*table.Table, *Metadata, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, nil, fmt.Errorf("stat %s: %w", path, err)
	}

	t, meta, err := r.Read(f)
	if err != nil {
		return nil, nil, fmt.Errorf("reading %s: %w", path, err)
	}
	meta.Path = path
	meta.SizeBytes = info.Size()
	return t, meta, nil
}

// Read loads CSV data from a stream.
func (r *Reader) Read(src io.Reader) (*table.Table, *Metadata, error) {
	cr := csv.NewReader(src)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, nil, fmt.Errorf("empty file: no header row")
	}
	if err != nil {
		return nil, nil, fmt.Errorf("reading header: %w", err)
	}

	columns := make([]string, len(header))
	for i, h := range header {
		columns[i] = NormalizeDigits(strings.TrimSpace(h))
	}

	t := table.New(columns)
	meta := &Metadata{Columns: len(columns)}

	chunk := make([]map[string]interface{}, 0, r.chunkSize)
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, fmt.Errorf("reading row %d: %w", meta.TotalRows+1, err)
		}

		row := make(map[string]interface{}, len(columns))
		for i, col := range columns {
			if i >= len(record) {
				row[col] = nil
				continue
			}
			row[col] = cellValue(record[i])
		}
		chunk = append(chunk, row)
		meta.TotalRows++

		if len(chunk) == r.chunkSize {
			flush(t, chunk)
			chunk = make([]map[string]interface{}, 0, r.chunkSize)
			meta.ChunksUsed = true
		}
	}
	flush(t, chunk)

	r.logger.Info("file read",
		zap.Int("rows", meta.TotalRows),
		zap.Int("columns", meta.Columns),
		zap.Bool("chunks_used", meta.ChunksUsed),
	)
	return t, meta, nil
}

func flush(t *table.Table, chunk []map[string]interface{}) {
	for _, row := range chunk {
		t.Append(row)
	}
}

// cellValue normalizes one raw cell: empty cells and common NA markers
// become nulls, everything else keeps its text with Western digits.
func cellValue(raw string) interface{} {
	s := strings.TrimSpace(raw)
	if s == "" {
		return nil
	}
	switch strings.ToLower(s) {
	case "na", "n/a", "null", "none", "nan":
		return nil
	}
	return NormalizeDigits(s)
}

// NormalizeDigits rewrites Arabic-Indic digits (U+0660 to U+0669) and
// Extended Arabic-Indic digits (U+06F0 to U+06F9) to their Western
// equivalents. Other runes pass through untouched.
func NormalizeDigits(s string) string {
	needsRewrite := false
	for _, r := range s {
		if (r >= '٠' && r <= '٩') || (r >= '۰' && r <= '۹') {
			needsRewrite = true
			break
		}
	}
	if !needsRewrite {
		return s
	}

	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r >= '٠' && r <= '٩':
			b.WriteRune('0' + (r - '٠'))
		case r >= '۰' && r <= '۹':
			b.WriteRune('0' + (r - '۰'))
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}
