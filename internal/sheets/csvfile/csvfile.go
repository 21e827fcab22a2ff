// Package csvfile reads quarterly report rows from a CSV export, such as the
// one served by the snapshots CSV endpoint or a workbook tab saved as CSV.
package csvfile

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"vulekamali/internal/core"
	"vulekamali/internal/log"
	ports "vulekamali/internal/sheets"
)

var _ ports.SnapshotSource = (*Source)(nil)

// Source reads one CSV file per fetch.
type Source struct {
	path string
	// financialYear fills rows that do not name one.
	financialYear core.FinancialYear
	logger        *log.Logger
}

// New returns a source for the file at path. fy may be zero when every row
// carries its own financial year.
func New(path string, fy core.FinancialYear, logger *log.Logger) *Source {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &Source{
		path:          path,
		financialYear: fy,
		logger:        logger.WithComponent(log.ComponentSheets),
	}
}

// FetchSnapshotRows parses the whole file. Rows that fail to parse are logged
// and skipped.
func (s *Source) FetchSnapshotRows(ctx context.Context) ([]ports.ImportRow, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", s.path, err)
	}
	defer f.Close()

	rows, skipped, err := Parse(f, filepath.Base(s.path), s.financialYear)
	if err != nil {
		return nil, err
	}
	for _, err := range skipped {
		s.logger.WarnContext(ctx, "Skipping CSV row", log.FieldError, err)
	}
	s.logger.InfoContext(ctx, "Read CSV file",
		"path", s.path,
		log.FieldRows, len(rows),
		"skipped", len(skipped))
	return rows, nil
}

// Parse reads CSV whose first record is a header. Blank records are ignored.
// Records that fail to parse come back as errors keyed by name and line.
func Parse(r io.Reader, name string, fy core.FinancialYear) ([]ports.ImportRow, []error, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, fmt.Errorf("read %s header: %w", name, err)
	}
	keys := make([]string, len(header))
	for i, h := range header {
		keys[i] = ports.NormalizeHeader(h)
	}

	var rows []ports.ImportRow
	var skipped []error
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, nil, fmt.Errorf("read %s: %w", name, err)
		}
		line, _ := reader.FieldPos(0)
		if blank(record) {
			continue
		}

		fields := make(map[string]string, len(keys))
		for j, key := range keys {
			if key == "" || j >= len(record) {
				continue
			}
			fields[key] = record[j]
		}
		if fields[ports.ColFinancialYear] == "" && !fy.IsZero() {
			fields[ports.ColFinancialYear] = fy.Slug()
		}

		ref := fmt.Sprintf("%s:%d", name, line)
		row, err := ports.ParseRow(fields)
		if err != nil {
			skipped = append(skipped, fmt.Errorf("%s: %w", ref, err))
			continue
		}
		row.Ref = ref
		rows = append(rows, row)
	}
	return rows, skipped, nil
}

func blank(record []string) bool {
	for _, c := range record {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
