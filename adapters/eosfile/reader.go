// Package eosfile reads solver EOS tables into record sets.
package eosfile

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"eosphase/domain/core"
	"eosphase/domain/eos"
	"eosphase/internal"

	"github.com/dustin/go-humanize"
	"github.com/xuri/excelize/v2"
)

// Reader handles reading whitespace-delimited text tables and Excel workbooks
type Reader struct {
	config Config
	logger *internal.Logger
}

// NewReader creates a reader for the given file; the format follows the extension.
func NewReader(filePath string) *Reader {
	cfg := DefaultConfig()
	cfg.FilePath = filePath
	return NewReaderWithConfig(cfg)
}

// NewReaderWithConfig creates a reader with explicit settings.
func NewReaderWithConfig(cfg Config) *Reader {
	if cfg.Format == "" {
		cfg.Format = formatFor(cfg.FilePath)
	}
	return &Reader{config: cfg, logger: internal.NewDefaultLogger("eosfile")}
}

// WithLogger replaces the reader's logger.
func (r *Reader) WithLogger(logger *internal.Logger) *Reader {
	r.logger = logger
	return r
}

// Load reads path with default settings.
func Load(path string) (*eos.RecordSet, error) {
	rs, _, err := NewReader(path).Read()
	return rs, err
}

func formatFor(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		return FormatXLSX
	default:
		return FormatText
	}
}

// Read loads the table, maps the solver layout to named columns and drops
// every row with a missing or non-numeric required field.
func (r *Reader) Read() (*eos.RecordSet, LoadStats, error) {
	start := time.Now()

	if _, err := os.Stat(r.config.FilePath); err != nil {
		return nil, LoadStats{}, core.NewParseErrorf(r.config.FilePath, err)
	}

	var (
		rows []rawRow
		err  error
	)
	switch r.config.Format {
	case FormatText:
		rows, err = r.readText()
	case FormatXLSX:
		rows, err = r.readWorkbook()
	default:
		err = core.NewConfigError("format", fmt.Sprintf("unsupported input format %q", r.config.Format))
	}
	if err != nil {
		return nil, LoadStats{}, err
	}

	rs, stats, err := r.processRows(rows)
	if err != nil {
		return nil, stats, err
	}

	r.logger.Info("loaded %s: %s rows read, %s kept, %s dropped in %s",
		filepath.Base(r.config.FilePath),
		humanize.Comma(int64(stats.RowsRead)),
		humanize.Comma(int64(stats.RowsKept)),
		humanize.Comma(int64(stats.RowsDropped)),
		time.Since(start).Round(time.Millisecond))
	if stats.RowsKept == 0 {
		r.logger.Warn("%s: no row survived numeric coercion", r.config.FilePath)
	}
	return rs, stats, nil
}

// readText splits each non-blank, non-comment line on runs of whitespace.
func (r *Reader) readText() ([]rawRow, error) {
	file, err := os.Open(r.config.FilePath)
	if err != nil {
		return nil, core.NewParseErrorf(r.config.FilePath, err)
	}
	defer file.Close()

	var rows []rawRow
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), r.config.MaxLineBytes)
	line := 0
	for scanner.Scan() {
		text := strings.TrimSpace(scanner.Text())
		line++
		if text == "" {
			continue
		}
		if r.config.CommentPrefix != "" && strings.HasPrefix(text, r.config.CommentPrefix) {
			continue
		}
		rows = append(rows, rawRow{line: line - 1, fields: strings.Fields(text)})
	}
	if err := scanner.Err(); err != nil {
		return nil, core.NewParseErrorf(r.config.FilePath, err)
	}
	return rows, nil
}

// readWorkbook reads the configured sheet, or the first one, cell by cell.
func (r *Reader) readWorkbook() ([]rawRow, error) {
	f, err := excelize.OpenFile(r.config.FilePath)
	if err != nil {
		return nil, core.NewParseErrorf(r.config.FilePath, err)
	}
	defer f.Close()

	sheet := r.config.Sheet
	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, core.NewParseError(r.config.FilePath, "workbook has no sheets")
		}
		sheet = sheets[0]
	}

	cells, err := f.GetRows(sheet)
	if err != nil {
		return nil, core.NewParseErrorf(r.config.FilePath, fmt.Errorf("read sheet %q: %w", sheet, err))
	}

	rows := make([]rawRow, 0, len(cells))
	for i, row := range cells {
		if isBlank(row) {
			continue
		}
		rows = append(rows, rawRow{line: i, fields: row})
	}
	return rows, nil
}

func isBlank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// processRows applies the positional layout and drops incomplete rows.
func (r *Reader) processRows(rows []rawRow) (*eos.RecordSet, LoadStats, error) {
	stats := LoadStats{RowsRead: len(rows)}
	if len(rows) == 0 {
		return nil, stats, core.NewParseError(r.config.FilePath, "no data rows")
	}

	width := 0
	for _, row := range rows {
		if len(row.fields) > width {
			width = len(row.fields)
		}
	}
	if width < eos.MinSourceColumns {
		return nil, stats, core.NewParseError(r.config.FilePath,
			fmt.Sprintf("table has %d columns, need at least %d", width, eos.MinSourceColumns))
	}

	names := eos.RequiredColumns()
	columns := make(map[string][]float64, len(names))
	for _, name := range names {
		columns[name] = make([]float64, 0, len(rows))
	}
	sourceRows := make([]int, 0, len(rows))
	values := make([]float64, len(eos.SourceLayout))

	for _, row := range rows {
		complete := true
		for i, col := range eos.SourceLayout {
			v, ok := Coerce(cell(row.fields, col.Index))
			if !ok {
				complete = false
				break
			}
			values[i] = v
		}
		if !complete {
			stats.RowsDropped++
			r.logger.Trace("dropping row %d: missing or non-numeric required field", row.line)
			continue
		}
		for i, col := range eos.SourceLayout {
			columns[col.Name] = append(columns[col.Name], values[i])
		}
		sourceRows = append(sourceRows, row.line)
	}
	stats.RowsKept = len(sourceRows)

	rs, err := eos.NewRecordSet(names, columns, sourceRows)
	if err != nil {
		return nil, stats, core.NewParseErrorf(r.config.FilePath, err)
	}
	return rs, stats, nil
}

func cell(fields []string, idx int) string {
	if idx >= len(fields) {
		return ""
	}
	return fields[idx]
}

// TableReader loads tables with one shared logger.
type TableReader struct {
	logger *internal.Logger
}

// NewTableReader creates a table reader logging to logger.
func NewTableReader(logger *internal.Logger) *TableReader {
	return &TableReader{logger: logger}
}

// Load reads path, inferring the format from its extension.
func (t *TableReader) Load(path string) (*eos.RecordSet, error) {
	rs, _, err := NewReader(path).WithLogger(t.logger).Read()
	return rs, err
}
