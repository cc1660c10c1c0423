package dataset

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/lehigh-university-libraries/catalog-reconciler/internal/models"
	"github.com/lehigh-university-libraries/catalog-reconciler/internal/normalize"
)

// Provenance columns added to every ingested row
const (
	SourceColumn   = "_source"
	IngestTSColumn = "_ingest_ts"
)

// Loader reads one source dataset into a table of raw cells
type Loader struct {
	datasetPath string
	source      string
	now         func() time.Time
}

// NewLoader creates a new dataset loader for the named source
func NewLoader(datasetPath, source string) *Loader {
	return &Loader{
		datasetPath: datasetPath,
		source:      source,
		now:         time.Now,
	}
}

// Load reads every record of the dataset (JSONL, JSON array, CSV or Parquet)
func (l *Loader) Load() (*models.Table, error) {
	return l.load(0)
}

// LoadSample reads at most limit records
func (l *Loader) LoadSample(limit int) (*models.Table, error) {
	return l.load(limit)
}

func (l *Loader) load(limit int) (*models.Table, error) {
	ext := strings.ToLower(filepath.Ext(l.datasetPath))

	file, err := os.Open(l.datasetPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open dataset file: %w", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}
	slog.Debug("Opening dataset", "source", l.source, "path", l.datasetPath, "size_bytes", info.Size())

	table := &models.Table{
		Source:     l.source,
		File:       l.datasetPath,
		IngestedAt: l.now().UTC(),
		SizeBytes:  info.Size(),
	}
	cols := &columnSet{seen: make(map[string]bool)}

	switch ext {
	case ".jsonl", ".ndjson":
		err = l.loadJSONL(file, table, cols, limit)
	case ".json":
		err = l.loadJSONArray(file, table, cols, limit)
	case ".csv":
		err = l.loadCSV(file, table, cols, limit)
	case ".parquet":
		err = l.loadParquet(file, info.Size(), table, cols, limit)
	default:
		return nil, fmt.Errorf("unsupported file format: %s (supported: .jsonl, .json, .csv, .parquet)", ext)
	}
	if err != nil {
		return nil, err
	}

	ingestTS := models.StringCell(table.IngestedAt.Format(time.RFC3339))
	sourceCell := models.StringCell(l.source)
	for _, row := range table.Rows {
		row[SourceColumn] = sourceCell
		row[IngestTSColumn] = ingestTS
	}
	cols.add(SourceColumn)
	cols.add(IngestTSColumn)
	table.Columns = cols.names

	slog.Debug("Finished reading dataset",
		"source", l.source,
		"rows", len(table.Rows),
		"columns", len(table.Columns))

	return table, nil
}

// columnSet keeps column names in first-seen order
type columnSet struct {
	names []string
	seen  map[string]bool
}

func (c *columnSet) add(name string) {
	if !c.seen[name] {
		c.seen[name] = true
		c.names = append(c.names, name)
	}
}

// rowFromObject snake-cases keys and converts decoded JSON values to cells
func rowFromObject(obj map[string]any, cols *columnSet) models.Row {
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	row := make(models.Row, len(obj))
	for _, k := range keys {
		name := normalize.SnakeCase(k)
		if name == "" {
			continue
		}
		cols.add(name)
		row[name] = models.FromAny(obj[k])
	}
	return row
}

func decodeObject(data []byte) (map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var obj map[string]any
	if err := dec.Decode(&obj); err != nil {
		return nil, err
	}
	return obj, nil
}

// loadJSONL reads one JSON object per line
func (l *Loader) loadJSONL(r io.Reader, table *models.Table, cols *columnSet, limit int) error {
	scanner := bufio.NewScanner(r)

	// Increase buffer size for large JSON lines
	const maxCapacity = 10 * 1024 * 1024 // 10MB per line
	buf := make([]byte, maxCapacity)
	scanner.Buffer(buf, maxCapacity)

	lineNum := 0
	for scanner.Scan() {
		if limit > 0 && len(table.Rows) >= limit {
			break
		}
		lineNum++
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}

		obj, err := decodeObject(line)
		if err != nil {
			return fmt.Errorf("failed to parse JSON at line %d: %w", lineNum, err)
		}
		table.Rows = append(table.Rows, rowFromObject(obj, cols))

		if lineNum%1000 == 0 {
			slog.Debug("Reading JSONL", "source", l.source, "lines_read", lineNum)
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("error reading dataset: %w", err)
	}
	return nil
}

// loadJSONArray reads a single JSON array of objects
func (l *Loader) loadJSONArray(r io.Reader, table *models.Table, cols *columnSet, limit int) error {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	var objs []map[string]any
	if err := dec.Decode(&objs); err != nil {
		return fmt.Errorf("failed to parse JSON array: %w", err)
	}
	for _, obj := range objs {
		if limit > 0 && len(table.Rows) >= limit {
			break
		}
		table.Rows = append(table.Rows, rowFromObject(obj, cols))
	}
	return nil
}

// loadCSV reads a header row followed by records. List and dict columns
// arrive as serialized text and become malformed-text cells.
func (l *Loader) loadCSV(r io.Reader, table *models.Table, cols *columnSet, limit int) error {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read CSV header: %w", err)
	}
	names := make([]string, len(header))
	for i, h := range header {
		names[i] = normalize.SnakeCase(strings.TrimPrefix(h, "\ufeff"))
		if names[i] != "" {
			cols.add(names[i])
		}
	}

	line := 1
	for {
		if limit > 0 && len(table.Rows) >= limit {
			break
		}
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return fmt.Errorf("failed to parse CSV at line %d: %w", line, err)
		}

		row := make(models.Row, len(names))
		for i, name := range names {
			if name == "" {
				continue
			}
			if i < len(record) {
				row[name] = models.TextCell(record[i])
			} else {
				row[name] = models.Absent()
			}
		}
		table.Rows = append(table.Rows, row)
	}
	return nil
}
