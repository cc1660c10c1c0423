package pipeline

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"gopkg.in/yaml.v3"

	"github.com/lehigh-university-libraries/catalog-reconciler/internal/models"
	"github.com/lehigh-university-libraries/catalog-reconciler/internal/quality"
)

// FileStats describes one ingested source file
type FileStats struct {
	File          string    `json:"file" yaml:"file"`
	IngestTS      time.Time `json:"ingest_ts" yaml:"ingest_ts"`
	Rows          int       `json:"rows" yaml:"rows"`
	Columns       []string  `json:"columns" yaml:"columns"`
	NumColumns    int       `json:"num_columns" yaml:"num_columns"`
	FileSizeBytes int64     `json:"file_size_bytes" yaml:"file_size_bytes"`
}

func statsOf(t *models.Table) *FileStats {
	return &FileStats{
		File:          t.File,
		IngestTS:      t.IngestedAt,
		Rows:          len(t.Rows),
		Columns:       t.Columns,
		NumColumns:    len(t.Columns),
		FileSizeBytes: t.SizeBytes,
	}
}

// Integration counts what the resolve and merge stages produced
type Integration struct {
	DimBookRows          int `json:"dim_book_rows" yaml:"dim_book_rows"`
	BookSourceDetailRows int `json:"book_source_detail_rows" yaml:"book_source_detail_rows"`
	DistinctBookIDs      int `json:"distinct_book_ids" yaml:"distinct_book_ids"`
	// DuplicatesGroups counts book ids carried by more than one detail row
	DuplicatesGroups     int `json:"duplicates_groups" yaml:"duplicates_groups"`
	MatchedByISBN13      int `json:"matched_by_isbn13" yaml:"matched_by_isbn13"`
	MatchedByTitleAuthor int `json:"matched_by_title_author" yaml:"matched_by_title_author"`
	PrimaryOnly          int `json:"primary_only" yaml:"primary_only"`
	SecondaryOnly        int `json:"secondary_only" yaml:"secondary_only"`
	CollapsedRows        int `json:"collapsed_rows" yaml:"collapsed_rows"`
}

// Metadata is the run report written next to the output tables
type Metadata struct {
	RunID      string    `json:"run_id" yaml:"run_id"`
	StartedAt  time.Time `json:"started_at" yaml:"started_at"`
	FinishedAt time.Time `json:"finished_at" yaml:"finished_at"`

	Sources       map[string]*FileStats             `json:"sources" yaml:"sources"`
	Quality       map[string]*quality.SourceMetrics `json:"quality" yaml:"quality"`
	ParseFailures map[string]map[string]int         `json:"parse_failures" yaml:"parse_failures"`
	Integration   *Integration                      `json:"integration,omitempty" yaml:"integration,omitempty"`
}

func newMetadata(runID string, started time.Time) *Metadata {
	return &Metadata{
		RunID:         runID,
		StartedAt:     started,
		Sources:       make(map[string]*FileStats),
		Quality:       make(map[string]*quality.SourceMetrics),
		ParseFailures: make(map[string]map[string]int),
	}
}

// SourceNames returns the reported sources in name order
func (m *Metadata) SourceNames() []string {
	names := make([]string, 0, len(m.Sources))
	for name := range m.Sources {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// WriteJSON renders the report as indented JSON
func (m *Metadata) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(m); err != nil {
		return fmt.Errorf("failed to encode metadata: %w", err)
	}
	return nil
}

// WriteYAML renders the report as YAML
func (m *Metadata) WriteYAML(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(m); err != nil {
		return fmt.Errorf("failed to marshal metadata to YAML: %w", err)
	}
	return enc.Close()
}

// Save writes the report to path in the given format ("json" or "yaml")
func (m *Metadata) Save(path, format string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create metadata file: %w", err)
	}
	defer f.Close()

	switch format {
	case "yaml":
		err = m.WriteYAML(f)
	case "json", "":
		err = m.WriteJSON(f)
	default:
		return fmt.Errorf("unsupported metrics format: %s", format)
	}
	if err != nil {
		return err
	}
	return f.Close()
}

// LoadMetadata reads a JSON or YAML report back, picking the decoder by extension
func LoadMetadata(path string) (*Metadata, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read metadata file: %w", err)
	}
	var m Metadata
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &m)
	default:
		err = json.Unmarshal(data, &m)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse metadata file: %w", err)
	}
	return &m, nil
}
