package models

import (
	"math"
	"strconv"
	"strings"
	"time"
)

// CellKind tags the shape a raw value had when it crossed the ingestion boundary.
type CellKind int

const (
	CellAbsent CellKind = iota
	CellScalar
	CellSequence
	CellMapping
	// CellMalformed is text carrying list/dict serialization artifacts,
	// e.g. "['Bill Bryson']" or "{'en': 3}".
	CellMalformed
)

func (k CellKind) String() string {
	switch k {
	case CellAbsent:
		return "absent"
	case CellScalar:
		return "scalar"
	case CellSequence:
		return "sequence"
	case CellMapping:
		return "mapping"
	case CellMalformed:
		return "malformed"
	default:
		return "unknown"
	}
}

// Cell is one raw value from a source table
type Cell struct {
	Kind   CellKind
	Text   string   // scalar text, or the raw text of a malformed cell
	Number *float64 // set when the scalar arrived as a number
	Items  []Cell
	Fields map[string]Cell
}

// Absent returns the null cell
func Absent() Cell {
	return Cell{Kind: CellAbsent}
}

// TextCell builds a cell from text that was not typed by its container (CSV).
// Empty text is absent; bracketed text is flagged as malformed.
func TextCell(s string) Cell {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return Absent()
	}
	if looksSerialized(trimmed) {
		return Cell{Kind: CellMalformed, Text: s}
	}
	return Cell{Kind: CellScalar, Text: s}
}

// StringCell builds a scalar cell from a typed string (JSON, Parquet).
// Typed strings are kept even when empty, but serialized lists are still flagged.
func StringCell(s string) Cell {
	if looksSerialized(strings.TrimSpace(s)) {
		return Cell{Kind: CellMalformed, Text: s}
	}
	return Cell{Kind: CellScalar, Text: s}
}

// NumberCell builds a scalar cell from a typed number. NaN is absent.
func NumberCell(f float64) Cell {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return Absent()
	}
	n := f
	return Cell{Kind: CellScalar, Text: strconv.FormatFloat(f, 'f', -1, 64), Number: &n}
}

// SequenceCell wraps already-decoded list items
func SequenceCell(items []Cell) Cell {
	return Cell{Kind: CellSequence, Items: items}
}

// MappingCell wraps already-decoded object fields
func MappingCell(fields map[string]Cell) Cell {
	return Cell{Kind: CellMapping, Fields: fields}
}

// FromAny converts a decoded JSON value into a cell. Numbers are expected as
// json.Number (decoder with UseNumber) but float64 is accepted too.
func FromAny(v any) Cell {
	switch val := v.(type) {
	case nil:
		return Absent()
	case string:
		return StringCell(val)
	case bool:
		return Cell{Kind: CellScalar, Text: strconv.FormatBool(val)}
	case float64:
		return NumberCell(val)
	case int64:
		return NumberCell(float64(val))
	case interface {
		Float64() (float64, error)
		String() string
	}:
		f, err := val.Float64()
		if err != nil {
			return Cell{Kind: CellScalar, Text: val.String()}
		}
		c := NumberCell(f)
		if c.Kind == CellScalar {
			// keep the literal digits so 13-digit identifiers survive untouched
			c.Text = val.String()
		}
		return c
	case []any:
		items := make([]Cell, 0, len(val))
		for _, item := range val {
			items = append(items, FromAny(item))
		}
		return SequenceCell(items)
	case []string:
		items := make([]Cell, 0, len(val))
		for _, item := range val {
			items = append(items, StringCell(item))
		}
		return SequenceCell(items)
	case map[string]any:
		fields := make(map[string]Cell, len(val))
		for k, item := range val {
			fields[k] = FromAny(item)
		}
		return MappingCell(fields)
	default:
		return Absent()
	}
}

// IsAbsent reports whether the cell holds no value
func (c Cell) IsAbsent() bool {
	return c.Kind == CellAbsent
}

// IsNull mirrors a dataframe null check: absent cells are null, everything else is not.
func (c Cell) IsNull() bool {
	return c.Kind == CellAbsent
}

// IsText reports whether the cell holds string-shaped content
func (c Cell) IsText() bool {
	return (c.Kind == CellScalar && c.Number == nil) || c.Kind == CellMalformed
}

// String returns the textual form of scalar and malformed cells
func (c Cell) String() string {
	switch c.Kind {
	case CellScalar, CellMalformed:
		return c.Text
	default:
		return ""
	}
}

func looksSerialized(s string) bool {
	if len(s) < 2 {
		return false
	}
	first, last := s[0], s[len(s)-1]
	return (first == '[' && last == ']') || (first == '{' && last == '}')
}

// Row maps snake_case column names to cells
type Row map[string]Cell

// Get returns the cell for a column, absent when the column is missing
func (r Row) Get(column string) Cell {
	if c, ok := r[column]; ok {
		return c
	}
	return Absent()
}

// Table is one ingested source dataset
type Table struct {
	Source     string
	File       string
	IngestedAt time.Time
	Columns    []string
	Rows       []Row
	SizeBytes  int64
}

// HasColumn reports whether the table declares the column
func (t *Table) HasColumn(name string) bool {
	for _, c := range t.Columns {
		if c == name {
			return true
		}
	}
	return false
}
