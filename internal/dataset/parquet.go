package dataset

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/parquet-go/parquet-go"

	"github.com/lehigh-university-libraries/catalog-reconciler/internal/models"
	"github.com/lehigh-university-libraries/catalog-reconciler/internal/normalize"
)

// parquetField groups the leaf columns of one top-level field
type parquetField struct {
	name     string
	leaves   []int
	keys     []string // last path segment of each leaf
	nested   bool
	repeated bool
}

func (f *parquetField) isMap() bool {
	return f.repeated && len(f.keys) == 2 && f.keys[0] == "key" && f.keys[1] == "value"
}

// parquetFields derives the top-level fields from the file schema
func parquetFields(schema *parquet.Schema) []*parquetField {
	var fields []*parquetField
	byName := make(map[string]*parquetField)
	for i, path := range schema.Columns() {
		if len(path) == 0 {
			continue
		}
		f, ok := byName[path[0]]
		if !ok {
			f = &parquetField{name: normalize.SnakeCase(path[0])}
			byName[path[0]] = f
			fields = append(fields, f)
		}
		f.leaves = append(f.leaves, i)
		f.keys = append(f.keys, path[len(path)-1])
		if len(path) > 1 {
			f.nested = true
		}
		if leaf, ok := schema.Lookup(path...); ok && leaf.MaxRepetitionLevel > 0 {
			f.repeated = true
		}
	}
	return fields
}

// loadParquet reads a Parquet file of any schema. Lists become sequences,
// maps and structs become mappings.
func (l *Loader) loadParquet(r io.ReaderAt, size int64, table *models.Table, cols *columnSet, limit int) error {
	pf, err := parquet.OpenFile(r, size)
	if err != nil {
		return fmt.Errorf("failed to open parquet: %w", err)
	}

	slog.Debug("Parquet file opened successfully", "num_rows", pf.NumRows(), "num_row_groups", len(pf.RowGroups()))

	fields := parquetFields(pf.Schema())
	numLeaves := 0
	for _, f := range fields {
		if f.name != "" {
			cols.add(f.name)
		}
		numLeaves += len(f.leaves)
	}

	reader := parquet.NewReader(pf)
	defer reader.Close()

	rows := make([]parquet.Row, 128) // Read in batches
	batchNum := 0
	for {
		n, err := reader.ReadRows(rows)
		for i := 0; i < n; i++ {
			if limit > 0 && len(table.Rows) >= limit {
				return nil
			}
			table.Rows = append(table.Rows, rowFromParquet(rows[i], fields, numLeaves))
		}
		if n > 0 {
			batchNum++
			slog.Debug("Read batch from Parquet", "batch", batchNum, "rows_in_batch", n, "total_rows_read", len(table.Rows))
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to read parquet rows: %w", err)
		}
		if n == 0 {
			break
		}
	}
	return nil
}

func rowFromParquet(row parquet.Row, fields []*parquetField, numLeaves int) models.Row {
	values := make([][]parquet.Value, numLeaves)
	for _, v := range row {
		if c := v.Column(); c >= 0 && c < numLeaves {
			values[c] = append(values[c], v)
		}
	}

	out := make(models.Row, len(fields))
	for _, f := range fields {
		if f.name == "" {
			continue
		}
		out[f.name] = fieldCell(f, values)
	}
	return out
}

func fieldCell(f *parquetField, values [][]parquet.Value) models.Cell {
	switch {
	case !f.nested && !f.repeated:
		if vals := values[f.leaves[0]]; len(vals) > 0 {
			return valueCell(vals[0])
		}
		return models.Absent()

	case !f.repeated:
		fields := make(map[string]models.Cell, len(f.leaves))
		empty := true
		for i, leaf := range f.leaves {
			c := models.Absent()
			if vals := values[leaf]; len(vals) > 0 {
				c = valueCell(vals[0])
			}
			empty = empty && c.IsAbsent()
			fields[f.keys[i]] = c
		}
		if empty {
			return models.Absent()
		}
		return models.MappingCell(fields)

	case len(f.leaves) == 1:
		var items []models.Cell
		for _, v := range values[f.leaves[0]] {
			if c := valueCell(v); !c.IsAbsent() {
				items = append(items, c)
			}
		}
		if len(items) == 0 {
			return models.Absent()
		}
		return models.SequenceCell(items)

	case f.isMap():
		keys, vals := values[f.leaves[0]], values[f.leaves[1]]
		fields := make(map[string]models.Cell, len(keys))
		for i, k := range keys {
			if k.IsNull() || i >= len(vals) {
				continue
			}
			fields[string(k.ByteArray())] = valueCell(vals[i])
		}
		if len(fields) == 0 {
			return models.Absent()
		}
		return models.MappingCell(fields)

	default:
		// list of structs: every leaf carries one value per element
		n := len(values[f.leaves[0]])
		var items []models.Cell
		for e := 0; e < n; e++ {
			elem := make(map[string]models.Cell, len(f.leaves))
			empty := true
			for i, leaf := range f.leaves {
				c := models.Absent()
				if e < len(values[leaf]) {
					c = valueCell(values[leaf][e])
				}
				empty = empty && c.IsAbsent()
				elem[f.keys[i]] = c
			}
			if !empty {
				items = append(items, models.MappingCell(elem))
			}
		}
		if len(items) == 0 {
			return models.Absent()
		}
		return models.SequenceCell(items)
	}
}

func valueCell(v parquet.Value) models.Cell {
	if v.IsNull() {
		return models.Absent()
	}
	switch v.Kind() {
	case parquet.Boolean:
		return models.FromAny(v.Boolean())
	case parquet.Int32:
		return models.NumberCell(float64(v.Int32()))
	case parquet.Int64:
		return models.NumberCell(float64(v.Int64()))
	case parquet.Float:
		return models.NumberCell(float64(v.Float()))
	case parquet.Double:
		return models.NumberCell(v.Double())
	case parquet.ByteArray, parquet.FixedLenByteArray:
		return models.StringCell(string(v.ByteArray()))
	default:
		return models.Absent()
	}
}
