package pipeline

import (
	"fmt"
	"io"
	"os"

	md "github.com/nao1215/markdown"
	"github.com/parquet-go/parquet-go"

	"github.com/lehigh-university-libraries/catalog-reconciler/internal/models"
)

// OutputTable is one emitted table and its row schema
type OutputTable struct {
	Name   string
	Schema *parquet.Schema
}

// OutputTables lists the emitted tables
func OutputTables() []OutputTable {
	return []OutputTable{
		{Name: DimBookTable, Schema: parquet.SchemaOf(models.CanonicalBook{})},
		{Name: DetailTable, Schema: parquet.SchemaOf(models.SourceDetail{})},
	}
}

// WriteSchema renders a markdown description of the output tables
func WriteSchema(w io.Writer) error {
	doc := md.NewMarkdown(w)
	doc.H1("Reconciled catalog schema").LF()

	for _, t := range OutputTables() {
		rows := make([][]string, 0, len(t.Schema.Fields()))
		for _, f := range t.Schema.Fields() {
			rows = append(rows, []string{f.Name(), columnType(f), nullable(f)})
		}
		doc.H2(t.Name).LF()
		doc.Table(md.TableSet{
			Header: []string{"column", "type", "nullable"},
			Rows:   rows,
		}).LF()
	}

	if err := doc.Build(); err != nil {
		return fmt.Errorf("failed to render schema: %w", err)
	}
	return nil
}

// SaveSchema writes schema.md to path
func SaveSchema(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create schema file: %w", err)
	}
	defer f.Close()

	if err := WriteSchema(f); err != nil {
		return err
	}
	return f.Close()
}

func columnType(f parquet.Field) string {
	if lt := f.Type().LogicalType(); lt != nil && lt.List != nil {
		elem := f
		for !elem.Leaf() && len(elem.Fields()) == 1 {
			elem = elem.Fields()[0]
		}
		if elem.Leaf() {
			return "list<" + elem.Type().String() + ">"
		}
		return "list<struct>"
	}
	if f.Leaf() {
		return f.Type().String()
	}
	return "struct"
}

func nullable(f parquet.Field) string {
	if f.Optional() {
		return "yes"
	}
	return "no"
}
