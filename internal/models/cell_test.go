package models

import (
	"encoding/json"
	"math"
	"testing"
)

func TestTextCell(t *testing.T) {
	tests := []struct {
		name string
		in   string
		kind CellKind
	}{
		{"empty", "", CellAbsent},
		{"whitespace", "   ", CellAbsent},
		{"plain", "Dune", CellScalar},
		{"serialized list", "['Bill Bryson']", CellMalformed},
		{"serialized dict", "{'en': 3}", CellMalformed},
		{"single bracket", "[", CellScalar},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := TextCell(tt.in)
			if got.Kind != tt.kind {
				t.Errorf("Expected kind %s, got %s", tt.kind, got.Kind)
			}
		})
	}
}

func TestStringCellKeepsEmpty(t *testing.T) {
	c := StringCell("")
	if c.Kind != CellScalar {
		t.Errorf("Expected scalar, got %s", c.Kind)
	}
	if !c.IsText() {
		t.Error("Expected empty typed string to be text")
	}
}

func TestNumberCell(t *testing.T) {
	if c := NumberCell(math.NaN()); !c.IsAbsent() {
		t.Errorf("Expected NaN to be absent, got %s", c.Kind)
	}
	c := NumberCell(4.5)
	if c.Number == nil || *c.Number != 4.5 {
		t.Fatalf("Expected number 4.5, got %v", c.Number)
	}
	if c.Text != "4.5" {
		t.Errorf("Expected text 4.5, got %q", c.Text)
	}
	if c.IsText() {
		t.Error("Expected numeric cell not to be text")
	}
}

func TestFromAnyKeepsNumberDigits(t *testing.T) {
	c := FromAny(json.Number("9780441013593"))
	if c.Kind != CellScalar {
		t.Fatalf("Expected scalar, got %s", c.Kind)
	}
	if c.Text != "9780441013593" {
		t.Errorf("Expected literal digits, got %q", c.Text)
	}
	if c.Number == nil {
		t.Error("Expected number to be set")
	}
}

func TestFromAnyNested(t *testing.T) {
	c := FromAny(map[string]any{
		"authors": []any{"Frank Herbert", nil},
		"counts":  map[string]any{"en": float64(3)},
	})
	if c.Kind != CellMapping {
		t.Fatalf("Expected mapping, got %s", c.Kind)
	}

	authors := c.Fields["authors"]
	if authors.Kind != CellSequence || len(authors.Items) != 2 {
		t.Fatalf("Expected 2-item sequence, got %s with %d items", authors.Kind, len(authors.Items))
	}
	if !authors.Items[1].IsAbsent() {
		t.Errorf("Expected null item to be absent, got %s", authors.Items[1].Kind)
	}

	en := c.Fields["counts"].Fields["en"]
	if en.Number == nil || *en.Number != 3 {
		t.Errorf("Expected en=3, got %v", en.Number)
	}
}

func TestRowGetMissingColumn(t *testing.T) {
	row := Row{"title": StringCell("Dune")}
	if got := row.Get("title").String(); got != "Dune" {
		t.Errorf("Expected Dune, got %q", got)
	}
	if !row.Get("isbn13").IsAbsent() {
		t.Error("Expected missing column to be absent")
	}
}
