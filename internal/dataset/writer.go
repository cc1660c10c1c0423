package dataset

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/goccy/go-json"
	"github.com/parquet-go/parquet-go"
)

// WriteParquet writes rows to path using the Parquet schema of T
func WriteParquet[T any](path string, rows []T) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create parquet file: %w", err)
	}
	defer file.Close()

	writer := parquet.NewGenericWriter[T](file)
	if _, err := writer.Write(rows); err != nil {
		return fmt.Errorf("failed to write parquet rows: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to close parquet writer: %w", err)
	}

	slog.Debug("Wrote parquet file", "path", path, "rows", len(rows))
	return nil
}

// ReadParquet reads every row of a file written with the schema of T
func ReadParquet[T any](path string) ([]T, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open parquet file: %w", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}

	pf, err := parquet.OpenFile(file, info.Size())
	if err != nil {
		return nil, fmt.Errorf("failed to open parquet: %w", err)
	}

	reader := parquet.NewGenericReader[T](pf)
	defer reader.Close()

	var records []T
	rows := make([]T, 128)
	for {
		n, err := reader.Read(rows)
		records = append(records, rows[:n]...)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read parquet rows: %w", err)
		}
		if n == 0 {
			break
		}
	}
	return records, nil
}

// JSONLWriter appends one JSON document per line
type JSONLWriter struct {
	file *os.File
	buf  *bufio.Writer
	enc  *json.Encoder
	n    int
}

// CreateJSONL truncates path and returns a writer for it
func CreateJSONL(path string) (*JSONLWriter, error) {
	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create output file: %w", err)
	}
	buf := bufio.NewWriter(file)
	return &JSONLWriter{file: file, buf: buf, enc: json.NewEncoder(buf)}, nil
}

// Write encodes v as one line
func (w *JSONLWriter) Write(v any) error {
	if err := w.enc.Encode(v); err != nil {
		return fmt.Errorf("failed to encode record: %w", err)
	}
	w.n++
	return nil
}

// Count returns the number of records written
func (w *JSONLWriter) Count() int {
	return w.n
}

// Close flushes and closes the file
func (w *JSONLWriter) Close() error {
	if err := w.buf.Flush(); err != nil {
		w.file.Close()
		return fmt.Errorf("failed to flush output file: %w", err)
	}
	return w.file.Close()
}
