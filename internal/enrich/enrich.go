package enrich

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/sony/gobreaker/v2"

	"github.com/lehigh-university-libraries/catalog-reconciler/internal/models"
)

// Writer receives enriched records, e.g. a dataset.JSONLWriter
type Writer interface {
	Write(v any) error
}

// Stats summarizes an enrichment pass
type Stats struct {
	Processed int
	Written   int
	Skipped   int // no query could be built
	NotFound  int
	Failed    int // request errors, including breaker rejections
}

// Enrich looks up every record (at most limit when limit > 0) and writes one
// secondary record per hit. Lookup failures are logged and skipped; only a
// cancelled context or a write error stops the pass.
func (c *Client) Enrich(ctx context.Context, records []models.SourceRecord, w Writer, limit int) (*Stats, error) {
	stats := &Stats{}
	for i := range records {
		if limit > 0 && stats.Processed >= limit {
			break
		}
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		stats.Processed++
		rec := &records[i]

		query, err := Query(rec)
		if err != nil {
			slog.Warn("Skipping record", "source", rec.Source, "row", rec.Index, "error", err)
			stats.Skipped++
			continue
		}

		vol, err := c.Lookup(ctx, query)
		switch {
		case err == nil:
		case errors.Is(err, ErrNoResults):
			slog.Info("No Google Books match", "row", rec.Index, "query", query)
			stats.NotFound++
			continue
		case ctx.Err() != nil:
			return stats, ctx.Err()
		case errors.Is(err, gobreaker.ErrOpenState):
			slog.Warn("Circuit open, skipping lookup", "row", rec.Index, "query", query)
			stats.Failed++
			continue
		default:
			slog.Warn("Lookup failed", "row", rec.Index, "query", query, "error", err)
			stats.Failed++
			continue
		}

		if err := w.Write(vol); err != nil {
			return stats, fmt.Errorf("failed to write enriched record: %w", err)
		}
		stats.Written++
		slog.Debug("Enriched record", "row", rec.Index, "query", query, "volume", vol.ID)
	}
	return stats, nil
}

// PrintSummary writes the pass counters
func (s *Stats) PrintSummary(w io.Writer, output string) {
	fmt.Fprintf(w, "\nEnrichment complete!\n")
	fmt.Fprintf(w, "  Records processed: %d\n", s.Processed)
	fmt.Fprintf(w, "  Written: %d\n", s.Written)
	fmt.Fprintf(w, "  Skipped (no isbn13 or title): %d\n", s.Skipped)
	fmt.Fprintf(w, "  Not found: %d\n", s.NotFound)
	fmt.Fprintf(w, "  Errors: %d\n", s.Failed)
	fmt.Fprintf(w, "  Output location: %s\n", output)
}
