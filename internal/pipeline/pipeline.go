package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/lehigh-university-libraries/catalog-reconciler/internal/config"
	"github.com/lehigh-university-libraries/catalog-reconciler/internal/dataset"
	"github.com/lehigh-university-libraries/catalog-reconciler/internal/identity"
	"github.com/lehigh-university-libraries/catalog-reconciler/internal/merge"
	"github.com/lehigh-university-libraries/catalog-reconciler/internal/models"
	"github.com/lehigh-university-libraries/catalog-reconciler/internal/normalize"
	"github.com/lehigh-university-libraries/catalog-reconciler/internal/quality"
)

// Output table names
const (
	DimBookTable = "dim_book"
	DetailTable  = "book_source_detail"
)

// Option tweaks a Pipeline
type Option func(*Pipeline)

// WithSampleLimit reads at most n rows per source
func WithSampleLimit(n int) Option {
	return func(p *Pipeline) { p.limit = n }
}

// WithClock replaces time.Now for run timestamps
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) { p.now = now }
}

// Pipeline runs ingest, validate, gate, normalize, resolve and merge over
// the two configured sources. Every stage is fully materialized before the next.
type Pipeline struct {
	cfg       *config.Config
	languages normalize.LanguageTable
	limit     int
	now       func() time.Time
}

// New builds a pipeline from a validated configuration
func New(cfg *config.Config, opts ...Option) *Pipeline {
	p := &Pipeline{
		cfg:       cfg,
		languages: normalize.DefaultLanguageTable().With(cfg.Quality.Languages),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Result is everything a successful run produced
type Result struct {
	Metadata *Metadata
	Books    []models.CanonicalBook
	Details  []models.SourceDetail
	Groups   []identity.Group
}

type source struct {
	cfg   config.SourceConfig
	rules quality.RuleSet
	gate  []quality.GateRule
}

func (p *Pipeline) sources() [2]source {
	primary, secondary := p.cfg.Sources.Primary, p.cfg.Sources.Secondary
	return [2]source{
		{
			cfg:   primary,
			rules: quality.PrimaryRuleSet(primary.Name, primary.FlagPrefix),
			gate:  p.cfg.Quality.PrimaryGate,
		},
		{
			cfg:   secondary,
			rules: quality.SecondaryRuleSet(secondary.Name, secondary.FlagPrefix),
			gate:  p.cfg.Quality.SecondaryGate,
		},
	}
}

func (p *Pipeline) load(src config.SourceConfig) (*models.Table, error) {
	if src.Path == "" {
		return nil, fmt.Errorf("no input path configured for source %s", src.Name)
	}
	loader := dataset.NewLoader(src.Path, src.Name)
	if p.limit > 0 {
		return loader.LoadSample(p.limit)
	}
	return loader.Load()
}

// check ingests and validates both sources, then applies the quality gates.
// Both sources are validated before any gate runs so the report covers both.
func (p *Pipeline) check(ctx context.Context, meta *Metadata) ([2]*quality.FlaggedTable, error) {
	var flagged [2]*quality.FlaggedTable
	sources := p.sources()

	for i, s := range sources {
		if err := ctx.Err(); err != nil {
			return flagged, err
		}
		table, err := p.load(s.cfg)
		if err != nil {
			return flagged, fmt.Errorf("failed to load %s: %w", s.cfg.Name, err)
		}
		meta.Sources[s.cfg.Name] = statsOf(table)

		ft, metrics, err := quality.Validate(table, s.rules)
		if err != nil {
			return flagged, fmt.Errorf("failed to validate %s: %w", s.cfg.Name, err)
		}
		meta.Quality[s.cfg.Name] = metrics
		flagged[i] = ft

		slog.Info("Validated source",
			"source", s.cfg.Name,
			"file", table.File,
			"rows", metrics.Rows,
			"rows_valid", metrics.RowsValid)
	}

	for _, s := range sources {
		if err := quality.Gate(meta.Quality[s.cfg.Name], s.gate); err != nil {
			return flagged, err
		}
	}
	return flagged, nil
}

// Check runs ingest, validation and the quality gates only
func (p *Pipeline) Check(ctx context.Context) (*Metadata, error) {
	meta := newMetadata(uuid.NewString(), p.now())
	_, err := p.check(ctx, meta)
	meta.FinishedAt = p.now()
	return meta, err
}

// Run executes the whole pipeline. On error the returned Result still
// carries the metadata gathered so far; no tables are produced.
func (p *Pipeline) Run(ctx context.Context) (*Result, error) {
	meta := newMetadata(uuid.NewString(), p.now())
	res := &Result{Metadata: meta}
	fail := func(err error) (*Result, error) {
		meta.FinishedAt = p.now()
		return res, err
	}

	flagged, err := p.check(ctx, meta)
	if err != nil {
		return fail(err)
	}

	withAuthor := p.cfg.Identity.TitleAuthorFallback
	var records [2][]models.SourceRecord
	for i, ft := range flagged {
		n := newNormalizer(p.languages)
		records[i] = n.records(ft)
		for j := range records[i] {
			records[i][j].Identity = identity.Candidate(&records[i][j], withAuthor)
		}
		meta.ParseFailures[ft.Table.Source] = n.failures
	}
	if err := ctx.Err(); err != nil {
		return fail(err)
	}

	groups := identity.Resolve(records[0], records[1], p.cfg.Identity)
	res.Groups = groups

	in := &Integration{}
	books := make([]models.CanonicalBook, 0, len(groups))
	joined := make(map[*models.SourceRecord]string, len(records[0])+len(records[1]))
	for _, g := range groups {
		book, err := merge.Merge(g.Primary, g.Secondary)
		if err != nil {
			return fail(fmt.Errorf("failed to merge book %s: %w", g.Identity, err))
		}
		book.BookID = g.Identity
		book.MatchedBy = g.MatchedBy
		books = append(books, *book)

		switch {
		case g.MatchedBy == identity.MatchedByISBN13:
			in.MatchedByISBN13++
		case g.MatchedBy == identity.MatchedByTitleAuthor:
			in.MatchedByTitleAuthor++
		case g.Secondary == nil:
			in.PrimaryOnly++
		default:
			in.SecondaryOnly++
		}
		for _, r := range []*models.SourceRecord{g.Primary, g.Secondary} {
			if _, seen := joined[r]; r != nil && !seen {
				joined[r] = g.Identity
			}
		}
	}

	books, dropped, err := merge.Collapse(books, p.cfg.Merge.Collapse)
	if err != nil {
		return fail(fmt.Errorf("failed to collapse books: %w", err))
	}
	res.Books = books

	ids := make(map[string]int)
	for i := range records {
		for j := range records[i] {
			rec := &records[i][j]
			d := detailRow(rec)
			if id, ok := joined[rec]; ok {
				d.BookID = id
			}
			ids[d.BookID]++
			res.Details = append(res.Details, d)
		}
	}

	in.DimBookRows = len(books)
	in.BookSourceDetailRows = len(res.Details)
	in.DistinctBookIDs = distinctIDs(books)
	in.CollapsedRows = dropped
	for _, n := range ids {
		if n > 1 {
			in.DuplicatesGroups++
		}
	}
	meta.Integration = in
	meta.FinishedAt = p.now()

	slog.Info("Reconciled sources",
		"run_id", meta.RunID,
		"dim_book_rows", in.DimBookRows,
		"detail_rows", in.BookSourceDetailRows,
		"matched_isbn13", in.MatchedByISBN13,
		"matched_title_author", in.MatchedByTitleAuthor,
		"collapsed", in.CollapsedRows)

	return res, nil
}

// PrimaryRecords loads, flags and normalizes the primary source without
// gating it. The enrichment command builds its queries from these.
func (p *Pipeline) PrimaryRecords(ctx context.Context) ([]models.SourceRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	src := p.sources()[0]
	table, err := p.load(src.cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", src.cfg.Name, err)
	}
	ft, _, err := quality.Validate(table, src.rules)
	if err != nil {
		return nil, fmt.Errorf("failed to validate %s: %w", src.cfg.Name, err)
	}
	return newNormalizer(p.languages).records(ft), nil
}

func distinctIDs(books []models.CanonicalBook) int {
	seen := make(map[string]struct{}, len(books))
	for _, b := range books {
		seen[b.BookID] = struct{}{}
	}
	return len(seen)
}
