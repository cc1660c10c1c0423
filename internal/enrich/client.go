package enrich

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"
	books "google.golang.org/api/books/v1"
	"google.golang.org/api/option"

	"github.com/lehigh-university-libraries/catalog-reconciler/internal/config"
	"github.com/lehigh-university-libraries/catalog-reconciler/internal/models"
)

// ErrNoResults is returned when a query matches no volume
var ErrNoResults = errors.New("no volumes found")

// ErrNoQuery is returned for records with neither an ISBN-13 nor a title
var ErrNoQuery = errors.New("record has no isbn13 or title to search by")

// Client looks books up in the Google Books volumes API. Calls are rate
// limited, bounded by a per-request timeout and guarded by a circuit breaker.
type Client struct {
	svc     *books.Service
	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker[*books.Volumes]
	timeout time.Duration
}

// NewClient builds a client from the enrich configuration. Extra options
// are appended after the ones derived from cfg.
func NewClient(ctx context.Context, cfg config.EnrichConfig, opts ...option.ClientOption) (*Client, error) {
	var clientOpts []option.ClientOption
	if cfg.APIKey != "" {
		clientOpts = append(clientOpts, option.WithAPIKey(cfg.APIKey))
	} else {
		clientOpts = append(clientOpts, option.WithoutAuthentication())
	}
	if cfg.Endpoint != "" {
		clientOpts = append(clientOpts, option.WithEndpoint(cfg.Endpoint))
	}
	clientOpts = append(clientOpts, opts...)

	svc, err := books.NewService(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create books service: %w", err)
	}

	maxFailures := cfg.MaxFailures
	breaker := gobreaker.NewCircuitBreaker[*books.Volumes](gobreaker.Settings{
		Name:        "google-books",
		MaxRequests: 1,
		Timeout:     cfg.BreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= maxFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			slog.Warn("Circuit breaker state change", "name", name, "from", from.String(), "to", to.String())
		},
	})

	return &Client{
		svc:     svc,
		limiter: rate.NewLimiter(rate.Limit(cfg.RatePerSecond), cfg.Burst),
		breaker: breaker,
		timeout: cfg.Timeout,
	}, nil
}

// Query builds the volumes search for a record: isbn:<isbn13> when it has
// one, otherwise intitle:<title> plus inauthor:<first author> when known.
func Query(rec *models.SourceRecord) (string, error) {
	if rec.ISBN13 != nil && *rec.ISBN13 != "" {
		return "isbn:" + *rec.ISBN13, nil
	}
	if rec.Title == nil || *rec.Title == "" {
		return "", ErrNoQuery
	}
	q := "intitle:" + *rec.Title
	if author := rec.FirstAuthor(); author != "" {
		q += "+inauthor:" + author
	}
	return q, nil
}

// Lookup runs one search and converts the first volume to a secondary record
func (c *Client) Lookup(ctx context.Context, query string) (*Volume, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("failed to wait for rate limiter: %w", err)
	}

	result, err := c.breaker.Execute(func() (*books.Volumes, error) {
		reqCtx, cancel := context.WithTimeout(ctx, c.timeout)
		defer cancel()
		return c.svc.Volumes.List(query).MaxResults(1).Context(reqCtx).Do()
	})
	if err != nil {
		return nil, fmt.Errorf("failed to search volumes for %q: %w", query, err)
	}
	if result == nil || len(result.Items) == 0 || result.Items[0] == nil {
		return nil, ErrNoResults
	}
	return volumeRecord(result.Items[0], query), nil
}
