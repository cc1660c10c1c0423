package enrich

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"

	"github.com/lehigh-university-libraries/catalog-reconciler/internal/config"
	"github.com/lehigh-university-libraries/catalog-reconciler/internal/models"
)

const duneVolume = `{
  "kind": "books#volumes",
  "totalItems": 1,
  "items": [{
    "id": "B1hSG45JCX4C",
    "selfLink": "https://www.googleapis.com/books/v1/volumes/B1hSG45JCX4C",
    "volumeInfo": {
      "title": "Dune",
      "authors": ["Frank Herbert"],
      "publisher": "Penguin",
      "publishedDate": "2003-08-01",
      "description": "Set on the desert planet Arrakis.",
      "industryIdentifiers": [
        {"type": "ISBN_13", "identifier": "9780441013593"},
        {"type": "ISBN_10", "identifier": "0441013597"}
      ],
      "pageCount": 604,
      "printType": "BOOK",
      "categories": ["Fiction"],
      "averageRating": 4.5,
      "ratingsCount": 120,
      "imageLinks": {"smallThumbnail": "http://books.google.com/small.jpg"},
      "language": "en",
      "infoLink": "http://books.google.com/books?id=B1hSG45JCX4C"
    },
    "saleInfo": {
      "listPrice": {"amount": 9.99, "currencyCode": "USD"}
    }
  }]
}`

type memWriter struct {
	records []any
}

func (m *memWriter) Write(v any) error {
	m.records = append(m.records, v)
	return nil
}

func str(s string) *string { return &s }

func testConfig() config.EnrichConfig {
	return config.EnrichConfig{
		Timeout:        2 * time.Second,
		RatePerSecond:  1000,
		Burst:          10,
		MaxFailures:    2,
		BreakerTimeout: time.Minute,
	}
}

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := testConfig()
	cfg.Endpoint = srv.URL + "/"
	client, err := NewClient(context.Background(), cfg, option.WithHTTPClient(srv.Client()))
	require.NoError(t, err)
	return client
}

func TestQuery(t *testing.T) {
	tests := []struct {
		name    string
		rec     models.SourceRecord
		want    string
		wantErr error
	}{
		{"isbn first", models.SourceRecord{ISBN13: str("9780441013593"), Title: str("Dune")}, "isbn:9780441013593", nil},
		{"title and author", models.SourceRecord{Title: str("Dune"), Authors: []string{"Frank Herbert", "Brian Herbert"}}, "intitle:Dune+inauthor:Frank Herbert", nil},
		{"title only", models.SourceRecord{Title: str("Dune")}, "intitle:Dune", nil},
		{"nothing", models.SourceRecord{}, "", ErrNoQuery},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Query(&tt.rec)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLookup(t *testing.T) {
	var gotQuery string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("q")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(duneVolume))
	})

	vol, err := client.Lookup(context.Background(), "isbn:9780441013593")
	require.NoError(t, err)
	assert.Equal(t, "isbn:9780441013593", gotQuery)

	assert.Equal(t, "B1hSG45JCX4C", vol.ID)
	assert.Equal(t, "Dune", *vol.Title)
	assert.Equal(t, []string{"Frank Herbert"}, vol.Authors)
	assert.Equal(t, "9780441013593", *vol.ISBN13)
	assert.Equal(t, "0441013597", *vol.ISBN)
	assert.Equal(t, int64(604), *vol.NumPages)
	assert.Equal(t, "2003-08-01", *vol.PublicationDate)
	assert.Equal(t, "http://books.google.com/small.jpg", *vol.Cover)
	assert.Equal(t, "http://books.google.com/books?id=B1hSG45JCX4C", *vol.URL)
	assert.Equal(t, 9.99, *vol.PriceAmount)
	assert.Equal(t, "USD", *vol.Currency)
	assert.Equal(t, int64(120), *vol.RatingCount)
}

func TestLookupNoResults(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"kind":"books#volumes","totalItems":0}`))
	})

	_, err := client.Lookup(context.Background(), "intitle:Nothing")
	assert.ErrorIs(t, err, ErrNoResults)
}

func TestEnrichSkipsFailures(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Query().Get("q") {
		case "isbn:9780441013593":
			_, _ = w.Write([]byte(duneVolume))
		case "isbn:9780000000002":
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte(`{"error":{"code":500,"message":"backend error"}}`))
		default:
			_, _ = w.Write([]byte(`{"totalItems":0}`))
		}
	})

	records := []models.SourceRecord{
		{Index: 0, ISBN13: str("9780441013593")},
		{Index: 1},
		{Index: 2, ISBN13: str("9780000000002")},
		{Index: 3, Title: str("Unknown Book")},
		{Index: 4, ISBN13: str("9780441013593")},
	}
	out := &memWriter{}
	stats, err := client.Enrich(context.Background(), records, out, 0)
	require.NoError(t, err)

	assert.Equal(t, 5, stats.Processed)
	assert.Equal(t, 2, stats.Written)
	assert.Equal(t, 1, stats.Skipped)
	assert.Equal(t, 1, stats.NotFound)
	assert.Equal(t, 1, stats.Failed)
	require.Len(t, out.records, 2)

	// the written record decodes into the secondary column names
	blob, err := json.Marshal(out.records[0])
	require.NoError(t, err)
	var row map[string]any
	require.NoError(t, json.Unmarshal(blob, &row))
	for _, col := range []string{"isbn13", "url", "title", "authors", "publication_date", "language"} {
		assert.Contains(t, row, col)
	}
}

func TestEnrichLimit(t *testing.T) {
	var hits atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(duneVolume))
	})

	records := make([]models.SourceRecord, 5)
	for i := range records {
		records[i].ISBN13 = str("9780441013593")
	}
	stats, err := client.Enrich(context.Background(), records, &memWriter{}, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Processed)
	assert.Equal(t, int32(2), hits.Load())
}

func TestEnrichBreakerOpens(t *testing.T) {
	var hits atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	records := make([]models.SourceRecord, 4)
	for i := range records {
		records[i].Index = i
		records[i].ISBN13 = str("9780441013593")
	}
	stats, err := client.Enrich(context.Background(), records, &memWriter{}, 0)
	require.NoError(t, err)

	assert.Equal(t, 4, stats.Failed)
	assert.Equal(t, int32(2), hits.Load(), "breaker rejects after MaxFailures consecutive errors")
}

func TestEnrichCancelled(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(duneVolume))
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := client.Enrich(ctx, []models.SourceRecord{{ISBN13: str("9780441013593")}}, &memWriter{}, 0)
	assert.True(t, errors.Is(err, context.Canceled))
}
