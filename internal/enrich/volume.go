package enrich

import (
	books "google.golang.org/api/books/v1"
)

// Volume is one secondary-source row as written to the enrichment JSONL.
// Required secondary columns are always present, as null when unknown.
type Volume struct {
	ID              string   `json:"id"`
	URL             *string  `json:"url"`
	Title           *string  `json:"title"`
	Authors         []string `json:"authors"`
	Publisher       *string  `json:"publisher"`
	PublicationDate *string  `json:"publication_date"`
	Language        *string  `json:"language"`
	ISBN13          *string  `json:"isbn13"`
	ISBN            *string  `json:"isbn"`
	NumPages        *int64   `json:"num_pages"`
	Genres          []string `json:"genres"`
	RatingValue     *float64 `json:"rating_value"`
	RatingCount     *int64   `json:"rating_count"`
	Cover           *string  `json:"cover"`
	Format          *string  `json:"format"`
	Description     *string  `json:"description"`
	PriceAmount     *float64 `json:"price_amount"`
	Currency        *string  `json:"currency"`
	Query           string   `json:"query"`
}

func volumeRecord(v *books.Volume, query string) *Volume {
	out := &Volume{ID: v.Id, Query: query}

	info := v.VolumeInfo
	if info != nil {
		out.Title = nonEmpty(info.Title)
		out.Authors = info.Authors
		out.Publisher = nonEmpty(info.Publisher)
		out.PublicationDate = nonEmpty(info.PublishedDate)
		out.Language = nonEmpty(info.Language)
		out.Genres = info.Categories
		out.Description = nonEmpty(info.Description)
		out.Format = nonEmpty(info.PrintType)
		out.URL = nonEmpty(info.InfoLink)
		if out.URL == nil {
			out.URL = nonEmpty(info.CanonicalVolumeLink)
		}
		if info.PageCount > 0 {
			n := info.PageCount
			out.NumPages = &n
		}
		if info.RatingsCount > 0 {
			avg, n := info.AverageRating, info.RatingsCount
			out.RatingValue = &avg
			out.RatingCount = &n
		}
		if links := info.ImageLinks; links != nil {
			out.Cover = nonEmpty(links.Thumbnail)
			if out.Cover == nil {
				out.Cover = nonEmpty(links.SmallThumbnail)
			}
		}
		for _, id := range info.IndustryIdentifiers {
			if id == nil {
				continue
			}
			switch id.Type {
			case "ISBN_13":
				out.ISBN13 = nonEmpty(id.Identifier)
			case "ISBN_10":
				out.ISBN = nonEmpty(id.Identifier)
			}
		}
	}
	if out.URL == nil {
		out.URL = nonEmpty(v.SelfLink)
	}

	if sale := v.SaleInfo; sale != nil {
		switch {
		case sale.RetailPrice != nil:
			amount := sale.RetailPrice.Amount
			out.PriceAmount = &amount
			out.Currency = nonEmpty(sale.RetailPrice.CurrencyCode)
		case sale.ListPrice != nil:
			amount := sale.ListPrice.Amount
			out.PriceAmount = &amount
			out.Currency = nonEmpty(sale.ListPrice.CurrencyCode)
		}
	}
	return out
}

func nonEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
