package models

import "time"

// Comment is one scraped reader review
type Comment struct {
	User   string   `json:"user" parquet:"user"`
	Date   string   `json:"date" parquet:"date"`
	Rating *float64 `json:"rating" parquet:"rating,optional"`
	Text   string   `json:"text" parquet:"text"`
}

// LangCount is one entry of a review-count-by-language mapping
type LangCount struct {
	Language string `json:"language" parquet:"language"`
	Count    int64  `json:"count" parquet:"count"`
}

// Flag is one named quality flag as stored in the detail table
type Flag struct {
	Name   string `json:"name" parquet:"name"`
	Passed bool   `json:"passed" parquet:"passed"`
}

// QualityFlags maps a prefixed flag name (q_gr_title_valid, ...) to its outcome
type QualityFlags map[string]bool

// SourceRecord is one book description from one source.
// Raw is never mutated; normalized values live alongside it.
type SourceRecord struct {
	Source     string
	SourceFile string
	IngestedAt time.Time
	Index      int // row position in the source table
	Raw        Row

	Flags    QualityFlags
	Valid    bool   // conjunction of the source's validity flags
	Identity string // candidate identity from this record's own fields

	ID                   *string
	ISBN                 *string
	ISBN13               *string
	Title                *string
	Authors              []string
	Publisher            *string
	Language             *string
	Genres               []string
	NumPages             *float64
	PublicationDate      *string // ISO-8601, input granularity
	PublicationTimestamp *float64
	PubInfo              *string
	Format               *string
	RatingValue          *float64
	RatingCount          *float64
	ReviewCount          *float64
	ReviewCountByLang    map[string]float64
	Price                *float64
	Currency             *string
	Cover                *string
	URL                  *string
	Description          *string
	Comments             []Comment
}

// FirstAuthor returns the first listed author or ""
func (r *SourceRecord) FirstAuthor() string {
	if r == nil || len(r.Authors) == 0 {
		return ""
	}
	return r.Authors[0]
}

// CanonicalBook is one dim_book row: the merged view of a book identity
type CanonicalBook struct {
	BookID               string      `json:"book_id" parquet:"book_id"`
	ISBN13               *string     `json:"isbn13" parquet:"isbn13,optional"`
	ISBN                 *string     `json:"isbn" parquet:"isbn,optional"`
	Title                *string     `json:"title" parquet:"title,optional"`
	Authors              []string    `json:"authors" parquet:"authors,list"`
	Publisher            *string     `json:"publisher" parquet:"publisher,optional"`
	PublicationDate      *string     `json:"publication_date" parquet:"publication_date,optional"`
	PublicationTimestamp *int64      `json:"publication_timestamp" parquet:"publication_timestamp,optional"`
	PubInfo              *string     `json:"pub_info" parquet:"pub_info,optional"`
	Language             *string     `json:"language" parquet:"language,optional"`
	Genres               []string    `json:"genres" parquet:"genres,list"`
	NumPages             *int64      `json:"num_pages" parquet:"num_pages,optional"`
	Format               *string     `json:"format" parquet:"format,optional"`
	RatingValue          *float64    `json:"rating_value" parquet:"rating_value,optional"`
	RatingCount          *int64      `json:"rating_count" parquet:"rating_count,optional"`
	ReviewCount          *int64      `json:"review_count" parquet:"review_count,optional"`
	ReviewCountByLang    []LangCount `json:"review_count_by_lang" parquet:"review_count_by_lang,list"`
	Price                *float64    `json:"price" parquet:"price,optional"`
	Currency             *string     `json:"currency" parquet:"currency,optional"`
	Cover                *string     `json:"cover" parquet:"cover,optional"`
	URL                  *string     `json:"url" parquet:"url,optional"`
	Description          *string     `json:"description" parquet:"description,optional"`
	Comments             []Comment   `json:"comments" parquet:"comments,list"`

	SourceWinner      string `json:"source_winner" parquet:"source_winner"` // source name, or "merged"
	MatchedBy         string `json:"matched_by" parquet:"matched_by"`       // isbn13, title_author, or ""
	CompletenessScore int64  `json:"completeness_score" parquet:"completeness_score"`
	Provenance        string `json:"provenance" parquet:"provenance"` // JSON document
}

// SourceDetail is one book_source_detail row: a flagged, normalized, unmerged source record
type SourceDetail struct {
	Source            string    `json:"source" parquet:"source"`
	SourceFile        string    `json:"source_file" parquet:"source_file"`
	IngestTimestamp   time.Time `json:"ingest_ts" parquet:"ingest_ts,timestamp(millisecond)"`
	RowIndex          int64     `json:"row_index" parquet:"row_index"`
	BookID            string    `json:"book_id" parquet:"book_id"`           // identity of the group the record joined
	CandidateID       string    `json:"candidate_id" parquet:"candidate_id"` // identity from the record's own fields
	SourceID          *string   `json:"source_id" parquet:"source_id,optional"`
	RawISBN13         *string   `json:"raw_isbn13" parquet:"raw_isbn13,optional"`
	ISBN13            *string   `json:"isbn13" parquet:"isbn13,optional"`
	ISBN              *string   `json:"isbn" parquet:"isbn,optional"`
	Title             *string   `json:"title" parquet:"title,optional"`
	Authors           []string  `json:"authors" parquet:"authors,list"`
	Publisher         *string   `json:"publisher" parquet:"publisher,optional"`
	PublicationDate   *string   `json:"publication_date" parquet:"publication_date,optional"`
	Language          *string   `json:"language" parquet:"language,optional"`
	Genres            []string  `json:"genres" parquet:"genres,list"`
	NumPages          *int64    `json:"num_pages" parquet:"num_pages,optional"`
	RatingValue       *float64  `json:"rating_value" parquet:"rating_value,optional"`
	RatingCount       *int64    `json:"rating_count" parquet:"rating_count,optional"`
	Price             *float64  `json:"price" parquet:"price,optional"`
	Currency          *string   `json:"currency" parquet:"currency,optional"`
	URL               *string   `json:"url" parquet:"url,optional"`
	QualityFlags      []Flag    `json:"quality_flags" parquet:"quality_flags,list"`
	RecordValid       bool      `json:"q_record_valid" parquet:"q_record_valid"`
	CompletenessScore int64     `json:"completeness_score" parquet:"completeness_score"`
}
