package domain

import "time"

// Document is one published content item from the source site,
// normalised to plain text. Documents are immutable once yielded by
// the content source. The source-assigned ID is unique within the
// site but only the (Category, ID) pair is a true key across types.
type Document struct {
	// ID is the source-assigned numeric identifier.
	ID int

	// Category is the content type this document belongs to
	// (e.g. "post", "page").
	Category string

	// Title is the plain-text title after normalisation.
	Title string

	// Content is the plain-text body after markup stripping and
	// entity decoding.
	Content string

	// URL is the canonical public link.
	URL string

	// CreatedAt is the source publication time.
	CreatedAt time.Time

	// ModifiedAt is the source last-modified time.
	ModifiedAt time.Time

	// AuthorID is the source author identifier.
	AuthorID int

	// TaxonomyRefs are category/tag term identifiers attached to
	// the document.
	TaxonomyRefs []int
}

// IsEmpty reports whether the document has no indexable text left
// after normalisation. Empty documents are never indexed.
func (d *Document) IsEmpty() bool {
	return d.Title == "" && d.Content == ""
}

// Text returns the text that gets chunked and embedded: the title
// followed by the body.
func (d *Document) Text() string {
	if d.Title == "" {
		return d.Content
	}
	if d.Content == "" {
		return d.Title
	}
	return d.Title + " " + d.Content
}

// Chunk is a bounded span of one document's normalised text, the unit
// that gets embedded and stored. Indexes are contiguous and gapless
// starting at 0 within a document.
type Chunk struct {
	// Text is the chunk content.
	Text string

	// Index is the ordinal position within the document.
	Index int
}
