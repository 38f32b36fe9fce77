// Package wordpress fetches published content from a WordPress site's
// REST API, one content type at a time, paginated. Raw records are
// normalised to plain text before they leave the package; documents
// with no text after normalisation are never yielded.
package wordpress
