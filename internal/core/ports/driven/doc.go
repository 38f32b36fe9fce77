// Package driven defines the outbound ports of the pipeline: the
// interfaces the core depends on and adapters implement (content
// source, embedding API, vector index, settings source).
package driven
