// Package driving defines the inbound ports of the pipeline: the
// interfaces the CLI calls into the core through.
package driving
