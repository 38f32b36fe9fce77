// Package domain contains the core types of the pressvec pipeline:
// documents fetched from the content source, chunks derived from them,
// vectors stored in the remote index, run settings and run progress.
// Domain types have no dependencies on adapters or infrastructure.
package domain
