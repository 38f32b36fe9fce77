// Package file provides the TOML-backed local configuration for the
// pressvec CLI: site connection details, credentials and API keys.
// Remote run settings (chunking, model, index identity) live in the
// settings document, not here.
package file
