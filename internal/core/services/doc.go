// Package services contains the pipeline orchestration: composing the
// content source, chunk splitter, embedding generator and vector store
// gateway into the index, clean and delete-all operations.
package services
