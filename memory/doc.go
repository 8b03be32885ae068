// Package memory implements a file-backed bank of completed research runs.
// Agents consult it to reference past findings and build on previous work
// instead of repeating searches. Retrieval is a simple keyword match; swap in
// an embedding index for semantic search if retrieval quality matters.
package memory
