// Package ingest walks directories and registers files in the catalog
// by content hash, using a bounded worker pool. Unreadable files are
// counted and skipped rather than failing the scan.
package ingest
