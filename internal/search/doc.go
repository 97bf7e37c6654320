// Package search answers k-nearest-neighbor queries over embedded
// content by cosine distance. Results are ascending by distance with
// ties resolved by insertion order, and vectors of unequal dimension
// are an error, never silently skipped.
package search
