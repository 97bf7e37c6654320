// Package extractor turns cataloged files into text content.
//
// Extraction is asynchronous by contract: a Backend accepts a file
// (Submit), reports progress (Poll), and hands back the recovered text
// and metadata (Fetch). The HTTPBackend speaks this protocol against an
// external conversion service; the InlineBackend implements the same
// contract in-process for plain-text files, completing on the first poll.
//
// The Coordinator owns the per-file state machine. It claims a file
// atomically, routes it to a backend by extension, polls within a
// configured budget, and lands the file in Processed or Error. Backend
// error text is stored verbatim so a failed file explains itself.
// Failures are never retried automatically; a retry is a new claim.
package extractor
