// Package catalog provides durable storage for file identities, content
// variants, and tags, backed by SQLite.
//
// # Identity and deduplication
//
// A FileRecord exists per unique content hash. FindOrCreateFile is the
// single dedup point: it inserts with ON CONFLICT DO NOTHING against the
// unique hash index and then reads the winning row, so concurrent callers
// racing on the same hash resolve to exactly one created record. Every call
// also appends the observed path to file_paths; a duplicate file therefore
// shows up as a second observation, never a second identity.
//
// # State machine
//
// FileRecord.Status moves Discovered -> Processing -> Processed, with
// Processing -> Error on failure and Error -> Processing on retry. ClaimFile
// implements the Discovered|Error -> Processing transition as one
// conditional UPDATE, which makes it safe for multiple workers to race on
// the same record: exactly one claim succeeds.
//
// # Content variants
//
// Each FileRecord owns up to one ContentRecord per ContentType (raw,
// extracted, processed), enforced by a unique index. UpsertContent updates
// in place and clears the stored embedding only when the text changed, so
// re-extraction is idempotent and never invalidates a still-valid vector.
//
// # Drivers
//
// Two SQLite drivers are supported via build tags: modernc.org/sqlite
// (pure Go, default for CGO-less builds) and mattn/go-sqlite3 (CGO).
// See build_purego.go and build_cgo.go.
package catalog
