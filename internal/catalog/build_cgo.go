//go:build cgo && !purego
// +build cgo,!purego

package catalog

// This file is compiled when CGO is enabled and the purego tag is absent.
//
// Build command:
//   CGO_ENABLED=1 go build ./...
//
// The CGO implementation provides:
//   - Faster SQLite operations via the C library
//   - Requires a C compiler at build time
//
// Driver used: github.com/mattn/go-sqlite3

import (
	_ "github.com/mattn/go-sqlite3"
)

const (
	// DriverName is the SQLite driver to use
	DriverName = "sqlite3"

	// BuildMode describes the current build configuration
	BuildMode = "cgo"
)
