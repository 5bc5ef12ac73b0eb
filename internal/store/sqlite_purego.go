//go:build !sqlite_cgo

package store

// Pure Go driver, no C toolchain needed:
//
//	CGO_ENABLED=0 go build ./...

import (
	_ "modernc.org/sqlite"
)

// DriverName is the database/sql driver used by the SQLite store
const DriverName = "sqlite"
