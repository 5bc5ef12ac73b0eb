//go:build sqlite_cgo

package store

// CGO driver, faster on write-heavy workloads:
//
//	CGO_ENABLED=1 go build -tags sqlite_cgo ./...

import (
	_ "github.com/mattn/go-sqlite3"
)

// DriverName is the database/sql driver used by the SQLite store
const DriverName = "sqlite3"
