//go:build cgo_sqlite

// Build with: go build -tags cgo_sqlite (requires CGO_ENABLED=1)
package sqlite

import (
	_ "github.com/mattn/go-sqlite3" // CGO driver, registers "sqlite3"
)

const (
	driverName    = "sqlite3"
	driverType    = "cgo"
	driverPackage = "github.com/mattn/go-sqlite3"
)
