// Package sqlite opens SQLite corpus databases through whichever driver the
// build selected.
//
// Build modes:
//   - Default: pure Go modernc.org/sqlite
//   - -tags cgo_sqlite (CGO_ENABLED=1): mattn/go-sqlite3
//
// Use Open rather than sql.Open so the registered driver name always matches.
package sqlite

import (
	"database/sql"
	"net/url"
	"path/filepath"
	"strings"
)

// DriverName returns the registered database/sql driver name.
func DriverName() string {
	return driverName
}

// DriverType returns "cgo" or "purego".
func DriverType() string {
	return driverType
}

// IsCGO reports whether the CGO driver is compiled in.
func IsCGO() bool {
	return driverType == "cgo"
}

// Open opens a database using the selected driver.
func Open(dataSourceName string) (*sql.DB, error) {
	return sql.Open(driverName, dataSourceName)
}

// OpenReadOnly opens the database at path in read-only mode. Both drivers
// accept the file: URI form.
func OpenReadOnly(path string) (*sql.DB, error) {
	u := url.URL{Scheme: "file", Opaque: escapePath(path), RawQuery: "mode=ro"}
	return Open(u.String())
}

// escapePath percent-encodes each segment so '?', '#' and '%' in a file
// name stay part of the path.
func escapePath(path string) string {
	segs := strings.Split(filepath.ToSlash(path), "/")
	for i, s := range segs {
		segs[i] = url.PathEscape(s)
	}
	return strings.Join(segs, "/")
}

// Info describes the compiled-in driver.
type Info struct {
	DriverName string `json:"driver_name"`
	DriverType string `json:"driver_type"`
	IsCGO      bool   `json:"is_cgo"`
	Package    string `json:"package"`
}

// GetInfo returns the compiled-in driver description.
func GetInfo() Info {
	return Info{
		DriverName: driverName,
		DriverType: driverType,
		IsCGO:      IsCGO(),
		Package:    driverPackage,
	}
}
