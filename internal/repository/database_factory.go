package repository

import (
	"fmt"
	"strings"
)

// DatabaseType represents different database backend options
type DatabaseType string

const (
	DatabaseTypeBadger DatabaseType = "badger"
	DatabaseTypeBolt   DatabaseType = "bolt"
)

// NewRepository creates a repository with the specified database backend.
//
// Database Types:
// - bolt: compact single-file B+ tree store, the default for household-sized data
// - badger: LSM-tree store, faster for write-heavy multi-user deployments
func NewRepository(dbPath string, dbType DatabaseType) (Repository, error) {
	switch dbType {
	case DatabaseTypeBolt:
		if !strings.HasSuffix(dbPath, ".bolt") {
			dbPath = dbPath + ".bolt"
		}
		return NewBoltRepository(dbPath)

	case DatabaseTypeBadger:
		// BadgerDB uses directory-based storage
		return NewBadgerRepository(dbPath)

	default:
		return nil, fmt.Errorf("unsupported database type: %s", dbType)
	}
}
