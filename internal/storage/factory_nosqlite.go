//go:build !sqlite

package storage

import "errors"

var errSQLiteUnavailable = errors.New("sqlite run store not compiled in; rebuild with -tags sqlite")

func newSQLiteStore(_ string) (Store, error) {
	return nil, errSQLiteUnavailable
}

// DefaultStoreKind is the backend used when none is configured.
func DefaultStoreKind() string {
	return "memory"
}
