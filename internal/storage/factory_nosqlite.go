//go:build !sqlite

package storage

import "fmt"

func newSQLiteStore(path string) (Store, error) {
	return nil, fmt.Errorf("sqlite backend unavailable in this build (path %s); rebuild with -tags sqlite", path)
}
