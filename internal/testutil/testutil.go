// Package testutil provides in-memory doubles for service tests. The
// fakes honor the contracts the gorm stores implement: FirstOrCreate
// fills the caller's struct from an existing row, missing rows surface
// gorm.ErrRecordNotFound, updates compare-and-swap on the version
// column, and reads hand out copies. Writes ignore the tx argument so
// DB can run transaction closures with a nil handle.
package testutil

import (
	"github.com/fox-one/pkg/store/db"
)

// DB satisfies core.Transactor without a database. The closure runs
// with a nil handle; fakes never touch it.
type DB struct{}

// Tx run fn
func (DB) Tx(fn func(tx *db.DB) error) error {
	return fn(nil)
}
