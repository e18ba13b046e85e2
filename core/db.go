package core

import (
	"github.com/fox-one/pkg/store/db"
)

// Transactor runs a function inside one database transaction; the
// whole function commits or nothing does. *db.DB satisfies it.
type Transactor interface {
	Tx(fn func(tx *db.DB) error) error
}
