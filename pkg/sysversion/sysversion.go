// Package sysversion tracks the schema version migrate stamps into the
// property store, so long-running processes can refuse a store that has
// been migrated past the binary.
package sysversion

import (
	"context"
	"fmt"

	"github.com/fox-one/pkg/property"
)

// Key is the property migrate writes the schema version under.
const Key = "sysversion"

// Read returns the recorded schema version, zero when never migrated.
func Read(ctx context.Context, store property.Store) (int64, error) {
	v, err := store.Get(ctx, Key)
	if err != nil {
		return 0, err
	}

	return v.Int64(), nil
}

// Check fails when the store's version is ahead of supported.
func Check(ctx context.Context, store property.Store, supported int64) error {
	current, err := Read(ctx, store)
	if err != nil {
		return err
	}

	if current > supported {
		return fmt.Errorf("sysversion: store at %d, binary supports %d", current, supported)
	}

	return nil
}
