// Package middleware wraps an audit store with privacy controls applied
// before run traces reach storage.
package middleware

import "github.com/aretw0/arbor/pkg/ports"

// Middleware allows wrapping an AuditStore to add behavior.
type Middleware func(ports.AuditStore) ports.AuditStore

// Chain applies mws to store. The first middleware is the outermost, so it
// sees every write before the ones after it.
func Chain(store ports.AuditStore, mws ...Middleware) ports.AuditStore {
	for i := len(mws) - 1; i >= 0; i-- {
		store = mws[i](store)
	}
	return store
}
