package middleware

import "github.com/aretw0/stagehand/pkg/ports"

// Middleware allows wrapping a MetadataStore to add behavior.
type Middleware func(ports.MetadataStore) ports.MetadataStore

// Chain applies middlewares so the first one is the outermost.
func Chain(store ports.MetadataStore, mws ...Middleware) ports.MetadataStore {
	for i := len(mws) - 1; i >= 0; i-- {
		store = mws[i](store)
	}
	return store
}
