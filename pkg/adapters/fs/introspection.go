package fs

import (
	"github.com/aretw0/introspection"
)

// BackendState exposes internal state for observability.
type BackendState struct {
	BasePath       string `json:"base_path"`
	Extension      string `json:"extension"`
	Format         string `json:"format"`
	ListPolicy     string `json:"list_policy"`
	CacheSize      int    `json:"cache_size"`
	ActiveWatchers int    `json:"active_watchers"`
}

// State implements introspection.Introspectable.
func (b *Backend) State() any {
	b.mu.RLock()
	defer b.mu.RUnlock()

	return BackendState{
		BasePath:       b.config.BasePath,
		Extension:      b.config.Extension,
		Format:         b.config.Format.String(),
		ListPolicy:     b.config.ListPolicy.String(),
		CacheSize:      b.cache.Len(),
		ActiveWatchers: b.watches,
	}
}

// ComponentType implements introspection.Component.
func (b *Backend) ComponentType() string {
	return "fs-backend"
}

var _ introspection.Introspectable = (*Backend)(nil)
var _ introspection.Component = (*Backend)(nil)
