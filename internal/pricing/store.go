package pricing

import "context"

// ConfigStore is the persistence boundary for the active rate table. The
// stored config is a singleton: Save replaces it wholesale with last-writer-
// wins semantics, and Load returns the active config or the built-in default
// when nothing has been stored. Implementations must never hand an error to
// a price calculation path; callers that need a config no matter what use
// LoadOrDefault.
type ConfigStore interface {
	// Load returns the active config, or DefaultConfig() if none is stored.
	Load(ctx context.Context) (Config, error)

	// Save replaces the active config and returns what was persisted.
	Save(ctx context.Context, cfg Config) (Config, error)
}

// LoadOrDefault wraps Load with the never-fail contract the calculator
// relies on: any store failure degrades to the built-in default config.
func LoadOrDefault(ctx context.Context, store ConfigStore) Config {
	if store == nil {
		return DefaultConfig()
	}
	cfg, err := store.Load(ctx)
	if err != nil {
		return DefaultConfig()
	}
	return cfg
}
