// Package provider composes execution adapters by name.
//
// Adapter packages register a Factory from init. The process resolves
// exactly one of them when it opens a database:
//
//	db, err := provider.Open(ctx, "", "shop.db", logger)
//	if err != nil { ... }
//	defer db.Close()
//	n, err := db.Table("Users").Count(ctx)
package provider

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"sync"

	"github.com/roach88/deferq/internal/query"
)

var (
	// ErrNoProvider is returned when no provider is registered.
	ErrNoProvider = errors.New("no provider found")

	// ErrMultipleProviders is returned when a provider must be chosen
	// implicitly but more than one is registered.
	ErrMultipleProviders = errors.New("multiple providers found; specify provider name")

	// ErrUnknownProvider is returned for a name nobody registered.
	ErrUnknownProvider = errors.New("unknown provider")
)

// Conn is an open adapter that holds resources.
type Conn interface {
	query.Adapter
	io.Closer
}

// Factory opens a Conn for a data source name.
type Factory func(ctx context.Context, dsn string, logger *slog.Logger) (Conn, error)

// Registry maps provider names to factories. The zero value is empty and
// ready to use.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// Register adds a factory. It panics on an empty name, a nil factory or a
// duplicate name, since all of those are programming errors in init code.
func (r *Registry) Register(name string, f Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if name == "" {
		panic("provider: Register with empty name")
	}
	if f == nil {
		panic("provider: Register " + name + " with nil factory")
	}
	if _, dup := r.factories[name]; dup {
		panic("provider: Register called twice for " + name)
	}
	if r.factories == nil {
		r.factories = make(map[string]Factory)
	}
	r.factories[name] = f
}

// Providers returns the registered names, sorted.
func (r *Registry) Providers() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Compose returns the only registered factory.
func (r *Registry) Compose() (string, Factory, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	switch len(r.factories) {
	case 0:
		return "", nil, ErrNoProvider
	case 1:
		for name, f := range r.factories {
			return name, f, nil
		}
	}
	return "", nil, ErrMultipleProviders
}

// ComposeNamed returns the factory registered under name.
func (r *Registry) ComposeNamed(name string) (Factory, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	f, ok := r.factories[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, name)
	}
	return f, nil
}

// Open resolves a provider and opens dsn with it. An empty name composes
// the only registered provider.
func (r *Registry) Open(ctx context.Context, name, dsn string, logger *slog.Logger) (*DB, error) {
	var f Factory
	var err error
	if name == "" {
		name, f, err = r.Compose()
	} else {
		f, err = r.ComposeNamed(name)
	}
	if err != nil {
		return nil, err
	}

	conn, err := f(ctx, dsn, logger)
	if err != nil {
		return nil, fmt.Errorf("open %s provider: %w", name, err)
	}
	return &DB{conn: conn, provider: name}, nil
}

var defaultRegistry Registry

// Register adds a factory to the process-wide registry.
func Register(name string, f Factory) { defaultRegistry.Register(name, f) }

// Providers lists the process-wide registry.
func Providers() []string { return defaultRegistry.Providers() }

// Compose resolves the only provider in the process-wide registry.
func Compose() (string, Factory, error) { return defaultRegistry.Compose() }

// ComposeNamed resolves name in the process-wide registry.
func ComposeNamed(name string) (Factory, error) { return defaultRegistry.ComposeNamed(name) }

// Open opens dsn through the process-wide registry.
func Open(ctx context.Context, name, dsn string, logger *slog.Logger) (*DB, error) {
	return defaultRegistry.Open(ctx, name, dsn, logger)
}
