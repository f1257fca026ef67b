// Package output renders scan results as plain text, JSON, JSON lines, YAML,
// or styled terminal output.
//
// Formatters are looked up by name from a registry:
//
//	formatter, err := output.Get("plain")
//	if err != nil {
//	    return err
//	}
//	var buf bytes.Buffer
//	if err := formatter.Format(&buf, output.NewResult(root, deltas, stats)); err != nil {
//	    return err
//	}
//	os.Stdout.Write(buf.Bytes())
package output

import (
	"bytes"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/jamesainslie/deltafy/pkg/deltafy/types"
)

// ErrUnknownFormat is returned by Get for an unregistered name.
var ErrUnknownFormat = errors.New("unknown output format")

// Result is everything a formatter may render for one scan.
type Result struct {
	// Root is the watched directory.
	Root string

	// Deltas are the changes reported by the scan, in report order.
	Deltas []types.Delta

	// Stats describes the scan that produced Deltas.
	Stats types.ScanStats

	// Skipped lists entries that could not be read during the scan.
	Skipped []types.ScanError

	// DryRun is set when the result comes from a preview.
	DryRun bool
}

// NewResult builds a Result from a scan's delta list.
func NewResult(root string, list *types.DeltaList, stats types.ScanStats) *Result {
	return &Result{
		Root:   root,
		Deltas: list.Deltas(),
		Stats:  stats,
	}
}

// Count returns how many deltas have the given status.
func (r *Result) Count(status types.Status) int {
	n := 0
	for _, d := range r.Deltas {
		if d.Status == status {
			n++
		}
	}
	return n
}

// Formatter renders a Result.
type Formatter interface {
	Format(w *bytes.Buffer, r *Result) error
}

// FormatterFactory creates a Formatter.
type FormatterFactory func() Formatter

// Registry maps format names to factories.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]FormatterFactory
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]FormatterFactory)}
}

// Register adds or replaces the factory for name.
func (r *Registry) Register(name string, factory FormatterFactory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[name] = factory
}

// Get returns a new formatter for name.
func (r *Registry) Get(name string) (Formatter, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	factory, ok := r.factories[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q (available: %v)", ErrUnknownFormat, name, r.available())
	}
	return factory(), nil
}

// Available returns the registered names in sorted order.
func (r *Registry) Available() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.available()
}

func (r *Registry) available() []string {
	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// DefaultRegistry holds the built-in formatters.
var DefaultRegistry = NewRegistry()

// Register adds a formatter to DefaultRegistry.
func Register(name string, factory FormatterFactory) {
	DefaultRegistry.Register(name, factory)
}

// Get returns a formatter from DefaultRegistry.
func Get(name string) (Formatter, error) {
	return DefaultRegistry.Get(name)
}

// Available lists the formats in DefaultRegistry.
func Available() []string {
	return DefaultRegistry.Available()
}
