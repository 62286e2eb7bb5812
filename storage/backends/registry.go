// Package backends is a build-time registry of ledger snapshot sources.
//
// Backends register themselves in init(); a binary enables one by importing
// its package, usually as a blank import.
package backends

import (
	"context"
	"flag"
	"fmt"
	"sort"
	"sync"

	"github.com/kennyzlei/rippled/ledger"
)

// Usage restricts which programs accept a backend.
type Usage uint8

const (
	UsageCLI Usage = 1 << iota
	UsageDaemon
)

func (u Usage) allows(want Usage) bool { return u&want != 0 }

// Options carries backend settings from a configuration file. Flags
// registered by a backend take precedence over these values.
type Options map[string]string

type Backend struct {
	Name        string
	Description string
	Usage       Usage

	// RegisterFlags adds backend-specific flags to fs. May be nil.
	RegisterFlags func(fs *flag.FlagSet)

	// Open builds the source. The returned close function may be nil.
	Open func(ctx context.Context, opts Options) (ledger.Source, func() error, error)
}

var (
	mu       sync.RWMutex
	registry = map[string]Backend{}
)

func Register(b Backend) error {
	if b.Name == "" {
		return fmt.Errorf("backends: name is required")
	}
	if b.Open == nil {
		return fmt.Errorf("backends: %q missing Open", b.Name)
	}
	if b.Usage == 0 {
		return fmt.Errorf("backends: %q missing Usage", b.Name)
	}
	mu.Lock()
	defer mu.Unlock()
	if _, ok := registry[b.Name]; ok {
		return fmt.Errorf("backends: %q already registered", b.Name)
	}
	registry[b.Name] = b
	return nil
}

func MustRegister(b Backend) {
	if err := Register(b); err != nil {
		panic(err)
	}
}

// List returns backends matching usage, sorted by name.
func List(usage Usage) []Backend {
	mu.RLock()
	defer mu.RUnlock()
	out := make([]Backend, 0, len(registry))
	for _, b := range registry {
		if b.Usage.allows(usage) {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func Names(usage Usage) []string {
	bs := List(usage)
	out := make([]string, 0, len(bs))
	for _, b := range bs {
		out = append(out, b.Name)
	}
	return out
}

// RegisterFlags registers the flags of every backend matching usage so a
// single flag pass accepts them all.
func RegisterFlags(fs *flag.FlagSet, usage Usage) {
	for _, b := range List(usage) {
		if b.RegisterFlags != nil {
			b.RegisterFlags(fs)
		}
	}
}

// Open opens the named backend if it exists and matches usage.
func Open(ctx context.Context, name string, usage Usage, opts Options) (ledger.Source, func() error, error) {
	mu.RLock()
	b, ok := registry[name]
	mu.RUnlock()
	if !ok {
		return nil, nil, fmt.Errorf("unknown backend %q", name)
	}
	if !b.Usage.allows(usage) {
		return nil, nil, fmt.Errorf("backend %q not supported in this binary", name)
	}
	if opts == nil {
		opts = Options{}
	}
	return b.Open(ctx, opts)
}

// Pick returns the flag value when set, else the option named key.
func (o Options) Pick(flagValue, key string) string {
	if flagValue != "" {
		return flagValue
	}
	return o[key]
}
