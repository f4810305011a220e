package analyze

import (
	"sort"
	"sync"
)

// CapKind says how a capability name is meant to be matched by the resolver.
type CapKind int

const (
	// CapInterpreter names a program interpreter path, e.g.
	// "/lib64/ld-linux-x86-64.so.2(x86_64)".
	CapInterpreter CapKind = iota
	// CapSharedLibrary names a shared-library soname, e.g. "libc.so.6(x86_64)".
	CapSharedLibrary
	// CapDeclared is a capability taken verbatim from package metadata
	// rather than derived from binary content.
	CapDeclared
)

func (k CapKind) String() string {
	switch k {
	case CapInterpreter:
		return "interpreter"
	case CapSharedLibrary:
		return "shared-library"
	case CapDeclared:
		return "declared"
	default:
		return "unknown"
	}
}

// Dependency records that a file cannot run without the named capability.
type Dependency struct {
	Name string
	Kind CapKind
}

// Provider records that a file supplies the named capability.
type Provider struct {
	Name string
	Kind CapKind
}

// Bucket accumulates the Dependency and Provider facts for one target.
// Inserts are set-like: recording the same (name, kind) pair twice is a
// no-op, since many files in a target routinely need the same library.
// All methods are safe for concurrent use; files belonging to the same
// target may be scanned in parallel.
type Bucket struct {
	mu        sync.Mutex
	deps      map[Dependency]struct{}
	providers map[Provider]struct{}
}

func NewBucket() *Bucket {
	return &Bucket{
		deps:      make(map[Dependency]struct{}),
		providers: make(map[Provider]struct{}),
	}
}

func (b *Bucket) AddDependency(d Dependency) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.deps[d] = struct{}{}
}

func (b *Bucket) AddProvider(p Provider) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.providers[p] = struct{}{}
}

// Dependencies returns a snapshot sorted by name then kind.
func (b *Bucket) Dependencies() []Dependency {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := make([]Dependency, 0, len(b.deps))
	for d := range b.deps {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].Kind < out[j].Kind
	})
	return out
}

// Providers returns a snapshot sorted by name then kind.
func (b *Bucket) Providers() []Provider {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := make([]Provider, 0, len(b.providers))
	for p := range b.providers {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].Kind < out[j].Kind
	})
	return out
}
