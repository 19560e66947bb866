package schema

import (
	"fmt"
	"slices"
	"sort"
	"sync"

	"github.com/bentheiii/onnx/internal/onnx"
)

type schemaKey struct {
	domain string
	opType string
}

func keyOf(domain, opType string) schemaKey {
	if onnx.IsDefaultDomain(domain) {
		domain = ""
	}
	return schemaKey{domain: domain, opType: opType}
}

// Registry maps (domain, op type) to the versions of its schema.
//
// A registry may be layered over a parent: lookups that find nothing
// locally fall through to the parent. Registration is not synchronized;
// populate a registry before sharing it and Freeze it afterwards.
type Registry struct {
	parent  *Registry
	schemas map[schemaKey][]*Schema // sorted by SinceVersion
	frozen  bool
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{schemas: make(map[schemaKey][]*Schema)}
}

// NewLayered creates an empty registry whose misses fall through to parent.
func NewLayered(parent *Registry) *Registry {
	r := NewRegistry()
	r.parent = parent
	return r
}

// Register adds a schema. Registering the same (domain, op type, since
// version) twice replaces the earlier schema.
func (r *Registry) Register(s *Schema) error {
	if r.frozen {
		return ErrFrozen
	}
	if err := s.validate(); err != nil {
		return err
	}
	k := keyOf(s.Domain, s.OpType)
	versions := r.schemas[k]
	i, found := slices.BinarySearchFunc(versions, s.SinceVersion, func(e *Schema, v int64) int {
		switch {
		case e.SinceVersion < v:
			return -1
		case e.SinceVersion > v:
			return 1
		}
		return 0
	})
	if found {
		versions[i] = s
	} else {
		versions = slices.Insert(versions, i, s)
	}
	r.schemas[k] = versions
	return nil
}

// MustRegister is like Register but panics on error.
func (r *Registry) MustRegister(schemas ...*Schema) {
	for _, s := range schemas {
		if err := r.Register(s); err != nil {
			panic(err)
		}
	}
}

// Freeze makes the registry read-only.
func (r *Registry) Freeze() {
	r.frozen = true
}

// Frozen reports whether the registry rejects registration.
func (r *Registry) Frozen() bool {
	return r.frozen
}

// Lookup returns the schema of opType in domain that is in effect at the
// given opset version.
func (r *Registry) Lookup(opType string, version int64, domain string) (*Schema, error) {
	for reg := r; reg != nil; reg = reg.parent {
		versions := reg.schemas[keyOf(domain, opType)]
		// Index of the first schema newer than version.
		i := sort.Search(len(versions), func(i int) bool {
			return versions[i].SinceVersion > version
		})
		if i > 0 {
			return versions[i-1], nil
		}
	}
	if domain == "" {
		domain = onnx.DefaultDomain
	}
	return nil, fmt.Errorf("%w: %s::%s version %d", ErrSchemaNotFound, domain, opType, version)
}

// SupportedOps returns the op types known to the registry and its parents,
// qualified by domain for non-default domains, sorted.
func (r *Registry) SupportedOps() []string {
	seen := make(map[string]bool)
	for reg := r; reg != nil; reg = reg.parent {
		for k := range reg.schemas {
			name := k.opType
			if k.domain != "" {
				name = k.domain + "::" + k.opType
			}
			seen[name] = true
		}
	}
	ops := make([]string, 0, len(seen))
	for op := range seen {
		ops = append(ops, op)
	}
	sort.Strings(ops)
	return ops
}

var (
	defaultOnce     sync.Once
	defaultRegistry *Registry
)

// Default returns the process-wide registry of standard operator schemas.
// It is built on first use and frozen.
func Default() *Registry {
	defaultOnce.Do(func() {
		r := NewRegistry()
		r.registerBuiltins()
		r.Freeze()
		defaultRegistry = r
	})
	return defaultRegistry
}
