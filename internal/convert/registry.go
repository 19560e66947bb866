package convert

import (
	"fmt"
	"sync"

	"github.com/bentheiii/onnx/internal/onnx"
)

type adapterKey struct {
	op      string
	initial OpSetID
	target  OpSetID
}

func normalize(o OpSetID) OpSetID {
	if onnx.IsDefaultDomain(o.Domain) {
		o.Domain = ""
	}
	return o
}

func keyOf(op string, initial, target OpSetID) adapterKey {
	return adapterKey{op: op, initial: normalize(initial), target: normalize(target)}
}

// Registry maps (op name, initial, target) to an adapter.
type Registry struct {
	adapters map[adapterKey]Adapter
	frozen   bool
}

// NewRegistry creates an empty adapter registry.
func NewRegistry() *Registry {
	return &Registry{adapters: make(map[adapterKey]Adapter)}
}

// Register adds an adapter. Its versions must be adjacent and in the same
// domain, and no other adapter may be registered for the same step.
func (r *Registry) Register(a Adapter) error {
	if r.frozen {
		return ErrFrozen
	}
	initial, target := normalize(a.Initial()), normalize(a.Target())
	if initial.Domain != target.Domain || (target.Version-initial.Version != 1 && initial.Version-target.Version != 1) {
		return fmt.Errorf("%w: %s %s -> %s", ErrNonAdjacentVersion, a.Name(), initial, target)
	}
	k := keyOf(a.Name(), initial, target)
	if _, dup := r.adapters[k]; dup {
		return fmt.Errorf("%w: %s %s -> %s", ErrAdapterExists, a.Name(), initial, target)
	}
	r.adapters[k] = a
	return nil
}

// MustRegister is like Register but panics on error.
func (r *Registry) MustRegister(adapters ...Adapter) {
	for _, a := range adapters {
		if err := r.Register(a); err != nil {
			panic(err)
		}
	}
}

// Lookup returns the adapter for op between two adjacent versions.
func (r *Registry) Lookup(op string, initial, target OpSetID) (Adapter, bool) {
	a, ok := r.adapters[keyOf(op, initial, target)]
	return a, ok
}

// Len returns the number of registered adapters.
func (r *Registry) Len() int {
	return len(r.adapters)
}

// Freeze makes the registry read-only.
func (r *Registry) Freeze() {
	r.frozen = true
}

var (
	defaultOnce     sync.Once
	defaultRegistry *Registry
)

// DefaultRegistry returns the process-wide adapter registry. It is built on
// first use and frozen.
func DefaultRegistry() *Registry {
	defaultOnce.Do(func() {
		r := NewRegistry()
		registerDefaults(r)
		r.Freeze()
		defaultRegistry = r
	})
	return defaultRegistry
}

func registerDefaults(r *Registry) {
	v := func(version int64) OpSetID { return OpSetID{Version: version} }

	for _, name := range []string{"Squeeze", "Unsqueeze", "ReduceSum"} {
		r.MustRegister(NewAxesInputToAttribute(name, v(13), v(12)))
	}
	for _, name := range []string{
		"ReduceMax", "ReduceMean", "ReduceMin", "ReduceProd", "ReduceL1",
		"ReduceL2", "ReduceLogSum", "ReduceLogSumExp", "ReduceSumSquare",
	} {
		r.MustRegister(NewAxesInputToAttribute(name, v(18), v(17)))
	}

	// Only added non-tensor types; tensor graphs are unaffected.
	r.MustRegister(
		NewCompatible("Identity", v(14), v(13)),
		NewCompatible("Identity", v(16), v(15)),
	)
}
