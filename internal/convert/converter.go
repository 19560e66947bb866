package convert

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/bentheiii/onnx/internal/ir"
	"github.com/bentheiii/onnx/internal/onnx"
)

// ErrNoAdapter is returned in strict mode for a version step that has no
// registered adapter.
var ErrNoAdapter = errors.New("no adapter registered")

// ConvertOptions configures a Converter.
type ConvertOptions struct {
	// Adapters to apply (default: DefaultRegistry()).
	Adapters *Registry

	// Strict fails a node's migration when a step has no adapter. By
	// default such steps leave the node unchanged.
	Strict bool

	// Logger receives debug records (default: discarded).
	Logger *slog.Logger
}

// DefaultConvertOptions returns default conversion options.
func DefaultConvertOptions() ConvertOptions {
	return ConvertOptions{
		Adapters: DefaultRegistry(),
		Logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

// Converter migrates graphs between opset versions one step at a time.
type Converter struct {
	opts ConvertOptions
}

// NewConverter creates a converter.
func NewConverter(opts ...ConvertOptions) *Converter {
	opt := DefaultConvertOptions()
	if len(opts) > 0 {
		opt = opts[0]
		if opt.Adapters == nil {
			opt.Adapters = DefaultRegistry()
		}
		if opt.Logger == nil {
			opt.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
		}
	}
	return &Converter{opts: opt}
}

// Convert migrates every node of domain in g from the graph's imported
// version to target and updates the import.
//
// A failing adapter aborts the migration of that node only; the remaining
// nodes are still converted. All failures are returned joined, each
// wrapped in an onnx.NodeError naming the failed step.
//
// Steps are not rolled back: a node whose migration fails at step k keeps
// the rewrites of the steps before k, and the import is set to target
// regardless. Callers that need an all-or-nothing result should convert a
// copy of the graph and discard it on error.
func (c *Converter) Convert(g *ir.Graph, domain string, target int64) error {
	from, ok := g.OpsetVersion(domain)
	if !ok {
		return fmt.Errorf("graph %s does not import domain %q", g.Name, domain)
	}
	if from == target {
		return nil
	}
	step := int64(1)
	if target < from {
		step = -1
	}

	c.opts.Logger.Debug("converting graph",
		"graph", g.Name, "domain", domain, "from", from, "to", target)

	var errs []error
	// Producers are migrated before their consumers.
	for _, n := range g.TopologicalOrder() {
		// Earlier adaptations may have deleted this node.
		if !n.Alive() || !sameDomain(n.Domain, domain) {
			continue
		}
		if err := c.convertNode(g, n, domain, from, target, step); err != nil {
			proto := n.Proto()
			errs = append(errs, onnx.WrapNodeError(&proto, err))
		}
	}

	g.SetOpsetVersion(domain, target)
	return errors.Join(errs...)
}

func (c *Converter) convertNode(g *ir.Graph, n *ir.Node, domain string, from, target, step int64) error {
	for v := from; v != target; v += step {
		initial := OpSetID{Domain: domain, Version: v}
		next := OpSetID{Domain: domain, Version: v + step}

		adapter, ok := c.opts.Adapters.Lookup(n.OpType, initial, next)
		if !ok {
			if c.opts.Strict {
				return fmt.Errorf("%w: %s %s -> %s", ErrNoAdapter, n.OpType, initial, next)
			}
			continue
		}

		adapted, err := adapter.Adapt(g, n)
		if err != nil {
			return fmt.Errorf("%s -> %s: %w", initial, next, err)
		}
		c.opts.Logger.Debug("adapted node",
			"node", n.Name, "op", n.OpType, "from", initial.String(), "to", next.String())
		n = adapted
	}
	return nil
}

func sameDomain(a, b string) bool {
	return a == b || (onnx.IsDefaultDomain(a) && onnx.IsDefaultDomain(b))
}
