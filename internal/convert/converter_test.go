package convert

import (
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bentheiii/onnx/internal/ir"
	"github.com/bentheiii/onnx/internal/onnx"
)

func squeezeModel(t *testing.T) *ir.Graph {
	t.Helper()
	proto := &onnx.GraphProto{
		Name:    "main",
		Inputs:  []onnx.ValueInfoProto{{Name: "x"}},
		Outputs: []onnx.ValueInfoProto{{Name: "z"}},
		Nodes: []onnx.NodeProto{
			constantNode("c", "axes", rawTensor(rawInt64s(0, 1))),
			{Name: "sq", OpType: "Squeeze", Inputs: []string{"x", "axes"}, Outputs: []string{"y"}},
			{Name: "r", OpType: "Relu", Inputs: []string{"y"}, Outputs: []string{"z"}},
		},
	}
	g, err := ir.FromProto(proto, []onnx.OperatorSetID{{Version: 13}})
	require.NoError(t, err)
	return g
}

func TestConvertDowngrade(t *testing.T) {
	g := squeezeModel(t)

	require.NoError(t, NewConverter().Convert(g, "", 12))

	v, ok := g.OpsetVersion("")
	require.True(t, ok)
	assert.Equal(t, int64(12), v)

	gold := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	gold.Assert(t, "squeeze_downgrade", []byte(g.String()))
}

func TestConvertSameVersion(t *testing.T) {
	g := squeezeModel(t)
	require.NoError(t, NewConverter().Convert(g, "ai.onnx", 13))
	assert.Equal(t, 3, g.NumNodes())
}

func TestConvertUnknownDomain(t *testing.T) {
	g := squeezeModel(t)
	assert.Error(t, NewConverter().Convert(g, "com.example", 2))
}

func TestConvertStrict(t *testing.T) {
	g := squeezeModel(t)
	conv := NewConverter(ConvertOptions{Strict: true})

	err := conv.Convert(g, "", 12)
	require.ErrorIs(t, err, ErrNoAdapter)

	var nodeErr *onnx.NodeError
	require.ErrorAs(t, err, &nodeErr)
	assert.Contains(t, []string{"c", "r"}, nodeErr.Node)

	sq := g.Nodes()[0]
	assert.True(t, sq.HasAttribute("axes"), "other nodes are still converted")
	v, _ := g.OpsetVersion("")
	assert.Equal(t, int64(12), v)
}

func TestConvertCollectsNodeErrors(t *testing.T) {
	proto := &onnx.GraphProto{
		Name:   "main",
		Inputs: []onnx.ValueInfoProto{{Name: "x"}, {Name: "dyn"}},
		Nodes: []onnx.NodeProto{
			{Name: "bad", OpType: "Squeeze", Inputs: []string{"x", "dyn"}, Outputs: []string{"a"}},
			constantNode("c", "axes", rawTensor(rawInt64s(0))),
			{Name: "good", OpType: "Unsqueeze", Inputs: []string{"a", "axes"}, Outputs: []string{"b"}},
		},
	}
	g, err := ir.FromProto(proto, []onnx.OperatorSetID{{Domain: "ai.onnx", Version: 13}})
	require.NoError(t, err)

	err = NewConverter().Convert(g, "", 12)
	require.ErrorIs(t, err, ErrUnresolvedAxes)

	var nodeErr *onnx.NodeError
	require.ErrorAs(t, err, &nodeErr)
	assert.Equal(t, "bad", nodeErr.Node)
	assert.Equal(t, "Squeeze", nodeErr.OpType)

	nodes := g.Nodes()
	require.Len(t, nodes, 2)
	assert.Equal(t, []string{"x", "dyn"}, nodes[0].Inputs(), "failed node is unchanged")
	assert.Equal(t, []string{"a"}, nodes[1].Inputs())
	assert.True(t, nodes[1].HasAttribute("axes"))
}

type recordingAdapter struct {
	base
	calls *[]string
}

func (a *recordingAdapter) Adapt(_ *ir.Graph, n *ir.Node) (*ir.Node, error) {
	*a.calls = append(*a.calls, a.initial.String()+">"+a.target.String())
	return n, nil
}

func TestConvertChainsSteps(t *testing.T) {
	var calls []string
	r := NewRegistry()
	for _, step := range [][2]int64{{15, 14}, {14, 13}, {13, 14}} {
		r.MustRegister(&recordingAdapter{
			base:  base{name: "Foo", initial: OpSetID{Version: step[0]}, target: OpSetID{Version: step[1]}},
			calls: &calls,
		})
	}

	g := ir.New("main")
	g.SetOpsetVersion("", 15)
	g.Insert(onnx.NodeProto{OpType: "Foo", Inputs: []string{"x"}, Outputs: []string{"y"}})
	g.Insert(onnx.NodeProto{OpType: "Foo", Domain: "custom", Inputs: []string{"y"}, Outputs: []string{"z"}})

	require.NoError(t, NewConverter(ConvertOptions{Adapters: r}).Convert(g, "", 12))
	assert.Equal(t, []string{"ai.onnx-15>ai.onnx-14", "ai.onnx-14>ai.onnx-13"}, calls,
		"missing 13->12 step is skipped and other domains are ignored")
}

type failingAdapter struct {
	base
}

func (a *failingAdapter) Adapt(_ *ir.Graph, _ *ir.Node) (*ir.Node, error) {
	return nil, ErrAdaptation
}

type stampingAdapter struct {
	base
}

func (a *stampingAdapter) Adapt(_ *ir.Graph, n *ir.Node) (*ir.Node, error) {
	n.SetAttribute(onnx.IntAttr("stepped", a.target.Version))
	return n, nil
}

func TestConvertFailedStepKeepsEarlierSteps(t *testing.T) {
	r := NewRegistry()
	r.MustRegister(
		&stampingAdapter{base{name: "Foo", initial: OpSetID{Version: 15}, target: OpSetID{Version: 14}}},
		&failingAdapter{base{name: "Foo", initial: OpSetID{Version: 14}, target: OpSetID{Version: 13}}},
	)

	g := ir.New("main")
	g.SetOpsetVersion("", 15)
	foo := g.Insert(onnx.NodeProto{Name: "foo", OpType: "Foo", Inputs: []string{"x"}, Outputs: []string{"y"}})

	err := NewConverter(ConvertOptions{Adapters: r}).Convert(g, "", 13)
	require.ErrorIs(t, err, ErrAdaptation)
	assert.Contains(t, err.Error(), "ai.onnx-14 -> ai.onnx-13")

	stepped, ok := foo.Attribute("stepped")
	require.True(t, ok, "the successful first step is not rolled back")
	assert.Equal(t, int64(14), stepped.I)
	v, _ := g.OpsetVersion("")
	assert.Equal(t, int64(13), v)
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(NewCompatible("Relu", OpSetID{Version: 14}, OpSetID{Version: 13})))

	err := r.Register(NewCompatible("Relu", OpSetID{Domain: "ai.onnx", Version: 14}, OpSetID{Version: 13}))
	assert.ErrorIs(t, err, ErrAdapterExists, "ai.onnx and the empty domain are the same")

	err = r.Register(NewCompatible("Relu", OpSetID{Version: 14}, OpSetID{Version: 12}))
	assert.ErrorIs(t, err, ErrNonAdjacentVersion)

	err = r.Register(NewCompatible("Relu", OpSetID{Version: 14}, OpSetID{Domain: "custom", Version: 13}))
	assert.ErrorIs(t, err, ErrNonAdjacentVersion)

	a, ok := r.Lookup("Relu", OpSetID{Domain: "ai.onnx", Version: 14}, OpSetID{Version: 13})
	require.True(t, ok)
	assert.Equal(t, "Relu", a.Name())
	assert.Equal(t, 1, r.Len())

	r.Freeze()
	assert.ErrorIs(t, r.Register(NewCompatible("Relu", OpSetID{Version: 15}, OpSetID{Version: 14})), ErrFrozen)
}

func TestDefaultRegistry(t *testing.T) {
	r := DefaultRegistry()
	assert.Equal(t, 14, r.Len())

	a, ok := r.Lookup("Squeeze", OpSetID{Version: 13}, OpSetID{Version: 12})
	require.True(t, ok)
	assert.IsType(t, &AxesInputToAttribute{}, a)

	_, ok = r.Lookup("ReduceMean", OpSetID{Version: 18}, OpSetID{Version: 17})
	assert.True(t, ok)
	_, ok = r.Lookup("ReduceMean", OpSetID{Version: 13}, OpSetID{Version: 12})
	assert.False(t, ok)

	assert.ErrorIs(t, r.Register(NewCompatible("X", OpSetID{Version: 2}, OpSetID{Version: 1})), ErrFrozen)
}

func TestOpSetIDString(t *testing.T) {
	assert.Equal(t, "ai.onnx-13", OpSetID{Version: 13}.String())
	assert.Equal(t, "custom-2", OpSetID{Domain: "custom", Version: 2}.String())
}
