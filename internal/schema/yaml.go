package schema

import (
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/bentheiii/onnx/internal/onnx"
)

// yamlFile is the on-disk layout of a schema file:
//
//	schemas:
//	  - domain: com.example
//	    op_type: Scale
//	    since_version: 1
//	    inputs: {min: 1, max: 1}
//	    outputs: {min: 1, max: 1}
//	    attributes:
//	      - {name: factor, float: 2.0}
//	      - {name: axes, ints: [0, 1]}
type yamlFile struct {
	Schemas []yamlSchema `yaml:"schemas"`
}

type yamlSchema struct {
	Domain       string          `yaml:"domain"`
	OpType       string          `yaml:"op_type"`
	SinceVersion int64           `yaml:"since_version"`
	Inputs       yamlArity       `yaml:"inputs"`
	Outputs      yamlArity       `yaml:"outputs"`
	Attributes   []yamlAttribute `yaml:"attributes"`
}

// yamlArity defaults to exactly one when omitted; max -1 is unbounded.
type yamlArity struct {
	Min *int `yaml:"min"`
	Max *int `yaml:"max"`
}

type yamlAttribute struct {
	Name    string    `yaml:"name"`
	Int     *int64    `yaml:"int"`
	Float   *float32  `yaml:"float"`
	String  *string   `yaml:"string"`
	Ints    []int64   `yaml:"ints"`
	Floats  []float32 `yaml:"floats"`
	Strings []string  `yaml:"strings"`
}

// LoadYAML decodes schemas from r.
func LoadYAML(r io.Reader) ([]*Schema, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var file yamlFile
	if err := dec.Decode(&file); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to decode schema file: %w", err)
	}

	schemas := make([]*Schema, 0, len(file.Schemas))
	for i := range file.Schemas {
		s, err := file.Schemas[i].toSchema()
		if err != nil {
			return nil, fmt.Errorf("schema %d (%s): %w", i, file.Schemas[i].OpType, err)
		}
		schemas = append(schemas, s)
	}
	return schemas, nil
}

// LoadYAMLFile reads schemas from a YAML file and registers them.
//
//nolint:gosec // G304: Path is provided by user.
func (r *Registry) LoadYAMLFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open schema file: %w", err)
	}
	defer f.Close()

	schemas, err := LoadYAML(f)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	for _, s := range schemas {
		if err := r.Register(s); err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
	}
	return nil
}

func (y *yamlSchema) toSchema() (*Schema, error) {
	s := &Schema{
		Domain:       y.Domain,
		OpType:       y.OpType,
		SinceVersion: y.SinceVersion,
	}
	s.MinInputs, s.MaxInputs = y.Inputs.bounds()
	s.MinOutputs, s.MaxOutputs = y.Outputs.bounds()
	if s.SinceVersion == 0 {
		s.SinceVersion = 1
	}
	for i := range y.Attributes {
		attr, err := y.Attributes[i].toAttribute()
		if err != nil {
			return nil, err
		}
		s.Attributes = append(s.Attributes, attr)
	}
	return s, s.validate()
}

func (a yamlArity) bounds() (lo, hi int) {
	lo, hi = 1, 1
	if a.Min != nil {
		lo = *a.Min
	}
	if a.Max != nil {
		hi = *a.Max
	} else if lo > hi {
		hi = lo
	}
	return lo, hi
}

func (y *yamlAttribute) toAttribute() (onnx.AttributeProto, error) {
	var (
		attr onnx.AttributeProto
		set  int
	)
	if y.Int != nil {
		attr, set = onnx.IntAttr(y.Name, *y.Int), set+1
	}
	if y.Float != nil {
		attr, set = onnx.FloatAttr(y.Name, *y.Float), set+1
	}
	if y.String != nil {
		attr, set = onnx.StringAttr(y.Name, *y.String), set+1
	}
	if y.Ints != nil {
		attr, set = onnx.IntsAttr(y.Name, y.Ints), set+1
	}
	if y.Floats != nil {
		attr, set = onnx.AttributeProto{Name: y.Name, Type: onnx.AttributeProtoFloats, Floats: y.Floats}, set+1
	}
	if y.Strings != nil {
		strs := make([][]byte, len(y.Strings))
		for i, s := range y.Strings {
			strs[i] = []byte(s)
		}
		attr, set = onnx.AttributeProto{Name: y.Name, Type: onnx.AttributeProtoStrings, Strings: strs}, set+1
	}
	if set != 1 {
		return attr, fmt.Errorf("%w: attribute %q must have exactly one value, got %d", ErrInvalidSchema, y.Name, set)
	}
	return attr, nil
}
