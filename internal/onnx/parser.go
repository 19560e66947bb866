package onnx

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
)

// ParseFile parses an ONNX model from file.
//
//nolint:gosec // G304: Path is provided by user, file inclusion is intentional for ONNX model loading
func ParseFile(path string) (*ModelProto, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	return Parse(data)
}

// Parse parses an ONNX model from bytes.
func Parse(data []byte) (*ModelProto, error) {
	p := &parser{data: data}
	model := &ModelProto{}
	if err := p.readModelProto(model); err != nil {
		return nil, fmt.Errorf("failed to parse model: %w", err)
	}
	return model, nil
}

// ParseFunction parses a standalone FunctionProto message.
func ParseFunction(data []byte) (*FunctionProto, error) {
	p := &parser{data: data}
	fn := &FunctionProto{}
	if err := p.readFunctionProto(fn); err != nil {
		return nil, fmt.Errorf("failed to parse function: %w", err)
	}
	return fn, nil
}

// parser implements a minimal protobuf wire format decoder.
type parser struct {
	data []byte
	pos  int
}

// Protobuf wire types.
const (
	wireVarint = 0 // int32, int64, uint32, uint64, sint32, sint64, bool, enum
	wire64Bit  = 1 // fixed64, sfixed64, double
	wireBytes  = 2 // string, bytes, embedded messages, packed repeated fields
	wire32Bit  = 5 // fixed32, sfixed32, float
)

// fieldHandler decodes one field. It reports false for fields it does not
// know, which are then skipped.
type fieldHandler func(fieldNum, wireType int) (bool, error)

// readFields runs handle for every field of the current message.
func (p *parser) readFields(handle fieldHandler) error {
	for p.pos < len(p.data) {
		fieldNum, wireType, err := p.readTag()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return err
		}
		known, err := handle(fieldNum, wireType)
		if err != nil {
			return fmt.Errorf("field %d: %w", fieldNum, err)
		}
		if !known {
			if err := p.skipField(wireType); err != nil {
				return err
			}
		}
	}
	return nil
}

// readEmbedded reads a length-delimited sub-message and decodes it with read.
func (p *parser) readEmbedded(read func(sub *parser) error) error {
	data, err := p.readBytes()
	if err != nil {
		return err
	}
	return read(&parser{data: data})
}

// readModelProto reads ModelProto message.
//
//nolint:gocyclo,cyclop // Protobuf parsing requires field-by-field switch logic
func (p *parser) readModelProto(m *ModelProto) error {
	return p.readFields(func(fieldNum, _ int) (bool, error) {
		var err error
		switch fieldNum {
		case 1: // ir_version
			m.IRVersion, err = p.readVarint()
		case 2: // producer_name
			m.ProducerName, err = p.readString()
		case 3: // producer_version
			m.ProducerVersion, err = p.readString()
		case 4: // domain
			m.Domain, err = p.readString()
		case 5: // model_version
			m.ModelVersion, err = p.readVarint()
		case 6: // doc_string
			m.DocString, err = p.readString()
		case 7: // graph
			m.Graph = &GraphProto{}
			err = p.readEmbedded(func(sub *parser) error { return sub.readGraphProto(m.Graph) })
		case 8: // opset_import
			var opset OperatorSetID
			err = p.readEmbedded(func(sub *parser) error { return sub.readOperatorSetID(&opset) })
			m.OpsetImport = append(m.OpsetImport, opset)
		case 14: // metadata_props
			var entry StringStringEntry
			err = p.readEmbedded(func(sub *parser) error { return sub.readStringStringEntry(&entry) })
			m.MetadataProps = append(m.MetadataProps, entry)
		case 25: // functions
			var fn FunctionProto
			err = p.readEmbedded(func(sub *parser) error { return sub.readFunctionProto(&fn) })
			m.Functions = append(m.Functions, fn)
		default:
			return false, nil
		}
		return true, err
	})
}

// readGraphProto reads GraphProto message.
//
//nolint:gocyclo,cyclop // Protobuf parsing requires field-by-field switch logic
func (p *parser) readGraphProto(m *GraphProto) error {
	return p.readFields(func(fieldNum, _ int) (bool, error) {
		var err error
		switch fieldNum {
		case 1: // node
			var node NodeProto
			err = p.readEmbedded(func(sub *parser) error { return sub.readNodeProto(&node) })
			m.Nodes = append(m.Nodes, node)
		case 2: // name
			m.Name, err = p.readString()
		case 5: // initializer
			var t TensorProto
			err = p.readEmbedded(func(sub *parser) error { return sub.readTensorProto(&t) })
			m.Initializers = append(m.Initializers, t)
		case 10: // doc_string
			m.DocString, err = p.readString()
		case 11, 12, 13: // input, output, value_info
			var vi ValueInfoProto
			err = p.readEmbedded(func(sub *parser) error { return sub.readValueInfoProto(&vi) })
			switch fieldNum {
			case 11:
				m.Inputs = append(m.Inputs, vi)
			case 12:
				m.Outputs = append(m.Outputs, vi)
			default:
				m.ValueInfo = append(m.ValueInfo, vi)
			}
		default:
			return false, nil
		}
		return true, err
	})
}

// readFunctionProto reads FunctionProto message.
//
//nolint:gocyclo,cyclop // Protobuf parsing requires field-by-field switch logic
func (p *parser) readFunctionProto(m *FunctionProto) error {
	return p.readFields(func(fieldNum, _ int) (bool, error) {
		var (
			err error
			s   string
		)
		switch fieldNum {
		case 1: // name
			m.Name, err = p.readString()
		case 4: // input
			s, err = p.readString()
			m.Inputs = append(m.Inputs, s)
		case 5: // output
			s, err = p.readString()
			m.Outputs = append(m.Outputs, s)
		case 6: // attribute
			s, err = p.readString()
			m.Attributes = append(m.Attributes, s)
		case 7: // node
			var node NodeProto
			err = p.readEmbedded(func(sub *parser) error { return sub.readNodeProto(&node) })
			m.Nodes = append(m.Nodes, node)
		case 8: // doc_string
			m.DocString, err = p.readString()
		case 9: // opset_import
			var opset OperatorSetID
			err = p.readEmbedded(func(sub *parser) error { return sub.readOperatorSetID(&opset) })
			m.OpsetImport = append(m.OpsetImport, opset)
		case 10: // domain
			m.Domain, err = p.readString()
		case 11: // attribute_proto
			var attr AttributeProto
			err = p.readEmbedded(func(sub *parser) error { return sub.readAttributeProto(&attr) })
			m.AttributeProtos = append(m.AttributeProtos, attr)
		default:
			return false, nil
		}
		return true, err
	})
}

// readNodeProto reads NodeProto message.
func (p *parser) readNodeProto(m *NodeProto) error {
	return p.readFields(func(fieldNum, _ int) (bool, error) {
		var (
			err error
			s   string
		)
		switch fieldNum {
		case 1: // input
			s, err = p.readString()
			m.Inputs = append(m.Inputs, s)
		case 2: // output
			s, err = p.readString()
			m.Outputs = append(m.Outputs, s)
		case 3: // name
			m.Name, err = p.readString()
		case 4: // op_type
			m.OpType, err = p.readString()
		case 5: // attribute
			var attr AttributeProto
			err = p.readEmbedded(func(sub *parser) error { return sub.readAttributeProto(&attr) })
			m.Attributes = append(m.Attributes, attr)
		case 6: // doc_string
			m.DocString, err = p.readString()
		case 7: // domain
			m.Domain, err = p.readString()
		default:
			return false, nil
		}
		return true, err
	})
}

// readTensorProto reads TensorProto message.
//
//nolint:gocyclo,cyclop // Protobuf parsing requires field-by-field switch logic
func (p *parser) readTensorProto(m *TensorProto) error {
	return p.readFields(func(fieldNum, wireType int) (bool, error) {
		var err error
		switch fieldNum {
		case 1: // dims
			m.Dims, err = p.appendVarints(m.Dims, wireType)
		case 2: // data_type
			m.DataType, err = p.readInt32()
		case 4: // float_data
			m.FloatData, err = p.appendFloats(m.FloatData, wireType)
		case 5: // int32_data
			var vs []int64
			vs, err = p.appendVarints(nil, wireType)
			for _, v := range vs {
				m.Int32Data = append(m.Int32Data, int32(v)) //nolint:gosec // G115: ONNX protobuf varint fits in int32.
			}
		case 6: // string_data
			var b []byte
			b, err = p.readBytes()
			m.StringData = append(m.StringData, b)
		case 7: // int64_data
			m.Int64Data, err = p.appendVarints(m.Int64Data, wireType)
		case 8: // name
			m.Name, err = p.readString()
		case 9: // raw_data
			m.RawData, err = p.readBytes()
		case 10: // double_data
			m.DoubleData, err = p.appendDoubles(m.DoubleData, wireType)
		case 11: // uint64_data
			var vs []int64
			vs, err = p.appendVarints(nil, wireType)
			for _, v := range vs {
				m.Uint64Data = append(m.Uint64Data, uint64(v)) //nolint:gosec // G115: varint bits reinterpreted.
			}
		case 12: // doc_string
			m.DocString, err = p.readString()
		default:
			return false, nil
		}
		return true, err
	})
}

// readValueInfoProto reads ValueInfoProto message.
func (p *parser) readValueInfoProto(m *ValueInfoProto) error {
	return p.readFields(func(fieldNum, _ int) (bool, error) {
		var err error
		switch fieldNum {
		case 1: // name
			m.Name, err = p.readString()
		case 2: // type
			m.Type = &TypeProto{}
			err = p.readEmbedded(func(sub *parser) error { return sub.readTypeProto(m.Type) })
		case 3: // doc_string
			m.DocString, err = p.readString()
		default:
			return false, nil
		}
		return true, err
	})
}

// readTypeProto reads TypeProto message.
func (p *parser) readTypeProto(m *TypeProto) error {
	return p.readFields(func(fieldNum, _ int) (bool, error) {
		if fieldNum != 1 { // tensor_type
			return false, nil
		}
		m.TensorType = &TensorTypeProto{}
		return true, p.readEmbedded(func(sub *parser) error { return sub.readTensorTypeProto(m.TensorType) })
	})
}

// readTensorTypeProto reads TensorTypeProto message.
func (p *parser) readTensorTypeProto(m *TensorTypeProto) error {
	return p.readFields(func(fieldNum, _ int) (bool, error) {
		var err error
		switch fieldNum {
		case 1: // elem_type
			m.ElemType, err = p.readInt32()
		case 2: // shape
			m.Shape = &TensorShapeProto{}
			err = p.readEmbedded(func(sub *parser) error { return sub.readTensorShapeProto(m.Shape) })
		default:
			return false, nil
		}
		return true, err
	})
}

// readTensorShapeProto reads TensorShapeProto message.
func (p *parser) readTensorShapeProto(m *TensorShapeProto) error {
	return p.readFields(func(fieldNum, _ int) (bool, error) {
		if fieldNum != 1 { // dim
			return false, nil
		}
		var dim DimensionProto
		err := p.readEmbedded(func(sub *parser) error { return sub.readDimensionProto(&dim) })
		m.Dims = append(m.Dims, dim)
		return true, err
	})
}

// readDimensionProto reads DimensionProto message.
func (p *parser) readDimensionProto(m *DimensionProto) error {
	return p.readFields(func(fieldNum, _ int) (bool, error) {
		var err error
		switch fieldNum {
		case 1: // dim_value
			m.DimValue, err = p.readVarint()
		case 2: // dim_param
			m.DimParam, err = p.readString()
		default:
			return false, nil
		}
		return true, err
	})
}

// readAttributeProto reads AttributeProto message.
//
//nolint:gocyclo,cyclop // Protobuf parsing requires field-by-field switch logic
func (p *parser) readAttributeProto(m *AttributeProto) error {
	return p.readFields(func(fieldNum, wireType int) (bool, error) {
		var err error
		switch fieldNum {
		case 1: // name
			m.Name, err = p.readString()
		case 2: // f
			m.F, err = p.readFloat32()
		case 3: // i
			m.I, err = p.readVarint()
		case 4: // s
			m.S, err = p.readBytes()
		case 5: // t
			m.T = &TensorProto{}
			err = p.readEmbedded(func(sub *parser) error { return sub.readTensorProto(m.T) })
		case 6: // g
			m.G = &GraphProto{}
			err = p.readEmbedded(func(sub *parser) error { return sub.readGraphProto(m.G) })
		case 7: // floats
			m.Floats, err = p.appendFloats(m.Floats, wireType)
		case 8: // ints
			m.Ints, err = p.appendVarints(m.Ints, wireType)
		case 9: // strings
			var b []byte
			b, err = p.readBytes()
			m.Strings = append(m.Strings, b)
		case 10: // tensors
			var t TensorProto
			err = p.readEmbedded(func(sub *parser) error { return sub.readTensorProto(&t) })
			m.Tensors = append(m.Tensors, t)
		case 11: // graphs
			var g GraphProto
			err = p.readEmbedded(func(sub *parser) error { return sub.readGraphProto(&g) })
			m.Graphs = append(m.Graphs, g)
		case 13: // doc_string
			m.DocString, err = p.readString()
		case 20: // type
			m.Type, err = p.readInt32()
		case 21: // ref_attr_name
			m.RefAttrName, err = p.readString()
		default:
			return false, nil
		}
		return true, err
	})
}

// readOperatorSetID reads OperatorSetID message.
func (p *parser) readOperatorSetID(m *OperatorSetID) error {
	return p.readFields(func(fieldNum, _ int) (bool, error) {
		var err error
		switch fieldNum {
		case 1: // domain
			m.Domain, err = p.readString()
		case 2: // version
			m.Version, err = p.readVarint()
		default:
			return false, nil
		}
		return true, err
	})
}

// readStringStringEntry reads StringStringEntry message.
func (p *parser) readStringStringEntry(m *StringStringEntry) error {
	return p.readFields(func(fieldNum, _ int) (bool, error) {
		var err error
		switch fieldNum {
		case 1: // key
			m.Key, err = p.readString()
		case 2: // value
			m.Value, err = p.readString()
		default:
			return false, nil
		}
		return true, err
	})
}

// readTag reads a protobuf field tag.
func (p *parser) readTag() (fieldNum, wireType int, err error) {
	if p.pos >= len(p.data) {
		return 0, 0, io.EOF
	}
	tag, err := p.readVarint()
	if err != nil {
		return 0, 0, err
	}
	fieldNum = int(tag >> 3)
	wireType = int(tag & 0x7)
	return fieldNum, wireType, nil
}

// readVarint reads a varint-encoded int64.
func (p *parser) readVarint() (int64, error) {
	var result uint64
	var shift uint
	for {
		if p.pos >= len(p.data) {
			return 0, io.ErrUnexpectedEOF
		}
		b := p.data[p.pos]
		p.pos++
		result |= uint64(b&0x7f) << shift
		if b&0x80 == 0 {
			break
		}
		shift += 7
		if shift >= 64 {
			return 0, errors.New("varint overflow")
		}
	}
	return int64(result), nil //nolint:gosec // G115: Protobuf varint fits in int64.
}

// readInt32 reads a varint-encoded int32.
func (p *parser) readInt32() (int32, error) {
	v, err := p.readVarint()
	if err != nil {
		return 0, err
	}
	return int32(v), nil //nolint:gosec // G115: Protobuf varint fits in int32.
}

// readBytes reads a length-delimited byte slice.
func (p *parser) readBytes() ([]byte, error) {
	length, err := p.readVarint()
	if err != nil {
		return nil, err
	}
	if length < 0 {
		return nil, errors.New("negative length")
	}
	if length > int64(len(p.data)-p.pos) {
		return nil, io.ErrUnexpectedEOF
	}
	end := p.pos + int(length)
	result := p.data[p.pos:end]
	p.pos = end
	return result, nil
}

// readString reads a length-delimited string.
func (p *parser) readString() (string, error) {
	b, err := p.readBytes()
	return string(b), err
}

// readFloat32 reads a 32-bit float.
func (p *parser) readFloat32() (float32, error) {
	if p.pos+4 > len(p.data) {
		return 0, io.ErrUnexpectedEOF
	}
	bits := binary.LittleEndian.Uint32(p.data[p.pos:])
	p.pos += 4
	return math.Float32frombits(bits), nil
}

// readFloat64 reads a 64-bit float.
func (p *parser) readFloat64() (float64, error) {
	if p.pos+8 > len(p.data) {
		return 0, io.ErrUnexpectedEOF
	}
	bits := binary.LittleEndian.Uint64(p.data[p.pos:])
	p.pos += 8
	return math.Float64frombits(bits), nil
}

// appendVarints reads a repeated varint field in packed or unpacked form.
func (p *parser) appendVarints(dst []int64, wireType int) ([]int64, error) {
	if wireType != wireBytes {
		v, err := p.readVarint()
		return append(dst, v), err
	}
	data, err := p.readBytes()
	if err != nil {
		return dst, err
	}
	sub := &parser{data: data}
	for sub.pos < len(sub.data) {
		v, err := sub.readVarint()
		if err != nil {
			return dst, err
		}
		dst = append(dst, v)
	}
	return dst, nil
}

// appendFloats reads a repeated float field in packed or unpacked form.
func (p *parser) appendFloats(dst []float32, wireType int) ([]float32, error) {
	if wireType != wireBytes {
		v, err := p.readFloat32()
		return append(dst, v), err
	}
	data, err := p.readBytes()
	if err != nil {
		return dst, err
	}
	if len(data)%4 != 0 {
		return dst, fmt.Errorf("packed float length %d is not a multiple of 4", len(data))
	}
	for i := 0; i < len(data); i += 4 {
		dst = append(dst, math.Float32frombits(binary.LittleEndian.Uint32(data[i:])))
	}
	return dst, nil
}

// appendDoubles reads a repeated double field in packed or unpacked form.
func (p *parser) appendDoubles(dst []float64, wireType int) ([]float64, error) {
	if wireType != wireBytes {
		v, err := p.readFloat64()
		return append(dst, v), err
	}
	data, err := p.readBytes()
	if err != nil {
		return dst, err
	}
	if len(data)%8 != 0 {
		return dst, fmt.Errorf("packed double length %d is not a multiple of 8", len(data))
	}
	for i := 0; i < len(data); i += 8 {
		dst = append(dst, math.Float64frombits(binary.LittleEndian.Uint64(data[i:])))
	}
	return dst, nil
}

// skipField skips a field based on wire type.
func (p *parser) skipField(wireType int) error {
	switch wireType {
	case wireVarint:
		_, err := p.readVarint()
		return err
	case wire64Bit:
		if p.pos+8 > len(p.data) {
			return io.ErrUnexpectedEOF
		}
		p.pos += 8
		return nil
	case wireBytes:
		_, err := p.readBytes()
		return err
	case wire32Bit:
		if p.pos+4 > len(p.data) {
			return io.ErrUnexpectedEOF
		}
		p.pos += 4
		return nil
	default:
		return fmt.Errorf("unknown wire type: %d", wireType)
	}
}
