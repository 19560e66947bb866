package onnx

import (
	"encoding/binary"
	"math"
)

// message builds protobuf wire bytes for tests.
type message struct {
	data []byte
}

func (m *message) tag(fieldNum, wireType int) *message {
	return m.uvarint(uint64(fieldNum<<3 | wireType))
}

func (m *message) uvarint(v uint64) *message {
	m.data = binary.AppendUvarint(m.data, v)
	return m
}

func (m *message) varint(fieldNum int, v int64) *message {
	return m.tag(fieldNum, wireVarint).uvarint(uint64(v))
}

func (m *message) bytes(fieldNum int, b []byte) *message {
	m.tag(fieldNum, wireBytes).uvarint(uint64(len(b)))
	m.data = append(m.data, b...)
	return m
}

func (m *message) str(fieldNum int, s string) *message {
	return m.bytes(fieldNum, []byte(s))
}

func (m *message) embed(fieldNum int, sub *message) *message {
	return m.bytes(fieldNum, sub.data)
}

func (m *message) float(fieldNum int, f float32) *message {
	m.tag(fieldNum, wire32Bit)
	m.data = binary.LittleEndian.AppendUint32(m.data, math.Float32bits(f))
	return m
}

func (m *message) packed(fieldNum int, vs ...int64) *message {
	var body []byte
	for _, v := range vs {
		body = binary.AppendUvarint(body, uint64(v))
	}
	return m.bytes(fieldNum, body)
}

func opsetMsg(domain string, version int64) *message {
	return (&message{}).str(1, domain).varint(2, version)
}

func nodeMsg(op string, inputs, outputs []string, attrs ...*message) *message {
	n := &message{}
	for _, in := range inputs {
		n.str(1, in)
	}
	for _, out := range outputs {
		n.str(2, out)
	}
	n.str(4, op)
	for _, a := range attrs {
		n.embed(5, a)
	}
	return n
}

func valueInfoMsg(name string, dtype int32, shape ...int64) *message {
	dims := &message{}
	for _, d := range shape {
		dim := &message{}
		if d > 0 {
			dim.varint(1, d)
		} else {
			dim.str(2, "batch")
		}
		dims.embed(1, dim)
	}
	tensorType := (&message{}).varint(1, int64(dtype)).embed(2, dims)
	typ := (&message{}).embed(1, tensorType)
	return (&message{}).str(1, name).embed(2, typ)
}

func tensorMsg(name string, dtype int32, dims []int64, raw []byte) *message {
	t := &message{}
	for _, d := range dims {
		t.varint(1, d)
	}
	return t.varint(2, int64(dtype)).str(8, name).bytes(9, raw)
}

func modelMsg(graph *message, opsets ...*message) *message {
	m := (&message{}).varint(1, 7)
	for _, o := range opsets {
		m.embed(8, o)
	}
	if graph != nil {
		m.embed(7, graph)
	}
	return m
}
