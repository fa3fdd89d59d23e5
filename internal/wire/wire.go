// Package wire holds protobuf wire-format helpers for the hand-written
// messages used by the closures archive and the remote matcher protocol.
package wire

import (
	"errors"
	"fmt"
	"math"

	"google.golang.org/protobuf/encoding/protowire"
)

// ErrWireType indicates a field encoded with an unexpected wire type.
var ErrWireType = errors.New("wire: unexpected wire type")

// Walk calls fn for every field in b. raw is the encoded field value
// without its tag; unknown fields can simply be ignored by fn.
func Walk(b []byte, fn func(num protowire.Number, typ protowire.Type, raw []byte) error) error {
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return protowire.ParseError(n)
		}
		b = b[n:]

		m := protowire.ConsumeFieldValue(num, typ, b)
		if m < 0 {
			return fmt.Errorf("field %d: %w", num, protowire.ParseError(m))
		}
		if err := fn(num, typ, b[:m]); err != nil {
			return err
		}
		b = b[m:]
	}
	return nil
}

func expect(typ, want protowire.Type) error {
	if typ != want {
		return fmt.Errorf("%w: got %d, want %d", ErrWireType, typ, want)
	}
	return nil
}

// Bytes decodes a length-delimited value.
func Bytes(typ protowire.Type, raw []byte) ([]byte, error) {
	if err := expect(typ, protowire.BytesType); err != nil {
		return nil, err
	}
	v, n := protowire.ConsumeBytes(raw)
	if n < 0 {
		return nil, protowire.ParseError(n)
	}
	return v, nil
}

// String decodes a length-delimited UTF-8 value.
func String(typ protowire.Type, raw []byte) (string, error) {
	v, err := Bytes(typ, raw)
	return string(v), err
}

// Sint decodes a zigzag varint.
func Sint(typ protowire.Type, raw []byte) (int64, error) {
	if err := expect(typ, protowire.VarintType); err != nil {
		return 0, err
	}
	v, n := protowire.ConsumeVarint(raw)
	if n < 0 {
		return 0, protowire.ParseError(n)
	}
	return protowire.DecodeZigZag(v), nil
}

// Double decodes a fixed64 IEEE-754 value.
func Double(typ protowire.Type, raw []byte) (float64, error) {
	if err := expect(typ, protowire.Fixed64Type); err != nil {
		return 0, err
	}
	v, n := protowire.ConsumeFixed64(raw)
	if n < 0 {
		return 0, protowire.ParseError(n)
	}
	return math.Float64frombits(v), nil
}

// PackedDoubles decodes a packed repeated double field.
func PackedDoubles(typ protowire.Type, raw []byte) ([]float64, error) {
	b, err := Bytes(typ, raw)
	if err != nil {
		return nil, err
	}
	if len(b)%8 != 0 {
		return nil, fmt.Errorf("packed doubles: %d bytes", len(b))
	}
	out := make([]float64, 0, len(b)/8)
	for len(b) > 0 {
		v, n := protowire.ConsumeFixed64(b)
		if n < 0 {
			return nil, protowire.ParseError(n)
		}
		out = append(out, math.Float64frombits(v))
		b = b[n:]
	}
	return out, nil
}

// PackedSints decodes a packed repeated sint64 field.
func PackedSints(typ protowire.Type, raw []byte) ([]int64, error) {
	b, err := Bytes(typ, raw)
	if err != nil {
		return nil, err
	}
	var out []int64
	for len(b) > 0 {
		v, n := protowire.ConsumeVarint(b)
		if n < 0 {
			return nil, protowire.ParseError(n)
		}
		out = append(out, protowire.DecodeZigZag(v))
		b = b[n:]
	}
	return out, nil
}

// AppendString appends a string field.
func AppendString(b []byte, num protowire.Number, s string) []byte {
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendString(b, s)
}

// AppendBytes appends a length-delimited field, typically a nested message.
func AppendBytes(b []byte, num protowire.Number, v []byte) []byte {
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendBytes(b, v)
}

// AppendSint appends a zigzag varint field.
func AppendSint(b []byte, num protowire.Number, v int64) []byte {
	b = protowire.AppendTag(b, num, protowire.VarintType)
	return protowire.AppendVarint(b, protowire.EncodeZigZag(v))
}

// AppendDouble appends a fixed64 double field.
func AppendDouble(b []byte, num protowire.Number, v float64) []byte {
	b = protowire.AppendTag(b, num, protowire.Fixed64Type)
	return protowire.AppendFixed64(b, math.Float64bits(v))
}

// AppendPackedDoubles appends a packed repeated double field.
func AppendPackedDoubles(b []byte, num protowire.Number, vs []float64) []byte {
	packed := make([]byte, 0, 8*len(vs))
	for _, v := range vs {
		packed = protowire.AppendFixed64(packed, math.Float64bits(v))
	}
	return AppendBytes(b, num, packed)
}

// AppendPackedSints appends a packed repeated sint64 field.
func AppendPackedSints(b []byte, num protowire.Number, vs []int64) []byte {
	var packed []byte
	for _, v := range vs {
		packed = protowire.AppendVarint(packed, protowire.EncodeZigZag(v))
	}
	return AppendBytes(b, num, packed)
}
