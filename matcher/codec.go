package matcher

import (
	"encoding"
	"fmt"

	grpcencoding "google.golang.org/grpc/encoding"
	"google.golang.org/protobuf/encoding/protowire"

	"github.com/jamesainslie/go-stdesc/internal/wire"
	"github.com/jamesainslie/go-stdesc/pointcloud"
)

// CodecName is the gRPC content subtype of the matcher protocol.
const CodecName = "stdesc"

func init() {
	grpcencoding.RegisterCodec(codec{})
}

type message interface {
	encoding.BinaryMarshaler
	encoding.BinaryUnmarshaler
}

// codec carries the matcher protocol messages, which encode themselves in
// protobuf wire format.
type codec struct{}

func (codec) Marshal(v any) ([]byte, error) {
	m, ok := v.(message)
	if !ok {
		return nil, fmt.Errorf("matcher codec: cannot marshal %T", v)
	}
	return m.MarshalBinary()
}

func (codec) Unmarshal(data []byte, v any) error {
	m, ok := v.(message)
	if !ok {
		return fmt.Errorf("matcher codec: cannot unmarshal into %T", v)
	}
	return m.UnmarshalBinary(data)
}

func (codec) Name() string { return CodecName }

// Protocol messages:
//
//	message ConfigureRequest  { repeated Param params = 1; }
//	message Param             { string name = 1; double value = 2; }
//	message ConfigureResponse {}
//	message ScanRequest       { sint64 index = 1; repeated double xyz = 2 [packed]; }
//	message ScanResponse      { sint64 match = 1; double score = 2; }

type configureRequest struct {
	Params Params
}

func (m *configureRequest) MarshalBinary() ([]byte, error) {
	var b []byte
	for _, k := range m.Params.Keys() {
		var p []byte
		p = wire.AppendString(p, 1, k)
		p = wire.AppendDouble(p, 2, m.Params[k])
		b = wire.AppendBytes(b, 1, p)
	}
	return b, nil
}

func (m *configureRequest) UnmarshalBinary(data []byte) error {
	m.Params = Params{}
	return wire.Walk(data, func(num protowire.Number, typ protowire.Type, raw []byte) error {
		if num != 1 {
			return nil
		}
		msg, err := wire.Bytes(typ, raw)
		if err != nil {
			return err
		}
		var (
			name  string
			value float64
		)
		err = wire.Walk(msg, func(num protowire.Number, typ protowire.Type, raw []byte) error {
			var err error
			switch num {
			case 1:
				name, err = wire.String(typ, raw)
			case 2:
				value, err = wire.Double(typ, raw)
			}
			return err
		})
		if err != nil {
			return err
		}
		m.Params[name] = value
		return nil
	})
}

type configureResponse struct{}

func (*configureResponse) MarshalBinary() ([]byte, error) { return nil, nil }

func (*configureResponse) UnmarshalBinary([]byte) error { return nil }

type scanRequest struct {
	Index int
	Cloud pointcloud.Cloud
}

func (m *scanRequest) MarshalBinary() ([]byte, error) {
	xyz := make([]float64, 0, 3*len(m.Cloud))
	for _, p := range m.Cloud {
		xyz = append(xyz, p.X, p.Y, p.Z)
	}
	b := wire.AppendSint(nil, 1, int64(m.Index))
	return wire.AppendPackedDoubles(b, 2, xyz), nil
}

func (m *scanRequest) UnmarshalBinary(data []byte) error {
	*m = scanRequest{}
	return wire.Walk(data, func(num protowire.Number, typ protowire.Type, raw []byte) error {
		switch num {
		case 1:
			v, err := wire.Sint(typ, raw)
			m.Index = int(v)
			return err
		case 2:
			xyz, err := wire.PackedDoubles(typ, raw)
			if err != nil {
				return err
			}
			if len(xyz)%3 != 0 {
				return fmt.Errorf("scan request: %d coordinates", len(xyz))
			}
			for i := 0; i < len(xyz); i += 3 {
				m.Cloud = append(m.Cloud, pointcloud.Point{X: xyz[i], Y: xyz[i+1], Z: xyz[i+2]})
			}
		}
		return nil
	})
}

type scanResponse struct {
	Match int
	Score float64
}

func (m *scanResponse) MarshalBinary() ([]byte, error) {
	b := wire.AppendSint(nil, 1, int64(m.Match))
	return wire.AppendDouble(b, 2, m.Score), nil
}

func (m *scanResponse) UnmarshalBinary(data []byte) error {
	*m = scanResponse{}
	return wire.Walk(data, func(num protowire.Number, typ protowire.Type, raw []byte) error {
		var err error
		switch num {
		case 1:
			var v int64
			v, err = wire.Sint(typ, raw)
			m.Match = int(v)
		case 2:
			m.Score, err = wire.Double(typ, raw)
		}
		return err
	})
}
