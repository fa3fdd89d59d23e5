package wire

import (
	"errors"
	"testing"

	"google.golang.org/protobuf/encoding/protowire"
)

func TestWalk_MixedFields(t *testing.T) {
	var b []byte
	b = AppendString(b, 1, "seq")
	b = AppendSint(b, 2, -7)
	b = AppendDouble(b, 3, 0.25)
	b = AppendPackedDoubles(b, 4, []float64{1.5, -2})
	b = AppendPackedSints(b, 5, []int64{3, -4, 5})

	var (
		s       string
		i       int64
		d       float64
		doubles []float64
		sints   []int64
	)
	err := Walk(b, func(num protowire.Number, typ protowire.Type, raw []byte) error {
		var err error
		switch num {
		case 1:
			s, err = String(typ, raw)
		case 2:
			i, err = Sint(typ, raw)
		case 3:
			d, err = Double(typ, raw)
		case 4:
			doubles, err = PackedDoubles(typ, raw)
		case 5:
			sints, err = PackedSints(typ, raw)
		}
		return err
	})
	if err != nil {
		t.Fatalf("Walk() error = %v", err)
	}

	if s != "seq" || i != -7 || d != 0.25 {
		t.Errorf("scalars = (%q, %d, %v)", s, i, d)
	}
	if len(doubles) != 2 || doubles[0] != 1.5 || doubles[1] != -2 {
		t.Errorf("doubles = %v", doubles)
	}
	if len(sints) != 3 || sints[0] != 3 || sints[1] != -4 || sints[2] != 5 {
		t.Errorf("sints = %v", sints)
	}
}

func TestWalk_Truncated(t *testing.T) {
	b := AppendString(nil, 1, "hello")
	if err := Walk(b[:len(b)-2], func(protowire.Number, protowire.Type, []byte) error { return nil }); err == nil {
		t.Error("Walk() on truncated input succeeded")
	}
}

func TestDecode_WrongType(t *testing.T) {
	b := AppendSint(nil, 1, 5)
	err := Walk(b, func(_ protowire.Number, typ protowire.Type, raw []byte) error {
		_, err := Double(typ, raw)
		return err
	})
	if !errors.Is(err, ErrWireType) {
		t.Errorf("error = %v, want ErrWireType", err)
	}
}
