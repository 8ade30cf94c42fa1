package rpc

import (
	"fmt"

	"google.golang.org/grpc/encoding"
)

// Raw carries an already encoded message through unchanged. The grpc-web
// bridge uses it to forward browser payloads.
type Raw struct {
	Data []byte
}

// Codec encodes Message values and passes Raw through.
type Codec struct{}

var _ encoding.Codec = Codec{}

func (Codec) Name() string { return "proto" }

func (Codec) Marshal(v any) ([]byte, error) {
	switch m := v.(type) {
	case *Raw:
		return m.Data, nil
	case Message:
		return m.AppendWire(nil), nil
	}
	return nil, fmt.Errorf("rpc: cannot marshal %T", v)
}

func (Codec) Unmarshal(data []byte, v any) error {
	switch m := v.(type) {
	case *Raw:
		m.Data = append([]byte(nil), data...)
		return nil
	case Message:
		if err := m.UnmarshalWire(data); err != nil {
			return fmt.Errorf("rpc: unmarshal %T: %w", v, err)
		}
		return nil
	}
	return fmt.Errorf("rpc: cannot unmarshal into %T", v)
}
