package codec

import (
    "fmt"

    "google.golang.org/protobuf/proto"
    "google.golang.org/protobuf/types/known/structpb"
)

type protoCodec struct {
    mo proto.MarshalOptions
    uo proto.UnmarshalOptions
}

// Proto returns a Protocol Buffers codec with deterministic marshaling.
// Values that are not proto.Message are carried as google.protobuf.Value,
// which limits them to JSON-like data (numbers become float64).
// Content-Type: application/x-protobuf
func Proto() Codec {
    return protoCodec{
        mo: proto.MarshalOptions{Deterministic: true},
        uo: proto.UnmarshalOptions{},
    }
}

func (p protoCodec) ContentType() string { return "application/x-protobuf" }

func (p protoCodec) Marshal(v any) ([]byte, error) {
    if msg, ok := v.(proto.Message); ok {
        return p.mo.Marshal(msg)
    }
    if err := checkKeys(v); err != nil {
        return nil, fmt.Errorf("protobuf: %w", err)
    }
    val, err := structpb.NewValue(plainData(v))
    if err != nil {
        return nil, fmt.Errorf("protobuf: %w", err)
    }
    return p.mo.Marshal(val)
}

func (p protoCodec) Unmarshal(data []byte, v any) error {
    switch t := v.(type) {
    case proto.Message:
        return p.uo.Unmarshal(data, t)
    case *any:
        var val structpb.Value
        if err := p.uo.Unmarshal(data, &val); err != nil {
            return err
        }
        *t = val.AsInterface()
        return nil
    default:
        return fmt.Errorf("protobuf: unsupported target %T", v)
    }
}
