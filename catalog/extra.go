package catalog

import (
	"fmt"

	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"
)

// SetExtra stores a provenance value on the import record.
func (r *ImportRecord) SetExtra(key string, value any) {
	if r.Extra == nil {
		r.Extra = &structpb.Struct{
			Fields: make(map[string]*structpb.Value),
		}
	}
	v, err := structpb.NewValue(value)
	if err != nil {
		v = structpb.NewStringValue(fmt.Sprint(value))
	}
	r.Extra.Fields[key] = v
}

// GetExtraString returns a provenance value as a string, or "".
func (r *ImportRecord) GetExtraString(key string) string {
	if r == nil || r.Extra == nil {
		return ""
	}
	v, ok := r.Extra.Fields[key]
	if !ok {
		return ""
	}
	switch kind := v.Kind.(type) {
	case *structpb.Value_StringValue:
		return kind.StringValue
	case *structpb.Value_NumberValue:
		return fmt.Sprint(kind.NumberValue)
	case *structpb.Value_BoolValue:
		return fmt.Sprint(kind.BoolValue)
	default:
		return ""
	}
}

// GetExtraNumber returns a numeric provenance value, or 0.
func (r *ImportRecord) GetExtraNumber(key string) float64 {
	if r == nil || r.Extra == nil {
		return 0
	}
	return r.Extra.Fields[key].GetNumberValue()
}

// MarshalExtra encodes the provenance bag for storage; nil encodes as "".
func MarshalExtra(s *structpb.Struct) (string, error) {
	if s == nil || len(s.Fields) == 0 {
		return "", nil
	}
	data, err := protojson.Marshal(s)
	if err != nil {
		return "", fmt.Errorf("marshal import provenance: %w", err)
	}
	return string(data), nil
}

// UnmarshalExtra decodes a stored provenance bag; "" decodes as nil.
func UnmarshalExtra(data string) (*structpb.Struct, error) {
	if data == "" {
		return nil, nil
	}
	s := &structpb.Struct{}
	if err := protojson.Unmarshal([]byte(data), s); err != nil {
		return nil, fmt.Errorf("unmarshal import provenance: %w", err)
	}
	return s, nil
}
