package store

import (
	"fmt"
	"strconv"

	"github.com/roach88/metacat/internal/ir"
)

// Value kinds recorded next to each stored attribute value.
const (
	kindString = "string"
	kindInt    = "int"
	kindBool   = "bool"
	kindArray  = "array"
	kindObject = "object"
)

// encodeValue converts an attribute value to the (kind, column value) pair
// stored in the EAV tables. Scalars keep their SQLite storage class so
// bound query parameters compare naturally; arrays and objects are stored
// as canonical JSON text.
func encodeValue(v ir.IRValue) (string, any, error) {
	switch val := v.(type) {
	case ir.IRString:
		return kindString, string(val), nil
	case ir.IRInt:
		return kindInt, int64(val), nil
	case ir.IRBool:
		if val {
			return kindBool, int64(1), nil
		}
		return kindBool, int64(0), nil
	case ir.IRArray:
		data, err := ir.MarshalCanonical(val)
		if err != nil {
			return "", nil, fmt.Errorf("encode array: %w", err)
		}
		return kindArray, string(data), nil
	case ir.IRObject:
		data, err := ir.MarshalCanonical(val)
		if err != nil {
			return "", nil, fmt.Errorf("encode object: %w", err)
		}
		return kindObject, string(data), nil
	default:
		return "", nil, fmt.Errorf("unsupported attribute value type: %T", v)
	}
}

// decodeValue reverses encodeValue. raw is whatever the driver scanned
// into an interface value (int64, string or []byte).
func decodeValue(kind string, raw any) (ir.IRValue, error) {
	switch kind {
	case kindString:
		return ir.IRString(asText(raw)), nil
	case kindInt:
		n, err := asInt(raw)
		if err != nil {
			return nil, fmt.Errorf("decode int: %w", err)
		}
		return ir.IRInt(n), nil
	case kindBool:
		n, err := asInt(raw)
		if err != nil {
			return nil, fmt.Errorf("decode bool: %w", err)
		}
		return ir.IRBool(n != 0), nil
	case kindArray, kindObject:
		v, err := ir.UnmarshalIRValue([]byte(asText(raw)))
		if err != nil {
			return nil, fmt.Errorf("decode %s: %w", kind, err)
		}
		return v, nil
	default:
		return nil, fmt.Errorf("unknown value kind %q", kind)
	}
}

func asText(raw any) string {
	switch v := raw.(type) {
	case string:
		return v
	case []byte:
		return string(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case nil:
		return ""
	default:
		return fmt.Sprint(v)
	}
}

func asInt(raw any) (int64, error) {
	switch v := raw.(type) {
	case int64:
		return v, nil
	case string:
		return strconv.ParseInt(v, 10, 64)
	case []byte:
		return strconv.ParseInt(string(v), 10, 64)
	default:
		return 0, fmt.Errorf("unexpected column value %T", raw)
	}
}
