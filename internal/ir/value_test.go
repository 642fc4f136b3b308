package ir

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSortedKeysUTF16Order(t *testing.T) {
	// U+1F600 encodes as a surrogate pair (0xD83D...) which sorts before
	// U+FF21 (0xFF21) in UTF-16, though after it in UTF-8.
	obj := IRObject{"\uFF21": IRInt(1), "\U0001F600": IRInt(2), "a": IRInt(3)}
	assert.Equal(t, []string{"a", "\U0001F600", "\uFF21"}, obj.SortedKeys())
}

func TestIRObjectJSONRoundTrip(t *testing.T) {
	obj := IRObject{
		"name":    IRString("orders"),
		"rows":    IRInt(10),
		"active":  IRBool(true),
		"columns": IRArray{IRString("id"), IRString("total")},
		"owner":   IRNull{},
	}

	data, err := json.Marshal(obj)
	require.NoError(t, err)
	assert.Equal(t, `{"active":true,"columns":["id","total"],"name":"orders","owner":null,"rows":10}`, string(data))

	var decoded IRObject
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, obj, decoded)
}

func TestUnmarshalIRValueRejectsFloat(t *testing.T) {
	_, err := UnmarshalIRValue([]byte(`{"ratio": 0.5}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "floats are forbidden")
}

func TestIRObjectUnmarshalRejectsNonObject(t *testing.T) {
	var obj IRObject
	err := json.Unmarshal([]byte(`[1,2]`), &obj)
	assert.Error(t, err)
}

func TestFromGo(t *testing.T) {
	tests := []struct {
		name    string
		input   any
		want    IRValue
		wantErr bool
	}{
		{"nil", nil, IRNull{}, false},
		{"string", "x", IRString("x"), false},
		{"int", 3, IRInt(3), false},
		{"integral float", 4.0, IRInt(4), false},
		{"fractional float", 4.5, nil, true},
		{"bool", true, IRBool(true), false},
		{"already ir", IRString("y"), IRString("y"), false},
		{"list", []any{"a", 1}, IRArray{IRString("a"), IRInt(1)}, false},
		{"map", map[string]any{"k": "v"}, IRObject{"k": IRString("v")}, false},
		{"unsupported", struct{}{}, nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FromGo(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestToNative(t *testing.T) {
	v, err := ToNative(IRString("a"))
	require.NoError(t, err)
	assert.Equal(t, "a", v)

	v, err = ToNative(IRInt(7))
	require.NoError(t, err)
	assert.Equal(t, int64(7), v)

	v, err = ToNative(IRNull{})
	require.NoError(t, err)
	assert.Nil(t, v)

	_, err = ToNative(IRArray{IRInt(1)})
	assert.Error(t, err)
}

func TestFormat(t *testing.T) {
	assert.Equal(t, `"orders"`, Format(IRString("orders")))
	assert.Equal(t, "42", Format(IRInt(42)))
	assert.Equal(t, "false", Format(IRBool(false)))
	assert.Equal(t, `["a", 2]`, Format(IRArray{IRString("a"), IRInt(2)}))
	assert.Equal(t, "null", Format(IRNull{}))
}
