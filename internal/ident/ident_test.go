package ident

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeRef(t *testing.T, raw string) Ref {
	t.Helper()
	var r Ref
	require.NoError(t, json.Unmarshal([]byte(raw), &r))
	return r
}

func TestRefResolveShapes(t *testing.T) {
	cases := []struct {
		name      string
		raw       string
		preferred []string
		want      string
	}{
		{"null", `null`, nil, ""},
		{"string", `" P-1 "`, nil, "P-1"},
		{"integer keeps literal", `9`, nil, "9"},
		{"large integer", `12345678901234567`, nil, "12345678901234567"},
		{"bool", `true`, nil, "true"},
		{"array", `[1,2]`, nil, ""},
		{"object id", `{"id": 42, "name": "ACME"}`, nil, "42"},
		{"preferred key wins", `{"id": 1, "code": "C-9"}`, []string{"code"}, "C-9"},
		{"well known before id", `{"id": 1, "supplier_id": "S-7"}`, nil, "S-7"},
		{"recurses into preferred object", `{"product": {"id": "P-3"}}`, []string{"product"}, "P-3"},
		{"recurses into well known object", `{"supplier_id": {"id": "S-2", "name": "X"}}`, nil, "S-2"},
		{"empty object", `{}`, nil, ""},
		{"no usable key", `{"name": "orphan"}`, nil, ""},
		{"null preferred falls through", `{"code": null, "id": 5}`, []string{"code"}, "5"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := decodeRef(t, tc.raw)
			assert.Equal(t, tc.want, r.Resolve(tc.preferred...))
		})
	}
}

func TestRefMissingFieldIsZero(t *testing.T) {
	var rec struct {
		Parent Ref `json:"parent"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"other": 1}`), &rec))

	assert.True(t, rec.Parent.IsZero())
	assert.Equal(t, "", rec.Parent.Resolve())
}

func TestResolveAnyValue(t *testing.T) {
	assert.Equal(t, "", Resolve(nil))
	assert.Equal(t, "3", Resolve(float64(3)))
	assert.Equal(t, "3.5", Resolve(3.5))
	assert.Equal(t, "abc", Resolve(map[string]any{"id": map[string]any{"id": "abc"}}))
	assert.Equal(t, "x", Resolve(Scalar("x")))
}

func TestResolveStopsOnDeepNesting(t *testing.T) {
	var v any = "leaf"
	for i := 0; i < 20; i++ {
		v = map[string]any{"id": v}
	}

	assert.Equal(t, "", Resolve(v))
}

func TestRefRoundTripShape(t *testing.T) {
	r := decodeRef(t, `{"id": 7}`)
	out, err := json.Marshal(r)
	require.NoError(t, err)
	assert.JSONEq(t, `{"id": 7}`, string(out))

	out, err = json.Marshal(Ref{})
	require.NoError(t, err)
	assert.Equal(t, "null", string(out))
}
