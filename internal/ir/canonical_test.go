package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalCanonical_SortsKeys(t *testing.T) {
	data, err := MarshalCanonical(map[string]any{
		"title": "Heat",
		"id":    "m1",
		"year":  1995,
	})
	require.NoError(t, err)
	assert.Equal(t, `{"id":"m1","title":"Heat","year":1995}`, string(data))
}

func TestMarshalCanonical_NoHTMLEscaping(t *testing.T) {
	data, err := MarshalCanonical("Tom & Jerry <3")
	require.NoError(t, err)
	assert.Equal(t, `"Tom & Jerry <3"`, string(data))
}

func TestMarshalCanonical_NFCNormalization(t *testing.T) {
	// "é" as e + combining acute vs precomposed U+00E9
	decomposed, err := MarshalCanonical("Ame\u0301lie")
	require.NoError(t, err)
	precomposed, err := MarshalCanonical("Am\u00e9lie")
	require.NoError(t, err)

	assert.Equal(t, precomposed, decomposed)
}

func TestMarshalCanonical_RejectsFloatsAndNull(t *testing.T) {
	_, err := MarshalCanonical(8.1)
	assert.ErrorContains(t, err, "floats are forbidden")

	_, err = MarshalCanonical(nil)
	assert.ErrorContains(t, err, "null is forbidden")

	_, err = MarshalCanonical(map[string]any{"rating": 7.5})
	assert.ErrorContains(t, err, `object["rating"]`)
}

func TestMarshalCanonical_Nested(t *testing.T) {
	data, err := MarshalCanonical([]any{
		map[string]any{"b": true, "a": []string{"x", "y"}},
		int64(3),
	})
	require.NoError(t, err)
	assert.Equal(t, `[{"a":["x","y"],"b":true},3]`, string(data))
}

func TestMarshalCanonical_UnsupportedType(t *testing.T) {
	_, err := MarshalCanonical(struct{}{})
	assert.ErrorContains(t, err, "unsupported type")
}

func TestLessUTF16(t *testing.T) {
	assert.True(t, lessUTF16("a", "b"))
	assert.True(t, lessUTF16("a", "ab"))
	assert.False(t, lessUTF16("b", "a"))
	// U+FF61 sorts after U+1F600 in UTF-8 byte order but before it in UTF-16
	assert.True(t, lessUTF16("\U0001F600", "｡"))
}
