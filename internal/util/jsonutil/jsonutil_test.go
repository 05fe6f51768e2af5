package jsonutil

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStripFences(t *testing.T) {
	assert.Equal(t, `{"a":1}`, string(StripFences([]byte("```json\n{\"a\":1}\n```"))))
	assert.Equal(t, `{"a":1}`, string(StripFences([]byte("```\n{\"a\":1}\n```"))))
	// No fence: input passes through unchanged.
	assert.Equal(t, `{"a":1}`, string(StripFences([]byte(`{"a":1}`))))
}

func TestUnmarshalModelOutput(t *testing.T) {
	var v map[string]int
	require.NoError(t, UnmarshalModelOutput(json.RawMessage(`{"a":1}`), &v))
	assert.Equal(t, 1, v["a"])

	var fenced map[string]int
	require.NoError(t, UnmarshalModelOutput(json.RawMessage("```json\n{\"b\":2}\n```"), &fenced))
	assert.Equal(t, 2, fenced["b"])

	assert.Error(t, UnmarshalModelOutput(json.RawMessage("nope"), &v))
}

func TestMarshalNoEscape(t *testing.T) {
	out, err := MarshalNoEscape(map[string]string{"q": "a<b>&c"})
	require.NoError(t, err)
	assert.Equal(t, `{"q":"a<b>&c"}`, string(out))
}
