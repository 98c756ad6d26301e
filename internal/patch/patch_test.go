package patch

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiff_NoChange(t *testing.T) {
	before := []byte(`{"name":"widget","count":1}`)
	after := []byte(`{"name":"widget","count":1}`)

	doc, err := Diff(before, after)
	require.NoError(t, err)
	assert.True(t, IsEmpty(doc), "Diff() = %s, want empty patch", doc)
}

func TestDiff_Modified(t *testing.T) {
	before := []byte(`{"name":"widget","count":1}`)
	after := []byte(`{"name":"widget","count":2}`)

	doc, err := Diff(before, after)
	require.NoError(t, err)
	assert.False(t, IsEmpty(doc), "Diff() should not be empty when inputs differ")
}

func TestApply_RoundTrip(t *testing.T) {
	before := []byte(`{"name":"widget","count":1}`)
	after := []byte(`{"name":"widget","count":2}`)

	doc, err := Diff(before, after)
	require.NoError(t, err)

	applied, err := Apply(before, doc)
	require.NoError(t, err)

	var got, want map[string]interface{}
	require.NoError(t, json.Unmarshal(applied, &got))
	require.NoError(t, json.Unmarshal(after, &want))

	assert.Equal(t, want["count"], got["count"])
}

func TestApply_InvalidPatch(t *testing.T) {
	_, err := Apply([]byte(`{}`), []byte(`not-json`))
	assert.Error(t, err)
}
