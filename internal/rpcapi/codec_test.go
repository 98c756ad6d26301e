package rpcapi

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSONCodec_RoundTrip(t *testing.T) {
	c := JSONCodec{}

	in := wireCreateRequest{EntityType: "Widget"}
	data, err := c.Marshal(&in)
	require.NoError(t, err)

	var out wireCreateRequest
	require.NoError(t, c.Unmarshal(data, &out))
	assert.Equal(t, in.EntityType, out.EntityType)
}

func TestJSONCodec_Name(t *testing.T) {
	assert.Equal(t, JSONCodecName, (JSONCodec{}).Name())
}
