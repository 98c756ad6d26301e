package client

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDial_LazyConnect(t *testing.T) {
	// grpc.NewClient does not dial eagerly, so Dial succeeds even though
	// nothing is listening on these addresses yet.
	c, err := Dial(context.Background(), "127.0.0.1:0", "127.0.0.1:0")
	require.NoError(t, err)
	defer c.Close()

	assert.NotNil(t, c.EventStore)
	assert.NotNil(t, c.ConsumerStore)
}
