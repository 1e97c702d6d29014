package diameter_test

import (
	"context"
	"testing"
	"time"

	"github.com/jihwankim/diameter-load/pkg/diameter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoopbackClient_SendAndAwait(t *testing.T) {
	c := diameter.NewLoopback(0)
	defer c.Close()

	msg := &diameter.Message{CommandCode: 272, ApplicationID: 4, HopByHopID: 1, EndToEndID: 1}
	fut, err := c.Send(context.Background(), msg)
	require.NoError(t, err)

	answer, err := fut.Await(context.Background())
	require.NoError(t, err)
	assert.Equal(t, msg.HopByHopID, answer.HopByHopID)
	assert.Len(t, c.Sent(), 1)
}

func TestLoopbackClient_AwaitTimesOut(t *testing.T) {
	c := diameter.NewLoopback(50 * time.Millisecond)
	defer c.Close()

	msg := &diameter.Message{HopByHopID: 7}
	fut, err := c.Send(context.Background(), msg)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Millisecond)
	defer cancel()

	_, err = fut.Await(ctx)
	require.Error(t, err)
}

func TestLoopbackClient_SendAfterCloseFails(t *testing.T) {
	c := diameter.NewLoopback(0)
	require.NoError(t, c.Close())

	_, err := c.Send(context.Background(), &diameter.Message{})
	require.Error(t, err)
	var terr *diameter.TransportError
	require.ErrorAs(t, err, &terr)
}
