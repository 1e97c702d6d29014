package diameter_test

import (
	"testing"

	"github.com/jihwankim/diameter-load/pkg/diameter"
	"github.com/stretchr/testify/assert"
)

func TestNewBuilder_SetsRequestFlagAndSharedSeqNum(t *testing.T) {
	b := diameter.NewBuilder(272, 4, 42)
	msg := b.Build()

	assert.Equal(t, uint32(272), msg.CommandCode)
	assert.Equal(t, uint32(4), msg.ApplicationID)
	assert.Equal(t, diameter.FlagRequest, msg.Flags)
	assert.Equal(t, uint32(42), msg.HopByHopID)
	assert.Equal(t, uint32(42), msg.EndToEndID)
	assert.Empty(t, msg.AVPs)
}

func TestBuilder_AppendPreservesOrder(t *testing.T) {
	msg := diameter.NewBuilder(272, 4, 1).
		Append(263, 0, true, diameter.AVPValue{Type: diameter.UTF8String, Scalar: "ses;1"}).
		Append(264, 0, true, diameter.AVPValue{Type: diameter.Identity, Scalar: "host.example.com"}).
		Build()

	assert.Len(t, msg.AVPs, 2)
	assert.Equal(t, uint32(263), msg.AVPs[0].Code)
	assert.Equal(t, uint32(264), msg.AVPs[1].Code)
}
