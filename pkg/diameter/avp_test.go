package diameter_test

import (
	"testing"

	"github.com/jihwankim/diameter-load/pkg/diameter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStringToAVPValue_PassThrough(t *testing.T) {
	for _, typ := range []diameter.AVPType{diameter.Identity, diameter.UTF8String, diameter.DiameterURI, diameter.OctetString} {
		v, err := diameter.StringToAVPValue("attr", "example.origin.host", typ)
		require.NoError(t, err)
		assert.Equal(t, "example.origin.host", v.Scalar)
		assert.Equal(t, typ, v.Type)
	}
}

func TestStringToAVPValue_Integers(t *testing.T) {
	v, err := diameter.StringToAVPValue("attr", "42", diameter.Integer32)
	require.NoError(t, err)
	assert.Equal(t, "42", v.Scalar)

	_, err = diameter.StringToAVPValue("attr", "not-a-number", diameter.Integer32)
	require.Error(t, err)
	var perr *diameter.ValueParseError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "attr", perr.AVPName)
}

func TestStringToAVPValue_Address(t *testing.T) {
	v, err := diameter.StringToAVPValue("attr", "10.0.0.1", diameter.Address)
	require.NoError(t, err)
	assert.Equal(t, diameter.AddressIPv4, v.Type)

	v, err = diameter.StringToAVPValue("attr", "::1", diameter.Address)
	require.NoError(t, err)
	assert.Equal(t, diameter.AddressIPv6, v.Type)

	_, err = diameter.StringToAVPValue("attr", "not-an-ip", diameter.AddressIPv4)
	require.Error(t, err)
}

func TestStringToAVPValue_GroupedIsScalarError(t *testing.T) {
	_, err := diameter.StringToAVPValue("attr", "x", diameter.Grouped)
	require.Error(t, err)
}

func TestStringToAVPValue_UnknownType(t *testing.T) {
	_, err := diameter.StringToAVPValue("attr", "x", diameter.Unknown)
	require.Error(t, err)
}
