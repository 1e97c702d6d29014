package variable_test

import (
	"testing"

	"github.com/jihwankim/diameter-load/pkg/variable"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIncrementalCounter_Wrap(t *testing.T) {
	reg, err := variable.Build([]variable.Spec{
		{Name: "COUNTER", Kind: variable.KindIncrementalCounter, Min: 1, Max: 5, Step: 3},
	})
	require.NoError(t, err)

	v := reg.Lookup("COUNTER")
	require.NotNil(t, v)

	got := make([]string, 5)
	for i := range got {
		got[i] = v.Next()
	}
	assert.Equal(t, []string{"1", "4", "1", "4", "1"}, got)
}

func TestIncrementalCounter_ExactBoundary(t *testing.T) {
	reg, err := variable.Build([]variable.Spec{
		{Name: "C", Kind: variable.KindIncrementalCounter, Min: 0, Max: 4, Step: 2},
	})
	require.NoError(t, err)
	v := reg.Lookup("C")

	// 0, 2, 4, then 4+2=6 > 4 -> wraps to 0
	assert.Equal(t, "0", v.Next())
	assert.Equal(t, "2", v.Next())
	assert.Equal(t, "4", v.Next())
	assert.Equal(t, "0", v.Next())
}

func TestBuild_RejectsDuplicateNames(t *testing.T) {
	_, err := variable.Build([]variable.Spec{
		{Name: "X", Kind: variable.KindIncrementalCounter, Min: 0, Max: 1, Step: 1},
		{Name: "X", Kind: variable.KindRandomNumber, Min: 0, Max: 1},
	})
	require.Error(t, err)
	var cerr *variable.ConfigError
	require.ErrorAs(t, err, &cerr)
}

func TestBuild_RejectsBadCounterRanges(t *testing.T) {
	_, err := variable.Build([]variable.Spec{
		{Name: "X", Kind: variable.KindIncrementalCounter, Min: 5, Max: 1, Step: 1},
	})
	require.Error(t, err)

	_, err = variable.Build([]variable.Spec{
		{Name: "Y", Kind: variable.KindIncrementalCounter, Min: 0, Max: 1, Step: 0},
	})
	require.Error(t, err)
}

func TestBuild_RejectsUnknownKind(t *testing.T) {
	_, err := variable.Build([]variable.Spec{
		{Name: "X", Kind: "Bogus"},
	})
	require.Error(t, err)
}

func TestRandomNumber_BoundedDraws(t *testing.T) {
	reg, err := variable.Build([]variable.Spec{
		{Name: "R", Kind: variable.KindRandomNumber, Min: 10, Max: 12},
	})
	require.NoError(t, err)
	v := reg.Lookup("R")

	for i := 0; i < 50; i++ {
		s := v.Next()
		assert.Contains(t, []string{"10", "11", "12"}, s)
	}
}

func TestLookup_MissingReturnsNil(t *testing.T) {
	reg, err := variable.Build(nil)
	require.NoError(t, err)
	assert.Nil(t, reg.Lookup("missing"))
}
