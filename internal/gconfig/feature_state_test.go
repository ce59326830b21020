package gconfig

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFeatureStateEnabledAndOverridable(t *testing.T) {
	cases := []struct {
		state       FeatureState
		enabled     bool
		overridable bool
	}{
		{MandatoryOn, true, false},
		{MandatoryOff, false, false},
		{OptionalOn, true, true},
		{OptionalOff, false, true},
	}

	for _, tc := range cases {
		require.Equal(t, tc.enabled, tc.state.Enabled(), "state=%s", tc.state)
		require.Equal(t, tc.overridable, tc.state.Overridable(), "state=%s", tc.state)
	}
}

func TestFeatureStateUnmarshalBoolCompat(t *testing.T) {
	var s FeatureState
	require.NoError(t, json.Unmarshal([]byte("true"), &s))
	require.Equal(t, OptionalOn, s)

	require.NoError(t, json.Unmarshal([]byte("false"), &s))
	require.Equal(t, OptionalOff, s)

	require.NoError(t, json.Unmarshal([]byte(`"MandatoryOn"`), &s))
	require.Equal(t, MandatoryOn, s)

	require.Error(t, json.Unmarshal([]byte(`"NotAState"`), &s))
}

func TestApplyOverrideRespectsMandatory(t *testing.T) {
	require.Equal(t, MandatoryOff, ApplyOverride(MandatoryOff, true))
	require.Equal(t, MandatoryOn, ApplyOverride(MandatoryOn, false))
	require.Equal(t, OptionalOn, ApplyOverride(OptionalOff, true))
	require.Equal(t, OptionalOff, ApplyOverride(OptionalOn, false))
}

func TestCompactExeHashKey(t *testing.T) {
	full := "d21d0173c3028c190055ae1f14f9a4c282e8e58318975fc5d4cefdeb61a15df9"
	require.Equal(t, "d21d0173c3028c19", CompactExeHashKey(full))
	require.Equal(t, "abc123", CompactExeHashKey("abc123"))
}
