package testing

import (
	"testing"

	"github.com/LeJamon/goAMM/internal/core/asset"
	"github.com/LeJamon/goAMM/internal/core/ter"
	"github.com/stretchr/testify/require"
)

// RequireBalance asserts that holder has the expected balance of id.
func RequireBalance(t *testing.T, env *TestEnv, holder, id asset.ID, expected uint64) {
	t.Helper()
	actual := env.Balance(holder, id)
	require.Equal(t, expected, actual,
		"%s balance of %s mismatch: expected %d, got %d", holder, id, expected, actual)
}

// RequireSupply asserts the total supply of id.
func RequireSupply(t *testing.T, env *TestEnv, id asset.ID, expected uint64) {
	t.Helper()
	actual := env.Supply(id)
	require.Equal(t, expected, actual,
		"supply of %s mismatch: expected %d, got %d", id, expected, actual)
}

// RequireSuccess asserts that a call result indicates success.
func RequireSuccess(t *testing.T, result CallResult) {
	t.Helper()
	require.True(t, result.Success,
		"Expected call success, got %s: %s", result.Code, result.Message)
	require.Equal(t, ter.TesSUCCESS, result.Code,
		"Expected tesSUCCESS, got %s: %s", result.Code, result.Message)
}

// RequireCode asserts that a call failed with a specific code.
func RequireCode(t *testing.T, result CallResult, expected ter.Result) {
	t.Helper()
	require.False(t, result.Success,
		"Expected call failure with code %s, but call succeeded", expected)
	require.Equal(t, expected, result.Code,
		"Expected failure code %s, got %s: %s", expected, result.Code, result.Message)
}

// RequireParcel asserts the amount of id carried by a successful response.
func RequireParcel(t *testing.T, result CallResult, id asset.ID, expected uint64) {
	t.Helper()
	require.NotNil(t, result.Response, "call returned no response: %s", result.Message)
	require.Equal(t, expected, result.Response.Parcel.Amount(id),
		"response parcel %s: expected %d of %s", result.Response.Parcel, expected, id)
}
