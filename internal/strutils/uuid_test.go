package strutils_test

import (
	"testing"

	"github.com/Amund211/lobbytracker/internal/strutils"
	"github.com/stretchr/testify/require"
)

const invalidCharacter = "invalid character in UUID"
const badLength = "normalized UUID has incorrect length"

func TestNormalizeUUID(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name           string
		input          string
		expected       string
		errorSubstring string
	}{
		{
			name:     "dashed",
			input:    "01234567-89ab-cdef-0123-456789abcdef",
			expected: "01234567-89ab-cdef-0123-456789abcdef",
		},
		{
			name:     "dashed upper case",
			input:    "01234567-89AB-CDEF-0123-456789ABCDEF",
			expected: "01234567-89ab-cdef-0123-456789abcdef",
		},
		{
			name:     "stripped (mojang)",
			input:    "a937646bf11544c38dbf9ae4a65669a0",
			expected: "a937646b-f115-44c3-8dbf-9ae4a65669a0",
		},
		{
			name:     "stray dashes",
			input:    "--0123---4567-89abcdef-012345---6789abcdef--",
			expected: "01234567-89ab-cdef-0123-456789abcdef",
		},
		{
			name:           "invalid character",
			input:          "0123456789ABCDEF0123456789abcdex",
			errorSubstring: invalidCharacter,
		},
		{
			name:           "too long",
			input:          "01234567-89ab-cdef-0123-456789abcdef-0",
			errorSubstring: badLength,
		},
		{
			name:           "too short",
			input:          "01234567-89ab-cdef-0123-456789abcde",
			errorSubstring: badLength,
		},
		{
			name:           "empty",
			input:          "",
			errorSubstring: badLength,
		},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			t.Parallel()

			result, err := strutils.NormalizeUUID(c.input)
			if c.errorSubstring != "" {
				require.ErrorContains(t, err, c.errorSubstring)
				return
			}
			require.NoError(t, err)
			require.Equal(t, c.expected, result)
			require.True(t, strutils.UUIDIsNormalized(result))
		})
	}
}

func TestUUIDIsNormalized(t *testing.T) {
	t.Parallel()

	require.True(t, strutils.UUIDIsNormalized("01234567-89ab-cdef-0123-456789abcdef"))
	require.False(t, strutils.UUIDIsNormalized("0123456789abcdef0123456789abcdef"))
	require.False(t, strutils.UUIDIsNormalized("01234567-89AB-CDEF-0123-456789ABCDEF"))
	require.False(t, strutils.UUIDIsNormalized("not a uuid"))
}
