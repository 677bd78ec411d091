package cipher

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSimulateInterception(t *testing.T) {
	plaintext := "the quantum channel is live"
	ciphertext := XOREncrypt(plaintext, "1010101010101010")

	report := SimulateInterception(plaintext, ciphertext)

	assert.Equal(t, ciphertext, report.InterceptedCiphertext)
	assert.Equal(t, StatusUnbreakable, report.Status)
	assert.Equal(t, len([]rune(plaintext)), report.OriginalLength)
	require.Len(t, report.FailedDecryptions, 3)

	for i, attempt := range report.FailedDecryptions {
		assert.True(t, strings.HasPrefix(attempt, "Attempt "), "attempt %d should carry its label", i+1)
		assert.NotContains(t, attempt, plaintext)

		// Label plus garbage of plaintext rune length.
		garbage := strings.SplitN(attempt, ": ", 2)
		require.Len(t, garbage, 2)
		assert.Len(t, garbage[1], len([]rune(plaintext)))
	}
}

func TestSimulateInterceptionEmptyPlaintext(t *testing.T) {
	report := SimulateInterception("", "abc==")

	assert.Equal(t, StatusUnbreakable, report.Status)
	assert.Equal(t, 0, report.OriginalLength)
	require.Len(t, report.FailedDecryptions, 3)
	for _, attempt := range report.FailedDecryptions {
		assert.Equal(t, ": ", attempt[len(attempt)-2:], "zero-length garbage still keeps the label")
	}
}
