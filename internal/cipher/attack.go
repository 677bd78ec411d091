package cipher

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

const (
	attackAttempts = 3
	attackCharset  = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789!@#$%^&*()_+-=[]{}|;:,.<>?"

	// StatusUnbreakable is the static verdict shown for every simulated
	// interception. No cryptanalysis happens here.
	StatusUnbreakable = "FAILED - Quantum encryption unbreakable without key"
	statusError       = "ERROR"
)

// AttackReport is presentation material for the UI: what an eavesdropper
// would see without the key. It never contains the plaintext.
type AttackReport struct {
	InterceptedCiphertext string   `json:"intercepted_ciphertext"`
	FailedDecryptions     []string `json:"failed_decryptions"`
	Status                string   `json:"status"`
	OriginalLength        int      `json:"original_length"`
}

// SimulateInterception builds a report of three garbage "decryption attempts"
// the length of the plaintext. On internal failure it returns a single error
// attempt and an error status; it never returns an error value.
func SimulateInterception(plaintext, ciphertext string) AttackReport {
	length := len([]rune(plaintext))

	attempts := make([]string, 0, attackAttempts)
	for attempt := 0; attempt < attackAttempts; attempt++ {
		garbage, err := randomPrintable(length)
		if err != nil {
			return AttackReport{
				InterceptedCiphertext: ciphertext,
				FailedDecryptions:     []string{"[Error simulating attack]"},
				Status:                statusError,
				OriginalLength:        0,
			}
		}
		attempts = append(attempts, fmt.Sprintf("Attempt %d: %s", attempt+1, garbage))
	}

	return AttackReport{
		InterceptedCiphertext: ciphertext,
		FailedDecryptions:     attempts,
		Status:                StatusUnbreakable,
		OriginalLength:        length,
	}
}

func randomPrintable(n int) (string, error) {
	out := make([]byte, n)
	max := big.NewInt(int64(len(attackCharset)))
	for i := range out {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		out[i] = attackCharset[idx.Int64()]
	}
	return string(out), nil
}
