// Package quantum generates binary key strings, either from a single-qubit
// circuit simulator or from a secure-random fallback. The keys are demo
// material for the toy ciphers, not a cryptographic primitive.
package quantum

import (
	"crypto/rand"
	"encoding/hex"

	"golang.org/x/crypto/sha3"

	"qchat/pkg/logger"
)

// DefaultBits is the key length used when a caller passes a non-positive one.
const DefaultBits = 16

// Source yields n key bits plus per-bit measurement metadata.
type Source interface {
	Name() string
	Bits(n int) (string, []Measurement, error)
}

// RandomSource draws every bit from crypto/rand. It is both the configurable
// startup choice and the degradation path when the simulator fails.
type RandomSource struct{}

func NewRandomSource() *RandomSource {
	return &RandomSource{}
}

func (s *RandomSource) Name() string {
	return "secure-random"
}

func (s *RandomSource) Bits(n int) (string, []Measurement, error) {
	bits, err := randomBits(n)
	if err != nil {
		return "", nil, err
	}
	return bits, nil, nil
}

func randomBits(n int) (string, error) {
	buf := make([]byte, (n+7)/8)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}

	bits := make([]byte, n)
	for i := 0; i < n; i++ {
		if buf[i/8]&(1<<(uint(i)%8)) != 0 {
			bits[i] = '1'
		} else {
			bits[i] = '0'
		}
	}
	return string(bits), nil
}

// Generator is the never-fail facade over a key source. The source is chosen
// once at startup and injected; it is never swapped mid-session.
type Generator struct {
	source Source
	logger logger.Logger
}

func NewGenerator(source Source, log logger.Logger) *Generator {
	return &Generator{source: source, logger: log}
}

// SourceName reports which source the generator was built with.
func (g *Generator) SourceName() string {
	return g.source.Name()
}

// GenerateKey returns exactly `bits` characters over {'0','1'} plus optional
// measurement metadata. It never fails: a source error degrades to the
// secure-random fallback, and a fallback error (crypto/rand exhausted, which
// does not happen on any supported platform) yields an all-zero key rather
// than a panic.
func (g *Generator) GenerateKey(bits int) (string, []Measurement) {
	if bits < 1 {
		bits = DefaultBits
	}

	key, measurements, err := g.source.Bits(bits)
	if err == nil && len(key) == bits {
		return key, measurements
	}

	if err != nil {
		g.logger.Warn("key source failed, using secure-random fallback", map[string]interface{}{
			"source": g.source.Name(),
			"error":  err.Error(),
		})
	}

	fallback, err := randomBits(bits)
	if err != nil {
		g.logger.Error("secure-random fallback failed", map[string]interface{}{
			"error": err.Error(),
		})
		zeros := make([]byte, bits)
		for i := range zeros {
			zeros[i] = '0'
		}
		return string(zeros), nil
	}
	return fallback, nil
}

// Fingerprint returns a short SHA3-256 digest of key material, safe to put in
// logs and security events where the raw key must not appear.
func Fingerprint(key string) string {
	sum := sha3.Sum256([]byte(key))
	return hex.EncodeToString(sum[:8])
}
