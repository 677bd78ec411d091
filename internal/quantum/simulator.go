package quantum

import (
	"crypto/rand"
	"encoding/binary"
	"fmt"
	"math"
	"math/cmplx"
)

// Measurement describes one simulated qubit: the gates applied, the outcome
// bit, and the pre-measurement outcome probabilities. It exists for optional
// visualization only; key correctness never depends on it.
type Measurement struct {
	Qubit         int                `json:"qubit"`
	Gates         []string           `json:"gates"`
	Outcome       string             `json:"outcome"`
	Probabilities map[string]float64 `json:"probabilities"`
}

// qubitState is a single-qubit statevector: amplitudes for |0> and |1>.
type qubitState struct {
	zero complex128
	one  complex128
}

func newQubit() qubitState {
	return qubitState{zero: 1, one: 0}
}

// hadamard applies H, rotating |0> into the equal superposition.
func (q qubitState) hadamard() qubitState {
	invSqrt2 := complex(1/math.Sqrt2, 0)
	return qubitState{
		zero: invSqrt2 * (q.zero + q.one),
		one:  invSqrt2 * (q.zero - q.one),
	}
}

// probabilities returns |amplitude|^2 for each basis state.
func (q qubitState) probabilities() (p0, p1 float64) {
	p0 = math.Pow(cmplx.Abs(q.zero), 2)
	p1 = math.Pow(cmplx.Abs(q.one), 2)
	return p0, p1
}

// measure collapses the state, sampling against cryptographically secure
// randomness so the simulated coin is actually fair.
func (q qubitState) measure() (string, error) {
	p0, _ := q.probabilities()

	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return "", fmt.Errorf("sampling measurement: %w", err)
	}
	// Uniform in [0,1) from 53 random bits.
	sample := float64(binary.BigEndian.Uint64(buf[:])>>11) / (1 << 53)

	if sample < p0 {
		return "0", nil
	}
	return "1", nil
}

// SimulatorSource produces key bits by simulating a superposition-then-measure
// circuit per bit, the primary path of the key generator.
type SimulatorSource struct{}

func NewSimulatorSource() *SimulatorSource {
	return &SimulatorSource{}
}

func (s *SimulatorSource) Name() string {
	return "circuit-simulator"
}

// Bits runs n independent single-qubit circuits and concatenates the
// measurement outcomes.
func (s *SimulatorSource) Bits(n int) (string, []Measurement, error) {
	key := make([]byte, 0, n)
	measurements := make([]Measurement, 0, n)

	for i := 0; i < n; i++ {
		q := newQubit().hadamard()
		p0, p1 := q.probabilities()

		outcome, err := q.measure()
		if err != nil {
			return "", nil, err
		}

		key = append(key, outcome[0])
		measurements = append(measurements, Measurement{
			Qubit:   i,
			Gates:   []string{"H", "M"},
			Outcome: outcome,
			Probabilities: map[string]float64{
				"0": p0,
				"1": p1,
			},
		})
	}

	return string(key), measurements, nil
}
