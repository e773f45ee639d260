package quantum

import (
	"errors"
	"fmt"
	"math"
	"math/cmplx"
	"strings"
)

const (
	normTolerance = 1e-9
	epsilon       = 1e-10
)

var (
	ErrNotNormalized     = errors.New("quantum: state vector not normalized")
	ErrImpossibleOutcome = errors.New("quantum: measurement outcome has zero probability")
)

// State is a register's amplitudes in big-endian basis order: qubit 0 is the
// most significant bit of the basis index.
type State []complex128

// Gate is a square unitary matrix, row-major.
type Gate [][]complex128

func ZeroState(qubits int) State {
	s := make(State, 1<<qubits)
	s[0] = 1
	return s
}

func (s State) NormSq() float64 {
	var sum float64
	for _, a := range s {
		sum += absSq(a)
	}
	return sum
}

// CheckNormalized fails when |norm² − 1| exceeds 1e-9.
func (s State) CheckNormalized(context string) error {
	if n := s.NormSq(); math.Abs(n-1) > normTolerance {
		return fmt.Errorf("%w (%s): norm² = %v", ErrNotNormalized, context, n)
	}
	return nil
}

// Probabilities returns |a_k|² for every basis state.
func (s State) Probabilities() []float64 {
	out := make([]float64, len(s))
	for k, a := range s {
		out[k] = absSq(a)
	}
	return out
}

// QubitProbabilities returns P(qubit = 0) and P(qubit = 1).
func (s State) QubitProbabilities(qubit, qubits int) (p0, p1 float64) {
	bit := qubits - 1 - qubit
	for k, a := range s {
		if k>>bit&1 == 0 {
			p0 += absSq(a)
		} else {
			p1 += absSq(a)
		}
	}
	return p0, p1
}

// Project collapses qubit onto outcome and renormalizes. s is not modified.
func (s State) Project(qubit, outcome, qubits int) (State, error) {
	bit := qubits - 1 - qubit
	var prob float64
	for k, a := range s {
		if k>>bit&1 == outcome {
			prob += absSq(a)
		}
	}
	if prob < epsilon {
		return nil, fmt.Errorf("%w: qubit %d = %d has probability %v", ErrImpossibleOutcome, qubit, outcome, prob)
	}
	scale := complex(1/math.Sqrt(prob), 0)
	out := make(State, len(s))
	for k, a := range s {
		if k>>bit&1 == outcome {
			out[k] = a * scale
		}
	}
	return out, nil
}

// ApplySingle applies a 2×2 gate to one qubit in place.
func (s State) ApplySingle(g Gate, qubit, qubits int) {
	bit := qubits - 1 - qubit
	stride := 1 << bit
	for i := range s {
		if i>>bit&1 == 1 {
			continue
		}
		a0, a1 := s[i], s[i|stride]
		s[i] = g[0][0]*a0 + g[0][1]*a1
		s[i|stride] = g[1][0]*a0 + g[1][1]*a1
	}
}

// ApplyTwo applies a 4×4 gate to (q0, q1) in place. Gate rows and columns
// are ordered |q0 q1⟩ = 00, 01, 10, 11.
func (s State) ApplyTwo(g Gate, q0, q1, qubits int) {
	b0 := 1 << (qubits - 1 - q0)
	b1 := 1 << (qubits - 1 - q1)
	done := make([]bool, len(s))
	for i := range s {
		if done[i] {
			continue
		}
		base := i &^ (b0 | b1)
		idx := [4]int{base, base | b1, base | b0, base | b0 | b1}
		var amps [4]complex128
		for c, k := range idx {
			amps[c] = s[k]
		}
		for r, k := range idx {
			var sum complex128
			for c := range amps {
				sum += g[r][c] * amps[c]
			}
			s[k] = sum
			done[k] = true
		}
	}
}

// Oracle negates the amplitude of every target basis state.
func (s State) Oracle(targets []int) {
	for _, t := range targets {
		s[t] = -s[t]
	}
}

// Diffusion reflects every amplitude about the mean amplitude.
func (s State) Diffusion() {
	var mean complex128
	for _, a := range s {
		mean += a
	}
	mean /= complex(float64(len(s)), 0)
	for k, a := range s {
		s[k] = 2*mean - a
	}
}

// Pairs flattens s into [re, im] pairs for a step snapshot.
func (s State) Pairs() [][]float64 {
	return pairs(s)
}

func pairs(v []complex128) [][]float64 {
	out := make([][]float64, len(v))
	for i, a := range v {
		out[i] = []float64{real(a), imag(a)}
	}
	return out
}

// Pairs flattens g into rows of [re, im] pairs.
func (g Gate) Pairs() [][][]float64 {
	out := make([][][]float64, len(g))
	for i, row := range g {
		out[i] = pairs(row)
	}
	return out
}

// IsUnitary checks U·U† = I within 1e-9.
func (g Gate) IsUnitary() bool {
	for i := range g {
		for j := range g {
			var sum complex128
			for k := range g {
				sum += g[i][k] * cmplx.Conj(g[j][k])
			}
			want := complex(0, 0)
			if i == j {
				want = 1
			}
			if cmplx.Abs(sum-want) > normTolerance {
				return false
			}
		}
	}
	return true
}

// Entangled reports whether a two-qubit state fails to factor, using
// a00·a11 ≠ a01·a10.
func Entangled(s State) bool {
	if len(s) != 4 {
		return false
	}
	d := s[0]*s[3] - s[1]*s[2]
	return math.Abs(real(d)) > 1e-9 || math.Abs(imag(d)) > 1e-9
}

func absSq(a complex128) float64 {
	return real(a)*real(a) + imag(a)*imag(a)
}

// BasisLabels returns "|00⟩", "|01⟩", ... for the given register width.
func BasisLabels(qubits int) []string {
	out := make([]string, 1<<qubits)
	for k := range out {
		out[k] = fmt.Sprintf("|%0*b⟩", qubits, k)
	}
	return out
}

func zeros(qubits int) string {
	return strings.Repeat("0", qubits)
}

// normalizeAngle maps an angle into [0, 2π).
func normalizeAngle(a float64) float64 {
	r := math.Mod(a, 2*math.Pi)
	if r < 0 {
		r += 2 * math.Pi
	}
	return r
}

// BlochAngles returns θ ∈ [0, π] and φ ∈ [0, 2π) for a single-qubit state.
// The global phase is discarded.
func BlochAngles(a0, a1 complex128) (theta, phi float64) {
	abs0 := math.Min(1, math.Max(0, cmplx.Abs(a0)))
	theta = 2 * math.Acos(abs0)
	switch {
	case abs0 < epsilon:
		return math.Pi, normalizeAngle(cmplx.Phase(a1))
	case cmplx.Abs(a1) < epsilon:
		return 0, 0
	}
	return theta, normalizeAngle(cmplx.Phase(a1) - cmplx.Phase(a0))
}

// BlochState is cos(θ/2)|0⟩ + e^{iφ}·sin(θ/2)|1⟩.
func BlochState(theta, phi float64) (a0, a1 complex128) {
	return complex(math.Cos(theta/2), 0), cmplx.Rect(math.Sin(theta/2), phi)
}

func BlochCartesian(theta, phi float64) (x, y, z float64) {
	return math.Sin(theta) * math.Cos(phi), math.Sin(theta) * math.Sin(phi), math.Cos(theta)
}
