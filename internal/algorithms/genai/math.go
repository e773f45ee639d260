package genai

import (
	"errors"
	"fmt"
	"math"
	"unicode/utf16"
)

// Matrix is a dense row-major matrix.
type Matrix [][]float64

var ErrShape = errors.New("genai: shape mismatch")

// SeedRandom returns a deterministic generator of floats in [0, 1). The
// seed is hashed with DJB2 over its UTF-16 code units and fed to Mulberry32,
// so the stream matches the browser implementation bit for bit.
func SeedRandom(seed string) func() float64 {
	var h uint32 = 5381
	for _, c := range utf16.Encode([]rune(seed)) {
		h = h<<5 + h + uint32(c)
	}
	state := h
	return func() float64 {
		state += 0x6D2B79F5
		t := (state ^ state>>15) * (1 | state)
		t = (t + (t^t>>7)*(61|t)) ^ t
		return float64(t^t>>14) / 4294967296
	}
}

// round3 rounds x/1000 half up, like Math.round.
func round3(x float64) float64 {
	v := math.Floor(x+0.5) / 1000
	if v == 0 {
		return 0
	}
	return v
}

// Embeddings builds one dim-length row per token, seeded by "embedding-"+token.
func Embeddings(tokens []string, dim int) Matrix {
	out := make(Matrix, len(tokens))
	for i, tok := range tokens {
		rng := SeedRandom("embedding-" + tok)
		row := make([]float64, dim)
		for j := range row {
			row[j] = round3((rng()*2 - 1) * 1000)
		}
		out[i] = row
	}
	return out
}

// WeightMatrix returns a rows×cols matrix with values in [-0.5, 0.5].
func WeightMatrix(name string, rows, cols int) Matrix {
	rng := SeedRandom("weight-" + name)
	out := make(Matrix, rows)
	for i := range out {
		row := make([]float64, cols)
		for j := range row {
			row[j] = round3((rng() - 0.5) * 1000)
		}
		out[i] = row
	}
	return out
}

// BiasVector returns n values in [-0.1, 0.1].
func BiasVector(name string, n int) []float64 {
	rng := SeedRandom("bias-" + name)
	out := make([]float64, n)
	for i := range out {
		out[i] = round3((rng() - 0.5) * 200)
	}
	return out
}

// MatMul returns a×b.
func MatMul(a, b Matrix) (Matrix, error) {
	if len(a) == 0 {
		return Matrix{}, nil
	}
	k := len(a[0])
	if k == 0 {
		return make(Matrix, len(a)), nil
	}
	if len(b) != k {
		return nil, fmt.Errorf("%w: A has %d columns but B has %d rows", ErrShape, k, len(b))
	}
	n := len(b[0])
	out := make(Matrix, len(a))
	for i := range a {
		row := make([]float64, n)
		for j := 0; j < n; j++ {
			var sum float64
			for p := 0; p < k; p++ {
				sum += a[i][p] * b[p][j]
			}
			row[j] = sum
		}
		out[i] = row
	}
	return out, nil
}

func mustMul(a, b Matrix) Matrix {
	m, err := MatMul(a, b)
	if err != nil {
		panic(err)
	}
	return m
}

func Transpose(m Matrix) Matrix {
	if len(m) == 0 {
		return Matrix{}
	}
	out := make(Matrix, len(m[0]))
	for j := range out {
		out[j] = make([]float64, len(m))
		for i := range m {
			out[j][i] = m[i][j]
		}
	}
	return out
}

func Scale(m Matrix, s float64) Matrix {
	out := make(Matrix, len(m))
	for i, row := range m {
		out[i] = make([]float64, len(row))
		for j, v := range row {
			out[i][j] = v * s
		}
	}
	return out
}

// Softmax is the max-shifted softmax of z. A zero denominator yields a
// uniform distribution. z must be non-empty.
func Softmax(z []float64) []float64 {
	hi := math.Inf(-1)
	for _, v := range z {
		hi = math.Max(hi, v)
	}
	exps := make([]float64, len(z))
	var sum float64
	for i, v := range z {
		exps[i] = math.Exp(v - hi)
		sum += exps[i]
	}
	if sum == 0 {
		for i := range exps {
			exps[i] = 1 / float64(len(z))
		}
		return exps
	}
	for i := range exps {
		exps[i] /= sum
	}
	return exps
}

func SoftmaxRows(m Matrix) Matrix {
	out := make(Matrix, len(m))
	for i, row := range m {
		out[i] = Softmax(row)
	}
	return out
}

// CosineSimilarity returns 0 when either vector has a near-zero norm.
func CosineSimilarity(a, b []float64) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("%w: vectors of length %d and %d", ErrShape, len(a), len(b))
	}
	var dot, na, nb float64
	for i := range a {
		dot += a[i] * b[i]
		na += a[i] * a[i]
		nb += b[i] * b[i]
	}
	na, nb = math.Sqrt(na), math.Sqrt(nb)
	if na < 1e-12 || nb < 1e-12 {
		return 0, nil
	}
	return dot / (na * nb), nil
}

// layerNormEpsilon keeps the normalization finite for constant rows.
const layerNormEpsilon = 1e-5

// LayerNorm shifts x to mean 0 and scales it to variance ~1, without a
// learned gain or bias.
func LayerNorm(x []float64) []float64 {
	if len(x) == 0 {
		return []float64{}
	}
	n := float64(len(x))
	var mean float64
	for _, v := range x {
		mean += v
	}
	mean /= n
	var variance float64
	for _, v := range x {
		variance += (v - mean) * (v - mean)
	}
	std := math.Sqrt(variance/n + layerNormEpsilon)
	out := make([]float64, len(x))
	for i, v := range x {
		out[i] = (v - mean) / std
	}
	return out
}

func LayerNormRows(m Matrix) Matrix {
	out := make(Matrix, len(m))
	for i, row := range m {
		out[i] = LayerNorm(row)
	}
	return out
}

// AddRows returns a+b element-wise.
func AddRows(a, b Matrix) (Matrix, error) {
	if len(a) != len(b) {
		return nil, fmt.Errorf("%w: %d rows and %d rows", ErrShape, len(a), len(b))
	}
	out := make(Matrix, len(a))
	for i := range a {
		if len(a[i]) != len(b[i]) {
			return nil, fmt.Errorf("%w: row %d has %d and %d columns", ErrShape, i, len(a[i]), len(b[i]))
		}
		out[i] = make([]float64, len(a[i]))
		for j := range a[i] {
			out[i][j] = a[i][j] + b[i][j]
		}
	}
	return out, nil
}

// AddBias adds bias to every row of m.
func AddBias(m Matrix, bias []float64) Matrix {
	out := make(Matrix, len(m))
	for i, row := range m {
		out[i] = make([]float64, len(row))
		for j, v := range row {
			out[i][j] = v + bias[j]
		}
	}
	return out
}

func ReLURows(m Matrix) Matrix {
	out := make(Matrix, len(m))
	for i, row := range m {
		out[i] = make([]float64, len(row))
		for j, v := range row {
			out[i][j] = math.Max(0, v)
		}
	}
	return out
}
