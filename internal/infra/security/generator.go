package security

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"math"
	"strconv"

	"veritas/internal/infra/crypto"
)

type FillPattern int

const (
	FillDiamondMesh FillPattern = iota
	FillWaveInterference
	FillHexagonalGrid
	FillFibonacciSpiral
)

func (f FillPattern) String() string {
	switch f {
	case FillDiamondMesh:
		return "diamond-mesh"
	case FillWaveInterference:
		return "wave-interference"
	case FillHexagonalGrid:
		return "hexagonal-grid"
	case FillFibonacciSpiral:
		return "fibonacci-spiral"
	default:
		return "unknown"
	}
}

// Generator draws the per-certificate security layers. Every value it uses is
// derived from the seed, so two generators for the same certificate draw the
// same operations in the same order.
type Generator struct {
	seed      string
	seedValue uint64
}

func NewGenerator(certificateID, hash string) *Generator {
	return NewGeneratorFromSeed(crypto.SecuritySeed(certificateID, hash))
}

func NewGeneratorFromSeed(seed string) *Generator {
	v, err := strconv.ParseUint(seed, 16, 64)
	if err != nil {
		sum := sha256.Sum256([]byte(seed))
		v = binary.BigEndian.Uint64(sum[:8])
	}
	return &Generator{seed: seed, seedValue: v}
}

func (g *Generator) Seed() string {
	return g.seed
}

func (g *Generator) FillPattern() FillPattern {
	return FillPattern(g.seedValue % 4)
}

// Unit maps (seed, label, i) to a float in [0, 1].
func (g *Generator) Unit(label string, i int) float64 {
	return Unit(g.seed, label, i)
}

// Between maps Unit onto [lo, hi].
func (g *Generator) Between(label string, i int, lo, hi float64) float64 {
	return lo + (hi-lo)*g.Unit(label, i)
}

func Unit(seed, label string, i int) float64 {
	sum := sha256.Sum256([]byte(seed + "|" + label + "|" + strconv.Itoa(i)))
	return float64(binary.BigEndian.Uint64(sum[:8])) / float64(math.MaxUint64)
}

// FingerprintPattern is the hex string the fingerprint grid reads its cells from.
func (g *Generator) FingerprintPattern() string {
	sum := sha256.Sum256([]byte(g.seed))
	return hex.EncodeToString(sum[:])
}

// FingerprintCells reports, row-major, which of the 8x8 cells are filled.
func (g *Generator) FingerprintCells() [64]bool {
	pattern := g.FingerprintPattern()
	var cells [64]bool
	for i := 0; i < 8; i++ {
		for j := 0; j < 8; j++ {
			idx := (i*8 + j) % len(pattern)
			digit, _ := strconv.ParseUint(pattern[idx:idx+1], 16, 8)
			cells[i*8+j] = digit > 7
		}
	}
	return cells
}
