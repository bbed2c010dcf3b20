package geom

import (
	"encoding/binary"
	"fmt"
	"math"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// FingerprintMode selects how much of the geometry feeds the hash.
type FingerprintMode int

const (
	// FingerprintSampled hashes the point count plus a few sampled
	// coordinates. Cheap, and sufficient to detect any edit that moves
	// the endpoints or midpoint or changes the discretization.
	FingerprintSampled FingerprintMode = iota
	// FingerprintFull hashes every coordinate bit. Detects arbitrary
	// geometry edits at the cost of hashing the whole point set.
	FingerprintFull
)

// String returns the mode name.
func (m FingerprintMode) String() string {
	switch m {
	case FingerprintSampled:
		return "sampled"
	case FingerprintFull:
		return "full"
	default:
		return fmt.Sprintf("FingerprintMode(%d)", int(m))
	}
}

// ParseFingerprintMode converts a mode name to a FingerprintMode.
func ParseFingerprintMode(s string) (FingerprintMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "sampled", "":
		return FingerprintSampled, nil
	case "full":
		return FingerprintFull, nil
	default:
		return FingerprintSampled, fmt.Errorf("unknown fingerprint mode: %s", s)
	}
}

// Fingerprint computes a 64-bit hash of the foil geometry. Two foils
// with the same fingerprint are treated as the same shape by result
// caches; a changed fingerprint invalidates cached results.
//
// xxHash is non-cryptographic but ideal here: collisions only cost a
// spurious cache miss or stale hit on deliberately crafted inputs.
func (f *Foil) Fingerprint(mode FingerprintMode) uint64 {
	n := f.N()
	if n == 0 {
		return 0
	}

	d := xxhash.New()
	var buf [8]byte

	binary.LittleEndian.PutUint64(buf[:], uint64(n))
	d.Write(buf[:])

	writeCoord := func(v float64) {
		binary.LittleEndian.PutUint64(buf[:], math.Float64bits(v))
		d.Write(buf[:])
	}

	switch mode {
	case FingerprintFull:
		for i := 0; i < n; i++ {
			writeCoord(f.X[i])
		}
		for i := 0; i < n; i++ {
			writeCoord(f.Y[i])
		}
	default:
		writeCoord(f.X[0])
		writeCoord(f.Y[0])
		writeCoord(f.X[n/2])
		writeCoord(f.Y[n/2])
	}

	return d.Sum64()
}
