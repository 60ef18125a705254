// Package dhash computes 64-bit difference hashes (dHash) of decoded images.
//
// The image is reduced to an 8 column by 9 row grayscale grid and each column
// contributes 8 bits, one per vertically adjacent pair of samples. Bit i*8+j is
// set when the sample at (i, j) is strictly darker than the sample at (i, j+1).
package dhash

import (
	"fmt"
	"image"
	"math/bits"

	"github.com/corona10/goimagehash"
)

const (
	// Columns is the width of the reduced grid.
	Columns = 8

	// Rows is the height of the reduced grid. One more than the number of
	// comparisons per column.
	Rows = Columns + 1

	// Bits is the number of bits in a fingerprint.
	Bits = Columns * (Rows - 1)

	// KeyPrefix prefixes every named bit, e.g. "dh_0".
	KeyPrefix = "dh_"
)

// keys caches the bit names in bit order.
var keys = func() [Bits]string {
	var k [Bits]string
	for i := range k {
		k[i] = fmt.Sprintf("%s%d", KeyPrefix, i)
	}
	return k
}()

// Fingerprint is a 64-bit difference hash. Bit i of the underlying integer
// holds the value keyed Key(i).
type Fingerprint uint64

// Compute returns the fingerprint of img. Images with no pixels produce the
// zero fingerprint.
func Compute(img image.Image) Fingerprint {
	grid := Reduce(img)

	var fp Fingerprint
	for i := range Columns {
		for j := range Rows - 1 {
			if grid.GrayAt(i, j).Y < grid.GrayAt(i, j+1).Y {
				fp |= 1 << uint(i*(Rows-1)+j)
			}
		}
	}
	return fp
}

// FromBits builds a fingerprint from exactly Bits booleans in bit order.
func FromBits(b []bool) (Fingerprint, error) {
	if len(b) != Bits {
		return 0, fmt.Errorf("fingerprint needs %d bits, got %d", Bits, len(b))
	}

	var fp Fingerprint
	for i, set := range b {
		if set {
			fp |= 1 << uint(i)
		}
	}
	return fp, nil
}

// Key returns the name of bit i.
func Key(i int) string {
	return keys[i]
}

// Keys returns all bit names in bit order.
func Keys() []string {
	out := make([]string, Bits)
	copy(out, keys[:])
	return out
}

// Bit reports the value of bit i.
func (f Fingerprint) Bit(i int) bool {
	return f&(1<<uint(i)) != 0
}

// Bits returns the fingerprint as Bits booleans in bit order.
func (f Fingerprint) Bits() []bool {
	out := make([]bool, Bits)
	for i := range out {
		out[i] = f.Bit(i)
	}
	return out
}

// Map returns the fingerprint keyed by bit name.
func (f Fingerprint) Map() map[string]bool {
	out := make(map[string]bool, Bits)
	for i := range Bits {
		out[keys[i]] = f.Bit(i)
	}
	return out
}

// Ones counts the set bits.
func (f Fingerprint) Ones() int {
	return bits.OnesCount64(uint64(f))
}

// Distance returns the Hamming distance between two fingerprints.
func (f Fingerprint) Distance(other Fingerprint) int {
	a := goimagehash.NewImageHash(uint64(f), goimagehash.DHash)
	b := goimagehash.NewImageHash(uint64(other), goimagehash.DHash)

	// Distance only fails on differing hash kinds.
	d, err := a.Distance(b)
	if err != nil {
		return Bits
	}
	return d
}

// Matches returns the number of equal bits, the score an index assigns when
// each bit clause is worth one point.
func (f Fingerprint) Matches(other Fingerprint) int {
	return Bits - f.Distance(other)
}

// String renders the fingerprint as 16 hex digits.
func (f Fingerprint) String() string {
	return fmt.Sprintf("%016x", uint64(f))
}
