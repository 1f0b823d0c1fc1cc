package emu

import (
	"math"
	"math/bits"
	"sync"
)

// Lookup tables shared by every device. Built once, read only afterwards.

const (
	recipBits      = 9
	recipTableSize = 1 << recipBits
	recipPrec      = 40 // recip[i] ~ 2^recipPrec / mantissa, mantissa in [2^9, 2^10)
)

var (
	tablesOnce sync.Once

	// recipTable[i] approximates 2^40 / (2^9 + i). One guard entry past the
	// end supports linear interpolation on the last slot.
	recipTable [recipTableSize + 1]uint32

	// logTable[i] is log2(1 + (i+0.5)/512) in quarter-LOD units, rounded to
	// nearest.
	logTable [recipTableSize]int32

	// ditherRB[d][c] and ditherG[d][c] reduce an 8-bit channel to 5 or 6
	// bits with ordered-dither value d already folded in.
	ditherRB [16][256]uint8
	ditherG  [16][256]uint8
)

// Ordered dither matrices, indexed by (y&3)*4 + (x&3).
var dither4x4 = [16]uint8{
	0, 8, 2, 10,
	12, 4, 14, 6,
	3, 11, 1, 9,
	15, 7, 13, 5,
}

var dither2x2 = [16]uint8{
	2, 10, 2, 10,
	14, 6, 14, 6,
	2, 10, 2, 10,
	14, 6, 14, 6,
}

func initTables() {
	tablesOnce.Do(func() {
		for i := 0; i <= recipTableSize; i++ {
			recipTable[i] = uint32((uint64(1) << recipPrec) / uint64(recipTableSize+i))
		}
		for i := 0; i < recipTableSize; i++ {
			frac := (float64(i) + 0.5) / float64(recipTableSize)
			logTable[i] = int32(math.Round(math.Log2(1+frac) * 4))
		}
		for d := 0; d < 16; d++ {
			for c := 0; c < 256; c++ {
				// The hardware folds the dither value into the
				// truncation of the low bits rather than adding it to
				// the full-precision channel.
				rb := (c<<1 - c>>4 + c>>7 + d) >> 4
				if rb > 31 {
					rb = 31
				}
				g := (c<<2 - c>>4 + c>>6 + d>>1) >> 4
				if g > 63 {
					g = 63
				}
				ditherRB[d][c] = uint8(rb)
				ditherG[d][c] = uint8(g)
			}
		}
	})
}

// fastReciplog returns an approximate reciprocal of value along with its
// base-2 logarithm in quarter-LOD units. The reciprocal is scaled so that
// value * recip ~ 2^(31 + msb(value)); callers fold the returned shift into
// their own fixed-point normalization. A non-positive value yields the
// largest representable reciprocal, matching the hardware's treatment of
// degenerate W.
//
// The table resolution is a documented deviation from the original unit's
// mipmap math: it is exact to about 18 bits, which holds texel addressing
// stable but makes fractional-LOD selection approximate.
func fastReciplog(value int64) (recip uint32, shift uint, lod int32) {
	if value <= 0 {
		return recipTable[0], 63, 0
	}
	msb := uint(63 - bits.LeadingZeros64(uint64(value)))
	var index, rem uint32
	if msb >= recipBits {
		index = uint32(value>>(msb-recipBits)) & (recipTableSize - 1)
		if msb > recipBits {
			rem = uint32(value>>(msb-recipBits-1)) & 1
		}
	} else {
		index = uint32(value<<(recipBits-msb)) & (recipTableSize - 1)
	}
	recip = recipTable[index]
	if rem != 0 {
		recip -= (recipTable[index] - recipTable[index+1]) / 2
	}
	lod = int32(msb)*4 + logTable[index]
	return recip, 31 + msb, lod
}

// reciprocalDivide computes (num << fracBits) / den using the reciprocal
// table, preserving the sign of num. den must be the value fastReciplog was
// given, and both operands carry the same fixed-point scale so the scale
// cancels.
func reciprocalDivide(num int64, recip uint32, shift uint, fracBits uint) int64 {
	neg := false
	if num < 0 {
		num = -num
		neg = true
	}
	// Keep the 64-bit product in range: recip is at most 2^31.
	var drop uint
	for num >= 1<<30 {
		num >>= 1
		drop++
	}
	q := num * int64(recip)
	total := int(shift) - int(fracBits) - int(drop)
	if total > 0 {
		if total >= 64 {
			q = 0
		} else {
			q >>= uint(total)
		}
	} else if total < 0 {
		q <<= uint(-total)
	}
	if neg {
		return -q
	}
	return q
}
