package organism

import (
	"errors"
	"fmt"
)

// ErrShortGenome is returned when the string being searched is shorter than the pattern.
var ErrShortGenome = errors.New("genome longer than the string it is aligned against")

// Alignment is the best placement of a short genome inside a longer string.
type Alignment struct {
	Distance int // mismatches at Offset
	Offset   int // first offset achieving Distance
}

// Align slides short over every offset of long and returns the placement with the fewest
// mismatches. Ties go to the smallest offset.
func Align(long, short string) (Alignment, error) {
	if len(long) < len(short) {
		return Alignment{}, fmt.Errorf("%w: %d < %d", ErrShortGenome, len(long), len(short))
	}
	return align(long, short), nil
}

// MinDistanceAlign is Align for callers that guarantee len(long) >= len(short).
// A violated precondition reports distance len(short) at offset 0.
func MinDistanceAlign(long, short string) (dist, offset int) {
	if len(long) < len(short) {
		return len(short), 0
	}
	a := align(long, short)
	return a.Distance, a.Offset
}

func align(long, short string) Alignment {
	best := Alignment{Distance: len(short) + 1}
	for off := 0; off <= len(long)-len(short); off++ {
		d := 0
		for j := 0; j < len(short); j++ {
			if long[off+j] != short[j] {
				d++
				if d >= best.Distance {
					break
				}
			}
		}
		if d < best.Distance {
			best = Alignment{Distance: d, Offset: off}
			if d == 0 {
				break
			}
		}
	}
	return best
}

// MoveCloserByOne rewrites the first mismatched character inside the best alignment window
// so long matches short in one more position. At distance 0 long is returned unchanged.
func MoveCloserByOne(long, short string) string {
	dist, off := MinDistanceAlign(long, short)
	if dist == 0 || len(long) < len(short) {
		return long
	}
	for j := 0; j < len(short); j++ {
		if long[off+j] != short[j] {
			b := []byte(long)
			b[off+j] = short[j]
			return string(b)
		}
	}
	return long
}
