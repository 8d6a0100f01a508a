package crypto

import (
	"math"

	"github.com/MKhiriev/wallet-cloud-sync/models"
)

const (
	// fallbackPadMax bounds the random pad used when there is no usable
	// size history yet.
	fallbackPadMax = 256

	// rangeSpread is the number of standard deviations around the mean
	// that form the target size range of a size group.
	rangeSpread = 1.5
)

// sizeRange is a target interval of plaintext sizes.
type sizeRange struct {
	min, max int
}

// targetRange picks the widest usable size range across all size groups, so
// every record is padded toward the largest subtype. A group whose range
// would start at or below zero has too little history and is ignored.
func targetRange(stats models.SizeStats) (sizeRange, bool) {
	var best sizeRange
	found := false

	for _, stat := range stats {
		if stat.Samples == 0 {
			continue
		}
		lo := int(math.Floor(stat.Mean - rangeSpread*stat.StdDev))
		hi := int(math.Ceil(stat.Mean + rangeSpread*stat.StdDev))
		if lo <= 0 || hi <= lo {
			continue
		}
		if !found || hi > best.max {
			best = sizeRange{min: lo, max: hi}
			found = true
		}
	}

	return best, found
}

// paddingLength returns how many filler bytes to append to a plaintext of
// size unpadded. intn(n) must return a value in [0, n).
func paddingLength(unpadded int, stats models.SizeStats, intn func(int) int) int {
	r, ok := targetRange(stats)
	if ok && unpadded < r.min {
		return (r.min - unpadded) + intn(r.max-r.min)
	}

	return intn(fallbackPadMax)
}
