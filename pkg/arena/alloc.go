package arena

import "math/bits"

// SuggestSize rounds bytes up to the next power of two, matching the
// size-class discipline Recycled uses for its free lists.
func SuggestSize(bytes int) int {
	if bytes <= 0 {
		return 1
	}
	log := bits.Len(uint(bytes - 1))
	return 1 << log
}

func sizeClassIndex(n int) int {
	if n <= 1 {
		return 0
	}
	return bits.Len(uint(n - 1))
}
