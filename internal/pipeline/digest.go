package pipeline

import "golang.org/x/crypto/blake2b"

// quickDigest produces a cheap 64-bit digest used as a pre-check gate in
// front of the content cache's canonical (contentHash, path) lookup: most
// candidate keys have never been seen, and rejecting those on a 64-bit
// blake2b sum avoids exercising the LRU's bookkeeping for the common-case
// miss (SPEC_FULL.md §2b).
func quickDigest(contentHash, path string) uint64 {
	h, _ := blake2b.New(8, nil)
	h.Write([]byte(contentHash))
	h.Write([]byte{0})
	h.Write([]byte(path))
	sum := h.Sum(nil)
	var v uint64
	for _, b := range sum {
		v = v<<8 | uint64(b)
	}
	return v
}
