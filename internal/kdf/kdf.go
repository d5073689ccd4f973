// Package kdf implements the SM2 key derivation function: an SM3-based
// counter-mode mask generator (GM/T 0003.4, KDF). It turns a shared-secret
// seed into a keystream of any requested length for SM2 encryption's
// stream-cipher-style XOR step.
package kdf

import (
	"encoding/binary"

	"github.com/maximluo/GmSSL/internal/sm3"
)

// Derive returns outLen bytes of keystream derived from seed by repeated
// SM3(seed || counter), counter starting at 1 and big-endian encoded in 4
// bytes, concatenating successive 32-byte hash blocks and truncating the
// last one to fit outLen.
func Derive(outLen int, seed ...[]byte) []byte {
	out := make([]byte, outLen)
	h := sm3.New()
	var ctr [4]byte
	counter := uint32(1)
	blocks := (outLen + sm3.Size - 1) / sm3.Size
	for i := 0; i < blocks; i++ {
		h.Reset()
		for _, s := range seed {
			h.Write(s)
		}
		binary.BigEndian.PutUint32(ctr[:], counter)
		h.Write(ctr[:])
		sum := h.Sum(nil)
		start := i * sm3.Size
		end := start + sm3.Size
		if end > outLen {
			end = outLen
		}
		copy(out[start:end], sum[:end-start])
		counter++
	}
	return out
}
