// Package secret provides wipe-on-exit helpers for byte buffers that hold
// cryptographic secrets: ephemeral scalars, shared-secret coordinates, and
// key-derivation output. Every exit path of an encrypt or decrypt operation,
// success or failure, retry or final attempt, must run these before
// returning.
package secret

import "runtime"

// Zero overwrites b with zero bytes. The trailing runtime.KeepAlive call
// defeats dead-store elimination: without it, a compiler that proves b is
// never read again after the loop is free to drop the writes entirely.
func Zero(b []byte) {
	for i := range b {
		b[i] = 0
	}
	runtime.KeepAlive(b)
}

// ConstantTimeCompare reports whether a and b hold the same bytes, taking
// time independent of where (or whether) they first differ. Used to compare
// a recomputed integrity tag against the one carried in a ciphertext, so a
// timing side channel can't turn tag verification into a byte-at-a-time
// oracle.
func ConstantTimeCompare(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	var v byte
	for i := range a {
		v |= a[i] ^ b[i]
	}
	return v == 0
}

// IsZero reports whether b consists entirely of zero bytes, in constant
// time with respect to the position of the first nonzero byte. Used to
// detect the pathological all-zero KDF output that GM/T 0003 requires
// callers to reject and re-derive.
func IsZero(b []byte) bool {
	var v byte
	for _, c := range b {
		v |= c
	}
	return v == 0
}
