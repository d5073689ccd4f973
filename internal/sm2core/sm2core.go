// Package sm2core implements the SM2 public-key encryption and decryption
// core: the ephemeral-key retry loop, the key-derivation-function all-zero
// rejection, and the wipe-on-exit discipline that must surround every
// secret scalar and derived point. It knows nothing about DER: callers
// serialize the Ciphertext it produces, and parse one back, with the sm2
// package's codec.
package sm2core

import (
	"crypto/ecdsa"
	"errors"
	"io"
	"math/big"

	"github.com/maximluo/GmSSL/internal/kdf"
	"github.com/maximluo/GmSSL/internal/secret"
	"github.com/maximluo/GmSSL/internal/sm2curve"
	"github.com/maximluo/GmSSL/internal/sm3"
)

// MaxTries bounds the fixed point-size retry loop in EncryptFixedLen.
const MaxTries = 200

// ErrRetryExhausted is returned by EncryptFixedLen when MaxTries candidate
// ephemeral keys all produced a DER point size other than the one requested.
var ErrRetryExhausted = errors.New("sm2core: retry exhausted")

// ErrDecryptionFailed covers both an all-zero KDF keystream and an
// integrity-tag mismatch. The two causes are never distinguished: collapsing
// them into one error is what keeps tag verification from becoming a
// byte-at-a-time oracle.
var ErrDecryptionFailed = errors.New("sm2core: decryption failed")

// ErrNotOnCurve is returned by Decrypt when the ciphertext's ephemeral
// point does not lie on the curve.
var ErrNotOnCurve = errors.New("sm2core: point not on curve")

// Ciphertext is the in-memory SM2 ciphertext quadruple (x1, y1, hash, body).
// Coordinates are left-zero-padded to 32 bytes regardless of how short their
// DER INTEGER encoding is.
type Ciphertext struct {
	X    [32]byte
	Y    [32]byte
	Hash [32]byte
	Body []byte
}

// PointSizeChecker reports whether the DER-encoded length of the
// (INTEGER x, INTEGER y) pair for the given coordinates matches a caller's
// chosen preset. The sm2 package, which owns the DER codec, supplies this
// as a callback so sm2core never has to know about ASN.1.
type PointSizeChecker func(x, y *big.Int) bool

// Encrypt implements the one-shot SM2 encryption core: it draws a fresh
// ephemeral scalar, derives the shared secret and keystream, and restarts
// (silently, unboundedly, but with negligible probability) whenever the
// keystream comes out all zero.
func Encrypt(pub *ecdsa.PublicKey, plaintext []byte, rng io.Reader) (*Ciphertext, error) {
	ct, _, _, err := encryptAttempt(pub, plaintext, rng)
	return ct, err
}

// EncryptFixedLen is Encrypt plus a second, hard-bounded retry: it keeps
// drawing fresh ephemeral scalars, up to MaxTries times, until the
// resulting point's DER-encoded size matches check. This lets a caller pin
// the ciphertext's on-wire length to one of the three GM/T 0003 presets.
func EncryptFixedLen(pub *ecdsa.PublicKey, plaintext []byte, rng io.Reader, check PointSizeChecker) (*Ciphertext, error) {
	for attempt := 0; attempt < MaxTries; attempt++ {
		ct, x, y, err := encryptAttempt(pub, plaintext, rng)
		if err != nil {
			return nil, err
		}
		if check(x, y) {
			return ct, nil
		}
	}
	return nil, ErrRetryExhausted
}

// encryptAttempt runs spec.md §4.2 steps 2-9 once, including its own
// internal, statistically-negligible retry against an all-zero KDF
// keystream. Every exit path — success, RNG failure, or a fresh retry —
// wipes k and the shared-secret buffer before the function returns or
// loops.
func encryptAttempt(pub *ecdsa.PublicKey, plaintext []byte, rng io.Reader) (ct *Ciphertext, x1, y1 *big.Int, err error) {
	curve := pub.Curve

	for {
		k, err := sm2curve.RandScalar(curve, rng)
		if err != nil {
			return nil, nil, nil, err
		}
		var kArr [32]byte
		k.FillBytes(kArr[:])

		x1, y1 = curve.ScalarBaseMult(kArr[:])
		x2, y2 := curve.ScalarMult(pub.X, pub.Y, kArr[:])

		var seed [64]byte
		x2.FillBytes(seed[:32])
		y2.FillBytes(seed[32:])

		t := kdf.Derive(len(plaintext), seed[:])
		if secret.IsZero(t) {
			secret.Zero(kArr[:])
			secret.Zero(seed[:])
			secret.Zero(t)
			continue
		}

		body := make([]byte, len(plaintext))
		for i := range plaintext {
			body[i] = plaintext[i] ^ t[i]
		}

		h := sm3.New()
		h.Write(seed[:32])
		h.Write(plaintext)
		h.Write(seed[32:])
		tag := h.Sum(nil)

		ct = &Ciphertext{Body: body}
		x1.FillBytes(ct.X[:])
		y1.FillBytes(ct.Y[:])
		copy(ct.Hash[:], tag)

		secret.Zero(kArr[:])
		secret.Zero(seed[:])
		secret.Zero(t)

		return ct, x1, y1, nil
	}
}

// Decrypt implements C5: one-shot SM2 decryption. It checks the ephemeral
// point is on the curve before any scalar multiplication by the private
// key, derives the same keystream the encrypting side did, and verifies
// the integrity tag in constant time.
func Decrypt(priv *ecdsa.PrivateKey, ct *Ciphertext) ([]byte, error) {
	curve := priv.Curve
	x1 := new(big.Int).SetBytes(ct.X[:])
	y1 := new(big.Int).SetBytes(ct.Y[:])

	if !curve.IsOnCurve(x1, y1) {
		return nil, ErrNotOnCurve
	}

	var dArr [32]byte
	priv.D.FillBytes(dArr[:])

	x2, y2 := curve.ScalarMult(x1, y1, dArr[:])
	secret.Zero(dArr[:])

	var seed [64]byte
	x2.FillBytes(seed[:32])
	y2.FillBytes(seed[32:])

	t := kdf.Derive(len(ct.Body), seed[:])
	if secret.IsZero(t) {
		secret.Zero(seed[:])
		secret.Zero(t)
		return nil, ErrDecryptionFailed
	}

	plaintext := make([]byte, len(ct.Body))
	for i := range ct.Body {
		plaintext[i] = ct.Body[i] ^ t[i]
	}

	h := sm3.New()
	h.Write(seed[:32])
	h.Write(plaintext)
	h.Write(seed[32:])
	tag := h.Sum(nil)

	secret.Zero(seed[:])
	secret.Zero(t)

	if !secret.ConstantTimeCompare(tag, ct.Hash[:]) {
		secret.Zero(plaintext)
		return nil, ErrDecryptionFailed
	}

	return plaintext, nil
}
