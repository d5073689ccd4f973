// Package sm2 implements the GM/T 0003 SM2 public-key encryption scheme:
// one-shot and streaming encrypt/decrypt, a fixed-length variant that pins
// the ciphertext's on-wire size, and the canonical DER codec for the
// ciphertext structure. The heavy lifting — the ephemeral-key retry loop,
// the wipe-on-exit secret discipline, curve arithmetic, SM3, and the SM2
// KDF — lives in internal packages; this package validates arguments,
// drives them, and owns the wire format.
package sm2

import (
	"crypto/ecdsa"
	"crypto/rand"
	"errors"
	"io"

	"github.com/maximluo/GmSSL/internal/sm2core"
	"github.com/maximluo/GmSSL/internal/sm2curve"
)

// Option configures a single Encrypt, EncryptFixedLen, or Decrypt call.
type Option func(*options)

type options struct {
	window int
	rng    io.Reader
}

func newOptions() *options {
	return &options{rng: rand.Reader}
}

// WithWindow selects the scalar-multiplication wNAF window (2-6) for this
// call only. Because the curve object used for the call is freshly built
// (see localPublicKey/localPrivateKey), this can never race with another
// goroutine's window choice on a key shared across calls.
func WithWindow(w int) Option {
	return func(o *options) { o.window = w }
}

// WithRand overrides the source of randomness used to draw the ephemeral
// scalar, letting tests exercise the RandomnessFailure path.
func WithRand(r io.Reader) Option {
	return func(o *options) { o.rng = r }
}

// localPublicKey builds a public key bound to a curve instance private to
// this call, so WithWindow never mutates state another goroutine might be
// reading through the same *ecdsa.PublicKey.
func localPublicKey(pub *ecdsa.PublicKey, window int) *ecdsa.PublicKey {
	c := sm2curve.New()
	if window != 0 {
		sm2curve.SetWindow(c, window)
	}
	return &ecdsa.PublicKey{Curve: c, X: pub.X, Y: pub.Y}
}

func localPrivateKey(priv *ecdsa.PrivateKey, window int) *ecdsa.PrivateKey {
	c := sm2curve.New()
	if window != 0 {
		sm2curve.SetWindow(c, window)
	}
	return &ecdsa.PrivateKey{PublicKey: ecdsa.PublicKey{Curve: c, X: priv.X, Y: priv.Y}, D: priv.D}
}

// Encrypt implements C7's encrypt path over C3: it validates plaintext
// length, runs the encryption core, and serializes the result as DER.
func Encrypt(pub *ecdsa.PublicKey, plaintext []byte, opts ...Option) ([]byte, error) {
	if pub == nil {
		return nil, BadArgumentError{Reason: "nil public key"}
	}
	if len(plaintext) < MinPlaintext {
		return nil, BadArgumentError{Reason: "empty plaintext"}
	}
	if len(plaintext) > MaxPlaintext {
		return nil, BadArgumentError{Reason: "plaintext exceeds MaxPlaintext"}
	}

	o := newOptions()
	for _, opt := range opts {
		opt(o)
	}

	localPub := localPublicKey(pub, o.window)
	ct, err := sm2core.Encrypt(localPub, plaintext, o.rng)
	if err != nil {
		return nil, classifyCoreError(err)
	}
	return marshal(ct)
}

// EncryptFixedLen implements C4/C7 together: like Encrypt, but retries,
// up to sm2core.MaxTries times, until the ephemeral point's DER-encoded
// size matches size.
func EncryptFixedLen(pub *ecdsa.PublicKey, plaintext []byte, size PointSize, opts ...Option) ([]byte, error) {
	if pub == nil {
		return nil, BadArgumentError{Reason: "nil public key"}
	}
	if !size.valid() {
		return nil, BadArgumentError{Reason: "invalid point size preset"}
	}
	if len(plaintext) < MinPlaintext {
		return nil, BadArgumentError{Reason: "empty plaintext"}
	}
	if len(plaintext) > MaxPlaintext {
		return nil, BadArgumentError{Reason: "plaintext exceeds MaxPlaintext"}
	}

	o := newOptions()
	for _, opt := range opts {
		opt(o)
	}

	localPub := localPublicKey(pub, o.window)
	ct, err := sm2core.EncryptFixedLen(localPub, plaintext, o.rng, pointSizeChecker(size))
	if err != nil {
		return nil, classifyCoreError(err)
	}
	return marshal(ct)
}

// Decrypt implements C7's decrypt path over C5: it parses der, requiring
// that parsing consume the entire input, then runs the decryption core.
func Decrypt(priv *ecdsa.PrivateKey, der []byte, opts ...Option) ([]byte, error) {
	if priv == nil {
		return nil, BadArgumentError{Reason: "nil private key"}
	}
	if len(der) == 0 {
		return nil, BadArgumentError{Reason: "empty ciphertext"}
	}

	ct, err := unmarshal(der)
	if err != nil {
		return nil, err
	}

	o := newOptions()
	for _, opt := range opts {
		opt(o)
	}

	localPriv := localPrivateKey(priv, o.window)
	plaintext, err := sm2core.Decrypt(localPriv, ct)
	if err != nil {
		return nil, classifyCoreError(err)
	}
	return plaintext, nil
}

// classifyCoreError maps sm2core's untyped sentinel errors onto this
// package's Error family. Anything else reaching here came from the RNG.
func classifyCoreError(err error) error {
	switch {
	case errors.Is(err, sm2core.ErrDecryptionFailed):
		return DecryptionFailedError{}
	case errors.Is(err, sm2core.ErrNotOnCurve):
		return MalformedError{Reason: "point not on curve"}
	case errors.Is(err, sm2core.ErrRetryExhausted):
		return RetryExhaustedError{Attempts: sm2core.MaxTries}
	default:
		return RandomnessFailureError{Err: err}
	}
}
