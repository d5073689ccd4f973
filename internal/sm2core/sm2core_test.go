package sm2core

import (
	"crypto/ecdsa"
	"crypto/rand"
	"io"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maximluo/GmSSL/internal/kdf"
	"github.com/maximluo/GmSSL/internal/secret"
	"github.com/maximluo/GmSSL/internal/sm2curve"
)

func genKeyPair(t *testing.T) (*ecdsa.PrivateKey, *ecdsa.PublicKey) {
	t.Helper()
	curve := sm2curve.New()
	d, err := sm2curve.RandScalar(curve, rand.Reader)
	require.NoError(t, err)
	x, y := curve.ScalarBaseMult(d.Bytes())
	priv := &ecdsa.PrivateKey{PublicKey: ecdsa.PublicKey{Curve: curve, X: x, Y: y}, D: d}
	return priv, &priv.PublicKey
}

func TestEncryptDecryptRoundTrip(t *testing.T) {
	priv, pub := genKeyPair(t)
	plaintext := []byte("encryption standard, a bit longer this time")

	ct, err := Encrypt(pub, plaintext, rand.Reader)
	require.NoError(t, err)

	got, err := Decrypt(priv, ct)
	require.NoError(t, err)
	assert.Equal(t, plaintext, got)
}

func TestEncryptEphemeralIndependence(t *testing.T) {
	_, pub := genKeyPair(t)
	plaintext := []byte("same message twice")

	ct1, err := Encrypt(pub, plaintext, rand.Reader)
	require.NoError(t, err)
	ct2, err := Encrypt(pub, plaintext, rand.Reader)
	require.NoError(t, err)

	assert.NotEqual(t, ct1.X, ct2.X)
	assert.NotEqual(t, ct1.Y, ct2.Y)
	assert.NotEqual(t, ct1.Hash, ct2.Hash)
	assert.NotEqual(t, ct1.Body, ct2.Body)
}

func TestDecryptTagTamperFails(t *testing.T) {
	priv, pub := genKeyPair(t)
	ct, err := Encrypt(pub, []byte("tamper the hash field"), rand.Reader)
	require.NoError(t, err)

	ct.Hash[0] ^= 0x01
	_, err = Decrypt(priv, ct)
	assert.ErrorIs(t, err, ErrDecryptionFailed)
}

func TestDecryptBodyTamperFails(t *testing.T) {
	priv, pub := genKeyPair(t)
	ct, err := Encrypt(pub, []byte("tamper the body field"), rand.Reader)
	require.NoError(t, err)

	ct.Body[0] ^= 0x01
	_, err = Decrypt(priv, ct)
	assert.ErrorIs(t, err, ErrDecryptionFailed)
}

func TestDecryptRejectsOffCurvePoint(t *testing.T) {
	priv, pub := genKeyPair(t)
	ct, err := Encrypt(pub, []byte("off curve point"), rand.Reader)
	require.NoError(t, err)

	// Corrupting x alone leaves (x, y) off the curve with overwhelming
	// probability.
	ct.X[31] ^= 0x01
	_, err = Decrypt(priv, ct)
	assert.ErrorIs(t, err, ErrNotOnCurve)
}

func TestEncryptFixedLenMatchesChecker(t *testing.T) {
	_, pub := genKeyPair(t)

	calls := 0
	alwaysTrue := func(x, y *big.Int) bool {
		calls++
		return true
	}
	ct, err := EncryptFixedLen(pub, []byte("fixed length point"), rand.Reader, alwaysTrue)
	require.NoError(t, err)
	assert.NotNil(t, ct)
	assert.Equal(t, 1, calls)
}

func TestEncryptFixedLenExhaustsRetries(t *testing.T) {
	_, pub := genKeyPair(t)

	neverMatches := func(x, y *big.Int) bool { return false }
	_, err := EncryptFixedLen(pub, []byte("never matches"), rand.Reader, neverMatches)
	assert.ErrorIs(t, err, ErrRetryExhausted)
}

// seqThenRandReader yields each byte slice in seqs in order, one Read call
// draining one slice, then falls back to crypto/rand once they're
// exhausted. It lets a test pin the exact ephemeral scalar sm2curve.RandScalar
// draws on a given iteration of encryptAttempt's retry loop.
type seqThenRandReader struct {
	seqs [][]byte
}

func (r *seqThenRandReader) Read(p []byte) (int, error) {
	if len(r.seqs) > 0 {
		n := copy(p, r.seqs[0])
		r.seqs[0] = r.seqs[0][n:]
		if len(r.seqs[0]) == 0 {
			r.seqs = r.seqs[1:]
		}
		return n, nil
	}
	return rand.Reader.Read(p)
}

// findAllZeroKDFScalar searches small scalars for one whose shared secret
// drives the KDF to an all-zero keystream of outLen bytes — the
// statistically negligible case encryptAttempt must detect and retry past.
// Keeping outLen at one byte makes the search a ~256-try coin flip rather
// than a search over SM3's full output space.
func findAllZeroKDFScalar(t *testing.T, pub *ecdsa.PublicKey, outLen int) [32]byte {
	t.Helper()
	curve := pub.Curve
	for i := int64(1); i < 200000; i++ {
		var kArr [32]byte
		big.NewInt(i).FillBytes(kArr[:])
		x2, y2 := curve.ScalarMult(pub.X, pub.Y, kArr[:])
		var seed [64]byte
		x2.FillBytes(seed[:32])
		y2.FillBytes(seed[32:])
		if secret.IsZero(kdf.Derive(outLen, seed[:])) {
			return kArr
		}
	}
	t.Fatal("no all-zero KDF scalar found in search range")
	return [32]byte{}
}

// TestEncryptRetriesOnAllZeroKDF exercises encryptAttempt's
// secret.IsZero(t) retry branch directly: it pins the first ephemeral
// scalar RandScalar draws to one that is known to drive the KDF output to
// all zero, and asserts the returned ciphertext does not carry that
// rejected point, i.e. the loop redrew k instead of returning the
// degenerate result.
func TestEncryptRetriesOnAllZeroKDF(t *testing.T) {
	priv, pub := genKeyPair(t)
	plaintext := []byte("z")

	badK := findAllZeroKDFScalar(t, pub, len(plaintext))
	reader := &seqThenRandReader{seqs: [][]byte{append([]byte(nil), badK[:]...)}}

	ct, err := Encrypt(pub, plaintext, reader)
	require.NoError(t, err)

	badX, badY := pub.Curve.ScalarBaseMult(badK[:])
	var badXArr, badYArr [32]byte
	badX.FillBytes(badXArr[:])
	badY.FillBytes(badYArr[:])
	assert.NotEqual(t, badXArr[:], ct.X[:])
	assert.NotEqual(t, badYArr[:], ct.Y[:])

	got, err := Decrypt(priv, ct)
	require.NoError(t, err)
	assert.Equal(t, plaintext, got)
}

var _ io.Reader = (*seqThenRandReader)(nil)

func TestDecryptBadPlaintextLengthFails(t *testing.T) {
	priv, pub := genKeyPair(t)
	ct, err := Encrypt(pub, []byte("x"), rand.Reader)
	require.NoError(t, err)

	ct.Body = append(ct.Body, 0xAA)
	_, err = Decrypt(priv, ct)
	assert.ErrorIs(t, err, ErrDecryptionFailed)
}
