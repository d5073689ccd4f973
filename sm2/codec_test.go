package sm2

import (
	"crypto/ecdsa"
	"crypto/rand"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/cryptobyte"
	cbasn1 "golang.org/x/crypto/cryptobyte/asn1"

	"github.com/maximluo/GmSSL/internal/sm2core"
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

func sampleCiphertext(t *testing.T) *sm2core.Ciphertext {
	t.Helper()
	_, pub := genKeyPair(t)
	ct, err := sm2core.Encrypt(pub, []byte("der round trip payload"), rand.Reader)
	require.NoError(t, err)
	return ct
}

func TestMarshalUnmarshalRoundTrip(t *testing.T) {
	ct := sampleCiphertext(t)
	der, err := marshal(ct)
	require.NoError(t, err)

	got, err := unmarshal(der)
	require.NoError(t, err)
	assert.Equal(t, ct.X, got.X)
	assert.Equal(t, ct.Y, got.Y)
	assert.Equal(t, ct.Hash, got.Hash)
	assert.Equal(t, ct.Body, got.Body)
}

func TestUnmarshalRejectsTrailingBytes(t *testing.T) {
	ct := sampleCiphertext(t)
	der, err := marshal(ct)
	require.NoError(t, err)

	_, err = unmarshal(append(der, 0x00))
	assert.Error(t, err)
	var merr MalformedError
	assert.ErrorAs(t, err, &merr)
}

func TestUnmarshalRejectsOffCurvePoint(t *testing.T) {
	ct := sampleCiphertext(t)
	ct.X[31] ^= 0x01

	der, err := marshal(ct)
	require.NoError(t, err)

	_, err = unmarshal(der)
	assert.Error(t, err)
}

func TestUnmarshalRejectsWrongHashLength(t *testing.T) {
	ct := sampleCiphertext(t)

	var b cryptobyte.Builder
	b.AddASN1(cbasn1.SEQUENCE, func(b *cryptobyte.Builder) {
		b.AddASN1BigInt(new(big.Int).SetBytes(ct.X[:]))
		b.AddASN1BigInt(new(big.Int).SetBytes(ct.Y[:]))
		b.AddASN1OctetString(ct.Hash[:31]) // one byte short
		b.AddASN1OctetString(ct.Body)
	})
	der, err := b.Bytes()
	require.NoError(t, err)

	_, err = unmarshal(der)
	assert.Error(t, err)
}

func TestIntDERLen(t *testing.T) {
	assert.Equal(t, 1, intDERLen(big.NewInt(0)))
	assert.Equal(t, 1, intDERLen(big.NewInt(1)))
	assert.Equal(t, 1, intDERLen(big.NewInt(0x7f)))

	// 0x80 alone needs a sign byte: 2 content bytes.
	assert.Equal(t, 2, intDERLen(big.NewInt(0x80)))

	// A 32-byte coordinate whose top bit is set needs 33 content bytes.
	highBit := new(big.Int).Lsh(big.NewInt(1), 255)
	assert.Equal(t, 33, intDERLen(highBit))

	// A 32-byte coordinate whose top bit is clear needs exactly 32.
	noHighBit := new(big.Int).Sub(highBit, big.NewInt(1))
	assert.Equal(t, 32, intDERLen(noHighBit))
}

func TestPointSizeChecker(t *testing.T) {
	// Two coordinates with clear top bits: compact (68 bytes).
	low := new(big.Int).Lsh(big.NewInt(1), 254)
	assert.True(t, pointSizeChecker(PointSizeCompact)(low, low))
	assert.False(t, pointSizeChecker(PointSizeTypical)(low, low))

	// Two coordinates with set top bits: max (70 bytes).
	high := new(big.Int).Lsh(big.NewInt(1), 255)
	assert.True(t, pointSizeChecker(PointSizeMax)(high, high))

	// One of each: typical (69 bytes).
	assert.True(t, pointSizeChecker(PointSizeTypical)(low, high))
	assert.True(t, pointSizeChecker(PointSizeTypical)(high, low))
}
