package sm2

import (
	"math/big"

	"golang.org/x/crypto/cryptobyte"
	cbasn1 "golang.org/x/crypto/cryptobyte/asn1"

	"github.com/maximluo/GmSSL/internal/sm2core"
	"github.com/maximluo/GmSSL/internal/sm2curve"
)

// marshal encodes a Ciphertext as the DER SEQUENCE spec.md §4.1 describes:
// INTEGER x, INTEGER y, OCTET STRING hash[32], OCTET STRING body.
func marshal(ct *sm2core.Ciphertext) ([]byte, error) {
	var b cryptobyte.Builder
	b.AddASN1(cbasn1.SEQUENCE, func(b *cryptobyte.Builder) {
		b.AddASN1BigInt(new(big.Int).SetBytes(ct.X[:]))
		b.AddASN1BigInt(new(big.Int).SetBytes(ct.Y[:]))
		b.AddASN1OctetString(ct.Hash[:])
		b.AddASN1OctetString(ct.Body)
	})
	return b.Bytes()
}

// unmarshal decodes der into a Ciphertext. It rejects trailing bytes after
// the SEQUENCE, coordinate INTEGERs longer than 32 payload bytes, a hash
// OCTET STRING that isn't exactly 32 bytes, a body longer than
// MaxPlaintext, and a coordinate pair that doesn't lie on the SM2 curve.
func unmarshal(der []byte) (*sm2core.Ciphertext, error) {
	input := cryptobyte.String(der)
	var seq cryptobyte.String
	if !input.ReadASN1(&seq, cbasn1.SEQUENCE) {
		return nil, MalformedError{Reason: "not a DER SEQUENCE"}
	}
	if len(input) != 0 {
		return nil, MalformedError{Reason: "trailing bytes after SEQUENCE"}
	}

	var x, y big.Int
	if !seq.ReadASN1Integer(&x) {
		return nil, MalformedError{Reason: "invalid x INTEGER"}
	}
	if !seq.ReadASN1Integer(&y) {
		return nil, MalformedError{Reason: "invalid y INTEGER"}
	}
	if x.Sign() < 0 || y.Sign() < 0 {
		return nil, MalformedError{Reason: "negative coordinate"}
	}
	if len(x.Bytes()) > 32 || len(y.Bytes()) > 32 {
		return nil, MalformedError{Reason: "coordinate longer than 32 bytes"}
	}

	var hash, body []byte
	if !seq.ReadASN1Bytes(&hash, cbasn1.OCTET_STRING) {
		return nil, MalformedError{Reason: "invalid hash OCTET STRING"}
	}
	if len(hash) != 32 {
		return nil, MalformedError{Reason: "hash must be exactly 32 bytes"}
	}
	if !seq.ReadASN1Bytes(&body, cbasn1.OCTET_STRING) {
		return nil, MalformedError{Reason: "invalid body OCTET STRING"}
	}
	if len(body) > MaxPlaintext {
		return nil, MalformedError{Reason: "body exceeds MaxPlaintext"}
	}
	if len(seq) != 0 {
		return nil, MalformedError{Reason: "trailing bytes inside SEQUENCE"}
	}

	curve := sm2curve.New()
	if !curve.IsOnCurve(&x, &y) {
		return nil, MalformedError{Reason: "point not on curve"}
	}

	ct := &sm2core.Ciphertext{Body: append([]byte(nil), body...)}
	x.FillBytes(ct.X[:])
	y.FillBytes(ct.Y[:])
	copy(ct.Hash[:], hash)
	return ct, nil
}

// intDERLen returns the DER INTEGER content length for an unsigned n
// already known to fit in 32 bytes: the coordinate's byte length, plus one
// extra byte if the leading byte's top bit would otherwise flip the
// INTEGER negative and needs a 0x00 sign byte prepended.
func intDERLen(n *big.Int) int {
	if n.Sign() == 0 {
		return 1
	}
	nBytes := n.Bytes()
	if nBytes[0]&0x80 != 0 {
		return len(nBytes) + 1
	}
	return len(nBytes)
}

// pointDERLen returns the combined DER-encoded length of the
// (INTEGER x, INTEGER y) pair, the quantity C4's fixed point-size retry
// matches against. Both coordinates fit comfortably under the 128-byte
// short-form length threshold, so each INTEGER's length prefix is always
// exactly one byte.
func pointDERLen(x, y *big.Int) int {
	return 2 + intDERLen(x) + 2 + intDERLen(y)
}

// pointSizeChecker adapts pointDERLen into the sm2core.PointSizeChecker
// callback EncryptFixedLen uses, without sm2core needing to know about
// DER at all.
func pointSizeChecker(size PointSize) sm2core.PointSizeChecker {
	return func(x, y *big.Int) bool {
		return pointDERLen(x, y) == int(size)
	}
}
