// Package keypair manages SM2 key pairs: generation, and PEM/DER parsing and
// formatting. Private keys are encoded as PKCS#8, public keys as SPKI/PKIX,
// the same container shape dongle's crypto/keypair uses for every
// asymmetric scheme it supports.
package keypair
