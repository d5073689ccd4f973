package keypair

import "fmt"

// Error is implemented by every error this package returns, the same
// Kind()-marker shape the sm2 package gives its own error family, so a
// caller can switch on Kind() instead of a type switch across key-container
// failures.
type Error interface {
	error
	Kind() string
}

// EmptyPublicKeyError reports that ParsePublicKey or FormatPublicKey was
// asked to operate on a zero-length key.
type EmptyPublicKeyError struct{}

func (e EmptyPublicKeyError) Error() string { return "public key cannot be empty" }
func (e EmptyPublicKeyError) Kind() string  { return "empty_public_key" }

// EmptyPrivateKeyError reports that ParsePrivateKey or FormatPrivateKey was
// asked to operate on a zero-length key.
type EmptyPrivateKeyError struct{}

func (e EmptyPrivateKeyError) Error() string { return "private key cannot be empty" }
func (e EmptyPrivateKeyError) Kind() string  { return "empty_private_key" }

// InvalidPublicKeyError wraps a PEM, base64, or SPKI decode failure for a
// public key.
type InvalidPublicKeyError struct {
	Err error
}

func (e InvalidPublicKeyError) Error() string {
	if e.Err == nil {
		return "invalid public key"
	}
	return fmt.Sprintf("invalid public key: %v", e.Err)
}
func (e InvalidPublicKeyError) Kind() string  { return "invalid_public_key" }
func (e InvalidPublicKeyError) Unwrap() error { return e.Err }

// InvalidPrivateKeyError wraps a PEM, base64, or PKCS#8 decode failure for a
// private key.
type InvalidPrivateKeyError struct {
	Err error
}

func (e InvalidPrivateKeyError) Error() string {
	if e.Err == nil {
		return "invalid private key"
	}
	return fmt.Sprintf(" invalid private key: %v", e.Err)
}
func (e InvalidPrivateKeyError) Kind() string  { return "invalid_private_key" }
func (e InvalidPrivateKeyError) Unwrap() error { return e.Err }

// UnsupportedPemTypeError reports a PEM block whose Type isn't the one
// ParsePublicKey/ParsePrivateKey expect ("PUBLIC KEY" / "PRIVATE KEY"),
// returned by keypair/sm2.go when the block decodes but names a different
// container.
type UnsupportedPemTypeError struct{}

func (e UnsupportedPemTypeError) Error() string { return "unsupported pem block type" }
func (e UnsupportedPemTypeError) Kind() string  { return "unsupported_pem_type" }
