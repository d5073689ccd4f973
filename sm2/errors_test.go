package sm2

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBadArgumentError(t *testing.T) {
	err := BadArgumentError{Reason: "empty plaintext"}
	assert.Contains(t, err.Error(), "empty plaintext")
	assert.Equal(t, "bad_argument", err.Kind())
	var asErr error = err
	var typed Error
	assert.True(t, errors.As(asErr, &typed))
}

func TestMalformedError(t *testing.T) {
	err := MalformedError{Reason: "not a DER SEQUENCE"}
	assert.Contains(t, err.Error(), "not a DER SEQUENCE")
	assert.Equal(t, "malformed", err.Kind())
}

func TestDecryptionFailedErrorIsDetailFree(t *testing.T) {
	err := DecryptionFailedError{}
	assert.Equal(t, "sm2: decryption failed", err.Error())
	assert.Equal(t, "decryption_failed", err.Kind())
}

func TestRandomnessFailureErrorUnwraps(t *testing.T) {
	inner := errors.New("rng exhausted")
	err := RandomnessFailureError{Err: inner}
	assert.Contains(t, err.Error(), "rng exhausted")
	assert.Equal(t, "randomness_failure", err.Kind())
	assert.ErrorIs(t, err, inner)
	assert.Same(t, inner, errors.Unwrap(err))
}

func TestRetryExhaustedError(t *testing.T) {
	err := RetryExhaustedError{Attempts: 200}
	assert.Contains(t, err.Error(), "200")
	assert.Equal(t, "retry_exhausted", err.Kind())
}

func TestErrorFamilyImplementsErrorInterface(t *testing.T) {
	var errs = []Error{
		BadArgumentError{Reason: "x"},
		MalformedError{Reason: "x"},
		DecryptionFailedError{},
		RandomnessFailureError{Err: errors.New("x")},
		RetryExhaustedError{Attempts: 1},
	}
	for _, e := range errs {
		assert.NotEmpty(t, e.Error())
		assert.NotEmpty(t, e.Kind())
	}
}
