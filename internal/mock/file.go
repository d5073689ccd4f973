// Package mock provides I/O test doubles for this repo's own tests: readers
// and writers that always fail, used to exercise the RandomnessFailure path
// in sm2.Encrypt and the source/sink failure paths in the streaming
// StreamEncrypter/StreamDecrypter wrappers without a flaky custom RNG or
// file-backed fixture.
package mock

import "io"

// ErrorReadWriteCloser always returns Err from Read, Write, and Close. It
// stands in for a failing entropy source in RandomnessFailure tests and for
// a failing source/sink in streaming I/O failure tests: one type covers
// both roles since a failing io.Reader and a failing io.Writer never need
// to behave differently from each other's point of view.
type ErrorReadWriteCloser struct {
	Err error
}

// NewErrorReadWriteCloser returns a ErrorReadWriteCloser that fails every
// operation with err.
func NewErrorReadWriteCloser(err error) *ErrorReadWriteCloser {
	return &ErrorReadWriteCloser{Err: err}
}

func (e *ErrorReadWriteCloser) Read(p []byte) (int, error)  { return 0, e.Err }
func (e *ErrorReadWriteCloser) Write(p []byte) (int, error) { return 0, e.Err }
func (e *ErrorReadWriteCloser) Close() error                { return e.Err }

var _ io.ReadWriteCloser = (*ErrorReadWriteCloser)(nil)

// ErrorWriteCloser always returns Err from Write and Close. Used where a
// test needs an io.WriteCloser sink specifically, rather than the combined
// ErrorReadWriteCloser.
type ErrorWriteCloser struct {
	Err error
}

// NewErrorWriteCloser returns an ErrorWriteCloser that fails every
// operation with err.
func NewErrorWriteCloser(err error) *ErrorWriteCloser {
	return &ErrorWriteCloser{Err: err}
}

func (w *ErrorWriteCloser) Write(p []byte) (int, error) { return 0, w.Err }
func (w *ErrorWriteCloser) Close() error                { return w.Err }

var _ io.WriteCloser = (*ErrorWriteCloser)(nil)
