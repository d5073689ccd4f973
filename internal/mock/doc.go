// Package mock provides always-failing io.Reader/io.Writer/io.Closer
// doubles used by this repo's own tests to exercise I/O failure paths.
package mock
