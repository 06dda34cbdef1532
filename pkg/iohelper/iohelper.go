// Package iohelper bounds and drains HTTP response bodies.
package iohelper

import "io"

// DefaultMaxBodySize caps response reads at 1MB. InternetDB answers for a
// single address are a few kilobytes, so anything near the cap is garbage.
const DefaultMaxBodySize int64 = 1024 * 1024

// ReadBody reads from r up to maxSize bytes. A nil reader yields an empty
// slice, not an error.
func ReadBody(r io.Reader, maxSize int64) ([]byte, error) {
	if r == nil {
		return []byte{}, nil
	}
	return io.ReadAll(io.LimitReader(r, maxSize))
}

// DrainAndClose consumes whatever is left in r and closes it if it is a
// ReadCloser, keeping the underlying connection reusable for keep-alive.
// Always returns nil so it can sit in a defer.
func DrainAndClose(r io.Reader) error {
	if r == nil {
		return nil
	}

	// Drain limited to 64KB
	_, _ = io.Copy(io.Discard, io.LimitReader(r, 64*1024))

	if rc, ok := r.(io.ReadCloser); ok {
		rc.Close()
	}
	return nil
}
