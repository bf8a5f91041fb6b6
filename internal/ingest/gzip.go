package ingest

import (
	"fmt"
	"io"

	"github.com/klauspost/compress/gzip"
)

// Gunzip wraps r in a gzip decompressor.
func Gunzip(r io.Reader) (io.ReadCloser, error) {
	zr, err := gzip.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open gzip stream: %w", err)
	}
	return zr, nil
}
