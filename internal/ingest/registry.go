package ingest

import (
	"context"
	"fmt"
	"io"
	"sort"
	"sync"
)

// Codec identifies a reader implementation.
type Codec int

const (
	CodecParquet Codec = iota + 1
	CodecJSON
	CodecJSONLines
	CodecXLSX
	CodecXLS
	CodecDelimited
)

func (c Codec) String() string {
	switch c {
	case CodecParquet:
		return "parquet"
	case CodecJSON:
		return "json"
	case CodecJSONLines:
		return "jsonl"
	case CodecXLSX:
		return "xlsx"
	case CodecXLS:
		return "xls"
	case CodecDelimited:
		return "delimited"
	default:
		return fmt.Sprintf("codec(%d)", int(c))
	}
}

// ReadFunc decodes a whole input into a Frame.
type ReadFunc func(ctx context.Context, r io.Reader) (*Frame, error)

var (
	registryMu sync.RWMutex
	registry   = make(map[Codec]ReadFunc)
)

// RegisterReader adds a reader to the registry.
// Called by reader implementations in their init() functions.
func RegisterReader(c Codec, fn ReadFunc) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[c] = fn
}

// Get retrieves the reader for a codec.
func Get(c Codec) (ReadFunc, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	fn, ok := registry[c]
	return fn, ok
}

// Available returns the registered codecs in a stable order.
func Available() []Codec {
	registryMu.RLock()
	defer registryMu.RUnlock()
	codecs := make([]Codec, 0, len(registry))
	for c := range registry {
		codecs = append(codecs, c)
	}
	sort.Slice(codecs, func(i, j int) bool { return codecs[i] < codecs[j] })
	return codecs
}

// Supports reports whether every given codec has a reader.
func Supports(codecs ...Codec) bool {
	registryMu.RLock()
	defer registryMu.RUnlock()
	for _, c := range codecs {
		if _, ok := registry[c]; !ok {
			return false
		}
	}
	return true
}

// Read decodes r with the registered reader for c.
func Read(ctx context.Context, c Codec, r io.Reader) (*Frame, error) {
	fn, ok := Get(c)
	if !ok {
		return nil, &UnavailableError{Codec: c}
	}
	frame, err := fn(ctx, r)
	if err != nil {
		return nil, err
	}
	if err := frame.Validate(); err != nil {
		return nil, err
	}
	return frame, nil
}

// UnavailableError is returned when a codec was compiled out of this build.
type UnavailableError struct {
	Codec Codec
}

func (e *UnavailableError) Error() string {
	return fmt.Sprintf("%s support is not included in this build", e.Codec)
}
