package session

import (
	"context"
	"log/slog"

	"github.com/atotto/clipboard"
	"github.com/dannyboland/loql/internal/ingest"
	"github.com/dannyboland/loql/internal/loader"
	"github.com/dannyboland/loql/internal/objstore"
)

// Replaced in tests.
var (
	readClipboard      = clipboard.ReadAll
	clipboardSupported = func() bool { return !clipboard.Unsupported }
)

// ingestCodecs are the readers generic ingestion needs.
var ingestCodecs = []ingest.Codec{
	ingest.CodecParquet,
	ingest.CodecJSON,
	ingest.CodecJSONLines,
	ingest.CodecXLSX,
	ingest.CodecXLS,
}

// Probe determines the optional features available to this process. The
// object store client is returned when it could be configured.
func Probe(ctx context.Context, opts Options, logger *slog.Logger) (loader.Capabilities, objstore.Store) {
	caps := loader.Capabilities{
		Ingest:    ingest.Supports(ingestCodecs...),
		Clipboard: clipboardSupported(),
	}

	var store objstore.Store
	if objstore.Available() {
		s, err := objstore.New(ctx, opts.ObjectStore, logger)
		if err != nil {
			logger.Warn("object storage unavailable", "error", err)
		} else {
			store = s
			caps.ObjectStore = true
		}
	}
	return caps, store
}
