package loader

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/dannyboland/loql/internal/adapter"
	"github.com/dannyboland/loql/internal/ingest"
	"github.com/dannyboland/loql/internal/objstore"
)

// Capabilities records which optional features this process can use.
type Capabilities struct {
	Ingest      bool `json:"ingest"`
	ObjectStore bool `json:"object_store"`
	Clipboard   bool `json:"clipboard"`
}

// Loader registers files as views on the session connection.
type Loader struct {
	db     ingest.Engine
	caps   Capabilities
	store  objstore.Store
	logger *slog.Logger
}

// New creates a loader. store may be nil when object storage is unavailable.
func New(db ingest.Engine, caps Capabilities, store objstore.Store, logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Loader{db: db, caps: caps, store: store, logger: logger}
}

// Capabilities returns the capability set the loader consults.
func (l *Loader) Capabilities() Capabilities {
	return l.caps
}

// Load registers path as a view and returns the view name. Loading the same
// path again replaces the view. Errors are *UnsupportedFormatError,
// *MissingDependencyError or *LoadError.
func (l *Loader) Load(ctx context.Context, path string) (string, error) {
	src := Classify(path)
	l.logger.Debug("loading file", "path", path, "format", src.Format.String(), "view", src.View)

	var err error
	switch src.Format {
	case FormatCSV:
		err = l.nativeView(ctx, src, "read_csv_auto")
	case FormatParquet:
		if src.Remote || src.Gzip {
			err = l.ingest(ctx, src, ingest.CodecParquet)
		} else {
			err = l.nativeView(ctx, src, "read_parquet")
		}
	case FormatJSON:
		err = l.ingest(ctx, src, ingest.CodecJSON)
	case FormatJSONLines:
		err = l.ingest(ctx, src, ingest.CodecJSONLines)
	case FormatExcel:
		err = l.ingest(ctx, src, ingest.CodecXLSX)
	case FormatLegacyExcel:
		err = l.ingest(ctx, src, ingest.CodecXLS)
	case FormatUnknown:
		return "", &UnsupportedFormatError{Path: path}
	default:
		return "", &UnsupportedFormatError{Path: path}
	}

	if err != nil {
		var missing *MissingDependencyError
		if errors.As(err, &missing) {
			return "", missing
		}
		return "", &LoadError{Path: path, Err: err}
	}
	return src.View, nil
}

// LoadText registers delimited text (e.g. clipboard contents) as view name.
func (l *Loader) LoadText(ctx context.Context, name, text string) error {
	frame, err := ingest.Read(ctx, ingest.CodecDelimited, strings.NewReader(text))
	if err != nil {
		return &LoadError{Path: name, Err: err}
	}
	if err := ingest.Register(ctx, l.db, name, frame); err != nil {
		return &LoadError{Path: name, Err: err}
	}
	return nil
}

// nativeView creates a view over one of DuckDB's file readers.
func (l *Loader) nativeView(ctx context.Context, src Source, reader string) error {
	p, err := filepath.Abs(src.Path)
	if err != nil {
		return err
	}
	stmt := fmt.Sprintf("CREATE OR REPLACE VIEW %s AS SELECT * FROM %s(%s)",
		adapter.QuoteIdent(src.View), reader, adapter.QuoteLiteral(p))
	return l.db.Exec(ctx, stmt)
}

// ingest decodes the file in Go and registers the resulting frame.
func (l *Loader) ingest(ctx context.Context, src Source, codec ingest.Codec) error {
	if !l.caps.Ingest {
		return &MissingDependencyError{Path: src.Path, Need: codec.String()}
	}
	if src.Remote && (!l.caps.ObjectStore || l.store == nil) {
		return &MissingDependencyError{Path: src.Path, Need: "object storage"}
	}

	rc, err := l.open(ctx, src)
	if err != nil {
		return err
	}
	defer func() { _ = rc.Close() }()

	var r io.Reader = rc
	if src.Gzip {
		zr, err := ingest.Gunzip(rc)
		if err != nil {
			return err
		}
		defer func() { _ = zr.Close() }()
		r = zr
	}

	frame, err := ingest.Read(ctx, codec, r)
	if err != nil {
		var unavailable *ingest.UnavailableError
		if errors.As(err, &unavailable) {
			return &MissingDependencyError{Path: src.Path, Need: codec.String()}
		}
		return err
	}
	l.logger.Debug("ingested frame", "view", src.View, "columns", len(frame.Columns), "rows", len(frame.Rows))
	return ingest.Register(ctx, l.db, src.View, frame)
}

func (l *Loader) open(ctx context.Context, src Source) (io.ReadCloser, error) {
	if src.Remote {
		return l.store.Open(ctx, src.Path)
	}
	return os.Open(src.Path) //nolint:gosec // path is chosen by the user
}
