// Package loader registers data files as views in the session.
//
// Classify maps a path to a Format without touching the file system. Load
// dispatches on that Format: CSV and local parquet become views over DuckDB's
// own readers, everything else goes through generic ingestion.
package loader

import (
	"path"
	"path/filepath"
	"strings"

	"github.com/dannyboland/loql/internal/objstore"
)

// Format is the recognized file format of a path.
type Format int

const (
	FormatUnknown Format = iota
	FormatCSV
	FormatParquet
	FormatJSON
	FormatJSONLines
	FormatExcel
	FormatLegacyExcel
)

func (f Format) String() string {
	switch f {
	case FormatCSV:
		return "csv"
	case FormatParquet:
		return "parquet"
	case FormatJSON:
		return "json"
	case FormatJSONLines:
		return "jsonl"
	case FormatExcel:
		return "xlsx"
	case FormatLegacyExcel:
		return "xls"
	default:
		return "unknown"
	}
}

// LocalExtensions lists the suffixes recognized for local files.
var LocalExtensions = []string{".csv", ".parquet", ".json", ".jsonl", ".xls", ".xlsx", ".gz"}

// RemoteExtensions lists the suffixes recognized for object storage.
var RemoteExtensions = []string{".parquet", ".gz"}

// Source is a classified path.
type Source struct {
	Path   string
	View   string
	Format Format
	Remote bool
	Gzip   bool
}

// Classify determines the format and view name for path.
// The view name is the lower-cased file stem; for .parquet.gz the
// .parquet suffix is dropped as well.
func Classify(p string) Source {
	src := Source{Path: p, Remote: objstore.IsRemote(p)}

	base := filepath.Base(p)
	if src.Remote {
		base = path.Base(p)
	}
	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)

	switch strings.ToLower(ext) {
	case ".csv":
		src.Format = FormatCSV
	case ".parquet":
		src.Format = FormatParquet
	case ".json":
		src.Format = FormatJSON
	case ".jsonl":
		src.Format = FormatJSONLines
	case ".xlsx":
		src.Format = FormatExcel
	case ".xls":
		src.Format = FormatLegacyExcel
	case ".gz":
		inner := filepath.Ext(stem)
		if strings.EqualFold(inner, ".parquet") {
			src.Format = FormatParquet
			src.Gzip = true
			stem = strings.TrimSuffix(stem, inner)
		}
	}

	if src.Remote && src.Format != FormatParquet {
		src.Format = FormatUnknown
	}
	src.View = strings.ToLower(stem)
	return src
}

// Recognized reports whether a browser should offer path for loading.
func Recognized(p string) bool {
	return Classify(p).Format != FormatUnknown
}
