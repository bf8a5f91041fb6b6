// Package query executes user statements against the session connection and
// describes what happened as an Outcome.
package query

import (
	"context"
	"errors"
)

// Kind tags the variant held by an Outcome.
type Kind string

const (
	// KindRows carries a result set.
	KindRows Kind = "rows"
	// KindEmpty means the statement produced no result set.
	KindEmpty Kind = "empty"
	// KindError carries a classified failure message.
	KindError Kind = "error"
	// KindExported means a result set was written to disk.
	KindExported Kind = "exported"
)

// Failure classifies an error outcome.
type Failure string

const (
	FailureNone       Failure = ""
	LoadFailure       Failure = "load_failure"
	MissingDependency Failure = "missing_dependency"
	UnsupportedFormat Failure = "unsupported_format"
	QueryFailure      Failure = "query_failure"
	ExportFailure     Failure = "export_failure"
)

// Outcome is the tagged result of one request.
type Outcome struct {
	Kind Kind `json:"kind"`

	// Rows
	Columns   []string `json:"columns,omitempty"`
	Rows      [][]any  `json:"rows,omitempty"`
	Truncated bool     `json:"truncated,omitempty"`

	// Error
	Message string  `json:"message,omitempty"`
	Failure Failure `json:"failure,omitempty"`

	// Exported
	Path     string `json:"path,omitempty"`
	RowCount int    `json:"row_count,omitempty"`
}

// Rows builds a result-set outcome. A nil rows slice is normalized to empty.
func Rows(columns []string, rows [][]any, truncated bool) Outcome {
	if rows == nil {
		rows = [][]any{}
	}
	return Outcome{Kind: KindRows, Columns: columns, Rows: rows, Truncated: truncated}
}

// Empty builds a no-result outcome.
func Empty() Outcome {
	return Outcome{Kind: KindEmpty}
}

// Error builds a failure outcome with an explicit classification.
func Error(failure Failure, message string) Outcome {
	return Outcome{Kind: KindError, Failure: failure, Message: message}
}

// Exported builds an export success outcome.
func Exported(path string, rowCount int) Outcome {
	return Outcome{Kind: KindExported, Path: path, RowCount: rowCount}
}

// IsError reports whether the outcome is a failure.
func (o Outcome) IsError() bool {
	return o.Kind == KindError
}

// Classified is implemented by errors that know their own failure class.
type Classified interface {
	error
	Failure() Failure
}

// FromError converts an error into an error outcome. Errors that implement
// Classified keep their class; everything else is a QueryFailure. The
// message is err.Error() unmodified.
func FromError(err error) Outcome {
	var c Classified
	if errors.As(err, &c) {
		return Error(c.Failure(), err.Error())
	}
	if errors.Is(err, context.Canceled) {
		return Error(QueryFailure, "query cancelled")
	}
	return Error(QueryFailure, err.Error())
}
