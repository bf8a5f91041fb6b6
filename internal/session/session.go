// Package session owns the embedded database for the lifetime of the process
// and runs every operation against it on a single background worker.
//
// Callers submit requests and receive a channel that yields exactly one
// Response. Submitting a request of the same class as one still queued or
// running cancels the earlier one, which then yields a Cancelled response.
// Two implementations exist: Session runs the worker in-process, Remote
// forwards requests to a child process running Serve.
package session

import (
	"context"
	"fmt"

	"github.com/dannyboland/loql/internal/catalog"
	"github.com/dannyboland/loql/internal/loader"
	"github.com/dannyboland/loql/internal/objstore"
	"github.com/dannyboland/loql/internal/query"
)

// ClipboardView is the view name used for clipboard contents.
const ClipboardView = "clipboard"

// Options configure a session.
type Options struct {
	Clipboard   bool              `json:"clipboard"`
	RowLimit    int               `json:"row_limit"`
	ResultsPath string            `json:"results_path"`
	Settings    map[string]string `json:"settings,omitempty"`
	Extensions  []string          `json:"extensions,omitempty"`
	ObjectStore objstore.Config   `json:"object_store"`
}

// Class groups requests for latest-wins cancellation.
type Class string

const (
	ClassQuery    Class = "query"
	ClassOpen     Class = "open"
	ClassDescribe Class = "describe"
	ClassCatalog  Class = "catalog"
)

// Request is one unit of work for the session worker.
type Request interface {
	Class() Class
}

// OpenRequest registers a file as a view.
type OpenRequest struct {
	Path string
}

// QueryRequest executes a statement. Save writes the full result to the
// results file instead of returning rows.
type QueryRequest struct {
	Text string
	Save bool
}

// DescribeRequest fetches the columns of a view.
type DescribeRequest struct {
	View string
}

// CatalogRequest only refreshes the catalog.
type CatalogRequest struct{}

func (OpenRequest) Class() Class     { return ClassOpen }
func (QueryRequest) Class() Class    { return ClassQuery }
func (DescribeRequest) Class() Class { return ClassDescribe }
func (CatalogRequest) Class() Class  { return ClassCatalog }

// Response is delivered once per request.
type Response struct {
	ID        string           `json:"id"`
	Outcome   query.Outcome    `json:"outcome"`
	ViewName  string           `json:"view_name,omitempty"`
	Columns   []catalog.Column `json:"columns,omitempty"`
	Catalog   catalog.Snapshot `json:"catalog"`
	Cancelled bool             `json:"cancelled,omitempty"`
}

// Controller is implemented by Session and Remote.
type Controller interface {
	// Submit enqueues req and returns immediately.
	Submit(ctx context.Context, req Request) <-chan Response
	// Do submits req and waits for its response.
	Do(ctx context.Context, req Request) (Response, error)
	// CancelAll cancels every queued or running request.
	CancelAll()
	// Capabilities reports the optional features available to the session.
	Capabilities() loader.Capabilities
	// Close stops the worker and releases the database. It is idempotent.
	Close() error
}

// FatalError is returned when the session cannot be created at all.
type FatalError struct {
	Err error
}

func (e *FatalError) Error() string {
	return fmt.Sprintf("failed to start session: %v", e.Err)
}

func (e *FatalError) Unwrap() error { return e.Err }

// await is the shared implementation of Do.
func await(ctx context.Context, ch <-chan Response) (Response, error) {
	select {
	case resp := <-ch:
		return resp, nil
	case <-ctx.Done():
		return Response{Cancelled: true}, ctx.Err()
	}
}

func cancelled(id string) Response {
	return Response{ID: id, Cancelled: true}
}
