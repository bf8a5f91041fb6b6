package session

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/dannyboland/loql/internal/adapter"
	"github.com/dannyboland/loql/internal/catalog"
	"github.com/dannyboland/loql/internal/export"
	"github.com/dannyboland/loql/internal/loader"
	"github.com/dannyboland/loql/internal/query"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// job is a submitted request and the means to answer or cancel it.
type job struct {
	id     string
	req    Request
	ctx    context.Context
	cancel context.CancelFunc
	reply  chan Response
	once   sync.Once
}

func (j *job) deliver(resp Response) {
	j.once.Do(func() {
		resp.ID = j.id
		j.reply <- resp
		j.cancel()
	})
}

// Session is the in-process controller. It owns the DuckDB connection.
type Session struct {
	db      *adapter.DuckDB
	exec    *query.Executor
	loader  *loader.Loader
	caps    loader.Capabilities
	results string
	logger  *slog.Logger

	// gate, when set, is waited on before each job reaches the database.
	gate func(ctx context.Context) error

	group  *errgroup.Group
	stop   context.CancelFunc
	notify chan struct{}

	mu      sync.Mutex
	queue   []*job
	active  map[Class]*job
	pending map[*job]struct{}
	closed  bool
	clipErr error
	last    catalog.Snapshot

	closeOnce sync.Once
	closeErr  error
}

var _ Controller = (*Session)(nil)

// Open creates the in-memory database, probes capabilities, optionally loads
// the clipboard and starts the worker. Only a database failure is fatal.
func Open(ctx context.Context, opts Options, logger *slog.Logger) (*Session, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	db := adapter.NewDuckDB(logger)
	err := db.Connect(ctx, adapter.Config{
		Extensions: opts.Extensions,
		Settings:   opts.Settings,
	})
	if err != nil {
		return nil, &FatalError{Err: err}
	}
	if err := catalog.Setup(ctx, db); err != nil {
		_ = db.Close()
		return nil, &FatalError{Err: err}
	}

	caps, store := Probe(ctx, opts, logger)
	logger.Info("session opened", "ingest", caps.Ingest, "object_store", caps.ObjectStore, "clipboard", caps.Clipboard)

	results := opts.ResultsPath
	if results == "" {
		results = export.DefaultPath
	}

	s := &Session{
		db:      db,
		exec:    query.NewExecutor(db, opts.RowLimit, logger),
		loader:  loader.New(db, caps, store, logger),
		caps:    caps,
		results: results,
		logger:  logger,
		notify:  make(chan struct{}, 1),
		active:  make(map[Class]*job),
		pending: make(map[*job]struct{}),
	}

	if opts.Clipboard {
		s.clipErr = s.loadClipboard(ctx)
		if s.clipErr != nil {
			logger.Warn("clipboard not loaded", "error", s.clipErr)
		}
	}

	wctx, stop := context.WithCancel(context.Background())
	group, gctx := errgroup.WithContext(wctx)
	s.stop = stop
	s.group = group
	group.Go(func() error { return s.run(gctx) })

	return s, nil
}

func (s *Session) loadClipboard(ctx context.Context) error {
	if !s.caps.Clipboard {
		return &loader.MissingDependencyError{Path: ClipboardView, Need: "clipboard"}
	}
	text, err := readClipboard()
	if err != nil {
		return &loader.LoadError{Path: ClipboardView, Err: err}
	}
	return s.loader.LoadText(ctx, ClipboardView, text)
}

// Capabilities implements Controller.
func (s *Session) Capabilities() loader.Capabilities {
	return s.caps
}

// Submit implements Controller.
func (s *Session) Submit(ctx context.Context, req Request) <-chan Response {
	jctx, cancel := context.WithCancel(ctx)
	j := &job{
		id:     uuid.NewString(),
		req:    req,
		ctx:    jctx,
		cancel: cancel,
		reply:  make(chan Response, 1),
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		j.deliver(cancelled(j.id))
		return j.reply
	}
	if prev, ok := s.active[req.Class()]; ok {
		s.logger.Debug("superseding request", "id", prev.id, "class", string(req.Class()))
		prev.cancel()
	}
	s.active[req.Class()] = j
	s.pending[j] = struct{}{}
	s.queue = append(s.queue, j)
	s.mu.Unlock()

	s.logger.Debug("request queued", "id", j.id, "class", string(req.Class()))
	select {
	case s.notify <- struct{}{}:
	default:
	}
	return j.reply
}

// Do implements Controller.
func (s *Session) Do(ctx context.Context, req Request) (Response, error) {
	return await(ctx, s.Submit(ctx, req))
}

// CancelAll implements Controller.
func (s *Session) CancelAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for j := range s.pending {
		j.cancel()
	}
}

// Close implements Controller.
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		s.mu.Lock()
		s.closed = true
		for j := range s.pending {
			j.cancel()
		}
		s.mu.Unlock()

		s.stop()
		err := s.group.Wait()

		s.mu.Lock()
		queued := s.queue
		s.queue = nil
		s.mu.Unlock()
		for _, j := range queued {
			s.finish(j, cancelled(j.id))
		}

		s.closeErr = errors.Join(err, s.db.Close())
		s.logger.Info("session closed")
	})
	return s.closeErr
}

// run is the worker loop. Jobs are processed strictly in submission order.
func (s *Session) run(ctx context.Context) error {
	for {
		j, ok := s.next(ctx)
		if !ok {
			return nil
		}
		s.process(j)
	}
}

func (s *Session) next(ctx context.Context) (*job, bool) {
	for {
		s.mu.Lock()
		if len(s.queue) > 0 {
			j := s.queue[0]
			s.queue = s.queue[1:]
			s.mu.Unlock()
			return j, true
		}
		s.mu.Unlock()

		select {
		case <-ctx.Done():
			return nil, false
		case <-s.notify:
		}
	}
}

func (s *Session) process(j *job) {
	log := s.logger.With("id", j.id, "class", string(j.req.Class()))

	if j.ctx.Err() != nil {
		log.Debug("request cancelled before dispatch")
		s.finish(j, cancelled(j.id))
		return
	}
	if s.gate != nil {
		if err := s.gate(j.ctx); err != nil {
			log.Debug("request cancelled before dispatch")
			s.finish(j, cancelled(j.id))
			return
		}
	}
	resp := s.handle(j.ctx, j.req)

	if j.ctx.Err() != nil {
		log.Debug("request cancelled while running; result discarded")
		s.finish(j, cancelled(j.id))
		return
	}
	if _, ok := j.req.(QueryRequest); ok {
		// The clipboard failure has now reached the caller.
		s.mu.Lock()
		s.clipErr = nil
		s.mu.Unlock()
	}
	if resp.Outcome.IsError() {
		log.Debug("request failed", "failure", string(resp.Outcome.Failure), "message", resp.Outcome.Message)
	}
	s.finish(j, resp)
}

func (s *Session) finish(j *job, resp Response) {
	s.mu.Lock()
	delete(s.pending, j)
	if s.active[j.req.Class()] == j {
		delete(s.active, j.req.Class())
	}
	s.mu.Unlock()
	j.deliver(resp)
}

// handle performs one request and attaches the catalog as it stands afterwards.
func (s *Session) handle(ctx context.Context, req Request) Response {
	var resp Response

	switch r := req.(type) {
	case OpenRequest:
		name, err := s.loader.Load(ctx, r.Path)
		if err != nil {
			resp.Outcome = query.FromError(err)
		} else {
			resp.Outcome = query.Empty()
			resp.ViewName = name
		}
	case QueryRequest:
		resp.Outcome = s.runQuery(ctx, r)
	case DescribeRequest:
		cols, err := catalog.Columns(ctx, s.db, r.View)
		if err != nil {
			resp.Outcome = query.FromError(err)
		} else {
			resp.Outcome = query.Empty()
			resp.ViewName = r.View
			resp.Columns = cols
		}
	case CatalogRequest:
		resp.Outcome = query.Empty()
	}

	resp.Catalog = s.refreshCatalog(ctx)
	return resp
}

func (s *Session) runQuery(ctx context.Context, r QueryRequest) query.Outcome {
	s.mu.Lock()
	clipErr := s.clipErr
	s.mu.Unlock()
	if clipErr != nil {
		return query.FromError(clipErr)
	}

	out := s.exec.Execute(ctx, r.Text, r.Save)
	if !r.Save || out.Kind != query.KindRows {
		return out
	}
	if err := export.WriteCSV(s.results, out.Columns, out.Rows); err != nil {
		return query.FromError(err)
	}
	s.logger.Info("results written", "path", s.results, "rows", len(out.Rows))
	return query.Exported(s.results, len(out.Rows))
}

// refreshCatalog reads the catalog, keeping the previous snapshot if the
// read fails so the UI never sees a spurious empty list.
func (s *Session) refreshCatalog(ctx context.Context) catalog.Snapshot {
	snap, err := catalog.List(ctx, s.db)
	if err != nil {
		s.logger.Warn("failed to refresh catalog", "error", err)
		return s.last
	}
	s.last = snap
	return snap
}
