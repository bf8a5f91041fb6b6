package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"sync"

	"github.com/dannyboland/loql/internal/loader"
	"github.com/dannyboland/loql/internal/query"
	json "github.com/goccy/go-json"
	"github.com/google/uuid"
)

// WorkerCommand is the hidden subcommand that runs Serve.
const WorkerCommand = "worker"

// waiter is a request awaiting its reply from the worker.
type waiter struct {
	class Class
	reply chan Response
}

// Remote is a Controller whose database lives in a child process.
type Remote struct {
	w      io.WriteCloser
	caps   loader.Capabilities
	cmd    *exec.Cmd
	logger *slog.Logger

	writeMu sync.Mutex
	enc     *json.Encoder

	mu      sync.Mutex
	waiting map[string]*waiter
	active  map[Class]string
	broken  error
	closed  bool

	done      chan struct{}
	closeOnce sync.Once
	closeErr  error
}

var _ Controller = (*Remote)(nil)

// StartRemote launches the current executable as a worker process and
// connects to it. extraArgs are appended to the worker command line.
func StartRemote(ctx context.Context, opts Options, extraArgs []string, logger *slog.Logger) (*Remote, error) {
	self, err := os.Executable()
	if err != nil {
		return nil, &FatalError{Err: fmt.Errorf("failed to locate executable: %w", err)}
	}
	encoded, err := json.Marshal(opts)
	if err != nil {
		return nil, &FatalError{Err: err}
	}

	args := append([]string{WorkerCommand, "--options", string(encoded)}, extraArgs...)
	cmd := exec.CommandContext(ctx, self, args...) //nolint:gosec // re-executes this binary
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, &FatalError{Err: err}
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, &FatalError{Err: err}
	}
	if err := cmd.Start(); err != nil {
		return nil, &FatalError{Err: fmt.Errorf("failed to start worker: %w", err)}
	}

	r, err := Connect(stdin, stdout, logger)
	if err != nil {
		_ = cmd.Process.Kill()
		_ = cmd.Wait()
		return nil, err
	}
	r.cmd = cmd
	return r, nil
}

// Connect attaches to a worker that is already running Serve on the other
// end of w and rd. It blocks until the worker announces itself.
func Connect(w io.WriteCloser, rd io.Reader, logger *slog.Logger) (*Remote, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	dec := json.NewDecoder(rd)
	dec.UseNumber()

	var hello reply
	if err := dec.Decode(&hello); err != nil {
		return nil, &FatalError{Err: fmt.Errorf("worker did not start: %w", err)}
	}
	if hello.Fatal != "" {
		return nil, &FatalError{Err: errors.New(hello.Fatal)}
	}
	if hello.Type != msgReady || hello.Capabilities == nil {
		return nil, &FatalError{Err: fmt.Errorf("unexpected worker greeting %q", hello.Type)}
	}

	r := &Remote{
		w:       w,
		enc:     json.NewEncoder(w),
		caps:    *hello.Capabilities,
		logger:  logger,
		waiting: make(map[string]*waiter),
		active:  make(map[Class]string),
		done:    make(chan struct{}),
	}
	go r.readLoop(dec)
	return r, nil
}

// Capabilities implements Controller.
func (r *Remote) Capabilities() loader.Capabilities {
	return r.caps
}

// Submit implements Controller.
func (r *Remote) Submit(ctx context.Context, req Request) <-chan Response {
	id := uuid.NewString()
	ch := make(chan Response, 1)

	env, err := encodeRequest(id, req)
	if err != nil {
		ch <- Response{ID: id, Outcome: query.FromError(err)}
		return ch
	}

	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		ch <- cancelled(id)
		return ch
	}
	if r.broken != nil {
		err := r.broken
		r.mu.Unlock()
		ch <- Response{ID: id, Outcome: query.FromError(err)}
		return ch
	}
	if prev, ok := r.active[req.Class()]; ok {
		r.finishLocked(prev, cancelled(prev))
	}
	r.waiting[id] = &waiter{class: req.Class(), reply: ch}
	r.active[req.Class()] = id
	r.mu.Unlock()

	r.writeMu.Lock()
	err = r.enc.Encode(env)
	r.writeMu.Unlock()
	if err != nil {
		r.fail(fmt.Errorf("failed to send request to worker: %w", err))
		return ch
	}
	r.logger.Debug("request sent to worker", "id", id, "class", string(req.Class()))

	if done := ctx.Done(); done != nil {
		go func() {
			select {
			case <-done:
				r.finish(id, cancelled(id))
			case <-r.done:
			}
		}()
	}
	return ch
}

// Do implements Controller.
func (r *Remote) Do(ctx context.Context, req Request) (Response, error) {
	return await(ctx, r.Submit(ctx, req))
}

// CancelAll implements Controller. The worker finishes what it is running;
// the replies are discarded.
func (r *Remote) CancelAll() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id := range r.waiting {
		r.finishLocked(id, cancelled(id))
	}
}

// Close implements Controller.
func (r *Remote) Close() error {
	r.closeOnce.Do(func() {
		r.mu.Lock()
		r.closed = true
		for id := range r.waiting {
			r.finishLocked(id, cancelled(id))
		}
		r.mu.Unlock()

		r.writeMu.Lock()
		_ = r.enc.Encode(envelope{Type: msgShutdown})
		r.writeMu.Unlock()
		errs := []error{r.w.Close()}

		<-r.done
		if r.cmd != nil {
			errs = append(errs, r.cmd.Wait())
		}
		r.closeErr = errors.Join(errs...)
	})
	return r.closeErr
}

func (r *Remote) readLoop(dec *json.Decoder) {
	defer close(r.done)
	for {
		var msg reply
		if err := dec.Decode(&msg); err != nil {
			if !errors.Is(err, io.EOF) {
				r.logger.Warn("worker connection lost", "error", err)
			}
			r.fail(errors.New("worker process exited"))
			return
		}
		if msg.Type != msgReply || msg.Response == nil {
			continue
		}
		if !r.finish(msg.Response.ID, *msg.Response) {
			r.logger.Debug("discarding reply for cancelled request", "id", msg.Response.ID)
		}
	}
}

// finish delivers resp to the waiter for id. It reports false when the
// request was already answered or cancelled.
func (r *Remote) finish(id string, resp Response) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.finishLocked(id, resp)
}

func (r *Remote) finishLocked(id string, resp Response) bool {
	w, ok := r.waiting[id]
	if !ok {
		return false
	}
	delete(r.waiting, id)
	if r.active[w.class] == id {
		delete(r.active, w.class)
	}
	resp.ID = id
	w.reply <- resp
	return true
}

// fail answers every waiting request with err and rejects new ones.
func (r *Remote) fail(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.broken == nil {
		r.broken = err
	}
	for id := range r.waiting {
		r.finishLocked(id, Response{Outcome: query.FromError(err)})
	}
}
