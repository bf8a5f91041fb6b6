package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	json "github.com/goccy/go-json"
)

// Serve runs the worker side of the isolated variant. It reads request
// envelopes from r, submits them to sess in order and writes one reply per
// request to w. It returns after a shutdown envelope or end of input, once
// every in-flight reply has been written.
func Serve(ctx context.Context, r io.Reader, w io.Writer, sess Controller) error {
	var mu sync.Mutex
	enc := json.NewEncoder(w)
	write := func(v reply) error {
		mu.Lock()
		defer mu.Unlock()
		return enc.Encode(v)
	}

	caps := sess.Capabilities()
	if err := write(reply{Type: msgReady, Capabilities: &caps}); err != nil {
		return fmt.Errorf("failed to announce worker: %w", err)
	}

	var wg sync.WaitGroup
	defer wg.Wait()

	dec := json.NewDecoder(r)
	for {
		var env envelope
		if err := dec.Decode(&env); err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("failed to read request: %w", err)
		}
		if env.Type == msgShutdown {
			return nil
		}

		req, err := decodeRequest(env)
		if err != nil {
			return err
		}

		ch := sess.Submit(ctx, req)
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			resp := <-ch
			resp.ID = id
			_ = write(reply{Type: msgReply, Response: &resp})
		}(env.ID)
	}
}

// ServeFatal reports a startup failure to the parent.
func ServeFatal(w io.Writer, err error) error {
	return json.NewEncoder(w).Encode(reply{Type: msgReady, Fatal: err.Error()})
}
