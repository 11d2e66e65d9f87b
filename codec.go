package odoorpc

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"runtime"

	"github.com/jackc/puddle/v2"
)

// codec runs envelope serialization work away from the dispatching goroutine,
// drawing scratch buffers from a bounded pool shared by all in-flight calls.
// The pool caps how much encoded payload can be held in memory at once; a
// dispatch blocks in Acquire (honoring its context) when every buffer is busy.
type codec struct {
	buffers *puddle.Pool[*bytes.Buffer]
}

func newCodec(maxSize int32) (*codec, error) {
	if maxSize <= 0 {
		//nolint:gosec // How many cpus do you think we have? Puddle requires an int32.
		maxSize = int32(min(runtime.NumCPU(), runtime.GOMAXPROCS(-1)) * 2)
	}

	pool, err := puddle.NewPool(&puddle.Config[*bytes.Buffer]{
		Constructor: func(_ context.Context) (*bytes.Buffer, error) { return new(bytes.Buffer), nil },
		Destructor:  func(_ *bytes.Buffer) {},
		MaxSize:     maxSize,
	})
	if err != nil {
		return nil, err
	}

	return &codec{buffers: pool}, nil
}

// encode marshals v into a pooled scratch buffer on a background goroutine.
//
// On success the returned bytes stay valid until release is called, which
// must happen exactly once. When ctx expires first, encode returns the
// context error immediately and the buffer finds its way back to the pool
// once the background marshal finishes.
func (c *codec) encode(ctx context.Context, v any) (data []byte, release func(), err error) {
	res, err := c.buffers.Acquire(ctx)
	if err != nil {
		return nil, nil, err
	}

	done := make(chan error, 1)

	go func() {
		buf := res.Value()
		buf.Reset()

		done <- NewJSONEncoder(buf).Encode(v)
	}()

	select {
	case err := <-done:
		if err != nil {
			res.Release()

			return nil, nil, fmt.Errorf("%w: %w", ErrEncoding, err)
		}

		return res.Value().Bytes(), res.Release, nil
	case <-ctx.Done():
		go func() {
			<-done
			res.Release()
		}()

		return nil, nil, ctx.Err()
	}
}

// fill drains r into a pooled scratch buffer on a background goroutine.
//
// The same lifetime rules as [codec.encode] apply to the returned bytes and
// release func.
func (c *codec) fill(ctx context.Context, r io.Reader) (data []byte, release func(), err error) {
	res, err := c.buffers.Acquire(ctx)
	if err != nil {
		return nil, nil, err
	}

	done := make(chan error, 1)

	go func() {
		buf := res.Value()
		buf.Reset()

		_, ferr := buf.ReadFrom(r)
		done <- ferr
	}()

	select {
	case err := <-done:
		if err != nil {
			res.Release()

			return nil, nil, err
		}

		return res.Value().Bytes(), res.Release, nil
	case <-ctx.Done():
		go func() {
			<-done
			res.Release()
		}()

		return nil, nil, ctx.Err()
	}
}

// unmarshal decodes data into v on a background goroutine.
//
// When unmarshal returns a context error the background decode may still be
// writing into v, so v must be discarded unread.
func (c *codec) unmarshal(ctx context.Context, data []byte, v any) error {
	done := make(chan error, 1)

	go func() {
		done <- Unmarshal(data, v)
	}()

	select {
	case err := <-done:
		if err != nil {
			return wrapDecodeErr(err)
		}

		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// close tears down the buffer pool. It blocks until all outstanding buffers
// have been released.
func (c *codec) close() {
	c.buffers.Close()
}
