package odoorpc

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/andybalholm/brotli"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zlib"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newGatewayClient starts a fake gateway running handler and returns a client
// configured against it.
func newGatewayClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client := NewClient()
	require.NoError(t, client.Configure(NewConfig(testInstance(), "test-gateway-key").WithGatewayURL(server.URL)))
	t.Cleanup(client.Close)

	return client
}

func writeJSON(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}

func TestDispatchNotConfigured(t *testing.T) {
	t.Parallel()

	client := NewClient()

	resp, err := Dispatch[bool](t.Context(), client, NewRequest(ActionSearch, "res.partner", NewArray()))
	require.ErrorIs(t, err, ErrNotConfigured)
	assert.Nil(t, resp)
}

func TestDispatchSuccess(t *testing.T) {
	t.Parallel()

	client := newGatewayClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/odoo/execute", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "test-gateway-key", r.Header.Get("X-Api-Key"))
		assert.Equal(t, "gzip,deflate,br", r.Header.Get("Accept-Encoding"))
		assert.Contains(t, r.Header.Get("User-Agent"), "odoorpc-go/")

		var envelope struct {
			ID       string         `json:"id"`
			Action   string         `json:"action"`
			Model    string         `json:"model_id"`
			Keyword  KeywordOptions `json:"keyword"`
			Instance Instance       `json:"odoo_instance"`
		}

		if assert.NoError(t, json.NewDecoder(r.Body).Decode(&envelope)) {
			assert.NotEmpty(t, envelope.ID, "dispatch must stamp an id")
			assert.Equal(t, "search", envelope.Action)
			assert.Equal(t, "res.partner", envelope.Model)
			assert.Equal(t, "UTC", envelope.Keyword.Context.Timezone, "dispatch must default the timezone")
			assert.Equal(t, testInstance(), envelope.Instance, "dispatch must attach the configured instance")
		}

		writeJSON(w, http.StatusOK, `{"jsonrpc": "2.0", "id": 7, "result": [3, 5]}`)
	})

	req := NewRequest(ActionSearch, "res.partner", NewArray())

	resp, err := Dispatch[[]int64](t.Context(), client, req)
	require.NoError(t, err)

	assert.Equal(t, "2.0", resp.Version)
	assert.Equal(t, "7", resp.ID)
	assert.False(t, resp.IsError())

	require.NotNil(t, resp.Result)
	assert.Equal(t, []int64{3, 5}, *resp.Result)

	assert.Empty(t, req.ID, "dispatch must stamp a copy, not the caller's request")
	assert.Empty(t, req.Instance.URL, "dispatch must not write the instance back")
}

func TestDispatchCallerID(t *testing.T) {
	t.Parallel()

	client := newGatewayClient(t, func(w http.ResponseWriter, r *http.Request) {
		var envelope struct {
			ID      string         `json:"id"`
			Keyword KeywordOptions `json:"keyword"`
		}

		if assert.NoError(t, json.NewDecoder(r.Body).Decode(&envelope)) {
			assert.Equal(t, "custom-1", envelope.ID, "a caller-chosen id must survive")
			assert.Equal(t, "Europe/Vienna", envelope.Keyword.Context.Timezone, "a caller-chosen timezone must survive")
		}

		writeJSON(w, http.StatusOK, `{"jsonrpc": "2.0", "id": "custom-1", "result": true}`)
	})

	req := NewRequest(ActionWrite, "res.partner", NewArray())
	req.ID = "custom-1"
	req.Keyword.Context.Timezone = "Europe/Vienna"

	resp, err := Dispatch[bool](t.Context(), client, req)
	require.NoError(t, err)
	assert.Equal(t, "custom-1", resp.ID)
}

func TestDispatchServerErrorBody(t *testing.T) {
	t.Parallel()

	client := newGatewayClient(t, func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusBadRequest, `{"code": -32000, "message": "Invalid model"}`)
	})

	resp, err := Dispatch[bool](t.Context(), client, NewRequest(ActionSearch, "bad.model", NewArray()))
	require.Error(t, err)
	assert.Nil(t, resp)

	var srvErr *ServerError
	require.ErrorAs(t, err, &srvErr)
	assert.Equal(t, int64(-32000), srvErr.Code)
	assert.Equal(t, "Invalid model", srvErr.Message)
}

func TestDispatchServerErrorSynthesized(t *testing.T) {
	t.Parallel()

	client := newGatewayClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte("<html>not found</html>"))
	})

	_, err := Dispatch[bool](t.Context(), client, NewRequest(ActionSearch, "res.partner", NewArray()))
	require.Error(t, err)

	var srvErr *ServerError
	require.ErrorAs(t, err, &srvErr)
	assert.Equal(t, int64(404), srvErr.Code)
	assert.Equal(t, "Unknown server error", srvErr.Message)
}

func TestDispatchNonJSONContentType(t *testing.T) {
	t.Parallel()

	client := newGatewayClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		_, _ = w.Write([]byte("pong"))
	})

	_, err := Dispatch[bool](t.Context(), client, NewRequest(ActionSearch, "res.partner", NewArray()))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidResponse)
}

func TestDispatchContentTypeWithCharset(t *testing.T) {
	t.Parallel()

	client := newGatewayClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		_, _ = w.Write([]byte(`{"jsonrpc": "2.0", "id": 1, "result": true}`))
	})

	resp, err := Dispatch[bool](t.Context(), client, NewRequest(ActionSearch, "res.partner", NewArray()))
	require.NoError(t, err)
	require.NotNil(t, resp.Result)
	assert.True(t, *resp.Result)
}

func TestDispatchMalformedEnvelope(t *testing.T) {
	t.Parallel()

	client := newGatewayClient(t, func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, `{"jsonrpc": `)
	})

	_, err := Dispatch[bool](t.Context(), client, NewRequest(ActionSearch, "res.partner", NewArray()))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDecoding)
}

func TestDispatchMissingVersion(t *testing.T) {
	t.Parallel()

	client := newGatewayClient(t, func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, `{"id": 1, "result": true}`)
	})

	_, err := Dispatch[bool](t.Context(), client, NewRequest(ActionSearch, "res.partner", NewArray()))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDecoding)
}

func TestDispatchEmbeddedError(t *testing.T) {
	t.Parallel()

	client := newGatewayClient(t, func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, `{"jsonrpc": "2.0", "id": 1, "error": {"code": 99, "message": "Access denied"}}`)
	})

	resp, err := Dispatch[bool](t.Context(), client, NewRequest(ActionUnlink, "res.partner", NewArray()))
	require.NoError(t, err, "an envelope-level error is not a pipeline error")

	require.True(t, resp.IsError())
	assert.Equal(t, int64(99), resp.Error.Code)
	assert.Equal(t, "Access denied", resp.Error.Message)
	assert.Nil(t, resp.Result)
}

func TestDispatchNetworkError(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, _ *http.Request) {}))

	client := NewClient()
	require.NoError(t, client.Configure(NewConfig(testInstance(), "k").WithGatewayURL(server.URL)))

	t.Cleanup(client.Close)

	// Nothing is listening anymore.
	server.Close()

	_, err := Dispatch[bool](t.Context(), client, NewRequest(ActionSearch, "res.partner", NewArray()))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNetwork)
}

func TestDispatchContextDeadline(t *testing.T) {
	t.Parallel()

	client := newGatewayClient(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}

		writeJSON(w, http.StatusOK, `{"jsonrpc": "2.0", "id": 1, "result": true}`)
	})

	ctx, cancel := context.WithTimeout(t.Context(), 30*time.Millisecond)
	defer cancel()

	_, err := Dispatch[bool](ctx, client, NewRequest(ActionSearch, "res.partner", NewArray()))
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.ErrorIs(t, err, ErrNetwork)
}

func TestDispatchGzipResponse(t *testing.T) {
	t.Parallel()

	client := newGatewayClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Content-Encoding", "gzip")

		zw := gzip.NewWriter(w)
		_, _ = zw.Write([]byte(`{"jsonrpc": "2.0", "id": 1, "result": [1, 2]}`))
		_ = zw.Close()
	})

	resp, err := Dispatch[[]int64](t.Context(), client, NewRequest(ActionSearch, "res.partner", NewArray()))
	require.NoError(t, err)
	require.NotNil(t, resp.Result)
	assert.Equal(t, []int64{1, 2}, *resp.Result)
}

func TestDispatchDeflateResponse(t *testing.T) {
	t.Parallel()

	client := newGatewayClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Content-Encoding", "deflate")

		zw := zlib.NewWriter(w)
		_, _ = zw.Write([]byte(`{"jsonrpc": "2.0", "id": 1, "result": true}`))
		_ = zw.Close()
	})

	resp, err := Dispatch[bool](t.Context(), client, NewRequest(ActionWrite, "res.partner", NewArray()))
	require.NoError(t, err)
	require.NotNil(t, resp.Result)
	assert.True(t, *resp.Result)
}

func TestDispatchBrotliResponse(t *testing.T) {
	t.Parallel()

	client := newGatewayClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Content-Encoding", "br")

		bw := brotli.NewWriter(w)
		_, _ = bw.Write([]byte(`{"jsonrpc": "2.0", "id": 1, "result": 42}`))
		_ = bw.Close()
	})

	resp, err := Dispatch[int64](t.Context(), client, NewRequest(ActionSearchCount, "res.partner", NewArray()))
	require.NoError(t, err)
	require.NotNil(t, resp.Result)
	assert.Equal(t, int64(42), *resp.Result)
}

func TestDispatchCompressedServerError(t *testing.T) {
	t.Parallel()

	client := newGatewayClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Content-Encoding", "gzip")
		w.WriteHeader(http.StatusBadGateway)

		zw := gzip.NewWriter(w)
		_, _ = zw.Write([]byte(`{"code": 502, "message": "Backend unreachable"}`))
		_ = zw.Close()
	})

	_, err := Dispatch[bool](t.Context(), client, NewRequest(ActionSearch, "res.partner", NewArray()))
	require.Error(t, err)

	var srvErr *ServerError
	require.ErrorAs(t, err, &srvErr)
	assert.Equal(t, "Backend unreachable", srvErr.Message)
}

func TestDispatchCorruptCompressedServerError(t *testing.T) {
	t.Parallel()

	client := newGatewayClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Content-Encoding", "gzip")
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("not a gzip stream"))
	})

	_, err := Dispatch[bool](t.Context(), client, NewRequest(ActionSearch, "res.partner", NewArray()))
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrInvalidResponse)

	var srvErr *ServerError
	require.ErrorAs(t, err, &srvErr)
	assert.Equal(t, int64(502), srvErr.Code)
	assert.Equal(t, "Unknown server error", srvErr.Message)
}

func TestDispatchTruncatedCompressedServerError(t *testing.T) {
	t.Parallel()

	var stream bytes.Buffer

	zw := gzip.NewWriter(&stream)
	_, _ = zw.Write([]byte(`{"code": 502, "message": "Backend unreachable"}`))
	_ = zw.Close()

	client := newGatewayClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Content-Encoding", "gzip")
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write(stream.Bytes()[:stream.Len()-8])
	})

	_, err := Dispatch[bool](t.Context(), client, NewRequest(ActionSearch, "res.partner", NewArray()))
	require.Error(t, err)

	var srvErr *ServerError
	require.ErrorAs(t, err, &srvErr)
	assert.Equal(t, int64(502), srvErr.Code)
	assert.Equal(t, "Unknown server error", srvErr.Message)
}

func TestDispatchUnknownEncoding(t *testing.T) {
	t.Parallel()

	client := newGatewayClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Content-Encoding", "zstd")
		_, _ = w.Write([]byte(`{"jsonrpc": "2.0", "id": 1, "result": true}`))
	})

	_, err := Dispatch[bool](t.Context(), client, NewRequest(ActionSearch, "res.partner", NewArray()))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidResponse)
}

func TestDispatchConcurrent(t *testing.T) {
	t.Parallel()

	client := newGatewayClient(t, func(w http.ResponseWriter, r *http.Request) {
		var envelope struct {
			ID string `json:"id"`
		}

		assert.NoError(t, json.NewDecoder(r.Body).Decode(&envelope))

		writeJSON(w, http.StatusOK, fmt.Sprintf(`{"jsonrpc": "2.0", "id": %q, "result": true}`, envelope.ID))
	})

	const calls = 16

	var wg sync.WaitGroup

	errs := make(chan error, calls)

	for range calls {
		wg.Add(1)

		go func() {
			defer wg.Done()

			resp, err := Dispatch[bool](t.Context(), client, NewRequest(ActionWrite, "res.partner", NewArray()))
			if err == nil && !resp.IsError() && resp.ID == "" {
				err = fmt.Errorf("response carried no id")
			}

			errs <- err
		}()
	}

	wg.Wait()
	close(errs)

	for err := range errs {
		assert.NoError(t, err)
	}
}
