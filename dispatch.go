package odoorpc

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"

	"github.com/andybalholm/brotli"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zlib"
	"github.com/sirupsen/logrus"
)

// Dispatch executes req against the configured gateway, decoding the reply as
// a [Response] whose result member is a T.
//
// The request travels by POST to the gateway's execute endpoint. Dispatch
// works on a private copy of req: it stamps a generated id when req carries
// none, defaults the context timezone, and attaches the configured [Instance].
// Serialization runs on background goroutines with pooled buffers, so large
// payloads do not stall the calling goroutine beyond the channel handoff.
//
// Failures surface as the taxonomy in error.go: [ErrNotConfigured] before any
// traffic, [ErrNetwork] for transport failures and 2xx bodies that cannot be
// read, [*ServerError] for non-2xx replies (decoded from the body when it
// carries one, synthesized from the HTTP status when the body is missing,
// malformed, or unreadable), [ErrInvalidResponse] for 2xx replies that
// are not JSON, and [ErrDecoding] when the envelope does not parse. A nil
// error still does not mean the call succeeded at the RPC level; check
// [Response.IsError].
//
// Most callers want the action helpers ([Search], [Create], ...) instead;
// Dispatch is the escape hatch for envelopes they cannot express.
func Dispatch[T any](ctx context.Context, c *Client, req *Request) (*Response[T], error) {
	st := c.snapshot()
	if st == nil {
		return nil, ErrNotConfigured
	}

	stamped := *req
	if stamped.ID == "" {
		stamped.ID = st.idgen.NextID()
	}

	if stamped.Keyword.Context.Timezone == "" {
		stamped.Keyword.Context.Timezone = DefaultTimezone
	}

	stamped.Instance = st.instance

	log := st.log.WithFields(logrus.Fields{
		"request_id": stamped.ID,
		"action":     stamped.Action,
		"model":      stamped.Model,
	})
	log.Debug("dispatching request")

	body, release, err := st.codec.encode(ctx, &stamped)
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, st.execURL, bytes.NewReader(body))
	if err != nil {
		release()

		return nil, fmt.Errorf("%w: %w", ErrInvalidURL, err)
	}

	httpReq.Header = st.headers.Clone()

	httpResp, err := st.http.Do(httpReq)

	release()

	if err != nil {
		log.WithError(err).Debug("transport failure")

		return nil, fmt.Errorf("%w: %w", ErrNetwork, err)
	}

	defer httpResp.Body.Close()

	ok := httpResp.StatusCode >= 200 && httpResp.StatusCode <= 299

	reader, err := bodyReader(httpResp)
	if err != nil {
		if !ok {
			return nil, classifyHTTPError(httpResp.StatusCode, nil)
		}

		return nil, err
	}

	raw, releaseBody, err := st.codec.fill(ctx, reader)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}

		if !ok {
			return nil, classifyHTTPError(httpResp.StatusCode, nil)
		}

		return nil, fmt.Errorf("%w: %w", ErrNetwork, err)
	}

	defer releaseBody()

	log.WithFields(logrus.Fields{
		"status": httpResp.StatusCode,
		"bytes":  len(raw),
	}).Debug("gateway responded")

	if !ok {
		return nil, classifyHTTPError(httpResp.StatusCode, raw)
	}

	if mt := mediaType(httpResp.Header.Get("Content-Type")); mt != "application/json" {
		return nil, fmt.Errorf("%w: content-type %q (status: %s)", ErrInvalidResponse, mt, httpResp.Status)
	}

	var envelope Response[T]
	if err := st.codec.unmarshal(ctx, raw, &envelope); err != nil {
		return nil, err
	}

	return &envelope, nil
}

// classifyHTTPError turns a non-2xx gateway reply into a [*ServerError].
// Bodies that are unreadable or do not decode as a bare server error object
// collapse to one synthesized from the HTTP status code.
func classifyHTTPError(status int, body []byte) *ServerError {
	srvErr := new(ServerError)
	if err := Unmarshal(body, srvErr); err != nil {
		return NewServerError(int64(status), "Unknown server error")
	}

	return srvErr
}

// bodyReader wraps the response body with the decoder matching its declared
// Content-Encoding. The request advertises gzip, deflate and br; anything
// else coming back is a gateway fault.
func bodyReader(resp *http.Response) (io.Reader, error) {
	encoding := strings.ToLower(strings.TrimSpace(resp.Header.Get("Content-Encoding")))

	switch encoding {
	case "", "identity":
		return resp.Body, nil
	case "gzip":
		zr, err := gzip.NewReader(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("%w: bad gzip body: %w", ErrInvalidResponse, err)
		}

		return zr, nil
	case "deflate":
		zr, err := zlib.NewReader(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("%w: bad deflate body: %w", ErrInvalidResponse, err)
		}

		return zr, nil
	case "br":
		return brotli.NewReader(resp.Body), nil
	}

	return nil, fmt.Errorf("%w: unexpected content-encoding %q", ErrInvalidResponse, encoding)
}

// mediaType extracts the media type from a Content-Type header value,
// dropping parameters such as charset. Unparseable values pass through
// verbatim so the caller's comparison fails with the original text.
func mediaType(contentType string) string {
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return contentType
	}

	return mt
}
