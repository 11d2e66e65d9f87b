package odoorpc

import (
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
)

const (
	// DefaultGatewayURL is the public OdooGate endpoint used when the
	// configuration names no gateway of its own.
	DefaultGatewayURL = "https://api.odoogate.io"

	// DefaultTimeout bounds the full round trip of a dispatched call when the
	// configuration does not override it.
	DefaultTimeout = 60 * time.Second

	// DefaultTimezone is stamped into the request context when the caller did
	// not pick one.
	DefaultTimezone = "UTC"

	// executePath is the single endpoint all calls are POSTed to.
	executePath = "/api/odoo/execute"

	// clientVersion identifies this library to the gateway via User-Agent.
	clientVersion = "1.1.0"
)

// Config carries everything [Client.Configure] needs to make the client
// usable. Build one with [NewConfig] and chain the With methods for the
// optional pieces:
//
//	cfg := odoorpc.NewConfig(instance, gatewayKey).
//	    WithGatewayURL("https://gate.internal.example").
//	    WithTimeout(30 * time.Second).
//	    WithLogger(log)
type Config struct {
	// Instance identifies the Odoo deployment calls execute against. It is
	// stamped verbatim onto every dispatched request.
	Instance Instance

	// GatewayKey authenticates this client to the gateway itself. It travels
	// as the X-Api-Key header, not inside the envelope.
	GatewayKey string

	// GatewayURL overrides [DefaultGatewayURL]. A single trailing slash is
	// tolerated and stripped.
	GatewayURL string

	// Timeout overrides [DefaultTimeout] for the transport built by
	// Configure. Ignored when HTTPClient is set.
	Timeout time.Duration

	// HTTPClient, when set, replaces the transport Configure would otherwise
	// build. The caller keeps ownership of its timeout and transport tuning.
	HTTPClient *http.Client

	// Logger receives debug-level dispatch traces. Defaults to a silenced
	// logger, so the library is quiet unless asked not to be.
	Logger logrus.FieldLogger

	// IDGenerator supplies ids for requests dispatched without one. Defaults
	// to [NewULIDGenerator].
	IDGenerator IDGenerator

	// CodecBuffers caps how many serialization buffers all in-flight calls
	// may hold at once. Defaults relative to the number of CPUs.
	CodecBuffers int32
}

// NewConfig returns a [Config] for the given backend instance and gateway api
// key, with every optional field left to its default.
func NewConfig(instance Instance, gatewayKey string) *Config {
	return &Config{Instance: instance, GatewayKey: gatewayKey}
}

// WithGatewayURL sets the gateway base URL and returns the config for chaining.
func (c *Config) WithGatewayURL(u string) *Config {
	c.GatewayURL = u
	return c
}

// WithTimeout sets the per-call timeout and returns the config for chaining.
func (c *Config) WithTimeout(d time.Duration) *Config {
	c.Timeout = d
	return c
}

// WithHTTPClient sets the transport and returns the config for chaining.
func (c *Config) WithHTTPClient(h *http.Client) *Config {
	c.HTTPClient = h
	return c
}

// WithLogger sets the logger and returns the config for chaining.
func (c *Config) WithLogger(l logrus.FieldLogger) *Config {
	c.Logger = l
	return c
}

// WithIDGenerator sets the request id source and returns the config for chaining.
func (c *Config) WithIDGenerator(g IDGenerator) *Config {
	c.IDGenerator = g
	return c
}

// WithCodecBuffers sets the serialization buffer cap and returns the config
// for chaining.
func (c *Config) WithCodecBuffers(n int32) *Config {
	c.CodecBuffers = n
	return c
}

// clientState is the immutable snapshot a successful Configure installs.
// Each dispatch loads one snapshot up front and uses it for its whole
// lifetime, so a concurrent reconfiguration never mixes halves of two
// configurations within a single call.
type clientState struct {
	http     *http.Client
	codec    *codec
	log      logrus.FieldLogger
	idgen    IDGenerator
	headers  http.Header
	execURL  string
	instance Instance
}

// Client dispatches requests to a configured gateway.
//
// A Client starts unconfigured: every dispatch fails with [ErrNotConfigured]
// and no network traffic is attempted until [Client.Configure] succeeds.
// After that it is safe for concurrent use. Reconfiguring is allowed, but
// callers must not have requests outstanding while they do it.
type Client struct {
	state atomic.Pointer[clientState]
}

// NewClient returns a new, unconfigured [Client].
func NewClient() *Client {
	return &Client{}
}

// Configure validates cfg, builds the transport, headers and codec, and
// atomically installs them. On failure, wrapping [ErrInvalidURL], the previous
// configuration (or unconfigured state) stays in effect.
//
// A nil cfg behaves like a zero [Config]: defaults everywhere and empty
// credentials.
func (c *Client) Configure(cfg *Config) error {
	if cfg == nil {
		cfg = &Config{}
	}

	base := cfg.GatewayURL
	if base == "" {
		base = DefaultGatewayURL
	}

	base = strings.TrimSuffix(base, "/")

	parsed, err := url.Parse(base)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidURL, err)
	}

	if parsed.Scheme == "" || parsed.Host == "" {
		return fmt.Errorf("%w: %q must include a scheme and host", ErrInvalidURL, base)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: timeout}
	}

	logger := cfg.Logger
	if logger == nil {
		silenced := logrus.New()
		silenced.SetOutput(io.Discard)
		logger = silenced
	}

	idgen := cfg.IDGenerator
	if idgen == nil {
		idgen = NewULIDGenerator()
	}

	cd, err := newCodec(cfg.CodecBuffers)
	if err != nil {
		return err
	}

	headers := make(http.Header)
	headers.Set("Accept", "application/json")
	headers.Set("Content-Type", "application/json")
	headers.Set("X-Api-Key", cfg.GatewayKey)
	headers.Set("Accept-Encoding", "gzip,deflate,br")
	headers.Set("User-Agent", "odoorpc-go/"+clientVersion)

	old := c.state.Swap(&clientState{
		http:     httpClient,
		codec:    cd,
		log:      logger,
		idgen:    idgen,
		headers:  headers,
		execURL:  base + executePath,
		instance: cfg.Instance,
	})

	if old != nil {
		old.codec.close()
	}

	return nil
}

// Configured returns true once [Client.Configure] has succeeded at least once.
func (c *Client) Configured() bool {
	return c.state.Load() != nil
}

// Close releases the idle transport connections and serialization buffers of
// the current configuration. Calls to the Client should not be made after
// Close has been called.
func (c *Client) Close() {
	st := c.state.Load()
	if st == nil {
		return
	}

	st.http.CloseIdleConnections()
	st.codec.close()
}

// snapshot returns the current configuration, or nil before the first
// successful Configure.
func (c *Client) snapshot() *clientState {
	return c.state.Load()
}
