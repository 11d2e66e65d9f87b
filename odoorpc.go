// Package odoorpc is a client bridge for executing CRUD-style RPC calls
// against an Odoo backend through an OdooGate gateway.
//
// # Overview
//
// Calls travel as JSON envelopes over a single HTTP endpoint. Odoo's field
// encodings are famously uneven: booleans stand in for missing values,
// relational references arrive as two-element [id, name] arrays, and response
// ids may be numbers or strings. The package therefore centers on a dynamic
// JSON value model ([Value]) and a set of field normalizers ([Reference],
// [Optional]) that let statically-typed code build and consume such payloads
// without giving up type safety or crashing on malformed-but-valid inputs.
//
// # Features
//
//   - [Value]: a closed tagged union over the six JSON shapes, used both for
//     building heterogeneous call parameters and for decoding payloads whose
//     shape is not known ahead of time.
//   - [Reference] and [Optional]: decoders for the backend's falsy-means-absent
//     and [id, name] field conventions.
//   - [Response]: a permissive envelope decoder that tolerates number-or-string
//     ids and missing result or error members.
//   - [Client] and [Dispatch]: a configure-once dispatch pipeline that runs
//     serialization on background goroutines with pooled scratch buffers.
//   - Per-action helpers ([Search], [SearchRead], [Create], ...) that handle
//     keyword-option hygiene for each RPC verb.
//   - Pluggable JSON library: replace [Marshal], [Unmarshal] and
//     [NewJSONEncoder] at startup to use a different JSON implementation.
//
// # Basic Usage
//
//	client := odoorpc.NewClient()
//
//	cfg := odoorpc.NewConfig(odoorpc.Instance{
//		URL:      "https://mycompany.odoo.com",
//		UserID:   2,
//		Database: "mycompany",
//		APIKey:   "instance-key",
//	}, "gateway-key")
//
//	if err := client.Configure(cfg); err != nil {
//		log.Fatal(err)
//	}
//
//	domain := odoorpc.NewArray(
//		odoorpc.NewArray(odoorpc.NewString("is_company"), odoorpc.NewString("="), odoorpc.NewBool(true)),
//	)
//
//	resp, err := odoorpc.Search(ctx, client, "res.partner", domain, odoorpc.KeywordOptions{})
//	if err != nil {
//		log.Fatal(err) // ErrNotConfigured, ErrNetwork, *ServerError, ...
//	}
//
//	if resp.IsError() {
//		log.Fatal(resp.Error) // RPC-level failure carried inside a 2xx envelope
//	}
//
//	log.Println(*resp.Result)
package odoorpc

import (
	"encoding/json"
	"io"
)

// Marshal defines the function used for marshaling Go types into JSON []byte.
// By default, it uses [encoding/json.Marshal]. Applications can replace this
// variable *at startup* with a different marshaling function, for example,
// from a third-party JSON library like `github.com/bytedance/sonic`.
//
// The replacement function must have the same signature as `json.Marshal` and
// must honor [json.Marshaler] implementations, since every wire type in this
// package relies on them.
//
// Example (using sonic):
//
//	import "github.com/bytedance/sonic"
//
//	func init() {
//	    odoorpc.Marshal = sonic.ConfigDefault.Marshal
//	}
var Marshal = json.Marshal

// Unmarshal defines the function used for unmarshalling JSON []byte into Go
// types. By default, it uses [encoding/json.Unmarshal]. Applications can
// replace this variable *at startup* with a different unmarshalling function.
//
// The replacement function must have the same signature as `json.Unmarshal`
// and must honor [json.Unmarshaler] implementations and [json.RawMessage].
//
// Example (using sonic):
//
//	import "github.com/bytedance/sonic"
//
//	func init() {
//	    odoorpc.Unmarshal = sonic.ConfigDefault.Unmarshal
//	}
var Unmarshal = json.Unmarshal

// JSONEncoder defines the interface required for stream-based JSON encoding,
// compatible with [encoding/json.Encoder]. The dispatch pipeline uses it to
// serialize request envelopes into pooled buffers.
type JSONEncoder interface {
	// Encode writes the JSON encoding of v to the stream, followed by a newline character.
	Encode(v any) error
}

// NewJSONEncoder defines the function used to create new [JSONEncoder]
// instances. By default, it returns a standard [encoding/json.Encoder].
// Applications can replace this variable *at startup* to use a custom encoder
// implementation.
//
// Example (using sonic):
//
//	import (
//	    "io"
//	    "github.com/bytedance/sonic"
//	    "github.com/odoogate/odoorpc"
//	)
//
//	func init() {
//	    odoorpc.NewJSONEncoder = func(w io.Writer) odoorpc.JSONEncoder { return sonic.ConfigDefault.NewEncoder(w) }
//	}
var NewJSONEncoder = func(w io.Writer) JSONEncoder { return json.NewEncoder(w) }
