package odoorpc

import "context"

// The action helpers below are thin wrappers over [Dispatch]: each picks its
// action tag, fixes the result type where the backend's answer shape is known,
// and clears the keyword members only search_read may send. None of them add
// behavior beyond that, so anything expressible here is equally expressible
// with [NewRequest] and [Dispatch] directly.

// Search returns the ids of the records matching the domain filter in params.
//
// Example:
//
//	domain := odoorpc.NewArray(
//	    odoorpc.NewArray(odoorpc.NewString("is_company"), odoorpc.NewString("="), odoorpc.NewBool(true)),
//	)
//	resp, err := odoorpc.Search(ctx, client, "res.partner", domain, odoorpc.KeywordOptions{})
func Search(ctx context.Context, c *Client, model string, params Value, kw KeywordOptions) (*Response[[]int64], error) {
	return Dispatch[[]int64](ctx, c, &Request{Action: ActionSearch, Model: model, Keyword: kw.cleared(), Params: params})
}

// SearchRead runs a search and a read in one round trip, decoding every
// matched record as a T. It is the only action that honors the Fields, Order,
// Limit and Offset members of kw.
//
// Example:
//
//	type partner struct {
//	    ID   int64  `json:"id"`
//	    Name string `json:"name"`
//	}
//
//	kw := odoorpc.KeywordOptions{Fields: []string{"id", "name"}, Limit: 10}
//	resp, err := odoorpc.SearchRead[partner](ctx, client, "res.partner", domain, kw)
func SearchRead[T any](ctx context.Context, c *Client, model string, params Value, kw KeywordOptions) (*Response[[]T], error) {
	return Dispatch[[]T](ctx, c, &Request{Action: ActionSearchRead, Model: model, Keyword: kw, Params: params})
}

// Read decodes the records named by the ids in params as T values.
func Read[T any](ctx context.Context, c *Client, model string, params Value, kw KeywordOptions) (*Response[[]T], error) {
	return Dispatch[[]T](ctx, c, &Request{Action: ActionRead, Model: model, Keyword: kw.cleared(), Params: params})
}

// FieldsGet describes the fields of a model. With T as map[string]Value the
// raw descriptor objects come through untyped; a struct T narrows them.
func FieldsGet[T any](ctx context.Context, c *Client, model string, params Value, kw KeywordOptions) (*Response[T], error) {
	return Dispatch[T](ctx, c, &Request{Action: ActionFieldsGet, Model: model, Keyword: kw.cleared(), Params: params})
}

// SearchCount returns the number of records matching the domain filter in
// params.
func SearchCount(ctx context.Context, c *Client, model string, params Value, kw KeywordOptions) (*Response[int64], error) {
	return Dispatch[int64](ctx, c, &Request{Action: ActionSearchCount, Model: model, Keyword: kw.cleared(), Params: params})
}

// Create inserts new records and returns the id of the created record.
//
// Example:
//
//	record := odoorpc.FromNative(map[string]any{"name": "Acme", "is_company": true})
//	resp, err := odoorpc.Create(ctx, client, "res.partner", odoorpc.NewArray(record), odoorpc.KeywordOptions{})
func Create(ctx context.Context, c *Client, model string, params Value, kw KeywordOptions) (*Response[int64], error) {
	return Dispatch[int64](ctx, c, &Request{Action: ActionCreate, Model: model, Keyword: kw.cleared(), Params: params})
}

// Write updates the records named in params, returning the backend's
// acknowledgement.
func Write(ctx context.Context, c *Client, model string, params Value, kw KeywordOptions) (*Response[bool], error) {
	return Dispatch[bool](ctx, c, &Request{Action: ActionWrite, Model: model, Keyword: kw.cleared(), Params: params})
}

// Unlink deletes the records named by the ids in params.
func Unlink(ctx context.Context, c *Client, model string, params Value, kw KeywordOptions) (*Response[bool], error) {
	return Dispatch[bool](ctx, c, &Request{Action: ActionUnlink, Model: model, Keyword: kw.cleared(), Params: params})
}

// CallMethod invokes an arbitrary method fn on a model, decoding its result
// as a T. It is the generic escape hatch for backend methods the fixed verbs
// do not cover.
func CallMethod[T any](ctx context.Context, c *Client, model, fn string, params Value, kw KeywordOptions) (*Response[T], error) {
	return Dispatch[T](ctx, c, &Request{Action: ActionCallMethod, Model: model, Function: fn, Keyword: kw.cleared(), Params: params})
}
