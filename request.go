package odoorpc

// Action selects the backend operation the gateway executes for a [Request].
type Action string

// The closed set of actions the gateway accepts.
const (
	ActionSearch      Action = "search"
	ActionSearchRead  Action = "search_read"
	ActionRead        Action = "read"
	ActionFieldsGet   Action = "fields_get"
	ActionSearchCount Action = "search_count"
	ActionCreate      Action = "create"
	ActionWrite       Action = "write"
	ActionUnlink      Action = "unlink"
	ActionCallMethod  Action = "call_method"

	// ActionUpdate is a historical alias for [ActionWrite]. Both dispatch the
	// same wire tag.
	ActionUpdate = ActionWrite
)

// RequestContext carries the execution context the backend evaluates a call
// under: which companies are visible and which timezone datetimes render in.
type RequestContext struct {
	Timezone          string  `json:"tz"`
	AllowedCompanyIDs []int64 `json:"allowed_company_ids,omitempty"`
	DefaultCompanyID  int64   `json:"default_company_id,omitempty"`
}

// KeywordOptions are the secondary call parameters that ride alongside Params:
// field projection, ordering, pagination and the execution context.
//
// Only search_read consumes Fields, Order, Limit and Offset. The action
// helpers clear them for every other action, so a shared KeywordOptions value
// can be reused across calls without leaking projection options to actions
// that must not see them.
//
//nolint:govet //We want order to match the wire shape, even if not required.
type KeywordOptions struct {
	Fields  []string       `json:"fields,omitempty"`
	Order   string         `json:"order,omitempty"`
	Limit   int64          `json:"limit,omitempty"`
	Offset  int64          `json:"offset,omitempty"`
	Context RequestContext `json:"context"`
}

// cleared returns a copy with the search_read-only members dropped. The
// execution context always survives.
func (k KeywordOptions) cleared() KeywordOptions {
	return KeywordOptions{Context: k.Context}
}

// Instance identifies the Odoo deployment a call executes against and the
// credentials the gateway should use there. This is distinct from the gateway
// api key in [Config]: the gateway authenticates the client, the instance api
// key authenticates the gateway to the backend.
type Instance struct {
	URL      string `json:"url"`
	UserID   int64  `json:"user_id"`
	Database string `json:"db"`
	APIKey   string `json:"api_key"`
}

// Request is the envelope for one gateway call.
//
// A fresh Request is built per call and never reused. [Dispatch] stamps the
// id, the timezone default and the configured [Instance] onto a private copy,
// so the caller's value is never mutated.
//
//nolint:govet //We want order to match the wire shape, even if not required.
type Request struct {
	ID       string         `json:"id"`
	Action   Action         `json:"action"`
	Model    string         `json:"model_id"`
	Keyword  KeywordOptions `json:"keyword"`
	Function string         `json:"fn_name,omitempty"`
	Params   Value          `json:"params"`
	Instance Instance       `json:"odoo_instance"`
}

// NewRequest builds a request for action against model with the given params.
//
// The id is left empty for [Dispatch] to stamp. Callers that need a specific
// id (for log correlation) may set the ID field before dispatching.
func NewRequest(action Action, model string, params Value) *Request {
	return &Request{Action: action, Model: model, Params: params}
}

// WithKeyword returns a copy of the request with the keyword options set.
func (r *Request) WithKeyword(k KeywordOptions) *Request {
	req := *r
	req.Keyword = k

	return &req
}

// WithFunction returns a copy of the request with the function name set.
// Only [ActionCallMethod] consumes it.
func (r *Request) WithFunction(fn string) *Request {
	req := *r
	req.Function = fn

	return &req
}
