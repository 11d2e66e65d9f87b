package odoorpc

import (
	mathrand "math/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// IDGenerator mints ids for requests dispatched without one.
//
// Implementations must be safe for concurrent use. Ids should be unique for
// the lifetime of the client and sort roughly by creation time, so gateway
// logs stay readable.
type IDGenerator interface {
	NextID() string
}

// ulidGenerator issues ULIDs from a single monotonic entropy source, so ids
// minted by one generator are strictly increasing even within the same
// millisecond.
type ulidGenerator struct {
	entropy *ulid.MonotonicEntropy
	mu      sync.Mutex
}

// NewULIDGenerator returns the default [IDGenerator] used by
// [Client.Configure] when none is supplied.
//
//nolint:ireturn //Generators are used through the interface
func NewULIDGenerator() IDGenerator {
	//nolint:gosec //Request ids are correlation handles, not secrets.
	return &ulidGenerator{entropy: ulid.Monotonic(mathrand.New(mathrand.NewSource(time.Now().UnixNano())), 0)}
}

func (g *ulidGenerator) NextID() string {
	g.mu.Lock()
	defer g.mu.Unlock()

	return ulid.MustNew(ulid.Timestamp(time.Now()), g.entropy).String()
}
