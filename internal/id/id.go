package id

import (
	"io"
	"math/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// Generator hands out ULIDs. ULIDs sort by their timestamp, which keeps
// journal rows and SQLite indexes in trade order.
type Generator struct {
	mu      sync.Mutex
	entropy io.Reader
}

// NewGenerator returns a generator whose entropy is a monotonic stream
// seeded with seed, so the same seed and timestamps give the same ids.
func NewGenerator(seed int64) *Generator {
	return &Generator{
		entropy: ulid.Monotonic(rand.New(rand.NewSource(seed)), 0),
	}
}

// At returns an id stamped with t.
func (g *Generator) At(t time.Time) string {
	g.mu.Lock()
	defer g.mu.Unlock()

	id, err := ulid.New(ulid.Timestamp(t.UTC()), g.entropy)
	if err != nil {
		// Only reachable if the entropy source fails or overflows.
		panic(err)
	}
	return id.String()
}
