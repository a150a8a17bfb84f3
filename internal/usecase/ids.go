package usecase

import (
	"crypto/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// IDGenerator returns a fresh identifier on every call.
type IDGenerator func() string

// NewULIDGenerator returns a generator of monotonic ULIDs. Ids from one
// generator are unique and sort by creation time.
func NewULIDGenerator() IDGenerator {
	var mu sync.Mutex
	entropy := ulid.Monotonic(rand.Reader, 0)
	return func() string {
		mu.Lock()
		defer mu.Unlock()
		return ulid.MustNew(ulid.Timestamp(time.Now()), entropy).String()
	}
}
