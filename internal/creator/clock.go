package creator

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Clock abstracts time retrieval so business logic is deterministic in tests.
type Clock interface {
	Now() time.Time
}

// RealClock returns the actual current time.
type RealClock struct{}

func (RealClock) Now() time.Time { return time.Now() }

// IDGenerator abstracts unique ID generation so tests are deterministic.
type IDGenerator interface {
	New() string
}

// UUIDGenerator produces random UUIDs.
type UUIDGenerator struct{}

func (UUIDGenerator) New() string { return uuid.New().String() }

// TimestampIDGenerator produces "<unix-millis>-<8 hex chars>" ids, so ids sort
// roughly by creation time and still carry a random suffix.
type TimestampIDGenerator struct {
	Clock Clock
}

func (g TimestampIDGenerator) New() string {
	clock := g.Clock
	if clock == nil {
		clock = RealClock{}
	}
	suffix := uuid.New().String()[:8]
	return fmt.Sprintf("%d-%s", clock.Now().UnixMilli(), suffix)
}
