package state

import (
	"fmt"
	"sync/atomic"

	"github.com/google/uuid"
)

var (
	siteID = uuid.NewString()
	serial uint64
)

// NewLineID returns a collision-resistant id for a locally drawn line: the
// random site id keeps ids unique across peers and the serial orders them
// within a site.
func NewLineID() string {
	n := atomic.AddUint64(&serial, 1)
	return fmt.Sprintf("%s-%d", siteID, n)
}
