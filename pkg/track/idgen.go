package track

import (
	"math/rand"
	"strconv"
	"strings"
	"sync/atomic"
	"time"
)

// IDGenerator mints track ids of the form "TR" + 5 random uppercase
// letters + an uppercase hex counter. The counter is seeded from the
// wall clock in milliseconds at construction and incremented atomically,
// so concurrent ingestion never produces duplicate ids from one generator.
//
// The generator is owned by whoever ingests (typically the pipeline);
// there is no process-wide shared instance.
type IDGenerator struct {
	counter atomic.Int64
}

// NewIDGenerator returns a generator seeded from the current time.
func NewIDGenerator() *IDGenerator {
	g := &IDGenerator{}
	g.counter.Store(time.Now().UnixMilli())
	return g
}

// Next returns a fresh track id.
func (g *IDGenerator) Next() string {
	n := g.counter.Add(1)

	var letters [5]byte
	for i := range letters {
		letters[i] = byte('A' + rand.Intn(26))
	}

	var b strings.Builder
	b.WriteString("TR")
	b.Write(letters[:])
	b.WriteString(strings.ToUpper(strconv.FormatInt(n, 16)))
	return b.String()
}
