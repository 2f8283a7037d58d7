// Package id generates the record identifiers the journal persists. IDs
// are ULIDs: 26-character strings that sort by creation time, so trade and
// screen rows come back from SQLite in insertion order without an extra
// sequence column.
package id

import (
	cryptoRand "crypto/rand"
	"encoding/binary"
	"io"
	"math/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

var (
	mu      sync.Mutex
	entropy io.Reader
)

func init() {
	// A batch insert can journal many trades inside one millisecond;
	// monotonic entropy keeps those IDs strictly increasing. The PRNG is
	// seeded from crypto/rand so runs do not repeat ID suffixes.
	var seed int64
	_ = binary.Read(cryptoRand.Reader, binary.LittleEndian, &seed)
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	entropy = ulid.Monotonic(rand.New(rand.NewSource(seed)), 0)
}

// New returns the next ULID string.
func New() string {
	mu.Lock()
	defer mu.Unlock()

	id, err := ulid.New(ulid.Timestamp(time.Now().UTC()), entropy)
	if err != nil {
		panic(err)
	}
	return id.String()
}
