// Package idgen issues record identifiers shaped like millisecond timestamps.
package idgen

import (
	"strconv"
	"sync"
	"time"
)

var (
	mu   sync.Mutex
	last int64
	now  = func() time.Time { return time.Now() }
)

// New returns a stringified millisecond timestamp, strictly increasing within the process.
func New() string {
	mu.Lock()
	defer mu.Unlock()
	ms := now().UnixMilli()
	if ms <= last {
		ms = last + 1
	}
	last = ms
	return strconv.FormatInt(ms, 10)
}
