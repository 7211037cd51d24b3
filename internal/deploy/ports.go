// internal/deploy/ports.go
package deploy

import (
	"errors"
	"fmt"
	"net"
	"sync"
)

// Specific errors for port allocation
var (
	ErrNoFreePort = errors.New("no free port in the configured range")
)

// PortRegistry hands out TCP ports from a fixed range, one per app. A
// bind probe filters out ports already held by processes outside the
// registry.
type PortRegistry struct {
	mu    sync.Mutex
	start int
	end   int
	inUse map[int]string // port -> app id
}

func NewPortRegistry(start, end int) *PortRegistry {
	return &PortRegistry{
		start: start,
		end:   end,
		inUse: make(map[int]string),
	}
}

// Allocate reserves the lowest free port in the range for the given app.
// Re-allocating for an app that already holds a port returns that port.
func (r *PortRegistry) Allocate(appID string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for port, holder := range r.inUse {
		if holder == appID {
			return port, nil
		}
	}

	for port := r.start; port <= r.end; port++ {
		if _, taken := r.inUse[port]; taken {
			continue
		}
		if !bindProbe(port) {
			continue
		}
		r.inUse[port] = appID
		return port, nil
	}
	return 0, ErrNoFreePort
}

// Release frees whatever port the app holds. Releasing an app with no
// port is a no-op.
func (r *PortRegistry) Release(appID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for port, holder := range r.inUse {
		if holder == appID {
			delete(r.inUse, port)
			return
		}
	}
}

// bindProbe reports whether the port is actually bindable right now.
func bindProbe(port int) bool {
	l, err := net.Listen("tcp", fmt.Sprintf("127.0.0.1:%d", port))
	if err != nil {
		return false
	}
	l.Close()
	return true
}
