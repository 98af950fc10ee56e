package serve

import (
	"fmt"
	"net"
	"sync"
	"time"
)

const (
	// DefaultPort is where probing starts when no explicit port is given.
	DefaultPort = 8000

	// maxPortTries bounds the probe loop.
	maxPortTries = 1000

	probeTimeout = 250 * time.Millisecond
)

// ResolveOptions selects how a base URL and port are derived for one
// serving session.
type ResolveOptions struct {
	// Port, when non-zero, is used verbatim with no collision probing.
	Port int

	// BaseURL, when non-empty, overrides the derived base URL entirely.
	BaseURL string

	// Proxy requests a reverse-proxy style base URL (proxy/{port}).
	Proxy bool

	// HostName, when set in proxy mode, prefixes the proxy path.
	HostName string
}

// PortResolver picks available local ports and computes externally visible
// base URLs. The next-port hint is owned by the resolver and shared across
// all callers holding it, so successive resolutions fan out across ports
// instead of re-probing from the same start.
type PortResolver struct {
	mu             sync.Mutex
	next           int
	proxyAvailable bool

	// inUse reports whether a TCP connect to localhost succeeds on the
	// port. Replaceable in tests.
	inUse func(port int) bool
}

// ResolverOption configures a PortResolver.
type ResolverOption func(*PortResolver)

// WithProxyAvailable marks the reverse-proxy capability as present.
// Requesting proxy mode without it is a resolve-time error.
func WithProxyAvailable(available bool) ResolverOption {
	return func(r *PortResolver) { r.proxyAvailable = available }
}

// WithProbe replaces the occupied-port probe.
func WithProbe(inUse func(port int) bool) ResolverOption {
	return func(r *PortResolver) { r.inUse = inUse }
}

// NewPortResolver returns a resolver whose probing starts at startPort
// (DefaultPort when zero).
func NewPortResolver(startPort int, opts ...ResolverOption) *PortResolver {
	if startPort == 0 {
		startPort = DefaultPort
	}
	r := &PortResolver{
		next:  startPort,
		inUse: portInUse,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve returns the base URL and port for one serving session and
// advances the shared next-port hint. An explicit port is used verbatim;
// otherwise ports are probed one by one until a free one is found, failing
// hard after the try budget is exhausted.
func (r *PortResolver) Resolve(opts ResolveOptions) (string, int, error) {
	port := opts.Port
	if port == 0 {
		var err error
		port, err = r.nextFreePort()
		if err != nil {
			return "", 0, err
		}
	}

	baseURL := opts.BaseURL
	if baseURL == "" {
		if opts.Proxy {
			if !r.proxyAvailable {
				return "", 0, fmt.Errorf("proxy mode requested but no reverse-proxy capability is configured")
			}
			if opts.HostName != "" {
				baseURL = fmt.Sprintf("%s/proxy/%d", opts.HostName, port)
			} else {
				baseURL = fmt.Sprintf("proxy/%d", port)
			}
		} else {
			baseURL = fmt.Sprintf("http://localhost:%d", port)
		}
	}

	return baseURL, port, nil
}

func (r *PortResolver) nextFreePort() (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for try := 0; try < maxPortTries; try++ {
		port := r.next
		r.next++
		if !r.inUse(port) {
			return port, nil
		}
	}
	return 0, fmt.Errorf("no free port found after %d tries", maxPortTries)
}

// NextHint returns the current next-port hint. Monotonically non-decreasing.
func (r *PortResolver) NextHint() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.next
}

func portInUse(port int) bool {
	conn, err := net.DialTimeout("tcp", fmt.Sprintf("localhost:%d", port), probeTimeout)
	if err != nil {
		return false
	}
	_ = conn.Close()
	return true
}
