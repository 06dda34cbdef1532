// Package identity manages a pool of rotating request identities. Each
// identity combines a dedicated transport session, a browser client
// signature (User-Agent plus matching TLS ClientHello fingerprint via
// utls), and optionally an upstream proxy.
//
// Rotation is network etiquette for a rate-limited lookup service, not a
// security boundary: identities diversify the request signature so one
// busy scan does not look like a single hammering client.
//
// Identities are not exclusive locks. Acquire hands out the next identity
// by stateless round-robin and never blocks; Release exists for API
// symmetry and is advisory. Several in-flight requests may share one
// identity.
package identity

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	utls "github.com/refraction-networking/utls"

	"github.com/ipintel/ipintel/pkg/defaults"
	"github.com/ipintel/ipintel/pkg/duration"
)

// Identity is one rotatable request identity. Read-only after pool
// construction; safe for concurrent use.
type Identity struct {
	// Index is the identity's position in the pool.
	Index int

	// UserAgent is the client signature sent with every request.
	UserAgent string

	// AcceptLang accompanies the signature.
	AcceptLang string

	// Proxy is the bound upstream proxy URL, empty when none.
	Proxy string

	// Client is the identity's transport session.
	Client *http.Client

	profile Profile
}

// Config controls pool construction.
type Config struct {
	// Size is the number of identities to build (default 10).
	Size int

	// Proxies are upstream proxy URLs assigned to identities by
	// round-robin, independent of signature rotation. Empty means direct.
	Proxies []string

	// Timeout is the per-request timeout each transport session enforces.
	Timeout time.Duration

	// Seed is the starting value of the acquisition counter. Fixed seeds
	// make the rotation reproducible.
	Seed uint64

	// Profiles overrides the built-in signature catalog (tests).
	Profiles []Profile
}

// DefaultConfig returns a pool config of 10 direct identities.
func DefaultConfig() Config {
	return Config{
		Size:    defaults.Identities,
		Timeout: duration.HTTPLookup,
	}
}

// Pool hands out identities by stateless round-robin over a monotonically
// increasing counter. The counter increment is the only synchronization;
// identities themselves are read-mostly shared state.
type Pool struct {
	identities []*Identity
	counter    atomic.Uint64
}

// NewPool builds cfg.Size identities up front: signature i takes catalog
// entry i mod len(catalog), proxy i takes proxy list entry i mod
// len(proxies). Returns an error only for invalid configuration or an
// unparseable proxy URL.
func NewPool(cfg Config) (*Pool, error) {
	if cfg.Size <= 0 {
		cfg.Size = defaults.Identities
	}
	if cfg.Size > defaults.IdentitiesMax {
		return nil, fmt.Errorf("identity pool size %d exceeds maximum %d", cfg.Size, defaults.IdentitiesMax)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = duration.HTTPLookup
	}

	catalog := cfg.Profiles
	if len(catalog) == 0 {
		catalog = DefaultProfiles()
	}

	p := &Pool{identities: make([]*Identity, cfg.Size)}
	p.counter.Store(cfg.Seed)

	for i := 0; i < cfg.Size; i++ {
		profile := catalog[i%len(catalog)]

		var proxyURL string
		if len(cfg.Proxies) > 0 {
			proxyURL = cfg.Proxies[i%len(cfg.Proxies)]
		}

		client, err := newSessionClient(profile, proxyURL, cfg.Timeout)
		if err != nil {
			return nil, fmt.Errorf("identity %d: %w", i, err)
		}

		p.identities[i] = &Identity{
			Index:      i,
			UserAgent:  profile.UserAgent,
			AcceptLang: profile.AcceptLang,
			Proxy:      proxyURL,
			Client:     client,
			profile:    profile,
		}
	}

	return p, nil
}

// Acquire returns the next identity in rotation. Never blocks.
func (p *Pool) Acquire() *Identity {
	n := p.counter.Add(1) - 1
	return p.identities[n%uint64(len(p.identities))]
}

// Release returns an identity to the pool. Identities are rotation hints,
// not exclusive resources, so this is a no-op; callers that skip it never
// starve other workers.
func (p *Pool) Release(*Identity) {}

// Size returns the number of identities in the pool.
func (p *Pool) Size() int { return len(p.identities) }

// CloseIdleConnections drops idle keep-alive connections on every
// identity's transport session. Call at the end of a run.
func (p *Pool) CloseIdleConnections() {
	for _, id := range p.identities {
		id.Client.CloseIdleConnections()
	}
}

// newSessionClient builds the identity's dedicated transport session. TLS
// connections present the profile's ClientHello fingerprint; plain HTTP
// uses the standard dialer, so local test servers work unchanged.
func newSessionClient(profile Profile, proxyURL string, timeout time.Duration) (*http.Client, error) {
	dialer := &net.Dialer{
		Timeout:   duration.DialTimeout,
		KeepAlive: 30 * time.Second,
	}

	transport := &http.Transport{
		MaxIdleConns:          4,
		MaxIdleConnsPerHost:   4,
		IdleConnTimeout:       90 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		DialContext:           dialer.DialContext,
		DialTLSContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
			return dialTLSFingerprint(ctx, dialer, network, addr, profile.ClientHello)
		},
	}

	if proxyURL != "" {
		pc, err := ParseProxyURL(proxyURL)
		if err != nil {
			return nil, err
		}
		if err := bindProxy(transport, pc, timeout, profile.ClientHello); err != nil {
			return nil, err
		}
	}

	return &http.Client{
		Transport: transport,
		Timeout:   timeout,
	}, nil
}

// dialTLSFingerprint establishes a TLS connection presenting the given
// ClientHello fingerprint.
func dialTLSFingerprint(ctx context.Context, dialer *net.Dialer, network, addr string, hello *utls.ClientHelloID) (net.Conn, error) {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		host = addr
	}

	conn, err := dialer.DialContext(ctx, network, addr)
	if err != nil {
		return nil, err
	}

	hsCtx, hsCancel := context.WithTimeout(ctx, duration.TLSHandshakeTimeout)
	defer hsCancel()

	uConn := utls.UClient(conn, &utls.Config{ServerName: host}, *hello)
	if err := uConn.HandshakeContext(hsCtx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("tls handshake: %w", err)
	}

	return uConn, nil
}
