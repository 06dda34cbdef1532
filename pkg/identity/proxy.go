package identity

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	utls "github.com/refraction-networking/utls"
	"golang.org/x/net/proxy"
)

// Supported proxy schemes, validated during URL parsing.
var supportedProxySchemes = map[string]bool{
	"http":    true,
	"https":   true,
	"socks5":  true,
	"socks5h": true, // SOCKS5 with remote DNS resolution
}

// ProxyConfig holds a parsed proxy endpoint.
type ProxyConfig struct {
	URL      *url.URL
	Scheme   string
	Host     string
	Port     string
	Username string
	Password string
	IsSOCKS  bool
}

// ParseProxyURL validates and parses a proxy URL string. Returns nil, nil
// for an empty string (no proxy). Scheme-less input defaults to http://.
func ParseProxyURL(proxyURL string) (*ProxyConfig, error) {
	if proxyURL == "" {
		return nil, nil
	}

	if !strings.Contains(proxyURL, "://") {
		proxyURL = "http://" + proxyURL
	}

	parsed, err := url.Parse(proxyURL)
	if err != nil {
		return nil, fmt.Errorf("invalid proxy URL: %w", err)
	}

	scheme := strings.ToLower(parsed.Scheme)
	if !supportedProxySchemes[scheme] {
		return nil, fmt.Errorf("unsupported proxy scheme %q, supported: http, https, socks5, socks5h", scheme)
	}

	host := parsed.Hostname()
	port := parsed.Port()
	if host == "" {
		return nil, fmt.Errorf("proxy URL missing host")
	}
	if port == "" {
		switch scheme {
		case "http":
			port = "8080"
		case "https":
			port = "8443"
		default:
			port = "1080"
		}
	}

	pc := &ProxyConfig{
		URL:     parsed,
		Scheme:  scheme,
		Host:    host,
		Port:    port,
		IsSOCKS: strings.HasPrefix(scheme, "socks"),
	}
	if parsed.User != nil {
		pc.Username = parsed.User.Username()
		pc.Password, _ = parsed.User.Password()
	}
	return pc, nil
}

// Address returns the proxy endpoint in host:port form.
func (p *ProxyConfig) Address() string {
	if p == nil {
		return ""
	}
	return net.JoinHostPort(p.Host, p.Port)
}

// bindProxy wires the parsed proxy into the identity's transport.
//
// HTTP/HTTPS proxies use the transport's Proxy function; the CONNECT
// tunnel then carries a standard TLS handshake, so the utls fingerprint
// applies only to direct and SOCKS paths.
//
// SOCKS proxies replace both dial paths so TLS connections still present
// the identity's fingerprint over the proxied stream.
func bindProxy(transport *http.Transport, pc *ProxyConfig, timeout time.Duration, hello *utls.ClientHelloID) error {
	if pc == nil {
		return nil
	}

	if !pc.IsSOCKS {
		transport.Proxy = http.ProxyURL(pc.URL)
		transport.DialTLSContext = nil
		return nil
	}

	dialer, err := newSOCKSDialer(pc)
	if err != nil {
		return err
	}

	dialThroughProxy := func(ctx context.Context, network, addr string) (net.Conn, error) {
		if timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, timeout)
			defer cancel()
		}
		if cd, ok := dialer.(proxy.ContextDialer); ok {
			return cd.DialContext(ctx, network, addr)
		}
		return dialer.Dial(network, addr)
	}

	transport.DialContext = dialThroughProxy
	if hello != nil {
		transport.DialTLSContext = func(ctx context.Context, network, addr string) (net.Conn, error) {
			conn, err := dialThroughProxy(ctx, network, addr)
			if err != nil {
				return nil, err
			}
			host, _, splitErr := net.SplitHostPort(addr)
			if splitErr != nil {
				host = addr
			}
			uConn := utls.UClient(conn, &utls.Config{ServerName: host}, *hello)
			if err := uConn.HandshakeContext(ctx); err != nil {
				conn.Close()
				return nil, fmt.Errorf("tls handshake via proxy: %w", err)
			}
			return uConn, nil
		}
	}
	return nil
}

// newSOCKSDialer builds a golang.org/x/net SOCKS dialer from the parsed
// config. socks5h maps onto socks5 with hostnames passed through, which
// resolves DNS on the proxy side.
func newSOCKSDialer(pc *ProxyConfig) (proxy.Dialer, error) {
	scheme := pc.Scheme
	if scheme == "socks5h" {
		scheme = "socks5"
	}

	u := &url.URL{Scheme: scheme, Host: pc.Address()}
	if pc.Username != "" {
		u.User = url.UserPassword(pc.Username, pc.Password)
	}

	d, err := proxy.FromURL(u, proxy.Direct)
	if err != nil {
		return nil, fmt.Errorf("socks dialer: %w", err)
	}
	return d, nil
}
