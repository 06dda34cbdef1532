// Package input consolidates target collection: flags, list files, and
// piped stdin, with CIDR expansion and hostname resolution.
package input

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/netip"
	"os"
	"strings"
)

// maxCIDRHosts caps range expansion so a stray /8 does not allocate a
// sixteen-million-entry target list.
const maxCIDRHosts = 65536

// Resolver is the hostname lookup used for non-IP targets. It matches
// net.Resolver's LookupHost.
type Resolver interface {
	LookupHost(ctx context.Context, host string) ([]string, error)
}

// TargetSource consolidates all target input methods.
type TargetSource struct {
	Addrs    []string // from -t flags, repeated or comma-separated
	ListFile string   // from -l flag
	Stdin    bool     // pipe input detection

	// Resolver handles hostname targets. Nil uses the system resolver.
	Resolver Resolver

	// Logger receives skipped-entry warnings. Nil uses slog.Default.
	Logger *slog.Logger
}

// Targets returns the deduplicated, expanded target list in input order.
// Each entry is a literal IP address: CIDR ranges are enumerated and
// hostnames resolved. Entries that fail to parse or resolve are skipped
// with a warning; a missing or unreadable list file is an error.
func (ts *TargetSource) Targets(ctx context.Context) ([]string, error) {
	logger := ts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	var targets []string
	seen := make(map[string]bool)

	expand := func(raw string) {
		raw = strings.TrimSpace(raw)
		if raw == "" || strings.HasPrefix(raw, "#") {
			return
		}
		ips, err := ts.expandOne(ctx, raw)
		if err != nil {
			logger.Warn("skipping target",
				slog.String("target", raw),
				slog.String("error", err.Error()))
			return
		}
		for _, ip := range ips {
			if !seen[ip] {
				seen[ip] = true
				targets = append(targets, ip)
			}
		}
	}

	for _, a := range ts.Addrs {
		expand(a)
	}

	if ts.ListFile != "" {
		lines, err := readLines(ts.ListFile)
		if err != nil {
			return nil, err
		}
		for _, line := range lines {
			expand(line)
		}
	}

	if ts.Stdin {
		lines, err := readStdin()
		if err != nil {
			return nil, err
		}
		for _, line := range lines {
			expand(line)
		}
	}

	return targets, nil
}

// expandOne turns one raw entry into literal addresses.
func (ts *TargetSource) expandOne(ctx context.Context, raw string) ([]string, error) {
	if addr, err := netip.ParseAddr(raw); err == nil {
		return []string{addr.String()}, nil
	}

	if strings.Contains(raw, "/") {
		return expandCIDR(raw)
	}

	resolver := ts.Resolver
	if resolver == nil {
		resolver = net.DefaultResolver
	}
	addrs, err := resolver.LookupHost(ctx, raw)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", raw, err)
	}
	if len(addrs) == 0 {
		return nil, fmt.Errorf("resolve %s: no addresses", raw)
	}
	return addrs, nil
}

func expandCIDR(raw string) ([]string, error) {
	prefix, err := netip.ParsePrefix(raw)
	if err != nil {
		return nil, fmt.Errorf("parse CIDR %s: %w", raw, err)
	}
	prefix = prefix.Masked()

	hostBits := prefix.Addr().BitLen() - prefix.Bits()
	if hostBits > 16 {
		return nil, fmt.Errorf("CIDR %s expands past %d hosts", raw, maxCIDRHosts)
	}

	var ips []string
	for addr := prefix.Addr(); prefix.Contains(addr); addr = addr.Next() {
		ips = append(ips, addr.String())
	}
	return ips, nil
}

func readLines(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var lines []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	return lines, scanner.Err()
}

func readStdin() ([]string, error) {
	stat, _ := os.Stdin.Stat()
	if (stat.Mode() & os.ModeCharDevice) != 0 {
		return nil, nil
	}

	var lines []string
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	return lines, scanner.Err()
}
