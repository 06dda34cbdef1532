// Command cli is the ipintel entrypoint: bulk IP intelligence lookups
// against an InternetDB-style service, with caching, identity rotation,
// and rate governing.
package main

import (
	"fmt"
	"os"

	"github.com/ipintel/ipintel/pkg/defaults"
)

func main() {
	args := os.Args[1:]
	if len(args) == 0 {
		usage()
		os.Exit(2)
	}

	switch args[0] {
	case "scan":
		os.Exit(runScan(args[1:]))
	case "cache":
		os.Exit(runCache(args[1:]))
	case "version", "-version", "--version":
		fmt.Printf("ipintel v%s\n", defaults.Version)
	case "help", "-h", "--help":
		usage()
	default:
		// Bare targets imply scan: `ipintel 1.2.3.4 8.8.8.8`.
		os.Exit(runScan(args))
	}
}

func usage() {
	fmt.Fprintf(os.Stderr, `ipintel v%s - bulk IP intelligence lookups

Usage:
  ipintel scan [flags]       run lookups against the target list
  ipintel cache <stats|clear> [flags]
  ipintel version

Scan flags:
  -t addr[,addr]   target IP, CIDR range, or hostname (repeatable)
  -l file          newline-separated target list ("-" reads stdin)
  -resolve         resolve hostname targets instead of rejecting them
  -w n             concurrent workers (default %d)
  -rpm n           requests per minute, 0 = unlimited (default %d)
  -rps n           requests per second smoothing, 0 = off
  -delay-min d     random per-request delay lower bound
  -delay-max d     random per-request delay upper bound
  -identities n    browser identity pool size (default %d)
  -proxy url       proxy for outbound requests (repeatable)
  -timeout d       per-request timeout
  -retries n       attempt budget per target (default %d)
  -cache file      cache path (default %s)
  -cache-ttl d     cache entry lifetime (default %dh)
  -no-cache        bypass the cache entirely
  -base-url url    intelligence service base URL
  -profile file    YAML profile overlaid between defaults and flags
  -jsonl file      write results as JSON lines
  -csv file        write results as CSV
  -metrics addr    serve Prometheus metrics on addr during the scan
  -q               quiet: suppress banner and per-result lines
  -v               verbose logging
  -no-color        disable colored output
`, defaults.Version, defaults.Workers, defaults.RequestsPerMinute,
		defaults.Identities, defaults.MaxAttempts, defaults.CacheFile,
		defaults.CacheTTLHours)
}
