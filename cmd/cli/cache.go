package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/ipintel/ipintel/pkg/cachestore"
	"github.com/ipintel/ipintel/pkg/defaults"
)

func runCache(args []string) int {
	if len(args) == 0 {
		fmt.Fprintln(os.Stderr, "usage: ipintel cache <stats|clear> [-cache file]")
		return 2
	}

	fs := flag.NewFlagSet("cache", flag.ExitOnError)
	path := fs.String("cache", defaults.CacheFile, "cache path")
	fs.Parse(args[1:])

	switch args[0] {
	case "stats":
		return cacheStats(*path)
	case "clear":
		return cacheClear(*path)
	default:
		fmt.Fprintf(os.Stderr, "unknown cache command %q\n", args[0])
		return 2
	}
}

func cacheStats(path string) int {
	if _, err := os.Stat(path); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}
	store := cachestore.Open(cachestore.Config{Path: path},
		cachestore.WithLogger(slog.New(slog.DiscardHandler)))
	fmt.Printf("%s: %d entries\n", path, store.Len())
	return 0
}

func cacheClear(path string) int {
	err := os.Remove(path)
	if err != nil && !os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}
	fmt.Printf("removed %s\n", path)
	return 0
}
