package ui

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/ipintel/ipintel/pkg/retry"
	"github.com/ipintel/ipintel/pkg/scanner"
)

// ResultLine writes one completion-order console line for a result.
func ResultLine(w io.Writer, res scanner.Result) {
	label, style := classLabel(res)

	detail := ""
	switch {
	case res.Skipped:
	case res.Class == retry.Success && res.Record != nil:
		var parts []string
		if n := len(res.Record.Ports); n > 0 {
			parts = append(parts, strconv.Itoa(n)+" ports")
		}
		if n := len(res.Record.Vulns); n > 0 {
			parts = append(parts, strconv.Itoa(n)+" vulns")
		}
		if n := len(res.Record.Hostnames); n > 0 {
			parts = append(parts, strconv.Itoa(n)+" hostnames")
		}
		detail = strings.Join(parts, ", ")
	case res.Err != nil:
		detail = res.Err.Error()
	}

	cached := ""
	if res.FromCache {
		cached = " (cached)"
	}

	if NoColor() {
		if detail != "" {
			detail = "  " + detail
		}
		fmt.Fprintf(w, "[%s] %s%s%s\n", label, res.IP, cached, detail)
		return
	}
	line := fmt.Sprintf("%s %s%s", style.Render("["+label+"]"), res.IP,
		MutedStyle.Render(cached))
	if detail != "" {
		line += "  " + MutedStyle.Render(detail)
	}
	fmt.Fprintln(w, line)
}

func classLabel(res scanner.Result) (string, interface{ Render(...string) string }) {
	if res.Skipped {
		return "SKIP", MutedStyle
	}
	switch res.Class {
	case retry.Success:
		if res.Record.Exposed() {
			return "VULN", ExposedStyle
		}
		return "DATA", FoundStyle
	case retry.NoData:
		return "NONE", EmptyStyle
	case retry.RateLimited:
		return "RATE", WarnStyle
	case retry.NetworkTransient, retry.ServerError:
		return "FAIL", FailedStyle
	default:
		return "ERR ", FailedStyle
	}
}

// Summary writes the end-of-run report: per-classification counts, cache
// effectiveness, latency percentiles, and the stopped-early notice.
func Summary(w io.Writer, report scanner.Report) {
	Section(w, "Scan Summary")

	s := report.Summary
	row := func(label, value string) { ConfigLine(w, label, value) }

	row("run", report.ID.String())
	row("targets", strconv.Itoa(len(report.Results)))
	row("elapsed", report.Elapsed.Round(time.Millisecond).String())

	order := []retry.Class{
		retry.Success, retry.NoData, retry.RateLimited,
		retry.NetworkTransient, retry.ServerError, retry.Unclassified,
	}
	for _, class := range order {
		if n := s.ByClass[class]; n > 0 {
			row(class.String(), strconv.FormatInt(n, 10))
		}
	}

	if s.CacheHits+s.CacheMisses > 0 {
		row("cache", fmt.Sprintf("%d hits / %d misses (%.0f%%)",
			s.CacheHits, s.CacheMisses, s.CacheHitRatio()*100))
	}
	if s.Retries > 0 {
		row("retries", strconv.FormatInt(s.Retries, 10))
	}
	if s.LatencyP50 > 0 {
		row("latency", fmt.Sprintf("p50 %s / p95 %s / p99 %s",
			s.LatencyP50.Round(time.Millisecond),
			s.LatencyP95.Round(time.Millisecond),
			s.LatencyP99.Round(time.Millisecond)))
	}

	if report.StoppedEarly {
		notice := "scan stopped early; unprocessed targets reported as skipped"
		if NoColor() {
			fmt.Fprintf(w, "  %s\n", notice)
		} else {
			fmt.Fprintf(w, "  %s\n", WarnStyle.Render(notice))
		}
	}
}
