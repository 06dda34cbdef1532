package input

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
)

type fakeResolver map[string][]string

func (r fakeResolver) LookupHost(ctx context.Context, host string) ([]string, error) {
	if addrs, ok := r[host]; ok {
		return addrs, nil
	}
	return nil, errors.New("no such host")
}

func TestTargetsPlainIPs(t *testing.T) {
	t.Parallel()

	ts := &TargetSource{Addrs: []string{"1.2.3.4", "8.8.8.8"}}
	got, err := ts.Targets(context.Background())
	if err != nil {
		t.Fatalf("Targets() error = %v", err)
	}
	if len(got) != 2 || got[0] != "1.2.3.4" || got[1] != "8.8.8.8" {
		t.Errorf("Targets() = %v", got)
	}
}

func TestTargetsDeduplicatesPreservingOrder(t *testing.T) {
	t.Parallel()

	ts := &TargetSource{Addrs: []string{"1.1.1.1", "2.2.2.2", "1.1.1.1"}}
	got, err := ts.Targets(context.Background())
	if err != nil {
		t.Fatalf("Targets() error = %v", err)
	}
	if len(got) != 2 || got[0] != "1.1.1.1" || got[1] != "2.2.2.2" {
		t.Errorf("Targets() = %v", got)
	}
}

func TestTargetsExpandsCIDR(t *testing.T) {
	t.Parallel()

	ts := &TargetSource{Addrs: []string{"192.168.1.0/30"}}
	got, err := ts.Targets(context.Background())
	if err != nil {
		t.Fatalf("Targets() error = %v", err)
	}
	want := []string{"192.168.1.0", "192.168.1.1", "192.168.1.2", "192.168.1.3"}
	if len(got) != len(want) {
		t.Fatalf("Targets() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Targets()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestTargetsSkipsHugeCIDR(t *testing.T) {
	t.Parallel()

	ts := &TargetSource{
		Addrs:  []string{"10.0.0.0/8", "1.1.1.1"},
		Logger: slog.New(slog.DiscardHandler),
	}
	got, err := ts.Targets(context.Background())
	if err != nil {
		t.Fatalf("Targets() error = %v", err)
	}
	if len(got) != 1 || got[0] != "1.1.1.1" {
		t.Errorf("Targets() = %v, want the /8 skipped", got)
	}
}

func TestTargetsResolvesHostnames(t *testing.T) {
	t.Parallel()

	ts := &TargetSource{
		Addrs:    []string{"scanme.example"},
		Resolver: fakeResolver{"scanme.example": {"203.0.113.7", "203.0.113.8"}},
	}
	got, err := ts.Targets(context.Background())
	if err != nil {
		t.Fatalf("Targets() error = %v", err)
	}
	if len(got) != 2 || got[0] != "203.0.113.7" {
		t.Errorf("Targets() = %v", got)
	}
}

func TestTargetsSkipsUnresolvableHost(t *testing.T) {
	t.Parallel()

	ts := &TargetSource{
		Addrs:    []string{"missing.example", "9.9.9.9"},
		Resolver: fakeResolver{},
		Logger:   slog.New(slog.DiscardHandler),
	}
	got, err := ts.Targets(context.Background())
	if err != nil {
		t.Fatalf("Targets() error = %v", err)
	}
	if len(got) != 1 || got[0] != "9.9.9.9" {
		t.Errorf("Targets() = %v, want unresolvable host skipped", got)
	}
}

func TestTargetsFromFileSkipsCommentsAndBlanks(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "targets.txt")
	content := "# infra hosts\n1.2.3.4\n\n  5.6.7.8  \n# trailing comment\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	ts := &TargetSource{ListFile: path}
	got, err := ts.Targets(context.Background())
	if err != nil {
		t.Fatalf("Targets() error = %v", err)
	}
	if len(got) != 2 || got[0] != "1.2.3.4" || got[1] != "5.6.7.8" {
		t.Errorf("Targets() = %v", got)
	}
}

func TestTargetsMissingFile(t *testing.T) {
	t.Parallel()

	ts := &TargetSource{ListFile: filepath.Join(t.TempDir(), "nope.txt")}
	if _, err := ts.Targets(context.Background()); err == nil {
		t.Error("Targets() succeeded for missing file, want error")
	}
}

func TestStringSliceFlagMixed(t *testing.T) {
	t.Parallel()

	var addrs StringSliceFlag
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	fs.Var(&addrs, "t", "targets")

	if err := fs.Parse([]string{"-t", "1.1.1.1,2.2.2.2", "-t", "3.3.3.3"}); err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if len(addrs) != 3 {
		t.Errorf("addrs = %v, want 3 entries", addrs)
	}
}

func TestTargetsIPv6(t *testing.T) {
	t.Parallel()

	ts := &TargetSource{Addrs: []string{"2001:db8::1"}}
	got, err := ts.Targets(context.Background())
	if err != nil {
		t.Fatalf("Targets() error = %v", err)
	}
	if len(got) != 1 || got[0] != "2001:db8::1" {
		t.Errorf("Targets() = %v", got)
	}
}
