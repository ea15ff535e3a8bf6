package builder

import (
	"context"
	"errors"
	"testing"

	"github.com/shaiso/Tubesmith/internal/host"
)

// fakeFetcher — Fetcher со сценарием для тестов.
type fakeFetcher struct {
	commit  string
	changed bool
	err     error
	calls   int
}

func (f *fakeFetcher) Ensure(ctx context.Context, dir, url, revision string) (string, bool, error) {
	f.calls++
	return f.commit, f.changed, f.err
}

func newBuilder(h host.Host, fetcher Fetcher) *Builder {
	return New(Config{
		Host:     h,
		Fetcher:  fetcher,
		Dir:      "/var/www/peertube",
		URL:      "https://github.com/Chocobozzz/PeerTube.git",
		Revision: "production",
		User:     "peertube",
	})
}

func TestEnsureSource_FreshClone(t *testing.T) {
	ctx := context.Background()
	h := host.NewFake()
	fetcher := &fakeFetcher{commit: "abc123", changed: true}

	artifact, err := newBuilder(h, fetcher).EnsureSource(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if artifact.Commit != "abc123" || artifact.Dir != "/var/www/peertube" {
		t.Errorf("unexpected artifact: %+v", artifact)
	}
	if !h.Ran("chown -R peertube:peertube /var/www/peertube") {
		t.Error("tree ownership should be handed to the service user")
	}
}

func TestEnsureSource_AlreadyPinned(t *testing.T) {
	ctx := context.Background()
	h := host.NewFake()
	fetcher := &fakeFetcher{commit: "abc123", changed: false}

	if _, err := newBuilder(h, fetcher).EnsureSource(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if h.Ran("chown") {
		t.Error("unchanged tree should not be re-chowned")
	}
}

func TestEnsureSource_FetchError(t *testing.T) {
	ctx := context.Background()
	fetcher := &fakeFetcher{err: errors.New("network down")}

	_, err := newBuilder(host.NewFake(), fetcher).EnsureSource(ctx)
	if !errors.Is(err, ErrFetch) {
		t.Fatalf("expected ErrFetch, got %v", err)
	}
}

func TestInstallDeps_RunsAsServiceUser(t *testing.T) {
	ctx := context.Background()
	h := host.NewFake()

	if err := newBuilder(h, &fakeFetcher{}).InstallDeps(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	cmds := h.Commands()
	if len(cmds) != 1 {
		t.Fatalf("expected one command, got %v", h.CommandLines())
	}
	if cmds[0].String() != "yarn install --production --pure-lockfile" {
		t.Errorf("unexpected command: %q", cmds[0].String())
	}
	if cmds[0].User != "peertube" || cmds[0].Dir != "/var/www/peertube" {
		t.Errorf("yarn must run as the service user in the app dir: %+v", cmds[0])
	}
}

func TestBuild_SkipsWhenOutputsExist(t *testing.T) {
	ctx := context.Background()
	h := host.NewFake()
	h.Files["/var/www/peertube/dist/server.js"] = []byte("built")
	h.Files["/var/www/peertube/client/dist/index.html"] = []byte("built")

	if err := newBuilder(h, &fakeFetcher{}).Build(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if h.Ran("yarn build") {
		t.Error("build should be skipped when outputs exist")
	}
}

func TestBuild_RunsWhenOutputMissing(t *testing.T) {
	ctx := context.Background()
	h := host.NewFake()
	// Только backend собран — frontend отсутствует
	h.Files["/var/www/peertube/dist/server.js"] = []byte("built")

	if err := newBuilder(h, &fakeFetcher{}).Build(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !h.Ran("yarn build") {
		t.Error("build should run when frontend output is missing")
	}
}

func TestBuild_PreservesOOMSignal(t *testing.T) {
	ctx := context.Background()
	h := host.NewFake()
	oom := &host.ExitError{Cmd: "yarn build", Outcome: host.Outcome{ExitCode: 137, OOMKilled: true}}
	h.Respond("yarn build", "", oom)

	err := newBuilder(h, &fakeFetcher{}).Build(ctx)
	if !errors.Is(err, ErrBuild) {
		t.Fatalf("expected ErrBuild, got %v", err)
	}
	if !host.IsOOM(err) {
		t.Error("wrapped build error must keep the OOM signal")
	}
}
