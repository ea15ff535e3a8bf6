package deps

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/shaiso/Tubesmith/internal/host"
	"github.com/shaiso/Tubesmith/internal/preflight"
)

func fail(cmd string, code int) *host.ExitError {
	return &host.ExitError{Cmd: cmd, Outcome: host.Outcome{ExitCode: code}}
}

// bareHost — хост, на котором ничего не установлено.
func bareHost() *host.Fake {
	h := host.NewFake()
	h.Respond("dpkg-query", "", fail("dpkg-query", 1))
	h.Respond("node -v", "", fail("node", 127))
	h.Respond("bash -lc command -v yarn", "", fail("bash", 1))
	return h
}

// provisionedHost — хост, где всё уже есть.
func provisionedHost() *host.Fake {
	h := host.NewFake()
	h.Respond("dpkg-query", "install ok installed", nil)
	h.Respond("node -v", "v20.11.1\n", nil)
	h.Respond("bash -lc command -v yarn", "/usr/bin/yarn\n", nil)
	h.Respond("id -u peertube", "998\n", nil)
	return h
}

func newInstaller(h *host.Fake) *Installer {
	return NewInstaller(h, preflight.NewChecker(h), nil)
}

func TestEnsurePackages_BareHost(t *testing.T) {
	ctx := context.Background()
	h := bareHost()

	if err := newInstaller(h).EnsurePackages(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if h.RanCount("apt-get update -y") != 1 {
		t.Error("apt-get update should run once")
	}
	if !h.Ran("apt-get install -y curl wget gnupg") {
		t.Error("base packages should be installed")
	}
	if !h.Ran("bash -c curl -fsSL https://deb.nodesource.com/setup_20.x | bash -") {
		t.Error("nodesource setup should run")
	}
	if !h.Ran("apt-get install -y nodejs") {
		t.Error("nodejs should be installed")
	}
	if !h.Ran("npm install -g yarn") {
		t.Error("yarn should be installed")
	}
	if !h.Ran("apt-get install -y postgresql postgresql-contrib redis-server") {
		t.Error("stack packages should be installed")
	}
	for _, unit := range []string{"redis-server", "postgresql", "nginx"} {
		if !h.Ran("systemctl enable --now " + unit) {
			t.Errorf("unit %s should be enabled", unit)
		}
	}
}

func TestEnsurePackages_AlreadyProvisioned(t *testing.T) {
	ctx := context.Background()
	h := provisionedHost()

	if err := newInstaller(h).EnsurePackages(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, line := range h.CommandLines() {
		if strings.HasPrefix(line, "apt-get") || strings.HasPrefix(line, "npm") {
			t.Errorf("no install command expected on provisioned host, got %q", line)
		}
	}
}

func TestEnsurePackages_AptFailureIsFatal(t *testing.T) {
	ctx := context.Background()
	h := bareHost()
	h.Respond("apt-get install", "", fail("apt-get", 100))

	err := newInstaller(h).EnsurePackages(ctx)
	if !errors.Is(err, ErrPackageInstall) {
		t.Fatalf("expected ErrPackageInstall, got %v", err)
	}
}

func TestEnsurePackages_UnitEnableFailureNotFatal(t *testing.T) {
	ctx := context.Background()
	h := provisionedHost()
	h.Respond("systemctl enable", "", fail("systemctl", 1))

	if err := newInstaller(h).EnsurePackages(ctx); err != nil {
		t.Fatalf("unit enable failure should not be fatal, got %v", err)
	}
}

func TestEnsureUser_Creates(t *testing.T) {
	ctx := context.Background()
	h := bareHost()
	h.Respond("id -u peertube", "", fail("id", 1))

	if err := newInstaller(h).EnsureUser(ctx, "peertube", "/var/www"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !h.Ran("adduser --disabled-password --gecos  peertube") {
		t.Errorf("adduser should run, got %v", h.CommandLines())
	}
}

func TestEnsureUser_Skips(t *testing.T) {
	ctx := context.Background()
	h := provisionedHost()

	if err := newInstaller(h).EnsureUser(ctx, "peertube", "/var/www"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if h.Ran("adduser") {
		t.Error("adduser should be skipped for existing user")
	}
}
