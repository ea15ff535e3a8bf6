package preflight

import (
	"context"
	"testing"

	"github.com/shaiso/Tubesmith/internal/host"
)

func notInstalled(cmd string) *host.ExitError {
	return &host.ExitError{Cmd: cmd, Outcome: host.Outcome{ExitCode: 1}}
}

func TestChecker_PackageInstalled(t *testing.T) {
	ctx := context.Background()
	h := host.NewFake()
	h.Respond("dpkg-query -W -f=${Status} nginx", "install ok installed", nil)
	h.Respond("dpkg-query -W -f=${Status} ffmpeg", "", notInstalled("dpkg-query"))

	c := NewChecker(h)

	if !c.PackageInstalled(ctx, "nginx") {
		t.Error("nginx should be reported as installed")
	}
	if c.PackageInstalled(ctx, "ffmpeg") {
		t.Error("ffmpeg should be reported as missing")
	}
}

func TestChecker_MissingPackages(t *testing.T) {
	ctx := context.Background()
	h := host.NewFake()
	h.Respond("dpkg-query -W -f=${Status} nginx", "install ok installed", nil)
	h.Respond("dpkg-query", "", notInstalled("dpkg-query"))

	c := NewChecker(h)

	missing := c.MissingPackages(ctx, []string{"nginx", "redis-server", "ffmpeg"})
	if len(missing) != 2 || missing[0] != "redis-server" || missing[1] != "ffmpeg" {
		t.Errorf("unexpected missing set: %v", missing)
	}
}

func TestChecker_UserExists(t *testing.T) {
	ctx := context.Background()
	h := host.NewFake()
	h.Respond("id -u peertube", "998\n", nil)
	h.Respond("id -u nosuch", "", notInstalled("id"))

	c := NewChecker(h)

	if !c.UserExists(ctx, "peertube") {
		t.Error("peertube user should exist")
	}
	if c.UserExists(ctx, "nosuch") {
		t.Error("nosuch user should not exist")
	}
}

func TestChecker_NodeMajor(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name   string
		out    string
		err    error
		expect int
	}{
		{name: "node 20", out: "v20.11.1\n", expect: 20},
		{name: "node 18", out: "v18.19.0\n", expect: 18},
		{name: "absent", err: notInstalled("node"), expect: 0},
		{name: "garbage", out: "not a version", expect: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := host.NewFake()
			h.Respond("node -v", tt.out, tt.err)

			if got := NewChecker(h).NodeMajor(ctx); got != tt.expect {
				t.Errorf("NodeMajor = %d, want %d", got, tt.expect)
			}
		})
	}
}

func TestChecker_Units(t *testing.T) {
	ctx := context.Background()
	h := host.NewFake()
	h.Respond("systemctl is-enabled peertube", "enabled\n", nil)
	h.Respond("systemctl is-active peertube", "inactive\n", notInstalled("systemctl"))

	c := NewChecker(h)

	if !c.UnitEnabled(ctx, "peertube") {
		t.Error("unit should be enabled")
	}
	if c.UnitActive(ctx, "peertube") {
		t.Error("unit should not be active")
	}
}

func TestChecker_Memory(t *testing.T) {
	h := host.NewFake()
	h.Mem = host.MemInfo{TotalMB: 2048, SwapTotalMB: 512}

	c := NewChecker(h)

	if got := c.MemTotalMB(); got != 2048 {
		t.Errorf("MemTotalMB = %d, want 2048", got)
	}
	if got := c.SwapTotalMB(); got != 512 {
		t.Errorf("SwapTotalMB = %d, want 512", got)
	}
}

func TestChecker_ReadOnly(t *testing.T) {
	ctx := context.Background()
	h := host.NewFake()

	c := NewChecker(h)
	c.PackageInstalled(ctx, "nginx")
	c.UserExists(ctx, "peertube")
	c.UnitActive(ctx, "peertube")
	c.FirewallActive(ctx)

	// Предикаты только опрашивают хост
	for _, line := range h.CommandLines() {
		switch {
		case line == "dpkg-query -W -f=${Status} nginx",
			line == "id -u peertube",
			line == "systemctl is-active peertube",
			line == "ufw status":
		default:
			t.Errorf("unexpected mutating command: %q", line)
		}
	}
	if len(h.Files) != 0 || len(h.Links) != 0 {
		t.Error("checker must not write to the host")
	}
}
