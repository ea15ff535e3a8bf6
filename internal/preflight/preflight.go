package preflight

import (
	"context"
	"strconv"
	"strings"

	"github.com/shaiso/Tubesmith/internal/host"
)

// Checker — read-only предикаты состояния хоста.
type Checker struct {
	host host.Host
}

// NewChecker создаёт Checker.
func NewChecker(h host.Host) *Checker {
	return &Checker{host: h}
}

// PackageInstalled проверяет, установлен ли deb-пакет.
func (c *Checker) PackageInstalled(ctx context.Context, name string) bool {
	out, err := c.host.Output(ctx, host.Command{
		Name: "dpkg-query",
		Args: []string{"-W", "-f=${Status}", name},
	})
	return err == nil && strings.Contains(out, "install ok installed")
}

// MissingPackages возвращает пакеты из списка, которых нет на хосте.
func (c *Checker) MissingPackages(ctx context.Context, names []string) []string {
	var missing []string
	for _, name := range names {
		if !c.PackageInstalled(ctx, name) {
			missing = append(missing, name)
		}
	}
	return missing
}

// UserExists проверяет наличие системного пользователя.
func (c *Checker) UserExists(ctx context.Context, name string) bool {
	_, err := c.host.Output(ctx, host.Command{Name: "id", Args: []string{"-u", name}})
	return err == nil
}

// CommandAvailable проверяет наличие исполняемого файла в PATH.
func (c *Checker) CommandAvailable(ctx context.Context, name string) bool {
	_, err := c.host.Output(ctx, host.Command{
		Name: "bash",
		Args: []string{"-lc", "command -v " + name},
	})
	return err == nil
}

// NodeMajor возвращает мажорную версию установленного node
// (например, 20 для v20.11.1) или 0, если node отсутствует.
func (c *Checker) NodeMajor(ctx context.Context) int {
	out, err := c.host.Output(ctx, host.Command{Name: "node", Args: []string{"-v"}})
	if err != nil {
		return 0
	}

	version := strings.TrimPrefix(strings.TrimSpace(out), "v")
	majorStr, _, _ := strings.Cut(version, ".")
	major, err := strconv.Atoi(majorStr)
	if err != nil {
		return 0
	}
	return major
}

// UnitFileExists проверяет наличие unit-файла сервиса.
func (c *Checker) UnitFileExists(path string) bool {
	return c.host.FileExists(path)
}

// UnitEnabled проверяет, включён ли systemd unit.
func (c *Checker) UnitEnabled(ctx context.Context, unit string) bool {
	out, err := c.host.Output(ctx, host.Command{
		Name: "systemctl",
		Args: []string{"is-enabled", unit},
	})
	return err == nil && strings.TrimSpace(out) == "enabled"
}

// UnitActive проверяет, запущен ли systemd unit.
func (c *Checker) UnitActive(ctx context.Context, unit string) bool {
	out, err := c.host.Output(ctx, host.Command{
		Name: "systemctl",
		Args: []string{"is-active", unit},
	})
	return err == nil && strings.TrimSpace(out) == "active"
}

// MemTotalMB возвращает объём RAM хоста в мегабайтах.
func (c *Checker) MemTotalMB() int64 {
	info, err := c.host.MemInfo()
	if err != nil {
		return 0
	}
	return info.TotalMB
}

// SwapTotalMB возвращает объём swap хоста в мегабайтах.
func (c *Checker) SwapTotalMB() int64 {
	info, err := c.host.MemInfo()
	if err != nil {
		return 0
	}
	return info.SwapTotalMB
}

// FirewallActive проверяет, включён ли ufw.
func (c *Checker) FirewallActive(ctx context.Context) bool {
	out, err := c.host.Output(ctx, host.Command{Name: "ufw", Args: []string{"status"}})
	return err == nil && strings.Contains(out, "Status: active")
}
