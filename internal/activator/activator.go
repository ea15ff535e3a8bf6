package activator

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/shaiso/Tubesmith/internal/config"
	"github.com/shaiso/Tubesmith/internal/host"
	"github.com/shaiso/Tubesmith/internal/preflight"
)

// webPorts — порты, открываемые в файрволе.
var webPorts = []string{"80/tcp", "443/tcp"}

// Activator вводит nginx и сервис приложения в строй.
type Activator struct {
	host   host.Host
	check  *preflight.Checker
	logger *slog.Logger
}

// New создаёт Activator.
func New(h host.Host, check *preflight.Checker, logger *slog.Logger) *Activator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Activator{host: h, check: check, logger: logger}
}

// Activate перезагружает nginx с новым конфигом, включает и
// перезапускает unit сервиса, открывает web-порты и подтверждает,
// что unit активен. Неудача возвращается как *ActivationError с
// последними строками журнала.
func (a *Activator) Activate(ctx context.Context) error {
	if err := a.reloadNginx(ctx); err != nil {
		return err
	}
	if err := a.restartUnit(ctx); err != nil {
		return err
	}
	a.openFirewall(ctx)

	if !a.check.UnitActive(ctx, config.UnitName) {
		return a.failure(ctx, "unit is not active after restart")
	}

	a.logger.Info("service activated", "unit", config.UnitName)
	return nil
}

// reloadNginx валидирует конфиг nginx и перезагружает его.
// Перезагрузка вместо рестарта: активные соединения не рвутся.
func (a *Activator) reloadNginx(ctx context.Context) error {
	if err := a.host.Run(ctx, host.Command{Name: "nginx", Args: []string{"-t"}}); err != nil {
		return &ActivationError{Unit: "nginx", Reason: fmt.Sprintf("config validation failed: %v", err)}
	}
	if err := a.host.Run(ctx, host.Command{Name: "systemctl", Args: []string{"reload", "nginx"}}); err != nil {
		return &ActivationError{Unit: "nginx", Reason: fmt.Sprintf("reload failed: %v", err)}
	}
	return nil
}

// restartUnit перечитывает unit-файлы, включает unit в автозапуск
// и перезапускает его.
func (a *Activator) restartUnit(ctx context.Context) error {
	if err := a.host.Run(ctx, host.Command{Name: "systemctl", Args: []string{"daemon-reload"}}); err != nil {
		return a.failureErr(ctx, "daemon-reload failed", err)
	}
	if err := a.host.Run(ctx, host.Command{Name: "systemctl", Args: []string{"enable", config.UnitName}}); err != nil {
		return a.failureErr(ctx, "enable failed", err)
	}
	if err := a.host.Run(ctx, host.Command{Name: "systemctl", Args: []string{"restart", config.UnitName}}); err != nil {
		return a.failureErr(ctx, "restart failed", err)
	}
	return nil
}

// openFirewall открывает web-порты, когда ufw активен. ufw allow
// идемпотентен, поэтому правила добавляются без проверки. Отказ
// добавления правила не валит активацию: сервис уже работает.
func (a *Activator) openFirewall(ctx context.Context) {
	if !a.check.FirewallActive(ctx) {
		a.logger.Info("firewall inactive, skipping port rules")
		return
	}
	for _, port := range webPorts {
		if err := a.host.Run(ctx, host.Command{Name: "ufw", Args: []string{"allow", port}}); err != nil {
			a.logger.Warn("cannot open firewall port", "port", port, "error", err)
		}
	}
}

// failure собирает ActivationError с журналом unit.
func (a *Activator) failure(ctx context.Context, reason string) error {
	return &ActivationError{
		Unit:    config.UnitName,
		Reason:  reason,
		Journal: a.journalTail(ctx),
	}
}

func (a *Activator) failureErr(ctx context.Context, reason string, err error) error {
	return a.failure(ctx, fmt.Sprintf("%s: %v", reason, err))
}

// journalTail возвращает последние строки журнала unit для диагностики.
func (a *Activator) journalTail(ctx context.Context) string {
	out, err := a.host.Output(ctx, host.Command{
		Name: "journalctl",
		Args: []string{"-u", config.UnitName, "-n", "20", "--no-pager"},
	})
	if err != nil {
		return ""
	}
	return strings.TrimSpace(out)
}
