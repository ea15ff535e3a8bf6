package tlsprov

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/shaiso/Tubesmith/internal/config"
	"github.com/shaiso/Tubesmith/internal/host"
)

// ErrCertIssue — certbot не смог выпустить сертификат.
var ErrCertIssue = errors.New("certificate issuance failed")

// State — итоговый транспортный режим инстанса.
type State string

const (
	// StatePlain — инстанс отвечает по HTTP.
	StatePlain State = "plain"

	// StateSecured — сертификат выпущен, nginx переведён на HTTPS.
	StateSecured State = "secured"
)

// Provisioner выпускает сертификат для домена инстанса.
type Provisioner struct {
	host   host.Host
	logger *slog.Logger
}

// NewProvisioner создаёт Provisioner.
func NewProvisioner(h host.Host, logger *slog.Logger) *Provisioner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Provisioner{host: h, logger: logger}
}

// Ensure выпускает сертификат, когда конфигурация этого требует.
//
// При выключенном HTTPS возвращает StatePlain без каких-либо действий.
// При неудаче certbot возвращает StatePlain вместе с ErrCertIssue:
// вызывающая сторона логирует предупреждение и продолжает работу.
func (p *Provisioner) Ensure(ctx context.Context, cfg *config.Config) (State, error) {
	if !cfg.HTTPS {
		return StatePlain, nil
	}

	p.logger.Info("requesting certificate", "domain", cfg.Domain)
	err := p.host.Run(ctx, host.Command{
		Name: "certbot",
		Args: []string{
			"--nginx",
			"-d", cfg.Domain,
			"--non-interactive",
			"--agree-tos",
			"--register-unsafely-without-email",
			"--redirect",
		},
	})
	if err != nil {
		return StatePlain, fmt.Errorf("%w: %s: %v", ErrCertIssue, cfg.Domain, err)
	}

	p.logger.Info("certificate issued", "domain", cfg.Domain)
	return StateSecured, nil
}
