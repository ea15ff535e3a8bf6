package render

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shaiso/Tubesmith/internal/config"
	"github.com/shaiso/Tubesmith/internal/host"
)

// Set — отрендеренный набор файлов развёртывания.
type Set struct {
	// AppConfig — production.yaml приложения.
	AppConfig []byte

	// NginxSite — конфиг сайта nginx.
	NginxSite []byte

	// Unit — systemd unit сервиса.
	Unit []byte
}

// Renderer рендерит набор файлов и записывает его на хост.
type Renderer struct {
	host   host.Host
	logger *slog.Logger
}

// NewRenderer создаёт Renderer.
func NewRenderer(h host.Host, logger *slog.Logger) *Renderer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Renderer{host: h, logger: logger}
}

// Render собирает все три файла из конфигурации. Хост не трогается.
func (r *Renderer) Render(cfg *config.Config) (*Set, error) {
	appCfg, err := renderAppConfig(cfg)
	if err != nil {
		return nil, err
	}
	site, err := renderNginxSite(cfg)
	if err != nil {
		return nil, err
	}
	unit, err := renderUnit(cfg)
	if err != nil {
		return nil, err
	}
	return &Set{AppConfig: appCfg, NginxSite: site, Unit: unit}, nil
}

// Write записывает набор по фиксированным путям, перезаписывая
// предыдущие версии. production.yaml получает права 0600 и владельца —
// сервисного пользователя; ручные правки файлов не сохраняются.
func (r *Renderer) Write(ctx context.Context, cfg *config.Config, set *Set) error {
	if err := r.host.WriteFile(config.AppConfigPath, set.AppConfig, 0o600); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrWrite, config.AppConfigPath, err)
	}
	err := r.host.Run(ctx, host.Command{
		Name: "chown",
		Args: []string{cfg.User + ":" + cfg.User, config.AppConfigPath},
	})
	if err != nil {
		return fmt.Errorf("%w: chown %s: %v", ErrWrite, config.AppConfigPath, err)
	}

	if err := r.host.WriteFile(config.NginxSitePath, set.NginxSite, 0o644); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrWrite, config.NginxSitePath, err)
	}
	if !r.host.FileExists(config.NginxLinkPath) {
		if err := r.host.Symlink(config.NginxSitePath, config.NginxLinkPath); err != nil {
			return fmt.Errorf("%w: %s: %v", ErrWrite, config.NginxLinkPath, err)
		}
	}

	if err := r.host.WriteFile(config.UnitPath, set.Unit, 0o644); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrWrite, config.UnitPath, err)
	}

	r.logger.Info("deployment files written",
		"app_config", config.AppConfigPath,
		"nginx_site", config.NginxSitePath,
		"unit", config.UnitPath)
	return nil
}
