package orchestrator

import (
	"context"

	"github.com/shaiso/Tubesmith/internal/builder"
	"github.com/shaiso/Tubesmith/internal/config"
	"github.com/shaiso/Tubesmith/internal/database"
	"github.com/shaiso/Tubesmith/internal/render"
	"github.com/shaiso/Tubesmith/internal/tlsprov"
)

// Интерфейсы шагов установки. Реальные реализации живут в своих
// пакетах; тесты оркестратора подставляют заглушки.

// PackageInstaller готовит пакеты и сервисного пользователя.
type PackageInstaller interface {
	EnsurePackages(ctx context.Context) error
	EnsureUser(ctx context.Context, user, home string) error
}

// DatabaseProvisioner готовит роль и базу приложения.
type DatabaseProvisioner interface {
	Ensure(ctx context.Context, params database.Params) error
}

// SourceBuilder получает исходники и собирает приложение.
type SourceBuilder interface {
	EnsureSource(ctx context.Context) (*builder.Artifact, error)
	InstallDeps(ctx context.Context) error
	Build(ctx context.Context) error
}

// BuildGuard выполняет шаг сборки с защитой от OOM.
type BuildGuard interface {
	Run(ctx context.Context, step func(ctx context.Context) error) error
}

// ConfigRenderer рендерит и записывает файлы развёртывания.
type ConfigRenderer interface {
	Render(cfg *config.Config) (*render.Set, error)
	Write(ctx context.Context, cfg *config.Config, set *render.Set) error
}

// TLSProvisioner выпускает сертификат инстанса.
type TLSProvisioner interface {
	Ensure(ctx context.Context, cfg *config.Config) (tlsprov.State, error)
}

// ServiceActivator вводит сервис в строй.
type ServiceActivator interface {
	Activate(ctx context.Context) error
}
