package builder

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/shaiso/Tubesmith/internal/host"
)

// Ошибки получения и сборки исходников.
var (
	// ErrFetch — не удалось получить исходники на нужной ревизии.
	ErrFetch = errors.New("source fetch failed")

	// ErrInstall — не удалось установить зависимости приложения.
	ErrInstall = errors.New("dependency install failed")

	// ErrBuild — сборка приложения завершилась с ошибкой.
	ErrBuild = errors.New("application build failed")
)

// Artifact — собранное дерево приложения на закреплённой ревизии.
type Artifact struct {
	// Dir — корень рабочей копии.
	Dir string

	// Revision — закреплённая ревизия из конфигурации.
	Revision string

	// Commit — hash коммита, в который разрешилась ревизия.
	Commit string
}

// Builder получает исходники и производит сборку от имени
// сервисного пользователя.
type Builder struct {
	host    host.Host
	fetcher Fetcher
	logger  *slog.Logger

	// Dir, URL, Revision, User — параметры из конфигурации.
	Dir      string
	URL      string
	Revision string
	User     string
}

// Config — параметры Builder.
type Config struct {
	Host     host.Host
	Fetcher  Fetcher
	Logger   *slog.Logger
	Dir      string
	URL      string
	Revision string
	User     string
}

// New создаёт Builder.
func New(cfg Config) *Builder {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	fetcher := cfg.Fetcher
	if fetcher == nil {
		fetcher = NewGitFetcher()
	}
	return &Builder{
		host:     cfg.Host,
		fetcher:  fetcher,
		logger:   logger,
		Dir:      cfg.Dir,
		URL:      cfg.URL,
		Revision: cfg.Revision,
		User:     cfg.User,
	}
}

// EnsureSource приводит рабочую копию к закреплённой ревизии.
// После изменения содержимого дерево передаётся сервисному
// пользователю: yarn запускается от его имени.
func (b *Builder) EnsureSource(ctx context.Context) (*Artifact, error) {
	commit, changed, err := b.fetcher.Ensure(ctx, b.Dir, b.URL, b.Revision)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetch, err)
	}

	if changed {
		b.logger.Info("source tree updated", "revision", b.Revision, "commit", commit)
		if err := b.host.Run(ctx, host.Command{
			Name: "chown",
			Args: []string{"-R", b.User + ":" + b.User, b.Dir},
		}); err != nil {
			return nil, fmt.Errorf("%w: chown: %v", ErrFetch, err)
		}
	} else {
		b.logger.Info("source tree already at pinned revision", "revision", b.Revision, "commit", commit)
	}

	return &Artifact{Dir: b.Dir, Revision: b.Revision, Commit: commit}, nil
}

// InstallDeps устанавливает зависимости приложения.
func (b *Builder) InstallDeps(ctx context.Context) error {
	b.logger.Info("installing application dependencies")
	err := b.host.Run(ctx, host.Command{
		Name: "yarn",
		Args: []string{"install", "--production", "--pure-lockfile"},
		Dir:  b.Dir,
		User: b.User,
	})
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInstall, err)
	}
	return nil
}

// Build собирает backend и frontend приложения.
//
// Если выходные артефакты уже существуют, сборка пропускается: так
// прерванная установка добирает недостающее, не пересобирая готовое.
// Ошибка сборки сохраняет вложенный host.ExitError — MemGuard
// различает по нему OOM kill.
func (b *Builder) Build(ctx context.Context) error {
	if b.built() {
		b.logger.Info("build outputs already present, skipping build")
		return nil
	}

	b.logger.Info("building application", "dir", b.Dir)
	err := b.host.Run(ctx, host.Command{
		Name: "yarn",
		Args: []string{"build"},
		Dir:  b.Dir,
		User: b.User,
		Env:  []string{"NODE_ENV=production"},
	})
	if err != nil {
		return fmt.Errorf("%w: %w", ErrBuild, err)
	}
	return nil
}

// built проверяет наличие выходных артефактов backend и frontend.
func (b *Builder) built() bool {
	return b.host.FileExists(filepath.Join(b.Dir, "dist")) &&
		b.host.FileExists(filepath.Join(b.Dir, "client", "dist"))
}
