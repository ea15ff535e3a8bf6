package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shaiso/Tubesmith/internal/config"
	"github.com/shaiso/Tubesmith/internal/database"
	"github.com/shaiso/Tubesmith/internal/host"
	"github.com/shaiso/Tubesmith/internal/telemetry"
	"github.com/shaiso/Tubesmith/internal/tlsprov"
)

// Имена шагов установки в порядке выполнения.
const (
	StepPackages   = "packages"
	StepSystemUser = "system-user"
	StepDatabase   = "database"
	StepFetch      = "fetch-source"
	StepInstall    = "install-deps"
	StepBuild      = "build"
	StepRender     = "render-config"
	StepTLS        = "tls"
	StepActivate   = "activate"
)

// Orchestrator выполняет шаги установки строго последовательно.
//
// Порядок фиксирован: пакеты → пользователь → база → исходники →
// зависимости → сборка (под защитой MemGuard) → рендеринг конфигов →
// TLS → активация. Фатальная ошибка любого шага прерывает прогон;
// неудача TLS деградирует инстанс до HTTP и прогон продолжается.
type Orchestrator struct {
	host      host.Host
	cfg       *config.Config
	installer PackageInstaller
	db        DatabaseProvisioner
	builder   SourceBuilder
	guard     BuildGuard
	renderer  ConfigRenderer
	tls       TLSProvisioner
	activator ServiceActivator
	metrics   *telemetry.Metrics
	logger    *slog.Logger
}

// Config — зависимости Orchestrator.
type Config struct {
	Host      host.Host
	Cfg       *config.Config
	Installer PackageInstaller
	DB        DatabaseProvisioner
	Builder   SourceBuilder
	Guard     BuildGuard
	Renderer  ConfigRenderer
	TLS       TLSProvisioner
	Activator ServiceActivator
	Metrics   *telemetry.Metrics
	Logger    *slog.Logger
}

// New создаёт Orchestrator.
func New(cfg Config) *Orchestrator {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	metrics := cfg.Metrics
	if metrics == nil {
		metrics = telemetry.NewMetrics()
	}
	return &Orchestrator{
		host:      cfg.Host,
		cfg:       cfg.Cfg,
		installer: cfg.Installer,
		db:        cfg.DB,
		builder:   cfg.Builder,
		guard:     cfg.Guard,
		renderer:  cfg.Renderer,
		tls:       cfg.TLS,
		activator: cfg.Activator,
		metrics:   metrics,
		logger:    logger,
	}
}

// Run выполняет полный прогон установки и возвращает отчёт.
//
// Отчёт возвращается и при ошибке: в нём виден шаг, на котором
// прервалась установка. Отчёт и метрики записываются на хост в любом
// исходе; неудача их записи логируется, но итог прогона не меняет.
func (o *Orchestrator) Run(ctx context.Context) (*Report, error) {
	state := NewRunState()
	logger := telemetry.WithRunID(o.logger, state.RunID().String())
	logger.Info("installation started", "domain", o.cfg.Domain, "https", o.cfg.HTTPS)

	tlsState := tlsprov.StatePlain
	commit := ""

	err := func() error {
		if err := o.step(ctx, state, logger, StepPackages, ErrDependency, o.installer.EnsurePackages); err != nil {
			return err
		}

		if err := o.step(ctx, state, logger, StepSystemUser, ErrDependency, func(ctx context.Context) error {
			return o.installer.EnsureUser(ctx, o.cfg.User, config.HomeDir)
		}); err != nil {
			return err
		}

		if err := o.step(ctx, state, logger, StepDatabase, ErrDependency, func(ctx context.Context) error {
			return o.db.Ensure(ctx, database.Params{
				Host: o.cfg.DBHost,
				Port: o.cfg.DBPort,
				User: o.cfg.DBUser,
				Pass: o.cfg.DBPass,
				Name: o.cfg.DBName,
			})
		}); err != nil {
			return err
		}

		if err := o.step(ctx, state, logger, StepFetch, ErrBuild, func(ctx context.Context) error {
			artifact, err := o.builder.EnsureSource(ctx)
			if err == nil {
				commit = artifact.Commit
			}
			return err
		}); err != nil {
			return err
		}

		if err := o.step(ctx, state, logger, StepInstall, ErrBuild, o.builder.InstallDeps); err != nil {
			return err
		}

		if err := o.step(ctx, state, logger, StepBuild, ErrBuild, func(ctx context.Context) error {
			return o.guard.Run(ctx, o.builder.Build)
		}); err != nil {
			return err
		}

		if err := o.step(ctx, state, logger, StepRender, ErrRender, func(ctx context.Context) error {
			set, err := o.renderer.Render(o.cfg)
			if err != nil {
				return err
			}
			return o.renderer.Write(ctx, o.cfg, set)
		}); err != nil {
			return err
		}

		// TLS — единственный нефатальный шаг
		o.tlsStep(ctx, state, logger, &tlsState)

		return o.step(ctx, state, logger, StepActivate, ErrActivation, o.activator.Activate)
	}()

	report := o.finalize(state, logger, tlsState, commit, err)
	return report, err
}

// step выполняет один фатальный шаг: таймирует, логирует, пишет
// метрику и заворачивает ошибку в классовый sentinel.
func (o *Orchestrator) step(ctx context.Context, state *RunState, logger *slog.Logger, name string, class error, fn func(ctx context.Context) error) error {
	stepLogger := telemetry.WithStep(logger, name)
	stepLogger.Info("step started")

	start := time.Now()
	err := fn(ctx)
	elapsed := time.Since(start)
	o.metrics.ObserveStep(name, elapsed, err == nil)

	if err != nil {
		state.Record(name, StepFailed, elapsed, err)
		stepLogger.Error("step failed", "duration", elapsed, "error", err)
		return &StepError{Step: name, Err: fmt.Errorf("%w: %w", class, err)}
	}

	state.Record(name, StepSucceeded, elapsed, nil)
	stepLogger.Info("step finished", "duration", elapsed)
	return nil
}

// tlsStep выполняет выпуск сертификата, не прерывая прогон при ошибке.
func (o *Orchestrator) tlsStep(ctx context.Context, state *RunState, logger *slog.Logger, tlsState *tlsprov.State) {
	stepLogger := telemetry.WithStep(logger, StepTLS)
	stepLogger.Info("step started")

	start := time.Now()
	result, err := o.tls.Ensure(ctx, o.cfg)
	elapsed := time.Since(start)
	*tlsState = result
	o.metrics.ObserveStep(StepTLS, elapsed, err == nil)

	if err != nil {
		state.Record(StepTLS, StepWarned, elapsed, fmt.Errorf("%w: %w", ErrTLS, err))
		stepLogger.Warn("certificate issuance failed, instance stays on plain http",
			"duration", elapsed, "error", err)
		return
	}

	state.Record(StepTLS, StepSucceeded, elapsed, nil)
	stepLogger.Info("step finished", "duration", elapsed, "tls", string(result))
}

// stepOrder — все шаги прогона в порядке выполнения.
var stepOrder = []string{
	StepPackages, StepSystemUser, StepDatabase, StepFetch,
	StepInstall, StepBuild, StepRender, StepTLS, StepActivate,
}

// finalize собирает отчёт, пишет его и метрики на хост.
func (o *Orchestrator) finalize(state *RunState, logger *slog.Logger, tlsState tlsprov.State, commit string, runErr error) *Report {
	// Шаги после фатальной ошибки попадают в отчёт как пропущенные
	if runErr != nil {
		recorded := make(map[string]bool)
		for _, step := range state.Steps() {
			recorded[step.Name] = true
		}
		for _, name := range stepOrder {
			if !recorded[name] {
				state.Record(name, StepSkipped, 0, nil)
			}
		}
	}

	report := &Report{
		RunID:      state.RunID().String(),
		StartedAt:  state.startedAt,
		FinishedAt: time.Now().UTC(),
		Success:    runErr == nil,
		Degraded:   runErr == nil && state.Warned(),
		TLS:        string(tlsState),
		Domain:     o.cfg.Domain,
		Commit:     commit,
		Steps:      state.Steps(),
	}

	o.metrics.ObserveRun(report.Success, report.FinishedAt)
	if err := o.metrics.WriteTextfile(o.host, config.MetricsPath); err != nil {
		logger.Warn("cannot write metrics textfile", "path", config.MetricsPath, "error", err)
	}

	if path, err := writeReport(o.host, report); err != nil {
		logger.Warn("cannot write run report", "error", err)
	} else {
		logger.Info("run report written", "path", path)
	}

	if report.Success {
		logger.Info("installation finished", "url", report.URL(), "degraded", report.Degraded)
	} else {
		logger.Error("installation failed", "error", runErr)
	}
	return report
}
