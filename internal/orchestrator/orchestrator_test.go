package orchestrator

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/shaiso/Tubesmith/internal/builder"
	"github.com/shaiso/Tubesmith/internal/config"
	"github.com/shaiso/Tubesmith/internal/database"
	"github.com/shaiso/Tubesmith/internal/host"
	"github.com/shaiso/Tubesmith/internal/render"
	"github.com/shaiso/Tubesmith/internal/tlsprov"
)

// stubComponents — заглушки всех шагов с общим журналом вызовов.
type stubComponents struct {
	calls []string
	fail  map[string]error
}

func newStubs() *stubComponents {
	return &stubComponents{fail: make(map[string]error)}
}

func (s *stubComponents) call(name string) error {
	s.calls = append(s.calls, name)
	return s.fail[name]
}

func (s *stubComponents) EnsurePackages(ctx context.Context) error { return s.call(StepPackages) }

func (s *stubComponents) EnsureUser(ctx context.Context, user, home string) error {
	return s.call(StepSystemUser)
}

func (s *stubComponents) Ensure(ctx context.Context, params database.Params) error {
	return s.call(StepDatabase)
}

func (s *stubComponents) EnsureSource(ctx context.Context) (*builder.Artifact, error) {
	if err := s.call(StepFetch); err != nil {
		return nil, err
	}
	return &builder.Artifact{Dir: config.AppDir, Revision: "production", Commit: "abc123"}, nil
}

func (s *stubComponents) InstallDeps(ctx context.Context) error { return s.call(StepInstall) }

func (s *stubComponents) Build(ctx context.Context) error { return s.call(StepBuild) }

func (s *stubComponents) Run(ctx context.Context, step func(ctx context.Context) error) error {
	s.calls = append(s.calls, "guard")
	return step(ctx)
}

func (s *stubComponents) Render(cfg *config.Config) (*render.Set, error) {
	if err := s.call(StepRender); err != nil {
		return nil, err
	}
	return &render.Set{}, nil
}

func (s *stubComponents) Write(ctx context.Context, cfg *config.Config, set *render.Set) error {
	return nil
}

func (s *stubComponents) TLSEnsure(ctx context.Context, cfg *config.Config) (tlsprov.State, error) {
	if err := s.call(StepTLS); err != nil {
		return tlsprov.StatePlain, err
	}
	if cfg.HTTPS {
		return tlsprov.StateSecured, nil
	}
	return tlsprov.StatePlain, nil
}

func (s *stubComponents) Activate(ctx context.Context) error { return s.call(StepActivate) }

// tlsAdapter подгоняет stubComponents под TLSProvisioner: имя Ensure
// уже занято заглушкой базы данных.
type tlsAdapter struct{ s *stubComponents }

func (a tlsAdapter) Ensure(ctx context.Context, cfg *config.Config) (tlsprov.State, error) {
	return a.s.TLSEnsure(ctx, cfg)
}

func testConfig() *config.Config {
	return &config.Config{
		Domain:      "tube.example.org",
		HTTPS:       true,
		WebPort:     9000,
		DBHost:      "127.0.0.1",
		DBPort:      5432,
		DBUser:      "peertube",
		DBPass:      "s3cret",
		DBName:      "peertube",
		Languages:   []string{"en"},
		Resolutions: []string{"720p"},
		Revision:    "production",
		User:        "peertube",
		Secret:      strings.Repeat("ab", 32),
	}
}

func newOrchestrator(h host.Host, stubs *stubComponents) *Orchestrator {
	return New(Config{
		Host:      h,
		Cfg:       testConfig(),
		Installer: stubs,
		DB:        stubs,
		Builder:   stubs,
		Guard:     stubs,
		Renderer:  stubs,
		TLS:       tlsAdapter{stubs},
		Activator: stubs,
	})
}

func TestRun_Success(t *testing.T) {
	h := host.NewFake()
	stubs := newStubs()

	report, err := newOrchestrator(h, stubs).Run(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	wantOrder := []string{
		StepPackages, StepSystemUser, StepDatabase, StepFetch,
		StepInstall, "guard", StepBuild, StepRender, StepTLS, StepActivate,
	}
	if len(stubs.calls) != len(wantOrder) {
		t.Fatalf("calls = %v, want %v", stubs.calls, wantOrder)
	}
	for i, want := range wantOrder {
		if stubs.calls[i] != want {
			t.Errorf("calls[%d] = %q, want %q", i, stubs.calls[i], want)
		}
	}

	if !report.Success || report.Degraded {
		t.Errorf("report = %+v, want success and not degraded", report)
	}
	if report.TLS != string(tlsprov.StateSecured) {
		t.Errorf("tls state = %q, want secured", report.TLS)
	}
	if report.Commit != "abc123" {
		t.Errorf("commit = %q, want abc123", report.Commit)
	}
	if report.URL() != "https://tube.example.org" {
		t.Errorf("url = %q", report.URL())
	}
}

func TestRun_DependencyFailureAborts(t *testing.T) {
	h := host.NewFake()
	stubs := newStubs()
	stubs.fail[StepPackages] = errors.New("apt broke")

	report, err := newOrchestrator(h, stubs).Run(context.Background())
	if !errors.Is(err, ErrDependency) {
		t.Fatalf("expected ErrDependency, got %v", err)
	}

	var stepErr *StepError
	if !errors.As(err, &stepErr) || stepErr.Step != StepPackages {
		t.Errorf("expected StepError for %q, got %v", StepPackages, err)
	}

	if len(stubs.calls) != 1 {
		t.Errorf("later steps must not run, calls = %v", stubs.calls)
	}
	if report.Success {
		t.Error("report must record failure")
	}

	byName := make(map[string]StepStatus)
	for _, step := range report.Steps {
		byName[step.Name] = step.Status
	}
	if byName[StepPackages] != StepFailed {
		t.Errorf("packages status = %q", byName[StepPackages])
	}
	if byName[StepActivate] != StepSkipped {
		t.Errorf("unreached steps must appear as skipped, activate = %q", byName[StepActivate])
	}
}

func TestRun_TLSFailureDegrades(t *testing.T) {
	h := host.NewFake()
	stubs := newStubs()
	stubs.fail[StepTLS] = tlsprov.ErrCertIssue

	report, err := newOrchestrator(h, stubs).Run(context.Background())
	if err != nil {
		t.Fatalf("tls failure must not fail the run: %v", err)
	}

	if !report.Success || !report.Degraded {
		t.Errorf("report = %+v, want success and degraded", report)
	}
	if report.TLS != string(tlsprov.StatePlain) {
		t.Errorf("tls state = %q, want plain", report.TLS)
	}
	if report.URL() != "http://tube.example.org" {
		t.Errorf("degraded url = %q, want plain http", report.URL())
	}

	// Активация всё равно выполнена
	last := stubs.calls[len(stubs.calls)-1]
	if last != StepActivate {
		t.Errorf("last call = %q, want %q", last, StepActivate)
	}
}

func TestRun_BuildFailureClassified(t *testing.T) {
	h := host.NewFake()
	stubs := newStubs()
	stubs.fail[StepBuild] = &host.ExitError{Cmd: "yarn build", Outcome: host.Outcome{ExitCode: 137, OOMKilled: true}}

	_, err := newOrchestrator(h, stubs).Run(context.Background())
	if !errors.Is(err, ErrBuild) {
		t.Fatalf("expected ErrBuild, got %v", err)
	}
	if !host.IsOOM(err) {
		t.Error("OOM signal must survive orchestrator wrapping")
	}
}

func TestRun_WritesReportAndMetrics(t *testing.T) {
	h := host.NewFake()
	stubs := newStubs()

	report, err := newOrchestrator(h, stubs).Run(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	reportPath := config.ReportDir + "/run-" + report.RunID + ".json"
	data, ok := h.Files[reportPath]
	if !ok {
		t.Fatalf("run report not written, files: %v", len(h.Files))
	}
	if !strings.Contains(string(data), `"success": true`) {
		t.Errorf("report content unexpected: %s", data)
	}

	metrics, ok := h.Files[config.MetricsPath]
	if !ok {
		t.Fatal("metrics textfile not written")
	}
	if !strings.Contains(string(metrics), "tubesmith_run_success") {
		t.Errorf("metrics content unexpected: %s", metrics)
	}
}

func TestRun_StepStatusesRecorded(t *testing.T) {
	h := host.NewFake()
	stubs := newStubs()
	stubs.fail[StepActivate] = errors.New("unit dead")

	report, _ := newOrchestrator(h, stubs).Run(context.Background())

	byName := make(map[string]StepStatus)
	for _, step := range report.Steps {
		byName[step.Name] = step.Status
	}
	if byName[StepPackages] != StepSucceeded {
		t.Errorf("packages status = %q", byName[StepPackages])
	}
	if byName[StepActivate] != StepFailed {
		t.Errorf("activate status = %q", byName[StepActivate])
	}
}
