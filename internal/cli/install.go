package cli

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/shaiso/Tubesmith/internal/activator"
	"github.com/shaiso/Tubesmith/internal/builder"
	"github.com/shaiso/Tubesmith/internal/config"
	"github.com/shaiso/Tubesmith/internal/database"
	"github.com/shaiso/Tubesmith/internal/deps"
	"github.com/shaiso/Tubesmith/internal/host"
	"github.com/shaiso/Tubesmith/internal/memguard"
	"github.com/shaiso/Tubesmith/internal/orchestrator"
	"github.com/shaiso/Tubesmith/internal/preflight"
	"github.com/shaiso/Tubesmith/internal/render"
	"github.com/shaiso/Tubesmith/internal/telemetry"
	"github.com/shaiso/Tubesmith/internal/tlsprov"
)

// NewInstallCmd создаёт команду install — полный прогон установки.
func NewInstallCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "install",
		Short: "Provision the host and bring the instance online",
		RunE: func(cmd *cobra.Command, args []string) error {
			if os.Geteuid() != 0 {
				return fmt.Errorf("%w: install must run as root", orchestrator.ErrConfig)
			}

			logger := telemetry.SetupLogger()
			h := host.NewSystem(logger)

			params, err := app.Params()
			if err != nil {
				return fmt.Errorf("%w: %v", orchestrator.ErrConfig, err)
			}
			cfg, err := config.Load(params, config.NewFileSecretStore(h))
			if err != nil {
				return fmt.Errorf("%w: %v", orchestrator.ErrConfig, err)
			}

			check := preflight.NewChecker(h)
			orc := orchestrator.New(orchestrator.Config{
				Host:      h,
				Cfg:       cfg,
				Installer: deps.NewInstaller(h, check, logger),
				DB:        database.NewProvisioner(h, logger),
				Builder: builder.New(builder.Config{
					Host:     h,
					Logger:   logger,
					Dir:      config.AppDir,
					URL:      config.RepoURL,
					Revision: cfg.Revision,
					User:     cfg.User,
				}),
				Guard:     memguard.NewGuard(h, logger),
				Renderer:  render.NewRenderer(h, logger),
				TLS:       tlsprov.NewProvisioner(h, logger),
				Activator: activator.New(h, check, logger),
				Logger:    logger,
			})

			report, runErr := orc.Run(cmd.Context())

			out := app.Output()
			if report != nil {
				headers := []string{"STEP", "STATUS", "DURATION_MS", "ERROR"}
				rows := make([][]string, len(report.Steps))
				for i, step := range report.Steps {
					rows[i] = []string{step.Name, string(step.Status), strconv.FormatInt(step.DurationMS, 10), step.Error}
				}
				out.Print(headers, rows, report)
			}
			if runErr != nil {
				return runErr
			}

			if report.Degraded {
				out.Success(fmt.Sprintf("Instance ready (without TLS): %s", report.URL()))
			} else {
				out.Success(fmt.Sprintf("Instance ready: %s", report.URL()))
			}
			return nil
		},
	}
}
