package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/shaiso/Tubesmith/internal/config"
	"github.com/shaiso/Tubesmith/internal/host"
	"github.com/shaiso/Tubesmith/internal/render"
	"github.com/shaiso/Tubesmith/internal/telemetry"
)

// NewRenderCmd создаёт команду render — dry-run рендеринг файлов
// развёртывания. Хост не изменяется: секрет берётся из PT_SECRET или
// генерируется эфемерно, результат уходит в stdout либо в --out.
func NewRenderCmd(app *App) *cobra.Command {
	var outDir string

	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render deployment files without touching the host",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := telemetry.SetupLogger()

			params, err := app.Params()
			if err != nil {
				return err
			}
			cfg, err := config.Load(params, &config.MemorySecretStore{})
			if err != nil {
				return err
			}

			set, err := render.NewRenderer(host.NewSystem(logger), logger).Render(cfg)
			if err != nil {
				return err
			}

			if outDir == "" {
				printSet(set)
				return nil
			}
			return writeSet(outDir, set, app.Output())
		},
	}

	cmd.Flags().StringVar(&outDir, "out", "", "Directory to write the rendered files into")
	return cmd
}

func printSet(set *render.Set) {
	fmt.Println("--- production.yaml ---")
	os.Stdout.Write(set.AppConfig)
	fmt.Println("--- nginx site ---")
	os.Stdout.Write(set.NginxSite)
	fmt.Println("--- systemd unit ---")
	os.Stdout.Write(set.Unit)
}

func writeSet(dir string, set *render.Set, out *Output) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}

	files := []struct {
		name string
		data []byte
	}{
		{"production.yaml", set.AppConfig},
		{"peertube.nginx.conf", set.NginxSite},
		{"peertube.service", set.Unit},
	}
	for _, f := range files {
		path := filepath.Join(dir, f.name)
		if err := os.WriteFile(path, f.data, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
	}

	out.Success(fmt.Sprintf("Rendered %d files into %s", len(files), dir))
	return nil
}
