// Tubesmith — unattended-установщик PeerTube: превращает чистый
// Ubuntu-хост в работающий инстанс.
//
// Использование:
//
//	tubesmith [--env-file FILE] [--json] <command> [flags]
//
// Команды:
//
//	install  Полный прогон установки (требует root)
//	check    Снимок состояния хоста без изменений
//	render   Dry-run рендеринг файлов развёртывания
//	service  Управление сервисом инстанса
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/shaiso/Tubesmith/internal/cli"
)

// version задаётся через ldflags при сборке.
var version = "dev"

func main() {
	app := &cli.App{}

	rootCmd := &cobra.Command{
		Use:           "tubesmith",
		Short:         "Tubesmith — PeerTube provisioning tool",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&app.EnvFile, "env-file", "pt.env", "Parameter file (KEY=VALUE)")
	rootCmd.PersistentFlags().BoolVar(&app.JSON, "json", false, "Output in JSON format")

	rootCmd.AddCommand(
		cli.NewInstallCmd(app),
		cli.NewCheckCmd(app),
		cli.NewRenderCmd(app),
		cli.NewServiceCmd(app),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
