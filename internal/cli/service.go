package cli

import (
	"strconv"

	"github.com/spf13/cobra"

	"github.com/shaiso/Tubesmith/internal/config"
	"github.com/shaiso/Tubesmith/internal/host"
	"github.com/shaiso/Tubesmith/internal/telemetry"
)

// NewServiceCmd создаёт группу команд управления сервисом инстанса.
func NewServiceCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "service",
		Short: "Control the instance service",
	}

	cmd.AddCommand(
		newServiceVerbCmd("start", "Start the service"),
		newServiceVerbCmd("stop", "Stop the service"),
		newServiceVerbCmd("restart", "Restart the service"),
		newServiceStatusCmd(),
		newServiceLogsCmd(),
	)

	return cmd
}

// newServiceVerbCmd оборачивает простой systemctl-глагол.
func newServiceVerbCmd(verb, short string) *cobra.Command {
	return &cobra.Command{
		Use:   verb,
		Short: short,
		RunE: func(cmd *cobra.Command, args []string) error {
			h := host.NewSystem(telemetry.SetupLogger())
			return h.Run(cmd.Context(), host.Command{
				Name: "systemctl",
				Args: []string{verb, config.UnitName},
			})
		},
	}
}

func newServiceStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show service status",
		RunE: func(cmd *cobra.Command, args []string) error {
			h := host.NewSystem(telemetry.SetupLogger())
			return h.Stream(cmd.Context(), host.Command{
				Name: "systemctl",
				Args: []string{"status", config.UnitName, "--no-pager"},
			})
		},
	}
}

func newServiceLogsCmd() *cobra.Command {
	var lines int
	var follow bool

	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Show service logs",
		RunE: func(cmd *cobra.Command, args []string) error {
			h := host.NewSystem(telemetry.SetupLogger())

			jcArgs := []string{"-u", config.UnitName, "-n", strconv.Itoa(lines), "--no-pager"}
			if follow {
				jcArgs = append(jcArgs, "-f")
			}
			return h.Stream(cmd.Context(), host.Command{Name: "journalctl", Args: jcArgs})
		},
	}

	cmd.Flags().IntVar(&lines, "lines", 50, "Number of journal lines to show")
	cmd.Flags().BoolVar(&follow, "follow", false, "Follow the journal")
	return cmd
}
