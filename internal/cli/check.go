package cli

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/shaiso/Tubesmith/internal/config"
	"github.com/shaiso/Tubesmith/internal/deps"
	"github.com/shaiso/Tubesmith/internal/host"
	"github.com/shaiso/Tubesmith/internal/preflight"
	"github.com/shaiso/Tubesmith/internal/telemetry"
)

// checkEntry — одна строка отчёта check.
type checkEntry struct {
	Check  string `json:"check"`
	Status string `json:"status"`
	Detail string `json:"detail,omitempty"`
}

// NewCheckCmd создаёт команду check — read-only снимок состояния
// хоста. Ничего не изменяет, безопасна на любом хосте.
func NewCheckCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Inspect host state without changing anything",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := telemetry.SetupLogger()
			h := host.NewSystem(logger)

			params, err := app.Params()
			if err != nil {
				return err
			}
			user := params["PT_USER"]
			if user == "" {
				user = "peertube"
			}

			entries := collectChecks(cmd.Context(), preflight.NewChecker(h), user)

			headers := []string{"CHECK", "STATUS", "DETAIL"}
			rows := make([][]string, len(entries))
			for i, e := range entries {
				rows[i] = []string{e.Check, e.Status, e.Detail}
			}
			app.Output().Print(headers, rows, entries)
			return nil
		},
	}
}

// collectChecks опрашивает хост по всем предикатам preflight.
func collectChecks(ctx context.Context, check *preflight.Checker, user string) []checkEntry {
	var entries []checkEntry
	mark := func(name string, ok bool, detail string) {
		status := "ok"
		if !ok {
			status = "missing"
		}
		entries = append(entries, checkEntry{Check: name, Status: status, Detail: detail})
	}

	missing := check.MissingPackages(ctx, deps.RequiredPackages())
	if len(missing) == 0 {
		mark("packages", true, "")
	} else {
		mark("packages", false, fmt.Sprintf("%d missing: %v", len(missing), missing))
	}

	major := check.NodeMajor(ctx)
	mark("node", major == deps.NodeMajor(), fmt.Sprintf("major version %d, want %d", major, deps.NodeMajor()))
	mark("yarn", check.CommandAvailable(ctx, "yarn"), "")
	mark("system user "+user, check.UserExists(ctx, user), "")

	for _, unit := range deps.StackUnits() {
		mark("unit "+unit, check.UnitActive(ctx, unit), "")
	}
	mark("unit "+config.UnitName, check.UnitActive(ctx, config.UnitName), "")
	mark("unit file", check.UnitFileExists(config.UnitPath), config.UnitPath)

	memMB := check.MemTotalMB()
	swapMB := check.SwapTotalMB()
	entries = append(entries, checkEntry{
		Check:  "memory",
		Status: "info",
		Detail: strconv.FormatInt(memMB, 10) + " MB RAM, " + strconv.FormatInt(swapMB, 10) + " MB swap",
	})

	if check.FirewallActive(ctx) {
		entries = append(entries, checkEntry{Check: "firewall", Status: "info", Detail: "ufw active"})
	} else {
		entries = append(entries, checkEntry{Check: "firewall", Status: "info", Detail: "ufw inactive"})
	}

	return entries
}
