package memguard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/shaiso/Tubesmith/internal/host"
)

// ErrSwapProvision — не удалось создать или подключить swap-файл.
var ErrSwapProvision = errors.New("swap provisioning failed")

// Guard выполняет шаг с повтором после OOM kill.
type Guard struct {
	host   host.Host
	logger *slog.Logger

	// SwapPath — путь swap-файла.
	SwapPath string

	// SwapSizeMB — размер создаваемого swap-файла.
	SwapSizeMB int64

	// MinSwapMB — порог: при swap не меньше этого значения файл
	// не создаётся и повтор после OOM не выполняется.
	MinSwapMB int64
}

// NewGuard создаёт Guard с параметрами по умолчанию:
// /swapfile на 2048 MB, порог 512 MB.
func NewGuard(h host.Host, logger *slog.Logger) *Guard {
	if logger == nil {
		logger = slog.Default()
	}
	return &Guard{
		host:       h,
		logger:     logger,
		SwapPath:   "/swapfile",
		SwapSizeMB: 2048,
		MinSwapMB:  512,
	}
}

// Run выполняет step. Если step завершился OOM kill и swap на хосте
// меньше порога, Guard создаёт swap-файл и повторяет step один раз.
// Результат повтора возвращается как есть: второй OOM уже не
// перехватывается.
func (g *Guard) Run(ctx context.Context, step func(ctx context.Context) error) error {
	err := step(ctx)
	if err == nil || !host.IsOOM(err) {
		return err
	}

	mem, memErr := g.host.MemInfo()
	if memErr != nil {
		g.logger.Warn("cannot read memory info, not retrying after OOM", "error", memErr)
		return err
	}
	if mem.SwapTotalMB >= g.MinSwapMB {
		g.logger.Warn("build killed by OOM with sufficient swap, not retrying",
			"swap_mb", mem.SwapTotalMB)
		return err
	}

	g.logger.Warn("build killed by OOM, provisioning swap and retrying",
		"swap_mb", mem.SwapTotalMB, "swap_file_mb", g.SwapSizeMB)
	if swapErr := g.provisionSwap(ctx); swapErr != nil {
		return fmt.Errorf("%w (after OOM kill: %v)", swapErr, err)
	}

	return step(ctx)
}

// provisionSwap создаёт swap-файл, подключает его и прописывает
// в /etc/fstab, если строки там ещё нет.
func (g *Guard) provisionSwap(ctx context.Context) error {
	steps := []host.Command{
		{Name: "fallocate", Args: []string{"-l", fmt.Sprintf("%dM", g.SwapSizeMB), g.SwapPath}},
		{Name: "chmod", Args: []string{"600", g.SwapPath}},
		{Name: "mkswap", Args: []string{g.SwapPath}},
		{Name: "swapon", Args: []string{g.SwapPath}},
	}
	for _, cmd := range steps {
		if err := g.host.Run(ctx, cmd); err != nil {
			return fmt.Errorf("%w: %s: %v", ErrSwapProvision, cmd.Name, err)
		}
	}

	if err := g.ensureFstab(); err != nil {
		return fmt.Errorf("%w: fstab: %v", ErrSwapProvision, err)
	}
	return nil
}

// ensureFstab добавляет строку swap-файла в /etc/fstab один раз.
func (g *Guard) ensureFstab() error {
	const fstab = "/etc/fstab"
	entry := g.SwapPath + " none swap sw 0 0"

	data, err := g.host.ReadFile(fstab)
	if err == nil {
		for _, line := range strings.Split(string(data), "\n") {
			if strings.TrimSpace(line) == entry {
				return nil
			}
		}
	}

	content := string(data)
	if content != "" && !strings.HasSuffix(content, "\n") {
		content += "\n"
	}
	content += entry + "\n"
	return g.host.WriteFile(fstab, []byte(content), 0o644)
}
