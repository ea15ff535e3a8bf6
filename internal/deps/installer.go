package deps

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/shaiso/Tubesmith/internal/host"
	"github.com/shaiso/Tubesmith/internal/preflight"
)

// Ошибки установки зависимостей.
var (
	// ErrPackageInstall — пакетный менеджер завершился с ошибкой.
	ErrPackageInstall = errors.New("package installation failed")

	// ErrUserCreate — не удалось создать системного пользователя.
	ErrUserCreate = errors.New("system user creation failed")
)

// Требуемая мажорная версия Node.js.
const nodeMajor = 20

// basePackages — утилиты, нужные самому процессу установки.
var basePackages = []string{
	"curl", "wget", "gnupg", "lsb-release", "unzip",
	"git", "vim", "ca-certificates", "ufw",
}

// stackPackages — сервисы и тулчейн PeerTube.
var stackPackages = []string{
	"postgresql", "postgresql-contrib", "redis-server",
	"ffmpeg", "nginx", "certbot", "python3-certbot-nginx",
}

// stackUnits — сервисы, которые должны быть включены и запущены
// до конфигурирования приложения.
var stackUnits = []string{"redis-server", "postgresql", "nginx"}

// RequiredPackages возвращает полный список deb-пакетов установки.
func RequiredPackages() []string {
	out := make([]string, 0, len(basePackages)+len(stackPackages))
	out = append(out, basePackages...)
	return append(out, stackPackages...)
}

// StackUnits возвращает список сервисов стека.
func StackUnits() []string {
	out := make([]string, len(stackUnits))
	copy(out, stackUnits)
	return out
}

// NodeMajor возвращает требуемую мажорную версию Node.js.
func NodeMajor() int { return nodeMajor }

// Installer приводит зависимости хоста к требуемому состоянию.
type Installer struct {
	host   host.Host
	check  *preflight.Checker
	logger *slog.Logger
}

// NewInstaller создаёт Installer.
func NewInstaller(h host.Host, check *preflight.Checker, logger *slog.Logger) *Installer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Installer{host: h, check: check, logger: logger}
}

// EnsurePackages устанавливает недостающие пакеты, Node 20 и Yarn,
// затем включает сервисы стека.
func (i *Installer) EnsurePackages(ctx context.Context) error {
	baseMissing := i.check.MissingPackages(ctx, basePackages)
	stackMissing := i.check.MissingPackages(ctx, stackPackages)
	needNode := i.check.NodeMajor(ctx) != nodeMajor

	if len(baseMissing)+len(stackMissing) > 0 || needNode {
		if err := i.aptGet(ctx, "update", "-y"); err != nil {
			return err
		}
	}

	if len(baseMissing) > 0 {
		i.logger.Info("installing base packages", "packages", strings.Join(baseMissing, ","))
		if err := i.aptInstall(ctx, baseMissing); err != nil {
			return err
		}
	} else {
		i.logger.Info("base packages already installed")
	}

	if needNode {
		if err := i.installNode(ctx); err != nil {
			return err
		}
	} else {
		i.logger.Info("node already at required version", "major", nodeMajor)
	}

	if !i.check.CommandAvailable(ctx, "yarn") {
		i.logger.Info("installing yarn")
		if err := i.host.Run(ctx, host.Command{Name: "npm", Args: []string{"install", "-g", "yarn"}}); err != nil {
			return fmt.Errorf("%w: yarn: %v", ErrPackageInstall, err)
		}
	}

	if len(stackMissing) > 0 {
		i.logger.Info("installing stack packages", "packages", strings.Join(stackMissing, ","))
		if err := i.aptInstall(ctx, stackMissing); err != nil {
			return err
		}
	} else {
		i.logger.Info("stack packages already installed")
	}

	// Сервисы должны работать до шага базы данных; сбой включения
	// не фатален — активация в конце прогона проверит их ещё раз.
	for _, unit := range stackUnits {
		if err := i.host.Run(ctx, host.Command{
			Name: "systemctl",
			Args: []string{"enable", "--now", unit},
		}); err != nil {
			i.logger.Warn("failed to enable unit", "unit", unit, "error", err)
		}
	}

	return nil
}

// EnsureUser создаёт системного пользователя сервиса и его домашнюю
// директорию, если их ещё нет.
func (i *Installer) EnsureUser(ctx context.Context, user, home string) error {
	if i.check.UserExists(ctx, user) {
		i.logger.Info("system user already exists", "user", user)
	} else {
		i.logger.Info("creating system user", "user", user)
		if err := i.host.Run(ctx, host.Command{
			Name: "adduser",
			Args: []string{"--disabled-password", "--gecos", "", user},
		}); err != nil {
			return fmt.Errorf("%w: %v", ErrUserCreate, err)
		}
	}

	if err := i.host.MkdirAll(home, 0o755); err != nil {
		return fmt.Errorf("%w: home %s: %v", ErrUserCreate, home, err)
	}
	return nil
}

// installNode ставит Node 20 через репозиторий nodesource.
func (i *Installer) installNode(ctx context.Context) error {
	i.logger.Info("installing node", "major", nodeMajor)

	setup := fmt.Sprintf("curl -fsSL https://deb.nodesource.com/setup_%d.x | bash -", nodeMajor)
	if err := i.host.Run(ctx, host.Command{Name: "bash", Args: []string{"-c", setup}}); err != nil {
		return fmt.Errorf("%w: nodesource setup: %v", ErrPackageInstall, err)
	}
	return i.aptInstall(ctx, []string{"nodejs"})
}

func (i *Installer) aptInstall(ctx context.Context, packages []string) error {
	args := append([]string{"install", "-y"}, packages...)
	if err := i.host.Run(ctx, host.Command{
		Name: "apt-get",
		Args: args,
		Env:  []string{"DEBIAN_FRONTEND=noninteractive"},
	}); err != nil {
		return fmt.Errorf("%w: %v", ErrPackageInstall, err)
	}
	return nil
}

func (i *Installer) aptGet(ctx context.Context, args ...string) error {
	if err := i.host.Run(ctx, host.Command{Name: "apt-get", Args: args}); err != nil {
		return fmt.Errorf("%w: apt-get %s: %v", ErrPackageInstall, strings.Join(args, " "), err)
	}
	return nil
}
