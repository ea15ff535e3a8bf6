package host

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"strings"
)

// Command — описание внешней команды для выполнения на хосте.
type Command struct {
	// Name — имя исполняемого файла.
	Name string

	// Args — аргументы команды.
	Args []string

	// Dir — рабочая директория. Пустая строка — текущая.
	Dir string

	// User — системный пользователь, от имени которого выполнять.
	// Пустая строка — текущий пользователь (root).
	User string

	// Env — дополнительные переменные окружения (KEY=VALUE).
	Env []string
}

// String возвращает команду в виде одной строки для логов.
func (c Command) String() string {
	parts := append([]string{c.Name}, c.Args...)
	return strings.Join(parts, " ")
}

// Outcome — результат завершения внешнего процесса.
//
// Отличает обычное ненулевое завершение от завершения по нехватке
// памяти: OOM killer убивает процесс сигналом SIGKILL, что в shell
// видно как код 137. MemGuard опирается на это различие.
type Outcome struct {
	// ExitCode — код завершения процесса.
	ExitCode int

	// OOMKilled — процесс был убит по SIGKILL (признак OOM kill).
	OOMKilled bool

	// Stderr — последние байты stderr процесса (для диагностики).
	Stderr string
}

// ExitError — ошибка выполнения внешней команды.
//
// Возвращается из Host.Run, когда процесс завершился с ненулевым
// кодом. Несёт Outcome, чтобы вызывающий код мог различить причину
// (errors.As + проверка Outcome.OOMKilled).
type ExitError struct {
	// Cmd — команда, которая завершилась с ошибкой.
	Cmd string

	// Outcome — результат завершения процесса.
	Outcome Outcome
}

// Error реализует интерфейс error.
func (e *ExitError) Error() string {
	if e.Outcome.OOMKilled {
		return fmt.Sprintf("command %q killed (out of memory)", e.Cmd)
	}
	if e.Outcome.Stderr != "" {
		return fmt.Sprintf("command %q exited with code %d: %s", e.Cmd, e.Outcome.ExitCode, e.Outcome.Stderr)
	}
	return fmt.Sprintf("command %q exited with code %d", e.Cmd, e.Outcome.ExitCode)
}

// IsOOM проверяет, вызвана ли ошибка убийством процесса по OOM.
func IsOOM(err error) bool {
	var exitErr *ExitError
	return errors.As(err, &exitErr) && exitErr.Outcome.OOMKilled
}

// MemInfo — сведения о памяти хоста из /proc/meminfo.
type MemInfo struct {
	// TotalMB — общий объём RAM в мегабайтах.
	TotalMB int64

	// SwapTotalMB — общий объём swap в мегабайтах.
	SwapTotalMB int64
}

// Host — интерфейс хоста для всех компонентов установщика.
//
// Реализации: System (реальный хост), Fake (тесты).
type Host interface {
	// Run выполняет команду, дожидаясь завершения.
	// Ненулевой код завершения возвращается как *ExitError.
	Run(ctx context.Context, cmd Command) error

	// Output выполняет команду и возвращает её stdout.
	Output(ctx context.Context, cmd Command) (string, error)

	// Stream выполняет команду, подключив её stdout/stderr к
	// stdout/stderr процесса установщика (для service status/logs).
	Stream(ctx context.Context, cmd Command) error

	// ReadFile читает файл хоста.
	ReadFile(path string) ([]byte, error)

	// WriteFile записывает файл хоста, создавая родительские директории.
	WriteFile(path string, data []byte, perm fs.FileMode) error

	// FileExists проверяет существование файла или директории.
	FileExists(path string) bool

	// MkdirAll создаёт директорию вместе с родительскими.
	MkdirAll(path string, perm fs.FileMode) error

	// Symlink создаёт символическую ссылку. Существующая ссылка
	// на тот же target — не ошибка.
	Symlink(target, link string) error

	// MemInfo возвращает сведения о памяти хоста.
	MemInfo() (MemInfo, error)
}
