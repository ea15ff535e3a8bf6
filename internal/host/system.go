package host

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
)

// stderrTailLimit — сколько байт stderr сохранять в Outcome.
const stderrTailLimit = 4096

// System — реализация Host поверх реального хоста.
type System struct {
	logger *slog.Logger
}

// NewSystem создаёт System с указанным логгером.
func NewSystem(logger *slog.Logger) *System {
	if logger == nil {
		logger = slog.Default()
	}
	return &System{logger: logger}
}

// Run выполняет команду, дожидаясь завершения.
func (s *System) Run(ctx context.Context, cmd Command) error {
	execCmd := s.build(ctx, cmd)

	var stderr bytes.Buffer
	execCmd.Stdout = os.Stdout
	execCmd.Stderr = &tailWriter{limit: stderrTailLimit, buf: &stderr, passthrough: os.Stderr}

	s.logger.Debug("exec", "cmd", cmd.String(), "dir", cmd.Dir, "user", cmd.User)

	err := execCmd.Run()
	if err == nil {
		return nil
	}

	var execExit *exec.ExitError
	if !errors.As(err, &execExit) {
		return fmt.Errorf("spawn %q: %w", cmd.String(), err)
	}

	return &ExitError{
		Cmd:     cmd.String(),
		Outcome: outcomeFromState(execExit, strings.TrimSpace(stderr.String())),
	}
}

// Output выполняет команду и возвращает её stdout.
func (s *System) Output(ctx context.Context, cmd Command) (string, error) {
	execCmd := s.build(ctx, cmd)

	var stdout, stderr bytes.Buffer
	execCmd.Stdout = &stdout
	execCmd.Stderr = &tailWriter{limit: stderrTailLimit, buf: &stderr}

	err := execCmd.Run()
	if err == nil {
		return stdout.String(), nil
	}

	var execExit *exec.ExitError
	if !errors.As(err, &execExit) {
		return "", fmt.Errorf("spawn %q: %w", cmd.String(), err)
	}

	return stdout.String(), &ExitError{
		Cmd:     cmd.String(),
		Outcome: outcomeFromState(execExit, strings.TrimSpace(stderr.String())),
	}
}

// Stream выполняет команду с прямым выводом в терминал.
func (s *System) Stream(ctx context.Context, cmd Command) error {
	execCmd := s.build(ctx, cmd)
	execCmd.Stdout = os.Stdout
	execCmd.Stderr = os.Stderr
	execCmd.Stdin = os.Stdin

	if err := execCmd.Run(); err != nil {
		var execExit *exec.ExitError
		if errors.As(err, &execExit) {
			return &ExitError{Cmd: cmd.String(), Outcome: outcomeFromState(execExit, "")}
		}
		return fmt.Errorf("spawn %q: %w", cmd.String(), err)
	}
	return nil
}

// build собирает *exec.Cmd с учётом Dir, User и Env.
//
// Выполнение от имени другого пользователя идёт через sudo с login
// shell, чтобы пользовательское окружение (PATH для node/yarn) было
// настроено так же, как при интерактивном входе.
func (s *System) build(ctx context.Context, cmd Command) *exec.Cmd {
	if cmd.User != "" && os.Geteuid() == 0 {
		return exec.CommandContext(ctx, "sudo", "-u", cmd.User, "bash", "-lc", sudoInner(cmd))
	}

	execCmd := exec.CommandContext(ctx, cmd.Name, cmd.Args...)
	execCmd.Dir = cmd.Dir
	if len(cmd.Env) > 0 {
		execCmd.Env = append(os.Environ(), cmd.Env...)
	}
	return execCmd
}

// sudoInner собирает внутреннюю строку для sudo -u USER bash -lc.
//
// Имя команды и каждый аргумент экранируются по отдельности: иначе
// bash расщепил бы многословные аргументы (целый SQL-запрос для psql)
// и интерпретировал бы подстановки в значениях, пришедших от
// оператора. Env передаётся префиксными присваиваниями внутри самой
// строки: sudo с env_reset сбрасывает окружение самого процесса.
func sudoInner(cmd Command) string {
	parts := make([]string, 0, len(cmd.Env)+len(cmd.Args)+1)
	for _, kv := range cmd.Env {
		key, value, _ := strings.Cut(kv, "=")
		parts = append(parts, key+"="+shellQuote(value))
	}
	parts = append(parts, shellQuote(cmd.Name))
	for _, arg := range cmd.Args {
		parts = append(parts, shellQuote(arg))
	}

	inner := strings.Join(parts, " ")
	if cmd.Dir != "" {
		inner = fmt.Sprintf("cd %s && %s", shellQuote(cmd.Dir), inner)
	}
	return inner
}

// ReadFile читает файл хоста.
func (s *System) ReadFile(path string) ([]byte, error) {
	return os.ReadFile(path)
}

// WriteFile записывает файл, создавая родительские директории.
func (s *System) WriteFile(path string, data []byte, perm fs.FileMode) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("mkdir for %s: %w", path, err)
	}
	if err := os.WriteFile(path, data, perm); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	// WriteFile не меняет права существующего файла
	if err := os.Chmod(path, perm); err != nil {
		return fmt.Errorf("chmod %s: %w", path, err)
	}
	return nil
}

// FileExists проверяет существование файла или директории.
func (s *System) FileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// MkdirAll создаёт директорию вместе с родительскими.
func (s *System) MkdirAll(path string, perm fs.FileMode) error {
	return os.MkdirAll(path, perm)
}

// Symlink создаёт символическую ссылку.
func (s *System) Symlink(target, link string) error {
	err := os.Symlink(target, link)
	if err == nil || os.IsExist(err) {
		return nil
	}
	return fmt.Errorf("symlink %s -> %s: %w", link, target, err)
}

// MemInfo читает /proc/meminfo.
func (s *System) MemInfo() (MemInfo, error) {
	data, err := os.ReadFile("/proc/meminfo")
	if err != nil {
		return MemInfo{}, fmt.Errorf("read meminfo: %w", err)
	}
	return ParseMemInfo(data)
}

// ParseMemInfo разбирает содержимое /proc/meminfo.
func ParseMemInfo(data []byte) (MemInfo, error) {
	var info MemInfo
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) < 2 {
			continue
		}
		// Значения в meminfo указаны в kB
		kb, err := strconv.ParseInt(fields[1], 10, 64)
		if err != nil {
			continue
		}
		switch fields[0] {
		case "MemTotal:":
			info.TotalMB = kb / 1024
		case "SwapTotal:":
			info.SwapTotalMB = kb / 1024
		}
	}
	if err := scanner.Err(); err != nil {
		return MemInfo{}, fmt.Errorf("scan meminfo: %w", err)
	}
	return info, nil
}

// outcomeFromState классифицирует завершение процесса.
//
// OOM killer завершает процесс сигналом SIGKILL; в wait status это
// видно как Signaled()+SIGKILL, а через shell — как код 137 (128+9).
func outcomeFromState(execExit *exec.ExitError, stderr string) Outcome {
	outcome := Outcome{
		ExitCode: execExit.ExitCode(),
		Stderr:   stderr,
	}

	if ws, ok := execExit.Sys().(syscall.WaitStatus); ok {
		if ws.Signaled() && ws.Signal() == syscall.SIGKILL {
			outcome.OOMKilled = true
		}
	}
	if outcome.ExitCode == 137 {
		outcome.OOMKilled = true
	}

	return outcome
}

// shellQuote экранирует строку для bash -lc.
func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

// tailWriter сохраняет последние limit байт потока.
type tailWriter struct {
	limit       int
	buf         *bytes.Buffer
	passthrough *os.File
}

// Write реализует io.Writer.
func (w *tailWriter) Write(p []byte) (int, error) {
	if w.passthrough != nil {
		w.passthrough.Write(p)
	}
	w.buf.Write(p)
	if w.buf.Len() > w.limit {
		trimmed := w.buf.Bytes()[w.buf.Len()-w.limit:]
		rest := make([]byte, len(trimmed))
		copy(rest, trimmed)
		w.buf.Reset()
		w.buf.Write(rest)
	}
	return len(p), nil
}
