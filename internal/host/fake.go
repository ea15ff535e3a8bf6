package host

import (
	"context"
	"io/fs"
	"strings"
	"sync"
)

// Fake — in-memory реализация Host для тестов.
//
// Записывает все выполненные команды и позволяет заранее задать
// результат для команд по префиксу:
//
//	h := host.NewFake()
//	h.Respond("dpkg-query -W nginx", "", &host.ExitError{...})
//	h.RespondN("yarn build", 1, "", oomErr) // только первый вызов
//
// Команды без заданного результата завершаются успешно.
type Fake struct {
	mu sync.Mutex

	// Files — содержимое файловой системы фейка.
	Files map[string][]byte

	// Perms — права записанных файлов.
	Perms map[string]fs.FileMode

	// Links — созданные симлинки (link → target).
	Links map[string]string

	// Mem — что возвращает MemInfo().
	Mem MemInfo

	commands  []Command
	responses []*fakeResponse
}

type fakeResponse struct {
	prefix    string
	out       string
	err       error
	remaining int // -1 — без ограничения
}

// NewFake создаёт пустой Fake.
func NewFake() *Fake {
	return &Fake{
		Files: make(map[string][]byte),
		Perms: make(map[string]fs.FileMode),
		Links: make(map[string]string),
		Mem:   MemInfo{TotalMB: 4096, SwapTotalMB: 0},
	}
}

// Respond задаёт результат для всех команд с данным префиксом.
func (f *Fake) Respond(prefix, out string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.responses = append(f.responses, &fakeResponse{prefix: prefix, out: out, err: err, remaining: -1})
}

// RespondN задаёт результат только для первых n вызовов команды.
func (f *Fake) RespondN(prefix string, n int, out string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.responses = append(f.responses, &fakeResponse{prefix: prefix, out: out, err: err, remaining: n})
}

// Run выполняет команду фейка.
func (f *Fake) Run(ctx context.Context, cmd Command) error {
	_, err := f.dispatch(cmd)
	return err
}

// Output выполняет команду и возвращает заданный stdout.
func (f *Fake) Output(ctx context.Context, cmd Command) (string, error) {
	return f.dispatch(cmd)
}

// Stream ведёт себя как Run.
func (f *Fake) Stream(ctx context.Context, cmd Command) error {
	_, err := f.dispatch(cmd)
	return err
}

func (f *Fake) dispatch(cmd Command) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.commands = append(f.commands, cmd)

	line := cmd.String()
	for _, r := range f.responses {
		if r.remaining == 0 || !strings.HasPrefix(line, r.prefix) {
			continue
		}
		if r.remaining > 0 {
			r.remaining--
		}
		return r.out, r.err
	}
	return "", nil
}

// ReadFile читает файл фейка.
func (f *Fake) ReadFile(path string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	data, ok := f.Files[path]
	if !ok {
		return nil, fs.ErrNotExist
	}
	return data, nil
}

// WriteFile записывает файл фейка.
func (f *Fake) WriteFile(path string, data []byte, perm fs.FileMode) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.Files[path] = data
	f.Perms[path] = perm
	return nil
}

// FileExists проверяет наличие файла, директории или симлинка.
func (f *Fake) FileExists(path string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.Files[path]; ok {
		return true
	}
	if _, ok := f.Links[path]; ok {
		return true
	}
	// Директория существует, если в ней есть хоть один файл
	prefix := strings.TrimSuffix(path, "/") + "/"
	for p := range f.Files {
		if strings.HasPrefix(p, prefix) {
			return true
		}
	}
	return false
}

// MkdirAll — no-op: директории фейка существуют неявно.
func (f *Fake) MkdirAll(path string, perm fs.FileMode) error {
	return nil
}

// Symlink записывает симлинк.
func (f *Fake) Symlink(target, link string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.Links[link] = target
	return nil
}

// MemInfo возвращает заданные сведения о памяти.
func (f *Fake) MemInfo() (MemInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.Mem, nil
}

// Commands возвращает копию списка выполненных команд.
func (f *Fake) Commands() []Command {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make([]Command, len(f.commands))
	copy(out, f.commands)
	return out
}

// CommandLines возвращает выполненные команды в строковом виде.
func (f *Fake) CommandLines() []string {
	cmds := f.Commands()
	lines := make([]string, len(cmds))
	for i, c := range cmds {
		lines[i] = c.String()
	}
	return lines
}

// Ran проверяет, выполнялась ли команда с данным префиксом.
func (f *Fake) Ran(prefix string) bool {
	return f.RanCount(prefix) > 0
}

// RanCount возвращает число команд с данным префиксом.
func (f *Fake) RanCount(prefix string) int {
	count := 0
	for _, line := range f.CommandLines() {
		if strings.HasPrefix(line, prefix) {
			count++
		}
	}
	return count
}
