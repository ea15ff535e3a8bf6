package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/shaiso/Tubesmith/internal/config"
)

// defaultEnvFile — параметр-файл, который установщик ищет рядом
// с собой, когда --env-file не задан.
const defaultEnvFile = "pt.env"

// App — общие флаги всех команд CLI.
type App struct {
	// EnvFile — путь к параметр-файлу KEY=VALUE.
	EnvFile string

	// JSON — выводить данные в JSON вместо таблиц.
	JSON bool
}

// Params собирает параметры установки: параметр-файл, поверх него —
// переменные окружения. Отсутствие файла по умолчанию — не ошибка;
// явно заданный --env-file обязан существовать.
func (a *App) Params() (map[string]string, error) {
	fileParams := map[string]string{}

	data, err := os.ReadFile(a.EnvFile)
	switch {
	case err == nil:
		if fileParams, err = config.ParseEnvFile(data); err != nil {
			return nil, fmt.Errorf("parse %s: %w", a.EnvFile, err)
		}
	case errors.Is(err, fs.ErrNotExist) && a.EnvFile == defaultEnvFile:
		// Файла по умолчанию может не быть
	default:
		return nil, fmt.Errorf("read %s: %w", a.EnvFile, err)
	}

	return config.Params(fileParams), nil
}

// Output создаёт Output в выбранном режиме.
func (a *App) Output() *Output {
	return NewOutput(a.JSON)
}
