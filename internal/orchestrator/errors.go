package orchestrator

import (
	"errors"
	"fmt"
)

// Классы ошибок установки. Каждый шаг заворачивает свою ошибку в
// класс, по которому CLI выбирает код выхода и формулировку.
var (
	// ErrConfig — параметры установки невалидны. Возникает до любых
	// изменений хоста.
	ErrConfig = errors.New("configuration error")

	// ErrDependency — не удалось подготовить системную зависимость
	// (пакет, сервисный пользователь, база данных).
	ErrDependency = errors.New("dependency error")

	// ErrBuild — получение исходников или сборка приложения не удались.
	ErrBuild = errors.New("build error")

	// ErrRender — рендеринг файлов развёртывания дал невалидный
	// результат; на хост ничего не записано.
	ErrRender = errors.New("render error")

	// ErrTLS — выпуск сертификата не удался. Единственный нефатальный
	// класс: установка продолжается без HTTPS.
	ErrTLS = errors.New("tls error")

	// ErrActivation — сервис не вышел в рабочее состояние.
	ErrActivation = errors.New("activation error")
)

// StepError — ошибка конкретного шага установки.
type StepError struct {
	// Step — имя шага, на котором прервалась установка.
	Step string

	// Err — ошибка шага, завёрнутая в классовый sentinel.
	Err error
}

// Error реализует интерфейс error.
func (e *StepError) Error() string {
	return fmt.Sprintf("step %s: %v", e.Step, e.Err)
}

// Unwrap отдаёт вложенную ошибку для errors.Is/As.
func (e *StepError) Unwrap() error {
	return e.Err
}
