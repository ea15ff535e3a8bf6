package activator

import (
	"errors"
	"fmt"
)

// ErrActivation — сервис не удалось ввести в строй.
var ErrActivation = errors.New("service activation failed")

// ActivationError — ошибка активации с диагностикой сервис-менеджера.
type ActivationError struct {
	// Unit — unit, который не запустился.
	Unit string

	// Reason — что именно не удалось.
	Reason string

	// Journal — последние строки журнала unit, если их удалось снять.
	Journal string
}

// Error реализует интерфейс error.
func (e *ActivationError) Error() string {
	if e.Journal != "" {
		return fmt.Sprintf("unit %s: %s\nrecent journal:\n%s", e.Unit, e.Reason, e.Journal)
	}
	return fmt.Sprintf("unit %s: %s", e.Unit, e.Reason)
}

// Unwrap связывает ActivationError с ErrActivation.
func (e *ActivationError) Unwrap() error {
	return ErrActivation
}
