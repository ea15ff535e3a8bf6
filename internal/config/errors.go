package config

import "errors"

// Ошибки загрузки конфигурации.
var (
	// ErrMissingKey — обязательный параметр не задан.
	ErrMissingKey = errors.New("required parameter missing")

	// ErrInvalidValue — параметр имеет недопустимое значение.
	ErrInvalidValue = errors.New("invalid parameter value")

	// ErrHTTPSWithoutDomain — запрошен HTTPS без доменного имени.
	// Сертификат нельзя выпустить на IP-адрес, поэтому это жёсткая
	// ошибка, а не тихий откат на HTTP.
	ErrHTTPSWithoutDomain = errors.New("https requires a domain name, not an ip address")

	// ErrSecretStore — не удалось получить или сохранить секрет.
	ErrSecretStore = errors.New("secret store failure")
)

// ValidationError — ошибка валидации параметра с контекстом.
type ValidationError struct {
	Key     string // имя параметра (PT_*)
	Message string // описание проблемы
	Err     error  // базовая ошибка
}

// Error реализует интерфейс error.
func (e *ValidationError) Error() string {
	if e.Key != "" {
		return e.Key + ": " + e.Message
	}
	return e.Message
}

// Unwrap возвращает базовую ошибку.
func (e *ValidationError) Unwrap() error {
	return e.Err
}

func missing(key string) error {
	return &ValidationError{Key: key, Message: "value is required", Err: ErrMissingKey}
}

func invalid(key, message string) error {
	return &ValidationError{Key: key, Message: message, Err: ErrInvalidValue}
}
