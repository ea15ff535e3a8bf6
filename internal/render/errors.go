package render

import "errors"

// Ошибки рендеринга конфигурации.
var (
	// ErrUnsafeValue — значение содержит символы, недопустимые в
	// синтаксисе целевого файла. Подстановка прервана, чтобы не
	// записать повреждённый конфиг.
	ErrUnsafeValue = errors.New("value unsafe for target syntax")

	// ErrWrite — не удалось записать отрендеренный файл на хост.
	ErrWrite = errors.New("config write failed")
)
