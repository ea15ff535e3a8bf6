package config

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
	"strings"
)

// ParseEnvFile разбирает параметр-файл формата KEY=VALUE.
//
// Пустые строки и строки, начинающиеся с '#', пропускаются.
// Значения могут быть заключены в одинарные или двойные кавычки —
// кавычки снимаются. Строки без '=' считаются ошибкой формата.
func ParseEnvFile(data []byte) (map[string]string, error) {
	params := make(map[string]string)

	scanner := bufio.NewScanner(bytes.NewReader(data))
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		key, value, found := strings.Cut(line, "=")
		if !found {
			return nil, fmt.Errorf("%w: line %d is not KEY=VALUE", ErrInvalidValue, lineNo)
		}

		key = strings.TrimSpace(key)
		if key == "" {
			return nil, fmt.Errorf("%w: line %d has empty key", ErrInvalidValue, lineNo)
		}

		params[key] = unquote(strings.TrimSpace(value))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan env file: %w", err)
	}

	return params, nil
}

// Params объединяет параметры файла с переменными окружения.
// Переменная окружения с тем же именем имеет приоритет над файлом.
func Params(fileParams map[string]string) map[string]string {
	merged := make(map[string]string, len(fileParams))
	for k, v := range fileParams {
		merged[k] = v
	}
	for k := range merged {
		if env, ok := os.LookupEnv(k); ok {
			merged[k] = env
		}
	}
	// Параметры, заданные только окружением
	for _, key := range knownKeys {
		if _, ok := merged[key]; ok {
			continue
		}
		if env, ok := os.LookupEnv(key); ok {
			merged[key] = env
		}
	}
	return merged
}

// knownKeys — все параметры, которые установщик читает из окружения.
var knownKeys = []string{
	"PT_DB_PASS", "PT_DOMAIN", "PT_HTTPS", "PT_WEB_PORT",
	"PT_DB_HOST", "PT_DB_PORT", "PT_DB_USER", "PT_DB_NAME", "PT_DB_SSL",
	"PT_SMTP_HOST", "PT_SMTP_PORT", "PT_SMTP_USER", "PT_SMTP_PASS",
	"PT_SMTP_TLS", "PT_SMTP_DISABLE_STARTTLS", "PT_FROM_ADDRESS",
	"PT_INSTANCE_NAME", "PT_INSTANCE_DESC", "PT_LANGUAGES", "PT_RESOLUTIONS",
	"PT_REVISION", "PT_USER", "PT_SECRET",
}

func unquote(s string) string {
	if len(s) >= 2 {
		if (s[0] == '"' && s[len(s)-1] == '"') || (s[0] == '\'' && s[len(s)-1] == '\'') {
			return s[1 : len(s)-1]
		}
	}
	return s
}
