package config

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/shaiso/Tubesmith/internal/host"
)

// SecretStore — источник секрета приложения.
//
// Секрет должен переживать повторные прогоны установщика: иначе
// перегенерация production.yaml инвалидировала бы сессии инстанса и
// нарушала детерминизм рендеринга.
type SecretStore interface {
	// Load возвращает сохранённый секрет или "" при его отсутствии.
	Load() (string, error)

	// Save сохраняет сгенерированный секрет.
	Save(secret string) error
}

// FileSecretStore хранит секрет в файле на хосте (0600).
type FileSecretStore struct {
	Host host.Host
	Path string
}

// NewFileSecretStore создаёт FileSecretStore со стандартным путём.
func NewFileSecretStore(h host.Host) *FileSecretStore {
	return &FileSecretStore{Host: h, Path: SecretPath}
}

// Load читает секрет из файла.
func (s *FileSecretStore) Load() (string, error) {
	data, err := s.Host.ReadFile(s.Path)
	if errors.Is(err, fs.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("%w: read %s: %v", ErrSecretStore, s.Path, err)
	}
	return strings.TrimSpace(string(data)), nil
}

// Save записывает секрет в файл с правами 0600.
func (s *FileSecretStore) Save(secret string) error {
	if err := s.Host.WriteFile(s.Path, []byte(secret+"\n"), 0o600); err != nil {
		return fmt.Errorf("%w: write %s: %v", ErrSecretStore, s.Path, err)
	}
	return nil
}

// MemorySecretStore — SecretStore в памяти, для тестов и dry-run.
type MemorySecretStore struct {
	Secret string
}

// Load возвращает секрет из памяти.
func (s *MemorySecretStore) Load() (string, error) { return s.Secret, nil }

// Save сохраняет секрет в память.
func (s *MemorySecretStore) Save(secret string) error {
	s.Secret = secret
	return nil
}

// resolveSecret возвращает сохранённый секрет или генерирует и
// сохраняет новый (32 случайных байта в hex).
func resolveSecret(store SecretStore) (string, error) {
	if store == nil {
		store = &MemorySecretStore{}
	}

	secret, err := store.Load()
	if err != nil {
		return "", err
	}
	if secret != "" {
		if !secretRe.MatchString(secret) {
			return "", fmt.Errorf("%w: stored secret is malformed", ErrSecretStore)
		}
		return secret, nil
	}

	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("%w: generate: %v", ErrSecretStore, err)
	}
	secret = hex.EncodeToString(raw)

	if err := store.Save(secret); err != nil {
		return "", err
	}
	return secret, nil
}
