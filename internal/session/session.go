// Package session содержит хранилище токенов сессии с сохранением на диск.
package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// FileStore хранит пару токенов в JSON-файле, переживающем перезапуск процесса.
// Запись выполняют только login/logout и процедура обновления токена; остальной
// код читает токены как неизменяемые.
type FileStore struct {
	mu      sync.Mutex
	path    string
	access  string
	refresh string
}

type persistedTokens struct {
	AccessToken  string `json:"authToken,omitempty"`
	RefreshToken string `json:"refreshToken,omitempty"`
}

// NewFileStore создаёт хранилище токенов по указанному пути и загружает
// сохранённую пару, если файл существует.
func NewFileStore(path string) (*FileStore, error) {
	s := &FileStore{path: path}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return s, nil
		}
		return nil, fmt.Errorf("read session file: %w", err)
	}

	var p persistedTokens
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("decode session file: %w", err)
	}

	s.access = p.AccessToken
	s.refresh = p.RefreshToken
	return s, nil
}

// AccessToken возвращает текущий access-токен или пустую строку.
func (s *FileStore) AccessToken() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.access
}

// RefreshToken возвращает текущий refresh-токен или пустую строку.
func (s *FileStore) RefreshToken() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.refresh
}

// SetTokens сохраняет новую пару токенов. Пустой refresh-токен оставляет
// прежний без изменений: сервер возвращает его не в каждом ответе.
func (s *FileStore) SetTokens(access, refresh string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.access = access
	if refresh != "" {
		s.refresh = refresh
	}
	return s.save()
}

// Clear удаляет оба токена из памяти и с диска.
func (s *FileStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.access = ""
	s.refresh = ""

	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove session file: %w", err)
	}
	return nil
}

func (s *FileStore) save() error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("create session dir: %w", err)
	}

	data, err := json.Marshal(persistedTokens{
		AccessToken:  s.access,
		RefreshToken: s.refresh,
	})
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}

	if err := os.WriteFile(s.path, data, 0o600); err != nil {
		return fmt.Errorf("write session file: %w", err)
	}
	return nil
}
