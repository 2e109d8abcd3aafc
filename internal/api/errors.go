package api

import (
	"errors"
	"fmt"
)

// ErrSessionExpired возвращается, когда access-токен отклонён сервером и
// обновить его не удалось. Вызывающий код обязан сбросить зависимое локальное
// состояние и запросить повторный вход.
var (
	ErrSessionExpired = errors.New("session expired, please log in again")
	// ErrAuthRequired возвращается, когда запрос отклонён как неавторизованный
	// уже после успешного обновления токена.
	ErrAuthRequired = errors.New("authentication required")
	// ErrNoRefreshToken возвращается при попытке обновления без refresh-токена.
	ErrNoRefreshToken = errors.New("no refresh token available")
)

// StatusError описывает ответ сервера с кодом, отличным от 2xx, и сообщением,
// которое сервер приложил к отказу.
type StatusError struct {
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api request failed with status %d", e.StatusCode)
	}
	return fmt.Sprintf("%s (status %d)", e.Message, e.StatusCode)
}
