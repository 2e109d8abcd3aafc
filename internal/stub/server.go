// Package stub реализует локальный бэкенд бронирования в памяти.
//
// Сервер повторяет контракт боевого API: OAuth2-вход с form-данными,
// JWT-пара access/refresh, корзина и бронирования на пользователя.
// Используется командой stubserver для локальной разработки и
// интеграционными тестами клиента.
package stub

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt"
	"go.uber.org/zap"

	"github.com/mmeshcher/hotelbook/internal/model"
)

type contextKey string

const usernameKey contextKey = "username"

const (
	defaultAccessTTL  = 15 * time.Minute
	defaultRefreshTTL = 30 * 24 * time.Hour
)

type account struct {
	Password string
	Email    string
	Age      int
}

// Server хранит состояние заглушки бэкенда: пользователей, корзины и
// бронирования. Всё состояние живёт в памяти процесса.
type Server struct {
	logger     *zap.Logger
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration

	mu       sync.Mutex
	accounts map[string]account
	carts    map[string][]model.CartItem
	current  map[string][]model.Booking
	past     map[string][]model.Booking
	revoked  map[string]bool
}

// NewServer создаёт заглушку бэкенда с указанным секретом подписи токенов.
func NewServer(logger *zap.Logger, secret string) *Server {
	return &Server{
		logger:     logger,
		secret:     []byte(secret),
		accessTTL:  defaultAccessTTL,
		refreshTTL: defaultRefreshTTL,
		accounts:   make(map[string]account),
		carts:      make(map[string][]model.CartItem),
		current:    make(map[string][]model.Booking),
		past:       make(map[string][]model.Booking),
		revoked:    make(map[string]bool),
	}
}

// SetAccessTTL меняет время жизни access-токена. Короткий TTL используется
// в тестах сценариев обновления токена.
func (s *Server) SetAccessTTL(ttl time.Duration) {
	s.accessTTL = ttl
}

func (s *Server) issueToken(username, kind string, ttl time.Duration) (string, error) {
	claims := jwt.MapClaims{
		"sub": username,
		"typ": kind,
		"iat": time.Now().Unix(),
		"exp": time.Now().Add(ttl).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

func (s *Server) issuePair(username string) (*model.TokenPair, error) {
	access, err := s.issueToken(username, "access", s.accessTTL)
	if err != nil {
		return nil, err
	}
	refresh, err := s.issueToken(username, "refresh", s.refreshTTL)
	if err != nil {
		return nil, err
	}
	return &model.TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

func (s *Server) parseToken(tokenString, kind string) (string, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return s.secret, nil
	})
	if err != nil {
		return "", err
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return "", errors.New("invalid token")
	}
	if typ, _ := claims["typ"].(string); typ != kind {
		return "", errors.New("unexpected token type")
	}
	sub, _ := claims["sub"].(string)
	if sub == "" {
		return "", errors.New("token does not contain a subject")
	}
	return sub, nil
}

// authMiddleware проверяет bearer-токен и кладёт имя пользователя в контекст.
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			writeError(w, http.StatusUnauthorized, "missing bearer token")
			return
		}

		username, err := s.parseToken(strings.TrimPrefix(header, "Bearer "), "access")
		if err != nil {
			writeError(w, http.StatusUnauthorized, "invalid or expired token")
			return
		}

		ctx := context.WithValue(r.Context(), usernameKey, username)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func usernameFromContext(ctx context.Context) (string, bool) {
	name, ok := ctx.Value(usernameKey).(string)
	return name, ok
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}
