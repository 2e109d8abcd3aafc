// Package api предоставляет аутентифицированный HTTP-клиент бэкенда бронирования.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/mmeshcher/hotelbook/internal/model"
)

// TokenStore описывает контракт хранилища токенов сессии. Конкретная
// реализация внедряется при создании клиента, тесты подставляют свою.
type TokenStore interface {
	AccessToken() string
	RefreshToken() string
	SetTokens(access, refresh string) error
	Clear() error
}

const pingTimeout = 5 * time.Second

// Client инкапсулирует HTTP-взаимодействие с бэкендом бронирования:
// подставляет bearer-токен, обновляет его при истечении и повторяет
// исходный запрос один раз.
type Client struct {
	baseURL    string
	httpClient *http.Client
	tokens     TokenStore
	logger     *zap.Logger
	refresh    singleflight.Group
}

// NewClient создаёт клиент бэкенда по указанному адресу.
func NewClient(baseURL string, tokens TokenStore, logger *zap.Logger) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{},
		tokens:     tokens,
		logger:     logger,
	}
}

// IsAuthenticated сообщает, держит ли клиент access-токен. Это локальная
// проверка без похода в сеть, она не гарантирует валидность токена на сервере.
func (c *Client) IsAuthenticated() bool {
	return c.tokens.AccessToken() != ""
}

type apiError struct {
	Detail  string `json:"detail"`
	Message string `json:"message"`
}

func (e apiError) text() string {
	if e.Detail != "" {
		return e.Detail
	}
	if e.Message != "" {
		return e.Message
	}
	return "api request failed"
}

func (c *Client) send(ctx context.Context, method, path string, payload []byte, token string) (int, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return 0, nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(resp.Body); err != nil {
		return 0, nil, fmt.Errorf("read response: %w", err)
	}

	return resp.StatusCode, buf.Bytes(), nil
}

// request выполняет запрос с подстановкой токена. На 401 при имеющемся токене
// однократно обновляет токен и повторяет запрос; при неудаче обновления
// очищает оба токена и возвращает ErrSessionExpired. Других повторов нет.
func (c *Client) request(ctx context.Context, method, path string, body, out any) error {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request body: %w", err)
		}
	}

	status, data, err := c.send(ctx, method, path, payload, c.tokens.AccessToken())
	if err != nil {
		return err
	}

	if status == http.StatusUnauthorized && c.tokens.AccessToken() != "" {
		c.logger.Info("access token rejected, attempting refresh", zap.String("path", path))

		newToken, refreshErr := c.refreshAccessToken(ctx)
		if refreshErr != nil {
			c.logger.Error("token refresh failed", zap.Error(refreshErr))
			return fmt.Errorf("%w: %v", ErrSessionExpired, refreshErr)
		}

		status, data, err = c.send(ctx, method, path, payload, newToken)
		if err != nil {
			return err
		}
	}

	if status == http.StatusUnauthorized {
		if err := c.tokens.Clear(); err != nil {
			c.logger.Warn("clear tokens failed", zap.Error(err))
		}
		return ErrAuthRequired
	}

	if status < 200 || status >= 300 {
		var e apiError
		_ = json.Unmarshal(data, &e)
		return &StatusError{StatusCode: status, Message: e.text()}
	}

	if out != nil && len(data) > 0 {
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}

// refreshAccessToken обменивает refresh-токен на новую пару. Конкурентные
// вызовы сведены к одному сетевому запросу: все ожидающие получают его
// результат, после завершения цикл обновления можно начать заново.
func (c *Client) refreshAccessToken(ctx context.Context) (string, error) {
	v, err, _ := c.refresh.Do("refresh", func() (any, error) {
		refreshToken := c.tokens.RefreshToken()
		if refreshToken == "" {
			c.clearTokens()
			return nil, ErrNoRefreshToken
		}

		c.logger.Info("refreshing access token")

		payload, err := json.Marshal(map[string]string{"refresh_token": refreshToken})
		if err != nil {
			return nil, fmt.Errorf("encode refresh request: %w", err)
		}

		status, data, err := c.send(ctx, http.MethodPost, "/refresh-token/", payload, "")
		if err != nil {
			c.clearTokens()
			return nil, err
		}

		if status < 200 || status >= 300 {
			var e apiError
			_ = json.Unmarshal(data, &e)
			c.clearTokens()
			return nil, &StatusError{StatusCode: status, Message: e.text()}
		}

		var pair model.TokenPair
		if err := json.Unmarshal(data, &pair); err != nil {
			c.clearTokens()
			return nil, fmt.Errorf("decode refresh response: %w", err)
		}

		if err := c.tokens.SetTokens(pair.AccessToken, pair.RefreshToken); err != nil {
			return nil, fmt.Errorf("persist tokens: %w", err)
		}

		c.logger.Info("access token refreshed")
		return pair.AccessToken, nil
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

func (c *Client) clearTokens() {
	if err := c.tokens.Clear(); err != nil {
		c.logger.Warn("clear tokens failed", zap.Error(err))
	}
}

// Login выполняет вход по OAuth2-эндпоинту /token с form-данными и сохраняет
// полученную пару токенов.
func (c *Client) Login(ctx context.Context, username, password string) error {
	c.logger.Info("logging in", zap.String("username", username))

	form := url.Values{}
	form.Set("username", username)
	form.Set("password", password)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/token", strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	var pair model.TokenPair
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var e apiError
		_ = json.NewDecoder(resp.Body).Decode(&e)
		return &StatusError{StatusCode: resp.StatusCode, Message: e.text()}
	}
	if err := json.NewDecoder(resp.Body).Decode(&pair); err != nil {
		return fmt.Errorf("decode token response: %w", err)
	}

	if err := c.tokens.SetTokens(pair.AccessToken, pair.RefreshToken); err != nil {
		return fmt.Errorf("persist tokens: %w", err)
	}

	c.logger.Info("login successful")
	return nil
}

// RegisterRequest описывает тело запроса регистрации пользователя.
type RegisterRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Email    string `json:"email"`
	Age      int    `json:"Age,omitempty"`
}

// Register создаёт нового пользователя.
func (c *Client) Register(ctx context.Context, req RegisterRequest) error {
	c.logger.Info("registering user", zap.String("username", req.Username))
	return c.request(ctx, http.MethodPost, "/register/", req, nil)
}

// Logout сообщает бэкенду о выходе и всегда очищает локальные токены,
// даже если серверный вызов не удался.
func (c *Client) Logout(ctx context.Context) error {
	defer c.clearTokens()

	if !c.IsAuthenticated() {
		return nil
	}

	body := map[string]string{"refresh_token": c.tokens.RefreshToken()}
	if err := c.request(ctx, http.MethodPost, "/logout/", body, nil); err != nil {
		c.logger.Warn("backend logout failed", zap.Error(err))
	}
	return nil
}

// CurrentUser возвращает профиль текущего пользователя.
func (c *Client) CurrentUser(ctx context.Context) (*model.User, error) {
	var u model.User
	if err := c.request(ctx, http.MethodGet, "/users/me", nil, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// CheckAuthStatus проверяет валидность токена походом за профилем.
func (c *Client) CheckAuthStatus(ctx context.Context) bool {
	if !c.IsAuthenticated() {
		return false
	}
	_, err := c.CurrentUser(ctx)
	return err == nil
}

// CartItems возвращает все позиции серверной корзины.
func (c *Client) CartItems(ctx context.Context) ([]model.CartItem, error) {
	var items []model.CartItem
	if err := c.request(ctx, http.MethodGet, "/cart/", nil, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// AddCartItem добавляет позицию в серверную корзину и возвращает каноничную
// копию с присвоенным сервером идентификатором.
func (c *Client) AddCartItem(ctx context.Context, item model.CartItem) (*model.CartItem, error) {
	c.logger.Info("adding cart item", zap.String("hotel", item.HotelName))

	var created model.CartItem
	if err := c.request(ctx, http.MethodPost, "/cart/", item, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// UpdateCartItem меняет количество номеров у позиции корзины.
func (c *Client) UpdateCartItem(ctx context.Context, itemID string, quantity int) (*model.CartItem, error) {
	c.logger.Info("updating cart item quantity",
		zap.String("itemID", itemID), zap.Int("quantity", quantity))

	path := "/cart/" + url.PathEscape(itemID) + "?quantity=" + strconv.Itoa(quantity)
	var updated model.CartItem
	if err := c.request(ctx, http.MethodPut, path, nil, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

// RemoveCartItem удаляет позицию из серверной корзины.
func (c *Client) RemoveCartItem(ctx context.Context, itemID string) error {
	c.logger.Info("removing cart item", zap.String("itemID", itemID))
	return c.request(ctx, http.MethodDelete, "/cart/"+url.PathEscape(itemID), nil, nil)
}

// ClearCart удаляет все позиции серверной корзины одним запросом.
func (c *Client) ClearCart(ctx context.Context) error {
	c.logger.Info("clearing cart")
	return c.request(ctx, http.MethodDelete, "/cart/", nil, nil)
}

// CurrentBookings возвращает активные бронирования пользователя.
func (c *Client) CurrentBookings(ctx context.Context) ([]model.Booking, error) {
	var bookings []model.Booking
	if err := c.request(ctx, http.MethodGet, "/bookings/current", nil, &bookings); err != nil {
		return nil, err
	}
	return bookings, nil
}

// PastBookings возвращает завершённые бронирования пользователя.
func (c *Client) PastBookings(ctx context.Context) ([]model.Booking, error) {
	var bookings []model.Booking
	if err := c.request(ctx, http.MethodGet, "/bookings/past", nil, &bookings); err != nil {
		return nil, err
	}
	return bookings, nil
}

// CreateBooking создаёт бронирование и возвращает серверную запись.
func (c *Client) CreateBooking(ctx context.Context, req model.BookingRequest) (*model.Booking, error) {
	c.logger.Info("creating booking", zap.String("hotel", req.HotelName))

	var booking model.Booking
	if err := c.request(ctx, http.MethodPost, "/bookings/", req, &booking); err != nil {
		return nil, err
	}
	return &booking, nil
}

// CancelBooking отменяет бронирование на сервере.
func (c *Client) CancelBooking(ctx context.Context, bookingID string) error {
	c.logger.Info("cancelling booking", zap.String("bookingID", bookingID))
	return c.request(ctx, http.MethodPut, "/bookings/"+url.PathEscape(bookingID)+"/cancel", nil, nil)
}

// SearchPreferences описывает предпочтения для подбора отелей.
type SearchPreferences struct {
	Location  string   `json:"location"`
	MaxPrice  float64  `json:"max_price,omitempty"`
	Amenities []string `json:"amenities,omitempty"`
}

// Recommend запрашивает подборку отелей по предпочтениям.
func (c *Client) Recommend(ctx context.Context, prefs SearchPreferences) ([]model.Hotel, error) {
	var hotels []model.Hotel
	if err := c.request(ctx, http.MethodPost, "/recommend/", prefs, &hotels); err != nil {
		return nil, err
	}
	return hotels, nil
}

// SendChatMessage отправляет сообщение чат-боту и возвращает его ответ.
func (c *Client) SendChatMessage(ctx context.Context, message string) (string, error) {
	var resp struct {
		Response string `json:"response"`
	}
	body := map[string]string{"message": message}
	if err := c.request(ctx, http.MethodPost, "/chatbot/", body, &resp); err != nil {
		return "", err
	}
	return resp.Response, nil
}

// Ping проверяет доступность бэкенда лёгким запросом с коротким таймаутом.
// Это единственный запрос клиента с явным таймаутом.
func (c *Client) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, c.baseURL+"/", nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	resp.Body.Close()
	return nil
}
