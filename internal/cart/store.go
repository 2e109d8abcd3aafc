// Package cart реализует локальное зеркало серверной корзины.
//
// Всё изменение состояния идёт через бэкенд: локальная копия меняется только
// после подтверждённого ответа сервера, поэтому она не может разойтись с
// серверной правдой вне окна оформления заказа.
package cart

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/mmeshcher/hotelbook/internal/api"
	"github.com/mmeshcher/hotelbook/internal/model"
	"github.com/mmeshcher/hotelbook/internal/validation"
)

// Backend описывает операции бэкенда, используемые корзиной.
type Backend interface {
	IsAuthenticated() bool
	CartItems(ctx context.Context) ([]model.CartItem, error)
	AddCartItem(ctx context.Context, item model.CartItem) (*model.CartItem, error)
	UpdateCartItem(ctx context.Context, itemID string, quantity int) (*model.CartItem, error)
	RemoveCartItem(ctx context.Context, itemID string) error
	ClearCart(ctx context.Context) error
}

// Result — итог изменяющей операции для показа пользователю. Ошибки не
// пересекают границу хранилища как паника или необработанное исключение.
type Result struct {
	Success bool
	Message string
}

// Store хранит позиции корзины и флаги loading/error.
type Store struct {
	mu       sync.Mutex
	backend  Backend
	logger   *zap.Logger
	items    []model.CartItem
	loading  bool
	lastErr  string
	inflight map[string]bool
}

// NewStore создаёт пустую корзину поверх указанного бэкенда.
func NewStore(backend Backend, logger *zap.Logger) *Store {
	return &Store{
		backend:  backend,
		logger:   logger,
		inflight: make(map[string]bool),
	}
}

// Load загружает корзину с сервера целиком, заменяя локальное состояние.
// Для неаутентифицированного пользователя корзина сбрасывается в пустую
// без ошибки.
func (s *Store) Load(ctx context.Context) error {
	s.setLoading(true)
	defer s.setLoading(false)

	if !s.backend.IsAuthenticated() {
		s.logger.Info("not authenticated, resetting cart")
		s.replaceItems(nil)
		return nil
	}

	items, err := s.backend.CartItems(ctx)
	if err != nil {
		if errors.Is(err, api.ErrSessionExpired) || errors.Is(err, api.ErrAuthRequired) {
			s.replaceItems(nil)
			return nil
		}
		s.setErr(err.Error())
		return err
	}

	s.replaceItems(items)
	s.logger.Info("cart loaded", zap.Int("items", len(items)))
	return nil
}

// Add проверяет позицию и добавляет её через бэкенд. В локальное состояние
// попадает каноничная серверная копия с присвоенным идентификатором.
func (s *Store) Add(ctx context.Context, item model.CartItem) Result {
	if !s.backend.IsAuthenticated() {
		msg := "please log in to add items to your cart"
		s.setErr(msg)
		return Result{Success: false, Message: msg}
	}

	if item.Quantity == 0 {
		item.Quantity = 1
	}
	if err := validation.CheckCartItem(item); err != nil {
		s.setErr(err.Error())
		return Result{Success: false, Message: err.Error()}
	}

	created, err := s.backend.AddCartItem(ctx, item)
	if err != nil {
		s.setErr(err.Error())
		return Result{Success: false, Message: err.Error()}
	}

	s.mu.Lock()
	s.items = append(s.items, *created)
	s.lastErr = ""
	s.mu.Unlock()

	return Result{Success: true, Message: fmt.Sprintf("%s added to cart", created.HotelName)}
}

// UpdateQuantity меняет количество номеров у позиции. Нулевое или
// отрицательное количество эквивалентно удалению позиции.
func (s *Store) UpdateQuantity(ctx context.Context, itemID string, quantity int) Result {
	if quantity <= 0 {
		return s.Remove(ctx, itemID)
	}
	if quantity > validation.MaxQuantity {
		msg := fmt.Sprintf("quantity must be between 1 and %d", validation.MaxQuantity)
		s.setErr(msg)
		return Result{Success: false, Message: msg}
	}

	if _, err := s.beginItemOp(itemID); err != nil {
		s.setErr(err.Error())
		return Result{Success: false, Message: err.Error()}
	}
	defer s.endItemOp(itemID)

	updated, err := s.backend.UpdateCartItem(ctx, itemID, quantity)
	if err != nil {
		s.setErr(err.Error())
		return Result{Success: false, Message: err.Error()}
	}

	s.mu.Lock()
	for i := range s.items {
		if s.items[i].ID == itemID {
			s.items[i] = *updated
			break
		}
	}
	s.lastErr = ""
	s.mu.Unlock()

	return Result{Success: true, Message: "quantity updated"}
}

// Remove удаляет позицию на сервере, затем локально.
func (s *Store) Remove(ctx context.Context, itemID string) Result {
	item, err := s.beginItemOp(itemID)
	if err != nil {
		s.setErr(err.Error())
		return Result{Success: false, Message: err.Error()}
	}
	defer s.endItemOp(itemID)

	if err := s.backend.RemoveCartItem(ctx, itemID); err != nil {
		s.setErr(err.Error())
		return Result{Success: false, Message: err.Error()}
	}

	s.mu.Lock()
	kept := s.items[:0]
	for _, it := range s.items {
		if it.ID != itemID {
			kept = append(kept, it)
		}
	}
	s.items = kept
	s.lastErr = ""
	s.mu.Unlock()

	return Result{Success: true, Message: fmt.Sprintf("%s removed from cart", item.HotelName)}
}

// Clear удаляет все позиции одним серверным вызовом и опустошает локальное
// состояние.
func (s *Store) Clear(ctx context.Context) Result {
	count := s.ItemCount()

	if err := s.backend.ClearCart(ctx); err != nil {
		s.setErr(err.Error())
		return Result{Success: false, Message: err.Error()}
	}

	s.replaceItems(nil)
	return Result{Success: true, Message: fmt.Sprintf("cart cleared (%d items removed)", count)}
}

// ClearLocal опустошает локальное состояние без серверного вызова.
// Используется после оформления заказа, когда серверная корзина уже очищена.
func (s *Store) ClearLocal() {
	s.replaceItems(nil)
}

// Reset сбрасывает корзину в начальное состояние при выходе пользователя.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = nil
	s.loading = false
	s.lastErr = ""
	s.inflight = make(map[string]bool)
}

// Items возвращает копию текущих позиций корзины.
func (s *Store) Items() []model.CartItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.CartItem, len(s.items))
	copy(out, s.items)
	return out
}

// FindItem возвращает позицию по идентификатору.
func (s *Store) FindItem(itemID string) (model.CartItem, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, it := range s.items {
		if it.ID == itemID {
			return it, true
		}
	}
	return model.CartItem{}, false
}

// Contains сообщает, есть ли позиция с данным идентификатором в корзине.
func (s *Store) Contains(itemID string) bool {
	_, ok := s.FindItem(itemID)
	return ok
}

// Total возвращает суммарную стоимость корзины. Значение вычисляется заново
// при каждом вызове и нигде не кэшируется.
func (s *Store) Total() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	var total float64
	for _, it := range s.items {
		total += it.Price * float64(it.Quantity)
	}
	return total
}

// Count возвращает суммарное количество номеров по всем позициям.
func (s *Store) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	var count int
	for _, it := range s.items {
		count += it.Quantity
	}
	return count
}

// ItemCount возвращает число позиций в корзине.
func (s *Store) ItemCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

// Summary возвращает сводку корзины, вычисленную по текущему состоянию.
func (s *Store) Summary() model.CartSummary {
	return model.CartSummary{
		Total:         s.Total(),
		ItemCount:     s.ItemCount(),
		TotalQuantity: s.Count(),
		IsEmpty:       s.ItemCount() == 0,
	}
}

// Loading сообщает, выполняется ли загрузка корзины.
func (s *Store) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

// Err возвращает текст последней ошибки для показа пользователю.
func (s *Store) Err() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// ClearErr сбрасывает сообщение об ошибке.
func (s *Store) ClearErr() {
	s.setErr("")
}

// beginItemOp резервирует позицию под единственную незавершённую мутацию.
// Конкурентные изменения одной и той же позиции отклоняются, а не ставятся
// в очередь.
func (s *Store) beginItemOp(itemID string) (model.CartItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var found *model.CartItem
	for i := range s.items {
		if s.items[i].ID == itemID {
			found = &s.items[i]
			break
		}
	}
	if found == nil {
		return model.CartItem{}, errors.New("item not found in cart")
	}
	if s.inflight[itemID] {
		return model.CartItem{}, errors.New("another update for this item is in progress")
	}

	s.inflight[itemID] = true
	return *found, nil
}

func (s *Store) endItemOp(itemID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.inflight, itemID)
}

func (s *Store) replaceItems(items []model.CartItem) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = items
	s.lastErr = ""
}

func (s *Store) setLoading(v bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading = v
}

func (s *Store) setErr(msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastErr = msg
}
