// Package bookings реализует локальное зеркало серверных бронирований,
// разделённых на текущие и прошедшие.
//
// Хранилище допускает оптимистичные вставки сразу после оформления заказа;
// последующая сверка с сервером заменяет оба списка целиком, серверный ответ
// всегда выигрывает при расхождении.
package bookings

import (
	"context"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/mmeshcher/hotelbook/internal/model"
)

// Backend описывает операции бэкенда, используемые хранилищем бронирований.
type Backend interface {
	IsAuthenticated() bool
	CurrentBookings(ctx context.Context) ([]model.Booking, error)
	PastBookings(ctx context.Context) ([]model.Booking, error)
	CancelBooking(ctx context.Context, bookingID string) error
}

// Result — итог изменяющей операции для показа пользователю.
type Result struct {
	Success bool
	Message string
}

// Store хранит текущие и прошедшие бронирования пользователя.
type Store struct {
	mu      sync.Mutex
	backend Backend
	logger  *zap.Logger
	current []model.Booking
	past    []model.Booking
	loading bool
	lastErr string
}

// NewStore создаёт пустое хранилище бронирований поверх указанного бэкенда.
func NewStore(backend Backend, logger *zap.Logger) *Store {
	return &Store{
		backend: backend,
		logger:  logger,
	}
}

// Load запрашивает текущие и прошедшие бронирования параллельно и заменяет
// оба списка целиком. Для неаутентифицированного пользователя списки
// сбрасываются в пустые без ошибки.
func (s *Store) Load(ctx context.Context) error {
	if !s.backend.IsAuthenticated() {
		s.replace(nil, nil)
		return nil
	}

	s.setLoading(true)
	defer s.setLoading(false)

	var current, past []model.Booking

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		current, err = s.backend.CurrentBookings(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		past, err = s.backend.PastBookings(gctx)
		return err
	})

	if err := g.Wait(); err != nil {
		s.setErr(err.Error())
		return err
	}

	s.replace(current, past)
	s.logger.Info("bookings loaded",
		zap.Int("current", len(current)), zap.Int("past", len(past)))
	return nil
}

// Reconcile выполняет сверку с сервером. Семантика совпадает с Load:
// серверное состояние замещает локальное без слияния.
func (s *Store) Reconcile(ctx context.Context) error {
	return s.Load(ctx)
}

// AddMany оптимистично вставляет только что созданные бронирования в начало
// текущего списка, не дожидаясь полной сверки с сервером.
func (s *Store) AddMany(created []model.Booking) {
	if len(created) == 0 {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = append(append([]model.Booking{}, created...), s.current...)
	s.lastErr = ""
	s.logger.Info("bookings added optimistically", zap.Int("count", len(created)))
}

// Cancel отменяет бронирование на сервере и помечает локальную запись
// статусом cancelled. Запись остаётся в текущем списке: отмена не означает
// завершение. Обратного перехода из cancelled нет.
func (s *Store) Cancel(ctx context.Context, bookingID string) Result {
	s.mu.Lock()
	idx := -1
	for i := range s.current {
		if s.current[i].ID == bookingID {
			idx = i
			break
		}
	}
	if idx == -1 {
		s.mu.Unlock()
		msg := "booking not found"
		s.setErr(msg)
		return Result{Success: false, Message: msg}
	}
	if s.current[idx].Status.Terminal() {
		status := s.current[idx].Status
		s.mu.Unlock()
		msg := "booking is already " + string(status)
		s.setErr(msg)
		return Result{Success: false, Message: msg}
	}
	s.mu.Unlock()

	if err := s.backend.CancelBooking(ctx, bookingID); err != nil {
		s.setErr(err.Error())
		return Result{Success: false, Message: err.Error()}
	}

	s.mu.Lock()
	for i := range s.current {
		if s.current[i].ID == bookingID {
			s.current[i].Status = model.BookingStatusCancelled
			break
		}
	}
	s.lastErr = ""
	s.mu.Unlock()

	return Result{Success: true, Message: "booking cancelled"}
}

// MoveToPast переносит бронирование из текущих в прошедшие со статусом
// completed. Переход чисто локальный: его инициирует внешний сигнал о
// завершении проживания, хранилище само за датами не следит.
func (s *Store) MoveToPast(bookingID string) Result {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.current {
		if s.current[i].ID != bookingID {
			continue
		}
		if s.current[i].Status.Terminal() {
			msg := "booking is already " + string(s.current[i].Status)
			s.lastErr = msg
			return Result{Success: false, Message: msg}
		}

		moved := s.current[i]
		moved.Status = model.BookingStatusCompleted
		s.current = append(s.current[:i], s.current[i+1:]...)
		s.past = append(s.past, moved)
		s.lastErr = ""
		return Result{Success: true, Message: "booking completed"}
	}

	msg := "booking not found"
	s.lastErr = msg
	return Result{Success: false, Message: msg}
}

// Current возвращает копию списка текущих бронирований.
func (s *Store) Current() []model.Booking {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Booking, len(s.current))
	copy(out, s.current)
	return out
}

// Past возвращает копию списка прошедших бронирований.
func (s *Store) Past() []model.Booking {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Booking, len(s.past))
	copy(out, s.past)
	return out
}

// FindByID ищет бронирование в обоих списках.
func (s *Store) FindByID(bookingID string) (model.Booking, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, b := range s.current {
		if b.ID == bookingID {
			return b, true
		}
	}
	for _, b := range s.past {
		if b.ID == bookingID {
			return b, true
		}
	}
	return model.Booking{}, false
}

// Stats возвращает сводную статистику, вычисленную по текущему состоянию.
func (s *Store) Stats() model.BookingStats {
	s.mu.Lock()
	defer s.mu.Unlock()

	stats := model.BookingStats{
		Total: len(s.current) + len(s.past),
	}
	for _, b := range s.current {
		switch b.Status {
		case model.BookingStatusConfirmed:
			stats.Confirmed++
		case model.BookingStatusCancelled:
			stats.Cancelled++
		}
	}
	for _, b := range s.past {
		if b.Status == model.BookingStatusCompleted {
			stats.Completed++
		}
	}
	return stats
}

// TotalSpending возвращает суммы трат: подтверждённые текущие бронирования
// плюс все прошедшие.
func (s *Store) TotalSpending() model.SpendingReport {
	s.mu.Lock()
	defer s.mu.Unlock()

	var report model.SpendingReport
	for _, b := range s.current {
		if b.Status == model.BookingStatusConfirmed {
			report.Current += b.TotalPrice
		}
	}
	for _, b := range s.past {
		report.Past += b.TotalPrice
	}
	report.Total = report.Current + report.Past
	return report
}

// Loading сообщает, выполняется ли загрузка бронирований.
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

// Reset сбрасывает хранилище в начальное состояние при выходе пользователя.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = nil
	s.past = nil
	s.loading = false
	s.lastErr = ""
}

func (s *Store) replace(current, past []model.Booking) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = current
	s.past = past
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
