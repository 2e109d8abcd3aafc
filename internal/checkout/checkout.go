// Package checkout реализует оформление корзины в подтверждённые бронирования.
package checkout

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/mmeshcher/hotelbook/internal/model"
	"github.com/mmeshcher/hotelbook/internal/validation"
)

// ErrEmptyCart возвращается при попытке оформить пустую корзину.
// Проверка выполняется до любого сетевого вызова.
var (
	ErrEmptyCart = errors.New("cart is empty")
	// ErrNoBookingsCreated возвращается, когда не удалось создать ни одного
	// бронирования. Корзина в этом случае остаётся нетронутой.
	ErrNoBookingsCreated = errors.New("no bookings were created")
)

// Backend описывает операции бэкенда, используемые при оформлении.
type Backend interface {
	CreateBooking(ctx context.Context, req model.BookingRequest) (*model.Booking, error)
	ClearCart(ctx context.Context) error
}

// CartSource отдаёт текущие позиции корзины и опустошает локальное состояние
// после успешного оформления.
type CartSource interface {
	Items() []model.CartItem
	ClearLocal()
}

// BookingSink принимает созданные бронирования: сначала оптимистично,
// затем фоновой сверкой с сервером.
type BookingSink interface {
	AddMany(created []model.Booking)
	Reconcile(ctx context.Context) error
}

const (
	defaultGuests    = 2
	reconcileTimeout = 30 * time.Second
)

// Pipeline превращает позиции корзины в бронирования с допуском частичных
// отказов: сбой на одной позиции не прерывает остальные.
type Pipeline struct {
	backend        Backend
	cart           CartSource
	bookings       BookingSink
	logger         *zap.Logger
	currency       string
	reconcileDelay time.Duration
	now            func() time.Time
}

// NewPipeline создаёт конвейер оформления. Валюта подставляется во все
// создаваемые бронирования, reconcileDelay задаёт паузу перед фоновой
// сверкой с сервером.
func NewPipeline(backend Backend, cart CartSource, bookings BookingSink, logger *zap.Logger, currency string, reconcileDelay time.Duration) *Pipeline {
	return &Pipeline{
		backend:        backend,
		cart:           cart,
		bookings:       bookings,
		logger:         logger,
		currency:       currency,
		reconcileDelay: reconcileDelay,
		now:            time.Now,
	}
}

// Outcome описывает итог оформления корзины.
type Outcome struct {
	Success  bool
	Bookings []model.Booking
	Skipped  int
	Message  string
}

// Checkout оформляет текущую корзину. Позиции отправляются по одной и строго
// последовательно: так счётчик частичных отказов детерминирован, а журнал
// читается по порядку. Корзина очищается только если создано хотя бы одно
// бронирование.
func (p *Pipeline) Checkout(ctx context.Context, customer model.CustomerInfo, paymentMethod string) (Outcome, error) {
	items := p.cart.Items()
	if len(items) == 0 {
		return Outcome{Success: false, Message: ErrEmptyCart.Error()}, ErrEmptyCart
	}

	p.logger.Info("starting cart checkout", zap.Int("items", len(items)))

	var created []model.Booking
	var skipped int

	for _, item := range items {
		req, ok := p.buildRequest(item, customer, paymentMethod)
		if !ok {
			skipped++
			continue
		}

		if err := validation.CheckBookingRequest(req); err != nil {
			p.logger.Warn("skipping invalid booking request",
				zap.String("hotel", item.HotelName), zap.Error(err))
			skipped++
			continue
		}

		booking, err := p.backend.CreateBooking(ctx, req)
		if err != nil {
			p.logger.Warn("booking creation failed",
				zap.String("hotel", item.HotelName), zap.Error(err))
			skipped++
			continue
		}
		created = append(created, *booking)
	}

	if len(created) == 0 {
		p.logger.Error("checkout failed, no bookings created", zap.Int("skipped", skipped))
		return Outcome{
			Success: false,
			Skipped: skipped,
			Message: "checkout failed, please try again",
		}, ErrNoBookingsCreated
	}

	if err := p.backend.ClearCart(ctx); err != nil {
		// Бронирования уже созданы, поэтому оформление считается успешным.
		// Расхождение корзины устранит следующая загрузка с сервера.
		p.logger.Warn("cart clear after checkout failed", zap.Error(err))
	}
	p.cart.ClearLocal()

	p.bookings.AddMany(created)
	p.scheduleReconcile()

	msg := fmt.Sprintf("successfully created %d bookings", len(created))
	p.logger.Info("checkout completed",
		zap.Int("created", len(created)), zap.Int("skipped", skipped))

	return Outcome{
		Success:  true,
		Bookings: created,
		Skipped:  skipped,
		Message:  msg,
	}, nil
}

// buildRequest собирает запрос на бронирование из позиции корзины. Позиции
// без названия отеля или локации пропускаются и учитываются как отказ.
func (p *Pipeline) buildRequest(item model.CartItem, customer model.CustomerInfo, paymentMethod string) (model.BookingRequest, bool) {
	if item.HotelName == "" || item.Location == "" {
		p.logger.Warn("skipping cart item without hotel name or location",
			zap.String("itemID", item.ID))
		return model.BookingRequest{}, false
	}

	today := p.now().Format(validation.DateLayout)
	tomorrow := p.now().Add(24 * time.Hour).Format(validation.DateLayout)

	checkIn := item.Details.CheckIn
	if checkIn == "" {
		checkIn = today
	}
	checkOut := item.Details.CheckOut
	if checkOut == "" {
		checkOut = tomorrow
	}

	rooms := item.Quantity
	if rooms < 1 {
		rooms = 1
	}
	guests := item.Details.Guests
	if guests < 1 {
		guests = defaultGuests
	}

	if customer.Name == "" {
		customer.Name = "Guest User"
	}
	if customer.Email == "" {
		customer.Email = "guest@example.com"
	}
	if customer.Phone == "" {
		customer.Phone = "+91-0000000000"
	}
	if paymentMethod == "" {
		paymentMethod = "upi"
	}

	return model.BookingRequest{
		HotelName:       item.HotelName,
		Location:        item.Location,
		CheckIn:         checkIn,
		CheckOut:        checkOut,
		Rooms:           rooms,
		Guests:          guests,
		TotalPrice:      item.Price * float64(rooms),
		Currency:        p.currency,
		CustomerInfo:    customer,
		PaymentMethod:   paymentMethod,
		SpecialRequests: item.Details.SpecialRequests,
	}, true
}

// scheduleReconcile запускает отложенную фоновую сверку с сервером.
// Оптимистично вставленные записи будут замещены серверными, включая
// вычисленные на сервере поля.
func (p *Pipeline) scheduleReconcile() {
	if p.reconcileDelay < 0 {
		return
	}

	time.AfterFunc(p.reconcileDelay, func() {
		ctx, cancel := context.WithTimeout(context.Background(), reconcileTimeout)
		defer cancel()

		if err := p.bookings.Reconcile(ctx); err != nil {
			p.logger.Warn("background reconciliation failed", zap.Error(err))
		}
	})
}
