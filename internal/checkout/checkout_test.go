package checkout

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mmeshcher/hotelbook/internal/model"
)

type fakeBackend struct {
	mu         sync.Mutex
	requests   []model.BookingRequest
	nextID     int
	failHotels map[string]bool
	clearCalls int
	clearErr   error
}

func (f *fakeBackend) CreateBooking(ctx context.Context, req model.BookingRequest) (*model.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.requests = append(f.requests, req)
	if f.failHotels[req.HotelName] {
		return nil, errors.New("booking rejected")
	}

	f.nextID++
	return &model.Booking{
		ID:            "bk-" + strconv.Itoa(f.nextID),
		HotelName:     req.HotelName,
		Location:      req.Location,
		CheckIn:       req.CheckIn,
		CheckOut:      req.CheckOut,
		Rooms:         req.Rooms,
		Guests:        req.Guests,
		TotalPrice:    req.TotalPrice,
		Currency:      req.Currency,
		CustomerInfo:  req.CustomerInfo,
		PaymentMethod: req.PaymentMethod,
		Status:        model.BookingStatusConfirmed,
	}, nil
}

func (f *fakeBackend) ClearCart(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.clearCalls++
	return f.clearErr
}

func (f *fakeBackend) requestCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.requests)
}

type fakeCart struct {
	mu      sync.Mutex
	items   []model.CartItem
	cleared bool
}

func (f *fakeCart) Items() []model.CartItem {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]model.CartItem{}, f.items...)
}

func (f *fakeCart) ClearLocal() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cleared = true
	f.items = nil
}

type fakeSink struct {
	mu         sync.Mutex
	added      []model.Booking
	reconciled chan struct{}
}

func (f *fakeSink) AddMany(created []model.Booking) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.added = append(f.added, created...)
}

func (f *fakeSink) Reconcile(ctx context.Context) error {
	if f.reconciled != nil {
		f.reconciled <- struct{}{}
	}
	return nil
}

func (f *fakeSink) addedBookings() []model.Booking {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]model.Booking{}, f.added...)
}

func newTestPipeline(backend *fakeBackend, cart *fakeCart, sink *fakeSink) *Pipeline {
	p := NewPipeline(backend, cart, sink, zap.NewNop(), "INR", -1)
	p.now = func() time.Time {
		return time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)
	}
	return p
}

func cartItem(id, hotel string, price float64, quantity int) model.CartItem {
	return model.CartItem{
		ID:        id,
		HotelName: hotel,
		Location:  "Mumbai",
		Price:     price,
		Quantity:  quantity,
		Details: model.ItemDetails{
			CheckIn:  "2026-09-01",
			CheckOut: "2026-09-03",
			Guests:   2,
		},
	}
}

func TestCheckout_EmptyCartFailsWithoutNetworkCall(t *testing.T) {
	backend := &fakeBackend{}
	cart := &fakeCart{}
	sink := &fakeSink{}

	outcome, err := newTestPipeline(backend, cart, sink).Checkout(
		context.Background(), model.CustomerInfo{Name: "Alice"}, "upi")

	require.ErrorIs(t, err, ErrEmptyCart)
	assert.False(t, outcome.Success)
	assert.Zero(t, backend.requestCount())
	assert.Zero(t, backend.clearCalls)
}

func TestCheckout_TwoItemsProduceTwoBookings(t *testing.T) {
	backend := &fakeBackend{}
	cart := &fakeCart{items: []model.CartItem{
		cartItem("1", "Grand Palace", 1000, 2),
		cartItem("2", "Sea Breeze", 2000, 1),
	}}
	sink := &fakeSink{}

	outcome, err := newTestPipeline(backend, cart, sink).Checkout(
		context.Background(),
		model.CustomerInfo{Name: "Alice", Email: "alice@example.com", Phone: "+91-1234567890"},
		"card")

	require.NoError(t, err)
	require.True(t, outcome.Success)
	require.Len(t, outcome.Bookings, 2)

	assert.Equal(t, 2000.0, outcome.Bookings[0].TotalPrice)
	assert.Equal(t, 2000.0, outcome.Bookings[1].TotalPrice)
	assert.Equal(t, 2, outcome.Bookings[0].Rooms)
	assert.Equal(t, 1, outcome.Bookings[1].Rooms)
	assert.Equal(t, "INR", outcome.Bookings[0].Currency)
	assert.Equal(t, "card", outcome.Bookings[0].PaymentMethod)
	assert.Equal(t, "successfully created 2 bookings", outcome.Message)

	assert.True(t, cart.cleared)
	assert.Equal(t, 1, backend.clearCalls)
	assert.Len(t, sink.addedBookings(), 2)
}

func TestCheckout_PartialFailureIsTolerated(t *testing.T) {
	backend := &fakeBackend{failHotels: map[string]bool{"Sea Breeze": true}}
	cart := &fakeCart{items: []model.CartItem{
		cartItem("1", "Grand Palace", 1000, 1),
		cartItem("2", "Sea Breeze", 2000, 1),
		cartItem("3", "Hill View", 500, 1),
	}}
	sink := &fakeSink{}

	outcome, err := newTestPipeline(backend, cart, sink).Checkout(
		context.Background(), model.CustomerInfo{Name: "Alice"}, "upi")

	require.NoError(t, err)
	require.True(t, outcome.Success)
	assert.Len(t, outcome.Bookings, 2)
	assert.Equal(t, 1, outcome.Skipped)
	assert.Equal(t, 3, backend.requestCount())
	assert.True(t, cart.cleared)
}

func TestCheckout_ZeroCreatedLeavesCartUntouched(t *testing.T) {
	backend := &fakeBackend{failHotels: map[string]bool{"Grand Palace": true, "Sea Breeze": true}}
	cart := &fakeCart{items: []model.CartItem{
		cartItem("1", "Grand Palace", 1000, 1),
		cartItem("2", "Sea Breeze", 2000, 1),
	}}
	sink := &fakeSink{}

	outcome, err := newTestPipeline(backend, cart, sink).Checkout(
		context.Background(), model.CustomerInfo{Name: "Alice"}, "upi")

	require.ErrorIs(t, err, ErrNoBookingsCreated)
	assert.False(t, outcome.Success)
	assert.Zero(t, backend.clearCalls)
	assert.False(t, cart.cleared)
	assert.Len(t, cart.Items(), 2)
	assert.Empty(t, sink.addedBookings())
}

func TestCheckout_SkipsItemsWithoutHotelNameOrLocation(t *testing.T) {
	backend := &fakeBackend{}
	nameless := cartItem("1", "", 1000, 1)
	homeless := cartItem("2", "Sea Breeze", 2000, 1)
	homeless.Location = ""
	cart := &fakeCart{items: []model.CartItem{
		nameless,
		homeless,
		cartItem("3", "Hill View", 500, 1),
	}}
	sink := &fakeSink{}

	outcome, err := newTestPipeline(backend, cart, sink).Checkout(
		context.Background(), model.CustomerInfo{Name: "Alice"}, "upi")

	require.NoError(t, err)
	assert.Len(t, outcome.Bookings, 1)
	assert.Equal(t, 2, outcome.Skipped)
	assert.Equal(t, 1, backend.requestCount())
}

func TestCheckout_AppliesDefaults(t *testing.T) {
	backend := &fakeBackend{}
	bare := model.CartItem{
		ID:        "1",
		HotelName: "Grand Palace",
		Location:  "Mumbai",
		Price:     1500,
		Quantity:  0,
	}
	cart := &fakeCart{items: []model.CartItem{bare}}
	sink := &fakeSink{}

	outcome, err := newTestPipeline(backend, cart, sink).Checkout(
		context.Background(), model.CustomerInfo{}, "")

	require.NoError(t, err)
	require.True(t, outcome.Success)
	require.Len(t, backend.requests, 1)

	req := backend.requests[0]
	assert.Equal(t, "2026-08-31", req.CheckIn)
	assert.Equal(t, "2026-09-01", req.CheckOut)
	assert.Equal(t, 1, req.Rooms)
	assert.Equal(t, 2, req.Guests)
	assert.Equal(t, "Guest User", req.CustomerInfo.Name)
	assert.Equal(t, "guest@example.com", req.CustomerInfo.Email)
	assert.Equal(t, "upi", req.PaymentMethod)
}

func TestCheckout_SchedulesBackgroundReconciliation(t *testing.T) {
	backend := &fakeBackend{}
	cart := &fakeCart{items: []model.CartItem{cartItem("1", "Grand Palace", 1000, 1)}}
	sink := &fakeSink{reconciled: make(chan struct{}, 1)}

	p := NewPipeline(backend, cart, sink, zap.NewNop(), "INR", 10*time.Millisecond)
	_, err := p.Checkout(context.Background(), model.CustomerInfo{Name: "Alice"}, "upi")
	require.NoError(t, err)

	select {
	case <-sink.reconciled:
	case <-time.After(time.Second):
		t.Fatalf("reconciliation was not scheduled")
	}
}
