package stub_test

import (
	"context"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mmeshcher/hotelbook/internal/api"
	"github.com/mmeshcher/hotelbook/internal/bookings"
	"github.com/mmeshcher/hotelbook/internal/cart"
	"github.com/mmeshcher/hotelbook/internal/checkout"
	"github.com/mmeshcher/hotelbook/internal/model"
	"github.com/mmeshcher/hotelbook/internal/session"
	"github.com/mmeshcher/hotelbook/internal/stub"
)

type clientEnv struct {
	srv      *stub.Server
	ts       *httptest.Server
	tokens   *session.FileStore
	client   *api.Client
	cart     *cart.Store
	bookings *bookings.Store
	pipeline *checkout.Pipeline
}

func newClientEnv(t *testing.T) *clientEnv {
	t.Helper()

	srv := stub.NewServer(zap.NewNop(), "test-secret")
	ts := httptest.NewServer(srv.Router())
	t.Cleanup(ts.Close)

	tokens, err := session.NewFileStore(filepath.Join(t.TempDir(), "session.json"))
	require.NoError(t, err)

	client := api.NewClient(ts.URL, tokens, zap.NewNop())
	cartStore := cart.NewStore(client, zap.NewNop())
	bookingStore := bookings.NewStore(client, zap.NewNop())
	pipeline := checkout.NewPipeline(client, cartStore, bookingStore, zap.NewNop(), "INR", -1)

	return &clientEnv{
		srv:      srv,
		ts:       ts,
		tokens:   tokens,
		client:   client,
		cart:     cartStore,
		bookings: bookingStore,
		pipeline: pipeline,
	}
}

func (e *clientEnv) signUp(t *testing.T, ctx context.Context) {
	t.Helper()
	require.NoError(t, e.client.Register(ctx, api.RegisterRequest{
		Username: "alice",
		Password: "secret",
		Email:    "alice@example.com",
	}))
	require.NoError(t, e.client.Login(ctx, "alice", "secret"))
}

func TestEndToEnd_CheckoutFlow(t *testing.T) {
	ctx := context.Background()
	env := newClientEnv(t)
	env.signUp(t, ctx)

	require.NoError(t, env.cart.Load(ctx))
	require.True(t, env.cart.Add(ctx, model.CartItem{
		HotelName: "Grand Palace",
		Location:  "Mumbai",
		Price:     1000,
		Quantity:  2,
		Details:   model.ItemDetails{CheckIn: "2026-09-01", CheckOut: "2026-09-03", Guests: 2},
	}).Success)
	require.True(t, env.cart.Add(ctx, model.CartItem{
		HotelName: "Sea Breeze",
		Location:  "Goa",
		Price:     2000,
		Quantity:  1,
		Details:   model.ItemDetails{CheckIn: "2026-09-05", CheckOut: "2026-09-07"},
	}).Success)

	require.NoError(t, env.bookings.Load(ctx))
	before := len(env.bookings.Current())

	outcome, err := env.pipeline.Checkout(ctx, model.CustomerInfo{
		Name:  "Alice",
		Email: "alice@example.com",
		Phone: "+91-1234567890",
	}, "card")
	require.NoError(t, err)
	require.True(t, outcome.Success)
	require.Len(t, outcome.Bookings, 2)

	assert.Equal(t, 2000.0, outcome.Bookings[0].TotalPrice)
	assert.Equal(t, 2000.0, outcome.Bookings[1].TotalPrice)

	// Корзина очищена и локально, и на сервере.
	assert.Empty(t, env.cart.Items())
	require.NoError(t, env.cart.Load(ctx))
	assert.Empty(t, env.cart.Items())

	// Оптимистичная вставка видна сразу, сверка с сервером её подтверждает.
	assert.Len(t, env.bookings.Current(), before+2)
	require.NoError(t, env.bookings.Reconcile(ctx))
	assert.Len(t, env.bookings.Current(), before+2)
}

func TestEndToEnd_CancelBooking(t *testing.T) {
	ctx := context.Background()
	env := newClientEnv(t)
	env.signUp(t, ctx)

	require.True(t, env.cart.Add(ctx, model.CartItem{
		HotelName: "Grand Palace",
		Location:  "Mumbai",
		Price:     1500,
		Quantity:  1,
		Details:   model.ItemDetails{CheckIn: "2026-09-01", CheckOut: "2026-09-02"},
	}).Success)

	outcome, err := env.pipeline.Checkout(ctx, model.CustomerInfo{Name: "Alice"}, "upi")
	require.NoError(t, err)
	bookingID := outcome.Bookings[0].ID

	res := env.bookings.Cancel(ctx, bookingID)
	require.True(t, res.Success, res.Message)

	// После сверки с сервером статус остаётся cancelled, запись в текущих.
	require.NoError(t, env.bookings.Reconcile(ctx))
	found, ok := env.bookings.FindByID(bookingID)
	require.True(t, ok)
	assert.Equal(t, model.BookingStatusCancelled, found.Status)
	assert.Len(t, env.bookings.Current(), 1)
}

func TestEndToEnd_ExpiredTokenIsRefreshedTransparently(t *testing.T) {
	ctx := context.Background()
	env := newClientEnv(t)

	// Выдаём заведомо истёкший access-токен: первый же запрос получит 401
	// и должен прозрачно обновиться по refresh-токену.
	env.srv.SetAccessTTL(-time.Minute)
	env.signUp(t, ctx)
	env.srv.SetAccessTTL(15 * time.Minute)

	staleAccess := env.tokens.AccessToken()

	user, err := env.client.CurrentUser(ctx)
	require.NoError(t, err)
	assert.Equal(t, "alice", user.Username)
	assert.NotEqual(t, staleAccess, env.tokens.AccessToken())
}

func TestEndToEnd_RevokedRefreshTokenEndsSession(t *testing.T) {
	ctx := context.Background()
	env := newClientEnv(t)

	env.srv.SetAccessTTL(-time.Minute)
	env.signUp(t, ctx)

	// Логаут отзывает refresh-токен на сервере, но имитируем клиента,
	// у которого осталась старая пара.
	refresh := env.tokens.RefreshToken()
	require.NoError(t, env.client.Logout(ctx))
	require.NoError(t, env.tokens.SetTokens("stale-access", refresh))

	_, err := env.client.CurrentUser(ctx)
	require.Error(t, err)
	assert.False(t, env.client.IsAuthenticated())
	assert.Empty(t, env.tokens.AccessToken())
	assert.Empty(t, env.tokens.RefreshToken())
}
