package stub

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mmeshcher/hotelbook/internal/model"
	"github.com/mmeshcher/hotelbook/internal/validation"
)

type registerRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Email    string `json:"email"`
	Age      int    `json:"Age"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Username == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "username and password are required")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.accounts[req.Username]; exists {
		writeError(w, http.StatusConflict, "user already exists")
		return
	}
	s.accounts[req.Username] = account{
		Password: req.Password,
		Email:    req.Email,
		Age:      req.Age,
	}

	s.logger.Info("user registered", zap.String("username", req.Username))
	writeJSON(w, http.StatusOK, map[string]string{"msg": "registered"})
}

// handleToken реализует OAuth2-вход: принимает form-данные и возвращает
// пару токенов.
func (s *Server) handleToken(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeError(w, http.StatusBadRequest, "invalid form data")
		return
	}

	username := r.PostFormValue("username")
	password := r.PostFormValue("password")

	s.mu.Lock()
	acc, exists := s.accounts[username]
	s.mu.Unlock()

	if !exists || acc.Password != password {
		writeError(w, http.StatusUnauthorized, "incorrect username or password")
		return
	}

	pair, err := s.issuePair(username)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "token issue failed")
		return
	}

	s.logger.Info("user logged in", zap.String("username", username))
	writeJSON(w, http.StatusOK, pair)
}

func (s *Server) handleRefreshToken(w http.ResponseWriter, r *http.Request) {
	var req struct {
		RefreshToken string `json:"refresh_token"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.RefreshToken == "" {
		writeError(w, http.StatusBadRequest, "refresh_token is required")
		return
	}

	s.mu.Lock()
	revoked := s.revoked[req.RefreshToken]
	s.mu.Unlock()
	if revoked {
		writeError(w, http.StatusUnauthorized, "refresh token revoked")
		return
	}

	username, err := s.parseToken(req.RefreshToken, "refresh")
	if err != nil {
		writeError(w, http.StatusUnauthorized, "invalid refresh token")
		return
	}

	pair, err := s.issuePair(username)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "token issue failed")
		return
	}

	s.logger.Info("token refreshed", zap.String("username", username))
	writeJSON(w, http.StatusOK, pair)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	var req struct {
		RefreshToken string `json:"refresh_token"`
	}
	_ = json.NewDecoder(r.Body).Decode(&req)

	if req.RefreshToken != "" {
		s.mu.Lock()
		s.revoked[req.RefreshToken] = true
		s.mu.Unlock()
	}

	writeJSON(w, http.StatusOK, map[string]string{"msg": "logged out"})
}

func (s *Server) handleCurrentUser(w http.ResponseWriter, r *http.Request) {
	username, ok := usernameFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	s.mu.Lock()
	acc := s.accounts[username]
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, model.User{
		Username: username,
		Email:    acc.Email,
		Age:      acc.Age,
	})
}

func (s *Server) handleGetCart(w http.ResponseWriter, r *http.Request) {
	username, _ := usernameFromContext(r.Context())

	s.mu.Lock()
	items := append([]model.CartItem{}, s.carts[username]...)
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, items)
}

func (s *Server) handleAddCartItem(w http.ResponseWriter, r *http.Request) {
	username, _ := usernameFromContext(r.Context())

	var item model.CartItem
	if err := json.NewDecoder(r.Body).Decode(&item); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if item.Quantity == 0 {
		item.Quantity = 1
	}
	if err := validation.CheckCartItem(item); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	item.ID = uuid.NewString()

	s.mu.Lock()
	s.carts[username] = append(s.carts[username], item)
	s.mu.Unlock()

	s.logger.Info("cart item added",
		zap.String("username", username), zap.String("hotel", item.HotelName))
	writeJSON(w, http.StatusOK, item)
}

func (s *Server) handleUpdateCartItem(w http.ResponseWriter, r *http.Request) {
	username, _ := usernameFromContext(r.Context())
	itemID := chi.URLParam(r, "itemID")

	quantity, err := strconv.Atoi(r.URL.Query().Get("quantity"))
	if err != nil || quantity < 1 || quantity > validation.MaxQuantity {
		writeError(w, http.StatusBadRequest, "invalid quantity")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.carts[username] {
		if s.carts[username][i].ID == itemID {
			s.carts[username][i].Quantity = quantity
			writeJSON(w, http.StatusOK, s.carts[username][i])
			return
		}
	}
	writeError(w, http.StatusNotFound, "cart item not found")
}

func (s *Server) handleRemoveCartItem(w http.ResponseWriter, r *http.Request) {
	username, _ := usernameFromContext(r.Context())
	itemID := chi.URLParam(r, "itemID")

	s.mu.Lock()
	defer s.mu.Unlock()

	items := s.carts[username]
	for i := range items {
		if items[i].ID == itemID {
			s.carts[username] = append(items[:i], items[i+1:]...)
			writeJSON(w, http.StatusOK, map[string]string{"msg": "removed"})
			return
		}
	}
	writeError(w, http.StatusNotFound, "cart item not found")
}

func (s *Server) handleClearCart(w http.ResponseWriter, r *http.Request) {
	username, _ := usernameFromContext(r.Context())

	s.mu.Lock()
	removed := len(s.carts[username])
	delete(s.carts, username)
	s.mu.Unlock()

	s.logger.Info("cart cleared",
		zap.String("username", username), zap.Int("removed", removed))
	writeJSON(w, http.StatusOK, map[string]string{"msg": "cart cleared"})
}

func (s *Server) handleCurrentBookings(w http.ResponseWriter, r *http.Request) {
	username, _ := usernameFromContext(r.Context())

	s.mu.Lock()
	bookings := append([]model.Booking{}, s.current[username]...)
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, bookings)
}

func (s *Server) handlePastBookings(w http.ResponseWriter, r *http.Request) {
	username, _ := usernameFromContext(r.Context())

	s.mu.Lock()
	bookings := append([]model.Booking{}, s.past[username]...)
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, bookings)
}

func (s *Server) handleCreateBooking(w http.ResponseWriter, r *http.Request) {
	username, _ := usernameFromContext(r.Context())

	var req model.BookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validation.CheckBookingRequest(req); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	booking := model.Booking{
		ID:              uuid.NewString(),
		HotelName:       req.HotelName,
		Location:        req.Location,
		CheckIn:         req.CheckIn,
		CheckOut:        req.CheckOut,
		Rooms:           req.Rooms,
		Guests:          req.Guests,
		TotalPrice:      req.TotalPrice,
		Currency:        req.Currency,
		CustomerInfo:    req.CustomerInfo,
		PaymentMethod:   req.PaymentMethod,
		Status:          model.BookingStatusConfirmed,
		SpecialRequests: req.SpecialRequests,
	}

	s.mu.Lock()
	s.current[username] = append(s.current[username], booking)
	s.mu.Unlock()

	s.logger.Info("booking created",
		zap.String("username", username),
		zap.String("bookingID", booking.ID),
		zap.String("hotel", booking.HotelName))
	writeJSON(w, http.StatusOK, booking)
}

func (s *Server) handleCancelBooking(w http.ResponseWriter, r *http.Request) {
	username, _ := usernameFromContext(r.Context())
	bookingID := chi.URLParam(r, "bookingID")

	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.current[username] {
		b := &s.current[username][i]
		if b.ID != bookingID {
			continue
		}
		if b.Status.Terminal() {
			writeError(w, http.StatusConflict, "booking is already "+string(b.Status))
			return
		}
		b.Status = model.BookingStatusCancelled
		writeJSON(w, http.StatusOK, *b)
		return
	}
	writeError(w, http.StatusNotFound, "booking not found")
}

// handleRecommend отдаёт статичную подборку отелей, отфильтрованную по
// предпочтениям. Алгоритм подбора не входит в зону ответственности заглушки.
func (s *Server) handleRecommend(w http.ResponseWriter, r *http.Request) {
	var prefs struct {
		Location string  `json:"location"`
		MaxPrice float64 `json:"max_price"`
	}
	if err := json.NewDecoder(r.Body).Decode(&prefs); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	catalog := []model.Hotel{
		{Name: "Grand Palace", Location: "Mumbai", Price: 4500, Rating: 4.6, Amenities: []string{"wifi", "pool"}},
		{Name: "Sea Breeze", Location: "Goa", Price: 3200, Rating: 4.3, Amenities: []string{"wifi", "beach"}},
		{Name: "Hill View", Location: "Manali", Price: 2100, Rating: 4.1, Amenities: []string{"wifi", "parking"}},
		{Name: "City Comfort", Location: "Mumbai", Price: 1800, Rating: 3.9, Amenities: []string{"wifi"}},
	}

	result := make([]model.Hotel, 0, len(catalog))
	for _, h := range catalog {
		if prefs.Location != "" && h.Location != prefs.Location {
			continue
		}
		if prefs.MaxPrice > 0 && h.Price > prefs.MaxPrice {
			continue
		}
		result = append(result, h)
	}

	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleChatbot(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Message string `json:"message"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Message == "" {
		writeError(w, http.StatusBadRequest, "message is required")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"response": "I can help you search hotels, manage your cart and review bookings.",
	})
}
