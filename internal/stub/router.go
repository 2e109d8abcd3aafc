package stub

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Router настраивает HTTP-маршруты заглушки бэкенда.
func (s *Server) Router() *chi.Mux {
	r := chi.NewRouter()

	r.Post("/register/", s.handleRegister)
	r.Post("/token", s.handleToken)
	r.Post("/refresh-token/", s.handleRefreshToken)
	r.Post("/logout/", s.handleLogout)

	r.Head("/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"msg": "hotelbook stub server"})
	})

	r.Group(func(r chi.Router) {
		r.Use(s.authMiddleware)

		r.Get("/users/me", s.handleCurrentUser)

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", s.handleGetCart)
			r.Post("/", s.handleAddCartItem)
			r.Delete("/", s.handleClearCart)
			r.Put("/{itemID}", s.handleUpdateCartItem)
			r.Delete("/{itemID}", s.handleRemoveCartItem)
		})

		r.Route("/bookings", func(r chi.Router) {
			r.Get("/current", s.handleCurrentBookings)
			r.Get("/past", s.handlePastBookings)
			r.Post("/", s.handleCreateBooking)
			r.Put("/{bookingID}/cancel", s.handleCancelBooking)
		})

		r.Post("/recommend/", s.handleRecommend)
		r.Post("/chatbot/", s.handleChatbot)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "not found")
	})

	return r
}
