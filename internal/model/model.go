// Package model содержит доменные сущности клиента бронирования отелей.
package model

import "fmt"

// CartItem представляет отель, добавленный в корзину, но ещё не забронированный.
// Каноничный экземпляр всегда приходит от сервера: локальная копия никогда
// не собирается из пользовательского ввода.
type CartItem struct {
	ID        string      `json:"id"`
	HotelName string      `json:"hotel_name"`
	Location  string      `json:"location"`
	Price     float64     `json:"price"`
	Quantity  int         `json:"quantity"`
	Details   ItemDetails `json:"details"`
}

// ItemDetails содержит параметры проживания, привязанные к позиции корзины.
type ItemDetails struct {
	CheckIn         string   `json:"checkIn,omitempty"`
	CheckOut        string   `json:"checkOut,omitempty"`
	Guests          int      `json:"guests,omitempty"`
	Amenities       []string `json:"amenities,omitempty"`
	SpecialRequests string   `json:"specialRequests,omitempty"`
}

// BookingStatus описывает статус бронирования.
type BookingStatus string

const (
	BookingStatusConfirmed BookingStatus = "confirmed"
	BookingStatusCompleted BookingStatus = "completed"
	BookingStatusCancelled BookingStatus = "cancelled"
)

// Terminal сообщает, является ли статус конечным: из cancelled и completed
// переходов нет.
func (s BookingStatus) Terminal() bool {
	return s == BookingStatusCancelled || s == BookingStatusCompleted
}

// CustomerInfo содержит контактные данные клиента, оформляющего бронирование.
type CustomerInfo struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

// Booking представляет подтверждённое бронирование, результат оформления корзины.
type Booking struct {
	ID              string        `json:"id"`
	HotelName       string        `json:"hotel_name"`
	Location        string        `json:"location"`
	CheckIn         string        `json:"check_in"`
	CheckOut        string        `json:"check_out"`
	Rooms           int           `json:"rooms"`
	Guests          int           `json:"guests"`
	TotalPrice      float64       `json:"total_price"`
	Currency        string        `json:"currency"`
	CustomerInfo    CustomerInfo  `json:"customer_info"`
	PaymentMethod   string        `json:"payment_method"`
	Status          BookingStatus `json:"status"`
	SpecialRequests string        `json:"special_requests,omitempty"`
}

// BookingRequest описывает тело запроса на создание бронирования.
type BookingRequest struct {
	HotelName       string       `json:"hotel_name"`
	Location        string       `json:"location"`
	CheckIn         string       `json:"check_in"`
	CheckOut        string       `json:"check_out"`
	Rooms           int          `json:"rooms"`
	Guests          int          `json:"guests"`
	TotalPrice      float64      `json:"total_price"`
	Currency        string       `json:"currency"`
	CustomerInfo    CustomerInfo `json:"customer_info"`
	PaymentMethod   string       `json:"payment_method"`
	SpecialRequests string       `json:"special_requests,omitempty"`
}

// TokenPair содержит пару токенов сессии.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
}

// User представляет профиль текущего пользователя.
type User struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Age      int    `json:"age,omitempty"`
}

// Hotel описывает отель из ответа сервиса рекомендаций.
type Hotel struct {
	Name      string   `json:"name"`
	Location  string   `json:"location"`
	Price     float64  `json:"price"`
	Rating    float64  `json:"rating,omitempty"`
	Amenities []string `json:"amenities,omitempty"`
}

// CartSummary — производное представление корзины, вычисляется по требованию
// и никогда не хранится.
type CartSummary struct {
	Total         float64
	ItemCount     int
	TotalQuantity int
	IsEmpty       bool
}

// Describe возвращает краткое человекочитаемое описание корзины.
func (s CartSummary) Describe() string {
	noun := "items"
	if s.ItemCount == 1 {
		noun = "item"
	}
	return fmt.Sprintf("%d %s (%d total)", s.ItemCount, noun, s.TotalQuantity)
}

// BookingStats содержит сводную статистику по бронированиям.
type BookingStats struct {
	Total     int
	Confirmed int
	Cancelled int
	Completed int
}

// SpendingReport содержит суммы трат по текущим и прошедшим бронированиям.
type SpendingReport struct {
	Current float64
	Past    float64
	Total   float64
}
