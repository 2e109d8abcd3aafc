// Package validation содержит клиентские проверки данных корзины и бронирований.
// Ошибки этого пакета возвращаются до любого сетевого вызова; сервер повторяет
// те же проверки на своей стороне.
package validation

import (
	"errors"
	"fmt"
	"time"

	"github.com/mmeshcher/hotelbook/internal/model"
)

// DateLayout — формат дат заезда и выезда в API.
const DateLayout = "2006-01-02"

// MaxQuantity ограничивает число номеров в одной позиции корзины.
const MaxQuantity = 10

// CheckCartItem проверяет позицию корзины перед отправкой на сервер.
func CheckCartItem(item model.CartItem) error {
	if item.HotelName == "" {
		return errors.New("hotel name is required")
	}
	if item.Location == "" {
		return errors.New("location is required")
	}
	if item.Price <= 0 {
		return errors.New("price must be greater than 0")
	}
	if item.Quantity < 1 || item.Quantity > MaxQuantity {
		return fmt.Errorf("quantity must be between 1 and %d", MaxQuantity)
	}
	return nil
}

// CheckBookingRequest проверяет запрос на бронирование перед отправкой.
func CheckBookingRequest(req model.BookingRequest) error {
	if req.HotelName == "" {
		return errors.New("hotel name is required")
	}
	if req.Location == "" {
		return errors.New("location is required")
	}
	if req.Rooms < 1 {
		return errors.New("rooms must be at least 1")
	}
	if req.Guests < 1 {
		return errors.New("guests must be at least 1")
	}
	if req.TotalPrice <= 0 {
		return errors.New("total price must be greater than 0")
	}

	checkIn, err := time.Parse(DateLayout, req.CheckIn)
	if err != nil {
		return fmt.Errorf("invalid check-in date %q", req.CheckIn)
	}
	checkOut, err := time.Parse(DateLayout, req.CheckOut)
	if err != nil {
		return fmt.Errorf("invalid check-out date %q", req.CheckOut)
	}
	if !checkOut.After(checkIn) {
		return errors.New("check-out date must be after check-in date")
	}
	return nil
}
