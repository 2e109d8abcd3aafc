// Package main реализует консольный клиент сервиса бронирования отелей.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mmeshcher/hotelbook/internal/api"
	"github.com/mmeshcher/hotelbook/internal/bookings"
	"github.com/mmeshcher/hotelbook/internal/cart"
	"github.com/mmeshcher/hotelbook/internal/checkout"
	"github.com/mmeshcher/hotelbook/internal/config"
	"github.com/mmeshcher/hotelbook/internal/model"
	"github.com/mmeshcher/hotelbook/internal/session"
)

const usage = `usage: hotelbook [flags] <command> [args]

commands:
  register <username> <password> <email>
  login <username> <password>
  logout
  me
  ping
  cart
  cart-add <hotel> <location> <price> [quantity]
  cart-qty <itemID> <quantity>
  cart-remove <itemID>
  cart-clear
  checkout <name> <email> <phone> [payment]
  bookings
  cancel <bookingID>
  recommend <location> [maxPrice]
  chat <message>
`

func main() {
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	sugar := logger.Sugar()

	cfg, err := config.Parse()
	if err != nil {
		sugar.Fatalw("configuration error", "error", err.Error())
	}

	args := flag.Args()
	if len(args) == 0 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	tokens, err := session.NewFileStore(cfg.SessionFile)
	if err != nil {
		sugar.Fatalw("session store error", "error", err.Error())
	}

	client := api.NewClient(cfg.APIAddress, tokens, logger)
	cartStore := cart.NewStore(client, logger)
	bookingStore := bookings.NewStore(client, logger)
	pipeline := checkout.NewPipeline(client, cartStore, bookingStore, logger, cfg.Currency, 2*time.Second)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := run(ctx, args, client, cartStore, bookingStore, pipeline); err != nil {
		sugar.Fatalw("command failed", "command", args[0], "error", err.Error())
	}
}

func run(ctx context.Context, args []string, client *api.Client, cartStore *cart.Store, bookingStore *bookings.Store, pipeline *checkout.Pipeline) error {
	switch args[0] {
	case "register":
		if len(args) < 4 {
			return fmt.Errorf("register expects username, password and email")
		}
		if err := client.Register(ctx, api.RegisterRequest{
			Username: args[1],
			Password: args[2],
			Email:    args[3],
		}); err != nil {
			return err
		}
		fmt.Println("registered, now log in")
		return nil

	case "login":
		if len(args) < 3 {
			return fmt.Errorf("login expects username and password")
		}
		if err := client.Login(ctx, args[1], args[2]); err != nil {
			return err
		}
		fmt.Println("logged in")
		return nil

	case "logout":
		if err := client.Logout(ctx); err != nil {
			return err
		}
		cartStore.Reset()
		bookingStore.Reset()
		fmt.Println("logged out")
		return nil

	case "me":
		user, err := client.CurrentUser(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("%s <%s>\n", user.Username, user.Email)
		return nil

	case "ping":
		if err := client.Ping(ctx); err != nil {
			return fmt.Errorf("backend unreachable: %w", err)
		}
		fmt.Println("backend is reachable")
		return nil

	case "cart":
		if err := cartStore.Load(ctx); err != nil {
			return err
		}
		for _, it := range cartStore.Items() {
			fmt.Printf("%s  %s (%s)  %.2f x%d\n", it.ID, it.HotelName, it.Location, it.Price, it.Quantity)
		}
		summary := cartStore.Summary()
		fmt.Printf("%s, total %.2f\n", summary.Describe(), summary.Total)
		return nil

	case "cart-add":
		if len(args) < 4 {
			return fmt.Errorf("cart-add expects hotel, location and price")
		}
		price, err := strconv.ParseFloat(args[3], 64)
		if err != nil {
			return fmt.Errorf("invalid price %q", args[3])
		}
		quantity := 1
		if len(args) > 4 {
			if quantity, err = strconv.Atoi(args[4]); err != nil {
				return fmt.Errorf("invalid quantity %q", args[4])
			}
		}
		return report(cartStore.Add(ctx, model.CartItem{
			HotelName: args[1],
			Location:  args[2],
			Price:     price,
			Quantity:  quantity,
		}))

	case "cart-qty":
		if len(args) < 3 {
			return fmt.Errorf("cart-qty expects itemID and quantity")
		}
		quantity, err := strconv.Atoi(args[2])
		if err != nil {
			return fmt.Errorf("invalid quantity %q", args[2])
		}
		if err := cartStore.Load(ctx); err != nil {
			return err
		}
		return report(cartStore.UpdateQuantity(ctx, args[1], quantity))

	case "cart-remove":
		if len(args) < 2 {
			return fmt.Errorf("cart-remove expects itemID")
		}
		if err := cartStore.Load(ctx); err != nil {
			return err
		}
		return report(cartStore.Remove(ctx, args[1]))

	case "cart-clear":
		if err := cartStore.Load(ctx); err != nil {
			return err
		}
		return report(cartStore.Clear(ctx))

	case "checkout":
		if len(args) < 4 {
			return fmt.Errorf("checkout expects name, email and phone")
		}
		if err := cartStore.Load(ctx); err != nil {
			return err
		}
		payment := "upi"
		if len(args) > 4 {
			payment = args[4]
		}
		outcome, err := pipeline.Checkout(ctx, model.CustomerInfo{
			Name:  args[1],
			Email: args[2],
			Phone: args[3],
		}, payment)
		if err != nil {
			return err
		}
		fmt.Println(outcome.Message)
		for _, b := range outcome.Bookings {
			fmt.Printf("%s  %s  %s..%s  %.2f %s\n", b.ID, b.HotelName, b.CheckIn, b.CheckOut, b.TotalPrice, b.Currency)
		}
		return nil

	case "bookings":
		if err := bookingStore.Load(ctx); err != nil {
			return err
		}
		fmt.Println("current:")
		for _, b := range bookingStore.Current() {
			fmt.Printf("  %s  %s  %s  %.2f %s\n", b.ID, b.HotelName, b.Status, b.TotalPrice, b.Currency)
		}
		fmt.Println("past:")
		for _, b := range bookingStore.Past() {
			fmt.Printf("  %s  %s  %s  %.2f %s\n", b.ID, b.HotelName, b.Status, b.TotalPrice, b.Currency)
		}
		stats := bookingStore.Stats()
		spending := bookingStore.TotalSpending()
		fmt.Printf("total %d, confirmed %d, cancelled %d, completed %d, spent %.2f\n",
			stats.Total, stats.Confirmed, stats.Cancelled, stats.Completed, spending.Total)
		return nil

	case "cancel":
		if len(args) < 2 {
			return fmt.Errorf("cancel expects bookingID")
		}
		if err := bookingStore.Load(ctx); err != nil {
			return err
		}
		res := bookingStore.Cancel(ctx, args[1])
		if !res.Success {
			return fmt.Errorf("%s", res.Message)
		}
		fmt.Println(res.Message)
		return nil

	case "recommend":
		if len(args) < 2 {
			return fmt.Errorf("recommend expects location")
		}
		prefs := api.SearchPreferences{Location: args[1]}
		if len(args) > 2 {
			maxPrice, err := strconv.ParseFloat(args[2], 64)
			if err != nil {
				return fmt.Errorf("invalid max price %q", args[2])
			}
			prefs.MaxPrice = maxPrice
		}
		hotels, err := client.Recommend(ctx, prefs)
		if err != nil {
			return err
		}
		for _, h := range hotels {
			fmt.Printf("%s (%s)  %.2f  rating %.1f\n", h.Name, h.Location, h.Price, h.Rating)
		}
		return nil

	case "chat":
		if len(args) < 2 {
			return fmt.Errorf("chat expects a message")
		}
		reply, err := client.SendChatMessage(ctx, strings.Join(args[1:], " "))
		if err != nil {
			return err
		}
		fmt.Println(reply)
		return nil

	default:
		fmt.Fprint(os.Stderr, usage)
		return fmt.Errorf("unknown command %q", args[0])
	}
}

func report(res cart.Result) error {
	if !res.Success {
		return fmt.Errorf("%s", res.Message)
	}
	fmt.Println(res.Message)
	return nil
}
