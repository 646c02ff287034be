package server

import (
	"shop/internal/config"
	"shop/internal/handler"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
)

// Handlers はルーティング登録に必要なハンドラ一式。
type Handlers struct {
	Checkout *handler.CheckoutHandler
	Order    *handler.OrderHandler
	Webhook  *handler.WebhookHandler
	Cart     *handler.CartHandler
	Admin    *handler.AdminHandler
}

// Start はechoを組み立てて起動する。
func Start(addr string, cfg config.Config, h Handlers) error {
	e := echo.New()
	e.HideBanner = true

	e.Use(echomw.Logger())
	e.Use(echomw.Recover())

	h.Checkout.RegisterRoutes(e)
	h.Order.RegisterRoutes(e, cfg)
	h.Webhook.RegisterRoutes(e)
	h.Cart.RegisterRoutes(e)
	h.Admin.RegisterRoutes(e, cfg)

	return e.Start(addr)
}
