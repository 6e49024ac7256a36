package server

import (
	"net/http"

	"app/internal/handler"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

type Handlers struct {
	Product      *handler.ProductHandler
	AdminProduct *handler.AdminProductHandler
	Checkout     *handler.CheckoutHandler
	Invoice      *handler.InvoiceHandler
}

// New はミドルウェアとルートを組んだechoを返す。
func New(feURL string, h Handlers) *echo.Echo {
	e := echo.New()
	e.HideBanner = true

	e.Use(middleware.Logger())
	e.Use(middleware.Recover())

	//フロントのオリジンだけ許可
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{feURL},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
	}))

	RegisterRoutes(e, h)
	return e
}

func RegisterRoutes(e *echo.Echo, h Handlers) {
	h.Product.RegisterRoutes(e)
	h.AdminProduct.RegisterRoutes(e)
	h.Checkout.RegisterRoutes(e)
	h.Invoice.RegisterRoutes(e)
}

func Start(e *echo.Echo, addr string) error {
	return e.Start(addr)
}
