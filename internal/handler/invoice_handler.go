package handler

import (
	"net/http"
	"strconv"

	"app/internal/usecase"

	"github.com/labstack/echo/v4"
)

// 確定済み請求の照会
type InvoiceHandler struct {
	uc *usecase.InvoiceUsecase
}

// DI
func NewInvoiceHandler(uc *usecase.InvoiceUsecase) *InvoiceHandler {
	return &InvoiceHandler{uc: uc}
}

func (h *InvoiceHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/api/invoices", h.list)
	e.GET("/api/invoices/:id", h.detail)
}

func (h *InvoiceHandler) list(c echo.Context) error {
	outs, err := h.uc.ListInvoices(c.Request().Context())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, outs)
}

func (h *InvoiceHandler) detail(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid id"})
	}

	out, err := h.uc.GetInvoiceDetail(c.Request().Context(), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}
