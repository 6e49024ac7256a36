package handler

import (
	"errors"
	"net/http"
	"strconv"

	"app/internal/domain/model"
	repo "app/internal/repository"
	"app/internal/usecase"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
)

// 会計エラーの返却形。失敗した行のバーコードを付ける。
type CheckoutErrorResponse struct {
	Error      string   `json:"error"`
	Barcode    string   `json:"barcode,omitempty"`
	Unrestored []string `json:"unrestored,omitempty"`
}

// 会計usecaseの型付きエラーをHTTPへ読み替える
func writeCheckoutError(c echo.Context, err error) error {
	if err == nil {
		return nil
	}

	resp := CheckoutErrorResponse{}

	var ce *usecase.CommitError
	if errors.As(err, &ce) {
		resp.Barcode = ce.Barcode
	}

	var pe *usecase.PartialCommitError
	if errors.As(err, &pe) {
		//在庫が戻せていない。オペレーターのリコンサイル対象
		resp.Error = "partial commit failure"
		resp.Unrestored = pe.Unrestored
		return c.JSON(http.StatusInternalServerError, resp)
	}

	switch {
	case errors.Is(err, usecase.ErrInvalidSession):
		resp.Error = "invalid session"
		return c.JSON(http.StatusBadRequest, resp)
	case errors.Is(err, model.ErrInvalidQuantity):
		resp.Error = "invalid quantity"
		return c.JSON(http.StatusBadRequest, resp)
	case errors.Is(err, model.ErrLineOutOfRange):
		resp.Error = "line not found"
		return c.JSON(http.StatusBadRequest, resp)
	case errors.Is(err, usecase.ErrEmptyInvoice):
		resp.Error = "no items in invoice"
		return c.JSON(http.StatusBadRequest, resp)
	case errors.Is(err, repo.ErrNotFound):
		resp.Error = "product not found"
		return c.JSON(http.StatusNotFound, resp)
	case errors.Is(err, model.ErrInsufficientStock):
		resp.Error = "insufficient stock"
		return c.JSON(http.StatusConflict, resp)
	case errors.Is(err, usecase.ErrCommitInFlight):
		resp.Error = "commit in flight"
		return c.JSON(http.StatusConflict, resp)
	case errors.Is(err, usecase.ErrTransient):
		//リトライ可能
		resp.Error = "storage temporarily unavailable"
		return c.JSON(http.StatusServiceUnavailable, resp)
	}

	resp.Error = "internal error"
	return c.JSON(http.StatusInternalServerError, resp)
}

// レジの会計フロー
type CheckoutHandler struct {
	uc *usecase.CheckoutUsecase
}

// DI
func NewCheckoutHandler(uc *usecase.CheckoutUsecase) *CheckoutHandler {
	return &CheckoutHandler{uc: uc}
}

func (h *CheckoutHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/api/checkout/:session", h.draft)
	e.POST("/api/checkout/:session/scan", h.scan)
	e.DELETE("/api/checkout/:session/lines/:index", h.removeLine)
	e.POST("/api/checkout/:session/clear", h.clear)
	e.POST("/api/checkout/:session/bill", h.generateBill)
}

type ScanRequest struct {
	Barcode string          `json:"barcode"`
	Qty     decimal.Decimal `json:"qty"`
}

func (h *CheckoutHandler) draft(c echo.Context) error {
	out, err := h.uc.GetDraft(c.Request().Context(), c.Param("session"))
	if err != nil {
		return writeCheckoutError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *CheckoutHandler) scan(c echo.Context) error {
	var req ScanRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, CheckoutErrorResponse{Error: "invalid body"})
	}

	out, err := h.uc.Scan(c.Request().Context(), c.Param("session"), req.Barcode, req.Qty)
	if err != nil {
		return writeCheckoutError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *CheckoutHandler) removeLine(c echo.Context) error {
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, CheckoutErrorResponse{Error: "invalid index"})
	}

	out, err := h.uc.RemoveLine(c.Request().Context(), c.Param("session"), index)
	if err != nil {
		return writeCheckoutError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *CheckoutHandler) clear(c echo.Context) error {
	out, err := h.uc.ClearDraft(c.Request().Context(), c.Param("session"))
	if err != nil {
		return writeCheckoutError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *CheckoutHandler) generateBill(c echo.Context) error {
	out, err := h.uc.GenerateBill(c.Request().Context(), c.Param("session"))
	if err != nil {
		return writeCheckoutError(c, err)
	}
	return c.JSON(http.StatusCreated, out)
}
