package handler

import (
	"net/http"
	"strconv"

	"app/internal/usecase"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
)

// 管理画面のCRUD
type AdminProductHandler struct {
	uc *usecase.ProductUsecase
}

// DI
func NewAdminProductHandler(uc *usecase.ProductUsecase) *AdminProductHandler {
	return &AdminProductHandler{uc: uc}
}

func (h *AdminProductHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/api/admin/products", h.list)
	e.GET("/api/admin/products/:id", h.detail)
	e.POST("/api/admin/products", h.create)
	e.PUT("/api/admin/products/:id", h.update)
	e.DELETE("/api/admin/products/:id", h.delete)
	e.PUT("/api/admin/products/:id/inventory", h.updateInventory)
}

type AdminProductRequest struct {
	Barcode    string          `json:"barcode"`
	Name       string          `json:"name"`
	Type       string          `json:"type"`
	Price      decimal.Decimal `json:"price"`
	PricePerKg decimal.Decimal `json:"price_per_kg"`
	Stock      decimal.Decimal `json:"stock"`
}

type AdminInventoryRequest struct {
	Stock  decimal.Decimal `json:"stock"`
	Reason string          `json:"reason"`
}

func (h *AdminProductHandler) list(c echo.Context) error {
	items, err := h.uc.ListProducts(c.Request().Context())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, items)
}

func (h *AdminProductHandler) detail(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid id"})
	}

	p, err := h.uc.GetProductDetail(c.Request().Context(), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, p)
}

func (h *AdminProductHandler) create(c echo.Context) error {
	var req AdminProductRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	p, err := h.uc.AdminCreateProduct(c.Request().Context(), usecase.AdminSaveProductInput{
		Barcode:    req.Barcode,
		Name:       req.Name,
		Type:       req.Type,
		Price:      req.Price,
		PricePerKg: req.PricePerKg,
		Stock:      req.Stock,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, p)
}

func (h *AdminProductHandler) update(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid id"})
	}

	var req AdminProductRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	if err := h.uc.AdminUpdateProduct(c.Request().Context(), id, usecase.AdminSaveProductInput{
		Barcode:    req.Barcode,
		Name:       req.Name,
		Type:       req.Type,
		Price:      req.Price,
		PricePerKg: req.PricePerKg,
	}); err != nil {
		return writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *AdminProductHandler) delete(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid id"})
	}

	if err := h.uc.AdminDeleteProduct(c.Request().Context(), id); err != nil {
		return writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *AdminProductHandler) updateInventory(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid id"})
	}

	var req AdminInventoryRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	if err := h.uc.AdminUpdateInventory(c.Request().Context(), id, req.Stock, req.Reason); err != nil {
		return writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
