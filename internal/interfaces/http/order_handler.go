package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/jugueria-api/internal/application/orders"
	"github.com/jhoicas/jugueria-api/internal/domain/entity"
)

// createOrderRequest cuerpo de POST /pedidos/completo.
type createOrderRequest struct {
	Pedido    entity.Record     `json:"pedido"`
	Productos []orders.LineItem `json:"productos"`
}

type updateStatusRequest struct {
	Estado string `json:"estado"`
}

// OrderHandler maneja pedidos completos, estados, ventas y reportes.
type OrderHandler struct {
	svc *orders.Service
}

// NewOrderHandler construye el handler.
func NewOrderHandler(svc *orders.Service) *OrderHandler {
	return &OrderHandler{svc: svc}
}

// CreateWithProducts godoc
// @Summary      Crear pedido con sus productos
// @Tags         pedidos
// @Accept       json
// @Produce      json
// @Param        body  body  createOrderRequest  true  "Pedido y líneas"
// @Success      201   {object}  map[string]interface{}
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/pedidos/completo [post]
func (h *OrderHandler) CreateWithProducts(c *fiber.Ctx) error {
	var in createOrderRequest
	if err := decodeJSON(c, &in); err != nil {
		return invalidBody(c)
	}
	if in.Pedido == nil {
		in.Pedido = entity.Record{}
	}
	out, err := h.svc.CreateWithProducts(c.UserContext(), in.Pedido, in.Productos)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// GetWithProducts godoc
// @Summary      Obtener pedido con sus productos
// @Tags         pedidos
// @Produce      json
// @Param        id   path  string  true  "ID del pedido"
// @Success      200  {object}  map[string]interface{}
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/pedidos/{id}/completo [get]
func (h *OrderHandler) GetWithProducts(c *fiber.Ctx) error {
	out, err := h.svc.GetWithProducts(c.UserContext(), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// UpdateStatus godoc
// @Summary      Cambiar estado del pedido
// @Tags         pedidos
// @Accept       json
// @Produce      json
// @Param        id    path  string               true  "ID del pedido"
// @Param        body  body  updateStatusRequest  true  "Nuevo estado"
// @Success      200   {object}  map[string]interface{}
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/pedidos/{id}/estado [patch]
func (h *OrderHandler) UpdateStatus(c *fiber.Ctx) error {
	var in updateStatusRequest
	if err := decodeJSON(c, &in); err != nil {
		return invalidBody(c)
	}
	out, err := h.svc.UpdateStatus(c.UserContext(), c.Params("id"), in.Estado)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// CreateSale godoc
// @Summary      Registrar la venta de un pedido entregado
// @Tags         pedidos
// @Accept       json
// @Produce      json
// @Param        id    path  string         true   "ID del pedido"
// @Param        body  body  orders.Seller  false  "Vendedor"
// @Success      201   {object}  map[string]interface{}
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Failure      422   {object}  dto.ErrorResponse
// @Router       /api/pedidos/{id}/venta [post]
func (h *OrderHandler) CreateSale(c *fiber.Ctx) error {
	var seller orders.Seller
	if err := decodeJSON(c, &seller); err != nil {
		return invalidBody(c)
	}
	out, err := h.svc.CreateSaleFromOrder(c.UserContext(), c.Params("id"), seller)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// Stats godoc
// @Summary      Estadísticas de pedidos
// @Tags         pedidos
// @Produce      json
// @Param        fecha_desde  query  string  false  "YYYY-MM-DD"
// @Param        fecha_hasta  query  string  false  "YYYY-MM-DD"
// @Success      200  {object}  orders.OrderStats
// @Router       /api/pedidos/estadisticas [get]
func (h *OrderHandler) Stats(c *fiber.Ctx) error {
	out, err := h.svc.Stats(c.UserContext(), c.Query("fecha_desde"), c.Query("fecha_hasta"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// SalesStats godoc
// @Summary      Estadísticas de ventas por período
// @Tags         ventas
// @Produce      json
// @Param        fecha_desde  query  string  true  "YYYY-MM-DD"
// @Param        fecha_hasta  query  string  true  "YYYY-MM-DD"
// @Success      200  {object}  orders.SalesStats
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/ventas/estadisticas [get]
func (h *OrderHandler) SalesStats(c *fiber.Ctx) error {
	out, err := h.svc.SalesStats(c.UserContext(), c.Query("fecha_desde"), c.Query("fecha_hasta"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// DailyReport godoc
// @Summary      Reporte diario de ventas por turno
// @Tags         ventas
// @Produce      json
// @Param        fecha  query  string  false  "YYYY-MM-DD (hoy si se omite)"
// @Success      200  {object}  orders.DailyReport
// @Router       /api/ventas/reporte-diario [get]
func (h *OrderHandler) DailyReport(c *fiber.Ctx) error {
	out, err := h.svc.DailyReport(c.UserContext(), c.Query("fecha"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// TopProducts godoc
// @Summary      Productos más vendidos
// @Tags         ventas
// @Produce      json
// @Param        fecha_desde  query  string  false  "YYYY-MM-DD"
// @Param        fecha_hasta  query  string  false  "YYYY-MM-DD"
// @Param        limit        query  int     false  "Máximo de productos (10 por defecto)"
// @Success      200  {array}   orders.TopProduct
// @Router       /api/ventas/top-productos [get]
func (h *OrderHandler) TopProducts(c *fiber.Ctx) error {
	out, err := h.svc.TopProducts(c.UserContext(), c.Query("fecha_desde"), c.Query("fecha_hasta"), c.QueryInt("limit", 10))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}
