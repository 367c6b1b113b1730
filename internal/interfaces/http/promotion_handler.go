package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/jugueria-api/internal/application/promotions"
	"github.com/jhoicas/jugueria-api/internal/domain"
)

type discountRequest struct {
	Subtotal *decimal.Decimal `json:"subtotal"`
}

type extendRequest struct {
	FechaFin string `json:"fecha_fin"`
}

type promotionProductsRequest struct {
	Productos any `json:"productos"`
}

// PromotionHandler maneja descuentos, vigencia y productos de promociones.
type PromotionHandler struct {
	svc *promotions.Service
}

// NewPromotionHandler construye el handler.
func NewPromotionHandler(svc *promotions.Service) *PromotionHandler {
	return &PromotionHandler{svc: svc}
}

// Create godoc
// @Summary      Crear promoción con sus productos aplicables
// @Tags         promociones
// @Accept       json
// @Produce      json
// @Param        body  body  map[string]interface{}  true  "Promoción; productos_aplicables como arreglo, JSON o CSV"
// @Success      201   {object}  map[string]interface{}
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/promociones [post]
func (h *PromotionHandler) Create(c *fiber.Ctx) error {
	data, err := decodeRecord(c)
	if err != nil {
		return invalidBody(c)
	}
	out, err := h.svc.CreateWithProducts(c.UserContext(), data)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// Update godoc
// @Summary      Reemplazar promoción y, si vienen, sus productos
// @Tags         promociones
// @Accept       json
// @Produce      json
// @Param        id    path  string                  true  "ID de la promoción"
// @Param        body  body  map[string]interface{}  true  "Promoción completa"
// @Success      200   {object}  map[string]interface{}
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/promociones/{id} [put]
func (h *PromotionHandler) Update(c *fiber.Ctx) error {
	data, err := decodeRecord(c)
	if err != nil {
		return invalidBody(c)
	}
	out, err := h.svc.UpdateWithProducts(c.UserContext(), c.Params("id"), data)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// CalculateDiscount godoc
// @Summary      Calcular descuento de una promoción
// @Tags         promociones
// @Accept       json
// @Produce      json
// @Param        id    path  string           true  "ID de la promoción"
// @Param        body  body  discountRequest  true  "Subtotal"
// @Success      200   {object}  promotions.DiscountResult
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      422   {object}  dto.ErrorResponse
// @Router       /api/promociones/{id}/descuento [post]
func (h *PromotionHandler) CalculateDiscount(c *fiber.Ctx) error {
	var in discountRequest
	if err := decodeJSON(c, &in); err != nil {
		return invalidBody(c)
	}
	if in.Subtotal == nil {
		return respondError(c, domain.NewValidationError("El subtotal es requerido"))
	}
	out, err := h.svc.CalculateDiscount(c.UserContext(), c.Params("id"), *in.Subtotal)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// Active godoc
// @Summary      Promociones vigentes
// @Tags         promociones
// @Produce      json
// @Success      200  {array}  map[string]interface{}
// @Router       /api/promociones/activas [get]
func (h *PromotionHandler) Active(c *fiber.Ctx) error {
	out, err := h.svc.Active(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// ByType godoc
// @Summary      Promociones activas por tipo
// @Tags         promociones
// @Produce      json
// @Param        tipo  path  string  true  "descuento_porcentaje, descuento_fijo, 2x1, combo"
// @Success      200  {array}  map[string]interface{}
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/promociones/tipo/{tipo} [get]
func (h *PromotionHandler) ByType(c *fiber.Ctx) error {
	out, err := h.svc.ByType(c.UserContext(), c.Params("tipo"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// ToggleActive godoc
// @Summary      Activar o desactivar promoción
// @Tags         promociones
// @Produce      json
// @Param        id   path  string  true  "ID de la promoción"
// @Success      200  {object}  map[string]interface{}
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/promociones/{id}/toggle [patch]
func (h *PromotionHandler) ToggleActive(c *fiber.Ctx) error {
	out, err := h.svc.ToggleActive(c.UserContext(), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// Extend godoc
// @Summary      Extender fecha de fin
// @Tags         promociones
// @Accept       json
// @Produce      json
// @Param        id    path  string         true  "ID de la promoción"
// @Param        body  body  extendRequest  true  "Nueva fecha_fin (YYYY-MM-DD HH:MM:SS)"
// @Success      200   {object}  map[string]interface{}
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/promociones/{id}/extender [patch]
func (h *PromotionHandler) Extend(c *fiber.Ctx) error {
	var in extendRequest
	if err := decodeJSON(c, &in); err != nil {
		return invalidBody(c)
	}
	out, err := h.svc.Extend(c.UserContext(), c.Params("id"), in.FechaFin)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// Products godoc
// @Summary      Promoción con sus productos
// @Tags         promociones
// @Produce      json
// @Param        id   path  string  true  "ID de la promoción"
// @Success      200  {object}  map[string]interface{}
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/promociones/{id}/productos [get]
func (h *PromotionHandler) Products(c *fiber.Ctx) error {
	out, err := h.svc.GetWithProducts(c.UserContext(), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// SetProducts godoc
// @Summary      Reemplazar productos de la promoción
// @Tags         promociones
// @Accept       json
// @Produce      json
// @Param        id    path  string                    true  "ID de la promoción"
// @Param        body  body  promotionProductsRequest  true  "IDs como arreglo, JSON o CSV"
// @Success      200   {object}  map[string]interface{}
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/promociones/{id}/productos [put]
func (h *PromotionHandler) SetProducts(c *fiber.Ctx) error {
	var in promotionProductsRequest
	if err := decodeJSON(c, &in); err != nil {
		return invalidBody(c)
	}
	out, err := h.svc.SetProducts(c.UserContext(), c.Params("id"), in.Productos)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// Stats godoc
// @Summary      Estadísticas de promociones
// @Tags         promociones
// @Produce      json
// @Success      200  {object}  promotions.Stats
// @Router       /api/promociones/estadisticas [get]
func (h *PromotionHandler) Stats(c *fiber.Ctx) error {
	out, err := h.svc.Stats(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}
