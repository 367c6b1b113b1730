package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/jugueria-api/internal/application/users"
)

type authenticateRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type changePasswordRequest struct {
	Actual string `json:"password_actual"`
	Nueva  string `json:"password_nueva"`
}

type resetPasswordRequest struct {
	Email string `json:"email"`
}

// UserHandler maneja autenticación y administración de cuentas.
type UserHandler struct {
	svc *users.Service
}

// NewUserHandler construye el handler.
func NewUserHandler(svc *users.Service) *UserHandler {
	return &UserHandler{svc: svc}
}

// Authenticate godoc
// @Summary      Verificar credenciales
// @Tags         usuarios
// @Accept       json
// @Produce      json
// @Param        body  body  authenticateRequest  true  "Email y contraseña"
// @Success      200   {object}  map[string]interface{}
// @Failure      401   {object}  dto.ErrorResponse
// @Failure      403   {object}  dto.ErrorResponse
// @Router       /api/usuarios/autenticar [post]
func (h *UserHandler) Authenticate(c *fiber.Ctx) error {
	var in authenticateRequest
	if err := decodeJSON(c, &in); err != nil {
		return invalidBody(c)
	}
	out, err := h.svc.Authenticate(c.UserContext(), in.Email, in.Password)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// ChangePassword godoc
// @Summary      Cambiar contraseña
// @Tags         usuarios
// @Accept       json
// @Produce      json
// @Param        id    path  string                 true  "ID del usuario"
// @Param        body  body  changePasswordRequest  true  "Contraseña actual y nueva"
// @Success      200   {object}  users.PasswordChange
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/usuarios/{id}/password [patch]
func (h *UserHandler) ChangePassword(c *fiber.Ctx) error {
	var in changePasswordRequest
	if err := decodeJSON(c, &in); err != nil {
		return invalidBody(c)
	}
	out, err := h.svc.ChangePassword(c.UserContext(), c.Params("id"), in.Actual, in.Nueva)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// ResetPassword godoc
// @Summary      Restablecer contraseña
// @Tags         usuarios
// @Accept       json
// @Produce      json
// @Param        body  body  resetPasswordRequest  true  "Email"
// @Success      200   {object}  users.PasswordReset
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/usuarios/reset-password [post]
func (h *UserHandler) ResetPassword(c *fiber.Ctx) error {
	var in resetPasswordRequest
	if err := decodeJSON(c, &in); err != nil {
		return invalidBody(c)
	}
	out, err := h.svc.ResetPassword(c.UserContext(), in.Email)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// ToggleActive godoc
// @Summary      Activar o desactivar usuario
// @Tags         usuarios
// @Produce      json
// @Param        id   path  string  true  "ID del usuario"
// @Success      200  {object}  map[string]interface{}
// @Router       /api/usuarios/{id}/toggle [patch]
func (h *UserHandler) ToggleActive(c *fiber.Ctx) error {
	out, err := h.svc.ToggleActive(c.UserContext(), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// ByType godoc
// @Summary      Usuarios activos por tipo
// @Tags         usuarios
// @Produce      json
// @Param        tipo  path  string  true  "cliente, trabajador, admin"
// @Success      200  {array}  map[string]interface{}
// @Router       /api/usuarios/tipo/{tipo} [get]
func (h *UserHandler) ByType(c *fiber.Ctx) error {
	out, err := h.svc.ByType(c.UserContext(), c.Params("tipo"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// Stats godoc
// @Summary      Estadísticas de usuarios
// @Tags         usuarios
// @Produce      json
// @Success      200  {object}  users.Stats
// @Router       /api/usuarios/estadisticas [get]
func (h *UserHandler) Stats(c *fiber.Ctx) error {
	out, err := h.svc.Stats(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}
