// Package users agrupa las operaciones de cuenta: autenticación, contraseñas y estado.
package users

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/jhoicas/jugueria-api/internal/application/engine"
	"github.com/jhoicas/jugueria-api/internal/application/entities"
	"github.com/jhoicas/jugueria-api/internal/domain"
	"github.com/jhoicas/jugueria-api/internal/domain/entity"
	"github.com/jhoicas/jugueria-api/internal/domain/repository"
	"github.com/jhoicas/jugueria-api/pkg/security"
)

// Mensajes de respuesta.
const (
	MsgPasswordChanged = "Contraseña actualizada exitosamente"
	MsgPasswordReset   = "Contraseña restablecida exitosamente"

	resetPasswordLength = 8
)

// PasswordChange respuesta de ChangePassword.
type PasswordChange struct {
	Message string `json:"message"`
	UserID  string `json:"user_id"`
}

// PasswordReset respuesta de ResetPassword. NewPassword es la contraseña temporal generada.
type PasswordReset struct {
	Message     string `json:"message"`
	NewPassword string `json:"new_password"`
	UserID      string `json:"user_id"`
	Email       string `json:"email"`
}

// Stats conteos de usuarios por tipo y estado.
type Stats struct {
	Total   int `json:"total"`
	PorTipo struct {
		Clientes        int `json:"clientes"`
		Trabajadores    int `json:"trabajadores"`
		Administradores int `json:"administradores"`
	} `json:"por_tipo"`
	PorEstado struct {
		Activos   int `json:"activos"`
		Inactivos int `json:"inactivos"`
	} `json:"por_estado"`
}

// Service operaciones de cuenta sobre la tabla de usuarios.
type Service struct {
	users *engine.Engine
	log   zerolog.Logger
}

// NewService construye el servicio.
func NewService(reg *entities.Registry, store repository.RecordStore, log zerolog.Logger) *Service {
	return &Service{users: reg.MustEngine(entity.TableUsers, store), log: log}
}

// Authenticate verifica email y contraseña. Un usuario inactivo recibe ErrForbidden;
// email desconocido o contraseña incorrecta, ErrUnauthorized.
func (s *Service) Authenticate(ctx context.Context, email, password string) (entity.Record, error) {
	row, err := s.rawByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("error authenticating: %w", err)
	}
	switch {
	case row == nil:
		return nil, domain.ErrUnauthorized
	case !row.Bool("activo"):
		return nil, domain.ErrForbidden
	case !security.VerifyPassword(password, row.String("password_hash")):
		return nil, domain.ErrUnauthorized
	}

	id := row.String("id")
	s.touch(ctx, id)
	return s.users.GetByID(ctx, id)
}

// touch actualiza updated_at como última actividad. Un fallo solo se registra.
func (s *Service) touch(ctx context.Context, id string) {
	store := s.users.Store()
	d := store.Dialect()
	_, err := store.Update(ctx,
		"UPDATE "+entity.TableUsers+" SET updated_at = "+d.Placeholder(1)+" WHERE id = "+d.Placeholder(2),
		s.users.Now(), id)
	if err != nil {
		s.log.Warn().Err(err).Str("user_id", id).Msg("no se pudo actualizar la última actividad")
	}
}

// ChangePassword cambia la contraseña verificando la actual.
func (s *Service) ChangePassword(ctx context.Context, id, current, next string) (*PasswordChange, error) {
	row, err := s.rawByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("error changing password: %w", err)
	}
	if !security.VerifyPassword(current, row.String("password_hash")) {
		return nil, domain.NewValidationError("Contraseña actual incorrecta")
	}
	if len(next) < entity.MinPasswordLength {
		return nil, domain.NewValidationError("La nueva contraseña debe tener al menos 6 caracteres")
	}
	if _, err := s.users.Patch(ctx, id, entity.Record{"password": next}); err != nil {
		return nil, fmt.Errorf("error changing password: %w", err)
	}
	s.log.Info().Str("user_id", id).Msg("contraseña actualizada")
	return &PasswordChange{Message: MsgPasswordChanged, UserID: id}, nil
}

// ResetPassword genera una contraseña temporal para el usuario con ese email.
func (s *Service) ResetPassword(ctx context.Context, email string) (*PasswordReset, error) {
	row, err := s.rawByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("error resetting password: %w", err)
	}
	if row == nil {
		return nil, fmt.Errorf("error resetting password: %w", &domain.NotFoundError{Entity: "usuario", ID: email})
	}
	password, err := security.RandomPassword(resetPasswordLength)
	if err != nil {
		return nil, fmt.Errorf("error resetting password: %w", err)
	}
	id := row.String("id")
	if _, err := s.users.Patch(ctx, id, entity.Record{"password": password}); err != nil {
		return nil, fmt.Errorf("error resetting password: %w", err)
	}
	s.log.Info().Str("user_id", id).Msg("contraseña restablecida")
	return &PasswordReset{
		Message:     MsgPasswordReset,
		NewPassword: password,
		UserID:      id,
		Email:       row.String("email"),
	}, nil
}

// ToggleActive invierte activo.
func (s *Service) ToggleActive(ctx context.Context, id string) (entity.Record, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("error toggling user: %w", err)
	}
	rec, err := s.users.Patch(ctx, id, entity.Record{"activo": !user.Bool("activo")})
	if err != nil {
		return nil, fmt.Errorf("error toggling user: %w", err)
	}
	return rec, nil
}

// ByType usuarios activos del tipo dado, por nombre.
func (s *Service) ByType(ctx context.Context, tipo string) ([]entity.Record, error) {
	valid := false
	for _, t := range entity.UserTypes {
		valid = valid || t == tipo
	}
	if !valid {
		return nil, domain.NewValidationError("Tipo de usuario inválido. Debe ser: " + strings.Join(entity.UserTypes, ", "))
	}
	w := s.users.NewWhere().Eq("tipo", tipo).Eq("activo", true)
	return s.users.Find(ctx, w, "nombre ASC")
}

// Stats cuenta usuarios por tipo y por estado.
func (s *Service) Stats(ctx context.Context) (*Stats, error) {
	store := s.users.Store()
	d := store.Dialect()
	p := d.Placeholder
	query := "SELECT COUNT(*) AS total," +
		" COUNT(CASE WHEN tipo = " + p(1) + " THEN 1 END) AS clientes," +
		" COUNT(CASE WHEN tipo = " + p(2) + " THEN 1 END) AS trabajadores," +
		" COUNT(CASE WHEN tipo = " + p(3) + " THEN 1 END) AS administradores," +
		" COUNT(CASE WHEN activo = " + p(4) + " THEN 1 END) AS activos" +
		" FROM " + entity.TableUsers
	rows, err := store.Select(ctx, query, entity.UserCliente, entity.UserTrabajador, entity.UserAdmin, true)
	if err != nil {
		return nil, fmt.Errorf("error getting user stats: %w", err)
	}
	out := &Stats{}
	if len(rows) == 0 {
		return out, nil
	}
	r := rows[0]
	out.Total = r.Int("total")
	out.PorTipo.Clientes = r.Int("clientes")
	out.PorTipo.Trabajadores = r.Int("trabajadores")
	out.PorTipo.Administradores = r.Int("administradores")
	out.PorEstado.Activos = r.Int("activos")
	out.PorEstado.Inactivos = out.Total - out.PorEstado.Activos
	return out, nil
}

// rawByEmail lee la fila completa (con hash); nil si no existe.
func (s *Service) rawByEmail(ctx context.Context, email string) (entity.Record, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return nil, domain.NewValidationError("El email es requerido")
	}
	store := s.users.Store()
	rows, err := store.Select(ctx,
		"SELECT * FROM "+entity.TableUsers+" WHERE email = "+store.Dialect().Placeholder(1), email)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

func (s *Service) rawByID(ctx context.Context, id string) (entity.Record, error) {
	store := s.users.Store()
	rows, err := store.Select(ctx,
		"SELECT * FROM "+entity.TableUsers+" WHERE id = "+store.Dialect().Placeholder(1), id)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, &domain.NotFoundError{Entity: entity.TableUsers, ID: id}
	}
	return rows[0], nil
}
