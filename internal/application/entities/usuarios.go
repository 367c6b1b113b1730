package entities

import (
	"context"
	"fmt"

	"github.com/asaskevich/govalidator"

	"github.com/jhoicas/jugueria-api/internal/application/engine"
	"github.com/jhoicas/jugueria-api/internal/domain"
	"github.com/jhoicas/jugueria-api/internal/domain/entity"
	"github.com/jhoicas/jugueria-api/internal/domain/repository"
	"github.com/jhoicas/jugueria-api/pkg/security"
)

func userSpec() *engine.Spec {
	return &engine.Spec{
		Entity:     entity.TableUsers,
		Table:      entity.TableUsers,
		PrimaryKey: "id",
		CreatedAt:  "created_at",
		UpdatedAt:  "updated_at",
		Columns: []string{
			"id", "nombre", "email", "telefono", "password_hash", "tipo", "activo", "fecha_registro",
			"created_at", "updated_at",
		},
		Searchable: []string{"nombre", "email", "telefono"},
		Types: map[string]engine.FieldType{
			"activo":         engine.TypeBool,
			"fecha_registro": engine.TypeTime,
			"created_at":     engine.TypeTime,
			"updated_at":     engine.TypeTime,
		},
		RawFields: []string{"password"},
		Virtual:   []string{"password"},
		Deletion:  engine.SoftActive("activo"),

		Validate:      validateUser,
		BeforeCreate:  beforeCreateUser,
		BeforeUpdate:  beforeUpdateUser,
		AfterGet:      StripPasswordHash,
		CustomFilters: userFilters,
	}
}

func validateUser(_ context.Context, in *engine.Input) []string {
	var v violations
	d := in.Data

	switch {
	case blank(d, "nombre"):
		v.add("El nombre es requerido")
	case tooLong(d, "nombre", 255):
		v.add("El nombre no puede exceder 255 caracteres")
	}

	switch {
	case blank(d, "email"):
		v.add("El email es requerido")
	case !govalidator.IsEmail(d.String("email")):
		v.add("El formato del email no es válido")
	case tooLong(d, "email", 255):
		v.add("El email no puede exceder 255 caracteres")
	}

	v.addIf(d.Has("tipo") && !oneOf(d.String("tipo"), entity.UserTypes),
		enumMsg("Tipo de usuario inválido", entity.UserTypes))
	v.addIf(tooLong(d, "telefono", 20), "El teléfono no puede exceder 20 caracteres")

	if d.Has("password") {
		switch n := len(d.String("password")); {
		case n < entity.MinPasswordLength:
			v.add("La contraseña debe tener al menos 6 caracteres")
		case n > entity.MaxPasswordLength:
			v.add("La contraseña es demasiado larga")
		}
	}
	return v
}

func beforeCreateUser(ctx context.Context, in *engine.Input) error {
	d := in.Data
	if err := ensureUniqueEmail(ctx, in.Store, d.String("email"), ""); err != nil {
		return err
	}
	setDefault(d, "tipo", entity.UserCliente)
	setDefault(d, "activo", true)
	setDefault(d, "fecha_registro", in.Now)
	return hashPasswordField(d)
}

func beforeUpdateUser(ctx context.Context, in *engine.Input) error {
	d := in.Data
	if d.Has("email") {
		if err := ensureUniqueEmail(ctx, in.Store, d.String("email"), in.ID); err != nil {
			return err
		}
	}
	return hashPasswordField(d)
}

// hashPasswordField reemplaza password por password_hash; un hash enviado por el cliente se descarta.
func hashPasswordField(d entity.Record) error {
	delete(d, "password_hash")
	if !d.Has("password") {
		delete(d, "password")
		return nil
	}
	hash, err := security.HashPassword(d.String("password"))
	if err != nil {
		return err
	}
	d["password_hash"] = hash
	delete(d, "password")
	return nil
}

// ensureUniqueEmail falla si otro usuario (distinto de exceptID) ya usa email.
// El índice único de la tabla cubre la carrera entre esta lectura y la escritura.
func ensureUniqueEmail(ctx context.Context, store repository.RecordStore, email, exceptID string) error {
	d := store.Dialect()
	rows, err := store.Select(ctx,
		"SELECT id FROM "+entity.TableUsers+" WHERE email = "+d.Placeholder(1), email)
	if err != nil {
		return fmt.Errorf("error checking email: %w", err)
	}
	for _, r := range rows {
		if r.String("id") != exceptID {
			return &domain.ConflictError{Err: domain.ErrEmailAlreadyExists}
		}
	}
	return nil
}

// StripPasswordHash quita el hash de contraseña de cualquier lectura.
func StripPasswordHash(rec entity.Record) entity.Record {
	delete(rec, "password_hash")
	return rec
}

func userFilters(f engine.Filters, w *engine.Where) error {
	eqFilter(f, w, "tipo", "tipo")
	if err := boolFilter(f, w, "activo", "activo"); err != nil {
		return err
	}
	return dateRange(f, w, "fecha_registro")
}
