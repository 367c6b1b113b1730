package entity

// Tipos válidos de usuario.
const (
	TableUsers = "usuarios"

	UserCliente    = "cliente"
	UserTrabajador = "trabajador"
	UserAdmin      = "admin"
)

// UserTypes tipos válidos para usuarios.tipo.
var UserTypes = []string{UserCliente, UserTrabajador, UserAdmin}

// Reglas de contraseña.
const (
	MinPasswordLength = 6
	MaxPasswordLength = 255
)
