package entity

import "time"

// Turnos de caja.
const (
	TableSales = "ventas"

	ShiftManana = "mañana"
	ShiftTarde  = "tarde"
	ShiftNoche  = "noche"

	DefaultSeller = "Sistema"
)

// Shifts turnos válidos.
var Shifts = []string{ShiftManana, ShiftTarde, ShiftNoche}

// ShiftAt deriva el turno de la hora: 06-12 mañana, 12-18 tarde, resto noche.
func ShiftAt(t time.Time) string {
	switch h := t.Hour(); {
	case h >= 6 && h < 12:
		return ShiftManana
	case h >= 12 && h < 18:
		return ShiftTarde
	default:
		return ShiftNoche
	}
}
