package entity

import "time"

// PromotionType tipo de promoción.
type PromotionType string

const (
	TablePromotions        = "promociones"
	TablePromotionProducts = "promocion_productos"

	PromoPercentage PromotionType = "descuento_porcentaje"
	PromoFixed      PromotionType = "descuento_fijo"
	PromoTwoForOne  PromotionType = "2x1"
	PromoCombo      PromotionType = "combo"

	MaxFixedDiscount = "9999.99"
)

// PromotionTypes tipos válidos de promoción.
var PromotionTypes = []string{string(PromoPercentage), string(PromoFixed), string(PromoCombo), string(PromoTwoForOne)}

// PromotionWindow ventana de vigencia de una promoción.
type PromotionWindow struct {
	Active bool
	Start  time.Time
	End    time.Time
}

// Vigente: activa y now dentro de [Start, End].
func (w PromotionWindow) Vigente(now time.Time) bool {
	return w.Active && !now.Before(w.Start) && !now.After(w.End)
}

// Proximamente: activa y todavía no empieza.
func (w PromotionWindow) Proximamente(now time.Time) bool {
	return w.Active && now.Before(w.Start)
}

// Expirada: now pasó End, sin importar Active.
func (w PromotionWindow) Expirada(now time.Time) bool {
	return now.After(w.End)
}
