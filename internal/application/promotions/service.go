// Package promotions calcula descuentos y administra la vigencia y los productos de las promociones.
package promotions

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/jugueria-api/internal/application/engine"
	"github.com/jhoicas/jugueria-api/internal/application/entities"
	"github.com/jhoicas/jugueria-api/internal/domain"
	"github.com/jhoicas/jugueria-api/internal/domain/entity"
	"github.com/jhoicas/jugueria-api/internal/domain/repository"
)

var (
	hundred = decimal.NewFromInt(100)
	half    = decimal.RequireFromString("0.5")
)

// DiscountResult resultado de aplicar una promoción a un subtotal.
type DiscountResult struct {
	PromotionID string          `json:"promocion_id"`
	Title       string          `json:"promocion_titulo"`
	Type        string          `json:"tipo"`
	Subtotal    decimal.Decimal `json:"subtotal"`
	Discount    decimal.Decimal `json:"descuento"`
	Total       decimal.Decimal `json:"total"`
}

// Stats conteos de promociones.
type Stats struct {
	Total     int            `json:"total"`
	Activas   int            `json:"activas"`
	Vigentes  int            `json:"vigentes"`
	Expiradas int            `json:"expiradas"`
	PorTipo   map[string]int `json:"por_tipo"`
}

// Discount calcula el descuento de un tipo de promoción sobre subtotal, redondeado a 2 decimales.
// 2x1 descuenta la mitad del subtotal; fijo y combo nunca superan el subtotal.
func Discount(tipo entity.PromotionType, value, subtotal decimal.Decimal) decimal.Decimal {
	var d decimal.Decimal
	switch tipo {
	case entity.PromoPercentage:
		d = subtotal.Mul(value).Div(hundred)
	case entity.PromoFixed, entity.PromoCombo:
		d = decimal.Min(value, subtotal)
	case entity.PromoTwoForOne:
		d = subtotal.Mul(half)
	default:
		return decimal.Zero
	}
	if d.IsNegative() {
		return decimal.Zero
	}
	return d.Round(2)
}

// Service operaciones de promociones.
type Service struct {
	promos *engine.Engine
	now    func() time.Time
	log    zerolog.Logger
}

// NewService construye el servicio con el reloj del registro.
func NewService(reg *entities.Registry, store repository.RecordStore, log zerolog.Logger) *Service {
	return &Service{
		promos: reg.MustEngine(entity.TablePromotions, store),
		now:    reg.Clock(),
		log:    log,
	}
}

// CalculateDiscount aplica la promoción a subtotal. Falla con ErrPromotionNotActive si no está vigente.
func (s *Service) CalculateDiscount(ctx context.Context, id string, subtotal decimal.Decimal) (*DiscountResult, error) {
	if subtotal.IsNegative() {
		return nil, domain.NewValidationError("El subtotal debe ser un número positivo o cero")
	}
	promo, err := s.promos.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("error calculating discount: %w", err)
	}
	if vigente, _ := promo["vigente"].(bool); !vigente {
		return nil, fmt.Errorf("error calculating discount: %w", domain.ErrPromotionNotActive)
	}

	tipo := entity.PromotionType(promo.String("tipo"))
	discount := Discount(tipo, promo.Decimal("valor_descuento"), subtotal)
	return &DiscountResult{
		PromotionID: id,
		Title:       promo.String("titulo"),
		Type:        string(tipo),
		Subtotal:    subtotal,
		Discount:    discount,
		Total:       subtotal.Sub(discount),
	}, nil
}

// Active promociones vigentes ahora, las que vencen antes primero.
func (s *Service) Active(ctx context.Context) ([]entity.Record, error) {
	now := s.now()
	w := s.promos.NewWhere().
		Eq("activa", true).
		Cmp("fecha_inicio", "<=", now).
		Cmp("fecha_fin", ">=", now)
	return s.promos.Find(ctx, w, "fecha_fin ASC")
}

// ByType promociones activas del tipo dado, las más recientes primero.
func (s *Service) ByType(ctx context.Context, tipo string) ([]entity.Record, error) {
	if !contains(entity.PromotionTypes, tipo) {
		return nil, domain.NewValidationError("Tipo de promoción inválido. Debe ser: " + strings.Join(entity.PromotionTypes, ", "))
	}
	w := s.promos.NewWhere().Eq("tipo", tipo).Eq("activa", true)
	return s.promos.Find(ctx, w, "fecha_inicio DESC")
}

// ToggleActive invierte activa.
func (s *Service) ToggleActive(ctx context.Context, id string) (entity.Record, error) {
	promo, err := s.promos.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("error toggling promotion: %w", err)
	}
	rec, err := s.promos.Patch(ctx, id, entity.Record{"activa": !promo.Bool("activa")})
	if err != nil {
		return nil, fmt.Errorf("error toggling promotion: %w", err)
	}
	return rec, nil
}

// Extend mueve fecha_fin a newEnd (YYYY-MM-DD HH:MM:SS), que debe ser posterior al fin actual.
func (s *Service) Extend(ctx context.Context, id, newEnd string) (entity.Record, error) {
	promo, err := s.promos.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("error extending promotion: %w", err)
	}
	end, err := time.ParseInLocation(entity.DateTimeLayout, strings.TrimSpace(newEnd), time.Local)
	if err != nil {
		return nil, domain.NewValidationError("Formato de fecha inválido. Use YYYY-MM-DD HH:MM:SS")
	}
	if current, ok := promo.Time("fecha_fin"); ok && !end.After(current) {
		return nil, domain.NewValidationError("La nueva fecha debe ser posterior a la fecha actual de fin")
	}
	rec, err := s.promos.Patch(ctx, id, entity.Record{"fecha_fin": end})
	if err != nil {
		return nil, fmt.Errorf("error extending promotion: %w", err)
	}
	return rec, nil
}

// GetWithProducts devuelve la promoción con sus productos disponibles.
func (s *Service) GetWithProducts(ctx context.Context, id string) (entity.Record, error) {
	promo, err := s.promos.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	products, err := entities.PromotionProducts(ctx, s.promos.Store(), id)
	if err != nil {
		return nil, err
	}
	promo[entities.FieldProductIDs] = productIDs(products)
	promo["productos"] = products
	return promo, nil
}

// SetProducts reemplaza los productos de la promoción. ids admite arreglo, JSON o CSV.
func (s *Service) SetProducts(ctx context.Context, id string, ids any) (entity.Record, error) {
	list, err := entities.ParseProductIDs(ids)
	if err != nil {
		return nil, err
	}
	err = s.promos.Atomic(ctx, func(tx *engine.Engine) error {
		if _, err := tx.GetByID(ctx, id); err != nil {
			return err
		}
		return entities.ReplacePromotionProducts(ctx, tx.Store(), id, list)
	})
	if err != nil {
		return nil, fmt.Errorf("error setting promotion products: %w", err)
	}
	s.log.Info().Str("promotion_id", id).Int("products", len(list)).Msg("productos de promoción actualizados")
	return s.GetWithProducts(ctx, id)
}

// CreateWithProducts crea la promoción y sus asociaciones en una sola transacción.
func (s *Service) CreateWithProducts(ctx context.Context, data entity.Record) (entity.Record, error) {
	var rec entity.Record
	err := s.promos.Atomic(ctx, func(tx *engine.Engine) error {
		var err error
		rec, err = tx.Create(ctx, data)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("error creating promotion: %w", err)
	}
	s.log.Info().Str("promotion_id", rec.String("id")).Msg("promoción creada")
	return rec, nil
}

// UpdateWithProducts reemplaza la promoción y, si vienen, sus productos en una sola transacción.
func (s *Service) UpdateWithProducts(ctx context.Context, id string, data entity.Record) (entity.Record, error) {
	var rec entity.Record
	err := s.promos.Atomic(ctx, func(tx *engine.Engine) error {
		var err error
		rec, err = tx.Update(ctx, id, data)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("error updating promotion: %w", err)
	}
	return rec, nil
}

// Stats totales, activas, vigentes, expiradas y conteo por tipo.
func (s *Service) Stats(ctx context.Context) (*Stats, error) {
	store := s.promos.Store()
	d := store.Dialect()
	now := s.now()
	query := "SELECT tipo, COUNT(*) AS total," +
		" COUNT(CASE WHEN activa = " + d.Placeholder(1) + " THEN 1 END) AS activas," +
		" COUNT(CASE WHEN activa = " + d.Placeholder(2) + " AND fecha_inicio <= " + d.Placeholder(3) +
		" AND fecha_fin >= " + d.Placeholder(4) + " THEN 1 END) AS vigentes," +
		" COUNT(CASE WHEN fecha_fin < " + d.Placeholder(5) + " THEN 1 END) AS expiradas" +
		" FROM " + entity.TablePromotions + " GROUP BY tipo"
	rows, err := store.Select(ctx, query, true, true, now, now, now)
	if err != nil {
		return nil, fmt.Errorf("error getting promotion stats: %w", err)
	}

	out := &Stats{PorTipo: make(map[string]int, len(rows))}
	for _, r := range rows {
		n := r.Int("total")
		out.Total += n
		out.Activas += r.Int("activas")
		out.Vigentes += r.Int("vigentes")
		out.Expiradas += r.Int("expiradas")
		out.PorTipo[r.String("tipo")] = n
	}
	return out, nil
}

func productIDs(products []entity.Record) []string {
	ids := make([]string, len(products))
	for i, p := range products {
		ids[i] = p.String("id")
	}
	return ids
}

func contains(list []string, v string) bool {
	for _, e := range list {
		if e == v {
			return true
		}
	}
	return false
}
