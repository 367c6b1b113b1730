package entities

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/jhoicas/jugueria-api/internal/domain"
	"github.com/jhoicas/jugueria-api/internal/domain/entity"
	"github.com/jhoicas/jugueria-api/internal/domain/repository"
	"github.com/jhoicas/jugueria-api/pkg/security"
)

const msgProductIDs = "El campo productos_aplicables debe ser un arreglo de IDs de productos"

// ParseProductIDs normaliza productos_aplicables a una lista de IDs sin repetidos.
// Acepta un arreglo, un arreglo codificado en JSON o una lista separada por comas.
func ParseProductIDs(v any) ([]string, error) {
	var items []any
	switch t := v.(type) {
	case nil:
		return []string{}, nil
	case []string:
		for _, s := range t {
			items = append(items, s)
		}
	case []any:
		items = t
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return []string{}, nil
		}
		var decoded any
		if err := json.Unmarshal([]byte(s), &decoded); err == nil {
			return ParseProductIDs(decoded)
		}
		for _, part := range strings.Split(s, ",") {
			items = append(items, part)
		}
	case float64, json.Number, int, int64:
		items = []any{t}
	default:
		return nil, domain.NewValidationError(msgProductIDs)
	}

	seen := make(map[string]bool, len(items))
	ids := make([]string, 0, len(items))
	for _, item := range items {
		var id string
		switch t := item.(type) {
		case string:
			id = t
		case json.Number:
			id = t.String()
		case float64:
			id = strconv.FormatFloat(t, 'f', -1, 64)
		case int:
			id = strconv.Itoa(t)
		case int64:
			id = strconv.FormatInt(t, 10)
		default:
			continue
		}
		id = security.SanitizeString(id)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		ids = append(ids, id)
	}
	return ids, nil
}

// ReplacePromotionProducts borra las asociaciones de la promoción e inserta las nuevas.
// Debe correr dentro de la transacción de la escritura principal.
func ReplacePromotionProducts(ctx context.Context, store repository.RecordStore, promotionID string, productIDs []string) error {
	d := store.Dialect()
	if len(productIDs) > 0 {
		args := make([]any, len(productIDs))
		for i, id := range productIDs {
			args[i] = id
		}
		rows, err := store.Select(ctx,
			"SELECT id FROM "+entity.TableProducts+" WHERE id IN ("+repository.Placeholders(d, 1, len(args))+")", args...)
		if err != nil {
			return fmt.Errorf("error checking products: %w", err)
		}
		found := make(map[string]bool, len(rows))
		for _, r := range rows {
			found[r.String("id")] = true
		}
		var missing []string
		for _, id := range productIDs {
			if !found[id] {
				missing = append(missing, "Producto no encontrado: "+id)
			}
		}
		if len(missing) > 0 {
			return domain.NewValidationError(missing...)
		}
	}

	if _, err := store.Delete(ctx,
		"DELETE FROM "+entity.TablePromotionProducts+" WHERE promocion_id = "+d.Placeholder(1), promotionID); err != nil {
		return fmt.Errorf("error clearing promotion products: %w", err)
	}
	insert := "INSERT INTO " + entity.TablePromotionProducts + " (promocion_id, producto_id) VALUES (" +
		repository.Placeholders(d, 1, 2) + ")"
	for _, id := range productIDs {
		if _, err := store.Insert(ctx, insert, promotionID, id); err != nil {
			return fmt.Errorf("error adding promotion product: %w", err)
		}
	}
	return nil
}

// PromotionProducts devuelve los productos disponibles asociados a la promoción, por nombre.
func PromotionProducts(ctx context.Context, store repository.RecordStore, promotionID string) ([]entity.Record, error) {
	d := store.Dialect()
	rows, err := store.Select(ctx,
		"SELECT p.* FROM "+entity.TableProducts+" p JOIN "+entity.TablePromotionProducts+
			" pp ON p.id = pp.producto_id WHERE pp.promocion_id = "+d.Placeholder(1)+
			" AND p.disponible = "+d.Placeholder(2)+" ORDER BY p.nombre ASC", promotionID, true)
	if err != nil {
		return nil, fmt.Errorf("error getting promotion products: %w", err)
	}
	return rows, nil
}
