package entities

import (
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/jhoicas/jugueria-api/internal/application/engine"
	"github.com/jhoicas/jugueria-api/internal/domain"
	"github.com/jhoicas/jugueria-api/internal/domain/repository"
)

// Options configura el registro de entidades.
type Options struct {
	Clock  func() time.Time
	Logger zerolog.Logger
}

// Registry agrupa las Specs de todas las entidades y construye sus motores.
type Registry struct {
	specs map[string]*engine.Spec
	now   func() time.Time
	log   zerolog.Logger
}

// NewRegistry arma las Specs de productos, pedidos, ventas, gastos, promociones y usuarios.
func NewRegistry(opts Options) *Registry {
	now := opts.Clock
	if now == nil {
		now = time.Now
	}
	r := &Registry{specs: make(map[string]*engine.Spec), now: now, log: opts.Logger}
	for _, s := range []*engine.Spec{
		productSpec(),
		orderSpec(),
		saleSpec(),
		expenseSpec(),
		promotionSpec(now),
		userSpec(),
	} {
		r.specs[s.Entity] = s
	}
	return r
}

// Names devuelve los selectores de entidad registrados, ordenados.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.specs))
	for n := range r.specs {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Spec devuelve la Spec de la entidad o un NotFoundError si el selector no existe.
func (r *Registry) Spec(name string) (*engine.Spec, error) {
	s, ok := r.specs[name]
	if !ok {
		return nil, &domain.NotFoundError{Entity: "entidad", ID: name}
	}
	return s, nil
}

// Engine construye el motor de la entidad sobre store.
func (r *Registry) Engine(name string, store repository.RecordStore) (*engine.Engine, error) {
	s, err := r.Spec(name)
	if err != nil {
		return nil, err
	}
	e, err := engine.New(s, store,
		engine.WithClock(r.now),
		engine.WithLogger(r.log.With().Str("entity", name).Logger()),
	)
	if err != nil {
		return nil, fmt.Errorf("engine %s: %w", name, err)
	}
	return e, nil
}

// Engines construye un motor por entidad sobre el mismo store.
func (r *Registry) Engines(store repository.RecordStore) (map[string]*engine.Engine, error) {
	out := make(map[string]*engine.Engine, len(r.specs))
	for name := range r.specs {
		e, err := r.Engine(name, store)
		if err != nil {
			return nil, err
		}
		out[name] = e
	}
	return out, nil
}

// MustEngine es Engine para selectores fijos del código; entra en pánico si la Spec es inválida.
func (r *Registry) MustEngine(name string, store repository.RecordStore) *engine.Engine {
	e, err := r.Engine(name, store)
	if err != nil {
		panic(err)
	}
	return e
}

// Clock reloj compartido por las Specs (vigencia de promociones, defaults de fechas).
func (r *Registry) Clock() func() time.Time { return r.now }
