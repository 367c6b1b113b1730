// Package sqlitetest abre bases SQLite temporales con el esquema migrado para tests.
package sqlitetest

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/jugueria-api/internal/infrastructure/migrations"
	"github.com/jhoicas/jugueria-api/internal/infrastructure/sqlite"
)

// New crea una base en t.TempDir(), aplica las migraciones y la cierra al terminar el test.
func New(t testing.TB) *sqlite.Store {
	t.Helper()
	store, err := sqlite.Open(filepath.Join(t.TempDir(), "jugueria.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	m, err := migrations.New(store.DB(), "sqlite", zerolog.Nop())
	require.NoError(t, err)
	require.NoError(t, m.Up(context.Background()))
	return store
}
