package storage_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/jugueria-api/internal/infrastructure/storage"
	"github.com/jhoicas/jugueria-api/pkg/config"
)

func TestOpen_SQLite(t *testing.T) {
	ctx := context.Background()
	h, err := storage.Open(ctx, config.DBConfig{
		Driver:     config.DriverSQLite,
		SQLitePath: filepath.Join(t.TempDir(), "pos.db"),
	})
	require.NoError(t, err)
	defer h.Close()

	m, err := h.Migrator(zerolog.Nop())
	require.NoError(t, err)
	require.NoError(t, m.Up(ctx))

	rows, err := h.Store.Select(ctx, "SELECT COUNT(*) AS n FROM productos")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, 0, rows[0].Int("n"))
}

func TestOpen_UnknownDriver(t *testing.T) {
	_, err := storage.Open(context.Background(), config.DBConfig{Driver: "oracle"})
	assert.ErrorContains(t, err, "driver no soportado")
}
