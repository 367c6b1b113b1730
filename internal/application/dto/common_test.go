package dto_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jhoicas/jugueria-api/internal/application/dto"
)

func TestClampPage(t *testing.T) {
	tests := []struct {
		page, limit         int
		wantPage, wantLimit int
	}{
		{0, 0, 1, 1},
		{-3, -10, 1, 1},
		{2, 20, 2, 20},
		{1, 100, 1, 100},
		{1, 101, 1, 100},
		{7, 5000, 7, 100},
	}
	for _, tt := range tests {
		page, limit := dto.ClampPage(tt.page, tt.limit)
		assert.Equal(t, tt.wantPage, page, "page(%d)", tt.page)
		assert.Equal(t, tt.wantLimit, limit, "limit(%d)", tt.limit)
	}
}

func TestPages(t *testing.T) {
	assert.Equal(t, 0, dto.Pages(0, 20))
	assert.Equal(t, 1, dto.Pages(1, 20))
	assert.Equal(t, 1, dto.Pages(20, 20))
	assert.Equal(t, 2, dto.Pages(21, 20))
	assert.Equal(t, 101, dto.Pages(101, 1))
}
