package entity

// Tabla y categorías de productos de la carta.
const (
	TableProducts = "productos"

	CategoryJugos     = "jugos"
	CategoryDesayunos = "desayunos"
	CategoryBebidas   = "bebidas"
)

// ProductCategories categorías válidas de producto.
var ProductCategories = []string{CategoryJugos, CategoryDesayunos, CategoryBebidas}

// Límites de precio de la carta.
const (
	MaxProductPrice = "9999.99"
)
