package entity

// Categorías de gasto.
const (
	TableExpenses = "gastos"

	MaxExpenseAmount = "999999.99"
)

// ExpenseCategories categorías válidas de gasto.
var ExpenseCategories = []string{"materia_prima", "servicios", "equipos", "marketing", "otros"}
