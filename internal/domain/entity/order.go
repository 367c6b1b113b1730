package entity

// OrderStatus estado de un pedido en cocina/caja.
type OrderStatus string

const (
	TableOrders    = "pedidos"
	TableLineItems = "pedido_productos"

	StatusPendiente     OrderStatus = "pendiente"
	StatusEnPreparacion OrderStatus = "en_preparacion"
	StatusListo         OrderStatus = "listo"
	StatusEntregado     OrderStatus = "entregado"
	StatusCancelado     OrderStatus = "cancelado"

	OrderLocal  = "local"
	OrderOnline = "online"
)

// OrderStatuses estados válidos, en orden del flujo.
var OrderStatuses = []OrderStatus{StatusPendiente, StatusEnPreparacion, StatusListo, StatusEntregado, StatusCancelado}

// OrderTypes tipos válidos de pedido.
var OrderTypes = []string{OrderLocal, OrderOnline}

// PaymentMethods métodos de pago aceptados en caja.
var PaymentMethods = []string{"efectivo", "tarjeta", "yape", "plin"}

// nominalNext grafo nominal del flujo de cocina. No se impone: ver CanTransition.
var nominalNext = map[OrderStatus][]OrderStatus{
	StatusPendiente:     {StatusEnPreparacion, StatusCancelado},
	StatusEnPreparacion: {StatusListo, StatusCancelado},
	StatusListo:         {StatusEntregado, StatusCancelado},
}

// Valid indica si s pertenece al enum.
func (s OrderStatus) Valid() bool {
	for _, v := range OrderStatuses {
		if s == v {
			return true
		}
	}
	return false
}

// Terminal indica si el estado ya no avanza (entregado o cancelado).
func (s OrderStatus) Terminal() bool {
	return s == StatusEntregado || s == StatusCancelado
}

// CanTransition indica si from -> to sigue el flujo nominal
// pendiente -> en_preparacion -> listo -> entregado, con cancelado desde cualquier estado no terminal.
// Es solo informativo: UpdateStatus acepta cualquier estado del enum.
func CanTransition(from, to OrderStatus) bool {
	if from == to {
		return true
	}
	for _, next := range nominalNext[from] {
		if next == to {
			return true
		}
	}
	return false
}

// OrderStatusNames estados como texto, para mensajes y validación.
func OrderStatusNames() []string {
	out := make([]string, len(OrderStatuses))
	for i, s := range OrderStatuses {
		out[i] = string(s)
	}
	return out
}
