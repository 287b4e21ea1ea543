package domain

import "time"

// Workflow states of a purchase order (OC). Labels are the user-visible
// Spanish strings stored verbatim in the document; distribution-list routing
// in the notifier keys off them.
const (
	EstadoCreado               = "Creado"
	EstadoPendienteOperaciones = "Pendiente de Operaciones"
	EstadoAprobadoOperaciones  = "Aprobado por Operaciones"
	EstadoAprobadoGerencia     = "Aprobado por Gerencia"
	EstadoRechazado            = "Rechazado"
	EstadoCerrado              = "Cerrado"
)

// ValidEstado reports whether s is a known workflow state.
func ValidEstado(s string) bool {
	switch s {
	case EstadoCreado, EstadoPendienteOperaciones, EstadoAprobadoOperaciones,
		EstadoAprobadoGerencia, EstadoRechazado, EstadoCerrado:
		return true
	}
	return false
}

// Order is one purchase order document. The notification subsystem only reads
// snapshots of it; mutations come through the order service (or any other
// writer of the orders table — the change stream picks them up either way).
type Order struct {
	OrderID    string    `json:"id" dynamodbav:"order_id"`
	Numero     string    `json:"numero" dynamodbav:"numero"`
	Estado     string    `json:"estado" dynamodbav:"estado"`
	AsignadoA  string    `json:"asignadoA" dynamodbav:"asignado_a"`
	Comprador  string    `json:"comprador" dynamodbav:"comprador"`
	CreadoPor  string    `json:"creadoPor" dynamodbav:"creado_por"`
	SupplierID string    `json:"supplier_id" dynamodbav:"supplier_id"`
	Moneda     string    `json:"moneda" dynamodbav:"moneda"`
	Total      float64   `json:"total" dynamodbav:"total"`
	Enable     bool      `json:"enable" dynamodbav:"enable"`
	CreatedAt  time.Time `json:"created" dynamodbav:"created_at"`
	UpdatedAt  time.Time `json:"updated" dynamodbav:"updated_at"`
}

type CreateOrderRequest struct {
	Numero     string  `json:"numero" validate:"required"`
	AsignadoA  string  `json:"asignadoA" validate:"omitempty,email"`
	Comprador  string  `json:"comprador" validate:"omitempty,email"`
	SupplierID string  `json:"supplier_id"`
	Moneda     string  `json:"moneda"`
	Total      float64 `json:"total"`
}

type UpdateOrderRequest struct {
	Estado     *string  `json:"estado"`
	AsignadoA  *string  `json:"asignadoA" validate:"omitempty,email"`
	Comprador  *string  `json:"comprador" validate:"omitempty,email"`
	SupplierID *string  `json:"supplier_id"`
	Moneda     *string  `json:"moneda"`
	Total      *float64 `json:"total"`
}
