package service

import "fmt"

// Typed business errors. Every mutating operation runs inside its own
// transaction, so any of these aborts with a full rollback — callers never
// observe partial effects and retrying is always safe.

// ValidationError marks malformed or out-of-range input: empty cart, discount
// exceeding the subtotal, an abono exceeding the pending balance, a credit
// sale to the general client.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

// NotFoundError marks an unknown venta, producto, or cliente id.
type NotFoundError struct {
	Recurso string
}

func (e *NotFoundError) Error() string { return e.Recurso + " no encontrado" }

// InsufficientStockError is returned by the stock ledger when an adjustment
// would leave a product with negative stock. No change is made.
type InsufficientStockError struct {
	Producto   string
	Solicitado int
	Disponible int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("stock insuficiente para %s: solicitado %d, disponible %d",
		e.Producto, e.Solicitado, e.Disponible)
}

// ConsistencyError marks a violated post-condition that should be unreachable
// (pagado + pendiente != total after an abono). It is treated as fatal and
// aborts the enclosing transaction rather than silently coercing the state.
type ConsistencyError struct {
	Detalle string
}

func (e *ConsistencyError) Error() string { return "inconsistencia detectada: " + e.Detalle }
