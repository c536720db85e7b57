package model

import "github.com/shopspring/decimal"

// EstadoPago is the payment state of a Venta. It is materialized as a column
// for query convenience but is always recomputed from (total, monto_pagado)
// on every write — the stored value is a cache, not a source of truth.
type EstadoPago string

const (
	EstadoPendiente EstadoPago = "pendiente"
	EstadoParcial   EstadoPago = "parcial"
	EstadoPagada    EstadoPago = "pagada"
)

// Valido reports whether e is one of the closed set of states.
func (e EstadoPago) Valido() bool {
	switch e {
	case EstadoPendiente, EstadoParcial, EstadoPagada:
		return true
	}
	return false
}

// DerivarEstado computes the payment state from the sale total and the amount
// settled so far. Pure function — callers are responsible for never letting
// pagado exceed total; when it does anyway the sale still reads as "pagada".
func DerivarEstado(total, pagado decimal.Decimal) EstadoPago {
	switch {
	case pagado.LessThanOrEqual(decimal.Zero):
		return EstadoPendiente
	case pagado.LessThan(total):
		return EstadoParcial
	default:
		return EstadoPagada
	}
}
