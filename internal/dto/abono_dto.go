package dto

import "github.com/shopspring/decimal"

// RegistrarAbonoRequest applies an installment payment against a sale's
// outstanding balance. The venta id comes from the URL path.
type RegistrarAbonoRequest struct {
	ClienteID  string          `json:"cliente_id"  validate:"required,uuid"`
	Monto      decimal.Decimal `json:"monto"       validate:"required,gt=0"`
	MetodoPago string          `json:"metodo_pago" validate:"required,oneof=efectivo debito credito transferencia"`
	Notas      *string         `json:"notas"`
}

type AbonoResponse struct {
	ID                  string          `json:"id"`
	VentaID             string          `json:"venta_id"`
	ClienteID           string          `json:"cliente_id"`
	Monto               decimal.Decimal `json:"monto"`
	MetodoPago          string          `json:"metodo_pago"`
	Notas               *string         `json:"notas,omitempty"`
	NuevoSaldoPendiente decimal.Decimal `json:"nuevo_saldo_pendiente"`
	EstadoVenta         string          `json:"estado_venta"`
	CreatedAt           string          `json:"created_at"`
}
